// Package object builds the per-kind command trees (group, tier0, tier1).
// Every kind gets the same five verbs; the kind only changes which spec
// flags are bound and which remote collection the orchestrator talks to.
package object

import (
	"context"
	"fmt"
	"strings"

	configdomain "github.com/fiesolecouk/declansx/config"
	"github.com/fiesolecouk/declansx/internal/cli/common"
	"github.com/fiesolecouk/declansx/resource"
	"github.com/spf13/cobra"
)

func NewGroupCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return newKindCommand(deps, globalFlags, resource.KindGroup, "Manage NSX policy groups")
}

func NewTier0Command(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return newKindCommand(deps, globalFlags, resource.KindTier0, "Manage NSX tier-0 gateways")
}

func NewTier1Command(deps common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return newKindCommand(deps, globalFlags, resource.KindTier1, "Manage NSX tier-1 gateways")
}

func newKindCommand(
	deps common.CommandDependencies,
	globalFlags *common.GlobalFlags,
	kind resource.Kind,
	short string,
) *cobra.Command {
	command := &cobra.Command{
		Use:   kind.String(),
		Short: short,
		Args:  cobra.NoArgs,
	}

	command.AddCommand(
		newApplyCommand(deps, globalFlags, kind),
		newGetCommand(deps, globalFlags, kind),
		newListCommand(deps, globalFlags, kind),
		newDiffCommand(deps, globalFlags, kind),
		newSaveCommand(deps, globalFlags, kind),
	)

	return command
}

func kindLabel(kind resource.Kind) string {
	switch kind {
	case resource.KindTier0:
		return "tier-0 gateway"
	case resource.KindTier1:
		return "tier-1 gateway"
	default:
		return "group"
	}
}

func exampleObjectName(kind resource.Kind) string {
	switch kind {
	case resource.KindTier0:
		return "edge-uplink"
	case resource.KindTier1:
		return "app-tier"
	default:
		return "web-servers"
	}
}

func resolveNameArg(kind resource.Kind, args []string) (string, error) {
	var name string
	if len(args) > 0 {
		name = strings.TrimSpace(args[0])
	}
	if name == "" {
		return "", common.ValidationError(fmt.Sprintf("%s name is required", kindLabel(kind)), nil)
	}
	return name, nil
}

// resolveDomainSelection picks the policy domain for a domain-scoped call.
// An explicit --domain wins; otherwise the resolved context's default domain
// applies. Both absent leaves the selection empty and the manager session
// binds the provisioned default domain.
func resolveDomainSelection(
	ctx context.Context,
	deps common.CommandDependencies,
	globalFlags *common.GlobalFlags,
	explicit string,
) string {
	if trimmed := strings.TrimSpace(explicit); trimmed != "" {
		return trimmed
	}
	if deps.Contexts == nil {
		return ""
	}

	var contextName string
	if globalFlags != nil {
		contextName = globalFlags.Context
	}
	resolvedContext, err := deps.Contexts.ResolveContext(ctx, configdomain.ContextSelection{Name: contextName})
	if err != nil {
		return ""
	}
	return strings.TrimSpace(resolvedContext.Defaults.Domain)
}
