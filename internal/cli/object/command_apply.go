package object

import (
	"fmt"
	"strings"

	debugctx "github.com/fiesolecouk/declansx/debugctx"
	"github.com/fiesolecouk/declansx/internal/cli/common"
	"github.com/fiesolecouk/declansx/reconcile"
	"github.com/fiesolecouk/declansx/resource"
	"github.com/spf13/cobra"
)

func newApplyCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags, kind resource.Kind) *cobra.Command {
	var input common.InputFlags
	var flags specFlags
	var domainFlag string
	var force bool
	var dryRun bool

	command := &cobra.Command{
		Use:   "apply [name]",
		Short: fmt.Sprintf("Apply desired %s state (create-or-update remote)", kindLabel(kind)),
		Long: strings.Join([]string{
			"Apply reconciles one desired object against the manager by display name:",
			"create when it does not exist, leave alone when it already matches, and",
			"update only when --force allows overwriting differing parameters.",
			"The desired state comes from --file <path|-> or stdin, or from the kind's",
			"spec flags together with a positional name.",
		}, " "),
		Example: applyExample(kind),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			orchestratorService, err := common.RequireOrchestrator(deps)
			if err != nil {
				return err
			}

			document, err := resolveApplyDocument(command, kind, args, input, flags)
			if err != nil {
				return err
			}

			if kind.DomainScoped() {
				flagDomain := strings.TrimSpace(domainFlag)
				if flagDomain != "" && document.Domain != "" && document.Domain != flagDomain {
					return common.ValidationError("domain mismatch between spec input and --domain", nil)
				}
				if document.Domain == "" {
					document.Domain = resolveDomainSelection(command.Context(), deps, globalFlags, flagDomain)
				}
			}

			outputFormat := common.ResolveContextOutputFormat(command.Context(), deps, globalFlags)

			debugctx.Printf(command.Context(), "%s apply requested name=%q domain=%q force=%t dry-run=%t",
				kind, document.Spec.DisplayName(), document.Domain, force, dryRun)

			result := orchestratorService.ApplyDocument(command.Context(), document, reconcile.Options{
				Force:  force,
				DryRun: dryRun,
			})
			if err := common.WriteOutput(command, outputFormat, result, renderDocumentResultText); err != nil {
				return err
			}
			return documentResultError(result)
		},
	}

	common.BindInputFlags(command, &input)
	bindSpecFlags(command, kind, &flags)
	if kind.DomainScoped() {
		common.BindDomainFlag(command, &domainFlag)
	}
	command.Flags().BoolVar(&force, "force", false, "overwrite an existing object whose parameters differ")
	command.Flags().BoolVar(&dryRun, "dry-run", false, "report the action without mutating the manager")
	command.ValidArgsFunction = common.ObjectNameArgCompletionFunc(deps, kind)
	return command
}

func applyExample(kind resource.Kind) string {
	switch kind {
	case resource.KindTier0:
		return strings.Join([]string{
			"  declansx tier0 apply edge-uplink --ha-mode ACTIVE_STANDBY --failover-mode NON_PREEMPTIVE",
			"  declansx tier0 apply --file tier0.yaml",
			"  cat tier0.yaml | declansx tier0 apply --dry-run",
		}, "\n")
	case resource.KindTier1:
		return strings.Join([]string{
			"  declansx tier1 apply app-tier --tier0-path /infra/tier-0s/edge-uplink",
			"  declansx tier1 apply --file tier1.yaml",
			"  cat tier1.yaml | declansx tier1 apply --force",
		}, "\n")
	default:
		return strings.Join([]string{
			"  declansx group apply web-servers --condition VirtualMachine:Tag:EQUALS:web",
			"  declansx group apply --file group.yaml --domain prod",
			"  cat group.yaml | declansx group apply --dry-run",
		}, "\n")
	}
}
