package object

import (
	"fmt"
	"strings"

	debugctx "github.com/fiesolecouk/declansx/debugctx"
	"github.com/fiesolecouk/declansx/internal/cli/common"
	"github.com/fiesolecouk/declansx/resource"
	"github.com/spf13/cobra"
)

func newGetCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags, kind resource.Kind) *cobra.Command {
	var domainFlag string

	command := &cobra.Command{
		Use:     "get [name]",
		Short:   fmt.Sprintf("Read a %s from the manager", kindLabel(kind)),
		Example: getExample(kind),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			name, err := resolveNameArg(kind, args)
			if err != nil {
				return err
			}

			outputFormat := common.ResolveContextOutputFormat(command.Context(), deps, globalFlags)

			orchestratorService, err := common.RequireOrchestrator(deps)
			if err != nil {
				return err
			}

			var domain string
			if kind.DomainScoped() {
				domain = resolveDomainSelection(command.Context(), deps, globalFlags, domainFlag)
			}

			debugctx.Printf(command.Context(), "%s get requested name=%q domain=%q", kind, name, domain)

			item, err := orchestratorService.GetRemote(command.Context(), kind, domain, name)
			if err != nil {
				debugctx.Printf(command.Context(), "%s get failed name=%q error=%v", kind, name, err)
				return err
			}
			debugctx.Printf(command.Context(), "%s get succeeded name=%q id=%q revision=%d", kind, name, item.ID, item.Revision)

			return common.WriteOutput(command, outputFormat, item, renderRemoteObjectText)
		},
	}

	if kind.DomainScoped() {
		common.BindDomainFlag(command, &domainFlag)
	}
	command.ValidArgsFunction = common.ObjectNameArgCompletionFunc(deps, kind)
	return command
}

func getExample(kind resource.Kind) string {
	lines := []string{
		fmt.Sprintf("  declansx %s get %s", kind, exampleObjectName(kind)),
		fmt.Sprintf("  declansx %s get %s --output yaml", kind, exampleObjectName(kind)),
	}
	if kind.DomainScoped() {
		lines = append(lines, fmt.Sprintf("  declansx %s get %s --domain prod", kind, exampleObjectName(kind)))
	}
	return strings.Join(lines, "\n")
}
