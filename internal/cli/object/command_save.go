package object

import (
	"fmt"
	"strings"

	debugctx "github.com/fiesolecouk/declansx/debugctx"
	"github.com/fiesolecouk/declansx/internal/cli/common"
	"github.com/fiesolecouk/declansx/resource"
	"github.com/spf13/cobra"
)

func newSaveCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags, kind resource.Kind) *cobra.Command {
	var domainFlag string

	command := &cobra.Command{
		Use:   "save [name]",
		Short: fmt.Sprintf("Export a remote %s into the inventory", kindLabel(kind)),
		Long: fmt.Sprintf(
			"Save reads the %s currently on the manager and stores it in the inventory "+
				"as a spec document. Server bookkeeping fields (id, path, revision) are "+
				"dropped; the stored document carries only the declarative fields and can "+
				"be applied back as-is.",
			kindLabel(kind),
		),
		Example: saveExample(kind),
		Args:    cobra.MaximumNArgs(1),
		RunE: func(command *cobra.Command, args []string) error {
			name, err := resolveNameArg(kind, args)
			if err != nil {
				return err
			}

			orchestratorService, err := common.RequireOrchestrator(deps)
			if err != nil {
				return err
			}

			var domain string
			if kind.DomainScoped() {
				domain = resolveDomainSelection(command.Context(), deps, globalFlags, domainFlag)
			}

			debugctx.Printf(command.Context(), "%s save requested name=%q domain=%q", kind, name, domain)

			document, err := orchestratorService.SaveRemote(command.Context(), kind, domain, name)
			if err != nil {
				debugctx.Printf(command.Context(), "%s save failed name=%q error=%v", kind, name, err)
				return err
			}
			debugctx.Printf(command.Context(), "%s save stored document kind=%q name=%q", kind, document.Kind, name)

			if !common.IsVerbose(globalFlags) {
				return nil
			}

			encoded, err := resource.EncodeDocument(document)
			if err != nil {
				return err
			}
			_, err = fmt.Fprint(command.OutOrStdout(), string(encoded))
			return err
		},
	}

	if kind.DomainScoped() {
		common.BindDomainFlag(command, &domainFlag)
	}
	command.ValidArgsFunction = common.ObjectNameArgCompletionFunc(deps, kind)
	return command
}

func saveExample(kind resource.Kind) string {
	lines := []string{
		fmt.Sprintf("  declansx %s save %s", kind, exampleObjectName(kind)),
		fmt.Sprintf("  declansx %s save %s --verbose", kind, exampleObjectName(kind)),
	}
	if kind.DomainScoped() {
		lines = append(lines, fmt.Sprintf("  declansx %s save %s --domain prod", kind, exampleObjectName(kind)))
	}
	return strings.Join(lines, "\n")
}
