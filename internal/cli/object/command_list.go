package object

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fiesolecouk/declansx/internal/cli/common"
	"github.com/fiesolecouk/declansx/resource"
	"github.com/spf13/cobra"
)

func newListCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags, kind resource.Kind) *cobra.Command {
	var domainFlag string
	var jqExpression string

	command := &cobra.Command{
		Use:   "list",
		Short: fmt.Sprintf("List %ss on the manager", kindLabel(kind)),
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, args []string) error {
			outputFormat := common.ResolveContextOutputFormat(command.Context(), deps, globalFlags)

			orchestratorService, err := common.RequireOrchestrator(deps)
			if err != nil {
				return err
			}

			var domain string
			if kind.DomainScoped() {
				domain = resolveDomainSelection(command.Context(), deps, globalFlags, domainFlag)
			}

			items, err := orchestratorService.ListRemote(command.Context(), kind, domain)
			if err != nil {
				return err
			}

			if jqExpression != "" {
				value, jqErr := common.ApplyJQ(command.Context(), jqExpression, items)
				if jqErr != nil {
					return jqErr
				}
				return common.WriteOutput(command, outputFormat, value, func(w io.Writer, value any) error {
					encoded, encodeErr := json.Marshal(value)
					if encodeErr != nil {
						return encodeErr
					}
					_, writeErr := fmt.Fprintln(w, string(encoded))
					return writeErr
				})
			}

			return common.WriteOutput(command, outputFormat, items, renderRemoteListText)
		},
	}

	if kind.DomainScoped() {
		common.BindDomainFlag(command, &domainFlag)
	}
	common.BindJQFlag(command, &jqExpression)
	return command
}
