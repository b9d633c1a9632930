package object

import (
	"fmt"
	"io"

	"github.com/fiesolecouk/declansx/internal/cli/common"
	"github.com/fiesolecouk/declansx/resource"
	"github.com/spf13/cobra"
)

func newDiffCommand(deps common.CommandDependencies, globalFlags *common.GlobalFlags, kind resource.Kind) *cobra.Command {
	command := &cobra.Command{
		Use:   "diff [name]",
		Short: "Compare local and remote state",
		Long: fmt.Sprintf(
			"Diff compares the %s document stored in the inventory against the object "+
				"currently on the manager and reports each differing field. The stored "+
				"document's own domain selects the collection.",
			kindLabel(kind),
		),
		Args: cobra.MaximumNArgs(1),
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

			entries, err := orchestratorService.Diff(command.Context(), kind, name)
			if err != nil {
				return err
			}

			return common.WriteOutput(command, outputFormat, entries, func(w io.Writer, value []resource.DiffEntry) error {
				for _, entry := range value {
					line, lineErr := renderDiffTextLine(entry)
					if lineErr != nil {
						return lineErr
					}
					if _, writeErr := fmt.Fprintln(w, line); writeErr != nil {
						return writeErr
					}
				}
				return nil
			})
		},
	}

	command.ValidArgsFunction = common.ObjectNameArgCompletionFunc(deps, kind)
	return command
}
