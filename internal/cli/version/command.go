// Package version exposes the build metadata stamped into the binary.
package version

import (
	"fmt"
	"io"

	"github.com/fiesolecouk/declansx/internal/cli/common"
	"github.com/spf13/cobra"
)

// Overridden at build time through -ldflags.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildDate = "unknown"
)

type buildInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	BuildDate string `json:"build_date" yaml:"build_date"`
}

func currentBuild() buildInfo {
	return buildInfo{Version: Version, Commit: Commit, BuildDate: BuildDate}
}

func renderBuildLine(w io.Writer, item buildInfo) error {
	_, err := fmt.Fprintf(w, "%s (%s) %s\n", item.Version, item.Commit, item.BuildDate)
	return err
}

func NewCommand(_ common.CommandDependencies, globalFlags *common.GlobalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print CLI version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return common.WriteOutput(cmd, globalFlags.Output, currentBuild(), renderBuildLine)
		},
	}
}
