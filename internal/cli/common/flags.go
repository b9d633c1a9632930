package common

import (
	"os"

	"github.com/fiesolecouk/declansx/config"
	"github.com/spf13/cobra"
)

type GlobalFlags struct {
	Context     string
	Debug       bool
	Verbose     bool
	NoStatus    bool
	NoColor     bool
	Output      string
	StrictNames bool
}

type InputFlags struct {
	Payload string
	Format  string
}

func BindGlobalFlags(command *cobra.Command, flags *GlobalFlags) {
	command.PersistentFlags().StringVarP(&flags.Context, "context", "c", os.Getenv(config.ContextNameEnvVar), "context name")
	command.PersistentFlags().BoolVarP(&flags.Debug, "debug", "d", false, "enable debug output")
	command.PersistentFlags().BoolVarP(&flags.Verbose, "verbose", "v", false, "show complementary command output")
	command.PersistentFlags().BoolVarP(&flags.NoStatus, "no-status", "n", false, "hide status output")
	command.PersistentFlags().BoolVar(&flags.NoColor, "no-color", false, "disable color output")
	command.PersistentFlags().StringVarP(&flags.Output, "output", "o", OutputAuto, "output format: auto|text|json|yaml")
	command.PersistentFlags().BoolVar(&flags.StrictNames, "strict-names", false, "fail on ambiguous display names instead of picking the oldest object")
	RegisterOutputFlagCompletion(command)
}

func IsVerbose(flags *GlobalFlags) bool {
	return flags != nil && flags.Verbose
}

func BindInputFlags(command *cobra.Command, flags *InputFlags) {
	command.Flags().StringVarP(&flags.Payload, "file", "f", "", "spec file path (use '-' to read from stdin)")
	command.Flags().StringVarP(&flags.Format, "format", "i", OutputYAML, "input format: json|yaml")
	RegisterInputFormatFlagCompletion(command)
}

// BindDomainFlag is bound only on commands whose kind is domain scoped.
func BindDomainFlag(command *cobra.Command, domain *string) {
	command.Flags().StringVar(domain, "domain", "", "policy domain (defaults to the context default or \"default\")")
}

func BindJQFlag(command *cobra.Command, expression *string) {
	command.Flags().StringVar(expression, "jq", "", "jq expression applied to the output value")
}
