package cli

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	debugctx "github.com/fiesolecouk/declansx/debugctx"
	"github.com/fiesolecouk/declansx/faults"
	applycmd "github.com/fiesolecouk/declansx/internal/cli/apply"
	"github.com/fiesolecouk/declansx/internal/cli/common"
	"github.com/fiesolecouk/declansx/internal/cli/completion"
	configcmd "github.com/fiesolecouk/declansx/internal/cli/config"
	inventorycmd "github.com/fiesolecouk/declansx/internal/cli/inventory"
	"github.com/fiesolecouk/declansx/internal/cli/object"
	secretcmd "github.com/fiesolecouk/declansx/internal/cli/secret"
	versioncmd "github.com/fiesolecouk/declansx/internal/cli/version"
	"github.com/spf13/cobra"
)

// usageTemplate is cobra's stock template with two changes: the root command's
// persistent flags render under Global Flags on every command, and the help
// hint stays on the last line without a separating blank.
const usageTemplate = `Usage:{{if .Runnable}}
  {{.UseLine}}{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if gt (len .Aliases) 0}}

Aliases:
  {{.NameAndAliases}}{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}{{$cmds := .Commands}}{{if eq (len .Groups) 0}}

Available Commands:{{range $cmds}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{else}}{{range $group := .Groups}}

{{.Title}}{{range $cmds}}{{if (and (eq .GroupID $group.ID) (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if not .AllChildCommandsHaveGroup}}

Additional Commands:{{range $cmds}}{{if (and (eq .GroupID "") (or .IsAvailableCommand (eq .Name "help")))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{end}}{{end}}{{if .LocalNonPersistentFlags.HasAvailableFlags}}

Flags:
{{.LocalNonPersistentFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if or .HasAvailableInheritedFlags .HasAvailablePersistentFlags}}

Global Flags:
{{if .HasAvailableInheritedFlags}}{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}
{{end}}{{if and .HasAvailableInheritedFlags .HasAvailablePersistentFlags}}
{{end}}{{if .HasAvailablePersistentFlags}}{{.PersistentFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{end}}{{if .HasHelpSubCommands}}

Additional help topics:{{range .Commands}}{{if .IsAdditionalHelpTopicCommand}}
  {{rpad .CommandPath .CommandPathPadding}} {{.Short}}{{end}}{{end}}{{end}}
{{if .HasAvailableSubCommands}}Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`

func NewRootCommand(deps Dependencies) *cobra.Command {
	commandDeps := deps.commonDeps()
	var flags common.GlobalFlags

	rootCommand := &cobra.Command{
		Use:   "declansx",
		Short: "Reconcile declarative NSX policy objects",
		Args:  cobra.NoArgs,
		RunE: func(command *cobra.Command, _ []string) error {
			return command.Help()
		},
		PersistentPreRunE: func(command *cobra.Command, _ []string) error {
			return initRootContext(command, &flags)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCommand.SetUsageTemplate(usageTemplate)
	rootCommand.SetHelpFunc(trimmedHelpFunc(rootCommand.HelpFunc()))

	common.BindGlobalFlags(rootCommand, &flags)
	common.RegisterContextFlagCompletion(rootCommand, commandDeps)
	rootCommand.PersistentFlags().BoolP("help", "h", false, "help for command")

	addCommandGroups(rootCommand, commandDeps, &flags)
	showUsageOnMissingArgErrors(rootCommand)

	return rootCommand
}

// initRootContext validates global flags and seeds the command context with
// the selected context name and debug sink before any subcommand runs.
func initRootContext(command *cobra.Command, flags *common.GlobalFlags) error {
	if err := common.ValidateOutputFormat(flags.Output); err != nil {
		return err
	}
	if err := common.ValidateOutputFormatForCommandPath(command.CommandPath(), flags.Output); err != nil {
		return err
	}

	commandContext := common.WithContextName(context.Background(), flags.Context)
	commandContext = debugctx.WithEnabled(commandContext, flags.Debug)
	commandContext = debugctx.WithWriter(commandContext, command.ErrOrStderr())
	command.SetContext(commandContext)

	debugctx.Printf(
		command.Context(),
		"root flags context=%q output=%q verbose=%t no_status=%t no_color=%t strict_names=%t command=%q",
		flags.Context,
		flags.Output,
		flags.Verbose,
		flags.NoStatus,
		flags.NoColor,
		flags.StrictNames,
		command.CommandPath(),
	)
	return nil
}

// trimmedHelpFunc renders help into a buffer and reprints it with exactly
// one trailing newline.
func trimmedHelpFunc(defaultHelp func(*cobra.Command, []string)) func(*cobra.Command, []string) {
	return func(command *cobra.Command, args []string) {
		stdout := command.OutOrStdout()
		stderr := command.ErrOrStderr()

		var capture bytes.Buffer
		command.SetOut(&capture)
		command.SetErr(&capture)
		defaultHelp(command, args)
		command.SetOut(stdout)
		command.SetErr(stderr)

		_, _ = fmt.Fprintln(stdout, strings.TrimRight(capture.String(), "\n"))
	}
}

func addCommandGroups(rootCommand *cobra.Command, commandDeps common.CommandDependencies, flags *common.GlobalFlags) {
	groups := []struct {
		id       string
		title    string
		commands []*cobra.Command
	}{
		{
			id:    "basic",
			title: "Basic Commands:",
			commands: []*cobra.Command{
				applycmd.NewCommand(commandDeps, flags),
				configcmd.NewCommand(commandDeps, flags),
				object.NewGroupCommand(commandDeps, flags),
				object.NewTier0Command(commandDeps, flags),
				object.NewTier1Command(commandDeps, flags),
				inventorycmd.NewCommand(commandDeps, flags),
				secretcmd.NewCommand(commandDeps, flags),
			},
		},
		{
			id:    "other",
			title: "Other Commands:",
			commands: []*cobra.Command{
				completion.NewCommand(commandDeps, flags),
				versioncmd.NewCommand(commandDeps, flags),
			},
		},
	}

	for _, group := range groups {
		rootCommand.AddGroup(&cobra.Group{ID: group.id, Title: group.title})
		for _, command := range group.commands {
			command.GroupID = group.id
			rootCommand.AddCommand(command)
		}
	}
}

// showUsageOnMissingArgErrors prints the usage block after
// errors caused by an omitted positional argument. SilenceUsage is on
// globally, so this is the one failure that still shows usage.
func showUsageOnMissingArgErrors(command *cobra.Command) {
	if command == nil {
		return
	}

	command.Args = withUsageOnMissingArg(command.Args)
	command.PersistentPreRunE = withUsageOnMissingArg(command.PersistentPreRunE)
	command.PreRunE = withUsageOnMissingArg(command.PreRunE)
	command.RunE = withUsageOnMissingArg(command.RunE)

	for _, child := range command.Commands() {
		showUsageOnMissingArgErrors(child)
	}
}

func withUsageOnMissingArg(next func(*cobra.Command, []string) error) func(*cobra.Command, []string) error {
	if next == nil {
		return nil
	}

	return func(command *cobra.Command, args []string) error {
		err := next(command, args)
		if missingPositionalParameter(command, err, args) {
			printUsageToStderr(command)
		}
		return err
	}
}

// Required-value errors that name flags or piped input, where repeating the
// usage block would bury the actual message.
var usageHintExclusions = []string{
	"input is required",
	"interactive terminal is required",
	"value is required",
}

func missingPositionalParameter(command *cobra.Command, err error, args []string) bool {
	if err == nil || len(args) != 0 || !declaresPositionalParameters(command) {
		return false
	}

	lowered := strings.ToLower(strings.TrimSpace(err.Error()))
	if lowered == "" {
		return false
	}

	if !faults.IsCategory(err, faults.ValidationError) {
		return strings.Contains(lowered, "arg(s)") && strings.Contains(lowered, "received 0")
	}

	if strings.HasPrefix(lowered, "flag ") {
		return false
	}
	for _, excluded := range usageHintExclusions {
		if strings.Contains(lowered, excluded) {
			return false
		}
	}
	return strings.Contains(lowered, " is required")
}

func declaresPositionalParameters(command *cobra.Command) bool {
	if command == nil {
		return false
	}
	return strings.ContainsAny(strings.TrimSpace(command.Use), "[<")
}

func printUsageToStderr(command *cobra.Command) {
	if command == nil {
		return
	}
	if rendered := strings.TrimRight(command.UsageString(), "\n"); rendered != "" {
		_, _ = fmt.Fprintln(command.ErrOrStderr(), rendered)
	}
}
