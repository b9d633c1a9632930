package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fiesolecouk/declansx/config"
	"github.com/fiesolecouk/declansx/faults"
	"github.com/fiesolecouk/declansx/internal/cli/commandmeta"
	"github.com/fiesolecouk/declansx/internal/cli/common"
	"github.com/fiesolecouk/declansx/inventory"
	"github.com/fiesolecouk/declansx/manager"
	"github.com/fiesolecouk/declansx/orchestrator"
	"github.com/fiesolecouk/declansx/secrets"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type Dependencies struct {
	Orchestrator  orchestrator.Orchestrator
	Contexts      config.ContextService
	Inventory     inventory.Store
	InventorySync inventory.Sync
	Session       manager.Session
	Secrets       secrets.CredentialStore
}

func (d Dependencies) commonDeps() common.CommandDependencies {
	return common.CommandDependencies{
		Orchestrator:  d.Orchestrator,
		Contexts:      d.Contexts,
		Inventory:     d.Inventory,
		InventorySync: d.InventorySync,
		Session:       d.Session,
		Secrets:       d.Secrets,
	}
}

// RequiresContextBootstrapPath reports whether the command at the given path
// needs a fully resolved context before the command tree is built.
func RequiresContextBootstrapPath(commandPath string) bool {
	return commandmeta.RequiresContextBootstrapPath(commandPath)
}

func Execute(deps Dependencies) error {
	rootCommand := NewRootCommand(deps)
	command, err := rootCommand.ExecuteC()

	stderr := rootCommand.ErrOrStderr()
	if !wantsExecutionStatus(os.Args[1:], command) {
		if err != nil {
			_, _ = fmt.Fprintln(stderr, strings.TrimSpace(err.Error()))
		}
		return err
	}

	if err != nil {
		writeStatusError(stderr, err)
		return err
	}
	writeStatusOK(stderr)
	return nil
}

// Exit codes are part of the scripting contract: 1 stays the generic
// failure, typed categories get stable codes above it.
var exitCodes = map[faults.ErrorCategory]int{
	faults.ValidationError: 2,
	faults.NotFoundError:   3,
	faults.AuthError:       4,
	faults.ConflictError:   5,
	faults.TransportError:  6,
}

func ExitCodeForError(err error) int {
	if err == nil {
		return 0
	}
	if code, ok := exitCodes[faults.Category(err)]; ok {
		return code
	}
	return 1
}

func writeStatusOK(w io.Writer) {
	_, _ = fmt.Fprintln(w, statusLabel(w, "OK")+" command executed successfully.")
}

func writeStatusError(w io.Writer, err error) {
	detail := "command execution failed"
	if err != nil {
		detail += ": " + strings.TrimSpace(err.Error())
	}
	_, _ = fmt.Fprintln(w, statusLabel(w, "ERROR")+" "+detail+".")
}

var statusColors = map[string]string{
	"OK":    "\x1b[1;32m",
	"ERROR": "\x1b[1;31m",
}

func statusLabel(w io.Writer, status string) string {
	status = strings.TrimSpace(status)
	label := "[" + status + "]"

	color, ok := statusColors[status]
	if !ok || !writerSupportsANSI(w) {
		return label
	}
	return color + label + "\x1b[0m"
}

func writerSupportsANSI(w io.Writer) bool {
	if colorSuppressed(os.Args[1:]) {
		return false
	}

	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	info, err := f.Stat()
	if err != nil || info == nil || info.Mode()&os.ModeCharDevice == 0 {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(os.Getenv("TERM"))) {
	case "", "dumb":
		return false
	}
	return true
}

func colorSuppressed(args []string) bool {
	if noColor := os.Getenv("NO_COLOR"); strings.TrimSpace(noColor) != "" {
		return true
	}
	return hasBoolFlagToken(args, "--no-color", "")
}

func wantsExecutionStatus(args []string, command *cobra.Command) bool {
	if statusLineSuppressed(args) || isHelpOrCompletionCall(args) {
		return false
	}
	return commandmeta.EmitsStatusLine(fullCommandPath(command))
}

func fullCommandPath(command *cobra.Command) string {
	if command != nil {
		return strings.TrimSpace(command.CommandPath())
	}
	return ""
}

// statusLineSuppressed parses os.Args directly because the status
// line must also vanish when flag parsing itself failed.
func statusLineSuppressed(args []string) bool {
	fs := pflag.NewFlagSet("status", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.SetOutput(io.Discard)

	var suppressed bool
	fs.BoolVarP(&suppressed, "no-status", "n", false, "hide status output")
	if err := fs.Parse(args); err != nil {
		return hasBoolFlagToken(args, "--no-status", "-n")
	}
	return suppressed
}

func isHelpOrCompletionCall(args []string) bool {
	if len(args) == 0 {
		return true
	}
	switch args[0] {
	case "help", "completion", "__complete", "__completeNoDesc":
		return true
	}

	for _, arg := range args {
		if arg == "--" {
			break
		}
		if arg == "--help" || arg == "-h" {
			return true
		}
	}
	return false
}

// hasBoolFlagToken scans raw arguments for a boolean flag without the help
// of pflag, tolerating both the bare and the --flag=value spellings.
func hasBoolFlagToken(args []string, long, short string) bool {
	assignment := long + "="
	for _, arg := range args {
		if arg == long || (short != "" && arg == short) {
			return true
		}
		if strings.HasPrefix(arg, assignment) {
			return strings.TrimSpace(strings.TrimPrefix(arg, assignment)) != "false"
		}
	}
	return false
}
