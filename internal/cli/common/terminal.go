package common

import (
	"os"

	"github.com/spf13/cobra"
)

// IsInteractiveTerminal reports whether both stdin and stdout of command are
// character devices. Interactive prompts are only safe when that holds.
func IsInteractiveTerminal(command *cobra.Command) bool {
	return isCharDevice(command.InOrStdin()) && isCharDevice(command.OutOrStdout())
}

// HasPipedInput reports whether command's stdin is a real file that is not a
// terminal, such as a pipe or a redirection.
func HasPipedInput(command *cobra.Command) bool {
	file, ok := command.InOrStdin().(*os.File)
	if !ok {
		return false
	}
	info, err := file.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice == 0
}

func isCharDevice(stream any) bool {
	file, ok := stream.(*os.File)
	if !ok {
		return false
	}
	info, err := file.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}
