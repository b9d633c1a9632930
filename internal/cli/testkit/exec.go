// Package testkit holds shared helpers for exercising cobra command trees
// in tests.
package testkit

import (
	"bytes"
	"strings"
	"sync"

	"github.com/spf13/cobra"
)

// Cobra rewrites flag annotation maps while rendering help and completion
// output, so parallel tests sharing command state would race without this
// lock.
var executeMu sync.Mutex

func Run(command *cobra.Command, stdin string, args ...string) (string, error) {
	stdout, _, err := RunWithStreams(command, stdin, args...)
	return stdout, err
}

func RunWithStreams(command *cobra.Command, stdin string, args ...string) (string, string, error) {
	executeMu.Lock()
	defer executeMu.Unlock()

	var stdout bytes.Buffer
	var stderr bytes.Buffer
	command.SetOut(&stdout)
	command.SetErr(&stderr)
	command.SetIn(strings.NewReader(stdin))
	command.SetArgs(args)

	err := command.Execute()
	return stdout.String(), stderr.String(), err
}

// CommandPaths walks the command tree depth-first and returns every
// visible command path, skipping the built-in help command and cobra's
// hidden __complete entries.
func CommandPaths(command *cobra.Command, prefix []string) [][]string {
	var paths [][]string
	for _, child := range command.Commands() {
		name := child.Name()
		if name == "help" || strings.HasPrefix(name, "__") {
			continue
		}
		childPath := append(append([]string{}, prefix...), name)
		paths = append(paths, childPath)
		paths = append(paths, CommandPaths(child, childPath)...)
	}
	return paths
}

func PathString(path []string) string {
	if len(path) == 0 {
		return "root"
	}
	return strings.Join(path, " ")
}
