package cli

import (
	"bytes"
	"errors"
	"testing"

	"github.com/fiesolecouk/declansx/internal/cli/commandmeta"
	"github.com/spf13/cobra"
)

func TestStatusLineSuppressed(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		args []string
		want bool
	}{
		{name: "default false", args: []string{"group", "apply", "web-servers"}, want: false},
		{name: "long flag", args: []string{"--no-status", "group", "apply", "web-servers"}, want: true},
		{name: "short flag", args: []string{"-n", "group", "apply", "web-servers"}, want: true},
		{name: "flag after positionals", args: []string{"group", "apply", "web-servers", "--no-status"}, want: true},
		{name: "explicit true", args: []string{"--no-status=true", "group", "apply", "web-servers"}, want: true},
		{name: "explicit false", args: []string{"--no-status=false", "group", "apply", "web-servers"}, want: false},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got := statusLineSuppressed(testCase.args)
			if got != testCase.want {
				t.Fatalf("statusLineSuppressed(%v) = %t, want %t", testCase.args, got, testCase.want)
			}
		})
	}
}

func TestExecutionStatusWriters(t *testing.T) {
	t.Parallel()

	t.Run("success line", func(t *testing.T) {
		t.Parallel()

		var buffer bytes.Buffer
		writeStatusOK(&buffer)
		want := "[OK] command executed successfully.\n"
		if got := buffer.String(); got != want {
			t.Fatalf("writeStatusOK() = %q, want %q", got, want)
		}
	})

	t.Run("failure line", func(t *testing.T) {
		t.Parallel()

		var buffer bytes.Buffer
		writeStatusError(&buffer, errors.New("manager unreachable"))
		want := "[ERROR] command execution failed: manager unreachable.\n"
		if got := buffer.String(); got != want {
			t.Fatalf("writeStatusError() = %q, want %q", got, want)
		}
	})
}

func TestEmitsStatusLine(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		path string
		want bool
	}{
		{path: "declansx apply", want: true},
		{path: "declansx group apply", want: true},
		{path: "declansx group save", want: true},
		{path: "declansx tier0 apply", want: true},
		{path: "declansx tier0 save", want: true},
		{path: "declansx tier1 apply", want: true},
		{path: "declansx tier1 save", want: true},
		{path: "declansx group get", want: false},
		{path: "declansx group list", want: false},
		{path: "declansx group diff", want: false},
		{path: "declansx inventory status", want: false},
		{path: "declansx version", want: false},
	}

	for _, testCase := range testCases {
		if got := commandmeta.EmitsStatusLine(testCase.path); got != testCase.want {
			t.Fatalf("EmitsStatusLine(%q) = %t, want %t", testCase.path, got, testCase.want)
		}
	}
}

func TestColorSuppressed(t *testing.T) {
	t.Run("NO_COLOR env", func(t *testing.T) {
		t.Setenv("NO_COLOR", "1")
		if !colorSuppressed([]string{"group", "get", "web-servers"}) {
			t.Fatal("color should be suppressed when NO_COLOR is set")
		}
	})

	t.Run("flag forms", func(t *testing.T) {
		t.Setenv("NO_COLOR", "")
		if !colorSuppressed([]string{"group", "get", "web-servers", "--no-color"}) {
			t.Fatal("color should be suppressed for --no-color")
		}
		if colorSuppressed([]string{"group", "get", "web-servers", "--no-color=false"}) {
			t.Fatal("color should stay enabled for --no-color=false")
		}
	})
}

func TestHelpOrCompletionCallDetection(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		args []string
		want bool
	}{
		{name: "no args", args: nil, want: true},
		{name: "help command", args: []string{"help", "group"}, want: true},
		{name: "completion command", args: []string{"completion", "bash"}, want: true},
		{name: "hidden complete", args: []string{"__complete", "group", "g"}, want: true},
		{name: "help flag", args: []string{"group", "apply", "--help"}, want: true},
		{name: "short help flag", args: []string{"-h"}, want: true},
		{name: "help flag after double dash ignored", args: []string{"group", "apply", "--", "--help"}, want: false},
		{name: "regular invocation", args: []string{"group", "apply", "web-servers"}, want: false},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			got := isHelpOrCompletionCall(testCase.args)
			if got != testCase.want {
				t.Fatalf("isHelpOrCompletionCall(%v) = %t, want %t", testCase.args, got, testCase.want)
			}
		})
	}
}

func TestWantsExecutionStatus(t *testing.T) {
	t.Parallel()

	chainCommands := func(names ...string) *cobra.Command {
		leaf := &cobra.Command{Use: "declansx"}
		for _, name := range names {
			child := &cobra.Command{Use: name}
			leaf.AddCommand(child)
			leaf = child
		}
		return leaf
	}

	testCases := []struct {
		name string
		args []string
		path []string
		want bool
	}{
		{name: "mutation command", args: []string{"group", "apply", "web-servers"}, path: []string{"group", "apply"}, want: true},
		{name: "mutation command no status", args: []string{"group", "apply", "web-servers", "--no-status"}, path: []string{"group", "apply"}, want: false},
		{name: "help invocation", args: []string{"group", "apply", "--help"}, path: []string{"group", "apply"}, want: false},
		{name: "completion call", args: []string{"completion", "bash"}, path: []string{"group", "apply"}, want: false},
		{name: "read command", args: []string{"group", "get", "web-servers"}, path: []string{"group", "get"}, want: false},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			command := chainCommands(testCase.path...)
			got := wantsExecutionStatus(testCase.args, command)
			if got != testCase.want {
				t.Fatalf("wantsExecutionStatus(%v) = %t, want %t", testCase.args, got, testCase.want)
			}
		})
	}
}
