package common

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"slices"
	"strings"

	configdomain "github.com/fiesolecouk/declansx/config"
	"github.com/fiesolecouk/declansx/internal/cli/commandmeta"
	"github.com/fiesolecouk/declansx/yamlutil"
	"github.com/spf13/cobra"
)

const (
	OutputAuto = "auto"
	OutputText = "text"
	OutputJSON = "json"
	OutputYAML = "yaml"
)

func ValidateOutputFormat(format string) error {
	if slices.Contains(outputFlagValues, format) {
		return nil
	}
	return ValidationError("invalid output format: use auto, text, json, or yaml", nil)
}

// ValidateOutputFormatForCommandPath additionally enforces per-command
// restrictions: some commands render prose or tables that have no structured
// equivalent.
func ValidateOutputFormatForCommandPath(commandPath, format string) error {
	requested := strings.TrimSpace(format)
	if requested == "" || requested == OutputAuto || requested == OutputText {
		return nil
	}

	policy := commandmeta.OutputPolicyForPath(commandPath)
	if policy == commandmeta.OutputPolicyTextOnly {
		return ValidationError("this command renders text only; use --output text or --output auto", nil)
	}
	if policy == commandmeta.OutputPolicyYAMLOrText && requested != OutputYAML {
		return ValidationError("this command renders yaml or text; use --output yaml, text, or auto", nil)
	}
	return nil
}

// ResolveContextOutputFormat maps the --output flag to a concrete format.
// Auto falls back to the resolved context's defaults.output preference, and
// to text when no context is resolvable or none carries a preference.
func ResolveContextOutputFormat(ctx context.Context, deps CommandDependencies, globalFlags *GlobalFlags) string {
	var requested string
	if globalFlags != nil {
		requested = globalFlags.Output
	}
	switch {
	case requested == "":
		return OutputText
	case requested != OutputAuto:
		return requested
	case deps.Contexts == nil:
		return OutputText
	}

	selection := configdomain.ContextSelection{Name: globalFlags.Context}
	resolved, err := deps.Contexts.ResolveContext(ctx, selection)
	if err != nil {
		return OutputText
	}

	switch strings.ToLower(strings.TrimSpace(resolved.Defaults.Output)) {
	case configdomain.DocumentFormatJSON:
		return OutputJSON
	case configdomain.DocumentFormatYAML:
		return OutputYAML
	default:
		return OutputText
	}
}

// WriteOutput renders value on the command's stdout in the requested format.
// render handles the text form; a nil render falls back to Fprintln. Nil
// values render nothing at all.
func WriteOutput[T any](command *cobra.Command, format string, value T, render func(io.Writer, T) error) error {
	if isNilRenderValue(value) {
		return nil
	}

	out := command.OutOrStdout()
	switch format {
	case OutputAuto, OutputText:
		if render != nil {
			return render(out, value)
		}
		_, err := fmt.Fprintln(out, value)
		return err
	case OutputJSON:
		return writeJSON(out, value)
	case OutputYAML:
		return writeYAML(out, value)
	}
	return ValidationError("invalid output format: use auto, text, json, or yaml", nil)
}

func WriteText(command *cobra.Command, format string, text string) error {
	return WriteOutput(command, format, text, func(w io.Writer, line string) error {
		_, err := io.WriteString(w, line+"\n")
		return err
	})
}

func writeJSON(w io.Writer, value any) error {
	encoded, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(encoded))
	return err
}

// writeYAML relies on the marshaller's trailing newline instead of adding
// one.
func writeYAML(w io.Writer, value any) error {
	encoded, err := yamlutil.Marshal(value)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, string(encoded))
	return err
}

// isNilRenderValue catches typed and untyped nils alike, so a nil slice
// passed through the generic parameter still skips rendering.
func isNilRenderValue[T any](value T) bool {
	boxed := any(value)
	if boxed == nil {
		return true
	}

	reflected := reflect.ValueOf(boxed)
	switch reflected.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return reflected.IsNil()
	}
	return false
}
