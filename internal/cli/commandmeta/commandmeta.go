package commandmeta

import "strings"

type OutputPolicy uint8

const (
	OutputPolicyAny OutputPolicy = iota
	OutputPolicyTextOnly
	OutputPolicyYAMLOrText
)

// Prefixes cover whole command groups; every subcommand under them talks to
// the manager or the inventory.
var bootstrapPathPrefixes = []string{
	"declansx group ",
	"declansx tier0 ",
	"declansx tier1 ",
	"declansx inventory ",
	"declansx secret ",
}

// RequiresContextBootstrapPath reports whether a command path needs the full
// resolved context (inventory, manager session, secret store) before it can
// run. Catalog-only commands run with just the context service.
func RequiresContextBootstrapPath(commandPath string) bool {
	normalized := strings.TrimSpace(commandPath)
	if normalized == "declansx apply" || normalized == "declansx config check" {
		return true
	}
	for _, prefix := range bootstrapPathPrefixes {
		if strings.HasPrefix(normalized, prefix) {
			return true
		}
	}
	return false
}

var statusLinePaths = map[string]struct{}{
	"declansx apply":       {},
	"declansx group apply": {},
	"declansx group save":  {},
	"declansx tier0 apply": {},
	"declansx tier0 save":  {},
	"declansx tier1 apply": {},
	"declansx tier1 save":  {},
}

// EmitsStatusLine reports whether the command at path prints the [OK]/[ERROR]
// status line after execution. Only mutating commands do.
func EmitsStatusLine(path string) bool {
	_, ok := statusLinePaths[strings.TrimSpace(path)]
	return ok
}

// Paths absent from this map fall back to OutputPolicyAny.
var outputPolicies = map[string]OutputPolicy{
	"declansx config view":            OutputPolicyYAMLOrText,
	"declansx config print-template":  OutputPolicyTextOnly,
	"declansx config current-context": OutputPolicyTextOnly,
	"declansx completion bash":        OutputPolicyTextOnly,
	"declansx completion zsh":         OutputPolicyTextOnly,
	"declansx completion fish":        OutputPolicyTextOnly,
	"declansx completion powershell":  OutputPolicyTextOnly,
}

func OutputPolicyForPath(path string) OutputPolicy {
	return outputPolicies[strings.TrimSpace(path)]
}
