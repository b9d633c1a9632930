// Package yamlutil fixes the YAML form declansx emits. Spec documents, the
// context catalog, and -o yaml output all share the same two-space indent so
// files written by one command diff cleanly against files written by another.
package yamlutil

import (
	"bytes"

	"go.yaml.in/yaml/v3"
)

const canonicalIndent = 2

// Marshal encodes v in the canonical output form. The result always ends
// with a newline.
func Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(canonicalIndent)
	err := encoder.Encode(v)
	if closeErr := encoder.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
