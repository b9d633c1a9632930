package resource

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fiesolecouk/declansx/faults"
	"github.com/fiesolecouk/declansx/yamlutil"
	"go.yaml.in/yaml/v3"
)

// Document is one desired-state file: a kind selector, an optional policy
// domain (groups only), and the kind's typed spec.
type Document struct {
	Kind   Kind
	Domain string
	Spec   Spec
}

type documentEnvelope struct {
	Kind   string    `yaml:"kind"`
	Domain string    `yaml:"domain,omitempty"`
	Spec   yaml.Node `yaml:"spec"`
}

// ParseDocument decodes and validates one spec document. Unknown fields are
// rejected at both the envelope and the spec block.
func ParseDocument(data []byte) (Document, error) {
	var envelope documentEnvelope
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&envelope); err != nil {
		return Document{}, faults.NewTypedError(faults.ValidationError, "invalid spec document yaml", err)
	}

	kind, err := ParseKind(envelope.Kind)
	if err != nil {
		return Document{}, err
	}

	domain := strings.TrimSpace(envelope.Domain)
	if domain != "" && !kind.DomainScoped() {
		return Document{}, validationError(fmt.Sprintf("%s documents do not take a domain", kind))
	}

	spec, err := decodeSpecNode(kind, &envelope.Spec)
	if err != nil {
		return Document{}, err
	}
	if err := spec.Validate(); err != nil {
		return Document{}, err
	}

	return Document{Kind: kind, Domain: domain, Spec: spec}, nil
}

// ParseDocuments decodes a stream of spec documents separated by yaml
// document markers. JSON input parses as a single-document stream. Empty
// documents are skipped; at least one non-empty document is required.
func ParseDocuments(data []byte) ([]Document, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	documents := make([]Document, 0, 4)
	for {
		var node yaml.Node
		err := decoder.Decode(&node)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, faults.NewTypedError(faults.ValidationError, "invalid spec document stream", err)
		}
		if isEmptyDocumentNode(&node) {
			continue
		}

		encoded, err := yaml.Marshal(&node)
		if err != nil {
			return nil, faults.NewTypedError(faults.ValidationError, "invalid spec document stream", err)
		}
		document, err := ParseDocument(encoded)
		if err != nil {
			return nil, err
		}
		documents = append(documents, document)
	}

	if len(documents) == 0 {
		return nil, validationError("input carries no spec documents")
	}
	return documents, nil
}

func isEmptyDocumentNode(node *yaml.Node) bool {
	if node == nil || node.Kind == 0 {
		return true
	}

	content := node
	if node.Kind == yaml.DocumentNode {
		if len(node.Content) == 0 {
			return true
		}
		content = node.Content[0]
	}
	return content.Kind == yaml.ScalarNode && content.Tag == "!!null"
}

func EncodeDocument(document Document) ([]byte, error) {
	if document.Spec == nil {
		return nil, validationError("document carries no spec")
	}
	envelope := struct {
		Kind   string `yaml:"kind"`
		Domain string `yaml:"domain,omitempty"`
		Spec   Spec   `yaml:"spec"`
	}{
		Kind:   document.Kind.String(),
		Domain: strings.TrimSpace(document.Domain),
		Spec:   document.Spec,
	}

	encoded, err := yamlutil.Marshal(envelope)
	if err != nil {
		return nil, faults.NewTypedError(faults.InternalError, "failed to encode spec document", err)
	}
	return encoded, nil
}

// ParseSpec decodes one bare spec block (no kind envelope) for a known kind
// and validates it. Unknown fields are rejected. JSON input parses too; the
// decoder reads it as YAML flow syntax.
func ParseSpec(kind Kind, data []byte) (Spec, error) {
	spec, err := decodeSpecData(kind, data)
	if err != nil {
		return nil, err
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return spec, nil
}

func decodeSpecNode(kind Kind, node *yaml.Node) (Spec, error) {
	if node == nil || node.Kind == 0 {
		return nil, validationError("spec document is missing a spec block")
	}

	encoded, err := yaml.Marshal(node)
	if err != nil {
		return nil, faults.NewTypedError(faults.ValidationError, "invalid spec block", err)
	}
	return decodeSpecData(kind, encoded)
}

func decodeSpecData(kind Kind, data []byte) (Spec, error) {
	switch kind {
	case KindGroup:
		var spec GroupSpec
		if err := strictDecodeSpec(data, &spec); err != nil {
			return nil, err
		}
		return spec, nil
	case KindTier0:
		var spec Tier0GatewaySpec
		if err := strictDecodeSpec(data, &spec); err != nil {
			return nil, err
		}
		return spec, nil
	case KindTier1:
		var spec Tier1GatewaySpec
		if err := strictDecodeSpec(data, &spec); err != nil {
			return nil, err
		}
		return spec, nil
	}
	return nil, faults.NewTypedError(faults.InternalError, fmt.Sprintf("unhandled kind %q", kind), nil)
}

func strictDecodeSpec(data []byte, out any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(out); err != nil {
		return faults.NewTypedError(faults.ValidationError, "invalid spec block", err)
	}
	return nil
}
