package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	configdomain "github.com/fiesolecouk/declansx/config"
	"github.com/fiesolecouk/declansx/internal/cli/common"
	"github.com/spf13/cobra"
	"go.yaml.in/yaml/v3"
)

type contextImportInputKind string

const (
	contextImportInputContext contextImportInputKind = "context"
	contextImportInputCatalog contextImportInputKind = "catalog"
)

// contextImportInput is the decoded shape of setup input, which accepts
// either a single context document or a whole catalog.
type contextImportInput struct {
	Kind    contextImportInputKind
	Context configdomain.Context
	Catalog configdomain.ContextCatalog
}

func decodeContextImportInputStrict(command *cobra.Command, flags common.InputFlags) (contextImportInput, error) {
	data, err := common.ReadInput(command, flags)
	if err != nil {
		return contextImportInput{}, err
	}

	decodedContext, contextErr := decodeStrict[configdomain.Context](data, flags.Format)
	if contextErr == nil {
		return contextImportInput{Kind: contextImportInputContext, Context: decodedContext}, nil
	}

	decodedCatalog, catalogErr := decodeStrict[configdomain.ContextCatalog](data, flags.Format)
	if catalogErr == nil {
		return contextImportInput{Kind: contextImportInputCatalog, Catalog: decodedCatalog}, nil
	}

	return contextImportInput{}, common.ValidationError(
		"input must be a context object or a context catalog",
		errors.Join(contextErr, catalogErr),
	)
}

// decodeStrict rejects unknown fields and trailing documents so a context
// pasted with a typo fails loudly instead of importing half-configured.
func decodeStrict[T any](data []byte, format string) (T, error) {
	var output T

	switch format {
	case "", common.OutputYAML:
		if err := strictYAML(data, &output); err != nil {
			var zero T
			return zero, err
		}
	case common.OutputJSON:
		if err := strictJSON(data, &output); err != nil {
			var zero T
			return zero, err
		}
	default:
		return output, common.ValidationError("invalid input format: use json or yaml", nil)
	}

	return output, nil
}

func strictYAML(data []byte, output any) error {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(output); err != nil {
		return common.ValidationError("invalid yaml input", err)
	}

	var extra any
	switch err := decoder.Decode(&extra); {
	case errors.Is(err, io.EOF):
		return nil
	case err == nil:
		return common.ValidationError("invalid yaml input", errors.New("multiple YAML documents are not supported"))
	default:
		return common.ValidationError("invalid yaml input", err)
	}
}

func strictJSON(data []byte, output any) error {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(output); err != nil {
		return common.ValidationError("invalid json input", err)
	}

	var extra json.RawMessage
	switch err := decoder.Decode(&extra); {
	case errors.Is(err, io.EOF):
		return nil
	case err == nil:
		return common.ValidationError("invalid json input", errors.New("multiple JSON values are not supported"))
	default:
		return common.ValidationError("invalid json input", err)
	}
}
