package fsstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fiesolecouk/declansx/config"
	"github.com/fiesolecouk/declansx/resource"
	"go.yaml.in/yaml/v3"
)

func (s *LocalDocumentStore) Save(_ context.Context, document resource.Document) error {
	if document.Spec == nil {
		return validationError("document carries no spec", nil)
	}
	if document.Kind != document.Spec.Kind() {
		return validationError(fmt.Sprintf("document kind %q does not match spec kind %q", document.Kind, document.Spec.Kind()), nil)
	}
	if document.Domain != "" && !document.Kind.DomainScoped() {
		return validationError(fmt.Sprintf("%s documents do not take a domain", document.Kind), nil)
	}

	targetPath, err := s.documentFilePath(document.Kind, document.Spec.DisplayName())
	if err != nil {
		return err
	}

	encoded, err := s.encodeDocument(document)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(targetPath), 0o755); err != nil {
		return internalError("failed to create document directory", err)
	}

	tempFile, err := os.CreateTemp(filepath.Dir(targetPath), ".declansx-tmp-*")
	if err != nil {
		return internalError("failed to create temporary file", err)
	}
	tempPath := tempFile.Name()

	if _, err := tempFile.Write(encoded); err != nil {
		_ = tempFile.Close()
		_ = os.Remove(tempPath)
		return internalError("failed to write temporary document", err)
	}
	if err := tempFile.Close(); err != nil {
		_ = os.Remove(tempPath)
		return internalError("failed to finalize temporary document", err)
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		_ = os.Remove(tempPath)
		return internalError("failed to replace document file", err)
	}
	return nil
}

func (s *LocalDocumentStore) Get(_ context.Context, kind resource.Kind, name string) (resource.Document, error) {
	targetPath, err := s.documentFilePath(kind, name)
	if err != nil {
		return resource.Document{}, err
	}

	data, err := os.ReadFile(targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return resource.Document{}, notFoundError(fmt.Sprintf("%s %q not found in inventory", kind, name))
		}
		return resource.Document{}, internalError("failed to read document file", err)
	}

	document, err := resource.ParseDocument(data)
	if err != nil {
		return resource.Document{}, err
	}
	if document.Kind != kind {
		return resource.Document{}, validationError(fmt.Sprintf("document %q declares kind %q, expected %q", name, document.Kind, kind), nil)
	}
	return document, nil
}

func (s *LocalDocumentStore) Delete(_ context.Context, kind resource.Kind, name string) error {
	targetPath, err := s.documentFilePath(kind, name)
	if err != nil {
		return err
	}

	if err := os.Remove(targetPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return notFoundError(fmt.Sprintf("%s %q not found in inventory", kind, name))
		}
		return internalError("failed to remove document file", err)
	}
	_ = s.cleanupEmptyParents(filepath.Dir(targetPath))
	return nil
}

func (s *LocalDocumentStore) Exists(_ context.Context, kind resource.Kind, name string) (bool, error) {
	targetPath, err := s.documentFilePath(kind, name)
	if err != nil {
		return false, err
	}

	if _, err := os.Stat(targetPath); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, internalError("failed to check document file", err)
	}
	return true, nil
}

// encodeDocument renders the document in the store's configured format. The
// json form is rebuilt from the yaml encoding so both carry the same field
// names and read back through the same decoder.
func (s *LocalDocumentStore) encodeDocument(document resource.Document) ([]byte, error) {
	encoded, err := resource.EncodeDocument(document)
	if err != nil {
		return nil, err
	}
	if s.documentFormat != config.DocumentFormatJSON {
		return encoded, nil
	}

	var generic any
	if err := yaml.Unmarshal(encoded, &generic); err != nil {
		return nil, internalError("failed to encode document as json", err)
	}
	normalized, err := resource.Normalize(generic)
	if err != nil {
		return nil, err
	}
	rendered, err := json.MarshalIndent(normalized, "", "  ")
	if err != nil {
		return nil, internalError("failed to encode document as json", err)
	}
	return rendered, nil
}
