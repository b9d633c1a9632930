package fsstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/fiesolecouk/declansx/inventory"
	"github.com/fiesolecouk/declansx/resource"
)

// List returns every stored document, sorted by kind then display name. A
// kind in the policy narrows the listing to that kind's directory. Gateway
// kinds enumerate before tier-1s so that gateway links resolve when the
// listing drives a sequential apply.
func (s *LocalDocumentStore) List(ctx context.Context, policy inventory.ListPolicy) ([]resource.Document, error) {
	kinds := resource.Kinds()
	if policy.Kind != "" {
		kinds = []resource.Kind{policy.Kind}
	}

	var documents []resource.Document
	for _, kind := range kinds {
		kindDocuments, err := s.listKind(ctx, kind)
		if err != nil {
			return nil, err
		}
		documents = append(documents, kindDocuments...)
	}
	return documents, nil
}

func (s *LocalDocumentStore) listKind(_ context.Context, kind resource.Kind) ([]resource.Document, error) {
	dirName, err := kindDirName(kind)
	if err != nil {
		return nil, err
	}
	dirPath, err := s.kindDirPath(kind)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(dirPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, internalError("failed to list inventory directory", err)
	}

	var documents []resource.Document
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if !strings.HasSuffix(entry.Name(), s.extension) {
			continue
		}

		filePath := filepath.Join(dirPath, entry.Name())
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, internalError("failed to read document file", err)
		}

		document, err := resource.ParseDocument(data)
		if err != nil {
			return nil, validationError(fmt.Sprintf("invalid document file %s", path.Join(dirName, entry.Name())), err)
		}
		if document.Kind != kind {
			return nil, validationError(fmt.Sprintf("document file %s declares kind %q", path.Join(dirName, entry.Name()), document.Kind), nil)
		}
		documents = append(documents, document)
	}

	sort.Slice(documents, func(i int, j int) bool {
		return documents[i].Spec.DisplayName() < documents[j].Spec.DisplayName()
	})
	return documents, nil
}
