package fsstore

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/fiesolecouk/declansx/faults"
	"github.com/fiesolecouk/declansx/internal/providers/shared/fsutil"
	"github.com/fiesolecouk/declansx/resource"
)

// kindDirName maps a kind to its directory, following the Policy API
// collection naming.
func kindDirName(kind resource.Kind) (string, error) {
	switch kind {
	case resource.KindGroup:
		return "groups", nil
	case resource.KindTier0:
		return "tier-0s", nil
	case resource.KindTier1:
		return "tier-1s", nil
	}
	return "", faults.NewTypedError(faults.InternalError, fmt.Sprintf("unhandled kind %q", kind), nil)
}

func (s *LocalDocumentStore) kindDirPath(kind resource.Kind) (string, error) {
	dirName, err := kindDirName(kind)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.baseDir, dirName), nil
}

// documentFilePath resolves the file holding one named document. Names are
// display names and may contain spaces, but never path separators.
func (s *LocalDocumentStore) documentFilePath(kind resource.Kind, name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", validationError("document name must not be empty", nil)
	}
	if strings.ContainsAny(trimmed, `/\`) || trimmed == "." || trimmed == ".." {
		return "", validationError(fmt.Sprintf("document name %q is not usable as a file name", name), nil)
	}

	dirPath, err := s.kindDirPath(kind)
	if err != nil {
		return "", err
	}

	candidate := filepath.Join(dirPath, trimmed+s.extension)
	if !fsutil.IsPathUnderRoot(s.baseDir, candidate) {
		return "", validationError(fmt.Sprintf("document name %q escapes the inventory base directory", name), nil)
	}
	return candidate, nil
}

func (s *LocalDocumentStore) cleanupEmptyParents(startDir string) error {
	return fsutil.CleanupEmptyParents(startDir, s.baseDir)
}
