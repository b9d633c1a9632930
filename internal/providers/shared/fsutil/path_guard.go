// Package fsutil guards filesystem providers against paths escaping their
// configured base directory.
package fsutil

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// IsPathUnderRoot reports whether candidate stays inside root once both are
// cleaned and any existing symlink components are resolved. Components that
// do not exist yet are checked lexically below the deepest existing one.
func IsPathUnderRoot(root string, candidate string) bool {
	resolvedRoot, err := resolveExistingSymlinks(root)
	if err != nil {
		return false
	}
	resolvedCandidate, err := resolveExistingSymlinks(candidate)
	if err != nil {
		return false
	}
	return containsLexically(resolvedRoot, resolvedCandidate)
}

// CleanupEmptyParents removes now-empty directories from startDir upward,
// stopping before rootDir. The walk ends silently at the first level that
// still has entries.
func CleanupEmptyParents(startDir string, rootDir string) error {
	current := filepath.Clean(startDir)
	root := filepath.Clean(rootDir)

	for current != root && current != "." && current != string(filepath.Separator) {
		if err := os.Remove(current); err != nil {
			if isRemoveWalkStop(err) {
				return nil
			}
			return err
		}
		current = filepath.Dir(current)
	}

	return nil
}

// isRemoveWalkStop reports removal errors that end the upward walk without
// failing it: the directory is already gone or not empty.
func isRemoveWalkStop(err error) bool {
	if errors.Is(err, os.ErrNotExist) {
		return true
	}
	var pathErr *os.PathError
	if errors.As(err, &pathErr) && errors.Is(pathErr.Err, fs.ErrInvalid) {
		return true
	}
	return errors.Is(err, fs.ErrExist) || strings.Contains(err.Error(), "not empty")
}

func containsLexically(root string, candidate string) bool {
	relative, err := filepath.Rel(filepath.Clean(root), filepath.Clean(candidate))
	if err != nil {
		return false
	}
	if relative == ".." {
		return false
	}
	return !strings.HasPrefix(relative, ".."+string(filepath.Separator))
}

// resolveExistingSymlinks resolves symlinks in every path component that
// exists on disk and keeps the not-yet-created suffix lexical, so write
// targets can be validated before anything is created.
func resolveExistingSymlinks(path string) (string, error) {
	cleaned := filepath.Clean(path)
	if cleaned == "." {
		return cleaned, nil
	}

	volume := filepath.VolumeName(cleaned)
	remainder := strings.TrimPrefix(cleaned, volume)
	separator := string(filepath.Separator)

	resolved := ""
	switch {
	case strings.HasPrefix(remainder, separator):
		resolved = volume + separator
		remainder = strings.TrimPrefix(remainder, separator)
	case volume != "":
		resolved = volume
	}

	components := strings.FieldsFunc(remainder, func(r rune) bool {
		return r == rune(filepath.Separator)
	})
	if len(components) == 0 {
		if resolved == "" {
			return cleaned, nil
		}
		return filepath.Clean(resolved), nil
	}

	for index, component := range components {
		probe := filepath.Join(resolved, component)

		info, err := os.Lstat(probe)
		switch {
		case errors.Is(err, os.ErrNotExist):
			if index < len(components)-1 {
				probe = filepath.Join(probe, filepath.Join(components[index+1:]...))
			}
			return filepath.Clean(probe), nil
		case err != nil:
			return "", err
		case info.Mode()&os.ModeSymlink != 0:
			target, err := filepath.EvalSymlinks(probe)
			if err != nil {
				return "", err
			}
			resolved = target
		default:
			resolved = probe
		}
	}

	if resolved == "" {
		return cleaned, nil
	}
	return filepath.Clean(resolved), nil
}
