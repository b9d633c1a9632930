package fsstore

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/fiesolecouk/declansx/config"
	"github.com/fiesolecouk/declansx/faults"
	"github.com/fiesolecouk/declansx/inventory"
)

var _ inventory.Store = (*LocalDocumentStore)(nil)
var _ inventory.Sync = (*LocalDocumentStore)(nil)

// LocalDocumentStore keeps desired-state documents as plain files, one file
// per object under a directory per kind. It carries no version control, so
// the mutating sync operations degrade with a ValidationError and SyncStatus
// reports no remote.
type LocalDocumentStore struct {
	baseDir        string
	documentFormat string
	extension      string
}

func NewLocalDocumentStore(baseDir string, documentFormat string) *LocalDocumentStore {
	format := documentFormat
	if format == "" {
		format = config.DocumentFormatYAML
	}

	extension := ".yaml"
	if format == config.DocumentFormatJSON {
		extension = ".json"
	}

	return &LocalDocumentStore{
		baseDir:        filepath.Clean(baseDir),
		documentFormat: format,
		extension:      extension,
	}
}

func (s *LocalDocumentStore) Init(_ context.Context) error {
	if s.baseDir == "" {
		return validationError("inventory base directory must not be empty", nil)
	}
	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return internalError("failed to initialize inventory directory", err)
	}
	return nil
}

func (s *LocalDocumentStore) Commit(context.Context, string) (inventory.CommitRecord, error) {
	return inventory.CommitRecord{}, validationError("commit requires git inventory with version control", nil)
}

func (s *LocalDocumentStore) History(context.Context, inventory.HistoryPolicy) ([]inventory.CommitRecord, error) {
	return nil, nil
}

func (s *LocalDocumentStore) Refresh(context.Context) error {
	return nil
}

func (s *LocalDocumentStore) Push(context.Context, inventory.PushPolicy) error {
	return validationError("push requires git inventory with remote configuration", nil)
}

func (s *LocalDocumentStore) SyncStatus(context.Context) (inventory.SyncReport, error) {
	return inventory.SyncReport{
		State:          inventory.SyncStateNoRemote,
		Ahead:          0,
		Behind:         0,
		HasUncommitted: false,
	}, nil
}

func (s *LocalDocumentStore) Check(_ context.Context) error {
	info, err := os.Stat(s.baseDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return notFoundError("inventory base directory does not exist")
		}
		return internalError("failed to inspect inventory base directory", err)
	}
	if !info.IsDir() {
		return validationError("inventory base directory is not a directory", nil)
	}
	return nil
}

func validationError(message string, cause error) error {
	return faults.NewTypedError(faults.ValidationError, message, cause)
}

func notFoundError(message string) error {
	return faults.NewTypedError(faults.NotFoundError, message, nil)
}

func internalError(message string, cause error) error {
	return faults.NewTypedError(faults.InternalError, message, cause)
}
