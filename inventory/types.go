package inventory

import (
	"time"

	"github.com/fiesolecouk/declansx/resource"
)

type PushPolicy struct {
	Force bool
}

// ListPolicy narrows a listing. A zero Kind selects every kind.
type ListPolicy struct {
	Kind resource.Kind
}

// HistoryPolicy caps how far back History reaches. Limit <= 0 means the
// store's default depth.
type HistoryPolicy struct {
	Limit int
}

type SyncState string

const (
	SyncStateUpToDate SyncState = "up_to_date"
	SyncStateAhead    SyncState = "ahead"
	SyncStateBehind   SyncState = "behind"
	SyncStateDiverged SyncState = "diverged"
	SyncStateNoRemote SyncState = "no_remote"
)

type SyncReport struct {
	State          SyncState `yaml:"state" json:"state"`
	Ahead          int       `yaml:"ahead" json:"ahead"`
	Behind         int       `yaml:"behind" json:"behind"`
	HasUncommitted bool      `yaml:"has-uncommitted" json:"has-uncommitted"`
}

// CommitRecord is one entry of the inventory history.
type CommitRecord struct {
	Hash    string    `yaml:"hash" json:"hash"`
	Author  string    `yaml:"author,omitempty" json:"author,omitempty"`
	Message string    `yaml:"message" json:"message"`
	When    time.Time `yaml:"when" json:"when"`
}
