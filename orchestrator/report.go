package orchestrator

import (
	"github.com/fiesolecouk/declansx/reconcile"
	"github.com/fiesolecouk/declansx/resource"
)

// DocumentResult pairs one document's identity with its reconcile outcome.
type DocumentResult struct {
	Kind    resource.Kind     `yaml:"kind" json:"kind"`
	Domain  string            `yaml:"domain,omitempty" json:"domain,omitempty"`
	Name    string            `yaml:"name" json:"name"`
	Outcome reconcile.Outcome `yaml:"outcome" json:"outcome"`
}

// BatchSummary counts batch results by terminal action.
type BatchSummary struct {
	Total     int `yaml:"total" json:"total"`
	Found     int `yaml:"found,omitempty" json:"found,omitempty"`
	Created   int `yaml:"created,omitempty" json:"created,omitempty"`
	Updated   int `yaml:"updated,omitempty" json:"updated,omitempty"`
	Conflicts int `yaml:"conflicts,omitempty" json:"conflicts,omitempty"`
	DryRuns   int `yaml:"dry-runs,omitempty" json:"dry-runs,omitempty"`
	Errors    int `yaml:"errors,omitempty" json:"errors,omitempty"`
}

// BatchReport is the aggregate result of one batch apply. Results keep the
// input document order.
type BatchReport struct {
	Results []DocumentResult `yaml:"results" json:"results"`
	Summary BatchSummary     `yaml:"summary" json:"summary"`
}

// FirstError returns the error carried by the first failed result, or nil
// when every document resolved without an error outcome.
func (r BatchReport) FirstError() error {
	for _, result := range r.Results {
		if result.Outcome.Err != nil {
			return result.Outcome.Err
		}
	}
	return nil
}

// Mutated reports whether any document in the batch changed remote state.
func (r BatchReport) Mutated() bool {
	for _, result := range r.Results {
		if result.Outcome.Action.Mutated() {
			return true
		}
	}
	return false
}

func summarizeResults(results []DocumentResult) BatchSummary {
	summary := BatchSummary{Total: len(results)}
	for _, result := range results {
		switch result.Outcome.Action {
		case reconcile.ActionFound:
			summary.Found++
		case reconcile.ActionCreated:
			summary.Created++
		case reconcile.ActionUpdated:
			summary.Updated++
		case reconcile.ActionConflict:
			summary.Conflicts++
		case reconcile.ActionDryRun:
			summary.DryRuns++
		case reconcile.ActionError:
			summary.Errors++
		}
	}
	return summary
}
