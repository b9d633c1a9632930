package object

import (
	"fmt"
	"strings"

	"github.com/fiesolecouk/declansx/faults"
	"github.com/fiesolecouk/declansx/orchestrator"
	"github.com/fiesolecouk/declansx/reconcile"
)

// documentResultError maps a terminal apply outcome to the error the process
// exit code derives from. Conflict outcomes carry no error of their own, so
// a typed conflict is synthesized here.
func documentResultError(result orchestrator.DocumentResult) error {
	switch result.Outcome.Action {
	case reconcile.ActionError:
		return result.Outcome.Err
	case reconcile.ActionConflict:
		message := strings.TrimSpace(result.Outcome.Message)
		if message == "" {
			message = fmt.Sprintf("%s %q exists with different parameters", result.Kind, result.Name)
		}
		return faults.NewTypedError(faults.ConflictError, message+"; use --force to overwrite", nil)
	default:
		return nil
	}
}
