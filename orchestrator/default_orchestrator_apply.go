package orchestrator

import (
	"context"

	debugctx "github.com/fiesolecouk/declansx/debugctx"
	"github.com/fiesolecouk/declansx/reconcile"
	"github.com/fiesolecouk/declansx/resource"
)

func (o *DefaultOrchestrator) ApplyDocument(ctx context.Context, document resource.Document, opts reconcile.Options) DocumentResult {
	result := DocumentResult{Kind: document.Kind, Domain: document.Domain}
	if document.Spec == nil {
		result.Outcome = errorOutcome(validationError("document carries no spec", nil))
		return result
	}
	result.Name = document.Spec.DisplayName()

	collection, err := o.bindCollection(ctx, document.Kind, document.Domain)
	if err != nil {
		debugctx.Printf(ctx, "orchestrator apply bind failed kind=%q name=%q error=%v", document.Kind, result.Name, err)
		result.Outcome = errorOutcome(err)
		return result
	}

	result.Outcome = o.effectiveReconciler().Apply(ctx, document.Spec, collection, opts)
	debugctx.Printf(ctx, "orchestrator apply kind=%q name=%q action=%q", document.Kind, result.Name, result.Outcome.Action)
	return result
}

// ApplyAll runs each document through ApplyDocument and aggregates the
// results. A cancelled context surfaces through the remaining documents'
// own collection calls rather than truncating the report.
func (o *DefaultOrchestrator) ApplyAll(ctx context.Context, documents []resource.Document, opts reconcile.Options) BatchReport {
	results := make([]DocumentResult, 0, len(documents))
	for _, document := range documents {
		results = append(results, o.ApplyDocument(ctx, document, opts))
	}

	report := BatchReport{Results: results, Summary: summarizeResults(results)}
	debugctx.Printf(ctx, "orchestrator batch apply total=%d created=%d updated=%d conflicts=%d errors=%d",
		report.Summary.Total, report.Summary.Created, report.Summary.Updated, report.Summary.Conflicts, report.Summary.Errors)
	return report
}

func errorOutcome(err error) reconcile.Outcome {
	return reconcile.Outcome{
		Action:  reconcile.ActionError,
		Message: err.Error(),
		Err:     err,
	}
}
