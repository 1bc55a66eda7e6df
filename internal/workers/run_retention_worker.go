package workers

import (
	"context"
	"time"

	"github.com/syedkamrannspark/Cashflow-Backend/internal/workflow"
)

// RunRetentionWorker prunes finalized workflow runs from the in-process
// store. Without it the run registry grows for the lifetime of the service.
type RunRetentionWorker struct {
	*BaseWorker
	store     *workflow.Store
	retention time.Duration
}

// NewRunRetentionWorker creates a retention worker keeping terminal runs for
// the given duration.
func NewRunRetentionWorker(store *workflow.Store, interval, retention time.Duration) *RunRetentionWorker {
	return &RunRetentionWorker{
		BaseWorker: NewBaseWorker("run_retention", interval, true),
		store:      store,
		retention:  retention,
	}
}

// Run drops terminal runs older than the retention window.
func (w *RunRetentionWorker) Run(ctx context.Context) error {
	removed := w.store.Prune(w.retention)
	if removed > 0 {
		w.Log().Infow("retention sweep complete", "removed", removed)
	}
	w.RecordRun()
	return nil
}
