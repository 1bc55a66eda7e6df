package workers

import (
	"context"
	"time"

	"github.com/syedkamrannspark/Cashflow-Backend/internal/domain/cashflow"
	"github.com/syedkamrannspark/Cashflow-Backend/pkg/errors"
)

// warmTargets are the category/granularity pairs dashboard queries hit most.
var warmTargets = []struct {
	category    cashflow.Category
	granularity cashflow.Granularity
}{
	{cashflow.CategoryRevenue, cashflow.GranularityMonth},
	{cashflow.CategorySales, cashflow.GranularityMonth},
	{cashflow.CategoryExpense, cashflow.GranularityMonth},
}

// CacheWarmWorker keeps the aggregate cache populated so interactive queries
// rarely pay the database round trip. It fetches through the cached source,
// which stores results as a side effect.
type CacheWarmWorker struct {
	*BaseWorker
	source cashflow.DataSource
}

// NewCacheWarmWorker creates a cache warmer over the cached data source.
func NewCacheWarmWorker(source cashflow.DataSource, interval time.Duration, enabled bool) *CacheWarmWorker {
	return &CacheWarmWorker{
		BaseWorker: NewBaseWorker("cache_warm", interval, enabled),
		source:     source,
	}
}

// Run fetches the common aggregates once each.
func (w *CacheWarmWorker) Run(ctx context.Context) error {
	var lastErr error
	for _, target := range warmTargets {
		if _, err := w.source.FetchAggregated(ctx, target.category, target.granularity, cashflow.Range{}); err != nil {
			lastErr = errors.Wrapf(err, "warm %s/%s", target.category, target.granularity)
			w.Log().Warnw("cache warm fetch failed",
				"category", target.category, "granularity", target.granularity, "error", err)
		}
	}

	if lastErr != nil {
		w.RecordError(lastErr)
		return lastErr
	}
	w.RecordRun()
	return nil
}
