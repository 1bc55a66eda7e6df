package cashflow

import "context"

// DataSource is the read-only port to aggregated financial records.
// Implementations must return records in chronological order.
type DataSource interface {
	// FetchAggregated returns period buckets for a category at the given
	// granularity, restricted to rng when bounded.
	FetchAggregated(ctx context.Context, category Category, granularity Granularity, rng Range) ([]AggregatedRecord, error)
}

// StatsSource exposes the dashboard headline aggregates.
type StatsSource interface {
	FetchCashPosition(ctx context.Context) (*CashPosition, error)
}
