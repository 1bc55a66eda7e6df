package redis

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	redisclient "github.com/syedkamrannspark/Cashflow-Backend/internal/adapters/redis"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/domain/cashflow"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/metrics"
	"github.com/syedkamrannspark/Cashflow-Backend/pkg/logger"
)

// CachedDataSource is a read-through cache in front of another data source.
// Cache failures degrade to the underlying source, never to an error.
type CachedDataSource struct {
	source cashflow.DataSource
	client *redisclient.Client
	ttl    time.Duration
}

// NewCachedDataSource wraps source with a Redis read-through cache
func NewCachedDataSource(source cashflow.DataSource, client *redisclient.Client, ttl time.Duration) *CachedDataSource {
	return &CachedDataSource{
		source: source,
		client: client,
		ttl:    ttl,
	}
}

// FetchAggregated returns cached records when present, otherwise delegates
// to the underlying source and stores the result.
func (c *CachedDataSource) FetchAggregated(
	ctx context.Context,
	category cashflow.Category,
	granularity cashflow.Granularity,
	rng cashflow.Range,
) ([]cashflow.AggregatedRecord, error) {
	key := cacheKey(category, granularity, rng)

	var cached []cashflow.AggregatedRecord
	err := c.client.Get(ctx, key, &cached)
	if err == nil {
		metrics.CacheHits.WithLabelValues("hit").Inc()
		return cached, nil
	}
	if err != goredis.Nil {
		logger.Get().Warnw("Cache lookup failed, falling through", "key", key, "error", err)
	}
	metrics.CacheHits.WithLabelValues("miss").Inc()

	records, err := c.source.FetchAggregated(ctx, category, granularity, rng)
	if err != nil {
		return nil, err
	}

	if err := c.client.Set(ctx, key, records, c.ttl); err != nil {
		logger.Get().Warnw("Cache store failed", "key", key, "error", err)
	}

	return records, nil
}

func cacheKey(category cashflow.Category, granularity cashflow.Granularity, rng cashflow.Range) string {
	from, to := "-", "-"
	if !rng.From.IsZero() {
		from = rng.From.Format("2006-01-02")
	}
	if !rng.To.IsZero() {
		to = rng.To.Format("2006-01-02")
	}
	return fmt.Sprintf("cashflow:agg:%s:%s:%s:%s", category, granularity, from, to)
}
