package metrics

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/syedkamrannspark/Cashflow-Backend/pkg/logger"
)

// DBCollector collects business-level gauges straight from PostgreSQL on
// each scrape.
type DBCollector struct {
	log      *logger.Logger
	postgres *sqlx.DB

	invoicesByStatus *prometheus.Desc
	overdueAmount    *prometheus.Desc
	aggregateRows    *prometheus.Desc
}

// NewDBCollector creates a collector over the application database
func NewDBCollector(log *logger.Logger, postgres *sqlx.DB) *DBCollector {
	return &DBCollector{
		log:      log,
		postgres: postgres,

		invoicesByStatus: prometheus.NewDesc(
			"cashflow_invoices",
			"Number of invoices by status",
			[]string{"status"}, nil,
		),
		overdueAmount: prometheus.NewDesc(
			"cashflow_overdue_amount",
			"Total balance due across overdue invoices",
			nil, nil,
		),
		aggregateRows: prometheus.NewDesc(
			"cashflow_aggregate_rows",
			"Number of aggregate rows by category",
			[]string{"category"}, nil,
		),
	}
}

// Describe implements prometheus.Collector
func (c *DBCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.invoicesByStatus
	ch <- c.overdueAmount
	ch <- c.aggregateRows
}

// Collect implements prometheus.Collector
func (c *DBCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c.collectInvoiceStats(ctx, ch)
	c.collectOverdueAmount(ctx, ch)
	c.collectAggregateStats(ctx, ch)
}

func (c *DBCollector) collectInvoiceStats(ctx context.Context, ch chan<- prometheus.Metric) {
	type invoiceStat struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}

	var stats []invoiceStat
	err := c.postgres.SelectContext(ctx, &stats, `
		SELECT status, COUNT(*) AS count
		FROM app_invoices
		GROUP BY status
	`)
	if err != nil {
		c.log.Warnw("Failed to collect invoice stats", "error", err)
		return
	}

	for _, stat := range stats {
		ch <- prometheus.MustNewConstMetric(
			c.invoicesByStatus,
			prometheus.GaugeValue,
			float64(stat.Count),
			stat.Status,
		)
	}
}

func (c *DBCollector) collectOverdueAmount(ctx context.Context, ch chan<- prometheus.Metric) {
	var amount float64
	err := c.postgres.GetContext(ctx, &amount, `
		SELECT COALESCE(SUM(balance_due), 0)
		FROM app_invoices
		WHERE days_past_due > 0
	`)
	if err != nil {
		c.log.Warnw("Failed to collect overdue amount", "error", err)
		return
	}

	ch <- prometheus.MustNewConstMetric(c.overdueAmount, prometheus.GaugeValue, amount)
}

func (c *DBCollector) collectAggregateStats(ctx context.Context, ch chan<- prometheus.Metric) {
	type aggregateStat struct {
		Category string `db:"category"`
		Count    int    `db:"count"`
	}

	var stats []aggregateStat
	err := c.postgres.SelectContext(ctx, &stats, `
		SELECT category, COUNT(*) AS count
		FROM cashflow_aggregates
		GROUP BY category
	`)
	if err != nil {
		c.log.Warnw("Failed to collect aggregate stats", "error", err)
		return
	}

	for _, stat := range stats {
		ch <- prometheus.MustNewConstMetric(
			c.aggregateRows,
			prometheus.GaugeValue,
			float64(stat.Count),
			stat.Category,
		)
	}
}

// RegisterDBCollector registers the collector with the default registry
func RegisterDBCollector(collector *DBCollector) {
	prometheus.MustRegister(collector)
}
