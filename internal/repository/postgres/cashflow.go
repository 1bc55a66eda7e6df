package postgres

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/syedkamrannspark/Cashflow-Backend/internal/domain/cashflow"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/metrics"
	"github.com/syedkamrannspark/Cashflow-Backend/pkg/errors"
)

// CashflowRepository implements cashflow.DataSource and cashflow.StatsSource
// over the ingested financial tables.
type CashflowRepository struct {
	db DBTX
}

// NewCashflowRepository creates a new cashflow repository
func NewCashflowRepository(db DBTX) *CashflowRepository {
	return &CashflowRepository{db: db}
}

// FetchAggregated returns period buckets for a category in chronological
// order. An unbounded range returns the full available history.
func (r *CashflowRepository) FetchAggregated(
	ctx context.Context,
	category cashflow.Category,
	granularity cashflow.Granularity,
	rng cashflow.Range,
) ([]cashflow.AggregatedRecord, error) {
	query := `
		SELECT period_label, category, amount
		FROM cashflow_aggregates
		WHERE category = $1
		  AND granularity = $2
		  AND ($3::timestamptz IS NULL OR period_start >= $3)
		  AND ($4::timestamptz IS NULL OR period_start <= $4)
		ORDER BY period_start ASC
	`

	var from, to interface{}
	if !rng.From.IsZero() {
		from = rng.From
	}
	if !rng.To.IsZero() {
		to = rng.To
	}

	var records []cashflow.AggregatedRecord
	err := r.db.SelectContext(ctx, &records, query, string(category), string(granularity), from, to)
	if err != nil {
		metrics.DataSourceQueries.WithLabelValues(string(category), "error").Inc()
		return nil, errors.Wrap(err, "fetch aggregated records")
	}

	metrics.DataSourceQueries.WithLabelValues(string(category), "success").Inc()
	return records, nil
}

// FetchCashPosition computes the dashboard headline figures from invoices
// and payment history.
func (r *CashflowRepository) FetchCashPosition(ctx context.Context) (*cashflow.CashPosition, error) {
	var atRisk struct {
		Amount decimal.Decimal `db:"amount"`
		Count  int             `db:"count"`
	}
	err := r.db.GetContext(ctx, &atRisk, `
		SELECT COALESCE(SUM(balance_due), 0) AS amount, COUNT(*) AS count
		FROM app_invoices
		WHERE days_past_due > 0
	`)
	if err != nil {
		return nil, errors.Wrap(err, "fetch at-risk invoices")
	}

	var forecast30 decimal.Decimal
	err = r.db.GetContext(ctx, &forecast30, `
		SELECT COALESCE(SUM(balance_due), 0)
		FROM app_invoices
		WHERE due_date >= CURRENT_DATE
		  AND due_date <= CURRENT_DATE + INTERVAL '30 days'
	`)
	if err != nil {
		return nil, errors.Wrap(err, "fetch 30-day collection forecast")
	}

	var current decimal.Decimal
	err = r.db.GetContext(ctx, &current, `
		SELECT balance
		FROM bank_transactions
		ORDER BY date DESC, id DESC
		LIMIT 1
	`)
	if err == sql.ErrNoRows {
		current = decimal.Zero
	} else if err != nil {
		return nil, errors.Wrap(err, "fetch current cash balance")
	}

	var dailyBurn decimal.Decimal
	err = r.db.GetContext(ctx, &dailyBurn, `
		SELECT COALESCE(SUM(ABS(amount)) / 90.0, 0)
		FROM bank_transactions
		WHERE amount < 0
		  AND date >= CURRENT_DATE - INTERVAL '90 days'
	`)
	if err != nil {
		return nil, errors.Wrap(err, "fetch daily burn rate")
	}

	pos := &cashflow.CashPosition{
		Current:              current,
		Forecast30Day:        forecast30,
		AtRiskInvoices:       atRisk.Amount,
		OverdueInvoicesCount: atRisk.Count,
	}
	if dailyBurn.IsPositive() {
		pos.CashRunwayDays = int(current.Div(dailyBurn).IntPart())
	}

	var priorBalance decimal.Decimal
	err = r.db.GetContext(ctx, &priorBalance, `
		SELECT balance
		FROM bank_transactions
		WHERE date <= CURRENT_DATE - INTERVAL '30 days'
		ORDER BY date DESC, id DESC
		LIMIT 1
	`)
	if err != nil && err != sql.ErrNoRows {
		return nil, errors.Wrap(err, "fetch prior cash balance")
	}
	if err == nil && !priorBalance.IsZero() {
		pos.CurrentChangePercent, _ = current.Sub(priorBalance).
			Div(priorBalance.Abs()).Mul(decimal.NewFromInt(100)).Float64()
	}

	return pos, nil
}
