package cashflow

import (
	"time"

	"github.com/shopspring/decimal"
)

// Category identifies the kind of financial figure a record aggregates.
type Category string

const (
	CategorySales   Category = "sales"
	CategoryRevenue Category = "revenue"
	CategoryExpense Category = "expense"
	CategoryProfit  Category = "profit"
)

// Granularity is the time bucket records are aggregated into.
type Granularity string

const (
	GranularityDay     Granularity = "day"
	GranularityWeek    Granularity = "week"
	GranularityMonth   Granularity = "month"
	GranularityQuarter Granularity = "quarter"
	GranularityYear    Granularity = "year"
)

// Range bounds a query in time. A zero field means unbounded on that side.
type Range struct {
	From time.Time
	To   time.Time
}

// AggregatedRecord is one period bucket of a category as supplied by the
// data source. Records arrive in chronological order and consumers must
// preserve that order.
type AggregatedRecord struct {
	PeriodLabel string          `db:"period_label"`
	Category    Category        `db:"category"`
	Amount      decimal.Decimal `db:"amount"`
}

// CashPosition summarizes the dashboard headline figures.
type CashPosition struct {
	Current               decimal.Decimal `json:"current"`
	Forecast30Day         decimal.Decimal `json:"forecast30Day"`
	AtRiskInvoices        decimal.Decimal `json:"atRiskInvoices"`
	OverdueInvoicesCount  int             `json:"overdueInvoicesCount"`
	CashRunwayDays        int             `json:"cashRunway"`
	CurrentChangePercent  float64         `json:"currentChangePercent"`
	ForecastChangePercent float64         `json:"forecastChangePercent"`
}
