package intent

import (
	"time"

	"github.com/syedkamrannspark/Cashflow-Backend/internal/domain/cashflow"
)

// Capability is the kind of response a query demands.
type Capability string

const (
	CapabilityText          Capability = "text"
	CapabilityVisualization Capability = "visualization"
	CapabilityForecast      Capability = "forecast"
)

// ChartType enumerates the supported chart kinds.
type ChartType string

const (
	ChartBar  ChartType = "bar"
	ChartLine ChartType = "line"
	ChartPie  ChartType = "pie"
	ChartArea ChartType = "area"
)

// Query is the immutable natural-language input.
type Query struct {
	Text        string
	RequestedAt time.Time
}

// Intent is the structured interpretation of a query. It is never mutated
// after classification.
type Intent struct {
	Capability  Capability
	ChartType   ChartType            // empty when no chart-type trigger matched
	Category    cashflow.Category    // empty when no category trigger matched
	Granularity cashflow.Granularity // defaults to month
}

// HasChartType reports whether a chart-type trigger matched.
func (in Intent) HasChartType() bool { return in.ChartType != "" }

// HasCategory reports whether a data-category trigger matched.
func (in Intent) HasCategory() bool { return in.Category != "" }
