package intent

import (
	"strings"

	"github.com/syedkamrannspark/Cashflow-Backend/internal/domain/cashflow"
)

// Keyword tables evaluated in declaration order. The first table entry whose
// keywords match wins; later entries never override an earlier match. The
// tables are data on purpose so the classifier stays replaceable by a
// model-based implementation behind the same Classify contract.

var visualizationTriggers = []string{
	"show", "chart", "graph", "visualize", "visualise", "plot", "display",
}

var forecastTriggers = []string{
	"forecast", "workflow", "projection", "project", "predict",
}

type chartTypeRule struct {
	keywords []string
	chart    ChartType
}

var chartTypeTable = []chartTypeRule{
	{keywords: []string{"bar", "compare", "comparison"}, chart: ChartBar},
	{keywords: []string{"line", "trend", "over time", "timeline"}, chart: ChartLine},
	{keywords: []string{"pie", "breakdown", "distribution", "split"}, chart: ChartPie},
	{keywords: []string{"area", "cumulative"}, chart: ChartArea},
}

type categoryRule struct {
	keywords []string
	category cashflow.Category
}

var categoryTable = []categoryRule{
	{keywords: []string{"sales"}, category: cashflow.CategorySales},
	{keywords: []string{"revenue", "income", "collections"}, category: cashflow.CategoryRevenue},
	{keywords: []string{"expense", "expenses", "spending", "costs", "outflow"}, category: cashflow.CategoryExpense},
	{keywords: []string{"profit", "margin"}, category: cashflow.CategoryProfit},
}

type granularityRule struct {
	keywords    []string
	granularity cashflow.Granularity
}

var granularityTable = []granularityRule{
	{keywords: []string{"daily", "by day", "per day"}, granularity: cashflow.GranularityDay},
	{keywords: []string{"weekly", "by week", "per week"}, granularity: cashflow.GranularityWeek},
	{keywords: []string{"monthly", "by month", "per month"}, granularity: cashflow.GranularityMonth},
	{keywords: []string{"quarterly", "by quarter"}, granularity: cashflow.GranularityQuarter},
	{keywords: []string{"yearly", "annual", "by year"}, granularity: cashflow.GranularityYear},
}

// Classify maps a raw query to a structured intent. It is a pure function
// and never fails: unrecognized input yields a TEXT intent with the default
// month granularity.
func Classify(q Query) Intent {
	text := strings.ToLower(q.Text)

	in := Intent{
		Capability:  CapabilityText,
		Granularity: cashflow.GranularityMonth,
	}

	for _, rule := range chartTypeTable {
		if containsAny(text, rule.keywords) {
			in.ChartType = rule.chart
			break
		}
	}

	for _, rule := range categoryTable {
		if containsAny(text, rule.keywords) {
			in.Category = rule.category
			break
		}
	}

	for _, rule := range granularityTable {
		if containsAny(text, rule.keywords) {
			in.Granularity = rule.granularity
			break
		}
	}

	// A chart-type trigger alone is enough to request a visualization.
	switch {
	case containsAny(text, visualizationTriggers) || in.ChartType != "":
		in.Capability = CapabilityVisualization
	case containsAny(text, forecastTriggers):
		in.Capability = CapabilityForecast
	}

	// Visualizations without an explicit chart-type trigger default to a
	// bar comparison; trend and distribution queries already matched line
	// or pie above.
	if in.Capability == CapabilityVisualization && in.ChartType == "" {
		in.ChartType = ChartBar
	}

	return in
}

func containsAny(text string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			return true
		}
	}
	return false
}
