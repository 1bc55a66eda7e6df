package chart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syedkamrannspark/Cashflow-Backend/internal/domain/cashflow"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/intent"
	"github.com/syedkamrannspark/Cashflow-Backend/pkg/errors"
)

func record(period string, category cashflow.Category, amount float64) cashflow.AggregatedRecord {
	return cashflow.AggregatedRecord{
		PeriodLabel: period,
		Category:    category,
		Amount:      decimal.NewFromFloat(amount),
	}
}

func TestBuild_SingleSeries(t *testing.T) {
	in := intent.Intent{
		Capability:  intent.CapabilityVisualization,
		ChartType:   intent.ChartBar,
		Category:    cashflow.CategorySales,
		Granularity: cashflow.GranularityMonth,
	}
	records := []cashflow.AggregatedRecord{
		record("Jan", cashflow.CategorySales, 1000),
		record("Feb", cashflow.CategorySales, 1500),
		record("Mar", cashflow.CategorySales, 1200),
	}

	spec, err := Build(in, records)
	require.NoError(t, err)

	assert.Equal(t, intent.ChartBar, spec.Type)
	assert.Equal(t, "month", spec.XKey)
	assert.Equal(t, YKeys{"sales"}, spec.YKeys)
	assert.Equal(t, "Sales by Month", spec.Title)
	assert.Len(t, spec.Colors, 1)

	require.Len(t, spec.Data, 3)
	assert.Equal(t, "Jan", spec.Data[0]["month"])
	assert.Equal(t, 1000.0, spec.Data[0]["sales"])
	assert.Equal(t, "Mar", spec.Data[2]["month"])
}

func TestBuild_PreservesInputOrder(t *testing.T) {
	in := intent.Intent{ChartType: intent.ChartLine, Granularity: cashflow.GranularityWeek}
	records := []cashflow.AggregatedRecord{
		record("Week 3", cashflow.CategoryRevenue, 10),
		record("Week 1", cashflow.CategoryRevenue, 20),
		record("Week 2", cashflow.CategoryRevenue, 30),
	}

	spec, err := Build(in, records)
	require.NoError(t, err)

	// Period order is input order, never re-sorted.
	require.Len(t, spec.Data, 3)
	assert.Equal(t, "Week 3", spec.Data[0]["week"])
	assert.Equal(t, "Week 1", spec.Data[1]["week"])
	assert.Equal(t, "Week 2", spec.Data[2]["week"])
}

func TestBuild_MultiSeriesZeroFills(t *testing.T) {
	in := intent.Intent{ChartType: intent.ChartBar, Granularity: cashflow.GranularityMonth}
	records := []cashflow.AggregatedRecord{
		record("Jan", cashflow.CategoryRevenue, 100),
		record("Jan", cashflow.CategoryExpense, 40),
		record("Feb", cashflow.CategoryRevenue, 120),
		// Feb has no expense record.
	}

	spec, err := Build(in, records)
	require.NoError(t, err)

	assert.Equal(t, YKeys{"revenue", "expense"}, spec.YKeys)
	require.Len(t, spec.Data, 2)
	assert.Equal(t, 40.0, spec.Data[0]["expense"])
	assert.Equal(t, 0.0, spec.Data[1]["expense"], "missing category must be zero-filled")
	assert.Len(t, spec.Colors, 2)
}

func TestBuild_EmptyRecords(t *testing.T) {
	spec, err := Build(intent.Intent{ChartType: intent.ChartBar}, nil)

	require.Error(t, err)
	assert.Nil(t, spec)

	var vErr *errors.ValidationError
	assert.True(t, errors.As(err, &vErr))
}

func TestBuild_Defaults(t *testing.T) {
	records := []cashflow.AggregatedRecord{
		record("Jan", cashflow.CategorySales, 1),
	}

	spec, err := Build(intent.Intent{}, records)
	require.NoError(t, err)

	assert.Equal(t, intent.ChartBar, spec.Type, "unset chart type defaults to bar")
	assert.Equal(t, "month", spec.XKey, "unset granularity defaults to month")
}
