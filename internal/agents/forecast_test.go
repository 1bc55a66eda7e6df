package agents

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syedkamrannspark/Cashflow-Backend/internal/domain/cashflow"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/intent"
)

func histRecord(period string, amount float64) cashflow.AggregatedRecord {
	return cashflow.AggregatedRecord{
		PeriodLabel: period,
		Category:    cashflow.CategorySales,
		Amount:      decimal.NewFromFloat(amount),
	}
}

func TestForecastAgent_InsufficientData(t *testing.T) {
	agent := NewForecastAgent(4)

	for _, records := range [][]cashflow.AggregatedRecord{
		nil,
		{histRecord("Jan", 100)},
	} {
		res := agent.Run(context.Background(), intent.Intent{}, records)
		assert.False(t, res.OK())
		assert.Equal(t, ReasonInsufficientData, res.Reason)
		assert.Error(t, res.Err)
	}
}

func TestForecastAgent_LinearTrend(t *testing.T) {
	agent := NewForecastAgent(2)

	// Perfectly linear series: 100, 200, 300 -> next values 400, 500.
	records := []cashflow.AggregatedRecord{
		histRecord("Week 1", 100),
		histRecord("Week 2", 200),
		histRecord("Week 3", 300),
	}

	res := agent.Run(context.Background(), intent.Intent{
		Category:    cashflow.CategorySales,
		Granularity: cashflow.GranularityWeek,
	}, records)
	require.True(t, res.OK(), "unexpected failure: %v", res.Err)

	payload, ok := res.Payload.(*ForecastPayload)
	require.True(t, ok)

	assert.Equal(t, "sales", payload.Category)
	assert.InDelta(t, 100.0, payload.Slope, 1e-9)

	require.Len(t, payload.Points, 2)
	assert.Equal(t, "Week 4", payload.Points[0].PeriodLabel)
	assert.InDelta(t, 400.0, payload.Points[0].Amount, 1e-6)
	assert.Equal(t, "Week 5", payload.Points[1].PeriodLabel)
	assert.InDelta(t, 500.0, payload.Points[1].Amount, 1e-6)
}

func TestForecastAgent_ClampsNegativeProjections(t *testing.T) {
	agent := NewForecastAgent(3)

	// Steep downward trend crosses zero within the horizon.
	records := []cashflow.AggregatedRecord{
		histRecord("Month 1", 200),
		histRecord("Month 2", 100),
		histRecord("Month 3", 0),
	}

	res := agent.Run(context.Background(), intent.Intent{}, records)
	require.True(t, res.OK())

	payload := res.Payload.(*ForecastPayload)
	for _, pt := range payload.Points {
		assert.GreaterOrEqual(t, pt.Amount, 0.0, "projections never go negative")
	}
}

func TestForecastAgent_GenericLabelsWithoutSequence(t *testing.T) {
	agent := NewForecastAgent(2)

	records := []cashflow.AggregatedRecord{
		histRecord("Jan", 10),
		histRecord("Feb", 20),
	}

	res := agent.Run(context.Background(), intent.Intent{
		Granularity: cashflow.GranularityMonth,
	}, records)
	require.True(t, res.OK())

	payload := res.Payload.(*ForecastPayload)
	require.Len(t, payload.Points, 2)
	assert.Equal(t, "month +1", payload.Points[0].PeriodLabel)
	assert.Equal(t, "month +2", payload.Points[1].PeriodLabel)
}
