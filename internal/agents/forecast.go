package agents

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/syedkamrannspark/Cashflow-Backend/internal/domain/cashflow"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/intent"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/metrics"
	"github.com/syedkamrannspark/Cashflow-Backend/pkg/errors"
	"github.com/syedkamrannspark/Cashflow-Backend/pkg/logger"
)

// ForecastAgent projects future period amounts with an ordinary
// least-squares fit over the historical records. It is deterministic and
// CPU-bound; it never calls an external capability.
type ForecastAgent struct {
	periods int
	log     *logger.Logger
}

// NewForecastAgent creates a forecast agent projecting the given number of
// future periods (minimum 1).
func NewForecastAgent(periods int) *ForecastAgent {
	if periods < 1 {
		periods = 1
	}
	return &ForecastAgent{
		periods: periods,
		log:     logger.Get().With("agent", NameForecast),
	}
}

func (a *ForecastAgent) Name() string { return NameForecast }

// Run fits a trend line over the records and extrapolates. Fewer than two
// data points cannot anchor a trend and fail with insufficient_data.
func (a *ForecastAgent) Run(ctx context.Context, in intent.Intent, records []cashflow.AggregatedRecord) Result {
	start := time.Now()

	if len(records) < 2 {
		metrics.RecordAgentCall(NameForecast, time.Since(start), true)
		return Failure(NameForecast, ReasonInsufficientData,
			errors.Wrapf(errors.ErrInsufficientData, "need at least 2 data points, got %d", len(records)))
	}

	// Least squares over (index, amount).
	n := float64(len(records))
	var sumX, sumY, sumXY, sumXX float64
	for i, rec := range records {
		x := float64(i)
		y := rec.Amount.InexactFloat64()
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	slope := (n*sumXY - sumX*sumY) / (n*sumXX - sumX*sumX)
	intercept := (sumY - slope*sumX) / n

	labels := nextLabels(records[len(records)-1].PeriodLabel, in.Granularity, a.periods)

	points := make([]ForecastPoint, 0, a.periods)
	for i := 0; i < a.periods; i++ {
		x := n + float64(i)
		amount := intercept + slope*x
		if amount < 0 {
			amount = 0
		}
		points = append(points, ForecastPoint{PeriodLabel: labels[i], Amount: amount})
	}

	a.log.Debugw("projection complete", "points", len(points), "slope", slope)
	metrics.RecordAgentCall(NameForecast, time.Since(start), false)

	return Success(NameForecast, &ForecastPayload{
		Category: string(in.Category),
		Points:   points,
		Slope:    slope,
	})
}

// nextLabels continues the input labeling scheme when the last label ends in
// an integer ("Week 4" → "Week 5"); otherwise it falls back to generic
// granularity-based labels.
func nextLabels(last string, granularity cashflow.Granularity, count int) []string {
	labels := make([]string, 0, count)

	if idx := strings.LastIndexByte(last, ' '); idx > 0 {
		if seq, err := strconv.Atoi(last[idx+1:]); err == nil {
			prefix := last[:idx]
			for i := 1; i <= count; i++ {
				labels = append(labels, fmt.Sprintf("%s %d", prefix, seq+i))
			}
			return labels
		}
	}

	unit := string(granularity)
	if unit == "" {
		unit = string(cashflow.GranularityMonth)
	}
	for i := 1; i <= count; i++ {
		labels = append(labels, fmt.Sprintf("%s +%d", unit, i))
	}
	return labels
}
