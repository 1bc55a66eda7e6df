package chart

import (
	"fmt"
	"strings"

	"github.com/syedkamrannspark/Cashflow-Backend/internal/domain/cashflow"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/intent"
	"github.com/syedkamrannspark/Cashflow-Backend/pkg/errors"
)

// defaultPalette is applied in order, one color per y-axis series.
var defaultPalette = []string{
	"#2563eb", "#16a34a", "#dc2626", "#d97706", "#7c3aed", "#0891b2",
}

var supportedTypes = map[intent.ChartType]bool{
	intent.ChartBar:  true,
	intent.ChartLine: true,
	intent.ChartPie:  true,
	intent.ChartArea: true,
}

// Build transforms aggregated records into a chart spec. It is a pure
// transformation: records are grouped by period label in input order and
// each category becomes one y-axis series, also in input order. Periods
// missing a category are zero-filled so every point carries all y-keys.
func Build(in intent.Intent, records []cashflow.AggregatedRecord) (*Spec, error) {
	if len(records) == 0 {
		return nil, errors.NewValidationError("records", "no data available for chart", len(records))
	}

	chartType := in.ChartType
	if chartType == "" {
		// Residual default: trend and distribution queries already carry
		// line or pie from classification.
		chartType = intent.ChartBar
	}
	if !supportedTypes[chartType] {
		return nil, errors.NewValidationError("chart_type", "unsupported chart type", string(chartType))
	}

	xKey := string(in.Granularity)
	if xKey == "" {
		xKey = string(cashflow.GranularityMonth)
	}

	var periods []string
	values := make(map[string]map[string]float64)
	var yKeys YKeys

	for _, rec := range records {
		if _, seen := values[rec.PeriodLabel]; !seen {
			periods = append(periods, rec.PeriodLabel)
			values[rec.PeriodLabel] = make(map[string]float64)
		}

		series := string(rec.Category)
		if !containsKey(yKeys, series) {
			yKeys = append(yKeys, series)
		}
		values[rec.PeriodLabel][series] += rec.Amount.InexactFloat64()
	}

	data := make([]Point, 0, len(periods))
	for _, period := range periods {
		point := Point{xKey: period}
		for _, key := range yKeys {
			point[key] = values[period][key]
		}
		data = append(data, point)
	}

	colors := make([]string, len(yKeys))
	for i := range yKeys {
		colors[i] = defaultPalette[i%len(defaultPalette)]
	}

	return &Spec{
		Type:   chartType,
		Data:   data,
		XKey:   xKey,
		YKeys:  yKeys,
		Title:  buildTitle(in, yKeys, xKey),
		Colors: colors,
	}, nil
}

func buildTitle(in intent.Intent, yKeys YKeys, xKey string) string {
	subject := string(in.Category)
	if subject == "" {
		subject = strings.Join(yKeys, " vs ")
	}
	return fmt.Sprintf("%s by %s", capitalize(subject), capitalize(xKey))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func containsKey(keys YKeys, key string) bool {
	for _, k := range keys {
		if k == key {
			return true
		}
	}
	return false
}
