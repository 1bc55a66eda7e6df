package chart

import (
	"encoding/json"

	"github.com/syedkamrannspark/Cashflow-Backend/internal/intent"
)

// Point is a single chart record. Every point carries the x-axis key and all
// y-axis keys of its spec.
type Point map[string]interface{}

// YKeys marshals as a bare string when a single series is plotted and as an
// array otherwise, matching what the chart frontend accepts.
type YKeys []string

func (y YKeys) MarshalJSON() ([]byte, error) {
	if len(y) == 1 {
		return json.Marshal(y[0])
	}
	return json.Marshal([]string(y))
}

func (y *YKeys) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*y = YKeys{single}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*y = YKeys(many)
	return nil
}

// Spec is the normalized, validated payload describing a renderable chart.
type Spec struct {
	Type   intent.ChartType `json:"type"`
	Data   []Point          `json:"data"`
	XKey   string           `json:"xKey"`
	YKeys  YKeys            `json:"yKey"`
	Title  string           `json:"title"`
	Colors []string         `json:"colors"`
}
