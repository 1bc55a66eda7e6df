package agents

// FailureReason classifies why an agent could not produce a payload.
type FailureReason string

const (
	ReasonInsufficientData  FailureReason = "insufficient_data"
	ReasonUpstreamTimeout   FailureReason = "upstream_timeout"
	ReasonUpstreamError     FailureReason = "upstream_error"
	ReasonMalformedResponse FailureReason = "malformed_response"
)

// Result is the typed outcome of one agent execution. Exactly one of
// Payload (success) or Reason/Err (failure) is populated.
type Result struct {
	Agent   string
	Payload interface{}
	Reason  FailureReason
	Err     error
}

// OK reports whether the agent produced a payload.
func (r Result) OK() bool { return r.Reason == "" }

// Success wraps a payload in a successful result.
func Success(agent string, payload interface{}) Result {
	return Result{Agent: agent, Payload: payload}
}

// Failure records a classified agent failure.
func Failure(agent string, reason FailureReason, err error) Result {
	return Result{Agent: agent, Reason: reason, Err: err}
}

// ForecastPoint is one projected period.
type ForecastPoint struct {
	PeriodLabel string  `json:"period_label"`
	Amount      float64 `json:"amount"`
}

// ForecastPayload is the Forecast Agent's projection over future periods.
type ForecastPayload struct {
	Category string          `json:"category"`
	Points   []ForecastPoint `json:"points"`
	Slope    float64         `json:"slope"`
}

// InsightPayload is the Insight Agent's narrative result.
type InsightPayload struct {
	Narrative string   `json:"narrative"`
	Insights  []string `json:"insights"`
}
