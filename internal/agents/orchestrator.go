package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"github.com/syedkamrannspark/Cashflow-Backend/internal/adapters/config"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/chart"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/domain/cashflow"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/intent"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/metrics"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/workflow"
	"github.com/syedkamrannspark/Cashflow-Backend/pkg/errors"
	"github.com/syedkamrannspark/Cashflow-Backend/pkg/logger"
)

// QueryResponse is the synchronous answer to a dashboard query. ChartData is
// nil whenever a chart could not or should not be built; the textual
// response always carries a best-effort answer.
type QueryResponse struct {
	Response  string      `json:"response"`
	ChartData *chart.Spec `json:"chartData"`
}

// Orchestrator classifies queries, selects agents and assembles responses.
// It owns the workflow lifecycle on the asynchronous path.
type Orchestrator struct {
	source   cashflow.DataSource
	store    *workflow.Store
	forecast Agent
	insight  Agent
	cfg      config.OrchestratorConfig
	log      *logger.Logger
}

// NewOrchestrator wires the orchestrator. The insight agent may be nil when
// no language-model capability is configured; the TEXT path then degrades to
// a fixed message and workflows run with the forecast agent alone.
func NewOrchestrator(
	source cashflow.DataSource,
	store *workflow.Store,
	forecast Agent,
	insight Agent,
	cfg config.OrchestratorConfig,
) *Orchestrator {
	return &Orchestrator{
		source:   source,
		store:    store,
		forecast: forecast,
		insight:  insight,
		cfg:      cfg,
		log:      logger.Get().With("component", "orchestrator"),
	}
}

// HandleQuery answers a query synchronously. Classification failures do not
// exist by construction and chart validation failures are downgraded to a
// textual fallback; only data-source faults propagate as errors.
func (o *Orchestrator) HandleQuery(ctx context.Context, q intent.Query) (*QueryResponse, error) {
	start := time.Now()
	in := intent.Classify(q)

	var (
		resp   *QueryResponse
		status = "success"
		err    error
	)

	switch in.Capability {
	case intent.CapabilityVisualization:
		resp, status, err = o.handleVisualization(ctx, in)
	case intent.CapabilityForecast:
		resp, status, err = o.handleForecast(ctx, in)
	default:
		resp, status, err = o.handleText(ctx, in)
	}

	if err != nil {
		metrics.RecordQuery(string(in.Capability), time.Since(start), "error")
		return nil, err
	}

	metrics.RecordQuery(string(in.Capability), time.Since(start), status)
	return resp, nil
}

func (o *Orchestrator) handleVisualization(ctx context.Context, in intent.Intent) (*QueryResponse, string, error) {
	records, err := o.fetchRecords(ctx, in)
	if err != nil {
		return nil, "", errors.Wrap(err, "fetch records for visualization")
	}

	spec, err := chart.Build(in, records)
	if err != nil {
		var vErr *errors.ValidationError
		if errors.As(err, &vErr) {
			o.log.Warnw("chart build failed, falling back to text", "reason", vErr.Message)
			return &QueryResponse{
				Response: fmt.Sprintf("No chartable data is available for %s right now.", categoryOrDefault(in)),
			}, "fallback", nil
		}
		return nil, "", err
	}

	return &QueryResponse{
		Response:  fmt.Sprintf("Here is the %s chart for %s.", spec.Type, strings.ToLower(spec.Title)),
		ChartData: spec,
	}, "success", nil
}

func (o *Orchestrator) handleForecast(ctx context.Context, in intent.Intent) (*QueryResponse, string, error) {
	records, err := o.fetchRecords(ctx, in)
	if err != nil {
		return nil, "", errors.Wrap(err, "fetch records for forecast")
	}

	agentCtx, cancel := context.WithTimeout(ctx, o.cfg.ForecastTimeout)
	defer cancel()

	res := o.forecast.Run(agentCtx, in, records)
	if !res.OK() {
		return &QueryResponse{
			Response: fmt.Sprintf("Not enough history to project %s; at least two periods are required.",
				categoryOrDefault(in)),
		}, "fallback", nil
	}

	payload := res.Payload.(*ForecastPayload)
	spec, buildErr := o.buildForecastChart(in, records, payload)
	if buildErr != nil {
		spec = nil
	}

	return &QueryResponse{
		Response:  forecastSummary(in, payload),
		ChartData: spec,
	}, "success", nil
}

func (o *Orchestrator) handleText(ctx context.Context, in intent.Intent) (*QueryResponse, string, error) {
	if o.insight == nil {
		return &QueryResponse{
			Response: "The AI assistant is not configured. Ask for a chart or a forecast instead.",
		}, "fallback", nil
	}

	records, err := o.fetchRecords(ctx, in)
	if err != nil {
		return nil, "", errors.Wrap(err, "fetch records for insight")
	}

	agentCtx, cancel := context.WithTimeout(ctx, o.cfg.InsightTimeout)
	defer cancel()

	res := o.insight.Run(agentCtx, in, records)
	if !res.OK() {
		o.log.Warnw("insight agent failed on query path", "reason", res.Reason, "error", res.Err)
		return &QueryResponse{
			Response: "Unable to generate insights at this time. Please try again later.",
		}, "fallback", nil
	}

	payload := res.Payload.(*InsightPayload)
	return &QueryResponse{Response: payload.Narrative}, "success", nil
}

// StartWorkflow creates a run and dispatches all required agents
// asynchronously. The returned id can be polled via GetStatus.
func (o *Orchestrator) StartWorkflow(q intent.Query) string {
	run := o.store.Create(q.Text)

	go o.executeWorkflow(run.ID, q)

	return run.ID
}

// GetStatus returns the current snapshot of a run.
func (o *Orchestrator) GetStatus(id string) (*workflow.Run, error) {
	return o.store.Get(id)
}

type agentDispatch struct {
	agent   Agent
	timeout time.Duration
}

func (o *Orchestrator) workflowAgents() []agentDispatch {
	dispatches := []agentDispatch{
		{agent: o.forecast, timeout: o.cfg.ForecastTimeout},
	}
	if o.insight != nil {
		dispatches = append(dispatches, agentDispatch{agent: o.insight, timeout: o.cfg.InsightTimeout})
	}
	return dispatches
}

// executeWorkflow runs on its own goroutine and is the single writer for its
// run id. Sibling agents are isolated: one failure never aborts the others.
func (o *Orchestrator) executeWorkflow(runID string, q intent.Query) {
	ctx, cancel := context.WithTimeout(context.Background(), o.cfg.WorkflowTimeout)
	defer cancel()

	log := o.log.With("run_id", runID)
	in := intent.Classify(q)

	records, err := o.fetchRecords(ctx, in)
	if err != nil {
		// Fatal precondition: no agent can run without source data.
		log.Errorw("workflow data fetch failed", "error", err)
		o.finalize(runID, workflow.StatusFailed)
		return
	}

	dispatches := o.workflowAgents()

	if err := o.store.MarkRunning(runID); err != nil {
		// Never leave the run stranded in PENDING; the store rejects the
		// finalize itself when the run is already terminal.
		log.Errorw("workflow could not transition to running", "error", err)
		o.finalize(runID, workflow.StatusFailed)
		return
	}

	type namedResult struct {
		name string
		res  Result
	}
	resultCh := make(chan namedResult, len(dispatches))

	for _, d := range dispatches {
		go func(d agentDispatch) {
			agentCtx, cancelAgent := context.WithTimeout(ctx, d.timeout)
			defer cancelAgent()
			resultCh <- namedResult{name: d.agent.Name(), res: d.agent.Run(agentCtx, in, records)}
		}(d)
	}

	pending := make(map[string]bool, len(dispatches))
	for _, d := range dispatches {
		pending[d.agent.Name()] = true
	}

	var succeeded, failed int
	for len(pending) > 0 {
		select {
		case nr := <-resultCh:
			delete(pending, nr.name)
			if nr.res.OK() {
				succeeded++
			} else {
				failed++
				log.Warnw("agent failed", "agent", nr.name, "reason", nr.res.Reason)
			}
			if err := o.store.RecordResult(runID, nr.name, toWorkflowResult(nr.res)); err != nil {
				log.Warnw("agent result not recorded", "agent", nr.name, "error", err)
			}

		case <-ctx.Done():
			// Workflow deadline elapsed: mark every still-pending agent as
			// timed out rather than blocking indefinitely.
			for name := range pending {
				failed++
				timeoutRes := Failure(name, ReasonUpstreamTimeout,
					errors.Wrapf(errors.ErrTimeout, "workflow deadline elapsed waiting for %s", name))
				if err := o.store.RecordResult(runID, name, toWorkflowResult(timeoutRes)); err != nil {
					log.Warnw("timeout result not recorded", "agent", name, "error", err)
				}
			}
			pending = nil
		}
	}

	switch {
	case failed == 0:
		o.finalize(runID, workflow.StatusCompleted)
	case succeeded == 0:
		o.finalize(runID, workflow.StatusFailed)
	default:
		o.finalize(runID, workflow.StatusPartial)
	}
}

func (o *Orchestrator) finalize(runID string, status workflow.Status) {
	if err := o.store.Finalize(runID, status); err != nil {
		o.log.Warnw("workflow finalize rejected", "run_id", runID, "status", status, "error", err)
	}
}

func (o *Orchestrator) fetchRecords(ctx context.Context, in intent.Intent) ([]cashflow.AggregatedRecord, error) {
	category := in.Category
	if category == "" {
		category = cashflow.CategoryRevenue
	}
	return o.source.FetchAggregated(ctx, category, in.Granularity, cashflow.Range{})
}

// buildForecastChart plots history and projection as two line series.
func (o *Orchestrator) buildForecastChart(in intent.Intent, records []cashflow.AggregatedRecord, payload *ForecastPayload) (*chart.Spec, error) {
	combined := make([]cashflow.AggregatedRecord, 0, len(records)+len(payload.Points))
	for _, rec := range records {
		combined = append(combined, cashflow.AggregatedRecord{
			PeriodLabel: rec.PeriodLabel,
			Category:    "actual",
			Amount:      rec.Amount,
		})
	}
	for _, pt := range payload.Points {
		combined = append(combined, cashflow.AggregatedRecord{
			PeriodLabel: pt.PeriodLabel,
			Category:    "forecasted",
			Amount:      decimal.NewFromFloat(pt.Amount),
		})
	}

	lineIntent := in
	lineIntent.ChartType = intent.ChartLine
	return chart.Build(lineIntent, combined)
}

func forecastSummary(in intent.Intent, payload *ForecastPayload) string {
	direction := "hold steady"
	if payload.Slope > 0 {
		direction = "trend upward"
	} else if payload.Slope < 0 {
		direction = "trend downward"
	}

	last := payload.Points[len(payload.Points)-1]
	subject := categoryOrDefault(in)
	subject = strings.ToUpper(subject[:1]) + subject[1:]
	return fmt.Sprintf("%s is projected to %s, reaching $%s by %s.",
		subject, direction,
		humanize.CommafWithDigits(last.Amount, 2), last.PeriodLabel)
}

func toWorkflowResult(r Result) workflow.AgentResult {
	out := workflow.AgentResult{
		Success: r.OK(),
		Reason:  string(r.Reason),
		Payload: r.Payload,
	}
	if r.Err != nil {
		out.Error = r.Err.Error()
	}
	return out
}

func categoryOrDefault(in intent.Intent) string {
	if in.Category != "" {
		return string(in.Category)
	}
	return string(cashflow.CategoryRevenue)
}
