package agents

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syedkamrannspark/Cashflow-Backend/internal/adapters/config"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/domain/cashflow"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/intent"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/workflow"
	"github.com/syedkamrannspark/Cashflow-Backend/pkg/errors"
)

// fakeSource serves canned records and counts fetches.
type fakeSource struct {
	records []cashflow.AggregatedRecord
	err     error
	fetches atomic.Int32
}

func (f *fakeSource) FetchAggregated(ctx context.Context, category cashflow.Category, granularity cashflow.Granularity, rng cashflow.Range) ([]cashflow.AggregatedRecord, error) {
	f.fetches.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return f.records, nil
}

// stubAgent returns a fixed result, optionally after blocking on the context.
type stubAgent struct {
	name  string
	res   Result
	block bool
}

func (s *stubAgent) Name() string { return s.name }

func (s *stubAgent) Run(ctx context.Context, in intent.Intent, records []cashflow.AggregatedRecord) Result {
	if s.block {
		<-ctx.Done()
		return Failure(s.name, ReasonUpstreamTimeout, errors.Wrap(errors.ErrTimeout, "stub timed out"))
	}
	return s.res
}

func testConfig() config.OrchestratorConfig {
	return config.OrchestratorConfig{
		ForecastTimeout: 2 * time.Second,
		InsightTimeout:  2 * time.Second,
		WorkflowTimeout: 2 * time.Second,
		InsightRetries:  0,
		RetryBackoff:    time.Millisecond,
		ForecastPeriods: 4,
	}
}

func sampleRecords() []cashflow.AggregatedRecord {
	return []cashflow.AggregatedRecord{
		{PeriodLabel: "Jan", Category: cashflow.CategorySales, Amount: decimal.NewFromInt(100)},
		{PeriodLabel: "Feb", Category: cashflow.CategorySales, Amount: decimal.NewFromInt(200)},
		{PeriodLabel: "Mar", Category: cashflow.CategorySales, Amount: decimal.NewFromInt(300)},
	}
}

func TestHandleQuery_Visualization(t *testing.T) {
	source := &fakeSource{records: sampleRecords()}
	o := NewOrchestrator(source, workflow.NewStore(), NewForecastAgent(4), nil, testConfig())

	resp, err := o.HandleQuery(context.Background(), intent.Query{Text: "show me sales by month"})
	require.NoError(t, err)

	require.NotNil(t, resp.ChartData)
	assert.Equal(t, intent.ChartBar, resp.ChartData.Type)
	assert.Contains(t, resp.Response, "bar chart")
}

func TestHandleQuery_VisualizationFallsBackOnEmptyData(t *testing.T) {
	source := &fakeSource{records: nil}
	o := NewOrchestrator(source, workflow.NewStore(), NewForecastAgent(4), nil, testConfig())

	resp, err := o.HandleQuery(context.Background(), intent.Query{Text: "show me sales"})
	require.NoError(t, err, "empty data is a fallback, not an error")

	assert.Nil(t, resp.ChartData)
	assert.Contains(t, resp.Response, "No chartable data")
}

func TestHandleQuery_SourceErrorPropagates(t *testing.T) {
	source := &fakeSource{err: errors.New("connection refused")}
	o := NewOrchestrator(source, workflow.NewStore(), NewForecastAgent(4), nil, testConfig())

	_, err := o.HandleQuery(context.Background(), intent.Query{Text: "show me sales"})
	assert.Error(t, err)
}

func TestHandleQuery_Forecast(t *testing.T) {
	source := &fakeSource{records: sampleRecords()}
	o := NewOrchestrator(source, workflow.NewStore(), NewForecastAgent(4), nil, testConfig())

	resp, err := o.HandleQuery(context.Background(), intent.Query{Text: "forecast my sales"})
	require.NoError(t, err)

	assert.Contains(t, resp.Response, "projected")
	require.NotNil(t, resp.ChartData)
	assert.Equal(t, intent.ChartLine, resp.ChartData.Type, "forecasts render as line charts")
	assert.Equal(t, []string{"actual", "forecasted"}, []string(resp.ChartData.YKeys))
}

func TestHandleQuery_ForecastInsufficientHistory(t *testing.T) {
	source := &fakeSource{records: sampleRecords()[:1]}
	o := NewOrchestrator(source, workflow.NewStore(), NewForecastAgent(4), nil, testConfig())

	resp, err := o.HandleQuery(context.Background(), intent.Query{Text: "forecast my sales"})
	require.NoError(t, err)

	assert.Nil(t, resp.ChartData)
	assert.Contains(t, resp.Response, "Not enough history")
}

func TestHandleQuery_TextWithoutInsightAgent(t *testing.T) {
	source := &fakeSource{records: sampleRecords()}
	o := NewOrchestrator(source, workflow.NewStore(), NewForecastAgent(4), nil, testConfig())

	resp, err := o.HandleQuery(context.Background(), intent.Query{Text: "how are my finances"})
	require.NoError(t, err)

	assert.Nil(t, resp.ChartData)
	assert.Contains(t, resp.Response, "not configured")
	assert.Equal(t, int32(0), source.fetches.Load(), "no data fetch without an insight agent")
}

func TestHandleQuery_TextInsightFailureFallsBack(t *testing.T) {
	source := &fakeSource{records: sampleRecords()}
	failing := &stubAgent{name: NameInsight, res: Failure(NameInsight, ReasonUpstreamError, errors.New("boom"))}
	o := NewOrchestrator(source, workflow.NewStore(), NewForecastAgent(4), failing, testConfig())

	resp, err := o.HandleQuery(context.Background(), intent.Query{Text: "how are my finances"})
	require.NoError(t, err, "agent failures never surface as transport errors")

	assert.Contains(t, resp.Response, "Unable to generate insights")
}

func waitTerminal(t *testing.T, o *Orchestrator, runID string) *workflow.Run {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		run, err := o.GetStatus(runID)
		require.NoError(t, err)
		if run.Status.Terminal() {
			return run
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("workflow did not reach a terminal status")
	return nil
}

func TestWorkflow_AllAgentsSucceed(t *testing.T) {
	source := &fakeSource{records: sampleRecords()}
	insight := &stubAgent{name: NameInsight, res: Success(NameInsight, &InsightPayload{Narrative: "fine"})}
	o := NewOrchestrator(source, workflow.NewStore(), NewForecastAgent(4), insight, testConfig())

	runID := o.StartWorkflow(intent.Query{Text: "run the full forecast workflow"})
	run := waitTerminal(t, o, runID)

	assert.Equal(t, workflow.StatusCompleted, run.Status)
	require.Len(t, run.AgentResults, 2)
	assert.True(t, run.AgentResults[NameForecast].Success)
	assert.True(t, run.AgentResults[NameInsight].Success)
	require.NotNil(t, run.FinishedAt)
}

func TestWorkflow_PartialOnSingleAgentFailure(t *testing.T) {
	source := &fakeSource{records: sampleRecords()}
	failing := &stubAgent{name: NameInsight, res: Failure(NameInsight, ReasonUpstreamTimeout, errors.Wrap(errors.ErrTimeout, "llm timeout"))}
	o := NewOrchestrator(source, workflow.NewStore(), NewForecastAgent(4), failing, testConfig())

	runID := o.StartWorkflow(intent.Query{Text: "run the forecast workflow"})
	run := waitTerminal(t, o, runID)

	assert.Equal(t, workflow.StatusPartial, run.Status)
	assert.True(t, run.AgentResults[NameForecast].Success)

	insightRes := run.AgentResults[NameInsight]
	assert.False(t, insightRes.Success)
	assert.Equal(t, string(ReasonUpstreamTimeout), insightRes.Reason)
}

func TestWorkflow_FailedWhenSourceErrors(t *testing.T) {
	source := &fakeSource{err: errors.New("db down")}
	o := NewOrchestrator(source, workflow.NewStore(), NewForecastAgent(4), nil, testConfig())

	runID := o.StartWorkflow(intent.Query{Text: "run the workflow"})
	run := waitTerminal(t, o, runID)

	assert.Equal(t, workflow.StatusFailed, run.Status)
	assert.Empty(t, run.AgentResults)
}

func TestWorkflow_DeadlineMarksPendingAgentsTimedOut(t *testing.T) {
	cfg := testConfig()
	cfg.WorkflowTimeout = 50 * time.Millisecond
	cfg.InsightTimeout = time.Minute

	source := &fakeSource{records: sampleRecords()}
	hanging := &stubAgent{name: NameInsight, block: true}
	o := NewOrchestrator(source, workflow.NewStore(), NewForecastAgent(4), hanging, cfg)

	runID := o.StartWorkflow(intent.Query{Text: "run the workflow"})
	run := waitTerminal(t, o, runID)

	assert.Equal(t, workflow.StatusPartial, run.Status)
	insightRes := run.AgentResults[NameInsight]
	assert.False(t, insightRes.Success)
	assert.Equal(t, string(ReasonUpstreamTimeout), insightRes.Reason)
}

func TestWorkflow_TerminalStatusIsStable(t *testing.T) {
	source := &fakeSource{records: sampleRecords()}
	o := NewOrchestrator(source, workflow.NewStore(), NewForecastAgent(4), nil, testConfig())

	runID := o.StartWorkflow(intent.Query{Text: "run the workflow"})
	run := waitTerminal(t, o, runID)

	for i := 0; i < 5; i++ {
		again, err := o.GetStatus(runID)
		require.NoError(t, err)
		assert.Equal(t, run.Status, again.Status)
		assert.Equal(t, run.FinishedAt, again.FinishedAt)
	}
}

func TestWorkflow_ExecutionAgainstFinalizedRunLeavesItTerminal(t *testing.T) {
	source := &fakeSource{records: sampleRecords()}
	store := workflow.NewStore()
	o := NewOrchestrator(source, store, NewForecastAgent(4), nil, testConfig())

	run := store.Create("q")
	require.NoError(t, store.MarkRunning(run.ID))
	require.NoError(t, store.Finalize(run.ID, workflow.StatusFailed))

	// A duplicate execution must neither strand the run nor flip its
	// terminal status.
	o.executeWorkflow(run.ID, intent.Query{Text: "run the workflow"})

	got, err := store.Get(run.ID)
	require.NoError(t, err)
	assert.Equal(t, workflow.StatusFailed, got.Status)
	assert.NotEqual(t, workflow.StatusPending, got.Status)
}

func TestGetStatus_UnknownRun(t *testing.T) {
	o := NewOrchestrator(&fakeSource{}, workflow.NewStore(), NewForecastAgent(4), nil, testConfig())

	_, err := o.GetStatus("missing")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}
