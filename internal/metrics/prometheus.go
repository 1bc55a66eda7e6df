package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Query metrics
	QueryRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cashflow_query_requests_total",
			Help: "Total number of dashboard queries handled",
		},
		[]string{"capability", "status"}, // status: success|fallback|error
	)

	QueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cashflow_query_duration_seconds",
			Help:    "Query handling duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		},
		[]string{"capability"},
	)

	// Agent metrics
	AgentCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cashflow_agent_calls_total",
			Help: "Total number of agent invocations",
		},
		[]string{"agent", "status"}, // status: success|failure
	)

	AgentLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "cashflow_agent_latency_seconds",
			Help:    "Agent execution latency in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 45, 90},
		},
		[]string{"agent"},
	)

	// Workflow metrics
	WorkflowRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cashflow_workflow_runs_total",
			Help: "Total number of workflow runs by terminal status",
		},
		[]string{"status"},
	)

	WorkflowsInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cashflow_workflows_in_flight",
			Help: "Number of workflow runs not yet finalized",
		},
	)

	// Data source metrics
	DataSourceQueries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cashflow_datasource_queries_total",
			Help: "Total number of aggregated-record fetches",
		},
		[]string{"category", "status"},
	)

	CacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cashflow_cache_requests_total",
			Help: "Aggregated-record cache lookups",
		},
		[]string{"result"}, // result: hit|miss
	)
)

// RecordQuery records one handled dashboard query
func RecordQuery(capability string, duration time.Duration, status string) {
	QueryRequests.WithLabelValues(capability, status).Inc()
	QueryDuration.WithLabelValues(capability).Observe(duration.Seconds())
}

// RecordAgentCall records an agent invocation
func RecordAgentCall(agent string, latency time.Duration, failed bool) {
	status := "success"
	if failed {
		status = "failure"
	}
	AgentCalls.WithLabelValues(agent, status).Inc()
	AgentLatency.WithLabelValues(agent).Observe(latency.Seconds())
}

// RecordWorkflowRun records a finalized workflow run
func RecordWorkflowRun(status string) {
	WorkflowRuns.WithLabelValues(status).Inc()
}

// Init registers all metrics with the default registry
func Init() {
	prometheus.MustRegister(QueryRequests)
	prometheus.MustRegister(QueryDuration)
	prometheus.MustRegister(AgentCalls)
	prometheus.MustRegister(AgentLatency)
	prometheus.MustRegister(WorkflowRuns)
	prometheus.MustRegister(WorkflowsInFlight)
	prometheus.MustRegister(DataSourceQueries)
	prometheus.MustRegister(CacheHits)
}

// Handler returns the Prometheus metrics HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}
