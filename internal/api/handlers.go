package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/syedkamrannspark/Cashflow-Backend/internal/agents"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/domain/cashflow"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/intent"
	"github.com/syedkamrannspark/Cashflow-Backend/pkg/errors"
	"github.com/syedkamrannspark/Cashflow-Backend/pkg/logger"
)

// Handlers exposes the dashboard and workflow HTTP endpoints.
type Handlers struct {
	orchestrator *agents.Orchestrator
	stats        cashflow.StatsSource
	log          *logger.Logger
}

// NewHandlers creates the endpoint handlers. stats may be nil when no stats
// source is wired; the stats endpoint then returns 503.
func NewHandlers(orchestrator *agents.Orchestrator, stats cashflow.StatsSource, log *logger.Logger) *Handlers {
	return &Handlers{
		orchestrator: orchestrator,
		stats:        stats,
		log:          log,
	}
}

type queryRequest struct {
	Query string `json:"query"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// degradedResponse is a 200-level answer carrying both a renderable text and
// a machine-readable error code. Dashboard clients key on response.
type degradedResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

// HandleQuery processes a natural-language dashboard query synchronously.
// POST /dashboard/query
func (h *Handlers) HandleQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	// Empty queries are not an infrastructure failure. Respond 200 with an
	// error body so dashboard clients can render it inline.
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusOK, degradedResponse{
			Response: "Please enter a question about your cash flow.",
			Error:    "empty_query",
		})
		return
	}

	resp, err := h.orchestrator.HandleQuery(r.Context(), intent.Query{
		Text:        req.Query,
		RequestedAt: time.Now(),
	})
	if err != nil {
		h.log.Errorw("Query handling failed", "query", req.Query, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	writeJSON(w, http.StatusOK, resp)
}

type workflowRunRequest struct {
	Query string `json:"query"`
}

type workflowRunResponse struct {
	RunID  string `json:"run_id"`
	Status string `json:"status"`
}

// HandleWorkflowRun starts an asynchronous multi-agent workflow and returns
// immediately with the run identifier.
// POST /workflows/run
func (h *Handlers) HandleWorkflowRun(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}

	var req workflowRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(w, http.StatusBadRequest, "empty_query")
		return
	}

	runID := h.orchestrator.StartWorkflow(intent.Query{
		Text:        req.Query,
		RequestedAt: time.Now(),
	})

	writeJSON(w, http.StatusAccepted, workflowRunResponse{
		RunID:  runID,
		Status: "accepted",
	})
}

// HandleWorkflowStatus returns the current snapshot of a workflow run.
// GET /workflows/status?run_id=<id>
func (h *Handlers) HandleWorkflowStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}

	runID := r.URL.Query().Get("run_id")
	if runID == "" {
		writeError(w, http.StatusBadRequest, "missing_run_id")
		return
	}

	run, err := h.orchestrator.GetStatus(runID)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			writeError(w, http.StatusNotFound, "run_not_found")
			return
		}
		h.log.Errorw("Workflow status lookup failed", "run_id", runID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	writeJSON(w, http.StatusOK, run)
}

// HandleStats returns the dashboard headline cash position.
// GET /dashboard/stats
func (h *Handlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}
	if h.stats == nil {
		writeError(w, http.StatusServiceUnavailable, "stats_unavailable")
		return
	}

	pos, err := h.stats.FetchCashPosition(r.Context())
	if err != nil {
		h.log.Errorw("Cash position fetch failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	writeJSON(w, http.StatusOK, pos)
}

// HandleInsights returns AI-generated commentary on recent cash flow. It
// routes through the same path as a text query.
// GET /dashboard/insights
func (h *Handlers) HandleInsights(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed")
		return
	}

	resp, err := h.orchestrator.HandleQuery(r.Context(), intent.Query{
		Text:        "summarize my recent cash flow and highlight anything unusual",
		RequestedAt: time.Now(),
	})
	if err != nil {
		h.log.Errorw("Insight generation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"insights": resp.Response})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, errorResponse{Error: code})
}
