package agents

import (
	"context"

	"github.com/syedkamrannspark/Cashflow-Backend/internal/domain/cashflow"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/intent"
)

// Agent names as recorded in workflow results.
const (
	NameForecast = "forecast"
	NameInsight  = "insight"
)

// Agent defines the minimal execution contract used by the orchestrator.
// The orchestrator never branches on concrete agent type; it only dispatches
// Run and inspects the returned Result. Agent-level failures are carried in
// the Result, never as an error.
type Agent interface {
	Name() string
	Run(ctx context.Context, in intent.Intent, records []cashflow.AggregatedRecord) Result
}
