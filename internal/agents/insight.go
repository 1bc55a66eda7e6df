package agents

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/syedkamrannspark/Cashflow-Backend/internal/adapters/ai"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/domain/cashflow"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/intent"
	"github.com/syedkamrannspark/Cashflow-Backend/internal/metrics"
	"github.com/syedkamrannspark/Cashflow-Backend/pkg/errors"
	"github.com/syedkamrannspark/Cashflow-Backend/pkg/logger"
)

const insightSystemPrompt = "You are a financial analyst assistant. Analyze the provided cashflow data " +
	"and give 3 bullet points of insights and recommendations. Base every statement strictly on the data."

// InsightAgent delegates to the language-model capability with a constructed
// prompt and parses the returned content into a narrative shape. Upstream
// failures are retried once with backoff before being recorded as terminal.
type InsightAgent struct {
	provider ai.CompletionProvider
	retries  int
	backoff  time.Duration
	log      *logger.Logger
}

// NewInsightAgent creates an insight agent over the given provider.
func NewInsightAgent(provider ai.CompletionProvider, retries int, backoff time.Duration) *InsightAgent {
	if retries < 0 {
		retries = 0
	}
	return &InsightAgent{
		provider: provider,
		retries:  retries,
		backoff:  backoff,
		log:      logger.Get().With("agent", NameInsight),
	}
}

func (a *InsightAgent) Name() string { return NameInsight }

// Run builds a prompt from the records and asks the model for insights.
func (a *InsightAgent) Run(ctx context.Context, in intent.Intent, records []cashflow.AggregatedRecord) Result {
	start := time.Now()
	res := a.runWithRetry(ctx, buildInsightPrompt(in, records))
	metrics.RecordAgentCall(NameInsight, time.Since(start), !res.OK())
	return res
}

func (a *InsightAgent) runWithRetry(ctx context.Context, prompt string) Result {
	var last Result

	for attempt := 0; attempt <= a.retries; attempt++ {
		if attempt > 0 {
			a.log.Warnw("retrying insight call", "attempt", attempt, "reason", last.Reason)
			select {
			case <-ctx.Done():
				return Failure(NameInsight, ReasonUpstreamTimeout,
					errors.Wrap(errors.ErrTimeout, "insight retry cancelled"))
			case <-time.After(a.backoff):
			}
		}

		resp, err := a.provider.Complete(ctx, ai.CompletionRequest{
			System:      insightSystemPrompt,
			Prompt:      prompt,
			Temperature: 0.7,
		})
		if err != nil {
			last = Failure(NameInsight, classifyUpstreamError(err), err)
			continue
		}

		payload, err := parseNarrative(resp.Content)
		if err != nil {
			last = Failure(NameInsight, ReasonMalformedResponse, err)
			continue
		}
		return Success(NameInsight, payload)
	}

	return last
}

func classifyUpstreamError(err error) FailureReason {
	switch {
	case errors.Is(err, errors.ErrTimeout) || errors.Is(err, context.DeadlineExceeded):
		return ReasonUpstreamTimeout
	case errors.Is(err, errors.ErrMalformedResponse):
		return ReasonMalformedResponse
	default:
		return ReasonUpstreamError
	}
}

// buildInsightPrompt renders records into a compact textual table.
func buildInsightPrompt(in intent.Intent, records []cashflow.AggregatedRecord) string {
	var b strings.Builder

	b.WriteString("Here is the summary of the current financial situation")
	if in.Category != "" {
		fmt.Fprintf(&b, " for %s", in.Category)
	}
	b.WriteString(":\n")

	for _, rec := range records {
		fmt.Fprintf(&b, "- %s %s: $%s\n",
			rec.PeriodLabel, rec.Category, humanize.CommafWithDigits(rec.Amount.InexactFloat64(), 2))
	}
	if len(records) == 0 {
		b.WriteString("(no aggregated records available)\n")
	}

	b.WriteString("\nProvide key trends, potential risks, and a simple outlook for the next period.")
	return b.String()
}

// parseNarrative extracts the bullet list from the model output. Content
// with no usable text is malformed.
func parseNarrative(content string) (*InsightPayload, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, errors.Wrap(errors.ErrMalformedResponse, "empty completion content")
	}

	var insights []string
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if rest, ok := stripBullet(line); ok && rest != "" {
			insights = append(insights, rest)
		}
	}

	return &InsightPayload{
		Narrative: trimmed,
		Insights:  insights,
	}, nil
}

func stripBullet(line string) (string, bool) {
	for _, prefix := range []string{"- ", "* ", "• "} {
		if strings.HasPrefix(line, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(line, prefix)), true
		}
	}
	// Numbered bullets: "1. ..." or "2) ..."
	if len(line) > 2 && line[0] >= '1' && line[0] <= '9' && (line[1] == '.' || line[1] == ')') {
		return strings.TrimSpace(line[2:]), true
	}
	return "", false
}
