package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/syedkamrannspark/Cashflow-Backend/internal/adapters/config"
	"github.com/syedkamrannspark/Cashflow-Backend/pkg/errors"
	"github.com/syedkamrannspark/Cashflow-Backend/pkg/logger"
)

const providerNameOpenRouter = "openrouter"

// Ensure OpenRouterProvider implements CompletionProvider
var _ CompletionProvider = (*OpenRouterProvider)(nil)

// OpenRouterProvider talks to an OpenRouter-compatible chat completions
// endpoint over plain HTTP.
type OpenRouterProvider struct {
	apiKey       string
	baseURL      string
	defaultModel string
	client       *http.Client
	rateLimiter  *Limiter
	log          *logger.Logger
}

// NewOpenRouterProvider creates a provider from config. The API key may be
// empty; every call then fails fast with an invalid-input error.
func NewOpenRouterProvider(cfg config.AIConfig) *OpenRouterProvider {
	return &OpenRouterProvider{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimRight(cfg.BaseURL, "/"),
		defaultModel: cfg.Model,
		client:       &http.Client{Timeout: cfg.Timeout},
		rateLimiter:  NewLimiter(providerNameOpenRouter, cfg.RequestsPerMinute),
		log:          logger.Get().With("component", "openrouter"),
	}
}

func (p *OpenRouterProvider) Name() string { return providerNameOpenRouter }

// Configured reports whether an API key is present.
func (p *OpenRouterProvider) Configured() bool { return p.apiKey != "" }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage Usage `json:"usage"`
}

// Complete sends a chat completion request and returns the first choice.
func (p *OpenRouterProvider) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	if p.apiKey == "" {
		return nil, errors.Wrap(errors.ErrInvalidInput, "openrouter API key not configured")
	}

	if err := p.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	model := req.Model
	if model == "" {
		model = p.defaultModel
	}

	var messages []chatMessage
	if req.System != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	body, err := json.Marshal(chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return nil, errors.Wrap(err, "marshal completion request")
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, errors.Wrap(err, "create HTTP request")
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.Wrap(errors.ErrTimeout, "completion call cancelled")
		}
		return nil, errors.Wrapf(errors.ErrUpstream, "send completion request: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrUpstream, "read completion response")
	}

	if resp.StatusCode != http.StatusOK {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
				Code    int    `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(respBody, &errResp); err == nil && errResp.Error.Message != "" {
			return nil, errors.Wrapf(errors.ErrUpstream, "openrouter API error (%d): %s",
				resp.StatusCode, errResp.Error.Message)
		}
		return nil, errors.Wrapf(errors.ErrUpstream, "openrouter API error (%d)", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, errors.Wrap(errors.ErrMalformedResponse, "decode completion response")
	}
	if len(parsed.Choices) == 0 {
		return nil, errors.Wrap(errors.ErrMalformedResponse, "completion response has no choices")
	}

	p.log.Debugw("completion finished",
		"model", parsed.Model,
		"prompt_tokens", parsed.Usage.PromptTokens,
		"completion_tokens", parsed.Usage.CompletionTokens,
	)

	return &CompletionResponse{
		Content: parsed.Choices[0].Message.Content,
		Model:   parsed.Model,
		Usage:   parsed.Usage,
	}, nil
}
