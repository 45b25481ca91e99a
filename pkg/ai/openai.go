package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	backoff "github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/johnquangdev/complexchaos/pkg/config"
)

const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "gpt-4-turbo-preview"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000

	defaultTimeout = 60 * time.Second
)

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one chat turn
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest describes a chat completion. Zero values select the
// client defaults; Temperature is a pointer so that 0 stays expressible.
type CompletionRequest struct {
	Messages    []Message
	Model       string
	Temperature *float64
	MaxTokens   int
}

// Temperature returns a pointer for CompletionRequest.Temperature
func Temperature(v float64) *float64 {
	return &v
}

// Usage is the token accounting reported by the provider
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Completion is a finished, non-streamed response
type Completion struct {
	Content      string
	Role         string
	FinishReason string
	Model        string
	Usage        Usage
}

// chatRequest is the wire shape for chat completion requests
type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream,omitempty"`
}

// chatResponse is the wire shape of a non-streamed response
type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage *Usage `json:"usage"`
}

// OpenAIClient talks to an OpenAI-compatible chat completions endpoint.
// Its configuration is fixed at construction.
type OpenAIClient struct {
	apiKey     string
	orgID      string
	baseURL    string
	model      string
	timeout    time.Duration
	maxRetries int
	pricing    *PricingTable
	client     *http.Client
	logger     *zap.Logger
	newBackOff func() backoff.BackOff
}

// NewOpenAIClient creates a client from the LLM configuration. The API key
// is passed through as-is; an empty key surfaces as a provider error.
func NewOpenAIClient(cfg *config.LLMConfig, logger *zap.Logger) (*OpenAIClient, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &OpenAIClient{
		baseURL:    DefaultBaseURL,
		model:      DefaultModel,
		timeout:    defaultTimeout,
		maxRetries: 3,
		pricing:    DefaultPricing(),
		client:     &http.Client{},
		logger:     logger,
		newBackOff: defaultBackOff,
	}

	if cfg != nil {
		c.apiKey = cfg.APIKey
		c.orgID = cfg.OrgID
		if cfg.BaseURL != "" {
			c.baseURL = strings.TrimRight(cfg.BaseURL, "/")
		}
		if cfg.Model != "" {
			c.model = cfg.Model
		}
		if cfg.Timeout > 0 {
			c.timeout = cfg.Timeout
		}
		if cfg.MaxRetries >= 0 {
			c.maxRetries = cfg.MaxRetries
		}
		if cfg.PricingFile != "" {
			table, err := LoadPricing(cfg.PricingFile)
			if err != nil {
				return nil, err
			}
			c.pricing = table
		}
	}

	return c, nil
}

func defaultBackOff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 8 * time.Second
	bo.MaxElapsedTime = 2 * time.Minute
	return bo
}

// Model returns the default model id used when a request leaves it empty
func (c *OpenAIClient) Model() string {
	return c.model
}

// EstimateCost prices a call with the client's rate table
func (c *OpenAIClient) EstimateCost(inputTokens, outputTokens int, model string) float64 {
	return c.pricing.Estimate(inputTokens, outputTokens, model)
}

// Complete sends a non-streaming chat completion, retrying transient failures
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (*Completion, error) {
	body := c.buildRequest(req, false)
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &UpstreamError{Op: OpCompletion, Err: err}
	}

	var result *Completion
	attempt := 0
	operation := func() error {
		attempt++
		completion, err := c.completeOnce(ctx, payload, body.Model)
		if err != nil {
			return c.classify(err)
		}
		result = completion
		return nil
	}

	if err := c.retry(ctx, operation); err != nil {
		upErr := asUpstream(OpCompletion, err)
		c.logger.Error("❌ Chat completion failed",
			zap.String("model", body.Model),
			zap.Int("attempts", attempt),
			zap.Int("status", upErr.StatusCode),
			zap.Error(upErr.Err),
		)
		return nil, upErr
	}

	return result, nil
}

func (c *OpenAIClient) completeOnce(ctx context.Context, payload []byte, model string) (*Completion, error) {
	attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.post(attemptCtx, payload, false)
	if err != nil {
		return nil, c.transportError(OpCompletion, ctx, attemptCtx, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, statusError(OpCompletion, resp)
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		if attemptCtx.Err() != nil {
			return nil, c.transportError(OpCompletion, ctx, attemptCtx, err)
		}
		return nil, &UpstreamError{Op: OpCompletion, StatusCode: resp.StatusCode, Err: fmt.Errorf("invalid response body: %w", err)}
	}

	completion := &Completion{
		Role:  RoleAssistant,
		Model: model,
	}
	if cr.Model != "" {
		completion.Model = cr.Model
	}
	if len(cr.Choices) > 0 {
		choice := cr.Choices[0]
		completion.Content = choice.Message.Content
		completion.FinishReason = choice.FinishReason
		if choice.Message.Role != "" {
			completion.Role = choice.Message.Role
		}
	}
	if cr.Usage != nil {
		completion.Usage = *cr.Usage
	}
	return completion, nil
}

func (c *OpenAIClient) buildRequest(req CompletionRequest, stream bool) chatRequest {
	body := chatRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: DefaultTemperature,
		MaxTokens:   req.MaxTokens,
		Stream:      stream,
	}
	if body.Model == "" {
		body.Model = c.model
	}
	if req.Temperature != nil {
		body.Temperature = *req.Temperature
	}
	if body.MaxTokens <= 0 {
		body.MaxTokens = DefaultMaxTokens
	}
	return body
}

func (c *OpenAIClient) post(ctx context.Context, payload []byte, stream bool) (*http.Response, error) {
	endpoint := c.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.orgID != "" {
		req.Header.Set("OpenAI-Organization", c.orgID)
	}
	if stream {
		req.Header.Set("Accept", "text/event-stream")
	}
	return c.client.Do(req)
}

// retry runs operation under the bounded exponential backoff policy
func (c *OpenAIClient) retry(ctx context.Context, operation backoff.Operation) error {
	bo := backoff.WithMaxRetries(c.newBackOff(), uint64(c.maxRetries))
	return backoff.Retry(operation, backoff.WithContext(bo, ctx))
}

// classify marks non-retryable failures as permanent for backoff
func (c *OpenAIClient) classify(err error) error {
	var upErr *UpstreamError
	if errors.As(err, &upErr) && !upErr.Retryable() {
		return backoff.Permanent(err)
	}
	c.logger.Warn("⚠️ Retrying chat completion", zap.Error(err))
	return err
}

// transportError converts a failed round trip into an UpstreamError,
// distinguishing caller cancellation from the per-attempt timeout.
func (c *OpenAIClient) transportError(op string, parent, attempt context.Context, err error) error {
	if parent.Err() != nil {
		return &UpstreamError{Op: op, Err: parent.Err()}
	}
	if errors.Is(attempt.Err(), context.DeadlineExceeded) {
		return &UpstreamError{Op: op, Err: fmt.Errorf("%w after %s", ErrUpstreamTimeout, c.timeout)}
	}
	return &UpstreamError{Op: op, Err: err}
}

func statusError(op string, resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	msg := strings.TrimSpace(string(raw))

	var pe providerError
	if err := json.Unmarshal(raw, &pe); err == nil && pe.Error != nil && pe.Error.Message != "" {
		msg = pe.Error.Message
	}
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}

	return &UpstreamError{
		Op:         op,
		StatusCode: resp.StatusCode,
		Err:        fmt.Errorf("provider returned status %d: %s", resp.StatusCode, msg),
	}
}

func asUpstream(op string, err error) *UpstreamError {
	var upErr *UpstreamError
	if errors.As(err, &upErr) {
		return upErr
	}
	return &UpstreamError{Op: op, Err: err}
}
