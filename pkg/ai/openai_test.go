package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	backoff "github.com/cenkalti/backoff/v4"

	"github.com/johnquangdev/complexchaos/pkg/config"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, maxRetries int, timeout time.Duration) *OpenAIClient {
	t.Helper()

	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	client, err := NewOpenAIClient(&config.LLMConfig{
		APIKey:     "sk-test",
		OrgID:      "org-test",
		BaseURL:    ts.URL,
		Timeout:    timeout,
		MaxRetries: maxRetries,
	}, nil)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return client
}

func TestComplete_Success(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST got %s", r.Method)
		}
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization = %q", got)
		}
		if got := r.Header.Get("OpenAI-Organization"); got != "org-test" {
			t.Errorf("organization = %q", got)
		}

		var payload chatRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		if payload.Model != DefaultModel {
			t.Errorf("model = %q", payload.Model)
		}
		if payload.Temperature != DefaultTemperature {
			t.Errorf("temperature = %v", payload.Temperature)
		}
		if payload.MaxTokens != DefaultMaxTokens {
			t.Errorf("max_tokens = %d", payload.MaxTokens)
		}
		if payload.Stream {
			t.Error("stream flag set on non-streaming call")
		}
		if len(payload.Messages) != 2 || payload.Messages[0].Role != RoleSystem {
			t.Errorf("messages = %+v", payload.Messages)
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{
			"model": "gpt-4-turbo-preview",
			"choices": [{"message": {"role": "assistant", "content": "Common ground found."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 120, "completion_tokens": 30, "total_tokens": 150}
		}`)
	}, 0, time.Second)

	got, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []Message{
			{Role: RoleSystem, Content: "You are a mediator."},
			{Role: RoleUser, Content: "Summarize."},
		},
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got.Content != "Common ground found." {
		t.Errorf("content = %q", got.Content)
	}
	if got.Role != RoleAssistant || got.FinishReason != "stop" {
		t.Errorf("role/finish = %q/%q", got.Role, got.FinishReason)
	}
	if got.Usage.TotalTokens != 150 || got.Usage.PromptTokens != 120 || got.Usage.CompletionTokens != 30 {
		t.Errorf("usage = %+v", got.Usage)
	}
}

func TestComplete_ExplicitParameters(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var payload chatRequest
		json.NewDecoder(r.Body).Decode(&payload)
		if payload.Model != "gpt-4o" || payload.Temperature != 0 || payload.MaxTokens != 50 {
			t.Errorf("payload = %+v", payload)
		}
		fmt.Fprint(w, `{"choices": [{"message": {"content": "ok"}}]}`)
	}, 0, time.Second)

	got, err := client.Complete(context.Background(), CompletionRequest{
		Messages:    []Message{{Role: RoleUser, Content: "hi"}},
		Model:       "gpt-4o",
		Temperature: Temperature(0),
		MaxTokens:   50,
	})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got.Role != RoleAssistant {
		t.Errorf("missing role should default to assistant, got %q", got.Role)
	}
	if got.Usage != (Usage{}) {
		t.Errorf("missing usage should be zero, got %+v", got.Usage)
	}
	if got.Model != "gpt-4o" {
		t.Errorf("model = %q", got.Model)
	}
}

func TestComplete_ClientErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error": {"message": "Incorrect API key provided", "type": "invalid_request_error"}}`)
	}, 3, time.Second)

	_, err := client.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})

	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upErr.Op != OpCompletion || upErr.StatusCode != http.StatusUnauthorized {
		t.Errorf("op/status = %s/%d", upErr.Op, upErr.StatusCode)
	}
	if !strings.Contains(err.Error(), "failed to generate completion") || !strings.Contains(err.Error(), "Incorrect API key provided") {
		t.Errorf("message = %q", err.Error())
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

func TestComplete_ServerErrorIsRetried(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"choices": [{"message": {"role": "assistant", "content": "recovered"}}]}`)
	}, 3, time.Second)

	got, err := client.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if got.Content != "recovered" {
		t.Errorf("content = %q", got.Content)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 3", calls.Load())
	}
}

func TestComplete_RetryBudgetIsBounded(t *testing.T) {
	var calls atomic.Int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}, 2, time.Second)

	_, err := client.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})

	var upErr *UpstreamError
	if !errors.As(err, &upErr) || upErr.StatusCode != http.StatusBadGateway {
		t.Fatalf("expected 502 UpstreamError, got %v", err)
	}
	if calls.Load() != 3 {
		t.Errorf("calls = %d, want 1 attempt + 2 retries", calls.Load())
	}
}

func TestComplete_TimeoutSurfacesAsUpstreamTimeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}, 0, 20*time.Millisecond)

	_, err := client.Complete(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if !IsTimeout(err) {
		t.Fatalf("expected timeout, got %v", err)
	}
	var upErr *UpstreamError
	if !errors.As(err, &upErr) || !upErr.Retryable() {
		t.Errorf("timeout should be a retryable UpstreamError: %v", err)
	}
}

func TestUpstreamError_Retryable(t *testing.T) {
	tests := []struct {
		status int
		want   bool
	}{
		{http.StatusBadRequest, false},
		{http.StatusUnauthorized, false},
		{http.StatusNotFound, false},
		{http.StatusRequestTimeout, true},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusServiceUnavailable, true},
		{0, true},
	}
	for _, tt := range tests {
		e := &UpstreamError{Op: OpCompletion, StatusCode: tt.status, Err: errors.New("x")}
		if got := e.Retryable(); got != tt.want {
			t.Errorf("status %d: retryable = %v, want %v", tt.status, got, tt.want)
		}
	}
}
