package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"
)

const sseBody = `data: {"choices":[{"delta":{"role":"assistant"}}]}

data: {"choices":[{"delta":{"content":"Hel"}}]}

: keep-alive

data: {"choices":[{"delta":{"content":"lo"}}]}

data: {"choices":[{"delta":{},"finish_reason":"stop"}]}

data: [DONE]

`

func TestStreamComplete_YieldsChunks(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		var payload chatRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("invalid payload: %v", err)
		}
		if !payload.Stream {
			t.Error("expected stream flag")
		}
		if got := r.Header.Get("Accept"); got != "text/event-stream" {
			t.Errorf("accept = %q", got)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, sseBody)
	}, 0, time.Second)

	stream, err := client.StreamComplete(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}

	var chunks []string
	for stream.Next() {
		chunks = append(chunks, stream.Chunk())
	}
	if err := stream.Err(); err != nil {
		t.Fatalf("stream err: %v", err)
	}
	if strings.Join(chunks, "|") != "Hel|lo" {
		t.Errorf("chunks = %v", chunks)
	}
	if stream.FinishReason() != "stop" {
		t.Errorf("finish reason = %q", stream.FinishReason())
	}
	if stream.Next() {
		t.Error("Next after end should stay false")
	}
}

func TestStreamComplete_InitialFailureIsStreamError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error": {"message": "model not found"}}`)
	}, 2, time.Second)

	_, err := client.StreamComplete(context.Background(), CompletionRequest{Messages: []Message{{Role: RoleUser, Content: "hi"}}})

	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		t.Fatalf("expected UpstreamError, got %v", err)
	}
	if upErr.Op != OpStream {
		t.Errorf("op = %q", upErr.Op)
	}
	if !strings.Contains(err.Error(), "failed to stream completion: provider returned status 400: model not found") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestCollect(t *testing.T) {
	s := NewStream(io.NopCloser(strings.NewReader(sseBody)))
	got, err := Collect(s)
	if err != nil {
		t.Fatalf("collect: %v", err)
	}
	if got != "Hello" {
		t.Errorf("got %q", got)
	}
}

type trackingBody struct {
	io.Reader
	closed bool
}

func (b *trackingBody) Close() error {
	b.closed = true
	return nil
}

func TestStream_CloseStopsEarly(t *testing.T) {
	body := &trackingBody{Reader: strings.NewReader(sseBody)}
	s := NewStream(body)

	if !s.Next() || s.Chunk() != "Hel" {
		t.Fatalf("expected first chunk, got %q", s.Chunk())
	}
	if err := s.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if !body.closed {
		t.Error("body not closed")
	}
	if err := s.Close(); err != nil {
		t.Errorf("second close: %v", err)
	}
}

func TestStream_EndsWithoutDoneMarker(t *testing.T) {
	body := &trackingBody{Reader: strings.NewReader("data: {\"choices\":[{\"delta\":{\"content\":\"only\"}}]}\n\n")}
	got, err := Collect(NewStream(body))
	if err != nil || got != "only" {
		t.Fatalf("got %q, %v", got, err)
	}
	if !body.closed {
		t.Error("body not closed at EOF")
	}
}

func TestStream_MalformedEvent(t *testing.T) {
	s := NewStream(io.NopCloser(strings.NewReader("data: {not json}\n\n")))
	if s.Next() {
		t.Fatal("expected no chunk")
	}
	var upErr *UpstreamError
	if !errors.As(s.Err(), &upErr) || upErr.Op != OpStream {
		t.Fatalf("expected stream error, got %v", s.Err())
	}
}

func TestStream_ProviderErrorEvent(t *testing.T) {
	s := NewStream(io.NopCloser(strings.NewReader(`data: {"choices":[{"delta":{"content":"partial"}}]}

data: {"error":{"message":"overloaded"}}

`)))
	if !s.Next() || s.Chunk() != "partial" {
		t.Fatalf("expected partial chunk")
	}
	if s.Next() {
		t.Fatal("expected stream to end on error event")
	}
	if s.Err() == nil || !strings.Contains(s.Err().Error(), "overloaded") {
		t.Errorf("err = %v", s.Err())
	}
}
