package ai

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

const maxStreamLine = 1 << 20

// streamEvent is one SSE data payload of a streamed chat completion
type streamEvent struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason *string `json:"finish_reason"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Stream is a forward-only sequence of content deltas. It must be consumed
// by a single goroutine:
//
//	for s.Next() {
//		fmt.Print(s.Chunk())
//	}
//	if err := s.Err(); err != nil { ... }
//
// Close releases the connection and may be called at any point to stop early.
type Stream struct {
	body         io.ReadCloser
	scanner      *bufio.Scanner
	cancel       context.CancelFunc
	chunk        string
	finishReason string
	err          error
	done         bool
	closed       atomic.Bool
	closeOnce    sync.Once
}

// NewStream reads an OpenAI-style SSE body
func NewStream(body io.ReadCloser) *Stream {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64<<10), maxStreamLine)
	return &Stream{body: body, scanner: scanner}
}

// Next advances to the next non-empty content delta
func (s *Stream) Next() bool {
	if s.done {
		return false
	}

	for s.scanner.Scan() {
		line := strings.TrimSpace(s.scanner.Text())
		if !strings.HasPrefix(line, "data:") {
			// blank separators, comments and event/id fields
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "[DONE]" {
			s.finish(nil)
			return false
		}

		var ev streamEvent
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			s.finish(&UpstreamError{Op: OpStream, Err: fmt.Errorf("malformed stream event: %w", err)})
			return false
		}
		if ev.Error != nil {
			s.finish(&UpstreamError{Op: OpStream, Err: errors.New(ev.Error.Message)})
			return false
		}
		if len(ev.Choices) == 0 {
			continue
		}

		choice := ev.Choices[0]
		if choice.FinishReason != nil {
			s.finishReason = *choice.FinishReason
		}
		if choice.Delta.Content == "" {
			continue
		}
		s.chunk = choice.Delta.Content
		return true
	}

	if err := s.scanner.Err(); err != nil && !s.closed.Load() {
		s.finish(&UpstreamError{Op: OpStream, Err: err})
		return false
	}
	s.finish(nil)
	return false
}

// Chunk returns the delta produced by the last successful Next
func (s *Stream) Chunk() string {
	return s.chunk
}

// FinishReason returns the provider's finish reason once it has been seen
func (s *Stream) FinishReason() string {
	return s.finishReason
}

// Err returns the error that ended the stream, if any
func (s *Stream) Err() error {
	return s.err
}

// Close stops the stream and releases the underlying connection
func (s *Stream) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		if s.cancel != nil {
			s.cancel()
		}
		err = s.body.Close()
	})
	return err
}

func (s *Stream) finish(err error) {
	s.done = true
	s.chunk = ""
	s.err = err
	s.Close()
}

// Collect drains the stream and returns the concatenated content
func Collect(s *Stream) (string, error) {
	defer s.Close()

	var sb strings.Builder
	for s.Next() {
		sb.WriteString(s.Chunk())
	}
	return sb.String(), s.Err()
}

// StreamComplete opens a streamed chat completion. Opening the stream is
// retried like Complete; once content flows, failures end the stream with Err.
// The per-attempt timeout bounds the wait for response headers only.
func (c *OpenAIClient) StreamComplete(ctx context.Context, req CompletionRequest) (*Stream, error) {
	body := c.buildRequest(req, true)
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, &UpstreamError{Op: OpStream, Err: err}
	}

	var stream *Stream
	operation := func() error {
		s, err := c.openStream(ctx, payload)
		if err != nil {
			return c.classify(err)
		}
		stream = s
		return nil
	}

	if err := c.retry(ctx, operation); err != nil {
		upErr := asUpstream(OpStream, err)
		c.logger.Error("❌ Chat completion stream failed",
			zap.String("model", body.Model),
			zap.Int("status", upErr.StatusCode),
			zap.Error(upErr.Err),
		)
		return nil, upErr
	}

	return stream, nil
}

func (c *OpenAIClient) openStream(ctx context.Context, payload []byte) (*Stream, error) {
	streamCtx, cancel := context.WithCancel(ctx)

	var timedOut atomic.Bool
	timer := time.AfterFunc(c.timeout, func() {
		timedOut.Store(true)
		cancel()
	})

	resp, err := c.post(streamCtx, payload, true)
	stopped := timer.Stop()
	if err != nil {
		cancel()
		if timedOut.Load() && ctx.Err() == nil {
			return nil, &UpstreamError{Op: OpStream, Err: fmt.Errorf("%w after %s", ErrUpstreamTimeout, c.timeout)}
		}
		if ctx.Err() != nil {
			return nil, &UpstreamError{Op: OpStream, Err: ctx.Err()}
		}
		return nil, &UpstreamError{Op: OpStream, Err: err}
	}
	if !stopped && timedOut.Load() {
		resp.Body.Close()
		cancel()
		return nil, &UpstreamError{Op: OpStream, Err: fmt.Errorf("%w after %s", ErrUpstreamTimeout, c.timeout)}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		defer resp.Body.Close()
		defer cancel()
		return nil, statusError(OpStream, resp)
	}

	s := NewStream(resp.Body)
	s.cancel = cancel
	return s, nil
}
