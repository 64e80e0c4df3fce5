package perception

import (
	"context"
	"sync"
	"time"

	"sanctuary/internal/logging"
)

// CallStats summarises the calls made through a TracingLLMClient.
type CallStats struct {
	Calls      int           `json:"calls"`
	Failures   int           `json:"failures"`
	TotalTime  time.Duration `json:"total_time"`
	LastError  string        `json:"last_error,omitempty"`
	LastCallAt time.Time     `json:"last_call_at,omitempty"`
}

// TracingLLMClient wraps any LLMClient, timing each call and writing it to
// the audit log.
type TracingLLMClient struct {
	underlying LLMClient
	model      string

	mu    sync.Mutex
	stats CallStats
}

// NewTracingLLMClient creates a tracing wrapper around an existing LLM client.
func NewTracingLLMClient(underlying LLMClient, model string) *TracingLLMClient {
	return &TracingLLMClient{underlying: underlying, model: model}
}

// Complete implements LLMClient.
func (tc *TracingLLMClient) Complete(ctx context.Context, prompt string) (string, error) {
	return tc.CompleteWithSystem(ctx, "", prompt)
}

// CompleteWithSystem implements LLMClient.
func (tc *TracingLLMClient) CompleteWithSystem(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	start := time.Now()
	out, err := tc.underlying.CompleteWithSystem(ctx, systemPrompt, userPrompt)
	tc.record(start, out, err)
	return out, err
}

func (tc *TracingLLMClient) record(start time.Time, out string, err error) {
	elapsed := time.Since(start)

	errMsg := ""
	if err != nil {
		errMsg = err.Error()
		logging.Get(logging.CategoryAPI).Error("LLM call to %s failed after %v: %v", tc.model, elapsed, err)
	} else {
		logging.APIDebug("LLM call to %s returned %d chars in %v", tc.model, len(out), elapsed)
	}
	logging.Audit().LLMCall(tc.model, len(out), elapsed.Milliseconds(), err == nil, errMsg)

	tc.mu.Lock()
	tc.stats.Calls++
	tc.stats.TotalTime += elapsed
	tc.stats.LastCallAt = start
	if err != nil {
		tc.stats.Failures++
		tc.stats.LastError = errMsg
	}
	tc.mu.Unlock()
}

// Stats returns a snapshot of the call counters.
func (tc *TracingLLMClient) Stats() CallStats {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	return tc.stats
}

// Model returns the traced model name.
func (tc *TracingLLMClient) Model() string {
	return tc.model
}
