package invoke

import (
	"context"
	"fmt"
	"sync"

	"github.com/zen-systems/herald/pkg/backend"
)

// MockInvoker returns deterministic responses for local runs and tests.
// Errors can be scripted per backend id and are consumed in order, so a
// backend can fail once and then succeed.
type MockInvoker struct {
	mu              sync.Mutex
	provider        string
	responses       map[string]string
	defaultResponse string
	scripted        map[string][]error
	calls           []string
}

// NewMockInvoker creates a mock invoker for the given provider key.
func NewMockInvoker(provider string) *MockInvoker {
	if provider == "" {
		provider = "mock"
	}
	return &MockInvoker{
		provider:        provider,
		responses:       make(map[string]string),
		defaultResponse: "mock response:",
		scripted:        make(map[string][]error),
	}
}

// Provider returns the provider key.
func (m *MockInvoker) Provider() string {
	return m.provider
}

// SetResponse fixes the response text for a prompt.
func (m *MockInvoker) SetResponse(prompt, text string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = text
}

// FailWith queues errors for a backend id; each Invoke consumes one.
func (m *MockInvoker) FailWith(backendID string, errs ...error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scripted[backendID] = append(m.scripted[backendID], errs...)
}

// Calls returns the backend ids invoked so far, in order.
func (m *MockInvoker) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.calls))
	copy(out, m.calls)
	return out
}

// Invoke returns a deterministic response, honoring the context and any
// scripted errors for the backend.
func (m *MockInvoker) Invoke(ctx context.Context, b backend.Backend, prompt string) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	m.calls = append(m.calls, b.ID)
	if queue := m.scripted[b.ID]; len(queue) > 0 {
		err := queue[0]
		m.scripted[b.ID] = queue[1:]
		m.mu.Unlock()
		return nil, err
	}
	text, ok := m.responses[prompt]
	m.mu.Unlock()

	if !ok {
		text = fmt.Sprintf("%s\n%s", m.defaultResponse, prompt)
	}
	return &Response{Text: text, Usage: Usage{PromptTokens: 1, CompletionTokens: 1, TotalTokens: 2}}, nil
}
