// Package invoke sends prompts to execution backends and normalizes
// provider errors into transient/fatal classifications.
package invoke

import (
	"context"

	"github.com/zen-systems/herald/pkg/backend"
)

// Usage captures normalized token usage for one invocation.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response wraps the text produced by a backend and optional usage data.
type Response struct {
	Text  string
	Usage Usage
}

// Invoker sends a prompt to a backend owned by one provider. The backend id
// is the provider-side model identifier.
type Invoker interface {
	// Invoke performs one network round trip. Errors should be *Error
	// values carrying a Classification wherever the provider exposes
	// enough structure to decide.
	Invoke(ctx context.Context, b backend.Backend, prompt string) (*Response, error)

	// Provider returns the provider key this invoker serves.
	Provider() string
}

// Pool dispatches invocations to the invoker registered for a backend's
// provider.
type Pool map[string]Invoker

// Add registers an invoker under its provider key.
func (p Pool) Add(inv Invoker) {
	p[inv.Provider()] = inv
}

// Invoke routes the call to the invoker for b.Provider. An unknown provider
// is a configuration problem, not a capacity problem, so it is fatal.
func (p Pool) Invoke(ctx context.Context, b backend.Backend, prompt string) (*Response, error) {
	inv, ok := p[b.Provider]
	if !ok {
		return nil, &Error{
			Provider:       b.Provider,
			Classification: Fatal,
			Err:            &UnknownProviderError{Provider: b.Provider, BackendID: b.ID},
		}
	}
	return inv.Invoke(ctx, b, prompt)
}
