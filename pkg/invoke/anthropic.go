package invoke

import (
	"context"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/zen-systems/herald/pkg/backend"
)

// AnthropicInvoker sends prompts to Claude backends.
type AnthropicInvoker struct {
	client anthropic.Client
}

// NewAnthropicInvoker creates an invoker for the Anthropic API.
func NewAnthropicInvoker(apiKey string) (*AnthropicInvoker, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}
	return &AnthropicInvoker{client: anthropic.NewClient()}, nil
}

// Provider returns the provider key.
func (a *AnthropicInvoker) Provider() string {
	return "anthropic"
}

// Invoke sends the prompt to the model named by the backend id.
func (a *AnthropicInvoker) Invoke(ctx context.Context, b backend.Backend, prompt string) (*Response, error) {
	resp, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(b.ID),
		MaxTokens: 4096,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, a.wrapError(err)
	}

	var text string
	for _, block := range resp.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}

	return &Response{
		Text: text,
		Usage: Usage{
			PromptTokens:     int(resp.Usage.InputTokens),
			CompletionTokens: int(resp.Usage.OutputTokens),
			TotalTokens:      int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
		},
	}, nil
}

func (a *AnthropicInvoker) wrapError(err error) error {
	var apierr *anthropic.Error
	if errors.As(err, &apierr) {
		return &Error{
			Provider:       a.Provider(),
			Status:         apierr.StatusCode,
			Classification: classifyStatus(apierr.StatusCode),
			Err:            fmt.Errorf("anthropic API error: %w", err),
		}
	}
	return &Error{Provider: a.Provider(), Err: fmt.Errorf("anthropic API error: %w", err)}
}
