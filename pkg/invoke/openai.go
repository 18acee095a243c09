package invoke

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/zen-systems/herald/pkg/backend"
)

// OpenAIInvoker sends prompts to OpenAI backends.
type OpenAIInvoker struct {
	client openai.Client
}

// NewOpenAIInvoker creates an invoker for the OpenAI API.
func NewOpenAIInvoker(apiKey string) (*OpenAIInvoker, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("openai API key is required")
	}
	return &OpenAIInvoker{client: openai.NewClient()}, nil
}

// Provider returns the provider key.
func (o *OpenAIInvoker) Provider() string {
	return "openai"
}

// Invoke sends the prompt to the model named by the backend id.
func (o *OpenAIInvoker) Invoke(ctx context.Context, b backend.Backend, prompt string) (*Response, error) {
	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(b.ID),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		MaxCompletionTokens: openai.Int(4096),
	})
	if err != nil {
		return nil, o.wrapError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, &Error{
			Provider:       o.Provider(),
			Classification: Fatal,
			Err:            fmt.Errorf("openai returned no choices"),
		}
	}

	return &Response{
		Text: resp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     int(resp.Usage.PromptTokens),
			CompletionTokens: int(resp.Usage.CompletionTokens),
			TotalTokens:      int(resp.Usage.TotalTokens),
		},
	}, nil
}

func (o *OpenAIInvoker) wrapError(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		return &Error{
			Provider:       o.Provider(),
			Status:         apierr.StatusCode,
			Classification: classifyStatus(apierr.StatusCode),
			Err:            fmt.Errorf("openai API error: %w", err),
		}
	}
	return &Error{Provider: o.Provider(), Err: fmt.Errorf("openai API error: %w", err)}
}
