package invoke

import (
	"context"
	"errors"
	"fmt"

	"github.com/zen-systems/herald/pkg/backend"
	"google.golang.org/genai"
)

// GoogleInvoker sends prompts to Gemini backends.
type GoogleInvoker struct {
	client *genai.Client
}

// NewGoogleInvoker creates an invoker for the Gemini API.
func NewGoogleInvoker(apiKey string) (*GoogleInvoker, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("google API key is required")
	}

	client, err := genai.NewClient(context.Background(), &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create google client: %w", err)
	}
	return &GoogleInvoker{client: client}, nil
}

// Provider returns the provider key.
func (g *GoogleInvoker) Provider() string {
	return "google"
}

// Invoke sends the prompt to the model named by the backend id.
func (g *GoogleInvoker) Invoke(ctx context.Context, b backend.Backend, prompt string) (*Response, error) {
	resp, err := g.client.Models.GenerateContent(ctx, b.ID, genai.Text(prompt), nil)
	if err != nil {
		return nil, g.wrapError(err)
	}

	if resp == nil || len(resp.Candidates) == 0 {
		return nil, &Error{
			Provider:       g.Provider(),
			Classification: Fatal,
			Err:            fmt.Errorf("google returned no candidates"),
		}
	}

	var text string
	if resp.Candidates[0].Content != nil {
		for _, part := range resp.Candidates[0].Content.Parts {
			if part.Text != "" {
				text += part.Text
			}
		}
	}

	out := &Response{Text: text}
	if resp.UsageMetadata != nil {
		out.Usage = Usage{
			PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
		}
	}
	return out, nil
}

func (g *GoogleInvoker) wrapError(err error) error {
	var apierr genai.APIError
	if errors.As(err, &apierr) {
		return &Error{
			Provider:       g.Provider(),
			Status:         apierr.Code,
			Classification: classifyStatus(apierr.Code),
			Err:            fmt.Errorf("google API error: %w", err),
		}
	}
	return &Error{Provider: g.Provider(), Err: fmt.Errorf("google API error: %w", err)}
}
