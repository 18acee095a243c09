package invoke

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/zen-systems/herald/pkg/backend"
)

const deepseekBaseURL = "https://api.deepseek.com/v1"

// DeepSeekInvoker sends prompts to DeepSeek backends over the
// OpenAI-compatible HTTP API.
type DeepSeekInvoker struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

type deepseekRequest struct {
	Model     string            `json:"model"`
	Messages  []deepseekMessage `json:"messages"`
	MaxTokens int               `json:"max_tokens,omitempty"`
}

type deepseekMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type deepseekResponse struct {
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    string `json:"code"`
	} `json:"error,omitempty"`
}

// NewDeepSeekInvoker creates an invoker for the DeepSeek API.
func NewDeepSeekInvoker(apiKey string) (*DeepSeekInvoker, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("deepseek API key is required")
	}
	return &DeepSeekInvoker{
		apiKey:     apiKey,
		baseURL:    deepseekBaseURL,
		httpClient: &http.Client{},
	}, nil
}

// Provider returns the provider key.
func (d *DeepSeekInvoker) Provider() string {
	return "deepseek"
}

// Invoke sends the prompt to the model named by the backend id.
func (d *DeepSeekInvoker) Invoke(ctx context.Context, b backend.Backend, prompt string) (*Response, error) {
	reqBody := deepseekRequest{
		Model:     b.ID,
		Messages:  []deepseekMessage{{Role: "user", Content: prompt}},
		MaxTokens: 4096,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", d.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.apiKey)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, &Error{Provider: d.Provider(), Err: fmt.Errorf("deepseek API request failed: %w", err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &Error{Provider: d.Provider(), Err: fmt.Errorf("failed to read response body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{
			Provider:       d.Provider(),
			Status:         resp.StatusCode,
			Classification: classifyStatus(resp.StatusCode),
			Err:            fmt.Errorf("deepseek API returned status %d: %s", resp.StatusCode, string(body)),
		}
	}

	var dsResp deepseekResponse
	if err := json.Unmarshal(body, &dsResp); err != nil {
		return nil, &Error{Provider: d.Provider(), Err: fmt.Errorf("failed to parse response: %w", err)}
	}

	if dsResp.Error != nil {
		return nil, &Error{
			Provider:       d.Provider(),
			Classification: Fatal,
			Err: fmt.Errorf("deepseek API error: %s (type: %s, code: %s)",
				dsResp.Error.Message, dsResp.Error.Type, dsResp.Error.Code),
		}
	}

	if len(dsResp.Choices) == 0 {
		return nil, &Error{
			Provider:       d.Provider(),
			Classification: Fatal,
			Err:            fmt.Errorf("deepseek returned no choices"),
		}
	}

	return &Response{
		Text: dsResp.Choices[0].Message.Content,
		Usage: Usage{
			PromptTokens:     dsResp.Usage.PromptTokens,
			CompletionTokens: dsResp.Usage.CompletionTokens,
			TotalTokens:      dsResp.Usage.TotalTokens,
		},
	}, nil
}
