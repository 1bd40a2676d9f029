// Package openaicompat talks to any OpenAI-compatible /chat/completions gateway.
package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"ai-chat-session-be/pkg/llm"
)

type Provider struct {
	name       string
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
}

var _ llm.LLMProvider = (*Provider)(nil)

// Option configures the provider.
type Option func(*Provider)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Provider) { p.httpClient = c }
}

// WithName overrides the provider name used in errors and logs.
func WithName(name string) Option {
	return func(p *Provider) { p.name = name }
}

func New(baseURL, apiKey, model string, opts ...Option) *Provider {
	p := &Provider{
		name:       "openai",
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: http.DefaultClient,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Provider) Name() string { return p.name }

type apiRequest struct {
	Model     string       `json:"model"`
	Messages  []apiMessage `json:"messages"`
	MaxTokens *int         `json:"max_tokens,omitempty"`
}

type apiMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type apiResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int        `json:"index"`
		Message      apiMessage `json:"message"`
		FinishReason string     `json:"finish_reason"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
}

func (p *Provider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (*llm.Completion, error) {
	options := llm.ApplyOptions(opts...)

	model := p.model
	if options.Model != "" {
		model = options.Model
	}

	body := apiRequest{
		Model:    model,
		Messages: make([]apiMessage, len(history)),
	}
	for i, m := range history {
		body.Messages[i] = apiMessage{Role: string(m.Role()), Content: m.Text()}
	}
	if options.MaxTokens > 0 {
		body.MaxTokens = &options.MaxTokens
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)

	httpResp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, &llm.UpstreamError{Provider: p.name, Err: fmt.Errorf("%w: %v", llm.ErrUnavailable, err)}
	}
	defer httpResp.Body.Close()

	if err := llm.MapHTTPError(p.name, httpResp); err != nil {
		return nil, err
	}

	var resp apiResponse
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return nil, &llm.UpstreamError{Provider: p.name, Status: httpResp.StatusCode, Err: fmt.Errorf("%w: %v", llm.ErrMalformed, err)}
	}
	if len(resp.Choices) == 0 {
		return nil, &llm.UpstreamError{Provider: p.name, Status: httpResp.StatusCode, Err: fmt.Errorf("%w: empty choices", llm.ErrMalformed)}
	}

	completion := &llm.Completion{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
	}
	// Missing usage means zero consumption; never estimated.
	if resp.Usage != nil {
		completion.Usage = llm.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		}
	}
	return completion, nil
}
