package llm

import (
	"context"
)

// Option adjusts a single Chat call.
type Option func(*Options)

type Options struct {
	MaxTokens int    // 0 leaves the upstream default
	Model     string // Override default model
}

func WithMaxTokens(n int) Option {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

func ApplyOptions(opts ...Option) *Options {
	options := &Options{}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// Usage is the provider's own token accounting for one completion.
type Usage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
}

type Completion struct {
	Content string
	Model   string
	Usage   Usage
}

// LLMProvider defines the contract for any LLM backend
type LLMProvider interface {
	Name() string

	// Chat sends a chat history to the model and returns the response
	Chat(ctx context.Context, history []Message, options ...Option) (*Completion, error)
}
