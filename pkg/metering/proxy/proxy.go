// Package proxy forwards an admitted transcript to the upstream model and normalizes
// its failures into metering kinds.
package proxy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ai-chat-session-be/internal/pkg/logger"
	"ai-chat-session-be/pkg/llm"
	"ai-chat-session-be/pkg/metering"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// SystemPreamble is prepended to every transcript exactly once.
const SystemPreamble = "You are a helpful AI assistant. Keep your responses clear and concise."

const tracerName = "ai-chat-session-be/pkg/metering/proxy"

type Reply struct {
	Content        string
	TokensConsumed int64
}

type Proxy struct {
	provider llm.LLMProvider
	timeout  time.Duration
	maxReply int
	logger   logger.ILogger
	tracer   trace.Tracer
}

type Option func(*Proxy)

// WithTracerProvider replaces the global tracer provider.
func WithTracerProvider(tp trace.TracerProvider) Option {
	return func(p *Proxy) { p.tracer = tp.Tracer(tracerName) }
}

// WithMaxOutputTokens caps the reply length, which bounds how far a single turn
// can overshoot the budget. n <= 0 leaves the upstream default.
func WithMaxOutputTokens(n int) Option {
	return func(p *Proxy) { p.maxReply = n }
}

func New(provider llm.LLMProvider, timeout time.Duration, logger logger.ILogger, opts ...Option) *Proxy {
	p := &Proxy{
		provider: provider,
		timeout:  timeout,
		logger:   logger,
		tracer:   otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Complete calls the upstream with modelName, which always comes from the session.
// The call is bounded by the configured timeout.
func (p *Proxy) Complete(ctx context.Context, transcript []llm.Message, modelName string) (*Reply, error) {
	ctx, span := p.tracer.Start(ctx, "proxy.Complete", trace.WithAttributes(
		attribute.String("llm.provider", p.provider.Name()),
		attribute.String("llm.model", modelName),
		attribute.Int("llm.transcript_length", len(transcript)),
	))
	defer span.End()

	history := make([]llm.Message, 0, len(transcript)+1)
	history = append(history, llm.SystemMessage{Content: SystemPreamble})
	for _, m := range transcript {
		if _, ok := m.(llm.SystemMessage); ok {
			err := metering.New(metering.InvalidRequest, fmt.Errorf("%w: system", llm.ErrUnsupportedRole))
			span.SetStatus(codes.Error, err.Kind.String())
			return nil, err
		}
		history = append(history, m)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	opts := []llm.Option{llm.WithModel(modelName)}
	if p.maxReply > 0 {
		opts = append(opts, llm.WithMaxTokens(p.maxReply))
	}
	completion, err := p.provider.Chat(ctx, history, opts...)
	elapsed := time.Since(start)
	if err != nil {
		merr := p.mapError(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, merr.Kind.String())
		p.logger.Error("PROXY", "Upstream completion failed", map[string]interface{}{
			"provider":        p.provider.Name(),
			"model":           modelName,
			"kind":            merr.Kind.String(),
			"upstream_status": merr.UpstreamStatus,
			"upstream_body":   upstreamBody(err),
			"duration_ms":     elapsed.Milliseconds(),
			"error":           err.Error(),
		})
		return nil, merr
	}

	consumed := completion.Usage.TotalTokens
	if consumed < 0 {
		consumed = 0
	}
	span.SetAttributes(attribute.Int64("llm.usage.total_tokens", consumed))

	p.logger.Debug("PROXY", "Upstream completion succeeded", map[string]interface{}{
		"model":       modelName,
		"tokens":      consumed,
		"duration_ms": elapsed.Milliseconds(),
	})

	return &Reply{Content: completion.Content, TokensConsumed: consumed}, nil
}

func (p *Proxy) mapError(err error) *metering.Error {
	var merr *metering.Error
	switch {
	case errors.Is(err, llm.ErrRateLimited):
		merr = metering.New(metering.UpstreamRateLimited, err)
	case errors.Is(err, llm.ErrPaymentRequired):
		merr = metering.New(metering.UpstreamPaymentRequired, err)
	default:
		merr = metering.New(metering.UpstreamError, err)
	}
	merr.UpstreamStatus = llm.StatusOf(err)
	return merr
}

func upstreamBody(err error) string {
	var ue *llm.UpstreamError
	if errors.As(err, &ue) {
		return ue.Body
	}
	return ""
}
