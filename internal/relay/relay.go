// Package relay forwards prompts to a chat completion endpoint and shapes
// the reply, optionally threading the caller's conversation history.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/gaspardpetit/genrelay/core/logx"
	"github.com/gaspardpetit/genrelay/internal/config"
	"github.com/gaspardpetit/genrelay/internal/metrics"
)

const maxResponseBytes = 8 << 20

// Relay is stateless between calls and safe for concurrent use.
type Relay struct {
	cfg    *config.Config
	client *http.Client
}

// Option customises a Relay.
type Option func(*Relay)

// WithHTTPClient replaces the default client built from the config.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Relay) {
		if c != nil {
			r.client = c
		}
	}
}

// New returns a Relay for the upstream described by cfg.
func New(cfg *config.Config, opts ...Option) *Relay {
	r := &Relay{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.RequestTimeout},
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Generate performs one upstream completion. Failures of the upstream call
// are returned as *UpstreamError; invalid input wraps ErrInvalidRequest.
func (r *Relay) Generate(ctx context.Context, req GenerationRequest) (GenerationResult, error) {
	mode := string(r.cfg.Mode)
	log := logx.Component("relay").With().Str("mode", mode).Str("request_id", chiMiddleware.GetReqID(ctx)).Logger()

	maxTokens, temperature, err := r.params(req)
	if err != nil {
		metrics.RecordGenerate(mode, metrics.OutcomeInvalidRequest)
		return GenerationResult{}, err
	}
	msgs := r.messages(req)

	start := time.Now()
	reply, err := r.complete(ctx, completionRequest{Messages: msgs, MaxTokens: maxTokens, Temperature: temperature})
	elapsed := time.Since(start)
	if err != nil {
		metrics.ObserveUpstream(metrics.OutcomeUpstreamError, elapsed)
		metrics.RecordGenerate(mode, metrics.OutcomeUpstreamError)
		log.Warn().Err(err).Dur("duration", elapsed).Int("messages", len(msgs)).Msg("upstream call failed")
		return GenerationResult{}, err
	}
	metrics.ObserveUpstream(metrics.OutcomeSuccess, elapsed)
	metrics.RecordGenerate(mode, metrics.OutcomeSuccess)
	recordUsage(reply.usage)

	res := GenerationResult{GeneratedText: reply.content, Usage: reply.usage}
	if r.cfg.Mode == config.ModeHistory {
		res.History = append(msgs, ConversationTurn{Role: RoleAssistant, Content: reply.content})
	}
	if e := log.Debug(); e.Enabled() {
		e.Str("prompt", req.Prompt).Str("generated_text", reply.content).Msg("completion")
	}
	log.Info().Dur("duration", elapsed).Int("messages", len(msgs)).Int("max_tokens", maxTokens).Msg("completion")
	return res, nil
}

type completion struct {
	content string
	usage   Usage
}

// complete does the JSON round trip and validates the reply shape.
func (r *Relay) complete(ctx context.Context, body completionRequest) (completion, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return completion{}, &UpstreamError{Cause: err}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.cfg.UpstreamURL, bytes.NewReader(payload))
	if err != nil {
		return completion{}, &UpstreamError{Cause: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("api-key", r.cfg.APIKey)

	resp, err := r.client.Do(req)
	if err != nil {
		return completion{}, &UpstreamError{Cause: err}
	}
	defer func() { _ = resp.Body.Close() }()
	metrics.RecordUpstreamStatus(strconv.Itoa(resp.StatusCode))

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return completion{}, &UpstreamError{Cause: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return completion{}, &UpstreamError{StatusCode: resp.StatusCode, Status: statusText(resp), Body: raw}
	}

	var out completionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return completion{}, &UpstreamError{StatusCode: resp.StatusCode, Status: statusText(resp), Body: raw, Cause: err}
	}
	if len(out.Choices) == 0 || out.Choices[0].Message == nil || out.Choices[0].Message.Content == nil {
		return completion{}, &UpstreamError{
			StatusCode: resp.StatusCode,
			Status:     statusText(resp),
			Body:       raw,
			Cause:      errors.New("missing choices[0].message.content"),
		}
	}
	usage := out.Usage
	if usage == nil {
		usage = Usage{}
	}
	return completion{content: *out.Choices[0].Message.Content, usage: usage}, nil
}

func statusText(resp *http.Response) string {
	if resp.Status != "" {
		return resp.Status
	}
	return strconv.Itoa(resp.StatusCode) + " " + http.StatusText(resp.StatusCode)
}

func recordUsage(u Usage) {
	for _, kind := range []string{"prompt", "completion", "total"} {
		if n, ok := u[kind+"_tokens"].(float64); ok {
			metrics.RecordTokens(kind, n)
		}
	}
}
