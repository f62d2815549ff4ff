// Package embedding is a client for OpenAI-compatible embedding endpoints
// (OpenAI, Ollama, llama.cpp server).
package embedding

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/starford/zettel/internal/apperr"
)

// Config holds embedding endpoint settings.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
	Timeout    time.Duration
	Retries    int
}

// Client embeds text through POST {BaseURL}/embeddings.
type Client struct {
	http       *resty.Client
	model      string
	dimensions int
}

type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// New creates a client. Transport errors, 429 and 5xx responses are retried
// up to cfg.Retries times.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	hc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetRetryCount(cfg.Retries).
		SetRetryWaitTime(200 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second).
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})
	if cfg.APIKey != "" {
		hc.SetAuthToken(cfg.APIKey)
	}
	return &Client{http: hc, model: cfg.Model, dimensions: cfg.Dimensions}
}

// Embed returns the embedding of text. Every failure wraps
// apperr.ErrEmbeddingUnavailable.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	var (
		out    embeddingResponse
		apiErr errorResponse
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(embeddingRequest{Model: c.model, Input: []string{text}}).
		SetResult(&out).
		SetError(&apiErr).
		Post("/embeddings")
	if err != nil {
		return nil, fmt.Errorf("embedding: request: %w: %w", apperr.ErrEmbeddingUnavailable, err)
	}
	if resp.IsError() {
		msg := apiErr.Error.Message
		if msg == "" {
			msg = resp.String()
		}
		return nil, fmt.Errorf("embedding: api error (%d): %s: %w", resp.StatusCode(), msg, apperr.ErrEmbeddingUnavailable)
	}
	if len(out.Data) == 0 || len(out.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("embedding: empty response: %w", apperr.ErrEmbeddingUnavailable)
	}
	vec := out.Data[0].Embedding
	if c.dimensions > 0 && len(vec) != c.dimensions {
		return nil, fmt.Errorf("embedding: got %d dimensions, want %d: %w", len(vec), c.dimensions, apperr.ErrEmbeddingUnavailable)
	}
	return vec, nil
}
