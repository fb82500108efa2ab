// Package gateway is the client side of the AI proxy: it sends prompts with
// inline images, classifies failures and validates structured replies.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/WardrobeKeeper/internal/models"
)

// DefaultBaseURL is where the proxy listens by default.
const DefaultBaseURL = "http://localhost:3001"

// Generator produces text from a prompt and optional images.
type Generator interface {
	Generate(ctx context.Context, prompt string, images []models.InlineImage) (string, error)
}

// Client talks to the AI proxy over HTTP. It never retries; a request lives
// as long as the caller's context.
type Client struct {
	baseURL string
	model   string
	http    *http.Client
	log     *zap.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the transport, e.g. one trusting a private CA.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithModel selects the upstream model. Empty leaves the choice to the proxy.
func WithModel(model string) Option {
	return func(c *Client) { c.model = model }
}

// WithLogger sets the diagnostics logger.
func WithLogger(log *zap.Logger) Option {
	return func(c *Client) { c.log = log }
}

// New returns a client for the proxy at baseURL.
func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		log:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// generateResponse is the part of the upstream envelope the client reads.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// Generate sends prompt and images and returns the first candidate's text.
func (c *Client) Generate(ctx context.Context, prompt string, images []models.InlineImage) (string, error) {
	body, err := json.Marshal(models.GenerateRequest{Model: c.model, Prompt: prompt, Images: images})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/gemini/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &Error{Kind: KindUnknown, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", c.statusError(resp)
	}

	var envelope generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", fmt.Errorf("invalid response: %w", err)
	}
	if len(envelope.Candidates) == 0 || len(envelope.Candidates[0].Content.Parts) == 0 {
		return "", ErrEmptyResponse
	}
	text := envelope.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", ErrEmptyResponse
	}
	return text, nil
}

// CheckAvailability reports whether the proxy is up and holds a credential.
// It does not spend a generation call.
func (c *Client) CheckAvailability(ctx context.Context) bool {
	var status models.HealthStatus
	if err := c.getJSON(ctx, "/api/health", &status); err != nil {
		c.log.Debug("gateway health check failed", zap.Error(err))
		return false
	}
	return status.Status == "ok" && status.HasAPIKey
}

// ValidateKey asks the proxy to verify its credential against the provider.
func (c *Client) ValidateKey(ctx context.Context) (bool, error) {
	var out models.ValidateResponse
	if err := c.getJSON(ctx, "/api/gemini/validate", &out); err != nil {
		return false, err
	}
	return out.Valid, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Kind: KindUnknown, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return c.statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}

// statusError classifies a non-2xx response. The body is logged, not returned.
func (c *Client) statusError(resp *http.Response) error {
	var payload models.ErrorResponse
	data, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(data, &payload)

	gwErr := &Error{Kind: Classify(resp.StatusCode), StatusCode: resp.StatusCode}
	c.log.Warn("gateway request failed",
		zap.Int("status", resp.StatusCode),
		zap.Stringer("kind", gwErr.Kind),
		zap.String("upstream_error", payload.Error))
	return gwErr
}
