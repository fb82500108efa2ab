// Package gemini implements the proxy's upstream on top of the Google GenAI SDK.
package gemini

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/atinyakov/WardrobeKeeper/internal/models"
)

// Upstream sends generate and list-models calls to the Gemini API.
type Upstream struct {
	client *genai.Client
	log    *zap.Logger
}

// Option configures an Upstream.
type Option func(*genai.ClientConfig)

// WithBaseURL points the SDK at a different API root, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(cc *genai.ClientConfig) { cc.HTTPOptions.BaseURL = u }
}

// WithHTTPClient replaces the SDK's HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(cc *genai.ClientConfig) { cc.HTTPClient = c }
}

// New builds an Upstream for apiKey. An empty key is rejected; callers that
// run without a credential should not construct an Upstream at all.
func New(ctx context.Context, apiKey string, log *zap.Logger, opts ...Option) (*Upstream, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if log == nil {
		log = zap.NewNop()
	}

	cc := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cc)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Upstream{client: client, log: log}, nil
}

// GenerateContent sends a single user turn made of the prompt followed by the
// images, and returns the response envelope as JSON. API rejections come back
// as *models.UpstreamError carrying the provider's status code.
func (u *Upstream) GenerateContent(ctx context.Context, model, prompt string, images []models.InlineImage) ([]byte, error) {
	parts := make([]*genai.Part, 0, len(images)+1)
	parts = append(parts, genai.NewPartFromText(prompt))
	for i, img := range images {
		data, err := base64.StdEncoding.DecodeString(img.Data)
		if err != nil {
			return nil, fmt.Errorf("decode image %d: %w", i, err)
		}
		parts = append(parts, genai.NewPartFromBytes(data, img.MimeType))
	}

	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
	resp, err := u.client.Models.GenerateContent(ctx, model, contents, nil)
	if err != nil {
		return nil, u.upstreamError("generate content", err)
	}

	// upstream transport headers stay on this side of the proxy
	resp.SDKHTTPResponse = nil
	out, err := json.Marshal(resp)
	if err != nil {
		return nil, fmt.Errorf("encode response: %w", err)
	}
	return out, nil
}

// ValidateKey lists models with the configured key. A rejection by the API
// means the key is invalid and is not an error; transport failures are.
func (u *Upstream) ValidateKey(ctx context.Context) (bool, error) {
	_, err := u.client.Models.List(ctx, &genai.ListModelsConfig{PageSize: 1})
	if err == nil {
		return true, nil
	}
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		u.log.Info("gemini rejected api key", zap.Int("status", apiErr.Code))
		return false, nil
	}
	return false, fmt.Errorf("list models: %w", err)
}

func (u *Upstream) upstreamError(op string, err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %w", op, err)
	}
	u.log.Error("gemini api error",
		zap.String("op", op),
		zap.Int("status", apiErr.Code),
		zap.String("message", apiErr.Message))

	status := apiErr.Code
	if status < 400 || status > 599 {
		status = http.StatusBadGateway
	}
	msg := apiErr.Message
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &models.UpstreamError{StatusCode: status, Message: msg}
}
