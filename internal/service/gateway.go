// Package service provides the business logic of the AI gateway proxy,
// delegating the provider call to an Upstream implementation.
package service

import (
	"cmp"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"mime"
	"regexp"
	"strings"

	"github.com/atinyakov/WardrobeKeeper/internal/models"
)

var (
	// ErrNotConfigured is returned when the proxy has no provider credential.
	ErrNotConfigured = errors.New("gemini api key not configured")
	// ErrInvalidRequest wraps every request validation failure.
	ErrInvalidRequest = errors.New("invalid request")
)

const defaultImageMime = "image/jpeg"

var validModel = regexp.MustCompile(`^[A-Za-z0-9._-]+$`)

// Upstream is the generative-AI provider behind the proxy.
type Upstream interface {
	// GenerateContent sends the prompt and inline images to model and returns
	// the provider's JSON response envelope. Provider rejections are returned
	// as *models.UpstreamError.
	GenerateContent(ctx context.Context, model, prompt string, images []models.InlineImage) ([]byte, error)
	// ValidateKey reports whether the provider accepts the credential.
	ValidateKey(ctx context.Context) (bool, error)
}

// GatewayService validates proxy requests and forwards them upstream.
type GatewayService struct {
	// upstream is nil when no credential is configured.
	upstream     Upstream
	defaultModel string
}

// NewGatewayService constructs a GatewayService. Pass a nil upstream when no
// credential is configured; generation and validation then fail with
// ErrNotConfigured while health keeps answering.
func NewGatewayService(upstream Upstream, defaultModel string) *GatewayService {
	return &GatewayService{
		upstream:     upstream,
		defaultModel: cmp.Or(defaultModel, models.DefaultModel),
	}
}

// Health reports liveness and whether a credential is present.
func (s *GatewayService) Health() models.HealthStatus {
	return models.HealthStatus{Status: "ok", HasAPIKey: s.upstream != nil}
}

// Generate validates req, applies defaults and forwards it upstream.
// Returns the upstream envelope, ErrNotConfigured, an error wrapping
// ErrInvalidRequest, or the upstream failure.
func (s *GatewayService) Generate(ctx context.Context, req models.GenerateRequest) ([]byte, error) {
	if s.upstream == nil {
		return nil, ErrNotConfigured
	}

	model := cmp.Or(req.Model, s.defaultModel)
	if !validModel.MatchString(model) {
		return nil, fmt.Errorf("%w: model %q", ErrInvalidRequest, model)
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("%w: prompt is required", ErrInvalidRequest)
	}

	images := make([]models.InlineImage, 0, len(req.Images))
	for i, img := range req.Images {
		if _, err := base64.StdEncoding.DecodeString(img.Data); err != nil || img.Data == "" {
			return nil, fmt.Errorf("%w: image %d is not valid base64", ErrInvalidRequest, i)
		}
		mimeType := cmp.Or(img.MimeType, defaultImageMime)
		if _, _, err := mime.ParseMediaType(mimeType); err != nil {
			return nil, fmt.Errorf("%w: image %d has invalid mime type", ErrInvalidRequest, i)
		}
		images = append(images, models.InlineImage{Data: img.Data, MimeType: mimeType})
	}

	return s.upstream.GenerateContent(ctx, model, req.Prompt, images)
}

// Validate checks the credential with the provider.
func (s *GatewayService) Validate(ctx context.Context) (bool, error) {
	if s.upstream == nil {
		return false, ErrNotConfigured
	}
	return s.upstream.ValidateKey(ctx)
}
