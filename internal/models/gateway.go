package models

import "fmt"

// DefaultModel is used when a generate request does not name a model.
const DefaultModel = "gemini-flash-lite-latest"

// InlineImage is a base64 image attached to a generate request.
type InlineImage struct {
	// Data is standard base64 without a data URI prefix.
	Data string `json:"data"`
	// MimeType defaults to image/jpeg when empty.
	MimeType string `json:"mimeType"`
}

// GenerateRequest is the JSON body of POST /api/gemini/generate.
type GenerateRequest struct {
	Model  string        `json:"model,omitempty"`
	Prompt string        `json:"prompt"`
	Images []InlineImage `json:"images,omitempty"`
}

// HealthStatus is the JSON body of GET /api/health.
type HealthStatus struct {
	Status    string `json:"status"`
	HasAPIKey bool   `json:"hasApiKey"`
}

// ValidateResponse is the JSON body of GET /api/gemini/validate.
type ValidateResponse struct {
	Valid bool   `json:"valid"`
	Error string `json:"error,omitempty"`
}

// ErrorResponse is the JSON error envelope returned by the proxy.
type ErrorResponse struct {
	Error string `json:"error"`
}

// UpstreamError reports a non-2xx answer from the generative AI provider.
// StatusCode is passed through to the proxy's caller.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Message)
}
