package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/ollama/ollama/api"
	openai "github.com/sashabaranov/go-openai"
)

// ModelServiceError reports a chat model call that failed after retries.
type ModelServiceError struct {
	Provider   string
	Model      string
	StatusCode int // 0 when no HTTP status is known
	Err        error
}

func (e *ModelServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s model %s: status %d: %v", e.Provider, e.Model, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s model %s: %v", e.Provider, e.Model, e.Err)
}

func (e *ModelServiceError) Unwrap() error {
	return e.Err
}

// StatusCode extracts the HTTP status carried by a client error, or 0.
func StatusCode(err error) int {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		return statusErr.StatusCode
	}
	var mse *ModelServiceError
	if errors.As(err, &mse) {
		return mse.StatusCode
	}
	return 0
}

// IsTransient reports whether err is worth retrying: rate limiting, server
// errors and transport failures. Other client errors and cancellation are
// final.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	code := StatusCode(err)
	switch {
	case code == 0:
		return true
	case code == http.StatusTooManyRequests:
		return true
	case code >= 500:
		return true
	default:
		return false
	}
}
