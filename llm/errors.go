// Error classification for LLM provider failures.
//
// Every failure surfaced by this package is a *Error carrying a Kind from the
// taxonomy below. The retry layer consults Kind.Retryable to decide whether
// an attempt may be repeated; callers use errors.As / KindOf to translate a
// failure into a user-facing condition.

package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/url"
	"strings"
	"syscall"

	"github.com/anthropics/anthropic-sdk-go"
	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// Kind classifies a provider failure.
type Kind int

const (
	// KindUnknown is an unclassified failure. Not retried.
	KindUnknown Kind = iota
	// KindAuth is an authentication failure (bad vendor credentials). Fatal.
	KindAuth
	// KindMalformedRequest indicates a caller bug (HTTP 400). Fatal.
	KindMalformedRequest
	// KindModelNotFound is a 404 naming an unknown or unavailable model. Fatal.
	KindModelNotFound
	// KindRateLimited is HTTP 429. Retried, then surfaced as "try later".
	KindRateLimited
	// KindServer is a vendor-side 5xx. Retried, then "service unavailable".
	KindServer
	// KindNetwork is a network-level timeout or reset. Retried, then
	// "connectivity issue".
	KindNetwork
)

// String returns a short label for the kind.
func (k Kind) String() string {
	switch k {
	case KindAuth:
		return "auth"
	case KindMalformedRequest:
		return "malformed_request"
	case KindModelNotFound:
		return "model_not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindServer:
		return "server"
	case KindNetwork:
		return "network"
	default:
		return "unknown"
	}
}

// Retryable reports whether failures of this kind may be retried.
func (k Kind) Retryable() bool {
	return k == KindRateLimited || k == KindServer || k == KindNetwork
}

// Error is a classified provider failure. It wraps the last underlying error.
type Error struct {
	Kind     Kind
	Provider string
	// Status is the HTTP status code when known, zero otherwise.
	Status int
	Err    error
}

// Error returns the formatted error message.
func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Provider, e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Provider, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the Kind from an error chain. Returns KindUnknown for
// errors that did not pass through Classify.
func KindOf(err error) Kind {
	var perr *Error
	if errors.As(err, &perr) {
		return perr.Kind
	}
	return KindUnknown
}

// Classify maps a vendor, SDK, or transport error into the failure taxonomy.
// Idempotent: an already classified error is returned unchanged.
func Classify(provider string, err error) error {
	if err == nil {
		return nil
	}
	var perr *Error
	if errors.As(err, &perr) {
		return perr
	}

	if status, ok := statusCode(err); ok {
		return &Error{
			Kind:     classifyStatus(status, err.Error()),
			Provider: provider,
			Status:   status,
			Err:      err,
		}
	}

	if isNetworkError(err) {
		return &Error{Kind: KindNetwork, Provider: provider, Err: err}
	}

	return &Error{Kind: KindUnknown, Provider: provider, Err: err}
}

// statusCode digs an HTTP status code out of the SDK error types used by the
// registered providers.
func statusCode(err error) (int, bool) {
	var oaiAPIErr *openai.APIError
	if errors.As(err, &oaiAPIErr) {
		return oaiAPIErr.HTTPStatusCode, true
	}
	var oaiReqErr *openai.RequestError
	if errors.As(err, &oaiReqErr) {
		return oaiReqErr.HTTPStatusCode, true
	}
	var antErr *anthropic.Error
	if errors.As(err, &antErr) {
		return antErr.StatusCode, true
	}
	var genErr genai.APIError
	if errors.As(err, &genErr) {
		return genErr.Code, true
	}
	var httpErr *httpStatusError
	if errors.As(err, &httpErr) {
		return httpErr.status, true
	}
	return 0, false
}

func classifyStatus(status int, msg string) Kind {
	switch {
	case status == 401 || status == 403:
		return KindAuth
	case status == 404 && strings.Contains(strings.ToLower(msg), "model"):
		return KindModelNotFound
	case status == 400 || status == 404 || status == 422:
		return KindMalformedRequest
	case status == 429:
		return KindRateLimited
	case status >= 500:
		return KindServer
	default:
		return KindUnknown
	}
}

// isNetworkError reports whether err is a transport-level failure: timeout,
// connection reset/refused, or a truncated response body.
func isNetworkError(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}

// httpStatusError carries a non-2xx status from the raw HTTP compat provider.
type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.status, e.body)
}
