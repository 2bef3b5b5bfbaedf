package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"syscall"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func TestClassifyStatusCodes(t *testing.T) {
	cases := []struct {
		name      string
		err       error
		kind      Kind
		retryable bool
	}{
		{"401 auth", &openai.APIError{HTTPStatusCode: 401, Message: "invalid key"}, KindAuth, false},
		{"403 auth", &openai.APIError{HTTPStatusCode: 403, Message: "forbidden"}, KindAuth, false},
		{"400 malformed", &openai.APIError{HTTPStatusCode: 400, Message: "bad request"}, KindMalformedRequest, false},
		{"404 model", &openai.APIError{HTTPStatusCode: 404, Message: "The model `x` does not exist"}, KindModelNotFound, false},
		{"404 plain", &openai.APIError{HTTPStatusCode: 404, Message: "not found"}, KindMalformedRequest, false},
		{"429 rate", &openai.APIError{HTTPStatusCode: 429, Message: "rate limit exceeded"}, KindRateLimited, true},
		{"500 server", &openai.APIError{HTTPStatusCode: 500, Message: "internal"}, KindServer, true},
		{"502 compat", &httpStatusError{status: 502, body: "bad gateway"}, KindServer, true},
		{"request error", &openai.RequestError{HTTPStatusCode: 503, Err: errors.New("unavailable")}, KindServer, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Classify("openai", tc.err)
			if got := KindOf(err); got != tc.kind {
				t.Errorf("expected kind %v, got %v", tc.kind, got)
			}
			if got := KindOf(err).Retryable(); got != tc.retryable {
				t.Errorf("expected retryable=%v, got %v", tc.retryable, got)
			}
		})
	}
}

func TestClassifyNetworkErrors(t *testing.T) {
	cases := []struct {
		name string
		err  error
	}{
		{"econnreset", &net.OpError{Op: "read", Err: syscall.ECONNRESET}},
		{"econnrefused", &net.OpError{Op: "dial", Err: syscall.ECONNREFUSED}},
		{"deadline", fmt.Errorf("request failed: %w", context.DeadlineExceeded)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := Classify("compat", tc.err)
			if got := KindOf(err); got != KindNetwork {
				t.Errorf("expected KindNetwork, got %v", got)
			}
			if !KindOf(err).Retryable() {
				t.Error("network errors must be retryable")
			}
		})
	}
}

func TestClassifyUnknownNotRetryable(t *testing.T) {
	err := Classify("openai", errors.New("something odd"))
	if got := KindOf(err); got != KindUnknown {
		t.Errorf("expected KindUnknown, got %v", got)
	}
	if KindOf(err).Retryable() {
		t.Error("unknown errors must not be retried")
	}
}

func TestClassifyIdempotent(t *testing.T) {
	orig := Classify("openai", &openai.APIError{HTTPStatusCode: 429, Message: "rate"})
	again := Classify("openai", orig)
	if again != orig {
		t.Error("classifying a classified error should return it unchanged")
	}
}

func TestClassifyPreservesUnderlyingError(t *testing.T) {
	underlying := &openai.APIError{HTTPStatusCode: 500, Message: "boom"}
	err := Classify("openai", underlying)

	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		t.Fatal("classified error should wrap the underlying vendor error")
	}
	if apiErr.Message != "boom" {
		t.Errorf("expected wrapped message 'boom', got %q", apiErr.Message)
	}
}

func TestClassifyNil(t *testing.T) {
	if err := Classify("openai", nil); err != nil {
		t.Errorf("expected nil, got %v", err)
	}
}
