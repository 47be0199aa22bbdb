package llm

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/anthropics/anthropic-sdk-go"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Error classes reported by provider clients; test with errors.Is
var (
	// ErrAuthentication means the credentials were rejected. It is never retried.
	ErrAuthentication = errors.New("authentication failed")
	// ErrRateLimited means the provider throttled the request
	ErrRateLimited = errors.New("rate limited")
	// ErrTransient covers timeouts, connection failures and provider-side errors
	ErrTransient = errors.New("transient provider error")
)

// classifyStatus maps an HTTP status code to an error class, or nil if permanent
func classifyStatus(code int) error {
	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return ErrAuthentication
	case code == http.StatusTooManyRequests:
		return ErrRateLimited
	case code == http.StatusRequestTimeout, code == http.StatusConflict, code >= 500:
		return ErrTransient
	default:
		return nil
	}
}

// classifyNetwork recognizes timeouts and connection failures
func classifyNetwork(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrTransient
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrTransient
	}
	return nil
}

func wrap(class, err error) error {
	if class == nil {
		return err
	}
	return fmt.Errorf("%w: %w", class, err)
}

func classifyAnthropicError(err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return wrap(classifyStatus(apiErr.StatusCode), fmt.Errorf("claude API: %w", err))
	}
	return wrap(classifyNetwork(err), fmt.Errorf("claude API: %w", err))
}

func classifyGeminiError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return wrap(classifyStatus(apiErr.Code), fmt.Errorf("gemini API: %w", err))
	}
	if s, ok := status.FromError(err); ok {
		return wrap(classifyCode(s.Code()), fmt.Errorf("gemini API: %w", err))
	}
	return wrap(classifyNetwork(err), fmt.Errorf("gemini API: %w", err))
}

// classifyCode maps a gRPC status code to an error class, or nil if permanent
func classifyCode(code codes.Code) error {
	switch code {
	case codes.Unauthenticated, codes.PermissionDenied:
		return ErrAuthentication
	case codes.ResourceExhausted:
		return ErrRateLimited
	case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.Internal:
		return ErrTransient
	default:
		return nil
	}
}

// IsRetryable reports whether err belongs to a class worth retrying
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransient) || errors.Is(err, ErrRateLimited)
}
