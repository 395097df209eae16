package main

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	twitter "github.com/g8rswimmer/go-twitter/v2"
	"github.com/modelcontextprotocol/go-sdk/jsonrpc"
)

// ErrorKind is the closed set of domain error classes.
type ErrorKind int

const (
	// KindUnknown is anything the API reported that fits no other class.
	KindUnknown ErrorKind = iota
	// KindRateLimitExceeded is the local pre-check rejecting a call.
	KindRateLimitExceeded
	// KindRateLimit is the API's own 429.
	KindRateLimit
	KindAuthentication
	KindNotFound
	KindInvalidRequest
)

func (k ErrorKind) String() string {
	switch k {
	case KindRateLimitExceeded:
		return "rate_limit_exceeded"
	case KindRateLimit:
		return "rate_limit"
	case KindAuthentication:
		return "authentication"
	case KindNotFound:
		return "not_found"
	case KindInvalidRequest:
		return "invalid_request"
	default:
		return "unknown"
	}
}

// TwitterError is a classified failure of an external API call.
type TwitterError struct {
	Kind    ErrorKind
	Message string
	// Endpoint is the rate-limit key of the failing operation.
	Endpoint string
	// ResetAt is when the API says the quota refills; zero if not reported.
	ResetAt time.Time
	Cause   error
}

func (e *TwitterError) Error() string {
	return e.Message
}

func (e *TwitterError) Unwrap() error {
	return e.Cause
}

// IsRateLimit reports whether the error is either rate-limit variant.
func (e *TwitterError) IsRateLimit() bool {
	return e.Kind == KindRateLimit || e.Kind == KindRateLimitExceeded
}

func newRateLimitExceeded(endpoint string, retryAt time.Time) *TwitterError {
	return &TwitterError{
		Kind:     KindRateLimitExceeded,
		Message:  fmt.Sprintf("rate limit exceeded for %s", endpoint),
		Endpoint: endpoint,
		ResetAt:  retryAt,
	}
}

// classifyError maps an error returned by the API client onto the taxonomy.
// Classification uses HTTP status codes only.
func classifyError(endpoint string, err error) *TwitterError {
	if err == nil {
		return nil
	}
	var te *TwitterError
	if errors.As(err, &te) {
		return te
	}

	out := &TwitterError{Kind: KindUnknown, Message: err.Error(), Endpoint: endpoint, Cause: err}

	var status int
	var rl *twitter.RateLimit
	var er *twitter.ErrorResponse
	var he *twitter.HTTPError
	switch {
	case errors.As(err, &er):
		status = er.StatusCode
		rl = er.RateLimit
		if er.Detail != "" {
			out.Message = er.Detail
		} else if er.Title != "" {
			out.Message = er.Title
		}
	case errors.As(err, &he):
		status = he.StatusCode
		rl = he.RateLimit
		if he.Status != "" {
			out.Message = he.Status
		}
	}

	out.Kind = kindForStatus(status)
	if rl != nil && rl.Reset > 0 {
		out.ResetAt = time.Unix(int64(rl.Reset), 0)
	}
	return out
}

func kindForStatus(status int) ErrorKind {
	switch status {
	case http.StatusTooManyRequests:
		return KindRateLimit
	case http.StatusUnauthorized, http.StatusForbidden:
		return KindAuthentication
	case http.StatusNotFound:
		return KindNotFound
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return KindInvalidRequest
	default:
		return KindUnknown
	}
}

// JSON-RPC error codes used for protocol-level failures.
const (
	codeMethodNotFound int64 = -32601
	codeInvalidParams  int64 = -32602
	codeInternalError  int64 = -32603
)

func protocolError(code int64, format string, args ...any) *jsonrpc.Error {
	return &jsonrpc.Error{Code: code, Message: fmt.Sprintf(format, args...)}
}
