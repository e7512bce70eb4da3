package generation

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"recipegen/internal/models/providers"
)

// Kind is a user-facing failure category.
type Kind string

const (
	KindEmptyInput         Kind = "empty_input"
	KindQuotaExceeded      Kind = "quota_exceeded"
	KindInvalidCredential  Kind = "invalid_credential"
	KindServiceUnavailable Kind = "service_unavailable"
	KindTimeout            Kind = "timeout"
	KindCancelled          Kind = "cancelled"
)

var messages = map[Kind]string{
	KindEmptyInput:         "Please enter some ingredients.",
	KindQuotaExceeded:      "API quota exceeded. Please check your Gemini API plan and billing.",
	KindInvalidCredential:  "The provided API key is not valid. Please check your environment variables.",
	KindServiceUnavailable: "Failed to generate recipes. The AI model may be temporarily unavailable.",
	KindTimeout:            "Recipe generation timed out. Please try again.",
	KindCancelled:          "Recipe generation was cancelled.",
}

// Message returns the text shown to the user for k.
func (k Kind) Message() string {
	if msg, ok := messages[k]; ok {
		return msg
	}
	return messages[KindServiceUnavailable]
}

// Error is the only error type Generate returns. Err keeps the upstream cause
// for logs; Error() only ever exposes the user-facing message.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return e.Kind.Message()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf extracts the kind from err, classifying it if it is not an *Error.
func KindOf(err error) Kind {
	var genErr *Error
	if errors.As(err, &genErr) {
		return genErr.Kind
	}
	return Classify(err)
}

// Message returns the user-facing text for any error.
func Message(err error) string {
	return KindOf(err).Message()
}

// Classify maps an upstream failure to a Kind. Structured Gemini error codes
// are checked first; the substring rules cover providers that only surface a
// message string.
func Classify(err error) Kind {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.DeadlineExceeded):
		return KindTimeout
	case errors.Is(err, context.Canceled):
		return KindCancelled
	}

	var apiErr *providers.APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == "RESOURCE_EXHAUSTED", apiErr.HTTPStatus == http.StatusTooManyRequests:
			return KindQuotaExceeded
		case apiErr.Reason() == "API_KEY_INVALID":
			return KindInvalidCredential
		}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "quota"):
		return KindQuotaExceeded
	case strings.Contains(msg, "API key not valid"):
		return KindInvalidCredential
	default:
		return KindServiceUnavailable
	}
}
