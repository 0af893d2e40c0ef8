// Package assistant bridges reader questions to a question-answering
// backend: either the remote Gemini API or a locally loaded model with an
// extractive fallback. Both backends share one contract and one closed
// error taxonomy.
package assistant

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"
)

// Bridge answers a reader question using the current page text as context.
type Bridge interface {
	Ask(ctx context.Context, query, pageContext string) (string, error)
}

// Kind tags an assistant failure. The API layer dispatches on the tag to
// produce a distinct user-facing message and recovery hint.
type Kind int

const (
	// KindNoContext means the request needs page text and none is cached.
	KindNoContext Kind = iota + 1
	// KindInvalidCredential covers a missing or rejected API key.
	KindInvalidCredential
	// KindRateLimited is surfaced after bounded retries are exhausted.
	KindRateLimited
	// KindNetworkError covers transport failures before an HTTP response.
	KindNetworkError
	// KindUnexpectedFormat covers unrecognized response or error shapes.
	KindUnexpectedFormat
	// KindModelNotReady means the local model has not finished loading.
	KindModelNotReady
)

func (k Kind) String() string {
	switch k {
	case KindNoContext:
		return "no_context"
	case KindInvalidCredential:
		return "invalid_credential"
	case KindRateLimited:
		return "rate_limited"
	case KindNetworkError:
		return "network_error"
	case KindUnexpectedFormat:
		return "unexpected_format"
	case KindModelNotReady:
		return "model_not_ready"
	}
	return "unknown"
}

// Error is a tagged assistant failure.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func errf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// KindOf extracts the tag from an assistant error, or zero for errors that
// carry none.
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return 0
}

// truncate caps a context string at limit bytes, backing off to the nearest
// rune boundary so the prompt stays valid UTF-8.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	for limit > 0 && !utf8.RuneStart(s[limit]) {
		limit--
	}
	return s[:limit]
}
