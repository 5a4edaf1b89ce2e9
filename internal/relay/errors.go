package relay

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

var (
	// ErrUpstreamCallFailed matches every *UpstreamError via errors.Is.
	ErrUpstreamCallFailed = errors.New("upstream call failed")
	// ErrInvalidRequest is returned before any network call when the request
	// cannot be sent.
	ErrInvalidRequest = errors.New("invalid request")
)

const maxBodyExcerpt = 512

// UpstreamError describes a failed upstream call. StatusCode is zero for
// transport failures. Cause is set for transport failures and malformed
// bodies.
type UpstreamError struct {
	StatusCode int
	Status     string
	Body       []byte
	Cause      error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.StatusCode == 0 && e.Cause != nil:
		return e.Cause.Error()
	case e.Cause != nil:
		return fmt.Sprintf("malformed response (%s): %v", e.Status, e.Cause)
	default:
		if body := excerpt(e.Body); body != "" {
			return fmt.Sprintf("%s: %s", e.Status, body)
		}
		return e.Status
	}
}

func (e *UpstreamError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrUpstreamCallFailed}
	}
	return []error{ErrUpstreamCallFailed, e.Cause}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequest, fmt.Sprintf(format, args...))
}

func excerpt(b []byte) string {
	s := strings.ToValidUTF8(strings.TrimSpace(string(b)), "\uFFFD")
	if len(s) <= maxBodyExcerpt {
		return s
	}
	s = s[:maxBodyExcerpt]
	for !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s + "..."
}
