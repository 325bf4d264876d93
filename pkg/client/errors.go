package client

import (
	"fmt"
	"io"
	"net/http"
	"strings"
)

// maxBodySnippet caps how much of an error response body is kept as
// diagnostic context.
const maxBodySnippet = 512

// HTTPStatusError is returned for responses outside the accepted status
// codes. It carries a truncated copy of the response body for diagnostics.
type HTTPStatusError struct {
	StatusCode int
	Snippet    string
}

var _ error = &HTTPStatusError{}

func (e *HTTPStatusError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("unexpected HTTP status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected HTTP status %d: %s", e.StatusCode, e.Snippet)
}

// Retryable reports whether the status indicates a transient remote
// condition (rate limiting or a server-side failure).
func (e *HTTPStatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// ErrorFromResponse drains up to maxBodySnippet bytes of the response body
// into an HTTPStatusError. The body is left for the caller to close.
func ErrorFromResponse(resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySnippet))
	return &HTTPStatusError{
		StatusCode: resp.StatusCode,
		Snippet:    strings.TrimSpace(string(body)),
	}
}
