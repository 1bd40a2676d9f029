package llm

import (
	"errors"
	"fmt"
	"io"
	"net/http"
)

var (
	ErrRateLimited     = errors.New("llm: rate limited by provider")
	ErrPaymentRequired = errors.New("llm: payment required by provider")
	ErrUnavailable     = errors.New("llm: provider unavailable")
	ErrMalformed       = errors.New("llm: malformed provider response")
)

// UpstreamError carries what the provider returned. Status and Body are for logs only.
type UpstreamError struct {
	Provider string
	Status   int
	Body     string
	Err      error
}

func (e *UpstreamError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("llm: provider=%s: %v", e.Provider, e.Err)
	}
	return fmt.Sprintf("llm: provider=%s status=%d: %v", e.Provider, e.Status, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// StatusOf extracts the upstream HTTP status from err, or 0.
func StatusOf(err error) int {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue.Status
	}
	return 0
}

// MapHTTPError returns nil for 2xx responses and closes the body otherwise.
func MapHTTPError(provider string, resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	// Read body for error context, but don't fail if we can't.
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	resp.Body.Close()

	ue := &UpstreamError{Provider: provider, Status: resp.StatusCode, Body: string(body)}
	switch resp.StatusCode {
	case http.StatusTooManyRequests:
		ue.Err = ErrRateLimited
	case http.StatusPaymentRequired:
		ue.Err = ErrPaymentRequired
	default:
		ue.Err = ErrUnavailable
	}
	return ue
}
