package router

import "fmt"

// AuthError means the router rejected the supplied credentials under every
// scheme the client was allowed to try.
type AuthError struct {
	Mode   string
	Status int
}

func (e *AuthError) Error() string {
	if e == nil {
		return "authentication failed"
	}
	return fmt.Sprintf("router authentication failed (mode=%s, status=%d)", e.Mode, e.Status)
}

// NetworkError wraps a transport-level failure: connection refused, DNS,
// timeout. Retried at the next scheduled cycle, never in a tight loop.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	if e == nil {
		return "network error"
	}
	return fmt.Sprintf("router fetch %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
