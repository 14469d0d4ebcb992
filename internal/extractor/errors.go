package extractor

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNoCredential       = errors.New("not logged in: no session cookies for the upstream domain")
	ErrCredentialRejected = errors.New("session rejected by upstream")
	ErrUnexpectedStatus   = errors.New("unexpected upstream status")
	ErrMalformedEnvelope  = errors.New("response is missing the data envelope")
	ErrNoOrders           = errors.New("no orders found")
)

// StatusError carries the HTTP status of a failed page request. It matches
// ErrUnexpectedStatus, or ErrCredentialRejected for 401/403.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("upstream responded %d %s", e.Code, http.StatusText(e.Code))
}

func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnexpectedStatus:
		return true
	case ErrCredentialRejected:
		return e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
	}
	return false
}

// retryable reports whether another attempt may succeed.
func (e *StatusError) retryable() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}
