package payment

import (
	"errors"
	"fmt"
)

// ErrNotConfigured means the gateway credentials are missing. Fatal, never
// retried.
var ErrNotConfigured = errors.New("payment gateway credentials missing")

type ErrorKind int

const (
	// KindRejected: the processor returned a non-success status. One retry
	// with backoff is allowed before surfacing to the user.
	KindRejected ErrorKind = iota + 1
	// KindProtocol: the processor answered success but the response is
	// missing required fields. Not retried.
	KindProtocol
)

type GatewayError struct {
	Kind       ErrorKind
	StatusCode int
	Body       string
}

func (e *GatewayError) Error() string {
	switch e.Kind {
	case KindProtocol:
		return fmt.Sprintf("gateway protocol error: %s", e.Body)
	default:
		return fmt.Sprintf("gateway rejected request (http %d): %s", e.StatusCode, e.Body)
	}
}

func IsRejected(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge) && ge.Kind == KindRejected
}

func IsProtocol(err error) bool {
	var ge *GatewayError
	return errors.As(err, &ge) && ge.Kind == KindProtocol
}
