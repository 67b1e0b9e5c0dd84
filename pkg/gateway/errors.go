package gateway

import (
	"errors"
	"fmt"

	consent "github.com/goliatone/go-consent/components/consent"
)

// Error codes the remote service reports for a stale or forged nonce.
const (
	CodeInvalidNonce     = "invalid_nonce"
	CodeRestInvalidNonce = "rest_cookie_invalid_nonce"
)

// RemoteError is a non-2xx answer from the remote service.
type RemoteError struct {
	Status  int
	Code    string
	Message string
}

func (e *RemoteError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("gateway: remote error %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("gateway: remote error %d (%s): %s", e.Status, e.Code, e.Message)
}

// Is lets errors.Is(err, consent.ErrInvalidNonce) match nonce failures.
func (e *RemoteError) Is(target error) bool {
	return target == consent.ErrInvalidNonce && e.invalidNonce()
}

func (e *RemoteError) invalidNonce() bool {
	return e.Code == CodeInvalidNonce || e.Code == CodeRestInvalidNonce
}

// IsInvalidNonce reports whether err carries a nonce failure.
func IsInvalidNonce(err error) bool {
	return errors.Is(err, consent.ErrInvalidNonce)
}
