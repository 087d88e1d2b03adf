package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrConnection covers connect failures, timeouts and unexpected loss of the
	// transport. Reconnecting may fix it.
	ErrConnection = errors.New("connection error")

	// ErrTimeout is a connection error raised when a reply does not arrive in time.
	ErrTimeout = fmt.Errorf("timed out waiting for response: %w", ErrConnection)

	// ErrClosed is a connection error raised for writes to, or transactions
	// pending on, a transport that is closing.
	ErrClosed = fmt.Errorf("transport closed: %w", ErrConnection)

	// ErrClientClosed is raised for transactions cut short because the caller
	// closed the client. It is never retried.
	ErrClientClosed = fmt.Errorf("closed by caller: %w", ErrClosed)

	// ErrLogin is raised when the gateway explicitly rejects the login. It is
	// never retried.
	ErrLogin = errors.New("login rejected by gateway")

	// ErrRequest is raised when the gateway reports an invalid request or a bad
	// parameter.
	ErrRequest = errors.New("request rejected by gateway")

	// ErrResponse is raised when a reply carries an unexpected code.
	ErrResponse = errors.New("unexpected response")

	// ErrMalformed indicates a framing or codec invariant was violated. It is
	// fatal and never retried.
	ErrMalformed = errors.New("malformed message")

	// ErrValidation is raised for caller supplied values outside the range the
	// protocol allows. Nothing is sent.
	ErrValidation = errors.New("invalid value")
)

// ErrorForCode maps a distinguished error reply to its error. It returns nil for
// every other code.
func ErrorForCode(code Code) error {
	switch code {
	case CodeLoginRejected:
		return ErrLogin
	case CodeInvalidRequest:
		return fmt.Errorf("invalid request: %w", ErrRequest)
	case CodeBadParameter:
		return fmt.Errorf("bad parameter: %w", ErrRequest)
	}

	return nil
}

// Retryable reports whether a transaction that failed with err may be attempted
// again.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, ErrLogin), errors.Is(err, ErrMalformed), errors.Is(err, ErrValidation), errors.Is(err, ErrClientClosed):
		return false
	}

	return true
}

// Validationf returns an ErrValidation with a formatted description.
func Validationf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrValidation)
}

// Malformedf returns an ErrMalformed with a formatted description.
func Malformedf(format string, args ...interface{}) error {
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrMalformed)
}
