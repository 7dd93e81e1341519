package delivery

import "errors"

// permanentError marks a downstream failure that retrying cannot fix, such as
// a token the push service reports as no longer registered. Channels classify
// their own structured error codes; the engine only inspects the marker.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err as non-retryable. Wrapping nil returns nil.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err was classified non-retryable by a channel.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}
