package remote

import (
	"github.com/hashicorp/go-multierror"
)

// WithSession runs fn and closes the session's connection before returning,
// whether fn returns normally, returns an error, or panics. A close failure
// is returned on its own after a successful fn and combined with fn's error
// otherwise. A panic is re-raised after the close.
func WithSession(s *Session, fn func(*Session) error) error {
	defer func() {
		if r := recover(); r != nil {
			_ = s.Close()
			panic(r)
		}
	}()

	fnErr := fn(s)
	closeErr := s.Close()

	switch {
	case fnErr == nil:
		return closeErr
	case closeErr == nil:
		return fnErr
	default:
		return multierror.Append(fnErr, closeErr)
	}
}
