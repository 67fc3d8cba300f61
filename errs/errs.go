// Package errs defines the error vocabulary shared by every package in this
// module, mirroring the MessageError/MessageErrorf pattern used to separate
// an error's kind from its human-readable text.
package errs

import (
	"errors"
	"fmt"
)

// Sentinel kinds. Wrap one of these with MessageError/MessageErrorf so
// callers can test the kind with errors.Is without parsing messages.
var (
	// ErrConfig marks a configuration error: rejected during preCount,
	// before any ballot is touched.
	ErrConfig = errors.New("configuration error")
	// ErrBallotData marks malformed or out-of-range ballot input.
	ErrBallotData = errors.New("ballot data error")
	// ErrInternal marks a defect in the tabulator itself, not its input.
	ErrInternal = errors.New("internal error")
)

// kindError pairs a sentinel kind with a formatted message, so
// errors.Is(err, ErrConfig) keeps working after wrapping.
type kindError struct {
	kind error
	msg  string
}

func (e kindError) Error() string {
	return e.msg
}

func (e kindError) Unwrap() error {
	return e.kind
}

// MessageError builds an error of the given kind with a fixed message.
func MessageError(kind error, msg string) error {
	return kindError{kind: kind, msg: msg}
}

// MessageErrorf builds an error of the given kind with a formatted message.
func MessageErrorf(kind error, format string, args ...any) error {
	return kindError{kind: kind, msg: fmt.Sprintf(format, args...)}
}
