package spm

import (
	"errors"
	"fmt"
	"io"
)

var (
	ErrNotThisFormat = errors.New("not this format")
	ErrTruncated     = errors.New("file truncated")
	ErrMalformed     = errors.New("malformed header")
	ErrSizeMismatch  = errors.New("data size mismatch")
	ErrNoData        = errors.New("no complete data plane available")
	ErrNoImporter    = errors.New("no importer recognises the file")
)

// Error ties a failure to the format that reported it. Err wraps one of the
// sentinel kinds above, so errors.Is works on the whole chain.
type Error struct {
	Format string
	Err    error
}

func (e *Error) Error() string {
	return e.Format + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errorf builds an *Error of the given kind.
func Errorf(id string, kind error, msg string, args ...any) error {
	return &Error{Format: id, Err: fmt.Errorf("%w: %s", kind, fmt.Sprintf(msg, args...))}
}

// Wrap attributes err to format id. Errors already attributed are returned
// unchanged.
func Wrap(id string, err error) error {
	if err == nil {
		return nil
	}
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Format: id, Err: err}
}

// Truncated reports that a file ended before the named part.
func Truncated(id, what string, need, have int) error {
	return Errorf(id, ErrTruncated, "%s needs %d bytes, file has %d", what, need, have)
}

// SizeMismatch reports a payload whose size disagrees with the header.
func SizeMismatch(id string, want, have int) error {
	return Errorf(id, ErrSizeMismatch, "expected %d bytes of data, got %d", want, have)
}

// KindOf returns the sentinel kind of err, or nil when err is not one of
// ours. Short reads from the cursor package count as truncation.
func KindOf(err error) error {
	for _, k := range []error{ErrNotThisFormat, ErrTruncated, ErrMalformed, ErrSizeMismatch, ErrNoData, ErrNoImporter} {
		if errors.Is(err, k) {
			return k
		}
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return nil
}
