package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/samcharles93/spmio/internal/export"
	"github.com/samcharles93/spmio/internal/importer"
	"github.com/samcharles93/spmio/internal/mapfile"
	"github.com/samcharles93/spmio/pkg/spm"
)

var ErrInvalidRequest = errors.New("invalid_request")

type invalidRequestError struct {
	msg string
}

func (e invalidRequestError) Error() string {
	return e.msg
}

func (e invalidRequestError) Unwrap() error {
	return ErrInvalidRequest
}

func newInvalidRequest(msg string) error {
	return invalidRequestError{msg: msg}
}

// classify maps an error to an HTTP status and an error type string.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, importer.ErrUnknownFormat),
		errors.Is(err, export.ErrUnknownKind):
		return http.StatusBadRequest, "invalid_request_error"
	case errors.Is(err, mapfile.ErrTooLarge):
		return http.StatusRequestEntityTooLarge, "too_large_error"
	case errors.Is(err, spm.ErrNoImporter):
		return http.StatusUnsupportedMediaType, "unsupported_format_error"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "cancelled_error"
	}
	if kind := spm.KindOf(err); kind != nil {
		return http.StatusUnprocessableEntity, kindCode(kind)
	}
	return http.StatusInternalServerError, "server_error"
}

func kindCode(kind error) string {
	switch kind {
	case spm.ErrNotThisFormat:
		return "not_this_format"
	case spm.ErrTruncated:
		return "truncated"
	case spm.ErrMalformed:
		return "malformed"
	case spm.ErrSizeMismatch:
		return "size_mismatch"
	case spm.ErrNoData:
		return "no_data"
	default:
		return "decode_error"
	}
}
