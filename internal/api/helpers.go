package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v5"

	"github.com/samcharles93/spmio/pkg/spm"
)

func writeBadRequest(c *echo.Context, msg string) error {
	return writeError(c, http.StatusBadRequest, "invalid_request_error", msg, "", "")
}

func writeNotFound(c *echo.Context, msg string) error {
	return writeError(c, http.StatusNotFound, "not_found_error", msg, "", "")
}

func writeError(c *echo.Context, status int, errType, msg, code, format string) error {
	return c.JSON(status, map[string]any{
		"error": ResponseError{
			Message: msg,
			Type:    errType,
			Code:    code,
			Format:  format,
		},
	})
}

// writeErr classifies err and writes it with the matching status.
func writeErr(c *echo.Context, err error) error {
	status, errType := classify(err)
	code := ""
	if status == http.StatusUnprocessableEntity {
		code, errType = errType, "decode_error"
	}
	var se *spm.Error
	format := ""
	if errors.As(err, &se) {
		format = se.Format
	}
	return writeError(c, status, errType, err.Error(), code, format)
}

func boolQuery(c *echo.Context, name string) (bool, error) {
	v := c.QueryParam(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, newInvalidRequest(name + " must be a boolean")
	}
	return b, nil
}

func intQuery(c *echo.Context, name string, def int) (int, error) {
	v := c.QueryParam(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, newInvalidRequest(name + " must be a non-negative integer")
	}
	return n, nil
}
