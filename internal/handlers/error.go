package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
)

// Error codes returned in ErrorResponse.
const (
	codeInvalidJSON    = "invalid_json"
	codeMissingFields  = "missing_fields"
	codeMissingMoves   = "missing_moves"
	codeNotLinked      = "not_linked"
	codeNotInVoice     = "not_in_voice"
	codeInvalidChannel = "invalid_channel"
	codeMoveFailed     = "move_failed"
	codeDispatchFailed = "dispatch_failed"
	codeLinkFailed     = "link_failed"
)

// ErrorResponse is the API error body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// OKResponse is the success body for commands with nothing else to report.
type OKResponse struct {
	OK bool `json:"ok"`
}

var errTypeMismatch = errors.New("field has the wrong type")

func writeError(c echo.Context, status int, code string) error {
	return c.JSON(status, ErrorResponse{Error: code})
}

// writeBodyError reports a decodeBody failure. mismatchCode is used for
// fields of the wrong type. An over-limit body is left to the server's
// error handler.
func writeBodyError(c echo.Context, err error, mismatchCode string) error {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return err
	}
	if errors.Is(err, errTypeMismatch) {
		return writeError(c, http.StatusBadRequest, mismatchCode)
	}
	return writeError(c, http.StatusBadRequest, codeInvalidJSON)
}

func writeOK(c echo.Context) error {
	return c.JSON(http.StatusOK, OKResponse{OK: true})
}

// decodeBody reads a JSON body into dst. An empty body decodes as {}.
// Syntax errors are returned as-is; a value of the wrong JSON type yields
// errTypeMismatch so callers can report it as a validation failure.
func decodeBody(c echo.Context, dst any) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return err
	}
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			return errTypeMismatch
		}
		return err
	}
	return nil
}
