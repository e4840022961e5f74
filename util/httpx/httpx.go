// Package httpx maps service errors onto JSON responses.
package httpx

import (
	"log/slog"
	"net/http"

	"decorrental/util/apperr"

	"github.com/labstack/echo/v4"
)

// Status is the HTTP status for an error code.
func Status(code apperr.Code) int {
	switch code {
	case apperr.Validation:
		return http.StatusBadRequest
	case apperr.Auth:
		return http.StatusUnauthorized
	case apperr.NotFound:
		return http.StatusNotFound
	case apperr.WriteFailure, apperr.Configuration:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Error writes {"message": ...} for err. Coded errors expose their message;
// anything else is logged and reported as an internal error.
func Error(c echo.Context, log *slog.Logger, op string, err error) error {
	code := apperr.CodeOf(err)
	status := Status(code)
	msg := apperr.MessageOf(err)

	if log != nil {
		rid := c.Response().Header().Get(echo.HeaderXRequestID)
		attrs := []any{"op", op, "err", err, "code", string(code), "req_id", rid, "path", c.Path()}
		if status >= http.StatusInternalServerError {
			log.Error("request failed", attrs...)
		} else {
			log.Warn("request rejected", attrs...)
		}
	}
	if code == "" {
		msg = "internal error"
	}
	return c.JSON(status, echo.Map{"message": msg, "code": string(code)})
}
