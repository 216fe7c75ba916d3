// Package response renders JSend-style bodies: "success" for 2xx, "fail" for 4xx and "error" for 5xx.
package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

const (
	StatusSuccess = "success"
	StatusFail    = "fail"
	StatusError   = "error"
)

// Body is the envelope of every JSON response.
type Body struct {
	Status  string   `json:"status"`
	Token   string   `json:"token,omitempty"`
	Results *int     `json:"results,omitempty"`
	Data    any      `json:"data,omitempty"`
	Code    string   `json:"code,omitempty"`    // Machine-readable error code, e.g., "VALIDATION_FAILED"
	Message string   `json:"message,omitempty"` // User-friendly error message
	Errors  []string `json:"errors,omitempty"`  // Per-field messages, 4xx only
}

// Success returns a successful response
func Success(c echo.Context, statusCode int, data any) error {
	return c.JSON(statusCode, Body{Status: StatusSuccess, Data: data})
}

// SuccessWithToken returns a successful response that carries a bearer token next to the data.
func SuccessWithToken(c echo.Context, token string, data any) error {
	return c.JSON(http.StatusOK, Body{Status: StatusSuccess, Token: token, Data: data})
}

// List returns a successful response with the item count.
func List(c echo.Context, results int, data any) error {
	return c.JSON(http.StatusOK, Body{Status: StatusSuccess, Results: &results, Data: data})
}

// NoContent returns an empty 204 response.
func NoContent(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

// Error returns an error response. Field messages are dropped for 5xx errors.
func Error(c echo.Context, statusCode int, errorCode string, message string, errs []string) error {
	if message == "" {
		message = http.StatusText(statusCode)
	}

	status := StatusFail
	if statusCode >= http.StatusInternalServerError {
		status = StatusError
		errs = nil
	}

	return c.JSON(statusCode, Body{
		Status:  status,
		Code:    errorCode,
		Message: message,
		Errors:  errs,
	})
}

// InternalServerError returns a 500 error
func InternalServerError(c echo.Context, errorCode string, message string) error {
	return Error(c, http.StatusInternalServerError, errorCode, message, nil)
}
