package middleware

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"stocky/internal/core/apperror"
	"stocky/pkg/logger"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorHandler middleware transforms errors into consistent JSON responses.
// Hides internal errors from clients while logging full details.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}
		if c.Writer.Written() {
			return
		}

		err := c.Errors.Last().Err
		status, body := renderError(c, err)

		payload, mErr := json.Marshal(body)
		if mErr != nil {
			payload = []byte(`{"code":"INTERNAL_ERROR","message":"Internal server error"}`)
			status = http.StatusInternalServerError
		}

		// Client errors replay as recorded; server errors free the key.
		if status < http.StatusInternalServerError {
			CompleteIdempotency(c, status, "application/json", payload)
		} else {
			ReleaseIdempotency(c)
		}

		c.Data(status, "application/json; charset=utf-8", payload)
	}
}

func renderError(c *gin.Context, err error) (int, ErrorResponse) {
	ctx := c.Request.Context()

	appErr, ok := apperror.AsAppError(err)
	if !ok {
		logger.Error(ctx, "unhandled error", "error", err)
		return http.StatusInternalServerError, ErrorResponse{
			Code:    apperror.CodeInternal,
			Message: "Internal server error",
			Details: map[string]any{"request_id": c.GetString("request_id")},
		}
	}

	status := appErr.HTTPStatus
	if status == 0 {
		status = http.StatusInternalServerError
	}

	if appErr.Err != nil {
		if status >= http.StatusInternalServerError {
			logger.Error(ctx, "request error", "code", appErr.Code, "cause", appErr.Err)
		} else {
			logger.Warn(ctx, "request error", "code", appErr.Code, "cause", appErr.Err)
		}
	}

	return status, ErrorResponse{
		Code:    appErr.Code,
		Message: appErr.Message,
		Details: appErr.Details,
	}
}
