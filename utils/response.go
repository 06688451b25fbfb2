package utils

import (
	"errors"
	"net/http"

	"civicreport-be/apperror"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// ErrorStatus maps an error to its HTTP status and short kind.
func ErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, apperror.ErrRateLimited):
		return http.StatusTooManyRequests, "rate_limited"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// ErrorBody renders err. Server errors hide their message; the underlying error
// is attached as details outside release mode.
func ErrorBody(err error) (int, gin.H) {
	status, kind := ErrorStatus(err)
	body := gin.H{"success": false, "error": kind}

	var appErr *apperror.AppError
	if status < http.StatusInternalServerError && errors.As(err, &appErr) {
		body["message"] = appErr.Message
		if appErr.Field != "" {
			body["field"] = appErr.Field
		}
		return status, body
	}

	body["message"] = "Something went wrong"
	if gin.Mode() != gin.ReleaseMode {
		body["details"] = err.Error()
	}
	return status, body
}

// RespondError writes err as JSON and logs server errors with the request logger.
func RespondError(c *gin.Context, err error) {
	status, body := ErrorBody(err)
	if status >= http.StatusInternalServerError {
		zerolog.Ctx(c.Request.Context()).Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	c.JSON(status, body)
}

// AbortWithError is RespondError for middleware.
func AbortWithError(c *gin.Context, err error) {
	status, body := ErrorBody(err)
	c.AbortWithStatusJSON(status, body)
}
