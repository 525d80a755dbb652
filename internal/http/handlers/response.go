// Package handlers provides HTTP handler implementations for the public API.
//
// This file defines the response helpers shared by all endpoints: the error
// envelope, the mapping from service errors to status codes, and small
// success writers.
//
// Example error response:
//
//	HTTP/1.1 404 Not Found
//	{
//	  "request_id": "123e4567-e89b-12d3-a456-426614174000",
//	  "code": "not_found",
//	  "message": "car not found"
//	}
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/AtharvaManchalkar/DriveOps/internal/domain"
	"github.com/AtharvaManchalkar/DriveOps/internal/http/middleware"
	"github.com/AtharvaManchalkar/DriveOps/internal/services"
)

// ErrorResponse is the standard error envelope returned by all endpoints.
type ErrorResponse struct {
	// Correlates server logs and client errors
	RequestID string `json:"request_id,omitempty" example:"123e4567-e89b-12d3-a456-426614174000"`
	// Stable, machine-readable code (see errors.go constants)
	Code string `json:"code" example:"not_found"`
	// Human-readable message (safe to show to users)
	Message string `json:"message" example:"car not found"`
	// Offending input field, for validation failures
	Field string `json:"field,omitempty" example:"price"`
}

// MessageResponse is a bare confirmation body.
type MessageResponse struct {
	Message string `json:"message" example:"car deleted"`
}

// fail aborts the request with a structured error. 5xx responses are logged
// with the request-scoped logger.
func fail(c *gin.Context, status int, code, msg string) {
	failField(c, status, code, msg, "")
}

func failField(c *gin.Context, status int, code, msg, field string) {
	resp := ErrorResponse{
		RequestID: c.Writer.Header().Get("X-Request-ID"),
		Code:      code,
		Message:   msg,
		Field:     field,
	}
	if status >= http.StatusInternalServerError {
		middleware.LoggerFrom(c).Error().
			Int("status", status).
			Str("code", code).
			Str("message", msg).
			Msg("api error")
	}
	c.AbortWithStatusJSON(status, resp)
}

// Fail is the exported variant of fail() for the router.
func Fail(c *gin.Context, status int, code, msg string) { fail(c, status, code, msg) }

// failErr translates a service error into the matching envelope. Internal
// error text is logged, never returned.
func failErr(c *gin.Context, err error) {
	if ve, ok := domain.AsValidation(err); ok {
		middleware.LoggerFrom(c).Warn().
			Str("field", ve.Field).
			Str("reason", ve.Reason).
			Msg("validation failed")
		failField(c, http.StatusBadRequest, ErrCodeValidation, ve.Reason, ve.Field)
		return
	}
	switch {
	case errors.Is(err, services.ErrCarNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "car not found")
	case errors.Is(err, services.ErrMaintenanceNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "maintenance record not found")
	case errors.Is(err, services.ErrSelectionFull):
		fail(c, http.StatusConflict, ErrCodeSelectionFull, err.Error())
	case errors.Is(err, services.ErrInvalidVIN):
		failField(c, http.StatusBadRequest, ErrCodeValidation, "must be 17 characters without I, O or Q", "vin")
	case errors.Is(err, services.ErrEmailTaken):
		failField(c, http.StatusConflict, ErrCodeConflict, "email already registered", "email")
	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid email or password")
	case errors.Is(err, services.ErrInvalidToken):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid or expired token")
	case errors.Is(err, services.ErrUpstreamUnavailable):
		middleware.LoggerFrom(c).Error().Err(err).Msg("upstream unavailable")
		fail(c, http.StatusServiceUnavailable, ErrCodeUpstream, "service temporarily unavailable")
	default:
		middleware.LoggerFrom(c).Error().Err(err).Msg("unhandled service error")
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "internal server error")
	}
}

// ok writes a success JSON response.
func ok(c *gin.Context, status int, body any) {
	c.JSON(status, body)
}

// noContent writes an HTTP 204 No Content response.
func noContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}
