package errors

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stwalsh4118/rackplan/internal/middleware"
	"github.com/stwalsh4118/rackplan/internal/models"
)

// Error code constants for standardized error responses
const (
	ErrNotFound         = "NOT_FOUND"
	ErrBadRequest       = "BAD_REQUEST"
	ErrInternalServer   = "INTERNAL_SERVER_ERROR"
	ErrValidation       = "VALIDATION_ERROR"
	ErrLayoutInfeasible = "LAYOUT_INFEASIBLE"
	ErrInvalidMargin    = "INVALID_MARGIN"
	ErrUpstream         = "UPSTREAM_ERROR"
	ErrCancelled        = "REQUEST_CANCELLED"
)

// StatusClientClosedRequest is the non-standard status logged when a caller
// goes away mid-request.
const StatusClientClosedRequest = 499

// ErrorResponse is the top-level error response structure.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail contains the error information.
type ErrorDetail struct {
	Code      string                 `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	RequestID string                 `json:"request_id,omitempty"`
}

// respond logs at warn level and writes the error envelope.
func respond(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	log := middleware.GetLogger(c)
	requestID := middleware.GetRequestID(c)

	if log != nil {
		fields := map[string]interface{}{
			"code":       code,
			"message":    message,
			"request_id": requestID,
			"path":       c.Request.URL.Path,
		}
		if details != nil {
			fields["details"] = details
		}
		log.Warn("Request failed", fields)
	}

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorDetail{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: requestID,
		},
	})
}

// NotFound returns a 404 Not Found error response.
func NotFound(c *gin.Context, message string) {
	respond(c, http.StatusNotFound, ErrNotFound, message, nil)
}

// BadRequest returns a 400 Bad Request error response with optional details.
func BadRequest(c *gin.Context, message string, details map[string]interface{}) {
	respond(c, http.StatusBadRequest, ErrBadRequest, message, details)
}

// LayoutInfeasible returns a 422 naming the constraint that could not be met.
func LayoutInfeasible(c *gin.Context, err *models.LayoutInfeasibleError) {
	respond(c, http.StatusUnprocessableEntity, ErrLayoutInfeasible, err.Error(), map[string]interface{}{
		"constraint": err.Constraint,
		"required":   err.Required,
		"available":  err.Available,
		"unit":       err.Unit,
	})
}

// InvalidMargin returns a 400 for a margin outside (0,1).
func InvalidMargin(c *gin.Context, err *models.InvalidMarginError) {
	respond(c, http.StatusBadRequest, ErrInvalidMargin, err.Error(), map[string]interface{}{
		"margin": err.Margin,
	})
}

// Upstream returns a 502 for an external service failure that could not be
// degraded to a default.
func Upstream(c *gin.Context, err *models.LookupError) {
	respond(c, http.StatusBadGateway, ErrUpstream, "External lookup failed", map[string]interface{}{
		"service":  err.Service,
		"attempts": err.Attempts,
	})
}

// InternalServerError returns a 500 Internal Server Error response.
// The actual error is logged but not exposed to the client.
func InternalServerError(c *gin.Context, message string, err error) {
	log := middleware.GetLogger(c)
	requestID := middleware.GetRequestID(c)

	if log != nil {
		log.Error("Internal server error", err, map[string]interface{}{
			"message":    message,
			"request_id": requestID,
			"path":       c.Request.URL.Path,
			"method":     c.Request.Method,
		})
	}

	c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{
		Error: ErrorDetail{
			Code:      ErrInternalServer,
			Message:   message,
			RequestID: requestID,
		},
	})
}

// ValidationError returns a 400 Bad Request error response with field-specific validation errors.
func ValidationError(c *gin.Context, validationErrors validator.ValidationErrors) {
	details := make(map[string]interface{})
	for _, err := range validationErrors {
		details[err.Field()] = formatValidationError(err)
	}
	respond(c, http.StatusBadRequest, ErrValidation, "Validation failed for one or more fields", details)
}

// BindError renders a request binding failure. Struct-tag failures become
// per-field details; anything else is a malformed body or query.
func BindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		ValidationError(c, verrs)
		return
	}
	BadRequest(c, "Malformed request", map[string]interface{}{"reason": err.Error()})
}

// Handle maps a pipeline error onto the error envelope. It returns false when
// err is nil.
func Handle(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var (
		vErr      *models.ValidationError
		layoutErr *models.LayoutInfeasibleError
		marginErr *models.InvalidMarginError
		lookupErr *models.LookupError
	)
	switch {
	case errors.As(err, &vErr):
		respond(c, http.StatusBadRequest, ErrValidation, vErr.Error(), map[string]interface{}{
			vErr.Field: vErr.Reason,
		})
	case errors.As(err, &layoutErr):
		LayoutInfeasible(c, layoutErr)
	case errors.As(err, &marginErr):
		InvalidMargin(c, marginErr)
	case errors.As(err, &lookupErr):
		Upstream(c, lookupErr)
	case errors.Is(err, models.ErrCancelled):
		respond(c, StatusClientClosedRequest, ErrCancelled, "Request cancelled", nil)
	default:
		InternalServerError(c, "An unexpected error occurred", err)
	}
	return true
}

// formatValidationError converts a validator.FieldError to a human-readable message.
func formatValidationError(err validator.FieldError) string {
	switch err.Tag() {
	case "required":
		return "This field is required"
	case "min":
		return "Value is too short or small (minimum: " + err.Param() + ")"
	case "max":
		return "Value is too long or large (maximum: " + err.Param() + ")"
	case "gt":
		return "Must be greater than " + err.Param()
	case "gte":
		return "Must be greater than or equal to " + err.Param()
	case "lt":
		return "Must be less than " + err.Param()
	case "lte":
		return "Must be less than or equal to " + err.Param()
	case "oneof":
		return "Must be one of: " + err.Param()
	case "dive":
		return "One or more items are invalid"
	case "required_without":
		return "Required when " + err.Param() + " is absent"
	default:
		return "Validation failed for tag: " + err.Tag()
	}
}
