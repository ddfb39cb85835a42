package handlers

import (
	"net/http"

	"jupyterchat/internal/middleware"
	contextutils "jupyterchat/internal/utils"

	"github.com/gin-gonic/gin"
)

// StandardizeHTTPError creates consistent HTTP error responses with structured error information
func StandardizeHTTPError(c *gin.Context, statusCode int, message, details string) {
	var errorCode contextutils.ErrorCode
	var severity contextutils.SeverityLevel

	switch statusCode {
	case http.StatusBadRequest:
		errorCode = contextutils.ErrorCodeInvalidInput
		severity = contextutils.SeverityWarn
	case http.StatusUnauthorized:
		errorCode = contextutils.ErrorCodeUnauthorized
		severity = contextutils.SeverityWarn
	case http.StatusForbidden:
		errorCode = contextutils.ErrorCodeForbidden
		severity = contextutils.SeverityWarn
	case http.StatusNotFound, http.StatusMethodNotAllowed:
		errorCode = contextutils.ErrorCodeNotFound
		severity = contextutils.SeverityInfo
	case http.StatusBadGateway:
		errorCode = contextutils.ErrorCodeUpstreamFailed
		severity = contextutils.SeverityError
	case http.StatusServiceUnavailable:
		errorCode = contextutils.ErrorCodeServiceUnavailable
		severity = contextutils.SeverityError
	default:
		errorCode = contextutils.ErrorCodeInternalError
		severity = contextutils.SeverityError
	}

	appErr := contextutils.NewAppError(errorCode, severity, message, details)

	// Send response with the original status code
	c.JSON(statusCode, appErr.ToJSON())
}

// HandleAppError handles any error and sends the matching HTTP response
func HandleAppError(c *gin.Context, err error) {
	middleware.HandleAppError(c, err)
}
