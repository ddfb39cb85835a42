package middleware

import (
	"fmt"
	"net/http"
	"runtime/debug"

	"jupyterchat/internal/observability"
	contextutils "jupyterchat/internal/utils"

	"github.com/gin-gonic/gin"
)

// ErrorRecoveryMiddleware turns panics into a structured 500 response and logs them with a stack trace
func ErrorRecoveryMiddleware(logger *observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			recovered := recover()
			if recovered == nil {
				return
			}
			if recovered == http.ErrAbortHandler {
				panic(recovered)
			}

			stackTrace := string(debug.Stack())

			panicErr, ok := recovered.(error)
			if !ok {
				panicErr = fmt.Errorf("panic: %v", recovered)
			}

			appErr := contextutils.NewAppErrorWithCause(
				contextutils.ErrorCodeInternalError,
				contextutils.SeverityFatal,
				"Internal server error",
				"A panic occurred while processing the request",
				panicErr,
			)
			if gin.Mode() == gin.DebugMode {
				appErr.Details = fmt.Sprintf("%s\nStack trace: %s", appErr.Details, stackTrace)
			}

			if logger != nil {
				logger.Error(c.Request.Context(), "Panic recovered", panicErr, map[string]interface{}{
					"method":      c.Request.Method,
					"path":        c.Request.URL.Path,
					"stack_trace": stackTrace,
				})
			}

			StandardizeAppError(c, appErr)
			c.Abort()
		}()

		c.Next()
	}
}

// HandleAppError sends the structured response for err, wrapping non-AppErrors as internal errors
func HandleAppError(c *gin.Context, err error) {
	var appErr *contextutils.AppError
	if contextutils.AsError(err, &appErr) {
		StandardizeAppError(c, appErr)
		return
	}
	StandardizeAppError(c, contextutils.NewAppErrorWithCause(
		contextutils.ErrorCodeInternalError,
		contextutils.SeverityError,
		"Internal server error",
		err.Error(),
		err,
	))
}

// StandardizeAppError sends a structured error response using AppError and
// attaches the error to the context for logging and tracing middleware
func StandardizeAppError(c *gin.Context, err *contextutils.AppError) {
	_ = c.Error(err)
	c.JSON(HTTPStatusForCode(err.Code), err.ToJSON())
}

// HTTPStatusForCode maps AppError codes to HTTP status codes
func HTTPStatusForCode(code contextutils.ErrorCode) int {
	switch code {
	case contextutils.ErrorCodeInvalidInput, contextutils.ErrorCodeMissingRequired,
		contextutils.ErrorCodeInvalidFormat, contextutils.ErrorCodeValidationFailed:
		return http.StatusBadRequest

	case contextutils.ErrorCodeUnauthorized, contextutils.ErrorCodeInvalidCredentials:
		return http.StatusUnauthorized

	case contextutils.ErrorCodeForbidden:
		return http.StatusForbidden

	case contextutils.ErrorCodeNotFound, contextutils.ErrorCodeFileNotFound:
		return http.StatusNotFound

	case contextutils.ErrorCodeServiceUnavailable:
		return http.StatusServiceUnavailable

	case contextutils.ErrorCodeUpstreamFailed:
		return http.StatusBadGateway

	case contextutils.ErrorCodeTimeout:
		return http.StatusGatewayTimeout

	default:
		return http.StatusInternalServerError
	}
}
