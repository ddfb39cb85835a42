package observability

import (
	"errors"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	contextutils "jupyterchat/internal/utils"
)

// SessionUsernameKey is the session key holding the authenticated identity
const SessionUsernameKey = "username"

// GinMiddleware creates OpenTelemetry middleware for Gin HTTP requests
func GinMiddleware(serviceName string) gin.HandlerFunc {
	return otelgin.Middleware(serviceName)
}

// SpanErrorMiddleware marks the request span as failed for 4xx/5xx responses and
// attaches the AppError code, severity and caller identity.
// It must be registered after GinMiddleware so the request context carries the span.
func SpanErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		statusCode := c.Writer.Status()
		if statusCode < 400 {
			return
		}
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			return
		}

		severity := determineErrorSeverity(statusCode, c.Errors)
		errorMsg := "client error"
		if statusCode >= 500 {
			errorMsg = "server error"
		}

		var appErr *contextutils.AppError
		for _, ginErr := range c.Errors {
			if contextutils.AsError(ginErr.Err, &appErr) {
				errorMsg = appErr.Message
				break
			}
			errorMsg = ginErr.Error()
		}

		span.RecordError(errors.New(errorMsg))
		span.SetStatus(codes.Error, errorMsg)
		span.SetAttributes(
			attribute.Int("http.status_code", statusCode),
			attribute.String("error.handler", c.HandlerName()),
			attribute.String("error.severity", severity),
			attribute.Bool("error.server_error", statusCode >= 500),
		)
		// Plain errors attached to the context count as internal errors
		var codeSource error
		if appErr != nil {
			codeSource = appErr
		} else if len(c.Errors) > 0 {
			codeSource = c.Errors.Last().Err
		}
		if codeSource != nil {
			span.SetAttributes(
				attribute.String("error.code", string(contextutils.GetErrorCode(codeSource))),
				attribute.Bool("error.retryable", contextutils.IsRetryable(codeSource)),
			)
		}

		if username := sessionUsername(c); username != "" {
			span.SetAttributes(attribute.String("error.user", username))
		}
	}
}

// sessionUsername reads the identity from the session if the session middleware is installed
func sessionUsername(c *gin.Context) string {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return ""
	}
	username, _ := sessions.Default(c).Get(SessionUsernameKey).(string)
	return username
}

// determineErrorSeverity determines the severity level based on status code and error types
func determineErrorSeverity(statusCode int, ginErrors []*gin.Error) string {
	for _, ginErr := range ginErrors {
		var appErr *contextutils.AppError
		if contextutils.AsError(ginErr.Err, &appErr) {
			return string(contextutils.GetErrorSeverity(appErr))
		}
	}

	switch {
	case statusCode >= 500:
		return string(contextutils.SeverityError)
	case statusCode >= 400:
		return string(contextutils.SeverityWarn)
	default:
		return string(contextutils.SeverityInfo)
	}
}
