package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"jupyterchat/internal/observability"
	contextutils "jupyterchat/internal/utils"

	"github.com/gin-gonic/gin"
)

// maxRequestBodyBytes bounds the request bodies read for validation
const maxRequestBodyBytes = 1 << 20

// Validation outcomes recorded on spans
const (
	validationPassed       = "passed"
	validationFailed       = "failed"
	validationNoSchema     = "no_schema"
	validationNotJSON      = "not_json"
	validationSkipped      = "skipped"
	validationUndocumented = "undocumented"
)

// ResponseValidationMiddleware buffers 2xx JSON responses and checks them against the
// schema documented for the route. A response that does not match is replaced by a 500.
func ResponseValidationMiddleware(loader *SchemaLoader, basePath string, logger *observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "response_validation")
		defer span.End()

		originalWriter := c.Writer
		responseWriter := &responseCaptureWriter{
			ResponseWriter: originalWriter,
			body:           &bytes.Buffer{},
		}
		c.Writer = responseWriter
		defer func() { c.Writer = originalWriter }()

		c.Next()

		c.Writer = originalWriter
		statusCode := responseWriter.Status()

		if statusCode < 200 || statusCode >= 300 {
			span.SetAttributes(observability.AttributeValidation(validationSkipped))
			responseWriter.flush(statusCode)
			return
		}

		path := relativePath(basePath, routePath(c))
		schemaName := loader.ResponseSchema(path, c.Request.Method, statusCode)
		if schemaName == "" {
			span.SetAttributes(observability.AttributeValidation(validationNoSchema))
			responseWriter.flush(statusCode)
			return
		}

		var responseData interface{}
		if err := json.Unmarshal(responseWriter.body.Bytes(), &responseData); err != nil {
			span.SetAttributes(observability.AttributeValidation(validationNotJSON))
			logger.Error(ctx, "Failed to parse JSON response", err, map[string]interface{}{
				"method": c.Request.Method,
				"path":   path,
			})
			responseWriter.flush(statusCode)
			return
		}

		if err := loader.ValidateData(responseData, schemaName); err != nil {
			span.SetAttributes(observability.AttributeValidation(validationFailed))
			logger.Error(ctx, "Response validation failed", err, map[string]interface{}{
				"method":      c.Request.Method,
				"path":        path,
				"schema_name": schemaName,
			})
			StandardizeAppError(c, contextutils.NewAppErrorWithCause(
				contextutils.ErrorCodeInternalError,
				contextutils.SeverityError,
				"Response validation failed",
				"API response does not match schema "+schemaName,
				err,
			))
			return
		}

		span.SetAttributes(observability.AttributeValidation(validationPassed))
		responseWriter.flush(statusCode)
	}
}

// responseCaptureWriter holds the response body until validation has run
type responseCaptureWriter struct {
	gin.ResponseWriter
	body   *bytes.Buffer
	status int
}

func (w *responseCaptureWriter) WriteHeader(statusCode int) {
	w.status = statusCode
}

func (w *responseCaptureWriter) WriteHeaderNow() {}

func (w *responseCaptureWriter) Write(b []byte) (int, error) {
	return w.body.Write(b)
}

func (w *responseCaptureWriter) WriteString(s string) (int, error) {
	return w.body.WriteString(s)
}

func (w *responseCaptureWriter) Written() bool {
	return w.status != 0 || w.body.Len() > 0
}

func (w *responseCaptureWriter) Size() int {
	if w.body.Len() == 0 && w.status == 0 {
		return -1
	}
	return w.body.Len()
}

func (w *responseCaptureWriter) Status() int {
	if w.status != 0 {
		return w.status
	}
	return http.StatusOK
}

// flush writes the buffered response to the wrapped writer
func (w *responseCaptureWriter) flush(statusCode int) {
	w.ResponseWriter.WriteHeader(statusCode)
	if w.body.Len() == 0 {
		w.ResponseWriter.WriteHeaderNow()
		return
	}
	_, _ = w.ResponseWriter.Write(w.body.Bytes())
}

// RequestValidationMiddleware rejects calls to undocumented endpoints under the base path
// and validates JSON request bodies against the documented schema.
func RequestValidationMiddleware(loader *SchemaLoader, basePath string, logger *observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "request_validation")
		defer span.End()

		method := c.Request.Method
		path := relativePath(basePath, routePath(c))

		if !loader.IsEndpointDocumented(path, method) {
			span.SetAttributes(observability.AttributeValidation(validationUndocumented))
			logger.Warn(ctx, "Undocumented API call attempted", map[string]interface{}{
				"method":     method,
				"path":       path,
				"ip":         c.ClientIP(),
				"user_agent": c.Request.UserAgent(),
			})
			StandardizeAppError(c, contextutils.NewAppError(
				contextutils.ErrorCodeNotFound,
				contextutils.SeverityWarn,
				"Endpoint not found",
				"The requested endpoint is not documented in the API description",
			))
			c.Abort()
			return
		}

		schemaName := loader.RequestSchema(path, method)
		if schemaName == "" || c.Request.Body == nil {
			span.SetAttributes(observability.AttributeValidation(validationNoSchema))
			c.Next()
			return
		}

		body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxRequestBodyBytes))
		if err != nil {
			StandardizeAppError(c, contextutils.NewAppErrorWithCause(
				contextutils.ErrorCodeInvalidInput,
				contextutils.SeverityWarn,
				"Failed to read request body",
				err.Error(),
				err,
			))
			c.Abort()
			return
		}
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		var requestData interface{}
		if err := json.Unmarshal(body, &requestData); err != nil {
			span.SetAttributes(observability.AttributeValidation(validationNotJSON))
			StandardizeAppError(c, contextutils.NewAppError(
				contextutils.ErrorCodeInvalidFormat,
				contextutils.SeverityWarn,
				"Request body must be valid JSON",
				err.Error(),
			))
			c.Abort()
			return
		}

		if err := loader.ValidateData(requestData, schemaName); err != nil {
			span.SetAttributes(observability.AttributeValidation(validationFailed))
			logger.Warn(ctx, "Request validation failed", map[string]interface{}{
				"method":      method,
				"path":        path,
				"schema_name": schemaName,
				"error":       err.Error(),
			})
			details := err.Error()
			var appErr *contextutils.AppError
			if contextutils.AsError(err, &appErr) {
				details = appErr.Message
			}
			StandardizeAppError(c, contextutils.NewAppError(
				contextutils.ErrorCodeValidationFailed,
				contextutils.SeverityWarn,
				"Request validation failed",
				details,
			))
			c.Abort()
			return
		}

		span.SetAttributes(observability.AttributeValidation(validationPassed))
		c.Next()
	}
}

// routePath prefers the matched route pattern over the raw URL path
func routePath(c *gin.Context) string {
	if fullPath := c.FullPath(); fullPath != "" {
		return fullPath
	}
	return c.Request.URL.Path
}

// relativePath strips the server base path so documented paths stay base-independent
func relativePath(basePath, fullPath string) string {
	base := strings.TrimSuffix(basePath, "/")
	rel := strings.TrimPrefix(fullPath, base)
	if !strings.HasPrefix(rel, "/") {
		rel = "/" + rel
	}
	return rel
}
