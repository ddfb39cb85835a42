package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"jupyterchat/internal/observability"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResponseValidation_PassesMatchingResponse(t *testing.T) {
	gin.SetMode(gin.TestMode)
	loader := loadTestSchemas(t)

	router := gin.New()
	router.Use(ResponseValidationMiddleware(loader, "/user/x/", observability.NewNopLogger()))
	router.GET("/user/x/jupyterlab-chat/config", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"feedbackUrl": "https://flow.example"})
	})

	req := httptest.NewRequest("GET", "/user/x/jupyterlab-chat/config", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"feedbackUrl":"https://flow.example"}`, w.Body.String())
	assert.Equal(t, "application/json; charset=utf-8", w.Header().Get("Content-Type"))
}

func TestResponseValidation_RejectsExtraKeys(t *testing.T) {
	gin.SetMode(gin.TestMode)
	loader := loadTestSchemas(t)

	router := gin.New()
	router.Use(ResponseValidationMiddleware(loader, "/", observability.NewNopLogger()))
	router.GET("/jupyterlab-chat/config", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"feedbackUrl": "", "secret": "leak"})
	})

	req := httptest.NewRequest("GET", "/jupyterlab-chat/config", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Response validation failed", body["message"])
	assert.NotContains(t, w.Body.String(), "leak")
}

func TestResponseValidation_SkipsErrorsAndUndocumented(t *testing.T) {
	gin.SetMode(gin.TestMode)
	loader := loadTestSchemas(t)

	router := gin.New()
	router.Use(ResponseValidationMiddleware(loader, "/", observability.NewNopLogger()))
	router.GET("/jupyterlab-chat/config", func(c *gin.Context) {
		c.JSON(http.StatusUnauthorized, gin.H{"code": "UNAUTHORIZED"})
	})
	router.GET("/health", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	router.POST("/logout", func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/jupyterlab-chat/config", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.JSONEq(t, `{"code":"UNAUTHORIZED"}`, w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("POST", "/logout", nil))
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestResponseValidation_PanicReachesRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	loader := loadTestSchemas(t)

	router := gin.New()
	router.Use(ErrorRecoveryMiddleware(nil), ResponseValidationMiddleware(loader, "/", observability.NewNopLogger()))
	router.GET("/jupyterlab-chat/config", func(_ *gin.Context) {
		panic("handler exploded")
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/jupyterlab-chat/config", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "INTERNAL_SERVER_ERROR", decodeBody(t, w)["code"])
}

func newRequestValidatedRouter(t *testing.T) (*gin.Engine, *[]byte) {
	gin.SetMode(gin.TestMode)
	loader := loadTestSchemas(t)

	var received []byte
	router := gin.New()
	router.Use(RequestValidationMiddleware(loader, "/base/", observability.NewNopLogger()))
	router.POST("/base/jupyterlab-chat/feedback", func(c *gin.Context) {
		body, err := c.GetRawData()
		require.NoError(t, err)
		received = body
		c.JSON(http.StatusAccepted, gin.H{"status": "submitted"})
	})
	router.GET("/base/jupyterlab-chat/config", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"feedbackUrl": ""})
	})
	router.GET("/base/secret", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})
	return router, &received
}

func TestRequestValidation_ValidBodyReachesHandler(t *testing.T) {
	router, received := newRequestValidatedRouter(t)

	payload := `{"conversation_id":"c-1","feedback":"great answer"}`
	req := httptest.NewRequest("POST", "/base/jupyterlab-chat/feedback", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, payload, string(*received))
}

func TestRequestValidation_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		payload  string
		wantCode string
	}{
		{name: "empty feedback", payload: `{"feedback":""}`, wantCode: "VALIDATION_FAILED"},
		{name: "unknown field", payload: `{"feedback":"x","rating":5}`, wantCode: "VALIDATION_FAILED"},
		{name: "not json", payload: `feedback=x`, wantCode: "INVALID_FORMAT"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, received := newRequestValidatedRouter(t)

			req := httptest.NewRequest("POST", "/base/jupyterlab-chat/feedback", strings.NewReader(tt.payload))
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.wantCode, decodeBody(t, w)["code"])
			assert.Nil(t, *received)
		})
	}
}

func TestRequestValidation_UndocumentedEndpoint(t *testing.T) {
	router, _ := newRequestValidatedRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/base/secret", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decodeBody(t, w)["code"])
}

func TestRequestValidation_DocumentedGetPassesThrough(t *testing.T) {
	router, _ := newRequestValidatedRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/base/jupyterlab-chat/config", nil))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRelativePath(t *testing.T) {
	assert.Equal(t, "/jupyterlab-chat/config", relativePath("/", "/jupyterlab-chat/config"))
	assert.Equal(t, "/jupyterlab-chat/config", relativePath("/user/x/", "/user/x/jupyterlab-chat/config"))
	assert.Equal(t, "/jupyterlab-chat/config", relativePath("/user/x", "/user/x/jupyterlab-chat/config"))
	assert.Equal(t, "/", relativePath("/user/x/", "/user/x"))
}
