package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	contextutils "jupyterchat/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testServerToken = "s3cret-token"

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	store := cookie.NewStore([]byte("test-secret"))
	router.Use(sessions.Sessions("test-session", store))
	return router
}

func setSessionCookie(t *testing.T, router *gin.Engine, values map[string]interface{}) *http.Cookie {
	setupPath := "/setup-session-" + t.Name()
	router.GET(setupPath, func(c *gin.Context) {
		session := sessions.Default(c)
		for k, v := range values {
			session.Set(k, v)
		}
		require.NoError(t, session.Save())
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", setupPath, nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	cookies := w.Result().Cookies()
	require.NotEmpty(t, cookies)
	return cookies[0]
}

func newProtectedRouter(t *testing.T) *gin.Engine {
	router := newTestRouter()
	router.GET("/resource", RequireAuth(testServerToken), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"username":     c.GetString(UsernameKey),
			"method":       c.GetString(AuthMethodKey),
			"context_user": contextutils.GetUsernameFromContext(c.Request.Context()),
		})
	})
	return router
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestRequireAuth_SessionSuccess(t *testing.T) {
	router := newProtectedRouter(t)
	sessionCookie := setSessionCookie(t, router, map[string]interface{}{UsernameKey: "alice"})

	req := httptest.NewRequest("GET", "/resource", nil)
	req.AddCookie(sessionCookie)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "alice", body["username"])
	assert.Equal(t, AuthMethodSession, body["method"])
	assert.Equal(t, "alice", body["context_user"])
}

func TestRequireAuth_TokenSources(t *testing.T) {
	tests := []struct {
		name   string
		header string
		query  string
	}{
		{name: "token scheme", header: "token " + testServerToken},
		{name: "bearer scheme", header: "Bearer " + testServerToken},
		{name: "lowercase scheme", header: "bearer " + testServerToken},
		{name: "query parameter", query: "?token=" + testServerToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newProtectedRouter(t)

			req := httptest.NewRequest("GET", "/resource"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			require.Equal(t, http.StatusOK, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, TokenIdentity, body["username"])
			assert.Equal(t, AuthMethodToken, body["method"])
		})
	}
}

func TestRequireAuth_Rejects(t *testing.T) {
	tests := []struct {
		name   string
		header string
		query  string
	}{
		{name: "no credentials"},
		{name: "wrong token", header: "token nope"},
		{name: "unknown scheme", header: "Basic " + testServerToken},
		{name: "wrong query token", query: "?token=nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newProtectedRouter(t)

			req := httptest.NewRequest("GET", "/resource"+tt.query, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			body := decodeBody(t, w)
			assert.Equal(t, "UNAUTHORIZED", body["code"])
			assert.Equal(t, "Authentication required", body["message"])
		})
	}
}

func TestRequireAuth_EmptyServerTokenDisablesTokenAuth(t *testing.T) {
	router := newTestRouter()
	router.GET("/resource", RequireAuth(""), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	req := httptest.NewRequest("GET", "/resource?token=", nil)
	req.Header.Set("Authorization", "token ")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireAuth_IgnoresNonStringSessionValue(t *testing.T) {
	router := newProtectedRouter(t)
	sessionCookie := setSessionCookie(t, router, map[string]interface{}{UsernameKey: 42})

	req := httptest.NewRequest("GET", "/resource", nil)
	req.AddCookie(sessionCookie)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestTokenMatches(t *testing.T) {
	assert.True(t, TokenMatches("abc", "abc"))
	assert.False(t, TokenMatches("abc", "abd"))
	assert.False(t, TokenMatches("abc", "ab"))
	assert.False(t, TokenMatches("", ""))
	assert.False(t, TokenMatches("abc", ""))
}
