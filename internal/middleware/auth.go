// Package middleware provides authentication, error recovery and schema validation middleware for the Gin web framework.
package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	contextutils "jupyterchat/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// Session and context keys for the authenticated identity
const (
	// UsernameKey is the key used to store the identity in the session and gin context
	UsernameKey = "username"
	// AuthMethodKey records how the request authenticated
	AuthMethodKey = "auth_method"
)

// Authentication methods
const (
	AuthMethodSession = "session"
	AuthMethodToken   = "token"
)

// TokenIdentity is the identity given to callers that present the server token
const TokenIdentity = "token"

// RequireAuth returns a middleware that accepts either a logged-in session or
// the server token, given as "Authorization: token <t>", "Authorization: Bearer <t>"
// or a "token" query parameter. An empty serverToken disables token auth.
func RequireAuth(serverToken string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, method := "", ""

		session := sessions.Default(c)
		if username, ok := session.Get(UsernameKey).(string); ok && username != "" {
			identity, method = username, AuthMethodSession
		} else if TokenMatches(serverToken, RequestToken(c.Request)) {
			identity, method = TokenIdentity, AuthMethodToken
		}

		if identity == "" {
			StandardizeAppError(c, contextutils.NewAppError(
				contextutils.ErrorCodeUnauthorized,
				contextutils.SeverityWarn,
				"Authentication required",
				"",
			))
			c.Abort()
			return
		}

		c.Set(UsernameKey, identity)
		c.Set(AuthMethodKey, method)
		c.Request = c.Request.WithContext(contextutils.WithUsername(c.Request.Context(), identity))

		c.Next()
	}
}

// RequestToken extracts a token from the Authorization header or the token query parameter
func RequestToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, value, found := strings.Cut(header, " ")
		if found && (strings.EqualFold(scheme, "token") || strings.EqualFold(scheme, "bearer")) {
			return strings.TrimSpace(value)
		}
	}
	return r.URL.Query().Get("token")
}

// TokenMatches compares a presented token with the expected one in constant time.
// An empty expected token never matches.
func TokenMatches(expected, presented string) bool {
	if expected == "" || presented == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(expected), []byte(presented)) == 1
}
