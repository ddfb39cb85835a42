package handlers

import (
	"jupyterchat/internal/middleware"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

// GetUsernameFromSession retrieves the logged-in identity from the session.
// Returns ("", false) if not logged in or if the stored value is invalid.
func GetUsernameFromSession(c *gin.Context) (string, bool) {
	session := sessions.Default(c)
	username, ok := session.Get(middleware.UsernameKey).(string)
	if !ok || username == "" {
		return "", false
	}
	return username, true
}
