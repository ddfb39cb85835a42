package handlers

import (
	"net/http"

	"jupyterchat/internal/config"
	"jupyterchat/internal/middleware"
	"jupyterchat/internal/observability"
	contextutils "jupyterchat/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/crypto/bcrypt"
)

// PasswordIdentity is the identity given to callers that log in with the server password
const PasswordIdentity = "user"

// AuthMethodPassword marks sessions started with the server password
const AuthMethodPassword = "password"

// LoginRequest is the body of POST <base>/login
type LoginRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

// AuthStatusResponse reports who the caller is
type AuthStatusResponse struct {
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username,omitempty"`
	AuthMethod    string `json:"auth_method,omitempty"`
}

// AuthHandler handles authentication related HTTP requests
type AuthHandler struct {
	config *config.Config
	logger *observability.Logger
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(cfg *config.Config, logger *observability.Logger) *AuthHandler {
	return &AuthHandler{
		config: cfg,
		logger: logger,
	}
}

// Login starts a session for a caller presenting the server token or password
func (h *AuthHandler) Login(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "login")
	defer observability.FinishSpan(span, nil)

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		HandleAppError(c, contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeInvalidInput,
			contextutils.SeverityWarn,
			"Invalid request body",
			"",
			err,
		))
		return
	}

	span.SetAttributes(
		attribute.Bool("auth.token_provided", req.Token != ""),
		attribute.Bool("auth.password_provided", req.Password != ""),
	)

	if req.Token == "" && req.Password == "" {
		HandleAppError(c, contextutils.WrapError(contextutils.ErrMissingRequired, "token or password is required"))
		return
	}

	identity, method := h.authenticate(req)
	if identity == "" {
		h.logger.Warn(ctx, "Login failed", map[string]interface{}{
			"client_ip": c.ClientIP(),
		})
		HandleAppError(c, contextutils.ErrInvalidCredentials)
		return
	}

	session := sessions.Default(c)
	session.Set(middleware.UsernameKey, identity)
	if err := session.Save(); err != nil {
		h.logger.Error(ctx, "Failed to save session", err)
		HandleAppError(c, contextutils.WrapError(err, "failed to create session"))
		return
	}

	span.SetAttributes(attribute.String("auth.method", method))
	h.logger.Info(ctx, "Login successful", map[string]interface{}{
		"username":    identity,
		"auth_method": method,
	})

	c.JSON(http.StatusOK, AuthStatusResponse{
		Authenticated: true,
		Username:      identity,
		AuthMethod:    method,
	})
}

// authenticate returns the identity and method for valid credentials, or "" when none match
func (h *AuthHandler) authenticate(req LoginRequest) (string, string) {
	if req.Token != "" && middleware.TokenMatches(h.config.Server.Token, req.Token) {
		return middleware.TokenIdentity, middleware.AuthMethodToken
	}
	if req.Password != "" && h.config.Server.PasswordHash != "" {
		if bcrypt.CompareHashAndPassword([]byte(h.config.Server.PasswordHash), []byte(req.Password)) == nil {
			return PasswordIdentity, AuthMethodPassword
		}
	}
	return "", ""
}

// Logout clears the session
func (h *AuthHandler) Logout(c *gin.Context) {
	_, span := observability.TraceHandlerFunction(c.Request.Context(), "logout")
	defer observability.FinishSpan(span, nil)

	if username, ok := GetUsernameFromSession(c); ok {
		span.SetAttributes(attribute.String("user.username", username))
	}

	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: config.SessionPath, MaxAge: -1})
	if err := session.Save(); err != nil {
		HandleAppError(c, contextutils.WrapError(err, "failed to clear session"))
		return
	}

	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

// Me reports the identity set by the auth middleware
func (h *AuthHandler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, AuthStatusResponse{
		Authenticated: true,
		Username:      c.GetString(middleware.UsernameKey),
		AuthMethod:    c.GetString(middleware.AuthMethodKey),
	})
}
