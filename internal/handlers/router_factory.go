package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"jupyterchat/internal/config"
	"jupyterchat/internal/middleware"
	"jupyterchat/internal/observability"
	"jupyterchat/internal/services"
	"jupyterchat/internal/version"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/secure"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
)

// IMPORTANT: When adding new endpoints under the base URL, document them in
// internal/middleware/api.yaml. Undocumented calls are rejected with 404,
// and NewRouter logs a warning for every route the document is missing.

// NewRouter creates the gin engine with all middleware and the chat extension routes
func NewRouter(
	cfg *config.Config,
	feedbackRelay services.FeedbackRelayInterface,
	metrics *observability.ServerMetrics,
	logger *observability.Logger,
) (*gin.Engine, error) {
	if logger == nil {
		logger = observability.NewNopLogger()
	}

	schemaLoader, err := middleware.LoadDefaultSchemas()
	if err != nil {
		return nil, err
	}

	if cfg.Server.Debug {
		gin.SetMode(gin.DebugMode)
	} else if gin.Mode() != gin.TestMode {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(middleware.ErrorRecoveryMiddleware(logger))
	router.Use(requestLoggingMiddleware(logger))

	// Health check endpoint (defined before tracing and auth)
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "service": cfg.OpenTelemetry.ServiceName})
	})

	router.Use(observability.GinMiddleware(cfg.OpenTelemetry.ServiceName))
	router.Use(observability.SpanErrorMiddleware())

	// Disable automatic redirection for trailing slashes, which is better for APIs
	router.RedirectTrailingSlash = false

	if len(cfg.Server.CORSOrigins) > 0 {
		corsConfig := cors.DefaultConfig()
		corsConfig.AllowOrigins = cfg.Server.CORSOrigins
		corsConfig.AllowCredentials = true
		corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Requested-With", "X-XSRFToken"}
		corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
		router.Use(cors.New(corsConfig))
	}

	store := cookie.NewStore([]byte(cfg.Server.SessionSecret))
	sessionOpts := sessions.Options{
		Path:     config.SessionPath,
		MaxAge:   int(config.SessionMaxAge.Seconds()),
		HttpOnly: config.SessionHTTPOnly,
		Secure:   config.SessionSecure,
	}
	if cfg.Server.Debug {
		sessionOpts.SameSite = http.SameSiteDefaultMode
	} else {
		sessionOpts.SameSite = http.SameSiteLaxMode
		sessionOpts.Secure = true
	}
	store.Options(sessionOpts)
	router.Use(sessions.Sessions(config.SessionName, store))

	secureConfig := secure.DefaultConfig()
	secureConfig.SSLRedirect = false
	secureConfig.IsDevelopment = cfg.Server.Debug
	secureConfig.ContentSecurityPolicy = config.DefaultCSP
	router.Use(secure.New(secureConfig))

	router.NoRoute(func(c *gin.Context) {
		StandardizeHTTPError(c, http.StatusNotFound, "Endpoint not found", c.Request.URL.Path)
	})

	basePath := URLPathJoin(cfg.Server.BaseURL, "/")
	authHandler := NewAuthHandler(cfg, logger)
	chatConfigHandler := NewChatConfigHandler(cfg, metrics, logger)
	feedbackHandler := NewFeedbackHandler(feedbackRelay, metrics, logger)
	requireAuth := middleware.RequireAuth(cfg.Server.Token)

	prefix := strings.TrimSuffix(basePath, "/")
	validation := []gin.HandlerFunc{
		middleware.RequestValidationMiddleware(schemaLoader, basePath, logger),
		middleware.ResponseValidationMiddleware(schemaLoader, basePath, logger),
	}

	public := router.Group(prefix, validation...)
	{
		public.GET("/api/version", func(c *gin.Context) {
			c.JSON(http.StatusOK, version.Info(cfg.OpenTelemetry.ServiceName))
		})
		public.POST("/login", authHandler.Login)
		public.POST("/logout", authHandler.Logout)
	}

	// Anonymous callers get 401 before any validation runs
	authed := router.Group(prefix, append([]gin.HandlerFunc{requireAuth}, validation...)...)
	{
		authed.GET("/api/me", authHandler.Me)
		authed.GET("/jupyterlab-chat/config", chatConfigHandler.GetConfig)
		authed.POST("/jupyterlab-chat/feedback", feedbackHandler.SubmitFeedback)
	}

	for _, route := range UndocumentedRoutes(CollectRoutes(router), schemaLoader, basePath) {
		logger.Warn(context.Background(), "Route is missing from the API document", map[string]interface{}{
			"method":  route.Method,
			"path":    route.Path,
			"handler": route.HandlerName,
		})
	}

	return router, nil
}

// requestLoggingMiddleware logs every request through the observability logger,
// at warn level for 4xx and error level for 5xx
func requestLoggingMiddleware(logger *observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		statusCode := c.Writer.Status()
		fields := map[string]interface{}{
			"http.method":      c.Request.Method,
			"http.path":        c.Request.URL.Path,
			"http.status_code": statusCode,
			"http.latency_ms":  time.Since(start).Milliseconds(),
			"http.client_ip":   c.ClientIP(),
			"http.user_agent":  c.Request.UserAgent(),
		}
		if len(c.Errors) > 0 {
			fields["http.error"] = c.Errors.String()
		}

		switch {
		case statusCode >= 500:
			fields["http.error_type"] = "server_error"
			logger.Error(c.Request.Context(), "HTTP request failed", nil, fields)
		case statusCode >= 400:
			fields["http.error_type"] = "client_error"
			logger.Warn(c.Request.Context(), "HTTP request warning", fields)
		default:
			logger.Info(c.Request.Context(), "HTTP request", fields)
		}
	}
}
