package handlers

import (
	"net/http"

	"jupyterchat/internal/config"
	"jupyterchat/internal/observability"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// ConfigResponse is the body of GET <base>/jupyterlab-chat/config
type ConfigResponse struct {
	FeedbackURL string `json:"feedbackUrl"`
}

// ChatConfigHandler exposes server-side settings to the chat front-end
type ChatConfigHandler struct {
	config  *config.Config
	metrics *observability.ServerMetrics
	logger  *observability.Logger
}

// NewChatConfigHandler creates a new ChatConfigHandler instance
func NewChatConfigHandler(cfg *config.Config, metrics *observability.ServerMetrics, logger *observability.Logger) *ChatConfigHandler {
	return &ChatConfigHandler{
		config:  cfg,
		metrics: metrics,
		logger:  logger,
	}
}

// GetConfig returns the feedback URL exactly as configured, or "" when unset
func (h *ChatConfigHandler) GetConfig(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "get_chat_config")
	defer observability.FinishSpan(span, nil)

	feedbackURL := h.config.FeedbackURL()
	span.SetAttributes(attribute.Bool("chat.feedback_configured", feedbackURL != ""))
	h.metrics.RecordConfigRequest(ctx, feedbackURL != "")

	c.JSON(http.StatusOK, ConfigResponse{FeedbackURL: feedbackURL})
}
