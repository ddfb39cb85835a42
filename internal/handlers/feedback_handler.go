package handlers

import (
	"net/http"
	"strings"

	"jupyterchat/internal/observability"
	"jupyterchat/internal/services"
	contextutils "jupyterchat/internal/utils"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/attribute"
)

// Feedback outcomes recorded by metrics
const (
	feedbackSubmitted     = "submitted"
	feedbackNotConfigured = "not_configured"
	feedbackInvalid       = "invalid"
	feedbackFailed        = "failed"
)

// FeedbackRequest is the body of POST <base>/jupyterlab-chat/feedback
type FeedbackRequest struct {
	ConversationID string `json:"conversation_id"`
	Question       string `json:"question"`
	Answer         string `json:"answer"`
	Feedback       string `json:"feedback" binding:"required"`
}

// FeedbackHandler forwards feedback on chat answers to the logging flow
type FeedbackHandler struct {
	relay   services.FeedbackRelayInterface
	metrics *observability.ServerMetrics
	logger  *observability.Logger
}

// NewFeedbackHandler creates a new FeedbackHandler instance
func NewFeedbackHandler(relay services.FeedbackRelayInterface, metrics *observability.ServerMetrics, logger *observability.Logger) *FeedbackHandler {
	return &FeedbackHandler{
		relay:   relay,
		metrics: metrics,
		logger:  logger,
	}
}

// SubmitFeedback relays the submission and answers 202 once the flow accepted it
func (h *FeedbackHandler) SubmitFeedback(c *gin.Context) {
	ctx, span := observability.TraceHandlerFunction(c.Request.Context(), "submit_feedback")
	var err error
	defer func() { observability.FinishSpan(span, &err) }()

	var req FeedbackRequest
	if err = c.ShouldBindJSON(&req); err != nil {
		h.metrics.RecordFeedback(ctx, feedbackInvalid)
		HandleAppError(c, contextutils.NewAppErrorWithCause(
			contextutils.ErrorCodeInvalidInput,
			contextutils.SeverityWarn,
			"Invalid request body",
			err.Error(),
			err,
		))
		return
	}
	if strings.TrimSpace(req.Feedback) == "" {
		err = contextutils.WrapError(contextutils.ErrValidationFailed, "feedback must not be blank")
		h.metrics.RecordFeedback(ctx, feedbackInvalid)
		HandleAppError(c, err)
		return
	}

	span.SetAttributes(attribute.String("feedback.conversation_id", req.ConversationID))

	err = h.relay.Relay(ctx, services.FeedbackSubmission{
		ConversationID: req.ConversationID,
		Question:       req.Question,
		Answer:         req.Answer,
		Feedback:       req.Feedback,
		Username:       contextutils.GetUsernameFromContext(ctx),
	})
	if err != nil {
		outcome := feedbackFailed
		if contextutils.IsError(err, contextutils.ErrServiceUnavailable) {
			outcome = feedbackNotConfigured
		}
		h.metrics.RecordFeedback(ctx, outcome)
		h.logger.Error(ctx, "Failed to relay feedback", err, map[string]interface{}{
			"conversation_id": req.ConversationID,
			"outcome":         outcome,
		})
		HandleAppError(c, err)
		return
	}

	h.metrics.RecordFeedback(ctx, feedbackSubmitted)
	c.JSON(http.StatusAccepted, gin.H{"status": feedbackSubmitted})
}
