package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"

	"jupyterchat/internal/config"
	"jupyterchat/internal/observability"
	contextutils "jupyterchat/internal/utils"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// maxUpstreamErrorBody caps how much of a failed upstream response is kept for the error message
const maxUpstreamErrorBody = 512

// FeedbackSubmission is the payload posted to the feedback logging flow.
// The flow receives exactly the four fields the chat front-end collects.
type FeedbackSubmission struct {
	ConversationID string `json:"conversation_id"`
	Question       string `json:"question"`
	Answer         string `json:"answer"`
	Feedback       string `json:"feedback"`

	// Username is logged and traced but never sent upstream
	Username string `json:"-"`
}

// FeedbackRelayInterface forwards chat feedback to the configured logging flow
type FeedbackRelayInterface interface {
	Configured() bool
	Relay(ctx context.Context, submission FeedbackSubmission) error
}

// FeedbackRelay posts feedback to the Power Automate flow named in chat.power_automate_flows.feedback_logging
type FeedbackRelay struct {
	config     *config.Config
	httpClient *http.Client
	logger     *observability.Logger
}

// NewFeedbackRelay creates a relay using an OpenTelemetry instrumented HTTP client
func NewFeedbackRelay(cfg *config.Config, logger *observability.Logger) *FeedbackRelay {
	return NewFeedbackRelayWithClient(cfg, logger, &http.Client{
		Timeout: config.FeedbackRelayTimeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithSpanOptions(trace.WithSpanKind(trace.SpanKindClient)),
		),
	})
}

// NewFeedbackRelayWithClient creates a relay with a custom HTTP client (for testing)
func NewFeedbackRelayWithClient(cfg *config.Config, logger *observability.Logger, client *http.Client) *FeedbackRelay {
	if logger == nil {
		logger = observability.NewNopLogger()
	}
	return &FeedbackRelay{config: cfg, httpClient: client, logger: logger}
}

// Configured reports whether a feedback URL is set
func (s *FeedbackRelay) Configured() bool {
	return s.config.FeedbackURL() != ""
}

// Relay posts the submission as JSON. A missing URL is SERVICE_UNAVAILABLE, a
// non-2xx answer or transport failure is UPSTREAM_FAILED, a timeout is REQUEST_TIMEOUT.
func (s *FeedbackRelay) Relay(ctx context.Context, submission FeedbackSubmission) (err error) {
	ctx, span := observability.TraceServiceFunction(ctx, "relay_feedback",
		attribute.String("feedback.conversation_id", submission.ConversationID),
	)
	defer observability.FinishSpan(span, &err)

	url := s.config.FeedbackURL()
	if url == "" {
		return contextutils.WrapError(contextutils.ErrServiceUnavailable, "feedback logging is not configured")
	}

	body, err := json.Marshal(submission)
	if err != nil {
		return contextutils.WrapError(err, "failed to marshal feedback")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return contextutils.WrapErrorf(contextutils.ErrInternalError, "failed to create feedback request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "jupyterchat/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return contextutils.WrapErrorf(contextutils.ErrTimeout, "feedback flow did not answer in time: %w", err)
		}
		return contextutils.WrapErrorf(contextutils.ErrUpstreamFailed, "failed to reach feedback flow: %w", err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			s.logger.Warn(ctx, "Failed to close response body", map[string]interface{}{"error": closeErr.Error()})
		}
	}()

	span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxUpstreamErrorBody))
		s.logger.Warn(ctx, "Feedback flow rejected submission", map[string]interface{}{
			"status":   resp.StatusCode,
			"flow_url": contextutils.MaskSecret(url),
		})
		return contextutils.NewAppError(
			contextutils.ErrorCodeUpstreamFailed,
			contextutils.SeverityError,
			"Feedback flow rejected the submission",
			http.StatusText(resp.StatusCode)+": "+string(snippet),
		)
	}
	_, _ = io.Copy(io.Discard, resp.Body)

	s.logger.Info(ctx, "Relayed chat feedback", map[string]interface{}{
		"conversation_id": submission.ConversationID,
		"status":          resp.StatusCode,
		"user":            submission.Username,
	})
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
