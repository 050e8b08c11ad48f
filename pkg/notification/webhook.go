package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"shiftboard/internal/model"
	"shiftboard/pkg/config"
	"shiftboard/pkg/logger"
)

// WebhookNotifier posts engine notifications to an external HTTP endpoint
type WebhookNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewWebhookNotifier creates a notifier for url. An empty url disables delivery.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		webhookURL: url,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// NewWebhookNotifierFromConfig resolves the URL with priority: config file > environment variable
func NewWebhookNotifierFromConfig(cfg config.NotificationConfig) *WebhookNotifier {
	url := cfg.WebhookURL
	if url != "" {
		logger.Info("Using notification webhook URL from config file")
	} else {
		url = os.Getenv("NOTIFICATION_WEBHOOK_URL")
		if url != "" {
			logger.Info("Using notification webhook URL from environment variable")
		}
	}
	if url == "" {
		logger.Warn("Notification webhook URL not configured (check config file or NOTIFICATION_WEBHOOK_URL env), notifications will be dropped")
	}
	return NewWebhookNotifier(url)
}

// Enabled reports whether a webhook URL is configured
func (w *WebhookNotifier) Enabled() bool {
	return w.webhookURL != ""
}

// webhookMessage is the body the endpoint receives
type webhookMessage struct {
	Event        string                 `json:"event"`
	ID           string                 `json:"id"`
	RecipientID  string                 `json:"recipient_id,omitempty"`
	OfferID      string                 `json:"offer_id,omitempty"`
	AssignmentID string                 `json:"assignment_id,omitempty"`
	ActorID      string                 `json:"actor_id,omitempty"`
	Data         map[string]interface{} `json:"data,omitempty"`
	OccurredAt   time.Time              `json:"occurred_at"`
}

// Send posts n as JSON. Non-2xx responses are errors so the queue can retry.
func (w *WebhookNotifier) Send(ctx context.Context, n *model.Notification) error {
	if w.webhookURL == "" {
		logger.DebugCtx(ctx, "notification webhook not configured, skipping %s", n.Type)
		return nil
	}

	payload, err := json.Marshal(webhookMessage{
		Event:        n.Type,
		ID:           n.ID,
		RecipientID:  n.RecipientID,
		OfferID:      n.OfferID,
		AssignmentID: n.AssignmentID,
		ActorID:      n.ActorID,
		Data:         n.Data,
		OccurredAt:   n.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.webhookURL, bytes.NewBuffer(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Shiftboard-Event", n.Type)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("notification webhook returned status code: %d", resp.StatusCode)
	}

	logger.InfoCtx(ctx, "notification %s (%s) delivered to %s", n.ID, n.Type, n.RecipientID)
	return nil
}
