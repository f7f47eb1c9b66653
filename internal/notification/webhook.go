// internal/notification/webhook.go
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// WebhookSender mirrors emitted notifications to an external delivery
// channel over HTTP. It is strictly best effort; the core never observes
// delivery outcomes.
type WebhookSender struct {
	URL    string
	HTTP   *http.Client
	Logger *zap.Logger
}

func NewWebhookSender(url string, logger *zap.Logger) *WebhookSender {
	return &WebhookSender{
		URL:    url,
		HTTP:   &http.Client{Timeout: 5 * time.Second},
		Logger: logger,
	}
}

type webhookPayload struct {
	UserID        string `json:"user_id"`
	Type          string `json:"type"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	RelatedItemID string `json:"related_item_id,omitempty"`
}

// Send posts the notification to the configured URL, logging and
// discarding any failure.
func (s *WebhookSender) Send(n *Notification) {
	p := webhookPayload{
		UserID:  n.UserID.String(),
		Type:    n.Type,
		Title:   n.Title,
		Content: n.Content,
	}
	if n.RelatedItemID != nil {
		p.RelatedItemID = n.RelatedItemID.String()
	}

	b, err := json.Marshal(p)
	if err != nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(b))
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.HTTP.Do(req)
	if err != nil {
		s.Logger.Warn("notification webhook delivery failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		s.Logger.Warn("notification webhook rejected", zap.Int("status", resp.StatusCode))
	}
}
