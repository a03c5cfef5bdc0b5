package notifier

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// WebhookPayload is posted to chat-style incoming webhooks.
type WebhookPayload struct {
	Text     string `json:"text"`
	Kind     Kind   `json:"kind"`
	Key      string `json:"key"`
	Username string `json:"username"`
}

// WebhookSender posts JSON to a fixed URL.
type WebhookSender struct {
	url    string
	client *resty.Client
}

func NewWebhookSender(url string) *WebhookSender {
	return &WebhookSender{
		url: url,
		client: resty.New().
			SetTimeout(10 * time.Second).
			SetRetryCount(2).
			SetRetryWaitTime(500 * time.Millisecond).
			SetRetryMaxWaitTime(2 * time.Second).
			SetHeader("Content-Type", "application/json").
			SetHeader("Accept", "application/json"),
	}
}

func (s *WebhookSender) Send(ctx context.Context, msg Message) error {
	res, err := s.client.R().
		SetContext(ctx).
		SetBody(WebhookPayload{
			Text:     msg.Title + ": " + msg.Text,
			Kind:     msg.Kind,
			Key:      msg.Key,
			Username: msg.Username,
		}).
		Post(s.url)
	if err != nil {
		return fmt.Errorf("failed to call webhook: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("webhook returned status %d: %s", res.StatusCode(), res.String())
	}
	return nil
}
