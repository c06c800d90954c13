package notify

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/resend/resend-go/v2"
)

// ResendDispatcher sends email through the Resend API
type ResendDispatcher struct {
	client *resend.Client
}

// NewResendDispatcher creates a Resend dispatcher. It fails with
// ErrNotConfigured when no API key is set.
func NewResendDispatcher(cfg Config) (*ResendDispatcher, error) {
	if cfg.ResendAPIKey == "" {
		return nil, fmt.Errorf("%w: RESEND_API_KEY is not set", ErrNotConfigured)
	}

	httpClient := &http.Client{
		Timeout: timeoutOrDefault(cfg.Timeout),
	}
	client := resend.NewCustomClient(httpClient, cfg.ResendAPIKey)

	if cfg.ResendBaseURL != "" {
		// Request paths are resolved relative to the base URL.
		baseURL, err := url.Parse(strings.TrimRight(cfg.ResendBaseURL, "/") + "/")
		if err != nil {
			return nil, fmt.Errorf("invalid RESEND_BASE_URL: %w", err)
		}
		client.BaseURL = baseURL
	}

	return &ResendDispatcher{client: client}, nil
}

// Send delivers the message and returns Resend's email id
func (d *ResendDispatcher) Send(ctx context.Context, msg Message) (string, error) {
	params := &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		ReplyTo: msg.ReplyTo,
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	}

	sent, err := d.client.Emails.SendWithContext(ctx, params)
	if err != nil {
		return "", fmt.Errorf("failed to send resend email: %w", err)
	}
	return sent.Id, nil
}
