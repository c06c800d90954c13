// Package notify delivers operator notifications for accepted contact form
// submissions.
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotConfigured is returned when a dispatcher is missing credentials
var ErrNotConfigured = errors.New("notification dispatcher not configured")

// Providers
const (
	ProviderResend   = "resend"
	ProviderTelegram = "telegram"
)

const defaultTimeout = 10 * time.Second

// Message is a single outbound notification. HTML must already be escaped;
// Text is the plain-text alternative with raw values.
type Message struct {
	From    string
	To      string
	ReplyTo string
	Subject string
	HTML    string
	Text    string
}

// Dispatcher sends a message and returns the provider's message id, which may
// be empty. Send must return once ctx is done.
type Dispatcher interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Config holds credentials for every supported provider
type Config struct {
	Provider string

	ResendAPIKey  string
	ResendBaseURL string

	TelegramBotToken string
	TelegramChatID   string
	TelegramBaseURL  string

	// Timeout bounds a single HTTP call to the provider
	Timeout time.Duration
}

// New builds the dispatcher selected by cfg.Provider
func New(cfg Config) (Dispatcher, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "", ProviderResend:
		return NewResendDispatcher(cfg)
	case ProviderTelegram:
		return NewTelegramDispatcher(cfg)
	default:
		return nil, fmt.Errorf("unknown notification provider %q", cfg.Provider)
	}
}

func timeoutOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return defaultTimeout
	}
	return d
}
