package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf16"

	"github.com/projectannie/contactd/internal/api/sanitization"
)

const (
	defaultTelegramBaseURL = "https://api.telegram.org"
	// Telegram rejects messages whose parsed text is longer than this many
	// UTF-16 code units
	telegramMaxText = 4096
)

// TelegramDispatcher posts notifications into an operator chat. Telegram only
// understands a handful of HTML tags, so it sends the plain-text alternative.
type TelegramDispatcher struct {
	botToken string
	chatID   string
	baseURL  string
	client   *http.Client
}

// NewTelegramDispatcher creates a Telegram dispatcher
func NewTelegramDispatcher(cfg Config) (*TelegramDispatcher, error) {
	if cfg.TelegramBotToken == "" || cfg.TelegramChatID == "" {
		return nil, fmt.Errorf("%w: telegram bot token or chat ID not set", ErrNotConfigured)
	}

	baseURL := cfg.TelegramBaseURL
	if baseURL == "" {
		baseURL = defaultTelegramBaseURL
	}

	return &TelegramDispatcher{
		botToken: cfg.TelegramBotToken,
		chatID:   cfg.TelegramChatID,
		baseURL:  strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: timeoutOrDefault(cfg.Timeout),
		},
	}, nil
}

// telegramMessage represents a Telegram API message
type telegramMessage struct {
	ChatID    string `json:"chat_id"`
	Text      string `json:"text"`
	ParseMode string `json:"parse_mode,omitempty"`
}

type telegramResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description"`
	Result      struct {
		MessageID int64 `json:"message_id"`
	} `json:"result"`
}

// Send posts the message and returns the Telegram message id
func (d *TelegramDispatcher) Send(ctx context.Context, msg Message) (string, error) {
	text := telegramText(msg)

	payload := telegramMessage{
		ChatID:    d.chatID,
		Text:      text,
		ParseMode: "HTML",
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal telegram message: %w", err)
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendMessage", d.baseURL, d.botToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("failed to create telegram request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		// The request URL carries the bot token; keep it out of logs.
		return "", fmt.Errorf("failed to send telegram message: %w", redactURLError(err))
	}
	defer resp.Body.Close()

	var result telegramResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil && resp.StatusCode == http.StatusOK {
		return "", fmt.Errorf("failed to parse telegram response: %w", err)
	}

	if resp.StatusCode != http.StatusOK || !result.OK {
		return "", fmt.Errorf("telegram API returned status %d: %s", resp.StatusCode, result.Description)
	}

	return strconv.FormatInt(result.Result.MessageID, 10), nil
}

// telegramText renders msg in Telegram's HTML mode. The body is shortened
// before escaping so entities and tags stay intact; the header and the
// reply-to line are always kept.
func telegramText(msg Message) string {
	header := "🆕 " + msg.Subject + "\n\n"
	footer := ""
	if msg.ReplyTo != "" {
		footer = "\n\nReply to: " + msg.ReplyTo
	}

	budget := telegramMaxText - utf16Len(header) - utf16Len(footer)
	body := truncateUTF16(msg.Text, budget)

	var b strings.Builder
	fmt.Fprintf(&b, "🆕 <b>%s</b>\n\n%s", sanitization.EscapeHTML(msg.Subject), sanitization.EscapeHTML(body))
	if msg.ReplyTo != "" {
		fmt.Fprintf(&b, "\n\n<b>Reply to:</b> %s", sanitization.EscapeHTML(msg.ReplyTo))
	}
	return b.String()
}

func utf16Len(s string) int {
	n := 0
	for _, r := range s {
		n += utf16.RuneLen(r)
	}
	return n
}

// truncateUTF16 cuts s at a rune boundary so that it fits in max UTF-16 code
// units including the trailing ellipsis
func truncateUTF16(s string, max int) string {
	if utf16Len(s) <= max {
		return s
	}
	if max <= 0 {
		return ""
	}

	const ellipsis = "…"
	limit := max - utf16Len(ellipsis)
	n := 0
	for i, r := range s {
		n += utf16.RuneLen(r)
		if n > limit {
			return s[:i] + ellipsis
		}
	}
	return s
}

// redactURLError drops the request URL from a client error
func redactURLError(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s telegram API: %w", urlErr.Op, urlErr.Err)
	}
	return err
}
