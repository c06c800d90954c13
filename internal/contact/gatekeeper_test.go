package contact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/projectannie/contactd/internal/logging"
	"github.com/projectannie/contactd/internal/notify"
	"github.com/projectannie/contactd/internal/ratelimit"
)

type recordingDispatcher struct {
	mu   sync.Mutex
	sent []notify.Message
	id   string
	err  error
}

func (d *recordingDispatcher) Send(_ context.Context, msg notify.Message) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, msg)
	return d.id, d.err
}

func (d *recordingDispatcher) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

// blockingDispatcher never answers before its context is done
type blockingDispatcher struct{}

func (blockingDispatcher) Send(ctx context.Context, _ notify.Message) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

type failingStore struct{}

func (failingStore) Hit(context.Context, string) (ratelimit.Decision, error) {
	return ratelimit.Decision{}, errors.New("connection refused")
}

func (failingStore) SweepExpired(context.Context) (int, error) { return 0, nil }

func validPayload() map[string]any {
	return map[string]any{
		"name":    "Jane Doe",
		"email":   "jane@example.com",
		"phone":   "+1 555 0100",
		"subject": "volunteer",
		"message": "I would love to help on weekends.",
	}
}

func encode(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}

func newTestGatekeeper(d notify.Dispatcher, opts ...Option) *Gatekeeper {
	store := ratelimit.NewMemoryStore(ratelimit.DefaultPolicy())
	opts = append([]Option{WithLogger(logging.NewDiscardLogger())}, opts...)
	return NewGatekeeper(store, d, Config{To: "office@example.org", From: "Forms <forms@example.org>"}, opts...)
}

func requireKind(t *testing.T, err error, kind Kind) *Error {
	t.Helper()
	require.Error(t, err)
	var cerr *Error
	require.True(t, errors.As(err, &cerr), "expected *Error, got %T", err)
	require.Equal(t, kind, cerr.Kind, "message: %s", cerr.Message)
	return cerr
}

func TestHandleSubmission_Accepted(t *testing.T) {
	d := &recordingDispatcher{id: "msg-123"}
	g := newTestGatekeeper(d)

	res, err := g.HandleSubmission(context.Background(), "203.0.113.7", encode(t, validPayload()))
	require.NoError(t, err)
	assert.Equal(t, "msg-123", res.ID)
	assert.False(t, res.Bot)

	require.Equal(t, 1, d.count())
	msg := d.sent[0]
	assert.Equal(t, "office@example.org", msg.To)
	assert.Equal(t, "Forms <forms@example.org>", msg.From)
	assert.Equal(t, "jane@example.com", msg.ReplyTo)
	assert.Equal(t, "[Contact Form] Volunteering - from Jane Doe", msg.Subject)
	assert.Contains(t, msg.HTML, `<a href="mailto:jane@example.com"`)
	assert.Contains(t, msg.HTML, `<a href="tel:+1 555 0100"`)
	assert.Contains(t, msg.HTML, "Volunteering")
	assert.Contains(t, msg.HTML, "I would love to help on weekends.")
	assert.Contains(t, msg.Text, "Phone: +1 555 0100")
}

func TestHandleSubmission_DefaultRecipient(t *testing.T) {
	d := &recordingDispatcher{}
	store := ratelimit.NewMemoryStore(ratelimit.DefaultPolicy())
	g := NewGatekeeper(store, d, Config{}, WithLogger(logging.NewDiscardLogger()))

	res, err := g.HandleSubmission(context.Background(), "client", encode(t, validPayload()))
	require.NoError(t, err)
	assert.Empty(t, res.ID)
	require.Equal(t, 1, d.count())
	assert.Equal(t, DefaultTo, d.sent[0].To)
	assert.Equal(t, DefaultFrom, d.sent[0].From)
}

func TestHandleSubmission_PhoneOmitted(t *testing.T) {
	d := &recordingDispatcher{}
	g := newTestGatekeeper(d)

	p := validPayload()
	delete(p, "phone")
	_, err := g.HandleSubmission(context.Background(), "client", encode(t, p))
	require.NoError(t, err)

	require.Equal(t, 1, d.count())
	assert.NotContains(t, d.sent[0].HTML, "tel:")
	assert.NotContains(t, d.sent[0].Text, "Phone:")
}

func TestHandleSubmission_Validation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(p map[string]any)
		message string
	}{
		{"missing name", func(p map[string]any) { delete(p, "name") }, MsgMissingFields},
		{"empty email", func(p map[string]any) { p["email"] = "" }, MsgMissingFields},
		{"missing subject", func(p map[string]any) { delete(p, "subject") }, MsgMissingFields},
		{"missing message", func(p map[string]any) { delete(p, "message") }, MsgMissingFields},
		{"missing beats too long", func(p map[string]any) {
			p["name"] = strings.Repeat("a", 101)
			delete(p, "message")
		}, MsgMissingFields},
		{"name 101", func(p map[string]any) { p["name"] = strings.Repeat("a", 101) }, MsgNameTooLong},
		{"email 255", func(p map[string]any) { p["email"] = strings.Repeat("e", 255) }, MsgEmailTooLong},
		{"message 5001", func(p map[string]any) { p["message"] = strings.Repeat("m", 5001) }, MsgMessageTooLong},
		{"phone 51", func(p map[string]any) { p["phone"] = strings.Repeat("5", 51) }, MsgPhoneTooLong},
		{"bad subject", func(p map[string]any) { p["subject"] = "hacking" }, MsgInvalidSubject},
		{"name before email", func(p map[string]any) {
			p["name"] = strings.Repeat("a", 101)
			p["email"] = strings.Repeat("e", 255)
		}, MsgNameTooLong},
		{"length before subject", func(p map[string]any) {
			p["message"] = strings.Repeat("m", 5001)
			p["subject"] = "hacking"
		}, MsgMessageTooLong},
		{"numeric name", func(p map[string]any) { p["name"] = 42 }, MsgNameTooLong},
		{"object message", func(p map[string]any) { p["message"] = map[string]any{"x": 1} }, MsgMessageTooLong},
		{"numeric subject", func(p map[string]any) { p["subject"] = 7 }, MsgInvalidSubject},
		{"numeric phone", func(p map[string]any) { p["phone"] = 5550100 }, MsgPhoneTooLong},
		{"missing beats wrong type", func(p map[string]any) {
			p["name"] = 5
			delete(p, "email")
		}, MsgMissingFields},
		{"zero name is missing", func(p map[string]any) { p["name"] = 0 }, MsgMissingFields},
		{"false message is missing", func(p map[string]any) { p["message"] = false }, MsgMissingFields},
		{"null subject is missing", func(p map[string]any) { p["subject"] = nil }, MsgMissingFields},
		{"too long before later wrong type", func(p map[string]any) {
			p["name"] = strings.Repeat("a", 101)
			p["message"] = []any{"x"}
		}, MsgNameTooLong},
		{"upper case key is ignored", func(p map[string]any) {
			p["NAME"] = p["name"]
			delete(p, "name")
		}, MsgMissingFields},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &recordingDispatcher{}
			g := newTestGatekeeper(d)

			p := validPayload()
			tt.mutate(p)
			_, err := g.HandleSubmission(context.Background(), "client", encode(t, p))

			cerr := requireKind(t, err, KindInvalidInput)
			assert.Equal(t, tt.message, cerr.Message)
			assert.Zero(t, d.count(), "invalid submissions must not be dispatched")
		})
	}
}

func TestHandleSubmission_BoundaryLengthsAccepted(t *testing.T) {
	d := &recordingDispatcher{}
	g := newTestGatekeeper(d)

	p := validPayload()
	p["name"] = strings.Repeat("é", 100) // counted in characters, not bytes
	p["email"] = strings.Repeat("e", 254)
	p["message"] = strings.Repeat("m", 5000)

	_, err := g.HandleSubmission(context.Background(), "client", encode(t, p))
	require.NoError(t, err)
	assert.Equal(t, 1, d.count())
}

func TestHandleSubmission_AllSubjects(t *testing.T) {
	labels := map[string]string{
		"enrollment":  "Enrollment Inquiry",
		"volunteer":   "Volunteering",
		"donation":    "Donations &amp; Sponsorship",
		"partnership": "Partnership Opportunity",
		"media":       "Media Inquiry",
		"other":       "Other",
	}

	for subject, label := range labels {
		t.Run(subject, func(t *testing.T) {
			d := &recordingDispatcher{}
			g := newTestGatekeeper(d)

			p := validPayload()
			p["subject"] = subject
			_, err := g.HandleSubmission(context.Background(), "client", encode(t, p))
			require.NoError(t, err)
			require.Equal(t, 1, d.count())
			assert.Contains(t, d.sent[0].HTML, label)
		})
	}
}

func TestHandleSubmission_Honeypot(t *testing.T) {
	payloads := map[string]map[string]any{
		"valid fields": func() map[string]any {
			p := validPayload()
			p["website"] = "http://spam.example"
			return p
		}(),
		"empty fields":    {"website": "x"},
		"invalid subject": {"website": "x", "subject": "hacking", "name": strings.Repeat("a", 500)},
		"non string":      {"website": 1, "name": "bot"},
		"true":            {"website": true},
		"object":          {"website": map[string]any{}},
	}

	for name, p := range payloads {
		t.Run(name, func(t *testing.T) {
			d := &recordingDispatcher{}
			g := newTestGatekeeper(d)

			res, err := g.HandleSubmission(context.Background(), "client", encode(t, p))
			require.NoError(t, err)
			assert.True(t, res.Bot)
			assert.Empty(t, res.ID)
			assert.Zero(t, d.count())
		})
	}
}

func TestHandleSubmission_EmptyHoneypotValuesAreIgnored(t *testing.T) {
	for name, website := range map[string]any{
		"false":  false,
		"zero":   0,
		"null":   nil,
		"string": "",
	} {
		t.Run(name, func(t *testing.T) {
			d := &recordingDispatcher{id: "msg-1"}
			g := newTestGatekeeper(d)

			p := validPayload()
			p["website"] = website
			res, err := g.HandleSubmission(context.Background(), "client", encode(t, p))
			require.NoError(t, err)
			assert.False(t, res.Bot)
			assert.Equal(t, "msg-1", res.ID)
			assert.Equal(t, 1, d.count())
		})
	}
}

func TestHandleSubmission_HoneypotKeyIsCaseSensitive(t *testing.T) {
	d := &recordingDispatcher{}
	g := newTestGatekeeper(d)

	p := validPayload()
	p["Website"] = "http://spam.example"
	res, err := g.HandleSubmission(context.Background(), "client", encode(t, p))
	require.NoError(t, err)
	assert.False(t, res.Bot)
	assert.Equal(t, 1, d.count())
}

func TestHandleSubmission_EscapesUserInput(t *testing.T) {
	d := &recordingDispatcher{}
	g := newTestGatekeeper(d)

	p := validPayload()
	p["name"] = "<script>alert(1)</script>"
	p["email"] = `x"onmouseover="alert(1)@example.com`
	p["phone"] = "<b>555</b>"
	p["message"] = "Tom & Jerry's <img src=x>"

	_, err := g.HandleSubmission(context.Background(), "client", encode(t, p))
	require.NoError(t, err)
	require.Equal(t, 1, d.count())

	html := d.sent[0].HTML
	assert.Contains(t, html, "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, `mailto:x&quot;onmouseover=&quot;alert(1)@example.com`)
	assert.Contains(t, html, "tel:&lt;b&gt;555&lt;/b&gt;")
	assert.Contains(t, html, "Tom &amp; Jerry&#039;s &lt;img src=x&gt;")
	assert.NotContains(t, html, "<img")

	// Reply-to carries the raw address.
	assert.Equal(t, `x"onmouseover="alert(1)@example.com`, d.sent[0].ReplyTo)
}

func TestHandleSubmission_SubjectIsSingleLine(t *testing.T) {
	d := &recordingDispatcher{}
	g := newTestGatekeeper(d)

	p := validPayload()
	p["name"] = "Jane\r\nBcc: victim@example.com"
	_, err := g.HandleSubmission(context.Background(), "client", encode(t, p))
	require.NoError(t, err)

	assert.Equal(t, "[Contact Form] Volunteering - from Jane Bcc: victim@example.com", d.sent[0].Subject)
}

func TestHandleSubmission_DeliveryFailed(t *testing.T) {
	d := &recordingDispatcher{err: errors.New("resend API returned status 401: missing_api_key: secret detail")}
	g := newTestGatekeeper(d)

	_, err := g.HandleSubmission(context.Background(), "client", encode(t, validPayload()))
	cerr := requireKind(t, err, KindDeliveryFailed)
	assert.Equal(t, MsgDeliveryFailed, cerr.Message)
	assert.NotContains(t, cerr.Message, "secret detail")
	assert.Equal(t, 1, d.count(), "no retries")
}

func TestHandleSubmission_DispatcherNotConfigured(t *testing.T) {
	g := newTestGatekeeper(notify.NewLazyFromConfig(notify.Config{Provider: notify.ProviderResend}))

	// Validation still runs before the dispatcher is built.
	_, err := g.HandleSubmission(context.Background(), "client", encode(t, map[string]any{"name": "x"}))
	requireKind(t, err, KindInvalidInput)

	_, err = g.HandleSubmission(context.Background(), "client", encode(t, validPayload()))
	cerr := requireKind(t, err, KindDeliveryFailed)
	assert.True(t, errors.Is(cerr, notify.ErrNotConfigured))
}

func TestHandleSubmission_DispatchTimeout(t *testing.T) {
	store := ratelimit.NewMemoryStore(ratelimit.DefaultPolicy())
	g := NewGatekeeper(store, blockingDispatcher{}, Config{DispatchTimeout: 20 * time.Millisecond},
		WithLogger(logging.NewDiscardLogger()))

	start := time.Now()
	_, err := g.HandleSubmission(context.Background(), "client", encode(t, validPayload()))
	cerr := requireKind(t, err, KindDeliveryFailed)
	assert.True(t, errors.Is(cerr, context.DeadlineExceeded))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestHandleSubmission_MalformedPayload(t *testing.T) {
	for _, payload := range []string{"", "{", "not json", `["array"]`, `"string"`, "null", "42"} {
		t.Run(payload, func(t *testing.T) {
			d := &recordingDispatcher{}
			g := newTestGatekeeper(d)

			_, err := g.HandleSubmission(context.Background(), "client", []byte(payload))
			cerr := requireKind(t, err, KindInternal)
			assert.Equal(t, MsgInternal, cerr.Message)
			assert.Zero(t, d.count())
		})
	}
}

func TestHandleSubmission_StoreFailure(t *testing.T) {
	d := &recordingDispatcher{}
	g := NewGatekeeper(failingStore{}, d, Config{}, WithLogger(logging.NewDiscardLogger()))

	_, err := g.HandleSubmission(context.Background(), "client", encode(t, validPayload()))
	cerr := requireKind(t, err, KindInternal)
	assert.NotContains(t, cerr.Message, "connection refused")
	assert.Zero(t, d.count())
}

type panickingDispatcher struct{}

func (panickingDispatcher) Send(context.Context, notify.Message) (string, error) {
	panic("unexpected nil")
}

func TestHandleSubmission_PanicBecomesInternalError(t *testing.T) {
	g := newTestGatekeeper(panickingDispatcher{})

	_, err := g.HandleSubmission(context.Background(), "client", encode(t, validPayload()))
	cerr := requireKind(t, err, KindInternal)
	assert.Equal(t, MsgInternal, cerr.Message)
}

func TestHandleSubmission_RateLimit(t *testing.T) {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store := ratelimit.NewMemoryStore(ratelimit.DefaultPolicy(), ratelimit.WithClock(clock))
	d := &recordingDispatcher{}
	g := NewGatekeeper(store, d, Config{}, WithLogger(logging.NewDiscardLogger()), WithClock(clock))
	ctx := context.Background()

	// Invalid submissions still count against the window.
	_, err := g.HandleSubmission(ctx, "203.0.113.7", encode(t, map[string]any{}))
	requireKind(t, err, KindInvalidInput)

	for i := 0; i < 4; i++ {
		_, err := g.HandleSubmission(ctx, "203.0.113.7", encode(t, validPayload()))
		require.NoError(t, err, "attempt %d", i+2)
	}

	now = now.Add(time.Minute)
	_, err = g.HandleSubmission(ctx, "203.0.113.7", encode(t, validPayload()))
	cerr := requireKind(t, err, KindRateLimited)
	assert.Equal(t, MsgRateLimited, cerr.Message)
	assert.Equal(t, 14*time.Minute, cerr.RetryAfter)

	// Honeypot submissions are limited too.
	_, err = g.HandleSubmission(ctx, "203.0.113.7", encode(t, map[string]any{"website": "x"}))
	requireKind(t, err, KindRateLimited)

	// Another client is unaffected.
	_, err = g.HandleSubmission(ctx, "198.51.100.1", encode(t, validPayload()))
	require.NoError(t, err)

	now = now.Add(14 * time.Minute)
	_, err = g.HandleSubmission(ctx, "203.0.113.7", encode(t, validPayload()))
	require.NoError(t, err, "window expired")

	assert.Equal(t, 6, d.count())
}

func TestHandleSubmission_EmptyClientIsUnknown(t *testing.T) {
	store := ratelimit.NewMemoryStore(ratelimit.DefaultPolicy())
	g := NewGatekeeper(store, &recordingDispatcher{}, Config{}, WithLogger(logging.NewDiscardLogger()))

	for i := 0; i < 5; i++ {
		_, err := g.HandleSubmission(context.Background(), "", encode(t, validPayload()))
		require.NoError(t, err)
	}
	_, err := g.HandleSubmission(context.Background(), UnknownClient, encode(t, validPayload()))
	requireKind(t, err, KindRateLimited)
}

func TestHandleSubmission_ConcurrentBurst(t *testing.T) {
	d := &recordingDispatcher{id: "ok"}
	g := newTestGatekeeper(d)
	payload := encode(t, validPayload())

	const workers = 10
	var wg sync.WaitGroup
	errs := make([]error, workers)
	start := make(chan struct{})

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = g.HandleSubmission(context.Background(), "burst-client", payload)
		}(i)
	}
	close(start)
	wg.Wait()

	accepted, limited := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			accepted++
		case KindOf(err) == KindRateLimited:
			limited++
		default:
			t.Errorf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 5, accepted)
	assert.Equal(t, 5, limited)
	assert.Equal(t, 5, d.count())
}

func TestErrorFormatting(t *testing.T) {
	err := deliveryFailed(errors.New("smtp down"))
	assert.Equal(t, "delivery failed: Failed to send email: smtp down", err.Error())
	assert.Equal(t, "invalid input: Missing required fields", invalidInput(MsgMissingFields).Error())
	assert.Equal(t, KindInternal, KindOf(fmt.Errorf("plain")))
	assert.Equal(t, KindDeliveryFailed, KindOf(fmt.Errorf("wrapped: %w", err)))
}
