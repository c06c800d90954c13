// Package contact implements the public contact form pipeline: rate limiting,
// the honeypot check, validation, and the operator notification.
package contact

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/projectannie/contactd/internal/logging"
	"github.com/projectannie/contactd/internal/notify"
	"github.com/projectannie/contactd/internal/ratelimit"
)

// UnknownClient keys every request that carries no client address
const UnknownClient = "unknown"

// Defaults for Config
const (
	DefaultTo              = "info@projectannie.org"
	DefaultFrom            = "Project Annie Contact Form <onboarding@resend.dev>"
	DefaultOrganization    = "Project Annie"
	DefaultDispatchTimeout = 10 * time.Second
)

const tracerName = "github.com/projectannie/contactd/internal/contact"

// Config controls where notifications go
type Config struct {
	// To is the operator mailbox
	To           string
	From         string
	Organization string
	// DispatchTimeout bounds the notification call
	DispatchTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.To == "" {
		c.To = DefaultTo
	}
	if c.From == "" {
		c.From = DefaultFrom
	}
	if c.Organization == "" {
		c.Organization = DefaultOrganization
	}
	if c.DispatchTimeout <= 0 {
		c.DispatchTimeout = DefaultDispatchTimeout
	}
	return c
}

// Result is an accepted submission
type Result struct {
	// ID is the dispatcher's message id, empty when it returned none
	ID string
	// Bot is set when the honeypot was filled. Callers must not reveal it.
	Bot bool
}

// Gatekeeper decides whether a submission is accepted and notifies the
// operator. It is safe for concurrent use.
type Gatekeeper struct {
	store      ratelimit.Store
	dispatcher notify.Dispatcher
	validate   *validator.Validate
	cfg        Config
	logger     *logging.Logger
	tracer     trace.Tracer
	now        func() time.Time
}

// Option configures a Gatekeeper
type Option func(*Gatekeeper)

// WithLogger sets the logger, default is the global logger
func WithLogger(logger *logging.Logger) Option {
	return func(g *Gatekeeper) {
		g.logger = logger
	}
}

// WithClock replaces time.Now when computing Retry-After
func WithClock(now func() time.Time) Option {
	return func(g *Gatekeeper) {
		g.now = now
	}
}

// NewGatekeeper creates a gatekeeper
func NewGatekeeper(store ratelimit.Store, dispatcher notify.Dispatcher, cfg Config, opts ...Option) *Gatekeeper {
	g := &Gatekeeper{
		store:      store,
		dispatcher: dispatcher,
		validate:   newValidator(),
		cfg:        cfg.withDefaults(),
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.logger == nil {
		g.logger = logging.GetGlobalLogger()
	}
	return g
}

// HandleSubmission runs one submission through the pipeline. Rejections are
// returned as *Error. The rate limit counter is charged before the payload is
// parsed, so invalid submissions count against the client too.
func (g *Gatekeeper) HandleSubmission(ctx context.Context, clientID string, payload []byte) (result *Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			g.logger.Error("Contact submission panicked: %v\n%s", r, debug.Stack())
			result, err = nil, internalError(fmt.Errorf("panic: %v", r))
		}
	}()

	if clientID == "" {
		clientID = UnknownClient
	}

	decision, err := g.store.Hit(ctx, clientID)
	if err != nil {
		g.logger.Error("Failed to check contact rate limit for %s: %v", clientID, err)
		return nil, internalError(err)
	}
	if !decision.Allowed {
		g.logger.Warn("Contact form rate limit exceeded by %s", clientID)
		return nil, &Error{
			Kind:       KindRateLimited,
			Message:    MsgRateLimited,
			RetryAfter: decision.RetryAfter(g.now()),
		}
	}

	d, err := decodeSubmission(payload)
	if err != nil {
		g.logger.Error("Failed to parse contact submission from %s: %v", clientID, err)
		return nil, internalError(err)
	}

	if d.botSuspected() {
		// Look like a success so bots learn nothing.
		g.logger.Info("Contact form honeypot triggered by %s", clientID)
		return &Result{Bot: true}, nil
	}

	if verr := validateSubmission(g.validate, d); verr != nil {
		if verr.Kind == KindInternal {
			g.logger.Error("Failed to validate contact submission: %v", verr.Err)
		}
		return nil, verr
	}

	sub := &d.Submission
	label, ok := SubjectLabel(sub.Subject)
	if !ok {
		return nil, invalidInput(MsgInvalidSubject)
	}

	msg, err := g.compose(sub, label)
	if err != nil {
		g.logger.Error("Failed to compose contact notification: %v", err)
		return nil, internalError(err)
	}

	return g.dispatch(ctx, msg)
}

func (g *Gatekeeper) compose(sub *Submission, label string) (notify.Message, error) {
	htmlBody, textBody, err := renderNotification(sub, label, g.cfg.Organization)
	if err != nil {
		return notify.Message{}, err
	}

	return notify.Message{
		From:    g.cfg.From,
		To:      g.cfg.To,
		ReplyTo: sub.Email,
		Subject: notificationSubject(label, sub.Name),
		HTML:    htmlBody,
		Text:    textBody,
	}, nil
}

// dispatch makes exactly one bounded attempt to deliver msg
func (g *Gatekeeper) dispatch(ctx context.Context, msg notify.Message) (*Result, error) {
	ctx, span := g.tracer.Start(ctx, "contact.dispatch")
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, g.cfg.DispatchTimeout)
	defer cancel()

	id, err := g.dispatcher.Send(ctx, msg)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "notification dispatch failed")
		g.logger.Error("Failed to send contact notification: %v", err)
		return nil, deliveryFailed(err)
	}

	span.SetAttributes(attribute.String("notify.message_id", id))
	g.logger.Info("Contact notification sent (id=%s)", id)
	return &Result{ID: id}, nil
}
