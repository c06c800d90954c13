package ratelimit

import (
	"context"
	"time"
)

// Default policy values for the public contact endpoint
const (
	DefaultLimit     = 5
	DefaultWindow    = 15 * time.Minute
	DefaultHighWater = 1000
)

// Policy describes a fixed-window limit: at most Limit hits per key until the
// window that started with the key's first hit expires.
type Policy struct {
	Limit  int
	Window time.Duration
	// HighWater is the number of tracked keys above which expired entries are
	// swept on the next hit. Only used by MemoryStore.
	HighWater int
}

// DefaultPolicy returns the policy used by the contact form
func DefaultPolicy() Policy {
	return Policy{
		Limit:     DefaultLimit,
		Window:    DefaultWindow,
		HighWater: DefaultHighWater,
	}
}

// withDefaults fills zero or negative fields with defaults
func (p Policy) withDefaults() Policy {
	if p.Limit <= 0 {
		p.Limit = DefaultLimit
	}
	if p.Window <= 0 {
		p.Window = DefaultWindow
	}
	if p.HighWater <= 0 {
		p.HighWater = DefaultHighWater
	}
	return p
}

// Decision is the outcome of a single hit
type Decision struct {
	Allowed bool
	// Count is the number of allowed hits in the current window, including this one.
	Count int
	// ResetAt is when the current window expires.
	ResetAt time.Time
}

// RetryAfter returns how long a denied caller should wait, never negative
func (d Decision) RetryAfter(now time.Time) time.Duration {
	if wait := d.ResetAt.Sub(now); wait > 0 {
		return wait
	}
	return 0
}

// Store records hits per key. Hit must be atomic per key: two concurrent hits
// for the same key can never both observe the same count.
type Store interface {
	Hit(ctx context.Context, key string) (Decision, error)
	SweepExpired(ctx context.Context) (int, error)
}
