package notify

import (
	"context"
	"sync"
)

// Lazy defers building a dispatcher until the first Send, so missing
// credentials surface as a send failure instead of blocking startup. A failed
// build is retried on the next Send.
type Lazy struct {
	factory func() (Dispatcher, error)

	mu         sync.Mutex
	dispatcher Dispatcher
}

// NewLazy wraps a factory
func NewLazy(factory func() (Dispatcher, error)) *Lazy {
	return &Lazy{factory: factory}
}

// NewLazyFromConfig defers New(cfg) to the first Send
func NewLazyFromConfig(cfg Config) *Lazy {
	return NewLazy(func() (Dispatcher, error) {
		return New(cfg)
	})
}

// Send builds the dispatcher if needed and forwards the message
func (l *Lazy) Send(ctx context.Context, msg Message) (string, error) {
	d, err := l.get()
	if err != nil {
		return "", err
	}
	return d.Send(ctx, msg)
}

func (l *Lazy) get() (Dispatcher, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.dispatcher != nil {
		return l.dispatcher, nil
	}

	d, err := l.factory()
	if err != nil {
		return nil, err
	}
	l.dispatcher = d
	return d, nil
}
