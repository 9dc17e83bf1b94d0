// Package session owns the process-wide authentication state. It holds the
// single subscription to the auth backend's state-change notifications; no
// other component subscribes directly.
package session

import (
	"context"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/kidsgo-app/kidsgo-backend/internal/gateway"
	"github.com/kidsgo-app/kidsgo-backend/internal/models"
)

// Context exposes the current identity and a resolving flag. Resolving is
// true from construction until the first auth-state notification arrives;
// each notification atomically replaces the held identity.
type Context struct {
	log *logrus.Logger

	mu        sync.RWMutex
	identity  *models.Identity
	resolving bool
	watchers  map[int]func(*models.Identity)
	nextID    int

	resolvedOnce sync.Once
	resolved     chan struct{}

	unsub  gateway.Unsubscribe
	closed bool
}

func New(auth gateway.Auth, log *logrus.Logger) *Context {
	c := &Context{
		log:       log,
		resolving: true,
		watchers:  map[int]func(*models.Identity){},
		resolved:  make(chan struct{}),
	}
	// The subscription fires synchronously at least once before returning,
	// so resolving may already be false when New returns.
	c.unsub = auth.OnAuthStateChange(c.onChange)
	return c
}

func (c *Context) onChange(s gateway.AuthState) {
	c.mu.Lock()
	if c.closed {
		// teardown already happened; drop late notifications
		c.mu.Unlock()
		return
	}
	c.identity = s.Identity
	c.resolving = false
	ws := make([]func(*models.Identity), 0, len(c.watchers))
	for _, w := range c.watchers {
		ws = append(ws, w)
	}
	id := c.identity
	c.mu.Unlock()

	c.resolvedOnce.Do(func() { close(c.resolved) })

	if c.log != nil {
		if id != nil {
			c.log.WithField("user_id", id.ID).Debug("session: identity resolved")
		} else {
			c.log.Debug("session: no identity")
		}
	}
	for _, w := range ws {
		w(id)
	}
}

// CurrentIdentity returns the held identity, or nil when signed out or not
// yet resolved.
func (c *Context) CurrentIdentity() *models.Identity {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.identity
}

// IsResolving reports whether the first auth-state notification is still
// pending.
func (c *Context) IsResolving() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.resolving
}

// WaitResolved blocks until the first auth-state notification has been
// received or the context is done.
func (c *Context) WaitResolved(ctx context.Context) error {
	select {
	case <-c.resolved:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Watch registers a callback invoked on every identity change. Used by the
// session event stream; guard logic reads CurrentIdentity instead.
func (c *Context) Watch(fn func(*models.Identity)) gateway.Unsubscribe {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.watchers[id] = fn
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.watchers, id)
		c.mu.Unlock()
	}
}

// Close tears down the subscription. The context stops receiving and
// forwarding notifications after Close returns.
func (c *Context) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	unsub := c.unsub
	c.mu.Unlock()

	if unsub != nil {
		unsub()
	}
}
