// Package local is an in-memory implementation of the gateway auth surface
// for development and tests. Credentials are bcrypt-checked so the flow
// exercised here matches the hosted backend's semantics.
package local

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kidsgo-app/kidsgo-backend/internal/gateway"
	"github.com/kidsgo-app/kidsgo-backend/internal/models"
	"github.com/kidsgo-app/kidsgo-backend/internal/utils"
)

type account struct {
	identity  models.Identity
	hash      string
	confirmed bool
}

type Auth struct {
	mu        sync.Mutex
	accounts  map[string]*account // keyed by email
	state     gateway.AuthState
	listeners map[int]func(gateway.AuthState)
	nextID    int
	now       func() time.Time
}

func New() *Auth {
	return &Auth{
		accounts:  map[string]*account{},
		listeners: map[int]func(gateway.AuthState){},
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Seed registers a confirmed account without going through SignUp.
func (a *Auth) Seed(email, password string) *models.Identity {
	hash, _ := utils.HashPassword(password)
	a.mu.Lock()
	defer a.mu.Unlock()
	acc := &account{
		identity:  models.Identity{ID: uuid.NewString(), Email: email, CreatedAt: a.now()},
		hash:      hash,
		confirmed: true,
	}
	a.accounts[email] = acc
	id := acc.identity
	return &id
}

func (a *Auth) SignUp(ctx context.Context, email, password string) (*models.Identity, error) {
	hash, err := utils.HashPassword(password)
	if err != nil {
		return nil, gateway.E(gateway.KindUnavailable, "hash password", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if _, exists := a.accounts[email]; exists {
		return nil, gateway.E(gateway.KindConflict, "email already registered", nil)
	}
	acc := &account{
		identity:  models.Identity{ID: uuid.NewString(), Email: email, CreatedAt: a.now()},
		hash:      hash,
		confirmed: true, // no email loop locally
	}
	a.accounts[email] = acc
	id := acc.identity
	return &id, nil
}

func (a *Auth) SignInWithPassword(ctx context.Context, email, password string) (*models.Identity, error) {
	a.mu.Lock()
	acc, ok := a.accounts[email]
	a.mu.Unlock()

	if !ok || utils.CheckPassword(acc.hash, password) != nil {
		return nil, gateway.E(gateway.KindInvalidLogin, "Invalid login credentials", nil)
	}
	if !acc.confirmed {
		return nil, gateway.E(gateway.KindEmailUnconfirmed, "Email not confirmed", nil)
	}

	a.mu.Lock()
	acc.identity.LastSignInAt = a.now()
	id := acc.identity
	a.mu.Unlock()

	a.setState(&id)
	return &id, nil
}

func (a *Auth) SignOut(ctx context.Context) error {
	a.setState(nil)
	return nil
}

func (a *Auth) ResendSignupEmail(ctx context.Context, email string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if _, ok := a.accounts[email]; !ok {
		return gateway.E(gateway.KindNotFound, "unknown email", nil)
	}
	return nil
}

func (a *Auth) OnAuthStateChange(listener func(gateway.AuthState)) gateway.Unsubscribe {
	a.mu.Lock()
	id := a.nextID
	a.nextID++
	a.listeners[id] = listener
	state := a.state
	a.mu.Unlock()

	listener(state)

	return func() {
		a.mu.Lock()
		delete(a.listeners, id)
		a.mu.Unlock()
	}
}

func (a *Auth) setState(id *models.Identity) {
	a.mu.Lock()
	a.state = gateway.AuthState{Identity: id}
	ls := make([]func(gateway.AuthState), 0, len(a.listeners))
	for _, l := range a.listeners {
		ls = append(ls, l)
	}
	state := a.state
	a.mu.Unlock()

	for _, l := range ls {
		l(state)
	}
}
