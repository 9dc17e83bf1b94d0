package gotrue

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/kidsgo-app/kidsgo-backend/internal/gateway"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseURL: srv.URL, APIKey: "test-key"}, quietLogger())
}

func TestSignInSuccessNotifiesListeners(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/token" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("apikey"); got != "test-key" {
			t.Errorf("missing api key header, got %q", got)
		}
		_ = json.NewEncoder(w).Encode(tokenResponse{
			AccessToken: "tok",
			User: userPayload{
				ID:        "u1",
				Email:     "alice@example.com",
				CreatedAt: "2026-01-01T00:00:00Z",
			},
		})
	})

	var states []gateway.AuthState
	unsub := c.OnAuthStateChange(func(s gateway.AuthState) { states = append(states, s) })
	defer unsub()

	id, err := c.SignInWithPassword(context.Background(), "alice@example.com", "hunter22")
	if err != nil {
		t.Fatalf("sign in: %v", err)
	}
	if id.ID != "u1" || id.Email != "alice@example.com" {
		t.Fatalf("unexpected identity %+v", id)
	}
	if len(states) != 2 {
		t.Fatalf("expected subscribe + sign-in notifications, got %d", len(states))
	}
	if states[0].Identity != nil {
		t.Fatal("expected the subscribe-time state to be signed out")
	}
	if states[1].Identity == nil || states[1].Identity.ID != "u1" {
		t.Fatalf("expected signed-in state, got %+v", states[1])
	}
}

func TestSignInInvalidCredentials(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(errorResponse{Description: "Invalid login credentials"})
	})

	_, err := c.SignInWithPassword(context.Background(), "alice@example.com", "wrong")
	if !gateway.IsKind(err, gateway.KindInvalidLogin) {
		t.Fatalf("expected invalid login, got %v", err)
	}
}

func TestSignInEmailNotConfirmed(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(errorResponse{Msg: "Email not confirmed"})
	})

	_, err := c.SignInWithPassword(context.Background(), "alice@example.com", "hunter22")
	if !gateway.IsKind(err, gateway.KindEmailUnconfirmed) {
		t.Fatalf("expected email unconfirmed, got %v", err)
	}
}

func TestSignUpPendingConfirmation(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		// no access token while confirmation is pending
		_ = json.NewEncoder(w).Encode(tokenResponse{
			User: userPayload{ID: "u2", Email: "bob@example.com"},
		})
	})

	var notified int
	unsub := c.OnAuthStateChange(func(gateway.AuthState) { notified++ })
	defer unsub()

	id, err := c.SignUp(context.Background(), "bob@example.com", "hunter22")
	if err != nil {
		t.Fatalf("sign up: %v", err)
	}
	if id.ID != "u2" {
		t.Fatalf("unexpected identity %+v", id)
	}
	// only the subscribe-time notification: no session was established
	if notified != 1 {
		t.Fatalf("expected no auth-state change without a session, got %d notifications", notified)
	}
}

func TestSignOutClearsState(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/token":
			_ = json.NewEncoder(w).Encode(tokenResponse{
				AccessToken: "tok",
				User:        userPayload{ID: "u1", Email: "a@b.c"},
			})
		case "/logout":
			w.WriteHeader(http.StatusNoContent)
		}
	})

	if _, err := c.SignInWithPassword(context.Background(), "a@b.c", "pw"); err != nil {
		t.Fatalf("sign in: %v", err)
	}

	var last gateway.AuthState
	unsub := c.OnAuthStateChange(func(s gateway.AuthState) { last = s })
	defer unsub()

	if last.Identity == nil {
		t.Fatal("expected signed-in state at subscribe")
	}
	if err := c.SignOut(context.Background()); err != nil {
		t.Fatalf("sign out: %v", err)
	}
	if last.Identity != nil {
		t.Fatal("expected signed-out state after SignOut")
	}
}
