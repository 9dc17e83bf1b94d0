// Package gotrue implements the gateway auth surface against a hosted
// GoTrue-style credential API (/signup, /token, /logout, /resend).
package gotrue

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus"

	"github.com/kidsgo-app/kidsgo-backend/internal/gateway"
	"github.com/kidsgo-app/kidsgo-backend/internal/models"
)

type Config struct {
	BaseURL   string // ex: https://<project>.supabase.co/auth/v1
	APIKey    string
	JWTSecret string // optional; when set, access tokens are verified (HS256)
	Timeout   time.Duration
}

type Client struct {
	cfg  Config
	http *http.Client
	log  *logrus.Logger

	mu        sync.Mutex
	state     gateway.AuthState
	token     string
	listeners map[int]func(gateway.AuthState)
	nextID    int
}

func New(cfg Config, log *logrus.Logger) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	return &Client{
		cfg:       cfg,
		http:      &http.Client{Timeout: cfg.Timeout},
		log:       log,
		listeners: map[int]func(gateway.AuthState){},
	}
}

type userPayload struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	CreatedAt    string `json:"created_at"`
	LastSignInAt string `json:"last_sign_in_at"`
}

type tokenResponse struct {
	AccessToken string      `json:"access_token"`
	User        userPayload `json:"user"`
}

type errorResponse struct {
	Error       string `json:"error"`
	Description string `json:"error_description"`
	Msg         string `json:"msg"`
}

func (e errorResponse) message() string {
	if e.Description != "" {
		return e.Description
	}
	if e.Msg != "" {
		return e.Msg
	}
	return e.Error
}

func (c *Client) post(ctx context.Context, path string, body any, bearer string, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return gateway.E(gateway.KindUnavailable, "encode request", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+path, bytes.NewReader(b))
	if err != nil {
		return gateway.E(gateway.KindUnavailable, "build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.cfg.APIKey)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return gateway.E(gateway.KindUnavailable, "auth request failed", err)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode >= 400 {
		var er errorResponse
		_ = json.Unmarshal(raw, &er)
		return classifyStatus(resp.StatusCode, er.message())
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return gateway.E(gateway.KindUnavailable, "decode response", err)
		}
	}
	return nil
}

func classifyStatus(status int, msg string) error {
	switch {
	case msg == "Invalid login credentials":
		return gateway.E(gateway.KindInvalidLogin, msg, nil)
	case msg == "Email not confirmed":
		return gateway.E(gateway.KindEmailUnconfirmed, msg, nil)
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return gateway.E(gateway.KindPermissionDenied, msg, nil)
	case status == http.StatusUnprocessableEntity || status == http.StatusConflict:
		return gateway.E(gateway.KindConflict, msg, nil)
	default:
		return gateway.E(gateway.KindUnavailable, fmt.Sprintf("auth backend returned %d: %s", status, msg), nil)
	}
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func (u userPayload) identity() *models.Identity {
	return &models.Identity{
		ID:           u.ID,
		Email:        u.Email,
		CreatedAt:    parseTime(u.CreatedAt),
		LastSignInAt: parseTime(u.LastSignInAt),
	}
}

// verifyToken checks the access token signature when a secret is configured.
// The subject must match the user payload the backend returned.
func (c *Client) verifyToken(raw, userID string) error {
	if c.cfg.JWTSecret == "" {
		return nil
	}
	claims := &jwt.RegisteredClaims{}
	tok, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return []byte(c.cfg.JWTSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || tok == nil || !tok.Valid {
		return gateway.E(gateway.KindPermissionDenied, "invalid access token", err)
	}
	if claims.Subject != userID {
		return gateway.E(gateway.KindPermissionDenied, "token subject mismatch", nil)
	}
	return nil
}

func (c *Client) SignUp(ctx context.Context, email, password string) (*models.Identity, error) {
	var out tokenResponse
	err := c.post(ctx, "/signup", map[string]string{"email": email, "password": password}, "", &out)
	if err != nil {
		return nil, err
	}
	// Signup may return no session while email confirmation is pending; the
	// identity is still created.
	id := out.User.identity()
	if out.AccessToken != "" {
		if err := c.verifyToken(out.AccessToken, id.ID); err != nil {
			return nil, err
		}
		c.setState(id, out.AccessToken)
	}
	return id, nil
}

func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*models.Identity, error) {
	var out tokenResponse
	err := c.post(ctx, "/token?grant_type=password", map[string]string{"email": email, "password": password}, "", &out)
	if err != nil {
		return nil, err
	}
	id := out.User.identity()
	if err := c.verifyToken(out.AccessToken, id.ID); err != nil {
		return nil, err
	}
	c.setState(id, out.AccessToken)
	return id, nil
}

func (c *Client) SignOut(ctx context.Context) error {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()

	if token != "" {
		if err := c.post(ctx, "/logout", struct{}{}, token, nil); err != nil {
			c.log.WithError(err).Warn("gotrue: remote logout failed; clearing local session anyway")
		}
	}
	c.setState(nil, "")
	return nil
}

func (c *Client) ResendSignupEmail(ctx context.Context, email string) error {
	return c.post(ctx, "/resend", map[string]string{"type": "signup", "email": email}, "", nil)
}

// OnAuthStateChange registers a listener and synchronously delivers the
// current state before returning, so subscribers never observe a gap between
// subscribing and the first notification.
func (c *Client) OnAuthStateChange(listener func(gateway.AuthState)) gateway.Unsubscribe {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = listener
	state := c.state
	c.mu.Unlock()

	listener(state)

	return func() {
		c.mu.Lock()
		delete(c.listeners, id)
		c.mu.Unlock()
	}
}

func (c *Client) setState(id *models.Identity, token string) {
	c.mu.Lock()
	c.state = gateway.AuthState{Identity: id}
	c.token = token
	ls := make([]func(gateway.AuthState), 0, len(c.listeners))
	for _, l := range c.listeners {
		ls = append(ls, l)
	}
	state := c.state
	c.mu.Unlock()

	for _, l := range ls {
		l(state)
	}
}
