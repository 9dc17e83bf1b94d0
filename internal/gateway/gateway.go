// Package gateway defines the contract against the hosted backend-as-a-service:
// credential auth, a table-addressed record store, and blob storage. The rest of
// the flow depends on these interfaces only, so it runs unchanged against the
// hosted service, the local dev gateway, or test fakes.
package gateway

import (
	"context"
	"errors"
	"io"

	"github.com/kidsgo-app/kidsgo-backend/internal/models"
)

// ErrorKind classifies gateway failures. Callers branch on the kind, never on
// driver error strings.
type ErrorKind string

const (
	KindNotFound         ErrorKind = "not_found"
	KindConflict         ErrorKind = "conflict"
	KindPermissionDenied ErrorKind = "permission_denied"
	KindInvalidLogin     ErrorKind = "invalid_login"
	KindEmailUnconfirmed ErrorKind = "email_unconfirmed"
	KindUnavailable      ErrorKind = "unavailable"
)

// Error is the typed failure returned by every gateway implementation.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return string(e.Kind) + ": " + e.Message + ": " + e.Err.Error()
	}
	return string(e.Kind) + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

func E(kind ErrorKind, msg string, err error) error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the classification of err, or KindUnavailable for anything
// that is not a gateway error.
func KindOf(err error) ErrorKind {
	var ge *Error
	if errors.As(err, &ge) {
		return ge.Kind
	}
	return KindUnavailable
}

func IsKind(err error, kind ErrorKind) bool { return err != nil && KindOf(err) == kind }

// AuthState is one auth-state notification: the current identity or nil when
// signed out.
type AuthState struct {
	Identity *models.Identity
}

// Unsubscribe detaches a listener registered with OnAuthStateChange.
type Unsubscribe func()

// Auth is the credential-auth surface of the backend.
//
// OnAuthStateChange delivers the current state at least once at subscribe
// time and again on every change. Implementations must serialize deliveries
// to a single listener.
type Auth interface {
	SignUp(ctx context.Context, email, password string) (*models.Identity, error)
	SignInWithPassword(ctx context.Context, email, password string) (*models.Identity, error)
	SignOut(ctx context.Context) error
	ResendSignupEmail(ctx context.Context, email string) error
	OnAuthStateChange(listener func(AuthState)) Unsubscribe
}

// Filter is an equality filter over record columns.
type Filter map[string]any

// Row is one untyped record-store row. Column values are whatever the store
// returned; callers narrow them at the boundary.
type Row map[string]any

// Records is the table-addressed record store.
type Records interface {
	Select(ctx context.Context, table string, filter Filter) ([]Row, error)
	Insert(ctx context.Context, table string, row Row) (Row, error)
	Update(ctx context.Context, table string, patch Row, filter Filter) (Row, error)
	Upsert(ctx context.Context, table string, row Row) (Row, error)
	Delete(ctx context.Context, table string, filter Filter) error
}

// BlobStorage is the file-upload surface of the backend.
type BlobStorage interface {
	Upload(ctx context.Context, bucket, path, contentType string, r io.Reader) error
	PublicURL(bucket, path string) string
}

// Gateway bundles the three backend surfaces for injection.
type Gateway struct {
	Auth    Auth
	Records Records
	Storage BlobStorage
}
