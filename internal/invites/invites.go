// Package invites validates, issues, and consumes provider signup codes.
package invites

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/kidsgo-app/kidsgo-backend/internal/gateway"
	"github.com/kidsgo-app/kidsgo-backend/internal/models"
	"github.com/kidsgo-app/kidsgo-backend/internal/utils"
)

const codesTable = "provider_signup_codes"

// MinCodeLength is checked before any store query; shorter input is rejected
// locally.
const MinCodeLength = 6

// Status of a code-entry field. A field starts Untouched, is Validating
// while the store query is in flight, and lands in exactly one of the
// terminal states.
type Status string

const (
	StatusUntouched  Status = "untouched"
	StatusValidating Status = "validating"
	StatusValid      Status = "valid"
	StatusInvalid    Status = "invalid"
	StatusExpired    Status = "expired"
)

// Usable reports whether the status allows the signup to proceed. Expired is
// distinct for messaging but equally unusable.
func (s Status) Usable() bool { return s == StatusValid }

// Result of a validation attempt. Email is set only for valid codes and is
// used to pre-fill and lock the signup email field.
type Result struct {
	Status  Status `json:"status"`
	Email   string `json:"email,omitempty"`
	Message string `json:"message"`
}

type Service struct {
	records gateway.Records
	log     *logrus.Logger
	now     func() time.Time
}

func New(records gateway.Records, log *logrus.Logger) *Service {
	return &Service{
		records: records,
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Validate checks a human-entered invite code. It never mutates the store;
// consumption is a separate explicit step (Consume).
func (s *Service) Validate(ctx context.Context, code string) Result {
	code = strings.TrimSpace(code)
	if len(code) < MinCodeLength {
		return Result{Status: StatusInvalid, Message: "Please enter a valid invite code."}
	}

	rows, err := s.records.Select(ctx, codesTable, gateway.Filter{"code": code, "used": false})
	if err != nil && !gateway.IsKind(err, gateway.KindNotFound) {
		s.log.WithError(err).Warn("invites: code lookup failed")
		return Result{Status: StatusInvalid, Message: "Could not verify the code: " + err.Error()}
	}
	if len(rows) == 0 {
		return Result{Status: StatusInvalid, Message: "Invalid invite code."}
	}

	row := rows[0]
	expiresAt, _ := row["expires_at"].(time.Time)
	if !expiresAt.After(s.now()) {
		return Result{Status: StatusExpired, Message: "This invite code has expired."}
	}

	email, _ := row["email"].(string)
	return Result{Status: StatusValid, Email: email, Message: "Code accepted."}
}

// Consume marks a code used after a successful provider signup. The
// used=false filter makes the update a no-op if another signup got there
// first; that surfaces as not-found and is reported as a conflict.
func (s *Service) Consume(ctx context.Context, code, usedBy string) error {
	const op = "Invites.Consume"

	code = strings.TrimSpace(code)
	if code == "" {
		return utils.E(utils.CodeInvalidArgument, op, "code is required", nil)
	}

	patch := gateway.Row{
		"used":       true,
		"used_by":    usedBy,
		"updated_at": s.now(),
	}
	_, err := s.records.Update(ctx, codesTable, patch, gateway.Filter{"code": code, "used": false})
	if err != nil {
		if gateway.IsKind(err, gateway.KindNotFound) {
			return utils.E(utils.CodeConflict, op, "code already consumed", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to consume code", err)
	}
	return nil
}

// Issue creates a new invite for an email address. Administrative surface;
// the code itself is an opaque uuid.
func (s *Service) Issue(ctx context.Context, email string, ttl time.Duration) (*models.ProviderSignupCode, error) {
	const op = "Invites.Issue"

	if email == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "email is required", nil)
	}
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}

	now := s.now()
	invite := &models.ProviderSignupCode{
		ID:        uuid.NewString(),
		Code:      uuid.NewString(),
		Email:     email,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
		UpdatedAt: now,
	}
	row := gateway.Row{
		"id":         invite.ID,
		"code":       invite.Code,
		"email":      invite.Email,
		"expires_at": invite.ExpiresAt,
		"used":       false,
		"created_at": invite.CreatedAt,
		"updated_at": invite.UpdatedAt,
	}
	if _, err := s.records.Insert(ctx, codesTable, row); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to issue code", err)
	}
	return invite, nil
}
