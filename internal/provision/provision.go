// Package provision guarantees that a profile row exists for an
// authenticated identity, creating one with defaults on first login.
package provision

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kidsgo-app/kidsgo-backend/internal/gateway"
	"github.com/kidsgo-app/kidsgo-backend/internal/models"
	"github.com/kidsgo-app/kidsgo-backend/internal/utils"
)

const profilesTable = "profiles"

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

// GetOrCreate fetches the profile for the identity, inserting one with
// defaults if absent. defaultRole is only used when a new row is created.
//
// Every failure comes back as a classified *utils.AppError (CodeForbidden for
// policy denials, CodeInternal otherwise), never a raw store error. Two
// concurrent first logins can both miss the initial fetch; the loser's insert
// hits the id uniqueness constraint and is resolved by re-fetching the
// winner's row.
func (s *Service) GetOrCreate(ctx context.Context, identity *models.Identity, defaultRole models.Role) (*models.Profile, error) {
	const op = "Provisioner.GetOrCreate"

	if identity == nil || identity.ID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "identity is required", nil)
	}
	if !defaultRole.Valid() {
		defaultRole = models.RoleParent
	}

	p, err := s.fetch(ctx, identity.ID)
	if err != nil {
		return nil, s.fail(op, "failed to fetch profile", err)
	}
	if p != nil {
		return p, nil
	}

	now := s.now()
	row := gateway.Row{
		"id":         identity.ID,
		"full_name":  models.DefaultFullName(identity.Email),
		"role":       string(defaultRole),
		"created_at": now,
		"updated_at": now,
	}
	if _, err := s.records.Insert(ctx, profilesTable, row); err != nil {
		if !gateway.IsKind(err, gateway.KindConflict) {
			return nil, s.fail(op, "failed to create profile", err)
		}
		// another login won the insert race; fall through to the re-fetch
		s.log.WithField("user_id", identity.ID).Info("provision: profile insert conflicted, re-fetching")
	}

	p, err = s.fetch(ctx, identity.ID)
	if err != nil {
		return nil, s.fail(op, "failed to re-fetch created profile", err)
	}
	if p == nil {
		return nil, s.fail(op, "profile missing after insert", nil)
	}
	return p, nil
}

// fetch returns nil, nil when no row exists; absence is an expected outcome.
func (s *Service) fetch(ctx context.Context, id string) (*models.Profile, error) {
	rows, err := s.records.Select(ctx, profilesTable, gateway.Filter{"id": id})
	if err != nil {
		if gateway.IsKind(err, gateway.KindNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	return FromRow(rows[0]), nil
}

func (s *Service) fail(op, msg string, err error) error {
	code := utils.CodeInternal
	if gateway.IsKind(err, gateway.KindPermissionDenied) {
		code = utils.CodeForbidden
	}
	s.log.WithError(err).WithField("op", op).Error(msg)
	return utils.E(code, op, msg, err)
}

// SetRole changes the stored role for an identity. Used by login-time role
// selection and account helpers; the guard re-reads the row afterwards, so a
// stale in-memory role can never grant access.
func (s *Service) SetRole(ctx context.Context, id string, role models.Role) (*models.Profile, error) {
	const op = "Provisioner.SetRole"

	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "id is required", nil)
	}
	if !role.Valid() {
		return nil, utils.E(utils.CodeInvalidArgument, op, "unknown role", nil)
	}
	return s.Update(ctx, id, gateway.Row{"role": string(role)})
}

// Update applies a column patch to the profile row and returns the updated
// profile.
func (s *Service) Update(ctx context.Context, id string, patch gateway.Row) (*models.Profile, error) {
	const op = "Provisioner.Update"

	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "id is required", nil)
	}
	if len(patch) == 0 {
		return nil, utils.E(utils.CodeInvalidArgument, op, "empty patch", nil)
	}
	patch["updated_at"] = s.now()

	row, err := s.records.Update(ctx, profilesTable, patch, gateway.Filter{"id": id})
	if err != nil {
		if gateway.IsKind(err, gateway.KindNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "profile not found", err)
		}
		return nil, s.fail(op, "failed to update profile", err)
	}
	return FromRow(row), nil
}

// FromRow narrows an untyped record-store row into a Profile. The stored
// role is text; it is coerced into the closed enum here so nothing inward of
// this boundary sees a free-form role string.
func FromRow(row gateway.Row) *models.Profile {
	return &models.Profile{
		ID:          str(row["id"]),
		FullName:    str(row["full_name"]),
		Role:        models.ParseRole(str(row["role"])),
		Location:    str(row["location"]),
		PhoneNumber: str(row["phone_number"]),
		Username:    str(row["username"]),
		AvatarURL:   str(row["avatar_url"]),
		CreatedAt:   ts(row["created_at"]),
		UpdatedAt:   ts(row["updated_at"]),
	}
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func ts(v any) time.Time {
	t, _ := v.(time.Time)
	return t
}
