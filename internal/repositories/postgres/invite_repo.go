package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/kidsgo-app/kidsgo-backend/internal/models"
)

// InviteRepository covers the maintenance queries the generic record store
// cannot express (range predicates for the sweeper).
type InviteRepository interface {
	SweepExpired(ctx context.Context, now time.Time) (int64, error)
}

type inviteRepo struct {
	db *gorm.DB
}

func NewInviteRepo(db *gorm.DB) InviteRepository {
	return &inviteRepo{db: db}
}

func (r *inviteRepo) SweepExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&models.ProviderSignupCode{}).
		Where("used = ? AND expires_at < ?", false, now).
		Updates(map[string]any{"used": true, "updated_at": now})
	return res.RowsAffected, res.Error
}
