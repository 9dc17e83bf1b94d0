package postgres

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/kidsgo-app/kidsgo-backend/internal/models"
	"github.com/kidsgo-app/kidsgo-backend/internal/utils"
)

type ActivityRepository interface {
	GetByID(ctx context.Context, id string) (*models.Activity, error)
	ListPublished(ctx context.Context, category string, limit int) ([]models.Activity, error)
	ListByProvider(ctx context.Context, providerID string) ([]models.Activity, error)
	Upsert(ctx context.Context, a *models.Activity) error
}

type activityRepo struct {
	db *gorm.DB
}

func NewActivityRepo(db *gorm.DB) ActivityRepository {
	return &activityRepo{db: db}
}

func (r *activityRepo) GetByID(ctx context.Context, id string) (*models.Activity, error) {
	var a models.Activity
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		Take(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &a, err
}

func (r *activityRepo) ListPublished(ctx context.Context, category string, limit int) ([]models.Activity, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	q := r.db.WithContext(ctx).
		Where("published = ?", true).
		Order("created_at DESC").
		Limit(limit)
	if category != "" {
		q = q.Where("? = ANY(categories)", category)
	}
	var out []models.Activity
	err := q.Find(&out).Error
	return out, err
}

func (r *activityRepo) ListByProvider(ctx context.Context, providerID string) ([]models.Activity, error) {
	var out []models.Activity
	err := r.db.WithContext(ctx).
		Where("provider_id = ?", providerID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

func (r *activityRepo) Upsert(ctx context.Context, a *models.Activity) error {
	return r.db.WithContext(ctx).Save(a).Error
}
