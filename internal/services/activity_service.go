package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kidsgo-app/kidsgo-backend/internal/cache"
	"github.com/kidsgo-app/kidsgo-backend/internal/models"
	pgrepo "github.com/kidsgo-app/kidsgo-backend/internal/repositories/postgres"
	"github.com/kidsgo-app/kidsgo-backend/internal/utils"
)

const listingCacheTTL = 2 * time.Minute

type ActivityService interface {
	Get(ctx context.Context, id string) (*models.Activity, error)
	ListPublished(ctx context.Context, category string, limit int) ([]models.Activity, error)
	ListByProvider(ctx context.Context, providerID string) ([]models.Activity, error)
	Save(ctx context.Context, a *models.Activity) error
}

type activityService struct {
	activities pgrepo.ActivityRepository
	cache      cache.Cache
}

func NewActivityService(activities pgrepo.ActivityRepository, c cache.Cache) ActivityService {
	return &activityService{activities: activities, cache: c}
}

func listingKey(category string, limit int) string {
	return fmt.Sprintf("activities:published:%s:%d", category, limit)
}

func (s *activityService) Get(ctx context.Context, id string) (*models.Activity, error) {
	const op = "ActivityService.Get"

	if id == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "id is required", nil)
	}
	a, err := s.activities.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, utils.E(utils.CodeNotFound, op, "activity not found", err)
		}
		return nil, utils.E(utils.CodeInternal, op, "failed to get activity", err)
	}
	return a, nil
}

func (s *activityService) ListPublished(ctx context.Context, category string, limit int) ([]models.Activity, error) {
	const op = "ActivityService.ListPublished"

	if limit <= 0 || limit > 100 {
		limit = 50
	}
	key := listingKey(category, limit)
	if s.cache != nil {
		var cached []models.Activity
		if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	out, err := s.activities.ListPublished(ctx, category, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list activities", err)
	}

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, out, listingCacheTTL)
	}
	return out, nil
}

func (s *activityService) ListByProvider(ctx context.Context, providerID string) ([]models.Activity, error) {
	const op = "ActivityService.ListByProvider"

	if providerID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "provider_id is required", nil)
	}
	out, err := s.activities.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list provider activities", err)
	}
	return out, nil
}

func (s *activityService) Save(ctx context.Context, a *models.Activity) error {
	const op = "ActivityService.Save"

	if a == nil || a.ProviderID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "activity.provider_id is required", nil)
	}
	if a.Title == "" {
		return utils.E(utils.CodeInvalidArgument, op, "activity.title is required", nil)
	}
	if a.UpdatedAt.IsZero() {
		a.UpdatedAt = time.Now().UTC()
	}
	if err := s.activities.Upsert(ctx, a); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to save activity", err)
	}
	// listing caches are short-lived; drop the uncategorized default key eagerly
	if s.cache != nil {
		_ = s.cache.Del(ctx, listingKey("", 50))
	}
	return nil
}
