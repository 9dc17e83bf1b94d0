package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kidsgo-app/kidsgo-backend/internal/models"
)

type AuditRepository interface {
	Append(ctx context.Context, e *models.AuthEvent) error
	ListByUser(ctx context.Context, userID string, limit int64) ([]models.AuthEvent, error)
}

type auditRepo struct {
	col *mongo.Collection
}

func NewAuditRepo(db *mongo.Database) AuditRepository {
	return &auditRepo{col: db.Collection("auth_events")}
}

// EnsureIndexes creates the lookup index for per-user event queries.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("auth_events").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
	})
	return err
}

func (r *auditRepo) Append(ctx context.Context, e *models.AuthEvent) error {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, e)
	return err
}

func (r *auditRepo) ListByUser(ctx context.Context, userID string, limit int64) ([]models.AuthEvent, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	cur, err := r.col.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}).SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.AuthEvent
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
