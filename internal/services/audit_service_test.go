package services

import (
	"context"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/kidsgo-app/kidsgo-backend/internal/models"
	"github.com/kidsgo-app/kidsgo-backend/internal/utils"
)

type fakeAuditRepo struct {
	events []models.AuthEvent
}

func (f *fakeAuditRepo) Append(ctx context.Context, e *models.AuthEvent) error {
	f.events = append(f.events, *e)
	return nil
}

func (f *fakeAuditRepo) ListByUser(ctx context.Context, userID string, limit int64) ([]models.AuthEvent, error) {
	var out []models.AuthEvent
	for _, e := range f.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return l
}

// With the event store down the service degrades instead of panicking:
// writes are dropped, reads fail with a classified error.
func TestAuditServiceWithoutRepo(t *testing.T) {
	svc := NewAuditService(nil, quietLogger())

	svc.Record(context.Background(), "u1", models.EventSignedIn, "")

	_, err := svc.History(context.Background(), "u1", 10)
	if !utils.IsCode(err, utils.CodeUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestAuditServiceRecordAndHistory(t *testing.T) {
	repo := &fakeAuditRepo{}
	svc := NewAuditService(repo, quietLogger())

	svc.Record(context.Background(), "u1", models.EventSignedIn, "")
	svc.Record(context.Background(), "u2", models.EventAccessDenied, "wrong_role")

	out, err := svc.History(context.Background(), "u2", 10)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(out) != 1 || out[0].Kind != models.EventAccessDenied {
		t.Fatalf("expected one access_denied event for u2, got %v", out)
	}
}
