package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/kidsgo-app/kidsgo-backend/internal/models"
	mongorepo "github.com/kidsgo-app/kidsgo-backend/internal/repositories/mongo"
	"github.com/kidsgo-app/kidsgo-backend/internal/utils"
)

// AuditService appends auth-flow events to the audit log. Writes are
// best-effort; a failed append never fails the operation being audited.
type AuditService interface {
	Record(ctx context.Context, userID, kind, detail string)
	History(ctx context.Context, userID string, limit int64) ([]models.AuthEvent, error)
}

type auditService struct {
	events mongorepo.AuditRepository
	log    *logrus.Logger
}

func NewAuditService(events mongorepo.AuditRepository, log *logrus.Logger) AuditService {
	return &auditService{events: events, log: log}
}

func (s *auditService) Record(ctx context.Context, userID, kind, detail string) {
	if s.events == nil {
		return
	}
	e := &models.AuthEvent{
		UserID:    userID,
		Kind:      kind,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.events.Append(ctx, e); err != nil {
		s.log.WithError(err).WithField("kind", kind).Warn("audit: failed to append event")
	}
}

func (s *auditService) History(ctx context.Context, userID string, limit int64) ([]models.AuthEvent, error) {
	const op = "AuditService.History"

	if s.events == nil {
		return nil, utils.E(utils.CodeUnavailable, op, "audit log unavailable", nil)
	}
	out, err := s.events.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to list events", err)
	}
	return out, nil
}
