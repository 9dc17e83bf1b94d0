package workers

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	pgrepo "github.com/kidsgo-app/kidsgo-backend/internal/repositories/postgres"
)

// InviteSweeper periodically marks expired provider signup codes as used so
// they can never be redeemed, even if validation and consumption race an
// expiry boundary.
type InviteSweeper struct {
	invites  pgrepo.InviteRepository
	log      *logrus.Logger
	interval time.Duration
}

func NewInviteSweeper(invites pgrepo.InviteRepository, log *logrus.Logger, interval time.Duration) *InviteSweeper {
	if interval <= 0 {
		interval = time.Hour
	}
	return &InviteSweeper{invites: invites, log: log, interval: interval}
}

// Run blocks until ctx is cancelled. One sweep happens immediately at start.
func (w *InviteSweeper) Run(ctx context.Context) {
	w.sweep(ctx)

	t := time.NewTicker(w.interval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			w.sweep(ctx)
		}
	}
}

func (w *InviteSweeper) sweep(ctx context.Context) {
	n, err := w.invites.SweepExpired(ctx, time.Now().UTC())
	if err != nil {
		w.log.WithError(err).Warn("invite sweeper: sweep failed")
		return
	}
	if n > 0 {
		w.log.WithField("expired", n).Info("invite sweeper: retired expired codes")
	}
}
