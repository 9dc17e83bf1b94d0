// Package guard gates protected areas behind authentication and a required
// role. Resolution always passes through both resolving states in order:
// nothing is rendered before auth has settled, and profile resolution never
// starts while auth is pending.
package guard

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/kidsgo-app/kidsgo-backend/internal/models"
	"github.com/kidsgo-app/kidsgo-backend/internal/utils"
)

type State string

const (
	StateResolvingAuth    State = "resolving_auth"
	StateResolvingProfile State = "resolving_profile"
	StateUnauthenticated  State = "unauthenticated"
	StateWrongRole        State = "wrong_role"
	StateErrorAccess      State = "error_access"
	StateErrorGeneral     State = "error_general"
	StateAuthorized       State = "authorized"
)

// Session is the slice of the session context the guard consumes.
type Session interface {
	CurrentIdentity() *models.Identity
	WaitResolved(ctx context.Context) error
}

// Provisioner resolves (or creates) the profile for an identity.
type Provisioner interface {
	GetOrCreate(ctx context.Context, identity *models.Identity, defaultRole models.Role) (*models.Profile, error)
}

// Resolution is the terminal outcome of one guard pass.
type Resolution struct {
	State   State
	Profile *models.Profile
	Message string
}

// Allowed reports whether the protected subtree may render.
func (r Resolution) Allowed() bool { return r.State == StateAuthorized }

type Guard struct {
	session     Session
	provisioner Provisioner
	required    models.Role
	log         *logrus.Logger

	// observer, when set, sees every state in order including the two
	// resolving states. Drives loading indicators.
	observer func(State)
}

func New(session Session, provisioner Provisioner, required models.Role, log *logrus.Logger) *Guard {
	return &Guard{session: session, provisioner: provisioner, required: required, log: log}
}

// Observe registers a transition observer. Must be called before Resolve.
func (g *Guard) Observe(fn func(State)) { g.observer = fn }

func (g *Guard) enter(s State) {
	if g.observer != nil {
		g.observer(s)
	}
}

// Resolve runs the gating sequence: wait for auth, then resolve the profile,
// then compare roles. The resolving states are always entered, in order,
// before any terminal state.
func (g *Guard) Resolve(ctx context.Context) Resolution {
	g.enter(StateResolvingAuth)
	if err := g.session.WaitResolved(ctx); err != nil {
		g.enter(StateErrorGeneral)
		return Resolution{State: StateErrorGeneral, Message: "Could not load your session. Please try again."}
	}

	identity := g.session.CurrentIdentity()
	if identity == nil {
		g.enter(StateUnauthenticated)
		return Resolution{State: StateUnauthenticated, Message: "Please sign in to continue."}
	}

	g.enter(StateResolvingProfile)
	profile, err := g.provisioner.GetOrCreate(ctx, identity, g.required)
	if err != nil {
		if utils.IsCode(err, utils.CodeForbidden) {
			g.log.WithError(err).WithField("user_id", identity.ID).Warn("guard: access denied by policy")
			g.enter(StateErrorAccess)
			return Resolution{State: StateErrorAccess, Message: "Access denied. Your account does not have permission to view this page."}
		}
		g.log.WithError(err).WithField("user_id", identity.ID).Error("guard: could not load profile")
		g.enter(StateErrorGeneral)
		return Resolution{State: StateErrorGeneral, Message: "Could not load your profile. Please try again."}
	}
	if profile == nil {
		g.enter(StateErrorGeneral)
		return Resolution{State: StateErrorGeneral, Message: "Could not load your profile. Please try again."}
	}

	if profile.Role != g.required {
		g.log.WithFields(logrus.Fields{
			"user_id":  identity.ID,
			"role":     profile.Role,
			"required": g.required,
		}).Info("guard: role mismatch")
		g.enter(StateWrongRole)
		return Resolution{State: StateWrongRole, Profile: profile, Message: "This area is for " + string(g.required) + " accounts."}
	}

	g.enter(StateAuthorized)
	return Resolution{State: StateAuthorized, Profile: profile}
}
