package guard

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kidsgo-app/kidsgo-backend/internal/models"
	"github.com/kidsgo-app/kidsgo-backend/internal/utils"
)

// AuditRecorder receives access-denial events. Writes are best-effort.
type AuditRecorder interface {
	Record(ctx context.Context, userID, kind, detail string)
}

// requestSession adapts a per-request identity (extracted from the bearer
// token by the auth middleware) to the guard's Session. Auth is already
// settled for a request, so WaitResolved returns immediately.
type requestSession struct {
	identity *models.Identity
}

func (s requestSession) CurrentIdentity() *models.Identity      { return s.identity }
func (s requestSession) WaitResolved(ctx context.Context) error { return ctx.Err() }

// Middleware gates a route group behind the required role. The profile is
// re-resolved from the record store on every request; a role cached in an
// earlier response is never trusted.
func Middleware(provisioner Provisioner, required models.Role, log *logrus.Logger, audit AuditRecorder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var identity *models.Identity
		if v, ok := c.Get("identity"); ok {
			identity, _ = v.(*models.Identity)
		}

		g := New(requestSession{identity: identity}, provisioner, required, log)
		res := g.Resolve(c.Request.Context())

		if !res.Allowed() && audit != nil {
			var userID string
			if identity != nil {
				userID = identity.ID
			}
			audit.Record(c.Request.Context(), userID, models.EventAccessDenied, string(res.State))
		}

		switch res.State {
		case StateAuthorized:
			c.Set("profile", res.Profile)
			c.Next()
		case StateUnauthenticated:
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":    utils.CodeUnauthorized,
				"message": res.Message,
			})
		case StateWrongRole, StateErrorAccess:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"code":    utils.CodeForbidden,
				"message": res.Message,
			})
		default:
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
				"code":    utils.CodeInternal,
				"message": res.Message,
			})
		}
	}
}
