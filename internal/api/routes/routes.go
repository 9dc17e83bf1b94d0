package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/kidsgo-app/kidsgo-backend/internal/api/handlers"
	"github.com/kidsgo-app/kidsgo-backend/internal/api/middleware"
	"github.com/kidsgo-app/kidsgo-backend/internal/guard"
	"github.com/kidsgo-app/kidsgo-backend/internal/models"
	"github.com/kidsgo-app/kidsgo-backend/internal/provision"
)

type Deps struct {
	Bearer      middleware.BearerConfig
	Provisioner *provision.Service
	Log         *logrus.Logger
	Audit       guard.AuditRecorder

	Auth       *handlers.AuthHandler
	Invites    *handlers.InviteHandler
	Profile    *handlers.ProfileHandler
	Activities *handlers.ActivityHandler
	Avatar     *handlers.AvatarHandler
	AuditLog   *handlers.AuditHandler
	SessionWS  *handlers.SessionWSHandler
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	// Health-ish
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	// Public
	r.POST("/auth/signup", d.Auth.Signup)
	r.POST("/auth/login", d.Auth.Login)
	r.POST("/auth/resend", d.Auth.ResendVerification)
	r.POST("/invites/validate", d.Invites.ValidateCode)
	r.GET("/activities", d.Activities.List)
	r.GET("/activities/:activity_id", d.Activities.Get)

	// Authenticated (bearer token)
	auth := r.Group("/")
	auth.Use(middleware.Bearer(d.Bearer))

	auth.POST("/auth/logout", d.Auth.Logout)
	auth.GET("/profile/me", d.Profile.Me)
	auth.PUT("/profile/update", d.Profile.Update)
	auth.PUT("/profile/role", d.Profile.SetRole)
	auth.POST("/profile/avatar", d.Avatar.Upload)

	// Provider area: profile re-resolved and role checked on every request
	provider := auth.Group("/provider")
	provider.Use(guard.Middleware(d.Provisioner, models.RoleProvider, d.Log, d.Audit))

	provider.GET("/activities", d.Activities.ListMine)
	provider.POST("/activities", d.Activities.Save)

	// Admin area
	admin := auth.Group("/admin")
	admin.Use(guard.Middleware(d.Provisioner, models.RoleAdmin, d.Log, d.Audit))

	admin.POST("/invites", d.Invites.Issue)
	admin.GET("/audit/:user_id", d.AuditLog.History)

	// WebSocket session stream
	r.GET("/ws/session", d.SessionWS.Stream)
}
