package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/kidsgo-app/kidsgo-backend/config"
	"github.com/kidsgo-app/kidsgo-backend/internal/api/handlers"
	"github.com/kidsgo-app/kidsgo-backend/internal/api/middleware"
	"github.com/kidsgo-app/kidsgo-backend/internal/api/routes"
	"github.com/kidsgo-app/kidsgo-backend/internal/cache"
	"github.com/kidsgo-app/kidsgo-backend/internal/gateway"
	"github.com/kidsgo-app/kidsgo-backend/internal/gateway/gcsblob"
	"github.com/kidsgo-app/kidsgo-backend/internal/gateway/gotrue"
	"github.com/kidsgo-app/kidsgo-backend/internal/gateway/local"
	"github.com/kidsgo-app/kidsgo-backend/internal/gateway/pgstore"
	"github.com/kidsgo-app/kidsgo-backend/internal/invites"
	"github.com/kidsgo-app/kidsgo-backend/internal/logger"
	"github.com/kidsgo-app/kidsgo-backend/internal/provision"
	mongorepo "github.com/kidsgo-app/kidsgo-backend/internal/repositories/mongo"
	pgrepo "github.com/kidsgo-app/kidsgo-backend/internal/repositories/postgres"
	"github.com/kidsgo-app/kidsgo-backend/internal/services"
	"github.com/kidsgo-app/kidsgo-backend/internal/session"
	"github.com/kidsgo-app/kidsgo-backend/internal/workers"
)

func main() {
	_ = godotenv.Load()

	log := logger.New()
	ctx := context.Background()

	// Postgres (record store)
	db, err := config.NewPostgres()
	if err != nil {
		log.WithError(err).Fatal("postgres init")
	}
	records := pgstore.New(db)

	// Auth backend: hosted unless AUTH_BACKEND=local (dev)
	var auth gateway.Auth
	if os.Getenv("AUTH_BACKEND") == "local" {
		log.Warn("using local in-memory auth backend")
		auth = local.New()
	} else {
		auth = gotrue.New(gotrue.Config{
			BaseURL:   os.Getenv("AUTH_BASE_URL"),
			APIKey:    os.Getenv("AUTH_API_KEY"),
			JWTSecret: os.Getenv("AUTH_JWT_SECRET"),
		}, log)
	}

	// Blob storage (avatars)
	blob, err := gcsblob.New(ctx)
	if err != nil {
		log.WithError(err).Fatal("gcs init")
	}
	defer blob.Close()

	// Redis cache (optional)
	var c cache.Cache
	if rdb, err := config.NewRedis(ctx); err != nil {
		log.WithError(err).Warn("redis unavailable; listing cache disabled")
	} else {
		c = cache.NewRedisCache(rdb)
	}

	// Mongo audit log (optional)
	var audit services.AuditService
	if mc, err := config.NewMongo(ctx); err != nil {
		log.WithError(err).Warn("mongo unavailable; auditing disabled")
		audit = services.NewAuditService(nil, log)
	} else {
		mdb := mc.Database(envOr("MONGO_DB", "kidsgo"))
		if err := mongorepo.EnsureIndexes(ctx, mdb); err != nil {
			log.WithError(err).Warn("mongo index setup failed")
		}
		audit = services.NewAuditService(mongorepo.NewAuditRepo(mdb), log)
	}

	provisioner := provision.New(records, log)
	inviteSvc := invites.New(records, log)
	activitySvc := services.NewActivityService(pgrepo.NewActivityRepo(db), c)

	sess := session.New(auth, log)
	defer sess.Close()

	// retire expired invite codes in the background
	sweepCtx, stopSweep := context.WithCancel(ctx)
	defer stopSweep()
	go workers.NewInviteSweeper(pgrepo.NewInviteRepo(db), log, time.Hour).Run(sweepCtx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(log))

	routes.RegisterRoutes(r, routes.Deps{
		Bearer: middleware.BearerConfig{
			Secret:   os.Getenv("AUTH_JWT_SECRET"),
			Issuer:   os.Getenv("AUTH_JWT_ISSUER"),
			Audience: os.Getenv("AUTH_JWT_AUDIENCE"),
		},
		Provisioner: provisioner,
		Log:         log,
		Audit:       audit,
		Auth:        handlers.NewAuthHandler(auth, provisioner, inviteSvc, audit),
		Invites:     handlers.NewInviteHandler(inviteSvc, audit),
		Profile:     handlers.NewProfileHandler(provisioner),
		Activities:  handlers.NewActivityHandler(activitySvc),
		Avatar:      handlers.NewAvatarHandler(blob, provisioner),
		AuditLog:    handlers.NewAuditHandler(audit),
		SessionWS:   handlers.NewSessionWSHandler(sess, log),
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	if err := r.Run(":" + port); err != nil {
		log.WithError(err).Fatal("server exited")
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
