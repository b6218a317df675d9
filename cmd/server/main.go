package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anonto42/dispatch/backend/internal/events"
	"github.com/anonto42/dispatch/backend/internal/identity"
	"github.com/anonto42/dispatch/backend/internal/repositories"
	"github.com/anonto42/dispatch/backend/internal/repositories/memstore"
	"github.com/anonto42/dispatch/backend/internal/router"
	"github.com/anonto42/dispatch/backend/internal/services"
	"github.com/anonto42/dispatch/backend/pkg/config"
	"github.com/anonto42/dispatch/backend/pkg/firebase"
	"github.com/anonto42/dispatch/backend/pkg/logger"
	"github.com/anonto42/dispatch/backend/pkg/metrics"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

func main() {
	// Load configuration
	cfg := config.Load()
	log := logger.New(cfg.LogLevel, cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := services.Deps{Log: log, AdminEmails: cfg.AdminEmails}

	// Initialize storage
	if cfg.StorageBackend == "memory" {
		store := memstore.New()
		deps.Profiles = store.Profiles()
		deps.Follows = store.Follows()
		deps.Posts = store.Posts()
		deps.Credits = store.Credits()
		deps.Notifications = store.Notifications()
		log.Warn("Using in-memory storage; data is lost on exit")
	} else {
		db, err := config.InitDB(cfg, log)
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize databases")
		}
		defer db.CloseDB()

		if err := router.MigratePostgres(db.Postgres); err != nil {
			log.WithError(err).Fatal("Failed to auto migrate models")
		}
		log.Info("PostgreSQL auto-migrations completed for all models.")

		posts := repositories.NewMongoPostRepository(db.Mongo.Database(cfg.MongoDatabase))
		if err := posts.EnsureIndexes(ctx); err != nil {
			log.WithError(err).Warn("Failed to create post indexes")
		}

		deps.Profiles = repositories.NewPostgresProfileRepository(db.Postgres)
		deps.Follows = repositories.NewPostgresFollowRepository(db.Postgres)
		deps.Posts = posts
		deps.Credits = repositories.NewPostgresCreditRepository(db.Postgres)
		deps.Notifications = repositories.NewPostgresNotificationRepository(db.Postgres)
	}

	// Domain events
	if cfg.NatsURL != "" {
		pub, err := events.NewNATSPublisher(cfg.NatsURL)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to NATS")
		}
		defer pub.Close()
		deps.Events = pub
		log.WithField("url", cfg.NatsURL).Info("Publishing account events to NATS")
	} else {
		deps.Events = events.NopPublisher{}
	}

	tokens, closeCache := buildValidator(ctx, cfg, log)
	defer closeCache()

	// Metrics
	metrics.Register(prometheus.DefaultRegisterer)
	go serveMetrics(cfg.MetricsPort, log)

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true
	config.SetupMiddleware(e, log)
	router.SetupRoutes(e, router.Deps{
		Accounts: services.NewAccountService(deps),
		Tokens:   tokens,
		Log:      log,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("Server stopped")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown failed")
	}
}

func buildValidator(ctx context.Context, cfg *config.Config, log *logrus.Logger) (*identity.Validator, func()) {
	closeCache := func() {}

	var provider identity.Provider
	switch cfg.IdentityProvider {
	case "firebase":
		client, err := firebase.NewAuthClient(ctx, firebase.Options{
			CredentialsPath: cfg.FirebaseCredentialsPath,
			ProjectID:       cfg.FirebaseProjectID,
		})
		if err != nil {
			log.WithError(err).Fatal("Failed to initialize Firebase")
		}
		provider = identity.NewFirebaseProvider(client)
		log.Info("Firebase auth client initialized")
	default:
		if cfg.Auth0Domain == "" {
			log.Fatal("AUTH0_DOMAIN environment variable not set")
		}
		provider = identity.NewUserInfoProvider(cfg.Auth0Domain, cfg.UserInfoTimeout, cfg.UserInfoRatePerSec, cfg.UserInfoBurst)
	}

	var cache identity.Cache
	switch cfg.TokenCacheBackend {
	case "memcached":
		cache = identity.NewMemcacheCache(cfg.MemcachedURL)
	case "redis":
		rc, err := identity.NewRedisCache(cfg.RedisURL)
		if err != nil {
			log.WithError(err).Fatal("Invalid REDIS_URL")
		}
		cache = rc
		closeCache = func() { _ = rc.Close() }
	default:
		cache = identity.NewMemoryCache(cfg.TokenCacheSize, cfg.TokenCacheTTL)
	}
	log.WithFields(logrus.Fields{
		"provider": cfg.IdentityProvider,
		"cache":    cfg.TokenCacheBackend,
		"ttl":      cfg.TokenCacheTTL.String(),
	}).Info("Token validation configured")

	return identity.NewValidator(provider, cache, cfg.TokenCacheTTL, log), closeCache
}

func serveMetrics(port string, log logrus.FieldLogger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{Addr: ":" + port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.WithError(err).Error("Metrics server stopped")
	}
}
