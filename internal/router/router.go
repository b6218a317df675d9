package router

import (
	"github.com/anonto42/dispatch/backend/internal/handlers"
	"github.com/anonto42/dispatch/backend/internal/middleware"
	"github.com/anonto42/dispatch/backend/internal/models"
	"github.com/anonto42/dispatch/backend/internal/services"
	"github.com/anonto42/dispatch/backend/internal/validators"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// Deps are what the routes need to serve requests
type Deps struct {
	Accounts *services.AccountService
	Tokens   middleware.TokenValidator
	Log      logrus.FieldLogger
}

// MigratePostgres creates or updates the relational tables
func MigratePostgres(pgdb *gorm.DB) error {
	return pgdb.AutoMigrate(
		&models.Profile{},
		&models.Follow{},
		&models.CreditLedgerEntry{},
		&models.Notification{},
	)
}

// SetupRoutes configures all application routes and injects dependencies
func SetupRoutes(e *echo.Echo, d Deps) {
	e.Validator = validators.NewValidator()

	// Health check - always accessible
	e.GET("/health", handlers.HealthCheck)

	api := e.Group("/api/v1")
	api.Use(middleware.BearerAuth(d.Tokens))
	d.Log.Debug("Bearer authentication middleware applied to /api/v1 group.")

	account := api.Group("/account")
	handlers.NewAccountHandler(d.Accounts, d.Log).RegisterAccountRoutes(account)
	handlers.NewFollowHandler(d.Accounts, d.Log).RegisterFollowRoutes(account)
	handlers.NewCreditHandler(d.Accounts, d.Log).RegisterCreditRoutes(account)
	d.Log.Debug("Account routes configured.")

	handlers.NewNotificationHandler(d.Accounts, d.Log).RegisterNotificationRoutes(api)
	d.Log.Debug("Notification routes configured.")

	handlers.NewPostHandler(d.Accounts, d.Log).RegisterPostRoutes(api)
	d.Log.Debug("Post routes configured.")

	admin := api.Group("/admin", middleware.RequireAdmin(d.Accounts))
	handlers.NewAdminHandler(d.Accounts, d.Log).RegisterAdminRoutes(admin)
	d.Log.Debug("Admin routes configured.")

	d.Log.Info("All routes configured.")
}
