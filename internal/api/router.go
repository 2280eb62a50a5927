package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/clubly/loyalty-agent/internal/api/handler"
	"github.com/clubly/loyalty-agent/internal/api/middleware"
	"github.com/clubly/loyalty-agent/internal/core/domain"
	"github.com/clubly/loyalty-agent/internal/core/service"
)

// NewRouter builds and returns the Echo instance with all routes registered.
// rdb and db are the optional backing stores; either may be nil.
func NewRouter(sessions *service.SessionService, notifications *service.NotificationService, rdb *redis.Client, db *mongo.Database, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("loyalty"))

	// --- Handlers ---
	sessionHandler := handler.NewSessionHandler(sessions)
	notificationHandler := handler.NewNotificationHandler(notifications)
	dashboardHandler := handler.NewDashboardHandler(sessions)

	// --- Public session routes ---
	e.POST("/login", sessionHandler.Login)
	e.POST("/register", sessionHandler.Register)
	e.POST("/logout", sessionHandler.Logout)

	// --- Guarded routes ---
	anyRole := middleware.Guard(sessions, domain.RoleClient, domain.RolePartner, domain.RoleAdmin)

	e.GET("/", dashboardHandler.Landing)
	e.GET("/dashboard", dashboardHandler.Client, middleware.Guard(sessions, domain.RoleClient))
	e.GET("/partner/dashboard", dashboardHandler.Partner, middleware.Guard(sessions, domain.RolePartner))
	e.GET("/admin/dashboard", dashboardHandler.Admin, middleware.Guard(sessions, domain.RoleAdmin))

	e.GET("/me", sessionHandler.Me, anyRole)

	n := e.Group("/notifications", anyRole)
	n.GET("", notificationHandler.List)
	n.GET("/unread-count", notificationHandler.UnreadCount)
	n.POST("/refresh", notificationHandler.Refresh)
	n.PUT("/:id/read", notificationHandler.MarkRead)
	n.PUT("/read-all", notificationHandler.MarkAllRead)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := handler.NewHealthHandler()
	healthDepsHandler := handler.NewHealthDependenciesHandler(db, rdb)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandler())

	return e
}
