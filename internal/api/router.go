package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/storefront/commerce-api/docs"
	"github.com/storefront/commerce-api/internal/api/handler"
	"github.com/storefront/commerce-api/internal/api/middleware"
	"github.com/storefront/commerce-api/internal/core/domain"
	"github.com/storefront/commerce-api/internal/core/ports"
)

// Deps carries everything the HTTP layer needs. Services and repositories are
// built in main.
type Deps struct {
	Auth     ports.AuthService
	Users    ports.UserService
	Products ports.ProductService
	UserRepo ports.UserRepository
	Tokens   ports.TokenIssuer

	// Limiter is nil when rate limiting is disabled.
	Limiter      ports.RateLimiter
	RateCapacity int
	RatePrefix   string

	Cookie       handler.CookieOptions
	HealthChecks map[string]handler.CheckFunc
	Log          zerolog.Logger

	// Metrics default to the prometheus default registry.
	MetricsRegistry prometheus.Registerer
	MetricsGatherer prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	registerer := d.MetricsRegistry
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	gatherer := d.MetricsGatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestMeta())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomiddleware.CORSWithConfig(echomiddleware.CORSConfig{
		AllowCredentials: true,
		AllowOriginFunc:  func(string) (bool, error) { return true, nil },
	}))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "storefront",
		Subsystem:  "http",
		Registerer: registerer,
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(d.Auth, d.Cookie)
	userHandler := handler.NewUserHandler(d.Users)
	productHandler := handler.NewProductHandler(d.Products)
	healthHandler := handler.NewHealthHandler(d.HealthChecks)

	authn := middleware.Auth(d.Tokens)
	admin := middleware.RequireRole(d.UserRepo, domain.RoleAdmin)
	rl := middleware.RateLimitConfig{
		Limiter:  d.Limiter,
		Capacity: d.RateCapacity,
		Prefix:   d.RatePrefix,
		Log:      d.Log,
	}

	// --- User routes ---
	users := e.Group("/api/user")
	users.POST("/register", authHandler.Register, middleware.RateLimit(rl, "register"))
	users.POST("/login", authHandler.Login, middleware.RateLimit(rl, "login"))
	users.POST("/refresh", authHandler.Refresh, middleware.RateLimit(rl, "refresh"))
	users.POST("/logout", authHandler.Logout)
	users.GET("/allusers", userHandler.List)
	users.PUT("/edituser", userHandler.UpdateProfile, authn, admin)
	users.PUT("/blockuser/:id", userHandler.ToggleBlock, authn, admin)
	users.PUT("/unblockuser/:id", userHandler.ToggleBlock, authn, admin)
	users.GET("/:id", userHandler.Get, authn, admin)
	users.DELETE("/:id", userHandler.Delete)

	// --- Product routes ---
	products := e.Group("/api/product")
	products.POST("/createproduct", productHandler.Create, authn, admin)
	products.GET("", productHandler.List)
	products.GET("/", productHandler.List)
	products.GET("/:id", productHandler.Get)
	products.PUT("/:id", productHandler.Update, authn, admin)
	products.DELETE("/:id", productHandler.Delete, authn, admin)

	// --- Operations (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
