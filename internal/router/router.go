package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/fishtrack/internal/config"
	"github.com/iliyamo/fishtrack/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/fishtrack/internal/middleware" // JWT, cache, rate limit and request logging
	"github.com/iliyamo/fishtrack/internal/reporting"
)

// Deps carries everything the route table needs.  Redis may be nil, in
// which case caching and rate limiting pass requests straight through.
type Deps struct {
	JWTSecret string
	Redis     *redis.Client
	Cache     config.CacheConfig
	RateLimit config.RateLimitConfig
	Log       *zap.Logger
	Reporter  *reporting.Reporter

	Health   *handler.HealthHandler
	Auth     *handler.AuthHandler
	Captures *handler.CaptureHandler
	Weather  *handler.WeatherHandler
	Photos   *handler.PhotoHandler
}

// New builds the Echo instance with the global middleware chain and every
// route registered.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(echomw.Recover())
	e.Use(middleware.RequestLogger(d.Log, d.Reporter))

	RegisterRoutes(e, d.Health)

	// Everything under /v1 shares one token bucket per client and route.
	v1 := e.Group("/v1", middleware.NewTokenBucket(d.RateLimit, d.Redis, d.Log))
	RegisterAuth(v1, d.Auth, d.JWTSecret, middleware.NewTokenBucket(d.RateLimit.ForAuth(), d.Redis, d.Log))
	RegisterCaptures(v1, d.Captures, d.Photos, d.JWTSecret)
	RegisterWeather(v1, d.Weather, middleware.NewRedisCache(d.Cache, d.Redis, d.Log))
	return e
}

// RegisterRoutes registers routes that do not require authentication or
// rate limiting.  Currently it exposes only a health check, which load
// balancers and monitoring systems poll.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
}

// RegisterAuth registers the session routes.  Unauthenticated operations
// live under /v1/auth behind the stricter authLimit bucket, while profile
// endpoints require a valid access token.
func RegisterAuth(v1 *echo.Group, a *handler.AuthHandler, jwtSecret string, authLimit echo.MiddlewareFunc) {
	g := v1.Group("/auth", authLimit)
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Logout accepts either a refresh_token body or a bearer token; with a
	// bearer and no body every session of that user is revoked.
	g.POST("/logout", a.Logout, middleware.OptionalJWT(jwtSecret))
	g.POST("/password/reset", a.ResetPassword)
	g.POST("/password/confirm", a.ConfirmPasswordReset)

	auth := JWTGroup(v1, jwtSecret)
	auth.GET("/me", a.Me)
	auth.PATCH("/me", a.UpdateMe)
	auth.GET("/users/:uid", a.UserData)
}

// RegisterCaptures registers the catch record and photo upload routes.
// Every one of them is owner-scoped, so all require a bearer token.
func RegisterCaptures(v1 *echo.Group, h *handler.CaptureHandler, p *handler.PhotoHandler, jwtSecret string) {
	g := JWTGroup(v1, jwtSecret)
	g.POST("/captures", h.Create)
	g.GET("/captures", h.List)
	// Registered before /captures/:id so "map" is not taken for an id.
	g.GET("/captures/map", h.Map)
	g.GET("/captures/:id", h.Get)
	g.PATCH("/captures/:id", h.Update)
	g.PUT("/captures/:id", h.Update)
	g.DELETE("/captures/:id", h.Delete)
	g.POST("/photos", p.Upload)
}

// RegisterWeather registers the public weather routes behind the response
// cache.
func RegisterWeather(v1 *echo.Group, h *handler.WeatherHandler, cache echo.MiddlewareFunc) {
	g := v1.Group("/weather", cache)
	g.GET("", h.Current)
	g.GET("/forecast", h.Forecast)
	g.GET("/advice", h.Advice)
}

// JWTGroup returns a sub-group of v1 guarded by JWTAuth.
func JWTGroup(v1 *echo.Group, jwtSecret string) *echo.Group {
	return v1.Group("", middleware.JWTAuth(jwtSecret))
}
