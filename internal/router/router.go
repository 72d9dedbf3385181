package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/restaurant-table-reservation/internal/handler"    // import the handlers that implement business logic
	"github.com/iliyamo/restaurant-table-reservation/internal/middleware" // import middleware for JWT authentication and role enforcement
	"github.com/iliyamo/restaurant-table-reservation/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// The /healthz endpoint can be used by load balancers or monitoring
	// systems to verify that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware.  Unauthenticated operations live under /v1/auth,
// while protected endpoints live under /v1.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	// Operations that do not require an existing session: register, login
	// and token refresh.  Each handler is responsible for generating or
	// exchanging tokens itself.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	// Refresh rotates the presented refresh token and issues a new pair.
	g.POST("/refresh", a.Refresh)
	// Logout accepts either a bearer access token (revoking every session
	// of that user) or a JSON body with a single refresh_token to revoke.
	g.POST("/logout", a.Logout)

	// Routes that require a valid access token.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleClient, model.RoleAdmin))
	auth.GET("/me", a.Me)
}

// RegisterTables registers the table catalogue.  Browsing and the
// availability check are open to any authenticated user; mutations are
// grouped under /v1/admin and restricted to staff.
//
// The optional cache middleware applies to the read-only group only,
// and deliberately behind the JWT and role checks: a cache hit ends the
// chain, so everything that must run on every request sits in front of
// it.  Table reads are the one surface whose responses do not vary per
// user, which is what makes them cacheable at all.
func RegisterTables(e *echo.Echo, t *handler.TableHandler, jwtSecret string, cache echo.MiddlewareFunc) {
	auth := e.Group("/v1/tables")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleClient, model.RoleAdmin))
	if cache != nil {
		auth.Use(cache)
	}
	auth.GET("", t.List)
	auth.GET("/:id", t.Get)
	// GET /v1/tables/:id/availability?date=&start=&end=[&exclude=]
	// answers whether a window is bookable without creating anything.
	auth.GET("/:id/availability", t.Availability)

	admin := e.Group("/v1/admin/tables")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.POST("", t.Create)
	admin.PUT("/:id", t.Update)
	admin.DELETE("/:id", t.Delete)
}

// RegisterReservations registers the reservation lifecycle.  Clients
// operate on their own bookings under /v1/reservations; staff get the
// full view plus status control under /v1/admin/reservations.
func RegisterReservations(e *echo.Echo, r *handler.ReservationHandler, jwtSecret string) {
	auth := e.Group("/v1/reservations")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleClient, model.RoleAdmin))
	auth.POST("", r.Create)
	auth.GET("", r.List)
	auth.GET("/:id", r.Get)
	auth.PUT("/:id", r.Update)
	auth.DELETE("/:id", r.Delete)

	admin := e.Group("/v1/admin/reservations")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.GET("", r.List)
	admin.PATCH("/:id/status", r.SetStatus)
	admin.DELETE("/:id", r.Delete)
}

// RegisterAdminUsers registers staff-only account management.
func RegisterAdminUsers(e *echo.Echo, u *handler.UserHandler, jwtSecret string) {
	admin := e.Group("/v1/admin/users")
	admin.Use(middleware.JWTAuth(jwtSecret))
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.GET("", u.List)
	admin.GET("/:id", u.Get)
	admin.PUT("/:id", u.Update)
	admin.DELETE("/:id", u.Delete)
}
