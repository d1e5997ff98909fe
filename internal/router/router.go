package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/iliyamo/household-ledger/internal/handler"
	"github.com/iliyamo/household-ledger/internal/middleware"
)

// Guards bundles the middleware every /api route is built from.  Verifier
// establishes who is calling; Resolver turns that identity into a
// registered user.  Limit, when set, runs right after authentication so
// per-user rate keys see the verified subject.
type Guards struct {
	Verifier middleware.TokenVerifier
	Resolver middleware.IdentityResolver
	Limit    echo.MiddlewareFunc
}

func (g Guards) authenticated() []echo.MiddlewareFunc {
	mw := []echo.MiddlewareFunc{middleware.BearerAuth(g.Verifier)}
	if g.Limit != nil {
		mw = append(mw, g.Limit)
	}
	return mw
}

func (g Guards) registered() echo.MiddlewareFunc { return middleware.RequireRegistered(g.Resolver) }

// RegisterRoutes registers routes that do not require authentication.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers /api/auth.  Both routes run BearerAuth only:
// register is for callers that have no user row yet, and me reports 404
// for them instead of 403.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, g Guards) {
	auth := e.Group("/api/auth", g.authenticated()...)
	auth.POST("/register", a.Register)
	auth.GET("/me", a.Me)
}

// RegisterHouseholds registers household and invite endpoints.  The
// membership and creator checks happen in the services.
func RegisterHouseholds(e *echo.Echo, h *handler.HouseholdHandler, g Guards) {
	hh := e.Group("/api/households", append(g.authenticated(), g.registered())...)
	hh.GET("", h.List)
	hh.POST("", h.Create)
	hh.POST("/join/:code", h.Join)
	hh.GET("/:id", h.Get)
	hh.GET("/:id/members", h.Members)
	hh.GET("/:id/invites", h.ListInvites)
	hh.POST("/:id/invites", h.CreateInvite)
}

// RegisterTransactions registers transaction endpoints.  cache wraps the
// categories listing only; it is keyed per caller.
func RegisterTransactions(e *echo.Echo, h *handler.TransactionHandler, g Guards, cache echo.MiddlewareFunc) {
	tx := e.Group("/api/transactions", append(g.authenticated(), g.registered())...)
	tx.POST("", h.Create)
	tx.GET("", h.List)
	tx.GET("/summary", h.Summary)
	tx.GET("/categories", h.Categories, cache)
	tx.GET("/:id", h.Get)
	tx.PUT("/:id", h.Update)
	tx.DELETE("/:id", h.Delete)
}
