package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jnnzz/psits-auth/internal/auth/domain"
	"github.com/jnnzz/psits-auth/internal/auth/service"
	"github.com/jnnzz/psits-auth/internal/auth/store"
	"github.com/jnnzz/psits-auth/pkg/httpx"
	"github.com/jnnzz/psits-auth/pkg/jwtx"
	"github.com/jnnzz/psits-auth/pkg/slogx"
)

// BasePath prefixes every auth route. The refresh cookie is scoped to it so
// the browser only ever sends the token back to this surface.
const BasePath = "/v2/auth"

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	accessCodec  *jwtx.AccessCodec
	store        store.Store
	authService  *service.AuthService
	cookie       httpx.RefreshCookie
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger
}

func NewRouter(
	accessCodec *jwtx.AccessCodec,
	st store.Store,
	authService *service.AuthService,
	cookie httpx.RefreshCookie,
	buildVersion string,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		accessCodec:  accessCodec,
		store:        st,
		authService:  authService,
		cookie:       cookie,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerSystem()
}

func (r *Router) registerAuth() {
	h := &Handlers{Service: r.authService, Cookie: r.cookie}

	// POST /login - strict rate limit (authentication attempts)
	r.Mux.Handle("POST "+BasePath+"/login",
		httpx.Chain(http.HandlerFunc(h.handleLogin),
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)

	// POST /refresh - moderate limit; legitimate clients refresh often
	r.Mux.Handle("POST "+BasePath+"/refresh",
		httpx.Chain(http.HandlerFunc(h.handleRefresh),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// POST /logout - no auth required, best-effort by design
	r.Mux.Handle("POST "+BasePath+"/logout",
		httpx.Chain(http.HandlerFunc(h.handleLogout),
			httpx.RateLimitByIP(httpx.ModerateLimit),
		),
	)

	// GET /me - stateless token check plus role gate
	r.Mux.Handle("GET "+BasePath+"/me",
		httpx.Chain(http.HandlerFunc(h.handleMe),
			httpx.RequireAccessToken(r.accessCodec),
			httpx.RequireRole(string(domain.RoleAdmin), string(domain.RoleStudent)),
			httpx.RateLimitByUser(httpx.LenientLimit),
		),
	)

	// POST /revoke - destructive, so the full stack: DB-checked session,
	// role gate, then access-level gate
	r.Mux.Handle("POST "+BasePath+"/revoke",
		httpx.Chain(http.HandlerFunc(h.handleRevoke),
			RequireActiveSession(r.accessCodec, r.store),
			httpx.RequireRole(string(domain.RoleAdmin)),
			RequireAdminAccess(r.store, "president", "vice-president", "developer"),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez", LivezHandler(r.startTime, r.buildVersion))
	r.Mux.Handle("GET /readyz", ReadyzHandler(r.startTime, r.buildVersion, r.store))
}
