package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/reposcope/reposcope/internal/gateway/cache"
	"github.com/reposcope/reposcope/internal/gateway/github"
	"github.com/reposcope/reposcope/internal/gateway/service"
	"github.com/reposcope/reposcope/internal/gateway/store"
	"github.com/reposcope/reposcope/pkg/httpx"
	"github.com/reposcope/reposcope/pkg/jwtx"
	"github.com/reposcope/reposcope/pkg/slogx"
)

// Router holds shared dependencies for HTTP handlers.
type Router struct {
	Mux         *http.ServeMux
	middlewares []httpx.Middleware

	sessions     *jwtx.Sessions
	buildVersion string
	startTime    time.Time
	logger       *slog.Logger

	store             store.Store
	LoginService      *service.LoginService
	CredentialService *service.CredentialService
	ContextService    *service.ContextService
	JudgeService      *service.JudgeService
	Client            *github.Client
	Cache             *cache.Cache
}

func NewRouter(
	sessions *jwtx.Sessions,
	buildVersion string,
	st store.Store,
	logger *slog.Logger,
) *Router {
	r := &Router{
		Mux:          http.NewServeMux(),
		sessions:     sessions,
		buildVersion: buildVersion,
		startTime:    time.Now(),
		store:        st,
		logger:       logger,
	}

	r.middlewares = []httpx.Middleware{
		slogx.HTTPMiddleware(r.logger),
	}

	return r
}

func (r *Router) ApplyRoutes() {
	r.registerAuth()
	r.registerProxy()
	r.registerJudgment()
	r.registerSystem()
}

// ServeHTTP implements http.Handler for Router and applies the global
// middleware chain.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	httpx.Chain(r.Mux, r.middlewares...).ServeHTTP(w, req)
}

func (r *Router) registerAuth() {
	// Both login endpoints are unauthenticated and strictly limited by IP.
	r.Mux.Handle("GET /v1/auth/login",
		httpx.Chain(&LoginHandler{LoginService: r.LoginService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
	r.Mux.Handle("GET /v1/auth/callback",
		httpx.Chain(&CallbackHandler{LoginService: r.LoginService},
			httpx.RateLimitByIP(httpx.StrictLimit),
		),
	)
}

func (r *Router) registerProxy() {
	proxy := &Proxy{
		Credentials: r.CredentialService,
		Client:      r.Client,
		Cache:       r.Cache,
	}

	secured := func(h http.Handler) http.Handler {
		return httpx.Chain(h,
			httpx.SessionAuth(r.sessions),
			httpx.RateLimitByUser(httpx.LenientLimit),
		)
	}

	r.Mux.Handle("GET /v1/me", secured(&ProfileHandler{Proxy: proxy}))
	r.Mux.Handle("GET /v1/me/repos", secured(&ReposHandler{Proxy: proxy}))
	r.Mux.Handle("GET /v1/repos/{owner}/{repo}", secured(&RepoHandler{Proxy: proxy}))
	r.Mux.Handle("GET /v1/repos/{owner}/{repo}/commits", secured(&CommitsHandler{Proxy: proxy}))
	r.Mux.Handle("GET /v1/repos/{owner}/{repo}/issues", secured(&IssuesHandler{Proxy: proxy}))
	r.Mux.Handle("GET /v1/repos/{owner}/{repo}/pulls", secured(&PullsHandler{Proxy: proxy}))
}

func (r *Router) registerJudgment() {
	// Judgment fans out several upstream calls plus a model invocation per
	// request, so it gets the moderate per-user limit.
	h := &JudgmentHandler{
		Credentials: r.CredentialService,
		Contexts:    r.ContextService,
		Judge:       r.JudgeService,
	}
	r.Mux.Handle("POST /v1/judgment",
		httpx.Chain(h,
			httpx.SessionAuth(r.sessions),
			httpx.RateLimitByUser(httpx.ModerateLimit),
		),
	)
}

func (r *Router) registerSystem() {
	r.Mux.Handle("GET /livez",
		httpx.Chain(LivezHandler(r.startTime, r.buildVersion),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
	r.Mux.Handle("GET /readyz",
		httpx.Chain(ReadyzHandler(r.startTime, r.buildVersion, r.store),
			httpx.RateLimitByIP(httpx.LenientLimit),
		),
	)
}
