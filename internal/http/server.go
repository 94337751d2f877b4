package http

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"cofre/internal/cache"
	"cofre/internal/core"
	"cofre/internal/log"
	"cofre/internal/middleware/auth"
	"cofre/internal/middleware/ratelimit"
	"cofre/internal/middleware/security"
	"cofre/internal/middleware/trace"
	"cofre/internal/services"

	"github.com/gorilla/mux"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Dependencies are the services the API exposes.
type Dependencies struct {
	Store        Pinger
	Tokens       *auth.TokenManager
	Auth         *services.AuthService
	Accounts     *services.AccountService
	Categories   *services.CategoryService
	Transactions *services.TransactionService
	Goals        *services.GoalService
	SavingsBoxes *services.SavingsBoxService
	Dashboard    *services.DashboardService
	Projector    *services.BalanceProjector
	// UserCache is only read for metrics; AuthService owns it.
	UserCache *cache.LRUCache[core.User]
}

// Config holds server configuration
type Config struct {
	Addr string
	// APIRateLimit applies per client IP to mutating API requests.
	APIRateLimit int
	// AuthRateLimit applies per client IP to login attempts.
	AuthRateLimit  int
	TrustedProxies []string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Addr:          ":8081",
		APIRateLimit:  60,
		AuthRateLimit: 5,
	}
}

// Server is the JSON API.
type Server struct {
	http.Server
	deps   Dependencies
	logger *log.Logger

	detector     *security.Detector
	headers      *security.HeadersMiddleware
	trace        *trace.Middleware
	authMW       *auth.Middleware
	apiLimiter   *ratelimit.Limiter
	loginLimiter *ratelimit.Limiter

	started      time.Time
	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run http.Server.
func NewServer(config Config, deps Dependencies, logger *log.Logger) (*Server, error) {
	if logger == nil {
		logger = log.Default()
	}
	defaults := DefaultConfig()
	if config.APIRateLimit <= 0 {
		config.APIRateLimit = defaults.APIRateLimit
	}
	if config.AuthRateLimit <= 0 {
		config.AuthRateLimit = defaults.AuthRateLimit
	}

	detector := security.NewDetector()
	for _, cidr := range config.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", cidr, err)
		}
	}

	s := &Server{
		Server:   http.Server{Addr: config.Addr},
		deps:     deps,
		logger:   logger.WithComponent(log.ComponentHTTP),
		detector: detector,
		headers:  security.NewHeadersMiddleware(security.DefaultHeadersConfig()),
		trace:    trace.NewMiddleware(logger, detector.ExtractClientIP),
		apiLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: config.APIRateLimit,
			Methods:           ratelimit.MutatingMethods,
		}),
		loginLimiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: config.AuthRateLimit,
		}),
		started: time.Now(),
	}
	s.authMW = auth.NewMiddleware(deps.Tokens, func(w http.ResponseWriter, r *http.Request, err error) {
		writeError(w, r, err)
	})

	s.Handler = s.chain(s.routes())
	return s, nil
}

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		NotFoundError("not found").Write(w)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		MethodNotAllowedError().Write(w)
	})

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReady).Methods(http.MethodGet)
	r.HandleFunc("/metrics", s.handleMetrics).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/auth/register", s.handleRegister).Methods(http.MethodPost)
	api.Handle("/auth/login", s.loginLimiter.Middleware(s.detector.ExtractClientIP, onRateLimit)(
		http.HandlerFunc(s.handleLogin))).Methods(http.MethodPost)

	private := api.NewRoute().Subrouter()
	private.Use(s.authMW.Middleware, withUserLogger)

	private.HandleFunc("/auth/me", s.handleMe).Methods(http.MethodGet)
	private.HandleFunc("/auth/me", s.handleUpdateMe).Methods(http.MethodPut)

	private.HandleFunc("/accounts", s.handleListAccounts).Methods(http.MethodGet)
	private.HandleFunc("/accounts", s.handleCreateAccount).Methods(http.MethodPost)
	private.HandleFunc("/accounts/{id}", s.handleGetAccount).Methods(http.MethodGet)
	private.HandleFunc("/accounts/{id}", s.handleUpdateAccount).Methods(http.MethodPut)
	private.HandleFunc("/accounts/{id}", s.handleDeleteAccount).Methods(http.MethodDelete)
	private.HandleFunc("/accounts/{id}/reproject", s.handleReprojectAccount).Methods(http.MethodPost)

	private.HandleFunc("/categories", s.handleListCategories).Methods(http.MethodGet)
	private.HandleFunc("/categories", s.handleCreateCategory).Methods(http.MethodPost)
	private.HandleFunc("/categories/{id}", s.handleGetCategory).Methods(http.MethodGet)
	private.HandleFunc("/categories/{id}", s.handleUpdateCategory).Methods(http.MethodPut)
	private.HandleFunc("/categories/{id}", s.handleDeleteCategory).Methods(http.MethodDelete)

	private.HandleFunc("/transactions", s.handleListTransactions).Methods(http.MethodGet)
	private.HandleFunc("/transactions", s.handleCreateTransaction).Methods(http.MethodPost)
	private.HandleFunc("/transactions/{id}", s.handleGetTransaction).Methods(http.MethodGet)
	private.HandleFunc("/transactions/{id}", s.handleUpdateTransaction).Methods(http.MethodPut)
	private.HandleFunc("/transactions/{id}", s.handleDeleteTransaction).Methods(http.MethodDelete)

	private.HandleFunc("/goals", s.handleListGoals).Methods(http.MethodGet)
	private.HandleFunc("/goals", s.handleCreateGoal).Methods(http.MethodPost)
	private.HandleFunc("/goals/contribute", s.handleContributeGoal).Methods(http.MethodPost)
	private.HandleFunc("/goals/{id}", s.handleGetGoal).Methods(http.MethodGet)
	private.HandleFunc("/goals/{id}", s.handleUpdateGoal).Methods(http.MethodPut)
	private.HandleFunc("/goals/{id}", s.handleDeleteGoal).Methods(http.MethodDelete)

	// fixed paths before {id}
	private.HandleFunc("/savings-boxes", s.handleListBoxes).Methods(http.MethodGet)
	private.HandleFunc("/savings-boxes", s.handleCreateBox).Methods(http.MethodPost)
	private.HandleFunc("/savings-boxes/stats", s.handleBoxStats).Methods(http.MethodGet)
	private.HandleFunc("/savings-boxes/transfer", s.handleTransferBoxes).Methods(http.MethodPost)
	private.HandleFunc("/savings-boxes/{id}", s.handleGetBox).Methods(http.MethodGet)
	private.HandleFunc("/savings-boxes/{id}", s.handleUpdateBox).Methods(http.MethodPut)
	private.HandleFunc("/savings-boxes/{id}", s.handleDeleteBox).Methods(http.MethodDelete)
	private.HandleFunc("/savings-boxes/{id}/deposit", s.handleDepositBox).Methods(http.MethodPost)
	private.HandleFunc("/savings-boxes/{id}/withdraw", s.handleWithdrawBox).Methods(http.MethodPost)

	private.HandleFunc("/dashboard", s.handleDashboard).Methods(http.MethodGet)

	return r
}

// chain wraps h with the global middleware, outermost first.
func (s *Server) chain(h http.Handler) http.Handler {
	h = s.apiLimiter.Middleware(s.detector.ExtractClientIP, onRateLimit)(h)
	h = s.detector.Middleware(h)
	h = s.headers.Middleware(h)
	h = s.trace.Middleware(h)
	return recoverer(h)
}

// recoverer turns a handler panic into a 500 envelope.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				ctx := r.Context()
				log.FromContext(ctx).ErrorContext(ctx, "Handler panic recovered",
					log.FieldPath, r.URL.Path,
					"panic", fmt.Sprint(rec),
					"stack", string(debug.Stack()))
				InternalServerError("internal server error").Write(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func withUserLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, _ := auth.UserID(r.Context())
		ctx := log.Enrich(r.Context(), log.NewFields().WithUser(userID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func onRateLimit(w http.ResponseWriter, r *http.Request) {
	TooManyRequestsError("rate limit exceeded, please try again later").Write(w)
}

// ownerID is the authenticated user; the auth middleware guarantees it on private routes.
func ownerID(r *http.Request) string {
	id, _ := auth.UserID(r.Context())
	return id
}

// Shutdown gracefully shuts down the server and its limiters.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.apiLimiter.Stop()
		s.loginLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
