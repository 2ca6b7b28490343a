package httpapi

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/MrEthical07/authcore"
	"github.com/MrEthical07/authcore/middleware"
	"github.com/MrEthical07/authcore/permission"
)

// Service is the engine surface the HTTP API drives. *authcore.Engine
// satisfies it.
type Service interface {
	authcore.Authenticator
	Register(ctx context.Context, req authcore.RegisterRequest) (authcore.Identity, error)
	Login(ctx context.Context, login, password string) (authcore.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (authcore.TokenPair, error)
	Logout(ctx context.Context, refreshToken, accessToken string) error
	ChangePassword(ctx context.Context, identityID, oldPassword, newPassword string) error
	Identity(ctx context.Context, id string) (authcore.Identity, error)
	Identities(ctx context.Context) ([]authcore.Identity, error)
	Sessions(ctx context.Context, identityID string) ([]authcore.RefreshTokenEntry, error)
}

var _ Service = (*authcore.Engine)(nil)

// Throttle guards the login and refresh endpoints. Check methods return an
// error matching ErrThrottled when the caller must back off.
type Throttle interface {
	CheckLogin(ctx context.Context, login, ip string) error
	RecordLoginFailure(ctx context.Context, login, ip string) error
	ResetLogin(ctx context.Context, login, ip string) error
	CheckRefresh(ctx context.Context, ip string) error
}

// Config wires a Server.
type Config struct {
	Service Service
	Logger  *zap.Logger
	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler
	// AllowedOrigins feeds the CORS policy. Empty means "*".
	AllowedOrigins []string
	// Throttle is optional.
	Throttle Throttle
	// ErrThrottled is the error Throttle returns for a spent budget.
	ErrThrottled error
}

// Server exposes the engine over JSON HTTP.
type Server struct {
	svc     Service
	log     *zap.Logger
	metrics http.Handler
	origins []string

	throttle  Throttle
	throttled error
}

// New returns a Server. A nil logger is replaced with a no-op logger.
func New(cfg Config) *Server {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Server{
		svc:     cfg.Service,
		log:     log.Named("http"),
		metrics: cfg.Metrics,
		origins: origins,

		throttle:  cfg.Throttle,
		throttled: cfg.ErrThrottled,
	}
}

// Handler builds the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(s.requestContext)
	r.Use(s.logRequests)
	r.Use(s.recoverPanics)
	r.Use(cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", chimw.RequestIDHeader},
		ExposedHeaders: []string{chimw.RequestIDHeader},
		MaxAge:         600,
	}).Handler)
	r.Use(limitBody)

	r.Get("/health", s.handleHealth)
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	requireAuth := middleware.RequireAuth(s.svc)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", s.handleRegister)
		r.Post("/login", s.handleLogin)
		r.Post("/refresh", s.handleRefresh)
		r.Post("/logout", s.handleLogout)
		r.With(requireAuth).Post("/change-password", s.handleChangePassword)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(requireAuth)
		r.Get("/profile", s.handleProfile)
		r.With(middleware.RequireRoles(permission.NewRoleSet(permission.RoleAdmin))).Get("/users", s.handleListUsers)
		r.Get("/users/{id}", s.handleGetUser)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
