package api

import (
	"context"
	"net/http"
	"time"

	"course-access-platform/internal/infra/metrics"
	"course-access-platform/internal/usecase"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// Deps are the use cases the HTTP surface drives.
type Deps struct {
	Users    usecase.UserUseCase
	Pricing  usecase.PricingUseCase
	Verifier usecase.VerificationUseCase
	Access   usecase.AccessUseCase
	Auth     *AuthManager
	Limiter  Limiter                         // optional
	Ready    func(ctx context.Context) error // optional
}

type Options struct {
	IdentityKey    string
	PublicKeyID    string // gateway key id handed to the checkout widget
	Currency       string
	RequestTimeout time.Duration
	RateLimit      int
	RateWindow     time.Duration
	RateKey        func(userID, endpoint string) string
}

type Server struct {
	users    usecase.UserUseCase
	pricing  usecase.PricingUseCase
	verifier usecase.VerificationUseCase
	access   usecase.AccessUseCase
	auth     *AuthManager
	limiter  Limiter
	ready    func(ctx context.Context) error
	validate *validator.Validate
	opts     Options
	log      *zerolog.Logger
}

func NewServer(deps Deps, opts Options, logger *zerolog.Logger) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	if opts.RateWindow <= 0 {
		opts.RateWindow = time.Minute
	}
	if opts.RateKey == nil {
		opts.RateKey = func(userID, endpoint string) string { return "rate_limit:" + userID + ":" + endpoint }
	}
	return &Server{
		users:    deps.Users,
		pricing:  deps.Pricing,
		verifier: deps.Verifier,
		access:   deps.Access,
		auth:     deps.Auth,
		limiter:  deps.Limiter,
		ready:    deps.Ready,
		validate: newValidator(),
		opts:     opts,
		log:      logger,
	}
}

// Handler returns the fully wrapped router.
func (s *Server) Handler() http.Handler {
	return Chain(s.Routes(),
		TraceID(),
		RequestLog(s.log),
		Recover(s.log),
	)
}

func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(Timeout(s.opts.RequestTimeout))

		r.With(RequireIdentityProvider(s.opts.IdentityKey, s.log)).
			Post("/auth/session", s.handleSession)

		r.Group(func(r chi.Router) {
			r.Use(RequireSession(s.auth))

			r.With(s.limit("orders")).Post("/orders", s.handleCreateOrder)
			r.With(s.limit("verify")).Post("/payments/verify", s.handleVerify)
			r.Get("/courses/{category}/{courseID}/access", s.handleCourseAccess)
			r.Get("/categories/{category}/access", s.handleBundleAccess)
			r.Get("/entitlements", s.handleListEntitlements)
		})
	})
	return r
}

func (s *Server) limit(endpoint string) Middleware {
	return RateLimit(s.limiter, endpoint, s.opts.RateLimit, s.opts.RateWindow, s.opts.RateKey, s.log)
}
