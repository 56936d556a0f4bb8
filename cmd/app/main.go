// File: cmd/app/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"course-access-platform/internal/config"
	"course-access-platform/internal/domain/model"
	"course-access-platform/internal/domain/ports/adapter"
	payAdapters "course-access-platform/internal/infra/adapters/payment"
	"course-access-platform/internal/infra/api"
	pg "course-access-platform/internal/infra/db/postgres"
	"course-access-platform/internal/infra/logging"
	"course-access-platform/internal/infra/metrics"
	red "course-access-platform/internal/infra/redis"
	"course-access-platform/internal/infra/sched"
	"course-access-platform/internal/usecase"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	version = "dev"
	commit  = "none"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (noop gateway, console logs)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("[DEV MODE] Enabled")
	}

	// ---- Metrics ----
	metrics.MustRegister(prometheus.DefaultRegisterer)
	metrics.SetBuildInfo(version, commit)

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()
	locker := red.NewLocker(redisClient)
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	userRepo := pg.NewUserRepo(pool)
	entRepo := pg.NewEntitlementRepo(pool)
	orderRepo := pg.NewOrderRepo(pool)
	catalogRepo := pg.NewCatalogRepoCacheDecorator(pg.NewCatalogRepo(pool), redisClient, cfg.Redis.TTL, logger)

	// ---- Payment gateway ----
	var gateway adapter.PaymentGateway
	switch cfg.Payment.Provider {
	case "noop":
		gateway = payAdapters.NewNoopPaymentGateway()
		logger.Warn().Msg("payment gateway: noop (dev only)")
	default:
		rz, err := payAdapters.NewRazorpayGateway(cfg.Payment.Razorpay)
		if err != nil {
			logger.Fatal().Err(err).Msg("razorpay gateway")
		}
		gateway = rz
	}

	// ---- Use cases ----
	policy := policyFromConfig(cfg)
	signer := usecase.NewPaymentSigner(cfg.Payment.Razorpay.KeySecret)

	userUC := usecase.NewUserUseCase(userRepo, tm, cfg.Auth.AdminEmails, nil, logger)
	pricingUC := usecase.NewPricingUseCase(catalogRepo, orderRepo, gateway, policy, nil, logger)
	verifyUC := usecase.NewVerificationUseCase(entRepo, orderRepo, catalogRepo, tm, signer, locker, policy, nil, logger)
	accessUC := usecase.NewAccessUseCase(entRepo, catalogRepo, nil, logger)
	statsUC := usecase.NewStatsUseCase(entRepo, nil, logger)

	// ---- HTTP ----
	auth := api.NewAuthManager(cfg.Auth.JWTSecret, !cfg.Runtime.Dev, "", cfg.Auth.TokenTTL)
	srv := api.NewServer(api.Deps{
		Users:    userUC,
		Pricing:  pricingUC,
		Verifier: verifyUC,
		Access:   accessUC,
		Auth:     auth,
		Limiter:  rateLimiter,
		Ready: func(ctx context.Context) error {
			if err := pool.Ping(ctx); err != nil {
				return err
			}
			return redisClient.Ping(ctx)
		},
	}, api.Options{
		IdentityKey:    cfg.Auth.IdentityProviderKey,
		PublicKeyID:    cfg.Payment.Razorpay.KeyID,
		Currency:       policy.Currency,
		RequestTimeout: cfg.HTTP.RequestTimeout,
		RateLimit:      cfg.RateLimit.Requests,
		RateWindow:     cfg.RateLimit.Window,
		RateKey:        red.UserEndpointKey,
	}, logger)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Str("version", version).Msg("http listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			stop()
		}
	}()

	// ---- Stats worker ----
	worker, err := sched.NewStatsWorker(cfg.Scheduler.StatsCron, statsUC, func() (int32, int32, int32) {
		st := pool.Stat()
		return st.TotalConns(), st.IdleConns(), st.AcquiredConns()
	}, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("stats worker")
	}
	go func() { _ = worker.Run(ctx) }()

	// ---- Graceful shutdown ----
	<-ctx.Done()
	logger.Info().Msg("shutdown requested")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}

func policyFromConfig(cfg *config.Config) usecase.Policy {
	p := usecase.DefaultPolicy()
	p.Currency = cfg.Pricing.Currency
	p.DefaultPrice = cfg.Pricing.DefaultPrice
	for k, v := range cfg.Pricing.BundlePrices {
		cat, err := model.ParseCategory(k)
		if err != nil {
			continue
		}
		p.BundlePrices[cat] = v
	}
	p.SingleRetention = cfg.Entitlement.SingleRetention()
	p.BundleRetention = cfg.Entitlement.BundleRetention()
	p.VerifyLockTTL = cfg.Entitlement.VerifyLockTTL
	return p
}
