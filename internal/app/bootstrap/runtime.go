package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cacheadapter "github.com/CalistoMango/TheShipyard-sub000/internal/adapters/cache"
	eventadapter "github.com/CalistoMango/TheShipyard-sub000/internal/adapters/events"
	httpadapter "github.com/CalistoMango/TheShipyard-sub000/internal/adapters/http"
	"github.com/CalistoMango/TheShipyard-sub000/internal/adapters/postgres"
	"github.com/CalistoMango/TheShipyard-sub000/internal/adapters/security"
	"github.com/CalistoMango/TheShipyard-sub000/internal/adapters/settlement"
	"github.com/CalistoMango/TheShipyard-sub000/internal/application"
	"github.com/CalistoMango/TheShipyard-sub000/internal/domain"
)

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	httpServer *http.Server
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)
	logger.Info("bootstrapping idea pool service", "http_port", cfg.HTTPPort, "project", cfg.Project)

	pool, err := postgres.Connect(ctx, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	sqlDB, err := pool.DB()
	if err != nil {
		return nil, fmt.Errorf("gorm sql db: %w", err)
	}

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	redisClient, err := cacheadapter.Connect(ctx, cfg.RedisURL)
	if err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}

	repos := postgres.NewRepositories(pool)

	verifier, err := security.NewJWTVerifier(cfg.JWTPublicKeyPEM)
	if err != nil {
		_ = sqlDB.Close()
		_ = redisClient.Close()
		return nil, fmt.Errorf("init jwt verifier: %w", err)
	}

	signer, err := security.NewVaultClaimSigner(cfg.VaultSignerKeyHex, int(cfg.CurrencyExponent))
	if err != nil {
		if !cfg.AllowEphemeralSigner {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init claim signer: %w", err)
		}
		logger.Warn("using ephemeral claim signer key for local/dev runtime")
		signer, err = security.NewEphemeralVaultClaimSigner(int(cfg.CurrencyExponent))
		if err != nil {
			_ = sqlDB.Close()
			_ = redisClient.Close()
			return nil, fmt.Errorf("init ephemeral claim signer: %w", err)
		}
	}
	logger.Info("claim signer ready", "signer_address", signer.SignerAddress())

	vault := settlement.NewHTTPClient(cfg.VaultURL, cfg.VaultAPIKey, cfg.VaultTimeout)
	cooldowns := cacheadapter.NewRedisCooldownStore(redisClient)
	authCache := cacheadapter.NewRedisClaimAuthorizationCache(redisClient)

	svc := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:      cfg.ServiceID,
			Project:          cfg.Project,
			CurrencyExponent: cfg.CurrencyExponent,
			RefundDelayDays:  cfg.RefundDelayDays,
			NonProduction:    cfg.NonProduction,
			MinContribution:  cfg.MinContribution,
			RaceThreshold:    cfg.RaceThreshold,
			FeeSplit: domain.FeeSplit{
				BuilderPct:   cfg.BuilderPct,
				SubmitterPct: cfg.SubmitterPct,
				PlatformPct:  cfg.PlatformPct,
			},
			ClaimTolerance:    cfg.ClaimTolerance,
			ClaimTTL:          cfg.ClaimTTL,
			VotingWindow:      cfg.VotingWindow,
			RejectionCooldown: cfg.RejectionCooldown,
			VoteQuorum:        cfg.VoteQuorum,
			TieOutcome:        domain.BuildStatus(cfg.TieOutcome),
		},
		Ideas:         repos.Ideas,
		Contributions: repos.Contributions,
		Builds:        repos.Builds,
		Claims:        repos.Claims,
		Principals:    repos.Principals,
		Reports:       repos.Reports,
		Settlement:    vault,
		Signer:        signer,
		Cooldowns:     cooldowns,
		AuthCache:     authCache,
		Notifier:      eventadapter.NewLoggingPublisher(logger),
		Logger:        logger,
	})

	handler := httpadapter.NewHandler(svc, verifier)
	router := httpadapter.NewRouter(handler)
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return &Runtime{
		cfg:        cfg,
		logger:     logger,
		httpServer: httpServer,
		cleanupFn: func(ctx context.Context) {
			_ = redisClient.Close()
			_ = sqlDB.Close()
		},
	}, nil
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		r.logger.Info("http server started", "addr", r.httpServer.Addr)
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		r.logger.Info("shutdown signal received")
	case err := <-errCh:
		r.logger.Error("server failure", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.cleanupFn(shutdownCtx)
	return nil
}
