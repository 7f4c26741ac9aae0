package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	auditpg "3tcapital/gstlens/internal/adapters/audit/postgres"
	"3tcapital/gstlens/internal/adapters/credit/memory"
	creditpg "3tcapital/gstlens/internal/adapters/credit/postgres"
	creditredis "3tcapital/gstlens/internal/adapters/credit/redis"
	gstinhttp "3tcapital/gstlens/internal/adapters/gstin/http"
	accounthandler "3tcapital/gstlens/internal/adapters/http/account"
	gstinfohandler "3tcapital/gstlens/internal/adapters/http/gstinfo"
	healthhandler "3tcapital/gstlens/internal/adapters/http/health"
	historyhandler "3tcapital/gstlens/internal/adapters/http/history"
	uploadhandler "3tcapital/gstlens/internal/adapters/http/upload"
	"3tcapital/gstlens/internal/adapters/oracle"
	"3tcapital/gstlens/internal/adapters/oracle/gemini"
	"3tcapital/gstlens/internal/adapters/oracle/openai"
	"3tcapital/gstlens/internal/application/account"
	appextraction "3tcapital/gstlens/internal/application/extraction"
	"3tcapital/gstlens/internal/application/gstinfo"
	apphealth "3tcapital/gstlens/internal/application/health"
	"3tcapital/gstlens/internal/application/history"
	"3tcapital/gstlens/internal/application/upload"
	"3tcapital/gstlens/internal/core/audit"
	"3tcapital/gstlens/internal/core/credit"
	"3tcapital/gstlens/internal/core/extraction"
	"3tcapital/gstlens/internal/infrastructure/config"
	"3tcapital/gstlens/internal/infrastructure/database"
	infrahttp "3tcapital/gstlens/internal/infrastructure/http"
	"3tcapital/gstlens/internal/infrastructure/http/middleware"
	"3tcapital/gstlens/internal/infrastructure/http/server"
	"3tcapital/gstlens/internal/infrastructure/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "service stopped: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New(cfg.App.Name, cfg.Log.Level, cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var checkers []apphealth.Checker

	// The pool backs the postgres ledger and the audit trail.
	var pool *pgxpool.Pool
	if cfg.Credits.Backend == config.CreditBackendPostgres || cfg.Audit.Enabled {
		p, err := openDatabase(ctx, cfg.Database, log)
		switch {
		case err == nil:
			pool = p
			defer pool.Close()
			checkers = append(checkers, apphealth.Checker{Name: "postgres", Check: pool.Ping})
		case cfg.Credits.Backend == config.CreditBackendPostgres:
			return fmt.Errorf("open database: %w", err)
		default:
			log.Warn("Database unavailable, audit trail will be disabled",
				"error", err,
				"host", cfg.Database.Host,
				"database", cfg.Database.Database,
				"password_set", cfg.Database.Password != "",
			)
		}
	}

	ledger, ledgerCheck, closeLedger, err := buildLedger(ctx, cfg, pool, log)
	if err != nil {
		return err
	}
	defer closeLedger()
	if ledgerCheck != nil {
		checkers = append(checkers, *ledgerCheck)
	}

	var auditRepo audit.Repository
	if cfg.Audit.Enabled && pool != nil {
		auditRepo = auditpg.NewRepository(pool, log)
		log.Info("Audit trail configuration: ENABLED")
	} else {
		log.Info("Audit trail configuration: DISABLED",
			"audit_enabled_config", cfg.Audit.Enabled,
			"database_connected", pool != nil,
		)
	}

	base, err := buildOracle(ctx, cfg, log)
	if err != nil {
		return err
	}
	guard := oracle.NewGuard(base, oracle.GuardConfig{
		Timeout:       cfg.Oracle.Timeout,
		MaxConcurrent: cfg.Oracle.MaxConcurrent,
		MaxFailures:   cfg.Oracle.BreakerFailures,
		Cooldown:      cfg.Oracle.BreakerCooldown,
	}, log)
	checkers = append(checkers, apphealth.Checker{
		Name: "oracle",
		Check: func(context.Context) error {
			if guard.BreakerState() == oracle.BreakerOpen {
				return oracle.ErrCircuitOpen
			}
			return nil
		},
	})

	validator, err := appextraction.NewValidator()
	if err != nil {
		return fmt.Errorf("compile invoice schema: %w", err)
	}
	pipeline := appextraction.NewPipeline(guard, validator, appextraction.NewNormalizer(cfg.Validation.TaxTolerance), log)

	coordinator := upload.NewCoordinator(ledger, pipeline, upload.Options{
		Cost:  cfg.Upload.Cost,
		Audit: auditRepo,
	}, log)
	defer coordinator.Wait()

	uploads := uploadhandler.NewHandler(coordinator, uploadhandler.Config{
		MaxBytes:     cfg.Upload.MaxBytes,
		AllowedTypes: cfg.Upload.AllowedTypes,
	}, log)
	handlers := server.Handlers{Upload: uploads.Upload}

	accounts := accounthandler.NewHandler(account.NewService(ledger, cfg.Credits.SignupGrant, log), log)
	handlers.Login = accounts.Login
	handlers.Credits = accounts.Credits

	if auditRepo != nil {
		handlers.History = historyhandler.NewHandler(history.NewService(auditRepo), log).List
	}

	if cfg.Registry.BaseURL != "" {
		registryClient := infrahttp.NewClient(&infrahttp.ClientConfig{
			Timeout:     cfg.Registry.Timeout,
			LogBodies:   cfg.Audit.LogBodies,
			MaxBodySize: cfg.Audit.MaxBodySize,
		}, log, "gst_registry")
		registry := gstinhttp.NewClient(cfg.Registry.BaseURL, cfg.Registry.APIKey, registryClient, log)
		handlers.GSTInfo = gstinfohandler.NewHandler(gstinfo.NewService(registry, cfg.Registry.CacheTTL, log), log).Lookup
	} else {
		log.Warn("GST registry not configured, /gstinfo will return 503")
	}

	health := healthhandler.NewHandler(apphealth.NewService(apphealth.Metadata{
		Service:     cfg.App.Name,
		Version:     cfg.App.Version,
		Environment: cfg.App.Environment,
	}, checkers...), log)
	handlers.Root = health.Root
	handlers.Health = health.Status

	auth, err := middleware.NewJWTAuthenticator(cfg.Auth, log)
	if err != nil {
		return fmt.Errorf("create authenticator: %w", err)
	}
	defer auth.Close()

	srv, err := server.New(server.Options{
		Config:   cfg,
		Logger:   log,
		Auth:     auth.Middleware,
		Handlers: handlers,
	})
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}

	log.Info("Starting HTTP server",
		"port", cfg.HTTP.Port,
		"credit_backend", cfg.Credits.Backend,
		"oracle_provider", cfg.Oracle.Provider,
	)
	return srv.Run(ctx)
}

func openDatabase(ctx context.Context, s config.DatabaseSettings, log *slog.Logger) (*pgxpool.Pool, error) {
	pool, err := database.NewPool(ctx, database.Config{
		Host:            s.Host,
		Port:            s.Port,
		Database:        s.Database,
		User:            s.User,
		Password:        s.Password,
		SSLMode:         s.SSLMode,
		MaxOpenConns:    s.MaxOpenConns,
		MaxIdleConns:    s.MaxIdleConns,
		ConnMaxLifetime: s.ConnMaxLifetime,
	})
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(ctx, pool, log); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	log.Info("Database connection established", "database", s.Database)
	return pool, nil
}

func buildLedger(ctx context.Context, cfg config.AppConfig, pool *pgxpool.Pool, log *slog.Logger) (credit.Ledger, *apphealth.Checker, func(), error) {
	noop := func() {}

	switch cfg.Credits.Backend {
	case config.CreditBackendPostgres:
		return creditpg.NewLedger(pool, log), nil, noop, nil
	case config.CreditBackendRedis:
		client, err := database.NewRedisClient(ctx, database.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, noop, fmt.Errorf("connect redis: %w", err)
		}
		check := &apphealth.Checker{
			Name:  "redis",
			Check: func(ctx context.Context) error { return client.Ping(ctx).Err() },
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				log.Warn("Failed to close redis client", "error", err)
			}
		}
		return creditredis.NewLedger(client, creditredis.DefaultKeyPrefix, log), check, closeFn, nil
	default:
		log.Warn("Using in-memory credit ledger, balances are lost on restart")
		return memory.NewLedger(), nil, noop, nil
	}
}

func buildOracle(ctx context.Context, cfg config.AppConfig, log *slog.Logger) (extraction.Oracle, error) {
	httpClient := infrahttp.NewClient(&infrahttp.ClientConfig{
		Timeout:         cfg.Oracle.Timeout,
		MaxConnsPerHost: cfg.Oracle.MaxConcurrent,
	}, log, cfg.Oracle.Provider)

	switch cfg.Oracle.Provider {
	case config.OracleProviderOpenAI:
		client, err := openai.NewClient(openai.Config{
			APIKey:     cfg.Oracle.OpenAIAPIKey,
			BaseURL:    cfg.Oracle.OpenAIBaseURL,
			Model:      cfg.Oracle.OpenAIModel,
			HTTPClient: httpClient,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("create openai oracle: %w", err)
		}
		return client, nil
	case config.OracleProviderGemini:
		client, err := gemini.NewClient(ctx, gemini.Config{
			APIKey:     cfg.Oracle.GeminiAPIKey,
			Model:      cfg.Oracle.GeminiModel,
			HTTPClient: httpClient,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("create gemini oracle: %w", err)
		}
		return client, nil
	default:
		return nil, errors.New("unknown oracle provider: " + cfg.Oracle.Provider)
	}
}
