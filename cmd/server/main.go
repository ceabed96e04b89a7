package main

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/redis/go-redis/v9"

	"github.com/geospark/outreach-scheduler/internal/admission"
	"github.com/geospark/outreach-scheduler/internal/api"
	"github.com/geospark/outreach-scheduler/internal/config"
	"github.com/geospark/outreach-scheduler/internal/domain"
	"github.com/geospark/outreach-scheduler/internal/instantly"
	"github.com/geospark/outreach-scheduler/internal/pkg/distlock"
	"github.com/geospark/outreach-scheduler/internal/pkg/logger"
	"github.com/geospark/outreach-scheduler/internal/registry"
	"github.com/geospark/outreach-scheduler/internal/repository/postgres"
	"github.com/geospark/outreach-scheduler/internal/ses"
	"github.com/geospark/outreach-scheduler/internal/warmup"
	"github.com/geospark/outreach-scheduler/internal/worker"
)

// checkPortAvailable verifies that the target port is not already in use
// before any slow initialization happens.
func checkPortAvailable(host string, port int) error {
	addr := fmt.Sprintf("%s:%d", host, port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("port %d is already in use (addr %s): %v", port, addr, err)
	}
	ln.Close()
	return nil
}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	cfg, err := config.LoadFromEnv(configPath)
	if err != nil {
		logger.Error("failed to load config", "path", configPath, "error", err.Error())
		os.Exit(1)
	}

	host := cfg.Server.GetHost()
	if err := checkPortAvailable(host, cfg.Server.Port); err != nil {
		logger.Error("pre-flight check failed", "error", err.Error())
		os.Exit(1)
	}

	// Database
	if cfg.Database.URL == "" {
		logger.Error("database url is not configured (set DATABASE_URL or database.url)")
		os.Exit(1)
	}
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		logger.Error("failed to open database", "error", err.Error())
		os.Exit(1)
	}
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)

	pingCtx, pingCancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := db.PingContext(pingCtx); err != nil {
		logger.Warn("database not reachable at startup", "error", err.Error())
	}
	pingCancel()

	// Redis is optional; locking falls back to PG advisory locks.
	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			logger.Warn("redis connection failed, falling back to PG advisory locks",
				"addr", cfg.Redis.Addr, "error", err.Error())
			redisClient.Close()
			redisClient = nil
		} else {
			logger.Info("redis connected", "addr", cfg.Redis.Addr)
		}
		pingCancel()
	}

	lockFactory := func(key string, ttl time.Duration) distlock.DistLock {
		return distlock.NewLock(redisClient, db, key, ttl)
	}

	// Core wiring: classifier -> registry -> admission controller.
	classifier := warmup.NewClassifier(
		warmup.WithThresholds(cfg.Warmup.LimitedAfterDays, cfg.Warmup.RampingAfterDays, cfg.Warmup.ActiveAfterDays),
		warmup.WithMultipliers(cfg.Warmup.LimitedMultiplier, cfg.Warmup.RampingMultiplier),
	)
	reg := registry.New(postgres.NewAccountRepo(db), classifier)
	reg.DefaultBaseDailyLimit = cfg.Warmup.DefaultBaseDailyLimit

	var provider admission.Provider
	var instantlyClient *instantly.Client
	if cfg.Instantly.Enabled {
		instantlyClient = instantly.NewClient(cfg.Instantly)
		provider = instantly.NewProvider(instantlyClient)
		logger.Info("instantly provider enabled", "base_url", cfg.Instantly.BaseURL)
	} else {
		logger.Warn("no send provider configured; admissions will fail at dispatch")
		provider = unconfiguredProvider{}
	}

	ctrl := admission.NewController(reg, postgres.NewLeadRepo(db), provider)
	if cfg.Admission.SerializeScopes {
		ctrl = ctrl.WithLock(lockFactory, cfg.Admission.LockTTL())
		logger.Info("admission scope serialization enabled", "ttl", cfg.Admission.LockTTL().String())
	}

	handlers := api.NewHandlers(reg, ctrl).WithDB(db)
	if instantlyClient != nil {
		handlers.WithCampaignAPI(instantlyClient)
	}
	if cfg.SES.Enabled {
		checker, err := ses.NewQuotaChecker(context.Background(), cfg.SES)
		if err != nil {
			logger.Warn("ses quota checker disabled", "error", err.Error())
		} else {
			handlers.WithQuotaChecker(checker)
			logger.Info("ses quota cross-check enabled", "region", cfg.SES.Region)
		}
	}

	server := api.NewServer(cfg.Server, handlers)

	// Daily counter reset worker.
	var resetWorker *worker.ResetWorker
	if cfg.Reset.Enabled {
		resetWorker = worker.NewResetWorker(reg, lockFactory, cfg.Reset.Interval())
		if err := resetWorker.Start(); err != nil {
			logger.Error("failed to start reset worker", "error", err.Error())
			os.Exit(1)
		}
	}

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		addr := fmt.Sprintf("%s:%d", host, cfg.Server.Port)
		logger.Info("server starting", "addr", addr)
		if err := server.ListenAndServe(addr); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err.Error())
			os.Exit(1)
		}
	}()

	<-done
	logger.Info("shutting down")

	if resetWorker != nil {
		resetWorker.Stop()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err.Error())
	}

	db.Close()
	if redisClient != nil {
		redisClient.Close()
	}
	logger.Info("server stopped")
}

// unconfiguredProvider fails every dispatch with a clear message so a
// missing API key surfaces at the first admission, not as a nil deref.
type unconfiguredProvider struct{}

func (unconfiguredProvider) Name() string { return "unconfigured" }

func (unconfiguredProvider) SendBatch(ctx context.Context, campaignID string, plan *domain.DistributionPlan, leads []domain.Lead) (*domain.DispatchResult, error) {
	return nil, fmt.Errorf("no send provider configured")
}
