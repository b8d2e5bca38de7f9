// Package main is the entry point for the StudyPlan Hub API server.
//
// The server exposes the REST API: account registration and login, study
// plan management, the progression dashboard, the leaderboard, and the
// study coach. A background scheduler keeps the leaderboard cache warm.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/studyplan-hub/studyplan-hub/config"
	"github.com/studyplan-hub/studyplan-hub/internal/application/command"
	"github.com/studyplan-hub/studyplan-hub/internal/application/eventhandler"
	"github.com/studyplan-hub/studyplan-hub/internal/application/query"
	"github.com/studyplan-hub/studyplan-hub/internal/infrastructure/identity"
	"github.com/studyplan-hub/studyplan-hub/internal/infrastructure/messaging"
	"github.com/studyplan-hub/studyplan-hub/internal/infrastructure/persistence/postgres"
	"github.com/studyplan-hub/studyplan-hub/internal/infrastructure/persistence/redis"
	"github.com/studyplan-hub/studyplan-hub/internal/infrastructure/scheduler"
	"github.com/studyplan-hub/studyplan-hub/internal/infrastructure/scheduler/jobs"
	httpapi "github.com/studyplan-hub/studyplan-hub/internal/interface/http"
	"github.com/studyplan-hub/studyplan-hub/pkg/logger"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	// ─────────────────────────────────────────────────────────────────────────
	// 1. Configuration
	// ─────────────────────────────────────────────────────────────────────────
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 2. Logging
	// ─────────────────────────────────────────────────────────────────────────
	log := logger.New(logger.Options{
		Level:     logger.ParseLevel(cfg.Observability.LogLevel),
		AddCaller: cfg.App.Debug,
	})
	log.Info("starting StudyPlan Hub API",
		logger.String("env", string(cfg.App.Environment)),
		logger.String("version", cfg.App.Version),
	)

	// ─────────────────────────────────────────────────────────────────────────
	// 3. PostgreSQL
	// ─────────────────────────────────────────────────────────────────────────
	log.Info("connecting to database")
	dbConn, err := postgres.NewConnectionFromURL(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer dbConn.Close()

	if err := dbConn.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	// ─────────────────────────────────────────────────────────────────────────
	// 4. Migrations
	// ─────────────────────────────────────────────────────────────────────────
	migrator := postgres.NewMigrator(dbConn)
	if err := migrator.Migrate(ctx); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Info("database schema is up to date")

	// ─────────────────────────────────────────────────────────────────────────
	// 5. Redis
	//
	// Sessions live in Redis, so the server cannot start without it.
	// ─────────────────────────────────────────────────────────────────────────
	if cfg.Redis.Disabled {
		return errors.New("redis is required: session tokens are stored there")
	}

	redisCfg := redis.DefaultConfig()
	if cfg.Redis.Host != "" {
		redisCfg.Host = cfg.Redis.Host
	}
	if cfg.Redis.Port != 0 {
		redisCfg.Port = cfg.Redis.Port
	}
	redisCfg.Password = cfg.Redis.Password
	redisCfg.DB = cfg.Redis.DB
	if cfg.Redis.PoolSize > 0 {
		redisCfg.PoolSize = cfg.Redis.PoolSize
	}

	log.Info("connecting to Redis", logger.String("addr", redisCfg.Addr()))
	cache, err := redis.NewCache(redisCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}
	defer cache.Close()

	leaderboardCache := redis.NewLeaderboardCache(cache, cfg.Progression.LeaderboardCacheTTL)
	sessionStore := redis.NewSessionStore(cache, cfg.Auth.SessionTTL)

	// ─────────────────────────────────────────────────────────────────────────
	// 6. Event bus
	// ─────────────────────────────────────────────────────────────────────────
	busConfig := messaging.DefaultInMemoryEventBusConfig()
	busConfig.Logger = log
	// Completion must award XP before the transition call returns, so the
	// bus runs synchronously and handler failures surface to the publisher.
	busConfig.AsyncMode = false
	eventBus := messaging.NewInMemoryEventBus(busConfig)
	defer func() {
		_ = eventBus.Close()
	}()

	// ─────────────────────────────────────────────────────────────────────────
	// 7. Repositories
	// ─────────────────────────────────────────────────────────────────────────
	planRepo := postgres.NewPlanRepository(dbConn)
	profileRepo := postgres.NewProfileRepository(dbConn)
	sessionRepo := postgres.NewSessionRepository(dbConn)
	userRepo := postgres.NewUserRepository(dbConn)

	// ─────────────────────────────────────────────────────────────────────────
	// 8. Application layer
	// ─────────────────────────────────────────────────────────────────────────
	awardHandler := command.NewAwardCompletionHandler(
		profileRepo, leaderboardCache, eventBus, log,
		command.AwardCompletionConfig{
			XPPerCompletion: cfg.Progression.XPPerCompletion,
			SessionMinutes:  cfg.Progression.SessionDefaultMinutes,
			MaxRetries:      cfg.Progression.AwardMaxRetries,
		},
	)

	onPlanCompleted := eventhandler.NewOnPlanCompletedHandler(awardHandler, log)
	if err := onPlanCompleted.Register(eventBus); err != nil {
		return fmt.Errorf("failed to register event handlers: %w", err)
	}

	leaderboardHandler := query.NewGetLeaderboardHandler(profileRepo, leaderboardCache, log)

	idsvc := identity.NewService(userRepo, sessionStore, eventBus, log, cfg.Auth.BcryptCost)

	// ─────────────────────────────────────────────────────────────────────────
	// 9. Scheduler
	// ─────────────────────────────────────────────────────────────────────────
	sched := scheduler.NewScheduler(log, time.Second)
	warmJob := jobs.NewWarmLeaderboardJob(leaderboardHandler, cfg.Progression.LeaderboardLimit)
	if err := sched.Register(warmJob, scheduler.NewIntervalSchedule(cfg.Progression.LeaderboardCacheTTL)); err != nil {
		return fmt.Errorf("failed to register jobs: %w", err)
	}
	if err := sched.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	defer sched.Stop()

	// ─────────────────────────────────────────────────────────────────────────
	// 10. HTTP server
	// ─────────────────────────────────────────────────────────────────────────
	serverCfg := httpapi.DefaultConfig()
	serverCfg.Host = cfg.HTTP.Host
	serverCfg.Port = cfg.HTTP.Port
	serverCfg.ReadTimeout = cfg.HTTP.ReadTimeout
	serverCfg.WriteTimeout = cfg.HTTP.WriteTimeout
	serverCfg.IdleTimeout = cfg.HTTP.IdleTimeout
	serverCfg.MaxBodyBytes = cfg.HTTP.MaxBodyBytes

	server := httpapi.NewServer(serverCfg, httpapi.Dependencies{
		CreatePlanHandler:     command.NewCreatePlanHandler(planRepo, eventBus),
		TransitionPlanHandler: command.NewTransitionPlanHandler(planRepo, eventBus),
		UpdateProfileHandler:  command.NewUpdateProfileHandler(profileRepo),
		GetLeaderboardHandler: leaderboardHandler,
		GetDashboardHandler:   query.NewGetDashboardHandler(profileRepo, planRepo, sessionRepo),
		GetProfileHandler:     query.NewGetProfileHandler(profileRepo, sessionRepo),
		ListPlansHandler:      query.NewListPlansHandler(planRepo),
		Identity:              idsvc,
		Flags:                 cfg.Features,
		Logger:                log,
		HealthChecker:         &healthChecker{db: dbConn, cache: cache},
	})

	errCh := server.StartAsync()

	// ─────────────────────────────────────────────────────────────────────────
	// 11. Shutdown
	// ─────────────────────────────────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info("received shutdown signal", logger.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown failed: %w", err)
	}

	log.Info("shutdown completed")
	return nil
}

// healthChecker aggregates backend health for the probe endpoints.
type healthChecker struct {
	db    *postgres.Connection
	cache *redis.Cache
}

func (h *healthChecker) Check(ctx context.Context) httpapi.HealthReport {
	report := httpapi.HealthReport{
		Healthy:    true,
		Ready:      true,
		Components: make(map[string]string, 2),
		CheckedAt:  time.Now().UTC(),
	}

	if status, err := h.db.Health(ctx); err != nil || !status.Healthy {
		report.Healthy = false
		report.Ready = false
		report.Components["postgres"] = "unhealthy"
		report.Message = "postgres unreachable"
	} else {
		report.Components["postgres"] = "healthy"
	}

	// A Redis outage degrades caching and logins but reads still work.
	if err := h.cache.Ping(ctx); err != nil {
		report.Ready = false
		report.Components["redis"] = "unhealthy"
		if report.Message == "" {
			report.Message = "redis unreachable"
		}
	} else {
		report.Components["redis"] = "healthy"
	}

	return report
}
