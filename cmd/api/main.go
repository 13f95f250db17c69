package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/crm-service/internal/api/http"
	"github.com/spec-kit/crm-service/internal/api/http/handlers"
	"github.com/spec-kit/crm-service/internal/auth"
	"github.com/spec-kit/crm-service/internal/config"
	"github.com/spec-kit/crm-service/internal/events"
	"github.com/spec-kit/crm-service/internal/observability"
	"github.com/spec-kit/crm-service/internal/persistence"
	"github.com/spec-kit/crm-service/internal/policy"
	"github.com/spec-kit/crm-service/internal/repository"
	"github.com/spec-kit/crm-service/internal/service"
	"github.com/spec-kit/crm-service/internal/worker"
)

type stores struct {
	users      repository.UserRepository
	leads      repository.LeadRepository
	activities repository.LeadActivityRepository
	teams      repository.TeamRepository
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	st := buildStores(pg)
	st.users = repository.NewCachedUserRepository(st.users, cfg.Cache.UserCacheSize, cfg.Cache.UserCacheTTL)

	roster, err := policy.ParseRoster(cfg.Teams.Rosters)
	if err != nil {
		logger.Fatal("invalid TEAM_ROSTERS", zap.Error(err))
	}
	seeds, err := repository.ParseSeedUsers(cfg.Teams.SeedUsers)
	if err != nil {
		logger.Fatal("invalid SEED_USERS", zap.Error(err))
	}
	// with Postgres, users and rosters are loaded by cmd/seed
	if !pg.Enabled() {
		seeded, err := repository.SeedUsers(ctx, st.users, seeds, func(password string) (string, error) {
			return auth.HashPassword(password, cfg.Auth.BcryptCost)
		})
		if err != nil {
			logger.Fatal("failed to seed users", zap.Error(err))
		}
		if err := repository.SeedTeams(ctx, st.teams, roster); err != nil {
			logger.Fatal("failed to seed team rosters", zap.Error(err))
		}
		if len(seeded) == 0 {
			logger.Warn("SEED_USERS is empty; every login will create a sale user")
		}
		logger.Info("in-memory store seeded", zap.Int("users", len(seeded)), zap.Int("teams", len(roster)))
	} else if len(roster) > 0 || len(seeds) > 0 {
		logger.Info("SEED_USERS and TEAM_ROSTERS ignored with postgres; run cmd/seed to load them")
	}

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	var forward events.EventHandler
	if cfg.Broker.Enabled {
		publisher := events.NewAMQPPublisher(cfg.Broker.URL, cfg.Broker.Queue, logger)
		defer publisher.Close()
		forwarder := worker.NewEventForwarder(publisher.Handle, cfg.Broker.QueueSize, 5*time.Second, logger)
		defer forwarder.Close()
		forward = forwarder.Handle
	}
	worker.StartNotificationWorker(service.NewNotificationService(dispatcher, logger, forward))

	tokens := auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL())
	var credentials auth.CredentialChecker = auth.AcceptAnyPassword{}
	if cfg.Auth.CredentialMode == config.CredentialModeBcrypt {
		credentials = auth.BcryptChecker{}
	} else {
		logger.Warn("login accepts any password; set AUTH_CREDENTIAL_MODE=bcrypt to verify credentials")
	}

	scopes := policy.NewScopeResolver(st.teams)
	leadService := service.NewLeadService(service.LeadDependencies{
		LeadRepo:     st.leads,
		ActivityRepo: st.activities,
		UserRepo:     st.users,
		Scopes:       scopes,
		StagePolicy:  service.NewStagePolicy(cfg.Workflow.StagePolicy),
		Dispatcher:   dispatcher,
		Metrics:      metrics,
		Logger:       logger,
	})
	authService := service.NewAuthService(service.AuthDependencies{
		UserRepo:     st.users,
		TokenManager: tokens,
		Credentials:  credentials,
		Metrics:      metrics,
		Logger:       logger,
	})
	staffService := service.NewStaffService(service.StaffDependencies{
		UserRepo: st.users,
		TeamRepo: st.teams,
		Logger:   logger,
	})

	validator, err := handlers.NewValidator()
	if err != nil {
		logger.Fatal("failed to init validator", zap.Error(err))
	}

	app := httptransport.NewApp(cfg.App.Name, cfg.App.ImportMaxBytes+(1<<20), cfg.App.RequestTimeout(), logger, metrics)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:   handlers.NewAuthHandler(authService, validator),
		Leads: handlers.NewLeadsHandler(handlers.LeadsHandlerDeps{
			Leads:          leadService,
			Queries:        service.NewLeadQueryService(st.leads, scopes),
			Assignments:    service.NewAssignmentService(leadService),
			Imports:        service.NewImportService(leadService),
			Validator:      validator,
			ImportMaxBytes: int64(cfg.App.ImportMaxBytes),
		}),
		Staff:          handlers.NewStaffHandler(staffService, validator),
		AuthMiddleware: auth.NewAuthMiddleware(tokens),
		LoginLimiter:   httptransport.LoginRateLimiter(cfg.RateLimit, redis.Client, logger, metrics),
		Metrics:        metrics,
	})

	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()), zap.String("env", cfg.App.Env))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(cfg.App.RequestTimeout()); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

func buildStores(pg *persistence.Postgres) stores {
	if !pg.Enabled() {
		mem := repository.NewMemoryStore()
		return stores{users: mem.Users(), leads: mem.Leads(), activities: mem.Activities(), teams: mem.Teams()}
	}
	pool := pg.PoolHandle()
	return stores{
		users:      repository.NewUserRepository(pool),
		leads:      repository.NewLeadRepository(pool),
		activities: repository.NewLeadActivityRepository(pool),
		teams:      repository.NewTeamRepository(pool),
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
