package main

import (
	"context"
	"log"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/crm-service/internal/auth"
	"github.com/spec-kit/crm-service/internal/config"
	"github.com/spec-kit/crm-service/internal/observability"
	"github.com/spec-kit/crm-service/internal/persistence"
	"github.com/spec-kit/crm-service/internal/policy"
	"github.com/spec-kit/crm-service/internal/repository"
)

// seed loads SEED_USERS and TEAM_ROSTERS into Postgres. Roles are only ever
// assigned here or through the admin role endpoint.
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

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()
	if !pg.Enabled() {
		logger.Fatal("POSTGRES_DSN is required for seeding")
	}
	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	seeds, err := repository.ParseSeedUsers(cfg.Teams.SeedUsers)
	if err != nil {
		logger.Fatal("invalid SEED_USERS", zap.Error(err))
	}
	roster, err := policy.ParseRoster(cfg.Teams.Rosters)
	if err != nil {
		logger.Fatal("invalid TEAM_ROSTERS", zap.Error(err))
	}

	users, err := repository.SeedUsers(ctx, repository.NewUserRepository(pg.PoolHandle()), seeds, func(password string) (string, error) {
		return auth.HashPassword(password, cfg.Auth.BcryptCost)
	})
	if err != nil {
		logger.Fatal("failed to seed users", zap.Error(err))
	}
	for _, user := range users {
		logger.Info("seeded user", zap.String("user_id", user.ID), zap.String("role", string(user.Role)))
	}

	if err := repository.SeedTeams(ctx, repository.NewTeamRepository(pg.PoolHandle()), roster); err != nil {
		logger.Fatal("failed to seed team rosters", zap.Error(err))
	}
	logger.Info("seed complete", zap.Int("users", len(seeds)), zap.Int("teams", len(roster)))
}
