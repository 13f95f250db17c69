package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/crm-service/internal/domain"
	"github.com/spec-kit/crm-service/internal/policy"
)

// SeedUser is one account entry from SEED_USERS.
type SeedUser struct {
	ID       string
	Email    string
	Role     domain.Role
	Name     string
	Password string
}

// ParseSeedUsers parses "id,email,role,name[,password]" entries separated by ';'.
func ParseSeedUsers(raw string) ([]SeedUser, error) {
	var out []SeedUser
	for _, entry := range strings.Split(raw, ";") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ",")
		if len(parts) < 4 || len(parts) > 5 {
			return nil, fmt.Errorf("seed user %q: want id,email,role,name[,password]", entry)
		}
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		user := SeedUser{
			ID:    parts[0],
			Email: strings.ToLower(parts[1]),
			Role:  domain.ParseRole(parts[2]),
			Name:  parts[3],
		}
		if len(parts) == 5 {
			user.Password = parts[4]
		}
		if user.ID == "" || user.Email == "" {
			return nil, fmt.Errorf("seed user %q: id and email are required", entry)
		}
		if !policy.KnownRole(user.Role) {
			return nil, fmt.Errorf("seed user %q: unknown role %q", entry, parts[2])
		}
		out = append(out, user)
	}
	return out, nil
}

// UpsertUser creates the user or overwrites its email, name and role. An empty
// passwordHash keeps the stored hash.
func UpsertUser(ctx context.Context, repo UserRepository, seed SeedUser, passwordHash string) (*domain.User, error) {
	existing, err := repo.GetByID(ctx, seed.ID)
	switch {
	case errors.Is(err, pgx.ErrNoRows):
		user := &domain.User{
			ID:           seed.ID,
			Email:        seed.Email,
			Name:         seed.Name,
			Role:         seed.Role,
			PasswordHash: passwordHash,
		}
		if err := repo.Create(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	case err != nil:
		return nil, err
	}

	existing.Email = seed.Email
	existing.Name = seed.Name
	existing.Role = seed.Role
	if passwordHash != "" {
		existing.PasswordHash = passwordHash
	}
	if err := repo.Update(ctx, existing); err != nil {
		return nil, err
	}
	return existing, nil
}

// SeedUsers upserts every seed in order. hash turns a plaintext password into
// the stored hash and is only called for seeds that carry a password.
func SeedUsers(ctx context.Context, repo UserRepository, seeds []SeedUser, hash func(string) (string, error)) ([]*domain.User, error) {
	out := make([]*domain.User, 0, len(seeds))
	for _, seed := range seeds {
		var passwordHash string
		if seed.Password != "" {
			if hash == nil {
				return nil, fmt.Errorf("seed user %s: password given but no hasher", seed.ID)
			}
			h, err := hash(seed.Password)
			if err != nil {
				return nil, fmt.Errorf("seed user %s: hash password: %w", seed.ID, err)
			}
			passwordHash = h
		}
		user, err := UpsertUser(ctx, repo, seed, passwordHash)
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", seed.ID, err)
		}
		out = append(out, user)
	}
	return out, nil
}
