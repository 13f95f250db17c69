package repository

import (
	"context"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/spec-kit/crm-service/internal/domain"
)

// cachedUserRepository fronts a UserRepository with an expiring LRU keyed by id
// and by lowercased email. Writes refresh both keys.
type cachedUserRepository struct {
	next  UserRepository
	cache *lru.LRU[string, domain.User]
}

// NewCachedUserRepository wraps next with a cache of at most size entries.
func NewCachedUserRepository(next UserRepository, size int, ttl time.Duration) UserRepository {
	if size <= 0 {
		size = 1024
	}
	return &cachedUserRepository{
		next:  next,
		cache: lru.NewLRU[string, domain.User](size, nil, ttl),
	}
}

func (r *cachedUserRepository) Create(ctx context.Context, user *domain.User) error {
	if err := r.next.Create(ctx, user); err != nil {
		return err
	}
	r.store(*user)
	return nil
}

func (r *cachedUserRepository) Update(ctx context.Context, user *domain.User) error {
	if old, ok := r.cache.Get(idKey(user.ID)); ok {
		r.cache.Remove(emailKey(old.Email))
	}
	if err := r.next.Update(ctx, user); err != nil {
		r.cache.Remove(idKey(user.ID))
		return err
	}
	r.store(*user)
	return nil
}

func (r *cachedUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if user, ok := r.cache.Get(idKey(id)); ok {
		return &user, nil
	}
	user, err := r.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.store(*user)
	return user, nil
}

func (r *cachedUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if user, ok := r.cache.Get(emailKey(email)); ok {
		return &user, nil
	}
	user, err := r.next.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	r.store(*user)
	return user, nil
}

func (r *cachedUserRepository) store(user domain.User) {
	r.cache.Add(idKey(user.ID), user)
	r.cache.Add(emailKey(user.Email), user)
}

func idKey(id string) string { return "id:" + id }

func emailKey(email string) string { return "email:" + strings.ToLower(email) }
