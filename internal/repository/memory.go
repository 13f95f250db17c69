package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/crm-service/internal/domain"
)

// MemoryStore keeps users, leads and timelines in process. It backs the
// service when no POSTGRES_DSN is configured and is the fixture store in tests.
// Missing records are reported as pgx.ErrNoRows, like the Postgres repositories.
type MemoryStore struct {
	mu          sync.RWMutex
	users       map[string]domain.User
	leads       map[int64]domain.Lead
	activities  map[int64][]domain.LeadActivity
	teams       map[string][]string
	leadSeq     int64
	activitySeq int64
	now         func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:      map[string]domain.User{},
		leads:      map[int64]domain.Lead{},
		activities: map[int64][]domain.LeadActivity{},
		teams:      map[string][]string{},
		now:        time.Now,
	}
}

// Users returns a UserRepository view of the store.
func (s *MemoryStore) Users() UserRepository { return memoryUsers{s} }

// Leads returns a LeadRepository view of the store.
func (s *MemoryStore) Leads() LeadRepository { return memoryLeads{s} }

// Activities returns a LeadActivityRepository view of the store.
func (s *MemoryStore) Activities() LeadActivityRepository { return memoryActivities{s} }

// Teams returns a TeamRepository view of the store.
func (s *MemoryStore) Teams() TeamRepository { return memoryTeams{s} }

type memoryUsers struct{ s *MemoryStore }

func (m memoryUsers) Create(_ context.Context, user *domain.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	now := m.s.now()
	user.CreatedAt, user.UpdatedAt = now, now
	m.s.users[user.ID] = *user
	return nil
}

func (m memoryUsers) Update(_ context.Context, user *domain.User) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	existing, ok := m.s.users[user.ID]
	if !ok {
		return pgx.ErrNoRows
	}
	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = m.s.now()
	m.s.users[user.ID] = *user
	return nil
}

func (m memoryUsers) GetByID(_ context.Context, id string) (*domain.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	user, ok := m.s.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &user, nil
}

func (m memoryUsers) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	for _, user := range m.s.users {
		if strings.EqualFold(user.Email, email) {
			u := user
			return &u, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type memoryLeads struct{ s *MemoryStore }

func (m memoryLeads) Create(_ context.Context, lead *domain.Lead) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	m.s.leadSeq++
	lead.ID = m.s.leadSeq
	m.s.leads[lead.ID] = cloneLead(*lead)
	return nil
}

func (m memoryLeads) Update(_ context.Context, lead *domain.Lead) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.leads[lead.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.s.leads[lead.ID] = cloneLead(*lead)
	return nil
}

func (m memoryLeads) GetByID(_ context.Context, id int64) (*domain.Lead, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	lead, ok := m.s.leads[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	out := cloneLead(lead)
	return &out, nil
}

func (m memoryLeads) Delete(_ context.Context, id int64) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.leads[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.s.leads, id)
	delete(m.s.activities, id)
	return nil
}

func (m memoryLeads) List(_ context.Context, q LeadQuery) ([]domain.Lead, int, error) {
	if q.Scope.IsDenied() {
		return []domain.Lead{}, 0, nil
	}
	m.s.mu.RLock()
	matched := make([]domain.Lead, 0)
	for _, lead := range m.s.leads {
		l := lead
		if q.Matches(&l) {
			matched = append(matched, cloneLead(l))
		}
	}
	m.s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	limit := q.Limit
	if limit <= 0 {
		limit = 20
	}
	start := q.Offset
	if start < 0 {
		start = 0
	}
	if start >= total {
		return []domain.Lead{}, total, nil
	}
	end := start + limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

type memoryActivities struct{ s *MemoryStore }

func (m memoryActivities) Create(_ context.Context, activity *domain.LeadActivity) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	if _, ok := m.s.leads[activity.LeadID]; !ok {
		return pgx.ErrNoRows
	}
	m.s.activitySeq++
	activity.ID = m.s.activitySeq
	activity.CreatedAt = m.s.now()
	m.s.activities[activity.LeadID] = append(m.s.activities[activity.LeadID], *activity)
	return nil
}

func (m memoryActivities) ListByLead(_ context.Context, leadID int64) ([]domain.LeadActivity, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := make([]domain.LeadActivity, len(m.s.activities[leadID]))
	copy(out, m.s.activities[leadID])
	return out, nil
}

type memoryTeams struct{ s *MemoryStore }

func (m memoryTeams) AddMember(_ context.Context, leaderID, memberID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	for _, id := range m.s.teams[leaderID] {
		if id == memberID {
			return nil
		}
	}
	m.s.teams[leaderID] = append(m.s.teams[leaderID], memberID)
	return nil
}

func (m memoryTeams) RemoveMember(_ context.Context, leaderID, memberID string) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()
	members := m.s.teams[leaderID]
	for i, id := range members {
		if id == memberID {
			m.s.teams[leaderID] = append(members[:i:i], members[i+1:]...)
			break
		}
	}
	return nil
}

func (m memoryTeams) TeamMembersOf(_ context.Context, leaderID string) ([]string, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	out := make([]string, len(m.s.teams[leaderID]))
	copy(out, m.s.teams[leaderID])
	sort.Strings(out)
	return out, nil
}

func cloneLead(lead domain.Lead) domain.Lead {
	if lead.Tags != nil {
		lead.Tags = append([]string(nil), lead.Tags...)
	}
	if lead.AssignedTo != nil {
		assignee := *lead.AssignedTo
		lead.AssignedTo = &assignee
	}
	if lead.Value != nil {
		value := *lead.Value
		lead.Value = &value
	}
	if lead.LastContactedAt != nil {
		ts := *lead.LastContactedAt
		lead.LastContactedAt = &ts
	}
	return lead
}
