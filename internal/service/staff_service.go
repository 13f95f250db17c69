package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/crm-service/internal/domain"
	"github.com/spec-kit/crm-service/internal/policy"
	"github.com/spec-kit/crm-service/internal/repository"
	apperrors "github.com/spec-kit/crm-service/pkg/util/errorutil"
)

// StaffService manages team rosters and role assignment for CRM users.
type StaffService struct {
	users  repository.UserRepository
	teams  repository.TeamRepository
	logger *zap.Logger
	now    func() time.Time
}

// StaffDependencies encapsulates repositories required for staff management.
type StaffDependencies struct {
	UserRepo repository.UserRepository
	TeamRepo repository.TeamRepository
	Logger   *zap.Logger
}

// NewStaffService constructs the service.
func NewStaffService(deps StaffDependencies) *StaffService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StaffService{users: deps.UserRepo, teams: deps.TeamRepo, logger: logger, now: time.Now}
}

// TeamMembers lists a leader's roster. Callers with team scope over employees
// can only read their own roster.
func (s *StaffService) TeamMembers(ctx context.Context, principal domain.Principal, leaderID string) ([]string, error) {
	capability := policy.CapabilitiesFor(principal.Role).For(policy.ResourceEmployees)
	switch capability.View {
	case policy.ScopeAll:
	case policy.ScopeTeam, policy.ScopePersonal:
		if leaderID != principal.UserID {
			return nil, apperrors.NewPermissionDenied("only your own team roster is visible")
		}
	default:
		return nil, policy.Require(principal, policy.ResourceEmployees, policy.ActionView)
	}
	members, err := s.teams.TeamMembersOf(ctx, leaderID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return members, nil
}

// AddTeamMember puts memberID on leaderID's roster. The leader must hold the
// leader role; adding an existing member is a no-op.
func (s *StaffService) AddTeamMember(ctx context.Context, principal domain.Principal, leaderID, memberID string) error {
	if err := policy.Require(principal, policy.ResourceEmployees, policy.ActionEdit); err != nil {
		return err
	}
	leader, err := s.loadUser(ctx, leaderID)
	if err != nil {
		return err
	}
	if leader.Role != domain.RoleLeader {
		return apperrors.NewInvalidArgument("team owner must have the leader role",
			map[string]any{"user_id": leaderID, "role": leader.Role})
	}
	if _, err := s.loadUser(ctx, memberID); err != nil {
		return err
	}
	if leaderID == memberID {
		return apperrors.NewInvalidArgument("a leader is always part of their own team", nil)
	}
	if err := s.teams.AddMember(ctx, leaderID, memberID); err != nil {
		return apperrors.NewInternalError(err)
	}
	s.logger.Info("team member added", zap.String("leader_id", leaderID), zap.String("member_id", memberID),
		zap.String("actor_id", principal.UserID))
	return nil
}

// RemoveTeamMember drops memberID from leaderID's roster.
func (s *StaffService) RemoveTeamMember(ctx context.Context, principal domain.Principal, leaderID, memberID string) error {
	if err := policy.Require(principal, policy.ResourceEmployees, policy.ActionEdit); err != nil {
		return err
	}
	if err := s.teams.RemoveMember(ctx, leaderID, memberID); err != nil {
		return apperrors.NewInternalError(err)
	}
	s.logger.Info("team member removed", zap.String("leader_id", leaderID), zap.String("member_id", memberID),
		zap.String("actor_id", principal.UserID))
	return nil
}

// SetUserRole changes another user's role. Nobody can change their own role.
func (s *StaffService) SetUserRole(ctx context.Context, principal domain.Principal, userID string, role domain.Role) (*domain.User, error) {
	if err := policy.Require(principal, policy.ResourceSettings, policy.ActionManage); err != nil {
		return nil, err
	}
	role = domain.ParseRole(string(role))
	if !policy.KnownRole(role) {
		return nil, apperrors.NewInvalidArgument(fmt.Sprintf("unknown role %q", role), nil)
	}
	if strings.TrimSpace(userID) == principal.UserID {
		return nil, apperrors.NewPermissionDenied("you cannot change your own role")
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.Role == role {
		return user, nil
	}
	previous := user.Role
	user.Role = role
	user.UpdatedAt = s.now()
	if err := s.users.Update(ctx, user); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	s.logger.Info("user role changed", zap.String("user_id", userID),
		zap.String("from", string(previous)), zap.String("to", string(role)),
		zap.String("actor_id", principal.UserID))
	return user, nil
}

func (s *StaffService) loadUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": id})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}
