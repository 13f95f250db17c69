package service

import (
	"context"
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/crm-service/internal/auth"
	"github.com/spec-kit/crm-service/internal/domain"
	"github.com/spec-kit/crm-service/internal/observability"
	"github.com/spec-kit/crm-service/internal/repository"
	apperrors "github.com/spec-kit/crm-service/pkg/util/errorutil"
)

// LoginResult is returned by a successful login.
type LoginResult struct {
	Token domain.IssuedToken
	User  *domain.User
}

// AuthService coordinates login and identity lookups.
type AuthService struct {
	users       repository.UserRepository
	tokenMgr    *auth.TokenManager
	credentials auth.CredentialChecker
	metrics     *observability.Metrics
	logger      *zap.Logger
	now         func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	UserRepo     repository.UserRepository
	TokenManager *auth.TokenManager
	Credentials  auth.CredentialChecker
	Metrics      *observability.Metrics
	Logger       *zap.Logger
}

// NewAuthService builds the service. Without a credential checker every
// password is accepted.
func NewAuthService(deps AuthDependencies) *AuthService {
	credentials := deps.Credentials
	if credentials == nil {
		credentials = auth.AcceptAnyPassword{}
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		users:       deps.UserRepo,
		tokenMgr:    deps.TokenManager,
		credentials: credentials,
		metrics:     deps.Metrics,
		logger:      logger,
		now:         time.Now,
	}
}

// Login runs the credential check, creates the user on first login with the
// sale role and issues a session token carrying the stored role.
func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	result, err := s.login(ctx, email, password)
	outcome := "ok"
	if err != nil {
		outcome = apperrors.ToDomainError(err).Code
	}
	s.metrics.RecordLogin(outcome)
	return result, err
}

func (s *AuthService) login(ctx context.Context, email, password string) (*LoginResult, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, apperrors.NewInvalidArgument("a valid email is required", map[string]any{"email": email})
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, apperrors.NewInternalError(err)
	}
	if errors.Is(err, pgx.ErrNoRows) {
		user = nil
	}

	if err := s.credentials.Check(ctx, user, password); err != nil {
		return nil, apperrors.NewUnauthenticated("invalid credentials")
	}

	if user == nil {
		now := s.now()
		user = &domain.User{
			ID:        uuid.NewString(),
			Email:     email,
			Name:      displayName(email),
			Role:      domain.RoleSale,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, apperrors.NewInternalError(err)
		}
		s.logger.Info("user created on first login", zap.String("user_id", user.ID), zap.String("email", email))
	}

	token, err := s.tokenMgr.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{Token: token, User: user}, nil
}

// CurrentUser loads the stored account behind a verified principal.
func (s *AuthService) CurrentUser(ctx context.Context, principal domain.Principal) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, principal.UserID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": principal.UserID})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func displayName(email string) string {
	local, _, _ := strings.Cut(email, "@")
	return local
}
