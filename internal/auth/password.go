package auth

import (
	"context"
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/crm-service/internal/domain"
)

// ErrInvalidCredentials is returned when a credential check rejects a login.
var ErrInvalidCredentials = errors.New("invalid credentials")

// CredentialChecker decides whether a password is acceptable for a user.
// user is nil when the email has never logged in.
type CredentialChecker interface {
	Check(ctx context.Context, user *domain.User, password string) error
}

// AcceptAnyPassword accepts every password. It is the default login behavior;
// swap in BcryptChecker to verify stored credentials.
type AcceptAnyPassword struct{}

func (AcceptAnyPassword) Check(context.Context, *domain.User, string) error {
	return nil
}

// BcryptChecker verifies the password against the stored bcrypt hash.
// Users without a hash cannot log in.
type BcryptChecker struct{}

func (BcryptChecker) Check(_ context.Context, user *domain.User, password string) error {
	if user == nil || user.PasswordHash == "" {
		return ErrInvalidCredentials
	}
	if err := ComparePassword(user.PasswordHash, password); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// HashPassword hashes a plaintext password with configured cost.
func HashPassword(password string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// ComparePassword verifies a password against its hashed value.
func ComparePassword(hashed, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain))
}
