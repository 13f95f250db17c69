package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/crm-service/internal/domain"
	"github.com/spec-kit/crm-service/internal/policy"
	apperrors "github.com/spec-kit/crm-service/pkg/util/errorutil"
)

const testSecret = "test-secret"

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager(testSecret, 0)

	issued, err := tm.Issue("u-1", "a@example.com", domain.RoleLeader)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(DefaultTokenTTL), issued.ExpiresAt, time.Minute)

	got, err := tm.Verify(issued.Token)
	require.NoError(t, err)
	assert.Equal(t, domain.Principal{UserID: "u-1", Email: "a@example.com", Role: domain.RoleLeader}, got)
}

func TestTokenManager_TamperedToken(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	issued, err := tm.Issue("u-1", "a@example.com", domain.RoleSale)
	require.NoError(t, err)

	parts := strings.Split(issued.Token, ".")
	require.Len(t, parts, 3)
	forged, err := tm.Issue("u-1", "a@example.com", domain.RoleAdmin)
	require.NoError(t, err)
	// admin payload with the sale signature
	tampered := parts[0] + "." + strings.Split(forged.Token, ".")[1] + "." + parts[2]

	_, err = tm.Verify(tampered)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_ExpiredToken(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	issued, err := tm.Issue("u-1", "a@example.com", domain.RoleSale)
	require.NoError(t, err)

	tm.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	_, err = tm.Verify(issued.Token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenManager_WrongSecretAndGarbage(t *testing.T) {
	issued, err := NewTokenManager("other-secret", time.Hour).Issue("u-1", "a@example.com", domain.RoleCEO)
	require.NoError(t, err)

	tm := NewTokenManager(testSecret, time.Hour)
	for _, token := range []string{issued.Token, "", "not-a-jwt", "a.b.c"} {
		_, err := tm.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken, "token %q", token)
	}
}

func TestCredentialCheckers(t *testing.T) {
	ctx := context.Background()
	assert.NoError(t, AcceptAnyPassword{}.Check(ctx, nil, "whatever"))

	hash, err := HashPassword("s3cret", bcrypt.MinCost)
	require.NoError(t, err)
	user := &domain.User{ID: "u-1", PasswordHash: hash}

	checker := BcryptChecker{}
	assert.NoError(t, checker.Check(ctx, user, "s3cret"))
	assert.ErrorIs(t, checker.Check(ctx, user, "wrong"), ErrInvalidCredentials)
	assert.ErrorIs(t, checker.Check(ctx, nil, "s3cret"), ErrInvalidCredentials)
	assert.ErrorIs(t, checker.Check(ctx, &domain.User{}, "s3cret"), ErrInvalidCredentials)
}

func buildTestApp(tm *TokenManager) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			de := apperrors.ToDomainError(err)
			return c.Status(de.HTTPStatus).JSON(fiber.Map{"error": fiber.Map{"code": de.Code}})
		},
	})
	mw := NewAuthMiddleware(tm)
	app.Get("/me", mw.Handle, func(c *fiber.Ctx) error {
		p, _ := PrincipalFromContext(c)
		return c.JSON(fiber.Map{"id": p.UserID, "role": p.Role})
	})
	app.Post("/leads/assign", mw.Handle, RequireCapability(policy.ResourceLeads, policy.ActionAssign), func(c *fiber.Ctx) error {
		return c.SendStatus(http.StatusOK)
	})
	return app
}

func doRequest(t *testing.T, app *fiber.App, method, path, token string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func tokenForRole(t *testing.T, tm *TokenManager, role domain.Role) string {
	t.Helper()
	issued, err := tm.Issue("u-"+string(role), string(role)+"@example.com", role)
	require.NoError(t, err)
	return issued.Token
}

func TestAuthMiddleware(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	app := buildTestApp(tm)

	assert.Equal(t, http.StatusUnauthorized, doRequest(t, app, http.MethodGet, "/me", "").StatusCode)
	assert.Equal(t, http.StatusUnauthorized, doRequest(t, app, http.MethodGet, "/me", "garbage").StatusCode)
	assert.Equal(t, http.StatusOK, doRequest(t, app, http.MethodGet, "/me", tokenForRole(t, tm, domain.RoleSale)).StatusCode)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Basic abc")
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestRequireCapability(t *testing.T) {
	tm := NewTokenManager(testSecret, time.Hour)
	app := buildTestApp(tm)

	sale := doRequest(t, app, http.MethodPost, "/leads/assign", tokenForRole(t, tm, domain.RoleSale))
	assert.Equal(t, http.StatusForbidden, sale.StatusCode)

	leader := doRequest(t, app, http.MethodPost, "/leads/assign", tokenForRole(t, tm, domain.RoleLeader))
	assert.Equal(t, http.StatusOK, leader.StatusCode)
}
