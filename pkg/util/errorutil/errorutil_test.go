package errorutil

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
)

func TestToDomainError_PassesThroughDomainErrors(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", NewPermissionDenied("role sale cannot assign leads"))

	de := ToDomainError(err)

	assert.Equal(t, CodePermissionDenied, de.Code)
	assert.Equal(t, http.StatusForbidden, de.HTTPStatus)
	assert.Equal(t, "role sale cannot assign leads", de.Message)
}

func TestToDomainError_NoRowsBecomesNotFound(t *testing.T) {
	de := ToDomainError(fmt.Errorf("get lead: %w", pgx.ErrNoRows))

	assert.Equal(t, CodeNotFound, de.Code)
	assert.Equal(t, http.StatusNotFound, de.HTTPStatus)
}

func TestToDomainError_FiberError(t *testing.T) {
	de := ToDomainError(fiber.NewError(http.StatusUnauthorized, "missing token"))

	assert.Equal(t, CodeUnauthenticated, de.Code)
	assert.Equal(t, "missing token", de.Message)
}

func TestToDomainError_UnknownIsInternal(t *testing.T) {
	cause := errors.New("boom")
	de := ToDomainError(cause)

	assert.Equal(t, CodeInternal, de.Code)
	assert.Equal(t, http.StatusInternalServerError, de.HTTPStatus)
	assert.ErrorIs(t, de, cause)
	assert.Nil(t, ToDomainError(nil))
}

func TestHasCode(t *testing.T) {
	assert.True(t, HasCode(NewNotFound("lead", nil), CodeNotFound))
	assert.False(t, HasCode(NewNotFound("lead", nil), CodePermissionDenied))
	assert.False(t, HasCode(errors.New("plain"), CodeNotFound))
}
