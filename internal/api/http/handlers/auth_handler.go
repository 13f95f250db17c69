package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm-service/internal/api/dto"
	"github.com/spec-kit/crm-service/internal/auth"
	"github.com/spec-kit/crm-service/internal/policy"
	"github.com/spec-kit/crm-service/internal/service"
	apperrors "github.com/spec-kit/crm-service/pkg/util/errorutil"
)

// AuthHandler exposes login and identity endpoints.
type AuthHandler struct {
	auth      *service.AuthService
	validator *Validator
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService, validator *Validator) *AuthHandler {
	return &AuthHandler{auth: authService, validator: validator}
}

// Login handles POST /login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := h.validator.bindJSON(c, &req); err != nil {
		return err
	}

	result, err := h.auth.Login(c.UserContext(), req.Email, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.LoginResponse{
		Token:     result.Token.Token,
		ExpiresAt: result.Token.ExpiresAt,
		User:      dto.NewUserResponse(result.User),
	})
}

// Me handles GET /me.
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	user, err := h.auth.CurrentUser(c.UserContext(), principal)
	if err != nil {
		return err
	}
	resp := dto.MeResponse{
		UserResponse: dto.NewUserResponse(user),
		Capabilities: policy.CapabilitiesFor(principal.Role),
	}
	resp.Role = principal.Role
	return c.JSON(resp)
}

// CheckPermission handles GET /permissions/check?resource=&action=.
func (h *AuthHandler) CheckPermission(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	resource, ok := policy.ParseResource(c.Query("resource"))
	if !ok {
		return apperrors.NewInvalidArgument("unknown resource", map[string]any{"resource": c.Query("resource")})
	}
	action, ok := policy.ParseAction(c.Query("action"))
	if !ok {
		return apperrors.NewInvalidArgument("unknown action", map[string]any{"action": c.Query("action")})
	}
	return c.JSON(dto.PermissionCheckResponse{
		Resource: string(resource),
		Action:   string(action),
		Allowed:  policy.Can(principal, resource, action),
	})
}
