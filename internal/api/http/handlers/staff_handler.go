package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm-service/internal/api/dto"
	"github.com/spec-kit/crm-service/internal/auth"
	"github.com/spec-kit/crm-service/internal/service"
)

// StaffHandler exposes team roster and role management endpoints.
type StaffHandler struct {
	staff     *service.StaffService
	validator *Validator
}

// NewStaffHandler constructs handler.
func NewStaffHandler(staffService *service.StaffService, validator *Validator) *StaffHandler {
	return &StaffHandler{staff: staffService, validator: validator}
}

// TeamMembers handles GET /teams/:leaderId.
func (h *StaffHandler) TeamMembers(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	leaderID := c.Params("leaderId")
	members, err := h.staff.TeamMembers(c.UserContext(), principal, leaderID)
	if err != nil {
		return err
	}
	if members == nil {
		members = []string{}
	}
	return c.JSON(dto.TeamResponse{LeaderID: leaderID, Members: members})
}

// AddTeamMember handles POST /teams/:leaderId/members.
func (h *StaffHandler) AddTeamMember(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.TeamMemberRequest
	if err := h.validator.bindJSON(c, &req); err != nil {
		return err
	}
	if err := h.staff.AddTeamMember(c.UserContext(), principal, c.Params("leaderId"), req.UserID); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// RemoveTeamMember handles DELETE /teams/:leaderId/members/:userId.
func (h *StaffHandler) RemoveTeamMember(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	if err := h.staff.RemoveTeamMember(c.UserContext(), principal, c.Params("leaderId"), c.Params("userId")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// SetRole handles PUT /users/:id/role.
func (h *StaffHandler) SetRole(c *fiber.Ctx) error {
	principal, err := auth.MustPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.SetRoleRequest
	if err := h.validator.bindJSON(c, &req); err != nil {
		return err
	}
	user, err := h.staff.SetUserRole(c.UserContext(), principal, c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponse(user))
}
