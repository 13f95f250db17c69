package dto

import "github.com/spec-kit/crm-service/internal/domain"

// TeamMemberRequest adds a member to a leader's roster.
type TeamMemberRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// TeamResponse lists a leader's roster.
type TeamResponse struct {
	LeaderID string   `json:"leaderId"`
	Members  []string `json:"members"`
}

// SetRoleRequest changes a user's role.
type SetRoleRequest struct {
	Role domain.Role `json:"role" validate:"required,oneof=admin ceo leader sale"`
}
