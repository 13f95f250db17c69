package policy

import (
	"fmt"

	"github.com/spec-kit/crm-service/internal/domain"
	apperrors "github.com/spec-kit/crm-service/pkg/util/errorutil"
)

// Can answers whether the principal's role permits the action on the resource.
func Can(principal domain.Principal, resource Resource, action Action) bool {
	capability := CapabilitiesFor(principal.Role).For(resource)
	switch action {
	case ActionView:
		return capability.View != ScopeNone
	case ActionEdit:
		return capability.Edit
	case ActionAssign:
		return capability.Assign
	case ActionImportExport:
		return capability.ImportExport
	case ActionManage:
		return capability.Manage
	default:
		return false
	}
}

// Require is Can returning a PERMISSION_DENIED error that names what was blocked.
func Require(principal domain.Principal, resource Resource, action Action) error {
	if Can(principal, resource, action) {
		return nil
	}
	role := principal.Role
	if !KnownRole(role) {
		role = domain.RoleSale
	}
	return apperrors.NewPermissionDenied(fmt.Sprintf("role %s is not allowed to %s %s", role, action, resource))
}
