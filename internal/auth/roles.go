package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/crm-service/internal/policy"
)

// RequireCapability rejects callers whose role lacks the action on the resource.
func RequireCapability(resource policy.Resource, action policy.Action) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, err := MustPrincipal(c)
		if err != nil {
			return err
		}
		if err := policy.Require(principal, resource, action); err != nil {
			return err
		}
		return c.Next()
	}
}
