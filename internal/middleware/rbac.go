package middleware

import (
	"github.com/gofiber/fiber/v2"

	"taskhub/internal/policy"
)

// RequireCapability gates routes whose decision does not depend on a loaded resource,
// such as user management and project creation. Ownership checks stay in the services.
func RequireCapability(evaluator *policy.Evaluator, action policy.Action, target policy.Target) fiber.Handler {
	return func(c *fiber.Ctx) error {
		subject, err := GetSubject(c)
		if err != nil {
			return err
		}

		if err := evaluator.CanAccess(subject, action, target).Err(); err != nil {
			return err
		}
		return c.Next()
	}
}
