package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"taskhub/internal/domain"
	"taskhub/internal/policy"
	"taskhub/internal/service/auth"
)

const UserContextKey = "user"

// AuthRequired resolves the bearer token to a live user. The role is read from the store,
// so a role change or deletion takes effect before the token expires.
func AuthRequired(authService auth.Service) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return Unauthorized("Not authorized to access this route")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return Unauthorized("Not authorized to access this route")
		}

		claims, err := authService.ValidateToken(parts[1])
		if err != nil {
			return err
		}

		user, err := authService.GetUserByID(c.UserContext(), claims.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return Unauthorized("User no longer exists")
		}

		c.Locals(UserContextKey, user)
		return c.Next()
	}
}

func GetCurrentUser(c *fiber.Ctx) *domain.User {
	user, ok := c.Locals(UserContextKey).(*domain.User)
	if !ok {
		return nil
	}
	return user
}

// GetSubject returns the acting subject, or an authentication error outside AuthRequired.
func GetSubject(c *fiber.Ctx) (policy.Subject, error) {
	user := GetCurrentUser(c)
	if user == nil {
		return policy.Subject{}, Unauthorized("Not authorized to access this route")
	}
	return policy.SubjectOf(user), nil
}
