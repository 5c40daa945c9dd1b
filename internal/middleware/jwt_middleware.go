package middleware

import (
	"errors"
	"log"
	"strings"

	"narratia/internal/models"
	"narratia/internal/services"

	"github.com/gofiber/fiber/v2"
)

// userLocalsKey is the fiber.Ctx locals key holding the authenticated user.
const userLocalsKey = "user"

// AuthRequired is a Fiber middleware that resolves the bearer token to a
// user and stores it for downstream handlers.
func AuthRequired(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c.Get(fiber.HeaderAuthorization))
		if tokenString == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Access token required",
			})
		}

		user, err := authService.Authenticate(c.UserContext(), tokenString)
		if err != nil {
			switch {
			case errors.Is(err, models.ErrNotFound):
				return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
					"error": "Invalid or expired token",
				})
			case errors.Is(err, models.ErrInvalidToken):
				log.Printf("JWT validation failed: %v", err)
				return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
					"error": "Invalid or expired token",
				})
			default:
				return err
			}
		}

		c.Locals(userLocalsKey, user)
		return c.Next()
	}
}

// CurrentUser returns the user stored by AuthRequired, or nil on routes
// that are not protected.
func CurrentUser(c *fiber.Ctx) *models.User {
	user, _ := c.Locals(userLocalsKey).(*models.User)
	return user
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
