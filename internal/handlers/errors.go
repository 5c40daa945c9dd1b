package handlers

import (
	"errors"
	"log"

	"narratia/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errorMessages holds the client-facing message for each error class of one
// endpoint.
type errorMessages struct {
	invalid  string
	notFound string
	internal string
}

func writeError(c *fiber.Ctx, status int, message string) error {
	return c.Status(status).JSON(fiber.Map{"error": message})
}

// respond maps a service error onto a status code and message. Unexpected
// errors are logged with their detail and answered with a generic message.
func (m errorMessages) respond(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, models.ErrInvalidInput):
		return writeError(c, fiber.StatusBadRequest, m.invalid)
	case errors.Is(err, models.ErrConflict):
		return writeError(c, fiber.StatusBadRequest, "Username or email already in use")
	case errors.Is(err, models.ErrInvalidCredentials):
		return writeError(c, fiber.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, models.ErrForbidden):
		return writeError(c, fiber.StatusForbidden, "You can only modify your own stories")
	case errors.Is(err, models.ErrNotFound) && m.notFound != "":
		return writeError(c, fiber.StatusNotFound, m.notFound)
	default:
		log.Printf("%s %s: %s: %v", c.Method(), c.Path(), m.internal, err)
		return writeError(c, fiber.StatusInternalServerError, m.internal)
	}
}
