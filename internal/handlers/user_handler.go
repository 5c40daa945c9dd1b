package handlers

import (
	"narratia/internal/services"

	"github.com/gofiber/fiber/v2"
)

var getUserErrors = errorMessages{
	invalid:  "Invalid user ID",
	notFound: "User not found",
	internal: "Server error fetching user",
}

// UserHandler serves public user profiles.
type UserHandler struct {
	service *services.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(service *services.UserService) *UserHandler {
	return &UserHandler{
		service: service,
	}
}

// RegisterRoutes registers the user routes with the Fiber app.
func (h *UserHandler) RegisterRoutes(router fiber.Router) {
	router.Get("/users/:userId", h.HandleGetUser)
}

// HandleGetUser returns the public view of one user.
func (h *UserHandler) HandleGetUser(c *fiber.Ctx) error {
	user, err := h.service.GetByID(c.UserContext(), c.Params("userId"))
	if err != nil {
		return getUserErrors.respond(c, err)
	}
	return c.JSON(user)
}
