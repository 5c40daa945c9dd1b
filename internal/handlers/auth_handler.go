package handlers

import (
	"narratia/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var (
	signupErrors = errorMessages{invalid: "Invalid input data", internal: "Server error during signup"}
	loginErrors  = errorMessages{invalid: "Invalid input data", internal: "Server error during login"}
)

// AuthHandler handles HTTP requests for authentication.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    newValidator(),
	}
}

// RegisterRoutes registers the authentication routes with the Fiber app.
func (h *AuthHandler) RegisterRoutes(router fiber.Router) {
	router.Post("/signup", h.HandleSignup)
	router.Post("/login", h.HandleLogin)
}

// HandleSignup creates an account and logs the new user in.
func (h *AuthHandler) HandleSignup(c *fiber.Ctx) error {
	var req SignupRequest
	if err := bind(c, h.validate, &req); err != nil {
		return writeError(c, fiber.StatusBadRequest, signupErrors.invalid)
	}

	result, err := h.authService.Signup(c.UserContext(), req.Username, req.Email, req.Password)
	if err != nil {
		return signupErrors.respond(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User registered successfully",
		"token":   result.Token,
		"user":    result.User,
	})
}

// HandleLogin authenticates by username or email and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if err := bind(c, h.validate, &req); err != nil {
		return writeError(c, fiber.StatusBadRequest, loginErrors.invalid)
	}

	result, err := h.authService.Login(c.UserContext(), req.UsernameOrEmail, req.Password)
	if err != nil {
		return loginErrors.respond(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Login successful",
		"token":   result.Token,
		"user":    result.User,
	})
}
