// Package app assembles the Fiber application from explicit dependencies.
package app

import (
	"context"
	"errors"
	"log"
	"time"

	"narratia/internal/config"
	"narratia/internal/events"
	"narratia/internal/generator"
	"narratia/internal/handlers"
	"narratia/internal/middleware"
	"narratia/internal/repositories"
	"narratia/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

// Dependencies is everything NewApp wires together. Publisher and HealthCheck
// are optional.
type Dependencies struct {
	Config      *config.Config
	Users       repositories.UserRepository
	Stories     repositories.StoryRepository
	Publisher   events.Publisher
	Generator   generator.Generator
	HealthCheck func(ctx context.Context) error
	// DisableRequestLog turns off the request logger middleware.
	DisableRequestLog bool
}

// NewApp builds the HTTP application and returns it together with the auth
// service it uses for tokens.
func NewApp(deps Dependencies) (*fiber.App, *services.AuthService) {
	cfg := deps.Config

	authService := services.NewAuthService(deps.Users, cfg.JWTSecret, cfg.TokenTTL, cfg.BcryptCost)
	userService := services.NewUserService(deps.Users)
	storyService := services.NewStoryService(deps.Stories, deps.Publisher)

	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	storyHandler := handlers.NewStoryHandler(storyService, deps.Generator)

	app := fiber.New(fiber.Config{
		AppName:      "narratia",
		ErrorHandler: errorHandler,
	})

	app.Use(recover.New())
	if !deps.DisableRequestLog {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSAllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")
	authHandler.RegisterRoutes(api)
	userHandler.RegisterRoutes(api)
	storyHandler.RegisterRoutes(api, middleware.AuthRequired(authService))

	app.Get("/health", healthHandler(deps.HealthCheck))

	return app, authService
}

func healthHandler(check func(ctx context.Context) error) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if check != nil {
			if err := check(c.UserContext()); err != nil {
				log.Printf("Health check failed: %v", err)
				return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
					"status":   "unhealthy",
					"database": "unavailable",
					"time":     time.Now().Format(time.RFC3339),
				})
			}
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status":   "healthy",
			"database": "ok",
			"time":     time.Now().Format(time.RFC3339),
		})
	}
}

// errorHandler answers errors that escape the handlers, such as unknown
// routes, with the same {error} body the handlers use.
func errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		code = fiberErr.Code
		message = fiberErr.Message
	} else {
		log.Printf("%s %s: unhandled error: %v", c.Method(), c.Path(), err)
	}

	return c.Status(code).JSON(fiber.Map{"error": message})
}
