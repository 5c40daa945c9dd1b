package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"narratia/internal/app"
	"narratia/internal/config"
	"narratia/internal/database"
	"narratia/internal/events"
	"narratia/internal/generator"
	"narratia/internal/models"
	"narratia/internal/repositories"
	"narratia/internal/services"
	"narratia/pkg/rabbitmq"
)

func main() {
	// --- Configuration ---
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	// --- Storage ---
	deps, closeStorage, err := buildDependencies(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer closeStorage()

	// --- Story events ---
	if cfg.EventsEnabled() {
		mqClient, err := rabbitmq.NewClient(rabbitmq.Config{
			URL:   cfg.RabbitMQURL,
			Queue: cfg.StoryEventsQueue,
		})
		if err != nil {
			log.Fatalf("Failed to initialize RabbitMQ client: %v", err)
		}
		defer mqClient.Close()

		deps.Publisher = events.NewQueuePublisher(mqClient)

		log.Println("Starting RabbitMQ consumer for story events...")
		if err := mqClient.Consume(events.LogStoryEvent); err != nil {
			log.Printf("Failed to start RabbitMQ consumer: %v", err)
		}
	} else {
		log.Println("RABBITMQ_URL not set, story events are disabled")
	}

	application, authService := app.NewApp(deps)

	if cfg.SeedDemoData {
		if err := seedDemoData(context.Background(), authService, deps.Stories); err != nil {
			log.Printf("Error seeding demo data: %v", err)
		}
	}

	// --- Start HTTP Server ---
	log.Printf("Starting server on port %s", cfg.AppPort)

	// Graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := application.Listen(cfg.AppPort); err != nil {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	<-quit
	log.Println("Shutting down server...")

	if err := application.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Printf("Error during Fiber shutdown: %v", err)
	}

	log.Println("Server gracefully stopped")
}

// buildDependencies picks the repositories for the configured driver. The
// returned func releases whatever was opened.
func buildDependencies(cfg *config.Config) (app.Dependencies, func(), error) {
	deps := app.Dependencies{
		Config:    cfg,
		Generator: generator.NewPlaceholder(cfg.GeneratorDelay),
	}

	if cfg.DatabaseDriver == config.DriverMemory {
		log.Println("Using in-memory storage; data is lost on restart")
		deps.Users = repositories.NewMemoryUserRepository()
		deps.Stories = repositories.NewMemoryStoryRepository()
		return deps, func() {}, nil
	}

	db, err := database.Open(cfg)
	if err != nil {
		return deps, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return deps, nil, err
	}
	log.Printf("Connected to %s database", cfg.DatabaseDriver)

	deps.Users = repositories.NewGORMUserRepository(db)
	deps.Stories = repositories.NewGORMStoryRepository(db)
	deps.HealthCheck = sqlDB.PingContext

	return deps, func() {
		if err := database.Close(db); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}, nil
}

// seedDemoData creates the demo author and two stories. It does nothing
// when the demo author already exists.
func seedDemoData(ctx context.Context, authService *services.AuthService, stories repositories.StoryRepository) error {
	result, err := authService.Signup(ctx, "JohnDoe", "john@example.com", "hashedpassword123")
	if errors.Is(err, models.ErrConflict) {
		log.Println("Demo data already present, skipping seed")
		return nil
	}
	if err != nil {
		return err
	}

	demo := []models.Story{
		{
			UserID:         result.User.ID,
			Prompt:         "A thrilling tale of adventure and mystery",
			GeneratedStory: "Once upon a time in a dark forest...",
			Genre:          "Adventure",
			CreatedAt:      time.Date(2023, 6, 24, 14, 0, 0, 0, time.UTC),
		},
		{
			UserID:         result.User.ID,
			Prompt:         "Romantic comedy set in Paris",
			GeneratedStory: "It all started with a chance encounter at a cafe...",
			Genre:          "Romance",
			CreatedAt:      time.Date(2023, 6, 25, 10, 0, 0, 0, time.UTC),
		},
	}
	for i := range demo {
		if err := stories.Create(ctx, &demo[i]); err != nil {
			return err
		}
		log.Printf("Seeded story: %s (ID: %s)", demo[i].Genre, demo[i].ID)
	}
	return nil
}
