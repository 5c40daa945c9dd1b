package handlers

import (
	"strings"

	"narratia/internal/generator"
	"narratia/internal/middleware"
	"narratia/internal/models"
	"narratia/internal/pagination"
	"narratia/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var (
	listStoriesErrors = errorMessages{internal: "Server error fetching stories"}
	userStoriesErrors = errorMessages{invalid: "Invalid user ID", internal: "Server error fetching user stories"}
	createStoryErrors = errorMessages{invalid: "Invalid or missing data", internal: "Failed to publish story"}
	updateStoryErrors = errorMessages{
		invalid:  "Prompt and generated_story are required and cannot be empty",
		notFound: "Story not found",
		internal: "Failed to update story",
	}
	deleteStoryErrors = errorMessages{invalid: "Invalid story ID", notFound: "Story not found", internal: "Failed to delete story"}
	generateErrors    = errorMessages{invalid: "Please enter a prompt.", internal: "Failed to generate story. Please try again."}
)

// StoryHandler handles HTTP requests for stories.
type StoryHandler struct {
	service   *services.StoryService
	generator generator.Generator
	validate  *validator.Validate
}

// NewStoryHandler creates a new StoryHandler.
func NewStoryHandler(service *services.StoryService, gen generator.Generator) *StoryHandler {
	return &StoryHandler{
		service:   service,
		generator: gen,
		validate:  newValidator(),
	}
}

// RegisterRoutes registers the story routes. Reads are public; every write
// goes through auth.
func (h *StoryHandler) RegisterRoutes(router fiber.Router, auth fiber.Handler) {
	router.Get("/stories", h.HandleListStories)
	router.Post("/stories", auth, h.HandleCreateStory)
	router.Post("/stories/generate", auth, h.HandleGenerateStory)
	router.Get("/genres", h.HandleGenres)
	router.Get("/mystories/:userId", h.HandleListUserStories)
	router.Put("/mystories/:storyId", auth, h.HandleUpdateStory)
	router.Delete("/mystories/:storyId", auth, h.HandleDeleteStory)
}

func pageFromQuery(c *fiber.Ctx) pagination.Page {
	return pagination.Parse(c.Query("page"), c.Query("limit"))
}

func storyPageJSON(c *fiber.Ctx, page *services.StoryPage) error {
	return c.JSON(fiber.Map{
		"stories":      page.Stories,
		"totalStories": page.Total,
	})
}

// HandleListStories returns one page of the global feed.
func (h *StoryHandler) HandleListStories(c *fiber.Ctx) error {
	page, err := h.service.ListAll(c.UserContext(), pageFromQuery(c))
	if err != nil {
		return listStoriesErrors.respond(c, err)
	}
	return storyPageJSON(c, page)
}

// HandleListUserStories returns one page of a single user's stories.
func (h *StoryHandler) HandleListUserStories(c *fiber.Ctx) error {
	page, err := h.service.ListByUser(c.UserContext(), c.Params("userId"), pageFromQuery(c))
	if err != nil {
		return userStoriesErrors.respond(c, err)
	}
	return storyPageJSON(c, page)
}

// HandleCreateStory publishes a story for the authenticated user.
func (h *StoryHandler) HandleCreateStory(c *fiber.Ctx) error {
	var req CreateStoryRequest
	if err := bind(c, h.validate, &req); err != nil {
		return writeError(c, fiber.StatusBadRequest, createStoryErrors.invalid)
	}

	user := middleware.CurrentUser(c)
	if req.UserID != "" && req.UserID != user.ID {
		return writeError(c, fiber.StatusForbidden, "You can only publish stories as yourself")
	}

	story := &models.Story{
		UserID:         user.ID,
		Prompt:         req.Prompt,
		GeneratedStory: req.GeneratedStory,
		Genre:          req.Genre,
	}
	if err := h.service.Create(c.UserContext(), story); err != nil {
		return createStoryErrors.respond(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Story published successfully",
		"story":   story,
	})
}

// HandleUpdateStory edits the prompt, text and genre of a story the caller owns.
func (h *StoryHandler) HandleUpdateStory(c *fiber.Ctx) error {
	storyID := c.Params("storyId")
	if !models.ValidID(storyID) {
		return writeError(c, fiber.StatusBadRequest, "Invalid story ID")
	}

	var req UpdateStoryRequest
	if err := bind(c, h.validate, &req); err != nil {
		return writeError(c, fiber.StatusBadRequest, updateStoryErrors.invalid)
	}

	story, err := h.service.Update(c.UserContext(), middleware.CurrentUser(c).ID, storyID, models.StoryUpdate{
		Prompt:         req.Prompt,
		GeneratedStory: req.GeneratedStory,
		Genre:          req.Genre,
	})
	if err != nil {
		return updateStoryErrors.respond(c, err)
	}
	return c.JSON(story)
}

// HandleDeleteStory removes a story the caller owns.
func (h *StoryHandler) HandleDeleteStory(c *fiber.Ctx) error {
	if err := h.service.Delete(c.UserContext(), middleware.CurrentUser(c).ID, c.Params("storyId")); err != nil {
		return deleteStoryErrors.respond(c, err)
	}
	return c.JSON(fiber.Map{
		"message": "Story deleted successfully",
	})
}

// HandleGenerateStory runs the placeholder generator for a prompt.
func (h *StoryHandler) HandleGenerateStory(c *fiber.Ctx) error {
	var req GenerateStoryRequest
	if err := bind(c, h.validate, &req); err != nil {
		return writeError(c, fiber.StatusBadRequest, generateErrors.invalid)
	}

	genre := strings.TrimSpace(req.Genre)
	if genre == "" {
		genre = models.DefaultGenre
	}
	text, err := h.generator.Generate(c.UserContext(), req.Prompt, genre)
	if err != nil {
		return generateErrors.respond(c, err)
	}
	return c.JSON(fiber.Map{
		"generated_story": text,
	})
}

// HandleGenres lists the genre options offered to authors.
func (h *StoryHandler) HandleGenres(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"genres": generator.Genres,
	})
}
