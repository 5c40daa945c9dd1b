package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"narratia/internal/events"
	"narratia/internal/models"
	"narratia/internal/pagination"
	"narratia/internal/repositories"
)

// StoryService handles business logic related to stories.
type StoryService struct {
	repo      repositories.StoryRepository
	publisher events.Publisher
}

// StoryPage is one page of a story listing.
type StoryPage struct {
	Stories []models.Story `json:"stories"`
	Total   int64          `json:"totalStories"`
}

// NewStoryService creates a new StoryService. A nil publisher disables
// story events.
func NewStoryService(repo repositories.StoryRepository, publisher events.Publisher) *StoryService {
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &StoryService{
		repo:      repo,
		publisher: publisher,
	}
}

// ListAll returns one page of every user's stories, newest first.
func (s *StoryService) ListAll(ctx context.Context, page pagination.Page) (*StoryPage, error) {
	return s.list(ctx, repositories.StoryFilter{}, page)
}

// ListByUser returns one page of a single user's stories, newest first.
func (s *StoryService) ListByUser(ctx context.Context, userID string, page pagination.Page) (*StoryPage, error) {
	if !models.ValidID(userID) {
		return nil, fmt.Errorf("%w: user ID %q", models.ErrInvalidInput, userID)
	}
	return s.list(ctx, repositories.StoryFilter{UserID: userID}, page)
}

func (s *StoryService) list(ctx context.Context, filter repositories.StoryFilter, page pagination.Page) (*StoryPage, error) {
	stories, total, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	if stories == nil {
		stories = []models.Story{}
	}
	return &StoryPage{Stories: stories, Total: total}, nil
}

// Create normalizes and validates story and then persists it. The server
// assigns the ID and creation time.
func (s *StoryService) Create(ctx context.Context, story *models.Story) error {
	story.Normalize()
	if !models.ValidID(story.UserID) {
		return fmt.Errorf("%w: user ID %q", models.ErrInvalidInput, story.UserID)
	}
	if story.Prompt == "" || story.GeneratedStory == "" {
		return fmt.Errorf("%w: prompt and generated_story are required", models.ErrInvalidInput)
	}
	story.ID = ""
	story.CreatedAt = time.Time{}

	if err := s.repo.Create(ctx, story); err != nil {
		return err
	}
	s.publish(ctx, events.StoryCreated, story)
	return nil
}

// Update applies update to the story with the given ID. When actorID is not
// empty the story must belong to that user.
func (s *StoryService) Update(ctx context.Context, actorID, storyID string, update models.StoryUpdate) (*models.Story, error) {
	if !models.ValidID(storyID) {
		return nil, fmt.Errorf("%w: story ID %q", models.ErrInvalidInput, storyID)
	}
	update.Normalize()
	if update.Prompt == "" || update.GeneratedStory == "" {
		return nil, fmt.Errorf("%w: prompt and generated_story are required and cannot be empty", models.ErrInvalidInput)
	}

	story, err := s.owned(ctx, actorID, storyID)
	if err != nil {
		return nil, err
	}

	update.Apply(story)
	if err := s.repo.Update(ctx, story); err != nil {
		return nil, err
	}
	s.publish(ctx, events.StoryUpdated, story)
	return story, nil
}

// Delete removes the story with the given ID. When actorID is not empty the
// story must belong to that user.
func (s *StoryService) Delete(ctx context.Context, actorID, storyID string) error {
	if !models.ValidID(storyID) {
		return fmt.Errorf("%w: story ID %q", models.ErrInvalidInput, storyID)
	}

	story, err := s.owned(ctx, actorID, storyID)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, storyID); err != nil {
		return err
	}
	s.publish(ctx, events.StoryDeleted, story)
	return nil
}

func (s *StoryService) owned(ctx context.Context, actorID, storyID string) (*models.Story, error) {
	story, err := s.repo.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if actorID != "" && story.UserID != actorID {
		return nil, fmt.Errorf("%w: story %s belongs to another user", models.ErrForbidden, storyID)
	}
	return story, nil
}

// publish announces a story change. Failures are logged and never fail the
// request that caused them.
func (s *StoryService) publish(ctx context.Context, eventType string, story *models.Story) {
	if err := s.publisher.PublishStoryEvent(ctx, events.NewStoryEvent(eventType, story)); err != nil {
		log.Printf("Warning: failed to publish %s event for story %s: %v", eventType, story.ID, err)
	}
}
