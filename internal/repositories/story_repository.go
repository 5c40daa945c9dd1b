package repositories

import (
	"context"

	"narratia/internal/models"
	"narratia/internal/pagination"
)

// StoryFilter narrows a story listing. A zero value matches every story.
type StoryFilter struct {
	UserID string
}

// StoryRepository defines the interface for story data access.
type StoryRepository interface {
	// List returns one page of matching stories, newest first, and the total
	// number of matching stories.
	List(ctx context.Context, filter StoryFilter, page pagination.Page) ([]models.Story, int64, error)
	GetByID(ctx context.Context, id string) (*models.Story, error)
	Create(ctx context.Context, story *models.Story) error
	Update(ctx context.Context, story *models.Story) error
	Delete(ctx context.Context, id string) error
}
