package repositories

import (
	"context"
	"errors"
	"fmt"

	"narratia/internal/models"
	"narratia/internal/pagination"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMStoryRepository is a GORM implementation of StoryRepository.
type GORMStoryRepository struct {
	db *gorm.DB
}

// NewGORMStoryRepository creates a new instance of GORMStoryRepository.
func NewGORMStoryRepository(db *gorm.DB) *GORMStoryRepository {
	return &GORMStoryRepository{
		db: db,
	}
}

// List retrieves one page of stories sorted by creation time, newest first.
func (r *GORMStoryRepository) List(ctx context.Context, filter StoryFilter, page pagination.Page) ([]models.Story, int64, error) {
	var total int64
	if err := r.filtered(ctx, filter).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count stories: %w", err)
	}

	stories := make([]models.Story, 0, min(page.Limit, int(total)))
	if int64(page.Offset()) >= total {
		return stories, total, nil
	}
	err := r.filtered(ctx, filter).
		Order("created_at DESC").
		Order("id DESC").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&stories).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list stories: %w", err)
	}
	return stories, total, nil
}

// filtered starts a fresh statement so the count and the page query do not
// share clauses.
func (r *GORMStoryRepository) filtered(ctx context.Context, filter StoryFilter) *gorm.DB {
	query := r.db.WithContext(ctx).Model(&models.Story{})
	if filter.UserID != "" {
		query = query.Where("user_id = ?", filter.UserID)
	}
	return query
}

// GetByID retrieves a single story by its ID from the database.
func (r *GORMStoryRepository) GetByID(ctx context.Context, id string) (*models.Story, error) {
	var story models.Story
	if err := r.db.WithContext(ctx).First(&story, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: story with ID %s", models.ErrNotFound, id)
		}
		return nil, fmt.Errorf("failed to get story by ID %s: %w", id, err)
	}
	return &story, nil
}

// Create creates a new story in the database.
func (r *GORMStoryRepository) Create(ctx context.Context, story *models.Story) error {
	if story.ID == "" {
		story.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(story).Error; err != nil {
		return fmt.Errorf("failed to create story: %w", err)
	}
	return nil
}

// Update writes the editable fields of an existing story.
func (r *GORMStoryRepository) Update(ctx context.Context, story *models.Story) error {
	res := r.db.WithContext(ctx).Model(&models.Story{}).
		Where("id = ?", story.ID).
		Updates(map[string]interface{}{
			"prompt":          story.Prompt,
			"generated_story": story.GeneratedStory,
			"genre":           story.Genre,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update story: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: story with ID %s for update", models.ErrNotFound, story.ID)
	}
	return nil
}

// Delete deletes a story by its ID from the database.
func (r *GORMStoryRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Story{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete story: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: story with ID %s for deletion", models.ErrNotFound, id)
	}
	return nil
}
