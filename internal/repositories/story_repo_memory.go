package repositories

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"narratia/internal/models"
	"narratia/internal/pagination"

	"github.com/google/uuid"
)

// MemoryStoryRepository is an in-memory implementation of StoryRepository.
type MemoryStoryRepository struct {
	stories map[string]models.Story
	mu      sync.RWMutex
}

// NewMemoryStoryRepository creates a new instance of MemoryStoryRepository.
func NewMemoryStoryRepository() *MemoryStoryRepository {
	return &MemoryStoryRepository{
		stories: make(map[string]models.Story),
	}
}

// List returns one page of matching stories, newest first.
func (r *MemoryStoryRepository) List(_ context.Context, filter StoryFilter, page pagination.Page) ([]models.Story, int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]models.Story, 0, len(r.stories))
	for _, s := range r.stories {
		if filter.UserID != "" && s.UserID != filter.UserID {
			continue
		}
		matched = append(matched, s)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := int64(len(matched))
	start := max(0, min(page.Offset(), len(matched)))
	end := start + max(0, min(page.Limit, len(matched)-start))
	return matched[start:end], total, nil
}

// GetByID returns a story by its ID.
func (r *MemoryStoryRepository) GetByID(_ context.Context, id string) (*models.Story, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	story, ok := r.stories[id]
	if !ok {
		return nil, fmt.Errorf("%w: story with ID %s", models.ErrNotFound, id)
	}
	return &story, nil
}

// Create adds a new story.
func (r *MemoryStoryRepository) Create(_ context.Context, story *models.Story) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if story.ID == "" {
		story.ID = uuid.New().String()
	}
	if story.CreatedAt.IsZero() {
		story.CreatedAt = time.Now()
	}
	r.stories[story.ID] = *story
	return nil
}

// Update modifies the editable fields of an existing story.
func (r *MemoryStoryRepository) Update(_ context.Context, story *models.Story) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.stories[story.ID]
	if !ok {
		return fmt.Errorf("%w: story with ID %s for update", models.ErrNotFound, story.ID)
	}
	stored.Prompt = story.Prompt
	stored.GeneratedStory = story.GeneratedStory
	stored.Genre = story.Genre
	r.stories[story.ID] = stored
	return nil
}

// Delete removes a story by its ID.
func (r *MemoryStoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.stories[id]; !ok {
		return fmt.Errorf("%w: story with ID %s for deletion", models.ErrNotFound, id)
	}
	delete(r.stories, id)
	return nil
}
