package models

import (
	"strings"
	"time"
)

// DefaultGenre is stored when a story is published without a genre.
const DefaultGenre = "Unknown"

// Story is a published prompt together with its generated text.
type Story struct {
	ID             string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	UserID         string    `json:"user_id" gorm:"index;type:varchar(36);not null"`
	Prompt         string    `json:"prompt" gorm:"type:text;not null"`
	GeneratedStory string    `json:"generated_story" gorm:"type:text;not null"`
	Genre          string    `json:"genre" gorm:"type:varchar(100)"`
	CreatedAt      time.Time `json:"created_at" gorm:"index"`
}

// Normalize trims the text fields and applies the genre default.
// It runs once on the create path, before the story is persisted.
func (s *Story) Normalize() {
	s.Prompt = strings.TrimSpace(s.Prompt)
	s.GeneratedStory = strings.TrimSpace(s.GeneratedStory)
	s.Genre = strings.TrimSpace(s.Genre)
	if s.Genre == "" {
		s.Genre = DefaultGenre
	}
}

// StoryUpdate carries the fields a story owner may change.
// A nil Genre leaves the stored genre untouched.
type StoryUpdate struct {
	Prompt         string
	GeneratedStory string
	Genre          *string
}

// Normalize trims the update in place and drops a blank genre.
func (u *StoryUpdate) Normalize() {
	u.Prompt = strings.TrimSpace(u.Prompt)
	u.GeneratedStory = strings.TrimSpace(u.GeneratedStory)
	if u.Genre != nil {
		g := strings.TrimSpace(*u.Genre)
		if g == "" {
			u.Genre = nil
		} else {
			u.Genre = &g
		}
	}
}

// Apply copies the update onto s.
func (u StoryUpdate) Apply(s *Story) {
	s.Prompt = u.Prompt
	s.GeneratedStory = u.GeneratedStory
	if u.Genre != nil {
		s.Genre = *u.Genre
	}
}
