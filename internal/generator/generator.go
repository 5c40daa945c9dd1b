// Package generator produces story text for a prompt. The only
// implementation is a timed placeholder.
package generator

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Genres lists the genre options offered to authors.
var Genres = []string{
	"Fantasy",
	"Sci-Fi",
	"Romance",
	"Mystery",
	"Thriller",
	"Horror",
	"Historical",
	"Adventure",
	"Comedy",
}

// Generator turns a prompt and genre into story text.
type Generator interface {
	Generate(ctx context.Context, prompt, genre string) (string, error)
}

// Placeholder waits Delay and then returns canned text that quotes the
// prompt.
type Placeholder struct {
	Delay time.Duration
}

// NewPlaceholder creates a Placeholder generator.
func NewPlaceholder(delay time.Duration) *Placeholder {
	return &Placeholder{Delay: delay}
}

// Generate returns the placeholder story, or ctx's error if ctx ends first.
func (p *Placeholder) Generate(ctx context.Context, prompt, genre string) (string, error) {
	if p.Delay > 0 {
		timer := time.NewTimer(p.Delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return "", err
	}

	return fmt.Sprintf("This is an AI-generated %s story based on your prompt:\n\n\"%s\"\n\n[Story content generated here...]",
		genre, strings.TrimSpace(prompt)), nil
}
