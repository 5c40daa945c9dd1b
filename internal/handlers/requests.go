package handlers

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"github.com/gofiber/fiber/v2"
)

// SignupRequest is the body of POST /api/signup.
type SignupRequest struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginRequest is the body of POST /api/login.
type LoginRequest struct {
	UsernameOrEmail string `json:"usernameOrEmail" validate:"required"`
	Password        string `json:"password" validate:"required"`
}

// CreateStoryRequest is the body of POST /api/stories. UserID defaults to
// the authenticated user.
type CreateStoryRequest struct {
	UserID         string `json:"user_id" validate:"omitempty,uuid"`
	Prompt         string `json:"prompt" validate:"notblank"`
	GeneratedStory string `json:"generated_story" validate:"notblank"`
	Genre          string `json:"genre"`
}

// UpdateStoryRequest is the body of PUT /api/mystories/:storyId.
type UpdateStoryRequest struct {
	Prompt         string  `json:"prompt" validate:"notblank"`
	GeneratedStory string  `json:"generated_story" validate:"notblank"`
	Genre          *string `json:"genre"`
}

// GenerateStoryRequest is the body of POST /api/stories/generate.
type GenerateStoryRequest struct {
	Prompt string `json:"prompt" validate:"notblank"`
	Genre  string `json:"genre"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("notblank", validators.NotBlank); err != nil {
		log.Fatalf("Failed to register notblank validation: %v", err)
	}
	return v
}

// bind parses the JSON body into dst and validates it.
func bind(c *fiber.Ctx, v *validator.Validate, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		log.Printf("Error parsing %s request body: %v", c.Path(), err)
		return err
	}
	if err := v.Struct(dst); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, e := range validationErrors {
				log.Printf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
			}
		}
		return err
	}
	return nil
}
