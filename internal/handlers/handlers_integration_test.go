package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"narratia/internal/database"
	"narratia/internal/generator"
	"narratia/internal/handlers"
	"narratia/internal/middleware"
	"narratia/internal/models"
	"narratia/internal/repositories"
	"narratia/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test_jwt_secret"

type testEnv struct {
	app         *fiber.App
	db          *gorm.DB
	authService *services.AuthService
}

// setupApp builds the API on a private in-memory SQLite database.
func setupApp(t *testing.T) *testEnv {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))
	t.Cleanup(func() { _ = database.Close(db) })

	userRepo := repositories.NewGORMUserRepository(db)
	storyRepo := repositories.NewGORMStoryRepository(db)

	authService := services.NewAuthService(userRepo, testSecret, time.Hour, bcrypt.MinCost)
	userService := services.NewUserService(userRepo)
	storyService := services.NewStoryService(storyRepo, nil)

	app := fiber.New()
	api := app.Group("/api")
	handlers.NewAuthHandler(authService).RegisterRoutes(api)
	handlers.NewUserHandler(userService).RegisterRoutes(api)
	handlers.NewStoryHandler(storyService, generator.NewPlaceholder(0)).
		RegisterRoutes(api, middleware.AuthRequired(authService))

	return &testEnv{app: app, db: db, authService: authService}
}

// TestMain runs setup and teardown for all tests
func TestMain(m *testing.M) {
	// Suppress logging during tests for cleaner output
	log.SetOutput(io.Discard)
	os.Exit(m.Run())
}

func (e *testEnv) do(t *testing.T, method, path, token string, body interface{}) (int, map[string]interface{}) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(jsonBody)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp.StatusCode, decoded
}

func (e *testEnv) signup(t *testing.T, username, email, password string) (token, userID string) {
	t.Helper()
	status, body := e.do(t, http.MethodPost, "/api/signup", "", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	})
	require.Equal(t, http.StatusCreated, status, body)
	user := body["user"].(map[string]interface{})
	return body["token"].(string), user["id"].(string)
}

func (e *testEnv) publish(t *testing.T, token, prompt, text, genre string) map[string]interface{} {
	t.Helper()
	status, body := e.do(t, http.MethodPost, "/api/stories", token, map[string]string{
		"prompt":          prompt,
		"generated_story": text,
		"genre":           genre,
	})
	require.Equal(t, http.StatusCreated, status, body)
	return body["story"].(map[string]interface{})
}

func (e *testEnv) storyCount(t *testing.T) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(&models.Story{}).Count(&count).Error)
	return count
}

func TestStoryLifecycle(t *testing.T) {
	env := setupApp(t)

	token, userID := env.signup(t, "alice", "a@x.com", "secret1")

	status, body := env.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"usernameOrEmail": "a@x.com",
		"password":        "secret1",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Login successful", body["message"])
	assert.NotEmpty(t, body["token"])

	claims, err := env.authService.ValidateToken(body["token"].(string))
	require.NoError(t, err)
	assert.Equal(t, userID, claims["user_id"])
	assert.Equal(t, "alice", claims["username"])

	status, body = env.do(t, http.MethodPost, "/api/stories", token, map[string]string{
		"user_id":         userID,
		"prompt":          "A dragon",
		"generated_story": "Once...",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "Story published successfully", body["message"])
	story := body["story"].(map[string]interface{})
	assert.Equal(t, "Unknown", story["genre"])
	assert.Equal(t, userID, story["user_id"])
	storyID := story["id"].(string)

	status, body = env.do(t, http.MethodGet, "/api/mystories/"+userID, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["totalStories"])
	stories := body["stories"].([]interface{})
	require.Len(t, stories, 1)
	assert.Equal(t, storyID, stories[0].(map[string]interface{})["id"])

	status, body = env.do(t, http.MethodPut, "/api/mystories/"+storyID, token, map[string]string{
		"prompt":          "A red dragon",
		"generated_story": "Once upon...",
		"genre":           "Fantasy",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "A red dragon", body["prompt"])
	assert.Equal(t, "Once upon...", body["generated_story"])
	assert.Equal(t, "Fantasy", body["genre"])

	status, body = env.do(t, http.MethodDelete, "/api/mystories/"+storyID, token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Story deleted successfully", body["message"])

	status, body = env.do(t, http.MethodGet, "/api/stories", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(0), body["totalStories"])
	assert.Empty(t, body["stories"])
}

func TestSignup(t *testing.T) {
	env := setupApp(t)

	_, userID := env.signup(t, "alice", "a@x.com", "secret1")

	var stored models.User
	require.NoError(t, env.db.First(&stored, "id = ?", userID).Error)
	assert.NotEqual(t, "secret1", stored.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.Password), []byte("secret1")))

	status, body := env.do(t, http.MethodPost, "/api/signup", "", map[string]string{
		"username": "alice",
		"email":    "other@x.com",
		"password": "secret2",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Username or email already in use", body["error"])

	status, _ = env.do(t, http.MethodPost, "/api/signup", "", map[string]string{
		"username": "bob",
		"email":    "a@x.com",
		"password": "secret2",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, body = env.do(t, http.MethodPost, "/api/signup", "", map[string]string{
		"username": "carol",
		"email":    "c@x.com",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid input data", body["error"])

	var count int64
	require.NoError(t, env.db.Model(&models.User{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestLogin(t *testing.T) {
	env := setupApp(t)
	_, userID := env.signup(t, "alice", "a@x.com", "secret1")

	status, body := env.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"usernameOrEmail": "alice",
		"password":        "secret1",
	})
	require.Equal(t, http.StatusOK, status)
	user := body["user"].(map[string]interface{})
	assert.Equal(t, userID, user["id"])
	assert.NotContains(t, user, "password")

	for _, tc := range []struct {
		name  string
		login string
		pass  string
	}{
		{"altered password", "alice", "secret2"},
		{"unknown user", "nobody", "secret1"},
	} {
		t.Run(tc.name, func(t *testing.T) {
			status, body := env.do(t, http.MethodPost, "/api/login", "", map[string]string{
				"usernameOrEmail": tc.login,
				"password":        tc.pass,
			})
			assert.Equal(t, http.StatusUnauthorized, status)
			assert.Equal(t, "Invalid credentials", body["error"])
		})
	}
}

func TestGetUser(t *testing.T) {
	env := setupApp(t)
	_, userID := env.signup(t, "alice", "a@x.com", "secret1")

	status, body := env.do(t, http.MethodGet, "/api/users/"+userID, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, map[string]interface{}{"id": userID, "username": "alice", "email": "a@x.com"}, body)

	status, body = env.do(t, http.MethodGet, "/api/users/"+uuid.NewString(), "", nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "User not found", body["error"])

	status, body = env.do(t, http.MethodGet, "/api/users/not-an-id", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid user ID", body["error"])
}

func TestListStoriesPagination(t *testing.T) {
	env := setupApp(t)
	token, _ := env.signup(t, "alice", "a@x.com", "secret1")

	const n = 10
	for i := 0; i < n; i++ {
		env.publish(t, token, fmt.Sprintf("prompt %d", i), "text", "Fantasy")
	}

	seen := make(map[string]bool)
	var previous time.Time
	for page := 1; page <= 3; page++ {
		status, body := env.do(t, http.MethodGet, fmt.Sprintf("/api/stories?page=%d&limit=4", page), "", nil)
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, float64(n), body["totalStories"])

		stories := body["stories"].([]interface{})
		want := 4
		if page == 3 {
			want = 2
		}
		require.Len(t, stories, want)

		for _, raw := range stories {
			s := raw.(map[string]interface{})
			id := s["id"].(string)
			assert.False(t, seen[id], "story %s listed twice", id)
			seen[id] = true

			createdAt, err := time.Parse(time.RFC3339Nano, s["created_at"].(string))
			require.NoError(t, err)
			if !previous.IsZero() {
				assert.False(t, createdAt.After(previous), "stories must be newest first")
			}
			previous = createdAt
		}
	}
	assert.Len(t, seen, n)

	status, body := env.do(t, http.MethodGet, "/api/stories?page=4&limit=4", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["stories"])

	status, body = env.do(t, http.MethodGet, "/api/stories?page=abc&limit=-3", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["stories"], 1)

	status, body = env.do(t, http.MethodGet, "/api/stories", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["stories"], 4)
}

func TestListStoriesPageFarPastTheEnd(t *testing.T) {
	env := setupApp(t)
	token, _ := env.signup(t, "alice", "a@x.com", "secret1")
	env.publish(t, token, "A dragon", "Once...", "Fantasy")

	status, body := env.do(t, http.MethodGet, "/api/stories?page=2305843009213693953&limit=4", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, body["stories"])
	assert.Equal(t, float64(1), body["totalStories"])
}

func TestListStoriesLargeLimit(t *testing.T) {
	env := setupApp(t)
	_, userID := env.signup(t, "alice", "a@x.com", "secret1")

	const n = 150
	repo := repositories.NewGORMStoryRepository(env.db)
	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < n; i++ {
		require.NoError(t, repo.Create(context.Background(), &models.Story{
			UserID:         userID,
			Prompt:         fmt.Sprintf("prompt %d", i),
			GeneratedStory: "text",
			Genre:          models.DefaultGenre,
			CreatedAt:      base.Add(time.Duration(i) * time.Second),
		}))
	}

	status, body := env.do(t, http.MethodGet, "/api/stories?page=1&limit=200", "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(n), body["totalStories"])
	assert.Len(t, body["stories"], n)

	const limit = 120
	seen := make(map[string]bool)
	pages := (n + limit - 1) / limit
	for page := 1; page <= pages; page++ {
		status, body := env.do(t, http.MethodGet, fmt.Sprintf("/api/stories?page=%d&limit=%d", page, limit), "", nil)
		require.Equal(t, http.StatusOK, status)
		for _, raw := range body["stories"].([]interface{}) {
			seen[raw.(map[string]interface{})["id"].(string)] = true
		}
	}
	assert.Len(t, seen, n)
}

func TestListUserStories(t *testing.T) {
	env := setupApp(t)
	aliceToken, aliceID := env.signup(t, "alice", "a@x.com", "secret1")
	bobToken, bobID := env.signup(t, "bob", "b@x.com", "secret2")

	env.publish(t, aliceToken, "alice 1", "text", "")
	env.publish(t, aliceToken, "alice 2", "text", "")
	env.publish(t, bobToken, "bob 1", "text", "")

	status, body := env.do(t, http.MethodGet, "/api/mystories/"+aliceID, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(2), body["totalStories"])
	for _, raw := range body["stories"].([]interface{}) {
		assert.Equal(t, aliceID, raw.(map[string]interface{})["user_id"])
	}

	status, body = env.do(t, http.MethodGet, "/api/mystories/"+bobID, "", nil)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, float64(1), body["totalStories"])

	status, body = env.do(t, http.MethodGet, "/api/mystories/bad-id", "", nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid user ID", body["error"])
}

func TestCreateStoryValidation(t *testing.T) {
	env := setupApp(t)
	token, aliceID := env.signup(t, "alice", "a@x.com", "secret1")
	_, bobID := env.signup(t, "bob", "b@x.com", "secret2")

	status, body := env.do(t, http.MethodPost, "/api/stories", token, map[string]string{
		"prompt":          "   ",
		"generated_story": "text",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid or missing data", body["error"])

	status, _ = env.do(t, http.MethodPost, "/api/stories", token, map[string]string{
		"prompt": "A dragon",
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = env.do(t, http.MethodPost, "/api/stories", token, map[string]string{
		"user_id":         bobID,
		"prompt":          "A dragon",
		"generated_story": "text",
	})
	assert.Equal(t, http.StatusForbidden, status)

	assert.Equal(t, int64(0), env.storyCount(t))

	status, body = env.do(t, http.MethodPost, "/api/stories", token, map[string]string{
		"prompt":          "No owner given",
		"generated_story": "text",
	})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, aliceID, body["story"].(map[string]interface{})["user_id"])
}

func TestUpdateStory(t *testing.T) {
	env := setupApp(t)
	token, _ := env.signup(t, "alice", "a@x.com", "secret1")
	bobToken, _ := env.signup(t, "bob", "b@x.com", "secret2")
	story := env.publish(t, token, "A dragon", "Once...", "Fantasy")
	storyID := story["id"].(string)

	t.Run("empty prompt leaves story unchanged", func(t *testing.T) {
		status, body := env.do(t, http.MethodPut, "/api/mystories/"+storyID, token, map[string]string{
			"prompt":          "",
			"generated_story": "x",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Prompt and generated_story are required and cannot be empty", body["error"])

		var stored models.Story
		require.NoError(t, env.db.First(&stored, "id = ?", storyID).Error)
		assert.Equal(t, "A dragon", stored.Prompt)
		assert.Equal(t, "Once...", stored.GeneratedStory)
	})

	t.Run("missing genre keeps the stored one", func(t *testing.T) {
		status, body := env.do(t, http.MethodPut, "/api/mystories/"+storyID, token, map[string]string{
			"prompt":          "A blue dragon",
			"generated_story": "Once more...",
		})
		require.Equal(t, http.StatusOK, status)
		assert.Equal(t, "Fantasy", body["genre"])
	})

	t.Run("invalid id", func(t *testing.T) {
		status, body := env.do(t, http.MethodPut, "/api/mystories/123", token, map[string]string{
			"prompt":          "p",
			"generated_story": "g",
		})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "Invalid story ID", body["error"])
	})

	t.Run("unknown id", func(t *testing.T) {
		status, body := env.do(t, http.MethodPut, "/api/mystories/"+uuid.NewString(), token, map[string]string{
			"prompt":          "p",
			"generated_story": "g",
		})
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "Story not found", body["error"])
	})

	t.Run("upper case id", func(t *testing.T) {
		status, body := env.do(t, http.MethodPut, "/api/mystories/"+strings.ToUpper(uuid.NewString()), token, map[string]string{
			"prompt":          "p",
			"generated_story": "g",
		})
		assert.Equal(t, http.StatusNotFound, status)
		assert.Equal(t, "Story not found", body["error"])

		status, _ = env.do(t, http.MethodPut, "/api/mystories/"+strings.ToUpper(storyID), token, map[string]string{
			"prompt":          "A loud dragon",
			"generated_story": "ROAR",
		})
		assert.NotEqual(t, http.StatusBadRequest, status)
	})

	t.Run("another user's story", func(t *testing.T) {
		status, _ := env.do(t, http.MethodPut, "/api/mystories/"+storyID, bobToken, map[string]string{
			"prompt":          "mine now",
			"generated_story": "g",
		})
		assert.Equal(t, http.StatusForbidden, status)
	})
}

func TestDeleteStory(t *testing.T) {
	env := setupApp(t)
	token, _ := env.signup(t, "alice", "a@x.com", "secret1")
	bobToken, _ := env.signup(t, "bob", "b@x.com", "secret2")
	story := env.publish(t, token, "A dragon", "Once...", "")
	storyID := story["id"].(string)

	status, body := env.do(t, http.MethodDelete, "/api/mystories/"+uuid.NewString(), token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Story not found", body["error"])
	assert.Equal(t, int64(1), env.storyCount(t))

	status, body = env.do(t, http.MethodDelete, "/api/mystories/"+strings.ToUpper(uuid.NewString()), token, nil)
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "Story not found", body["error"])

	status, body = env.do(t, http.MethodDelete, "/api/mystories/nope", token, nil)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Invalid story ID", body["error"])

	status, _ = env.do(t, http.MethodDelete, "/api/mystories/"+storyID, bobToken, nil)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, int64(1), env.storyCount(t))

	status, _ = env.do(t, http.MethodDelete, "/api/mystories/"+storyID, token, nil)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, int64(0), env.storyCount(t))
}

func TestAuthFailures(t *testing.T) {
	env := setupApp(t)
	token, userID := env.signup(t, "alice", "a@x.com", "secret1")

	status, body := env.do(t, http.MethodPost, "/api/stories", "", map[string]string{
		"prompt": "p", "generated_story": "g",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Access token required", body["error"])

	status, body = env.do(t, http.MethodPost, "/api/stories", "garbage", map[string]string{
		"prompt": "p", "generated_story": "g",
	})
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, "Invalid or expired token", body["error"])

	other := services.NewAuthService(repositories.NewGORMUserRepository(env.db), "another_secret", time.Hour, bcrypt.MinCost)
	forged, err := other.Login(context.Background(), "alice", "secret1")
	require.NoError(t, err)
	status, _ = env.do(t, http.MethodPost, "/api/stories", forged.Token, map[string]string{
		"prompt": "p", "generated_story": "g",
	})
	assert.Equal(t, http.StatusForbidden, status)

	require.NoError(t, env.db.Delete(&models.User{}, "id = ?", userID).Error)
	status, body = env.do(t, http.MethodPost, "/api/stories", token, map[string]string{
		"prompt": "p", "generated_story": "g",
	})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "Invalid or expired token", body["error"])

	assert.Equal(t, int64(0), env.storyCount(t))
}

func TestGenerateStory(t *testing.T) {
	env := setupApp(t)
	token, _ := env.signup(t, "alice", "a@x.com", "secret1")

	status, body := env.do(t, http.MethodPost, "/api/stories/generate", token, map[string]string{
		"prompt": "A dragon",
		"genre":  "Fantasy",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t,
		"This is an AI-generated Fantasy story based on your prompt:\n\n\"A dragon\"\n\n[Story content generated here...]",
		body["generated_story"])

	status, body = env.do(t, http.MethodPost, "/api/stories/generate", token, map[string]string{
		"prompt": "A dragon",
	})
	require.Equal(t, http.StatusOK, status)
	assert.Contains(t, body["generated_story"], "AI-generated Unknown story")

	status, body = env.do(t, http.MethodPost, "/api/stories/generate", token, map[string]string{
		"prompt": "  ",
	})
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Please enter a prompt.", body["error"])
}

func TestGenres(t *testing.T) {
	env := setupApp(t)

	status, body := env.do(t, http.MethodGet, "/api/genres", "", nil)
	require.Equal(t, http.StatusOK, status)
	genres := body["genres"].([]interface{})
	assert.Len(t, genres, len(generator.Genres))
	assert.Contains(t, genres, "Fantasy")
}
