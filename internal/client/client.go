// Package client is a typed HTTP client for the Narratia API.
package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"narratia/internal/models"

	"github.com/gofiber/fiber/v2"
)

// DefaultTimeout bounds every request.
const DefaultTimeout = 10 * time.Second

// ErrNotLoggedIn is returned by calls that need a session when there is none.
var ErrNotLoggedIn = errors.New("not logged in")

// APIError is a non-2xx answer from the server.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Message)
}

// AuthResponse is the body returned by signup and login.
type AuthResponse struct {
	Message string            `json:"message"`
	Token   string            `json:"token"`
	User    models.PublicUser `json:"user"`
}

// StoryPage is one page of a story listing.
type StoryPage struct {
	Stories      []models.Story `json:"stories"`
	TotalStories int64          `json:"totalStories"`
}

// Client talks to one API server and remembers the logged in session.
type Client struct {
	baseURL string
	timeout time.Duration

	mu    sync.RWMutex
	token string
	user  *models.PublicUser
}

// New creates a Client for the server at baseURL, e.g. http://localhost:5000.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: DefaultTimeout,
	}
}

// SetTimeout changes the per-request timeout.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// Session returns the logged in user, or nil.
func (c *Client) Session() *models.PublicUser {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.user
}

// Token returns the current bearer token, or "".
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// Logout forgets the session. Tokens are stateless so the server is not told.
func (c *Client) Logout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.user = nil
}

func (c *Client) setSession(resp *AuthResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = resp.Token
	user := resp.User
	c.user = &user
}

// Signup registers a new account and starts a session for it.
func (c *Client) Signup(username, email, password string) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.send(fiber.Post(c.url("/api/signup")).JSON(fiber.Map{
		"username": username,
		"email":    email,
		"password": password,
	}), false, &resp)
	if err != nil {
		return nil, err
	}
	c.setSession(&resp)
	return &resp, nil
}

// Login authenticates by username or email and starts a session.
func (c *Client) Login(usernameOrEmail, password string) (*AuthResponse, error) {
	var resp AuthResponse
	err := c.send(fiber.Post(c.url("/api/login")).JSON(fiber.Map{
		"usernameOrEmail": usernameOrEmail,
		"password":        password,
	}), false, &resp)
	if err != nil {
		return nil, err
	}
	c.setSession(&resp)
	return &resp, nil
}

// GetUser fetches the public profile of a user.
func (c *Client) GetUser(userID string) (*models.PublicUser, error) {
	var user models.PublicUser
	if err := c.send(fiber.Get(c.url("/api/users/"+url.PathEscape(userID))), false, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListStories fetches one page of the global feed.
func (c *Client) ListStories(page, limit int) (*StoryPage, error) {
	var resp StoryPage
	agent := fiber.Get(c.url("/api/stories")).QueryString(pageQuery(page, limit))
	if err := c.send(agent, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ListUserStories fetches one page of a user's stories.
func (c *Client) ListUserStories(userID string, page, limit int) (*StoryPage, error) {
	var resp StoryPage
	agent := fiber.Get(c.url("/api/mystories/" + url.PathEscape(userID))).QueryString(pageQuery(page, limit))
	if err := c.send(agent, false, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateStory publishes a story as the logged in user.
func (c *Client) CreateStory(prompt, generatedStory, genre string) (*models.Story, error) {
	var resp struct {
		Story models.Story `json:"story"`
	}
	err := c.send(fiber.Post(c.url("/api/stories")).JSON(fiber.Map{
		"prompt":          prompt,
		"generated_story": generatedStory,
		"genre":           genre,
	}), true, &resp)
	if err != nil {
		return nil, err
	}
	return &resp.Story, nil
}

// UpdateStory edits a story owned by the logged in user. A nil genre keeps
// the current one.
func (c *Client) UpdateStory(storyID, prompt, generatedStory string, genre *string) (*models.Story, error) {
	body := fiber.Map{
		"prompt":          prompt,
		"generated_story": generatedStory,
	}
	if genre != nil {
		body["genre"] = *genre
	}

	var story models.Story
	agent := fiber.Put(c.url("/api/mystories/" + url.PathEscape(storyID))).JSON(body)
	if err := c.send(agent, true, &story); err != nil {
		return nil, err
	}
	return &story, nil
}

// DeleteStory removes a story owned by the logged in user.
func (c *Client) DeleteStory(storyID string) error {
	return c.send(fiber.Delete(c.url("/api/mystories/"+url.PathEscape(storyID))), true, nil)
}

// GenerateStory asks the server for a story based on prompt.
func (c *Client) GenerateStory(prompt, genre string) (string, error) {
	var resp struct {
		GeneratedStory string `json:"generated_story"`
	}
	err := c.send(fiber.Post(c.url("/api/stories/generate")).JSON(fiber.Map{
		"prompt": prompt,
		"genre":  genre,
	}), true, &resp)
	if err != nil {
		return "", err
	}
	return resp.GeneratedStory, nil
}

// Genres lists the genres the server offers.
func (c *Client) Genres() ([]string, error) {
	var resp struct {
		Genres []string `json:"genres"`
	}
	if err := c.send(fiber.Get(c.url("/api/genres")), false, &resp); err != nil {
		return nil, err
	}
	return resp.Genres, nil
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}

func pageQuery(page, limit int) string {
	q := url.Values{}
	if page > 0 {
		q.Set("page", strconv.Itoa(page))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	return q.Encode()
}

// send runs the request and decodes a 2xx body into out. The agent is
// released by Bytes.
func (c *Client) send(agent *fiber.Agent, auth bool, out interface{}) error {
	if auth {
		token := c.Token()
		if token == "" {
			fiber.ReleaseAgent(agent)
			return ErrNotLoggedIn
		}
		agent.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	agent.Timeout(c.timeout)

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("request failed: %w", errors.Join(errs...))
	}

	if code < http.StatusOK || code >= http.StatusMultipleChoices {
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(body, &apiErr)
		if apiErr.Error == "" {
			apiErr.Error = http.StatusText(code)
		}
		return &APIError{Status: code, Message: apiErr.Error}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
