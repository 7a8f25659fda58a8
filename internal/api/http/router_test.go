package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/blog-service/internal/api/http"
	"github.com/spec-kit/blog-service/internal/api/http/handlers"
	"github.com/spec-kit/blog-service/internal/auth"
	"github.com/spec-kit/blog-service/internal/config"
	"github.com/spec-kit/blog-service/internal/domain"
	"github.com/spec-kit/blog-service/internal/events"
	"github.com/spec-kit/blog-service/internal/observability"
	"github.com/spec-kit/blog-service/internal/persistence"
	"github.com/spec-kit/blog-service/internal/ratelimit"
	"github.com/spec-kit/blog-service/internal/repository"
	"github.com/spec-kit/blog-service/internal/service"
)

const testSecret = "router-test-secret"

// --- in-memory repositories ---

type memoryUserRepo struct {
	users map[uuid.UUID]*domain.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[uuid.UUID]*domain.User)}
}

func (r *memoryUserRepo) Create(_ context.Context, user *domain.User) error {
	for _, existing := range r.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memoryUserRepo) Update(_ context.Context, user *domain.User) error {
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *memoryUserRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (r *memoryUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	for _, user := range r.users {
		if user.Username == username {
			clone := *user
			return &clone, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memoryUserRepo) List(_ context.Context) ([]domain.User, error) {
	out := make([]domain.User, 0, len(r.users))
	for _, user := range r.users {
		out = append(out, *user)
	}
	return out, nil
}

func (r *memoryUserRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	return nil
}

type memoryPostRepo struct {
	posts map[uuid.UUID]*domain.Post
	users *memoryUserRepo
}

func newMemoryPostRepo(users *memoryUserRepo) *memoryPostRepo {
	return &memoryPostRepo{posts: make(map[uuid.UUID]*domain.Post), users: users}
}

func (r *memoryPostRepo) Create(_ context.Context, post *domain.Post) error {
	clone := *post
	r.posts[post.ID] = &clone
	return nil
}

func (r *memoryPostRepo) Update(_ context.Context, post *domain.Post) error {
	if _, ok := r.posts[post.ID]; !ok {
		return pgx.ErrNoRows
	}
	clone := *post
	r.posts[post.ID] = &clone
	return nil
}

func (r *memoryPostRepo) withAuthor(post *domain.Post) (*domain.PostWithAuthor, error) {
	author, ok := r.users.users[post.UserID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &domain.PostWithAuthor{
		Post: *post,
		Author: domain.Author{
			ID:       author.ID,
			Username: author.Username,
			Email:    author.Email,
		},
	}, nil
}

func (r *memoryPostRepo) GetByID(_ context.Context, id uuid.UUID) (*domain.PostWithAuthor, error) {
	post, ok := r.posts[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return r.withAuthor(post)
}

func (r *memoryPostRepo) List(_ context.Context) ([]domain.PostWithAuthor, error) {
	out := make([]domain.PostWithAuthor, 0, len(r.posts))
	for _, post := range r.posts {
		joined, err := r.withAuthor(post)
		if err != nil {
			return nil, err
		}
		out = append(out, *joined)
	}
	return out, nil
}

func (r *memoryPostRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := r.posts[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.posts, id)
	return nil
}

// --- fixture ---

type apiFixture struct {
	app   *fiber.App
	users *memoryUserRepo
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()

	keys, err := auth.NewKeys([]byte(testSecret))
	if err != nil {
		t.Fatalf("NewKeys failed: %v", err)
	}
	tokens := auth.NewTokenManager(keys, time.Hour)

	hasher, err := auth.NewPasswordHasher(auth.Argon2Params{Time: 1, Memory: 8 * 1024, Threads: 2})
	if err != nil {
		t.Fatalf("NewPasswordHasher failed: %v", err)
	}

	userRepo := newMemoryUserRepo()
	postRepo := newMemoryPostRepo(userRepo)
	dispatcher := events.NewInMemoryDispatcher(logger)

	authService := service.NewAuthService(userRepo, hasher, tokens, dispatcher, logger)
	userService := service.NewUserService(userRepo, hasher, dispatcher)
	postService := service.NewPostService(postRepo, dispatcher)

	cfg := &config.Config{}
	cfg.App.RequestTimeoutSeconds = 5
	cfg.CORS.AllowOrigins = "*"

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, cfg, logger, metrics)
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:       handlers.NewHealthHandler("test", "dev", &persistence.Postgres{}, &persistence.Redis{}),
		Auth:         handlers.NewAuthHandler(authService),
		Users:        handlers.NewUsersHandler(userService),
		Posts:        handlers.NewPostsHandler(postService),
		Profile:      handlers.NewProfileHandler(userService),
		Middleware:   auth.NewMiddleware(tokens, logger, metrics),
		LoginLimiter: ratelimit.NewLimiter(nil, 0, 0, logger),
	})

	return &apiFixture{app: app, users: userRepo}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, payload any) *http.Response {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal payload: %v", err)
		}
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := f.app.Test(req, 5000)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	return resp
}

func decodeJSON(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		t.Fatalf("decode body %s: %v", raw, err)
	}
}

// expiredToken signs a token whose exp is already in the past, standing in
// for a token that aged out in the wild.
func expiredToken(t *testing.T, role domain.Role) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":  uuid.NewString(),
		"role": string(role),
		"exp":  time.Now().Add(-time.Hour).Unix(),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign expired token: %v", err)
	}
	return signed
}

// --- scenarios ---

func TestEndToEnd_RegisterLoginAndBrowse(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "Str0ng!Pass",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", resp.StatusCode)
	}
	var registered struct {
		ID       uuid.UUID `json:"id"`
		Username string    `json:"username"`
		Role     string    `json:"role"`
	}
	decodeJSON(t, resp, &registered)
	if registered.Role != "User" {
		t.Fatalf("expected User role, got %q", registered.Role)
	}

	resp = f.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"username": "alice",
		"password": "Str0ng!Pass",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login: expected 200, got %d", resp.StatusCode)
	}
	var loginBody struct {
		Token string `json:"token"`
	}
	decodeJSON(t, resp, &loginBody)
	if segments := strings.Split(loginBody.Token, "."); len(segments) != 3 {
		t.Fatalf("token must have three segments, got %d", len(segments))
	}

	resp = f.do(t, http.MethodGet, "/api/posts", loginBody.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list posts: expected 200, got %d", resp.StatusCode)
	}

	resp = f.do(t, http.MethodPost, "/api/posts", loginBody.Token, map[string]any{
		"title":     "Hello",
		"content":   "First post.",
		"published": true,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create post: expected 201, got %d", resp.StatusCode)
	}
	var created struct {
		ID uuid.UUID `json:"id"`
	}
	decodeJSON(t, resp, &created)

	resp = f.do(t, http.MethodGet, "/api/posts/"+created.ID.String(), loginBody.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get post: expected 200, got %d", resp.StatusCode)
	}
	var fetched struct {
		Title  string `json:"title"`
		Author struct {
			Username string `json:"username"`
		} `json:"author"`
	}
	decodeJSON(t, resp, &fetched)
	if fetched.Author.Username != "alice" {
		t.Fatalf("post author mismatch: %q", fetched.Author.Username)
	}
}

func TestEndToEnd_ExpiredTokenRejected(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodGet, "/api/posts", expiredToken(t, domain.RoleUser), nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", resp.StatusCode)
	}
}

func TestEndToEnd_MissingTokenRejected(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodGet, "/api/posts", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 without credential, got %d", resp.StatusCode)
	}
	var body struct {
		Error string `json:"error"`
	}
	decodeJSON(t, resp, &body)
	if body.Error == "" {
		t.Fatal("rejection body must carry an error message")
	}
}

func TestEndToEnd_AdminGate(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": "bob",
		"email":    "bob@example.com",
		"password": "Str0ng!Pass",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register: expected 201, got %d", resp.StatusCode)
	}

	resp = f.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"username": "bob",
		"password": "Str0ng!Pass",
	})
	var loginBody struct {
		Token string `json:"token"`
	}
	decodeJSON(t, resp, &loginBody)

	resp = f.do(t, http.MethodGet, "/api/users", loginBody.Token, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for User role on admin route, got %d", resp.StatusCode)
	}
	var body struct {
		Error string `json:"error"`
	}
	decodeJSON(t, resp, &body)
	if body.Error != "Forbidden: Admin access required" {
		t.Fatalf("unexpected forbidden message: %q", body.Error)
	}

	// Promote bob and log in again: the fresh token carries the Admin role.
	for _, user := range f.users.users {
		if user.Username == "bob" {
			user.Role = domain.RoleAdmin
		}
	}
	resp = f.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"username": "bob",
		"password": "Str0ng!Pass",
	})
	decodeJSON(t, resp, &loginBody)

	resp = f.do(t, http.MethodGet, "/api/users", loginBody.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for Admin role, got %d", resp.StatusCode)
	}
}

func TestEndToEnd_ProfileRoundTrip(t *testing.T) {
	f := newAPIFixture(t)

	f.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": "carol",
		"email":    "carol@example.com",
		"password": "Str0ng!Pass",
	})
	resp := f.do(t, http.MethodPost, "/api/login", "", map[string]string{
		"username": "carol",
		"password": "Str0ng!Pass",
	})
	var loginBody struct {
		Token string `json:"token"`
	}
	decodeJSON(t, resp, &loginBody)

	resp = f.do(t, http.MethodGet, "/api/profile", loginBody.Token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("get profile: expected 200, got %d", resp.StatusCode)
	}
	var profile struct {
		Username string `json:"username"`
		Email    string `json:"email"`
	}
	decodeJSON(t, resp, &profile)
	if profile.Username != "carol" {
		t.Fatalf("profile username mismatch: %q", profile.Username)
	}

	resp = f.do(t, http.MethodPatch, "/api/profile", loginBody.Token, map[string]string{
		"email": "carol@new.example.com",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("patch profile: expected 200, got %d", resp.StatusCode)
	}
	decodeJSON(t, resp, &profile)
	if profile.Email != "carol@new.example.com" {
		t.Fatalf("profile email not updated: %q", profile.Email)
	}
}

func TestEndToEnd_ValidationErrors(t *testing.T) {
	f := newAPIFixture(t)

	resp := f.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": "dave",
		"email":    "dave@example.com",
		"password": "weak",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for weak password, got %d", resp.StatusCode)
	}

	f.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": "dave",
		"email":    "dave@example.com",
		"password": "Str0ng!Pass",
	})
	resp = f.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"username": "dave",
		"email":    "other@example.com",
		"password": "Str0ng!Pass",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate username, got %d", resp.StatusCode)
	}
}
