package auth

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/blog-service/internal/domain"
	"github.com/spec-kit/blog-service/internal/observability"
	apperrors "github.com/spec-kit/blog-service/pkg/util"
)

type middlewareFixture struct {
	app        *fiber.App
	tokens     *TokenManager
	handlerRun *bool
	principal  *Principal
}

func newMiddlewareFixture(t *testing.T) *middlewareFixture {
	t.Helper()

	keys, err := NewKeys([]byte("middleware-test-secret"))
	if err != nil {
		t.Fatalf("NewKeys failed: %v", err)
	}
	tokens := NewTokenManager(keys, time.Hour)
	mw := NewMiddleware(tokens, zap.NewNop(), observability.NewMetrics())

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"error": domainErr.Message})
		},
	})

	handlerRun := false
	var seen Principal
	record := func(c *fiber.Ctx) error {
		handlerRun = true
		seen, _ = PrincipalFromContext(c)
		return c.SendStatus(http.StatusOK)
	}

	app.Get("/protected", mw.Authenticate, record)
	app.Get("/admin", mw.Authenticate, mw.RequireAdmin, record)
	// Deliberately miswired: role gate without the authentication stage.
	app.Get("/misconfigured", mw.RequireAdmin, record)

	return &middlewareFixture{app: app, tokens: tokens, handlerRun: &handlerRun, principal: &seen}
}

func (f *middlewareFixture) request(t *testing.T, path, authHeader string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	resp, err := f.app.Test(req)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	return resp
}

func decodeErrorBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	var body map[string]string
	if err := json.Unmarshal(raw, &body); err != nil {
		t.Fatalf("rejection body is not JSON: %v (%s)", err, raw)
	}
	return body["error"]
}

func TestAuthenticate_RejectsBadCredentials(t *testing.T) {
	f := newMiddlewareFixture(t)

	cases := []struct {
		name   string
		header string
	}{
		{"no header", ""},
		{"no bearer prefix", "Token abc123"},
		{"empty token", "Bearer "},
		{"garbage token", "Bearer not.a.token"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			*f.handlerRun = false
			resp := f.request(t, "/protected", tc.header)

			if resp.StatusCode != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", resp.StatusCode)
			}
			if msg := decodeErrorBody(t, resp); msg == "" {
				t.Fatal("expected an error message in the rejection body")
			}
			if *f.handlerRun {
				t.Fatal("wrapped handler must never run on rejection")
			}
		})
	}
}

func TestAuthenticate_CaseInsensitiveScheme(t *testing.T) {
	f := newMiddlewareFixture(t)

	userID := uuid.New()
	token, _, err := f.tokens.Issue(userID, domain.RoleUser)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	resp := f.request(t, "/protected", "bearer "+token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for lowercase scheme, got %d", resp.StatusCode)
	}
}

func TestAuthenticate_AttachesPrincipal(t *testing.T) {
	f := newMiddlewareFixture(t)

	userID := uuid.New()
	token, _, err := f.tokens.Issue(userID, domain.RoleAdmin)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	resp := f.request(t, "/protected", "Bearer "+token)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !*f.handlerRun {
		t.Fatal("handler must run on success")
	}
	if f.principal.UserID != userID {
		t.Fatalf("principal user mismatch: got %s want %s", f.principal.UserID, userID)
	}
	if f.principal.Role != domain.RoleAdmin {
		t.Fatalf("principal role mismatch: got %s", f.principal.Role)
	}
}

func TestAuthenticate_ExpiredToken(t *testing.T) {
	f := newMiddlewareFixture(t)

	keys, _ := NewKeys([]byte("middleware-test-secret"))
	expiredIssuer := &TokenManager{keys: keys, ttl: -time.Hour}
	token, _, err := expiredIssuer.Issue(uuid.New(), domain.RoleAdmin)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	resp := f.request(t, "/protected", "Bearer "+token)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for expired token, got %d", resp.StatusCode)
	}
	if *f.handlerRun {
		t.Fatal("handler must not run for expired token")
	}
}

func TestRequireAdmin_RoleGate(t *testing.T) {
	f := newMiddlewareFixture(t)

	userToken, _, err := f.tokens.Issue(uuid.New(), domain.RoleUser)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}
	adminToken, _, err := f.tokens.Issue(uuid.New(), domain.RoleAdmin)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	resp := f.request(t, "/admin", "Bearer "+userToken)
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403 for User role, got %d", resp.StatusCode)
	}
	if msg := decodeErrorBody(t, resp); msg != "Forbidden: Admin access required" {
		t.Fatalf("unexpected forbidden message: %q", msg)
	}
	if *f.handlerRun {
		t.Fatal("handler must not run for insufficient role")
	}

	resp = f.request(t, "/admin", "Bearer "+adminToken)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for Admin role, got %d", resp.StatusCode)
	}
	if !*f.handlerRun {
		t.Fatal("handler must run for admin")
	}
}

func TestRequireAdmin_WithoutAuthStage(t *testing.T) {
	f := newMiddlewareFixture(t)

	token, _, err := f.tokens.Issue(uuid.New(), domain.RoleAdmin)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	// Even a valid admin token must be rejected: the gate trusts only the
	// identity context populated by the authentication stage.
	resp := f.request(t, "/misconfigured", "Bearer "+token)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for miswired gate, got %d", resp.StatusCode)
	}
	if *f.handlerRun {
		t.Fatal("handler must not run behind a miswired gate")
	}
}

func TestAuthenticate_Idempotent(t *testing.T) {
	f := newMiddlewareFixture(t)

	token, _, err := f.tokens.Issue(uuid.New(), domain.RoleUser)
	if err != nil {
		t.Fatalf("issue failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		resp := f.request(t, "/protected", "Bearer "+token)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("attempt %d: expected 200, got %d", i, resp.StatusCode)
		}
	}
}
