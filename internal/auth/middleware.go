package auth

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/blog-service/internal/domain"
	"github.com/spec-kit/blog-service/internal/observability"
	apperrors "github.com/spec-kit/blog-service/pkg/util"
)

const principalKey = "auth_principal"

// Principal is the per-request identity attached after successful
// authentication. It lives only for the duration of one request.
type Principal struct {
	UserID uuid.UUID
	Role   domain.Role
}

// Middleware authenticates bearer tokens and gates routes by role.
type Middleware struct {
	tokens  *TokenManager
	logger  *zap.Logger
	metrics *observability.Metrics
}

// NewMiddleware constructs the middleware around a shared token manager.
func NewMiddleware(tokens *TokenManager, logger *zap.Logger, metrics *observability.Metrics) *Middleware {
	return &Middleware{tokens: tokens, logger: logger, metrics: metrics}
}

// Authenticate extracts and verifies the bearer credential. On success the
// principal is stored in the request context and the wrapped handler runs;
// any failure short-circuits with 401 before the handler is reached.
func (m *Middleware) Authenticate(c *fiber.Ctx) error {
	token, err := extractBearerToken(c.Get(fiber.HeaderAuthorization))
	if err != nil {
		m.reject(c, "missing_or_malformed_credential")
		return apperrors.NewUnauthorized("Missing Authorization header")
	}

	claims, err := m.tokens.Verify(token)
	if err != nil {
		m.reject(c, failureKind(err))
		return apperrors.NewUnauthorized("Invalid token")
	}

	userID, err := claims.UserID()
	if err != nil {
		m.reject(c, "malformed_payload")
		return apperrors.NewUnauthorized("Invalid token")
	}

	c.Locals(principalKey, Principal{UserID: userID, Role: claims.Role})
	return c.Next()
}

// RequireAdmin gates a route to the Admin role. It must be composed after
// Authenticate; a request arriving without a principal indicates a
// misconfigured route and is rejected, never silently allowed.
func (m *Middleware) RequireAdmin(c *fiber.Ctx) error {
	principal, ok := PrincipalFromContext(c)
	if !ok {
		m.logger.Error("admin gate reached without authentication middleware",
			zap.String("path", c.Path()))
		m.reject(c, "missing_identity_context")
		return apperrors.NewUnauthorized("Missing Authorization header")
	}

	if principal.Role != domain.RoleAdmin {
		m.reject(c, "insufficient_role")
		return apperrors.NewForbidden("Forbidden: Admin access required")
	}
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated identity, if any.
func PrincipalFromContext(c *fiber.Ctx) (Principal, bool) {
	principal, ok := c.Locals(principalKey).(Principal)
	return principal, ok
}

func (m *Middleware) reject(c *fiber.Ctx, kind string) {
	if m.metrics != nil {
		m.metrics.RecordAuthFailure(kind)
	}
	if m.logger != nil {
		m.logger.Debug("request rejected",
			zap.String("kind", kind),
			zap.String("path", c.Path()),
			zap.String("method", c.Method()))
	}
}

func extractBearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("invalid authorization header")
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", errors.New("empty bearer token")
	}
	return token, nil
}

func failureKind(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenSignatureInvalid):
		return "invalid_signature"
	default:
		return "malformed_payload"
	}
}
