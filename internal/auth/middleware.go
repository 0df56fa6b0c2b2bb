package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	apperrors "github.com/spec-kit/workorder-engine/pkg/util"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller resolved from a bearer token.
type Principal struct {
	Actor    Actor
	TenantID string
}

// Middleware validates bearer tokens and attaches principals.
type Middleware struct {
	tokens *TokenManager
}

// NewMiddleware constructs middleware.
func NewMiddleware(tokens *TokenManager) *Middleware {
	return &Middleware{tokens: tokens}
}

// Handle enforces authentication for protected routes.
func (m *Middleware) Handle(c *fiber.Ctx) error {
	token, err := bearerToken(c)
	if err != nil {
		return err
	}

	claims, err := m.tokens.ParseToken(token)
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	c.Locals(principalKey, &Principal{
		Actor:    Actor{ID: claims.ActorID, Role: claims.Role},
		TenantID: claims.TenantID,
	})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated caller.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}

// CronMiddleware authenticates scheduled-job callers via the shared secret.
type CronMiddleware struct {
	secretHash string
}

// NewCronMiddleware constructs middleware around the bcrypt-hashed secret.
func NewCronMiddleware(secretHash string) *CronMiddleware {
	return &CronMiddleware{secretHash: secretHash}
}

// Handle enforces the shared-secret bearer credential on job trigger routes.
func (m *CronMiddleware) Handle(c *fiber.Ctx) error {
	if m.secretHash == "" {
		return apperrors.NewForbidden("scheduled jobs disabled")
	}
	token, err := bearerToken(c)
	if err != nil {
		return err
	}
	if err := CompareSecret(m.secretHash, token); err != nil {
		return apperrors.NewUnauthorized("invalid job credential")
	}
	return c.Next()
}

func bearerToken(c *fiber.Ctx) (string, error) {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return "", apperrors.NewUnauthorized("missing authorization header")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", apperrors.NewUnauthorized("invalid authorization header")
	}
	return parts[1], nil
}
