package middleware

import (
	"strings"

	"kinwatch/internal/delivery/api/response"
	deliverycontext "kinwatch/internal/delivery/context"
	"kinwatch/internal/domain/service"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const (
	ctxKeyUserID = "userID"
	ctxKeyRoles  = "roles"
)

// AuthMiddleware provides middleware for JWT authentication and authorization.
type AuthMiddleware struct {
	tokenSvc service.TokenService
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenSvc service.TokenService) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc}
}

// Authenticate validates the bearer access token and exposes its subject and
// roles to handlers. The subject also becomes the audit actor.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
		if authHeader == "" {
			return response.Unauthorized(c, "MISSING_TOKEN", "Authorization header is missing")
		}

		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || tokenString == "" {
			return response.Unauthorized(c, "INVALID_TOKEN_FORMAT", "Invalid token format, must be Bearer token")
		}

		claims, err := m.tokenSvc.ValidateToken(tokenString)
		if err != nil {
			return response.Unauthorized(c, "INVALID_TOKEN", "Invalid or expired token")
		}

		c.Set(ctxKeyUserID, claims.UserID)
		c.Set(ctxKeyRoles, claims.Roles)

		ctx := deliverycontext.WithActor(c.Request().Context(), claims.UserID.String())
		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}

// RequireRole rejects callers without role. Use it after Authenticate.
func (m *AuthMiddleware) RequireRole(role string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			roles, ok := GetRoles(c)
			if !ok {
				return response.Forbidden(c, "FORBIDDEN", "Permission denied: role information missing")
			}

			claims := service.Claims{Roles: roles}
			if !claims.HasRole(role) {
				return response.Forbidden(c, "FORBIDDEN", "Permission denied: require '"+role+"' role")
			}

			return next(c)
		}
	}
}

// GetUserID returns the authenticated user's ID.
func GetUserID(c echo.Context) (uuid.UUID, bool) {
	userID, ok := c.Get(ctxKeyUserID).(uuid.UUID)

	return userID, ok && userID != uuid.Nil
}

// GetRoles returns the authenticated user's roles.
func GetRoles(c echo.Context) ([]string, bool) {
	roles, ok := c.Get(ctxKeyRoles).([]string)

	return roles, ok
}
