package middleware

import (
	"errors"
	"strings"

	"ems-backend/internal/core/domain"
	"ems-backend/internal/core/services"
	"ems-backend/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AuthMiddleware creates authentication middleware. Validation goes through
// the auth service so denylisted tokens are rejected, not just expired or
// forged ones.
func AuthMiddleware(authService *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := extractAccessToken(c)
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		claims, err := authService.CheckAccessToken(c.UserContext(), accessToken)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrTokenExpired):
				return response.Unauthorized(c, "Access token expired")
			case errors.Is(err, domain.ErrTokenRevoked):
				return response.Unauthorized(c, "Access token revoked")
			default:
				return response.Unauthorized(c, "Invalid access token")
			}
		}

		c.Locals("userID", claims.UserID)
		c.Locals("email", claims.Email)
		c.Locals("role", claims.Role)
		c.Locals("jti", claims.JTI())

		return c.Next()
	}
}

// RoleMiddleware creates role-based authorization middleware. Super admins
// pass every role check.
func RoleMiddleware(allowedRoles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, ok := c.Locals("role").(string)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}

		if role == "SUPER_ADMIN" {
			return c.Next()
		}

		for _, allowedRole := range allowedRoles {
			if role == allowedRole {
				return c.Next()
			}
		}

		return response.Forbidden(c, "You don't have permission to access this resource")
	}
}

// SuperAdminOnly middleware allows only the SUPER_ADMIN role
func SuperAdminOnly() fiber.Handler {
	return RoleMiddleware("SUPER_ADMIN")
}

// extractAccessToken reads the token from the cookie first, then the
// Authorization header
func extractAccessToken(c *fiber.Ctx) string {
	if token := c.Cookies("access_token"); token != "" {
		return token
	}

	authHeader := c.Get("Authorization")
	if authHeader != "" && strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}
