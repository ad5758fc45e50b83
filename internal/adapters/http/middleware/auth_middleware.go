package middleware

import (
	"errors"
	"strings"

	"unem-umt/internal/config"
	"unem-umt/internal/core/domain"
	"unem-umt/internal/pkg/jwt"
	"unem-umt/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// Locals keys set by AuthMiddleware
const (
	LocalUserID   = "userID"
	LocalUsername = "username"
	LocalEmail    = "email"
	LocalRoles    = "roles"
)

// extractToken reads the access token from the cookie or the Authorization header
func extractToken(c *fiber.Ctx) string {
	if token := c.Cookies("access_token"); token != "" {
		return token
	}
	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimPrefix(authHeader, "Bearer ")
	}
	return ""
}

func setClaims(c *fiber.Ctx, claims *jwt.Claims) {
	c.Locals(LocalUserID, claims.UserID)
	c.Locals(LocalUsername, claims.Username)
	c.Locals(LocalEmail, claims.Email)
	c.Locals(LocalRoles, claims.Roles)
}

// AuthMiddleware creates authentication middleware
func AuthMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		accessToken := extractToken(c)
		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		setClaims(c, claims)
		return c.Next()
	}
}

// OptionalAuth middleware - doesn't require auth but sets user info if token present
func OptionalAuth(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if accessToken := extractToken(c); accessToken != "" {
			if claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret); err == nil {
				setClaims(c, claims)
			}
		}
		return c.Next()
	}
}

// RequireRoles lets through users holding one of roles, or Administrator.
// Others get 403 with message.
func RequireRoles(message string, roles ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		held, ok := c.Locals(LocalRoles).([]string)
		if !ok {
			return response.Unauthorized(c, "Unauthorized")
		}
		if !domain.HasAnyRole(held, roles...) {
			return response.Forbidden(c, message)
		}
		return c.Next()
	}
}

// AdminOnly lets through System Managers and Administrators
func AdminOnly(message string) fiber.Handler {
	return RequireRoles(message, domain.RoleSystemManager)
}

// GetUserID returns the authenticated user's ID, 0 when absent
func GetUserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(LocalUserID).(uint)
	return id
}

// GetUsername returns the authenticated user's name
func GetUsername(c *fiber.Ctx) string {
	name, _ := c.Locals(LocalUsername).(string)
	return name
}

// GetEmail returns the authenticated user's email
func GetEmail(c *fiber.Ctx) string {
	email, _ := c.Locals(LocalEmail).(string)
	return email
}

// GetRoles returns the authenticated user's roles
func GetRoles(c *fiber.Ctx) []string {
	roles, _ := c.Locals(LocalRoles).([]string)
	return roles
}
