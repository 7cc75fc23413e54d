package middleware

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	jwtware "github.com/gofiber/jwt/v3"
	gojwt "github.com/golang-jwt/jwt/v4"

	"bazaar_backend/internal/service"
	"bazaar_backend/pkg/utils/jwt"
)

// AuthMiddleware verifies the bearer token and stores its *jwt.Claims under Locals("user").
func AuthMiddleware() fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwt.SigningKey(),
		Claims:     &jwt.Claims{},
		ContextKey: "token",
		SuccessHandler: func(c *fiber.Ctx) error {
			token, ok := c.Locals("token").(*gojwt.Token)
			if !ok {
				return unauthorized(c)
			}
			claims, ok := token.Claims.(*jwt.Claims)
			if !ok || claims.UserID == "" {
				return unauthorized(c)
			}
			c.Locals("user", claims)
			return c.Next()
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return unauthorized(c)
		},
	})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error": "Invalid or expired token",
	})
}

// AdminOnly must run after AuthMiddleware. The role is read from the profile,
// not the token, so a demotion takes effect immediately.
func AdminOnly(accounts *service.Accounts) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, ok := c.Locals("user").(*jwt.Claims)
		if !ok {
			return unauthorized(c)
		}
		profile, err := accounts.Profile(c.UserContext(), claims.UserID)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return unauthorized(c)
			}
			log.Printf("Admin check failed for %s: %v", claims.UserID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not verify permissions",
			})
		}
		if !profile.IsAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Admin access required",
			})
		}
		c.Locals("profile", profile)
		return c.Next()
	}
}
