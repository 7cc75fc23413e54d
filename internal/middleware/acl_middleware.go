package middleware

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"bazaar_backend/internal/service"
	"bazaar_backend/pkg/utils/jwt"
)

func forbidden(c *fiber.Ctx) error {
	return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
		"error": "You don't have permission to modify this product",
	})
}

// CheckProductOwnership lets the listing's seller through, and admins for
// everything but edits. Admin rights come from the profile row, not the token.
// The product and the resolved service.Actor are stored in Locals.
func CheckProductOwnership(listings *service.Listings, accounts *service.Accounts, adminAllowed bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := c.Locals("user").(*jwt.Claims)
		productID := c.Params("id")

		product, err := listings.Get(c.UserContext(), productID)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
					"error": "Product not found",
				})
			}
			log.Printf("Ownership check failed for product %s: %v", productID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not fetch product",
			})
		}

		actor := service.Actor{ID: claims.UserID}
		if product.UserID != claims.UserID {
			if !adminAllowed {
				return forbidden(c)
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
				return forbidden(c)
			}
			actor.Admin = true
		}

		c.Locals("product", product)
		c.Locals("actor", actor)
		return c.Next()
	}
}

// CheckNotBanned rejects writes from users with an active ban.
func CheckNotBanned(moderation *service.Moderation) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := c.Locals("user").(*jwt.Claims)

		status, err := moderation.Status(c.UserContext(), claims.UserID)
		if err != nil {
			if errors.Is(err, service.ErrNotFound) {
				return unauthorized(c)
			}
			log.Printf("Ban check failed for %s: %v", claims.UserID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not verify account status",
			})
		}

		if status.Banned {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":        service.ErrBanned.Error(),
				"banned_until": status.BannedUntil,
			})
		}

		return c.Next()
	}
}
