package middleware

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"bazaar_backend/internal/service"
	"bazaar_backend/pkg/utils/jwt"
)

// CheckListingEntitlement turns a seller without free slots away before the
// upload is parsed. Listings.Create checks again under the profile lock.
func CheckListingEntitlement(entitlements *service.Entitlements) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims := c.Locals("user").(*jwt.Claims)

		report, err := entitlements.Get(c.UserContext(), claims.UserID)
		if err != nil {
			log.Printf("Entitlement check failed for %s: %v", claims.UserID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"error": "Could not fetch subscription details",
			})
		}

		if !report.CanCreate() {
			message := "You have reached your product listing limit. Buy extra slots to list more."
			if !report.HasSubscription {
				message = "An active subscription is required to list products. See the packages page."
			}
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error":         message,
				"current_count": report.UsedProducts,
				"max_limit":     report.ProductLimit,
				"packages_url":  "/api/packages",
				"slots_url":     "/api/slots",
			})
		}

		return c.Next()
	}
}
