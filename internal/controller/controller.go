package controller

import (
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"bazaar_backend/internal/service"
	"bazaar_backend/pkg/utils/jwt"
)

// Services are the handlers' dependencies, set once at boot by Init.
type Services struct {
	Accounts     *service.Accounts
	Entitlements *service.Entitlements
	Listings     *service.Listings
	Moderation   *service.Moderation
	Catalog      *service.Catalog
	Billing      *service.Billing
	Payouts      *service.Payouts
	Messages     *service.Messages
	Settings     *service.Settings
	Stats        *service.Stats
}

var svc *Services

func Init(s *Services) {
	svc = s
}

func currentUser(c *fiber.Ctx) *jwt.Claims {
	return c.Locals("user").(*jwt.Claims)
}

// currentActor is resolved by CheckProductOwnership. Without it the caller gets
// no admin rights, whatever the token claims.
func currentActor(c *fiber.Ctx) service.Actor {
	if actor, ok := c.Locals("actor").(service.Actor); ok {
		return actor
	}
	return service.Actor{ID: currentUser(c).UserID}
}

func pageFrom(c *fiber.Ctx) service.Page {
	return service.Page{Number: c.QueryInt("page", 1), Size: c.QueryInt("limit", 20)}
}

func paramUint(c *fiber.Ctx, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Params(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

func badRequest(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error": msg,
	})
}

// respondError maps service errors onto status codes. Anything unrecognised is
// logged and reported as fallback with a 500.
func respondError(c *fiber.Ctx, err error, fallback string) error {
	var ve *service.ValidationError
	switch {
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Validation failed",
			"fields": ve.Fields,
		})
	case errors.Is(err, service.ErrInvalidCredentials):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Invalid credentials",
		})
	case errors.Is(err, service.ErrNoEntitlement):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":        "No product slots available. Buy a package or extra slots to list more products.",
			"packages_url": "/api/packages",
			"slots_url":    "/api/slots",
		})
	case errors.Is(err, service.ErrBanned), errors.Is(err, service.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, service.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": err.Error(),
		})
	case errors.Is(err, service.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	}

	log.Printf("%s: %v", fallback, err)
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"error": fallback,
	})
}

// paged is the list envelope shared by every paginated endpoint.
func paged(items interface{}, total int64, page service.Page) fiber.Map {
	page = page.Normalize()
	return fiber.Map{
		"data":  items,
		"total": total,
		"page":  page.Number,
		"limit": page.Size,
	}
}
