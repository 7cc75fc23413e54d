package controller

import (
	"github.com/gofiber/fiber/v2"
)

func GetAdminStats(c *fiber.Ctx) error {
	stats, err := svc.Stats.Admin(c.UserContext())
	if err != nil {
		return respondError(c, err, "Could not fetch stats")
	}
	return c.JSON(stats)
}

// GetDashboardStats is the seller's own dashboard.
func GetDashboardStats(c *fiber.Ctx) error {
	claims := currentUser(c)

	stats, err := svc.Stats.Seller(c.UserContext(), claims.UserID)
	if err != nil {
		return respondError(c, err, "Could not fetch stats")
	}
	return c.JSON(stats)
}
