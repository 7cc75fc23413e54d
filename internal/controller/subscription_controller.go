package controller

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"bazaar_backend/internal/model"
	"bazaar_backend/pkg/email"
)

type CheckoutInput struct {
	PackageID uint `json:"package_id"`
}

type SlotPurchaseInput struct {
	SlotID   uint `json:"slot_id"`
	Quantity int  `json:"quantity"`
}

func listPackages(c *fiber.Ctx, includeInactive bool) error {
	packages, err := svc.Catalog.Packages(c.UserContext(), includeInactive)
	if err != nil {
		return respondError(c, err, "Could not fetch subscription packages")
	}
	return c.JSON(packages)
}

// ListPackages returns active packages with their current pricing.
func ListPackages(c *fiber.Ctx) error {
	return listPackages(c, false)
}

func ListAllPackages(c *fiber.Ctx) error {
	return listPackages(c, true)
}

func savePackage(c *fiber.Ctx, id uint) error {
	pkg := new(model.SubscriptionPackage)
	if err := c.BodyParser(pkg); err != nil {
		return badRequest(c, "Invalid input")
	}
	pkg.ID = id

	if err := svc.Catalog.SavePackage(c.UserContext(), pkg); err != nil {
		return respondError(c, err, "Could not save package")
	}

	status := fiber.StatusOK
	if id == 0 {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(pkg)
}

func CreatePackage(c *fiber.Ctx) error {
	return savePackage(c, 0)
}

func UpdatePackage(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return badRequest(c, "Invalid package ID")
	}
	return savePackage(c, id)
}

func DeletePackage(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return badRequest(c, "Invalid package ID")
	}
	if err := svc.Catalog.DeletePackage(c.UserContext(), id); err != nil {
		return respondError(c, err, "Could not delete package")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func listSlots(c *fiber.Ctx, includeInactive bool) error {
	slots, err := svc.Catalog.Slots(c.UserContext(), includeInactive)
	if err != nil {
		return respondError(c, err, "Could not fetch product slots")
	}
	return c.JSON(slots)
}

func ListSlots(c *fiber.Ctx) error {
	return listSlots(c, false)
}

func ListAllSlots(c *fiber.Ctx) error {
	return listSlots(c, true)
}

func saveSlot(c *fiber.Ctx, id uint) error {
	slot := new(model.ProductSlot)
	if err := c.BodyParser(slot); err != nil {
		return badRequest(c, "Invalid input")
	}
	slot.ID = id

	if err := svc.Catalog.SaveSlot(c.UserContext(), slot); err != nil {
		return respondError(c, err, "Could not save slot")
	}

	status := fiber.StatusOK
	if id == 0 {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(slot)
}

func CreateSlot(c *fiber.Ctx) error {
	return saveSlot(c, 0)
}

func UpdateSlot(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return badRequest(c, "Invalid slot ID")
	}
	return saveSlot(c, id)
}

func DeleteSlot(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return badRequest(c, "Invalid slot ID")
	}
	if err := svc.Catalog.DeleteSlot(c.UserContext(), id); err != nil {
		return respondError(c, err, "Could not delete slot")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func Checkout(c *fiber.Ctx) error {
	claims := currentUser(c)
	input := new(CheckoutInput)
	if err := c.BodyParser(input); err != nil || input.PackageID == 0 {
		return badRequest(c, "package_id is required")
	}

	sub, err := svc.Billing.CheckoutSubscription(c.UserContext(), claims.UserID, input.PackageID)
	if err != nil {
		return respondError(c, err, "Could not complete checkout")
	}

	to := claims.Email
	data := subscriptionEmail(sub, displayName(c.UserContext(), claims.UserID))
	email.Go("subscription started", func(ctx context.Context, s *email.EmailService) error {
		return s.SendSubscriptionStartedEmail(ctx, to, data)
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":      "Subscription activated",
		"subscription": sub,
	})
}

// displayName is best effort; the greeting omits the name when it is empty.
func displayName(ctx context.Context, userID string) string {
	profile, err := svc.Accounts.Profile(ctx, userID)
	if err != nil {
		return ""
	}
	return profile.FullName
}

func subscriptionEmail(sub *model.Subscription, name string) email.SubscriptionEmailData {
	data := email.SubscriptionEmailData{
		Name:      name,
		Price:     sub.PricePaid,
		ExpiresAt: sub.ExpiresAt,
	}
	if sub.Package != nil {
		data.PlanName = sub.Package.Name
		data.DurationWeeks = sub.Package.DurationWeeks
		data.ProductLimit = sub.Package.ProductLimit
	}
	return data
}

func GetMySubscriptions(c *fiber.Ctx) error {
	claims := currentUser(c)

	subs, err := svc.Billing.Subscriptions(c.UserContext(), claims.UserID)
	if err != nil {
		return respondError(c, err, "Could not fetch subscriptions")
	}
	return c.JSON(subs)
}

// CreateProductSlot buys slot_count * quantity extra listing credits.
func CreateProductSlot(c *fiber.Ctx) error {
	claims := currentUser(c)
	input := new(SlotPurchaseInput)
	if err := c.BodyParser(input); err != nil || input.SlotID == 0 {
		return badRequest(c, "slot_id is required")
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}

	purchase, err := svc.Billing.PurchaseSlots(c.UserContext(), claims.UserID, input.SlotID, input.Quantity)
	if err != nil {
		return respondError(c, err, "Could not purchase slots")
	}

	return c.Status(fiber.StatusCreated).JSON(purchase)
}

func ListMyTransactions(c *fiber.Ctx) error {
	claims := currentUser(c)
	page := pageFrom(c)

	txns, total, err := svc.Billing.Transactions(c.UserContext(), claims.UserID, page)
	if err != nil {
		return respondError(c, err, "Could not fetch transactions")
	}
	return c.JSON(paged(txns, total, page))
}

func ListCategories(c *fiber.Ctx) error {
	categories, err := svc.Catalog.Categories(c.UserContext())
	if err != nil {
		return respondError(c, err, "Could not fetch categories")
	}
	return c.JSON(categories)
}

func CreateCategory(c *fiber.Ctx) error {
	var input struct {
		Name string `json:"name"`
	}
	if err := c.BodyParser(&input); err != nil {
		return badRequest(c, "Invalid input")
	}

	category, err := svc.Catalog.CreateCategory(c.UserContext(), input.Name)
	if err != nil {
		return respondError(c, err, "Could not create category")
	}
	return c.Status(fiber.StatusCreated).JSON(category)
}

func DeleteCategory(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return badRequest(c, "Invalid category ID")
	}
	if err := svc.Catalog.DeleteCategory(c.UserContext(), id); err != nil {
		return respondError(c, err, "Could not delete category")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
