package controller

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"bazaar_backend/internal/model"
	"bazaar_backend/internal/service"
	"bazaar_backend/pkg/email"
)

type ProductUpdateInput struct {
	Title             *string              `json:"title"`
	Description       *string              `json:"description"`
	Price             *float64             `json:"price"`
	CategoryID        *uint                `json:"category_id"`
	Tags              *[]string            `json:"tags"`
	Status            *model.ProductStatus `json:"status"`
	DiscountPrice     *float64             `json:"discount_price"`
	DiscountStartDate *time.Time           `json:"discount_start_date"`
	DiscountEndDate   *time.Time           `json:"discount_end_date"`
	ClearDiscount     bool                 `json:"clear_discount"`
}

func views(products []model.Product) []service.ProductView {
	out := make([]service.ProductView, len(products))
	for i := range products {
		out[i] = svc.Listings.View(&products[i])
	}
	return out
}

func ListProducts(c *fiber.Ctx) error {
	page := pageFrom(c)
	products, total, err := svc.Listings.List(c.UserContext(), service.ProductFilter{
		CategoryID: uint(c.QueryInt("category", 0)),
		Page:       page,
	})
	if err != nil {
		return respondError(c, err, "Could not fetch products")
	}
	return c.JSON(paged(views(products), total, page))
}

// GetProduct hides listings the seller took down; expired and sold ones are
// returned with their state.
func GetProduct(c *fiber.Ctx) error {
	product, err := svc.Listings.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not fetch product")
	}
	if product.Status == model.ProductStatusHidden {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Product not found",
		})
	}
	return c.JSON(svc.Listings.View(product))
}

func ListMyProducts(c *fiber.Ctx) error {
	claims := currentUser(c)
	page := pageFrom(c)

	products, total, err := svc.Listings.Mine(c.UserContext(), claims.UserID, page)
	if err != nil {
		return respondError(c, err, "Could not fetch products")
	}
	return c.JSON(paged(views(products), total, page))
}

// parseProductForm reads the text fields of the create form. Malformed numbers
// and dates are reported per field.
func parseProductForm(c *fiber.Ctx) (service.ProductInput, error) {
	v := &service.ValidationError{}
	in := service.ProductInput{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
	}

	if raw := c.FormValue("price"); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			v.Add("price", "price must be a number")
		}
		in.Price = price
	}
	if raw := c.FormValue("category_id"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			v.Add("category_id", "category_id must be a number")
		}
		in.CategoryID = uint(id)
	}
	if raw := c.FormValue("tags"); raw != "" {
		in.Tags = strings.Split(raw, ",")
	}
	if raw := c.FormValue("discount_price"); raw != "" {
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			v.Add("discount_price", "discount_price must be a number")
		} else {
			in.DiscountPrice = &price
		}
	}
	for field, dst := range map[string]**time.Time{
		"discount_start_date": &in.DiscountStartDate,
		"discount_end_date":   &in.DiscountEndDate,
	} {
		raw := c.FormValue(field)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			v.Add(field, "must be an RFC 3339 timestamp")
			continue
		}
		*dst = &t
	}
	return in, v.Err()
}

func CreateProduct(c *fiber.Ctx) error {
	claims := currentUser(c)

	input, err := parseProductForm(c)
	if err != nil {
		return respondError(c, err, "Invalid input")
	}
	uploads, err := readUploads(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	product, err := svc.Listings.Create(c.UserContext(), claims.UserID, input, uploads)
	if err != nil {
		return respondError(c, err, "Could not create product")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Product created successfully",
		"product": svc.Listings.View(product),
	})
}

func UpdateProduct(c *fiber.Ctx) error {
	input := new(ProductUpdateInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid input")
	}

	product, err := svc.Listings.Update(c.UserContext(), currentActor(c), c.Params("id"), service.ProductPatch{
		Title:             input.Title,
		Description:       input.Description,
		Price:             input.Price,
		CategoryID:        input.CategoryID,
		Tags:              input.Tags,
		Status:            input.Status,
		DiscountPrice:     input.DiscountPrice,
		DiscountStartDate: input.DiscountStartDate,
		DiscountEndDate:   input.DiscountEndDate,
		ClearDiscount:     input.ClearDiscount,
	})
	if err != nil {
		return respondError(c, err, "Could not update product")
	}

	return c.JSON(fiber.Map{
		"message": "Product updated successfully",
		"product": svc.Listings.View(product),
	})
}

func DeleteProduct(c *fiber.Ctx) error {
	if err := svc.Listings.Delete(c.UserContext(), currentActor(c), c.Params("id")); err != nil {
		return respondError(c, err, "Could not delete product")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// PurchaseProduct completes a simulated order. The buyer gets the thank-you text
// and a confirmation email; the notification list is told about the sale.
func PurchaseProduct(c *fiber.Ctx) error {
	claims := currentUser(c)
	ctx := c.UserContext()

	txn, err := svc.Billing.PurchaseProduct(ctx, claims.UserID, c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not complete purchase")
	}

	thankYou := svc.Settings.ThankYouContent(ctx)
	title := c.Params("id")
	if product, err := svc.Listings.Get(ctx, c.Params("id")); err == nil {
		title = product.Title
	}

	buyerEmail := claims.Email
	email.Go("order confirmation", func(ctx context.Context, s *email.EmailService) error {
		return s.SendOrderConfirmation(ctx, buyerEmail, email.OrderConfirmationData{
			Title:    title,
			Amount:   txn.Amount,
			ThankYou: thankYou,
		})
	})
	if recipients := svc.Settings.NotificationEmails(ctx); len(recipients) > 0 {
		message := fmt.Sprintf("Listing %q was sold for %.2f.", title, txn.Amount)
		email.Go("order notification", func(ctx context.Context, s *email.EmailService) error {
			return s.SendAdminNotification(ctx, recipients, "New order", message)
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message":     "Purchase completed",
		"transaction": txn,
		"thank_you":   thankYou,
	})
}
