package controller

import (
	"github.com/gofiber/fiber/v2"

	"bazaar_backend/internal/model"
)

type PayoutInput struct {
	Amount float64 `json:"amount"`
	Note   string  `json:"note"`
}

type PayoutReviewInput struct {
	Status model.PayoutStatus `json:"status"`
	Note   string             `json:"note"`
}

func GetMyPayouts(c *fiber.Ctx) error {
	claims := currentUser(c)
	ctx := c.UserContext()

	payouts, err := svc.Payouts.Mine(ctx, claims.UserID)
	if err != nil {
		return respondError(c, err, "Could not fetch payouts")
	}
	balance, err := svc.Payouts.Balance(ctx, claims.UserID)
	if err != nil {
		return respondError(c, err, "Could not fetch balance")
	}

	return c.JSON(fiber.Map{
		"balance": balance,
		"payouts": payouts,
	})
}

func RequestPayout(c *fiber.Ctx) error {
	claims := currentUser(c)
	input := new(PayoutInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid input")
	}

	payout, err := svc.Payouts.Request(c.UserContext(), claims.UserID, input.Amount, input.Note)
	if err != nil {
		return respondError(c, err, "Could not request payout")
	}
	return c.Status(fiber.StatusCreated).JSON(payout)
}

func ListPayouts(c *fiber.Ctx) error {
	page := pageFrom(c)
	payouts, total, err := svc.Payouts.List(c.UserContext(), model.PayoutStatus(c.Query("status")), page)
	if err != nil {
		return respondError(c, err, "Could not fetch payouts")
	}
	return c.JSON(paged(payouts, total, page))
}

func ReviewPayout(c *fiber.Ctx) error {
	id, ok := paramUint(c, "id")
	if !ok {
		return badRequest(c, "Invalid payout ID")
	}
	input := new(PayoutReviewInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid input")
	}

	payout, err := svc.Payouts.Review(c.UserContext(), id, input.Status, input.Note)
	if err != nil {
		return respondError(c, err, "Could not update payout")
	}
	return c.JSON(payout)
}
