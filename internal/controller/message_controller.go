package controller

import (
	"github.com/gofiber/fiber/v2"
)

type MessageInput struct {
	ProductID   string `json:"product_id"`
	RecipientID string `json:"recipient_id"`
	Body        string `json:"body"`
}

// SendMessage is the buyer/seller thread on a listing. A buyer's message always
// goes to the seller; the seller replies by naming the recipient.
func SendMessage(c *fiber.Ctx) error {
	claims := currentUser(c)
	input := new(MessageInput)
	if err := c.BodyParser(input); err != nil || input.ProductID == "" {
		return badRequest(c, "product_id and body are required")
	}

	msg, err := svc.Messages.Send(c.UserContext(), claims.UserID, input.ProductID, input.RecipientID, input.Body)
	if err != nil {
		return respondError(c, err, "Could not send message")
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

func GetMessages(c *fiber.Ctx) error {
	claims := currentUser(c)
	page := pageFrom(c)

	messages, total, err := svc.Messages.Inbox(c.UserContext(), claims.UserID, page)
	if err != nil {
		return respondError(c, err, "Could not fetch messages")
	}
	return c.JSON(paged(messages, total, page))
}

func MarkMessageAsRead(c *fiber.Ctx) error {
	claims := currentUser(c)
	id, ok := paramUint(c, "id")
	if !ok {
		return badRequest(c, "Invalid message ID")
	}

	if err := svc.Messages.MarkRead(c.UserContext(), claims.UserID, id); err != nil {
		return respondError(c, err, "Could not update message")
	}
	return c.JSON(fiber.Map{
		"message": "Message marked as read",
	})
}
