package controller

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"bazaar_backend/internal/model"
	"bazaar_backend/internal/service"
	"bazaar_backend/pkg/email"
)

type RoleInput struct {
	UserID string     `json:"user_id"`
	Role   model.Role `json:"role"`
}

type BanInput struct {
	Reason    string     `json:"reason"`
	StartDate *time.Time `json:"start_date"`
	EndDate   *time.Time `json:"end_date"`
	Days      int        `json:"days"`
}

func ListUsers(c *fiber.Ctx) error {
	page := pageFrom(c)
	users, total, err := svc.Accounts.List(c.UserContext(), service.UserFilter{
		Search: c.Query("search"),
		Role:   model.Role(c.Query("role")),
		Page:   page,
	})
	if err != nil {
		return respondError(c, err, "Could not fetch users")
	}

	public := make([]map[string]interface{}, len(users))
	for i := range users {
		public[i] = users[i].GetPublicProfile()
	}
	return c.JSON(paged(public, total, page))
}

func GetUser(c *fiber.Ctx) error {
	ctx := c.UserContext()
	profile, err := svc.Accounts.Profile(ctx, c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not fetch user")
	}
	status, err := svc.Moderation.StatusOf(ctx, profile)
	if err != nil {
		return respondError(c, err, "Could not fetch user")
	}
	report, err := svc.Entitlements.Get(ctx, profile.ID)
	if err != nil {
		return respondError(c, err, "Could not fetch user")
	}

	return c.JSON(fiber.Map{
		"user":        profile.GetPublicProfile(),
		"ban":         status,
		"entitlement": report,
	})
}

func UpdateUser(c *fiber.Ctx) error {
	input := new(ProfileInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid input")
	}

	profile, err := svc.Accounts.UpdateProfile(c.UserContext(), c.Params("id"), service.ProfileUpdate{
		FullName: input.FullName,
		Address:  input.Address,
		Phone:    input.Phone,
	})
	if err != nil {
		return respondError(c, err, "Could not update user")
	}
	return c.JSON(fiber.Map{
		"message": "User updated successfully",
		"user":    profile.GetPublicProfile(),
	})
}

func DeleteUser(c *fiber.Ctx) error {
	claims := currentUser(c)
	if err := svc.Accounts.Delete(c.UserContext(), claims.UserID, c.Params("id")); err != nil {
		return respondError(c, err, "Could not delete user")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func SetUserRole(c *fiber.Ctx) error {
	claims := currentUser(c)
	input := new(RoleInput)
	if err := c.BodyParser(input); err != nil || input.UserID == "" {
		return badRequest(c, "user_id and role are required")
	}

	profile, err := svc.Accounts.SetRole(c.UserContext(), claims.UserID, input.UserID, input.Role)
	if err != nil {
		return respondError(c, err, "Could not update role")
	}
	return c.JSON(fiber.Map{
		"message": "Role updated successfully",
		"user":    profile.GetPublicProfile(),
	})
}

func BanUser(c *fiber.Ctx) error {
	claims := currentUser(c)
	input := new(BanInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid input")
	}

	ctx := c.UserContext()
	userID := c.Params("id")
	ban, err := svc.Moderation.Ban(ctx, userID, service.BanInput{
		Reason:    input.Reason,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
		Days:      input.Days,
		BannedBy:  claims.UserID,
	})
	if err != nil {
		return respondError(c, err, "Could not ban user")
	}

	if profile, err := svc.Accounts.Profile(ctx, userID); err == nil {
		email.Go("ban notice", func(ctx context.Context, s *email.EmailService) error {
			return s.SendBanNotice(ctx, profile.Email, profile.FullName, ban.EndDate, ban.Reason)
		})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "User banned",
		"ban":     ban,
	})
}

func UnbanUser(c *fiber.Ctx) error {
	if err := svc.Moderation.Lift(c.UserContext(), c.Params("id")); err != nil {
		return respondError(c, err, "Could not unban user")
	}
	return c.JSON(fiber.Map{
		"message": "User unbanned",
	})
}

func ListUserBans(c *fiber.Ctx) error {
	bans, err := svc.Moderation.History(c.UserContext(), c.Params("id"))
	if err != nil {
		return respondError(c, err, "Could not fetch bans")
	}
	return c.JSON(bans)
}
