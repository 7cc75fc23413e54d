package controller

import (
	"context"

	"github.com/gofiber/fiber/v2"

	"bazaar_backend/internal/model"
	"bazaar_backend/internal/service"
	"bazaar_backend/pkg/email"
	"bazaar_backend/pkg/utils/jwt"
)

type SignupInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ProfileInput struct {
	FullName *string `json:"full_name"`
	Address  *string `json:"address"`
	Phone    *string `json:"phone"`
}

func issueToken(profile *model.Profile) (string, error) {
	return jwt.GenerateToken(profile.ID, profile.Email, string(profile.Role))
}

func Signup(c *fiber.Ctx) error {
	input := new(SignupInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid input")
	}

	profile, err := svc.Accounts.Signup(c.UserContext(), service.SignupInput{
		Email:    input.Email,
		Password: input.Password,
		FullName: input.FullName,
	})
	if err != nil {
		return respondError(c, err, "Could not create user")
	}

	token, err := issueToken(profile)
	if err != nil {
		return respondError(c, err, "Could not generate token")
	}

	email.Go("welcome", func(ctx context.Context, s *email.EmailService) error {
		return s.SendWelcomeEmail(ctx, profile.Email, profile.FullName)
	})

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Registration successful",
		"token":   token,
		"user":    profile.GetPublicProfile(),
	})
}

// Login refuses banned accounts with 403 and the ban end.
func Login(c *fiber.Ctx) error {
	input := new(LoginInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid input")
	}

	profile, err := svc.Accounts.Authenticate(c.UserContext(), input.Email, input.Password)
	if err != nil {
		return respondError(c, err, "Could not log in")
	}

	status, err := svc.Moderation.StatusOf(c.UserContext(), profile)
	if err != nil {
		return respondError(c, err, "Could not verify account status")
	}
	if status.Banned {
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"error":        service.ErrBanned.Error(),
			"banned_until": status.BannedUntil,
		})
	}

	token, err := issueToken(profile)
	if err != nil {
		return respondError(c, err, "Could not generate token")
	}
	svc.Accounts.RecordLogin(c.UserContext(), profile.ID, c.IP(), c.Get(fiber.HeaderUserAgent))

	return c.JSON(fiber.Map{
		"token": token,
		"user":  profile.GetPublicProfile(),
	})
}

func GetMe(c *fiber.Ctx) error {
	claims := currentUser(c)

	profile, err := svc.Accounts.Profile(c.UserContext(), claims.UserID)
	if err != nil {
		return respondError(c, err, "Could not fetch user")
	}
	status, err := svc.Moderation.StatusOf(c.UserContext(), profile)
	if err != nil {
		return respondError(c, err, "Could not fetch user")
	}

	return c.JSON(fiber.Map{
		"user": profile.GetPublicProfile(),
		"ban":  status,
	})
}

func UpdateMe(c *fiber.Ctx) error {
	claims := currentUser(c)
	input := new(ProfileInput)
	if err := c.BodyParser(input); err != nil {
		return badRequest(c, "Invalid input")
	}

	profile, err := svc.Accounts.UpdateProfile(c.UserContext(), claims.UserID, service.ProfileUpdate{
		FullName: input.FullName,
		Address:  input.Address,
		Phone:    input.Phone,
	})
	if err != nil {
		return respondError(c, err, "Could not update profile")
	}

	return c.JSON(fiber.Map{
		"message": "Profile updated successfully",
		"user":    profile.GetPublicProfile(),
	})
}

func GetMyLogins(c *fiber.Ctx) error {
	claims := currentUser(c)

	logins, err := svc.Accounts.RecentLogins(c.UserContext(), claims.UserID, 20)
	if err != nil {
		return respondError(c, err, "Could not fetch login history")
	}
	return c.JSON(logins)
}

func GetEntitlement(c *fiber.Ctx) error {
	claims := currentUser(c)

	report, err := svc.Entitlements.Get(c.UserContext(), claims.UserID)
	if err != nil {
		return respondError(c, err, "Could not fetch entitlement")
	}
	return c.JSON(report)
}

// CheckAdmin reads the role from the profile so a stale token cannot claim admin.
func CheckAdmin(c *fiber.Ctx) error {
	claims := currentUser(c)

	profile, err := svc.Accounts.Profile(c.UserContext(), claims.UserID)
	if err != nil {
		return respondError(c, err, "Could not fetch user")
	}
	return c.JSON(fiber.Map{
		"is_admin": profile.IsAdmin(),
	})
}
