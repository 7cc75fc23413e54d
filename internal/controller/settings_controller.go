package controller

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
)

// SettingInput wraps the raw JSON value of a setting.
type SettingInput struct {
	Value json.RawMessage `json:"value"`
}

func GetSettings(c *fiber.Ctx) error {
	settings, err := svc.Settings.All(c.UserContext())
	if err != nil {
		return respondError(c, err, "Could not fetch settings")
	}
	return c.JSON(settings)
}

func GetSetting(c *fiber.Ctx) error {
	key := c.Params("key")
	value, err := svc.Settings.Get(c.UserContext(), key)
	if err != nil {
		return respondError(c, err, "Could not fetch setting")
	}
	return c.JSON(fiber.Map{
		"key":   key,
		"value": value,
	})
}

func UpdateSetting(c *fiber.Ctx) error {
	claims := currentUser(c)
	input := new(SettingInput)
	if err := c.BodyParser(input); err != nil || len(input.Value) == 0 {
		return badRequest(c, "value is required")
	}

	key := c.Params("key")
	value, err := svc.Settings.Set(c.UserContext(), key, input.Value, claims.UserID)
	if err != nil {
		return respondError(c, err, "Could not update setting")
	}
	return c.JSON(fiber.Map{
		"message": "Setting updated successfully",
		"key":     key,
		"value":   value,
	})
}
