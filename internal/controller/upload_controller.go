package controller

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"bazaar_backend/internal/service"
	"bazaar_backend/pkg/utils/image"
	"bazaar_backend/pkg/utils/validation"
)

// readUploads validates the "images" files of a multipart request and re-encodes
// each one as WebP.
func readUploads(c *fiber.Ctx) ([]service.ImageUpload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("invalid multipart form: %w", err)
	}
	files := form.File["images"]
	if len(files) == 0 {
		return nil, validation.ErrFileRequired
	}

	raw, err := validation.ReadImages(files)
	if err != nil {
		return nil, err
	}

	uploads := make([]service.ImageUpload, 0, len(raw))
	for i, data := range raw {
		encoded, name, err := image.Process(files[i].Filename, data)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", files[i].Filename, err)
		}
		uploads = append(uploads, service.ImageUpload{
			Filename:    name,
			ContentType: image.ContentType,
			Data:        encoded,
		})
	}
	return uploads, nil
}

// AddProductImages appends photos to a listing. Runs after CheckProductOwnership.
func AddProductImages(c *fiber.Ctx) error {
	uploads, err := readUploads(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	images, err := svc.Listings.AddImages(c.UserContext(), currentActor(c), c.Params("id"), uploads)
	if err != nil {
		return respondError(c, err, "Could not upload images")
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": "Images uploaded successfully",
		"images":  images,
	})
}

func DeleteProductImage(c *fiber.Ctx) error {
	imageID, ok := paramUint(c, "image_id")
	if !ok {
		return badRequest(c, "Invalid image ID")
	}

	if err := svc.Listings.RemoveImage(c.UserContext(), currentActor(c), c.Params("id"), imageID); err != nil {
		return respondError(c, err, "Could not delete image")
	}

	return c.SendStatus(fiber.StatusNoContent)
}
