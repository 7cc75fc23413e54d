package validation

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
)

var (
	ErrFileSize     = errors.New("file size exceeds limit of 10MB")
	ErrFileType     = errors.New("invalid file type. Allowed types: JPG, PNG, WEBP")
	ErrFileRequired = errors.New("no file provided")
)

const MaxImageSize = 10 * 1024 * 1024

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

var allowedContentTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// ValidateImage checks the multipart header before the body is read.
func ValidateImage(file *multipart.FileHeader) error {
	if file == nil {
		return ErrFileRequired
	}
	if file.Size > MaxImageSize {
		return ErrFileSize
	}
	ext := strings.ToLower(filepath.Ext(file.Filename))
	if !allowedExtensions[ext] {
		return ErrFileType
	}
	return nil
}

// ValidateImageContent sniffs the bytes, so a renamed file cannot pass as a photo.
func ValidateImageContent(data []byte) error {
	if len(data) == 0 {
		return ErrFileRequired
	}
	if len(data) > MaxImageSize {
		return ErrFileSize
	}
	if ct := http.DetectContentType(data); !allowedContentTypes[ct] {
		return fmt.Errorf("%w (got %s)", ErrFileType, ct)
	}
	return nil
}

// ReadImages validates and loads every file of a multipart field.
func ReadImages(files []*multipart.FileHeader) ([][]byte, error) {
	out := make([][]byte, 0, len(files))
	for _, fh := range files {
		if err := ValidateImage(fh); err != nil {
			return nil, fmt.Errorf("%s: %w", fh.Filename, err)
		}
		f, err := fh.Open()
		if err != nil {
			return nil, fmt.Errorf("could not open %s: %w", fh.Filename, err)
		}
		data := make([]byte, fh.Size)
		_, err = io.ReadFull(f, data)
		f.Close()
		if err != nil {
			return nil, fmt.Errorf("could not read %s: %w", fh.Filename, err)
		}
		if err := ValidateImageContent(data); err != nil {
			return nil, fmt.Errorf("%s: %w", fh.Filename, err)
		}
		out = append(out, data)
	}
	return out, nil
}
