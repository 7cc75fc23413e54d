package image

import (
	"bytes"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"path/filepath"
	"strings"

	"github.com/chai2010/webp"
)

const (
	ContentType = "image/webp"
	quality     = 82
	// MaxPixels guards against decompression bombs.
	MaxPixels = 40_000_000
)

// Process decodes a JPEG, PNG or WebP photo and re-encodes it as lossy WebP.
// The returned name keeps the original base name with a .webp extension.
func Process(filename string, data []byte) ([]byte, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("could not read image: %w", err)
	}
	if cfg.Width*cfg.Height > MaxPixels {
		return nil, "", fmt.Errorf("image is too large: %dx%d", cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("could not decode %s image: %w", format, err)
	}

	buf := new(bytes.Buffer)
	if err := webp.Encode(buf, img, &webp.Options{Lossless: false, Quality: quality}); err != nil {
		return nil, "", fmt.Errorf("could not encode image: %w", err)
	}

	base := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	return buf.Bytes(), base + ".webp", nil
}
