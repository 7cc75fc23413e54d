package validation

import (
	"mime/multipart"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateImage(t *testing.T) {
	assert.ErrorIs(t, ValidateImage(nil), ErrFileRequired)
	assert.ErrorIs(t, ValidateImage(&multipart.FileHeader{Filename: "a.gif", Size: 10}), ErrFileType)
	assert.ErrorIs(t, ValidateImage(&multipart.FileHeader{Filename: "a.jpg", Size: MaxImageSize + 1}), ErrFileSize)
	assert.NoError(t, ValidateImage(&multipart.FileHeader{Filename: "A.JPEG", Size: 10}))
}

func TestValidateImageContent(t *testing.T) {
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")
	assert.NoError(t, ValidateImageContent(png))
	assert.ErrorIs(t, ValidateImageContent([]byte("<html>hi</html>")), ErrFileType)
	assert.ErrorIs(t, ValidateImageContent(nil), ErrFileRequired)
}
