package client

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
)

// maxImageBytes is the largest upload the API accepts.
const maxImageBytes = 10 << 20

var (
	// ErrInvalidImage is returned for files that are not a jpeg or png image.
	ErrInvalidImage = errors.New("invalid image")

	allowedImageTypes = map[string]bool{
		"image/jpeg": true,
		"image/png":  true,
	}
)

// Image is a multipart image part.
type Image struct {
	FileName    string
	ContentType string
	Data        []byte
}

// LoadImage reads an image file, accepting jpeg and png content only.
func LoadImage(path string) (*Image, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat image (%s): %w", path, err)
	}
	if info.Size() == 0 || info.Size() > maxImageBytes {
		return nil, fmt.Errorf("%w: size %d", ErrInvalidImage, info.Size())
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image (%s): %w", path, err)
	}

	return NewImage(filepath.Base(path), data)
}

// NewImage sniffs the content type of data.
func NewImage(fileName string, data []byte) (*Image, error) {
	contentType := http.DetectContentType(data)
	if !allowedImageTypes[contentType] {
		return nil, fmt.Errorf("%w: content type %s", ErrInvalidImage, contentType)
	}

	return &Image{
		FileName:    fileName,
		ContentType: contentType,
		Data:        data,
	}, nil
}
