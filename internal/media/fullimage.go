package media

import (
	"errors"
	"fmt"

	"gallery-viewer/internal/filesystem"
	"gallery-viewer/internal/mediatypes"
)

var (
	ErrNotAFile          = errors.New("is not a file")
	ErrUnsupportedFormat = errors.New("unsupported image format")
)

// LoadFullImage reads the image at path unmodified and returns it as a
// data URL whose MIME type comes from the file extension.
func LoadFullImage(path string) (string, error) {
	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return "", err
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%s %w", path, ErrNotAFile)
	}

	mimeType, ok := mediatypes.ContentTypeFor(path)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mediatypes.Extension(path))
	}

	data, err := filesystem.ReadFileWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return "", err
	}
	return DataURL(mimeType, data), nil
}
