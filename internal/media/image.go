package media

import (
	"fmt"
	"image"
	"os"

	"gallery-viewer/internal/logging"

	// Image format decoders not pulled in by imaging
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
)

const (
	// MaxImageDimension is the widest side we will decode without libvips.
	MaxImageDimension = 20_000

	// MaxImagePixels is the largest total pixel count (width * height) we
	// will decode without libvips. 100MP is ~400MB in RGBA.
	MaxImagePixels = 100_000_000
)

// ImageDimensions holds image width and height
type ImageDimensions struct {
	Width  int
	Height int
}

// GetImageDimensions returns image dimensions without fully decoding the image
func GetImageDimensions(path string) (*ImageDimensions, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := file.Close(); err != nil {
			logging.Warn("failed to close image file %s: %v", path, err)
		}
	}()

	config, _, err := image.DecodeConfig(file)
	if err != nil {
		return nil, err
	}

	return &ImageDimensions{
		Width:  config.Width,
		Height: config.Height,
	}, nil
}

// exceedsDecodeLimits reports whether an image of the given size would be
// refused by LoadImageConstrained.
func exceedsDecodeLimits(dim *ImageDimensions, maxDimension, maxPixels int) bool {
	return dim.Width > maxDimension || dim.Height > maxDimension || dim.Width*dim.Height > maxPixels
}

// LoadImageConstrained decodes an image with EXIF auto-orientation, refusing
// images whose header declares a size beyond the given limits. The header
// check keeps a crafted or enormous file from exhausting a worker's memory.
func LoadImageConstrained(path string, maxDimension, maxPixels int) (image.Image, error) {
	dimensions, err := GetImageDimensions(path)
	if err != nil {
		// Header unreadable; let the full decoder report the real problem.
		logging.Debug("Could not get image dimensions for %s: %v", path, err)
		return imaging.Open(path, imaging.AutoOrientation(true))
	}

	logging.Debug("Image %s dimensions: %dx%d", path, dimensions.Width, dimensions.Height)

	if exceedsDecodeLimits(dimensions, maxDimension, maxPixels) {
		return nil, fmt.Errorf("image %dx%d exceeds decode limits (%d px per side, %d px total)",
			dimensions.Width, dimensions.Height, maxDimension, maxPixels)
	}

	return imaging.Open(path, imaging.AutoOrientation(true))
}
