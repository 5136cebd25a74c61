package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"time"

	"gallery-viewer/internal/filesystem"
	"gallery-viewer/internal/logging"
	"gallery-viewer/internal/mediatypes"
	"gallery-viewer/internal/metrics"

	"github.com/disintegration/imaging"
)

// DefaultThumbnailSize is the bounding box used when a caller passes a
// non-positive size.
const DefaultThumbnailSize = 256

// Stage identifies where thumbnail generation failed.
type Stage string

const (
	StageIO     Stage = "io"
	StageDecode Stage = "decode"
	StageEncode Stage = "encode"
)

// GenerateError is returned by Generator.Generate.
type GenerateError struct {
	Stage Stage
	Path  string
	Err   error
}

func (e *GenerateError) Error() string {
	switch e.Stage {
	case StageIO:
		return fmt.Sprintf("failed to read image %s: %v", e.Path, e.Err)
	case StageEncode:
		return fmt.Sprintf("failed to encode thumbnail %s: %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("failed to open image %s: %v", e.Path, e.Err)
	}
}

func (e *GenerateError) Unwrap() error {
	return e.Err
}

// ThumbnailGenerator produces one thumbnail from one source image.
type ThumbnailGenerator interface {
	Generate(path string, maxDimension int) ([]byte, string, error)
}

// Generator is the default ThumbnailGenerator. It holds no mutable state
// and may be shared by any number of goroutines.
type Generator struct {
	maxDecodeDimension int
	maxDecodePixels    int
}

// NewGenerator creates a Generator with the package decode limits.
func NewGenerator() *Generator {
	return &Generator{
		maxDecodeDimension: MaxImageDimension,
		maxDecodePixels:    MaxImagePixels,
	}
}

// Generate decodes the image at path and returns a PNG whose longer side is
// at most maxDimension. Aspect ratio is preserved and images already inside
// the box are not upscaled.
func (g *Generator) Generate(path string, maxDimension int) ([]byte, string, error) {
	if maxDimension <= 0 {
		maxDimension = DefaultThumbnailSize
	}
	start := time.Now()

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil {
		return nil, "", &GenerateError{Stage: StageIO, Path: path, Err: err}
	}
	if !info.Mode().IsRegular() {
		return nil, "", &GenerateError{Stage: StageIO, Path: path, Err: errors.New("not a regular file")}
	}

	if IsVipsAvailable() {
		data, err := g.generateWithVips(path, maxDimension)
		if err == nil {
			metrics.ThumbnailGenerationDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())
			return data, mediatypes.ThumbnailMimeType, nil
		}
		logging.Debug("vips thumbnail failed for %s: %v, falling back to imaging", path, err)
	}

	decodeStart := time.Now()
	img, err := LoadImageConstrained(path, g.maxDecodeDimension, g.maxDecodePixels)
	if err != nil {
		return nil, "", &GenerateError{Stage: StageDecode, Path: path, Err: err}
	}
	metrics.ThumbnailGenerationDuration.WithLabelValues("decode").Observe(time.Since(decodeStart).Seconds())

	resizeStart := time.Now()
	thumb := fitWithin(img, maxDimension)
	metrics.ThumbnailGenerationDuration.WithLabelValues("resize").Observe(time.Since(resizeStart).Seconds())

	encodeStart := time.Now()
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.PNG); err != nil {
		return nil, "", &GenerateError{Stage: StageEncode, Path: path, Err: err}
	}
	metrics.ThumbnailGenerationDuration.WithLabelValues("encode").Observe(time.Since(encodeStart).Seconds())
	metrics.ThumbnailGenerationDuration.WithLabelValues("total").Observe(time.Since(start).Seconds())
	metrics.ThumbnailBytes.Observe(float64(buf.Len()))

	logging.Debug("Thumbnail generated for %s: %dx%d, %d bytes",
		path, thumb.Bounds().Dx(), thumb.Bounds().Dy(), buf.Len())
	return buf.Bytes(), mediatypes.ThumbnailMimeType, nil
}

// fitWithin scales img down so neither side exceeds maxDimension.
func fitWithin(img image.Image, maxDimension int) image.Image {
	b := img.Bounds()
	if b.Dx() <= maxDimension && b.Dy() <= maxDimension {
		return img
	}
	return imaging.Fit(img, maxDimension, maxDimension, imaging.Lanczos)
}
