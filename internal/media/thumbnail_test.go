package media

import (
	"bytes"
	"errors"
	"image"
	"image/png"
	"path/filepath"
	"testing"
)

func TestGeneratorBoundsLongerSide(t *testing.T) {
	dir := t.TempDir()
	gen := NewGenerator()

	tests := []struct {
		name       string
		width      int
		height     int
		format     string
		maxDim     int
		wantWidth  int
		wantHeight int
	}{
		{"landscape jpeg", 400, 200, "jpeg", 100, 100, 50},
		{"portrait png", 150, 600, "png", 120, 30, 120},
		{"square", 300, 300, "png", 64, 64, 64},
		{"smaller than box is not upscaled", 40, 20, "png", 256, 40, 20},
		{"exactly the box", 128, 64, "jpeg", 128, 128, 64},
		{"non-positive size uses default", 1024, 512, "png", 0, DefaultThumbnailSize, DefaultThumbnailSize / 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+"."+tt.format)
			createTestImage(t, path, tt.width, tt.height, tt.format)

			data, mimeType, err := gen.Generate(path, tt.maxDim)
			if err != nil {
				t.Fatalf("Generate() error = %v", err)
			}
			if mimeType != "image/png" {
				t.Errorf("mime type = %q, want image/png", mimeType)
			}

			img, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				t.Fatalf("thumbnail is not a PNG: %v", err)
			}
			b := img.Bounds()
			if b.Dx() != tt.wantWidth || b.Dy() != tt.wantHeight {
				t.Errorf("thumbnail size = %dx%d, want %dx%d", b.Dx(), b.Dy(), tt.wantWidth, tt.wantHeight)
			}
		})
	}
}

func TestGeneratorIsDeterministic(t *testing.T) {
	path := filepath.Join(t.TempDir(), "p.png")
	createTestImage(t, path, 320, 240, "png")
	gen := NewGenerator()

	first, _, err := gen.Generate(path, 100)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	second, _, err := gen.Generate(path, 100)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("Generate() produced different bytes for the same input")
	}
}

func TestGeneratorErrors(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "broken.jpg")
	writeFile(t, corrupt, "definitely not a jpeg")

	tests := []struct {
		name      string
		path      string
		wantStage Stage
	}{
		{"missing file", filepath.Join(dir, "missing.png"), StageIO},
		{"directory", dir, StageIO},
		{"undecodable", corrupt, StageDecode},
	}

	gen := NewGenerator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := gen.Generate(tt.path, 64)
			var genErr *GenerateError
			if !errors.As(err, &genErr) {
				t.Fatalf("Generate() error = %v, want *GenerateError", err)
			}
			if genErr.Stage != tt.wantStage {
				t.Errorf("Stage = %q, want %q", genErr.Stage, tt.wantStage)
			}
			if genErr.Path != tt.path {
				t.Errorf("Path = %q, want %q", genErr.Path, tt.path)
			}
		})
	}
}

func TestGeneratorRejectsOversizedDecode(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wide.png")
	createTestImage(t, path, 300, 10, "png")

	gen := &Generator{maxDecodeDimension: 200, maxDecodePixels: MaxImagePixels}
	_, _, err := gen.Generate(path, 64)

	var genErr *GenerateError
	if !errors.As(err, &genErr) || genErr.Stage != StageDecode {
		t.Fatalf("Generate() error = %v, want decode-stage GenerateError", err)
	}
}

func TestFitWithinKeepsSmallImages(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 10, 5))
	if got := fitWithin(img, 10); got != image.Image(img) {
		t.Error("fitWithin() should return the original image when it already fits")
	}
}
