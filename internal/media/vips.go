package media

import (
	"fmt"
	"path/filepath"
	"sync"

	"gallery-viewer/internal/logging"

	"github.com/davidbyttow/govips/v2/vips"
)

var (
	vipsInitialized bool
	vipsInitMutex   sync.Mutex
)

// vipsLogSettings maps the application log level to a libvips threshold and
// a handler that forwards messages at or above it into our logger.
func vipsLogSettings(level logging.LogLevel) (vips.LogLevel, func(string, vips.LogLevel, string)) {
	var threshold vips.LogLevel
	switch level {
	case logging.LevelDebug:
		threshold = vips.LogLevelInfo
	case logging.LevelInfo:
		threshold = vips.LogLevelWarning
	case logging.LevelWarn:
		threshold = vips.LogLevelError
	default:
		threshold = vips.LogLevelCritical
	}

	// vips log levels grow more verbose as the value increases
	handler := func(domain string, lvl vips.LogLevel, msg string) {
		if lvl > threshold {
			return
		}
		switch lvl {
		case vips.LogLevelError, vips.LogLevelCritical:
			logging.Error("[%s] %s", domain, msg)
		case vips.LogLevelWarning:
			logging.Warn("[%s] %s", domain, msg)
		default:
			logging.Debug("[%s] %s", domain, msg)
		}
	}
	return threshold, handler
}

// InitVips starts libvips. Safe to call more than once.
func InitVips() error {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		return nil
	}

	threshold, handler := vipsLogSettings(logging.GetLevel())
	vips.LoggingSettings(handler, threshold)

	// Thumbnail workers already run in parallel; keep each vips call single-threaded.
	vips.Startup(&vips.Config{
		ConcurrencyLevel: 1,
		MaxCacheMem:      50 * 1024 * 1024,
		MaxCacheSize:     100,
	})

	vipsInitialized = true
	logging.Info("libvips initialized successfully (version: %s)", vips.Version)
	return nil
}

// ShutdownVips releases libvips resources.
func ShutdownVips() {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()

	if vipsInitialized {
		vips.Shutdown()
		vipsInitialized = false
		logging.Info("libvips shutdown complete")
	}
}

// IsVipsAvailable returns whether libvips is initialized.
func IsVipsAvailable() bool {
	vipsInitMutex.Lock()
	defer vipsInitMutex.Unlock()
	return vipsInitialized
}

// generateWithVips shrinks at decode time and exports PNG directly. Only
// used for sources larger than the bounding box, since vips Thumbnail
// would otherwise upscale.
func (g *Generator) generateWithVips(path string, maxDimension int) ([]byte, error) {
	dim, err := GetImageDimensions(path)
	if err != nil {
		return nil, err
	}
	if dim.Width <= maxDimension && dim.Height <= maxDimension {
		return nil, fmt.Errorf("source %dx%d already within %d", dim.Width, dim.Height, maxDimension)
	}

	ref, err := vips.LoadImageFromFile(path, vips.NewImportParams())
	if err != nil {
		return nil, fmt.Errorf("vips failed to load image: %w", err)
	}
	defer ref.Close()

	if err := ref.AutoRotate(); err != nil {
		return nil, fmt.Errorf("vips auto-rotate failed: %w", err)
	}
	if err := ref.Thumbnail(maxDimension, maxDimension, vips.InterestingNone); err != nil {
		return nil, fmt.Errorf("vips resize failed: %w", err)
	}

	data, _, err := ref.ExportPng(vips.NewPngExportParams())
	if err != nil {
		return nil, fmt.Errorf("vips export failed: %w", err)
	}

	logging.Debug("Vips thumbnail for %s: %dx%d -> %dx%d",
		filepath.Base(path), dim.Width, dim.Height, ref.Width(), ref.Height())
	return data, nil
}
