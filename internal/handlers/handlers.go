package handlers

import (
	"context"
	"time"

	"gallery-viewer/internal/database"
	"gallery-viewer/internal/gallery"
	"gallery-viewer/internal/startup"
	"gallery-viewer/internal/streaming"
)

// CacheStats reports the contents of the thumbnail cache.
type CacheStats interface {
	Stats(ctx context.Context) (database.Stats, error)
}

type Handlers struct {
	session       *gallery.Session
	cache         CacheStats
	progress      *gallery.Broadcaster
	initialFolder string
	thumbnailSize int
	streamConfig  streaming.EventStreamConfig
	startTime     time.Time
}

func New(session *gallery.Session, cache CacheStats, progress *gallery.Broadcaster, config *startup.Config) *Handlers {
	return &Handlers{
		session:       session,
		cache:         cache,
		progress:      progress,
		initialFolder: config.InitialFolder,
		thumbnailSize: config.ThumbnailSize,
		streamConfig:  streaming.DefaultEventStreamConfig(),
		startTime:     time.Now(),
	}
}
