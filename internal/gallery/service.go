package gallery

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"gallery-viewer/internal/database"
	"gallery-viewer/internal/filesystem"
	"gallery-viewer/internal/logging"
	"gallery-viewer/internal/media"
	"gallery-viewer/internal/mediatypes"
	"gallery-viewer/internal/metrics"
	"gallery-viewer/internal/workers"

	"github.com/google/uuid"
)

// Store is the cache store used by a Service.
type Store interface {
	LookupFresh(ctx context.Context, key string, modifiedUnix int64) (database.Thumbnail, bool, error)
	Upsert(ctx context.Context, entry database.CacheEntry) error
	UpsertBatch(ctx context.Context, entries []database.CacheEntry) error
}

// OpenStore opens the cache store in dataDir, creating the directory and
// schema as needed.
func OpenStore(ctx context.Context, dataDir string) (*database.Database, error) {
	db, err := database.OpenInDir(ctx, dataDir)
	if err != nil {
		return nil, &Error{Kind: StoreUnavailable, Path: dataDir, Op: "open cache", Err: err}
	}
	return db, nil
}

// GalleryItem is one image in a scan result.
type GalleryItem struct {
	Name             string `json:"name"`
	Path             string `json:"path"`
	ThumbnailDataURL string `json:"thumbnailDataUrl,omitempty"`
}

// ScanResult is returned by a scan that was not aborted by an error.
// Cancelled distinguishes a scan stopped on request from one that found
// nothing.
type ScanResult struct {
	ScanID    string        `json:"scanId"`
	Items     []GalleryItem `json:"items"`
	Cancelled bool          `json:"cancelled"`
}

// ScanOptions are the optional capabilities of a scan.
type ScanOptions struct {
	// Progress receives one event per classified item.
	Progress ProgressReporter
	// Token is reset when the scan starts and polled throughout.
	Token *CancelToken
	// EmbedThumbnails fills GalleryItem.ThumbnailDataURL. Items without a
	// thumbnail are left out of the result.
	EmbedThumbnails bool
}

// pendingThumbnail is a cache miss queued for generation. index points
// into ScanResult.Items.
type pendingThumbnail struct {
	index        int
	path         string
	key          string
	modifiedUnix int64
}

type generatedThumbnail struct {
	index int
	entry database.CacheEntry
}

// MemoryGate blocks generation while the process is under memory pressure.
type MemoryGate interface {
	Wait(ctx context.Context) error
}

// Service runs scans and single-thumbnail lookups against one store.
type Service struct {
	store      Store
	generator  media.ThumbnailGenerator
	numWorkers int
	gate       MemoryGate
}

// NewService creates a Service. numWorkers <= 0 sizes the generation pool
// from the CPU count.
func NewService(store Store, generator media.ThumbnailGenerator, numWorkers int) *Service {
	return &Service{
		store:      store,
		generator:  generator,
		numWorkers: workers.Resolve(numWorkers, 0),
	}
}

// SetMemoryGate makes generation workers wait on gate before each image.
// Call it before the first scan.
func (s *Service) SetMemoryGate(gate MemoryGate) {
	s.gate = gate
}

// Workers returns the size of the generation pool.
func (s *Service) Workers() int {
	return s.numWorkers
}

// ScanFolder walks folder, serves fresh thumbnails from the cache and
// generates the rest, persisting them in one transaction. Per-image
// failures are logged and the image skipped. An invalid folder or a failed
// batch commit aborts the scan with an error.
//
// A token passed in opts is re-armed before the scan starts.
func (s *Service) ScanFolder(ctx context.Context, folder string, maxDimension int, opts ScanOptions) (*ScanResult, error) {
	if opts.Token != nil {
		opts.Token.Reset()
	}
	return s.scan(ctx, folder, maxDimension, opts)
}

// scan is ScanFolder without re-arming the token, so a Cancel issued
// before the walk starts is honored.
func (s *Service) scan(ctx context.Context, folder string, maxDimension int, opts ScanOptions) (*ScanResult, error) {
	if maxDimension <= 0 {
		maxDimension = media.DefaultThumbnailSize
	}
	token := opts.Token
	if token == nil {
		token = NewCancelToken()
	}

	start := time.Now()
	outcome := "error"
	metrics.ScanInProgress.Inc()
	defer func() {
		metrics.ScanInProgress.Dec()
		metrics.ScansTotal.WithLabelValues(outcome).Inc()
		metrics.ScanDuration.Observe(time.Since(start).Seconds())
	}()

	paths, err := media.Walk(folder)
	if err != nil {
		return nil, &Error{Kind: InvalidRoot, Path: folder, Op: "scan"}
	}

	result := &ScanResult{
		ScanID: uuid.NewString(),
		Items:  make([]GalleryItem, 0, len(paths)),
	}
	logging.Info("Scan %s started: %d images under %s", result.ScanID, len(paths), folder)

	var pending []pendingThumbnail
	skipped := 0
	total := len(paths)
	for i, path := range paths {
		if token.IsCancelled() || ctx.Err() != nil {
			result.Cancelled = true
			break
		}

		name := itemName(path)
		s.reportProgress(opts.Progress, Progress{
			ScanID:  result.ScanID,
			Current: i + 1,
			Total:   total,
			Name:    name,
		})

		item, job, err := s.classify(ctx, path, name, opts.EmbedThumbnails)
		if err != nil {
			skipped++
			metrics.ScanSkippedItems.WithLabelValues("classify").Inc()
			logging.Warn("Skipping image during gallery scan (%s): %v", path, err)
			continue
		}
		if job != nil {
			job.index = len(result.Items)
			pending = append(pending, *job)
		}
		result.Items = append(result.Items, item)
	}

	if !result.Cancelled && len(pending) > 0 {
		genCtx, stop := withToken(ctx, token)
		generated := s.generateAll(genCtx, token, pending, maxDimension)
		stop()
		skipped += len(pending) - len(generated)

		if token.IsCancelled() || ctx.Err() != nil {
			result.Cancelled = true
		}

		if result.Cancelled {
			if len(generated) > 0 {
				logging.Info("Scan %s cancelled, discarding %d generated thumbnails", result.ScanID, len(generated))
			}
		} else if len(generated) > 0 {
			entries := make([]database.CacheEntry, len(generated))
			for i, g := range generated {
				entries[i] = g.entry
			}
			if err := s.store.UpsertBatch(ctx, entries); err != nil {
				return nil, &Error{Kind: StoreUnavailable, Path: folder, Op: "persist thumbnails", Err: err}
			}
		}

		if opts.EmbedThumbnails {
			for _, g := range generated {
				result.Items[g.index].ThumbnailDataURL = media.DataURL(g.entry.MimeType, g.entry.Thumbnail)
			}
		}
	}

	if opts.EmbedThumbnails {
		result.Items = itemsWithThumbnails(result.Items)
	}

	if skipped > 0 {
		logging.Warn("Skipped %d image(s) while loading gallery %s", skipped, folder)
	}

	outcome = "completed"
	if result.Cancelled {
		outcome = "cancelled"
	}
	metrics.ScanItems.Observe(float64(len(result.Items)))
	logging.Info("Scan %s %s: %d items, %d queued for generation, %d skipped in %v",
		result.ScanID, outcome, len(result.Items), len(pending), skipped, time.Since(start))
	return result, nil
}

// classify looks one image up in the cache. A miss yields a pending job.
func (s *Service) classify(ctx context.Context, path, name string, embed bool) (GalleryItem, *pendingThumbnail, error) {
	item := GalleryItem{Name: name, Path: path}

	modified, err := filesystem.ModifiedUnix(path)
	if err != nil {
		return item, nil, &Error{Kind: IoFailure, Path: path, Op: "stat", Err: err}
	}

	key := CacheKey(path)
	thumb, ok, err := s.store.LookupFresh(ctx, key, modified)
	if err != nil {
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		return item, nil, &Error{Kind: StoreUnavailable, Path: path, Op: "lookup", Err: err}
	}
	if ok {
		metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		logging.Debug("Cache hit for %s", path)
		if embed {
			item.ThumbnailDataURL = media.DataURL(thumb.MimeType, thumb.Blob)
		}
		return item, nil, nil
	}

	metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
	return item, &pendingThumbnail{path: path, key: key, modifiedUnix: modified}, nil
}

// generateAll runs the generator over jobs on the worker pool. Output order
// is unspecified. Jobs picked up after cancellation are dropped unstarted.
func (s *Service) generateAll(ctx context.Context, token *CancelToken, jobs []pendingThumbnail, maxDimension int) []generatedThumbnail {
	numWorkers := min(s.numWorkers, len(jobs))
	logging.Debug("Generating %d thumbnails with %d workers", len(jobs), numWorkers)

	queue := make(chan pendingThumbnail)
	results := make(chan generatedThumbnail, len(jobs))

	var wg sync.WaitGroup
	for i := 0; i < numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				if token.IsCancelled() || ctx.Err() != nil || s.waitForMemory(ctx) != nil {
					metrics.ThumbnailGenerationsTotal.WithLabelValues("skipped_cancelled").Inc()
					continue
				}
				if g, ok := s.generateOne(job, maxDimension); ok {
					results <- g
				}
			}
		}()
	}

	for _, job := range jobs {
		queue <- job
	}
	close(queue)
	wg.Wait()
	close(results)

	generated := make([]generatedThumbnail, 0, len(results))
	for g := range results {
		generated = append(generated, g)
	}
	return generated
}

func (s *Service) waitForMemory(ctx context.Context) error {
	if s.gate == nil {
		return nil
	}
	return s.gate.Wait(ctx)
}

func (s *Service) generateOne(job pendingThumbnail, maxDimension int) (generatedThumbnail, bool) {
	metrics.ThumbnailWorkersBusy.Inc()
	data, mimeType, err := s.generator.Generate(job.path, maxDimension)
	metrics.ThumbnailWorkersBusy.Dec()

	if err != nil {
		genErr := fromGenerateError("generate", err)
		metrics.ThumbnailGenerationsTotal.WithLabelValues(generationStatus(genErr.Kind)).Inc()
		metrics.ScanSkippedItems.WithLabelValues("generate").Inc()
		logging.Warn("Skipping generated thumbnail due to error: %v", genErr)
		return generatedThumbnail{}, false
	}

	metrics.ThumbnailGenerationsTotal.WithLabelValues("success").Inc()
	return generatedThumbnail{
		index: job.index,
		entry: database.CacheEntry{
			CacheKey:           job.key,
			SourcePath:         job.path,
			SourceModifiedUnix: job.modifiedUnix,
			Thumbnail:          data,
			MimeType:           mimeType,
		},
	}, true
}

// GetThumbnail returns a data URL for one image, using the same cache
// lookup, generation and upsert as a scan.
func (s *Service) GetThumbnail(ctx context.Context, path string, maxDimension int) (string, error) {
	if maxDimension <= 0 {
		maxDimension = media.DefaultThumbnailSize
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}

	info, err := filesystem.StatWithRetry(path, filesystem.DefaultRetryConfig())
	if err != nil || !info.Mode().IsRegular() {
		return "", &Error{Kind: NotFound, Path: path, Op: "thumbnail"}
	}
	if !mediatypes.IsSupported(path) {
		return "", &Error{Kind: UnsupportedFormat, Path: path, Op: "thumbnail"}
	}

	modified, err := filesystem.ModifiedUnix(path)
	if err != nil {
		return "", &Error{Kind: IoFailure, Path: path, Op: "thumbnail", Err: err}
	}

	key := CacheKey(path)
	thumb, ok, err := s.store.LookupFresh(ctx, key, modified)
	switch {
	case err != nil:
		metrics.CacheLookupsTotal.WithLabelValues("error").Inc()
		logging.Warn("Cache lookup failed for %s, regenerating: %v", path, err)
	case ok:
		metrics.CacheLookupsTotal.WithLabelValues("hit").Inc()
		return media.DataURL(thumb.MimeType, thumb.Blob), nil
	default:
		metrics.CacheLookupsTotal.WithLabelValues("miss").Inc()
	}

	if err := s.waitForMemory(ctx); err != nil {
		return "", err
	}
	data, mimeType, err := s.generator.Generate(path, maxDimension)
	if err != nil {
		genErr := fromGenerateError("thumbnail", err)
		metrics.ThumbnailGenerationsTotal.WithLabelValues(generationStatus(genErr.Kind)).Inc()
		return "", genErr
	}
	metrics.ThumbnailGenerationsTotal.WithLabelValues("success").Inc()

	err = s.store.Upsert(ctx, database.CacheEntry{
		CacheKey:           key,
		SourcePath:         path,
		SourceModifiedUnix: modified,
		Thumbnail:          data,
		MimeType:           mimeType,
	})
	if err != nil {
		logging.Warn("Failed to cache thumbnail for %s: %v", path, err)
	}
	return media.DataURL(mimeType, data), nil
}

func (s *Service) reportProgress(reporter ProgressReporter, p Progress) {
	if reporter == nil {
		return
	}
	if err := reporter.Report(p); err != nil {
		logging.Warn("Failed to emit thumbnail progress: %v", err)
	}
}

// itemName is the display name of an image.
func itemName(path string) string {
	name := filepath.Base(path)
	if name == "" || name == "." || name == string(filepath.Separator) {
		return "image"
	}
	return name
}

func itemsWithThumbnails(items []GalleryItem) []GalleryItem {
	kept := items[:0]
	for _, item := range items {
		if item.ThumbnailDataURL != "" {
			kept = append(kept, item)
		}
	}
	return kept
}

func generationStatus(kind Kind) string {
	switch kind {
	case EncodeFailed:
		return "error_encode"
	case IoFailure:
		return "error_io"
	default:
		return "error_decode"
	}
}
