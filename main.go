package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gallery-viewer/internal/filesystem"
	"gallery-viewer/internal/gallery"
	"gallery-viewer/internal/handlers"
	"gallery-viewer/internal/logging"
	"gallery-viewer/internal/media"
	"gallery-viewer/internal/memory"
	"gallery-viewer/internal/metrics"
	"gallery-viewer/internal/middleware"
	"gallery-viewer/internal/startup"

	"github.com/gorilla/mux"
)

// progressBuffer is the per-subscriber event backlog of the progress stream.
const progressBuffer = 64

func main() {
	startTime := time.Now()

	memory.ConfigureFromEnv()

	config, err := startup.LoadConfig(os.Args[1:])
	if err != nil {
		logging.Fatal("Configuration error: %v", err)
	}

	metrics.InitializeMetrics()
	metrics.AppInfo.WithLabelValues(startup.Version, startup.Commit, startup.GoVersion).Set(1)
	filesystem.SetObserver(metrics.NewFilesystemObserver())

	if config.VipsEnabled {
		err := media.InitVips()
		startup.LogVipsInit(true, err)
		defer media.ShutdownVips()
	} else {
		startup.LogVipsInit(false, nil)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	dbStart := time.Now()
	db, err := gallery.OpenStore(ctx, config.DataDir)
	if err != nil {
		logging.Fatal("Failed to open thumbnail cache: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn("Failed to close thumbnail cache: %v", err)
		}
	}()
	startup.LogDatabaseInit(db.Path(), time.Since(dbStart))

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()
	defer monitor.Stop()

	service := gallery.NewService(db, media.NewGenerator(), config.Workers)
	service.SetMemoryGate(monitor)
	startup.LogScannerInit(service.Workers(), config.ThumbnailSize)

	session := gallery.NewSession(service)
	progress := gallery.NewBroadcaster(progressBuffer)
	h := handlers.New(session, db, progress, config)

	if config.InitialFolder != "" {
		go watchInitialFolder(ctx, session, progress, config)
	}

	router := setupRouter(h)
	startup.LogHTTPRoutes(router, config.LogHealthChecks)

	accessLog := middleware.DefaultAccessLogConfig()
	accessLog.LogHealthChecks = config.LogHealthChecks
	handler := middleware.Compression(middleware.DefaultCompressionConfig())(
		middleware.AccessLog(accessLog)(router),
	)

	srv := &http.Server{
		Addr:              ":" + config.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		// Scans and the progress stream are long-lived responses.
		WriteTimeout: 0,
		IdleTimeout:  60 * time.Second,
	}

	var metricsSrv *http.Server
	if config.MetricsEnabled {
		metricsSrv = startMetricsServer(config.MetricsPort, h.MetricsHandler())
	}

	go handleShutdown(srv, metricsSrv, session, stop)

	startup.LogServerStarted(startup.ServerConfig{
		Port:            config.Port,
		MetricsPort:     config.MetricsPort,
		MetricsEnabled:  config.MetricsEnabled,
		StartupDuration: time.Since(startTime),
	})
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		logging.Fatal("Server error: %v", err)
	}
	<-ctx.Done()
	startup.LogShutdownComplete()
}

func setupRouter(h *handlers.Handlers) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Metrics(middleware.DefaultMetricsConfig()))

	r.HandleFunc("/health", h.HealthCheck).Methods(http.MethodGet).Name("health")
	r.HandleFunc("/livez", h.LivenessCheck).Methods(http.MethodGet, http.MethodHead).Name("livez")

	// API routes live on the root router so a wrong method answers 405.
	r.HandleFunc("/api/version", h.GetVersion).Methods(http.MethodGet).Name("version")
	r.HandleFunc("/api/initial-folder", h.GetInitialFolder).Methods(http.MethodGet).Name("initial-folder")
	r.HandleFunc("/api/gallery/scan", h.ScanFolder).Methods(http.MethodPost).Name("scan")
	r.HandleFunc("/api/gallery/cancel", h.CancelScan).Methods(http.MethodPost).Name("cancel")
	r.HandleFunc("/api/thumbnail", h.GetThumbnail).Methods(http.MethodGet).Name("thumbnail")
	r.HandleFunc("/api/image", h.GetFullImage).Methods(http.MethodGet).Name("image")
	r.HandleFunc("/api/progress", h.StreamProgress).Methods(http.MethodGet).Name("progress")
	r.HandleFunc("/api/cache/stats", h.GetCacheStats).Methods(http.MethodGet).Name("cache-stats")

	return r
}

func startMetricsServer(port string, handler http.Handler) *http.Server {
	metricsMux := http.NewServeMux()
	metricsMux.Handle("/metrics", handler)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           metricsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Metrics server error: %v", err)
		}
	}()
	return srv
}

// watchInitialFolder keeps the cache current for the folder given at
// startup, publishing rescan progress to the shared stream.
func watchInitialFolder(ctx context.Context, session *gallery.Session, progress *gallery.Broadcaster, config *startup.Config) {
	watcher, err := gallery.NewWatcher(session, config.InitialFolder, config.ThumbnailSize,
		gallery.ScanOptions{Progress: progress}, gallery.DefaultDebounce)
	if err != nil {
		logging.Warn("Not watching initial folder: %v", err)
		return
	}

	err = watcher.Run(ctx, func(result *gallery.ScanResult, err error) {
		if err != nil {
			logging.Warn("Rescan of %s failed: %v", config.InitialFolder, err)
			return
		}
		logging.Info("Rescanned %s: %d images (cancelled=%v)", config.InitialFolder, len(result.Items), result.Cancelled)
	})
	if err != nil {
		logging.Error("Watcher for %s stopped: %v", config.InitialFolder, err)
	}
}

func handleShutdown(srv, metricsSrv *http.Server, session *gallery.Session, stop context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan

	startup.LogShutdownInitiated(sig.String())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if session.Scanning() {
		startup.LogShutdownStep("Cancelling active scan")
		session.Cancel()
		startup.LogShutdownStepComplete("Scan cancelled")
	}

	startup.LogShutdownStep("Stopping folder watcher")
	stop()
	startup.LogShutdownStepComplete("Folder watcher stopped")

	if metricsSrv != nil {
		startup.LogShutdownStep("Shutting down metrics server")
		if err := metricsSrv.Shutdown(ctx); err != nil {
			logging.Warn("Metrics server shutdown error: %v", err)
		} else {
			startup.LogShutdownStepComplete("Metrics server stopped")
		}
	}

	startup.LogShutdownStep("Shutting down HTTP server")
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Server shutdown error: %v", err)
	} else {
		startup.LogShutdownStepComplete("HTTP server stopped")
	}
}
