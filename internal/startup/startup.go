package startup

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"time"

	"gallery-viewer/internal/database"
	"gallery-viewer/internal/logging"
	"gallery-viewer/internal/media"

	"github.com/gorilla/mux"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// RouteInfo contains information about a registered route
type RouteInfo struct {
	Method string
	Path   string
	Name   string
}

// AppDirName is the directory created under the user config dir when
// GALLERY_DATA_DIR is not set.
const AppDirName = "gallery-viewer"

// Config holds all application configuration
type Config struct {
	DataDir         string
	InitialFolder   string
	Port            string
	MetricsPort     string
	ThumbnailSize   int
	Workers         int
	MetricsEnabled  bool
	VipsEnabled     bool
	LogHealthChecks bool

	// Derived
	DatabasePath string
	ConfigFile   string
}

// Defaults returns the configuration used when nothing is set.
func Defaults() *Config {
	return &Config{
		DataDir:         DefaultDataDir(),
		Port:            "8080",
		MetricsPort:     "9090",
		ThumbnailSize:   media.DefaultThumbnailSize,
		MetricsEnabled:  true,
		LogHealthChecks: true,
	}
}

// DefaultDataDir returns $XDG_CONFIG_HOME/gallery-viewer (or the platform
// equivalent), falling back to a directory under the temp dir.
func DefaultDataDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, AppDirName)
	}
	return filepath.Join(os.TempDir(), AppDirName)
}

// Load resolves configuration from defaults, the optional TOML file named by
// GALLERY_CONFIG, and environment variables, in increasing precedence. It
// creates the data directory and checks that it is writable. args are the
// program arguments; the first one naming a directory becomes the initial
// folder.
func Load(args []string) (*Config, error) {
	return LoadWith(args, nil)
}

// LoadWith is Load with command-line overrides applied after the
// environment and before the data directory is checked.
func LoadWith(args []string, override func(*Config)) (*Config, error) {
	cfg := Defaults()

	if path := os.Getenv("GALLERY_CONFIG"); path != "" {
		file, err := ReadConfigFile(path)
		if err != nil {
			return nil, err
		}
		cfg.ApplyFile(file)
		cfg.ConfigFile = path
	}
	cfg.applyEnv()
	if override != nil {
		override(cfg)
	}

	dataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	cfg.DataDir = dataDir

	if err := ensureDirectory(cfg.DataDir, "data"); err != nil {
		return nil, fmt.Errorf("data directory error: %w", err)
	}
	if err := testWriteAccess(cfg.DataDir); err != nil {
		return nil, fmt.Errorf("data directory is not writable (required for thumbnail cache): %w", err)
	}
	cfg.DatabasePath = filepath.Join(cfg.DataDir, database.FileName)

	cfg.InitialFolder = InitialFolder(args, cfg.InitialFolder)
	return cfg, nil
}

// LoadConfig is Load with the startup banner and configuration report.
func LoadConfig(args []string) (*Config, error) {
	printBanner()
	logSystemInfo()

	cfg, err := Load(args)
	if err != nil {
		return nil, err
	}

	logging.Info("------------------------------------------------------------")
	logging.Info("CONFIGURATION")
	logging.Info("------------------------------------------------------------")
	if cfg.ConfigFile != "" {
		logging.Info("  GALLERY_CONFIG:      %s", cfg.ConfigFile)
	}
	logging.Info("  GALLERY_DATA_DIR:    %s", cfg.DataDir)
	logging.Info("  INITIAL_FOLDER:      %s", valueOrNone(cfg.InitialFolder))
	logging.Info("  PORT:                %s", cfg.Port)
	logging.Info("  METRICS_PORT:        %s", cfg.MetricsPort)
	logging.Info("  METRICS_ENABLED:     %v", cfg.MetricsEnabled)
	logging.Info("  THUMBNAIL_SIZE:      %d", cfg.ThumbnailSize)
	logging.Info("  THUMBNAIL_WORKERS:   %s", workersString(cfg.Workers))
	logging.Info("  VIPS_ENABLED:        %v", cfg.VipsEnabled)
	logging.Info("  LOG_HEALTH_CHECKS:   %v", cfg.LogHealthChecks)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())
	logging.Info("  Cache database:      %s", cfg.DatabasePath)
	logging.Info("  [OK] Data directory is writable")

	return cfg, nil
}

func (c *Config) applyEnv() {
	c.DataDir = getEnv("GALLERY_DATA_DIR", c.DataDir)
	c.InitialFolder = getEnv("GALLERY_INITIAL_FOLDER", c.InitialFolder)
	c.Port = getEnv("PORT", c.Port)
	c.MetricsPort = getEnv("METRICS_PORT", c.MetricsPort)
	c.ThumbnailSize = getEnvPositiveInt("THUMBNAIL_SIZE", c.ThumbnailSize)
	c.Workers = getEnvPositiveInt("THUMBNAIL_WORKERS", c.Workers)
	c.MetricsEnabled = getEnvBool("METRICS_ENABLED", c.MetricsEnabled)
	c.VipsEnabled = getEnvBool("VIPS_ENABLED", c.VipsEnabled)
	c.LogHealthChecks = getEnvBool("LOG_HEALTH_CHECKS", c.LogHealthChecks)
}

// InitialFolder returns the first argument that names a directory, else
// fallback when it names one, else "".
func InitialFolder(args []string, fallback string) string {
	for _, arg := range args {
		if media.IsDirectory(arg) {
			if abs, err := filepath.Abs(arg); err == nil {
				return abs
			}
			return arg
		}
	}
	if fallback != "" && media.IsDirectory(fallback) {
		if abs, err := filepath.Abs(fallback); err == nil {
			return abs
		}
		return fallback
	}
	return ""
}

func valueOrNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func workersString(n int) string {
	if n <= 0 {
		return "auto"
	}
	return strconv.Itoa(n)
}

func enabledString(enabled bool) string {
	if enabled {
		return "ENABLED"
	}
	return "DISABLED"
}

// LogDatabaseInit logs cache store initialization
func LogDatabaseInit(path string, duration time.Duration) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("THUMBNAIL CACHE INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  [OK] %s opened in %v", path, duration)
}

// LogVipsInit logs the outcome of libvips startup
func LogVipsInit(enabled bool, err error) {
	switch {
	case !enabled:
		logging.Info("  libvips:     %s (set VIPS_ENABLED=true to enable)", enabledString(false))
	case err != nil:
		logging.Warn("  libvips failed to start, falling back to pure Go decoding: %v", err)
	default:
		logging.Info("  libvips:     %s", enabledString(true))
	}
}

// LogScannerInit logs scan service settings
func LogScannerInit(workers, thumbnailSize int) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SCANNER INITIALIZATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Thumbnail workers: %d", workers)
	logging.Info("  Thumbnail size:    %dpx", thumbnailSize)
}

// GetRoutes extracts all registered routes from a mux.Router
func GetRoutes(router *mux.Router) ([]RouteInfo, error) {
	var routes []RouteInfo

	err := router.Walk(func(route *mux.Route, _ *mux.Router, _ []*mux.Route) error {
		pathTemplate, err := route.GetPathTemplate()
		if err != nil {
			return err
		}

		methods, err := route.GetMethods()
		if err != nil {
			methods = []string{"*"}
		}

		for _, method := range methods {
			routes = append(routes, RouteInfo{
				Method: method,
				Path:   pathTemplate,
				Name:   route.GetName(),
			})
		}
		return nil
	})

	return routes, err
}

// LogHTTPRoutes logs registered routes at debug level
func LogHTTPRoutes(router *mux.Router, logHealthChecks bool) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("HTTP SERVER SETUP")
	logging.Info("------------------------------------------------------------")

	if logging.IsDebugEnabled() {
		routes, err := GetRoutes(router)
		if err != nil {
			logging.Warn("error walking routes: %v", err)
		}
		logging.Debug("  Registered routes (%d total):", len(routes))

		groups := make(map[string][]RouteInfo)
		for _, route := range routes {
			prefix := getRouteGroup(route.Path)
			groups[prefix] = append(groups[prefix], route)
		}

		groupKeys := make([]string, 0, len(groups))
		for k := range groups {
			groupKeys = append(groupKeys, k)
		}
		sort.Strings(groupKeys)

		for _, group := range groupKeys {
			if group != "" {
				logging.Debug("  [%s]", group)
			} else {
				logging.Debug("  [root]")
			}
			for _, route := range groups[group] {
				logging.Debug("    %-6s %s", route.Method, route.Path)
			}
		}
	}

	if logHealthChecks {
		logging.Info("  Health check logging: ON")
	} else {
		logging.Info("  Health check logging: OFF (set LOG_HEALTH_CHECKS=true to enable)")
	}
}

// getRouteGroup extracts a group name from a route path
func getRouteGroup(path string) string {
	path = strings.TrimPrefix(path, "/")
	parts := strings.SplitN(path, "/", 2)
	first := parts[0]

	if first == "api" && len(parts) > 1 {
		subParts := strings.SplitN(parts[1], "/", 2)
		return "api/" + subParts[0]
	}
	return first
}

// ServerConfig holds configuration for the server startup log
type ServerConfig struct {
	Port            string
	MetricsPort     string
	MetricsEnabled  bool
	StartupDuration time.Duration
}

// LogServerStarted logs successful server start with endpoint information
func LogServerStarted(config ServerConfig) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SERVER STARTED")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Startup time:    %v", config.StartupDuration)
	logging.Info("  Application:     http://localhost:%s", config.Port)
	if config.MetricsEnabled {
		logging.Info("  Metrics:         http://localhost:%s/metrics", config.MetricsPort)
	} else {
		logging.Info("  Metrics:         DISABLED")
	}
	logging.Info("  Press Ctrl+C to stop the server")
	logging.Info("------------------------------------------------------------")
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownStep logs a shutdown step
func LogShutdownStep(step string) {
	logging.Debug("  %s...", step)
}

// LogShutdownStepComplete logs a completed shutdown step
func LogShutdownStepComplete(step string) {
	logging.Info("  [OK] %s", step)
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

func printBanner() {
	banner := `
------------------------------------------------------------
   ____       _ _
  / ___| __ _| | | ___ _ __ _   _
 | |  _ / _' | | |/ _ \ '__| | | |
 | |_| | (_| | | |  __/ |  | |_| |
  \____|\__,_|_|_|\___|_|   \__, |
                            |___/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
	logging.Info("")
}

func logSystemInfo() {
	logging.Info("------------------------------------------------------------")
	logging.Info("SYSTEM INFORMATION")
	logging.Info("------------------------------------------------------------")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
	}
	logging.Info("")
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}

func getEnvPositiveInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		logging.Warn("Invalid positive integer for %s: %q, using default: %d", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
