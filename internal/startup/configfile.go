package startup

import (
	"fmt"
	"io"
	"os"

	"gallery-viewer/internal/logging"

	"github.com/BurntSushi/toml"
)

// FileConfig is the optional TOML configuration file. Unset keys leave the
// corresponding setting at its default; environment variables still win.
type FileConfig struct {
	DataDir         string `toml:"data_dir"`
	InitialFolder   string `toml:"initial_folder"`
	Port            string `toml:"port"`
	MetricsPort     string `toml:"metrics_port"`
	ThumbnailSize   int    `toml:"thumbnail_size"`
	Workers         int    `toml:"workers"`
	MetricsEnabled  *bool  `toml:"metrics_enabled"`
	VipsEnabled     *bool  `toml:"vips_enabled"`
	LogHealthChecks *bool  `toml:"log_health_checks"`
	LogLevel        string `toml:"log_level"`
}

// DecodeConfigFile decodes a FileConfig. Unknown keys are rejected.
func DecodeConfigFile(r io.Reader) (*FileConfig, error) {
	var fc FileConfig
	md, err := toml.NewDecoder(r).Decode(&fc)
	if err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("unknown config keys: %v", undecoded)
	}
	return &fc, nil
}

// ReadConfigFile reads a FileConfig from path.
func ReadConfigFile(path string) (*FileConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config file: %w", err)
	}
	defer f.Close()

	fc, err := DecodeConfigFile(f)
	if err != nil {
		return nil, fmt.Errorf("reading config from %s: %w", path, err)
	}
	return fc, nil
}

// ApplyFile overlays the values set in fc onto c.
func (c *Config) ApplyFile(fc *FileConfig) {
	if fc.DataDir != "" {
		c.DataDir = fc.DataDir
	}
	if fc.InitialFolder != "" {
		c.InitialFolder = fc.InitialFolder
	}
	if fc.Port != "" {
		c.Port = fc.Port
	}
	if fc.MetricsPort != "" {
		c.MetricsPort = fc.MetricsPort
	}
	if fc.ThumbnailSize > 0 {
		c.ThumbnailSize = fc.ThumbnailSize
	}
	if fc.Workers > 0 {
		c.Workers = fc.Workers
	}
	if fc.MetricsEnabled != nil {
		c.MetricsEnabled = *fc.MetricsEnabled
	}
	if fc.VipsEnabled != nil {
		c.VipsEnabled = *fc.VipsEnabled
	}
	if fc.LogHealthChecks != nil {
		c.LogHealthChecks = *fc.LogHealthChecks
	}
	// LOG_LEVEL and DEBUG in the environment take precedence.
	if fc.LogLevel != "" && os.Getenv("LOG_LEVEL") == "" && os.Getenv("DEBUG") == "" {
		if level, ok := logging.ParseLevel(fc.LogLevel); ok {
			logging.SetLevel(level)
		} else {
			logging.Warn("Invalid log_level %q in config file, ignoring", fc.LogLevel)
		}
	}
}
