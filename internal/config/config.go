package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config defines server configuration.
type Config struct {
	DB       DBConfig       `yaml:"db"`
	Log      LogConfig      `yaml:"log"`
	Autosave AutosaveConfig `yaml:"autosave"`
	Import   ImportConfig   `yaml:"import"`
	Assets   AssetsConfig   `yaml:"assets"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	// Path enables a log file next to stderr. Empty disables it.
	Path     string `yaml:"path"`
	MaxBytes int64  `yaml:"max_bytes"`
}

type AutosaveConfig struct {
	Delay      time.Duration `yaml:"delay"`
	RetryDelay time.Duration `yaml:"retry_delay"`
}

type ImportConfig struct {
	MaxJSONBytes      int64 `yaml:"max_json_bytes"`
	MaxZIPBytes       int64 `yaml:"max_zip_bytes"`
	MaxArchiveImages  int   `yaml:"max_archive_images"`
	MaxExtractedBytes int64 `yaml:"max_extracted_bytes"`
	MaxUploadBytes    int64 `yaml:"max_upload_bytes"`
}

// AssetsConfig locates the sample images and templates. URL takes the place
// of Dir when set.
type AssetsConfig struct {
	Dir          string `yaml:"dir"`
	URL          string `yaml:"url"`
	TemplateRoot string `yaml:"template_root"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		DB: DBConfig{
			Path: "rehab-grid.db",
		},
		Log: LogConfig{
			Level:    "info",
			MaxBytes: 10 << 20,
		},
		Autosave: AutosaveConfig{
			Delay: 2000 * time.Millisecond,
		},
		Import: ImportConfig{
			MaxJSONBytes:      10 << 20,
			MaxZIPBytes:       50 << 20,
			MaxArchiveImages:  15,
			MaxExtractedBytes: 100 << 20,
			MaxUploadBytes:    20 << 20,
		},
		Assets: AssetsConfig{
			Dir:          "public",
			TemplateRoot: "templates",
		},
	}
}

// Load reads configuration from an optional YAML file and environment variables.
func Load() (Config, error) {
	cfg := Default()

	if path := os.Getenv("REHABGRID_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}

	if dbPath := os.Getenv("REHABGRID_DB_PATH"); dbPath != "" {
		cfg.DB.Path = dbPath
	}
	if level := os.Getenv("REHABGRID_LOG_LEVEL"); level != "" {
		cfg.Log.Level = level
	}
	if logPath := os.Getenv("REHABGRID_LOG_PATH"); logPath != "" {
		cfg.Log.Path = logPath
	}
	if delayStr := os.Getenv("REHABGRID_AUTOSAVE_DELAY"); delayStr != "" {
		delay, err := parseDelay(delayStr)
		if err != nil {
			return Config{}, fmt.Errorf("invalid REHABGRID_AUTOSAVE_DELAY: %w", err)
		}
		cfg.Autosave.Delay = delay
	}
	if dir := os.Getenv("REHABGRID_ASSETS_DIR"); dir != "" {
		cfg.Assets.Dir = dir
	}
	if assetsURL := os.Getenv("REHABGRID_ASSETS_URL"); assetsURL != "" {
		cfg.Assets.URL = assetsURL
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// parseDelay accepts a Go duration ("1500ms") or a bare number of milliseconds.
func parseDelay(s string) (time.Duration, error) {
	if ms, err := strconv.Atoi(s); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	return time.ParseDuration(s)
}

// Validate checks values that would otherwise fail later at startup.
func (c Config) Validate() error {
	var errs []error
	if c.DB.Path == "" {
		errs = append(errs, errors.New("db.path is required"))
	}
	if c.Autosave.Delay <= 0 {
		errs = append(errs, fmt.Errorf("autosave.delay must be positive, got %s", c.Autosave.Delay))
	}
	if c.Autosave.RetryDelay < 0 {
		errs = append(errs, fmt.Errorf("autosave.retry_delay must not be negative, got %s", c.Autosave.RetryDelay))
	}
	if c.Import.MaxJSONBytes <= 0 || c.Import.MaxZIPBytes <= 0 || c.Import.MaxExtractedBytes <= 0 || c.Import.MaxUploadBytes <= 0 {
		errs = append(errs, errors.New("import size limits must be positive"))
	}
	if c.Import.MaxArchiveImages <= 0 {
		errs = append(errs, errors.New("import.max_archive_images must be positive"))
	}
	if c.Assets.URL != "" {
		u, err := url.Parse(c.Assets.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("assets.url must be an absolute http(s) URL, got %q", c.Assets.URL))
		}
	}
	return errors.Join(errs...)
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
