package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "anycode.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "ANYCODE_PORT")
	setString(&cfg.Server.CORSOrigin, "ANYCODE_CORS_ORIGIN")
	setString(&cfg.NATS.URL, "NATS_URL")
	setString(&cfg.Logging.Level, "ANYCODE_LOG_LEVEL")
	setString(&cfg.Logging.Service, "ANYCODE_LOG_SERVICE")
	setBool(&cfg.Logging.Async, "ANYCODE_LOG_ASYNC")
	setBool(&cfg.Telemetry.Enabled, "ANYCODE_TELEMETRY_ENABLED")
	setString(&cfg.Telemetry.OTLPEndpoint, "ANYCODE_OTLP_ENDPOINT")
	setInt(&cfg.Index.SymbolIndexSize, "ANYCODE_SYMBOL_INDEX_SIZE")
	setInt64(&cfg.Index.MaxFileSize, "ANYCODE_MAX_FILE_SIZE")
	setString(&cfg.Grammars.Dir, "ANYCODE_GRAMMARS_DIR")
	setCommand(&cfg.Analysis.Command, "ANYCODE_SERVER_CMD")
	setDuration(&cfg.Analysis.StartTimeout, "ANYCODE_SERVER_START_TIMEOUT")
	setDuration(&cfg.Analysis.ShutdownTimeout, "ANYCODE_SERVER_SHUTDOWN_TIMEOUT")
	setString(&cfg.Analysis.ExtensionsDir, "ANYCODE_EXTENSIONS_DIR")
	setString(&cfg.State.Bucket, "ANYCODE_STATE_BUCKET")
	setInt64(&cfg.Cache.MaxSizeMB, "ANYCODE_CACHE_SIZE_MB")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.NATS.URL == "" {
		return errors.New("nats.url is required")
	}
	if len(cfg.Analysis.Command) == 0 {
		return errors.New("analysis.command is required")
	}
	if cfg.Index.MaxFileSize < 1 {
		return errors.New("index.max_file_size must be >= 1")
	}
	if cfg.Index.SymbolIndexSize < 0 {
		// Negative caps are clamped rather than rejected.
		cfg.Index.SymbolIndexSize = 0
	}
	return nil
}

// ExcludeGlobs returns the enabled exclusion globs. Map iteration order is
// not guaranteed, so callers must not depend on ordering.
func (c *Config) ExcludeGlobs() []string {
	globs := make([]string, 0, len(c.Index.Exclude))
	for glob, on := range c.Index.Exclude {
		if on {
			globs = append(globs, glob)
		}
	}
	return globs
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}

func setCommand(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = strings.Fields(v)
	}
}
