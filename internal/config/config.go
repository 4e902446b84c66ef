// Package config provides hierarchical configuration loading for the anycode
// host daemon. Precedence: defaults < YAML file < environment variables.
package config

import "time"

// Config holds all runtime configuration for the anycode host daemon.
type Config struct {
	Server    Server              `yaml:"server"`
	NATS      NATS                `yaml:"nats"`
	Logging   Logging             `yaml:"logging"`
	Telemetry Telemetry           `yaml:"telemetry"`
	Index     Index               `yaml:"index"`
	Grammars  Grammars            `yaml:"grammars"`
	Analysis  Analysis            `yaml:"analysis"`
	State     State               `yaml:"state"`
	Cache     Cache               `yaml:"cache"`
	Languages map[string]Language `yaml:"languages"`
}

// Server holds HTTP server configuration.
type Server struct {
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin"`
}

// NATS holds NATS JetStream configuration.
type NATS struct {
	URL string `yaml:"url"`
}

// Logging holds structured logging configuration.
type Logging struct {
	Level   string `yaml:"level"`
	Service string `yaml:"service"`
	Async   bool   `yaml:"async"`
}

// Telemetry holds telemetry and OpenTelemetry export configuration.
type Telemetry struct {
	Enabled      bool   `yaml:"enabled"`
	OTLPEndpoint string `yaml:"otlp_endpoint"`
}

// Index holds workspace indexing configuration.
type Index struct {
	// SymbolIndexSize caps the number of files submitted to the analysis
	// server for indexing. Values below zero are treated as zero.
	SymbolIndexSize int `yaml:"symbol_index_size"`
	// MaxFileSize is the largest file, in bytes, served to the analysis
	// server via file/read.
	MaxFileSize int64 `yaml:"max_file_size"`
	// Exclude mirrors the editor's search.exclude / files.exclude maps:
	// glob keys mapped to booleans, only enabled keys apply.
	Exclude map[string]bool `yaml:"exclude"`
}

// Grammars holds the location of the tree-sitter grammar assets.
type Grammars struct {
	Dir string `yaml:"dir"`
}

// Analysis holds configuration for launching the analysis server process.
type Analysis struct {
	Command         []string      `yaml:"command"`
	StartTimeout    time.Duration `yaml:"start_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
	ExtensionsDir   string        `yaml:"extensions_dir"`
}

// State holds workspace-scoped persisted state configuration.
type State struct {
	Bucket string `yaml:"bucket"`
}

// Cache holds in-process cache configuration.
type Cache struct {
	MaxSizeMB int64 `yaml:"max_size_mb"`
}

// Language holds per-language overrides. Nil pointers mean "default".
type Language struct {
	Enabled  *bool            `yaml:"enabled"`
	Features map[string]*bool `yaml:"features"`
}

// Defaults returns a Config with sensible default values for local use.
func Defaults() Config {
	return Config{
		Server: Server{
			Port:       "7820",
			CORSOrigin: "http://localhost:3000",
		},
		NATS: NATS{
			URL: "nats://localhost:4222",
		},
		Logging: Logging{
			Level:   "info",
			Service: "anycoded",
		},
		Telemetry: Telemetry{
			Enabled:      false,
			OTLPEndpoint: "localhost:4317",
		},
		Index: Index{
			SymbolIndexSize: 500,
			MaxFileSize:     1 << 20,
			Exclude: map[string]bool{
				"**/node_modules/**": true,
				"**/.git/**":         true,
			},
		},
		Grammars: Grammars{
			Dir: "grammars",
		},
		Analysis: Analysis{
			Command:         []string{"anycode-server", "--stdio"},
			StartTimeout:    15 * time.Second,
			ShutdownTimeout: 5 * time.Second,
			ExtensionsDir:   "",
		},
		State: State{
			Bucket: "anycode-workspaces",
		},
		Cache: Cache{
			MaxSizeMB: 64,
		},
	}
}
