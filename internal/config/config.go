// Package config loads service configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

type Config struct {
	Port string `env:"PORT" envDefault:"8090"`

	// Auth
	APIKey string `env:"DECKGEST_API_KEY"`

	// Captioning model
	CaptionURL     string        `env:"CAPTION_URL"`
	CaptionAPIKey  string        `env:"CAPTION_API_KEY"`
	CaptionModel   string        `env:"CAPTION_MODEL" envDefault:"claude-sonnet-4-5-20250929"`
	CaptionTimeout time.Duration `env:"CAPTION_TIMEOUT" envDefault:"120s"`

	// Worker pool
	WorkerCount  int           `env:"WORKER_COUNT" envDefault:"4"`
	MaxQueueSize int           `env:"MAX_QUEUE_SIZE" envDefault:"100"`
	JobTTL       time.Duration `env:"JOB_TTL" envDefault:"1h"`

	// Upload limits
	MaxUploadBytes int64 `env:"MAX_UPLOAD_BYTES" envDefault:"52428800"` // 50MB

	// Chunking
	MaxTextBytes  int `env:"MAX_TEXT_BYTES" envDefault:"500000"`
	MaxChunkBytes int `env:"MAX_CHUNK_BYTES" envDefault:"2000"`
	OverlapBytes  int `env:"CHUNK_OVERLAP_BYTES" envDefault:"200"`

	// Embedded images
	MinImageBytes   int      `env:"MIN_IMAGE_BYTES" envDefault:"10240"`
	MaxImageBytes   int      `env:"MAX_IMAGE_BYTES" envDefault:"20971520"`
	ImageRoot       string   `env:"IMAGE_ROOT" envDefault:"./images"`
	ImageExtensions []string `env:"IMAGE_EXTENSIONS" envSeparator:"," envDefault:"png,jpg,jpeg,gif,bmp,tiff"`
}

// Load parses the environment into a Config.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings that have no usable default.
func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("DECKGEST_API_KEY is required")
	}
	if c.MaxChunkBytes <= 0 {
		return fmt.Errorf("MAX_CHUNK_BYTES must be positive")
	}
	if c.OverlapBytes < 0 {
		return fmt.Errorf("CHUNK_OVERLAP_BYTES must not be negative")
	}
	if c.OverlapBytes >= c.MaxChunkBytes {
		return fmt.Errorf("CHUNK_OVERLAP_BYTES must be smaller than MAX_CHUNK_BYTES")
	}
	if c.WorkerCount <= 0 {
		return fmt.Errorf("WORKER_COUNT must be positive")
	}
	return nil
}

// ExtensionSet returns the image extension allow-list as a lookup map.
// Entries are lowercased to match how asset extensions are compared.
func (c Config) ExtensionSet() map[string]bool {
	set := make(map[string]bool, len(c.ImageExtensions))
	for _, e := range c.ImageExtensions {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			set[e] = true
		}
	}
	return set
}
