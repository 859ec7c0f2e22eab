package app

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// ManifestPath is a layer manifest file or a directory of them.
	ManifestPath string `validate:"required"`

	LogFormat string `validate:"oneof=text json"`
	LogLevel  string `validate:"oneof=debug info warn error"`
	// CacheSize bounds the clean documents the store keeps parsed.
	CacheSize int `validate:"gte=1"`
	// SaveLayer overrides the manifest's save_layer.
	SaveLayer string
}

var validate = validator.New()

// NewConfig validates cfg and returns a copy of it.
func NewConfig(cfg Config) (*Config, error) {
	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}
