package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/vk/contentspec/internal/config"
	"github.com/vk/contentspec/internal/ctxlog"
	"github.com/vk/contentspec/internal/layer"
	"github.com/vk/contentspec/internal/registry"
	"github.com/vk/contentspec/internal/spec"
)

// App encapsulates the application's dependencies, configuration, and lifecycle.
type App struct {
	outW     io.Writer
	logger   *slog.Logger
	registry *spec.Registry
	stack    *layer.Stack
	store    *spec.Store
}

// NewApp is the constructor for the main application. It returns a fully
// initialized App instance, including its own isolated logger, layer stack,
// registry and document store. Log output goes to outW.
func NewApp(outW io.Writer, cfg *Config, loader config.Loader, modules ...registry.Module[spec.Factory]) *App {
	logger := newLogger(cfg.LogLevel, cfg.LogFormat, outW)
	ctx := ctxlog.WithLogger(context.Background(), logger)
	logger.Debug("Logger configured successfully.")

	manifest, err := loader.Load(ctx, cfg.ManifestPath)
	if err != nil {
		// A failure to load the manifest is a fatal startup error.
		panic(fmt.Errorf("failed to load layer manifest: %w", err))
	}
	logger.Debug("Layer manifest loaded.", "layers", len(manifest.Layers))

	var opts []layer.Option
	saveLayer := manifest.SaveLayer
	if cfg.SaveLayer != "" {
		saveLayer = cfg.SaveLayer
	}
	if saveLayer != "" {
		opts = append(opts, layer.WithSaveLayer(saveLayer))
	}
	stack, err := layer.NewStack(ctx, layer.FromDefinitions(manifest.Layers), opts...)
	if err != nil {
		panic(fmt.Errorf("failed to build layer stack: %w", err))
	}

	reg := spec.NewRegistry()
	if len(modules) == 0 {
		modules = coreModules
	}
	reg.Load(modules...)
	logger.Debug("All spawner modules registered.", "count", len(modules))

	store, err := spec.NewStore(ctx, stack, reg, spec.WithCacheSize(cfg.CacheSize))
	if err != nil {
		panic(fmt.Errorf("failed to create document store: %w", err))
	}

	// Every type must mold: a failure is a mistake in the type's own
	// declarations, so we panic.
	err = reg.Validate(ctx, func(e *registry.Entry[spec.Factory]) error {
		_, err := store.Mold(e.ID)
		return err
	})
	if err != nil {
		panic(err)
	}
	logger.Debug("Registry validation passed.")

	return &App{
		outW:     outW,
		logger:   logger,
		registry: reg,
		stack:    stack,
		store:    store,
	}
}

// Registry returns the application's registry. This is primarily for testing.
func (a *App) Registry() *spec.Registry {
	return a.registry
}

// Store returns the application's document store.
func (a *App) Store() *spec.Store {
	return a.store
}
