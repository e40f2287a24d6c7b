// Package container provides dependency injection for the pos-receipts
// application. It centralizes the creation and wiring of the pipeline
// components so commands receive them fully configured.
package container

import (
	"fmt"

	"hydrogen/pos-receipts/internal/batch"
	"hydrogen/pos-receipts/internal/config"
	"hydrogen/pos-receipts/internal/logging"
	"hydrogen/pos-receipts/internal/pdfexport"
	"hydrogen/pos-receipts/internal/raster"
	"hydrogen/pos-receipts/internal/session"
	"hydrogen/pos-receipts/internal/templates"
)

// Container holds all application dependencies and provides methods to access them.
//
// Container is immutable after creation; dependencies are only reachable
// through getter methods.
type Container struct {
	logger     logging.Logger
	config     *config.Config
	registry   *templates.Registry
	rasterizer raster.Rasterizer
	session    *session.Session
}

// NewContainer creates and wires all application dependencies with a logrus
// logger configured from cfg.
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}
	return NewContainerWithLogger(cfg, logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format))
}

// NewContainerWithLogger wires the dependencies around an existing logger.
func NewContainerWithLogger(cfg *config.Config, logger logging.Logger) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	registry, err := templates.NewRegistry()
	if err != nil {
		return nil, fmt.Errorf("failed to load built-in templates: %w", err)
	}
	if cfg.Templates.File != "" {
		if err := registry.LoadFile(cfg.Templates.File); err != nil {
			return nil, err
		}
		logger.Info("Loaded custom templates", logging.F(logging.FieldFile, cfg.Templates.File))
	}

	rasterizer, err := raster.New(cfg.Capture, logger)
	if err != nil {
		return nil, err
	}

	converter := pdfexport.NewConverter(rasterizer, cfg.Capture.Scale, logger)
	archiver := batch.NewArchiver(converter, batch.Options{
		Workers:     cfg.Batch.Workers,
		ArchiveName: cfg.Output.ArchiveName,
		NameWithRRN: cfg.Output.NameWithRRN,
	}, logger)

	logger.Debug("Container initialized",
		logging.F(logging.FieldBackend, rasterizer.Name()),
		logging.F(logging.FieldWorkers, cfg.Batch.Workers),
		logging.F(logging.FieldCount, len(registry.Options())))

	return &Container{
		logger:     logger,
		config:     cfg,
		registry:   registry,
		rasterizer: rasterizer,
		session:    session.New(registry, converter, archiver, nil, logger),
	}, nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetRegistry returns the template registry.
func (c *Container) GetRegistry() *templates.Registry {
	return c.registry
}

// GetSession returns the session holding the loaded records.
func (c *Container) GetSession() *session.Session {
	return c.session
}

// Close releases the capture backend, stopping Chrome when it was started.
func (c *Container) Close() error {
	if err := raster.Close(c.rasterizer); err != nil {
		return fmt.Errorf("failed to close %s backend: %w", c.rasterizer.Name(), err)
	}
	c.logger.Debug("Container closed")
	return nil
}
