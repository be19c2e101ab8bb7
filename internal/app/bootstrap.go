package app

import (
	"log/slog"

	"grid_go/internal/infra"
	"grid_go/internal/infra/storage"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config  *infra.Config
	Storage *storage.Storage
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize performs core system initialization (config, logger, DB)
func (b *Bootstrap) Initialize(configPath string) error {
	slog.Info("Bootstrapping Grid Go...")

	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)

	// 3. Initialize Storage (DB)
	var store *storage.Storage
	if cfg.Storage.Path != "" {
		store, err = storage.NewStorageAt(cfg.Storage.Path)
	} else {
		store, err = storage.NewStorage()
	}
	if err != nil {
		return err
	}
	b.Storage = store
	slog.Info("Database initialized")

	return nil
}
