package storage

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"grid_go/internal/domain"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Storage defines the interface for data persistence
type Storage struct {
	db *gorm.DB
}

// NewStorage creates a SQLite storage instance at the OS default location.
func NewStorage() (*Storage, error) {
	dbPath, err := getDBPath()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve DB path: %w", err)
	}
	return NewStorageAt(dbPath)
}

// NewStorageAt creates a SQLite storage instance at an explicit path.
func NewStorageAt(dbPath string) (*Storage, error) {
	dbDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create DB directory: %w", err)
	}

	// Connect to SQLite (Pure Go)
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Auto Migration
	if err := db.AutoMigrate(
		&domain.OrderRecord{},
		&domain.TradeRecord{},
		&domain.BarRecord{},
		&domain.StateRecord{},
	); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return &Storage{db: db}, nil
}

// getDBPath resolves the database file path based on OS
func getDBPath() (string, error) {
	var configDir string
	var err error

	if runtime.GOOS == "windows" {
		configDir = os.Getenv("LOCALAPPDATA")
		if configDir == "" {
			configDir, err = os.UserConfigDir()
		}
	} else {
		configDir, err = os.UserConfigDir()
	}

	if err != nil {
		return "", err
	}

	return filepath.Join(configDir, "GridGo", "data", "gridgo.db"), nil
}

// ======================================================================================
// Order Operations
// ======================================================================================

// SaveOrder creates or updates an order record
func (s *Storage) SaveOrder(order *domain.OrderRecord) error {
	return s.db.Save(order).Error
}

// UpdateOrderStatus updates the status of an existing order
func (s *Storage) UpdateOrderStatus(orderID, status string) error {
	return s.db.Model(&domain.OrderRecord{}).
		Where("order_id = ?", orderID).
		Update("status", status).Error
}

// OpenOrders retrieves all orders still awaiting a terminal status
func (s *Storage) OpenOrders(symbol string) ([]domain.OrderRecord, error) {
	var orders []domain.OrderRecord
	err := s.db.Where("symbol = ? AND status = ?", symbol, "NEW").Find(&orders).Error
	return orders, err
}

// ======================================================================================
// Trade Operations
// ======================================================================================

// SaveTrade appends a fill record
func (s *Storage) SaveTrade(trade *domain.TradeRecord) error {
	return s.db.Create(trade).Error
}

// Trades retrieves all fills for a symbol ordered by time
func (s *Storage) Trades(symbol string) ([]domain.TradeRecord, error) {
	var trades []domain.TradeRecord
	err := s.db.Where("symbol = ?", symbol).Order("ts asc").Find(&trades).Error
	return trades, err
}

// ======================================================================================
// Bar Operations
// ======================================================================================

// SaveBars upserts a batch of candles, keyed by symbol and timestamp
func (s *Storage) SaveBars(bars []domain.BarRecord) error {
	if len(bars) == 0 {
		return nil
	}
	return s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "symbol"}, {Name: "ts"}},
		UpdateAll: true,
	}).Create(&bars).Error
}

// LoadBars retrieves candles for a symbol within [startTs, endTs], ordered by time
func (s *Storage) LoadBars(symbol string, startTs, endTs int64) ([]domain.BarRecord, error) {
	var bars []domain.BarRecord
	err := s.db.Where("symbol = ? AND ts >= ? AND ts <= ?", symbol, startTs, endTs).
		Order("ts asc").Find(&bars).Error
	return bars, err
}

// ======================================================================================
// State Operations
// ======================================================================================

// SaveState overwrites the published state row for a symbol
func (s *Storage) SaveState(state *domain.StateRecord) error {
	return s.db.Save(state).Error
}

// LoadState retrieves the last published state for a symbol, nil when absent
func (s *Storage) LoadState(symbol string) (*domain.StateRecord, error) {
	var state domain.StateRecord
	err := s.db.First(&state, "symbol = ?", symbol).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &state, nil
}
