package recordstore

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mamadbah2/husk/internal/config"
	"github.com/mamadbah2/husk/internal/domain/models"
)

// Store persists purchase inputs, labour wages and clients. A Store starts
// uninitialized; every operation fails with a *models.StateError until Init
// succeeds, after which the handle lives for the rest of the process.
type Store struct {
	mu     sync.RWMutex
	db     *gorm.DB
	logger *zap.Logger
}

// New returns an uninitialized store.
func New(logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{logger: logger}
}

// Open connects to the configured relational backend.
func Open(cfg config.DatabaseConfig) (*gorm.DB, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	level := gormlogger.Silent
	if cfg.Debug {
		level = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:         gormlogger.Default.LogMode(level),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s database: %w", cfg.Driver, err)
	}
	return db, nil
}

// Init migrates the record tables and marks the store ready.
func (s *Store) Init(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return &models.StateError{Component: "recordstore", Reason: "nil database handle"}
	}
	if err := db.WithContext(ctx).AutoMigrate(&purchaseRow{}, &wageRow{}, &clientRow{}); err != nil {
		return fmt.Errorf("migrate record tables: %w", err)
	}

	s.mu.Lock()
	s.db = db
	s.mu.Unlock()

	s.logger.Info("record store initialized")
	return nil
}

// Initialized reports whether Init has completed.
func (s *Store) Initialized() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.db != nil
}

// Ping checks the underlying connection.
func (s *Store) Ping(ctx context.Context) error {
	db, err := s.handle(ctx)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("unwrap sql handle: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the database connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	s.db = nil
	return sqlDB.Close()
}

func (s *Store) handle(ctx context.Context) (*gorm.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, &models.StateError{Component: "recordstore", Reason: "not initialized"}
	}
	return s.db.WithContext(ctx), nil
}
