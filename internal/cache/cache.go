package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mamadbah2/husk/internal/domain/models"
)

// Keys under which the ledger mirrors its collections.
const (
	KeyCoconutInputs   = "coconutInputs"
	KeyLabourWages     = "labourWages"
	KeyClients         = "clients"
	KeyOutputs         = "outputs"
	KeyInitialCapital  = "initialCapital"
	KeyCapitalPassword = "capitalPassword"
)

type entry struct {
	Key       string `gorm:"column:key;primaryKey"`
	Value     string `gorm:"column:value"`
	UpdatedAt time.Time
}

func (entry) TableName() string { return "cache_entries" }

// Listener receives the raw JSON stored under a key after each write.
type Listener func(raw []byte)

// Store is a persistent key/value mirror of the ledger collections. Every
// successful Set notifies the key's listeners synchronously, in the writer's
// goroutine.
type Store struct {
	db     *gorm.DB
	logger *zap.Logger

	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]Listener
}

// Open creates or opens the SQLite file at path.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", path, err)
	}
	return New(ctx, db, logger)
}

// New wraps an existing handle and migrates the entry table.
func New(ctx context.Context, db *gorm.DB, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if err := db.WithContext(ctx).AutoMigrate(&entry{}); err != nil {
		return nil, fmt.Errorf("migrate cache: %w", err)
	}
	return &Store{db: db, logger: logger, subs: make(map[string]map[int]Listener)}, nil
}

// Get returns the raw value for key. ok is false when nothing was stored yet.
func (s *Store) Get(ctx context.Context, key string) (raw []byte, ok bool, err error) {
	var e entry
	err = s.db.WithContext(ctx).Where("key = ?", key).Take(&e).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read cache %q: %w", key, err)
	}
	return []byte(e.Value), true, nil
}

// Load decodes the value for key into dest. A value that does not decode
// yields a *models.ParseError.
func (s *Store) Load(ctx context.Context, key string, dest any) (bool, error) {
	raw, ok, err := s.Get(ctx, key)
	if err != nil || !ok {
		return ok, err
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return true, &models.ParseError{Key: key, Err: err}
	}
	return true, nil
}

// Set encodes v as JSON, stores it under key and notifies listeners.
func (s *Store) Set(ctx context.Context, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode cache %q: %w", key, err)
	}
	return s.SetRaw(ctx, key, raw)
}

// SetRaw stores raw under key verbatim and notifies listeners.
func (s *Store) SetRaw(ctx context.Context, key string, raw []byte) error {
	e := entry{Key: key, Value: string(raw), UpdatedAt: time.Now().UTC()}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&e).Error
	if err != nil {
		return fmt.Errorf("write cache %q: %w", key, err)
	}

	s.notify(key, raw)
	return nil
}

// Subscribe registers fn for writes to key. The returned func unregisters it.
func (s *Store) Subscribe(key string, fn Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	if s.subs[key] == nil {
		s.subs[key] = make(map[int]Listener)
	}
	s.subs[key][id] = fn

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs[key], id)
	}
}

func (s *Store) notify(key string, raw []byte) {
	s.mu.Lock()
	listeners := make([]Listener, 0, len(s.subs[key]))
	for _, fn := range s.subs[key] {
		listeners = append(listeners, fn)
	}
	s.mu.Unlock()

	s.logger.Debug("cache entry written", zap.String("key", key), zap.Int("listeners", len(listeners)))
	for _, fn := range listeners {
		fn(raw)
	}
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
