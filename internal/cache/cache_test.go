package cache

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mamadbah2/husk/internal/domain/models"
)

func setupCache(t *testing.T) *Store {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	s, err := New(context.Background(), db, nil)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	return s
}

func TestStore_LoadMissingKey(t *testing.T) {
	s := setupCache(t)
	var dest []models.Client
	ok, err := s.Load(context.Background(), KeyClients, &dest)
	if err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}
}

func TestStore_SetOverwritesAndLoads(t *testing.T) {
	s := setupCache(t)
	ctx := context.Background()

	if err := s.Set(ctx, KeyClients, []models.Client{{ID: "1", Name: "A"}}); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := s.Set(ctx, KeyClients, []models.Client{{ID: "2", Name: "B"}, {ID: "3", Name: "C"}}); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	var got []models.Client
	ok, err := s.Load(ctx, KeyClients, &got)
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if len(got) != 2 || got[0].Name != "B" {
		t.Fatalf("expected last write to win, got %+v", got)
	}
}

func TestStore_LoadMalformedValue(t *testing.T) {
	s := setupCache(t)
	ctx := context.Background()
	if err := s.SetRaw(ctx, KeyOutputs, []byte("{not json")); err != nil {
		t.Fatalf("set raw: %v", err)
	}

	var dest []models.OutputProduct
	_, err := s.Load(ctx, KeyOutputs, &dest)
	var parseErr *models.ParseError
	if !errors.As(err, &parseErr) || parseErr.Key != KeyOutputs {
		t.Fatalf("expected ParseError for %q, got %v", KeyOutputs, err)
	}
}

func TestStore_SubscribeNotifiesSynchronously(t *testing.T) {
	s := setupCache(t)
	ctx := context.Background()

	var seen []string
	cancel := s.Subscribe(KeyInitialCapital, func(raw []byte) { seen = append(seen, string(raw)) })
	other := 0
	s.Subscribe(KeyClients, func([]byte) { other++ })

	if err := s.Set(ctx, KeyInitialCapital, 750); err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(seen) != 1 || seen[0] != "750" {
		t.Fatalf("listener should have run before Set returned, saw %v", seen)
	}
	if other != 0 {
		t.Fatalf("listeners of other keys must not fire, got %d", other)
	}

	cancel()
	if err := s.Set(ctx, KeyInitialCapital, 500); err != nil {
		t.Fatalf("set: %v", err)
	}
	if len(seen) != 1 {
		t.Fatalf("cancelled listener still notified: %v", seen)
	}
}
