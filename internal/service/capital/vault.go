package capital

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/husk/internal/cache"
	"github.com/mamadbah2/husk/internal/domain/models"
)

var (
	// ErrLocked is returned while the capital panel has not been unlocked.
	ErrLocked = errors.New("capital panel is locked")
	// ErrWrongPassphrase is returned by Unlock on a mismatch.
	ErrWrongPassphrase = errors.New("incorrect passphrase")
)

// Settings are the operator-editable capital settings. Zero values leave the
// stored setting unchanged.
type Settings struct {
	Capital    *decimal.Decimal
	Passphrase string
	Confirm    string
}

// Vault guards the running capital figure behind a shared passphrase. Both
// live in the cache so every session sees the same values.
type Vault struct {
	cache             *cache.Store
	defaultPassphrase string
	logger            *zap.Logger

	mu       sync.Mutex
	unlocked bool

	// writeMu serializes read-modify-write cycles on the capital entry.
	writeMu sync.Mutex
}

// NewVault returns a locked vault. defaultPassphrase applies until the
// operator stores one.
func NewVault(c *cache.Store, defaultPassphrase string, logger *zap.Logger) *Vault {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Vault{cache: c, defaultPassphrase: defaultPassphrase, logger: logger}
}

// Unlock opens the panel when passphrase matches the stored one exactly.
func (v *Vault) Unlock(ctx context.Context, passphrase string) error {
	stored, err := v.passphrase(ctx)
	if err != nil {
		return err
	}
	if passphrase != stored {
		v.logger.Info("capital unlock rejected")
		return ErrWrongPassphrase
	}

	v.mu.Lock()
	v.unlocked = true
	v.mu.Unlock()
	return nil
}

// Lock closes the panel.
func (v *Vault) Lock() {
	v.mu.Lock()
	v.unlocked = false
	v.mu.Unlock()
}

// Unlocked reports whether the panel is open.
func (v *Vault) Unlocked() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.unlocked
}

// Capital returns the running capital. It requires an unlocked panel.
func (v *Vault) Capital(ctx context.Context) (decimal.Decimal, error) {
	if !v.Unlocked() {
		return decimal.Zero, ErrLocked
	}
	return v.current(ctx)
}

// UpdateSettings stores a new capital figure and/or passphrase. It requires
// an unlocked panel and changes nothing when any field is invalid.
func (v *Vault) UpdateSettings(ctx context.Context, s Settings) error {
	if !v.Unlocked() {
		return ErrLocked
	}

	violations := make(models.Violations)
	if s.Capital != nil && s.Capital.IsNegative() {
		violations["capital"] = "must_not_be_negative"
	}
	if s.Passphrase != s.Confirm {
		violations["passphrase"] = "confirmation_mismatch"
	}
	if err := violations.Err(); err != nil {
		return err
	}

	if s.Capital != nil {
		v.writeMu.Lock()
		err := v.cache.Set(ctx, cache.KeyInitialCapital, *s.Capital)
		v.writeMu.Unlock()
		if err != nil {
			return fmt.Errorf("store capital: %w", err)
		}
	}
	if s.Passphrase != "" {
		if err := v.cache.Set(ctx, cache.KeyCapitalPassword, s.Passphrase); err != nil {
			return fmt.Errorf("store passphrase: %w", err)
		}
		v.logger.Info("capital passphrase changed")
	}
	return nil
}

// Deduct subtracts amount from capital and returns the new figure. It does
// not require an unlocked panel. Listeners registered with OnChange run
// before Deduct returns.
func (v *Vault) Deduct(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error) {
	v.writeMu.Lock()
	defer v.writeMu.Unlock()

	current, err := v.current(ctx)
	if err != nil {
		return decimal.Zero, err
	}
	next := current.Sub(amount)
	if err := v.cache.Set(ctx, cache.KeyInitialCapital, next); err != nil {
		return decimal.Zero, fmt.Errorf("store capital: %w", err)
	}
	v.logger.Debug("capital deducted", zap.String("amount", amount.String()), zap.String("capital", next.String()))
	return next, nil
}

// OnChange calls fn with every capital figure written by any session.
func (v *Vault) OnChange(fn func(decimal.Decimal)) func() {
	return v.cache.Subscribe(cache.KeyInitialCapital, func(raw []byte) {
		var value decimal.Decimal
		if err := json.Unmarshal(raw, &value); err != nil {
			v.logger.Warn("discard unreadable capital notification", zap.Error(err))
			return
		}
		fn(value)
	})
}

func (v *Vault) current(ctx context.Context) (decimal.Decimal, error) {
	var value decimal.Decimal
	ok, err := v.cache.Load(ctx, cache.KeyInitialCapital, &value)
	var parseErr *models.ParseError
	switch {
	case errors.As(err, &parseErr):
		v.logger.Warn("stored capital unreadable, using zero", zap.Error(err))
		return decimal.Zero, nil
	case err != nil:
		return decimal.Zero, err
	case !ok:
		return decimal.Zero, nil
	}
	return value, nil
}

func (v *Vault) passphrase(ctx context.Context) (string, error) {
	var stored string
	ok, err := v.cache.Load(ctx, cache.KeyCapitalPassword, &stored)
	var parseErr *models.ParseError
	switch {
	case errors.As(err, &parseErr):
		v.logger.Warn("stored passphrase unreadable, using default", zap.Error(err))
		return v.defaultPassphrase, nil
	case err != nil:
		return "", err
	case !ok || stored == "":
		return v.defaultPassphrase, nil
	}
	return stored, nil
}
