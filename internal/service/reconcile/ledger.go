package reconcile

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mamadbah2/husk/internal/cache"
	"github.com/mamadbah2/husk/internal/domain/models"
)

// RemoteStore is the record store as seen by the ledger.
type RemoteStore interface {
	ListPurchaseInputs(ctx context.Context) ([]models.PurchaseInput, error)
	CreatePurchaseInput(ctx context.Context, p models.PurchaseInput) error
	UpdatePurchaseInput(ctx context.Context, p models.PurchaseInput) error
	DeletePurchaseInput(ctx context.Context, id string) error

	ListLabourWages(ctx context.Context) ([]models.LabourWage, error)
	CreateLabourWage(ctx context.Context, w models.LabourWage) error
	UpdateLabourWage(ctx context.Context, w models.LabourWage) error
	DeleteLabourWage(ctx context.Context, id string) error

	CreateClient(ctx context.Context, c models.Client) error
	DeleteClient(ctx context.Context, id string) error
}

// CapitalLedger absorbs the cost of every new purchase.
type CapitalLedger interface {
	Deduct(ctx context.Context, amount decimal.Decimal) (decimal.Decimal, error)
}

// Option customizes a Ledger.
type Option func(*Ledger)

// WithClock overrides the time source used to date new records.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) { l.now = now }
}

// Ledger holds the session's view of every record collection. Writes are
// applied in memory first, then offered once to the record store and always
// mirrored into the cache. A nil remote runs the ledger in local-only mode.
type Ledger struct {
	remote  RemoteStore
	cache   *cache.Store
	capital CapitalLedger
	logger  *zap.Logger
	now     func() time.Time

	mu        sync.RWMutex
	purchases []models.PurchaseInput
	wages     []models.LabourWage
	outputs   []models.OutputProduct
	clients   []models.Client
	lastSync  map[Kind]time.Time

	obsMu     sync.Mutex
	nextObs   int
	observers map[int]func(Kind)
	unsubs    []func()
}

// New builds a ledger subscribed to cache writes from every session sharing c.
func New(remote RemoteStore, c *cache.Store, capital CapitalLedger, logger *zap.Logger, opts ...Option) *Ledger {
	if logger == nil {
		logger = zap.NewNop()
	}
	l := &Ledger{
		remote:    remote,
		cache:     c,
		capital:   capital,
		logger:    logger,
		now:       time.Now,
		lastSync:  make(map[Kind]time.Time),
		observers: make(map[int]func(Kind)),
	}
	for _, opt := range opts {
		opt(l)
	}

	l.unsubs = []func(){
		c.Subscribe(cache.KeyCoconutInputs, func(raw []byte) { replace(l, KindPurchases, raw, &l.purchases) }),
		c.Subscribe(cache.KeyLabourWages, func(raw []byte) { replace(l, KindWages, raw, &l.wages) }),
		c.Subscribe(cache.KeyOutputs, func(raw []byte) { replace(l, KindOutputs, raw, &l.outputs) }),
		c.Subscribe(cache.KeyClients, func(raw []byte) { replace(l, KindClients, raw, &l.clients) }),
	}
	return l
}

// LocalOnly reports whether the ledger runs without a record store.
func (l *Ledger) LocalOnly() bool { return l.remote == nil }

// Close stops listening to cache writes.
func (l *Ledger) Close() {
	for _, unsub := range l.unsubs {
		unsub()
	}
	l.unsubs = nil
}

// Observe registers fn to run after any collection changes in memory.
func (l *Ledger) Observe(fn func(Kind)) func() {
	l.obsMu.Lock()
	defer l.obsMu.Unlock()
	id := l.nextObs
	l.nextObs++
	l.observers[id] = fn
	return func() {
		l.obsMu.Lock()
		defer l.obsMu.Unlock()
		delete(l.observers, id)
	}
}

func (l *Ledger) notify(kind Kind) {
	l.obsMu.Lock()
	fns := make([]func(Kind), 0, len(l.observers))
	for _, fn := range l.observers {
		fns = append(fns, fn)
	}
	l.obsMu.Unlock()

	for _, fn := range fns {
		fn(kind)
	}
}

// LastSynced returns when kind was last confirmed by the record store.
func (l *Ledger) LastSynced(kind Kind) (time.Time, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	t, ok := l.lastSync[kind]
	return t, ok
}

func (l *Ledger) markSynced(kind Kind) {
	l.mu.Lock()
	l.lastSync[kind] = l.now()
	l.mu.Unlock()
}

// LoadAll refreshes every collection.
func (l *Ledger) LoadAll(ctx context.Context) map[Kind]Source {
	out := make(map[Kind]Source, 4)
	for _, kind := range []Kind{KindPurchases, KindWages, KindOutputs, KindClients} {
		out[kind] = l.Load(ctx, kind)
	}
	return out
}

// Load makes one attempt to list kind from the record store and falls back
// to the cached copy on any failure. Outputs and clients always come from
// the cache.
func (l *Ledger) Load(ctx context.Context, kind Kind) Source {
	switch kind {
	case KindPurchases:
		var list func(context.Context) ([]models.PurchaseInput, error)
		if l.remote != nil {
			list = l.remote.ListPurchaseInputs
		}
		return load(ctx, l, kind, cache.KeyCoconutInputs, list, &l.purchases)
	case KindWages:
		var list func(context.Context) ([]models.LabourWage, error)
		if l.remote != nil {
			list = l.remote.ListLabourWages
		}
		return load(ctx, l, kind, cache.KeyLabourWages, list, &l.wages)
	case KindOutputs:
		return load[models.OutputProduct](ctx, l, kind, cache.KeyOutputs, nil, &l.outputs)
	default:
		return load[models.Client](ctx, l, kind, cache.KeyClients, nil, &l.clients)
	}
}

func load[T any](ctx context.Context, l *Ledger, kind Kind, key string, list func(context.Context) ([]T, error), dst *[]T) Source {
	if list != nil {
		items, err := list(ctx)
		if err == nil {
			if items == nil {
				items = []T{}
			}
			l.mu.Lock()
			*dst = items
			l.lastSync[kind] = l.now()
			l.mu.Unlock()
			l.notify(kind)

			if err := l.cache.Set(ctx, key, items); err != nil {
				l.logger.Warn("mirror collection to cache", zap.String("kind", string(kind)), zap.Error(err))
			}
			return FromRemote
		}
		l.logger.Warn("record store unavailable, using cache", zap.String("kind", string(kind)), zap.Error(err))
	}

	var items []T
	if _, err := l.cache.Load(ctx, key, &items); err != nil {
		l.logger.Warn("discard unreadable cache entry", zap.String("key", key), zap.Error(err))
		items = nil
	}
	l.mu.Lock()
	*dst = items
	l.mu.Unlock()
	l.notify(kind)
	return FromCache
}

// replace swaps in a collection written by any session sharing the cache.
func replace[T any](l *Ledger, kind Kind, raw []byte, dst *[]T) {
	var items []T
	if err := json.Unmarshal(raw, &items); err != nil {
		l.logger.Warn("discard unreadable cache notification", zap.String("kind", string(kind)), zap.Error(err))
		items = nil
	}
	l.mu.Lock()
	*dst = items
	l.mu.Unlock()
	l.notify(kind)
}

// persist runs phase 2 of a write: one record store attempt, then the cache
// mirror. Failures are absorbed into the Result.
func (l *Ledger) persist(ctx context.Context, kind Kind, op Op, id string, call func(context.Context, RemoteStore) error) Result {
	res := Result{Kind: kind, Op: op, ID: id, Outcome: SavedLocally}
	if l.remote != nil {
		if err := call(ctx, l.remote); err != nil {
			res.Err = err
			log := l.logger.Warn
			if kind == KindClients {
				// The cache holds the authoritative client list.
				log = l.logger.Debug
			}
			log("record store write failed, kept locally",
				zap.String("kind", string(kind)), zap.String("op", string(op)), zap.String("id", id), zap.Error(err))
		} else {
			res.Outcome = Synced
			l.markSynced(kind)
		}
	}
	l.mirror(ctx, kind)
	return res
}

// mirror writes the current in-memory collection to the cache.
func (l *Ledger) mirror(ctx context.Context, kind Kind) error {
	var (
		key   string
		value any
	)
	l.mu.RLock()
	switch kind {
	case KindPurchases:
		key, value = cache.KeyCoconutInputs, clone(l.purchases)
	case KindWages:
		key, value = cache.KeyLabourWages, clone(l.wages)
	case KindOutputs:
		key, value = cache.KeyOutputs, clone(l.outputs)
	default:
		key, value = cache.KeyClients, clone(l.clients)
	}
	l.mu.RUnlock()

	if err := l.cache.Set(ctx, key, value); err != nil {
		l.logger.Error("mirror collection to cache", zap.String("kind", string(kind)), zap.Error(err))
		return err
	}
	return nil
}

func clone[T any](items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	return out
}

func indexOf[T any](items []T, id string, idOf func(T) string) int {
	for i, item := range items {
		if idOf(item) == id {
			return i
		}
	}
	return -1
}

func without[T any](items []T, id string, idOf func(T) string) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if idOf(item) != id {
			out = append(out, item)
		}
	}
	return out
}
