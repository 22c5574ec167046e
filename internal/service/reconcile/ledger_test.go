package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mamadbah2/husk/internal/cache"
	"github.com/mamadbah2/husk/internal/domain/models"
	"github.com/mamadbah2/husk/internal/service/capital"
)

var errUnreachable = &models.TransportError{Op: "test", Err: errors.New("connection refused")}

// fakeRemote is an in-memory record store. Setting err makes every call fail.
type fakeRemote struct {
	mu        sync.Mutex
	err       error
	purchases []models.PurchaseInput
	wages     []models.LabourWage
	clients   []models.Client
	calls     []string

	// block, when set, stalls CreatePurchaseInput until it is closed.
	block   chan struct{}
	entered chan struct{}
}

func (f *fakeRemote) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeRemote) ListPurchaseInputs(context.Context) ([]models.PurchaseInput, error) {
	if err := f.record("list purchases"); err != nil {
		return nil, err
	}
	return clone(f.purchases), nil
}

func (f *fakeRemote) CreatePurchaseInput(_ context.Context, p models.PurchaseInput) error {
	if f.block != nil {
		close(f.entered)
		<-f.block
	}
	if err := f.record("create purchase"); err != nil {
		return err
	}
	f.purchases = append(f.purchases, p)
	return nil
}

func (f *fakeRemote) UpdatePurchaseInput(context.Context, models.PurchaseInput) error {
	return f.record("update purchase")
}

func (f *fakeRemote) DeletePurchaseInput(context.Context, string) error {
	return f.record("delete purchase")
}

func (f *fakeRemote) ListLabourWages(context.Context) ([]models.LabourWage, error) {
	if err := f.record("list wages"); err != nil {
		return nil, err
	}
	return clone(f.wages), nil
}

func (f *fakeRemote) CreateLabourWage(context.Context, models.LabourWage) error {
	return f.record("create wage")
}

func (f *fakeRemote) UpdateLabourWage(context.Context, models.LabourWage) error {
	return f.record("update wage")
}

func (f *fakeRemote) DeleteLabourWage(context.Context, string) error {
	return f.record("delete wage")
}

func (f *fakeRemote) CreateClient(_ context.Context, c models.Client) error {
	if err := f.record("create client"); err != nil {
		return err
	}
	f.clients = append(f.clients, c)
	return nil
}

func (f *fakeRemote) DeleteClient(context.Context, string) error {
	return f.record("delete client")
}

func setupCache(t *testing.T) *cache.Store {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	c, err := cache.New(context.Background(), db, nil)
	if err != nil {
		t.Fatalf("new cache: %v", err)
	}
	return c
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

var fixedNow = time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)

func newLedger(t *testing.T, remote RemoteStore, c *cache.Store, vault CapitalLedger) *Ledger {
	t.Helper()
	l := New(remote, c, vault, nil, WithClock(func() time.Time { return fixedNow }))
	t.Cleanup(l.Close)
	return l
}

func TestCreatePurchaseSyncedDeductsCapital(t *testing.T) {
	ctx := context.Background()
	c := setupCache(t)
	if err := c.Set(ctx, cache.KeyInitialCapital, dec("1000")); err != nil {
		t.Fatalf("seed capital: %v", err)
	}
	vault := capital.NewVault(c, "pw", nil)
	var broadcast []decimal.Decimal
	vault.OnChange(func(d decimal.Decimal) { broadcast = append(broadcast, d) })

	remote := &fakeRemote{}
	l := newLedger(t, remote, c, vault)

	p, res, err := l.CreatePurchase(ctx, models.PurchaseFields{Count: 100, PricePerUnit: dec("2.50"), ClientName: "Alice"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !p.TotalPrice.Equal(dec("250")) || models.FormatMoney(p.TotalPrice) != "250.00" {
		t.Fatalf("total = %s, want 250.00", p.TotalPrice)
	}
	if res.Outcome != Synced || res.Err != nil {
		t.Fatalf("expected synced result, got %+v", res)
	}
	if len(broadcast) != 1 || !broadcast[0].Equal(dec("750")) {
		t.Fatalf("expected capital broadcast of 750, got %v", broadcast)
	}
	if _, ok := l.LastSynced(KindPurchases); !ok {
		t.Fatal("a synced write must advance the durable marker")
	}

	var cached []models.PurchaseInput
	if _, err := c.Load(ctx, cache.KeyCoconutInputs, &cached); err != nil || len(cached) != 1 || cached[0].ID != p.ID {
		t.Fatalf("cache not mirrored: %+v, %v", cached, err)
	}
	if len(remote.purchases) != 1 {
		t.Fatalf("remote did not receive the purchase")
	}
}

func TestCreatePurchaseOfflineKeepsLocalState(t *testing.T) {
	ctx := context.Background()
	c := setupCache(t)
	vault := capital.NewVault(c, "pw", nil)
	l := newLedger(t, &fakeRemote{err: errUnreachable}, c, vault)

	p, res, err := l.CreatePurchase(ctx, models.PurchaseFields{Count: 4, PricePerUnit: dec("5"), ClientName: "Bob"})
	if err != nil {
		t.Fatalf("transport failures must not surface: %v", err)
	}
	if res.Outcome != SavedLocally || res.Message() != "Saved locally (server unavailable)" {
		t.Fatalf("unexpected result %+v (%s)", res, res.Message())
	}
	if !errors.Is(res.Err, errUnreachable) {
		t.Fatalf("absorbed error should be reported, got %v", res.Err)
	}
	if got := l.Purchases(); len(got) != 1 || got[0].ID != p.ID {
		t.Fatalf("phase 1 was reverted: %+v", got)
	}
	if _, ok := l.LastSynced(KindPurchases); ok {
		t.Fatal("a failed write must not advance the durable marker")
	}

	var cached []models.PurchaseInput
	if _, err := c.Load(ctx, cache.KeyCoconutInputs, &cached); err != nil || len(cached) != 1 {
		t.Fatalf("speculative state not cached: %+v, %v", cached, err)
	}
	if err := vault.Unlock(ctx, "pw"); err != nil {
		t.Fatalf("unlock: %v", err)
	}
	if got, _ := vault.Capital(ctx); !got.Equal(dec("-20")) {
		t.Fatalf("capital = %s, want -20", got)
	}
}

func TestCreatePurchaseRejectsInvalidFields(t *testing.T) {
	c := setupCache(t)
	remote := &fakeRemote{}
	l := newLedger(t, remote, c, nil)

	_, _, err := l.CreatePurchase(context.Background(), models.PurchaseFields{Count: 0, PricePerUnit: dec("1"), ClientName: "A"})
	if !models.IsValidation(err) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(l.Purchases()) != 0 || len(remote.calls) != 0 {
		t.Fatal("validation failures must not change any state")
	}
}

func TestPhaseOneVisibleWhileRemoteInFlight(t *testing.T) {
	c := setupCache(t)
	remote := &fakeRemote{block: make(chan struct{}), entered: make(chan struct{})}
	l := newLedger(t, remote, c, nil)

	var seen []Kind
	var seenMu sync.Mutex
	l.Observe(func(k Kind) {
		seenMu.Lock()
		seen = append(seen, k)
		seenMu.Unlock()
	})

	done := make(chan Result)
	go func() {
		_, res, _ := l.CreatePurchase(context.Background(), models.PurchaseFields{Count: 1, PricePerUnit: dec("1"), ClientName: "A"})
		done <- res
	}()

	<-remote.entered
	if got := l.Purchases(); len(got) != 1 {
		t.Fatalf("phase 1 should be visible before the store answers, got %d", len(got))
	}
	seenMu.Lock()
	if len(seen) == 0 || seen[0] != KindPurchases {
		t.Fatalf("observers should have been notified in phase 1, got %v", seen)
	}
	seenMu.Unlock()

	close(remote.block)
	if res := <-done; res.Outcome != Synced {
		t.Fatalf("expected synced, got %+v", res)
	}
}

func TestLoadFallsBackToCache(t *testing.T) {
	ctx := context.Background()
	c := setupCache(t)
	cached := []models.LabourWage{{ID: "w1", Date: fixedNow, WorkerName: "Ravi", Days: dec("1"), RatePerDay: dec("10"), TotalWage: dec("10")}}
	if err := c.Set(ctx, cache.KeyLabourWages, cached); err != nil {
		t.Fatalf("seed: %v", err)
	}

	l := newLedger(t, &fakeRemote{err: errUnreachable}, c, nil)
	if src := l.Load(ctx, KindWages); src != FromCache {
		t.Fatalf("expected cache fallback, got %s", src)
	}
	if got := l.Wages(); len(got) != 1 || got[0].ID != "w1" {
		t.Fatalf("expected cached wages, got %+v", got)
	}

	if src := l.Load(ctx, KindPurchases); src != FromCache || len(l.Purchases()) != 0 {
		t.Fatalf("never-cached kind should load empty from cache")
	}
}

func TestLoadFromRemoteMirrorsCache(t *testing.T) {
	ctx := context.Background()
	c := setupCache(t)
	remote := &fakeRemote{purchases: []models.PurchaseInput{{ID: "p1", Date: fixedNow, Count: 1, PricePerUnit: dec("1"), TotalPrice: dec("1"), ClientName: "A", PaymentStatus: models.PaymentPaid}}}
	l := newLedger(t, remote, c, nil)

	if src := l.Load(ctx, KindPurchases); src != FromRemote {
		t.Fatalf("expected remote load, got %s", src)
	}
	var cached []models.PurchaseInput
	if ok, err := c.Load(ctx, cache.KeyCoconutInputs, &cached); !ok || err != nil || len(cached) != 1 {
		t.Fatalf("remote result not mirrored: ok=%v err=%v %+v", ok, err, cached)
	}
	if _, ok := l.LastSynced(KindPurchases); !ok {
		t.Fatal("remote load should mark the collection synced")
	}
}

func TestLoadTreatsMalformedCacheAsEmpty(t *testing.T) {
	ctx := context.Background()
	c := setupCache(t)
	if err := c.SetRaw(ctx, cache.KeyOutputs, []byte("[{oops")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	l := newLedger(t, nil, c, nil)
	if src := l.Load(ctx, KindOutputs); src != FromCache {
		t.Fatalf("outputs always load from cache, got %s", src)
	}
	if len(l.Outputs()) != 0 {
		t.Fatal("malformed cache should load as empty")
	}
}

func TestLocalOnlyMode(t *testing.T) {
	ctx := context.Background()
	c := setupCache(t)
	l := newLedger(t, nil, c, nil)
	if !l.LocalOnly() {
		t.Fatal("nil remote should mean local-only")
	}

	w, res, err := l.CreateWage(ctx, models.WageFields{WorkerName: "Ravi", Days: dec("2"), RatePerDay: dec("300")})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if res.Outcome != SavedLocally || res.Err != nil {
		t.Fatalf("unexpected result %+v", res)
	}

	_, res, err = l.UpdateWage(ctx, w.ID, models.WageFields{WorkerName: "Ravi", Days: dec("3"), RatePerDay: dec("300")})
	if err != nil || res.Message() != "Updated locally (server unavailable)" {
		t.Fatalf("update: %+v %v", res, err)
	}
	if got := l.Wages(); !got[0].TotalWage.Equal(dec("900")) {
		t.Fatalf("total wage = %s, want 900", got[0].TotalWage)
	}

	if res := l.DeleteWage(ctx, w.ID); res.Message() != "Deleted locally (server unavailable)" {
		t.Fatalf("delete: %+v", res)
	}
	if len(l.Wages()) != 0 {
		t.Fatal("wage not removed")
	}
}

func TestUpdateUnknownPurchase(t *testing.T) {
	l := newLedger(t, &fakeRemote{}, setupCache(t), nil)
	_, _, err := l.UpdatePurchase(context.Background(), "missing", models.PurchaseFields{Count: 1, PricePerUnit: dec("1"), ClientName: "A"})
	if !models.IsNotFound(err) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestUpdatePurchaseSynced(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{}
	l := newLedger(t, remote, setupCache(t), nil)
	p, _, _ := l.CreatePurchase(ctx, models.PurchaseFields{Count: 1, PricePerUnit: dec("1"), ClientName: "A"})

	updated, res, err := l.UpdatePurchase(ctx, p.ID, models.PurchaseFields{Count: 3, PricePerUnit: dec("2"), ClientName: "B", PaymentStatus: models.PaymentPartial})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if res.Outcome != Synced || res.Message() != "Coconut input updated successfully" {
		t.Fatalf("unexpected result %+v (%s)", res, res.Message())
	}
	if !updated.TotalPrice.Equal(dec("6")) || !updated.Date.Equal(p.Date) {
		t.Fatalf("unexpected update %+v", updated)
	}
}

func TestSessionsShareCacheWrites(t *testing.T) {
	ctx := context.Background()
	c := setupCache(t)
	a := newLedger(t, &fakeRemote{err: errUnreachable}, c, nil)
	b := newLedger(t, nil, c, nil)

	var notified []Kind
	a.Observe(func(k Kind) { notified = append(notified, k) })

	if _, err := b.AddOutput(ctx, models.ProductHusk, dec("3"), dec("40")); err != nil {
		t.Fatalf("add output: %v", err)
	}
	if got := a.Outputs(); len(got) != 1 || !got[0].TotalPrice.Equal(dec("120")) {
		t.Fatalf("session A did not see session B's output: %+v", got)
	}
	if len(notified) == 0 || notified[len(notified)-1] != KindOutputs {
		t.Fatalf("session A observers not notified: %v", notified)
	}
}

func TestClients(t *testing.T) {
	ctx := context.Background()
	remote := &fakeRemote{err: errUnreachable}
	l := newLedger(t, remote, setupCache(t), nil)

	c, _, err := l.AddClient(ctx, "  Alice ")
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if c.Name != "Alice" {
		t.Fatalf("name not trimmed: %q", c.Name)
	}
	if _, _, err := l.AddClient(ctx, "Alice"); !models.IsValidation(err) {
		t.Fatalf("duplicate should fail, got %v", err)
	}
	if _, _, err := l.AddClient(ctx, "   "); !models.IsValidation(err) {
		t.Fatalf("blank should fail, got %v", err)
	}
	if len(l.Clients()) != 1 {
		t.Fatalf("expected one client, got %+v", l.Clients())
	}

	l.DeleteClient(ctx, c.ID)
	if len(l.Clients()) != 0 {
		t.Fatal("client not removed")
	}
}

func TestDeleteOutput(t *testing.T) {
	ctx := context.Background()
	l := newLedger(t, nil, setupCache(t), nil)
	o, err := l.AddOutput(ctx, models.ProductShell, dec("10"), dec("4"))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := l.AddOutput(ctx, models.ProductShell, dec("0"), dec("4")); !models.IsValidation(err) {
		t.Fatalf("zero weight should fail, got %v", err)
	}
	if err := l.DeleteOutput(ctx, o.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := l.DeleteOutput(ctx, "unknown"); err != nil {
		t.Fatalf("deleting unknown output: %v", err)
	}
	if len(l.Outputs()) != 0 {
		t.Fatal("output not removed")
	}
}

func TestDeleteUnknownIDLeavesCollectionsUnchanged(t *testing.T) {
	ctx := context.Background()
	c := setupCache(t)
	l := newLedger(t, &fakeRemote{}, c, nil)

	p, _, err := l.CreatePurchase(ctx, models.PurchaseFields{Count: 10, PricePerUnit: dec("3"), ClientName: "Alice"})
	if err != nil {
		t.Fatalf("create purchase: %v", err)
	}
	w, _, err := l.CreateWage(ctx, models.WageFields{WorkerName: "Ravi", Days: dec("1"), RatePerDay: dec("500")})
	if err != nil {
		t.Fatalf("create wage: %v", err)
	}

	if res := l.DeletePurchase(ctx, "unknown"); res.Outcome != Synced {
		t.Fatalf("delete unknown purchase outcome = %s", res.Outcome)
	}
	if res := l.DeleteWage(ctx, "unknown"); res.Outcome != Synced {
		t.Fatalf("delete unknown wage outcome = %s", res.Outcome)
	}

	if got := l.Purchases(); len(got) != 1 || got[0].ID != p.ID {
		t.Fatalf("purchases changed: %+v", got)
	}
	if got := l.Wages(); len(got) != 1 || got[0].ID != w.ID {
		t.Fatalf("wages changed: %+v", got)
	}

	var cached []models.PurchaseInput
	if _, err := c.Load(ctx, cache.KeyCoconutInputs, &cached); err != nil || len(cached) != 1 || cached[0].ID != p.ID {
		t.Fatalf("cached purchases changed: %+v, %v", cached, err)
	}
	var cachedWages []models.LabourWage
	if _, err := c.Load(ctx, cache.KeyLabourWages, &cachedWages); err != nil || len(cachedWages) != 1 || cachedWages[0].ID != w.ID {
		t.Fatalf("cached wages changed: %+v, %v", cachedWages, err)
	}
}
