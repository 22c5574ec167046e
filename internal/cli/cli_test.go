package cli

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/mamadbah2/husk/internal/cache"
	"github.com/mamadbah2/husk/internal/domain/models"
	"github.com/mamadbah2/husk/internal/service/capital"
	"github.com/mamadbah2/husk/internal/service/reconcile"
	"github.com/mamadbah2/husk/internal/service/reporting"
)

type harness struct {
	app    *App
	cache  *cache.Store
	ledger *reconcile.Ledger
	engine *reporting.Engine
}

func setupApp(t *testing.T) *harness {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	c, err := cache.New(context.Background(), db, nil)
	if err != nil {
		t.Fatalf("cache: %v", err)
	}

	engine := reporting.NewEngine(time.UTC)
	vault := capital.NewVault(c, "coconut", nil)
	unsub := vault.OnChange(engine.SetCapital)
	ledger := reconcile.New(nil, c, vault, nil)
	t.Cleanup(func() {
		unsub()
		ledger.Close()
		_ = c.Close()
	})

	return &harness{app: NewWithServices(ledger, vault, engine), cache: c, ledger: ledger, engine: engine}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := h.app.Command()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func (h *harness) mustRun(t *testing.T, args ...string) string {
	t.Helper()
	out, err := h.run(t, args...)
	if err != nil {
		t.Fatalf("ledger %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func TestPurchaseAddSavesLocallyAndDeductsCapital(t *testing.T) {
	h := setupApp(t)
	h.mustRun(t, "capital", "set", "-p", "coconut", "--amount", "1000")

	out := h.mustRun(t, "purchases", "add", "--count", "100", "--price", "2.50", "--client", "Alice")
	if !strings.Contains(out, "Saved locally (server unavailable)") {
		t.Fatalf("expected local save message, got %q", out)
	}
	if !strings.Contains(out, "total 250.00") {
		t.Errorf("expected total in output, got %q", out)
	}

	purchases := h.ledger.Purchases()
	if len(purchases) != 1 || purchases[0].PaymentStatus != models.PaymentPending {
		t.Fatalf("unexpected purchases: %+v", purchases)
	}

	out = h.mustRun(t, "capital", "show", "-p", "coconut")
	if strings.TrimSpace(out) != "Capital: 750.00" {
		t.Fatalf("capital after purchase = %q", out)
	}
	if last, ok := h.engine.LastCapital(); !ok || !last.Equal(decimal.NewFromInt(750)) {
		t.Errorf("engine capital = %s (seen %v), want 750", last, ok)
	}
}

func TestPurchaseAddRejectsMissingFields(t *testing.T) {
	h := setupApp(t)

	_, err := h.run(t, "purchases", "add", "--count", "10")
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	for _, field := range []string{"pricePerUnit", "clientName"} {
		if _, ok := verr.Violations[field]; !ok {
			t.Errorf("expected violation for %s, got %v", field, verr.Violations)
		}
	}
	if len(h.ledger.Purchases()) != 0 {
		t.Fatal("invalid purchase must not be recorded")
	}
}

func TestPurchaseUpdateKeepsUnsetFields(t *testing.T) {
	h := setupApp(t)
	h.mustRun(t, "purchases", "add", "--count", "10", "--price", "3", "--client", "Alice")
	id := h.ledger.Purchases()[0].ID

	out := h.mustRun(t, "purchases", "update", id, "--status", "paid")
	if !strings.Contains(out, "Updated locally") {
		t.Fatalf("unexpected output %q", out)
	}

	p := h.ledger.Purchases()[0]
	if p.Count != 10 || p.ClientName != "Alice" || p.PaymentStatus != models.PaymentPaid {
		t.Fatalf("update changed more than the status: %+v", p)
	}

	if _, err := h.run(t, "purchases", "update", "missing", "--count", "1", "--price", "1", "--client", "X"); !models.IsNotFound(err) {
		t.Fatalf("expected not found for unknown id, got %v", err)
	}
}

func TestPurchaseDeleteAndList(t *testing.T) {
	h := setupApp(t)
	h.mustRun(t, "purchases", "add", "--count", "5", "--price", "4", "--client", "Bob")
	id := h.ledger.Purchases()[0].ID

	list := h.mustRun(t, "purchases", "list")
	if !strings.Contains(list, id) || !strings.Contains(list, "Bob") {
		t.Fatalf("list missing purchase: %q", list)
	}

	h.mustRun(t, "purchases", "delete", id)
	if len(h.ledger.Purchases()) != 0 {
		t.Fatal("purchase still present after delete")
	}
}

func TestLabourCommands(t *testing.T) {
	h := setupApp(t)
	out := h.mustRun(t, "labour", "add", "--worker", "Ravi", "--days", "1.5", "--rate", "500")
	if !strings.Contains(out, "total 750.00") {
		t.Fatalf("unexpected output %q", out)
	}
	id := h.ledger.Wages()[0].ID

	h.mustRun(t, "labour", "update", id, "--days", "2")
	if w := h.ledger.Wages()[0]; !w.TotalWage.Equal(decimal.NewFromInt(1000)) || w.WorkerName != "Ravi" {
		t.Fatalf("unexpected wage after update: %+v", w)
	}

	if _, err := h.run(t, "labour", "add", "--worker", "X", "--days", "abc", "--rate", "1"); !models.IsValidation(err) {
		t.Fatalf("expected validation error for bad days, got %v", err)
	}

	h.mustRun(t, "labour", "delete", id)
	if len(h.ledger.Wages()) != 0 {
		t.Fatal("wage still present after delete")
	}
}

func TestOutputsAndReport(t *testing.T) {
	h := setupApp(t)
	h.mustRun(t, "outputs", "add", "--type", "husk", "--quantity", "3", "--price", "1500")
	h.mustRun(t, "outputs", "add", "--type", "shell", "--quantity", "100", "--price", "2")
	h.mustRun(t, "purchases", "add", "--count", "1000", "--price", "1", "--client", "Alice")
	h.mustRun(t, "labour", "add", "--worker", "Ravi", "--days", "1", "--rate", "500")

	if _, err := h.run(t, "outputs", "add", "--type", "copra", "--quantity", "1", "--price", "1"); !models.IsValidation(err) {
		t.Fatalf("expected unknown product to be rejected, got %v", err)
	}

	out := h.mustRun(t, "report")
	for _, want := range []string{"4700.00", "1500.00", "3200.00", "1890 sq ft", "Coconuts bought  1000"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}

	out = h.mustRun(t, "report", "--reduce", "400")
	if !strings.Contains(out, "Coconuts bought  600") {
		t.Errorf("reduction not applied:\n%s", out)
	}
	if _, err := h.run(t, "report", "--reduce", "601"); !models.IsValidation(err) {
		t.Fatalf("expected reduction beyond total to fail, got %v", err)
	}
}

func TestReportFilters(t *testing.T) {
	h := setupApp(t)
	h.mustRun(t, "purchases", "add", "--count", "10", "--price", "1", "--client", "Alice")

	year := time.Now().UTC().Year()
	out := h.mustRun(t, "report", "--year", "1999")
	if !strings.Contains(out, "Purchases        0") {
		t.Errorf("year filter should exclude purchase:\n%s", out)
	}

	today := time.Now().UTC().Format(dayLayout)
	out = h.mustRun(t, "report", "--from", today, "--to", today)
	if !strings.Contains(out, "Purchases        1") {
		t.Errorf("a bare --to day should include the whole day (year %d):\n%s", year, out)
	}

	cases := [][]string{
		{"report", "--year", "99"},
		{"report", "--from", "2024-02-01", "--to", "2024-01-01"},
		{"report", "--from", "yesterday"},
		{"report", "--product", "copra"},
	}
	for _, args := range cases {
		if _, err := h.run(t, args...); !models.IsValidation(err) {
			t.Errorf("%v: expected validation error, got %v", args, err)
		}
	}
}

func TestParseBoundEndOfDay(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	got, err := parseBound("to", "2024-01-31", loc, true)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	want := time.Date(2024, 1, 31, 23, 59, 59, int(999*time.Millisecond), loc)
	if !got.Equal(want) {
		t.Fatalf("got %s, want %s", got, want)
	}
}

func TestReportShowsCapitalOnlyWhenUnlocked(t *testing.T) {
	h := setupApp(t)
	h.mustRun(t, "capital", "set", "-p", "coconut", "--amount", "1000")
	h.mustRun(t, "purchases", "add", "--count", "100", "--price", "2.50", "--client", "Alice")

	out := h.mustRun(t, "report")
	if strings.Contains(out, "Capital") {
		t.Fatalf("capital shown without passphrase:\n%s", out)
	}

	if _, err := h.run(t, "report", "-p", "wrong"); !errors.Is(err, capital.ErrWrongPassphrase) {
		t.Fatalf("expected wrong passphrase, got %v", err)
	}

	out = h.mustRun(t, "report", "-p", "coconut")
	if !strings.Contains(out, "Capital") || !strings.Contains(out, "750.00") {
		t.Fatalf("expected capital 750.00 in report:\n%s", out)
	}
}

func TestClientsCommands(t *testing.T) {
	h := setupApp(t)
	h.mustRun(t, "clients", "add", "Ravi", "Traders")
	if _, err := h.run(t, "clients", "add", " Ravi Traders "); !models.IsValidation(err) {
		t.Fatalf("expected duplicate client to be rejected, got %v", err)
	}

	out := h.mustRun(t, "clients", "list")
	if !strings.Contains(out, "Ravi Traders") {
		t.Fatalf("list missing client: %q", out)
	}

	h.mustRun(t, "clients", "delete", h.ledger.Clients()[0].ID)
	if len(h.ledger.Clients()) != 0 {
		t.Fatal("client still present after delete")
	}
}

func TestCapitalCommands(t *testing.T) {
	h := setupApp(t)

	if _, err := h.run(t, "capital", "show", "-p", "wrong"); !errors.Is(err, capital.ErrWrongPassphrase) {
		t.Fatalf("expected wrong passphrase, got %v", err)
	}

	if _, err := h.run(t, "capital", "set", "-p", "coconut", "--new-passphrase", "husk", "--confirm", "shell"); !models.IsValidation(err) {
		t.Fatalf("expected confirmation mismatch, got %v", err)
	}
	if _, err := h.run(t, "capital", "set", "-p", "coconut", "--amount", "-5"); !models.IsValidation(err) {
		t.Fatalf("expected negative capital to be rejected, got %v", err)
	}

	h.mustRun(t, "capital", "set", "-p", "coconut", "--amount", "500", "--new-passphrase", "husk", "--confirm", "husk")
	if _, err := h.run(t, "capital", "show", "-p", "coconut"); !errors.Is(err, capital.ErrWrongPassphrase) {
		t.Fatalf("old passphrase should stop working, got %v", err)
	}
	if out := h.mustRun(t, "capital", "show", "-p", "husk"); strings.TrimSpace(out) != "Capital: 500.00" {
		t.Fatalf("unexpected capital output %q", out)
	}
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

func TestReportReachability(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	log := zap.New(core)

	reportReachability(context.Background(), stubPinger{}, log)
	reportReachability(context.Background(), stubPinger{err: errors.New("connection refused")}, log)

	entries := logs.AllUntimed()
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[0].Message != "record store reachable" {
		t.Errorf("first entry = %q", entries[0].Message)
	}
	if entries[1].Level != zap.WarnLevel || !strings.Contains(entries[1].Message, "unreachable") {
		t.Errorf("second entry = %v %q", entries[1].Level, entries[1].Message)
	}
}
