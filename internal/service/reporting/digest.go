package reporting

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/husk/internal/domain/models"
)

const digestDateLayout = "2006-01-02"

// DigestSource lists the server-side records a digest summarizes.
type DigestSource interface {
	ListPurchaseInputs(ctx context.Context) ([]models.PurchaseInput, error)
	ListLabourWages(ctx context.Context) ([]models.LabourWage, error)
}

// Service produces the weekly cost digest from the record store.
type Service struct {
	source DigestSource
	engine *Engine
	logger *zap.Logger
}

// NewService wires a new reporting service instance.
func NewService(source DigestSource, engine *Engine, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if engine == nil {
		engine = NewEngine(time.UTC)
	}
	return &Service{source: source, engine: engine, logger: logger}
}

// GenerateWeeklyDigest summarizes costs over the seven days ending at now.
func (s *Service) GenerateWeeklyDigest(ctx context.Context, now time.Time) (models.Digest, error) {
	end := now.In(s.engine.Location())
	start := end.AddDate(0, 0, -7)

	purchases, err := s.source.ListPurchaseInputs(ctx)
	if err != nil {
		return models.Digest{}, fmt.Errorf("load purchase inputs: %w", err)
	}
	wages, err := s.source.ListLabourWages(ctx)
	if err != nil {
		return models.Digest{}, fmt.Errorf("load labour wages: %w", err)
	}

	report, err := s.engine.Build(Filter{Year: AllYears, From: &start, To: &end}, purchases, wages, nil)
	if err != nil {
		return models.Digest{}, err
	}

	s.logger.Debug("weekly digest built",
		zap.Int("purchases", report.Purchases),
		zap.String("total_costs", report.TotalCosts.String()))

	return models.Digest{
		PeriodStart:       start,
		PeriodEnd:         end,
		Purchases:         report.Purchases,
		CoconutsPurchased: report.CoconutsPurchased,
		InputCosts:        report.InputCosts,
		LabourCosts:       report.LabourCosts,
		LabourDays:        report.LabourDays,
		TotalCosts:        report.TotalCosts,
		CreatedAt:         now.UTC(),
	}, nil
}

// FormatDigest renders d as a short chat message.
func FormatDigest(d models.Digest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Weekly costs (%s to %s)\n", d.PeriodStart.Format(digestDateLayout), d.PeriodEnd.Format(digestDateLayout))
	if d.Purchases == 0 && d.LabourDays.IsZero() {
		b.WriteString("No purchases or wages recorded.")
		return b.String()
	}
	fmt.Fprintf(&b, "Coconuts: %d across %d purchases, %s\n", d.CoconutsPurchased, d.Purchases, models.FormatMoney(d.InputCosts))
	fmt.Fprintf(&b, "Labour: %s days, %s\n", d.LabourDays.StringFixed(1), models.FormatMoney(d.LabourCosts))
	fmt.Fprintf(&b, "Total: %s", models.FormatMoney(d.TotalCosts))
	return b.String()
}
