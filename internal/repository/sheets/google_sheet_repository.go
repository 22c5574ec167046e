package sheets

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"google.golang.org/api/option"
	sheetsapi "google.golang.org/api/sheets/v4"

	"github.com/mamadbah2/husk/internal/config"
	"github.com/mamadbah2/husk/internal/domain/models"
)

// DigestRange is where weekly digests are appended, one row each.
const DigestRange = "Digests!A:H"

// Repository defines the persistence operations supported by the Google Sheets adapter.
type Repository interface {
	WriteRow(ctx context.Context, sheetRange string, values []interface{}) error
	AppendDigest(ctx context.Context, digest models.Digest) error
}

// GoogleSheetRepository implements the Repository interface using the official Google Sheets API.
type GoogleSheetRepository struct {
	service       *sheetsapi.Service
	spreadsheetID string
	logger        *zap.Logger
}

// NewGoogleSheetRepository builds a Google Sheets backed repository instance.
func NewGoogleSheetRepository(ctx context.Context, cfg config.SheetsConfig, logger *zap.Logger) (*GoogleSheetRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := sheetsapi.NewService(ctx, option.WithCredentialsFile(cfg.CredentialsPath), option.WithScopes(sheetsapi.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize sheets client: %w", err)
	}

	return &GoogleSheetRepository{
		service:       service,
		spreadsheetID: cfg.SpreadsheetID,
		logger:        logger,
	}, nil
}

// WriteRow appends the provided values to the supplied sheet range.
func (r *GoogleSheetRepository) WriteRow(ctx context.Context, sheetRange string, values []interface{}) error {
	if sheetRange == "" {
		return fmt.Errorf("sheetRange must not be empty")
	}

	payload := &sheetsapi.ValueRange{Values: [][]interface{}{values}}

	call := r.service.Spreadsheets.Values.Append(r.spreadsheetID, sheetRange, payload).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx)

	if _, err := call.Do(); err != nil {
		return fmt.Errorf("append row into range %s: %w", sheetRange, err)
	}

	r.logger.Debug("row appended to sheet", zap.String("range", sheetRange))
	return nil
}

// AppendDigest writes d as a row of DigestRange.
func (r *GoogleSheetRepository) AppendDigest(ctx context.Context, d models.Digest) error {
	return r.WriteRow(ctx, DigestRange, digestRow(d))
}

// digestRow lays out the Digests sheet columns A to H.
func digestRow(d models.Digest) []interface{} {
	return []interface{}{
		d.PeriodStart.Format("2006-01-02"),
		d.PeriodEnd.Format("2006-01-02"),
		d.Purchases,
		d.CoconutsPurchased,
		models.FormatMoney(d.InputCosts),
		models.FormatMoney(d.LabourCosts),
		d.LabourDays.String(),
		models.FormatMoney(d.TotalCosts),
	}
}
