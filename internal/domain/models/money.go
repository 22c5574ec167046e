package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the fixed-width UTC timestamp used on disk. Fixed width keeps
// lexical order equal to chronological order.
const DateLayout = "2006-01-02T15:04:05.000Z07:00"

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func init() {
	// Amounts travel as JSON numbers, not strings.
	decimal.MarshalJSONWithoutQuotes = true
}

// NewID returns a random identifier for a new record.
func NewID() string {
	return uuid.NewString()
}

// NormalizeDate converts t to UTC with millisecond precision.
func NormalizeDate(t time.Time) time.Time {
	return t.UTC().Truncate(time.Millisecond)
}

// FormatDate renders t in DateLayout.
func FormatDate(t time.Time) string {
	return NormalizeDate(t).Format(DateLayout)
}

// ParseDate accepts the stored layout as well as looser ISO-8601 variants
// written by older clients.
func ParseDate(value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return NormalizeDate(t), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", value)
}

// FormatMoney rounds an amount to two places for display only.
func FormatMoney(d decimal.Decimal) string {
	return d.StringFixed(2)
}
