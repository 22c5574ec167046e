package reporting

import (
	"strconv"
	"strings"
	"time"

	"github.com/mamadbah2/husk/internal/domain/models"
)

// AllYears disables the year filter.
const AllYears = "all"

// Filter narrows the records a report covers. From and To are inclusive.
// ProductType applies to outputs only.
type Filter struct {
	Year        string
	From        *time.Time
	To          *time.Time
	ProductType models.ProductType
}

// Validate checks the year is "all" or a four-digit year and the range is ordered.
func (f Filter) Validate() error {
	v := make(models.Violations)
	if year := strings.TrimSpace(f.Year); year != "" && year != AllYears {
		if n, err := strconv.Atoi(year); err != nil || len(year) != 4 || n <= 0 {
			v["year"] = "invalid"
		}
	}
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		v["dateRange"] = "from_after_to"
	}
	if f.ProductType != "" && !f.ProductType.Valid() {
		v["productType"] = "invalid"
	}
	return v.Err()
}

// matches reports whether a record dated t passes the year and range
// filters. Years are evaluated in loc.
func (f Filter) matches(t time.Time, loc *time.Location) bool {
	if year := strings.TrimSpace(f.Year); year != "" && year != AllYears {
		if strconv.Itoa(t.In(loc).Year()) != year {
			return false
		}
	}
	if f.From != nil && t.Before(*f.From) {
		return false
	}
	if f.To != nil && t.After(*f.To) {
		return false
	}
	return true
}
