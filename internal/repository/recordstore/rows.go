package recordstore

import (
	"github.com/shopspring/decimal"

	"github.com/mamadbah2/husk/internal/domain/models"
)

// Rows keep the snake_case column layout. Dates and amounts are stored as
// text so decimals read back exactly on every driver.

type purchaseRow struct {
	ID            string          `gorm:"column:id;primaryKey"`
	Date          string          `gorm:"column:date;index"`
	Count         int             `gorm:"column:count"`
	PricePerUnit  decimal.Decimal `gorm:"column:price_per_unit;type:text"`
	TotalPrice    decimal.Decimal `gorm:"column:total_price;type:text"`
	Client        string          `gorm:"column:client"`
	PaymentStatus string          `gorm:"column:payment_status;default:pending"`
}

func (purchaseRow) TableName() string { return "coconut_inputs" }

func newPurchaseRow(p models.PurchaseInput) purchaseRow {
	return purchaseRow{
		ID:            p.ID,
		Date:          models.FormatDate(p.Date),
		Count:         p.Count,
		PricePerUnit:  p.PricePerUnit,
		TotalPrice:    p.TotalPrice,
		Client:        p.ClientName,
		PaymentStatus: string(p.PaymentStatus),
	}
}

func (r purchaseRow) toModel() (models.PurchaseInput, error) {
	date, err := models.ParseDate(r.Date)
	if err != nil {
		return models.PurchaseInput{}, err
	}
	status := models.PaymentStatus(r.PaymentStatus)
	if status == "" {
		status = models.PaymentPending
	}
	return models.PurchaseInput{
		ID:            r.ID,
		Date:          date,
		Count:         r.Count,
		PricePerUnit:  r.PricePerUnit,
		TotalPrice:    r.TotalPrice,
		ClientName:    r.Client,
		PaymentStatus: status,
	}, nil
}

type wageRow struct {
	ID         string          `gorm:"column:id;primaryKey"`
	Date       string          `gorm:"column:date;index"`
	WorkerName string          `gorm:"column:worker_name"`
	Days       decimal.Decimal `gorm:"column:days;type:text"`
	RatePerDay decimal.Decimal `gorm:"column:rate_per_day;type:text"`
	TotalWage  decimal.Decimal `gorm:"column:total_wage;type:text"`
}

func (wageRow) TableName() string { return "labour_wages" }

func newWageRow(w models.LabourWage) wageRow {
	return wageRow{
		ID:         w.ID,
		Date:       models.FormatDate(w.Date),
		WorkerName: w.WorkerName,
		Days:       w.Days,
		RatePerDay: w.RatePerDay,
		TotalWage:  w.TotalWage,
	}
}

func (r wageRow) toModel() (models.LabourWage, error) {
	date, err := models.ParseDate(r.Date)
	if err != nil {
		return models.LabourWage{}, err
	}
	return models.LabourWage{
		ID:         r.ID,
		Date:       date,
		WorkerName: r.WorkerName,
		Days:       r.Days,
		RatePerDay: r.RatePerDay,
		TotalWage:  r.TotalWage,
	}, nil
}

type clientRow struct {
	ID   string `gorm:"column:id;primaryKey"`
	Name string `gorm:"column:name;uniqueIndex"`
}

func (clientRow) TableName() string { return "clients" }
