package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductType enumerates the processed products that are sold.
type ProductType string

const (
	ProductCoconut ProductType = "coconut"
	ProductHusk    ProductType = "husk"
	ProductShell   ProductType = "shell"
)

// ProductTypes lists every product in display order.
var ProductTypes = []ProductType{ProductCoconut, ProductHusk, ProductShell}

// HuskSquareFeetPerLoad is the drying area covered by one load of husk.
const HuskSquareFeetPerLoad = 630

// Valid reports whether t is a known product.
func (t ProductType) Valid() bool {
	switch t {
	case ProductCoconut, ProductHusk, ProductShell:
		return true
	}
	return false
}

// SoldByLoad reports whether the product is measured in loads rather than kg.
func (t ProductType) SoldByLoad() bool {
	return t == ProductHusk
}

// Unit is the measurement unit shown next to quantities.
func (t ProductType) Unit() string {
	if t.SoldByLoad() {
		return "loads"
	}
	return "kg"
}

// OutputProduct is a recorded sale of processed product. Husk carries
// Loads/PricePerLoad, coconut and shell carry Weight/PricePerKg.
type OutputProduct struct {
	ID           string           `json:"id"`
	Date         time.Time        `json:"date"`
	ProductType  ProductType      `json:"productType"`
	Weight       *decimal.Decimal `json:"weight,omitempty"`
	PricePerKg   *decimal.Decimal `json:"pricePerKg,omitempty"`
	Loads        *decimal.Decimal `json:"loads,omitempty"`
	PricePerLoad *decimal.Decimal `json:"pricePerLoad,omitempty"`
	TotalPrice   decimal.Decimal  `json:"totalPrice"`
}

// NewOutputProduct records quantity units of productType sold at unitPrice.
// The quantity is a weight in kg or a number of loads depending on the type.
func NewOutputProduct(now time.Time, productType ProductType, quantity, unitPrice decimal.Decimal) (OutputProduct, error) {
	v := make(Violations)
	if !productType.Valid() {
		v["productType"] = "invalid"
	}
	if !quantity.IsPositive() {
		v["quantity"] = "must_be_positive"
	}
	if !unitPrice.IsPositive() {
		v["unitPrice"] = "must_be_positive"
	}
	if err := v.Err(); err != nil {
		return OutputProduct{}, err
	}

	out := OutputProduct{
		ID:          NewID(),
		Date:        NormalizeDate(now),
		ProductType: productType,
		TotalPrice:  quantity.Mul(unitPrice),
	}
	if productType.SoldByLoad() {
		out.Loads, out.PricePerLoad = &quantity, &unitPrice
	} else {
		out.Weight, out.PricePerKg = &quantity, &unitPrice
	}
	return out, nil
}

// Quantity returns the populated quantity: loads for husk, weight otherwise.
func (o OutputProduct) Quantity() decimal.Decimal {
	q := o.Weight
	if o.ProductType.SoldByLoad() {
		q = o.Loads
	}
	if q == nil {
		return decimal.Zero
	}
	return *q
}

// Validate checks that exactly the pair matching the product type is set.
func (o OutputProduct) Validate() error {
	v := make(Violations)
	v.Required("id", o.ID)
	if !o.ProductType.Valid() {
		v["productType"] = "invalid"
		return v.Err()
	}
	byLoad := o.Loads != nil && o.PricePerLoad != nil
	byWeight := o.Weight != nil && o.PricePerKg != nil
	switch {
	case o.ProductType.SoldByLoad() && (!byLoad || o.Weight != nil || o.PricePerKg != nil):
		v["loads"] = "husk_requires_loads_only"
	case !o.ProductType.SoldByLoad() && (!byWeight || o.Loads != nil || o.PricePerLoad != nil):
		v["weight"] = "requires_weight_only"
	}
	return v.Err()
}
