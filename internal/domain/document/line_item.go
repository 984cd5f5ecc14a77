package document

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradelane/backend/internal/domain/shared"
)

var (
	hundred     = decimal.NewFromInt(100)
	minQuantity = decimal.RequireFromString("0.01")
)

// LineAmounts holds the derived fields of a single line.
type LineAmounts struct {
	TaxAmount decimal.Decimal
	Total     decimal.Decimal
}

// CalculateLine computes the derived amounts for one line item.
// The multiplication order is fixed (quantity x unit price first, then tax)
// so that every call site rounds identically: recomputing from stored
// quantity and price always reproduces the stored tax amount.
func CalculateLine(quantity, unitPrice, taxRate decimal.Decimal) (LineAmounts, error) {
	if quantity.IsNegative() || unitPrice.IsNegative() {
		return LineAmounts{}, shared.NewDomainError(shared.CodeNegativeMagnitude, "Quantity and unit price cannot be negative")
	}
	if quantity.LessThan(minQuantity) {
		return LineAmounts{}, shared.NewDomainError(shared.CodeNegativeMagnitude, "Quantity must be at least 0.01")
	}
	if taxRate.IsNegative() || taxRate.GreaterThan(hundred) {
		return LineAmounts{}, shared.NewDomainError(shared.CodeOutOfRangeTaxRate, "Tax rate must be between 0 and 100")
	}

	gross := quantity.Mul(unitPrice)
	taxAmount := gross.Mul(taxRate).Div(hundred)
	return LineAmounts{
		TaxAmount: taxAmount,
		Total:     gross.Add(taxAmount),
	}, nil
}

// LineItem represents a product or service row within a commercial document.
// It is owned exclusively by its parent document: derived fields are
// recomputed from quantity, price and rate, never independently mutated.
type LineItem struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	DocumentID  uuid.UUID       `gorm:"type:uuid;not null;index" json:"document_id"`
	Description string          `gorm:"type:varchar(500);not null" json:"description"`
	HSNCode     string          `gorm:"type:varchar(20)" json:"hsn_code,omitempty"`
	Quantity    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"quantity"`
	Unit        string          `gorm:"type:varchar(20)" json:"unit"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"unit_price"`
	TaxRate     decimal.Decimal `gorm:"type:decimal(7,4);not null" json:"tax_rate"`
	TaxAmount   decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"tax_amount"`
	Total       decimal.Decimal `gorm:"type:decimal(18,6);not null" json:"total"`
	CreatedAt   time.Time       `gorm:"not null" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null" json:"updated_at"`
}

// TableName returns the table name for GORM
func (LineItem) TableName() string {
	return "document_line_items"
}

// NewLineItem creates a new line item with derived fields computed
func NewLineItem(documentID uuid.UUID, description, hsnCode, unit string, quantity, unitPrice, taxRate decimal.Decimal) (*LineItem, error) {
	if description == "" {
		return nil, shared.NewDomainError("INVALID_DESCRIPTION", "Line item description cannot be empty")
	}

	amounts, err := CalculateLine(quantity, unitPrice, taxRate)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	return &LineItem{
		ID:          uuid.New(),
		DocumentID:  documentID,
		Description: description,
		HSNCode:     hsnCode,
		Quantity:    quantity,
		Unit:        unit,
		UnitPrice:   unitPrice,
		TaxRate:     taxRate,
		TaxAmount:   amounts.TaxAmount,
		Total:       amounts.Total,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Gross returns quantity x unit price before tax
func (i *LineItem) Gross() decimal.Decimal {
	return i.Quantity.Mul(i.UnitPrice)
}

// Recalculate recomputes the derived fields from the raw fields
func (i *LineItem) Recalculate() error {
	amounts, err := CalculateLine(i.Quantity, i.UnitPrice, i.TaxRate)
	if err != nil {
		return err
	}
	i.TaxAmount = amounts.TaxAmount
	i.Total = amounts.Total
	i.UpdatedAt = time.Now()
	return nil
}
