package document

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradelane/backend/internal/domain/shared"
	"github.com/tradelane/backend/internal/domain/shared/valueobject"
)

// Type discriminates the commercial document variants. They share one
// totals model and one lifecycle but differ in business intent.
type Type string

const (
	TypeProformaInvoice Type = "proforma_invoice"
	TypeTaxInvoice      Type = "tax_invoice"
	TypeDebitNote       Type = "debit_note"
	TypeCreditNote      Type = "credit_note"
	TypePurchaseOrder   Type = "purchase_order"
)

// IsValid checks if the type is a valid document Type
func (t Type) IsValid() bool {
	switch t {
	case TypeProformaInvoice, TypeTaxInvoice, TypeDebitNote, TypeCreditNote, TypePurchaseOrder:
		return true
	}
	return false
}

// String returns the string representation of Type
func (t Type) String() string {
	return string(t)
}

// NumberPrefix returns the series prefix for generated document numbers
func (t Type) NumberPrefix() string {
	switch t {
	case TypeProformaInvoice:
		return "PI-"
	case TypeTaxInvoice:
		return "INV-"
	case TypePurchaseOrder:
		return "PO-"
	case TypeDebitNote:
		return "DN-"
	case TypeCreditNote:
		return "CN-"
	}
	return ""
}

// IsNote returns true for debit and credit notes, which may carry a
// reference to the invoice they amend
func (t Type) IsNote() bool {
	return t == TypeDebitNote || t == TypeCreditNote
}

// TradeLane classifies the flow of goods behind a document. Billing applies
// a different governance fee rate to cross-border volume.
type TradeLane string

const (
	LaneDomestic TradeLane = "domestic"
	LaneImport   TradeLane = "import"
	LaneExport   TradeLane = "export"
)

// IsValid checks if the lane is a valid TradeLane
func (l TradeLane) IsValid() bool {
	switch l {
	case LaneDomestic, LaneImport, LaneExport:
		return true
	}
	return false
}

// String returns the string representation of TradeLane
func (l TradeLane) String() string {
	return string(l)
}

// IsCrossBorder returns true for import and export lanes
func (l TradeLane) IsCrossBorder() bool {
	return l == LaneImport || l == LaneExport
}

// Counterparty identifies the other party on a document
type Counterparty struct {
	Name    string `gorm:"type:varchar(200);not null" json:"name"`
	Address string `gorm:"type:varchar(500)" json:"address"`
	TaxID   string `gorm:"type:varchar(50)" json:"tax_id"`
	Email   string `gorm:"type:varchar(200)" json:"email"`
	Phone   string `gorm:"type:varchar(30)" json:"phone"`
}

// Totals holds the aggregate amounts of a document
type Totals struct {
	Subtotal       decimal.Decimal
	TaxAmount      decimal.Decimal
	DiscountAmount decimal.Decimal
	TotalAmount    decimal.Decimal
}

// ComputeTotals aggregates line items and an order-level discount percent.
// Pure: item order does not affect the result and recomputation from the
// same inputs is byte-identical. The discount applies to the subtotal only,
// never to tax (discounts are pre-tax in this domain). An empty item list
// yields all-zero totals, which is a valid draft state.
func ComputeTotals(items []LineItem, discountPercent decimal.Decimal) (Totals, error) {
	if discountPercent.IsNegative() || discountPercent.GreaterThan(hundred) {
		return Totals{}, shared.NewDomainError("INVALID_DISCOUNT", "Discount percent must be between 0 and 100")
	}

	subtotal := decimal.Zero
	tax := decimal.Zero
	for i := range items {
		subtotal = subtotal.Add(items[i].Gross())
		tax = tax.Add(items[i].TaxAmount)
	}

	discount := subtotal.Mul(discountPercent).Div(hundred)
	return Totals{
		Subtotal:       subtotal,
		TaxAmount:      tax,
		DiscountAmount: discount,
		TotalAmount:    subtotal.Add(tax).Sub(discount),
	}, nil
}

// Document is the aggregate root for every financial document variant.
// Totals are derived from the owned line items and invariantly satisfy
// total_amount == subtotal + tax_amount - discount_amount.
type Document struct {
	shared.OrgAggregateRoot
	Type            Type            `gorm:"column:document_type;type:varchar(20);not null;uniqueIndex:idx_documents_org_series_number,priority:2"`
	Number          string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_documents_org_series_number,priority:3"`
	Counterparty    Counterparty    `gorm:"embedded;embeddedPrefix:counterparty_"`
	IssueDate       time.Time       `gorm:"not null"`
	DueDate         *time.Time      `gorm:""`
	Status          Status          `gorm:"type:varchar(20);not null;default:'draft'"`
	Lane            TradeLane       `gorm:"column:trade_lane;type:varchar(10);not null;default:'domestic'"`
	Items           []LineItem      `gorm:"foreignKey:DocumentID;references:ID"`
	DiscountPercent decimal.Decimal `gorm:"type:decimal(7,4);not null;default:0"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"`
	TaxAmount       decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"`
	DiscountAmount  decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"`
	Notes           string          `gorm:"type:text"`
	ReferenceNumber string          `gorm:"type:varchar(50)"` // free-text invoice reference, debit/credit notes only
	SentAt          *time.Time
	SettledAt       *time.Time
	ArchivedAt      *time.Time `gorm:"index"` // logical delete; settled documents are retained for audit
}

// TableName returns the table name for GORM
func (Document) TableName() string {
	return "documents"
}

// New creates a new document in draft status with no items
func New(orgID uuid.UUID, docType Type, number string, counterparty Counterparty, issueDate time.Time) (*Document, error) {
	if !docType.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_TYPE", "Unknown document type")
	}
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Document number cannot be empty")
	}
	if len(number) > 50 {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Document number cannot exceed 50 characters")
	}
	if counterparty.Name == "" {
		return nil, shared.NewDomainError("INVALID_COUNTERPARTY", "Counterparty name cannot be empty")
	}
	if issueDate.IsZero() {
		return nil, shared.NewDomainError("INVALID_ISSUE_DATE", "Issue date is required")
	}

	return &Document{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		Type:             docType,
		Number:           number,
		Counterparty:     counterparty,
		IssueDate:        issueDate,
		Status:           StatusDraft,
		Lane:             LaneDomestic,
		Items:            make([]LineItem, 0),
		DiscountPercent:  decimal.Zero,
		Subtotal:         decimal.Zero,
		TaxAmount:        decimal.Zero,
		DiscountAmount:   decimal.Zero,
		TotalAmount:      decimal.Zero,
	}, nil
}

// ReplaceItems replaces the whole item set. Line items are not individually
// addressable in this domain: every edit supplies the full new set, which
// the persistence layer commits atomically alongside the parent.
// Only allowed while the document is a draft.
func (d *Document) ReplaceItems(items []LineItem) error {
	if d.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot edit items of a non-draft document")
	}

	replacement := make([]LineItem, len(items))
	for i := range items {
		item := items[i]
		if err := item.Recalculate(); err != nil {
			return err
		}
		item.DocumentID = d.ID
		replacement[i] = item
	}

	d.Items = replacement
	if err := d.recalculateTotals(); err != nil {
		return err
	}
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
	return nil
}

// SetDiscountPercent sets the order-level discount. Only allowed on drafts.
func (d *Document) SetDiscountPercent(percent decimal.Decimal) error {
	if d.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot change discount of a non-draft document")
	}
	if percent.IsNegative() || percent.GreaterThan(hundred) {
		return shared.NewDomainError("INVALID_DISCOUNT", "Discount percent must be between 0 and 100")
	}

	d.DiscountPercent = percent
	if err := d.recalculateTotals(); err != nil {
		return err
	}
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
	return nil
}

// SetNumber overrides the generated number. Uniqueness within the issuer's
// series is still enforced at persistence time, not here.
func (d *Document) SetNumber(number string) error {
	if d.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Cannot renumber a settled document")
	}
	if number == "" {
		return shared.NewDomainError("INVALID_NUMBER", "Document number cannot be empty")
	}
	if len(number) > 50 {
		return shared.NewDomainError("INVALID_NUMBER", "Document number cannot exceed 50 characters")
	}

	d.Number = number
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
	return nil
}

// SetReferenceNumber sets the free-text reference to an amended invoice.
// Only debit and credit notes carry a reference.
func (d *Document) SetReferenceNumber(reference string) error {
	if !d.Type.IsNote() {
		return shared.NewDomainError("INVALID_REFERENCE", "Only debit and credit notes carry a reference number")
	}
	d.ReferenceNumber = reference
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
	return nil
}

// SetCounterparty updates the other party's details. Only allowed on drafts.
func (d *Document) SetCounterparty(counterparty Counterparty) error {
	if d.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot change counterparty of a non-draft document")
	}
	if counterparty.Name == "" {
		return shared.NewDomainError("INVALID_COUNTERPARTY", "Counterparty name cannot be empty")
	}
	d.Counterparty = counterparty
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
	return nil
}

// SetLane changes the trade lane. Only allowed on drafts; settled volume has
// already been attributed to a billing bucket.
func (d *Document) SetLane(lane TradeLane) error {
	if d.Status != StatusDraft {
		return shared.NewDomainError("INVALID_STATE", "Cannot change trade lane of a non-draft document")
	}
	if !lane.IsValid() {
		return shared.NewDomainError("INVALID_LANE", "Trade lane must be domestic, import or export")
	}
	d.Lane = lane
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
	return nil
}

// SetDueDate sets the payment due date
func (d *Document) SetDueDate(due *time.Time) {
	d.DueDate = due
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
}

// SetNotes sets the free-form notes
func (d *Document) SetNotes(notes string) {
	d.Notes = notes
	d.UpdatedAt = time.Now()
	d.IncrementVersion()
}

// Transition moves the document to the target status. An invalid request
// fails with InvalidTransitionError and leaves the status unchanged.
// Sending an empty document is rejected: a zero-item draft is valid, a
// zero-item outgoing document is not.
func (d *Document) Transition(to Status) error {
	if !to.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown document status")
	}
	if !d.Status.CanTransitionTo(d.Type, to) {
		return &InvalidTransitionError{From: d.Status, To: to}
	}
	if to == StatusSent && len(d.Items) == 0 {
		return shared.NewDomainError(shared.CodeEmptyDocument, "Cannot send a document without line items")
	}

	now := time.Now()
	d.Status = to
	switch to {
	case StatusSent:
		d.SentAt = &now
	case StatusPaid, StatusRejected, StatusCancelled:
		d.SettledAt = &now
	}
	d.UpdatedAt = now
	d.IncrementVersion()
	return nil
}

// RecalculateTotals recomputes the aggregate amounts from the current items.
// Idempotent: recomputing twice from the same items yields identical totals.
func (d *Document) RecalculateTotals() error {
	return d.recalculateTotals()
}

func (d *Document) recalculateTotals() error {
	totals, err := ComputeTotals(d.Items, d.DiscountPercent)
	if err != nil {
		return err
	}
	d.Subtotal = totals.Subtotal
	d.TaxAmount = totals.TaxAmount
	d.DiscountAmount = totals.DiscountAmount
	d.TotalAmount = totals.TotalAmount
	return nil
}

// IsSettled returns true once the document reached a terminal state
func (d *Document) IsSettled() bool {
	return d.Status.IsTerminal()
}

// IsDraft returns true while the document is editable
func (d *Document) IsDraft() bool {
	return d.Status == StatusDraft
}

// ItemCount returns the number of line items
func (d *Document) ItemCount() int {
	return len(d.Items)
}

// GetTotalAmountMoney returns the total as a Money value object
func (d *Document) GetTotalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyINR(d.TotalAmount)
}
