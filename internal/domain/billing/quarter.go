package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradelane/backend/internal/domain/shared"
)

var hundred = decimal.NewFromInt(100)

// InvoiceStatus tracks the rollup state of a quarter's governance fee invoice
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusGenerated InvoiceStatus = "generated"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusWaived    InvoiceStatus = "waived"
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusGenerated, InvoiceStatusPaid, InvoiceStatusWaived:
		return true
	}
	return false
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// FeeSchedule holds the configured governance fee parameters
type FeeSchedule struct {
	OnboardingDuration     time.Duration
	DomesticFeePercent     decimal.Decimal
	ImportExportFeePercent decimal.Decimal
}

// DefaultFeeSchedule returns the standard schedule: 90 days of onboarding
// grace, 0.5% on domestic volume, 2.0% on import/export volume
func DefaultFeeSchedule() FeeSchedule {
	return FeeSchedule{
		OnboardingDuration:     90 * 24 * time.Hour,
		DomesticFeePercent:     decimal.RequireFromString("0.5"),
		ImportExportFeePercent: decimal.RequireFromString("2.0"),
	}
}

// IsOnboardingQuarter reports whether the quarter falls in the org's
// onboarding window [activation, activation + onboarding duration).
// A quarter that starts before the window has fully elapsed is still an
// onboarding quarter, so the quarter containing the activation instant
// always qualifies and the first chronological quarter of every org is
// fee-free. Billing begins with the first quarter that starts entirely
// after the window.
func IsOnboardingQuarter(key QuarterKey, loc *time.Location, activatedAt time.Time, onboardingDuration time.Duration) bool {
	windowEnd := activatedAt.Add(onboardingDuration)
	return key.Start(loc).Before(windowEnd)
}

// ComputeFee computes a quarter's governance fee from its volume aggregates.
// Pure and idempotent: no clock, no hidden state. Onboarding quarters owe
// zero regardless of volume.
func ComputeFee(domesticVolume, importExportVolume decimal.Decimal, schedule FeeSchedule, onboarding bool) decimal.Decimal {
	if onboarding {
		return decimal.Zero
	}
	domesticFee := domesticVolume.Mul(schedule.DomesticFeePercent).Div(hundred)
	importExportFee := importExportVolume.Mul(schedule.ImportExportFeePercent).Div(hundred)
	return domesticFee.Add(importExportFee)
}

// Quarter is the per-org, per-calendar-quarter billing aggregate. It is
// created lazily the first time volume is attributed to the quarter,
// updated incrementally as transactions settle, and never deleted.
// Exactly one record exists per org per calendar quarter.
type Quarter struct {
	shared.OrgAggregateRoot
	QuarterKey          string          `gorm:"type:varchar(10);not null;uniqueIndex:idx_billing_quarters_org_key,priority:2"`
	QuarterStart        time.Time       `gorm:"not null"`
	QuarterEnd          time.Time       `gorm:"not null"` // inclusive
	DomesticVolume      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	ImportExportVolume  decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`
	TotalFee            decimal.Decimal `gorm:"type:decimal(20,6);not null;default:0"`
	IsOnboardingQuarter bool            `gorm:"not null;default:false"`
	InvoiceStatus       InvoiceStatus   `gorm:"type:varchar(20);not null;default:'pending'"`
}

// TableName returns the table name for GORM
func (Quarter) TableName() string {
	return "billing_quarters"
}

// NewQuarter creates the billing record for one org-quarter, classifying
// its onboarding status from the org's activation time
func NewQuarter(orgID uuid.UUID, key QuarterKey, loc *time.Location, activatedAt time.Time, schedule FeeSchedule) (*Quarter, error) {
	if orgID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORG", "Org ID cannot be empty")
	}
	if activatedAt.IsZero() {
		return nil, shared.NewDomainError("INVALID_ACTIVATION", "Org activation time is required")
	}

	onboarding := IsOnboardingQuarter(key, loc, activatedAt, schedule.OnboardingDuration)
	return &Quarter{
		OrgAggregateRoot:    shared.NewOrgAggregateRoot(orgID),
		QuarterKey:          key.String(),
		QuarterStart:        key.Start(loc),
		QuarterEnd:          key.End(loc),
		DomesticVolume:      decimal.Zero,
		ImportExportVolume:  decimal.Zero,
		TotalFee:            decimal.Zero,
		IsOnboardingQuarter: onboarding,
		InvoiceStatus:       InvoiceStatusPending,
	}, nil
}

// AddVolume applies volume deltas and recomputes the fee. Deltas must be
// non-negative; settled transaction volume is only ever attributed, never
// clawed back through this path.
func (q *Quarter) AddVolume(domesticDelta, importExportDelta decimal.Decimal, schedule FeeSchedule) error {
	if domesticDelta.IsNegative() || importExportDelta.IsNegative() {
		return shared.NewDomainError(shared.CodeNegativeMagnitude, "Volume deltas cannot be negative")
	}

	q.DomesticVolume = q.DomesticVolume.Add(domesticDelta)
	q.ImportExportVolume = q.ImportExportVolume.Add(importExportDelta)
	q.RecomputeFee(schedule)
	q.UpdatedAt = time.Now()
	q.IncrementVersion()
	return nil
}

// RecomputeFee recomputes the total fee from the current volume aggregates.
// Idempotent: the same volumes always yield the same fee. A waived quarter
// stays at zero; waiving is not undone by recomputation.
func (q *Quarter) RecomputeFee(schedule FeeSchedule) {
	if q.InvoiceStatus == InvoiceStatusWaived {
		q.TotalFee = decimal.Zero
		return
	}
	q.TotalFee = ComputeFee(q.DomesticVolume, q.ImportExportVolume, schedule, q.IsOnboardingQuarter)
}

// MarkInvoiceGenerated moves the quarter invoice from pending to generated.
// Onboarding quarters are waived instead.
func (q *Quarter) MarkInvoiceGenerated() error {
	if q.IsOnboardingQuarter {
		return shared.NewDomainError("INVALID_STATE", "Onboarding quarters are waived, not invoiced")
	}
	if q.InvoiceStatus != InvoiceStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Invoice has already been generated for this quarter")
	}
	q.InvoiceStatus = InvoiceStatusGenerated
	q.UpdatedAt = time.Now()
	q.IncrementVersion()
	return nil
}

// MarkInvoicePaid records payment of a generated quarter invoice
func (q *Quarter) MarkInvoicePaid() error {
	if q.InvoiceStatus != InvoiceStatusGenerated {
		return shared.NewDomainError("INVALID_STATE", "Only a generated invoice can be marked paid")
	}
	q.InvoiceStatus = InvoiceStatusPaid
	q.UpdatedAt = time.Now()
	q.IncrementVersion()
	return nil
}

// Waive waives the quarter's fee. Applied automatically to onboarding
// quarters and available for manual dispute resolution on pending ones.
func (q *Quarter) Waive() error {
	if q.InvoiceStatus == InvoiceStatusPaid {
		return shared.NewDomainError("INVALID_STATE", "Cannot waive a paid invoice")
	}
	q.InvoiceStatus = InvoiceStatusWaived
	q.TotalFee = decimal.Zero
	q.UpdatedAt = time.Now()
	q.IncrementVersion()
	return nil
}

// Key returns the parsed quarter key
func (q *Quarter) Key() (QuarterKey, error) {
	return ParseQuarterKey(q.QuarterKey)
}
