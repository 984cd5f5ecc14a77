package billing

import (
	"time"

	"github.com/google/uuid"

	"github.com/tradelane/backend/internal/domain/shared"
)

// Account holds the billing identity of one org: when it was activated on
// the platform and which timezone its calendar quarters are anchored to.
type Account struct {
	shared.BaseAggregateRoot
	OrgID       uuid.UUID `gorm:"type:uuid;not null;uniqueIndex"`
	ActivatedAt time.Time `gorm:"not null"`
	Timezone    string    `gorm:"type:varchar(50);not null;default:'UTC'"`
}

// TableName returns the table name for GORM
func (Account) TableName() string {
	return "billing_accounts"
}

// NewAccount registers an org for quarterly billing
func NewAccount(orgID uuid.UUID, activatedAt time.Time, timezone string) (*Account, error) {
	if orgID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORG", "Org ID cannot be empty")
	}
	if activatedAt.IsZero() {
		return nil, shared.NewDomainError("INVALID_ACTIVATION", "Activation time is required")
	}
	if timezone == "" {
		timezone = "UTC"
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return nil, shared.NewDomainError("INVALID_TIMEZONE", "Unknown timezone name")
	}

	return &Account{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrgID:             orgID,
		ActivatedAt:       activatedAt,
		Timezone:          timezone,
	}, nil
}

// Location resolves the account's timezone, falling back to UTC when the
// stored name no longer loads
func (a *Account) Location() *time.Location {
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// CurrentQuarter classifies now into the account's calendar quarter
func (a *Account) CurrentQuarter(now time.Time) QuarterKey {
	return QuarterOf(now, a.Location())
}
