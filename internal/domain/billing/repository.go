package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AccountRepository is the storage port for billing accounts
type AccountRepository interface {
	FindByOrgID(ctx context.Context, orgID uuid.UUID) (*Account, error)
	Create(ctx context.Context, account *Account) error
	Save(ctx context.Context, account *Account) error
}

// QuarterRepository is the storage port for billing quarters. Volume
// attribution uses database-side increments so that concurrent settlements
// never lose updates.
type QuarterRepository interface {
	Get(ctx context.Context, orgID uuid.UUID, key QuarterKey) (*Quarter, error)
	ListForOrg(ctx context.Context, orgID uuid.UUID) ([]Quarter, error)

	// Create inserts a new quarter record. A concurrent insert of the same
	// org-quarter fails on the unique index; callers re-read and retry.
	Create(ctx context.Context, quarter *Quarter) error

	// IncrementVolume atomically adds volume deltas and the resulting fee
	// delta to an existing quarter row without read-modify-write
	IncrementVolume(ctx context.Context, orgID uuid.UUID, key QuarterKey, domesticDelta, importExportDelta, feeDelta decimal.Decimal) error

	// Save persists invoice status and recomputed fee changes with an
	// optimistic version check
	Save(ctx context.Context, quarter *Quarter) error

	// ListEndedWithStatus returns quarters whose span ended before the given
	// instant and whose invoice is in the given status, across all orgs.
	// Used by the quarter-close job.
	ListEndedWithStatus(ctx context.Context, before time.Time, status InvoiceStatus) ([]Quarter, error)
}
