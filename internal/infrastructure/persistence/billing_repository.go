package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/tradelane/backend/internal/domain/billing"
	"github.com/tradelane/backend/internal/domain/shared"
)

// GormAccountRepository implements billing.AccountRepository using GORM
type GormAccountRepository struct {
	db *gorm.DB
}

// NewGormAccountRepository creates a new GormAccountRepository
func NewGormAccountRepository(db *gorm.DB) *GormAccountRepository {
	return &GormAccountRepository{db: db}
}

// FindByOrgID finds an org's billing account
func (r *GormAccountRepository) FindByOrgID(ctx context.Context, orgID uuid.UUID) (*billing.Account, error) {
	var account billing.Account
	if err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &account, nil
}

// Create inserts a billing account
func (r *GormAccountRepository) Create(ctx context.Context, account *billing.Account) error {
	return r.db.WithContext(ctx).Create(account).Error
}

// Save updates a billing account
func (r *GormAccountRepository) Save(ctx context.Context, account *billing.Account) error {
	return r.db.WithContext(ctx).Save(account).Error
}

var _ billing.AccountRepository = (*GormAccountRepository)(nil)

// GormQuarterRepository implements billing.QuarterRepository using GORM.
// Volume writes go through SQL-side increments so concurrent settlements
// are never lost to read-modify-write races.
type GormQuarterRepository struct {
	db *gorm.DB
}

// NewGormQuarterRepository creates a new GormQuarterRepository
func NewGormQuarterRepository(db *gorm.DB) *GormQuarterRepository {
	return &GormQuarterRepository{db: db}
}

// Get finds one org-quarter record
func (r *GormQuarterRepository) Get(ctx context.Context, orgID uuid.UUID, key billing.QuarterKey) (*billing.Quarter, error) {
	var quarter billing.Quarter
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND quarter_key = ?", orgID, key.String()).
		First(&quarter).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &quarter, nil
}

// ListForOrg returns all billing quarters for an org, oldest first
func (r *GormQuarterRepository) ListForOrg(ctx context.Context, orgID uuid.UUID) ([]billing.Quarter, error) {
	var quarters []billing.Quarter
	if err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("quarter_start ASC").
		Find(&quarters).Error; err != nil {
		return nil, err
	}
	return quarters, nil
}

// Create inserts a new quarter record. The org+quarter unique index rejects
// concurrent creators; callers re-read on failure.
func (r *GormQuarterRepository) Create(ctx context.Context, quarter *billing.Quarter) error {
	return r.db.WithContext(ctx).Create(quarter).Error
}

// IncrementVolume applies volume and fee deltas as atomic SQL increments
func (r *GormQuarterRepository) IncrementVolume(ctx context.Context, orgID uuid.UUID, key billing.QuarterKey, domesticDelta, importExportDelta, feeDelta decimal.Decimal) error {
	result := r.db.WithContext(ctx).Model(&billing.Quarter{}).
		Where("org_id = ? AND quarter_key = ?", orgID, key.String()).
		Updates(map[string]interface{}{
			"domestic_volume":      gorm.Expr("domestic_volume + ?", domesticDelta),
			"import_export_volume": gorm.Expr("import_export_volume + ?", importExportDelta),
			"total_fee":            gorm.Expr("total_fee + ?", feeDelta),
			"updated_at":           time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Save persists invoice status and fee changes with an optimistic version
// check. The caller increments the aggregate version before saving.
func (r *GormQuarterRepository) Save(ctx context.Context, quarter *billing.Quarter) error {
	expectedVersion := quarter.Version - 1
	result := r.db.WithContext(ctx).Model(&billing.Quarter{}).
		Where("id = ? AND version = ?", quarter.ID, expectedVersion).
		Updates(map[string]interface{}{
			"total_fee":      quarter.TotalFee,
			"invoice_status": quarter.InvoiceStatus,
			"version":        quarter.Version,
			"updated_at":     quarter.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// ListEndedWithStatus returns quarters across all orgs whose span ended
// before the given instant with the given invoice status
func (r *GormQuarterRepository) ListEndedWithStatus(ctx context.Context, before time.Time, status billing.InvoiceStatus) ([]billing.Quarter, error) {
	var quarters []billing.Quarter
	if err := r.db.WithContext(ctx).
		Where("quarter_end < ? AND invoice_status = ?", before, status).
		Order("quarter_start ASC").
		Find(&quarters).Error; err != nil {
		return nil, err
	}
	return quarters, nil
}

var _ billing.QuarterRepository = (*GormQuarterRepository)(nil)
