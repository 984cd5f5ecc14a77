package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tradelane/backend/internal/domain/governance"
	"github.com/tradelane/backend/internal/domain/shared"
)

// GormGovernanceRepository implements governance.Repository using GORM
type GormGovernanceRepository struct {
	db *gorm.DB
}

// NewGormGovernanceRepository creates a new GormGovernanceRepository
func NewGormGovernanceRepository(db *gorm.DB) *GormGovernanceRepository {
	return &GormGovernanceRepository{db: db}
}

// FindByID finds a rule by ID within an org
func (r *GormGovernanceRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*governance.Rule, error) {
	var rule governance.Rule
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		First(&rule).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rule, nil
}

// FindActive returns the enabled rules for an org
func (r *GormGovernanceRepository) FindActive(ctx context.Context, orgID uuid.UUID) ([]governance.Rule, error) {
	var rules []governance.Rule
	if err := r.db.WithContext(ctx).
		Where("org_id = ? AND enabled = ?", orgID, true).
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// FindAll returns all rules for an org, including disabled ones
func (r *GormGovernanceRepository) FindAll(ctx context.Context, orgID uuid.UUID) ([]governance.Rule, error) {
	var rules []governance.Rule
	if err := r.db.WithContext(ctx).
		Where("org_id = ?", orgID).
		Order("created_at ASC").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// Create inserts a rule
func (r *GormGovernanceRepository) Create(ctx context.Context, rule *governance.Rule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

// Save updates a rule
func (r *GormGovernanceRepository) Save(ctx context.Context, rule *governance.Rule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}

// Delete removes a rule
func (r *GormGovernanceRepository) Delete(ctx context.Context, orgID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("org_id = ? AND id = ?", orgID, id).
		Delete(&governance.Rule{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ governance.Repository = (*GormGovernanceRepository)(nil)
