package governance

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tradelane/backend/internal/domain/shared"
)

// Rule is one configured trading constraint. A nil Category applies the
// rule to every transaction; a set Category scopes it to that category and
// overrides the global rule per constraint type. Rules are additive
// constraints, not defaults: a missing constraint means unconstrained.
type Rule struct {
	shared.OrgAggregateRoot
	Category       *string          `gorm:"type:varchar(100);index"`
	MaxCreditDays  *int             `gorm:""`
	MinVendorCount int              `gorm:"not null;default:1"`
	MarginCap      *decimal.Decimal `gorm:"type:decimal(7,4)"`
	Enabled        bool             `gorm:"not null;default:true"`
}

// TableName returns the table name for GORM
func (Rule) TableName() string {
	return "governance_rules"
}

// NewRule creates a governance rule
func NewRule(orgID uuid.UUID, category *string, maxCreditDays *int, minVendorCount int, marginCap *decimal.Decimal) (*Rule, error) {
	if orgID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ORG", "Org ID cannot be empty")
	}
	if minVendorCount < 1 {
		return nil, shared.NewDomainError("INVALID_RULE", "Minimum vendor count must be at least 1")
	}
	if maxCreditDays != nil && *maxCreditDays < 0 {
		return nil, shared.NewDomainError("INVALID_RULE", "Max credit days cannot be negative")
	}
	if marginCap != nil && (marginCap.IsNegative() || marginCap.GreaterThan(decimal.NewFromInt(100))) {
		return nil, shared.NewDomainError("INVALID_RULE", "Margin cap must be between 0 and 100")
	}
	if category != nil && *category == "" {
		return nil, shared.NewDomainError("INVALID_RULE", "Category cannot be blank; omit it to apply the rule globally")
	}

	return &Rule{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		Category:         category,
		MaxCreditDays:    maxCreditDays,
		MinVendorCount:   minVendorCount,
		MarginCap:        marginCap,
		Enabled:          true,
	}, nil
}

// IsGlobal reports whether the rule applies to all categories
func (r *Rule) IsGlobal() bool {
	return r.Category == nil
}

// AppliesTo reports whether the rule covers a transaction in the category
func (r *Rule) AppliesTo(category string) bool {
	if !r.Enabled {
		return false
	}
	if r.Category == nil {
		return true
	}
	return *r.Category == category
}

// Update modifies the rule's constraints
func (r *Rule) Update(maxCreditDays *int, minVendorCount int, marginCap *decimal.Decimal) error {
	if minVendorCount < 1 {
		return shared.NewDomainError("INVALID_RULE", "Minimum vendor count must be at least 1")
	}
	if maxCreditDays != nil && *maxCreditDays < 0 {
		return shared.NewDomainError("INVALID_RULE", "Max credit days cannot be negative")
	}
	if marginCap != nil && (marginCap.IsNegative() || marginCap.GreaterThan(decimal.NewFromInt(100))) {
		return shared.NewDomainError("INVALID_RULE", "Margin cap must be between 0 and 100")
	}

	r.MaxCreditDays = maxCreditDays
	r.MinVendorCount = minVendorCount
	r.MarginCap = marginCap
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
	return nil
}

// SetEnabled toggles the rule
func (r *Rule) SetEnabled(enabled bool) {
	r.Enabled = enabled
	r.UpdatedAt = time.Now()
	r.IncrementVersion()
}
