package governance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradelane/backend/internal/domain/governance"
	"github.com/tradelane/backend/internal/domain/shared"
	"github.com/tradelane/backend/internal/infrastructure/telemetry"
)

// Service manages governance rules and evaluates proposed transactions
// against them
type Service struct {
	repo    governance.Repository
	logger  *zap.Logger
	metrics *telemetry.BusinessMetrics
}

// ServiceOption is a functional option for configuring Service
type ServiceOption func(*Service)

// WithMetrics wires business metrics recording
func WithMetrics(metrics *telemetry.BusinessMetrics) ServiceOption {
	return func(s *Service) { s.metrics = metrics }
}

// NewService creates a governance service
func NewService(repo governance.Repository, logger *zap.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{repo: repo, logger: logger}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RuleRequest creates or updates a governance rule
type RuleRequest struct {
	Category       *string          `json:"category"`
	MaxCreditDays  *int             `json:"max_credit_days"`
	MinVendorCount int              `json:"min_vendor_count"`
	MarginCap      *decimal.Decimal `json:"margin_cap"`
}

// RuleResponse represents a governance rule in API responses
type RuleResponse struct {
	ID             uuid.UUID        `json:"id"`
	OrgID          uuid.UUID        `json:"org_id"`
	Category       *string          `json:"category,omitempty"`
	MaxCreditDays  *int             `json:"max_credit_days,omitempty"`
	MinVendorCount int              `json:"min_vendor_count"`
	MarginCap      *decimal.Decimal `json:"margin_cap,omitempty"`
	Enabled        bool             `json:"enabled"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// EvaluateRequest describes a proposed transaction
type EvaluateRequest struct {
	Category      string          `json:"category"`
	CreditDays    int             `json:"credit_days"`
	VendorCount   int             `json:"vendor_count"`
	MarginPercent decimal.Decimal `json:"margin_percent"`
}

// EvaluateResponse carries the evaluation outcome with every violated
// constraint
type EvaluateResponse struct {
	Passed     bool                   `json:"passed"`
	Violations []governance.Violation `json:"violations"`
}

// CreateRule creates a governance rule
func (s *Service) CreateRule(ctx context.Context, orgID uuid.UUID, req RuleRequest) (*RuleResponse, error) {
	minVendors := req.MinVendorCount
	if minVendors == 0 {
		minVendors = 1
	}
	rule, err := governance.NewRule(orgID, req.Category, req.MaxCreditDays, minVendors, req.MarginCap)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, rule); err != nil {
		return nil, err
	}

	s.logger.Info("governance rule created",
		zap.String("rule_id", rule.ID.String()),
		zap.Bool("global", rule.IsGlobal()),
	)
	return toRuleResponse(rule), nil
}

// UpdateRule modifies a rule's constraints
func (s *Service) UpdateRule(ctx context.Context, orgID, id uuid.UUID, req RuleRequest) (*RuleResponse, error) {
	rule, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Governance rule not found")
	}

	minVendors := req.MinVendorCount
	if minVendors == 0 {
		minVendors = 1
	}
	if err := rule.Update(req.MaxCreditDays, minVendors, req.MarginCap); err != nil {
		return nil, err
	}
	if err := s.repo.Save(ctx, rule); err != nil {
		return nil, err
	}
	return toRuleResponse(rule), nil
}

// SetRuleEnabled toggles a rule without losing its configuration
func (s *Service) SetRuleEnabled(ctx context.Context, orgID, id uuid.UUID, enabled bool) (*RuleResponse, error) {
	rule, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if rule == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Governance rule not found")
	}

	rule.SetEnabled(enabled)
	if err := s.repo.Save(ctx, rule); err != nil {
		return nil, err
	}
	return toRuleResponse(rule), nil
}

// ListRules returns all rules for an org, including disabled ones
func (s *Service) ListRules(ctx context.Context, orgID uuid.UUID) ([]RuleResponse, error) {
	rules, err := s.repo.FindAll(ctx, orgID)
	if err != nil {
		return nil, err
	}
	responses := make([]RuleResponse, len(rules))
	for i := range rules {
		responses[i] = *toRuleResponse(&rules[i])
	}
	return responses, nil
}

// DeleteRule removes a rule
func (s *Service) DeleteRule(ctx context.Context, orgID, id uuid.UUID) error {
	rule, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return err
	}
	if rule == nil {
		return shared.NewDomainError("NOT_FOUND", "Governance rule not found")
	}
	return s.repo.Delete(ctx, orgID, id)
}

// Evaluate checks a proposed transaction against the org's active rules.
// The response lists every violated constraint so the caller can present
// all of them at once.
func (s *Service) Evaluate(ctx context.Context, orgID uuid.UUID, req EvaluateRequest) (*EvaluateResponse, error) {
	if req.VendorCount < 0 || req.CreditDays < 0 {
		return nil, shared.NewDomainError(shared.CodeNegativeMagnitude, "Vendor count and credit days cannot be negative")
	}

	rules, err := s.repo.FindActive(ctx, orgID)
	if err != nil {
		return nil, err
	}

	result := governance.Evaluate(governance.TransactionDescriptor{
		Category:      req.Category,
		CreditDays:    req.CreditDays,
		VendorCount:   req.VendorCount,
		MarginPercent: req.MarginPercent,
	}, rules)

	if !result.Passed() {
		s.metrics.RecordGovernanceBlocked(ctx, len(result.Violations))
		s.logger.Info("transaction blocked by governance rules",
			zap.String("org_id", orgID.String()),
			zap.String("category", req.Category),
			zap.Int("violations", len(result.Violations)),
		)
	}

	violations := result.Violations
	if violations == nil {
		violations = []governance.Violation{}
	}
	return &EvaluateResponse{
		Passed:     result.Passed(),
		Violations: violations,
	}, nil
}

func toRuleResponse(r *governance.Rule) *RuleResponse {
	return &RuleResponse{
		ID:             r.ID,
		OrgID:          r.OrgID,
		Category:       r.Category,
		MaxCreditDays:  r.MaxCreditDays,
		MinVendorCount: r.MinVendorCount,
		MarginCap:      r.MarginCap,
		Enabled:        r.Enabled,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}
