package billing

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradelane/backend/internal/domain/billing"
	"github.com/tradelane/backend/internal/domain/document"
	"github.com/tradelane/backend/internal/domain/shared"
	"github.com/tradelane/backend/internal/domain/shared/valueobject"
	"github.com/tradelane/backend/internal/infrastructure/config"
)

// FeeScheduleFromConfig builds the domain fee schedule from configuration.
// Malformed percent strings fall back to the standard schedule.
func FeeScheduleFromConfig(cfg config.BillingConfig, logger *zap.Logger) billing.FeeSchedule {
	schedule := billing.DefaultFeeSchedule()
	if cfg.OnboardingDurationDays > 0 {
		schedule.OnboardingDuration = time.Duration(cfg.OnboardingDurationDays) * 24 * time.Hour
	}
	if p, err := decimal.NewFromString(cfg.DomesticFeePercent); err == nil {
		schedule.DomesticFeePercent = p
	} else if logger != nil {
		logger.Warn("invalid domestic_fee_percent, using default",
			zap.String("value", cfg.DomesticFeePercent))
	}
	if p, err := decimal.NewFromString(cfg.ImportExportFeePercent); err == nil {
		schedule.ImportExportFeePercent = p
	} else if logger != nil {
		logger.Warn("invalid import_export_fee_percent, using default",
			zap.String("value", cfg.ImportExportFeePercent))
	}
	return schedule
}

// Service runs the quarterly billing engine: account registration, volume
// attribution from settled transactions, fee recomputation, and the
// invoice rollup at quarter close.
type Service struct {
	accounts billing.AccountRepository
	quarters billing.QuarterRepository
	dedupe   shared.IdempotencyStore
	schedule billing.FeeSchedule
	clock    func() time.Time
	logger   *zap.Logger

	dedupeTTL       time.Duration
	defaultTimezone string
}

// ServiceOption is a functional option for configuring Service
type ServiceOption func(*Service)

// WithClock injects the time source used for quarter classification
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *Service) { s.clock = clock }
}

// WithDefaultTimezone sets the timezone applied to accounts registered
// without one
func WithDefaultTimezone(tz string) ServiceOption {
	return func(s *Service) { s.defaultTimezone = tz }
}

// WithDedupeStore wires the settlement idempotency store
func WithDedupeStore(store shared.IdempotencyStore, ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.dedupe = store
		if ttl > 0 {
			s.dedupeTTL = ttl
		}
	}
}

// NewService creates a billing service
func NewService(accounts billing.AccountRepository, quarters billing.QuarterRepository, schedule billing.FeeSchedule, logger *zap.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		accounts:  accounts,
		quarters:  quarters,
		schedule:  schedule,
		clock:     time.Now,
		logger:    logger,
		dedupeTTL: 30 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterAccountRequest activates an org for quarterly billing
type RegisterAccountRequest struct {
	ActivatedAt *time.Time `json:"activated_at"`
	Timezone    string     `json:"timezone"`
}

// AccountResponse represents a billing account in API responses
type AccountResponse struct {
	ID          uuid.UUID `json:"id"`
	OrgID       uuid.UUID `json:"org_id"`
	ActivatedAt time.Time `json:"activated_at"`
	Timezone    string    `json:"timezone"`
	CreatedAt   time.Time `json:"created_at"`
}

// QuarterResponse represents a billing quarter in API responses. Monetary
// fields are rounded to 2 places at this boundary.
type QuarterResponse struct {
	ID                  uuid.UUID       `json:"id"`
	OrgID               uuid.UUID       `json:"org_id"`
	QuarterKey          string          `json:"quarter_key"`
	QuarterStart        time.Time       `json:"quarter_start"`
	QuarterEnd          time.Time       `json:"quarter_end"`
	DomesticVolume      decimal.Decimal `json:"domestic_volume"`
	ImportExportVolume  decimal.Decimal `json:"import_export_volume"`
	TotalFee            decimal.Decimal `json:"total_fee"`
	IsOnboardingQuarter bool            `json:"is_onboarding_quarter"`
	InvoiceStatus       string          `json:"invoice_status"`
	UpdatedAt           time.Time       `json:"updated_at"`
}

// RegisterAccount activates quarterly billing for an org. Activation time
// defaults to now; it anchors the onboarding grace window.
func (s *Service) RegisterAccount(ctx context.Context, orgID uuid.UUID, req RegisterAccountRequest) (*AccountResponse, error) {
	existing, err := s.accounts.FindByOrgID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Org already has a billing account")
	}

	activatedAt := s.clock()
	if req.ActivatedAt != nil {
		activatedAt = *req.ActivatedAt
	}
	timezone := req.Timezone
	if timezone == "" {
		timezone = s.defaultTimezone
	}
	account, err := billing.NewAccount(orgID, activatedAt, timezone)
	if err != nil {
		return nil, err
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	s.logger.Info("billing account registered",
		zap.String("org_id", orgID.String()),
		zap.Time("activated_at", activatedAt),
		zap.String("timezone", account.Timezone),
	)
	return toAccountResponse(account), nil
}

// GetAccount fetches an org's billing account
func (s *Service) GetAccount(ctx context.Context, orgID uuid.UUID) (*AccountResponse, error) {
	account, err := s.accounts.FindByOrgID(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Billing account not found")
	}
	return toAccountResponse(account), nil
}

// RecordSettlement attributes a settled transaction's volume to the org's
// calendar quarter. Idempotent per settlement ID. The dedupe mark is written
// only after the increment commits, so a failed attribution stays retryable;
// concurrent duplicates of the same settlement are already serialized
// upstream by the document's optimistic version check.
func (s *Service) RecordSettlement(ctx context.Context, orgID uuid.UUID, settlementID string, settledAt time.Time, lane document.TradeLane, amount decimal.Decimal) error {
	if settlementID == "" {
		return shared.NewDomainError("INVALID_SETTLEMENT", "Settlement ID cannot be empty")
	}
	if amount.IsNegative() {
		return shared.NewDomainError(shared.CodeNegativeMagnitude, "Settlement amount cannot be negative")
	}

	if s.dedupe != nil {
		processed, err := s.dedupe.IsProcessed(ctx, settlementID)
		if err != nil {
			return err
		}
		if processed {
			s.logger.Debug("settlement already attributed, skipping",
				zap.String("settlement_id", settlementID))
			return nil
		}
	}

	account, err := s.accounts.FindByOrgID(ctx, orgID)
	if err != nil {
		return err
	}
	if account == nil {
		return shared.NewDomainError("BILLING_ACCOUNT_NOT_FOUND", "Org has no billing account; settled volume cannot be attributed")
	}

	loc := account.Location()
	key := billing.QuarterOf(settledAt, loc)

	quarter, err := s.getOrCreateQuarter(ctx, account, key, loc)
	if err != nil {
		return err
	}

	domesticDelta := decimal.Zero
	importExportDelta := decimal.Zero
	if lane.IsCrossBorder() {
		importExportDelta = amount
	} else {
		domesticDelta = amount
	}

	// Fee is linear in volume, so the fee delta of this settlement is exact
	// and the running total stays equal to a from-scratch recomputation.
	// Waived quarters still accumulate volume but owe nothing.
	feeDelta := decimal.Zero
	if !quarter.IsOnboardingQuarter && quarter.InvoiceStatus != billing.InvoiceStatusWaived {
		feeDelta = billing.ComputeFee(domesticDelta, importExportDelta, s.schedule, false)
	}

	if err := s.quarters.IncrementVolume(ctx, orgID, key, domesticDelta, importExportDelta, feeDelta); err != nil {
		return err
	}

	if s.dedupe != nil {
		if _, err := s.dedupe.MarkProcessed(ctx, settlementID, s.dedupeTTL); err != nil {
			s.logger.Warn("failed to mark settlement as processed",
				zap.String("settlement_id", settlementID),
				zap.Error(err))
		}
	}

	s.logger.Info("settlement volume attributed",
		zap.String("org_id", orgID.String()),
		zap.String("settlement_id", settlementID),
		zap.String("quarter", key.String()),
		zap.String("lane", lane.String()),
		zap.String("amount", amount.String()),
	)
	return nil
}

// getOrCreateQuarter fetches the org-quarter record, creating it lazily on
// first volume. A concurrent creator winning the unique-index race is fine:
// we re-read and use their row.
func (s *Service) getOrCreateQuarter(ctx context.Context, account *billing.Account, key billing.QuarterKey, loc *time.Location) (*billing.Quarter, error) {
	quarter, err := s.quarters.Get(ctx, account.OrgID, key)
	if err != nil {
		return nil, err
	}
	if quarter != nil {
		return quarter, nil
	}

	quarter, err = billing.NewQuarter(account.OrgID, key, loc, account.ActivatedAt, s.schedule)
	if err != nil {
		return nil, err
	}
	if err := s.quarters.Create(ctx, quarter); err != nil {
		existing, getErr := s.quarters.Get(ctx, account.OrgID, key)
		if getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	return quarter, nil
}

// GetQuarter fetches one billing quarter
func (s *Service) GetQuarter(ctx context.Context, orgID uuid.UUID, key billing.QuarterKey) (*QuarterResponse, error) {
	quarter, err := s.quarters.Get(ctx, orgID, key)
	if err != nil {
		return nil, err
	}
	if quarter == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "No billing record exists for this quarter")
	}
	return toQuarterResponse(quarter), nil
}

// ListQuarters returns all billing quarters for an org
func (s *Service) ListQuarters(ctx context.Context, orgID uuid.UUID) ([]QuarterResponse, error) {
	quarters, err := s.quarters.ListForOrg(ctx, orgID)
	if err != nil {
		return nil, err
	}
	responses := make([]QuarterResponse, len(quarters))
	for i := range quarters {
		responses[i] = *toQuarterResponse(&quarters[i])
	}
	return responses, nil
}

// RecomputeQuarter rebuilds the quarter's fee from its stored volumes.
// Used after a fee schedule change or to verify the incremental total.
func (s *Service) RecomputeQuarter(ctx context.Context, orgID uuid.UUID, key billing.QuarterKey) (*QuarterResponse, error) {
	quarter, err := s.quarters.Get(ctx, orgID, key)
	if err != nil {
		return nil, err
	}
	if quarter == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "No billing record exists for this quarter")
	}

	quarter.RecomputeFee(s.schedule)
	quarter.IncrementVersion()
	if err := s.quarters.Save(ctx, quarter); err != nil {
		return nil, err
	}
	return toQuarterResponse(quarter), nil
}

// MarkQuarterPaid records payment of a quarter's governance fee invoice
func (s *Service) MarkQuarterPaid(ctx context.Context, orgID uuid.UUID, key billing.QuarterKey) (*QuarterResponse, error) {
	quarter, err := s.quarters.Get(ctx, orgID, key)
	if err != nil {
		return nil, err
	}
	if quarter == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "No billing record exists for this quarter")
	}
	if err := quarter.MarkInvoicePaid(); err != nil {
		return nil, err
	}
	if err := s.quarters.Save(ctx, quarter); err != nil {
		return nil, err
	}
	return toQuarterResponse(quarter), nil
}

// WaiveQuarter waives a quarter's fee for dispute resolution
func (s *Service) WaiveQuarter(ctx context.Context, orgID uuid.UUID, key billing.QuarterKey) (*QuarterResponse, error) {
	quarter, err := s.quarters.Get(ctx, orgID, key)
	if err != nil {
		return nil, err
	}
	if quarter == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "No billing record exists for this quarter")
	}
	if err := quarter.Waive(); err != nil {
		return nil, err
	}
	if err := s.quarters.Save(ctx, quarter); err != nil {
		return nil, err
	}
	return toQuarterResponse(quarter), nil
}

// CloseEndedQuarters rolls up every pending quarter whose span has ended:
// onboarding quarters are waived, billable ones get their invoice marked
// generated. Returns the number of quarters closed. Safe to run repeatedly;
// already-closed quarters are not pending and are skipped by the query.
func (s *Service) CloseEndedQuarters(ctx context.Context) (int, error) {
	now := s.clock()
	pending, err := s.quarters.ListEndedWithStatus(ctx, now, billing.InvoiceStatusPending)
	if err != nil {
		return 0, err
	}

	closed := 0
	for i := range pending {
		quarter := &pending[i]
		if quarter.IsOnboardingQuarter {
			err = quarter.Waive()
		} else {
			err = quarter.MarkInvoiceGenerated()
		}
		if err != nil {
			s.logger.Warn("skipping quarter close",
				zap.String("org_id", quarter.OrgID.String()),
				zap.String("quarter", quarter.QuarterKey),
				zap.Error(err))
			continue
		}
		if err := s.quarters.Save(ctx, quarter); err != nil {
			s.logger.Error("failed to persist quarter close",
				zap.String("org_id", quarter.OrgID.String()),
				zap.String("quarter", quarter.QuarterKey),
				zap.Error(err))
			continue
		}
		closed++
	}

	if closed > 0 {
		s.logger.Info("quarter close completed", zap.Int("closed", closed))
	}
	return closed, nil
}

func toAccountResponse(a *billing.Account) *AccountResponse {
	return &AccountResponse{
		ID:          a.ID,
		OrgID:       a.OrgID,
		ActivatedAt: a.ActivatedAt,
		Timezone:    a.Timezone,
		CreatedAt:   a.CreatedAt,
	}
}

// storageAmount rounds a monetary value to the storage precision through the
// Money value object, keeping one definition of boundary rounding.
func storageAmount(d decimal.Decimal) decimal.Decimal {
	return valueobject.NewMoneyINR(d).RoundStorage().Amount()
}

func toQuarterResponse(q *billing.Quarter) *QuarterResponse {
	return &QuarterResponse{
		ID:                  q.ID,
		OrgID:               q.OrgID,
		QuarterKey:          q.QuarterKey,
		QuarterStart:        q.QuarterStart,
		QuarterEnd:          q.QuarterEnd,
		DomesticVolume:      storageAmount(q.DomesticVolume),
		ImportExportVolume:  storageAmount(q.ImportExportVolume),
		TotalFee:            storageAmount(q.TotalFee),
		IsOnboardingQuarter: q.IsOnboardingQuarter,
		InvoiceStatus:       q.InvoiceStatus.String(),
		UpdatedAt:           q.UpdatedAt,
	}
}
