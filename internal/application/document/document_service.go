package document

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/tradelane/backend/internal/domain/document"
	"github.com/tradelane/backend/internal/domain/shared"
	"github.com/tradelane/backend/internal/domain/shared/valueobject"
	"github.com/tradelane/backend/internal/infrastructure/telemetry"
)

const (
	opCreate       = "create"
	opReplaceItems = "replace_items"
	opTransition   = "transition"
)

// VolumeRecorder receives settled transaction volume for quarterly billing.
// Implementations must be idempotent per settlement ID: the same settlement
// reported twice is counted once.
type VolumeRecorder interface {
	RecordSettlement(ctx context.Context, orgID uuid.UUID, settlementID string, settledAt time.Time, lane document.TradeLane, amount decimal.Decimal) error
}

// Service coordinates document writes: number generation, lifecycle
// transitions, and the atomic parent+items persistence contract.
type Service struct {
	repo    document.Repository
	numbers *document.NumberGenerator
	clock   document.Clock
	volume  VolumeRecorder
	logger  *zap.Logger
	metrics *telemetry.BusinessMetrics

	maxRetries   int
	retryBackoff time.Duration
}

// ServiceOption is a functional option for configuring Service
type ServiceOption func(*Service)

// WithClock injects the time source used for issue dates and numbering
func WithClock(clock document.Clock) ServiceOption {
	return func(s *Service) {
		s.clock = clock
		s.numbers = document.NewNumberGenerator(clock)
	}
}

// WithVolumeRecorder wires settled volume into the billing engine
func WithVolumeRecorder(recorder VolumeRecorder) ServiceOption {
	return func(s *Service) { s.volume = recorder }
}

// WithMetrics wires business metrics recording
func WithMetrics(metrics *telemetry.BusinessMetrics) ServiceOption {
	return func(s *Service) { s.metrics = metrics }
}

// WithRetryPolicy overrides the transient-failure retry policy
func WithRetryPolicy(maxRetries int, backoff time.Duration) ServiceOption {
	return func(s *Service) {
		s.maxRetries = maxRetries
		s.retryBackoff = backoff
	}
}

// NewService creates a document service
func NewService(repo document.Repository, logger *zap.Logger, opts ...ServiceOption) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		repo:         repo,
		numbers:      document.NewNumberGenerator(nil),
		clock:        time.Now,
		logger:       logger,
		maxRetries:   3,
		retryBackoff: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CounterpartyInput carries the other party's details
type CounterpartyInput struct {
	Name    string `json:"name" binding:"required,max=200"`
	Address string `json:"address" binding:"max=500"`
	TaxID   string `json:"tax_id" binding:"max=50"`
	Email   string `json:"email" binding:"omitempty,email"`
	Phone   string `json:"phone" binding:"max=30"`
}

// LineItemInput carries one line item row as entered
type LineItemInput struct {
	Description string          `json:"description" binding:"required,max=500"`
	HSNCode     string          `json:"hsn_code" binding:"max=20"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
	Unit        string          `json:"unit" binding:"max=20"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
}

// CreateDocumentRequest creates a new draft document
type CreateDocumentRequest struct {
	Type            string            `json:"type" binding:"required"`
	Number          string            `json:"number" binding:"max=50"` // blank = generate
	Counterparty    CounterpartyInput `json:"counterparty" binding:"required"`
	IssueDate       *time.Time        `json:"issue_date"`
	DueDate         *time.Time        `json:"due_date"`
	Lane            string            `json:"trade_lane"`
	DiscountPercent decimal.Decimal   `json:"discount_percent"`
	Items           []LineItemInput   `json:"items"`
	Notes           string            `json:"notes"`
	ReferenceNumber string            `json:"reference_number" binding:"max=50"`
}

// UpdateDraftRequest replaces a draft's editable content wholesale
type UpdateDraftRequest struct {
	Number          string            `json:"number" binding:"max=50"`
	Counterparty    CounterpartyInput `json:"counterparty" binding:"required"`
	DueDate         *time.Time        `json:"due_date"`
	Lane            string            `json:"trade_lane"`
	DiscountPercent decimal.Decimal   `json:"discount_percent"`
	Items           []LineItemInput   `json:"items"`
	Notes           string            `json:"notes"`
	ReferenceNumber string            `json:"reference_number" binding:"max=50"`
}

// LineItemResponse represents a line item in API responses
type LineItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	HSNCode     string          `json:"hsn_code,omitempty"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit,omitempty"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	TaxRate     decimal.Decimal `json:"tax_rate"`
	TaxAmount   decimal.Decimal `json:"tax_amount"`
	Total       decimal.Decimal `json:"total"`
}

// DocumentResponse represents a document in API responses. Monetary fields
// are rounded to 2 places at this boundary; internal state keeps full
// precision.
type DocumentResponse struct {
	ID              uuid.UUID          `json:"id"`
	OrgID           uuid.UUID          `json:"org_id"`
	Type            string             `json:"type"`
	Number          string             `json:"number"`
	Counterparty    CounterpartyInput  `json:"counterparty"`
	IssueDate       time.Time          `json:"issue_date"`
	DueDate         *time.Time         `json:"due_date,omitempty"`
	Status          string             `json:"status"`
	Lane            string             `json:"trade_lane"`
	Items           []LineItemResponse `json:"items"`
	DiscountPercent decimal.Decimal    `json:"discount_percent"`
	Subtotal        decimal.Decimal    `json:"subtotal"`
	TaxAmount       decimal.Decimal    `json:"tax_amount"`
	DiscountAmount  decimal.Decimal    `json:"discount_amount"`
	TotalAmount     decimal.Decimal    `json:"total_amount"`
	Notes           string             `json:"notes,omitempty"`
	ReferenceNumber string             `json:"reference_number,omitempty"`
	SentAt          *time.Time         `json:"sent_at,omitempty"`
	SettledAt       *time.Time         `json:"settled_at,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
	Version         int                `json:"version"`
}

// ListFilter defines filtering options for document list queries
type ListFilter struct {
	Type     string     `form:"type"`
	Status   string     `form:"status"`
	FromDate *time.Time `form:"from_date" time_format:"2006-01-02"`
	ToDate   *time.Time `form:"to_date" time_format:"2006-01-02"`
	Search   string     `form:"search"`
	Page     int        `form:"page"`
	PageSize int        `form:"page_size"`
}

// CreateDocument creates a draft document with its initial item set. A blank
// number is generated from the type's series; an explicit number is checked
// for uniqueness within the org and series before anything is written.
func (s *Service) CreateDocument(ctx context.Context, orgID uuid.UUID, req CreateDocumentRequest) (*DocumentResponse, error) {
	docType := document.Type(req.Type)
	if !docType.IsValid() {
		return nil, shared.NewDomainError("INVALID_DOCUMENT_TYPE", "Unknown document type")
	}

	number := req.Number
	if number == "" {
		number = s.numbers.Next(docType)
	}
	taken, err := s.repo.ExistsByNumber(ctx, orgID, docType, number, uuid.Nil)
	if err != nil {
		return nil, shared.NewDomainError(shared.CodePersistenceFailed, "Could not verify document number uniqueness")
	}
	if taken {
		return nil, shared.NewDomainError(shared.CodeDuplicateNumber, "A document with this number already exists in the series")
	}

	issueDate := s.clock()
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}

	doc, err := document.New(orgID, docType, number, toCounterparty(req.Counterparty), issueDate)
	if err != nil {
		return nil, err
	}
	if req.Lane != "" {
		if err := doc.SetLane(document.TradeLane(req.Lane)); err != nil {
			return nil, err
		}
	}
	if !req.DiscountPercent.IsZero() {
		if err := doc.SetDiscountPercent(req.DiscountPercent); err != nil {
			return nil, err
		}
	}
	if req.ReferenceNumber != "" {
		if err := doc.SetReferenceNumber(req.ReferenceNumber); err != nil {
			return nil, err
		}
	}
	doc.SetDueDate(req.DueDate)
	doc.SetNotes(req.Notes)

	items, err := buildItems(doc.ID, req.Items)
	if err != nil {
		return nil, err
	}
	if err := doc.ReplaceItems(items); err != nil {
		return nil, err
	}

	if err := s.saveWithRetry(ctx, doc, opCreate); err != nil {
		return nil, err
	}

	s.metrics.RecordDocumentCreated(ctx, doc.Type.String(), doc.TotalAmount)
	s.logger.Info("document created",
		zap.String("document_id", doc.ID.String()),
		zap.String("type", doc.Type.String()),
		zap.String("number", doc.Number),
	)
	return toResponse(doc), nil
}

// GetDocument fetches one document with its items
func (s *Service) GetDocument(ctx context.Context, orgID, id uuid.UUID) (*DocumentResponse, error) {
	doc, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Document not found")
	}
	return toResponse(doc), nil
}

// ListDocuments returns a filtered page of documents
func (s *Service) ListDocuments(ctx context.Context, orgID uuid.UUID, filter ListFilter) (*shared.Paginated[DocumentResponse], error) {
	domainFilter := document.ListFilter{
		FromDate: filter.FromDate,
		ToDate:   filter.ToDate,
		Search:   filter.Search,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	}
	if filter.Type != "" {
		t := document.Type(filter.Type)
		if !t.IsValid() {
			return nil, shared.NewDomainError("INVALID_DOCUMENT_TYPE", "Unknown document type")
		}
		domainFilter.Type = &t
	}
	if filter.Status != "" {
		st := document.Status(filter.Status)
		if !st.IsValid() {
			return nil, shared.NewDomainError("INVALID_STATUS", "Unknown document status")
		}
		domainFilter.Status = &st
	}
	if domainFilter.Page < 1 {
		domainFilter.Page = 1
	}
	if domainFilter.PageSize < 1 || domainFilter.PageSize > 100 {
		domainFilter.PageSize = 20
	}

	docs, total, err := s.repo.FindAll(ctx, orgID, domainFilter)
	if err != nil {
		return nil, err
	}

	responses := make([]DocumentResponse, len(docs))
	for i := range docs {
		responses[i] = *toResponse(&docs[i])
	}
	page := shared.NewPaginated(responses, total, domainFilter.Page, domainFilter.PageSize)
	return &page, nil
}

// UpdateDraft replaces a draft's content, including its full item set.
// Items are never patched individually: the request's item list becomes the
// document's item list, committed atomically with the parent.
func (s *Service) UpdateDraft(ctx context.Context, orgID, id uuid.UUID, req UpdateDraftRequest) (*DocumentResponse, error) {
	doc, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Document not found")
	}

	if req.Number != "" && req.Number != doc.Number {
		taken, err := s.repo.ExistsByNumber(ctx, orgID, doc.Type, req.Number, doc.ID)
		if err != nil {
			return nil, shared.NewDomainError(shared.CodePersistenceFailed, "Could not verify document number uniqueness")
		}
		if taken {
			return nil, shared.NewDomainError(shared.CodeDuplicateNumber, "A document with this number already exists in the series")
		}
		if err := doc.SetNumber(req.Number); err != nil {
			return nil, err
		}
	}

	if err := doc.SetCounterparty(toCounterparty(req.Counterparty)); err != nil {
		return nil, err
	}
	if req.Lane != "" {
		if err := doc.SetLane(document.TradeLane(req.Lane)); err != nil {
			return nil, err
		}
	}
	if err := doc.SetDiscountPercent(req.DiscountPercent); err != nil {
		return nil, err
	}
	if req.ReferenceNumber != "" || doc.ReferenceNumber != "" {
		if doc.Type.IsNote() {
			if err := doc.SetReferenceNumber(req.ReferenceNumber); err != nil {
				return nil, err
			}
		} else if req.ReferenceNumber != "" {
			return nil, shared.NewDomainError("INVALID_REFERENCE", "Only debit and credit notes carry a reference number")
		}
	}
	doc.SetDueDate(req.DueDate)
	doc.SetNotes(req.Notes)

	items, err := buildItems(doc.ID, req.Items)
	if err != nil {
		return nil, err
	}
	if err := doc.ReplaceItems(items); err != nil {
		return nil, err
	}

	if err := s.saveWithRetry(ctx, doc, opReplaceItems); err != nil {
		return nil, err
	}
	return toResponse(doc), nil
}

// Transition moves a document to the requested status. A paid settlement
// additionally attributes the document's total to the org's billing quarter.
func (s *Service) Transition(ctx context.Context, orgID, id uuid.UUID, to document.Status) (*DocumentResponse, error) {
	doc, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, shared.NewDomainError("NOT_FOUND", "Document not found")
	}

	from := doc.Status
	if err := doc.Transition(to); err != nil {
		return nil, err
	}
	if err := s.saveWithRetry(ctx, doc, opTransition); err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(ctx, doc.Type.String(), from.String(), to.String())

	if to == document.StatusPaid {
		s.recordSettledVolume(ctx, doc)
	}
	return toResponse(doc), nil
}

// Archive soft-deletes a settled document. Drafts and in-flight documents
// cannot be archived; settled ones stay queryable for audit.
func (s *Service) Archive(ctx context.Context, orgID, id uuid.UUID) error {
	doc, err := s.repo.FindByID(ctx, orgID, id)
	if err != nil {
		return err
	}
	if doc == nil {
		return shared.NewDomainError("NOT_FOUND", "Document not found")
	}
	if !doc.IsSettled() {
		return shared.NewDomainError("INVALID_STATE", "Only settled documents can be archived")
	}
	return s.repo.Archive(ctx, orgID, id)
}

// recordSettledVolume feeds a paid document's total into quarterly billing.
// Only revenue documents count: notes amend invoices and do not add volume.
// Attribution is idempotent per document, so a failure here is logged and
// retried out of band rather than rolling back the payment.
func (s *Service) recordSettledVolume(ctx context.Context, doc *document.Document) {
	if s.volume == nil {
		return
	}
	if doc.Type.IsNote() {
		return
	}

	settledAt := s.clock()
	if doc.SettledAt != nil {
		settledAt = *doc.SettledAt
	}
	total := doc.GetTotalAmountMoney()
	if err := s.volume.RecordSettlement(ctx, doc.OrgID, doc.ID.String(), settledAt, doc.Lane, total.Amount()); err != nil {
		s.logger.Error("failed to attribute settled volume to billing quarter",
			zap.String("document_id", doc.ID.String()),
			zap.Error(err),
		)
		return
	}
	s.metrics.RecordSettlementVolume(ctx, doc.Lane.String(), total.Amount())
}

// saveWithRetry persists the document, retrying transient failures with
// exponential backoff. Domain errors (validation, version conflicts) are
// permanent and surface immediately. When retries are exhausted mid item
// replacement the failure is reported as a partial-replacement persistence
// error; the transaction boundary guarantees no partial state was committed.
func (s *Service) saveWithRetry(ctx context.Context, doc *document.Document, operation string) error {
	backoff := s.retryBackoff
	for attempt := 0; ; attempt++ {
		if attempt > 0 {
			s.metrics.RecordPersistenceRetry(ctx, operation)
			select {
			case <-ctx.Done():
				return shared.NewDomainError(shared.CodePersistenceFailed, "Save cancelled; no changes were applied")
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		err := s.repo.Save(ctx, doc)
		if err == nil {
			return nil
		}

		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) {
			return err
		}

		s.logger.Warn("document save failed",
			zap.String("operation", operation),
			zap.String("document_id", doc.ID.String()),
			zap.Int("attempt", attempt+1),
			zap.Error(err),
		)
		if attempt >= s.maxRetries {
			if operation == opReplaceItems {
				return shared.NewDomainError(shared.CodePartialItemReplacement, "Item replacement could not be committed; the document was left unchanged")
			}
			return shared.NewDomainError(shared.CodePersistenceFailed, "Save failed; no changes were applied")
		}
	}
}

func buildItems(docID uuid.UUID, inputs []LineItemInput) ([]document.LineItem, error) {
	items := make([]document.LineItem, 0, len(inputs))
	for _, in := range inputs {
		item, err := document.NewLineItem(docID, in.Description, in.HSNCode, in.Unit, in.Quantity, in.UnitPrice, in.TaxRate)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, nil
}

func toCounterparty(in CounterpartyInput) document.Counterparty {
	return document.Counterparty{
		Name:    in.Name,
		Address: in.Address,
		TaxID:   in.TaxID,
		Email:   in.Email,
		Phone:   in.Phone,
	}
}

// storageAmount rounds a monetary value to the storage precision through the
// Money value object, keeping one definition of boundary rounding.
func storageAmount(d decimal.Decimal) decimal.Decimal {
	return valueobject.NewMoneyINR(d).RoundStorage().Amount()
}

func toResponse(doc *document.Document) *DocumentResponse {
	items := make([]LineItemResponse, len(doc.Items))
	for i := range doc.Items {
		it := &doc.Items[i]
		items[i] = LineItemResponse{
			ID:          it.ID,
			Description: it.Description,
			HSNCode:     it.HSNCode,
			Quantity:    it.Quantity,
			Unit:        it.Unit,
			UnitPrice:   it.UnitPrice,
			TaxRate:     it.TaxRate,
			TaxAmount:   storageAmount(it.TaxAmount),
			Total:       storageAmount(it.Total),
		}
	}
	return &DocumentResponse{
		ID:     doc.ID,
		OrgID:  doc.OrgID,
		Type:   doc.Type.String(),
		Number: doc.Number,
		Counterparty: CounterpartyInput{
			Name:    doc.Counterparty.Name,
			Address: doc.Counterparty.Address,
			TaxID:   doc.Counterparty.TaxID,
			Email:   doc.Counterparty.Email,
			Phone:   doc.Counterparty.Phone,
		},
		IssueDate:       doc.IssueDate,
		DueDate:         doc.DueDate,
		Status:          doc.Status.String(),
		Lane:            doc.Lane.String(),
		Items:           items,
		DiscountPercent: doc.DiscountPercent,
		Subtotal:        storageAmount(doc.Subtotal),
		TaxAmount:       storageAmount(doc.TaxAmount),
		DiscountAmount:  storageAmount(doc.DiscountAmount),
		TotalAmount:     storageAmount(doc.TotalAmount),
		Notes:           doc.Notes,
		ReferenceNumber: doc.ReferenceNumber,
		SentAt:          doc.SentAt,
		SettledAt:       doc.SettledAt,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
		Version:         doc.Version,
	}
}
