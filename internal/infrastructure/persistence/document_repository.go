package persistence

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/tradelane/backend/internal/domain/document"
	"github.com/tradelane/backend/internal/domain/shared"
)

// GormDocumentRepository implements document.Repository using GORM.
// Not-found lookups return (nil, nil); the service layer owns the
// user-facing NOT_FOUND error.
type GormDocumentRepository struct {
	db *gorm.DB
}

// NewGormDocumentRepository creates a new GormDocumentRepository
func NewGormDocumentRepository(db *gorm.DB) *GormDocumentRepository {
	return &GormDocumentRepository{db: db}
}

// FindByID finds a document with its items within an org
func (r *GormDocumentRepository) FindByID(ctx context.Context, orgID, id uuid.UUID) (*document.Document, error) {
	var doc document.Document
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("org_id = ? AND id = ? AND archived_at IS NULL", orgID, id).
		First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

// FindByNumber finds a document by series and number within an org
func (r *GormDocumentRepository) FindByNumber(ctx context.Context, orgID uuid.UUID, docType document.Type, number string) (*document.Document, error) {
	var doc document.Document
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("org_id = ? AND document_type = ? AND number = ? AND archived_at IS NULL", orgID, docType, number).
		First(&doc).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &doc, nil
}

// FindAll finds documents for an org with filtering and pagination
func (r *GormDocumentRepository) FindAll(ctx context.Context, orgID uuid.UUID, filter document.ListFilter) ([]document.Document, int64, error) {
	query := r.db.WithContext(ctx).Model(&document.Document{}).
		Where("org_id = ? AND archived_at IS NULL", orgID)

	if filter.Type != nil {
		query = query.Where("document_type = ?", *filter.Type)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.FromDate != nil {
		query = query.Where("issue_date >= ?", *filter.FromDate)
	}
	if filter.ToDate != nil {
		query = query.Where("issue_date <= ?", *filter.ToDate)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("number ILIKE ? OR counterparty_name ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}

	var docs []document.Document
	if err := query.
		Preload("Items").
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&docs).Error; err != nil {
		return nil, 0, err
	}
	return docs, total, nil
}

// Save upserts the document and replaces its full item set in one
// transaction. Existing rows are guarded by an optimistic version check:
// the aggregate's Version was already incremented in memory, so the row
// must still hold Version-1. On any failure the transaction rolls back and
// the stored document, items included, is untouched.
func (r *GormDocumentRepository) Save(ctx context.Context, doc *document.Document) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&document.Document{}).
			Where("id = ?", doc.ID).
			Count(&count).Error; err != nil {
			return err
		}

		if count == 0 {
			if err := tx.Omit("Items").Create(doc).Error; err != nil {
				return translateConstraintError(err)
			}
		} else {
			expectedVersion := doc.Version - 1
			result := tx.Model(&document.Document{}).
				Where("id = ? AND version = ?", doc.ID, expectedVersion).
				Updates(map[string]interface{}{
					"document_type":        doc.Type,
					"number":               doc.Number,
					"counterparty_name":    doc.Counterparty.Name,
					"counterparty_address": doc.Counterparty.Address,
					"counterparty_tax_id":  doc.Counterparty.TaxID,
					"counterparty_email":   doc.Counterparty.Email,
					"counterparty_phone":   doc.Counterparty.Phone,
					"issue_date":           doc.IssueDate,
					"due_date":             doc.DueDate,
					"status":               doc.Status,
					"trade_lane":           doc.Lane,
					"discount_percent":     doc.DiscountPercent,
					"subtotal":             doc.Subtotal,
					"tax_amount":           doc.TaxAmount,
					"discount_amount":      doc.DiscountAmount,
					"total_amount":         doc.TotalAmount,
					"notes":                doc.Notes,
					"reference_number":     doc.ReferenceNumber,
					"sent_at":              doc.SentAt,
					"settled_at":           doc.SettledAt,
					"version":              doc.Version,
					"updated_at":           doc.UpdatedAt,
				})
			if result.Error != nil {
				return translateConstraintError(result.Error)
			}
			if result.RowsAffected == 0 {
				return shared.ErrConcurrencyConflict
			}

			if err := tx.Where("document_id = ?", doc.ID).
				Delete(&document.LineItem{}).Error; err != nil {
				return err
			}
		}

		for i := range doc.Items {
			doc.Items[i].DocumentID = doc.ID
			if err := tx.Create(&doc.Items[i]).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Archive logically deletes a document; the row and its items stay for
// audit queries
func (r *GormDocumentRepository) Archive(ctx context.Context, orgID, id uuid.UUID) error {
	now := time.Now()
	result := r.db.WithContext(ctx).Model(&document.Document{}).
		Where("org_id = ? AND id = ? AND archived_at IS NULL", orgID, id).
		Updates(map[string]interface{}{
			"archived_at": &now,
			"updated_at":  now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// ExistsByNumber reports whether another document of the same org and
// series already carries the number
func (r *GormDocumentRepository) ExistsByNumber(ctx context.Context, orgID uuid.UUID, docType document.Type, number string, excludeID uuid.UUID) (bool, error) {
	query := r.db.WithContext(ctx).Model(&document.Document{}).
		Where("org_id = ? AND document_type = ? AND number = ?", orgID, docType, number)
	if excludeID != uuid.Nil {
		query = query.Where("id != ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// translateConstraintError maps a unique-index violation on the document
// series to the domain's duplicate-number error. The pre-save uniqueness
// check races with concurrent creators; the index is the authority.
func translateConstraintError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return shared.NewDomainError(shared.CodeDuplicateNumber, "A document with this number already exists in the series")
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key value") {
		return shared.NewDomainError(shared.CodeDuplicateNumber, "A document with this number already exists in the series")
	}
	return err
}

var _ document.Repository = (*GormDocumentRepository)(nil)
