package document

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// ListFilter defines filtering options for document list queries
type ListFilter struct {
	Type     *Type
	Status   *Status
	FromDate *time.Time
	ToDate   *time.Time
	Search   string
	Page     int
	PageSize int
}

// Repository is the storage port for documents. Save commits the parent and
// its full item set as one atomic unit: on edit the previous items are
// replaced wholesale, and a concurrent reader never observes a document
// whose items are mid-replacement.
type Repository interface {
	FindByID(ctx context.Context, orgID, id uuid.UUID) (*Document, error)
	FindByNumber(ctx context.Context, orgID uuid.UUID, docType Type, number string) (*Document, error)
	FindAll(ctx context.Context, orgID uuid.UUID, filter ListFilter) ([]Document, int64, error)

	// Save upserts the document and replaces its items in one transaction.
	// The document's version column serializes concurrent writers: a stale
	// version fails with shared.ErrConcurrencyConflict and nothing is
	// applied.
	Save(ctx context.Context, doc *Document) error

	// Archive soft-deletes a settled document for audit retention
	Archive(ctx context.Context, orgID, id uuid.UUID) error

	// ExistsByNumber reports whether another document of the same series
	// already carries the number. excludeID skips the document being edited.
	ExistsByNumber(ctx context.Context, orgID uuid.UUID, docType Type, number string, excludeID uuid.UUID) (bool, error)
}
