package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/tradelane/backend/internal/domain/billing"
	"github.com/tradelane/backend/internal/domain/document"
	"github.com/tradelane/backend/internal/domain/governance"
	"github.com/tradelane/backend/internal/domain/shared"
)

// newTestDB opens a fresh in-memory database with the full schema
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&document.Document{},
		&document.LineItem{},
		&billing.Account{},
		&billing.Quarter{},
		&governance.Rule{},
	))
	return db
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func newDraft(t *testing.T, orgID uuid.UUID, number string) *document.Document {
	t.Helper()
	doc, err := document.New(orgID, document.TypeTaxInvoice, number,
		document.Counterparty{Name: "Meridian Exports Pvt Ltd"}, time.Now())
	require.NoError(t, err)

	item, err := document.NewLineItem(doc.ID, "Steel coils", "7208", "MT", d("2"), d("100"), d("18"))
	require.NoError(t, err)
	require.NoError(t, doc.ReplaceItems([]document.LineItem{*item}))
	return doc
}

func TestGormDocumentRepositorySaveAndFind(t *testing.T) {
	ctx := context.Background()
	repo := NewGormDocumentRepository(newTestDB(t))
	orgID := uuid.New()

	doc := newDraft(t, orgID, "INV-000001")
	require.NoError(t, repo.Save(ctx, doc))

	t.Run("round trips the document with its items", func(t *testing.T) {
		found, err := repo.FindByID(ctx, orgID, doc.ID)
		require.NoError(t, err)
		require.NotNil(t, found)

		assert.Equal(t, doc.Number, found.Number)
		assert.Equal(t, "Meridian Exports Pvt Ltd", found.Counterparty.Name)
		require.Len(t, found.Items, 1)
		assert.True(t, found.TotalAmount.Equal(d("236")))
		assert.Equal(t, doc.Version, found.Version)
	})

	t.Run("finds by series and number", func(t *testing.T) {
		found, err := repo.FindByNumber(ctx, orgID, document.TypeTaxInvoice, "INV-000001")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, doc.ID, found.ID)
	})

	t.Run("misses return nil without an error", func(t *testing.T) {
		found, err := repo.FindByID(ctx, orgID, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, found)

		found, err = repo.FindByNumber(ctx, orgID, document.TypeTaxInvoice, "INV-999999")
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("is scoped to the org", func(t *testing.T) {
		found, err := repo.FindByID(ctx, uuid.New(), doc.ID)
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestGormDocumentRepositoryItemReplacement(t *testing.T) {
	ctx := context.Background()
	repo := NewGormDocumentRepository(newTestDB(t))
	orgID := uuid.New()

	doc := newDraft(t, orgID, "INV-000001")
	require.NoError(t, repo.Save(ctx, doc))

	replacement, err := document.NewLineItem(doc.ID, "Freight", "", "", d("1"), d("50"), d("5"))
	require.NoError(t, err)
	require.NoError(t, doc.ReplaceItems([]document.LineItem{*replacement}))
	require.NoError(t, repo.Save(ctx, doc))

	found, err := repo.FindByID(ctx, orgID, doc.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Len(t, found.Items, 1)
	assert.Equal(t, "Freight", found.Items[0].Description)
	assert.True(t, found.TotalAmount.Equal(d("52.5")))
}

func TestGormDocumentRepositoryVersionConflict(t *testing.T) {
	ctx := context.Background()
	repo := NewGormDocumentRepository(newTestDB(t))
	orgID := uuid.New()

	doc := newDraft(t, orgID, "INV-000001")
	require.NoError(t, repo.Save(ctx, doc))

	first, err := repo.FindByID(ctx, orgID, doc.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, orgID, doc.ID)
	require.NoError(t, err)

	first.SetNotes("first writer")
	require.NoError(t, repo.Save(ctx, first))

	second.SetNotes("second writer")
	err = repo.Save(ctx, second)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

	// the losing write changed nothing
	found, err := repo.FindByID(ctx, orgID, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "first writer", found.Notes)
}

func TestGormDocumentRepositoryDuplicateNumber(t *testing.T) {
	ctx := context.Background()
	repo := NewGormDocumentRepository(newTestDB(t))
	orgID := uuid.New()

	require.NoError(t, repo.Save(ctx, newDraft(t, orgID, "INV-000001")))

	t.Run("the unique index rejects a duplicate in the same series", func(t *testing.T) {
		err := repo.Save(ctx, newDraft(t, orgID, "INV-000001"))
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeDuplicateNumber, domainErr.Code)
	})

	t.Run("other series and orgs are unaffected", func(t *testing.T) {
		other, err := document.New(orgID, document.TypePurchaseOrder, "INV-000001",
			document.Counterparty{Name: "Meridian Exports Pvt Ltd"}, time.Now())
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, other))

		require.NoError(t, repo.Save(ctx, newDraft(t, uuid.New(), "INV-000001")))
	})
}

func TestGormDocumentRepositoryArchive(t *testing.T) {
	ctx := context.Background()
	repo := NewGormDocumentRepository(newTestDB(t))
	orgID := uuid.New()

	doc := newDraft(t, orgID, "INV-000001")
	require.NoError(t, repo.Save(ctx, doc))
	require.NoError(t, repo.Archive(ctx, orgID, doc.ID))

	t.Run("archived documents disappear from reads", func(t *testing.T) {
		found, err := repo.FindByID(ctx, orgID, doc.ID)
		require.NoError(t, err)
		assert.Nil(t, found)

		docs, total, err := repo.FindAll(ctx, orgID, document.ListFilter{Page: 1, PageSize: 20})
		require.NoError(t, err)
		assert.Zero(t, total)
		assert.Empty(t, docs)
	})

	t.Run("archiving twice reports not found", func(t *testing.T) {
		err := repo.Archive(ctx, orgID, doc.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("the number stays reserved for the series", func(t *testing.T) {
		exists, err := repo.ExistsByNumber(ctx, orgID, document.TypeTaxInvoice, "INV-000001", uuid.Nil)
		require.NoError(t, err)
		assert.True(t, exists)
	})
}

func TestGormDocumentRepositoryExistsByNumber(t *testing.T) {
	ctx := context.Background()
	repo := NewGormDocumentRepository(newTestDB(t))
	orgID := uuid.New()

	doc := newDraft(t, orgID, "INV-000001")
	require.NoError(t, repo.Save(ctx, doc))

	exists, err := repo.ExistsByNumber(ctx, orgID, document.TypeTaxInvoice, "INV-000001", uuid.Nil)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.ExistsByNumber(ctx, orgID, document.TypeTaxInvoice, "INV-000002", uuid.Nil)
	require.NoError(t, err)
	assert.False(t, exists)

	// the document does not conflict with itself during renumber checks
	exists, err = repo.ExistsByNumber(ctx, orgID, document.TypeTaxInvoice, "INV-000001", doc.ID)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestGormDocumentRepositoryFindAll(t *testing.T) {
	ctx := context.Background()
	repo := NewGormDocumentRepository(newTestDB(t))
	orgID := uuid.New()

	invoice := newDraft(t, orgID, "INV-000001")
	require.NoError(t, repo.Save(ctx, invoice))

	sent := newDraft(t, orgID, "INV-000002")
	require.NoError(t, sent.Transition(document.StatusSent))
	require.NoError(t, repo.Save(ctx, sent))

	po, err := document.New(orgID, document.TypePurchaseOrder, "PO-000001",
		document.Counterparty{Name: "Meridian Exports Pvt Ltd"}, time.Now())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, po))

	t.Run("filters by type", func(t *testing.T) {
		docType := document.TypePurchaseOrder
		docs, total, err := repo.FindAll(ctx, orgID, document.ListFilter{Type: &docType, Page: 1, PageSize: 20})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		require.Len(t, docs, 1)
		assert.Equal(t, "PO-000001", docs[0].Number)
	})

	t.Run("filters by status", func(t *testing.T) {
		status := document.StatusSent
		_, total, err := repo.FindAll(ctx, orgID, document.ListFilter{Status: &status, Page: 1, PageSize: 20})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
	})

	t.Run("paginates with a full total", func(t *testing.T) {
		docs, total, err := repo.FindAll(ctx, orgID, document.ListFilter{Page: 1, PageSize: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Len(t, docs, 2)
	})

	t.Run("other orgs see nothing", func(t *testing.T) {
		_, total, err := repo.FindAll(ctx, uuid.New(), document.ListFilter{Page: 1, PageSize: 20})
		require.NoError(t, err)
		assert.Zero(t, total)
	})
}
