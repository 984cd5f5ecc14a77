package document

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradelane/backend/internal/domain/shared"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCalculateLine(t *testing.T) {
	t.Run("computes tax and total", func(t *testing.T) {
		amounts, err := CalculateLine(d("2"), d("100"), d("18"))
		require.NoError(t, err)

		assert.True(t, amounts.TaxAmount.Equal(d("36")), "tax = %s", amounts.TaxAmount)
		assert.True(t, amounts.Total.Equal(d("236")), "total = %s", amounts.Total)
	})

	t.Run("computes fractional tax", func(t *testing.T) {
		amounts, err := CalculateLine(d("1"), d("50"), d("5"))
		require.NoError(t, err)

		assert.True(t, amounts.TaxAmount.Equal(d("2.5")))
		assert.True(t, amounts.Total.Equal(d("52.5")))
	})

	t.Run("zero tax rate yields zero tax", func(t *testing.T) {
		amounts, err := CalculateLine(d("3"), d("10"), decimal.Zero)
		require.NoError(t, err)

		assert.True(t, amounts.TaxAmount.IsZero())
		assert.True(t, amounts.Total.Equal(d("30")))
	})

	t.Run("fails with negative quantity", func(t *testing.T) {
		_, err := CalculateLine(d("-1"), d("100"), d("18"))
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeNegativeMagnitude, domainErr.Code)
	})

	t.Run("fails with negative unit price", func(t *testing.T) {
		_, err := CalculateLine(d("1"), d("-0.01"), d("18"))
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeNegativeMagnitude, domainErr.Code)
	})

	t.Run("fails with quantity below minimum", func(t *testing.T) {
		_, err := CalculateLine(d("0.009"), d("100"), d("18"))
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeNegativeMagnitude, domainErr.Code)
	})

	t.Run("accepts minimum quantity", func(t *testing.T) {
		_, err := CalculateLine(d("0.01"), d("100"), d("18"))
		require.NoError(t, err)
	})

	t.Run("fails with tax rate above 100", func(t *testing.T) {
		_, err := CalculateLine(d("1"), d("100"), d("100.01"))
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeOutOfRangeTaxRate, domainErr.Code)
	})

	t.Run("fails with negative tax rate", func(t *testing.T) {
		_, err := CalculateLine(d("1"), d("100"), d("-1"))
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeOutOfRangeTaxRate, domainErr.Code)
	})

	t.Run("accepts boundary tax rates", func(t *testing.T) {
		for _, rate := range []string{"0", "100"} {
			_, err := CalculateLine(d("1"), d("100"), d(rate))
			require.NoError(t, err, "rate %s", rate)
		}
	})
}

func TestNewLineItem(t *testing.T) {
	docID := uuid.New()

	t.Run("creates item with derived amounts", func(t *testing.T) {
		item, err := NewLineItem(docID, "Steel coils", "7208", "MT", d("2"), d("100"), d("18"))
		require.NoError(t, err)
		require.NotNil(t, item)

		assert.Equal(t, docID, item.DocumentID)
		assert.NotEqual(t, uuid.Nil, item.ID)
		assert.True(t, item.TaxAmount.Equal(d("36")))
		assert.True(t, item.Total.Equal(d("236")))
	})

	t.Run("fails with empty description", func(t *testing.T) {
		_, err := NewLineItem(docID, "", "", "", d("1"), d("10"), d("5"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "description")
	})

	t.Run("propagates calculation errors", func(t *testing.T) {
		_, err := NewLineItem(docID, "Freight", "", "", d("-1"), d("10"), d("5"))
		require.Error(t, err)
	})
}

func TestLineItemRecalculate(t *testing.T) {
	t.Run("recomputing from stored fields is stable", func(t *testing.T) {
		item, err := NewLineItem(uuid.New(), "Pallets", "", "pcs", d("7"), d("33.33"), d("12.5"))
		require.NoError(t, err)

		tax, total := item.TaxAmount, item.Total
		require.NoError(t, item.Recalculate())
		assert.True(t, item.TaxAmount.Equal(tax))
		assert.True(t, item.Total.Equal(total))
	})

	t.Run("recomputes after a field edit", func(t *testing.T) {
		item, err := NewLineItem(uuid.New(), "Pallets", "", "pcs", d("1"), d("100"), d("18"))
		require.NoError(t, err)

		item.Quantity = d("2")
		require.NoError(t, item.Recalculate())
		assert.True(t, item.Total.Equal(d("236")))
	})

	t.Run("rejects an edit that breaks validation", func(t *testing.T) {
		item, err := NewLineItem(uuid.New(), "Pallets", "", "pcs", d("1"), d("100"), d("18"))
		require.NoError(t, err)

		item.TaxRate = d("150")
		require.Error(t, item.Recalculate())
	})
}

func TestLineItemGross(t *testing.T) {
	item, err := NewLineItem(uuid.New(), "Crates", "", "pcs", d("4"), d("12.5"), d("0"))
	require.NoError(t, err)
	assert.True(t, item.Gross().Equal(d("50")))
}
