package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradelane/backend/internal/domain/governance"
	"github.com/tradelane/backend/internal/domain/shared"
)

func intPtr(v int) *int { return &v }

func strPtr(s string) *string { return &s }

func TestGormGovernanceRepository(t *testing.T) {
	ctx := context.Background()

	t.Run("round trips a rule", func(t *testing.T) {
		repo := NewGormGovernanceRepository(newTestDB(t))
		orgID := uuid.New()

		cap := d("40")
		rule, err := governance.NewRule(orgID, strPtr("chemicals"), intPtr(7), 2, &cap)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, rule))

		found, err := repo.FindByID(ctx, orgID, rule.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "chemicals", *found.Category)
		assert.Equal(t, 7, *found.MaxCreditDays)
		assert.Equal(t, 2, found.MinVendorCount)
		assert.True(t, found.MarginCap.Equal(cap))
		assert.True(t, found.Enabled)
	})

	t.Run("nil constraints survive the round trip", func(t *testing.T) {
		repo := NewGormGovernanceRepository(newTestDB(t))
		orgID := uuid.New()

		rule, err := governance.NewRule(orgID, nil, nil, 1, nil)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, rule))

		found, err := repo.FindByID(ctx, orgID, rule.ID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Nil(t, found.Category)
		assert.Nil(t, found.MaxCreditDays)
		assert.Nil(t, found.MarginCap)
	})

	t.Run("active listing excludes disabled rules", func(t *testing.T) {
		repo := NewGormGovernanceRepository(newTestDB(t))
		orgID := uuid.New()

		enabled, err := governance.NewRule(orgID, nil, intPtr(30), 1, nil)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, enabled))

		disabled, err := governance.NewRule(orgID, nil, intPtr(7), 1, nil)
		require.NoError(t, err)
		disabled.SetEnabled(false)
		require.NoError(t, repo.Create(ctx, disabled))

		active, err := repo.FindActive(ctx, orgID)
		require.NoError(t, err)
		require.Len(t, active, 1)
		assert.Equal(t, enabled.ID, active[0].ID)

		all, err := repo.FindAll(ctx, orgID)
		require.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("save persists constraint changes", func(t *testing.T) {
		repo := NewGormGovernanceRepository(newTestDB(t))
		orgID := uuid.New()

		rule, err := governance.NewRule(orgID, nil, intPtr(30), 1, nil)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, rule))

		require.NoError(t, rule.Update(intPtr(14), 3, nil))
		require.NoError(t, repo.Save(ctx, rule))

		found, err := repo.FindByID(ctx, orgID, rule.ID)
		require.NoError(t, err)
		assert.Equal(t, 14, *found.MaxCreditDays)
		assert.Equal(t, 3, found.MinVendorCount)
	})

	t.Run("delete removes the rule", func(t *testing.T) {
		repo := NewGormGovernanceRepository(newTestDB(t))
		orgID := uuid.New()

		rule, err := governance.NewRule(orgID, nil, intPtr(30), 1, nil)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, rule))

		require.NoError(t, repo.Delete(ctx, orgID, rule.ID))
		assert.ErrorIs(t, repo.Delete(ctx, orgID, rule.ID), shared.ErrNotFound)

		found, err := repo.FindByID(ctx, orgID, rule.ID)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("lookups are scoped to the org", func(t *testing.T) {
		repo := NewGormGovernanceRepository(newTestDB(t))
		orgID := uuid.New()

		rule, err := governance.NewRule(orgID, nil, intPtr(30), 1, nil)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, rule))

		found, err := repo.FindByID(ctx, uuid.New(), rule.ID)
		require.NoError(t, err)
		assert.Nil(t, found)
		assert.ErrorIs(t, repo.Delete(ctx, uuid.New(), rule.ID), shared.ErrNotFound)
	})
}
