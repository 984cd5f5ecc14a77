package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney(t *testing.T) {
	t.Run("creates money with amount and currency", func(t *testing.T) {
		m, err := NewMoney(decimal.NewFromFloat(100.50), INR)
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(100.50)))
		assert.Equal(t, INR, m.Currency())
	})

	t.Run("rejects empty currency", func(t *testing.T) {
		_, err := NewMoney(decimal.NewFromInt(100), "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "currency cannot be empty")
	})
}

func TestNewMoneyFromString(t *testing.T) {
	t.Run("parses a valid amount", func(t *testing.T) {
		m, err := NewMoneyFromString("1234.56", USD)
		require.NoError(t, err)
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(1234.56)))
		assert.Equal(t, USD, m.Currency())
	})

	t.Run("rejects a malformed amount", func(t *testing.T) {
		_, err := NewMoneyFromString("not-a-number", INR)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid amount string")
	})
}

func TestNewMoneyINR(t *testing.T) {
	m := NewMoneyINR(decimal.NewFromInt(500))
	assert.Equal(t, INR, m.Currency())
	assert.True(t, m.Amount().Equal(decimal.NewFromInt(500)))
}

func TestZero(t *testing.T) {
	t.Run("zero in a currency", func(t *testing.T) {
		m := Zero(EUR)
		assert.True(t, m.IsZero())
		assert.Equal(t, EUR, m.Currency())
	})

	t.Run("zero INR", func(t *testing.T) {
		m := ZeroINR()
		assert.True(t, m.IsZero())
		assert.Equal(t, INR, m.Currency())
	})
}

func TestMoneyPredicates(t *testing.T) {
	assert.True(t, NewMoneyINR(decimal.Zero).IsZero())
	assert.False(t, NewMoneyINR(decimal.NewFromInt(1)).IsZero())
	assert.True(t, NewMoneyINR(decimal.NewFromInt(-1)).IsNegative())
	assert.False(t, NewMoneyINR(decimal.NewFromInt(1)).IsNegative())
}

func TestMoneyAdd(t *testing.T) {
	t.Run("adds same currency", func(t *testing.T) {
		a := NewMoneyINR(decimal.NewFromFloat(100.25))
		b := NewMoneyINR(decimal.NewFromFloat(50.75))

		sum, err := a.Add(b)
		require.NoError(t, err)
		assert.True(t, sum.Amount().Equal(decimal.NewFromInt(151)))
	})

	t.Run("rejects different currencies", func(t *testing.T) {
		a := NewMoneyINR(decimal.NewFromInt(100))
		b, err := NewMoney(decimal.NewFromInt(100), USD)
		require.NoError(t, err)

		_, err = a.Add(b)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "different currencies")
	})

	t.Run("MustAdd panics on currency mismatch", func(t *testing.T) {
		a := NewMoneyINR(decimal.NewFromInt(100))
		b, err := NewMoney(decimal.NewFromInt(100), USD)
		require.NoError(t, err)

		assert.Panics(t, func() { a.MustAdd(b) })
	})
}

func TestMoneySubtract(t *testing.T) {
	t.Run("subtracts same currency", func(t *testing.T) {
		a := NewMoneyINR(decimal.NewFromInt(100))
		b := NewMoneyINR(decimal.NewFromFloat(40.50))

		diff, err := a.Subtract(b)
		require.NoError(t, err)
		assert.True(t, diff.Amount().Equal(decimal.NewFromFloat(59.50)))
	})

	t.Run("rejects different currencies", func(t *testing.T) {
		a := NewMoneyINR(decimal.NewFromInt(100))
		b, err := NewMoney(decimal.NewFromInt(40), GBP)
		require.NoError(t, err)

		_, err = a.Subtract(b)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "different currencies")
	})
}

func TestMoneyMultiply(t *testing.T) {
	m := NewMoneyINR(decimal.NewFromFloat(10.50))
	result := m.Multiply(decimal.NewFromInt(3))
	assert.True(t, result.Amount().Equal(decimal.NewFromFloat(31.50)))
	assert.Equal(t, INR, result.Currency())
}

func TestMoneyRound(t *testing.T) {
	t.Run("rounds to requested places", func(t *testing.T) {
		m := NewMoneyINR(decimal.RequireFromString("10.5678"))
		assert.Equal(t, "10.57", m.Round(2).Amount().String())
	})

	t.Run("RoundStorage rounds to two places", func(t *testing.T) {
		m := NewMoneyINR(decimal.RequireFromString("52.496"))
		assert.Equal(t, "52.5", m.RoundStorage().Amount().String())
	})

	t.Run("rounding does not mutate the original", func(t *testing.T) {
		m := NewMoneyINR(decimal.RequireFromString("10.5678"))
		_ = m.RoundStorage()
		assert.Equal(t, "10.5678", m.Amount().String())
	})
}

func TestMoneyComparisons(t *testing.T) {
	t.Run("equals", func(t *testing.T) {
		a := NewMoneyINR(decimal.NewFromInt(100))
		b := NewMoneyINR(decimal.NewFromFloat(100.00))
		c := NewMoneyINR(decimal.NewFromInt(101))

		assert.True(t, a.Equals(b))
		assert.False(t, a.Equals(c))
	})

	t.Run("different currencies are never equal", func(t *testing.T) {
		a := NewMoneyINR(decimal.NewFromInt(100))
		b, err := NewMoney(decimal.NewFromInt(100), AED)
		require.NoError(t, err)
		assert.False(t, a.Equals(b))
	})

	t.Run("greater than", func(t *testing.T) {
		a := NewMoneyINR(decimal.NewFromInt(100))
		b := NewMoneyINR(decimal.NewFromInt(50))

		gt, err := a.GreaterThan(b)
		require.NoError(t, err)
		assert.True(t, gt)

		gt, err = b.GreaterThan(a)
		require.NoError(t, err)
		assert.False(t, gt)
	})

	t.Run("greater than across currencies errors", func(t *testing.T) {
		a := NewMoneyINR(decimal.NewFromInt(100))
		b, err := NewMoney(decimal.NewFromInt(50), USD)
		require.NoError(t, err)

		_, err = a.GreaterThan(b)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "different currencies")
	})
}

func TestMoneyString(t *testing.T) {
	m := NewMoneyINR(decimal.NewFromInt(100))
	assert.Equal(t, "100.00 INR", m.String())
	assert.Equal(t, "100.000", m.StringFixed(3))
}

func TestMoneyCalculatePercentage(t *testing.T) {
	m := NewMoneyINR(decimal.NewFromInt(200))
	result := m.CalculatePercentage(decimal.NewFromFloat(18))
	assert.True(t, result.Amount().Equal(decimal.NewFromInt(36)))
	assert.Equal(t, INR, result.Currency())
}

func TestMoneyJSON(t *testing.T) {
	t.Run("round trip", func(t *testing.T) {
		original := NewMoneyINR(decimal.NewFromFloat(263.50))

		data, err := json.Marshal(original)
		require.NoError(t, err)
		assert.JSONEq(t, `{"amount":"263.5","currency":"INR"}`, string(data))

		var decoded Money
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.True(t, original.Equals(decoded))
	})

	t.Run("rejects a malformed amount", func(t *testing.T) {
		var m Money
		err := json.Unmarshal([]byte(`{"amount":"oops","currency":"INR"}`), &m)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid amount")
	})
}

func TestMoneyValueScan(t *testing.T) {
	t.Run("Value stores the amount string", func(t *testing.T) {
		m := NewMoneyINR(decimal.NewFromFloat(99.99))
		v, err := m.Value()
		require.NoError(t, err)
		assert.Equal(t, "99.99", v)
	})

	t.Run("scans a string", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan("123.45"))
		assert.True(t, m.Amount().Equal(decimal.NewFromFloat(123.45)))
		assert.Equal(t, DefaultCurrency, m.Currency())
	})

	t.Run("scans bytes", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan([]byte("50")))
		assert.True(t, m.Amount().Equal(decimal.NewFromInt(50)))
	})

	t.Run("nil scans to zero in the default currency", func(t *testing.T) {
		var m Money
		require.NoError(t, m.Scan(nil))
		assert.True(t, m.IsZero())
		assert.Equal(t, DefaultCurrency, m.Currency())
	})

	t.Run("rejects unsupported types", func(t *testing.T) {
		var m Money
		err := m.Scan(42)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot scan")
	})
}
