package decimal_test

import (
	"testing"

	dec "github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reyhansunduk/efatura-mcp-server/internal/decimal"
)

func TestFromInt(t *testing.T) {
	d := decimal.FromInt(15000)
	assert.True(t, d.Equal(dec.NewFromInt(15000)))
}

func TestFromFloat(t *testing.T) {
	d := decimal.FromFloat(8500.505)
	// Should round to 2 decimal places
	assert.True(t, d.Equal(dec.RequireFromString("8500.51")))
}

func TestFromString(t *testing.T) {
	d, err := decimal.FromString("12500.75")
	require.NoError(t, err)
	assert.True(t, d.Equal(dec.RequireFromString("12500.75")))

	_, err = decimal.FromString("not-a-number")
	require.Error(t, err)
}

func TestMustFromString(t *testing.T) {
	d := decimal.MustFromString("999.99")
	assert.True(t, d.Equal(dec.RequireFromString("999.99")))

	assert.Panics(t, func() {
		decimal.MustFromString("invalid")
	})
}

func TestMul(t *testing.T) {
	a := dec.NewFromInt(3)
	b := dec.RequireFromString("33.333")
	result := decimal.Mul(a, b)
	assert.True(t, result.Equal(dec.RequireFromString("100")))
}

func TestSum(t *testing.T) {
	values := []dec.Decimal{
		dec.NewFromInt(100),
		dec.RequireFromString("200.25"),
		dec.RequireFromString("300.50"),
	}
	result := decimal.Sum(values)
	assert.True(t, result.Equal(dec.RequireFromString("600.75")))
}

func TestSum_Empty(t *testing.T) {
	result := decimal.Sum([]dec.Decimal{})
	assert.True(t, result.IsZero())
}

func TestWithinTolerance(t *testing.T) {
	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"equal", "15000.00", "15000", true},
		{"one kurus apart", "15000.00", "15000.01", true},
		{"one kurus apart reversed", "15000.01", "15000.00", true},
		{"two kurus apart", "15000.00", "15000.02", false},
		{"far apart", "100", "99", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := decimal.WithinTolerance(dec.RequireFromString(tt.a), dec.RequireFromString(tt.b))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIsPositive(t *testing.T) {
	assert.True(t, decimal.IsPositive(dec.NewFromInt(1)))
	assert.False(t, decimal.IsPositive(dec.Zero))
	assert.False(t, decimal.IsPositive(dec.NewFromInt(-1)))
}

func TestIsNonNegative(t *testing.T) {
	assert.True(t, decimal.IsNonNegative(dec.NewFromInt(1)))
	assert.True(t, decimal.IsNonNegative(dec.Zero))
	assert.False(t, decimal.IsNonNegative(dec.NewFromInt(-1)))
}

func TestRoundTRY(t *testing.T) {
	d := dec.RequireFromString("123.456")
	assert.True(t, decimal.RoundTRY(d).Equal(dec.RequireFromString("123.46")))
}

func TestFormatTRY(t *testing.T) {
	assert.Equal(t, "15000.00", decimal.FormatTRY(dec.NewFromInt(15000)))
	assert.Equal(t, "8500.50", decimal.FormatTRY(dec.RequireFromString("8500.5")))
}
