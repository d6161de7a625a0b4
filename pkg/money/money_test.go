package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestToCents(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{"0", 0},
		{"12.5", 1250},
		{"12.345", 1235},
		{"19.99", 1999},
		{"100", 10000},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ToCents(decimal.RequireFromString(tt.in)))
		})
	}
}

func TestFromCents(t *testing.T) {
	assert.True(t, FromCents(1999).Equal(decimal.RequireFromString("19.99")))
	assert.Equal(t, int64(4321), ToCents(FromCents(4321)))
}

func TestSumAndNonNegative(t *testing.T) {
	total := Sum(decimal.NewFromInt(10), decimal.RequireFromString("2.50"), decimal.RequireFromString("-1.25"))
	assert.Equal(t, "11.25", total.StringFixed(2))

	assert.NoError(t, NonNegative(decimal.Zero))
	assert.ErrorIs(t, NonNegative(decimal.NewFromInt(-1)), ErrNegativeAmount)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "R$ 12,50", Format(decimal.RequireFromString("12.5")))
	assert.Equal(t, "R$ 0,00", Format(decimal.Zero))
}
