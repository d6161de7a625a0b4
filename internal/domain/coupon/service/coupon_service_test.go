package service

import (
	"food_delivery/internal/domain/coupon/model"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func userCoupon(amount, minOrder string, storeID *string) *model.UserCoupon {
	now := time.Now()
	return &model.UserCoupon{
		Status: model.UserCouponUnused,
		Coupon: &model.Coupon{
			StoreID:   storeID,
			Amount:    decimal.RequireFromString(amount),
			MinOrder:  decimal.RequireFromString(minOrder),
			StartTime: now.Add(-time.Hour),
			EndTime:   now.Add(time.Hour),
		},
	}
}

func TestDiscount(t *testing.T) {
	now := time.Now()
	store := "store-1"
	other := "store-2"

	tests := []struct {
		name     string
		uc       *model.UserCoupon
		subtotal string
		want     string
		err      error
	}{
		{"full amount", userCoupon("10", "0", nil), "50", "10", nil},
		{"capped at subtotal", userCoupon("30", "0", nil), "25.50", "25.5", nil},
		{"below minimum", userCoupon("10", "40", nil), "39.99", "0", ErrCouponNotUsable},
		{"same store", userCoupon("5", "0", &store), "20", "5", nil},
		{"other store", userCoupon("5", "0", &other), "20", "0", ErrCouponNotUsable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Discount(tt.uc, store, decimal.RequireFromString(tt.subtotal), now)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s", got)
		})
	}
}

func TestDiscountRejectsUsedAndExpired(t *testing.T) {
	used := userCoupon("10", "0", nil)
	used.Status = model.UserCouponUsed
	_, err := Discount(used, "s", decimal.NewFromInt(50), time.Now())
	assert.ErrorIs(t, err, ErrCouponNotUsable)

	expired := userCoupon("10", "0", nil)
	_, err = Discount(expired, "s", decimal.NewFromInt(50), time.Now().Add(2*time.Hour))
	assert.ErrorIs(t, err, ErrCouponNotActive)
}
