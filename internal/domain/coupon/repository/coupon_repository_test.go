package repository

import (
	"context"
	"food_delivery/internal/domain/coupon/model"
	"food_delivery/internal/pkg/testdb"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	userA  = "aaaaaaaa-0000-0000-0000-000000000001"
	orderA = "0a0a0a0a-0000-0000-0000-000000000001"
	orderB = "0b0b0b0b-0000-0000-0000-000000000002"
)

func setup(t *testing.T, stock int) (*gorm.DB, CouponRepository, *model.Coupon) {
	db := testdb.New(t, &model.Coupon{}, &model.UserCoupon{})
	repo := NewCouponRepository(db)
	c := &model.Coupon{
		Name:      "R$10 off",
		Total:     stock,
		Stock:     stock,
		Amount:    decimal.NewFromInt(10),
		StartTime: time.Now().Add(-time.Hour),
		EndTime:   time.Now().Add(time.Hour),
	}
	require.NoError(t, repo.Create(context.Background(), c))
	return db, repo, c
}

func TestPersistIsIdempotent(t *testing.T) {
	_, repo, c := setup(t, 2)
	ctx := context.Background()

	require.NoError(t, repo.Persist(ctx, userA, c.ID))
	require.NoError(t, repo.Persist(ctx, userA, c.ID))

	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)

	list, err := repo.ListUserCoupons(ctx, userA, model.UserCouponUnused)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.NotNil(t, list[0].Coupon)
	assert.Equal(t, "R$10 off", list[0].Coupon.Name)
}

func TestPersistOutOfStock(t *testing.T) {
	_, repo, c := setup(t, 0)
	err := repo.Persist(context.Background(), userA, c.ID)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	list, err := repo.ListUserCoupons(context.Background(), userA, 0)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestRedeemAndRelease(t *testing.T) {
	db, repo, c := setup(t, 1)
	ctx := context.Background()
	require.NoError(t, repo.Persist(ctx, userA, c.ID))
	list, _ := repo.ListUserCoupons(ctx, userA, 0)
	ucID := list[0].ID

	require.NoError(t, RedeemTx(db, ucID, userA, orderA))
	// 已使用的券不能再次核销
	assert.ErrorIs(t, RedeemTx(db, ucID, userA, orderB), ErrCouponUnavailable)

	// 其他订单无法退回
	released, err := ReleaseTx(db, ucID, orderB)
	require.NoError(t, err)
	assert.False(t, released)

	released, err = ReleaseTx(db, ucID, orderA)
	require.NoError(t, err)
	assert.True(t, released)

	uc, err := repo.GetUserCoupon(ctx, ucID)
	require.NoError(t, err)
	assert.Equal(t, model.UserCouponUnused, uc.Status)
	assert.Nil(t, uc.OrderID)

	released, err = ReleaseTx(db, ucID, orderA)
	require.NoError(t, err)
	assert.False(t, released)
}

func TestRedeemWrongUser(t *testing.T) {
	db, repo, c := setup(t, 1)
	ctx := context.Background()
	require.NoError(t, repo.Persist(ctx, userA, c.ID))
	list, _ := repo.ListUserCoupons(ctx, userA, 0)

	err := RedeemTx(db, list[0].ID, "bbbbbbbb-0000-0000-0000-000000000002", orderA)
	assert.ErrorIs(t, err, ErrCouponUnavailable)
}
