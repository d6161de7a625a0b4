package service

import (
	"context"
	couponmodel "food_delivery/internal/domain/coupon/model"
	notifmodel "food_delivery/internal/domain/notification/model"
	ordermodel "food_delivery/internal/domain/order/model"
	"food_delivery/internal/domain/order/repository"
	paymentmodel "food_delivery/internal/domain/payment/model"
	"food_delivery/internal/domain/payment/reconciler"
	storemodel "food_delivery/internal/domain/store/model"
	storerepo "food_delivery/internal/domain/store/repository"
	storeservice "food_delivery/internal/domain/store/service"
	usermodel "food_delivery/internal/domain/user/model"
	"food_delivery/internal/pkg/testdb"
	"food_delivery/pkg/cache"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var (
	customer = usermodel.Actor{UserID: "c0000000-0000-0000-0000-000000000001", Role: usermodel.RoleCustomer}
	owner    = usermodel.Actor{UserID: "00000000-0000-0000-0000-0000000000aa", Role: usermodel.RoleStoreOwner}
	stranger = usermodel.Actor{UserID: "00000000-0000-0000-0000-0000000000bb", Role: usermodel.RoleStoreOwner}
)

type fixedQuoter struct {
	discount decimal.Decimal
	err      error
}

func (q fixedQuoter) Quote(ctx context.Context, userID, userCouponID, storeID string, subtotal decimal.Decimal) (decimal.Decimal, error) {
	return q.discount, q.err
}

type fixture struct {
	db      *gorm.DB
	svc     OrderService
	store   *storemodel.Store
	burger  *storemodel.Product
	fries   *storemodel.Product
	soldOut *storemodel.Product
}

func newFixture(t *testing.T, quoter CouponQuoter) *fixture {
	db := testdb.New(t,
		&storemodel.Store{}, &storemodel.Product{},
		&ordermodel.Order{}, &ordermodel.OrderItem{},
		&paymentmodel.Payment{}, &notifmodel.Notification{},
		&couponmodel.Coupon{}, &couponmodel.UserCoupon{},
	)
	f := &fixture{db: db}
	f.store = &storemodel.Store{
		OwnerID:      owner.UserID,
		Name:         "Burger House",
		Slug:         "burger-house",
		IsOpen:       true,
		DeliveryFee:  decimal.RequireFromString("6.90"),
		MinimumOrder: decimal.RequireFromString("20"),
	}
	require.NoError(t, db.Create(f.store).Error)
	f.burger = &storemodel.Product{StoreID: f.store.ID, Name: "X-Burger", Price: decimal.RequireFromString("18.50"), Available: true}
	f.fries = &storemodel.Product{StoreID: f.store.ID, Name: "Fritas", Price: decimal.RequireFromString("9.90"), Available: true}
	f.soldOut = &storemodel.Product{StoreID: f.store.ID, Name: "Milkshake", Price: decimal.RequireFromString("12"), Available: false}
	for _, p := range []*storemodel.Product{f.burger, f.fries, f.soldOut} {
		require.NoError(t, db.Create(p).Error)
	}

	stores := storeservice.NewStoreService(storerepo.NewStoreRepository(db), cache.NewMemoryCache(), nil, nil)
	authority := reconciler.New(db, nil, nil, nil, nil)
	f.svc = NewOrderService(repository.NewOrderRepository(db), stores, quoter, authority, nil, nil)
	return f
}

func (f *fixture) input(items ...ItemInput) PlaceInput {
	return PlaceInput{StoreID: f.store.ID, Items: items, DeliveryAddress: "Rua das Flores, 10"}
}

func TestPlaceSnapshotsPrices(t *testing.T) {
	f := newFixture(t, fixedQuoter{})
	ctx := context.Background()

	order, err := f.svc.Place(ctx, customer.UserID, f.input(
		ItemInput{ProductID: f.burger.ID, Quantity: 1},
		ItemInput{ProductID: f.fries.ID, Quantity: 1, Notes: "sem sal"},
		ItemInput{ProductID: f.burger.ID, Quantity: 1},
	))
	require.NoError(t, err)

	assert.Len(t, order.Code, 8)
	assert.Equal(t, ordermodel.StatusPending, order.Status)
	assert.Equal(t, "Aguardando pagamento", order.StatusLabel)
	require.Len(t, order.Items, 2)
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.Equal(t, "sem sal", order.Items[1].Notes)
	assert.True(t, decimal.RequireFromString("46.90").Equal(order.Subtotal))
	assert.True(t, decimal.RequireFromString("53.80").Equal(order.TotalAmount))

	// 之后修改商品价格不影响已下订单
	require.NoError(t, f.db.Model(f.burger).Update("price", decimal.NewFromInt(99)).Error)
	got, err := f.svc.Get(ctx, customer, order.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("53.80").Equal(got.TotalAmount))
	assert.Len(t, got.Items, 2)
}

func TestPlaceValidation(t *testing.T) {
	f := newFixture(t, fixedQuoter{})
	ctx := context.Background()

	_, err := f.svc.Place(ctx, customer.UserID, f.input(ItemInput{ProductID: f.fries.ID, Quantity: 1}))
	assert.ErrorIs(t, err, ErrBelowMinimum)

	_, err = f.svc.Place(ctx, customer.UserID, f.input(ItemInput{ProductID: f.soldOut.ID, Quantity: 2}))
	assert.ErrorIs(t, err, ErrProductUnavailable)

	_, err = f.svc.Place(ctx, customer.UserID, f.input())
	assert.ErrorIs(t, err, ErrEmptyOrder)

	require.NoError(t, f.db.Model(f.store).Update("is_open", false).Error)
	_, err = f.svc.Place(ctx, customer.UserID, f.input(ItemInput{ProductID: f.burger.ID, Quantity: 2}))
	assert.ErrorIs(t, err, ErrStoreClosed)
}

func TestPlaceWithCoupon(t *testing.T) {
	f := newFixture(t, fixedQuoter{discount: decimal.NewFromInt(10)})
	ctx := context.Background()

	uc := &couponmodel.UserCoupon{UserID: customer.UserID, CouponID: "c1c1c1c1-0000-0000-0000-000000000001", Status: couponmodel.UserCouponUnused}
	require.NoError(t, f.db.Create(uc).Error)

	in := f.input(ItemInput{ProductID: f.burger.ID, Quantity: 2})
	in.UserCouponID = &uc.ID
	order, err := f.svc.Place(ctx, customer.UserID, in)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(10).Equal(order.DiscountAmount))
	assert.True(t, decimal.RequireFromString("33.90").Equal(order.TotalAmount))

	var redeemed couponmodel.UserCoupon
	require.NoError(t, f.db.Where("id = ?", uc.ID).First(&redeemed).Error)
	assert.Equal(t, couponmodel.UserCouponUsed, redeemed.Status)

	// 同一张券不能用于第二个订单，且失败的订单不会落库
	_, err = f.svc.Place(ctx, customer.UserID, in)
	assert.Error(t, err)
	var count int64
	f.db.Model(&ordermodel.Order{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestGetHidesOtherCustomersOrders(t *testing.T) {
	f := newFixture(t, fixedQuoter{})
	ctx := context.Background()
	order, err := f.svc.Place(ctx, customer.UserID, f.input(ItemInput{ProductID: f.burger.ID, Quantity: 2}))
	require.NoError(t, err)

	_, err = f.svc.Get(ctx, stranger, order.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)

	got, err := f.svc.Get(ctx, owner, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, got.ID)
}

func TestKitchenStatus(t *testing.T) {
	f := newFixture(t, fixedQuoter{})
	ctx := context.Background()
	order, err := f.svc.Place(ctx, customer.UserID, f.input(ItemInput{ProductID: f.burger.ID, Quantity: 2}))
	require.NoError(t, err)

	// 未支付不能开始制作
	_, err = f.svc.UpdateKitchenStatus(ctx, owner, order.ID, ordermodel.StatusPreparing)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	_, err = f.svc.UpdateKitchenStatus(ctx, owner, order.ID, ordermodel.StatusPaid)
	assert.ErrorIs(t, err, ErrInvalidStatus)

	require.NoError(t, f.db.Model(&ordermodel.Order{}).Where("id = ?", order.ID).Update("status", ordermodel.StatusPaid).Error)

	_, err = f.svc.UpdateKitchenStatus(ctx, stranger, order.ID, ordermodel.StatusPreparing)
	assert.ErrorIs(t, err, storeservice.ErrForbidden)

	updated, err := f.svc.UpdateKitchenStatus(ctx, owner, order.ID, ordermodel.StatusPreparing)
	require.NoError(t, err)
	assert.Equal(t, ordermodel.StatusPreparing, updated.Status)
	assert.Equal(t, "Em preparo", updated.StatusLabel)

	list, total, err := f.svc.ListStoreOrders(ctx, owner, f.store.ID, ListQuery{Status: "preparing,bogus"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Len(t, list, 1)

	mine, total, err := f.svc.ListMine(ctx, customer.UserID, ListQuery{Status: "pending"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, mine)
}
