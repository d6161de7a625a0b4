package reconciler

import (
	"context"
	couponmodel "food_delivery/internal/domain/coupon/model"
	notifmodel "food_delivery/internal/domain/notification/model"
	ordermodel "food_delivery/internal/domain/order/model"
	"food_delivery/internal/domain/payment/model"
	storemodel "food_delivery/internal/domain/store/model"
	"food_delivery/internal/pkg/testdb"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const (
	customerID = "c0000000-0000-0000-0000-000000000001"
	ownerID    = "00000000-0000-0000-0000-0000000000aa"
)

type recordingPublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *recordingPublisher) Publish(ctx context.Context, routingKey string, data any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, routingKey)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

type fixture struct {
	db  *gorm.DB
	r   *Reconciler
	pub *recordingPublisher
}

func newFixture(t *testing.T) *fixture {
	db := testdb.New(t,
		&model.Payment{}, &ordermodel.Order{}, &ordermodel.OrderItem{},
		&notifmodel.Notification{}, &storemodel.Store{},
		&couponmodel.Coupon{}, &couponmodel.UserCoupon{},
	)
	pub := &recordingPublisher{}
	return &fixture{db: db, r: New(db, nil, pub, nil, nil), pub: pub}
}

func (f *fixture) seed(t *testing.T, orderStatus ordermodel.Status, paymentStatus model.Status) (*ordermodel.Order, *model.Payment) {
	store := &storemodel.Store{OwnerID: ownerID, Name: "Cantina", Slug: "cantina-" + string(orderStatus) + string(paymentStatus)}
	require.NoError(t, f.db.Create(store).Error)

	o := &ordermodel.Order{
		Code:            "A" + string(orderStatus)[:3] + string(paymentStatus)[:3],
		UserID:          customerID,
		StoreID:         store.ID,
		Subtotal:        decimal.NewFromInt(40),
		DeliveryFee:     decimal.NewFromInt(5),
		TotalAmount:     decimal.NewFromInt(45),
		Status:          orderStatus,
		DeliveryAddress: "Rua A, 1",
	}
	require.NoError(t, f.db.Create(o).Error)

	p := &model.Payment{
		OrderID:  o.ID,
		UserID:   customerID,
		Provider: model.ProviderPagarme,
		Amount:   o.TotalAmount,
		Status:   paymentStatus,
		Method:   model.MethodPix,
	}
	require.NoError(t, f.db.Create(p).Error)
	return o, p
}

func (f *fixture) notifications(t *testing.T, userID string) []notifmodel.Notification {
	var list []notifmodel.Notification
	require.NoError(t, f.db.Where("user_id = ?", userID).Find(&list).Error)
	return list
}

func (f *fixture) orderStatus(t *testing.T, id string) ordermodel.Status {
	var o ordermodel.Order
	require.NoError(t, f.db.Where("id = ?", id).First(&o).Error)
	return o.Status
}

func TestApplyPaidMovesOrderAndNotifiesOnce(t *testing.T) {
	f := newFixture(t)
	o, p := f.seed(t, ordermodel.StatusPending, model.StatusPending)
	ctx := context.Background()

	res, err := f.r.Apply(ctx, p.ID, Update{Status: model.StatusPaid, GatewayStatus: "paid", ChargeID: "ch_1", Source: SourceWebhook})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.True(t, res.OrderChanged)
	assert.False(t, res.NeedsRefund)
	assert.Equal(t, model.StatusPending, res.PreviousStatus)
	assert.Equal(t, ordermodel.StatusPaid, res.Order.Status)
	assert.NotNil(t, res.Payment.PaidAt)
	assert.Equal(t, ordermodel.StatusPaid, f.orderStatus(t, o.ID))

	// 重复回调
	res, err = f.r.Apply(ctx, p.ID, Update{Status: model.StatusPaid, GatewayStatus: "paid", Source: SourceWebhook})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.False(t, res.OrderChanged)

	assert.Len(t, f.notifications(t, customerID), 1)
	assert.Len(t, f.notifications(t, ownerID), 1)
	assert.ElementsMatch(t, []string{"payment.status_changed", "order.status_changed"}, f.pub.keys)

	var stored model.Payment
	require.NoError(t, f.db.Where("id = ?", p.ID).First(&stored).Error)
	assert.Equal(t, "ch_1", stored.ChargeID)
	assert.Equal(t, "Aprovado", stored.StatusLabel)
}

func TestApplyIllegalTransition(t *testing.T) {
	f := newFixture(t)
	_, p := f.seed(t, ordermodel.StatusCancelled, model.StatusCanceled)

	_, err := f.r.Apply(context.Background(), p.ID, Update{Status: model.StatusPaid})
	assert.ErrorIs(t, err, ErrIllegalTransition)
	assert.Empty(t, f.notifications(t, customerID))
}

func TestApplyLatePaidOnCancelledOrderNeedsRefund(t *testing.T) {
	f := newFixture(t)
	o, p := f.seed(t, ordermodel.StatusCancelled, model.StatusPending)

	res, err := f.r.Apply(context.Background(), p.ID, Update{Status: model.StatusPaid, GatewayStatus: "paid"})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.False(t, res.OrderChanged)
	assert.True(t, res.NeedsRefund)
	assert.Equal(t, ordermodel.StatusCancelled, f.orderStatus(t, o.ID))
	// 店家不会收到新订单提醒
	assert.Empty(t, f.notifications(t, ownerID))
}

func TestApplyDeclinedKeepsOrderPending(t *testing.T) {
	f := newFixture(t)
	o, p := f.seed(t, ordermodel.StatusPending, model.StatusPending)

	res, err := f.r.Apply(context.Background(), p.ID, Update{Status: model.StatusDeclined, GatewayStatus: "failed", FailureReason: "insufficient funds"})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.False(t, res.OrderChanged)
	assert.Equal(t, ordermodel.StatusPending, f.orderStatus(t, o.ID))

	list := f.notifications(t, customerID)
	require.Len(t, list, 1)
	assert.Contains(t, list[0].Description, "insufficient funds")
}

func TestApplyProcessingWithoutPaymentChange(t *testing.T) {
	f := newFixture(t)
	o, p := f.seed(t, ordermodel.StatusPending, model.StatusPending)
	ctx := context.Background()

	res, err := f.r.Apply(ctx, p.ID, Update{Status: model.StatusPending, GatewayStatus: "processing"})
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.True(t, res.OrderChanged)
	assert.Equal(t, ordermodel.StatusProcessing, f.orderStatus(t, o.ID))

	res, err = f.r.Apply(ctx, p.ID, Update{Status: model.StatusPending, GatewayStatus: "processing"})
	require.NoError(t, err)
	assert.False(t, res.OrderChanged)
	assert.Len(t, f.notifications(t, customerID), 1)
}

func TestApplyCancelReleasesCoupon(t *testing.T) {
	f := newFixture(t)
	o, p := f.seed(t, ordermodel.StatusPending, model.StatusPending)

	uc := &couponmodel.UserCoupon{UserID: customerID, CouponID: "c1c1c1c1-0000-0000-0000-000000000001", Status: couponmodel.UserCouponUsed, OrderID: &o.ID}
	require.NoError(t, f.db.Create(uc).Error)
	require.NoError(t, f.db.Model(&ordermodel.Order{}).Where("id = ?", o.ID).Update("user_coupon_id", uc.ID).Error)

	res, err := f.r.Apply(context.Background(), p.ID, Update{Status: model.StatusCanceled, GatewayStatus: "canceled", Source: SourceManual})
	require.NoError(t, err)
	assert.True(t, res.OrderChanged)

	var got couponmodel.UserCoupon
	require.NoError(t, f.db.Where("id = ?", uc.ID).First(&got).Error)
	assert.Equal(t, couponmodel.UserCouponUnused, got.Status)
	assert.Nil(t, got.OrderID)
}

func TestApplyRefund(t *testing.T) {
	f := newFixture(t)
	o, p := f.seed(t, ordermodel.StatusDelivered, model.StatusPaid)

	res, err := f.r.Apply(context.Background(), p.ID, Update{Status: model.StatusRefunded, GatewayStatus: "refunded"})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.True(t, res.OrderChanged)
	assert.Equal(t, ordermodel.StatusRefunded, f.orderStatus(t, o.ID))
}

func TestApplyConcurrentCallsTransitionOnce(t *testing.T) {
	f := newFixture(t)
	_, p := f.seed(t, ordermodel.StatusPending, model.StatusPending)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		changed int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.r.Apply(context.Background(), p.ID, Update{Status: model.StatusPaid, GatewayStatus: "paid"})
			if err == nil && res.Changed {
				mu.Lock()
				changed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, changed)
	assert.Len(t, f.notifications(t, customerID), 1)
}

func TestApplyOrderKitchenFlow(t *testing.T) {
	f := newFixture(t)
	o, _ := f.seed(t, ordermodel.StatusPaid, model.StatusPaid)
	ctx := context.Background()

	for _, s := range []ordermodel.Status{ordermodel.StatusPreparing, ordermodel.StatusReady, ordermodel.StatusDelivering, ordermodel.StatusDelivered} {
		res, err := f.r.ApplyOrder(ctx, o.ID, s, SourceOwner)
		require.NoError(t, err)
		assert.True(t, res.OrderChanged, s)
	}

	_, err := f.r.ApplyOrder(ctx, o.ID, ordermodel.StatusPreparing, SourceOwner)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	res, err := f.r.ApplyOrder(ctx, o.ID, ordermodel.StatusDelivered, SourceOwner)
	require.NoError(t, err)
	assert.False(t, res.OrderChanged)

	assert.Len(t, f.notifications(t, customerID), 4)
}

func TestApplyUnknownPayment(t *testing.T) {
	f := newFixture(t)
	_, err := f.r.Apply(context.Background(), "ffffffff-0000-0000-0000-000000000000", Update{Status: model.StatusPaid})
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	_, err = f.r.ApplyOrder(context.Background(), "ffffffff-0000-0000-0000-000000000000", ordermodel.StatusCancelled, SourceCustomer)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
