package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	couponmodel "food_delivery/internal/domain/coupon/model"
	notifmodel "food_delivery/internal/domain/notification/model"
	ordermodel "food_delivery/internal/domain/order/model"
	orderrepo "food_delivery/internal/domain/order/repository"
	"food_delivery/internal/domain/payment/gateway"
	"food_delivery/internal/domain/payment/model"
	"food_delivery/internal/domain/payment/reconciler"
	"food_delivery/internal/domain/payment/repository"
	"food_delivery/internal/domain/payment/strategy"
	storemodel "food_delivery/internal/domain/store/model"
	storerepo "food_delivery/internal/domain/store/repository"
	storeservice "food_delivery/internal/domain/store/service"
	usermodel "food_delivery/internal/domain/user/model"
	"food_delivery/internal/pkg/testdb"
	"food_delivery/pkg/cache"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const webhookSecret = "whsec_test"

var orderSeq int64

var (
	customer = usermodel.Actor{UserID: "c0000000-0000-0000-0000-000000000001", Role: usermodel.RoleCustomer}
	other    = usermodel.Actor{UserID: "c0000000-0000-0000-0000-000000000002", Role: usermodel.RoleCustomer}
	owner    = usermodel.Actor{UserID: "00000000-0000-0000-0000-0000000000aa", Role: usermodel.RoleStoreOwner}
	admin    = usermodel.Actor{UserID: "00000000-0000-0000-0000-0000000000ff", Role: usermodel.RoleAdmin}
)

// fakeStrategy 模拟渠道，每次调用的结果由函数决定
type fakeStrategy struct {
	method   model.Method
	pay      func(req strategy.PayRequest) (*strategy.PayResult, error)
	cancel   func(p *model.Payment) (*strategy.PayResult, error)
	query    func(p *model.Payment) (*strategy.PayResult, error)
	payCalls int
	cancels  int
}

func (f *fakeStrategy) Method() model.Method { return f.method }
func (f *fakeStrategy) Provider() string     { return model.ProviderPagarme }

func (f *fakeStrategy) Pay(ctx context.Context, req strategy.PayRequest) (*strategy.PayResult, error) {
	f.payCalls++
	return f.pay(req)
}

func (f *fakeStrategy) Cancel(ctx context.Context, p *model.Payment) (*strategy.PayResult, error) {
	f.cancels++
	if f.cancel == nil {
		return nil, strategy.ErrNotSupported
	}
	return f.cancel(p)
}

func (f *fakeStrategy) Query(ctx context.Context, p *model.Payment) (*strategy.PayResult, error) {
	if f.query == nil {
		return nil, strategy.ErrNotSupported
	}
	return f.query(p)
}

func pixPending(req strategy.PayRequest) (*strategy.PayResult, error) {
	expires := time.Now().Add(time.Hour)
	return &strategy.PayResult{
		ProviderID:    "or_" + req.Payment.ID[:8],
		ChargeID:      "ch_" + req.Payment.ID[:8],
		GatewayStatus: "pending",
		Status:        model.StatusPending,
		PixQRCode:     "00020126...",
		PixExpiresAt:  &expires,
	}, nil
}

func cardPaid(req strategy.PayRequest) (*strategy.PayResult, error) {
	return &strategy.PayResult{
		ProviderID:    "or_card",
		ChargeID:      "ch_card",
		GatewayStatus: "paid",
		Status:        model.StatusPaid,
		CardBrand:     "visa",
		CardLastFour:  "4242",
	}, nil
}

func refundOK(p *model.Payment) (*strategy.PayResult, error) {
	return &strategy.PayResult{ChargeID: p.ChargeID, GatewayStatus: "refunded", Status: model.StatusRefunded}, nil
}

type fixture struct {
	db    *gorm.DB
	svc   *paymentService
	pix   *fakeStrategy
	card  *fakeStrategy
	store *storemodel.Store
}

func newFixture(t *testing.T) *fixture {
	db := testdb.New(t,
		&model.Payment{}, &model.WebhookEvent{},
		&ordermodel.Order{}, &ordermodel.OrderItem{},
		&storemodel.Store{}, &notifmodel.Notification{},
		&couponmodel.Coupon{}, &couponmodel.UserCoupon{},
	)
	f := &fixture{db: db}
	f.store = &storemodel.Store{OwnerID: owner.UserID, Name: "Cantina", Slug: "cantina", IsOpen: true}
	require.NoError(t, db.Create(f.store).Error)

	svc := NewPaymentService(Deps{
		Payments:  repository.NewPaymentRepository(db),
		Orders:    orderrepo.NewOrderRepository(db),
		Stores:    storeservice.NewStoreService(storerepo.NewStoreRepository(db), cache.NewMemoryCache(), nil, nil),
		Authority: reconciler.New(db, nil, nil, nil, nil),
	})
	f.svc = svc.(*paymentService)
	f.pix = &fakeStrategy{method: model.MethodPix, pay: pixPending}
	f.card = &fakeStrategy{method: model.MethodCreditCard, pay: cardPaid, cancel: refundOK}
	f.svc.RegisterStrategy(f.pix)
	f.svc.RegisterStrategy(f.card)
	f.svc.RegisterNotifyParser(strategy.NewPagarmeNotifyParser(webhookSecret))
	return f
}

func (f *fixture) order(t *testing.T, status ordermodel.Status) *ordermodel.Order {
	o := &ordermodel.Order{
		Code:            fmt.Sprintf("T%07d", atomic.AddInt64(&orderSeq, 1)),
		UserID:          customer.UserID,
		StoreID:         f.store.ID,
		Subtotal:        decimal.NewFromInt(40),
		DeliveryFee:     decimal.NewFromInt(5),
		TotalAmount:     decimal.NewFromInt(45),
		Status:          status,
		DeliveryAddress: "Rua A, 1",
	}
	require.NoError(t, f.db.Create(o).Error)
	return o
}

func (f *fixture) reload(t *testing.T, o *ordermodel.Order) *ordermodel.Order {
	var got ordermodel.Order
	require.NoError(t, f.db.Where("id = ?", o.ID).First(&got).Error)
	return &got
}

func checkout(orderID string, method model.Method) CheckoutInput {
	return CheckoutInput{
		OrderID:   orderID,
		Method:    method,
		CardToken: "tok_1",
		Customer:  CustomerInput{Name: "Maria Silva", Document: "52998224725"},
	}
}

func webhook(t *testing.T, body, secret string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/payment/webhook/pagarme", bytes.NewBufferString(body))
	req.Header.Set(gateway.SignatureHeader, gateway.Sign(secret, []byte(body)))
	return req
}

func TestCheckoutCardApproved(t *testing.T) {
	f := newFixture(t)
	o := f.order(t, ordermodel.StatusPending)

	p, err := f.svc.Checkout(context.Background(), customer.UserID, checkout(o.ID, model.MethodCreditCard))
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaid, p.Status)
	assert.Equal(t, "ch_card", p.ChargeID)
	assert.Equal(t, "4242", p.CardLastFour)
	assert.True(t, p.Amount.Equal(decimal.NewFromInt(45)))
	assert.Equal(t, ordermodel.StatusPaid, f.reload(t, o).Status)

	_, err = f.svc.Checkout(context.Background(), customer.UserID, checkout(o.ID, model.MethodCreditCard))
	assert.ErrorIs(t, err, ErrOrderNotPayable)
}

func TestCheckoutGatewayFailureAllowsRetry(t *testing.T) {
	f := newFixture(t)
	o := f.order(t, ordermodel.StatusPending)
	f.card.pay = func(req strategy.PayRequest) (*strategy.PayResult, error) {
		return nil, &gateway.APIError{StatusCode: 502, Message: "bad gateway"}
	}

	_, err := f.svc.Checkout(context.Background(), customer.UserID, checkout(o.ID, model.MethodCreditCard))
	assert.ErrorIs(t, err, ErrGateway)
	assert.Equal(t, ordermodel.StatusPending, f.reload(t, o).Status)

	var failed model.Payment
	require.NoError(t, f.db.Where("order_id = ?", o.ID).First(&failed).Error)
	assert.Equal(t, model.StatusDeclined, failed.Status)
	assert.NotEmpty(t, failed.FailureReason)

	f.card.pay = cardPaid
	p, err := f.svc.Checkout(context.Background(), customer.UserID, checkout(o.ID, model.MethodCreditCard))
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaid, p.Status)
	assert.NotEqual(t, failed.ID, p.ID)
}

func TestCheckoutReusesPendingPix(t *testing.T) {
	f := newFixture(t)
	o := f.order(t, ordermodel.StatusPending)
	ctx := context.Background()

	first, err := f.svc.Checkout(ctx, customer.UserID, checkout(o.ID, model.MethodPix))
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, first.Status)
	assert.NotEmpty(t, first.PixQRCode)

	again, err := f.svc.Checkout(ctx, customer.UserID, checkout(o.ID, model.MethodPix))
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 1, f.pix.payCalls)

	_, err = f.svc.Checkout(ctx, customer.UserID, checkout(o.ID, model.MethodCreditCard))
	assert.ErrorIs(t, err, ErrPaymentExists)
}

func TestCheckoutRejectsForeignOrder(t *testing.T) {
	f := newFixture(t)
	o := f.order(t, ordermodel.StatusPending)

	_, err := f.svc.Checkout(context.Background(), other.UserID, checkout(o.ID, model.MethodPix))
	assert.ErrorIs(t, err, ErrOrderNotFound)

	_, err = f.svc.Checkout(context.Background(), customer.UserID, checkout(o.ID, model.MethodAlipay))
	assert.ErrorIs(t, err, ErrMethodUnavailable)
}

func TestHandleNotifyIsIdempotent(t *testing.T) {
	f := newFixture(t)
	o := f.order(t, ordermodel.StatusPending)
	ctx := context.Background()
	p, err := f.svc.Checkout(ctx, customer.UserID, checkout(o.ID, model.MethodPix))
	require.NoError(t, err)

	body := fmt.Sprintf(`{"id":"hook_1","type":"order.paid","data":{"id":%q,"status":"paid","charges":[{"id":%q,"status":"paid"}]}}`, p.ProviderID, p.ChargeID)
	require.NoError(t, f.svc.HandleNotify(ctx, model.ProviderPagarme, webhook(t, body, webhookSecret)))
	require.NoError(t, f.svc.HandleNotify(ctx, model.ProviderPagarme, webhook(t, body, webhookSecret)))

	assert.Equal(t, ordermodel.StatusPaid, f.reload(t, o).Status)

	var events []model.WebhookEvent
	require.NoError(t, f.db.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, model.WebhookHandled, events[0].Status)

	// 不同事件 ID、相同状态
	body2 := fmt.Sprintf(`{"id":"hook_2","type":"charge.paid","data":{"id":%q,"status":"paid","order":{"id":%q}}}`, p.ChargeID, p.ProviderID)
	require.NoError(t, f.svc.HandleNotify(ctx, model.ProviderPagarme, webhook(t, body2, webhookSecret)))

	var notes []notifmodel.Notification
	require.NoError(t, f.db.Where("user_id = ?", customer.UserID).Find(&notes).Error)
	assert.Len(t, notes, 1)
}

func TestHandleNotifyRejectsBadSignature(t *testing.T) {
	f := newFixture(t)
	body := `{"id":"hook_1","type":"order.paid","data":{"id":"or_1","status":"paid"}}`

	err := f.svc.HandleNotify(context.Background(), model.ProviderPagarme, webhook(t, body, "wrong"))
	assert.ErrorIs(t, err, ErrInvalidSignature)

	err = f.svc.HandleNotify(context.Background(), "paypal", webhook(t, body, webhookSecret))
	assert.ErrorIs(t, err, ErrUnknownProvider)
}

func TestHandleNotifySkipsStaleAndUnknown(t *testing.T) {
	f := newFixture(t)
	o := f.order(t, ordermodel.StatusPending)
	ctx := context.Background()
	p, err := f.svc.Checkout(ctx, customer.UserID, checkout(o.ID, model.MethodCreditCard))
	require.NoError(t, err)

	// 已支付后到达的 pending 事件
	stale := fmt.Sprintf(`{"id":"hook_old","type":"order.created","data":{"id":%q,"status":"pending"}}`, p.ProviderID)
	require.NoError(t, f.svc.HandleNotify(ctx, model.ProviderPagarme, webhook(t, stale, webhookSecret)))

	unknown := `{"id":"hook_x","type":"order.paid","data":{"id":"or_missing","status":"paid"}}`
	require.NoError(t, f.svc.HandleNotify(ctx, model.ProviderPagarme, webhook(t, unknown, webhookSecret)))

	ignored := `{"id":"hook_c","type":"customer.created","data":{}}`
	require.NoError(t, f.svc.HandleNotify(ctx, model.ProviderPagarme, webhook(t, ignored, webhookSecret)))

	var events []model.WebhookEvent
	require.NoError(t, f.db.Order("event_id").Find(&events).Error)
	require.Len(t, events, 3)
	for _, ev := range events {
		assert.Equal(t, model.WebhookSkipped, ev.Status, ev.EventID)
	}
	assert.Equal(t, ordermodel.StatusPaid, f.reload(t, o).Status)
}

func TestCheckoutRetryAfterProcessingChargeDeclined(t *testing.T) {
	f := newFixture(t)
	o := f.order(t, ordermodel.StatusPending)
	ctx := context.Background()
	f.card.pay = func(req strategy.PayRequest) (*strategy.PayResult, error) {
		return &strategy.PayResult{
			ProviderID:    "or_proc",
			ChargeID:      "ch_proc",
			GatewayStatus: "processing",
			Status:        model.StatusPending,
		}, nil
	}

	p, err := f.svc.Checkout(ctx, customer.UserID, checkout(o.ID, model.MethodCreditCard))
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, p.Status)
	assert.Equal(t, ordermodel.StatusProcessing, f.reload(t, o).Status)

	// 分析中的支付仍然有效，不能重复下单
	_, err = f.svc.Checkout(ctx, customer.UserID, checkout(o.ID, model.MethodCreditCard))
	assert.ErrorIs(t, err, ErrPaymentExists)

	failed := `{"id":"hook_fail","type":"charge.payment_failed","data":{"id":"ch_proc","status":"failed","order":{"id":"or_proc"}}}`
	require.NoError(t, f.svc.HandleNotify(ctx, model.ProviderPagarme, webhook(t, failed, webhookSecret)))

	declined, err := f.svc.repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusDeclined, declined.Status)
	assert.Equal(t, ordermodel.StatusProcessing, f.reload(t, o).Status)

	f.card.pay = cardPaid
	retry, err := f.svc.Checkout(ctx, customer.UserID, checkout(o.ID, model.MethodCreditCard))
	require.NoError(t, err)
	assert.NotEqual(t, p.ID, retry.ID)
	assert.Equal(t, model.StatusPaid, retry.Status)
	assert.Equal(t, ordermodel.StatusPaid, f.reload(t, o).Status)
	assert.Equal(t, 2, f.card.payCalls)
}

func TestHandleNotifyReplaysFailedEvent(t *testing.T) {
	f := newFixture(t)
	o := f.order(t, ordermodel.StatusPending)
	ctx := context.Background()
	p, err := f.svc.Checkout(ctx, customer.UserID, checkout(o.ID, model.MethodPix))
	require.NoError(t, err)

	// 上一次投递处理失败，网关会带着同一个事件 ID 重试
	require.NoError(t, f.db.Create(&model.WebhookEvent{
		Provider:  model.ProviderPagarme,
		EventID:   "hook_retry",
		EventType: "order.paid",
		Status:    model.WebhookHandleFailed,
		Error:     "connection reset",
	}).Error)

	body := fmt.Sprintf(`{"id":"hook_retry","type":"order.paid","data":{"id":%q,"status":"paid","charges":[{"id":%q,"status":"paid"}]}}`, p.ProviderID, p.ChargeID)
	require.NoError(t, f.svc.HandleNotify(ctx, model.ProviderPagarme, webhook(t, body, webhookSecret)))

	paid, err := f.svc.repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPaid, paid.Status)
	assert.Equal(t, ordermodel.StatusPaid, f.reload(t, o).Status)

	var events []model.WebhookEvent
	require.NoError(t, f.db.Find(&events).Error)
	require.Len(t, events, 1)
	assert.Equal(t, model.WebhookHandled, events[0].Status)
	assert.Empty(t, events[0].Error)

	// 处理成功后再次写入视为重复
	again := &model.WebhookEvent{Provider: model.ProviderPagarme, EventID: "hook_retry", EventType: "order.paid", Status: model.WebhookReceived}
	assert.ErrorIs(t, f.svc.repo.RecordEvent(ctx, again), repository.ErrDuplicateEvent)
	assert.Equal(t, model.WebhookHandled, again.Status)
}

func TestHandleNotifyMalformedPayload(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, body := range []string{
		`{"id":"hook_bad","type":"order.paid","data":"oops"}`,
		`{"type":"order.paid","data":{}}`,
		`not json`,
	} {
		err := f.svc.HandleNotify(ctx, model.ProviderPagarme, webhook(t, body, webhookSecret))
		assert.ErrorIs(t, err, ErrMalformedNotify, body)
		assert.NotErrorIs(t, err, ErrInvalidSignature, body)
	}

	var count int64
	require.NoError(t, f.db.Model(&model.WebhookEvent{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestCustomerCancelsUnpaidOrder(t *testing.T) {
	f := newFixture(t)
	o := f.order(t, ordermodel.StatusPending)

	got, err := f.svc.CancelOrder(context.Background(), customer, o.ID, "mudei de ideia")
	require.NoError(t, err)
	assert.Equal(t, ordermodel.StatusCancelled, got.Status)
	assert.Equal(t, "mudei de ideia", got.CancelReason)

	_, err = f.svc.CancelOrder(context.Background(), customer, o.ID, "")
	assert.ErrorIs(t, err, ErrCannotCancel)
}

func TestCancelPendingPixFallsBackToLocalCancel(t *testing.T) {
	f := newFixture(t)
	o := f.order(t, ordermodel.StatusPending)
	ctx := context.Background()
	p, err := f.svc.Checkout(ctx, customer.UserID, checkout(o.ID, model.MethodPix))
	require.NoError(t, err)

	got, err := f.svc.CancelOrder(ctx, customer, o.ID, "")
	require.NoError(t, err)
	assert.Equal(t, ordermodel.StatusCancelled, got.Status)
	assert.Equal(t, 1, f.pix.cancels)

	reloaded, err := f.svc.repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCanceled, reloaded.Status)
}

func TestCancelPaidOrder(t *testing.T) {
	f := newFixture(t)
	o := f.order(t, ordermodel.StatusPending)
	ctx := context.Background()
	_, err := f.svc.Checkout(ctx, customer.UserID, checkout(o.ID, model.MethodCreditCard))
	require.NoError(t, err)

	_, err = f.svc.CancelOrder(ctx, customer, o.ID, "")
	assert.ErrorIs(t, err, ErrCannotCancel)

	_, err = f.svc.CancelOrder(ctx, other, o.ID, "")
	assert.ErrorIs(t, err, ErrForbidden)

	got, err := f.svc.CancelOrder(ctx, owner, o.ID, "sem estoque")
	require.NoError(t, err)
	assert.Equal(t, ordermodel.StatusRefunded, got.Status)
	assert.Equal(t, "sem estoque", got.CancelReason)
	assert.Equal(t, 1, f.card.cancels)
}

func TestRefund(t *testing.T) {
	f := newFixture(t)
	o := f.order(t, ordermodel.StatusPending)
	ctx := context.Background()

	_, err := f.svc.Refund(ctx, admin, o.ID)
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	_, err = f.svc.Checkout(ctx, customer.UserID, checkout(o.ID, model.MethodCreditCard))
	require.NoError(t, err)

	_, err = f.svc.Refund(ctx, customer, o.ID)
	assert.ErrorIs(t, err, ErrForbidden)

	p, err := f.svc.Refund(ctx, admin, o.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRefunded, p.Status)
	assert.Equal(t, ordermodel.StatusRefunded, f.reload(t, o).Status)
}

func TestLatePaymentForCancelledOrderIsRefunded(t *testing.T) {
	f := newFixture(t)
	o := f.order(t, ordermodel.StatusPending)
	ctx := context.Background()
	p, err := f.svc.Checkout(ctx, customer.UserID, checkout(o.ID, model.MethodPix))
	require.NoError(t, err)
	require.NoError(t, f.db.Model(&ordermodel.Order{}).Where("id = ?", o.ID).Update("status", ordermodel.StatusCancelled).Error)
	f.pix.cancel = refundOK

	body := fmt.Sprintf(`{"id":"hook_late","type":"order.paid","data":{"id":%q,"status":"paid","charges":[{"id":%q,"status":"paid"}]}}`, p.ProviderID, p.ChargeID)
	require.NoError(t, f.svc.HandleNotify(ctx, model.ProviderPagarme, webhook(t, body, webhookSecret)))

	got, err := f.svc.repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusRefunded, got.Status)
	assert.Equal(t, 1, f.pix.cancels)
	assert.Equal(t, ordermodel.StatusCancelled, f.reload(t, o).Status)
}

func TestReconcilePending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	paidOrder := f.order(t, ordermodel.StatusPending)
	staleOrder := f.order(t, ordermodel.StatusPending)
	brokenOrder := f.order(t, ordermodel.StatusPending)

	paid, err := f.svc.Checkout(ctx, customer.UserID, checkout(paidOrder.ID, model.MethodPix))
	require.NoError(t, err)
	_, err = f.svc.Checkout(ctx, customer.UserID, checkout(staleOrder.ID, model.MethodPix))
	require.NoError(t, err)
	broken, err := f.svc.Checkout(ctx, customer.UserID, checkout(brokenOrder.ID, model.MethodPix))
	require.NoError(t, err)

	f.pix.query = func(p *model.Payment) (*strategy.PayResult, error) {
		switch p.ID {
		case paid.ID:
			return &strategy.PayResult{ProviderID: p.ProviderID, GatewayStatus: "paid", Status: model.StatusPaid}, nil
		case broken.ID:
			return nil, errors.New("timeout")
		}
		return &strategy.PayResult{ProviderID: p.ProviderID, GatewayStatus: "pending", Status: model.StatusPending}, nil
	}
	// 两小时后，二维码均已过期
	later := time.Now().Add(2 * time.Hour)
	f.svc.now = func() time.Time { return later }

	report, err := f.svc.ReconcilePending(ctx, 30*time.Minute, 10)
	require.NoError(t, err)
	assert.Equal(t, &SweepReport{Checked: 3, Changed: 1, Expired: 1, Failed: 1}, report)
	assert.Equal(t, ordermodel.StatusPaid, f.reload(t, paidOrder).Status)
	assert.Equal(t, ordermodel.StatusCancelled, f.reload(t, staleOrder).Status)
	assert.Equal(t, ordermodel.StatusPending, f.reload(t, brokenOrder).Status)
}

func TestGetForOrder(t *testing.T) {
	f := newFixture(t)
	o := f.order(t, ordermodel.StatusPending)
	ctx := context.Background()

	_, err := f.svc.GetForOrder(ctx, customer, o.ID)
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	_, err = f.svc.Checkout(ctx, customer.UserID, checkout(o.ID, model.MethodPix))
	require.NoError(t, err)

	for _, actor := range []usermodel.Actor{customer, owner, admin} {
		p, err := f.svc.GetForOrder(ctx, actor, o.ID)
		require.NoError(t, err)
		assert.Equal(t, model.StatusPending, p.Status)
	}
	_, err = f.svc.GetForOrder(ctx, other, o.ID)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
