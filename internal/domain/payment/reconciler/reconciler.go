// Package reconciler owns every order and payment status change.
//
// Apply and ApplyOrder are idempotent: each update is a conditional UPDATE on
// the current status inside one transaction, notification rows are written in
// that same transaction, and events and pushes are dispatched only after commit.
package reconciler

import (
	"context"
	"errors"
	"fmt"
	couponrepo "food_delivery/internal/domain/coupon/repository"
	notifmodel "food_delivery/internal/domain/notification/model"
	notifservice "food_delivery/internal/domain/notification/service"
	ordermodel "food_delivery/internal/domain/order/model"
	"food_delivery/internal/domain/payment/model"
	storemodel "food_delivery/internal/domain/store/model"
	"food_delivery/internal/pkg/events"
	"food_delivery/internal/pkg/push"
	"food_delivery/internal/pkg/worker"
	"food_delivery/pkg/logger"
	"food_delivery/pkg/metrics"
	"food_delivery/pkg/money"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrOrderNotFound     = errors.New("order not found")
)

// 变更来源，用于指标与事件
const (
	SourceCheckout = "checkout"
	SourceWebhook  = "webhook"
	SourceManual   = "manual"
	SourceOwner    = "owner"
	SourceSweep    = "sweep"
	SourceCustomer = "customer"
)

// Update 网关返回的最新支付状态
type Update struct {
	Status        model.Status
	GatewayStatus string
	ProviderID    string
	ChargeID      string
	Raw           datatypes.JSON
	FailureReason string
	Source        string
}

// Result 一次调用的结果；Changed=false 表示没有任何状态被修改
type Result struct {
	Payment             *model.Payment
	Order               *ordermodel.Order
	Changed             bool
	OrderChanged        bool
	PreviousStatus      model.Status
	PreviousOrderStatus ordermodel.Status
	// NeedsRefund 订单已取消但支付成功，需要向网关退款
	NeedsRefund bool
}

// StatusEvent 发布到消息队列的状态变更
type StatusEvent struct {
	OrderID   string `json:"order_id"`
	OrderCode string `json:"order_code"`
	PaymentID string `json:"payment_id,omitempty"`
	UserID    string `json:"user_id"`
	StoreID   string `json:"store_id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Source    string `json:"source"`
}

type pushMessage struct {
	userID, title, body, orderID string
}

type Reconciler struct {
	db         *gorm.DB
	workers    *worker.WorkerPool
	publisher  events.Publisher
	dispatcher *notifservice.Dispatcher
	metrics    *metrics.MetricsCollector
	now        func() time.Time
}

func New(db *gorm.DB, workers *worker.WorkerPool, publisher events.Publisher, pusher push.PushService, m *metrics.MetricsCollector) *Reconciler {
	if publisher == nil {
		publisher = events.NoopPublisher{}
	}
	return &Reconciler{
		db:         db,
		workers:    workers,
		publisher:  publisher,
		dispatcher: notifservice.NewDispatcher(pusher, workers),
		metrics:    m,
		now:        time.Now,
	}
}

// Apply 将支付推进到 u.Status，并联动订单状态
func (r *Reconciler) Apply(ctx context.Context, paymentID string, u Update) (*Result, error) {
	if !u.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown payment status %q", ErrIllegalTransition, u.Status)
	}
	res := &Result{}
	var pushes []pushMessage

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var p model.Payment
		if err := tx.Where("id = ?", paymentID).First(&p).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPaymentNotFound
			}
			return err
		}
		var o ordermodel.Order
		if err := tx.Where("id = ?", p.OrderID).First(&o).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		res.Payment, res.Order = &p, &o
		res.PreviousStatus, res.PreviousOrderStatus = p.Status, o.Status

		if u.Status == p.Status {
			// 状态未变，仅 processing 可以推进订单
			target, ok := model.OrderTarget(u.Status, u.GatewayStatus)
			if !ok || target != ordermodel.StatusProcessing {
				return nil
			}
			changed, err := r.moveOrder(tx, &o, target)
			if err != nil || !changed {
				return err
			}
			res.OrderChanged = true
			msg, err := r.notify(tx, &o, orderTitle(&o), orderBody(&o))
			pushes = append(pushes, msg)
			return err
		}

		if !model.CanTransition(p.Status, u.Status) {
			return fmt.Errorf("%w: payment %s -> %s", ErrIllegalTransition, p.Status, u.Status)
		}

		now := r.now()
		updates := map[string]interface{}{"status": u.Status, "updated_at": now}
		if u.GatewayStatus != "" {
			updates["gateway_status"] = u.GatewayStatus
			p.GatewayStatus = u.GatewayStatus
		}
		if u.ProviderID != "" {
			updates["provider_id"] = u.ProviderID
			p.ProviderID = u.ProviderID
		}
		if u.ChargeID != "" {
			updates["charge_id"] = u.ChargeID
			p.ChargeID = u.ChargeID
		}
		if len(u.Raw) > 0 {
			updates["raw_response"] = u.Raw
			p.RawResponse = u.Raw
		}
		if u.FailureReason != "" {
			updates["failure_reason"] = u.FailureReason
			p.FailureReason = u.FailureReason
		}
		if u.Status == model.StatusPaid {
			updates["paid_at"] = now
			p.PaidAt = &now
		}

		result := tx.Model(&model.Payment{}).
			Where("id = ? AND status = ?", p.ID, p.Status).
			Updates(updates)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			// 并发请求已处理
			return nil
		}
		res.Changed = true
		p.Status = u.Status
		p.StatusLabel = u.Status.Label()
		p.UpdatedAt = now

		if target, ok := model.OrderTarget(u.Status, u.GatewayStatus); ok {
			changed, err := r.moveOrder(tx, &o, target)
			if err != nil {
				return err
			}
			res.OrderChanged = changed
			if u.Status == model.StatusPaid && !changed && o.Status == ordermodel.StatusCancelled {
				res.NeedsRefund = true
			}
		}

		msg, err := r.notify(tx, &o, paymentTitle(u.Status), paymentBody(&o, &p))
		if err != nil {
			return err
		}
		pushes = append(pushes, msg)

		if u.Status == model.StatusPaid && res.OrderChanged {
			msg, err := r.notifyOwner(tx, &o)
			if err != nil {
				return err
			}
			if msg.userID != "" {
				pushes = append(pushes, msg)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if res.Changed {
		r.recordPayment(res, u.Source)
	}
	if res.OrderChanged {
		r.recordOrder(res, u.Source)
	}
	r.dispatch(pushes)
	if res.NeedsRefund {
		logger.Log.Warn("payment confirmed for a cancelled order",
			zap.String("payment_id", res.Payment.ID), zap.String("order_id", res.Order.ID))
	}
	return res, nil
}

// ApplyOrder 不涉及支付的订单流转 (出餐进度、未支付订单取消)
func (r *Reconciler) ApplyOrder(ctx context.Context, orderID string, target ordermodel.Status, source string) (*Result, error) {
	if !target.Valid() {
		return nil, fmt.Errorf("%w: unknown order status %q", ErrIllegalTransition, target)
	}
	res := &Result{}
	var pushes []pushMessage

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o ordermodel.Order
		if err := tx.Where("id = ?", orderID).First(&o).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrOrderNotFound
			}
			return err
		}
		res.Order = &o
		res.PreviousOrderStatus = o.Status
		if o.Status == target {
			return nil
		}
		if !ordermodel.CanTransition(o.Status, target) {
			return fmt.Errorf("%w: order %s -> %s", ErrIllegalTransition, o.Status, target)
		}
		changed, err := r.moveOrder(tx, &o, target)
		if err != nil || !changed {
			return err
		}
		res.OrderChanged = true
		msg, err := r.notify(tx, &o, orderTitle(&o), orderBody(&o))
		pushes = append(pushes, msg)
		return err
	})
	if err != nil {
		return nil, err
	}
	if res.OrderChanged {
		r.recordOrder(res, source)
	}
	r.dispatch(pushes)
	return res, nil
}

// moveOrder 条件更新：只有当前状态是 target 的合法前驱时才写入
func (r *Reconciler) moveOrder(tx *gorm.DB, o *ordermodel.Order, target ordermodel.Status) (bool, error) {
	preds := ordermodel.Predecessors(target)
	if len(preds) == 0 {
		return false, nil
	}
	now := r.now()
	result := tx.Model(&ordermodel.Order{}).
		Where("id = ? AND status IN ?", o.ID, preds).
		Updates(map[string]interface{}{"status": target, "updated_at": now})
	if result.Error != nil {
		return false, result.Error
	}
	if result.RowsAffected == 0 {
		// 重新读取，供调用方判断是否需要退款
		var current ordermodel.Order
		if err := tx.Select("status").Where("id = ?", o.ID).First(&current).Error; err != nil {
			return false, err
		}
		o.Status = current.Status
		o.StatusLabel = current.Status.Label()
		return false, nil
	}
	o.Status = target
	o.StatusLabel = target.Label()
	o.UpdatedAt = now

	if target == ordermodel.StatusCancelled && o.UserCouponID != nil {
		released, err := couponrepo.ReleaseTx(tx, *o.UserCouponID, o.ID)
		if err != nil {
			return false, fmt.Errorf("release coupon: %w", err)
		}
		if released {
			logger.Log.Info("coupon released", zap.String("order_id", o.ID), zap.String("user_coupon_id", *o.UserCouponID))
		}
	}
	return true, nil
}

func (r *Reconciler) notify(tx *gorm.DB, o *ordermodel.Order, title, body string) (pushMessage, error) {
	orderID := o.ID
	n := &notifmodel.Notification{UserID: o.UserID, OrderID: &orderID, Title: title, Description: body}
	if err := tx.Create(n).Error; err != nil {
		return pushMessage{}, fmt.Errorf("create notification: %w", err)
	}
	return pushMessage{userID: o.UserID, title: title, body: body, orderID: o.ID}, nil
}

func (r *Reconciler) notifyOwner(tx *gorm.DB, o *ordermodel.Order) (pushMessage, error) {
	var owners []string
	if err := tx.Model(&storemodel.Store{}).Where("id = ?", o.StoreID).Pluck("owner_id", &owners).Error; err != nil {
		return pushMessage{}, err
	}
	if len(owners) == 0 || owners[0] == "" {
		return pushMessage{}, nil
	}
	title := "Novo pedido"
	body := fmt.Sprintf("Pedido #%s pago: %s", o.Code, money.Format(o.TotalAmount))
	orderID := o.ID
	n := &notifmodel.Notification{UserID: owners[0], OrderID: &orderID, Title: title, Description: body}
	if err := tx.Create(n).Error; err != nil {
		return pushMessage{}, fmt.Errorf("create owner notification: %w", err)
	}
	return pushMessage{userID: owners[0], title: title, body: body, orderID: o.ID}, nil
}

func (r *Reconciler) dispatch(pushes []pushMessage) {
	for _, m := range pushes {
		r.dispatcher.Push(m.userID, m.title, m.body, map[string]string{"orderId": m.orderID})
	}
}

func (r *Reconciler) recordPayment(res *Result, source string) {
	if r.metrics != nil {
		r.metrics.RecordPaymentTransition(string(res.PreviousStatus), string(res.Payment.Status), source)
	}
	r.publish(events.PaymentStatusChanged, StatusEvent{
		OrderID:   res.Order.ID,
		OrderCode: res.Order.Code,
		PaymentID: res.Payment.ID,
		UserID:    res.Order.UserID,
		StoreID:   res.Order.StoreID,
		From:      string(res.PreviousStatus),
		To:        string(res.Payment.Status),
		Source:    source,
	})
}

func (r *Reconciler) recordOrder(res *Result, source string) {
	if r.metrics != nil {
		r.metrics.RecordOrderTransition(string(res.PreviousOrderStatus), string(res.Order.Status))
	}
	ev := StatusEvent{
		OrderID:   res.Order.ID,
		OrderCode: res.Order.Code,
		UserID:    res.Order.UserID,
		StoreID:   res.Order.StoreID,
		From:      string(res.PreviousOrderStatus),
		To:        string(res.Order.Status),
		Source:    source,
	}
	if res.Payment != nil {
		ev.PaymentID = res.Payment.ID
	}
	r.publish(events.OrderStatusChanged, ev)
}

func (r *Reconciler) publish(routingKey string, ev StatusEvent) {
	task := worker.Task{
		Name: "publish." + routingKey,
		Run: func(ctx context.Context) error {
			return r.publisher.Publish(ctx, routingKey, ev)
		},
	}
	if r.workers == nil {
		if err := task.Run(context.Background()); err != nil {
			logger.Log.Warn("publish event failed", zap.String("routing_key", routingKey), zap.Error(err))
		}
		return
	}
	r.workers.AddTask(task)
}

func paymentTitle(s model.Status) string {
	switch s {
	case model.StatusPaid:
		return "Pagamento aprovado"
	case model.StatusDeclined:
		return "Pagamento recusado"
	case model.StatusCanceled:
		return "Pedido cancelado"
	case model.StatusRefunded:
		return "Pagamento estornado"
	}
	return "Pagamento " + s.Label()
}

func paymentBody(o *ordermodel.Order, p *model.Payment) string {
	switch p.Status {
	case model.StatusPaid:
		return fmt.Sprintf("Recebemos o pagamento do pedido #%s. Ele já foi enviado para a loja.", o.Code)
	case model.StatusDeclined:
		if p.FailureReason != "" {
			return fmt.Sprintf("O pagamento do pedido #%s foi recusado (%s). Tente outra forma de pagamento.", o.Code, p.FailureReason)
		}
		return fmt.Sprintf("O pagamento do pedido #%s foi recusado. Tente outra forma de pagamento.", o.Code)
	case model.StatusCanceled:
		return fmt.Sprintf("O pedido #%s foi cancelado.", o.Code)
	case model.StatusRefunded:
		return fmt.Sprintf("O valor de %s do pedido #%s foi estornado.", money.Format(p.Amount), o.Code)
	}
	return fmt.Sprintf("Pedido #%s: %s", o.Code, p.Status.Label())
}

func orderTitle(o *ordermodel.Order) string {
	return o.Status.Label()
}

func orderBody(o *ordermodel.Order) string {
	return fmt.Sprintf("Pedido #%s: %s", o.Code, o.Status.Label())
}
