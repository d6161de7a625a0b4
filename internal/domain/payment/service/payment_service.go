package service

import (
	"context"
	"errors"
	"fmt"
	ordermodel "food_delivery/internal/domain/order/model"
	orderrepo "food_delivery/internal/domain/order/repository"
	"food_delivery/internal/domain/payment/gateway"
	"food_delivery/internal/domain/payment/model"
	"food_delivery/internal/domain/payment/reconciler"
	"food_delivery/internal/domain/payment/repository"
	"food_delivery/internal/domain/payment/strategy"
	storemodel "food_delivery/internal/domain/store/model"
	usermodel "food_delivery/internal/domain/user/model"
	"food_delivery/internal/pkg/validation"
	"food_delivery/internal/pkg/worker"
	"food_delivery/pkg/logger"
	"food_delivery/pkg/metrics"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrPaymentNotFound   = errors.New("payment not found")
	ErrOrderNotFound     = errors.New("order not found")
	ErrOrderNotPayable   = errors.New("order is not awaiting payment")
	ErrPaymentExists     = errors.New("order already has an active payment")
	ErrMethodUnavailable = errors.New("payment method unavailable")
	ErrGateway           = errors.New("payment gateway error")
	ErrCannotCancel      = errors.New("order can no longer be cancelled")
	ErrNotRefundable     = errors.New("payment is not refundable")
	ErrUnknownProvider   = errors.New("unknown payment provider")
	ErrInvalidSignature  = errors.New("invalid notification signature")
	ErrMalformedNotify   = errors.New("malformed notification payload")
	ErrForbidden         = errors.New("no permission for this order")
)

const webhookLockTTL = 2 * time.Minute

// Authority 唯一的状态修改入口
type Authority interface {
	Apply(ctx context.Context, paymentID string, u reconciler.Update) (*reconciler.Result, error)
	ApplyOrder(ctx context.Context, orderID string, target ordermodel.Status, source string) (*reconciler.Result, error)
}

// StoreAuthorizer 校验门店管理权限
type StoreAuthorizer interface {
	Authorize(ctx context.Context, actor usermodel.Actor, storeID string) (*storemodel.Store, error)
}

// Tokenizer 卡片令牌化
type Tokenizer interface {
	CreateToken(ctx context.Context, card gateway.CardInput) (*gateway.Token, error)
}

type TokenizeInput struct {
	Number     string `json:"number" binding:"required,luhn"`
	HolderName string `json:"holderName" binding:"required,max=64"`
	Expiry     string `json:"expiry" binding:"required,card_expiry"` // MM/YY
	CVV        string `json:"cvv" binding:"required,numeric,min=3,max=4"`
}

type TokenResult struct {
	Token    string `json:"token"`
	Brand    string `json:"brand"`
	LastFour string `json:"lastFour"`
}

type CustomerInput struct {
	Name     string `json:"name" binding:"required,max=128"`
	Email    string `json:"email" binding:"omitempty,email"`
	Document string `json:"document" binding:"required,cpf"`
	Phone    string `json:"phone" binding:"omitempty,br_mobile"`
}

type CheckoutInput struct {
	OrderID      string        `json:"orderId" binding:"required,uuid"`
	Method       model.Method  `json:"paymentMethod" binding:"required"`
	CardToken    string        `json:"cardToken"`
	Installments int           `json:"installments" binding:"omitempty,min=1,max=12"`
	Customer     CustomerInput `json:"customer" binding:"required"`
}

type CancelInput struct {
	Reason string `json:"reason" binding:"max=255"`
}

// SweepReport reconcile 命令的统计
type SweepReport struct {
	Checked int `json:"checked"`
	Changed int `json:"changed"`
	Expired int `json:"expired"`
	Failed  int `json:"failed"`
}

type PaymentService interface {
	RegisterStrategy(s strategy.PaymentStrategy)
	RegisterNotifyParser(p strategy.NotifyParser)
	Methods() []model.Method

	Tokenize(ctx context.Context, in TokenizeInput) (*TokenResult, error)
	Checkout(ctx context.Context, userID string, in CheckoutInput) (*model.Payment, error)
	GetForOrder(ctx context.Context, actor usermodel.Actor, orderID string) (*model.Payment, error)
	CancelOrder(ctx context.Context, actor usermodel.Actor, orderID, reason string) (*ordermodel.Order, error)
	Refund(ctx context.Context, actor usermodel.Actor, orderID string) (*model.Payment, error)
	HandleNotify(ctx context.Context, provider string, r *http.Request) error
	ReconcilePending(ctx context.Context, olderThan time.Duration, limit int) (*SweepReport, error)
}

type paymentService struct {
	repo       repository.PaymentRepository
	orders     orderrepo.OrderRepository
	stores     StoreAuthorizer
	authority  Authority
	tokenizer  Tokenizer
	rdb        *redis.Client
	workers    *worker.WorkerPool
	metrics    *metrics.MetricsCollector
	strategies map[model.Method]strategy.PaymentStrategy
	parsers    map[string]strategy.NotifyParser
	now        func() time.Time
}

// Deps 支付服务依赖；Tokenizer、Redis、Workers、Metrics 可以为空
type Deps struct {
	Payments  repository.PaymentRepository
	Orders    orderrepo.OrderRepository
	Stores    StoreAuthorizer
	Authority Authority
	Tokenizer Tokenizer
	Redis     *redis.Client
	Workers   *worker.WorkerPool
	Metrics   *metrics.MetricsCollector
}

func NewPaymentService(d Deps) PaymentService {
	return &paymentService{
		repo:       d.Payments,
		orders:     d.Orders,
		stores:     d.Stores,
		authority:  d.Authority,
		tokenizer:  d.Tokenizer,
		rdb:        d.Redis,
		workers:    d.Workers,
		metrics:    d.Metrics,
		strategies: make(map[model.Method]strategy.PaymentStrategy),
		parsers:    make(map[string]strategy.NotifyParser),
		now:        time.Now,
	}
}

// RegisterStrategy 注册支付策略
func (s *paymentService) RegisterStrategy(st strategy.PaymentStrategy) {
	s.strategies[st.Method()] = st
}

func (s *paymentService) RegisterNotifyParser(p strategy.NotifyParser) {
	s.parsers[p.Provider()] = p
}

func (s *paymentService) Methods() []model.Method {
	var out []model.Method
	for _, m := range []model.Method{model.MethodCreditCard, model.MethodPix, model.MethodAlipay, model.MethodWechatPay} {
		if _, ok := s.strategies[m]; ok {
			out = append(out, m)
		}
	}
	return out
}

func (s *paymentService) Tokenize(ctx context.Context, in TokenizeInput) (*TokenResult, error) {
	if s.tokenizer == nil {
		return nil, ErrMethodUnavailable
	}
	month, year, ok := validation.ParseExpiry(in.Expiry)
	if !ok {
		return nil, fmt.Errorf("%w: invalid expiry", ErrGateway)
	}
	tok, err := s.tokenizer.CreateToken(ctx, gateway.CardInput{
		Number:     validation.Digits(in.Number),
		HolderName: strings.ToUpper(strings.TrimSpace(in.HolderName)),
		ExpMonth:   month,
		ExpYear:    year,
		CVV:        in.CVV,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	return &TokenResult{Token: tok.ID, Brand: tok.Card.Brand, LastFour: tok.Card.LastFourDigits}, nil
}

func (s *paymentService) Checkout(ctx context.Context, userID string, in CheckoutInput) (*model.Payment, error) {
	st, ok := s.strategies[in.Method]
	if !ok {
		return nil, ErrMethodUnavailable
	}
	order, err := s.loadOrder(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	// processing 且支付已被拒绝时同样允许换卡重试，订单状态不回退
	if !order.Status.AwaitingPayment() {
		return nil, ErrOrderNotPayable
	}

	active, err := s.repo.GetActiveByOrder(ctx, order.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if active == nil && order.Status != ordermodel.StatusPending {
		logger.Log.Info("retrying payment for processing order", zap.String("order_id", order.ID))
	}
	if active != nil {
		// PIX 二维码仍有效时直接返回，避免重复下单
		if active.Status == model.StatusPending && active.Method == in.Method && in.Method == model.MethodPix &&
			active.PixExpiresAt != nil && active.PixExpiresAt.After(s.now()) {
			return active, nil
		}
		return nil, ErrPaymentExists
	}

	payment := &model.Payment{
		OrderID:  order.ID,
		UserID:   userID,
		Provider: st.Provider(),
		Amount:   order.TotalAmount,
		Status:   model.StatusPending,
		Method:   in.Method,
	}
	if err := s.repo.Create(ctx, payment); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrPaymentExists
		}
		return nil, err
	}

	res, err := st.Pay(ctx, strategy.PayRequest{
		Payment: payment,
		Order:   order,
		Customer: strategy.Customer{
			Name:     in.Customer.Name,
			Email:    in.Customer.Email,
			Document: in.Customer.Document,
			Phone:    in.Customer.Phone,
		},
		CardToken:    in.CardToken,
		Installments: in.Installments,
	})
	if err != nil {
		logger.Log.Warn("payment request failed",
			zap.String("payment_id", payment.ID),
			zap.String("method", string(in.Method)),
			zap.Error(err),
		)
		// 释放订单，顾客可以换一种方式重试
		if _, aerr := s.authority.Apply(ctx, payment.ID, reconciler.Update{
			Status:        model.StatusDeclined,
			GatewayStatus: "with_error",
			FailureReason: truncate(err.Error(), 255),
			Source:        reconciler.SourceCheckout,
		}); aerr != nil {
			logger.Log.Error("mark failed payment declined", zap.String("payment_id", payment.ID), zap.Error(aerr))
		}
		if errors.Is(err, strategy.ErrMissingCardData) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}

	if err := s.repo.SaveGatewayData(ctx, payment.ID, gatewayFields(res)); err != nil {
		return nil, err
	}
	applied, err := s.authority.Apply(ctx, payment.ID, updateFrom(res, reconciler.SourceCheckout))
	if err != nil && !errors.Is(err, reconciler.ErrIllegalTransition) {
		return nil, err
	}
	if applied != nil && applied.NeedsRefund {
		s.scheduleRefund(applied.Payment)
	}
	return s.repo.GetByID(ctx, payment.ID)
}

func (s *paymentService) GetForOrder(ctx context.Context, actor usermodel.Actor, orderID string) (*model.Payment, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.canView(ctx, actor, order); err != nil {
		return nil, err
	}
	p, err := s.repo.GetLatestByOrder(ctx, order.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	return p, err
}

func (s *paymentService) CancelOrder(ctx context.Context, actor usermodel.Actor, orderID, reason string) (*ordermodel.Order, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	isCustomer := order.UserID == actor.UserID
	if !isCustomer {
		if err := s.canManage(ctx, actor, order); err != nil {
			return nil, err
		}
	}
	// 顾客只能在支付确认前取消
	if isCustomer && !actor.IsAdmin() && !order.Status.AwaitingPayment() {
		return nil, ErrCannotCancel
	}
	if !ordermodel.CanTransition(order.Status, ordermodel.StatusCancelled) {
		return nil, ErrCannotCancel
	}

	if reason != "" {
		if err := s.orders.SetCancelReason(ctx, order.ID, truncate(reason, 255)); err != nil {
			return nil, err
		}
	}

	active, err := s.repo.GetActiveByOrder(ctx, order.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if active == nil {
		if _, err := s.authority.ApplyOrder(ctx, order.ID, ordermodel.StatusCancelled, sourceFor(actor, order)); err != nil {
			return nil, s.transitionError(err)
		}
		return s.loadOrder(ctx, order.ID)
	}

	if err := s.cancelPayment(ctx, active, sourceFor(actor, order)); err != nil {
		return nil, err
	}
	return s.loadOrder(ctx, order.ID)
}

// cancelPayment 在渠道侧取消 (或退款) 后落库；渠道不支持取消的待支付单据直接本地取消
func (s *paymentService) cancelPayment(ctx context.Context, p *model.Payment, source string) error {
	st, ok := s.strategies[p.Method]
	var (
		res *strategy.PayResult
		err error
	)
	if ok {
		res, err = st.Cancel(ctx, p)
	} else {
		err = strategy.ErrNotSupported
	}
	if errors.Is(err, strategy.ErrNotSupported) && p.Status == model.StatusPending {
		res, err = &strategy.PayResult{GatewayStatus: "canceled", Status: model.StatusCanceled}, nil
	}
	if err != nil {
		logger.Log.Warn("gateway cancel failed", zap.String("payment_id", p.ID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrGateway, err)
	}
	if _, err := s.authority.Apply(ctx, p.ID, updateFrom(res, source)); err != nil {
		return s.transitionError(err)
	}
	return nil
}

func (s *paymentService) Refund(ctx context.Context, actor usermodel.Actor, orderID string) (*model.Payment, error) {
	order, err := s.loadOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := s.canManage(ctx, actor, order); err != nil {
		return nil, err
	}
	p, err := s.repo.GetActiveByOrder(ctx, order.ID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	if p.Status != model.StatusPaid {
		return nil, ErrNotRefundable
	}
	st, ok := s.strategies[p.Method]
	if !ok {
		return nil, ErrMethodUnavailable
	}
	res, err := st.Cancel(ctx, p)
	if errors.Is(err, strategy.ErrNotSupported) {
		return nil, ErrNotRefundable
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	if _, err := s.authority.Apply(ctx, p.ID, updateFrom(res, reconciler.SourceManual)); err != nil {
		return nil, s.transitionError(err)
	}
	return s.repo.GetByID(ctx, p.ID)
}

func (s *paymentService) HandleNotify(ctx context.Context, provider string, r *http.Request) (err error) {
	result := "handled"
	defer func() {
		if err != nil && result == "handled" {
			result = "failed"
		}
		if s.metrics != nil {
			s.metrics.RecordWebhook(provider, result)
		}
	}()

	parser, ok := s.parsers[provider]
	if !ok {
		result = "rejected"
		return ErrUnknownProvider
	}
	n, err := parser.ParseNotify(r)
	if err != nil {
		if errors.Is(err, strategy.ErrMalformedNotify) {
			result = "malformed"
			return fmt.Errorf("%w: %v", ErrMalformedNotify, err)
		}
		result = "rejected"
		if errors.Is(err, gateway.ErrInvalidSignature) {
			return ErrInvalidSignature
		}
		return fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	unlock, acquired := s.lock(ctx, provider, n.EventID)
	if !acquired {
		result = "duplicate"
		return nil
	}
	defer unlock()

	ev := &model.WebhookEvent{
		Provider:  provider,
		EventID:   n.EventID,
		EventType: n.EventType,
		Status:    model.WebhookReceived,
		Payload:   n.Raw,
	}
	if err := s.repo.RecordEvent(ctx, ev); err != nil {
		if errors.Is(err, repository.ErrDuplicateEvent) {
			result = "duplicate"
			return nil
		}
		return err
	}

	log := logger.Log.With(zap.String("provider", provider), zap.String("event_id", n.EventID), zap.String("event_type", n.EventType))
	finish := func(status, msg string) {
		if ferr := s.repo.FinishEvent(ctx, ev.ID, status, msg); ferr != nil {
			log.Error("update webhook event failed", zap.Error(ferr))
		}
	}

	if n.Ignored {
		result = "skipped"
		finish(model.WebhookSkipped, "ignored event: "+n.GatewayStatus)
		return nil
	}

	p, err := s.findPayment(ctx, provider, n)
	if err != nil {
		if errors.Is(err, ErrPaymentNotFound) {
			result = "skipped"
			log.Warn("webhook for unknown payment", zap.String("provider_id", n.ProviderID))
			finish(model.WebhookSkipped, err.Error())
			return nil
		}
		finish(model.WebhookHandleFailed, err.Error())
		return err
	}

	applied, err := s.authority.Apply(ctx, p.ID, reconciler.Update{
		Status:        n.Status,
		GatewayStatus: n.GatewayStatus,
		ProviderID:    n.ProviderID,
		ChargeID:      n.ChargeID,
		Raw:           n.Raw,
		Source:        reconciler.SourceWebhook,
	})
	if err != nil {
		if errors.Is(err, reconciler.ErrIllegalTransition) {
			result = "skipped"
			log.Info("stale webhook ignored", zap.String("payment_id", p.ID), zap.Error(err))
			finish(model.WebhookSkipped, err.Error())
			return nil
		}
		log.Error("apply webhook failed", zap.String("payment_id", p.ID), zap.Error(err))
		finish(model.WebhookHandleFailed, err.Error())
		return err
	}

	finish(model.WebhookHandled, "")
	if applied.NeedsRefund {
		s.scheduleRefund(applied.Payment)
	}
	return nil
}

func (s *paymentService) findPayment(ctx context.Context, provider string, n *strategy.Notification) (*model.Payment, error) {
	var (
		p   *model.Payment
		err = gorm.ErrRecordNotFound
	)
	switch {
	case n.PaymentID != "":
		p, err = s.repo.GetByID(ctx, n.PaymentID)
	case n.ProviderID != "":
		p, err = s.repo.GetByProviderID(ctx, provider, n.ProviderID)
		if errors.Is(err, gorm.ErrRecordNotFound) && n.ChargeID != "" {
			p, err = s.repo.GetByChargeID(ctx, provider, n.ChargeID)
		}
	case n.ChargeID != "":
		p, err = s.repo.GetByChargeID(ctx, provider, n.ChargeID)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	return p, err
}

// lock Redis 分布式锁，防止同一事件并发处理；Redis 不可用时退化为仅依赖数据库去重
func (s *paymentService) lock(ctx context.Context, provider, eventID string) (func(), bool) {
	if s.rdb == nil || eventID == "" {
		return func() {}, true
	}
	key := fmt.Sprintf("webhook:lock:%s:%s", provider, eventID)
	ok, err := s.rdb.SetNX(ctx, key, 1, webhookLockTTL).Result()
	if err != nil {
		logger.Log.Warn("webhook lock unavailable", zap.String("key", key), zap.Error(err))
		return func() {}, true
	}
	if !ok {
		return nil, false
	}
	return func() { s.rdb.Del(context.Background(), key) }, true
}

func (s *paymentService) ReconcilePending(ctx context.Context, olderThan time.Duration, limit int) (*SweepReport, error) {
	if limit <= 0 {
		limit = 100
	}
	list, err := s.repo.ListStalePending(ctx, s.now().Add(-olderThan), limit)
	if err != nil {
		return nil, err
	}
	report := &SweepReport{}
	for i := range list {
		p := &list[i]
		report.Checked++
		changed, expired, err := s.reconcileOne(ctx, p)
		switch {
		case err != nil:
			report.Failed++
			logger.Log.Warn("reconcile payment failed", zap.String("payment_id", p.ID), zap.Error(err))
		case expired:
			report.Expired++
		case changed:
			report.Changed++
		}
	}
	return report, nil
}

func (s *paymentService) reconcileOne(ctx context.Context, p *model.Payment) (changed, expired bool, err error) {
	if st, ok := s.strategies[p.Method]; ok {
		res, qerr := st.Query(ctx, p)
		switch {
		case qerr == nil:
			if ferr := s.repo.SaveGatewayData(ctx, p.ID, gatewayFields(res)); ferr != nil {
				return false, false, ferr
			}
			applied, aerr := s.authority.Apply(ctx, p.ID, updateFrom(res, reconciler.SourceSweep))
			if aerr != nil {
				return false, false, aerr
			}
			if applied.NeedsRefund {
				s.scheduleRefund(applied.Payment)
			}
			if applied.Payment.Status != model.StatusPending {
				return applied.Changed, false, nil
			}
		case !errors.Is(qerr, strategy.ErrNotSupported):
			return false, false, qerr
		}
	}

	// PIX 超过有效期仍未支付
	if p.Method == model.MethodPix && p.PixExpiresAt != nil && p.PixExpiresAt.Before(s.now()) {
		applied, aerr := s.authority.Apply(ctx, p.ID, reconciler.Update{
			Status:        model.StatusCanceled,
			GatewayStatus: "expired",
			Source:        reconciler.SourceSweep,
		})
		if aerr != nil {
			return false, false, aerr
		}
		return applied.Changed, applied.Changed, nil
	}
	return false, false, nil
}

// scheduleRefund 已取消订单收到支付成功时自动退款
func (s *paymentService) scheduleRefund(p *model.Payment) {
	if p == nil {
		return
	}
	st, ok := s.strategies[p.Method]
	if !ok {
		logger.Log.Error("cannot refund payment for cancelled order: no strategy", zap.String("payment_id", p.ID))
		return
	}
	payment := *p
	task := worker.Task{
		Name: "payment.auto_refund",
		Run: func(ctx context.Context) error {
			res, err := st.Cancel(ctx, &payment)
			if err != nil {
				return err
			}
			_, err = s.authority.Apply(ctx, payment.ID, updateFrom(res, reconciler.SourceSweep))
			if errors.Is(err, reconciler.ErrIllegalTransition) {
				return nil
			}
			return err
		},
	}
	if s.workers == nil {
		if err := task.Run(context.Background()); err != nil {
			logger.Log.Error("auto refund failed", zap.String("payment_id", p.ID), zap.Error(err))
		}
		return
	}
	s.workers.AddTask(task)
}

func (s *paymentService) loadOrder(ctx context.Context, id string) (*ordermodel.Order, error) {
	order, err := s.orders.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrOrderNotFound
	}
	return order, err
}

func (s *paymentService) canView(ctx context.Context, actor usermodel.Actor, order *ordermodel.Order) error {
	if order.UserID == actor.UserID || actor.IsAdmin() {
		return nil
	}
	if _, err := s.stores.Authorize(ctx, actor, order.StoreID); err != nil {
		return ErrOrderNotFound
	}
	return nil
}

func (s *paymentService) canManage(ctx context.Context, actor usermodel.Actor, order *ordermodel.Order) error {
	if actor.IsAdmin() {
		return nil
	}
	if _, err := s.stores.Authorize(ctx, actor, order.StoreID); err != nil {
		return ErrForbidden
	}
	return nil
}

func (s *paymentService) transitionError(err error) error {
	if errors.Is(err, reconciler.ErrIllegalTransition) {
		return fmt.Errorf("%w: %v", ErrCannotCancel, err)
	}
	return err
}

func sourceFor(actor usermodel.Actor, order *ordermodel.Order) string {
	if order.UserID == actor.UserID {
		return reconciler.SourceCustomer
	}
	return reconciler.SourceOwner
}

func gatewayFields(res *strategy.PayResult) map[string]interface{} {
	f := make(map[string]interface{})
	if res.ProviderID != "" {
		f["provider_id"] = res.ProviderID
	}
	if res.ChargeID != "" {
		f["charge_id"] = res.ChargeID
	}
	if res.GatewayStatus != "" {
		f["gateway_status"] = res.GatewayStatus
	}
	if len(res.Raw) > 0 {
		f["raw_response"] = res.Raw
	}
	if res.PixQRCode != "" {
		f["pix_qr_code"] = res.PixQRCode
	}
	if res.PixQRCodeURL != "" {
		f["pix_qr_code_url"] = res.PixQRCodeURL
	}
	if res.PixExpiresAt != nil {
		f["pix_expires_at"] = *res.PixExpiresAt
	}
	if res.CardBrand != "" {
		f["card_brand"] = res.CardBrand
	}
	if res.CardLastFour != "" {
		f["card_last_four"] = res.CardLastFour
	}
	if res.PayParams != "" {
		f["pay_params"] = res.PayParams
	}
	return f
}

func updateFrom(res *strategy.PayResult, source string) reconciler.Update {
	return reconciler.Update{
		Status:        res.Status,
		GatewayStatus: res.GatewayStatus,
		ProviderID:    res.ProviderID,
		ChargeID:      res.ChargeID,
		Raw:           res.Raw,
		FailureReason: res.FailureReason,
		Source:        source,
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
