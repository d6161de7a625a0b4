package strategy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"food_delivery/internal/domain/payment/model"
	"food_delivery/internal/pkg/config"
	"net/http"

	"github.com/smartwalle/alipay/v3"
)

// AlipayStrategy 支付宝 App 支付
type AlipayStrategy struct {
	client *alipay.Client
	config config.AlipayConfig
}

func NewAlipayStrategy(cfg config.AlipayConfig) (*AlipayStrategy, error) {
	if cfg.AppID == "" {
		return nil, errors.New("alipay config missing")
	}

	client, err := alipay.New(cfg.AppID, cfg.PrivateKey, cfg.IsProduction)
	if err != nil {
		return nil, err
	}

	// 加载支付宝公钥 (用于验证签名)
	if err = client.LoadAliPayPublicKey(cfg.PublicKey); err != nil {
		return nil, err
	}

	return &AlipayStrategy{
		client: client,
		config: cfg,
	}, nil
}

func (s *AlipayStrategy) Method() model.Method { return model.MethodAlipay }

func (s *AlipayStrategy) Provider() string { return model.ProviderAlipay }

// Pay 生成 App 端调起支付所需的签名参数
func (s *AlipayStrategy) Pay(ctx context.Context, req PayRequest) (*PayResult, error) {
	subject := req.Subject
	if subject == "" {
		subject = "Pedido " + req.Order.Code
	}
	p := alipay.TradeAppPay{}
	p.NotifyURL = s.config.NotifyURL
	p.ReturnURL = s.config.ReturnURL
	p.Subject = subject
	p.OutTradeNo = OutTradeNo(req.Payment.ID)
	p.TotalAmount = req.Payment.Amount.StringFixed(2)
	p.ProductCode = "QUICK_MSECURITY_PAY"

	params, err := s.client.TradeAppPay(p)
	if err != nil {
		return nil, err
	}
	return &PayResult{
		GatewayStatus: string(alipay.TradeStatusWaitBuyerPay),
		Status:        model.StatusPending,
		PayParams:     params,
	}, nil
}

// Cancel 未支付的交易到期自动关闭，由调用方在本地取消
func (s *AlipayStrategy) Cancel(ctx context.Context, p *model.Payment) (*PayResult, error) {
	return nil, fmt.Errorf("%w: alipay cancel", ErrNotSupported)
}

// Query 以异步通知为准
func (s *AlipayStrategy) Query(ctx context.Context, p *model.Payment) (*PayResult, error) {
	return nil, fmt.Errorf("%w: alipay query", ErrNotSupported)
}

// MapAlipayStatus 交易状态到支付状态
func MapAlipayStatus(status alipay.TradeStatus) (model.Status, bool) {
	switch status {
	case alipay.TradeStatusSuccess, alipay.TradeStatusFinished:
		return model.StatusPaid, true
	case alipay.TradeStatusWaitBuyerPay:
		return model.StatusPending, true
	case alipay.TradeStatusClosed:
		return model.StatusCanceled, true
	}
	return "", false
}

// AlipayNotifyParser 支付宝异步通知 (form 表单)
type AlipayNotifyParser struct {
	strategy *AlipayStrategy
}

func NewAlipayNotifyParser(s *AlipayStrategy) *AlipayNotifyParser {
	return &AlipayNotifyParser{strategy: s}
}

func (p *AlipayNotifyParser) Provider() string { return model.ProviderAlipay }

func (p *AlipayNotifyParser) ParseNotify(r *http.Request) (*Notification, error) {
	if err := r.ParseForm(); err != nil {
		return nil, err
	}
	// 验证签名
	noti, err := p.strategy.client.DecodeNotification(r.Form)
	if err != nil {
		return nil, err
	}
	paymentID, err := PaymentIDFromOutTradeNo(noti.OutTradeNo)
	if err != nil {
		return nil, err
	}
	raw, _ := json.Marshal(r.Form)

	n := &Notification{
		EventID:       noti.NotifyId,
		EventType:     "trade_status_sync",
		PaymentID:     paymentID,
		ProviderID:    noti.TradeNo,
		GatewayStatus: string(noti.TradeStatus),
		Raw:           raw,
	}
	status, ok := MapAlipayStatus(noti.TradeStatus)
	if !ok {
		n.Ignored = true
		return n, nil
	}
	n.Status = status
	return n, nil
}

var (
	_ PaymentStrategy = (*AlipayStrategy)(nil)
	_ NotifyParser    = (*AlipayNotifyParser)(nil)
)
