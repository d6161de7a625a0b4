package strategy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"food_delivery/internal/domain/payment/model"
	"food_delivery/internal/pkg/config"
	"food_delivery/pkg/money"
	"net/http"

	"github.com/wechatpay-apiv3/wechatpay-go/core"
	"github.com/wechatpay-apiv3/wechatpay-go/core/auth/verifiers"
	"github.com/wechatpay-apiv3/wechatpay-go/core/downloader"
	"github.com/wechatpay-apiv3/wechatpay-go/core/notify"
	"github.com/wechatpay-apiv3/wechatpay-go/core/option"
	"github.com/wechatpay-apiv3/wechatpay-go/services/payments"
	"github.com/wechatpay-apiv3/wechatpay-go/services/payments/app"
	"github.com/wechatpay-apiv3/wechatpay-go/utils"
)

// WechatStrategy 微信 App 支付
type WechatStrategy struct {
	client  *core.Client
	config  config.WechatPayConfig
	handler *notify.Handler
}

func NewWechatStrategy(ctx context.Context, cfg config.WechatPayConfig) (*WechatStrategy, error) {
	if cfg.MchID == "" {
		return nil, errors.New("wechat pay config missing")
	}

	// 加载商户私钥
	mchPrivateKey, err := utils.LoadPrivateKey(cfg.MchPrivateKey)
	if err != nil {
		return nil, err
	}

	opts := []core.ClientOption{
		option.WithWechatPayAutoAuthCipher(cfg.MchID, cfg.MchCertificateSerial, mchPrivateKey, cfg.APIv3Key),
	}
	client, err := core.NewClient(ctx, opts...)
	if err != nil {
		return nil, err
	}

	// 证书管理器用于回调验签
	certVisitor := downloader.MgrInstance().GetCertificateVisitor(cfg.MchID)
	handler := notify.NewNotifyHandler(cfg.APIv3Key, verifiers.NewSHA256WithRSAVerifier(certVisitor))

	return &WechatStrategy{
		client:  client,
		config:  cfg,
		handler: handler,
	}, nil
}

func (s *WechatStrategy) Method() model.Method { return model.MethodWechatPay }

func (s *WechatStrategy) Provider() string { return model.ProviderWechat }

func (s *WechatStrategy) Pay(ctx context.Context, req PayRequest) (*PayResult, error) {
	subject := req.Subject
	if subject == "" {
		subject = "Pedido " + req.Order.Code
	}
	prepay := app.PrepayRequest{
		Appid:       core.String(s.config.AppID),
		Mchid:       core.String(s.config.MchID),
		Description: core.String(subject),
		OutTradeNo:  core.String(OutTradeNo(req.Payment.ID)),
		NotifyUrl:   core.String(s.config.NotifyURL),
		Amount: &app.Amount{
			Total: core.Int64(money.ToCents(req.Payment.Amount)),
		},
	}

	svc := app.AppApiService{Client: s.client}
	resp, _, err := svc.Prepay(ctx, prepay)
	if err != nil {
		return nil, err
	}
	return &PayResult{
		GatewayStatus: "NOTPAY",
		Status:        model.StatusPending,
		PayParams:     *resp.PrepayId,
	}, nil
}

// Cancel 关闭未支付订单；退款需要商户证书流程，暂不支持
func (s *WechatStrategy) Cancel(ctx context.Context, p *model.Payment) (*PayResult, error) {
	if p.Status != model.StatusPending {
		return nil, fmt.Errorf("%w: wechat refund", ErrNotSupported)
	}
	svc := app.AppApiService{Client: s.client}
	if _, err := svc.CloseOrder(ctx, app.CloseOrderRequest{
		OutTradeNo: core.String(OutTradeNo(p.ID)),
		Mchid:      core.String(s.config.MchID),
	}); err != nil {
		return nil, err
	}
	return &PayResult{GatewayStatus: "CLOSED", Status: model.StatusCanceled}, nil
}

func (s *WechatStrategy) Query(ctx context.Context, p *model.Payment) (*PayResult, error) {
	svc := app.AppApiService{Client: s.client}
	tx, _, err := svc.QueryOrderByOutTradeNo(ctx, app.QueryOrderByOutTradeNoRequest{
		OutTradeNo: core.String(OutTradeNo(p.ID)),
		Mchid:      core.String(s.config.MchID),
	})
	if err != nil {
		return nil, err
	}
	return fromTransaction(tx)
}

// MapWechatTradeState 交易状态到支付状态
func MapWechatTradeState(state string) (model.Status, bool) {
	switch state {
	case "SUCCESS":
		return model.StatusPaid, true
	case "REFUND":
		return model.StatusRefunded, true
	case "NOTPAY", "USERPAYING":
		return model.StatusPending, true
	case "CLOSED", "REVOKED":
		return model.StatusCanceled, true
	case "PAYERROR":
		return model.StatusDeclined, true
	}
	return "", false
}

func fromTransaction(tx *payments.Transaction) (*PayResult, error) {
	if tx == nil || tx.TradeState == nil {
		return nil, errors.New("wechat: empty transaction")
	}
	status, ok := MapWechatTradeState(*tx.TradeState)
	if !ok {
		return nil, fmt.Errorf("wechat: unknown trade state %q", *tx.TradeState)
	}
	raw, _ := json.Marshal(tx)
	res := &PayResult{GatewayStatus: *tx.TradeState, Status: status, Raw: raw}
	if tx.TransactionId != nil {
		res.ProviderID = *tx.TransactionId
	}
	return res, nil
}

// WechatNotifyParser 微信支付回调 (JSON + 平台证书签名)
type WechatNotifyParser struct {
	strategy *WechatStrategy
}

func NewWechatNotifyParser(s *WechatStrategy) *WechatNotifyParser {
	return &WechatNotifyParser{strategy: s}
}

func (p *WechatNotifyParser) Provider() string { return model.ProviderWechat }

func (p *WechatNotifyParser) ParseNotify(r *http.Request) (*Notification, error) {
	transaction := new(payments.Transaction)
	req, err := p.strategy.handler.ParseNotifyRequest(r.Context(), r, transaction)
	if err != nil {
		return nil, err
	}
	if transaction.OutTradeNo == nil {
		return nil, ErrUnknownPayment
	}
	paymentID, err := PaymentIDFromOutTradeNo(*transaction.OutTradeNo)
	if err != nil {
		return nil, err
	}

	n := &Notification{
		EventID:   req.ID,
		EventType: req.EventType,
		PaymentID: paymentID,
	}
	res, err := fromTransaction(transaction)
	if err != nil {
		n.Ignored = true
		return n, nil
	}
	n.ProviderID = res.ProviderID
	n.GatewayStatus = res.GatewayStatus
	n.Status = res.Status
	n.Raw = res.Raw
	return n, nil
}

var (
	_ PaymentStrategy = (*WechatStrategy)(nil)
	_ NotifyParser    = (*WechatNotifyParser)(nil)
)
