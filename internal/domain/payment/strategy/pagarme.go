package strategy

import (
	"context"
	"fmt"
	"food_delivery/internal/domain/payment/gateway"
	"food_delivery/internal/domain/payment/model"
	"food_delivery/internal/pkg/validation"
	"food_delivery/pkg/money"
)

// GatewayAPI 网关客户端中策略用到的部分
type GatewayAPI interface {
	CreateOrder(ctx context.Context, req gateway.CreateOrderRequest) (*gateway.Order, []byte, error)
	GetOrder(ctx context.Context, id string) (*gateway.Order, []byte, error)
	CancelCharge(ctx context.Context, chargeID string) (*gateway.Charge, []byte, error)
}

type pagarmeBase struct {
	api GatewayAPI
}

func (b pagarmeBase) Provider() string { return model.ProviderPagarme }

func (b pagarmeBase) createOrder(ctx context.Context, req PayRequest, payment gateway.PaymentRequest) (*PayResult, error) {
	p, o := req.Payment, req.Order
	subject := req.Subject
	if subject == "" {
		subject = "Pedido " + o.Code
	}
	body := gateway.CreateOrderRequest{
		Code:     o.Code,
		Customer: customerPayload(req.Customer),
		Items: []gateway.Item{{
			Amount:      money.ToCents(p.Amount),
			Description: subject,
			Quantity:    1,
			Code:        o.Code,
		}},
		Payments: []gateway.PaymentRequest{payment},
		Metadata: map[string]string{"payment_id": p.ID, "order_id": o.ID},
	}
	gwOrder, raw, err := b.api.CreateOrder(ctx, body)
	if err != nil {
		return nil, err
	}
	return fromOrder(gwOrder, raw)
}

func (b pagarmeBase) Cancel(ctx context.Context, p *model.Payment) (*PayResult, error) {
	if p.ChargeID == "" {
		return nil, fmt.Errorf("%w: payment has no charge", ErrNotSupported)
	}
	ch, raw, err := b.api.CancelCharge(ctx, p.ChargeID)
	if err != nil {
		return nil, err
	}
	status, err := gateway.MapStatus(ch.Status)
	if err != nil {
		return nil, err
	}
	// 已结算的交易取消即退款
	if p.Status == model.StatusPaid && status == model.StatusCanceled {
		status = model.StatusRefunded
	}
	return &PayResult{
		ProviderID:    p.ProviderID,
		ChargeID:      ch.ID,
		GatewayStatus: ch.Status,
		Status:        status,
		Raw:           raw,
	}, nil
}

func (b pagarmeBase) Query(ctx context.Context, p *model.Payment) (*PayResult, error) {
	if p.ProviderID == "" {
		return nil, fmt.Errorf("%w: payment was never sent to the gateway", ErrNotSupported)
	}
	gwOrder, raw, err := b.api.GetOrder(ctx, p.ProviderID)
	if err != nil {
		return nil, err
	}
	return fromOrder(gwOrder, raw)
}

// fromOrder 将网关订单转换为 PayResult
func fromOrder(o *gateway.Order, raw []byte) (*PayResult, error) {
	gwStatus := o.EffectiveStatus()
	status, err := gateway.MapStatus(gwStatus)
	if err != nil {
		return nil, err
	}
	res := &PayResult{
		ProviderID:    o.ID,
		GatewayStatus: gwStatus,
		Status:        status,
		Raw:           raw,
	}
	if ch := o.Charge(); ch != nil {
		res.ChargeID = ch.ID
		if tx := ch.LastTransaction; tx != nil {
			res.PixQRCode = tx.QRCode
			res.PixQRCodeURL = tx.QRCodeURL
			res.PixExpiresAt = tx.ExpiresAt
			if tx.Card != nil {
				res.CardBrand = tx.Card.Brand
				res.CardLastFour = tx.Card.LastFourDigits
			}
			if status == model.StatusDeclined {
				res.FailureReason = tx.AcquirerMessage
			}
		}
	}
	return res, nil
}

func customerPayload(c Customer) gateway.Customer {
	out := gateway.Customer{
		Name:         c.Name,
		Email:        c.Email,
		Document:     validation.Digits(c.Document),
		DocumentType: "CPF",
		Type:         "individual",
	}
	if phone := validation.Digits(c.Phone); len(phone) >= 10 {
		phone = trimCountryCode(phone)
		out.Phones = &gateway.Phones{MobilePhone: &gateway.Phone{
			CountryCode: "55",
			AreaCode:    phone[:2],
			Number:      phone[2:],
		}}
	}
	return out
}

func trimCountryCode(phone string) string {
	if len(phone) > 11 && phone[:2] == "55" {
		return phone[2:]
	}
	return phone
}

// CardStrategy 信用卡，卡号由前端令牌化后只传 token
type CardStrategy struct {
	pagarmeBase
	statementDescriptor string
}

func NewCardStrategy(api GatewayAPI, statementDescriptor string) *CardStrategy {
	return &CardStrategy{pagarmeBase: pagarmeBase{api: api}, statementDescriptor: statementDescriptor}
}

func (s *CardStrategy) Method() model.Method { return model.MethodCreditCard }

func (s *CardStrategy) Pay(ctx context.Context, req PayRequest) (*PayResult, error) {
	if req.CardToken == "" {
		return nil, ErrMissingCardData
	}
	installments := req.Installments
	if installments <= 0 {
		installments = 1
	}
	return s.createOrder(ctx, req, gateway.PaymentRequest{
		PaymentMethod: "credit_card",
		CreditCard: &gateway.CreditCardPayment{
			Installments:        installments,
			StatementDescriptor: s.statementDescriptor,
			CardToken:           req.CardToken,
		},
	})
}

// PixStrategy 即时支付，返回二维码供顾客扫码
type PixStrategy struct {
	pagarmeBase
	expiresIn int
}

func NewPixStrategy(api GatewayAPI, expiresIn int) *PixStrategy {
	if expiresIn <= 0 {
		expiresIn = 3600
	}
	return &PixStrategy{pagarmeBase: pagarmeBase{api: api}, expiresIn: expiresIn}
}

func (s *PixStrategy) Method() model.Method { return model.MethodPix }

func (s *PixStrategy) Pay(ctx context.Context, req PayRequest) (*PayResult, error) {
	return s.createOrder(ctx, req, gateway.PaymentRequest{
		PaymentMethod: "pix",
		Pix:           &gateway.PixPayment{ExpiresIn: s.expiresIn},
	})
}

var (
	_ PaymentStrategy = (*CardStrategy)(nil)
	_ PaymentStrategy = (*PixStrategy)(nil)
)
