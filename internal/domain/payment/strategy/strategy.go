// Package strategy adapts each payment method to a common Pay/Cancel/Query contract.
package strategy

import (
	"context"
	"errors"
	ordermodel "food_delivery/internal/domain/order/model"
	"food_delivery/internal/domain/payment/model"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

var (
	ErrNotSupported    = errors.New("operation not supported by payment provider")
	ErrMissingCardData = errors.New("card token is required")
	ErrUnknownPayment  = errors.New("notification does not reference a known payment")
	// ErrMalformedNotify 签名通过但正文无法解析
	ErrMalformedNotify = errors.New("malformed payment notification")
)

// Customer 付款人信息，Document 为 CPF 数字
type Customer struct {
	Name     string
	Email    string
	Document string
	Phone    string
}

type PayRequest struct {
	Payment      *model.Payment
	Order        *ordermodel.Order
	Customer     Customer
	CardToken    string
	Installments int
	Subject      string
}

// PayResult 渠道返回的支付状态与展示数据
type PayResult struct {
	ProviderID    string
	ChargeID      string
	GatewayStatus string
	Status        model.Status
	Raw           datatypes.JSON
	PixQRCode     string
	PixQRCodeURL  string
	PixExpiresAt  *time.Time
	CardBrand     string
	CardLastFour  string
	PayParams     string
	FailureReason string
}

type PaymentStrategy interface {
	Method() model.Method
	Provider() string
	// Pay 发起支付
	Pay(ctx context.Context, req PayRequest) (*PayResult, error)
	// Cancel 未结算时取消，已结算时退款
	Cancel(ctx context.Context, p *model.Payment) (*PayResult, error)
	// Query 主动查询渠道侧状态
	Query(ctx context.Context, p *model.Payment) (*PayResult, error)
}

// Notification 已验签的渠道回调
type Notification struct {
	EventID       string
	EventType     string
	PaymentID     string // 钱包渠道通过 out_trade_no 回传
	ProviderID    string
	ChargeID      string
	GatewayStatus string
	Status        model.Status
	Raw           datatypes.JSON
	// Ignored 与支付状态无关的事件，只需确认
	Ignored bool
}

type NotifyParser interface {
	Provider() string
	ParseNotify(r *http.Request) (*Notification, error)
}

// OutTradeNo 钱包渠道的商户单号：去掉连字符的支付 ID
func OutTradeNo(paymentID string) string {
	return strings.ReplaceAll(paymentID, "-", "")
}

// PaymentIDFromOutTradeNo OutTradeNo 的逆操作
func PaymentIDFromOutTradeNo(outTradeNo string) (string, error) {
	id, err := uuid.Parse(outTradeNo)
	if err != nil {
		return "", ErrUnknownPayment
	}
	return id.String(), nil
}
