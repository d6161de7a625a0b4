package model

import (
	ordermodel "food_delivery/internal/domain/order/model"
	basemodel "food_delivery/pkg/model"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Status 支付状态
type Status string

const (
	StatusPending  Status = "PENDING"
	StatusPaid     Status = "PAID"
	StatusDeclined Status = "DECLINED"
	StatusCanceled Status = "CANCELED"
	StatusRefunded Status = "REFUNDED"
)

// Method 支付方式
type Method string

const (
	MethodCreditCard Method = "CREDIT_CARD"
	MethodPix        Method = "PIX"
	MethodAlipay     Method = "ALIPAY"
	MethodWechatPay  Method = "WECHAT_PAY"
)

// 支付渠道
const (
	ProviderPagarme = "pagarme"
	ProviderAlipay  = "alipay"
	ProviderWechat  = "wechat"
)

var transitions = map[Status][]Status{
	StatusPending:  {StatusPaid, StatusDeclined, StatusCanceled},
	StatusPaid:     {StatusRefunded},
	StatusDeclined: nil,
	StatusCanceled: nil,
	StatusRefunded: nil,
}

var labels = map[Status]string{
	StatusPending:  "Pendente",
	StatusPaid:     "Aprovado",
	StatusDeclined: "Recusado",
	StatusCanceled: "Cancelado",
	StatusRefunded: "Estornado",
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s Status) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}

// Active 未失败的支付，一个订单最多一笔
func (s Status) Active() bool {
	return s.Valid() && s != StatusDeclined && s != StatusCanceled
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NormalizeGatewayStatus 网关状态统一去空白并转小写
func NormalizeGatewayStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// OrderTarget 支付状态对应的订单目标状态；ok=false 表示订单不变
func OrderTarget(status Status, gatewayStatus string) (ordermodel.Status, bool) {
	switch status {
	case StatusPaid:
		return ordermodel.StatusPaid, true
	case StatusPending:
		if NormalizeGatewayStatus(gatewayStatus) == "processing" {
			return ordermodel.StatusProcessing, true
		}
		return "", false
	case StatusCanceled:
		return ordermodel.StatusCancelled, true
	case StatusRefunded:
		return ordermodel.StatusRefunded, true
	default:
		// DECLINED: 顾客可以换卡重试
		return "", false
	}
}

func (m Method) Valid() bool {
	switch m {
	case MethodCreditCard, MethodPix, MethodAlipay, MethodWechatPay:
		return true
	}
	return false
}

// Payment 支付记录，原始网关响应保存在 RawResponse
type Payment struct {
	basemodel.Timestamps
	OrderID       string          `gorm:"type:uuid;index;not null" json:"orderId"`
	UserID        string          `gorm:"type:uuid;index;not null" json:"userId"`
	Provider      string          `gorm:"size:20;not null" json:"provider"`
	ProviderID    string          `gorm:"size:64;index" json:"providerId,omitempty"`
	ChargeID      string          `gorm:"size:64;index" json:"chargeId,omitempty"`
	Amount        decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"amount"`
	Status        Status          `gorm:"type:varchar(20);index;not null" json:"status"`
	StatusLabel   string          `gorm:"-" json:"statusLabel"`
	Method        Method          `gorm:"column:payment_method;type:varchar(20);not null" json:"paymentMethod"`
	GatewayStatus string          `gorm:"size:32" json:"gatewayStatus,omitempty"`
	RawResponse   datatypes.JSON  `json:"-"`
	PixQRCode     string          `gorm:"type:text" json:"pixQrCode,omitempty"`
	PixQRCodeURL  string          `gorm:"size:512" json:"pixQrCodeUrl,omitempty"`
	PixExpiresAt  *time.Time      `json:"pixExpiresAt,omitempty"`
	CardBrand     string          `gorm:"size:20" json:"cardBrand,omitempty"`
	CardLastFour  string          `gorm:"size:4" json:"cardLastFour,omitempty"`
	PayParams     string          `gorm:"type:text" json:"payParams,omitempty"`
	FailureReason string          `gorm:"size:255" json:"failureReason,omitempty"`
	PaidAt        *time.Time      `json:"paidAt,omitempty"`
}

func (Payment) TableName() string { return "payments" }

func (p *Payment) AfterFind(tx *gorm.DB) error {
	p.StatusLabel = p.Status.Label()
	return nil
}

func (p *Payment) AfterCreate(tx *gorm.DB) error {
	p.StatusLabel = p.Status.Label()
	return nil
}

// 回调事件处理状态
const (
	WebhookReceived     = "received"
	WebhookHandled      = "handled"
	WebhookHandleFailed = "handle_failed"
	WebhookSkipped      = "skipped"
)

// WebhookEvent 回调去重记录，(provider, event_id) 唯一
type WebhookEvent struct {
	basemodel.Timestamps
	Provider    string         `gorm:"size:20;not null;uniqueIndex:idx_webhook_provider_event" json:"provider"`
	EventID     string         `gorm:"size:128;not null;uniqueIndex:idx_webhook_provider_event" json:"eventId"`
	EventType   string         `gorm:"size:64" json:"eventType"`
	Status      string         `gorm:"size:20;not null" json:"status"`
	Payload     datatypes.JSON `json:"payload"`
	Error       string         `gorm:"type:text" json:"error,omitempty"`
	ProcessedAt *time.Time     `json:"processedAt,omitempty"`
}

func (WebhookEvent) TableName() string { return "webhook_events" }
