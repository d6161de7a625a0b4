package gateway

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInvalidSignature = errors.New("invalid webhook signature")
	ErrUnsupportedEvent = errors.New("unsupported webhook event")
)

// SignatureHeader 携带 "sha256=<hex>" 形式的 HMAC
const SignatureHeader = "X-Hub-Signature"

// Sign 计算回调正文的签名头
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature 常量时间比较签名；secret 为空时拒绝所有请求
func VerifySignature(secret string, body []byte, header string) error {
	if secret == "" {
		return ErrInvalidSignature
	}
	sig := strings.TrimSpace(header)
	sig = strings.TrimPrefix(sig, "sha256=")
	got, err := hex.DecodeString(sig)
	if err != nil || len(got) == 0 {
		return ErrInvalidSignature
	}
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	if !hmac.Equal(got, mac.Sum(nil)) {
		return ErrInvalidSignature
	}
	return nil
}

// WebhookEvent 回调正文 {id, type, data}
type WebhookEvent struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	CreatedAt string          `json:"created_at"`
	Data      json.RawMessage `json:"data"`
}

// StatusChange 从回调中解析出的网关订单状态
type StatusChange struct {
	OrderID       string
	ChargeID      string
	GatewayStatus string
	Transaction   *Transaction
}

// ParseWebhook 解析 order.* 与 charge.* 事件
func ParseWebhook(body []byte) (*WebhookEvent, *StatusChange, error) {
	var ev WebhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return nil, nil, fmt.Errorf("decode webhook: %w", err)
	}
	if ev.ID == "" || ev.Type == "" {
		return nil, nil, errors.New("webhook missing id or type")
	}

	switch {
	case strings.HasPrefix(ev.Type, "order."):
		var o Order
		if err := json.Unmarshal(ev.Data, &o); err != nil {
			return &ev, nil, fmt.Errorf("decode order: %w", err)
		}
		change := &StatusChange{OrderID: o.ID, GatewayStatus: o.EffectiveStatus()}
		if ch := o.Charge(); ch != nil {
			change.ChargeID = ch.ID
			change.Transaction = ch.LastTransaction
		}
		return &ev, change, nil
	case strings.HasPrefix(ev.Type, "charge."):
		var ch Charge
		if err := json.Unmarshal(ev.Data, &ch); err != nil {
			return &ev, nil, fmt.Errorf("decode charge: %w", err)
		}
		change := &StatusChange{ChargeID: ch.ID, GatewayStatus: ch.Status, Transaction: ch.LastTransaction}
		if ch.Order != nil {
			change.OrderID = ch.Order.ID
		}
		return &ev, change, nil
	}
	return &ev, nil, fmt.Errorf("%w: %s", ErrUnsupportedEvent, ev.Type)
}
