package strategy

import (
	"errors"
	"fmt"
	"food_delivery/internal/domain/payment/gateway"
	"food_delivery/internal/domain/payment/model"
	"io"
	"net/http"
)

const maxWebhookBody = 1 << 20

// PagarmeNotifyParser 校验 HMAC 签名并解析网关回调
type PagarmeNotifyParser struct {
	secret string
}

func NewPagarmeNotifyParser(secret string) *PagarmeNotifyParser {
	return &PagarmeNotifyParser{secret: secret}
}

func (p *PagarmeNotifyParser) Provider() string { return model.ProviderPagarme }

func (p *PagarmeNotifyParser) ParseNotify(r *http.Request) (*Notification, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrMalformedNotify, err)
	}
	if err := gateway.VerifySignature(p.secret, body, r.Header.Get(gateway.SignatureHeader)); err != nil {
		return nil, err
	}

	ev, change, err := gateway.ParseWebhook(body)
	if errors.Is(err, gateway.ErrUnsupportedEvent) {
		return &Notification{EventID: ev.ID, EventType: ev.Type, Raw: body, Ignored: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedNotify, err)
	}

	n := &Notification{
		EventID:       ev.ID,
		EventType:     ev.Type,
		ProviderID:    change.OrderID,
		ChargeID:      change.ChargeID,
		GatewayStatus: change.GatewayStatus,
		Raw:           body,
	}
	if n.Status, err = gateway.MapStatus(change.GatewayStatus); err != nil {
		// 未知状态只记录，不让网关无限重试
		n.Ignored = true
	}
	return n, nil
}

var _ NotifyParser = (*PagarmeNotifyParser)(nil)
