package gateway

import (
	"fmt"
	"food_delivery/internal/domain/payment/model"
)

var statusTable = map[string]model.Status{
	"paid":            model.StatusPaid,
	"overpaid":        model.StatusPaid,
	"pending":         model.StatusPending,
	"processing":      model.StatusPending,
	"underpaid":       model.StatusPending,
	"waiting_payment": model.StatusPending,
	"failed":          model.StatusDeclined,
	"not_authorized":  model.StatusDeclined,
	"with_error":      model.StatusDeclined,
	"canceled":        model.StatusCanceled,
	"voided":          model.StatusCanceled,
	"refunded":        model.StatusRefunded,
	"chargedback":     model.StatusRefunded,
}

// MapStatus 将网关状态翻译为支付状态，未知状态返回错误
func MapStatus(gatewayStatus string) (model.Status, error) {
	s, ok := statusTable[model.NormalizeGatewayStatus(gatewayStatus)]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownStatus, gatewayStatus)
	}
	return s, nil
}
