package model

// Status 订单状态
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusPaid       Status = "paid"
	StatusPreparing  Status = "preparing"
	StatusReady      Status = "ready"
	StatusDelivering Status = "delivering"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusRefunded   Status = "refunded"
)

// 只允许向前流转
var transitions = map[Status][]Status{
	StatusPending:    {StatusProcessing, StatusPaid, StatusCancelled},
	StatusProcessing: {StatusPaid, StatusCancelled},
	StatusPaid:       {StatusPreparing, StatusCancelled, StatusRefunded},
	StatusPreparing:  {StatusReady, StatusRefunded},
	StatusReady:      {StatusDelivering, StatusRefunded},
	StatusDelivering: {StatusDelivered, StatusRefunded},
	StatusDelivered:  {StatusRefunded},
	StatusCancelled:  nil,
	StatusRefunded:   nil,
}

var labels = map[Status]string{
	StatusPending:    "Aguardando pagamento",
	StatusProcessing: "Processando pagamento",
	StatusPaid:       "Pago",
	StatusPreparing:  "Em preparo",
	StatusReady:      "Pronto",
	StatusDelivering: "Saiu para entrega",
	StatusDelivered:  "Entregue",
	StatusCancelled:  "Cancelado",
	StatusRefunded:   "Reembolsado",
}

// AllStatuses 按生命周期排序
var AllStatuses = []Status{
	StatusPending, StatusProcessing, StatusPaid, StatusPreparing, StatusReady,
	StatusDelivering, StatusDelivered, StatusCancelled, StatusRefunded,
}

func (s Status) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Label 状态徽标文案 (pt-BR)
func (s Status) Label() string {
	if l, ok := labels[s]; ok {
		return l
	}
	return string(s)
}

func (s Status) IsTerminal() bool {
	return s.Valid() && len(transitions[s]) == 0
}

// AwaitingPayment 支付确认之前，顾客可自行取消
func (s Status) AwaitingPayment() bool {
	return s == StatusPending || s == StatusProcessing
}

// CanTransition 状态流转是否合法，相同状态视为不合法
func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Predecessors 可以流转到 to 的所有状态，用于条件更新
func Predecessors(to Status) []Status {
	var out []Status
	for _, from := range AllStatuses {
		if CanTransition(from, to) {
			out = append(out, from)
		}
	}
	return out
}

// KitchenStatuses 商家可以手动推进的状态
var KitchenStatuses = []Status{StatusPreparing, StatusReady, StatusDelivering, StatusDelivered}

func IsKitchenStatus(s Status) bool {
	for _, k := range KitchenStatuses {
		if k == s {
			return true
		}
	}
	return false
}
