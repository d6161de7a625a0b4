package response

// 业务状态码
const (
	CodeSuccess = 0
	CodeError   = 1

	// 用户模块错误 100xx
	ErrUserExists   = 10001
	ErrUserNotFound = 10002
	ErrAuthFailed   = 10003
	ErrTokenInvalid = 10004
	ErrNoPermission = 10005

	// 优惠券模块错误 200xx
	ErrCouponNotFound   = 20001
	ErrCouponOutOfStock = 20002
	ErrCouponClaimed    = 20003
	ErrCouponInvalid    = 20004

	// 门店/商品错误 300xx
	ErrStoreNotFound   = 30001
	ErrProductNotFound = 30002
	ErrStoreClosed     = 30003

	// 订单错误 400xx
	ErrOrderNotFound          = 40001
	ErrOrderInvalidState      = 40002
	ErrOrderBelowMinimum      = 40003
	ErrOrderIllegalTransition = 40004

	// 支付错误 450xx
	ErrPaymentNotFound  = 45001
	ErrPaymentDeclined  = 45002
	ErrPaymentExists    = 45003
	ErrPaymentGateway   = 45004
	ErrPaymentMethod    = 45005
	ErrWebhookSignature = 45006

	// 通知错误 460xx
	ErrNotificationNotFound = 46001

	// AI 错误 470xx
	ErrAIUnavailable = 47001

	// 系统错误 500xx
	ErrServerInternal  = 50001
	ErrInvalidParam    = 50002
	ErrTooManyRequests = 50003
)
