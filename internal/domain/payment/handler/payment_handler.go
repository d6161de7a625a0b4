package handler

import (
	"errors"
	"food_delivery/internal/domain/payment/model"
	"food_delivery/internal/domain/payment/service"
	"food_delivery/internal/domain/payment/strategy"
	storeservice "food_delivery/internal/domain/store/service"
	"food_delivery/internal/pkg/middleware"
	"food_delivery/pkg/logger"
	"food_delivery/pkg/response"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type PaymentHandler struct {
	service service.PaymentService
}

func NewPaymentHandler(s service.PaymentService) *PaymentHandler {
	return &PaymentHandler{service: s}
}

// Methods 可用支付方式
// @Summary 可用支付方式
// @Tags Payment
// @Produce json
// @Success 200 {object} response.Response{data=[]string}
// @Router /payment/methods [get]
func (h *PaymentHandler) Methods(c *gin.Context) {
	methods := h.service.Methods()
	if methods == nil {
		methods = []model.Method{}
	}
	response.Success(c, methods)
}

// Tokenize 卡片令牌化
// @Summary 卡片令牌化
// @Description 卡号不落库，只返回网关令牌
// @Tags Payment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.TokenizeInput true "Card"
// @Success 200 {object} response.Response{data=service.TokenResult}
// @Router /payment/tokenize [post]
func (h *PaymentHandler) Tokenize(c *gin.Context) {
	var in service.TokenizeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	tok, err := h.service.Tokenize(c.Request.Context(), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, tok)
}

// Checkout 发起支付
// @Summary 发起支付
// @Tags Payment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.CheckoutInput true "Checkout"
// @Success 201 {object} response.Response{data=model.Payment}
// @Router /payment/checkout [post]
func (h *PaymentHandler) Checkout(c *gin.Context) {
	var in service.CheckoutInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	if !in.Method.Valid() {
		response.Error(c, http.StatusBadRequest, response.ErrPaymentMethod, "unknown payment method")
		return
	}
	p, err := h.service.Checkout(c.Request.Context(), middleware.CurrentUserID(c), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Created(c, p)
}

// GetForOrder 订单的最新支付
// @Summary 查询订单支付
// @Tags Payment
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} response.Response{data=model.Payment}
// @Router /payment/orders/{id} [get]
func (h *PaymentHandler) GetForOrder(c *gin.Context) {
	p, err := h.service.GetForOrder(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, p)
}

// Cancel 取消订单
// @Summary 取消订单
// @Description 顾客仅可在支付确认前取消；商家取消已支付订单会发起退款
// @Tags Payment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param body body service.CancelInput false "Reason"
// @Success 200 {object} response.Response{data=object}
// @Router /payment/orders/{id}/cancel [post]
func (h *PaymentHandler) Cancel(c *gin.Context) {
	var in service.CancelInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&in); err != nil {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
			return
		}
	}
	order, err := h.service.CancelOrder(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), in.Reason)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, order)
}

// Refund 退款
// @Summary 退款
// @Tags Payment
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} response.Response{data=model.Payment}
// @Router /payment/orders/{id}/refund [post]
func (h *PaymentHandler) Refund(c *gin.Context) {
	p, err := h.service.Refund(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, p)
}

// GatewayWebhook 卡/PIX 网关回调
// @Summary 网关回调
// @Tags Payment
// @Accept json
// @Param X-Hub-Signature header string true "HMAC-SHA256 signature"
// @Success 200 {object} response.Response
// @Router /payment/webhook/pagarme [post]
func (h *PaymentHandler) GatewayWebhook(c *gin.Context) {
	err := h.service.HandleNotify(c.Request.Context(), model.ProviderPagarme, c.Request)
	switch {
	case err == nil:
		response.Success(c, gin.H{"received": true})
	case errors.Is(err, service.ErrInvalidSignature):
		response.Error(c, http.StatusUnauthorized, response.ErrWebhookSignature, "invalid signature")
	case errors.Is(err, service.ErrMalformedNotify):
		logger.Log.Warn("gateway webhook payload rejected", zap.Error(err))
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "malformed payload")
	default:
		// 非 2xx 网关会重试
		logger.Log.Error("gateway webhook failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Internal error")
	}
}

// AlipayNotify 支付宝回调
// @Summary 支付宝回调
// @Tags Payment
// @Router /payment/notify/alipay [post]
func (h *PaymentHandler) AlipayNotify(c *gin.Context) {
	// 支付宝回调是 POST Form 格式，返回 fail 会重试
	if err := h.service.HandleNotify(c.Request.Context(), model.ProviderAlipay, c.Request); err != nil {
		logger.Log.Warn("alipay notify failed", zap.Error(err))
		c.String(http.StatusOK, "fail")
		return
	}
	c.String(http.StatusOK, "success")
}

// WechatNotify 微信支付回调
// @Summary 微信支付回调
// @Tags Payment
// @Router /payment/notify/wechat [post]
func (h *PaymentHandler) WechatNotify(c *gin.Context) {
	if err := h.service.HandleNotify(c.Request.Context(), model.ProviderWechat, c.Request); err != nil {
		logger.Log.Warn("wechat notify failed", zap.Error(err))
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, service.ErrInvalidSignature):
			status = http.StatusUnauthorized
		case errors.Is(err, service.ErrMalformedNotify):
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"code": "FAIL", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"code": "SUCCESS", "message": "成功"})
}

func (h *PaymentHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		response.Error(c, http.StatusNotFound, response.ErrOrderNotFound, err.Error())
	case errors.Is(err, service.ErrPaymentNotFound):
		response.Error(c, http.StatusNotFound, response.ErrPaymentNotFound, err.Error())
	case errors.Is(err, service.ErrForbidden), errors.Is(err, storeservice.ErrForbidden):
		response.Error(c, http.StatusForbidden, response.ErrNoPermission, err.Error())
	case errors.Is(err, service.ErrOrderNotPayable), errors.Is(err, service.ErrCannotCancel):
		response.Error(c, http.StatusConflict, response.ErrOrderInvalidState, err.Error())
	case errors.Is(err, service.ErrPaymentExists):
		response.Error(c, http.StatusConflict, response.ErrPaymentExists, err.Error())
	case errors.Is(err, service.ErrNotRefundable):
		response.Error(c, http.StatusConflict, response.ErrPaymentDeclined, err.Error())
	case errors.Is(err, service.ErrMethodUnavailable):
		response.Error(c, http.StatusUnprocessableEntity, response.ErrPaymentMethod, err.Error())
	case errors.Is(err, strategy.ErrMissingCardData):
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
	case errors.Is(err, service.ErrGateway):
		logger.Log.Warn("payment gateway error", zap.Error(err))
		response.Error(c, http.StatusBadGateway, response.ErrPaymentGateway, "payment gateway unavailable")
	default:
		logger.Log.Error("payment request failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Internal error")
	}
}
