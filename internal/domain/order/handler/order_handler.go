package handler

import (
	"errors"
	couponrepo "food_delivery/internal/domain/coupon/repository"
	couponservice "food_delivery/internal/domain/coupon/service"
	ordermodel "food_delivery/internal/domain/order/model"
	"food_delivery/internal/domain/order/service"
	storeservice "food_delivery/internal/domain/store/service"
	"food_delivery/internal/pkg/middleware"
	"food_delivery/pkg/logger"
	"food_delivery/pkg/money"
	"food_delivery/pkg/response"
	"food_delivery/pkg/utils"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type OrderHandler struct {
	service service.OrderService
}

func NewOrderHandler(s service.OrderService) *OrderHandler {
	return &OrderHandler{service: s}
}

type StatusInput struct {
	Status ordermodel.Status `json:"status" binding:"required"`
}

// Place 下单
// @Summary 下单
// @Tags Order
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.PlaceInput true "Order"
// @Success 201 {object} response.Response{data=model.Order}
// @Router /orders [post]
func (h *OrderHandler) Place(c *gin.Context) {
	var in service.PlaceInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	order, err := h.service.Place(c.Request.Context(), middleware.CurrentUserID(c), in)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Created(c, order)
}

// ListMine 我的订单
// @Summary 我的订单
// @Tags Order
// @Produce json
// @Security BearerAuth
// @Param status query string false "Comma separated statuses"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /orders [get]
func (h *OrderHandler) ListMine(c *gin.Context) {
	var q service.ListQuery
	_ = c.ShouldBindQuery(&q)
	orders, total, err := h.service.ListMine(c.Request.Context(), middleware.CurrentUserID(c), q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, utils.NewPageResult(orders, total, q.Pagination))
}

// Get 订单详情
// @Summary 订单详情
// @Tags Order
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Success 200 {object} response.Response{data=model.Order}
// @Router /orders/{id} [get]
func (h *OrderHandler) Get(c *gin.Context) {
	order, err := h.service.Get(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, order)
}

// ListStoreOrders 门店订单队列
// @Summary 门店订单队列
// @Tags Owner
// @Produce json
// @Security BearerAuth
// @Param id path string true "Store ID"
// @Param status query string false "Comma separated statuses"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /owner/stores/{id}/orders [get]
func (h *OrderHandler) ListStoreOrders(c *gin.Context) {
	var q service.ListQuery
	_ = c.ShouldBindQuery(&q)
	orders, total, err := h.service.ListStoreOrders(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), q)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, utils.NewPageResult(orders, total, q.Pagination))
}

// UpdateStatus 更新出餐进度
// @Summary 更新订单进度
// @Tags Owner
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Order ID"
// @Param body body StatusInput true "preparing | ready | delivering | delivered"
// @Success 200 {object} response.Response{data=model.Order}
// @Router /owner/orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	var in StatusInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	order, err := h.service.UpdateKitchenStatus(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), in.Status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, order)
}

func (h *OrderHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOrderNotFound):
		response.Error(c, http.StatusNotFound, response.ErrOrderNotFound, err.Error())
	case errors.Is(err, storeservice.ErrStoreNotFound):
		response.Error(c, http.StatusNotFound, response.ErrStoreNotFound, err.Error())
	case errors.Is(err, storeservice.ErrForbidden):
		response.Error(c, http.StatusForbidden, response.ErrNoPermission, err.Error())
	case errors.Is(err, service.ErrStoreClosed):
		response.Error(c, http.StatusConflict, response.ErrStoreClosed, err.Error())
	case errors.Is(err, service.ErrBelowMinimum):
		response.Error(c, http.StatusUnprocessableEntity, response.ErrOrderBelowMinimum, err.Error())
	case errors.Is(err, service.ErrProductUnavailable):
		response.Error(c, http.StatusUnprocessableEntity, response.ErrProductNotFound, err.Error())
	case errors.Is(err, service.ErrEmptyOrder), errors.Is(err, service.ErrInvalidStatus), errors.Is(err, money.ErrNegativeAmount):
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
	case errors.Is(err, service.ErrIllegalTransition):
		response.Error(c, http.StatusConflict, response.ErrOrderIllegalTransition, err.Error())
	case errors.Is(err, couponservice.ErrCouponNotFound):
		response.Error(c, http.StatusNotFound, response.ErrCouponNotFound, err.Error())
	case errors.Is(err, couponservice.ErrCouponNotActive), errors.Is(err, couponservice.ErrCouponNotUsable),
		errors.Is(err, couponrepo.ErrCouponUnavailable):
		response.Error(c, http.StatusUnprocessableEntity, response.ErrCouponInvalid, err.Error())
	default:
		logger.Log.Error("order request failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Internal error")
	}
}
