package handler

import (
	"errors"
	"food_delivery/internal/domain/coupon/service"
	"food_delivery/internal/pkg/middleware"
	"food_delivery/pkg/logger"
	"food_delivery/pkg/response"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type CouponHandler struct {
	service service.CouponService
}

func NewCouponHandler(service service.CouponService) *CouponHandler {
	return &CouponHandler{service: service}
}

// CreateCoupon 创建优惠券
// @Summary 创建优惠券
// @Tags Coupon
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.CreateInput true "Coupon"
// @Success 201 {object} response.Response{data=model.Coupon}
// @Router /coupons [post]
func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	var input service.CreateInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	coupon, err := h.service.CreateCoupon(c.Request.Context(), input)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Created(c, coupon)
}

// ListCoupons 可领取的优惠券
// @Summary 可领取的优惠券
// @Tags Coupon
// @Produce json
// @Success 200 {object} response.Response{data=[]model.Coupon}
// @Router /coupons [get]
func (h *CouponHandler) ListCoupons(c *gin.Context) {
	coupons, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, coupons)
}

// ClaimCoupon 抢券
// @Summary 领取优惠券
// @Tags Coupon
// @Produce json
// @Security BearerAuth
// @Param id path string true "Coupon ID"
// @Success 200 {object} response.Response
// @Router /coupons/{id}/claim [post]
func (h *CouponHandler) ClaimCoupon(c *gin.Context) {
	if err := h.service.ClaimCoupon(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id")); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, "Coupon claimed successfully")
}

// ListMine 我的优惠券
// @Summary 我的优惠券
// @Tags Coupon
// @Produce json
// @Security BearerAuth
// @Param status query int false "1 unused, 2 used, 3 expired"
// @Success 200 {object} response.Response{data=[]model.UserCoupon}
// @Router /coupons/mine [get]
func (h *CouponHandler) ListMine(c *gin.Context) {
	status, _ := strconv.Atoi(c.Query("status"))
	list, err := h.service.ListMine(c.Request.Context(), middleware.CurrentUserID(c), status)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, list)
}

// SendCouponInput 管理员发券输入
type SendCouponInput struct {
	UserID   string `json:"userId" binding:"required,uuid"`
	CouponID string `json:"couponId" binding:"required,uuid"`
}

// SendCoupon 管理员给指定用户发券
// @Summary 给用户发券
// @Tags Coupon
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SendCouponInput true "Target"
// @Success 200 {object} response.Response
// @Router /coupons/send [post]
func (h *CouponHandler) SendCoupon(c *gin.Context) {
	var input SendCouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	if err := h.service.SendCouponToUser(c.Request.Context(), input.UserID, input.CouponID); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, "Coupon sent to user successfully")
}

func (h *CouponHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrOutOfStock):
		response.Fail(c, response.ErrCouponOutOfStock, "Coupon out of stock")
	case errors.Is(err, service.ErrAlreadyClaimed):
		response.Fail(c, response.ErrCouponClaimed, err.Error())
	case errors.Is(err, service.ErrCouponNotFound):
		response.Error(c, http.StatusNotFound, response.ErrCouponNotFound, err.Error())
	case errors.Is(err, service.ErrCouponNotActive), errors.Is(err, service.ErrCouponNotUsable):
		response.Fail(c, response.ErrCouponInvalid, err.Error())
	case errors.Is(err, service.ErrInvalidCouponArg):
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
	default:
		logger.Log.Error("coupon request failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Internal error")
	}
}
