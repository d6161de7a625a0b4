package handler

import (
	"errors"
	"food_delivery/internal/domain/dashboard/service"
	storeservice "food_delivery/internal/domain/store/service"
	"food_delivery/internal/pkg/middleware"
	"food_delivery/pkg/logger"
	"food_delivery/pkg/response"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type DashboardHandler struct {
	service service.DashboardService
}

func NewDashboardHandler(s service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: s}
}

// Platform 全平台报表
// @Summary 全平台报表
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param storeId query string false "Store ID"
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Success 200 {object} response.Response{data=service.Overview}
// @Router /admin/dashboard [get]
func (h *DashboardHandler) Platform(c *gin.Context) {
	h.overview(c, c.Query("storeId"))
}

// Store 门店报表
// @Summary 门店报表
// @Tags Owner
// @Produce json
// @Security BearerAuth
// @Param id path string true "Store ID"
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Success 200 {object} response.Response{data=service.Overview}
// @Router /owner/stores/{id}/dashboard [get]
func (h *DashboardHandler) Store(c *gin.Context) {
	h.overview(c, c.Param("id"))
}

func (h *DashboardHandler) overview(c *gin.Context, storeID string) {
	var q service.RangeQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	out, err := h.service.Overview(c.Request.Context(), middleware.CurrentActor(c), storeID, q)
	switch {
	case err == nil:
		response.Success(c, out)
	case errors.Is(err, service.ErrInvalidRange):
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
	case errors.Is(err, service.ErrForbidden), errors.Is(err, storeservice.ErrForbidden):
		response.Error(c, http.StatusForbidden, response.ErrNoPermission, err.Error())
	case errors.Is(err, storeservice.ErrStoreNotFound):
		response.Error(c, http.StatusNotFound, response.ErrStoreNotFound, err.Error())
	default:
		logger.Log.Error("dashboard query failed", zap.String("store_id", storeID), zap.Error(err))
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Internal error")
	}
}
