package handler

import (
	"errors"
	"food_delivery/internal/domain/notification/service"
	"food_delivery/internal/pkg/middleware"
	"food_delivery/pkg/logger"
	"food_delivery/pkg/response"
	"food_delivery/pkg/utils"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type NotificationHandler struct {
	service service.NotificationService
}

func NewNotificationHandler(s service.NotificationService) *NotificationHandler {
	return &NotificationHandler{service: s}
}

type listQuery struct {
	utils.Pagination
	Unread bool `form:"unread"`
}

// List 通知列表
// @Summary 通知列表
// @Tags Notification
// @Produce json
// @Security BearerAuth
// @Param unread query bool false "Only unread"
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	var q listQuery
	_ = c.ShouldBindQuery(&q)

	page, err := h.service.List(c.Request.Context(), middleware.CurrentUserID(c), q.Unread, q.Pagination)
	if err != nil {
		h.internal(c, err)
		return
	}
	response.Success(c, page)
}

// UnreadCount 未读数量
// @Summary 未读数量
// @Tags Notification
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=map[string]int64}
// @Router /notifications/unread-count [get]
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	n, err := h.service.UnreadCount(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		h.internal(c, err)
		return
	}
	response.Success(c, gin.H{"unread": n})
}

// MarkRead 标记已读
// @Summary 标记已读
// @Tags Notification
// @Security BearerAuth
// @Param id path string true "Notification ID"
// @Success 200 {object} response.Response
// @Router /notifications/{id}/read [put]
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	err := h.service.MarkRead(c.Request.Context(), middleware.CurrentUserID(c), c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrNotificationNotFound) {
			response.Error(c, http.StatusNotFound, response.ErrNotificationNotFound, err.Error())
			return
		}
		h.internal(c, err)
		return
	}
	response.Success(c, true)
}

// MarkAllRead 全部已读
// @Summary 全部已读
// @Tags Notification
// @Security BearerAuth
// @Success 200 {object} response.Response{data=map[string]int64}
// @Router /notifications/read-all [put]
func (h *NotificationHandler) MarkAllRead(c *gin.Context) {
	n, err := h.service.MarkAllRead(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		h.internal(c, err)
		return
	}
	response.Success(c, gin.H{"updated": n})
}

// MarkViewed 清除角标
// @Summary 标记已查看
// @Tags Notification
// @Security BearerAuth
// @Success 200 {object} response.Response{data=map[string]int64}
// @Router /notifications/viewed [put]
func (h *NotificationHandler) MarkViewed(c *gin.Context) {
	n, err := h.service.MarkViewed(c.Request.Context(), middleware.CurrentUserID(c))
	if err != nil {
		h.internal(c, err)
		return
	}
	response.Success(c, gin.H{"updated": n})
}

func (h *NotificationHandler) internal(c *gin.Context, err error) {
	logger.Log.Error("notification request failed", zap.Error(err))
	response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Internal error")
}
