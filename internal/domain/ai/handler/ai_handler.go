package handler

import (
	"errors"
	"food_delivery/internal/domain/ai/service"
	dashservice "food_delivery/internal/domain/dashboard/service"
	storeservice "food_delivery/internal/domain/store/service"
	"food_delivery/internal/pkg/middleware"
	"food_delivery/pkg/logger"
	"food_delivery/pkg/response"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AIHandler struct {
	service service.AIService
}

func NewAIHandler(s service.AIService) *AIHandler {
	return &AIHandler{service: s}
}

// Describe 生成商品描述 (SSE)
// @Summary 生成商品描述
// @Description 以 text/event-stream 返回 delta 事件，结束时发送 done
// @Tags AI
// @Accept json
// @Produce text/event-stream
// @Security BearerAuth
// @Param id path string true "Store ID"
// @Param body body service.DescribeInput true "Product"
// @Router /ai/stores/{id}/describe [post]
func (h *AIHandler) Describe(c *gin.Context) {
	var in service.DescribeInput
	if err := c.ShouldBindJSON(&in); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	h.stream(c, func(onDelta func(string) error) error {
		return h.service.DescribeProduct(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), in, onDelta)
	})
}

// Insights 经营建议 (SSE)
// @Summary 经营建议
// @Tags AI
// @Produce text/event-stream
// @Security BearerAuth
// @Param id path string true "Store ID"
// @Param from query string false "YYYY-MM-DD"
// @Param to query string false "YYYY-MM-DD"
// @Router /ai/stores/{id}/insights [get]
func (h *AIHandler) Insights(c *gin.Context) {
	var q dashservice.RangeQuery
	_ = c.ShouldBindQuery(&q)
	h.stream(c, func(onDelta func(string) error) error {
		return h.service.Insights(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"), q, onDelta)
	})
}

// stream 首个增量到达前出错返回 JSON，之后以 error 事件结束
func (h *AIHandler) stream(c *gin.Context, run func(onDelta func(string) error) error) {
	started := false
	err := run(func(delta string) error {
		if !started {
			started = true
			c.Header("Content-Type", "text/event-stream")
			c.Header("Cache-Control", "no-cache")
			c.Header("Connection", "keep-alive")
			c.Header("X-Accel-Buffering", "no")
			c.Status(http.StatusOK)
		}
		c.SSEvent("delta", gin.H{"text": delta})
		c.Writer.Flush()
		return c.Request.Context().Err()
	})
	if started {
		if err != nil {
			logger.Log.Warn("ai stream interrupted", zap.Error(err))
			c.SSEvent("error", gin.H{"message": "stream interrupted"})
		} else {
			c.SSEvent("done", gin.H{})
		}
		c.Writer.Flush()
		return
	}
	if err == nil {
		// 模型没有返回内容
		c.Header("Content-Type", "text/event-stream")
		c.SSEvent("done", gin.H{})
		return
	}
	h.writeError(c, err)
}

func (h *AIHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrRateLimited):
		response.Error(c, http.StatusTooManyRequests, response.ErrTooManyRequests, err.Error())
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, dashservice.ErrInvalidRange):
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
	case errors.Is(err, storeservice.ErrForbidden), errors.Is(err, dashservice.ErrForbidden):
		response.Error(c, http.StatusForbidden, response.ErrNoPermission, err.Error())
	case errors.Is(err, storeservice.ErrStoreNotFound):
		response.Error(c, http.StatusNotFound, response.ErrStoreNotFound, err.Error())
	case errors.Is(err, service.ErrUnavailable):
		response.Error(c, http.StatusServiceUnavailable, response.ErrAIUnavailable, "AI assistant unavailable")
	default:
		logger.Log.Error("ai request failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Internal error")
	}
}
