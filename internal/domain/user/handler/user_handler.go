package handler

import (
	"errors"
	"food_delivery/internal/domain/user/service"
	"food_delivery/internal/pkg/middleware"
	"food_delivery/internal/pkg/otp"
	"food_delivery/internal/pkg/validation"
	"food_delivery/pkg/logger"
	"food_delivery/pkg/response"
	"food_delivery/pkg/utils"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// UserHandler 用户处理器
type UserHandler struct {
	service service.UserService
}

func NewUserHandler(service service.UserService) *UserHandler {
	return &UserHandler{service: service}
}

type SendOTPInput struct {
	Mobile string `json:"mobile" binding:"required,br_mobile"`
}

type LoginInput struct {
	Mobile string `json:"mobile" binding:"required,br_mobile"`
	Code   string `json:"code" binding:"required,len=6,numeric"`
}

type RoleInput struct {
	Role int `json:"role" binding:"required"`
}

type BanInput struct {
	// 为空表示永久封禁
	Until *time.Time `json:"until"`
}

// SendOTP 发送验证码
// @Summary 发送登录验证码
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body SendOTPInput true "Mobile"
// @Success 200 {object} response.Response
// @Router /auth/otp [post]
func (h *UserHandler) SendOTP(c *gin.Context) {
	var input SendOTPInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	if err := h.service.SendOTP(c.Request.Context(), validation.Digits(input.Mobile)); err != nil {
		if errors.Is(err, otp.ErrTooFrequent) {
			response.Error(c, http.StatusTooManyRequests, response.ErrTooManyRequests, err.Error())
			return
		}
		logger.Log.Error("send otp failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Failed to send code")
		return
	}
	response.Success(c, nil)
}

// LoginOrRegister 验证码登录/注册
// @Summary 验证码登录 (首次自动注册)
// @Tags Auth
// @Accept json
// @Produce json
// @Param body body LoginInput true "Credentials"
// @Success 200 {object} response.Response{data=service.LoginResult}
// @Router /auth/login [post]
func (h *UserHandler) LoginOrRegister(c *gin.Context) {
	var input LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	result, err := h.service.LoginOrRegister(c.Request.Context(), validation.Digits(input.Mobile), input.Code)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCode):
			response.Error(c, http.StatusUnauthorized, response.ErrAuthFailed, err.Error())
		case errors.Is(err, service.ErrUserBanned), errors.Is(err, service.ErrUserDeleted):
			response.Error(c, http.StatusForbidden, response.ErrNoPermission, err.Error())
		default:
			logger.Log.Error("login failed", zap.Error(err))
			response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Login failed")
		}
		return
	}
	response.Success(c, result)
}

// GetMe 当前用户资料
// @Summary 当前用户资料
// @Tags User
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=model.User}
// @Router /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	h.writeUser(c, middleware.CurrentUserID(c))
}

// UpdateMe 更新当前用户资料
// @Summary 更新资料
// @Tags User
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body service.ProfileInput true "Profile"
// @Success 200 {object} response.Response{data=model.User}
// @Router /users/me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var input service.ProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	user, err := h.service.UpdateProfile(c.Request.Context(), middleware.CurrentUserID(c), input)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, user)
}

// DeleteMe 注销账号
// @Summary 注销账号
// @Tags User
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /users/me [delete]
func (h *UserHandler) DeleteMe(c *gin.Context) {
	if err := h.service.DeleteUser(c.Request.Context(), middleware.CurrentUserID(c)); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, true)
}

// GetUsers 用户列表 (管理员)
// @Summary 用户列表
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page"
// @Param limit query int false "Limit"
// @Success 200 {object} response.Response{data=utils.PageResult}
// @Router /admin/users [get]
func (h *UserHandler) GetUsers(c *gin.Context) {
	var p utils.Pagination
	_ = c.ShouldBindQuery(&p)

	users, total, err := h.service.GetUsers(c.Request.Context(), p.Page, p.Limit)
	if err != nil {
		h.writeError(c, err)
		return
	}
	p.GetPageOffset()
	response.Success(c, utils.NewPageResult(users, total, p))
}

// GetUser 用户详情 (管理员)
// @Summary 用户详情
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} response.Response{data=model.User}
// @Router /admin/users/{id} [get]
func (h *UserHandler) GetUser(c *gin.Context) {
	h.writeUser(c, c.Param("id"))
}

// UpdateRole 调整角色 (管理员)
// @Summary 调整角色
// @Tags Admin
// @Accept json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param body body RoleInput true "Role"
// @Success 200 {object} response.Response
// @Router /admin/users/{id}/role [put]
func (h *UserHandler) UpdateRole(c *gin.Context) {
	var input RoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}
	if err := h.service.SetRole(c.Request.Context(), c.Param("id"), input.Role); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, gin.H{"role": input.Role})
}

// BanUser 封禁用户 (管理员)
// @Summary 封禁用户
// @Tags Admin
// @Accept json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Param body body BanInput false "Until"
// @Success 200 {object} response.Response
// @Router /admin/users/{id}/ban [post]
func (h *UserHandler) BanUser(c *gin.Context) {
	var input BanInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
			return
		}
	}
	if err := h.service.Ban(c.Request.Context(), c.Param("id"), input.Until); err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, true)
}

func (h *UserHandler) writeUser(c *gin.Context, id string) {
	user, err := h.service.GetUser(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	response.Success(c, user)
}

func (h *UserHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrUserNotFound):
		response.Error(c, http.StatusNotFound, response.ErrUserNotFound, err.Error())
	case errors.Is(err, service.ErrInvalidRole):
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
	default:
		logger.Log.Error("user request failed", zap.Error(err))
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, "Internal error")
	}
}
