package middleware

import (
	"food_delivery/internal/domain/user/model"
	"food_delivery/pkg/response"
	"food_delivery/pkg/utils"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	ctxUserID = "userID"
	ctxRole   = "role"
)

// AuthMiddleware JWT认证中间件
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.AbortError(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Authorization header is required")
			return
		}

		// 检查格式 "Bearer <token>"
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.AbortError(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Invalid authorization header format")
			return
		}

		claims, err := utils.ParseToken(parts[1])
		if err != nil {
			response.AbortError(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Invalid or expired token")
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxRole, claims.Role)
		c.Next()
	}
}

// RequireRoles 角色校验，需在 AuthMiddleware 之后使用
func RequireRoles(roles ...int) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := c.Get(ctxRole)
		if !ok {
			response.AbortError(c, http.StatusUnauthorized, response.ErrNoPermission, "Unauthorized")
			return
		}
		r, _ := role.(int)
		for _, allowed := range roles {
			if r == allowed {
				c.Next()
				return
			}
		}
		response.AbortError(c, http.StatusForbidden, response.ErrNoPermission, "Permission denied")
	}
}

// AdminMiddleware 管理员权限中间件
func AdminMiddleware() gin.HandlerFunc {
	return RequireRoles(model.RoleAdmin)
}

// CurrentUserID 当前登录用户 ID
func CurrentUserID(c *gin.Context) string {
	return c.GetString(ctxUserID)
}

// CurrentRole 当前登录用户角色
func CurrentRole(c *gin.Context) int {
	return c.GetInt(ctxRole)
}

// IsAdmin 当前用户是否为平台管理员
func IsAdmin(c *gin.Context) bool {
	return CurrentRole(c) == model.RoleAdmin
}

// CurrentActor 当前登录用户
func CurrentActor(c *gin.Context) model.Actor {
	return model.Actor{UserID: CurrentUserID(c), Role: CurrentRole(c)}
}
