package middleware

import (
	"net/http"
	"strings"

	"storefront_api/internal/domain/user/model"
	"storefront_api/pkg/response"
	"storefront_api/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthMiddleware JWT认证中间件
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Authorization header is required")
			c.Abort()
			return
		}

		// 检查格式 "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := utils.ParseToken(parts[1])
		if err != nil {
			response.Error(c, http.StatusUnauthorized, response.ErrTokenInvalid, "Invalid or expired token")
			c.Abort()
			return
		}

		// 将 userID 和 role 存入上下文
		c.Set("userID", claims.UserID)
		c.Set("role", claims.Role)

		c.Next()
	}
}

// AdminMiddleware 管理员权限中间件
func AdminMiddleware() gin.HandlerFunc {
	return requireRole(model.RoleAdmin, "Admin permission required")
}

// AgentMiddleware 配送员权限中间件
func AgentMiddleware() gin.HandlerFunc {
	return requireRole(model.RoleDeliveryAgent, "Delivery agent permission required")
}

func requireRole(required int, msg string) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get("role")
		if !exists {
			response.Error(c, http.StatusUnauthorized, response.ErrNoPermission, "Unauthorized")
			c.Abort()
			return
		}

		roleInt, ok := role.(int)
		if !ok || roleInt != required {
			response.Error(c, http.StatusForbidden, response.ErrNoPermission, msg)
			c.Abort()
			return
		}

		c.Next()
	}
}

// CurrentUserID 从上下文取出当前登录用户 ID
func CurrentUserID(c *gin.Context) (string, bool) {
	userID, exists := c.Get("userID")
	if !exists {
		return "", false
	}
	uid, ok := userID.(string)
	return uid, ok
}
