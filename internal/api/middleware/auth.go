package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"qa-platform/internal/dto"
	"qa-platform/internal/pkg/jwt"
	"qa-platform/internal/service"
	"qa-platform/pkg/constants"
	"qa-platform/pkg/utils"
)

// AuthMiddleware JWT认证中间件
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// 获取Authorization header
		authHeader := c.GetHeader(constants.HeaderAuthorization)
		if authHeader == "" {
			utils.ErrorWithCode(c, 401, "缺少Authorization Header")
			c.Abort()
			return
		}

		// 检查Bearer前缀
		if !strings.HasPrefix(authHeader, constants.HeaderBearerPrefix) {
			utils.ErrorWithCode(c, 401, "Authorization格式错误")
			c.Abort()
			return
		}

		// 提取Token
		token := strings.TrimPrefix(authHeader, constants.HeaderBearerPrefix)

		// 验证Token
		claims, err := jwt.ValidateToken(token)
		if err != nil {
			utils.Error(c, err)
			c.Abort()
			return
		}

		// 检查Token类型(必须是AccessToken)
		if claims.Type != constants.JWTTypeAccess {
			utils.ErrorWithCode(c, 401, "无效的Token类型")
			c.Abort()
			return
		}

		// 将用户信息存入context
		userInfo := &dto.UserInfo{
			Username:    claims.Username,
			Email:       claims.Email,
			DisplayName: claims.DisplayName,
			AuthType:    claims.AuthType,
		}
		c.Set("user", userInfo)
		c.Set("username", claims.Username)
		c.Set("auth_type", claims.AuthType)

		c.Next()
	}
}

// APITokenMiddleware API Token认证中间件
// 供执行器回调等机器端点使用, 支持 Bearer 头或 X-API-Token 头
func APITokenMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-API-Token")
		if token == "" {
			authHeader := c.GetHeader(constants.HeaderAuthorization)
			token = strings.TrimPrefix(authHeader, constants.HeaderBearerPrefix)
		}

		if token == "" || !authService.VerifyAPIToken(token) {
			utils.ErrorWithCode(c, 401, "无效的API Token")
			c.Abort()
			return
		}

		c.Next()
	}
}
