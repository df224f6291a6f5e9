package auth

import (
	"net/http"
	"strings"

	"github.com/blues/propdao/internal/logger"
	"github.com/gin-gonic/gin"
)

const claimsKey = "auth.claims"

// RequireAuth 校验 Bearer 令牌，失败返回 401
func RequireAuth(verifier Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
			abort(c, http.StatusUnauthorized, ErrMissingToken.Error())
			return
		}

		claims, err := verifier.Verify(c.Request.Context(), strings.TrimSpace(parts[1]))
		if err != nil {
			logger.Warn("Token verification failed: path=%s err=%v", c.FullPath(), err)
			abort(c, http.StatusUnauthorized, "身份验证失败")
			return
		}

		SetClaims(c, claims)
		c.Next()
	}
}

// RequireAdmin 调用方的用户ID或钱包地址必须在白名单中，需在 RequireAuth 之后使用
func RequireAdmin(allowList []string) gin.HandlerFunc {
	allowed := make(map[string]struct{}, len(allowList))
	for _, entry := range allowList {
		if entry = strings.ToLower(strings.TrimSpace(entry)); entry != "" {
			allowed[entry] = struct{}{}
		}
	}

	return func(c *gin.Context) {
		claims, ok := CurrentClaims(c)
		if !ok {
			abort(c, http.StatusUnauthorized, ErrMissingToken.Error())
			return
		}

		for _, candidate := range []string{claims.Subject, claims.WalletAddress} {
			if candidate == "" {
				continue
			}
			if _, ok := allowed[strings.ToLower(candidate)]; ok {
				c.Next()
				return
			}
		}

		logger.Warn("Admin access denied: subject=%s path=%s", claims.Subject, c.FullPath())
		abort(c, http.StatusForbidden, "没有管理员权限")
	}
}

// CurrentClaims 获取当前请求的身份声明
func CurrentClaims(c *gin.Context) (*Claims, bool) {
	value, exists := c.Get(claimsKey)
	if !exists {
		return nil, false
	}
	claims, ok := value.(*Claims)
	return claims, ok && claims != nil
}

// SetClaims 写入身份声明
func SetClaims(c *gin.Context, claims *Claims) {
	c.Set(claimsKey, claims)
}

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"success": false,
		"message": message,
		"data":    nil,
	})
}
