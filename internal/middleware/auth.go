package middleware

import (
	"net/http"
	"strings"

	"yatube/internal/pkg"

	"github.com/gin-gonic/gin"
)

const (
	ContextUserIDKey   = "user_id"
	ContextUsernameKey = "username"
)

// TokenStore 会话校验只需要读和续期
type TokenStore interface {
	GetUserToken(userID uint64) (string, error)
	ExtendUserToken(userID uint64) error
}

// Auth 必须登录；校验 JWT 并与会话存储中的 token 比对，通过后注入当前用户
func Auth(store TokenStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := resolveClaims(c, store)
		if !ok {
			c.Abort()
			return
		}

		// 校验通过后滑动续期
		if err := store.ExtendUserToken(claims.UserID); err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"msg": err.Error()})
			return
		}

		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUsernameKey, claims.Username)
		c.Next()
	}
}

// OptionalAuth 匿名可访问；带合法 token 时注入当前用户，否则按匿名放行
func OptionalAuth(store TokenStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}
		claims, err := pkg.ParseAccess(tokenStr)
		if err != nil {
			c.Next()
			return
		}
		origin, err := store.GetUserToken(claims.UserID)
		if err != nil || origin != tokenStr {
			c.Next()
			return
		}
		c.Set(ContextUserIDKey, claims.UserID)
		c.Set(ContextUsernameKey, claims.Username)
		c.Next()
	}
}

// CurrentUserID 从 gin 上下文取当前用户；匿名时 ok=false
func CurrentUserID(c *gin.Context) (uint64, bool) {
	v, exists := c.Get(ContextUserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}

func resolveClaims(c *gin.Context, store TokenStore) (*pkg.Claims, bool) {
	tokenStr, ok := bearerToken(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "missing authorization header"})
		return nil, false
	}

	claims, err := pkg.ParseAccess(tokenStr)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "invalid or expired token"})
		return nil, false
	}

	// 与会话存储比对，挤掉其它端的旧登录
	origin, err := store.GetUserToken(claims.UserID)
	if err != nil || origin != tokenStr {
		c.JSON(http.StatusUnauthorized, gin.H{"msg": "Account has been logging elsewhere"})
		return nil, false
	}
	return claims, true
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return "", false
	}
	return parts[1], true
}
