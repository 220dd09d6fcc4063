package middleware

import (
	"fmt"
	"strings"
	"time"

	"nest_go/internal/core/config"
	"nest_go/internal/core/logger"
	"nest_go/internal/pkg/response"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// 上下文键
const (
	CtxUID    = "uid"
	CtxSiteID = "site_id"
)

// LoggerMiddleware 请求日志中间件
func LoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		logger.Info("request",
			logger.String("method", c.Request.Method),
			logger.String("path", path),
			logger.String("query", query),
			logger.Int("status", status),
			logger.Duration("latency", latency),
			logger.String("client_ip", c.ClientIP()),
		)
	}
}

// RecoveryMiddleware 异常恢复中间件
func RecoveryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					logger.String("error", fmt.Sprintf("%v", err)))
				c.AbortWithStatusJSON(500, gin.H{
					"code": 500,
					"msg":  "internal server error",
				})
			}
		}()
		c.Next()
	}
}

// CORSMiddleware 跨域中间件
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Header("Access-Control-Allow-Origin", "*")
		} else {
			c.Header("Access-Control-Allow-Origin", origin)
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-Site-ID")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

// SiteMiddleware 站点解析中间件
// 多站部署时前置代理写入 X-Site-ID；缺省回落配置的默认站点
func SiteMiddleware(cfg *config.SiteConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := cfg.DefaultSiteID
		if raw := c.GetHeader("X-Site-ID"); raw != "" {
			var parsed int64
			if _, err := fmt.Sscanf(raw, "%d", &parsed); err == nil && parsed > 0 {
				sid = parsed
			}
		}
		c.Set(CtxSiteID, sid)
		c.Next()
	}
}

// JWTMW JWT中间件（强制登录）
// token 中的站点必须和请求解析出的站点一致
func JWTMW(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		uid, ok := parseAuthHeader(c, cfg.Secret)
		if !ok {
			response.Unauthorized(c, "unauthorized")
			c.Abort()
			return
		}
		c.Set(CtxUID, uid)
		c.Next()
	}
}

// OptionalJWTMW JWT中间件（可选登录）
// 游客是合法访问者：无 token 或解析失败时 uid 保持 0，由权限层按游客组裁决
func OptionalJWTMW(cfg *config.JWTConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if uid, ok := parseAuthHeader(c, cfg.Secret); ok {
			c.Set(CtxUID, uid)
		}
		c.Next()
	}
}

// parseAuthHeader 解析 Authorization 头，校验站点归属
func parseAuthHeader(c *gin.Context, secret string) (int64, bool) {
	token := c.GetHeader("Authorization")
	if token == "" || !strings.HasPrefix(token, "Bearer ") {
		return 0, false
	}
	token = strings.TrimPrefix(token, "Bearer ")

	claims, err := ParseJWT(token, secret)
	if err != nil {
		return 0, false
	}

	uid, ok := claims["uid"].(float64)
	if !ok {
		return 0, false
	}
	if tokenSid, ok := claims["sid"].(float64); ok {
		if sid := SiteID(c); sid != 0 && int64(tokenSid) != sid {
			return 0, false
		}
	}
	return int64(uid), true
}

// ParseJWT 解析JWT
func ParseJWT(tokenString, secret string) (map[string]interface{}, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return map[string]interface{}(claims), nil
	}
	return nil, fmt.Errorf("invalid token")
}

// UID 读取上下文中的登录用户（未登录为 0）
func UID(c *gin.Context) int64 {
	if v, ok := c.Get(CtxUID); ok {
		if uid, ok := v.(int64); ok {
			return uid
		}
	}
	return 0
}

// SiteID 读取上下文中的站点 ID
func SiteID(c *gin.Context) int64 {
	if v, ok := c.Get(CtxSiteID); ok {
		if sid, ok := v.(int64); ok {
			return sid
		}
	}
	return 0
}
