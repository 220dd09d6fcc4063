package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"nest_go/internal/core/config"
	"nest_go/internal/core/logger"
	"nest_go/internal/pkg/pool"

	"github.com/gin-gonic/gin"
)

// ipChecker IP 名单检查器（支持 CIDR 与单个 IP）
type ipChecker struct {
	allowNets []*net.IPNet
	denyNets  []*net.IPNet
	allowSet  map[string]bool
	denySet   map[string]bool
}

func newIPChecker(allowIPs, denyIPs []string) *ipChecker {
	c := &ipChecker{
		allowSet: make(map[string]bool),
		denySet:  make(map[string]bool),
	}

	for _, ip := range allowIPs {
		ip = strings.TrimSpace(ip)
		if ip == "" {
			continue
		}
		if _, network, err := net.ParseCIDR(ip); err == nil {
			c.allowNets = append(c.allowNets, network)
		} else {
			c.allowSet[ip] = true
		}
	}
	for _, ip := range denyIPs {
		ip = strings.TrimSpace(ip)
		if ip == "" {
			continue
		}
		if _, network, err := net.ParseCIDR(ip); err == nil {
			c.denyNets = append(c.denyNets, network)
		} else {
			c.denySet[ip] = true
		}
	}
	return c
}

// isLocalIP 本地/内网 IP 判定（IPv4 与 IPv6）
func isLocalIP(ipStr string) bool {
	if ipStr == "localhost" || ipStr == "127.0.0.1" || ipStr == "::1" {
		return true
	}
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}
	if ipv4 := ip.To4(); ipv4 != nil {
		if ipv4[0] == 192 && ipv4[1] == 168 {
			return true
		}
		if ipv4[0] == 10 {
			return true
		}
		if ipv4[0] == 172 && ipv4[1] >= 16 && ipv4[1] <= 31 {
			return true
		}
		if ipv4[0] == 127 {
			return true
		}
	}
	return ip.IsLoopback()
}

func (c *ipChecker) isAllowed(ipStr string) bool {
	ip := net.ParseIP(ipStr)
	if ip == nil {
		return false
	}

	for _, network := range c.denyNets {
		if network.Contains(ip) {
			return false
		}
	}
	if c.denySet[ipStr] {
		return false
	}

	for _, network := range c.allowNets {
		if network.Contains(ip) {
			return true
		}
	}
	return c.allowSet[ipStr]
}

// AdminWhitelistMW 管理接口 IP 白名单中间件
// 本地/内网直接放行，外网要求显式白名单
func AdminWhitelistMW() gin.HandlerFunc {
	cfg := config.Get()
	checker := newIPChecker(cfg.Security.AllowIPs, cfg.Security.DenyIPs)

	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if isLocalIP(clientIP) || checker.isAllowed(clientIP) {
			c.Next()
			return
		}

		logger.Warn("admin access denied: IP not in whitelist",
			logger.String("ip", clientIP),
			logger.String("path", c.Request.URL.Path))
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"code": 403,
			"msg":  "access denied: IP not in whitelist",
		})
	}
}

// IPLimiter IP频率限制器（滑动窗口），访问记录由互斥锁保护
type IPLimiter struct {
	mu     sync.Mutex
	visits *pool.SimpleCache[string, []int64]
	limit  int
	window int64
}

// NewIPLimiter 创建IP限制器
func NewIPLimiter(limit int, windowSeconds int) *IPLimiter {
	return &IPLimiter{
		visits: pool.NewSimpleCache[string, []int64](),
		limit:  limit,
		window: int64(windowSeconds),
	}
}

// Allow 检查是否允许访问
func (l *IPLimiter) Allow(ip string) bool {
	now := time.Now().Unix()

	l.mu.Lock()
	defer l.mu.Unlock()

	history, _ := l.visits.Get(ip)
	var valid []int64
	for _, ts := range history {
		if now-ts < l.window {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= l.limit {
		l.visits.Set(ip, valid)
		return false
	}

	l.visits.Set(ip, append(valid, now))
	return true
}

// RateLimitMW 频率限制中间件
func RateLimitMW(limiter *IPLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		if !limiter.Allow(ip) {
			logger.Warn("rate limit exceeded",
				logger.String("ip", ip),
				logger.String("path", c.Request.URL.Path))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code": 429,
				"msg":  "too many requests",
			})
			return
		}

		c.Next()
	}
}
