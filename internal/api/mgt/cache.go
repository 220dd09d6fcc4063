package mgt

import (
	"nest_go/internal/cache"
	"nest_go/internal/middleware"
	"nest_go/internal/pkg/response"
	"nest_go/internal/service"

	"github.com/gin-gonic/gin"
)

// CacheHandler 缓存管理 Handler
type CacheHandler struct {
	perm  *service.PermService
	sites *cache.Registry
}

// NewCacheHandler 创建CacheHandler
func NewCacheHandler(perm *service.PermService, sites *cache.Registry) *CacheHandler {
	return &CacheHandler{perm: perm, sites: sites}
}

// Flush POST /api/mgt/cache/flush 清空当前站点缓存
func (h *CacheHandler) Flush(c *gin.Context) {
	sid, uid := middleware.SiteID(c), middleware.UID(c)

	admin, err := h.perm.IsAdmin(c.Request.Context(), sid, uid)
	if err != nil {
		response.Fail(c, err)
		return
	}
	if !admin {
		response.FailWithCode(c, 403, "需要管理员权限")
		return
	}

	if err := h.sites.FlushSite(c.Request.Context(), sid); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, nil)
}
