package mgt

import (
	"context"
	"strconv"

	"nest_go/internal/middleware"
	"nest_go/internal/pkg/response"
	"nest_go/internal/service"

	"github.com/gin-gonic/gin"
)

// ThreadHandler 主题管理 Handler（审核、恢复、管理标记）
type ThreadHandler struct {
	mod *service.ModerationService
}

// NewThreadHandler 创建ThreadHandler
func NewThreadHandler(mod *service.ModerationService) *ThreadHandler {
	return &ThreadHandler{mod: mod}
}

// Approve POST /api/mgt/thread/:tid/approve
func (h *ThreadHandler) Approve(c *gin.Context) {
	h.withTid(c, h.mod.ApproveThread)
}

// Reject POST /api/mgt/thread/:tid/reject
func (h *ThreadHandler) Reject(c *gin.Context) {
	h.withTid(c, h.mod.RejectThread)
}

// Restore POST /api/mgt/thread/:tid/restore
func (h *ThreadHandler) Restore(c *gin.Context) {
	h.withTid(c, h.mod.RestoreThread)
}

// flagRequest 管理标记请求
type flagRequest struct {
	On bool `json:"on"`
}

// stickyRequest 置顶请求，fids 为额外同时置顶的版块
type stickyRequest struct {
	On   bool  `json:"on"`
	Fids []int `json:"fids"`
}

// Sticky PUT /api/mgt/thread/:tid/sticky
func (h *ThreadHandler) Sticky(c *gin.Context) {
	tid, ok := parseTid(c)
	if !ok {
		return
	}
	var req stickyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.mod.SetThreadSticky(c.Request.Context(), middleware.SiteID(c), middleware.UID(c), tid, req.On, req.Fids); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, nil)
}

// Essence PUT /api/mgt/thread/:tid/essence
func (h *ThreadHandler) Essence(c *gin.Context) {
	tid, ok := parseTid(c)
	if !ok {
		return
	}
	var req flagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.mod.SetThreadEssence(c.Request.Context(), middleware.SiteID(c), middleware.UID(c), tid, req.On); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, nil)
}

// RestorePost POST /api/mgt/post/:pid/restore
func (h *ThreadHandler) RestorePost(c *gin.Context) {
	pid, err := strconv.ParseInt(c.Param("pid"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid pid")
		return
	}

	if err := h.mod.RestorePost(c.Request.Context(), middleware.SiteID(c), middleware.UID(c), pid); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, nil)
}

func (h *ThreadHandler) withTid(c *gin.Context, fn func(ctx context.Context, sid, uid, tid int64) error) {
	tid, ok := parseTid(c)
	if !ok {
		return
	}
	if err := fn(c.Request.Context(), middleware.SiteID(c), middleware.UID(c), tid); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, nil)
}

func parseTid(c *gin.Context) (int64, bool) {
	tid, err := strconv.ParseInt(c.Param("tid"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid tid")
		return 0, false
	}
	return tid, true
}
