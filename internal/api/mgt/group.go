package mgt

import (
	"strconv"

	"nest_go/internal/middleware"
	"nest_go/internal/model"
	"nest_go/internal/pkg/response"
	"nest_go/internal/service"

	"github.com/gin-gonic/gin"
)

// GroupHandler 用户组管理 Handler
type GroupHandler struct {
	svc *service.GroupService
}

// NewGroupHandler 创建GroupHandler
func NewGroupHandler(svc *service.GroupService) *GroupHandler {
	return &GroupHandler{svc: svc}
}

// List GET /api/mgt/groups
func (h *GroupHandler) List(c *gin.Context) {
	list, err := h.svc.GetAll(c.Request.Context(), middleware.SiteID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"list": list})
}

// groupRequest 用户组创建/重命名请求
type groupRequest struct {
	Name string `json:"name" binding:"required,max=32"`
}

// Create POST /api/mgt/groups
func (h *GroupHandler) Create(c *gin.Context) {
	var req groupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.svc.Create(c.Request.Context(), middleware.SiteID(c), middleware.UID(c), req.Name)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, dto)
}

// Rename PUT /api/mgt/group/:gid
func (h *GroupHandler) Rename(c *gin.Context) {
	gid, ok := parseGid(c)
	if !ok {
		return
	}
	var req groupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.svc.Rename(c.Request.Context(), middleware.SiteID(c), middleware.UID(c), gid, req.Name); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, nil)
}

// Delete DELETE /api/mgt/group/:gid
func (h *GroupHandler) Delete(c *gin.Context) {
	gid, ok := parseGid(c)
	if !ok {
		return
	}

	if err := h.svc.Delete(c.Request.Context(), middleware.SiteID(c), middleware.UID(c), gid); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, nil)
}

// SetDefault POST /api/mgt/group/:gid/default
func (h *GroupHandler) SetDefault(c *gin.Context) {
	gid, ok := parseGid(c)
	if !ok {
		return
	}

	if err := h.svc.SetDefault(c.Request.Context(), middleware.SiteID(c), middleware.UID(c), gid); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, nil)
}

// Permissions GET /api/mgt/group/:gid/permissions
func (h *GroupHandler) Permissions(c *gin.Context) {
	gid, ok := parseGid(c)
	if !ok {
		return
	}

	perms, err := h.svc.Permissions(c.Request.Context(), middleware.SiteID(c), middleware.UID(c), gid)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"list": perms})
}

// permRequest 授权变更请求
type permRequest struct {
	Fid    int          `json:"fid"`
	Action model.Action `json:"action" binding:"required"`
}

// Grant POST /api/mgt/group/:gid/permissions
func (h *GroupHandler) Grant(c *gin.Context) {
	gid, ok := parseGid(c)
	if !ok {
		return
	}
	var req permRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.svc.Grant(c.Request.Context(), middleware.SiteID(c), middleware.UID(c),
		gid, req.Fid, req.Action); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, nil)
}

// Revoke DELETE /api/mgt/group/:gid/permissions
func (h *GroupHandler) Revoke(c *gin.Context) {
	gid, ok := parseGid(c)
	if !ok {
		return
	}
	var req permRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.svc.Revoke(c.Request.Context(), middleware.SiteID(c), middleware.UID(c),
		gid, req.Fid, req.Action); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, nil)
}

// replacePermsRequest 整体替换授权请求
type replacePermsRequest struct {
	Perms []model.Perm `json:"perms"`
}

// ReplacePermissions PUT /api/mgt/group/:gid/permissions
func (h *GroupHandler) ReplacePermissions(c *gin.Context) {
	gid, ok := parseGid(c)
	if !ok {
		return
	}
	var req replacePermsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.svc.ReplaceAll(c.Request.Context(), middleware.SiteID(c), middleware.UID(c),
		gid, req.Perms); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, nil)
}

// moveUserRequest 调组请求
type moveUserRequest struct {
	Uid int64 `json:"uid" binding:"required"`
}

// MoveUser POST /api/mgt/group/:gid/users
func (h *GroupHandler) MoveUser(c *gin.Context) {
	gid, ok := parseGid(c)
	if !ok {
		return
	}
	var req moveUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.svc.MoveUser(c.Request.Context(), middleware.SiteID(c), middleware.UID(c),
		req.Uid, gid); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, nil)
}

func parseGid(c *gin.Context) (int64, bool) {
	gid, err := strconv.ParseInt(c.Param("gid"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid gid")
		return 0, false
	}
	return gid, true
}
