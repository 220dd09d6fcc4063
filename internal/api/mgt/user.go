package mgt

import (
	"strconv"

	"nest_go/internal/middleware"
	"nest_go/internal/pkg/response"
	"nest_go/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler 用户管理 Handler
type UserHandler struct {
	svc *service.UserService
}

// NewUserHandler 创建UserHandler
func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// statusRequest 账号状态变更请求
type statusRequest struct {
	Status int `json:"status" binding:"min=0,max=4"`
}

// SetStatus PUT /api/mgt/user/:uid/status
func (h *UserHandler) SetStatus(c *gin.Context) {
	uid, err := strconv.ParseInt(c.Param("uid"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid uid")
		return
	}

	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.svc.SetStatus(c.Request.Context(), middleware.SiteID(c), middleware.UID(c),
		uid, req.Status); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, nil)
}
