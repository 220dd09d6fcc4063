package v1

import (
	"strconv"

	"nest_go/internal/middleware"
	"nest_go/internal/model"
	"nest_go/internal/pkg/response"
	"nest_go/internal/service"

	"github.com/gin-gonic/gin"
)

// UserHandler User API Handler
type UserHandler struct {
	svc *service.UserService
}

// NewUserHandler 创建UserHandler
func NewUserHandler(svc *service.UserService) *UserHandler {
	return &UserHandler{svc: svc}
}

// Login POST /api/v1/login
func (h *UserHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), middleware.SiteID(c), req.Username, req.Password)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, resp)
}

// Register POST /api/v1/register
func (h *UserHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	dto, err := h.svc.Register(c.Request.Context(), middleware.SiteID(c), &req)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, dto)
}

// Me GET /api/v1/me（需登录）
func (h *UserHandler) Me(c *gin.Context) {
	dto, err := h.svc.Get(c.Request.Context(), middleware.SiteID(c), middleware.UID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, dto)
}

// Get GET /api/v1/user/:uid
func (h *UserHandler) Get(c *gin.Context) {
	uid, err := strconv.ParseInt(c.Param("uid"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid uid")
		return
	}

	dto, err := h.svc.Get(c.Request.Context(), middleware.SiteID(c), uid)
	if err != nil {
		response.Fail(c, err)
		return
	}
	// 对外资料不含邮箱
	dto.Email = ""
	response.Success(c, dto)
}
