package mgt

import (
	"strconv"

	"nest_go/internal/middleware"
	"nest_go/internal/model"
	"nest_go/internal/pkg/response"
	"nest_go/internal/service"

	"github.com/gin-gonic/gin"
)

// CategoryHandler 版块管理 Handler
type CategoryHandler struct {
	svc *service.CategoryService
}

// NewCategoryHandler 创建CategoryHandler
func NewCategoryHandler(svc *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{svc: svc}
}

// categoryRequest 版块创建/更新请求
type categoryRequest struct {
	Name            string `json:"name" binding:"required,max=64"`
	Parent          int    `json:"parent"`
	Order           int    `json:"order"`
	Moderated       bool   `json:"moderated"`
	DisableComments bool   `json:"disable_comments"`
	Status          int    `json:"status"`
}

// Create POST /api/mgt/categories
func (h *CategoryHandler) Create(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	cat, err := h.svc.Create(c.Request.Context(), middleware.SiteID(c), middleware.UID(c), &model.Category{
		Name:            req.Name,
		Parent:          req.Parent,
		Order:           req.Order,
		Moderated:       req.Moderated,
		DisableComments: req.DisableComments,
		Status:          req.Status,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"fid": cat.Fid})
}

// Update PUT /api/mgt/category/:fid
func (h *CategoryHandler) Update(c *gin.Context) {
	fid, err := strconv.Atoi(c.Param("fid"))
	if err != nil {
		response.BadRequest(c, "invalid fid")
		return
	}

	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.svc.Update(c.Request.Context(), middleware.SiteID(c), middleware.UID(c), &model.Category{
		Fid:             fid,
		Name:            req.Name,
		Parent:          req.Parent,
		Order:           req.Order,
		Moderated:       req.Moderated,
		DisableComments: req.DisableComments,
		Status:          req.Status,
	}); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, nil)
}

// Delete DELETE /api/mgt/category/:fid
func (h *CategoryHandler) Delete(c *gin.Context) {
	fid, err := strconv.Atoi(c.Param("fid"))
	if err != nil {
		response.BadRequest(c, "invalid fid")
		return
	}

	if err := h.svc.Delete(c.Request.Context(), middleware.SiteID(c), middleware.UID(c), fid); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, nil)
}
