package v1

import (
	"strconv"

	"nest_go/internal/middleware"
	"nest_go/internal/pkg/response"
	"nest_go/internal/service"

	"github.com/gin-gonic/gin"
)

// CategoryHandler Category API Handler
type CategoryHandler struct {
	svc *service.CategoryService
}

// NewCategoryHandler 创建CategoryHandler
func NewCategoryHandler(svc *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{svc: svc}
}

// Tree GET /api/v1/categories
func (h *CategoryHandler) Tree(c *gin.Context) {
	tree, err := h.svc.GetTree(c.Request.Context(), middleware.SiteID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"list": tree})
}

// Get GET /api/v1/category/:fid
func (h *CategoryHandler) Get(c *gin.Context) {
	fid, err := strconv.Atoi(c.Param("fid"))
	if err != nil {
		response.BadRequest(c, "invalid fid")
		return
	}

	cat, err := h.svc.Get(c.Request.Context(), middleware.SiteID(c), fid)
	if err != nil {
		response.Fail(c, err)
		return
	}
	if cat == nil {
		response.NotFound(c, "category not found")
		return
	}
	response.Success(c, cat)
}
