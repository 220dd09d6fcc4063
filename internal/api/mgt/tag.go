package mgt

import (
	"strconv"

	"nest_go/internal/middleware"
	"nest_go/internal/model"
	"nest_go/internal/pkg/response"
	"nest_go/internal/service"

	"github.com/gin-gonic/gin"
)

// TagHandler 标签管理 Handler
type TagHandler struct {
	svc *service.TagService
}

// NewTagHandler 创建TagHandler
func NewTagHandler(svc *service.TagService) *TagHandler {
	return &TagHandler{svc: svc}
}

// tagRequest 标签创建/更新请求
type tagRequest struct {
	Name        string           `json:"name" binding:"required,max=32"`
	Icon        string           `json:"icon"`
	Fids        model.IntList    `json:"fids"`
	UseGroups   model.TargetList `json:"use_groups"`
	ReadGroups  model.TargetList `json:"read_groups"`
	WriteGroups model.TargetList `json:"write_groups"`
	Hidden      bool             `json:"hidden"`
}

// Create POST /api/mgt/tags
func (h *TagHandler) Create(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	tag, err := h.svc.Create(c.Request.Context(), middleware.SiteID(c), middleware.UID(c), &model.ThreadTag{
		Name:        req.Name,
		Icon:        req.Icon,
		Fids:        req.Fids,
		UseGroups:   req.UseGroups,
		ReadGroups:  req.ReadGroups,
		WriteGroups: req.WriteGroups,
		Hidden:      req.Hidden,
	})
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"tag_id": tag.TagID})
}

// Update PUT /api/mgt/tag/:tag_id
func (h *TagHandler) Update(c *gin.Context) {
	tagID, err := strconv.Atoi(c.Param("tag_id"))
	if err != nil {
		response.BadRequest(c, "invalid tag_id")
		return
	}

	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.svc.Update(c.Request.Context(), middleware.SiteID(c), middleware.UID(c), &model.ThreadTag{
		TagID:       tagID,
		Name:        req.Name,
		Icon:        req.Icon,
		Fids:        req.Fids,
		UseGroups:   req.UseGroups,
		ReadGroups:  req.ReadGroups,
		WriteGroups: req.WriteGroups,
		Hidden:      req.Hidden,
	}); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, nil)
}

// Delete DELETE /api/mgt/tag/:tag_id
func (h *TagHandler) Delete(c *gin.Context) {
	tagID, err := strconv.Atoi(c.Param("tag_id"))
	if err != nil {
		response.BadRequest(c, "invalid tag_id")
		return
	}

	if err := h.svc.Delete(c.Request.Context(), middleware.SiteID(c), middleware.UID(c), tagID); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, nil)
}
