package v1

import (
	"strconv"

	"nest_go/internal/middleware"
	"nest_go/internal/model"
	"nest_go/internal/pkg/response"
	"nest_go/internal/service"

	"github.com/gin-gonic/gin"
)

// TagHandler Tag API Handler
type TagHandler struct {
	svc *service.TagService
}

// NewTagHandler 创建TagHandler
func NewTagHandler(svc *service.TagService) *TagHandler {
	return &TagHandler{svc: svc}
}

// List GET /api/v1/tags
func (h *TagHandler) List(c *gin.Context) {
	tags, err := h.svc.GetAll(c.Request.Context(), middleware.SiteID(c))
	if err != nil {
		response.Fail(c, err)
		return
	}

	list := make([]*model.ThreadTagDTO, 0, len(tags))
	for _, t := range tags {
		if t.Hidden {
			continue
		}
		list = append(list, tagDTO(t))
	}
	response.Success(c, gin.H{"list": list})
}

// Get GET /api/v1/tag/:tag_id
func (h *TagHandler) Get(c *gin.Context) {
	tagID, err := strconv.Atoi(c.Param("tag_id"))
	if err != nil {
		response.BadRequest(c, "invalid tag_id")
		return
	}

	tag, err := h.svc.Get(c.Request.Context(), middleware.SiteID(c), tagID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	if tag == nil {
		response.NotFound(c, "tag not found")
		return
	}
	response.Success(c, tagDTO(tag))
}

// Threads GET /api/v1/tag/:tag_id/threads
func (h *TagHandler) Threads(c *gin.Context) {
	tagID, err := strconv.Atoi(c.Param("tag_id"))
	if err != nil {
		response.BadRequest(c, "invalid tag_id")
		return
	}

	tids, err := h.svc.ThreadsOfTag(c.Request.Context(), middleware.SiteID(c), middleware.UID(c), tagID)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"list": tids})
}

// Bind POST /api/v1/thread/:tid/tag/:tag_id（需登录）
func (h *TagHandler) Bind(c *gin.Context) {
	tid, tagID, ok := parseBindParams(c)
	if !ok {
		return
	}

	if err := h.svc.BindToThread(c.Request.Context(), middleware.SiteID(c), middleware.UID(c), tid, tagID); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, nil)
}

// Unbind DELETE /api/v1/thread/:tid/tag/:tag_id（需登录）
func (h *TagHandler) Unbind(c *gin.Context) {
	tid, tagID, ok := parseBindParams(c)
	if !ok {
		return
	}

	if err := h.svc.UnbindFromThread(c.Request.Context(), middleware.SiteID(c), middleware.UID(c), tid, tagID); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, nil)
}

func parseBindParams(c *gin.Context) (int64, int, bool) {
	tid, err := strconv.ParseInt(c.Param("tid"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid tid")
		return 0, 0, false
	}
	tagID, err := strconv.Atoi(c.Param("tag_id"))
	if err != nil {
		response.BadRequest(c, "invalid tag_id")
		return 0, 0, false
	}
	return tid, tagID, true
}

func tagDTO(t *model.ThreadTag) *model.ThreadTagDTO {
	return &model.ThreadTagDTO{
		TagID:       t.TagID,
		Name:        t.Name,
		Icon:        t.Icon,
		Fids:        t.Fids,
		UseGroups:   t.UseGroups,
		ReadGroups:  t.ReadGroups,
		WriteGroups: t.WriteGroups,
		Threads:     t.Threads,
		Hidden:      t.Hidden,
	}
}
