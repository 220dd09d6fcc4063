package v1

import (
	"strconv"

	"nest_go/internal/middleware"
	"nest_go/internal/pkg/response"
	"nest_go/internal/pkg/util"
	"nest_go/internal/service"

	"github.com/gin-gonic/gin"
)

// ThreadHandler Thread API Handler
type ThreadHandler struct {
	svc *service.ThreadService
	mod *service.ModerationService
}

// NewThreadHandler 创建ThreadHandler
func NewThreadHandler(svc *service.ThreadService, mod *service.ModerationService) *ThreadHandler {
	return &ThreadHandler{svc: svc, mod: mod}
}

// List GET /api/v1/threads?fid=
func (h *ThreadHandler) List(c *gin.Context) {
	fidStr := c.Query("fid")
	if fidStr == "" {
		response.BadRequest(c, "fid is required")
		return
	}
	fid, err := strconv.Atoi(fidStr)
	if err != nil {
		response.BadRequest(c, "invalid fid")
		return
	}

	page, perPage := util.ParsePage(c.Query("page"), c.Query("page_size"))
	sid, uid := middleware.SiteID(c), middleware.UID(c)

	list, err := h.svc.List(c.Request.Context(), sid, uid, fid, page, perPage)
	if err != nil {
		response.Fail(c, err)
		return
	}

	response.Success(c, gin.H{
		"list":      list,
		"page":      page,
		"page_size": perPage,
	})
}

// Get GET /api/v1/thread/:tid
func (h *ThreadHandler) Get(c *gin.Context) {
	tid, err := strconv.ParseInt(c.Param("tid"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid tid")
		return
	}

	dto, err := h.svc.GetDetail(c.Request.Context(), middleware.SiteID(c), middleware.UID(c), tid)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, dto)
}

// Posts GET /api/v1/thread/:tid/posts
func (h *ThreadHandler) Posts(c *gin.Context) {
	tid, err := strconv.ParseInt(c.Param("tid"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid tid")
		return
	}

	page, perPage := util.ParsePage(c.Query("page"), c.Query("page_size"))
	list, err := h.svc.ListPosts(c.Request.Context(), middleware.SiteID(c), middleware.UID(c), tid, page, perPage)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"list": list, "page": page, "page_size": perPage})
}

// Replies GET /api/v1/post/:pid/replies
func (h *ThreadHandler) Replies(c *gin.Context) {
	pid, err := strconv.ParseInt(c.Param("pid"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid pid")
		return
	}

	page, perPage := util.ParsePage(c.Query("page"), c.Query("page_size"))
	list, err := h.svc.ListReplies(c.Request.Context(), middleware.SiteID(c), middleware.UID(c), pid, page, perPage)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"list": list, "page": page, "page_size": perPage})
}

// Drafts GET /api/v1/drafts（需登录）
func (h *ThreadHandler) Drafts(c *gin.Context) {
	page, perPage := util.ParsePage(c.Query("page"), c.Query("page_size"))
	list, err := h.svc.ListDrafts(c.Request.Context(), middleware.SiteID(c), middleware.UID(c), page, perPage)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"list": list, "page": page, "page_size": perPage})
}

// createThreadRequest 发帖请求
type createThreadRequest struct {
	Fid     int    `json:"fid" binding:"required"`
	Subject string `json:"subject" binding:"required,max=128"`
	Message string `json:"message" binding:"required"`
	IsDraft bool   `json:"is_draft"`
}

// Create POST /api/v1/threads（需登录）
func (h *ThreadHandler) Create(c *gin.Context) {
	var req createThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	thread, err := h.mod.CreateThread(c.Request.Context(), middleware.SiteID(c), middleware.UID(c),
		req.Fid, req.Subject, req.Message, req.IsDraft)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"tid": thread.Tid, "status": thread.Status, "is_draft": thread.IsDraft})
}

// Publish POST /api/v1/thread/:tid/publish（需登录）
func (h *ThreadHandler) Publish(c *gin.Context) {
	tid, err := strconv.ParseInt(c.Param("tid"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid tid")
		return
	}

	thread, err := h.mod.PublishDraft(c.Request.Context(), middleware.SiteID(c), middleware.UID(c), tid)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"tid": thread.Tid, "status": thread.Status})
}

// editThreadRequest 编辑请求
type editThreadRequest struct {
	Subject string `json:"subject" binding:"required,max=128"`
	Message string `json:"message" binding:"required"`
}

// Edit PUT /api/v1/thread/:tid（需登录）
func (h *ThreadHandler) Edit(c *gin.Context) {
	tid, err := strconv.ParseInt(c.Param("tid"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid tid")
		return
	}

	var req editThreadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.mod.EditThread(c.Request.Context(), middleware.SiteID(c), middleware.UID(c),
		tid, req.Subject, req.Message); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, nil)
}

// Delete DELETE /api/v1/thread/:tid（需登录，软删除）
func (h *ThreadHandler) Delete(c *gin.Context) {
	tid, err := strconv.ParseInt(c.Param("tid"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid tid")
		return
	}

	if err := h.mod.SoftDeleteThread(c.Request.Context(), middleware.SiteID(c), middleware.UID(c), tid); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, nil)
}

// createPostRequest 回帖请求
type createPostRequest struct {
	Message  string `json:"message" binding:"required"`
	ReplyPid *int64 `json:"reply_pid"`
}

// Reply POST /api/v1/thread/:tid/posts（需登录）
func (h *ThreadHandler) Reply(c *gin.Context) {
	tid, err := strconv.ParseInt(c.Param("tid"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid tid")
		return
	}

	var req createPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	post, err := h.mod.CreatePost(c.Request.Context(), middleware.SiteID(c), middleware.UID(c),
		tid, req.ReplyPid, req.Message)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, gin.H{"pid": post.Pid})
}

// editPostRequest 编辑回帖请求
type editPostRequest struct {
	Message string `json:"message" binding:"required"`
}

// EditPost PUT /api/v1/post/:pid（需登录）
func (h *ThreadHandler) EditPost(c *gin.Context) {
	pid, err := strconv.ParseInt(c.Param("pid"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid pid")
		return
	}

	var req editPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.mod.EditPost(c.Request.Context(), middleware.SiteID(c), middleware.UID(c), pid, req.Message); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, nil)
}

// DeletePost DELETE /api/v1/post/:pid（需登录，软删除）
func (h *ThreadHandler) DeletePost(c *gin.Context) {
	pid, err := strconv.ParseInt(c.Param("pid"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid pid")
		return
	}

	if err := h.mod.SoftDeletePost(c.Request.Context(), middleware.SiteID(c), middleware.UID(c), pid); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, nil)
}

// stickyPostRequest 回帖置顶请求
type stickyPostRequest struct {
	Sticky bool `json:"sticky"`
}

// StickyPost PUT /api/v1/post/:pid/sticky（需登录，主题作者或管理员）
func (h *ThreadHandler) StickyPost(c *gin.Context) {
	pid, err := strconv.ParseInt(c.Param("pid"), 10, 64)
	if err != nil {
		response.BadRequest(c, "invalid pid")
		return
	}

	var req stickyPostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.mod.StickyPost(c.Request.Context(), middleware.SiteID(c), middleware.UID(c), pid, req.Sticky); err != nil {
		response.Fail(c, err)
		return
	}
	response.Success(c, nil)
}
