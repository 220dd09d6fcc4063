package service

import (
	"context"
	"strconv"

	"nest_go/internal/cache"
	"nest_go/internal/model"
	"nest_go/internal/pkg/apperr"
	"nest_go/internal/repository"
)

// ThreadService 主题读服务
// 写路径（创建/编辑/删除/审核）在 ModerationService，这里只管带缓存的读
type ThreadService struct {
	repo  repository.ThreadRepository
	posts repository.PostRepository
	authz *AuthzService
	sites *cache.Registry
}

// NewThreadService 创建 ThreadService 实例
func NewThreadService(repo repository.ThreadRepository, posts repository.PostRepository, authz *AuthzService, sites *cache.Registry) *ThreadService {
	return &ThreadService{
		repo:  repo,
		posts: posts,
		authz: authz,
		sites: sites,
	}
}

// Get 获取主题（缓存读穿，不做可见性裁决）
func (s *ThreadService) Get(ctx context.Context, sid, tid int64) (*model.Thread, error) {
	site := s.sites.Site(sid)
	id := strconv.FormatInt(tid, 10)

	var cached model.Thread
	if site.GetJSON(ctx, cache.KindThread, id, &cached) {
		if cached.Tid == 0 {
			return nil, nil
		}
		return &cached, nil
	}

	// SingleFlight + DB
	v, err := site.Do(cache.KindThread, id, func() (interface{}, error) {
		thread, err := s.repo.GetByID(ctx, sid, tid)
		if err != nil {
			return nil, err
		}
		if thread == nil {
			site.SetJSON(ctx, cache.KindThread, id, &model.Thread{})
			return nil, nil
		}
		// Write Cache
		site.SetJSON(ctx, cache.KindThread, id, thread)
		return thread, nil
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.(*model.Thread), nil
}

// GetDetail 获取主题详情（正文 + 标签），不可见与不存在同样返回 NotFound
func (s *ThreadService) GetDetail(ctx context.Context, sid, uid, tid int64) (*model.ThreadDTO, error) {
	thread, err := s.Get(ctx, sid, tid)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, apperr.NotFound("主题不存在")
	}

	ok, err := s.authz.CanViewThread(ctx, sid, uid, thread)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("主题不存在")
	}

	content, err := s.repo.GetContentByID(ctx, sid, tid)
	if err != nil {
		return nil, err
	}
	tags, err := s.authz.ThreadTags(ctx, sid, tid)
	if err != nil {
		return nil, err
	}

	dto := threadDTO(thread)
	if content != nil {
		dto.Message = content.Message
	}
	for _, t := range tags {
		dto.TagIDs = append(dto.TagIDs, t.TagID)
	}

	// 浏览量只落库不失效缓存，读侧允许短暂偏旧
	s.repo.IncViews(ctx, sid, tid)
	return dto, nil
}

// List 版块主题列表
// 审核中/审核不通过/标签名单拦下的主题按访问者逐条过滤
func (s *ThreadService) List(ctx context.Context, sid, uid int64, fid int, page, perPage int) ([]*model.ThreadListItem, error) {
	offset, limit := pageRange(page, perPage)
	threads, err := s.repo.GetByFid(ctx, sid, fid, offset, limit)
	if err != nil {
		return nil, err
	}

	list := make([]*model.ThreadListItem, 0, len(threads))
	for _, t := range threads {
		ok, err := s.authz.CanViewThread(ctx, sid, uid, t)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		list = append(list, &model.ThreadListItem{
			Tid:       t.Tid,
			Fid:       t.Fid,
			Uid:       t.Uid,
			Subject:   t.Subject,
			Status:    t.Status,
			IsSticky:  t.IsSticky,
			IsEssence: t.IsEssence,
			Views:     t.Views,
			Replies:   t.Replies,
			Dateline:  t.Dateline,
			Lastpost:  t.Lastpost,
		})
	}
	return list, nil
}

// ListDrafts 当前用户的草稿列表
func (s *ThreadService) ListDrafts(ctx context.Context, sid, uid int64, page, perPage int) ([]*model.ThreadDTO, error) {
	if uid <= 0 {
		return nil, apperr.PermissionDenied("请先登录")
	}
	offset, limit := pageRange(page, perPage)
	threads, err := s.repo.GetDraftsByUser(ctx, sid, uid, offset, limit)
	if err != nil {
		return nil, err
	}

	list := make([]*model.ThreadDTO, 0, len(threads))
	for _, t := range threads {
		list = append(list, threadDTO(t))
	}
	return list, nil
}

// ListPosts 主题一级评论列表
func (s *ThreadService) ListPosts(ctx context.Context, sid, uid, tid int64, page, perPage int) ([]*model.PostDTO, error) {
	thread, err := s.Get(ctx, sid, tid)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, apperr.NotFound("主题不存在")
	}
	ok, err := s.authz.CanViewThread(ctx, sid, uid, thread)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("主题不存在")
	}

	offset, limit := pageRange(page, perPage)
	posts, err := s.posts.ListByThread(ctx, sid, tid, offset, limit)
	if err != nil {
		return nil, err
	}
	return postDTOs(posts), nil
}

// ListReplies 楼中楼回复列表
func (s *ThreadService) ListReplies(ctx context.Context, sid, uid, pid int64, page, perPage int) ([]*model.PostDTO, error) {
	parent, err := s.posts.GetByID(ctx, sid, pid)
	if err != nil {
		return nil, err
	}
	if parent == nil || parent.IsDeleted() {
		return nil, apperr.NotFound("评论不存在")
	}

	thread, err := s.Get(ctx, sid, parent.Tid)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, apperr.NotFound("主题不存在")
	}
	ok, err := s.authz.CanViewThread(ctx, sid, uid, thread)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.NotFound("主题不存在")
	}

	offset, limit := pageRange(page, perPage)
	posts, err := s.posts.ListReplies(ctx, sid, pid, offset, limit)
	if err != nil {
		return nil, err
	}
	return postDTOs(posts), nil
}

// threadDTO 模型转传输对象
func threadDTO(t *model.Thread) *model.ThreadDTO {
	return &model.ThreadDTO{
		Tid:       t.Tid,
		Fid:       t.Fid,
		Uid:       t.Uid,
		Subject:   t.Subject,
		Status:    t.Status,
		IsDraft:   t.IsDraft,
		IsSticky:  t.IsSticky,
		IsEssence: t.IsEssence,
		Views:     t.Views,
		Replies:   t.Replies,
		Posts:     t.Posts,
		Dateline:  t.Dateline,
		Lastpost:  t.Lastpost,
	}
}

func postDTOs(posts []*model.Post) []*model.PostDTO {
	list := make([]*model.PostDTO, 0, len(posts))
	for _, p := range posts {
		list = append(list, &model.PostDTO{
			Pid:        p.Pid,
			Tid:        p.Tid,
			Uid:        p.Uid,
			ReplyPid:   p.ReplyPid,
			Message:    p.Message,
			IsFirst:    p.IsFirst,
			IsComment:  p.IsComment,
			IsSticky:   p.IsSticky,
			ReplyCount: p.ReplyCount,
			Dateline:   p.Dateline,
		})
	}
	return list
}

// pageRange 页码换算（1 起，上限防御）
func pageRange(page, perPage int) (offset, limit int) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 || perPage > 100 {
		perPage = 20
	}
	return (page - 1) * perPage, perPage
}
