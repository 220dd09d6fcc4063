package service

import (
	"context"
	"strconv"

	"nest_go/internal/cache"
	"nest_go/internal/core/logger"
	"nest_go/internal/model"
	"nest_go/internal/pkg/apperr"
	"nest_go/internal/repository"
)

// TagService 标签业务服务
// 手动绑定走完整校验链（保留标签拒绝 -> 版块限制 -> use_groups 名单）；
// 系统标签的绑定由 ModerationService 的内部通道处理，不经过本服务。
type TagService struct {
	repo    repository.TagRepository
	binds   repository.ThreadTagBindRepository
	threads repository.ThreadRepository
	authz   *AuthzService
	perm    *PermService
	sites   *cache.Registry
}

// NewTagService 创建 TagService 实例
func NewTagService(
	repo repository.TagRepository,
	binds repository.ThreadTagBindRepository,
	threads repository.ThreadRepository,
	authz *AuthzService,
	perm *PermService,
	sites *cache.Registry,
) *TagService {
	return &TagService{
		repo:    repo,
		binds:   binds,
		threads: threads,
		authz:   authz,
		perm:    perm,
		sites:   sites,
	}
}

// Get 获取单个标签（缓存读穿）
func (s *TagService) Get(ctx context.Context, sid int64, tagID int) (*model.ThreadTag, error) {
	site := s.sites.Site(sid)
	id := strconv.Itoa(tagID)

	var cached model.ThreadTag
	if site.GetJSON(ctx, cache.KindTag, id, &cached) {
		if cached.TagID == 0 {
			return nil, nil
		}
		return &cached, nil
	}

	// SingleFlight + DB
	v, err := site.Do(cache.KindTag, id, func() (interface{}, error) {
		tag, err := s.repo.GetByID(ctx, sid, tagID)
		if err != nil {
			return nil, err
		}
		if tag == nil {
			site.SetJSON(ctx, cache.KindTag, id, &model.ThreadTag{})
			return nil, nil
		}
		// Write Cache
		site.SetJSON(ctx, cache.KindTag, id, tag)
		return tag, nil
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.(*model.ThreadTag), nil
}

// GetAll 获取站点全部标签
func (s *TagService) GetAll(ctx context.Context, sid int64) ([]*model.ThreadTag, error) {
	return s.repo.GetAll(ctx, sid)
}

// Create 创建标签（管理员专用，同名返回已有标签）
func (s *TagService) Create(ctx context.Context, sid, uid int64, tag *model.ThreadTag) (*model.ThreadTag, error) {
	admin, err := s.perm.IsAdmin(ctx, sid, uid)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, apperr.PermissionDenied("需要管理员权限")
	}

	exist, err := s.repo.GetByName(ctx, sid, tag.Name)
	if err != nil {
		return nil, err
	}
	if exist != nil {
		return exist, nil
	}

	tag.SiteID = sid
	id, err := s.repo.Create(ctx, tag)
	if err != nil {
		logger.Error("create tag failed",
			logger.Int64("site_id", sid),
			logger.String("name", tag.Name),
			logger.String("error", err.Error()))
		return nil, err
	}
	tag.TagID = id
	return tag, nil
}

// Update 更新标签属性与限制名单（管理员专用，保留标签不可改）
func (s *TagService) Update(ctx context.Context, sid, uid int64, tag *model.ThreadTag) error {
	admin, err := s.perm.IsAdmin(ctx, sid, uid)
	if err != nil {
		return err
	}
	if !admin {
		return apperr.PermissionDenied("需要管理员权限")
	}

	exist, err := s.repo.GetByID(ctx, sid, tag.TagID)
	if err != nil {
		return err
	}
	if exist == nil {
		return apperr.NotFound("标签不存在")
	}
	if exist.IsReserved() {
		return apperr.InvalidState("系统标签不可修改")
	}

	tag.SiteID = sid
	if err := s.repo.Update(ctx, tag); err != nil {
		return err
	}
	s.invalidateTag(ctx, sid, tag.TagID)
	return nil
}

// Delete 删除标签及其全部绑定（管理员专用，保留标签不可删）
// 受影响主题集合未知，整站失效兜底
func (s *TagService) Delete(ctx context.Context, sid, uid int64, tagID int) error {
	admin, err := s.perm.IsAdmin(ctx, sid, uid)
	if err != nil {
		return err
	}
	if !admin {
		return apperr.PermissionDenied("需要管理员权限")
	}

	tag, err := s.repo.GetByID(ctx, sid, tagID)
	if err != nil {
		return err
	}
	if tag == nil {
		return apperr.NotFound("标签不存在")
	}
	if tag.IsReserved() {
		return apperr.InvalidState("系统标签不可删除")
	}

	if err := s.binds.UnbindAllByTag(ctx, sid, tagID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, sid, tagID); err != nil {
		return err
	}
	return s.sites.FlushSite(ctx, sid)
}

// BindToThread 手动为主题绑定标签
// 保留标签对所有人（含管理员）拒绝；版块限制与 use_groups 名单逐级校验
func (s *TagService) BindToThread(ctx context.Context, sid, uid, tid int64, tagID int) error {
	tag, err := s.Get(ctx, sid, tagID)
	if err != nil {
		return err
	}
	if tag == nil {
		return apperr.NotFound("标签不存在")
	}
	if tag.IsReserved() {
		return apperr.InvalidState("系统标签不可手动绑定")
	}

	thread, err := s.visibleThread(ctx, sid, uid, tid)
	if err != nil {
		return err
	}

	if !CanUseTagInCategory(tag, thread.Fid) {
		return apperr.InvalidState("该标签不可用于此版块")
	}

	gid, err := s.perm.GroupIDOf(ctx, sid, uid)
	if err != nil {
		return err
	}
	isOwner := uid > 0 && uid == thread.Uid
	if !CanAttachTag(tag, gid, thread.Fid, isOwner) {
		return apperr.PermissionDenied("无权为主题绑定该标签")
	}

	exists, err := s.binds.Exists(ctx, sid, tid, tagID)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := s.binds.Bind(ctx, sid, tid, tagID); err != nil {
		return err
	}
	if err := s.repo.IncThreads(ctx, sid, tagID); err != nil {
		return err
	}

	s.invalidateTag(ctx, sid, tagID)
	s.invalidateThreadTags(ctx, sid, tid)
	return nil
}

// UnbindFromThread 手动为主题解绑标签，校验链与绑定一致
func (s *TagService) UnbindFromThread(ctx context.Context, sid, uid, tid int64, tagID int) error {
	tag, err := s.Get(ctx, sid, tagID)
	if err != nil {
		return err
	}
	if tag == nil {
		return apperr.NotFound("标签不存在")
	}
	if tag.IsReserved() {
		return apperr.InvalidState("系统标签不可手动解绑")
	}

	thread, err := s.visibleThread(ctx, sid, uid, tid)
	if err != nil {
		return err
	}

	gid, err := s.perm.GroupIDOf(ctx, sid, uid)
	if err != nil {
		return err
	}
	isOwner := uid > 0 && uid == thread.Uid
	if !CanAttachTag(tag, gid, thread.Fid, isOwner) {
		return apperr.PermissionDenied("无权为主题解绑该标签")
	}

	exists, err := s.binds.Exists(ctx, sid, tid, tagID)
	if err != nil {
		return err
	}
	if !exists {
		return nil
	}

	if err := s.binds.Unbind(ctx, sid, tid, tagID); err != nil {
		return err
	}
	if err := s.repo.DecThreads(ctx, sid, tagID); err != nil {
		return err
	}

	s.invalidateTag(ctx, sid, tagID)
	s.invalidateThreadTags(ctx, sid, tid)
	return nil
}

// ThreadsOfTag 标签下的主题 ID 列表（受 read_groups 名单约束）
func (s *TagService) ThreadsOfTag(ctx context.Context, sid, uid int64, tagID int) ([]int64, error) {
	tag, err := s.Get(ctx, sid, tagID)
	if err != nil {
		return nil, err
	}
	if tag == nil {
		return nil, apperr.NotFound("标签不存在")
	}

	gid, err := s.perm.GroupIDOf(ctx, sid, uid)
	if err != nil {
		return nil, err
	}
	// 列表视角没有单一主题归属，owner 例外不生效
	if !CanReadTag(tag, gid, false) {
		return nil, apperr.NotFound("标签不存在")
	}
	return s.binds.GetThreadIDsByTag(ctx, sid, tagID)
}

// visibleThread 取主题并做可见性裁决
func (s *TagService) visibleThread(ctx context.Context, sid, uid, tid int64) (*model.Thread, error) {
	thread, err := s.threads.GetByID(ctx, sid, tid)
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
	return thread, nil
}

func (s *TagService) invalidateTag(ctx context.Context, sid int64, tagID int) {
	s.sites.Site(sid).Remove(ctx, cache.KindTag, strconv.Itoa(tagID))
}

func (s *TagService) invalidateThreadTags(ctx context.Context, sid, tid int64) {
	s.sites.Site(sid).Remove(ctx, cache.KindThreadTags, strconv.FormatInt(tid, 10))
}
