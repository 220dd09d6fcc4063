package service

import (
	"context"
	"strconv"

	"nest_go/internal/cache"
	"nest_go/internal/model"
	"nest_go/internal/repository"
)

// AuthzService 主题/回帖访问裁决
// 组合两层：基础权限（组 + 动作 + 版块作用域）与标签名单，
// 全部入口对 uid <= 0 的游客安全，降级为游客组判定。
type AuthzService struct {
	perm  *PermService
	tags  repository.TagRepository
	binds repository.ThreadTagBindRepository
	sites *cache.Registry
}

// NewAuthzService 创建 AuthzService 实例
func NewAuthzService(perm *PermService, tags repository.TagRepository, binds repository.ThreadTagBindRepository, sites *cache.Registry) *AuthzService {
	return &AuthzService{
		perm:  perm,
		tags:  tags,
		binds: binds,
		sites: sites,
	}
}

// ThreadTags 获取主题绑定的标签（tag_id 列表走缓存读穿）
func (s *AuthzService) ThreadTags(ctx context.Context, sid, tid int64) ([]*model.ThreadTag, error) {
	site := s.sites.Site(sid)
	id := strconv.FormatInt(tid, 10)

	var tagIDs []int
	if !site.GetJSON(ctx, cache.KindThreadTags, id, &tagIDs) {
		v, err := site.Do(cache.KindThreadTags, id, func() (interface{}, error) {
			ids, err := s.binds.GetTagIDsByThread(ctx, sid, tid)
			if err != nil {
				return nil, err
			}
			if ids == nil {
				ids = []int{}
			}
			site.SetJSON(ctx, cache.KindThreadTags, id, ids)
			return ids, nil
		})
		if err != nil {
			return nil, err
		}
		tagIDs = v.([]int)
	}

	if len(tagIDs) == 0 {
		return nil, nil
	}
	return s.tags.GetByIDs(ctx, sid, tagIDs)
}

// CanViewThread 主题对用户是否可见
// 草稿、审核中、审核不通过、已软删除的主题只对作者和管理员可见；
// 其余按 viewThreads 基础权限 + 全部标签的浏览名单合取。
func (s *AuthzService) CanViewThread(ctx context.Context, sid, uid int64, thread *model.Thread) (bool, error) {
	gid, err := s.perm.GroupIDOf(ctx, sid, uid)
	if err != nil {
		return false, err
	}
	if gid == model.GidAdmin {
		return true, nil
	}

	isOwner := uid > 0 && uid == thread.Uid
	if thread.IsDeleted() && !isOwner {
		return false, nil
	}
	if thread.IsDraft && !isOwner {
		return false, nil
	}
	if thread.Status != model.ThreadOk && !isOwner {
		return false, nil
	}

	ok, err := s.perm.GroupHasPermission(ctx, sid, gid, thread.Fid, model.ActionViewThreads)
	if err != nil || !ok {
		return false, err
	}

	tags, err := s.ThreadTags(ctx, sid, thread.Tid)
	if err != nil {
		return false, err
	}
	return AllTagsReadable(tags, gid, isOwner), nil
}

// CanEditThread 主题对用户是否可编辑
// 草稿永远可由作者编辑；基础判定（作者路径或管理路径）为真后，
// 还要通过全部标签的编辑名单合取。
func (s *AuthzService) CanEditThread(ctx context.Context, sid, uid int64, thread *model.Thread) (bool, error) {
	gid, err := s.perm.GroupIDOf(ctx, sid, uid)
	if err != nil {
		return false, err
	}
	if gid == model.GidAdmin {
		return true, nil
	}
	if thread.IsDeleted() {
		return false, nil
	}

	isOwner := uid > 0 && uid == thread.Uid
	if thread.IsDraft {
		return isOwner, nil
	}

	base, err := s.ownOrManage(ctx, sid, gid, thread.Fid, isOwner, model.ActionThreadEditOwn, model.ActionThreadEdit)
	if err != nil || !base {
		return false, err
	}

	tags, err := s.ThreadTags(ctx, sid, thread.Tid)
	if err != nil {
		return false, err
	}
	return AllTagsWritable(tags, gid, base, isOwner), nil
}

// CanHideThread 主题对用户是否可删除（软删除）
// 删除不走标签编辑名单
func (s *AuthzService) CanHideThread(ctx context.Context, sid, uid int64, thread *model.Thread) (bool, error) {
	gid, err := s.perm.GroupIDOf(ctx, sid, uid)
	if err != nil {
		return false, err
	}
	if gid == model.GidAdmin {
		return true, nil
	}
	isOwner := uid > 0 && uid == thread.Uid
	if thread.IsDraft {
		return isOwner, nil
	}
	return s.ownOrManage(ctx, sid, gid, thread.Fid, isOwner, model.ActionThreadHideOwn, model.ActionThreadHide)
}

// CanEditPost 回帖对用户是否可编辑
func (s *AuthzService) CanEditPost(ctx context.Context, sid, uid int64, thread *model.Thread, post *model.Post) (bool, error) {
	gid, err := s.perm.GroupIDOf(ctx, sid, uid)
	if err != nil {
		return false, err
	}
	if gid == model.GidAdmin {
		return true, nil
	}
	if post.IsDeleted() {
		return false, nil
	}
	isOwner := uid > 0 && uid == post.Uid
	return s.ownOrManage(ctx, sid, gid, thread.Fid, isOwner, model.ActionPostEditOwn, model.ActionPostEdit)
}

// CanHidePost 回帖对用户是否可删除
// 三条路径取或：删自己的帖、管理权限、主题作者删自己主题下的任意帖
func (s *AuthzService) CanHidePost(ctx context.Context, sid, uid int64, thread *model.Thread, post *model.Post) (bool, error) {
	gid, err := s.perm.GroupIDOf(ctx, sid, uid)
	if err != nil {
		return false, err
	}
	if gid == model.GidAdmin {
		return true, nil
	}

	isOwner := uid > 0 && uid == post.Uid
	ok, err := s.ownOrManage(ctx, sid, gid, thread.Fid, isOwner, model.ActionPostHideOwn, model.ActionPostHide)
	if err != nil || ok {
		return ok, err
	}

	if uid > 0 && uid == thread.Uid {
		return s.perm.GroupHasPermission(ctx, sid, gid, thread.Fid, model.ActionThreadHideOwnAllPost)
	}
	return false, nil
}

// CanStickyPost 是否可在主题内置顶回帖
// 仅主题作者（配合 stickyOwnThreadPost 权限）或管理员
func (s *AuthzService) CanStickyPost(ctx context.Context, sid, uid int64, thread *model.Thread) (bool, error) {
	gid, err := s.perm.GroupIDOf(ctx, sid, uid)
	if err != nil {
		return false, err
	}
	if gid == model.GidAdmin {
		return true, nil
	}
	if uid <= 0 || uid != thread.Uid {
		return false, nil
	}
	return s.perm.GroupHasPermission(ctx, sid, gid, thread.Fid, model.ActionThreadStickyOwnPost)
}

// CanCreateThread 是否可在版块发主题（游客一律拒绝）
func (s *AuthzService) CanCreateThread(ctx context.Context, sid, uid int64, fid int) (bool, error) {
	if uid <= 0 {
		return false, nil
	}
	return s.perm.HasPermission(ctx, sid, uid, fid, model.ActionCreateThread)
}

// CanCreatePost 是否可在主题下回帖
func (s *AuthzService) CanCreatePost(ctx context.Context, sid, uid int64, thread *model.Thread) (bool, error) {
	if uid <= 0 {
		return false, nil
	}
	return s.perm.HasPermission(ctx, sid, uid, thread.Fid, model.ActionThreadReply)
}

// ownOrManage 作者路径或管理路径取或
func (s *AuthzService) ownOrManage(ctx context.Context, sid, gid int64, fid int, isOwner bool, ownAction, manageAction model.Action) (bool, error) {
	if isOwner {
		ok, err := s.perm.GroupHasPermission(ctx, sid, gid, fid, ownAction)
		if err != nil || ok {
			return ok, err
		}
	}
	return s.perm.GroupHasPermission(ctx, sid, gid, fid, manageAction)
}
