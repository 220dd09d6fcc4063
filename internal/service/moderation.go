package service

import (
	"context"
	"strconv"
	"time"

	"nest_go/internal/cache"
	"nest_go/internal/core/config"
	"nest_go/internal/core/logger"
	"nest_go/internal/core/snowflake"
	"nest_go/internal/model"
	"nest_go/internal/pkg/apperr"
	"nest_go/internal/repository"
)

// ModerationService 内容状态机
// 主题生命周期：草稿 -> 发布（按审核策略进 审核中 或 审核通过）-> 软删除/恢复。
// 审核策略 = 站点级 moderate_all 或 版块级 moderated，二者取或。
// 系统标签（置顶/精华/已删除）的绑定走内部通道，不做名单校验。
type ModerationService struct {
	threads repository.ThreadRepository
	posts   repository.PostRepository
	cats    repository.CategoryRepository
	tags    repository.TagRepository
	binds   repository.ThreadTagBindRepository
	authz   *AuthzService
	perm    *PermService
	sites   *cache.Registry
	cfg     *config.SiteConfig
}

// NewModerationService 创建 ModerationService 实例
func NewModerationService(
	threads repository.ThreadRepository,
	posts repository.PostRepository,
	cats repository.CategoryRepository,
	tags repository.TagRepository,
	binds repository.ThreadTagBindRepository,
	authz *AuthzService,
	perm *PermService,
	sites *cache.Registry,
	cfg *config.SiteConfig,
) *ModerationService {
	return &ModerationService{
		threads: threads,
		posts:   posts,
		cats:    cats,
		tags:    tags,
		binds:   binds,
		authz:   authz,
		perm:    perm,
		sites:   sites,
		cfg:     cfg,
	}
}

// CreateThread 创建主题
// 草稿不做发帖权限校验（只要求登录且账号正常）；正式发布按审核策略定初始状态
func (s *ModerationService) CreateThread(ctx context.Context, sid, uid int64, fid int, subject, message string, isDraft bool) (*model.Thread, error) {
	if uid <= 0 {
		return nil, apperr.PermissionDenied("请先登录")
	}

	cat, err := s.cats.GetByID(ctx, sid, fid)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, apperr.NotFound("版块不存在")
	}

	if isDraft {
		user, err := s.perm.UserOf(ctx, sid, uid)
		if err != nil {
			return nil, err
		}
		if user == nil || !user.IsNormal() {
			return nil, apperr.PermissionDenied("账号状态异常")
		}
	} else {
		ok, err := s.authz.CanCreateThread(ctx, sid, uid, fid)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, apperr.PermissionDenied("无权在该版块发帖")
		}
	}

	status := model.ThreadOk
	if !isDraft && s.needModeration(cat) {
		status = model.ThreadChecking
	}

	now := time.Now().Unix()
	thread := &model.Thread{
		Tid:             snowflake.Generate(),
		SiteID:          sid,
		Fid:             fid,
		Uid:             uid,
		Subject:         subject,
		Status:          status,
		IsDraft:         isDraft,
		StickyFids:      model.IntList{},
		DisableComments: model.CommentsInherit,
		Dateline:        now,
		Lastpost:        now,
	}
	content := &model.ThreadData{Tid: thread.Tid, Message: message}
	firstPost := &model.Post{
		Pid:        snowflake.Generate(),
		SiteID:     sid,
		Tid:        thread.Tid,
		Uid:        uid,
		Message:    message,
		IsFirst:    true,
		IsApproved: status == model.ThreadOk,
		Dateline:   now,
	}

	if err := s.threads.Create(ctx, thread, content, firstPost); err != nil {
		logger.Error("create thread failed",
			logger.Int64("site_id", sid),
			logger.Int64("uid", uid),
			logger.String("error", err.Error()))
		return nil, err
	}

	if !isDraft {
		if err := s.cats.IncThreads(ctx, sid, fid, 1); err != nil {
			return nil, err
		}
		s.invalidateCategory(ctx, sid, fid)
	}
	return thread, nil
}

// PublishDraft 发布草稿
// 发布时才做发帖权限校验与审核策略判定，时间线重置为发布时刻
func (s *ModerationService) PublishDraft(ctx context.Context, sid, uid, tid int64) (*model.Thread, error) {
	thread, err := s.visibleThread(ctx, sid, uid, tid)
	if err != nil {
		return nil, err
	}
	if !thread.IsDraft {
		return nil, apperr.InvalidState("该主题不是草稿")
	}
	if uid != thread.Uid {
		return nil, apperr.PermissionDenied("只有作者可以发布草稿")
	}

	ok, err := s.authz.CanCreateThread(ctx, sid, uid, thread.Fid)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.PermissionDenied("无权在该版块发帖")
	}

	cat, err := s.cats.GetByID(ctx, sid, thread.Fid)
	if err != nil {
		return nil, err
	}
	if cat == nil {
		return nil, apperr.NotFound("版块不存在")
	}

	now := time.Now().Unix()
	thread.IsDraft = false
	thread.Status = model.ThreadOk
	if s.needModeration(cat) {
		thread.Status = model.ThreadChecking
	}
	thread.Dateline = now
	thread.Lastpost = now

	if err := s.threads.Update(ctx, thread); err != nil {
		return nil, err
	}
	if err := s.syncFirstPost(ctx, sid, tid, thread.Status == model.ThreadOk); err != nil {
		return nil, err
	}
	if err := s.cats.IncThreads(ctx, sid, thread.Fid, 1); err != nil {
		return nil, err
	}

	s.invalidateThread(ctx, sid, tid)
	s.invalidateCategory(ctx, sid, thread.Fid)
	return thread, nil
}

// EditThread 编辑主题标题与内容
// 普通用户的内容变更一律回到审核中状态，持 thread.edit 管理权限者豁免重审
func (s *ModerationService) EditThread(ctx context.Context, sid, uid, tid int64, subject, message string) error {
	thread, err := s.visibleThread(ctx, sid, uid, tid)
	if err != nil {
		return err
	}

	ok, err := s.authz.CanEditThread(ctx, sid, uid, thread)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.PermissionDenied("无权编辑该主题")
	}

	thread.Subject = subject
	if !thread.IsDraft {
		manager, err := s.perm.HasPermission(ctx, sid, uid, thread.Fid, model.ActionThreadEdit)
		if err != nil {
			return err
		}
		if !manager {
			thread.Status = model.ThreadChecking
		}
	}

	if err := s.threads.Update(ctx, thread); err != nil {
		return err
	}
	if err := s.threads.UpdateContent(ctx, sid, tid, message); err != nil {
		return err
	}

	s.invalidateThread(ctx, sid, tid)
	return nil
}

// ApproveThread 审核通过
func (s *ModerationService) ApproveThread(ctx context.Context, sid, uid, tid int64) error {
	return s.review(ctx, sid, uid, tid, model.ThreadOk)
}

// RejectThread 审核不通过
func (s *ModerationService) RejectThread(ctx context.Context, sid, uid, tid int64) error {
	return s.review(ctx, sid, uid, tid, model.ThreadCheckFailed)
}

// review 审核裁决（管理员专用）
func (s *ModerationService) review(ctx context.Context, sid, uid, tid int64, status int) error {
	admin, err := s.perm.IsAdmin(ctx, sid, uid)
	if err != nil {
		return err
	}
	if !admin {
		return apperr.PermissionDenied("需要管理员权限")
	}

	thread, err := s.threads.GetByID(ctx, sid, tid)
	if err != nil {
		return err
	}
	if thread == nil {
		return apperr.NotFound("主题不存在")
	}
	if thread.IsDraft {
		return apperr.InvalidState("草稿无需审核")
	}
	if thread.IsDeleted() {
		return apperr.InvalidState("主题已删除，请先恢复")
	}

	thread.Status = status
	if err := s.threads.Update(ctx, thread); err != nil {
		return err
	}
	if err := s.syncFirstPost(ctx, sid, tid, status == model.ThreadOk); err != nil {
		return err
	}

	s.invalidateThread(ctx, sid, tid)
	return nil
}

// syncFirstPost 首帖过审状态跟随主题状态
func (s *ModerationService) syncFirstPost(ctx context.Context, sid, tid int64, approved bool) error {
	first, err := s.posts.GetFirstByThread(ctx, sid, tid)
	if err != nil {
		return err
	}
	if first == nil {
		return nil
	}
	return s.posts.SetApproved(ctx, sid, first.Pid, approved)
}

// SoftDeleteThread 软删除主题
// 行保留，打删除时间戳并绑定"已删除"系统标签；重复删除幂等
func (s *ModerationService) SoftDeleteThread(ctx context.Context, sid, uid, tid int64) error {
	thread, err := s.visibleThread(ctx, sid, uid, tid)
	if err != nil {
		return err
	}
	if thread.IsDeleted() {
		return nil
	}

	ok, err := s.authz.CanHideThread(ctx, sid, uid, thread)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.PermissionDenied("无权删除该主题")
	}

	if err := s.threads.SoftDelete(ctx, sid, tid, time.Now().Unix()); err != nil {
		return err
	}
	if err := s.systemBind(ctx, sid, tid, model.TagDeleted); err != nil {
		return err
	}
	if !thread.IsDraft {
		if err := s.cats.IncThreads(ctx, sid, thread.Fid, -1); err != nil {
			return err
		}
		s.invalidateCategory(ctx, sid, thread.Fid)
	}

	s.invalidateThread(ctx, sid, tid)
	return nil
}

// RestoreThread 恢复软删除的主题（管理员专用）
// 恢复后回到审核通过状态，并整体重算派生计数
func (s *ModerationService) RestoreThread(ctx context.Context, sid, uid, tid int64) error {
	admin, err := s.perm.IsAdmin(ctx, sid, uid)
	if err != nil {
		return err
	}
	if !admin {
		return apperr.PermissionDenied("需要管理员权限")
	}

	thread, err := s.threads.GetByID(ctx, sid, tid)
	if err != nil {
		return err
	}
	if thread == nil {
		return apperr.NotFound("主题不存在")
	}
	if !thread.IsDeleted() {
		return nil
	}

	if err := s.threads.Restore(ctx, sid, tid); err != nil {
		return err
	}
	if err := s.systemUnbind(ctx, sid, tid, model.TagDeleted); err != nil {
		return err
	}

	replies, posts, err := s.posts.RecountThread(ctx, sid, tid)
	if err != nil {
		return err
	}
	if err := s.threads.UpdateCounters(ctx, sid, tid, replies, posts, thread.Lastpost); err != nil {
		return err
	}

	if !thread.IsDraft {
		if err := s.cats.IncThreads(ctx, sid, thread.Fid, 1); err != nil {
			return err
		}
		s.invalidateCategory(ctx, sid, thread.Fid)
	}

	s.invalidateThread(ctx, sid, tid)
	return nil
}

// CreatePost 创建回帖
// replyPid 为空 = 一级评论；否则为楼中楼回复，只能回复一级评论
func (s *ModerationService) CreatePost(ctx context.Context, sid, uid, tid int64, replyPid *int64, message string) (*model.Post, error) {
	thread, err := s.visibleThread(ctx, sid, uid, tid)
	if err != nil {
		return nil, err
	}
	if thread.IsDraft {
		return nil, apperr.InvalidState("草稿不可回复")
	}
	if thread.Status != model.ThreadOk {
		return nil, apperr.InvalidState("主题审核中，暂不可回复")
	}

	disabled, err := s.commentsDisabled(ctx, sid, thread)
	if err != nil {
		return nil, err
	}
	if disabled {
		return nil, apperr.InvalidState("该主题已关闭评论")
	}

	readonly, err := s.hasTag(ctx, sid, tid, model.TagReadOnly)
	if err != nil {
		return nil, err
	}
	if readonly {
		admin, err := s.perm.IsAdmin(ctx, sid, uid)
		if err != nil {
			return nil, err
		}
		if !admin {
			return nil, apperr.PermissionDenied("主题已设为只读")
		}
	}

	if replyPid != nil {
		parent, err := s.posts.GetByID(ctx, sid, *replyPid)
		if err != nil {
			return nil, err
		}
		if parent == nil || parent.IsDeleted() || parent.Tid != tid {
			return nil, apperr.NotFound("被回复的评论不存在")
		}
		if parent.IsFirst {
			return nil, apperr.InvalidState("请直接评论主题")
		}
		if !parent.IsComment {
			return nil, apperr.InvalidState("不能回复楼中楼内容")
		}
	}

	ok, err := s.authz.CanCreatePost(ctx, sid, uid, thread)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, apperr.PermissionDenied("无权回复")
	}

	now := time.Now().Unix()
	post := &model.Post{
		Pid:        snowflake.Generate(),
		SiteID:     sid,
		Tid:        tid,
		Uid:        uid,
		ReplyPid:   replyPid,
		Message:    message,
		IsComment:  replyPid == nil,
		IsApproved: true,
		Dateline:   now,
	}

	if err := s.posts.CreateWithRecount(ctx, post); err != nil {
		logger.Error("create post failed",
			logger.Int64("site_id", sid),
			logger.Int64("tid", tid),
			logger.String("error", err.Error()))
		return nil, err
	}
	if err := s.cats.IncPosts(ctx, sid, thread.Fid, 1); err != nil {
		return nil, err
	}

	s.invalidateThread(ctx, sid, tid)
	if replyPid != nil {
		s.invalidatePost(ctx, sid, *replyPid)
	}
	s.invalidateCategory(ctx, sid, thread.Fid)
	return post, nil
}

// EditPost 编辑回帖内容（首帖内容属于主题，走 EditThread）
func (s *ModerationService) EditPost(ctx context.Context, sid, uid, pid int64, message string) error {
	post, thread, err := s.visiblePost(ctx, sid, uid, pid)
	if err != nil {
		return err
	}
	if post.IsFirst {
		return apperr.InvalidState("首帖请通过编辑主题修改")
	}

	ok, err := s.authz.CanEditPost(ctx, sid, uid, thread, post)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.PermissionDenied("无权编辑该回帖")
	}

	if err := s.posts.UpdateMessage(ctx, sid, pid, message); err != nil {
		return err
	}
	s.invalidatePost(ctx, sid, pid)
	return nil
}

// SoftDeletePost 软删除回帖（幂等），计数在仓库层同事务重算
func (s *ModerationService) SoftDeletePost(ctx context.Context, sid, uid, pid int64) error {
	post, thread, err := s.visiblePost(ctx, sid, uid, pid)
	if err != nil {
		return err
	}
	if post.IsDeleted() {
		return nil
	}
	if post.IsFirst {
		return apperr.InvalidState("首帖不可单独删除")
	}

	ok, err := s.authz.CanHidePost(ctx, sid, uid, thread, post)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.PermissionDenied("无权删除该回帖")
	}

	if err := s.posts.SoftDeleteWithRecount(ctx, sid, pid, time.Now().Unix()); err != nil {
		return err
	}
	if err := s.cats.IncPosts(ctx, sid, thread.Fid, -1); err != nil {
		return err
	}

	s.invalidatePost(ctx, sid, pid)
	s.invalidateThread(ctx, sid, thread.Tid)
	if post.ReplyPid != nil {
		s.invalidatePost(ctx, sid, *post.ReplyPid)
	}
	s.invalidateCategory(ctx, sid, thread.Fid)
	return nil
}

// RestorePost 恢复软删除的回帖（管理员专用）
func (s *ModerationService) RestorePost(ctx context.Context, sid, uid, pid int64) error {
	admin, err := s.perm.IsAdmin(ctx, sid, uid)
	if err != nil {
		return err
	}
	if !admin {
		return apperr.PermissionDenied("需要管理员权限")
	}

	post, err := s.posts.GetByID(ctx, sid, pid)
	if err != nil {
		return err
	}
	if post == nil {
		return apperr.NotFound("回帖不存在")
	}
	if !post.IsDeleted() {
		return nil
	}

	thread, err := s.threads.GetByID(ctx, sid, post.Tid)
	if err != nil {
		return err
	}

	if err := s.posts.RestoreWithRecount(ctx, sid, pid); err != nil {
		return err
	}
	if thread != nil {
		if err := s.cats.IncPosts(ctx, sid, thread.Fid, 1); err != nil {
			return err
		}
		s.invalidateThread(ctx, sid, thread.Tid)
		s.invalidateCategory(ctx, sid, thread.Fid)
	}

	s.invalidatePost(ctx, sid, pid)
	if post.ReplyPid != nil {
		s.invalidatePost(ctx, sid, *post.ReplyPid)
	}
	return nil
}

// StickyPost 主题内置顶/取消置顶回帖
// 首帖和楼中楼回复不可置顶
func (s *ModerationService) StickyPost(ctx context.Context, sid, uid, pid int64, sticky bool) error {
	post, thread, err := s.visiblePost(ctx, sid, uid, pid)
	if err != nil {
		return err
	}
	if post.IsFirst {
		return apperr.InvalidState("首帖不可置顶")
	}
	if post.ReplyPid != nil {
		return apperr.InvalidState("楼中楼回复不可置顶")
	}

	ok, err := s.authz.CanStickyPost(ctx, sid, uid, thread)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.PermissionDenied("无权置顶回帖")
	}

	if err := s.posts.SetSticky(ctx, sid, pid, sticky); err != nil {
		return err
	}
	s.invalidatePost(ctx, sid, pid)
	s.invalidateThread(ctx, sid, thread.Tid)
	return nil
}

// SetThreadSticky 置顶/取消置顶主题，同步维护"置顶"系统标签
// fids 为额外同时置顶的版块列表，仅在置顶时生效
func (s *ModerationService) SetThreadSticky(ctx context.Context, sid, uid, tid int64, sticky bool, fids []int) error {
	return s.setFlag(ctx, sid, uid, tid, sticky, model.ActionThreadSticky, model.TagSticky, fids)
}

// SetThreadEssence 加精/取消加精主题，同步维护"精华"系统标签
func (s *ModerationService) SetThreadEssence(ctx context.Context, sid, uid, tid int64, essence bool) error {
	return s.setFlag(ctx, sid, uid, tid, essence, model.ActionThreadEssence, model.TagEssence, nil)
}

// setFlag 管理标记开关 + 对应系统标签维护
func (s *ModerationService) setFlag(ctx context.Context, sid, uid, tid int64, on bool, action model.Action, tagID int, fids []int) error {
	thread, err := s.threads.GetByID(ctx, sid, tid)
	if err != nil {
		return err
	}
	if thread == nil || thread.IsDeleted() {
		return apperr.NotFound("主题不存在")
	}
	if thread.IsDraft {
		return apperr.InvalidState("草稿不可设置管理标记")
	}

	ok, err := s.perm.HasPermission(ctx, sid, uid, thread.Fid, action)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.PermissionDenied("无权设置该标记")
	}

	switch action {
	case model.ActionThreadSticky:
		thread.IsSticky = on
		if on {
			extra, err := s.stickyFids(ctx, sid, thread.Fid, fids)
			if err != nil {
				return err
			}
			thread.StickyFids = extra
		} else {
			thread.StickyFids = model.IntList{}
		}
	case model.ActionThreadEssence:
		thread.IsEssence = on
	}
	if err := s.threads.Update(ctx, thread); err != nil {
		return err
	}

	if on {
		err = s.systemBind(ctx, sid, tid, tagID)
	} else {
		err = s.systemUnbind(ctx, sid, tid, tagID)
	}
	if err != nil {
		return err
	}

	s.invalidateThread(ctx, sid, tid)
	return nil
}

// stickyFids 整理额外置顶版块：去重、剔除所在版块，版块必须存在
func (s *ModerationService) stickyFids(ctx context.Context, sid int64, own int, fids []int) (model.IntList, error) {
	out := model.IntList{}
	seen := map[int]bool{own: true}
	for _, fid := range fids {
		if seen[fid] {
			continue
		}
		cat, err := s.cats.GetByID(ctx, sid, fid)
		if err != nil {
			return nil, err
		}
		if cat == nil {
			return nil, apperr.NotFound("版块不存在")
		}
		seen[fid] = true
		out = append(out, fid)
	}
	return out, nil
}

// needModeration 审核策略：站点级开关与版块级开关取或
func (s *ModerationService) needModeration(cat *model.Category) bool {
	return s.cfg.ModerateAll || cat.Moderated
}

// commentsDisabled 评论开关三态判定，Inherit 跟随版块
func (s *ModerationService) commentsDisabled(ctx context.Context, sid int64, thread *model.Thread) (bool, error) {
	switch thread.DisableComments {
	case model.CommentsOn:
		return false, nil
	case model.CommentsOff:
		return true, nil
	}
	cat, err := s.cats.GetByID(ctx, sid, thread.Fid)
	if err != nil {
		return false, err
	}
	return cat != nil && cat.DisableComments, nil
}

// hasTag 主题是否绑定某标签
func (s *ModerationService) hasTag(ctx context.Context, sid, tid int64, tagID int) (bool, error) {
	tags, err := s.authz.ThreadTags(ctx, sid, tid)
	if err != nil {
		return false, err
	}
	for _, t := range tags {
		if t.TagID == tagID {
			return true, nil
		}
	}
	return false, nil
}

// visibleThread 取主题并做可见性裁决，不可见与不存在同样返回 NotFound
func (s *ModerationService) visibleThread(ctx context.Context, sid, uid, tid int64) (*model.Thread, error) {
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

// visiblePost 取回帖及其主题并做可见性裁决
func (s *ModerationService) visiblePost(ctx context.Context, sid, uid, pid int64) (*model.Post, *model.Thread, error) {
	post, err := s.posts.GetByID(ctx, sid, pid)
	if err != nil {
		return nil, nil, err
	}
	if post == nil {
		return nil, nil, apperr.NotFound("回帖不存在")
	}
	thread, err := s.visibleThread(ctx, sid, uid, post.Tid)
	if err != nil {
		return nil, nil, err
	}
	return post, thread, nil
}

// systemBind 系统通道绑定标签：不做名单校验，维护关联计数
func (s *ModerationService) systemBind(ctx context.Context, sid, tid int64, tagID int) error {
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
	if err := s.tags.IncThreads(ctx, sid, tagID); err != nil {
		return err
	}
	s.sites.Site(sid).Remove(ctx, cache.KindThreadTags, strconv.FormatInt(tid, 10))
	return nil
}

// systemUnbind 系统通道解绑标签
func (s *ModerationService) systemUnbind(ctx context.Context, sid, tid int64, tagID int) error {
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
	if err := s.tags.DecThreads(ctx, sid, tagID); err != nil {
		return err
	}
	s.sites.Site(sid).Remove(ctx, cache.KindThreadTags, strconv.FormatInt(tid, 10))
	return nil
}

func (s *ModerationService) invalidateThread(ctx context.Context, sid, tid int64) {
	s.sites.Site(sid).Remove(ctx, cache.KindThread, strconv.FormatInt(tid, 10))
}

func (s *ModerationService) invalidatePost(ctx context.Context, sid, pid int64) {
	s.sites.Site(sid).Remove(ctx, cache.KindPost, strconv.FormatInt(pid, 10))
}

func (s *ModerationService) invalidateCategory(ctx context.Context, sid int64, fid int) {
	site := s.sites.Site(sid)
	site.Remove(ctx, cache.KindCategory, strconv.Itoa(fid))
	site.Remove(ctx, cache.KindCategory, "all")
}
