package service

import (
	"context"
	"testing"

	"nest_go/internal/model"
	"nest_go/internal/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 常规作者环境：注册用户可看可发可回
func setupAuthor(env *testEnv) {
	env.addUser(100, "alice", model.UserNormal)
	env.addUser(999, model.AdminName, model.UserNormal)
	env.grant(10, 0, model.ActionViewThreads)
	env.grant(10, 0, model.ActionCreateThread)
	env.grant(10, 0, model.ActionThreadReply)
	env.grant(10, 0, model.ActionThreadEditOwn)
	env.grant(10, 0, model.ActionThreadHideOwn)
}

func TestCreateThread_Normal(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setupAuthor(env)

	thread, err := env.mod.CreateThread(ctx, 1, 100, 1, "标题", "正文", false)
	require.NoError(t, err)
	require.NotNil(t, thread)
	assert.Equal(t, model.ThreadOk, thread.Status)
	assert.False(t, thread.IsDraft)

	// 首帖同事务落库且已过审
	first, err := env.posts.GetFirstByThread(ctx, 1, thread.Tid)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.True(t, first.IsFirst)
	assert.True(t, first.IsApproved)
	assert.Equal(t, "正文", first.Message)

	// 版块主题数 +1
	cat, err := env.cats.GetByID(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, cat.Threads)
}

func TestCreateThread_Moderated(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setupAuthor(env)
	env.cats.cats[1].Moderated = true

	thread, err := env.mod.CreateThread(ctx, 1, 100, 1, "标题", "正文", false)
	require.NoError(t, err)
	assert.Equal(t, model.ThreadChecking, thread.Status)

	first, err := env.posts.GetFirstByThread(ctx, 1, thread.Tid)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.False(t, first.IsApproved, "审核中的主题首帖不过审")
}

func TestCreateThread_SiteWideModeration(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setupAuthor(env)
	env.mod.cfg.ModerateAll = true

	thread, err := env.mod.CreateThread(ctx, 1, 100, 1, "标题", "正文", false)
	require.NoError(t, err)
	assert.Equal(t, model.ThreadChecking, thread.Status)
}

func TestCreateThread_NoPermission(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.addUser(100, "alice", model.UserNormal)

	_, err := env.mod.CreateThread(ctx, 1, 100, 1, "标题", "正文", false)
	require.Error(t, err)
	assert.True(t, apperr.IsPermissionDenied(err))

	_, err = env.mod.CreateThread(ctx, 1, 0, 1, "标题", "正文", false)
	require.Error(t, err)
	assert.True(t, apperr.IsPermissionDenied(err))
}

func TestCreateThread_Draft(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	// 注意：不授予任何权限，草稿只要求登录且账号正常
	env.addUser(100, "alice", model.UserNormal)
	env.addUser(102, "carol", model.UserDisabled)

	thread, err := env.mod.CreateThread(ctx, 1, 100, 1, "草稿", "正文", true)
	require.NoError(t, err)
	assert.True(t, thread.IsDraft)
	assert.Equal(t, model.ThreadOk, thread.Status)

	// 草稿不计入版块主题数
	cat, err := env.cats.GetByID(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, cat.Threads)

	// 异常状态账号连草稿都不能存
	_, err = env.mod.CreateThread(ctx, 1, 102, 1, "草稿", "正文", true)
	require.Error(t, err)
	assert.True(t, apperr.IsPermissionDenied(err))
}

func TestPublishDraft(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setupAuthor(env)

	draft, err := env.mod.CreateThread(ctx, 1, 100, 1, "草稿", "正文", true)
	require.NoError(t, err)

	// 他人不能发布
	env.addUser(101, "bob", model.UserNormal)
	_, err = env.mod.PublishDraft(ctx, 1, 101, draft.Tid)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err), "草稿对他人不可见，按不存在处理")

	published, err := env.mod.PublishDraft(ctx, 1, 100, draft.Tid)
	require.NoError(t, err)
	assert.False(t, published.IsDraft)
	assert.Equal(t, model.ThreadOk, published.Status)

	cat, err := env.cats.GetByID(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, cat.Threads, "发布时才计入版块主题数")

	// 非草稿再发布报状态错误
	_, err = env.mod.PublishDraft(ctx, 1, 100, draft.Tid)
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidState(err))
}

func TestPublishDraft_ModerationAppliesAtPublish(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setupAuthor(env)

	draft, err := env.mod.CreateThread(ctx, 1, 100, 1, "草稿", "正文", true)
	require.NoError(t, err)

	// 存草稿之后版块才开审核，发布时按发布时刻的策略判
	env.cats.cats[1].Moderated = true
	published, err := env.mod.PublishDraft(ctx, 1, 100, draft.Tid)
	require.NoError(t, err)
	assert.Equal(t, model.ThreadChecking, published.Status)
}

func TestEditThread_ReentersChecking(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setupAuthor(env)
	env.cats.cats[1].Moderated = true

	thread, err := env.mod.CreateThread(ctx, 1, 100, 1, "标题", "正文", false)
	require.NoError(t, err)

	// 审核通过
	require.NoError(t, env.mod.ApproveThread(ctx, 1, 999, thread.Tid))
	got, err := env.threads.GetByID(ctx, 1, thread.Tid)
	require.NoError(t, err)
	require.Equal(t, model.ThreadOk, got.Status)

	// 作者编辑后回到审核中
	require.NoError(t, env.mod.EditThread(ctx, 1, 100, thread.Tid, "新标题", "新正文"))
	got, err = env.threads.GetByID(ctx, 1, thread.Tid)
	require.NoError(t, err)
	assert.Equal(t, model.ThreadChecking, got.Status)
	assert.Equal(t, "新标题", got.Subject)

	content, err := env.threads.GetContentByID(ctx, 1, thread.Tid)
	require.NoError(t, err)
	assert.Equal(t, "新正文", content.Message)

	// 管理员编辑不触发重审
	require.NoError(t, env.mod.ApproveThread(ctx, 1, 999, thread.Tid))
	require.NoError(t, env.mod.EditThread(ctx, 1, 999, thread.Tid, "管理员改", "正文"))
	got, err = env.threads.GetByID(ctx, 1, thread.Tid)
	require.NoError(t, err)
	assert.Equal(t, model.ThreadOk, got.Status)
}

func TestEditThread_ReviewAppliesInUnmoderatedCategory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setupAuthor(env)

	thread, err := env.mod.CreateThread(ctx, 1, 100, 1, "标题", "正文", false)
	require.NoError(t, err)
	require.Equal(t, model.ThreadOk, thread.Status)

	// 免审版块里普通用户的编辑同样触发重审
	require.NoError(t, env.mod.EditThread(ctx, 1, 100, thread.Tid, "新标题", "新正文"))
	got, err := env.threads.GetByID(ctx, 1, thread.Tid)
	require.NoError(t, err)
	assert.Equal(t, model.ThreadChecking, got.Status)
}

func TestReviewThread(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setupAuthor(env)
	env.cats.cats[1].Moderated = true

	thread, err := env.mod.CreateThread(ctx, 1, 100, 1, "标题", "正文", false)
	require.NoError(t, err)

	// 非管理员不能审
	err = env.mod.ApproveThread(ctx, 1, 100, thread.Tid)
	require.Error(t, err)
	assert.True(t, apperr.IsPermissionDenied(err))

	// 驳回
	require.NoError(t, env.mod.RejectThread(ctx, 1, 999, thread.Tid))
	got, err := env.threads.GetByID(ctx, 1, thread.Tid)
	require.NoError(t, err)
	assert.Equal(t, model.ThreadCheckFailed, got.Status)

	// 通过后首帖过审
	require.NoError(t, env.mod.ApproveThread(ctx, 1, 999, thread.Tid))
	first, err := env.posts.GetFirstByThread(ctx, 1, thread.Tid)
	require.NoError(t, err)
	assert.True(t, first.IsApproved)

	// 草稿无需审核
	draft, err := env.mod.CreateThread(ctx, 1, 100, 1, "草稿", "正文", true)
	require.NoError(t, err)
	err = env.mod.ApproveThread(ctx, 1, 999, draft.Tid)
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidState(err))
}

func TestReviewThread_DeletedGuard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setupAuthor(env)
	env.addTag(&model.ThreadTag{TagID: model.TagDeleted, SiteID: 1, Name: "已删除", Hidden: true})

	thread, err := env.mod.CreateThread(ctx, 1, 100, 1, "标题", "正文", false)
	require.NoError(t, err)
	require.NoError(t, env.mod.SoftDeleteThread(ctx, 1, 100, thread.Tid))

	// 已删除的主题不可审核，需先恢复
	err = env.mod.ApproveThread(ctx, 1, 999, thread.Tid)
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidState(err))
	err = env.mod.RejectThread(ctx, 1, 999, thread.Tid)
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidState(err))
}

func TestReviewThread_FirstPostWriteFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setupAuthor(env)
	env.cats.cats[1].Moderated = true

	thread, err := env.mod.CreateThread(ctx, 1, 100, 1, "标题", "正文", false)
	require.NoError(t, err)

	// 首帖过审状态写失败要上抛，不能留下主题与首帖不一致
	env.posts.approveErr = errFirstPostWrite
	err = env.mod.ApproveThread(ctx, 1, 999, thread.Tid)
	require.ErrorIs(t, err, errFirstPostWrite)

	env.posts.approveErr = nil
	require.NoError(t, env.mod.ApproveThread(ctx, 1, 999, thread.Tid))
	first, err := env.posts.GetFirstByThread(ctx, 1, thread.Tid)
	require.NoError(t, err)
	assert.True(t, first.IsApproved)
}

func TestSoftDeleteThread(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setupAuthor(env)
	env.addTag(&model.ThreadTag{TagID: model.TagDeleted, SiteID: 1, Name: "已删除", Hidden: true})

	thread, err := env.mod.CreateThread(ctx, 1, 100, 1, "标题", "正文", false)
	require.NoError(t, err)

	require.NoError(t, env.mod.SoftDeleteThread(ctx, 1, 100, thread.Tid))

	got, err := env.threads.GetByID(ctx, 1, thread.Tid)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted(), "软删除保留行")

	// 绑定"已删除"系统标签
	ids, err := env.binds.GetTagIDsByThread(ctx, 1, thread.Tid)
	require.NoError(t, err)
	assert.Contains(t, ids, model.TagDeleted)

	// 版块主题数回落
	cat, err := env.cats.GetByID(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, cat.Threads)

	// 重复删除幂等（作者仍可见已删除主题）
	require.NoError(t, env.mod.SoftDeleteThread(ctx, 1, 100, thread.Tid))
	cat, err = env.cats.GetByID(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, cat.Threads, "幂等删除不重复扣计数")
}

func TestRestoreThread(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setupAuthor(env)
	env.addTag(&model.ThreadTag{TagID: model.TagDeleted, SiteID: 1, Name: "已删除", Hidden: true})

	thread, err := env.mod.CreateThread(ctx, 1, 100, 1, "标题", "正文", false)
	require.NoError(t, err)
	require.NoError(t, env.mod.SoftDeleteThread(ctx, 1, 100, thread.Tid))

	// 作者不能恢复
	err = env.mod.RestoreThread(ctx, 1, 100, thread.Tid)
	require.Error(t, err)
	assert.True(t, apperr.IsPermissionDenied(err))

	require.NoError(t, env.mod.RestoreThread(ctx, 1, 999, thread.Tid))

	got, err := env.threads.GetByID(ctx, 1, thread.Tid)
	require.NoError(t, err)
	assert.False(t, got.IsDeleted())
	assert.Equal(t, model.ThreadOk, got.Status, "恢复后回到审核通过")

	ids, err := env.binds.GetTagIDsByThread(ctx, 1, thread.Tid)
	require.NoError(t, err)
	assert.NotContains(t, ids, model.TagDeleted)

	cat, err := env.cats.GetByID(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, cat.Threads)

	// 未删除主题恢复幂等
	require.NoError(t, env.mod.RestoreThread(ctx, 1, 999, thread.Tid))
	cat, err = env.cats.GetByID(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, cat.Threads)
}

func TestCreatePost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setupAuthor(env)

	thread, err := env.mod.CreateThread(ctx, 1, 100, 1, "标题", "正文", false)
	require.NoError(t, err)

	// 一级评论
	comment, err := env.mod.CreatePost(ctx, 1, 100, thread.Tid, nil, "评论")
	require.NoError(t, err)
	assert.True(t, comment.IsComment)
	assert.Nil(t, comment.ReplyPid)

	// 楼中楼回复
	reply, err := env.mod.CreatePost(ctx, 1, 100, thread.Tid, &comment.Pid, "回复")
	require.NoError(t, err)
	assert.False(t, reply.IsComment)
	require.NotNil(t, reply.ReplyPid)
	assert.Equal(t, comment.Pid, *reply.ReplyPid)

	// 楼中楼不可再嵌套
	_, err = env.mod.CreatePost(ctx, 1, 100, thread.Tid, &reply.Pid, "再回复")
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidState(err))

	// 不能以首帖为回复目标
	first, err := env.posts.GetFirstByThread(ctx, 1, thread.Tid)
	require.NoError(t, err)
	_, err = env.mod.CreatePost(ctx, 1, 100, thread.Tid, &first.Pid, "评论首帖")
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidState(err))

	// 派生计数
	got, err := env.threads.GetByID(ctx, 1, thread.Tid)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Replies, "一级评论数")
	assert.Equal(t, 2, got.Posts, "全部回帖数，不含首帖")
}

func TestCreatePost_StateGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setupAuthor(env)
	env.addTag(&model.ThreadTag{TagID: model.TagReadOnly, SiteID: 1, Name: "只读", Hidden: true})

	// 草稿不可回复
	draft, err := env.mod.CreateThread(ctx, 1, 100, 1, "草稿", "正文", true)
	require.NoError(t, err)
	_, err = env.mod.CreatePost(ctx, 1, 100, draft.Tid, nil, "评论")
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidState(err))

	// 审核中不可回复
	env.cats.cats[1].Moderated = true
	checking, err := env.mod.CreateThread(ctx, 1, 100, 1, "待审", "正文", false)
	require.NoError(t, err)
	_, err = env.mod.CreatePost(ctx, 1, 100, checking.Tid, nil, "评论")
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidState(err))
	env.cats.cats[1].Moderated = false

	// 只读标签：普通用户拒绝，管理员放行
	thread, err := env.mod.CreateThread(ctx, 1, 100, 1, "标题", "正文", false)
	require.NoError(t, err)
	env.bind(thread.Tid, model.TagReadOnly)
	_, err = env.mod.CreatePost(ctx, 1, 100, thread.Tid, nil, "评论")
	require.Error(t, err)
	assert.True(t, apperr.IsPermissionDenied(err))
	_, err = env.mod.CreatePost(ctx, 1, 999, thread.Tid, nil, "管理员评论")
	require.NoError(t, err)
}

func TestCreatePost_CommentsDisabled(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setupAuthor(env)

	thread, err := env.mod.CreateThread(ctx, 1, 100, 1, "标题", "正文", false)
	require.NoError(t, err)

	// 主题级关闭
	got, err := env.threads.GetByID(ctx, 1, thread.Tid)
	require.NoError(t, err)
	got.DisableComments = model.CommentsOff
	require.NoError(t, env.threads.Update(ctx, got))
	_, err = env.mod.CreatePost(ctx, 1, 100, thread.Tid, nil, "评论")
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidState(err))

	// 版块关闭但主题显式开启：放行
	env.cats.cats[1].DisableComments = true
	got.DisableComments = model.CommentsOn
	require.NoError(t, env.threads.Update(ctx, got))
	_, err = env.mod.CreatePost(ctx, 1, 100, thread.Tid, nil, "评论")
	require.NoError(t, err)

	// Inherit 跟随版块
	got.DisableComments = model.CommentsInherit
	require.NoError(t, env.threads.Update(ctx, got))
	_, err = env.mod.CreatePost(ctx, 1, 100, thread.Tid, nil, "评论")
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidState(err))
}

func TestSoftDeletePost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setupAuthor(env)
	env.grant(10, 0, model.ActionPostHideOwn)

	thread, err := env.mod.CreateThread(ctx, 1, 100, 1, "标题", "正文", false)
	require.NoError(t, err)
	comment, err := env.mod.CreatePost(ctx, 1, 100, thread.Tid, nil, "评论")
	require.NoError(t, err)

	// 首帖不可单独删除
	first, err := env.posts.GetFirstByThread(ctx, 1, thread.Tid)
	require.NoError(t, err)
	err = env.mod.SoftDeletePost(ctx, 1, 100, first.Pid)
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidState(err))

	require.NoError(t, env.mod.SoftDeletePost(ctx, 1, 100, comment.Pid))
	got, err := env.posts.GetByID(ctx, 1, comment.Pid)
	require.NoError(t, err)
	assert.True(t, got.IsDeleted())

	// 计数重算
	tgot, err := env.threads.GetByID(ctx, 1, thread.Tid)
	require.NoError(t, err)
	assert.Equal(t, 0, tgot.Replies)
	assert.Equal(t, 0, tgot.Posts)

	// 幂等
	require.NoError(t, env.mod.SoftDeletePost(ctx, 1, 100, comment.Pid))

	// 管理员恢复
	require.NoError(t, env.mod.RestorePost(ctx, 1, 999, comment.Pid))
	got, err = env.posts.GetByID(ctx, 1, comment.Pid)
	require.NoError(t, err)
	assert.False(t, got.IsDeleted())
	tgot, err = env.threads.GetByID(ctx, 1, thread.Tid)
	require.NoError(t, err)
	assert.Equal(t, 1, tgot.Replies)
}

func TestEditPost_FirstPostGuard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setupAuthor(env)
	env.grant(10, 0, model.ActionPostEditOwn)

	thread, err := env.mod.CreateThread(ctx, 1, 100, 1, "标题", "正文", false)
	require.NoError(t, err)

	first, err := env.posts.GetFirstByThread(ctx, 1, thread.Tid)
	require.NoError(t, err)
	err = env.mod.EditPost(ctx, 1, 100, first.Pid, "改首帖")
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidState(err))

	comment, err := env.mod.CreatePost(ctx, 1, 100, thread.Tid, nil, "评论")
	require.NoError(t, err)
	require.NoError(t, env.mod.EditPost(ctx, 1, 100, comment.Pid, "改评论"))
	got, err := env.posts.GetByID(ctx, 1, comment.Pid)
	require.NoError(t, err)
	assert.Equal(t, "改评论", got.Message)
}

func TestStickyPost(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setupAuthor(env)
	env.grant(10, 0, model.ActionThreadStickyOwnPost)

	thread, err := env.mod.CreateThread(ctx, 1, 100, 1, "标题", "正文", false)
	require.NoError(t, err)
	comment, err := env.mod.CreatePost(ctx, 1, 100, thread.Tid, nil, "评论")
	require.NoError(t, err)
	reply, err := env.mod.CreatePost(ctx, 1, 100, thread.Tid, &comment.Pid, "回复")
	require.NoError(t, err)

	// 首帖与楼中楼都不可置顶
	first, err := env.posts.GetFirstByThread(ctx, 1, thread.Tid)
	require.NoError(t, err)
	err = env.mod.StickyPost(ctx, 1, 100, first.Pid, true)
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidState(err))
	err = env.mod.StickyPost(ctx, 1, 100, reply.Pid, true)
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidState(err))

	require.NoError(t, env.mod.StickyPost(ctx, 1, 100, comment.Pid, true))
	got, err := env.posts.GetByID(ctx, 1, comment.Pid)
	require.NoError(t, err)
	assert.True(t, got.IsSticky)
}

func TestSetThreadFlags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setupAuthor(env)
	env.addTag(&model.ThreadTag{TagID: model.TagSticky, SiteID: 1, Name: "置顶", Hidden: true})
	env.addTag(&model.ThreadTag{TagID: model.TagEssence, SiteID: 1, Name: "精华", Hidden: true})

	thread, err := env.mod.CreateThread(ctx, 1, 100, 1, "标题", "正文", false)
	require.NoError(t, err)

	// 普通用户无 sticky 权限
	err = env.mod.SetThreadSticky(ctx, 1, 100, thread.Tid, true, nil)
	require.Error(t, err)
	assert.True(t, apperr.IsPermissionDenied(err))

	// 管理员置顶，系统标签跟着绑定
	require.NoError(t, env.mod.SetThreadSticky(ctx, 1, 999, thread.Tid, true, nil))
	got, err := env.threads.GetByID(ctx, 1, thread.Tid)
	require.NoError(t, err)
	assert.True(t, got.IsSticky)
	ids, err := env.binds.GetTagIDsByThread(ctx, 1, thread.Tid)
	require.NoError(t, err)
	assert.Contains(t, ids, model.TagSticky)

	// 取消置顶清掉额外置顶版块并解绑标签
	got.StickyFids = model.IntList{2, 3}
	require.NoError(t, env.threads.Update(ctx, got))
	require.NoError(t, env.mod.SetThreadSticky(ctx, 1, 999, thread.Tid, false, nil))
	got, err = env.threads.GetByID(ctx, 1, thread.Tid)
	require.NoError(t, err)
	assert.False(t, got.IsSticky)
	assert.Empty(t, got.StickyFids)
	ids, err = env.binds.GetTagIDsByThread(ctx, 1, thread.Tid)
	require.NoError(t, err)
	assert.NotContains(t, ids, model.TagSticky)

	// 加精
	require.NoError(t, env.mod.SetThreadEssence(ctx, 1, 999, thread.Tid, true))
	got, err = env.threads.GetByID(ctx, 1, thread.Tid)
	require.NoError(t, err)
	assert.True(t, got.IsEssence)
	ids, err = env.binds.GetTagIDsByThread(ctx, 1, thread.Tid)
	require.NoError(t, err)
	assert.Contains(t, ids, model.TagEssence)

	// 草稿不可设置管理标记
	draft, err := env.mod.CreateThread(ctx, 1, 100, 1, "草稿", "正文", true)
	require.NoError(t, err)
	err = env.mod.SetThreadSticky(ctx, 1, 999, draft.Tid, true, nil)
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidState(err))
}

func TestSetThreadSticky_CrossCategory(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	setupAuthor(env)
	env.addTag(&model.ThreadTag{TagID: model.TagSticky, SiteID: 1, Name: "置顶", Hidden: true})
	env.cats.cats[2] = &model.Category{Fid: 2, SiteID: 1, Name: "公告"}

	thread, err := env.mod.CreateThread(ctx, 1, 100, 1, "标题", "正文", false)
	require.NoError(t, err)

	// 额外版块必须存在
	err = env.mod.SetThreadSticky(ctx, 1, 999, thread.Tid, true, []int{5})
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))

	// 去重并剔除所在版块
	require.NoError(t, env.mod.SetThreadSticky(ctx, 1, 999, thread.Tid, true, []int{2, 2, 1}))
	got, err := env.threads.GetByID(ctx, 1, thread.Tid)
	require.NoError(t, err)
	assert.Equal(t, model.IntList{2}, got.StickyFids)

	// 额外置顶的版块列表里能看到这条主题
	svc := newThreadService(env)
	list, err := svc.List(ctx, 1, 100, 2, 1, 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, thread.Tid, list[0].Tid)

	// 取消置顶后退出其他版块的列表
	require.NoError(t, env.mod.SetThreadSticky(ctx, 1, 999, thread.Tid, false, nil))
	list, err = svc.List(ctx, 1, 100, 2, 1, 20)
	require.NoError(t, err)
	assert.Empty(t, list)
}
