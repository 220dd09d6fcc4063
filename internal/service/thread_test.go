package service

import (
	"context"
	"testing"

	"nest_go/internal/model"
	"nest_go/internal/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newThreadService(env *testEnv) *ThreadService {
	return NewThreadService(env.threads, env.posts, env.authz, env.sites)
}

func TestThreadGet_NegativeCaching(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := newThreadService(env)

	thread, err := svc.Get(ctx, 1, 999)
	require.NoError(t, err)
	assert.Nil(t, thread)

	thread, err = svc.Get(ctx, 1, 999)
	require.NoError(t, err)
	assert.Nil(t, thread)

	env.addThread(okThread(1, 100, 1))
	thread, err = svc.Get(ctx, 1, 1)
	require.NoError(t, err)
	require.NotNil(t, thread)
	assert.Equal(t, int64(1), thread.Tid)
}

func TestThreadGetDetail(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := newThreadService(env)

	env.addUser(100, "alice", model.UserNormal)
	env.grant(10, 0, model.ActionViewThreads)
	env.addThread(okThread(1, 100, 1))
	env.addTag(&model.ThreadTag{TagID: 200, SiteID: 1, Name: "活动"})
	env.bind(1, 200)

	dto, err := svc.GetDetail(ctx, 1, 100, 1)
	require.NoError(t, err)
	assert.Equal(t, "正文", dto.Message)
	assert.Equal(t, []int{200}, dto.TagIDs)

	// 浏览量落库
	got, err := env.threads.GetByID(ctx, 1, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, got.Views)

	// 不存在按 NotFound
	_, err = svc.GetDetail(ctx, 1, 100, 999)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestThreadGetDetail_InvisibleIsNotFound(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := newThreadService(env)

	env.addUser(100, "alice", model.UserNormal)
	env.addUser(101, "bob", model.UserNormal)
	env.grant(10, 0, model.ActionViewThreads)

	checking := okThread(1, 100, 1)
	checking.Status = model.ThreadChecking
	env.addThread(checking)

	// 他人眼里审核中的主题与不存在不可区分
	_, err := svc.GetDetail(ctx, 1, 101, 1)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))

	dto, err := svc.GetDetail(ctx, 1, 100, 1)
	require.NoError(t, err)
	assert.Equal(t, model.ThreadChecking, dto.Status)
}

func TestThreadList_FiltersPerViewer(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := newThreadService(env)

	env.addUser(100, "alice", model.UserNormal)
	env.addUser(101, "bob", model.UserNormal)
	env.grant(10, 0, model.ActionViewThreads)
	env.grant(model.GidTourist, 0, model.ActionViewThreads)

	env.addThread(okThread(1, 100, 1))
	checking := okThread(2, 100, 1)
	checking.Status = model.ThreadChecking
	env.addThread(checking)
	draft := okThread(3, 100, 1)
	draft.IsDraft = true
	env.addThread(draft)

	// 作者看到自己的审核中主题，草稿不入任何列表
	list, err := svc.List(ctx, 1, 100, 1, 1, 20)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	// 他人与游客只看到正常主题
	for _, uid := range []int64{101, 0} {
		list, err = svc.List(ctx, 1, uid, 1, 1, 20)
		require.NoError(t, err)
		require.Len(t, list, 1, "uid=%d", uid)
		assert.Equal(t, int64(1), list[0].Tid)
	}
}

func TestThreadListDrafts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := newThreadService(env)

	env.addUser(100, "alice", model.UserNormal)
	draft := okThread(3, 100, 1)
	draft.IsDraft = true
	env.addThread(draft)

	// 未登录拒绝
	_, err := svc.ListDrafts(ctx, 1, 0, 1, 20)
	require.Error(t, err)
	assert.True(t, apperr.IsPermissionDenied(err))

	list, err := svc.ListDrafts(ctx, 1, 100, 1, 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].IsDraft)
}

func TestThreadListPosts(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := newThreadService(env)

	env.addUser(100, "alice", model.UserNormal)
	env.grant(10, 0, model.ActionViewThreads)
	env.addThread(okThread(1, 100, 1))
	env.addPost(&model.Post{Pid: 10, SiteID: 1, Tid: 1, Uid: 100, IsFirst: true, Message: "正文"})
	env.addPost(&model.Post{Pid: 11, SiteID: 1, Tid: 1, Uid: 100, IsComment: true, Message: "评论一"})
	env.addPost(&model.Post{Pid: 12, SiteID: 1, Tid: 1, Uid: 100, IsComment: true, Message: "评论二"})
	reply := int64(11)
	env.addPost(&model.Post{Pid: 13, SiteID: 1, Tid: 1, Uid: 100, ReplyPid: &reply, Message: "楼中楼"})

	posts, err := svc.ListPosts(ctx, 1, 100, 1, 1, 20)
	require.NoError(t, err)
	assert.Len(t, posts, 2, "首帖与楼中楼不入一级评论列表")

	replies, err := svc.ListReplies(ctx, 1, 100, 11, 1, 20)
	require.NoError(t, err)
	require.Len(t, replies, 1)
	assert.Equal(t, "楼中楼", replies[0].Message)
}

func TestPageRange(t *testing.T) {
	off, lim := pageRange(0, 0)
	assert.Equal(t, 0, off)
	assert.Equal(t, 20, lim)

	off, lim = pageRange(3, 50)
	assert.Equal(t, 100, off)
	assert.Equal(t, 50, lim)

	_, lim = pageRange(1, 1000)
	assert.Equal(t, 20, lim, "超限回落默认页大小")
}
