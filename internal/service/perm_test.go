package service

import (
	"context"
	"testing"

	"nest_go/internal/model"
	"nest_go/internal/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupIDOf_Resolution(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addUser(100, "alice", model.UserNormal)
	env.addUser(101, "bob", model.UserNormal)
	env.addUser(102, "carol", model.UserDisabled)
	env.addUser(103, model.AdminName, model.UserNormal)
	env.groups.members[101] = 20
	env.groups.groups[20] = &model.Group{Gid: 20, SiteID: 1, Name: "版主"}

	// 游客
	gid, err := env.perm.GroupIDOf(ctx, 1, 0)
	require.NoError(t, err)
	assert.Equal(t, model.GidTourist, gid)

	gid, err = env.perm.GroupIDOf(ctx, 1, -5)
	require.NoError(t, err)
	assert.Equal(t, model.GidTourist, gid)

	// 无归属记录回落默认组
	gid, err = env.perm.GroupIDOf(ctx, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(10), gid)

	// 显式归属优先于默认组
	gid, err = env.perm.GroupIDOf(ctx, 1, 101)
	require.NoError(t, err)
	assert.Equal(t, int64(20), gid)

	// 禁用账号降级为游客
	gid, err = env.perm.GroupIDOf(ctx, 1, 102)
	require.NoError(t, err)
	assert.Equal(t, model.GidTourist, gid)

	// admin 账号名直接命中管理员组
	gid, err = env.perm.GroupIDOf(ctx, 1, 103)
	require.NoError(t, err)
	assert.Equal(t, model.GidAdmin, gid)

	// 不存在的用户按游客
	gid, err = env.perm.GroupIDOf(ctx, 1, 999)
	require.NoError(t, err)
	assert.Equal(t, model.GidTourist, gid)
}

func TestGroupIDOf_NoDefaultGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.groups.groups[10].IsDefault = false
	env.addUser(100, "alice", model.UserNormal)

	gid, err := env.perm.GroupIDOf(ctx, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, model.GidTourist, gid)
}

func TestPermissionsOf_NeverNil(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	set, err := env.perm.PermissionsOf(ctx, 1, 10)
	require.NoError(t, err)
	assert.NotNil(t, set)
	assert.Len(t, set, 0)

	// 第二次命中缓存，同样非 nil
	set, err = env.perm.PermissionsOf(ctx, 1, 10)
	require.NoError(t, err)
	assert.NotNil(t, set)
}

func TestHasPermission_Scope(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addUser(100, "alice", model.UserNormal)
	env.grant(10, 0, model.ActionViewThreads) // 全局
	env.grant(10, 2, model.ActionCreateThread)

	// 全局授予在任意版块生效
	ok, err := env.perm.HasPermission(ctx, 1, 100, 1, model.ActionViewThreads)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = env.perm.HasPermission(ctx, 1, 100, 0, model.ActionViewThreads)
	require.NoError(t, err)
	assert.True(t, ok)

	// 版块授予只在该版块生效
	ok, err = env.perm.HasPermission(ctx, 1, 100, 2, model.ActionCreateThread)
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = env.perm.HasPermission(ctx, 1, 100, 1, model.ActionCreateThread)
	require.NoError(t, err)
	assert.False(t, ok)

	// fid 0 只匹配全局授予，版块授予不向上蕴含
	ok, err = env.perm.HasPermission(ctx, 1, 100, 0, model.ActionCreateThread)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGroupHasPermission_AdminBypass(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	ok, err := env.perm.GroupHasPermission(ctx, 1, model.GidAdmin, 1, model.ActionThreadEssence)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRevoke_InvalidatesImmediately(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addUser(100, "alice", model.UserNormal)
	require.NoError(t, env.perm.Grant(ctx, 1, 10, 1, model.ActionCreateThread))

	ok, err := env.perm.HasPermission(ctx, 1, 100, 1, model.ActionCreateThread)
	require.NoError(t, err)
	require.True(t, ok)

	// 撤销返回后立即生效，不等缓存过期
	require.NoError(t, env.perm.Revoke(ctx, 1, 10, 1, model.ActionCreateThread))
	ok, err = env.perm.HasPermission(ctx, 1, 100, 1, model.ActionCreateThread)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReplaceAll_InvalidatesImmediately(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.grant(10, 1, model.ActionCreateThread)
	set, err := env.perm.PermissionsOf(ctx, 1, 10)
	require.NoError(t, err)
	require.True(t, set.Has(1, model.ActionCreateThread))

	err = env.perm.ReplaceAll(ctx, 1, 10, []model.Perm{{Fid: 0, Action: model.ActionViewThreads}})
	require.NoError(t, err)

	set, err = env.perm.PermissionsOf(ctx, 1, 10)
	require.NoError(t, err)
	assert.False(t, set.Has(1, model.ActionCreateThread))
	assert.True(t, set.Has(5, model.ActionViewThreads))
}

func TestSetMembership(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.addUser(100, "alice", model.UserNormal)
	env.groups.groups[20] = &model.Group{Gid: 20, SiteID: 1, Name: "版主"}

	// 先解析一次，把归属灌进缓存
	gid, err := env.perm.GroupIDOf(ctx, 1, 100)
	require.NoError(t, err)
	require.Equal(t, int64(10), gid)

	// 调组后立刻生效
	require.NoError(t, env.perm.SetMembership(ctx, 1, 100, 20))
	gid, err = env.perm.GroupIDOf(ctx, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(20), gid)

	// 移除归属回落默认组
	require.NoError(t, env.perm.RemoveMembership(ctx, 1, 100))
	gid, err = env.perm.GroupIDOf(ctx, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(10), gid)
}

func TestSetMembership_UnknownGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	err := env.perm.SetMembership(ctx, 1, 100, 999)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestUserOf_NegativeCaching(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// 不存在的用户：第一次回源，第二次命中负缓存
	u, err := env.perm.UserOf(ctx, 1, 999)
	require.NoError(t, err)
	assert.Nil(t, u)

	u, err = env.perm.UserOf(ctx, 1, 999)
	require.NoError(t, err)
	assert.Nil(t, u)

	env.addUser(100, "alice", model.UserNormal)
	u, err = env.perm.UserOf(ctx, 1, 100)
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "alice", u.Username)
}
