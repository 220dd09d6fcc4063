package service

import (
	"context"
	"testing"

	"nest_go/internal/model"
	"nest_go/internal/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGroupService(env *testEnv) *GroupService {
	return NewGroupService(env.groups, env.perm, env.sites)
}

func TestGroupDelete_Guards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := newGroupService(env)

	env.addUser(100, "alice", model.UserNormal)
	env.addUser(999, model.AdminName, model.UserNormal)

	// 非管理员拒绝
	err := svc.Delete(ctx, 1, 100, 10)
	require.Error(t, err)
	assert.True(t, apperr.IsPermissionDenied(err))

	// 保留组不可删
	for _, gid := range []int64{model.GidAdmin, model.GidTourist} {
		err := svc.Delete(ctx, 1, 999, gid)
		require.Error(t, err)
		assert.True(t, apperr.IsInvalidState(err), "gid=%d", gid)
	}

	// 默认组不可删
	err = svc.Delete(ctx, 1, 999, 10)
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidState(err))

	// 不存在的组
	err = svc.Delete(ctx, 1, 999, 555)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestGroupDelete_MembersFallBackToDefault(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := newGroupService(env)

	env.addUser(100, "alice", model.UserNormal)
	env.addUser(999, model.AdminName, model.UserNormal)
	env.groups.groups[20] = &model.Group{Gid: 20, SiteID: 1, Name: "临时组"}
	env.groups.members[100] = 20

	// 先解析一次，把归属灌进缓存
	gid, err := env.perm.GroupIDOf(ctx, 1, 100)
	require.NoError(t, err)
	require.Equal(t, int64(20), gid)

	// 删组整站失效，成员立即回落默认组
	require.NoError(t, svc.Delete(ctx, 1, 999, 20))
	gid, err = env.perm.GroupIDOf(ctx, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(10), gid)
}

func TestGroupSetDefault(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := newGroupService(env)

	env.addUser(100, "alice", model.UserNormal)
	env.addUser(999, model.AdminName, model.UserNormal)
	env.groups.groups[20] = &model.Group{Gid: 20, SiteID: 1, Name: "新默认组"}

	// 游客组不可设为默认组
	err := svc.SetDefault(ctx, 1, 999, model.GidTourist)
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidState(err))

	// 未显式归组的用户此刻解析到旧默认组
	gid, err := env.perm.GroupIDOf(ctx, 1, 100)
	require.NoError(t, err)
	require.Equal(t, int64(10), gid)

	// 切换默认组整站失效，解析结果立刻跟上
	require.NoError(t, svc.SetDefault(ctx, 1, 999, 20))
	gid, err = env.perm.GroupIDOf(ctx, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(20), gid)
}

func TestGroupCreateRename(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := newGroupService(env)

	env.addUser(999, model.AdminName, model.UserNormal)

	dto, err := svc.Create(ctx, 1, 999, "版主")
	require.NoError(t, err)
	assert.NotZero(t, dto.Gid)
	assert.Equal(t, "版主", dto.Name)

	require.NoError(t, svc.Rename(ctx, 1, 999, dto.Gid, "超级版主"))
	g, err := env.groups.GetByID(ctx, 1, dto.Gid)
	require.NoError(t, err)
	assert.Equal(t, "超级版主", g.Name)

	err = svc.Rename(ctx, 1, 999, 555, "无")
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestGroupMoveUser(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := newGroupService(env)

	env.addUser(100, "alice", model.UserNormal)
	env.addUser(999, model.AdminName, model.UserNormal)
	env.groups.groups[20] = &model.Group{Gid: 20, SiteID: 1, Name: "版主"}

	require.NoError(t, svc.MoveUser(ctx, 1, 999, 100, 20))
	gid, err := env.perm.GroupIDOf(ctx, 1, 100)
	require.NoError(t, err)
	assert.Equal(t, int64(20), gid)
}
