package service

import (
	"context"
	"testing"

	"nest_go/internal/model"
	"nest_go/internal/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCategoryService(env *testEnv) *CategoryService {
	return NewCategoryService(env.cats, env.perm, env.sites)
}

func TestCategoryCRUD(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := newCategoryService(env)

	env.addUser(100, "alice", model.UserNormal)
	env.addUser(999, model.AdminName, model.UserNormal)

	// 非管理员拒绝
	_, err := svc.Create(ctx, 1, 100, &model.Category{Name: "新版块"})
	require.Error(t, err)
	assert.True(t, apperr.IsPermissionDenied(err))

	cat, err := svc.Create(ctx, 1, 999, &model.Category{Name: "新版块"})
	require.NoError(t, err)
	assert.NotZero(t, cat.Fid)

	// 列表失效后包含新版块
	all, err := svc.GetAll(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	cat.Name = "改名版块"
	require.NoError(t, svc.Update(ctx, 1, 999, cat))
	got, err := svc.Get(ctx, 1, cat.Fid)
	require.NoError(t, err)
	assert.Equal(t, "改名版块", got.Name)

	require.NoError(t, svc.Delete(ctx, 1, 999, cat.Fid))
	got, err = svc.Get(ctx, 1, cat.Fid)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestCategoryDelete_Guards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := newCategoryService(env)

	env.addUser(999, model.AdminName, model.UserNormal)

	// 最后一个版块不可删
	err := svc.Delete(ctx, 1, 999, 1)
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidState(err))

	// 有主题的版块不可删
	env.cats.cats[2] = &model.Category{Fid: 2, SiteID: 1, Name: "二号版块", Threads: 3}
	err = svc.Delete(ctx, 1, 999, 2)
	require.Error(t, err)
	assert.True(t, apperr.IsInvalidState(err))

	err = svc.Delete(ctx, 1, 999, 555)
	require.Error(t, err)
	assert.True(t, apperr.IsNotFound(err))
}

func TestCategoryTree(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := newCategoryService(env)

	env.cats.cats[2] = &model.Category{Fid: 2, SiteID: 1, Name: "子版块", Parent: 1}
	env.cats.cats[3] = &model.Category{Fid: 3, SiteID: 1, Name: "另一个一级版块"}

	tree, err := svc.GetTree(ctx, 1)
	require.NoError(t, err)
	require.Len(t, tree, 2)

	var root *model.CategoryTree
	for _, n := range tree {
		if n.Fid == 1 {
			root = n
		}
	}
	require.NotNil(t, root)
	require.Len(t, root.Children, 1)
	assert.Equal(t, 2, root.Children[0].Fid)
}

func TestCategoryGet_NegativeCaching(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	svc := newCategoryService(env)

	got, err := svc.Get(ctx, 1, 999)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = svc.Get(ctx, 1, 999)
	require.NoError(t, err)
	assert.Nil(t, got)
}
