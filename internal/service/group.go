package service

import (
	"context"

	"nest_go/internal/cache"
	"nest_go/internal/core/logger"
	"nest_go/internal/model"
	"nest_go/internal/pkg/apperr"
	"nest_go/internal/repository"
)

// GroupService 用户组管理服务
// 组结构变更影响的用户集合未知，删除组/切换默认组后整站缓存失效兜底
type GroupService struct {
	repo  repository.GroupRepository
	perm  *PermService
	sites *cache.Registry
}

// NewGroupService 创建 GroupService 实例
func NewGroupService(repo repository.GroupRepository, perm *PermService, sites *cache.Registry) *GroupService {
	return &GroupService{
		repo:  repo,
		perm:  perm,
		sites: sites,
	}
}

// GetAll 获取站点全部用户组
func (s *GroupService) GetAll(ctx context.Context, sid int64) ([]*model.GroupDTO, error) {
	groups, err := s.repo.GetAll(ctx, sid)
	if err != nil {
		return nil, err
	}
	list := make([]*model.GroupDTO, 0, len(groups))
	for _, g := range groups {
		list = append(list, &model.GroupDTO{
			Gid:       g.Gid,
			Name:      g.Name,
			IsDefault: g.IsDefault,
		})
	}
	return list, nil
}

// Create 创建用户组（管理员专用）
func (s *GroupService) Create(ctx context.Context, sid, uid int64, name string) (*model.GroupDTO, error) {
	if err := s.requireAdmin(ctx, sid, uid); err != nil {
		return nil, err
	}

	g := &model.Group{SiteID: sid, Name: name}
	gid, err := s.repo.Create(ctx, g)
	if err != nil {
		logger.Error("create group failed",
			logger.Int64("site_id", sid),
			logger.String("name", name),
			logger.String("error", err.Error()))
		return nil, err
	}
	return &model.GroupDTO{Gid: gid, Name: name}, nil
}

// Rename 重命名用户组（管理员专用）
func (s *GroupService) Rename(ctx context.Context, sid, uid, gid int64, name string) error {
	if err := s.requireAdmin(ctx, sid, uid); err != nil {
		return err
	}

	g, err := s.repo.GetByID(ctx, sid, gid)
	if err != nil {
		return err
	}
	if g == nil {
		return apperr.NotFound("用户组不存在")
	}

	g.Name = name
	return s.repo.Update(ctx, g)
}

// Delete 删除用户组（管理员专用）
// 保留组、默认组、最后一个组都不可删；原成员回落默认组
func (s *GroupService) Delete(ctx context.Context, sid, uid, gid int64) error {
	if err := s.requireAdmin(ctx, sid, uid); err != nil {
		return err
	}
	if gid == model.GidAdmin || gid == model.GidTourist {
		return apperr.InvalidState("保留用户组不可删除")
	}

	g, err := s.repo.GetByID(ctx, sid, gid)
	if err != nil {
		return err
	}
	if g == nil {
		return apperr.NotFound("用户组不存在")
	}
	if g.IsDefault {
		return apperr.InvalidState("请先将默认组切换到其他组")
	}

	count, err := s.repo.Count(ctx, sid)
	if err != nil {
		return err
	}
	if count <= 1 {
		return apperr.InvalidState("至少保留一个用户组")
	}

	if err := s.repo.Delete(ctx, sid, gid); err != nil {
		return err
	}
	// 受影响成员集合未知，整站失效
	return s.sites.FlushSite(ctx, sid)
}

// SetDefault 切换默认用户组（管理员专用）
// 未显式归组的用户全部受影响，整站失效
func (s *GroupService) SetDefault(ctx context.Context, sid, uid, gid int64) error {
	if err := s.requireAdmin(ctx, sid, uid); err != nil {
		return err
	}

	g, err := s.repo.GetByID(ctx, sid, gid)
	if err != nil {
		return err
	}
	if g == nil {
		return apperr.NotFound("用户组不存在")
	}
	if gid == model.GidTourist {
		return apperr.InvalidState("游客组不可设为默认组")
	}

	if err := s.repo.SetDefault(ctx, sid, gid); err != nil {
		return err
	}
	return s.sites.FlushSite(ctx, sid)
}

// Permissions 获取用户组授权列表（管理员专用）
func (s *GroupService) Permissions(ctx context.Context, sid, uid, gid int64) ([]model.Perm, error) {
	if err := s.requireAdmin(ctx, sid, uid); err != nil {
		return nil, err
	}
	set, err := s.perm.PermissionsOf(ctx, sid, gid)
	if err != nil {
		return nil, err
	}
	return set.Slice(), nil
}

// Grant 授予权限（管理员专用）
func (s *GroupService) Grant(ctx context.Context, sid, uid, gid int64, fid int, action model.Action) error {
	if err := s.requireAdmin(ctx, sid, uid); err != nil {
		return err
	}
	return s.perm.Grant(ctx, sid, gid, fid, action)
}

// Revoke 撤销权限（管理员专用）
func (s *GroupService) Revoke(ctx context.Context, sid, uid, gid int64, fid int, action model.Action) error {
	if err := s.requireAdmin(ctx, sid, uid); err != nil {
		return err
	}
	return s.perm.Revoke(ctx, sid, gid, fid, action)
}

// ReplaceAll 整体替换授权（管理员专用）
func (s *GroupService) ReplaceAll(ctx context.Context, sid, uid, gid int64, perms []model.Perm) error {
	if err := s.requireAdmin(ctx, sid, uid); err != nil {
		return err
	}
	return s.perm.ReplaceAll(ctx, sid, gid, perms)
}

// MoveUser 调整用户归属组（管理员专用）
func (s *GroupService) MoveUser(ctx context.Context, sid, uid, targetUid, gid int64) error {
	if err := s.requireAdmin(ctx, sid, uid); err != nil {
		return err
	}
	return s.perm.SetMembership(ctx, sid, targetUid, gid)
}

func (s *GroupService) requireAdmin(ctx context.Context, sid, uid int64) error {
	admin, err := s.perm.IsAdmin(ctx, sid, uid)
	if err != nil {
		return err
	}
	if !admin {
		return apperr.PermissionDenied("需要管理员权限")
	}
	return nil
}
