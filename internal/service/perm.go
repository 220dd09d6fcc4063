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

// PermService 权限解析服务
// 有效组解析顺序：admin 账号名 > 归属记录 > 默认组 > 游客组；
// 非正常状态账号无条件降级为游客组。
// 组权限集合走站点缓存读穿，所有写操作在返回前同步点失效。
type PermService struct {
	groups repository.GroupRepository
	users  repository.UserRepository
	sites  *cache.Registry
}

// NewPermService 创建 PermService 实例
func NewPermService(groups repository.GroupRepository, users repository.UserRepository, sites *cache.Registry) *PermService {
	return &PermService{
		groups: groups,
		users:  users,
		sites:  sites,
	}
}

// GroupIDOf 解析用户的有效组（uid <= 0 视为游客）
func (s *PermService) GroupIDOf(ctx context.Context, sid, uid int64) (int64, error) {
	if uid <= 0 {
		return model.GidTourist, nil
	}

	user, err := s.UserOf(ctx, sid, uid)
	if err != nil {
		return 0, err
	}
	if user == nil {
		return model.GidTourist, nil
	}
	if user.Username == model.AdminName {
		return model.GidAdmin, nil
	}
	// 禁用/审核中等异常状态账号按游客处理
	if !user.IsNormal() {
		return model.GidTourist, nil
	}

	return s.membershipOf(ctx, sid, uid)
}

// IsAdmin 是否管理员
func (s *PermService) IsAdmin(ctx context.Context, sid, uid int64) (bool, error) {
	gid, err := s.GroupIDOf(ctx, sid, uid)
	if err != nil {
		return false, err
	}
	return gid == model.GidAdmin, nil
}

// PermissionsOf 获取用户组的权限集合（缓存读穿，永不返回 nil）
func (s *PermService) PermissionsOf(ctx context.Context, sid, gid int64) (model.PermSet, error) {
	site := s.sites.Site(sid)
	id := strconv.FormatInt(gid, 10)

	var cached []model.Perm
	if site.GetJSON(ctx, cache.KindGroupPerm, id, &cached) {
		return model.NewPermSet(cached...), nil
	}

	// SingleFlight + DB
	v, err := site.Do(cache.KindGroupPerm, id, func() (interface{}, error) {
		records, err := s.groups.GetPermissions(ctx, sid, gid)
		if err != nil {
			return nil, err
		}
		perms := make([]model.Perm, 0, len(records))
		for _, r := range records {
			perms = append(perms, model.Perm{Fid: r.Fid, Action: r.Action})
		}
		// Write Cache
		site.SetJSON(ctx, cache.KindGroupPerm, id, perms)
		return perms, nil
	})
	if err != nil {
		return nil, err
	}
	return model.NewPermSet(v.([]model.Perm)...), nil
}

// HasPermission 判定用户在版块 fid 上是否持有动作权限
// fid = 0 仅匹配全局授予；管理员组放行一切
func (s *PermService) HasPermission(ctx context.Context, sid, uid int64, fid int, action model.Action) (bool, error) {
	gid, err := s.GroupIDOf(ctx, sid, uid)
	if err != nil {
		return false, err
	}
	return s.GroupHasPermission(ctx, sid, gid, fid, action)
}

// GroupHasPermission 判定用户组是否持有动作权限
func (s *PermService) GroupHasPermission(ctx context.Context, sid, gid int64, fid int, action model.Action) (bool, error) {
	if gid == model.GidAdmin {
		return true, nil
	}
	set, err := s.PermissionsOf(ctx, sid, gid)
	if err != nil {
		return false, err
	}
	return set.Has(fid, action), nil
}

// Grant 授予权限（幂等），返回前同步失效该组权限缓存
func (s *PermService) Grant(ctx context.Context, sid, gid int64, fid int, action model.Action) error {
	if err := s.groups.Grant(ctx, sid, gid, fid, action); err != nil {
		return err
	}
	s.invalidateGroup(ctx, sid, gid)
	return nil
}

// Revoke 撤销权限，返回后的任何读都看不到旧授予
func (s *PermService) Revoke(ctx context.Context, sid, gid int64, fid int, action model.Action) error {
	if err := s.groups.Revoke(ctx, sid, gid, fid, action); err != nil {
		return err
	}
	s.invalidateGroup(ctx, sid, gid)
	return nil
}

// ReplaceAll 整体替换用户组授权
func (s *PermService) ReplaceAll(ctx context.Context, sid, gid int64, perms []model.Perm) error {
	if err := s.groups.ReplaceAll(ctx, sid, gid, perms); err != nil {
		return err
	}
	s.invalidateGroup(ctx, sid, gid)
	return nil
}

// SetMembership 设置用户归属组
func (s *PermService) SetMembership(ctx context.Context, sid, uid, gid int64) error {
	g, err := s.groups.GetByID(ctx, sid, gid)
	if err != nil {
		return err
	}
	if g == nil {
		return apperr.NotFound("用户组不存在")
	}
	if err := s.groups.SetMembership(ctx, sid, uid, gid); err != nil {
		return err
	}
	s.invalidateMembership(ctx, sid, uid)
	return nil
}

// RemoveMembership 移除用户归属（之后回落默认组）
func (s *PermService) RemoveMembership(ctx context.Context, sid, uid int64) error {
	if err := s.groups.RemoveMembership(ctx, sid, uid); err != nil {
		return err
	}
	s.invalidateMembership(ctx, sid, uid)
	return nil
}

// UserOf 用户读穿（与 UserService 共用同一缓存键）
func (s *PermService) UserOf(ctx context.Context, sid, uid int64) (*model.User, error) {
	site := s.sites.Site(sid)
	id := strconv.FormatInt(uid, 10)

	var cached model.User
	if site.GetJSON(ctx, cache.KindUser, id, &cached) {
		if cached.Uid == 0 {
			return nil, nil
		}
		return &cached, nil
	}

	v, err := site.Do(cache.KindUser, id, func() (interface{}, error) {
		user, err := s.users.GetByID(ctx, sid, uid)
		if err != nil {
			return nil, err
		}
		if user == nil {
			// 负缓存：占位空对象，避免穿透
			site.SetJSON(ctx, cache.KindUser, id, &model.User{})
			return nil, nil
		}
		site.SetJSON(ctx, cache.KindUser, id, user)
		return user, nil
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.(*model.User), nil
}

// membershipOf 归属组读穿，无归属记录回落默认组，再落游客组
func (s *PermService) membershipOf(ctx context.Context, sid, uid int64) (int64, error) {
	site := s.sites.Site(sid)
	id := strconv.FormatInt(uid, 10)

	var cached int64
	if site.GetJSON(ctx, cache.KindUserGroup, id, &cached) {
		return cached, nil
	}

	v, err := site.Do(cache.KindUserGroup, id, func() (interface{}, error) {
		gid, ok, err := s.groups.GetMembership(ctx, sid, uid)
		if err != nil {
			return nil, err
		}
		if ok {
			site.SetJSON(ctx, cache.KindUserGroup, id, gid)
			return gid, nil
		}

		def, err := s.groups.GetDefault(ctx, sid)
		if err != nil {
			return nil, err
		}
		if def == nil {
			logger.Warn("site has no default group",
				logger.Int64("site_id", sid))
			return model.GidTourist, nil
		}
		// 缓存的是解析结果；切换默认组时整站失效兜底
		site.SetJSON(ctx, cache.KindUserGroup, id, def.Gid)
		return def.Gid, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(int64), nil
}

func (s *PermService) invalidateGroup(ctx context.Context, sid, gid int64) {
	s.sites.Site(sid).Remove(ctx, cache.KindGroupPerm, strconv.FormatInt(gid, 10))
}

func (s *PermService) invalidateMembership(ctx context.Context, sid, uid int64) {
	s.sites.Site(sid).Remove(ctx, cache.KindUserGroup, strconv.FormatInt(uid, 10))
}
