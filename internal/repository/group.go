package repository

import (
	"context"
	"database/sql"

	"nest_go/internal/model"

	"github.com/jmoiron/sqlx"
)

// GroupRepository 用户组/权限/归属数据访问接口
type GroupRepository interface {
	GetByID(ctx context.Context, sid, gid int64) (*model.Group, error)
	GetAll(ctx context.Context, sid int64) ([]*model.Group, error)
	GetDefault(ctx context.Context, sid int64) (*model.Group, error)
	Create(ctx context.Context, g *model.Group) (int64, error)
	Update(ctx context.Context, g *model.Group) error
	Delete(ctx context.Context, sid, gid int64) error
	Count(ctx context.Context, sid int64) (int, error)
	// SetDefault 原子切换默认组：取消旧默认并标记新默认
	SetDefault(ctx context.Context, sid, gid int64) error

	GetPermissions(ctx context.Context, sid, gid int64) ([]*model.GroupPermission, error)
	Grant(ctx context.Context, sid, gid int64, fid int, action model.Action) error
	Revoke(ctx context.Context, sid, gid int64, fid int, action model.Action) error
	ReplaceAll(ctx context.Context, sid, gid int64, perms []model.Perm) error

	GetMembership(ctx context.Context, sid, uid int64) (int64, bool, error)
	SetMembership(ctx context.Context, sid, uid, gid int64) error
	RemoveMembership(ctx context.Context, sid, uid int64) error
}

// groupRepository 用户组数据访问实现
type groupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository 创建 GroupRepository 实例
func NewGroupRepository(db *sqlx.DB) GroupRepository {
	return &groupRepository{db: db}
}

// GetByID 根据 ID 获取用户组
func (r *groupRepository) GetByID(ctx context.Context, sid, gid int64) (*model.Group, error) {
	var g model.Group
	err := r.db.GetContext(ctx, &g,
		"SELECT gid, site_id, name, is_default, created_at, updated_at FROM `group` WHERE site_id = ? AND gid = ?",
		sid, gid)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

// GetAll 获取站点全部用户组
func (r *groupRepository) GetAll(ctx context.Context, sid int64) ([]*model.Group, error) {
	var groups []*model.Group
	err := r.db.SelectContext(ctx, &groups,
		"SELECT gid, site_id, name, is_default, created_at, updated_at FROM `group` WHERE site_id = ? ORDER BY gid ASC",
		sid)
	if err != nil {
		return nil, err
	}
	return groups, nil
}

// GetDefault 获取默认用户组
func (r *groupRepository) GetDefault(ctx context.Context, sid int64) (*model.Group, error) {
	var g model.Group
	err := r.db.GetContext(ctx, &g,
		"SELECT gid, site_id, name, is_default, created_at, updated_at FROM `group` WHERE site_id = ? AND is_default = 1",
		sid)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

// Create 创建用户组
func (r *groupRepository) Create(ctx context.Context, g *model.Group) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		"INSERT INTO `group` (site_id, name, is_default, created_at, updated_at) VALUES (?, ?, ?, NOW(), NOW())",
		g.SiteID, g.Name, g.IsDefault)
	if err != nil {
		return 0, err
	}
	gid, _ := result.LastInsertId()
	return gid, nil
}

// Update 更新用户组
func (r *groupRepository) Update(ctx context.Context, g *model.Group) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE `group` SET name = ?, updated_at = NOW() WHERE site_id = ? AND gid = ?",
		g.Name, g.SiteID, g.Gid)
	return err
}

// Delete 删除用户组及其授权、归属
func (r *groupRepository) Delete(ctx context.Context, sid, gid int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, "DELETE FROM group_permission WHERE site_id = ? AND gid = ?", sid, gid); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM user_group WHERE site_id = ? AND gid = ?", sid, gid); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx, "DELETE FROM `group` WHERE site_id = ? AND gid = ?", sid, gid); err != nil {
		return err
	}

	return tx.Commit()
}

// Count 站点用户组总数
func (r *groupRepository) Count(ctx context.Context, sid int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM `group` WHERE site_id = ?", sid)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// SetDefault 原子切换默认组
func (r *groupRepository) SetDefault(ctx context.Context, sid, gid int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx,
		"UPDATE `group` SET is_default = 0, updated_at = NOW() WHERE site_id = ? AND is_default = 1", sid); err != nil {
		return err
	}
	if _, err = tx.ExecContext(ctx,
		"UPDATE `group` SET is_default = 1, updated_at = NOW() WHERE site_id = ? AND gid = ?", sid, gid); err != nil {
		return err
	}

	return tx.Commit()
}

// GetPermissions 获取用户组全部授权记录
func (r *groupRepository) GetPermissions(ctx context.Context, sid, gid int64) ([]*model.GroupPermission, error) {
	var perms []*model.GroupPermission
	err := r.db.SelectContext(ctx, &perms,
		"SELECT id, site_id, gid, fid, action FROM group_permission WHERE site_id = ? AND gid = ?",
		sid, gid)
	if err != nil {
		return nil, err
	}
	return perms, nil
}

// Grant 授予权限（集合语义，重复授予不报错）
func (r *groupRepository) Grant(ctx context.Context, sid, gid int64, fid int, action model.Action) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT IGNORE INTO group_permission (site_id, gid, fid, action) VALUES (?, ?, ?, ?)",
		sid, gid, fid, action)
	return err
}

// Revoke 撤销权限
func (r *groupRepository) Revoke(ctx context.Context, sid, gid int64, fid int, action model.Action) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM group_permission WHERE site_id = ? AND gid = ? AND fid = ? AND action = ?",
		sid, gid, fid, action)
	return err
}

// ReplaceAll 整体替换用户组授权
func (r *groupRepository) ReplaceAll(ctx context.Context, sid, gid int64, perms []model.Perm) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx,
		"DELETE FROM group_permission WHERE site_id = ? AND gid = ?", sid, gid); err != nil {
		return err
	}
	for _, p := range perms {
		if _, err = tx.ExecContext(ctx,
			"INSERT IGNORE INTO group_permission (site_id, gid, fid, action) VALUES (?, ?, ?, ?)",
			sid, gid, p.Fid, p.Action); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// GetMembership 获取用户归属的组（每用户至多一条）
func (r *groupRepository) GetMembership(ctx context.Context, sid, uid int64) (int64, bool, error) {
	var gid int64
	err := r.db.GetContext(ctx, &gid,
		"SELECT gid FROM user_group WHERE site_id = ? AND uid = ?", sid, uid)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, false, nil
		}
		return 0, false, err
	}
	return gid, true, nil
}

// SetMembership 设置用户归属（upsert）
func (r *groupRepository) SetMembership(ctx context.Context, sid, uid, gid int64) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT INTO user_group (site_id, uid, gid) VALUES (?, ?, ?) ON DUPLICATE KEY UPDATE gid = VALUES(gid)",
		sid, uid, gid)
	return err
}

// RemoveMembership 移除用户归属（回落默认组）
func (r *groupRepository) RemoveMembership(ctx context.Context, sid, uid int64) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM user_group WHERE site_id = ? AND uid = ?", sid, uid)
	return err
}
