package repository

import (
	"context"
	"database/sql"

	"nest_go/internal/model"

	"github.com/jmoiron/sqlx"
)

// UserRepository 用户数据访问接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, sid, uid int64) (*model.User, error)
	GetByUsername(ctx context.Context, sid int64, username string) (*model.User, error)
	Update(ctx context.Context, user *model.User) error
	UpdateStatus(ctx context.Context, sid, uid int64, status int) error
	UpdateLastvisit(ctx context.Context, sid, uid int64, timestamp int64) error
}

// NewUserRepository 创建用户仓库
func NewUserRepository(db *sqlx.DB) UserRepository {
	return &userRepository{db: db}
}

type userRepository struct {
	db *sqlx.DB
}

const userColumns = "uid, site_id, username, password, email, avatar, status, dateline, lastvisit, created_at, updated_at"

// Create 创建用户
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO user (uid, site_id, username, password, email, avatar, status, dateline, lastvisit, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())
	`
	_, err := r.db.ExecContext(ctx, query,
		user.Uid, user.SiteID, user.Username, user.Password, user.Email,
		user.Avatar, user.Status, user.Dateline, user.Lastvisit)
	return err
}

// GetByID 根据ID获取用户
// 不过滤状态：非正常账号也要能查出来，由权限层降级处理
func (r *userRepository) GetByID(ctx context.Context, sid, uid int64) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user,
		"SELECT "+userColumns+" FROM user WHERE site_id = ? AND uid = ?", sid, uid)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByUsername 根据用户名获取用户
func (r *userRepository) GetByUsername(ctx context.Context, sid int64, username string) (*model.User, error) {
	var user model.User
	err := r.db.GetContext(ctx, &user,
		"SELECT "+userColumns+" FROM user WHERE site_id = ? AND username = ?", sid, username)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update 更新用户
func (r *userRepository) Update(ctx context.Context, user *model.User) error {
	query := `
		UPDATE user SET username=?, email=?, avatar=?, status=?, updated_at=NOW()
		WHERE site_id=? AND uid=?
	`
	_, err := r.db.ExecContext(ctx, query,
		user.Username, user.Email, user.Avatar, user.Status, user.SiteID, user.Uid)
	return err
}

// UpdateStatus 更新账号状态
func (r *userRepository) UpdateStatus(ctx context.Context, sid, uid int64, status int) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE user SET status=?, updated_at=NOW() WHERE site_id=? AND uid=?", status, sid, uid)
	return err
}

// UpdateLastvisit 更新最后访问时间
func (r *userRepository) UpdateLastvisit(ctx context.Context, sid, uid int64, timestamp int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE user SET lastvisit=? WHERE site_id=? AND uid=?", timestamp, sid, uid)
	return err
}
