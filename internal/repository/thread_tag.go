package repository

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// ThreadTagBindRepository 主题-标签绑定数据访问接口
type ThreadTagBindRepository interface {
	GetTagIDsByThread(ctx context.Context, sid, tid int64) ([]int, error)
	GetThreadIDsByTag(ctx context.Context, sid int64, tagID int) ([]int64, error)
	Exists(ctx context.Context, sid, tid int64, tagID int) (bool, error)
	Bind(ctx context.Context, sid, tid int64, tagID int) error
	Unbind(ctx context.Context, sid, tid int64, tagID int) error
	UnbindAllByThread(ctx context.Context, sid, tid int64) error
	UnbindAllByTag(ctx context.Context, sid int64, tagID int) error
}

// threadTagBindRepository 主题-标签绑定数据访问实现
type threadTagBindRepository struct {
	db *sqlx.DB
}

// NewThreadTagBindRepository 创建 ThreadTagBindRepository 实例
func NewThreadTagBindRepository(db *sqlx.DB) ThreadTagBindRepository {
	return &threadTagBindRepository{db: db}
}

// GetTagIDsByThread 获取主题绑定的 tag_id 列表
func (r *threadTagBindRepository) GetTagIDsByThread(ctx context.Context, sid, tid int64) ([]int, error) {
	var tagIDs []int
	err := r.db.SelectContext(ctx, &tagIDs,
		"SELECT tag_id FROM thread_tag_bind WHERE site_id = ? AND tid = ? ORDER BY tag_id ASC", sid, tid)
	if err != nil {
		return nil, err
	}
	return tagIDs, nil
}

// GetThreadIDsByTag 获取标签绑定的 tid 列表
func (r *threadTagBindRepository) GetThreadIDsByTag(ctx context.Context, sid int64, tagID int) ([]int64, error) {
	var tids []int64
	err := r.db.SelectContext(ctx, &tids,
		"SELECT tid FROM thread_tag_bind WHERE site_id = ? AND tag_id = ?", sid, tagID)
	if err != nil {
		return nil, err
	}
	return tids, nil
}

// Exists 绑定是否存在
func (r *threadTagBindRepository) Exists(ctx context.Context, sid, tid int64, tagID int) (bool, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM thread_tag_bind WHERE site_id = ? AND tid = ? AND tag_id = ?", sid, tid, tagID)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// Bind 创建绑定（幂等）
func (r *threadTagBindRepository) Bind(ctx context.Context, sid, tid int64, tagID int) error {
	_, err := r.db.ExecContext(ctx,
		"INSERT IGNORE INTO thread_tag_bind (site_id, tid, tag_id) VALUES (?, ?, ?)", sid, tid, tagID)
	return err
}

// Unbind 删除绑定
func (r *threadTagBindRepository) Unbind(ctx context.Context, sid, tid int64, tagID int) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM thread_tag_bind WHERE site_id = ? AND tid = ? AND tag_id = ?", sid, tid, tagID)
	return err
}

// UnbindAllByThread 删除主题的所有绑定
func (r *threadTagBindRepository) UnbindAllByThread(ctx context.Context, sid, tid int64) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM thread_tag_bind WHERE site_id = ? AND tid = ?", sid, tid)
	return err
}

// UnbindAllByTag 删除标签的所有绑定
func (r *threadTagBindRepository) UnbindAllByTag(ctx context.Context, sid int64, tagID int) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM thread_tag_bind WHERE site_id = ? AND tag_id = ?", sid, tagID)
	return err
}
