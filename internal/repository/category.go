package repository

import (
	"context"
	"database/sql"

	"nest_go/internal/model"

	"github.com/jmoiron/sqlx"
)

// CategoryRepository 版块数据访问接口
type CategoryRepository interface {
	GetByID(ctx context.Context, sid int64, fid int) (*model.Category, error)
	GetAll(ctx context.Context, sid int64) ([]*model.Category, error)
	Create(ctx context.Context, cat *model.Category) (int, error)
	Update(ctx context.Context, cat *model.Category) error
	Delete(ctx context.Context, sid int64, fid int) error
	Count(ctx context.Context, sid int64) (int, error)
	IncThreads(ctx context.Context, sid int64, fid, delta int) error
	IncPosts(ctx context.Context, sid int64, fid, delta int) error
}

// categoryRepository 版块数据访问实现
type categoryRepository struct {
	db *sqlx.DB
}

// NewCategoryRepository 创建 CategoryRepository 实例
func NewCategoryRepository(db *sqlx.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

const categoryColumns = "fid, site_id, name, parent, sort_order, threads, posts, moderated, disable_comments, status, created_at, updated_at"

// GetByID 根据 ID 获取版块
func (r *categoryRepository) GetByID(ctx context.Context, sid int64, fid int) (*model.Category, error) {
	var cat model.Category
	err := r.db.GetContext(ctx, &cat,
		"SELECT "+categoryColumns+" FROM category WHERE site_id = ? AND fid = ?", sid, fid)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &cat, nil
}

// GetAll 获取站点全部版块
func (r *categoryRepository) GetAll(ctx context.Context, sid int64) ([]*model.Category, error) {
	var cats []*model.Category
	err := r.db.SelectContext(ctx, &cats,
		"SELECT "+categoryColumns+" FROM category WHERE site_id = ? ORDER BY sort_order ASC, fid ASC", sid)
	if err != nil {
		return nil, err
	}
	return cats, nil
}

// Create 创建版块
func (r *categoryRepository) Create(ctx context.Context, cat *model.Category) (int, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO category (site_id, name, parent, sort_order, threads, posts, moderated, disable_comments, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`,
		cat.SiteID, cat.Name, cat.Parent, cat.Order, cat.Threads, cat.Posts,
		cat.Moderated, cat.DisableComments, cat.Status)
	if err != nil {
		return 0, err
	}
	fid, _ := result.LastInsertId()
	return int(fid), nil
}

// Update 更新版块
func (r *categoryRepository) Update(ctx context.Context, cat *model.Category) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE category SET name = ?, parent = ?, sort_order = ?, moderated = ?, disable_comments = ?, status = ?, updated_at = NOW()
		 WHERE site_id = ? AND fid = ?`,
		cat.Name, cat.Parent, cat.Order, cat.Moderated, cat.DisableComments, cat.Status,
		cat.SiteID, cat.Fid)
	return err
}

// Delete 删除版块
func (r *categoryRepository) Delete(ctx context.Context, sid int64, fid int) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM category WHERE site_id = ? AND fid = ?", sid, fid)
	return err
}

// Count 站点版块总数
func (r *categoryRepository) Count(ctx context.Context, sid int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM category WHERE site_id = ?", sid)
	if err != nil {
		return 0, err
	}
	return count, nil
}

// IncThreads 调整主题数
func (r *categoryRepository) IncThreads(ctx context.Context, sid int64, fid, delta int) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE category SET threads = GREATEST(threads + ?, 0) WHERE site_id = ? AND fid = ?", delta, sid, fid)
	return err
}

// IncPosts 调整帖子数
func (r *categoryRepository) IncPosts(ctx context.Context, sid int64, fid, delta int) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE category SET posts = GREATEST(posts + ?, 0) WHERE site_id = ? AND fid = ?", delta, sid, fid)
	return err
}
