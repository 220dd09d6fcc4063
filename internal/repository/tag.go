package repository

import (
	"context"
	"database/sql"

	"nest_go/internal/model"

	"github.com/jmoiron/sqlx"
)

// TagRepository ThreadTag 数据访问接口
type TagRepository interface {
	GetByID(ctx context.Context, sid int64, tagID int) (*model.ThreadTag, error)
	GetByIDs(ctx context.Context, sid int64, tagIDs []int) ([]*model.ThreadTag, error)
	GetByName(ctx context.Context, sid int64, name string) (*model.ThreadTag, error)
	GetAll(ctx context.Context, sid int64) ([]*model.ThreadTag, error)
	Create(ctx context.Context, tag *model.ThreadTag) (int, error)
	Update(ctx context.Context, tag *model.ThreadTag) error
	Delete(ctx context.Context, sid int64, tagID int) error
	IncThreads(ctx context.Context, sid int64, tagID int) error
	DecThreads(ctx context.Context, sid int64, tagID int) error
}

// tagRepository ThreadTag 数据访问实现
type tagRepository struct {
	db *sqlx.DB
}

// NewTagRepository 创建 TagRepository 实例
func NewTagRepository(db *sqlx.DB) TagRepository {
	return &tagRepository{db: db}
}

const tagColumns = "tag_id, site_id, name, icon, fids, use_groups, read_groups, write_groups, threads, hidden, created_at, updated_at"

// GetByID 根据 ID 获取标签
func (r *tagRepository) GetByID(ctx context.Context, sid int64, tagID int) (*model.ThreadTag, error) {
	var tag model.ThreadTag
	err := r.db.GetContext(ctx, &tag,
		"SELECT "+tagColumns+" FROM thread_tag WHERE site_id = ? AND tag_id = ?", sid, tagID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &tag, nil
}

// GetByIDs 批量获取标签（用于主题鉴权，避免 N+1 查询）
func (r *tagRepository) GetByIDs(ctx context.Context, sid int64, tagIDs []int) ([]*model.ThreadTag, error) {
	if len(tagIDs) == 0 {
		return nil, nil
	}
	query, args, err := sqlx.In(
		"SELECT "+tagColumns+" FROM thread_tag WHERE site_id = ? AND tag_id IN (?)", sid, tagIDs)
	if err != nil {
		return nil, err
	}
	var tags []*model.ThreadTag
	if err := r.db.SelectContext(ctx, &tags, r.db.Rebind(query), args...); err != nil {
		return nil, err
	}
	return tags, nil
}

// GetByName 根据名称获取标签
func (r *tagRepository) GetByName(ctx context.Context, sid int64, name string) (*model.ThreadTag, error) {
	var tag model.ThreadTag
	err := r.db.GetContext(ctx, &tag,
		"SELECT "+tagColumns+" FROM thread_tag WHERE site_id = ? AND name = ?", sid, name)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &tag, nil
}

// GetAll 获取站点全部标签
func (r *tagRepository) GetAll(ctx context.Context, sid int64) ([]*model.ThreadTag, error) {
	var tags []*model.ThreadTag
	err := r.db.SelectContext(ctx, &tags,
		"SELECT "+tagColumns+" FROM thread_tag WHERE site_id = ? ORDER BY tag_id ASC", sid)
	if err != nil {
		return nil, err
	}
	return tags, nil
}

// Create 创建标签
// 非系统标签从 100 起分配，1-99 由建站脚本固定写入
func (r *tagRepository) Create(ctx context.Context, tag *model.ThreadTag) (int, error) {
	result, err := r.db.ExecContext(ctx,
		`INSERT INTO thread_tag (site_id, name, icon, fids, use_groups, read_groups, write_groups, threads, hidden, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`,
		tag.SiteID, tag.Name, tag.Icon, tag.Fids, tag.UseGroups, tag.ReadGroups, tag.WriteGroups, tag.Threads, tag.Hidden)
	if err != nil {
		return 0, err
	}
	id, _ := result.LastInsertId()
	return int(id), nil
}

// Update 更新标签
func (r *tagRepository) Update(ctx context.Context, tag *model.ThreadTag) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE thread_tag SET name = ?, icon = ?, fids = ?, use_groups = ?, read_groups = ?, write_groups = ?, hidden = ?, updated_at = NOW()
		 WHERE site_id = ? AND tag_id = ?`,
		tag.Name, tag.Icon, tag.Fids, tag.UseGroups, tag.ReadGroups, tag.WriteGroups, tag.Hidden, tag.SiteID, tag.TagID)
	return err
}

// Delete 删除标签
func (r *tagRepository) Delete(ctx context.Context, sid int64, tagID int) error {
	_, err := r.db.ExecContext(ctx,
		"DELETE FROM thread_tag WHERE site_id = ? AND tag_id = ?", sid, tagID)
	return err
}

// IncThreads 增加关联主题数
func (r *tagRepository) IncThreads(ctx context.Context, sid int64, tagID int) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE thread_tag SET threads = threads + 1 WHERE site_id = ? AND tag_id = ?", sid, tagID)
	return err
}

// DecThreads 减少关联主题数
func (r *tagRepository) DecThreads(ctx context.Context, sid int64, tagID int) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE thread_tag SET threads = GREATEST(threads - 1, 0) WHERE site_id = ? AND tag_id = ?", sid, tagID)
	return err
}
