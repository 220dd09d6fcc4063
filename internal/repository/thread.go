package repository

import (
	"context"
	"database/sql"

	"nest_go/internal/model"

	"github.com/jmoiron/sqlx"
)

// ThreadRepository Thread数据访问接口
type ThreadRepository interface {
	GetByID(ctx context.Context, sid, tid int64) (*model.Thread, error)
	GetContentByID(ctx context.Context, sid, tid int64) (*model.ThreadData, error)
	// GetByFid 版块列表：草稿与软删除永不入列表；
	// 置顶主题的 sticky_fids 命中该版块时也入列表（跨版块置顶）
	GetByFid(ctx context.Context, sid int64, fid int, offset, limit int) ([]*model.Thread, error)
	GetDraftsByUser(ctx context.Context, sid, uid int64, offset, limit int) ([]*model.Thread, error)
	Create(ctx context.Context, thread *model.Thread, content *model.ThreadData, firstPost *model.Post) error
	Update(ctx context.Context, thread *model.Thread) error
	UpdateContent(ctx context.Context, sid, tid int64, message string) error
	SoftDelete(ctx context.Context, sid, tid int64, ts int64) error
	Restore(ctx context.Context, sid, tid int64) error
	UpdateCounters(ctx context.Context, sid, tid int64, replies, posts int, lastpost int64) error
	IncViews(ctx context.Context, sid, tid int64) error
	Count(ctx context.Context, sid int64) (int, error)
}

// threadRepository Thread数据访问实现
type threadRepository struct {
	db *sqlx.DB
}

// NewThreadRepository 创建ThreadRepository实例
func NewThreadRepository(db *sqlx.DB) ThreadRepository {
	return &threadRepository{db: db}
}

const threadColumns = "tid, site_id, fid, uid, subject, status, is_draft, is_sticky, sticky_fids, is_essence, disable_comments, views, replies, posts, dateline, lastpost, deleted_at, created_at, updated_at"

// GetByID 根据ID获取Thread
func (r *threadRepository) GetByID(ctx context.Context, sid, tid int64) (*model.Thread, error) {
	var thread model.Thread
	err := r.db.GetContext(ctx, &thread,
		"SELECT "+threadColumns+" FROM thread WHERE site_id = ? AND tid = ?", sid, tid)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &thread, nil
}

// GetContentByID 获取Thread内容
func (r *threadRepository) GetContentByID(ctx context.Context, sid, tid int64) (*model.ThreadData, error) {
	var data model.ThreadData
	err := r.db.GetContext(ctx, &data,
		"SELECT d.tid, d.message FROM thread_data d INNER JOIN thread t ON t.tid = d.tid WHERE t.site_id = ? AND d.tid = ?",
		sid, tid)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &data, nil
}

// GetByFid 根据Fid获取Thread列表
func (r *threadRepository) GetByFid(ctx context.Context, sid int64, fid int, offset, limit int) ([]*model.Thread, error) {
	var threads []*model.Thread
	err := r.db.SelectContext(ctx, &threads,
		"SELECT "+threadColumns+` FROM thread
		 WHERE site_id = ? AND (fid = ? OR (is_sticky = 1 AND JSON_CONTAINS(sticky_fids, CAST(? AS JSON))))
		   AND is_draft = 0 AND deleted_at IS NULL
		 ORDER BY is_sticky DESC, lastpost DESC LIMIT ?, ?`,
		sid, fid, fid, offset, limit)
	if err != nil {
		return nil, err
	}
	return threads, nil
}

// GetDraftsByUser 获取用户自己的草稿列表
func (r *threadRepository) GetDraftsByUser(ctx context.Context, sid, uid int64, offset, limit int) ([]*model.Thread, error) {
	var threads []*model.Thread
	err := r.db.SelectContext(ctx, &threads,
		"SELECT "+threadColumns+` FROM thread
		 WHERE site_id = ? AND uid = ? AND is_draft = 1 AND deleted_at IS NULL
		 ORDER BY dateline DESC LIMIT ?, ?`,
		sid, uid, offset, limit)
	if err != nil {
		return nil, err
	}
	return threads, nil
}

// Create 创建Thread（主表 + 内容表 + 首帖，同一事务）
func (r *threadRepository) Create(ctx context.Context, thread *model.Thread, content *model.ThreadData, firstPost *model.Post) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// 插入主表
	_, err = tx.ExecContext(ctx,
		`INSERT INTO thread (tid, site_id, fid, uid, subject, status, is_draft, is_sticky, sticky_fids, is_essence, disable_comments, views, replies, posts, dateline, lastpost, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`,
		thread.Tid, thread.SiteID, thread.Fid, thread.Uid, thread.Subject, thread.Status,
		thread.IsDraft, thread.IsSticky, thread.StickyFids, thread.IsEssence, thread.DisableComments,
		thread.Views, thread.Replies, thread.Posts, thread.Dateline, thread.Lastpost)
	if err != nil {
		return err
	}

	// 插入内容表
	_, err = tx.ExecContext(ctx,
		"INSERT INTO thread_data (tid, message) VALUES (?, ?)",
		content.Tid, content.Message)
	if err != nil {
		return err
	}

	// 插入首帖
	if firstPost != nil {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO post (pid, site_id, tid, uid, reply_pid, message, is_first, is_comment, is_approved, is_sticky, reply_count, dateline, created_at, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`,
			firstPost.Pid, firstPost.SiteID, firstPost.Tid, firstPost.Uid, firstPost.ReplyPid,
			firstPost.Message, firstPost.IsFirst, firstPost.IsComment, firstPost.IsApproved,
			firstPost.IsSticky, firstPost.ReplyCount, firstPost.Dateline)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Update 更新Thread可变字段
func (r *threadRepository) Update(ctx context.Context, thread *model.Thread) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE thread SET fid = ?, subject = ?, status = ?, is_draft = ?, is_sticky = ?, sticky_fids = ?, is_essence = ?, disable_comments = ?, dateline = ?, lastpost = ?, updated_at = NOW()
		 WHERE site_id = ? AND tid = ?`,
		thread.Fid, thread.Subject, thread.Status, thread.IsDraft, thread.IsSticky,
		thread.StickyFids, thread.IsEssence, thread.DisableComments, thread.Dateline,
		thread.Lastpost, thread.SiteID, thread.Tid)
	return err
}

// UpdateContent 更新Thread内容
func (r *threadRepository) UpdateContent(ctx context.Context, sid, tid int64, message string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE thread_data d INNER JOIN thread t ON t.tid = d.tid SET d.message = ? WHERE t.site_id = ? AND d.tid = ?",
		message, sid, tid)
	return err
}

// SoftDelete 软删除：只打时间戳，不删行
func (r *threadRepository) SoftDelete(ctx context.Context, sid, tid int64, ts int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE thread SET deleted_at = ?, is_sticky = 0, sticky_fids = '[]', updated_at = NOW() WHERE site_id = ? AND tid = ?",
		ts, sid, tid)
	return err
}

// Restore 恢复软删除
func (r *threadRepository) Restore(ctx context.Context, sid, tid int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE thread SET deleted_at = NULL, status = ?, updated_at = NOW() WHERE site_id = ? AND tid = ?",
		model.ThreadOk, sid, tid)
	return err
}

// UpdateCounters 写入派生计数
func (r *threadRepository) UpdateCounters(ctx context.Context, sid, tid int64, replies, posts int, lastpost int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE thread SET replies = ?, posts = ?, lastpost = ?, updated_at = NOW() WHERE site_id = ? AND tid = ?",
		replies, posts, lastpost, sid, tid)
	return err
}

// IncViews 增加浏览量
func (r *threadRepository) IncViews(ctx context.Context, sid, tid int64) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE thread SET views = views + 1 WHERE site_id = ? AND tid = ?", sid, tid)
	return err
}

// Count 站点主题总数
func (r *threadRepository) Count(ctx context.Context, sid int64) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM thread WHERE site_id = ? AND is_draft = 0 AND deleted_at IS NULL", sid)
	if err != nil {
		return 0, err
	}
	return count, nil
}
