package repository

import (
	"context"
	"database/sql"

	"nest_go/internal/model"

	"github.com/jmoiron/sqlx"
)

// PostRepository 回帖数据访问接口
// 计数是派生值：创建/删除回帖的同一事务内重算并回写父计数
type PostRepository interface {
	GetByID(ctx context.Context, sid, pid int64) (*model.Post, error)
	GetFirstByThread(ctx context.Context, sid, tid int64) (*model.Post, error)
	ListByThread(ctx context.Context, sid, tid int64, offset, limit int) ([]*model.Post, error)
	ListReplies(ctx context.Context, sid, pid int64, offset, limit int) ([]*model.Post, error)
	CreateWithRecount(ctx context.Context, post *model.Post) error
	SoftDeleteWithRecount(ctx context.Context, sid, pid int64, ts int64) error
	RestoreWithRecount(ctx context.Context, sid, pid int64) error
	UpdateMessage(ctx context.Context, sid, pid int64, message string) error
	SetSticky(ctx context.Context, sid, pid int64, sticky bool) error
	SetApproved(ctx context.Context, sid, pid int64, approved bool) error
	RecountThread(ctx context.Context, sid, tid int64) (replies, posts int, err error)
}

// postRepository 回帖数据访问实现
type postRepository struct {
	db *sqlx.DB
}

// NewPostRepository 创建 PostRepository 实例
func NewPostRepository(db *sqlx.DB) PostRepository {
	return &postRepository{db: db}
}

const postColumns = "pid, site_id, tid, uid, reply_pid, message, is_first, is_comment, is_approved, is_sticky, reply_count, dateline, deleted_at, created_at, updated_at"

// GetByID 根据ID获取回帖
func (r *postRepository) GetByID(ctx context.Context, sid, pid int64) (*model.Post, error) {
	var post model.Post
	err := r.db.GetContext(ctx, &post,
		"SELECT "+postColumns+" FROM post WHERE site_id = ? AND pid = ?", sid, pid)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// GetFirstByThread 获取主题首帖
func (r *postRepository) GetFirstByThread(ctx context.Context, sid, tid int64) (*model.Post, error) {
	var post model.Post
	err := r.db.GetContext(ctx, &post,
		"SELECT "+postColumns+" FROM post WHERE site_id = ? AND tid = ? AND is_first = 1", sid, tid)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &post, nil
}

// ListByThread 主题一级评论列表（不含首帖与楼中楼）
func (r *postRepository) ListByThread(ctx context.Context, sid, tid int64, offset, limit int) ([]*model.Post, error) {
	var posts []*model.Post
	err := r.db.SelectContext(ctx, &posts,
		"SELECT "+postColumns+` FROM post
		 WHERE site_id = ? AND tid = ? AND is_first = 0 AND is_comment = 1 AND deleted_at IS NULL
		 ORDER BY is_sticky DESC, dateline ASC LIMIT ?, ?`,
		sid, tid, offset, limit)
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// ListReplies 楼中楼回复列表
func (r *postRepository) ListReplies(ctx context.Context, sid, pid int64, offset, limit int) ([]*model.Post, error) {
	var posts []*model.Post
	err := r.db.SelectContext(ctx, &posts,
		"SELECT "+postColumns+` FROM post
		 WHERE site_id = ? AND reply_pid = ? AND deleted_at IS NULL
		 ORDER BY dateline ASC LIMIT ?, ?`,
		sid, pid, offset, limit)
	if err != nil {
		return nil, err
	}
	return posts, nil
}

// CreateWithRecount 创建回帖并在同一事务内重算父计数
func (r *postRepository) CreateWithRecount(ctx context.Context, post *model.Post) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO post (pid, site_id, tid, uid, reply_pid, message, is_first, is_comment, is_approved, is_sticky, reply_count, dateline, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())`,
		post.Pid, post.SiteID, post.Tid, post.Uid, post.ReplyPid, post.Message,
		post.IsFirst, post.IsComment, post.IsApproved, post.IsSticky, post.ReplyCount, post.Dateline)
	if err != nil {
		return err
	}

	if err = recountInTx(ctx, tx, post.SiteID, post.Tid, post.ReplyPid, post.Dateline); err != nil {
		return err
	}

	return tx.Commit()
}

// SoftDeleteWithRecount 软删除回帖并在同一事务内重算父计数
func (r *postRepository) SoftDeleteWithRecount(ctx context.Context, sid, pid int64, ts int64) error {
	return r.markAndRecount(ctx, sid, pid,
		"UPDATE post SET deleted_at = ?, is_sticky = 0, updated_at = NOW() WHERE site_id = ? AND pid = ?",
		[]interface{}{ts, sid, pid})
}

// RestoreWithRecount 恢复回帖并在同一事务内重算父计数
func (r *postRepository) RestoreWithRecount(ctx context.Context, sid, pid int64) error {
	return r.markAndRecount(ctx, sid, pid,
		"UPDATE post SET deleted_at = NULL, updated_at = NOW() WHERE site_id = ? AND pid = ?",
		[]interface{}{sid, pid})
}

// markAndRecount 置标记后重算计数（同一事务）
func (r *postRepository) markAndRecount(ctx context.Context, sid, pid int64, query string, args []interface{}) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var post model.Post
	if err = tx.GetContext(ctx, &post,
		"SELECT "+postColumns+" FROM post WHERE site_id = ? AND pid = ?", sid, pid); err != nil {
		return err
	}

	if _, err = tx.ExecContext(ctx, query, args...); err != nil {
		return err
	}

	if err = recountInTx(ctx, tx, sid, post.Tid, post.ReplyPid, post.Dateline); err != nil {
		return err
	}

	return tx.Commit()
}

// recountInTx 在事务内重算主题与父评论计数
// MySQL 不允许 UPDATE 的子查询引用同表，分两步：先查后写
func recountInTx(ctx context.Context, tx *sqlx.Tx, sid, tid int64, replyPid *int64, lastpost int64) error {
	var replies, posts int
	if err := tx.GetContext(ctx, &replies,
		"SELECT COUNT(*) FROM post WHERE site_id = ? AND tid = ? AND is_comment = 1 AND deleted_at IS NULL",
		sid, tid); err != nil {
		return err
	}
	if err := tx.GetContext(ctx, &posts,
		"SELECT COUNT(*) FROM post WHERE site_id = ? AND tid = ? AND is_first = 0 AND deleted_at IS NULL",
		sid, tid); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"UPDATE thread SET replies = ?, posts = ?, lastpost = GREATEST(lastpost, ?), updated_at = NOW() WHERE site_id = ? AND tid = ?",
		replies, posts, lastpost, sid, tid); err != nil {
		return err
	}

	// 楼中楼：重算被回复评论的 reply_count
	if replyPid != nil {
		var count int
		if err := tx.GetContext(ctx, &count,
			"SELECT COUNT(*) FROM post WHERE site_id = ? AND reply_pid = ? AND deleted_at IS NULL",
			sid, *replyPid); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE post SET reply_count = ?, updated_at = NOW() WHERE site_id = ? AND pid = ?",
			count, sid, *replyPid); err != nil {
			return err
		}
	}

	return nil
}

// UpdateMessage 更新回帖内容
func (r *postRepository) UpdateMessage(ctx context.Context, sid, pid int64, message string) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE post SET message = ?, updated_at = NOW() WHERE site_id = ? AND pid = ?", message, sid, pid)
	return err
}

// SetSticky 主题内置顶
func (r *postRepository) SetSticky(ctx context.Context, sid, pid int64, sticky bool) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE post SET is_sticky = ?, updated_at = NOW() WHERE site_id = ? AND pid = ?", sticky, sid, pid)
	return err
}

// SetApproved 审核标记
func (r *postRepository) SetApproved(ctx context.Context, sid, pid int64, approved bool) error {
	_, err := r.db.ExecContext(ctx,
		"UPDATE post SET is_approved = ?, updated_at = NOW() WHERE site_id = ? AND pid = ?", approved, sid, pid)
	return err
}

// RecountThread 重算主题计数（恢复主题等场景整体校正）
func (r *postRepository) RecountThread(ctx context.Context, sid, tid int64) (int, int, error) {
	var replies, posts int
	if err := r.db.GetContext(ctx, &replies,
		"SELECT COUNT(*) FROM post WHERE site_id = ? AND tid = ? AND is_comment = 1 AND deleted_at IS NULL",
		sid, tid); err != nil {
		return 0, 0, err
	}
	if err := r.db.GetContext(ctx, &posts,
		"SELECT COUNT(*) FROM post WHERE site_id = ? AND tid = ? AND is_first = 0 AND deleted_at IS NULL",
		sid, tid); err != nil {
		return 0, 0, err
	}
	return replies, posts, nil
}
