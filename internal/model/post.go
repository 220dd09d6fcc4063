package model

import "time"

// Post 回帖/评论模型
// IsFirst   标记主题首帖（主题正文），非草稿主题恰有一条
// IsComment 一级评论（直接回复主题）；否则为评论的回复（ReplyPid 非空）
type Post struct {
	Pid        int64     `db:"pid"`
	SiteID     int64     `db:"site_id"`
	Tid        int64     `db:"tid"`
	Uid        int64     `db:"uid"`
	ReplyPid   *int64    `db:"reply_pid"` // 被回复的评论 pid（楼中楼）
	Message    string    `db:"message"`
	IsFirst    bool      `db:"is_first"`
	IsComment  bool      `db:"is_comment"`
	IsApproved bool      `db:"is_approved"`
	IsSticky   bool      `db:"is_sticky"` // 主题内置顶
	ReplyCount int       `db:"reply_count"` // 派生计数：楼中楼回复数
	Dateline   int64     `db:"dateline"`
	DeletedAt  *int64    `db:"deleted_at"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

// IsDeleted 是否已软删除
func (p *Post) IsDeleted() bool {
	return p.DeletedAt != nil
}

// PostDTO 回帖数据传输对象
type PostDTO struct {
	Pid        int64  `json:"pid"`
	Tid        int64  `json:"tid"`
	Uid        int64  `json:"uid"`
	ReplyPid   *int64 `json:"reply_pid,omitempty"`
	Message    string `json:"message"`
	IsFirst    bool   `json:"is_first,omitempty"`
	IsComment  bool   `json:"is_comment,omitempty"`
	IsSticky   bool   `json:"is_sticky,omitempty"`
	ReplyCount int    `json:"reply_count"`
	Dateline   int64  `json:"dateline"`
}
