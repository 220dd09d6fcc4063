package model

import "time"

// 主题审核状态
const (
	ThreadOk          = 0 // 审核通过
	ThreadChecking    = 1 // 审核中
	ThreadCheckFailed = 2 // 审核不通过
)

// 主题评论开关（三态）
const (
	CommentsInherit = 0 // 跟随版块设置
	CommentsOn      = 1 // 开启
	CommentsOff     = 2 // 关闭
)

// Thread Thread主表模型
type Thread struct {
	Tid             int64     `db:"tid"`
	SiteID          int64     `db:"site_id"`
	Fid             int       `db:"fid"`
	Uid             int64     `db:"uid"`
	Subject         string    `db:"subject"`
	Status          int       `db:"status"`   // ThreadOk / ThreadChecking / ThreadCheckFailed
	IsDraft         bool      `db:"is_draft"` // 草稿仅作者可见，不进任何列表
	IsSticky        bool      `db:"is_sticky"`
	StickyFids      IntList   `db:"sticky_fids"` // 额外置顶到的其他版块
	IsEssence       bool      `db:"is_essence"`
	DisableComments int       `db:"disable_comments"` // CommentsInherit / On / Off
	Views           int       `db:"views"`
	Replies         int       `db:"replies"`  // 派生计数：一级评论数
	Posts           int       `db:"posts"`    // 派生计数：全部回帖数（不含首帖）
	Dateline        int64     `db:"dateline"`
	Lastpost        int64     `db:"lastpost"`
	DeletedAt       *int64    `db:"deleted_at"` // 软删除时间戳，非空即已删除
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// IsDeleted 是否已软删除
func (t *Thread) IsDeleted() bool {
	return t.DeletedAt != nil
}

// ThreadData Thread内容表模型
type ThreadData struct {
	Tid     int64  `db:"tid"`
	Message string `db:"message"`
}

// ThreadDTO Thread数据传输对象
type ThreadDTO struct {
	Tid       int64   `json:"tid"`
	Fid       int     `json:"fid"`
	Uid       int64   `json:"uid"`
	Subject   string  `json:"subject"`
	Status    int     `json:"status"`
	IsDraft   bool    `json:"is_draft,omitempty"`
	IsSticky  bool    `json:"is_sticky,omitempty"`
	IsEssence bool    `json:"is_essence,omitempty"`
	Views     int     `json:"views"`
	Replies   int     `json:"replies"`
	Posts     int     `json:"posts"`
	Dateline  int64   `json:"dateline"`
	Lastpost  int64   `json:"lastpost"`
	TagIDs    []int   `json:"tag_ids,omitempty"`
	Message   string  `json:"message,omitempty"`
}

// ThreadListItem Thread列表项
type ThreadListItem struct {
	Tid       int64  `json:"tid"`
	Fid       int    `json:"fid"`
	Uid       int64  `json:"uid"`
	Subject   string `json:"subject"`
	Status    int    `json:"status"`
	IsSticky  bool   `json:"is_sticky,omitempty"`
	IsEssence bool   `json:"is_essence,omitempty"`
	Views     int    `json:"views"`
	Replies   int    `json:"replies"`
	Dateline  int64  `json:"dateline"`
	Lastpost  int64  `json:"lastpost"`
}
