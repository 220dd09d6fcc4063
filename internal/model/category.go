package model

import "time"

// Category 版块模型
type Category struct {
	Fid             int       `db:"fid"`
	SiteID          int64     `db:"site_id"`
	Name            string    `db:"name"`
	Parent          int       `db:"parent"` // 父版块 ID（0 表示一级版块）
	Order           int       `db:"sort_order"`
	Threads         int       `db:"threads"` // 主题数
	Posts           int       `db:"posts"`   // 帖子数
	Moderated       bool      `db:"moderated"` // 本版块发帖是否先审后发
	DisableComments bool      `db:"disable_comments"` // 版块级评论开关（主题三态的回退值）
	Status          int       `db:"status"` // 0正常 1禁用
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// CategoryDTO 版块数据传输对象
type CategoryDTO struct {
	Fid       int    `json:"fid"`
	Name      string `json:"name"`
	Parent    int    `json:"parent"`
	Order     int    `json:"order"`
	Threads   int    `json:"threads"`
	Posts     int    `json:"posts"`
	Moderated bool   `json:"moderated"`
	Status    int    `json:"status"`
}

// CategoryTree 版块树结构
type CategoryTree struct {
	CategoryDTO
	Children []*CategoryTree `json:"children,omitempty"`
}
