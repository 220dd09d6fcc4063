package model

import "time"

// 账号状态
// 非 Normal 的账号在权限判定上一律降级为游客组
const (
	UserNormal      = 0 // 正常
	UserDisabled    = 1 // 禁用
	UserChecking    = 2 // 审核中
	UserCheckFail   = 3 // 审核不通过
	UserCheckIgnore = 4 // 审核忽略
)

// AdminName 约定的管理员账号名，按名字直接视为管理员
const AdminName = "admin"

// User 用户模型
type User struct {
	Uid       int64     `db:"uid"`
	SiteID    int64     `db:"site_id"`
	Username  string    `db:"username"`
	Password  string    `db:"password"`
	Email     string    `db:"email"`
	Avatar    string    `db:"avatar"`
	Status    int       `db:"status"`
	Dateline  int64     `db:"dateline"`  // 注册时间
	Lastvisit int64     `db:"lastvisit"` // 最后访问时间
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// IsNormal 账号是否正常
func (u *User) IsNormal() bool {
	return u.Status == UserNormal
}

// UserDTO 用户数据传输对象
type UserDTO struct {
	Uid      int64  `json:"uid"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Avatar   string `json:"avatar,omitempty"`
	Status   int    `json:"status"`
	Dateline int64  `json:"dateline"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Password string `json:"password" binding:"required,min=6,max=32"`
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Username string `json:"username" binding:"required,min=3,max=32"`
	Password string `json:"password" binding:"required,min=6,max=32"`
	Email    string `json:"email" binding:"omitempty,email"`
}

// LoginResponse 登录响应
type LoginResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}
