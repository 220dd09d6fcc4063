package model

import "time"

// 保留用户组（每个站点约定存在，不可删除）
const (
	GidAdmin   int64 = 1 // 管理员组
	GidTourist int64 = 7 // 游客组（匿名/降级账号）
)

// Action 权限动作
type Action string

// 权限动作词表
const (
	ActionViewThreads          Action = "viewThreads"
	ActionCreateThread         Action = "createThread"
	ActionThreadEdit           Action = "thread.edit"
	ActionThreadEditOwn        Action = "thread.editOwnThread"
	ActionThreadHide           Action = "thread.hide"
	ActionThreadHideOwn        Action = "thread.hideOwnThread"
	ActionThreadHideOwnAllPost Action = "thread.hideOwnThreadAllPost"
	ActionThreadReply          Action = "thread.reply"
	ActionPostEdit             Action = "thread.editPosts"
	ActionPostEditOwn          Action = "thread.editOwnPost"
	ActionPostHide             Action = "thread.hidePosts"
	ActionPostHideOwn          Action = "thread.hideOwnPost"
	ActionThreadLike           Action = "thread.likePosts"
	ActionThreadSticky         Action = "thread.sticky"
	ActionThreadStickyOwnPost  Action = "thread.stickyOwnThreadPost"
	ActionThreadEssence        Action = "thread.essence"
	ActionUserView             Action = "user.view"
	ActionUserStatusEdit       Action = "user.edit.status"
	ActionAttachmentCreate     Action = "attachment.create"
)

// Group 用户组模型
type Group struct {
	Gid       int64     `db:"gid"`
	SiteID    int64     `db:"site_id"`
	Name      string    `db:"name"`
	IsDefault bool      `db:"is_default"` // 每站点同一时刻只有一个默认组
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// GroupPermission 权限授予记录（组 + 作用域 + 动作）
// Fid 为 0 表示全局权限，否则为版块级权限；两者互不蕴含
type GroupPermission struct {
	ID     int64  `db:"id"`
	SiteID int64  `db:"site_id"`
	Gid    int64  `db:"gid"`
	Fid    int    `db:"fid"`
	Action Action `db:"action"`
}

// UserGroup 用户-组归属（每用户至多一条）
type UserGroup struct {
	SiteID int64 `db:"site_id"`
	Uid    int64 `db:"uid"`
	Gid    int64 `db:"gid"`
}

// Perm 作用域化权限项
type Perm struct {
	Fid    int    `json:"fid"` // 0 = 全局
	Action Action `json:"action"`
}

// PermSet 权限集合
type PermSet map[Perm]struct{}

// NewPermSet 创建权限集合
func NewPermSet(perms ...Perm) PermSet {
	s := make(PermSet, len(perms))
	for _, p := range perms {
		s[p] = struct{}{}
	}
	return s
}

// Has 检查权限：全局授予或对应版块授予，二者取或
func (s PermSet) Has(fid int, action Action) bool {
	if _, ok := s[Perm{Fid: 0, Action: action}]; ok {
		return true
	}
	if fid == 0 {
		return false
	}
	_, ok := s[Perm{Fid: fid, Action: action}]
	return ok
}

// Add 加入权限项
func (s PermSet) Add(fid int, action Action) {
	s[Perm{Fid: fid, Action: action}] = struct{}{}
}

// Slice 导出为可序列化的列表
func (s PermSet) Slice() []Perm {
	list := make([]Perm, 0, len(s))
	for p := range s {
		list = append(list, p)
	}
	return list
}

// GroupDTO 用户组数据传输对象
type GroupDTO struct {
	Gid       int64  `json:"gid"`
	Name      string `json:"name"`
	IsDefault bool   `json:"is_default"`
}
