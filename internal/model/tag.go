package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// 系统标签（id < 100 保留，仅系统逻辑可绑定/解绑）
const (
	TagSticky   = 1 // 置顶
	TagEssence  = 2 // 精华
	TagReadOnly = 3 // 只读
	TagDeleted  = 4 // 已删除

	// ReservedTagMax 保留标签上界（不含）
	ReservedTagMax = 100
)

// Target 限制名单条目：指定用户组，或"内容作者本人"哨兵
// 哨兵按主题求值（每个主题的作者不同），不是标签的固定属性
type Target struct {
	Owner bool  `json:"owner,omitempty"`
	Gid   int64 `json:"gid,omitempty"`
}

// TargetOwner 作者哨兵
func TargetOwner() Target { return Target{Owner: true} }

// TargetGroup 用户组条目
func TargetGroup(gid int64) Target { return Target{Gid: gid} }

// TargetList 限制名单（JSON 列）
type TargetList []Target

// Value 实现 driver.Valuer
func (l TargetList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner
func (l *TargetList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type for TargetList: %T", src)
	}
}

// IntList 整数列表（JSON 列）
type IntList []int

// Value 实现 driver.Valuer
func (l IntList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan 实现 sql.Scanner
func (l *IntList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type for IntList: %T", src)
	}
}

// ThreadTag 主题标签模型
// 标签自身是二级访问控制单元：
// Fids        标签可用版块（空 = 不限）
// UseGroups   谁可以为主题绑定该标签（空 = 仅作者）
// ReadGroups  谁可以浏览带该标签的主题（空 = 所有人）
// WriteGroups 谁可以编辑带该标签的主题（空 = 不额外限制，沿用基础判定）
type ThreadTag struct {
	TagID       int        `db:"tag_id"`
	SiteID      int64      `db:"site_id"`
	Name        string     `db:"name"`
	Icon        string     `db:"icon"`
	Fids        IntList    `db:"fids"`
	UseGroups   TargetList `db:"use_groups"`
	ReadGroups  TargetList `db:"read_groups"`
	WriteGroups TargetList `db:"write_groups"`
	Threads     int        `db:"threads"` // 关联主题数
	Hidden      bool       `db:"hidden"`  // 是否在标签列表隐藏
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   time.Time  `db:"updated_at"`
}

// IsReserved 是否系统保留标签
func (t *ThreadTag) IsReserved() bool {
	return t.TagID < ReservedTagMax
}

// ThreadTagBind 主题-标签绑定记录
type ThreadTagBind struct {
	ID     int64 `db:"id"`
	SiteID int64 `db:"site_id"`
	Tid    int64 `db:"tid"`
	TagID  int   `db:"tag_id"`
}

// ThreadTagDTO 标签数据传输对象
type ThreadTagDTO struct {
	TagID       int        `json:"tag_id"`
	Name        string     `json:"name"`
	Icon        string     `json:"icon,omitempty"`
	Fids        IntList    `json:"fids,omitempty"`
	UseGroups   TargetList `json:"use_groups,omitempty"`
	ReadGroups  TargetList `json:"read_groups,omitempty"`
	WriteGroups TargetList `json:"write_groups,omitempty"`
	Threads     int        `json:"threads"`
	Hidden      bool       `json:"hidden"`
}
