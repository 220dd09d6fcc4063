package service

import "nest_go/internal/model"

// 标签访问判定
// 纯函数：标签属性 + 访问者组 + 是否作者 进，bool 出，不碰库不碰缓存。
// "作者"哨兵按主题求值，调用方负责算好 isOwner 再传入。

// targetsMatch 名单命中判定：显式列出访问者的组，或含作者哨兵且访问者是作者
func targetsMatch(list model.TargetList, gid int64, isOwner bool) bool {
	for _, t := range list {
		if t.Owner {
			if isOwner {
				return true
			}
			continue
		}
		if t.Gid == gid {
			return true
		}
	}
	return false
}

// CanUseTagInCategory 标签是否可用于版块（fids 空 = 不限版块）
func CanUseTagInCategory(tag *model.ThreadTag, fid int) bool {
	if len(tag.Fids) == 0 {
		return true
	}
	for _, f := range tag.Fids {
		if f == fid {
			return true
		}
	}
	return false
}

// CanAttachTag 是否可为主题绑定该标签
// 保留标签只能由系统逻辑绑定，对任何人（含管理员）都是 false；
// 管理员只受版块限制；其余按 use_groups 名单，名单为空时仅作者可绑。
func CanAttachTag(tag *model.ThreadTag, gid int64, fid int, isOwner bool) bool {
	if tag.IsReserved() {
		return false
	}
	if gid == model.GidAdmin {
		return CanUseTagInCategory(tag, fid)
	}
	if len(tag.UseGroups) == 0 {
		return isOwner
	}
	return targetsMatch(tag.UseGroups, gid, isOwner)
}

// CanReadTag 是否可浏览带该标签的主题（read_groups 空 = 所有人可读）
func CanReadTag(tag *model.ThreadTag, gid int64, isOwner bool) bool {
	if gid == model.GidAdmin {
		return true
	}
	if len(tag.ReadGroups) == 0 {
		return true
	}
	return targetsMatch(tag.ReadGroups, gid, isOwner)
}

// CanWriteTag 是否可编辑带该标签的主题
// write_groups 为空时不表态，原样返回基础判定结果
func CanWriteTag(tag *model.ThreadTag, gid int64, defaultDecision bool, isOwner bool) bool {
	if gid == model.GidAdmin {
		return true
	}
	if len(tag.WriteGroups) == 0 {
		return defaultDecision
	}
	return targetsMatch(tag.WriteGroups, gid, isOwner)
}

// AllTagsReadable 多标签合取：所有标签都放行才放行
func AllTagsReadable(tags []*model.ThreadTag, gid int64, isOwner bool) bool {
	for _, tag := range tags {
		if !CanReadTag(tag, gid, isOwner) {
			return false
		}
	}
	return true
}

// AllTagsWritable 多标签合取，每个标签都以同一基础判定为缺省
// 无标签时退化为基础判定本身
func AllTagsWritable(tags []*model.ThreadTag, gid int64, defaultDecision bool, isOwner bool) bool {
	if len(tags) == 0 {
		return defaultDecision
	}
	for _, tag := range tags {
		if !CanWriteTag(tag, gid, defaultDecision, isOwner) {
			return false
		}
	}
	return true
}
