package service

import (
	"context"
	"strconv"

	"nest_go/internal/cache"
	"nest_go/internal/model"
	"nest_go/internal/pkg/apperr"
	"nest_go/internal/repository"
)

// CategoryService 版块服务
type CategoryService struct {
	repo  repository.CategoryRepository
	perm  *PermService
	sites *cache.Registry
}

// NewCategoryService 创建 CategoryService 实例
func NewCategoryService(repo repository.CategoryRepository, perm *PermService, sites *cache.Registry) *CategoryService {
	return &CategoryService{
		repo:  repo,
		perm:  perm,
		sites: sites,
	}
}

// Get 获取版块（缓存读穿）
func (s *CategoryService) Get(ctx context.Context, sid int64, fid int) (*model.Category, error) {
	site := s.sites.Site(sid)
	id := strconv.Itoa(fid)

	var cached model.Category
	if site.GetJSON(ctx, cache.KindCategory, id, &cached) {
		if cached.Fid == 0 {
			return nil, nil
		}
		return &cached, nil
	}

	v, err := site.Do(cache.KindCategory, id, func() (interface{}, error) {
		cat, err := s.repo.GetByID(ctx, sid, fid)
		if err != nil {
			return nil, err
		}
		if cat == nil {
			site.SetJSON(ctx, cache.KindCategory, id, &model.Category{})
			return nil, nil
		}
		site.SetJSON(ctx, cache.KindCategory, id, cat)
		return cat, nil
	})
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	return v.(*model.Category), nil
}

// GetAll 获取站点全部版块（缓存读穿，键 "all"）
func (s *CategoryService) GetAll(ctx context.Context, sid int64) ([]*model.Category, error) {
	site := s.sites.Site(sid)

	var cached []*model.Category
	if site.GetJSON(ctx, cache.KindCategory, "all", &cached) {
		return cached, nil
	}

	v, err := site.Do(cache.KindCategory, "all", func() (interface{}, error) {
		cats, err := s.repo.GetAll(ctx, sid)
		if err != nil {
			return nil, err
		}
		site.SetJSON(ctx, cache.KindCategory, "all", cats)
		return cats, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]*model.Category), nil
}

// GetTree 版块树（parent 挂接，一级版块在顶层）
func (s *CategoryService) GetTree(ctx context.Context, sid int64) ([]*model.CategoryTree, error) {
	cats, err := s.GetAll(ctx, sid)
	if err != nil {
		return nil, err
	}

	nodes := make(map[int]*model.CategoryTree, len(cats))
	for _, c := range cats {
		nodes[c.Fid] = &model.CategoryTree{CategoryDTO: categoryDTO(c)}
	}

	var roots []*model.CategoryTree
	for _, c := range cats {
		node := nodes[c.Fid]
		if parent, ok := nodes[c.Parent]; ok && c.Parent != 0 {
			parent.Children = append(parent.Children, node)
			continue
		}
		roots = append(roots, node)
	}
	return roots, nil
}

// Create 创建版块（管理员专用）
func (s *CategoryService) Create(ctx context.Context, sid, uid int64, cat *model.Category) (*model.Category, error) {
	if err := s.requireAdmin(ctx, sid, uid); err != nil {
		return nil, err
	}

	cat.SiteID = sid
	fid, err := s.repo.Create(ctx, cat)
	if err != nil {
		return nil, err
	}
	cat.Fid = fid

	s.invalidate(ctx, sid, fid)
	return cat, nil
}

// Update 更新版块（管理员专用）
func (s *CategoryService) Update(ctx context.Context, sid, uid int64, cat *model.Category) error {
	if err := s.requireAdmin(ctx, sid, uid); err != nil {
		return err
	}

	exist, err := s.repo.GetByID(ctx, sid, cat.Fid)
	if err != nil {
		return err
	}
	if exist == nil {
		return apperr.NotFound("版块不存在")
	}

	cat.SiteID = sid
	if err := s.repo.Update(ctx, cat); err != nil {
		return err
	}
	s.invalidate(ctx, sid, cat.Fid)
	return nil
}

// Delete 删除版块（管理员专用，至少保留一个）
func (s *CategoryService) Delete(ctx context.Context, sid, uid int64, fid int) error {
	if err := s.requireAdmin(ctx, sid, uid); err != nil {
		return err
	}

	cat, err := s.repo.GetByID(ctx, sid, fid)
	if err != nil {
		return err
	}
	if cat == nil {
		return apperr.NotFound("版块不存在")
	}
	if cat.Threads > 0 {
		return apperr.InvalidState("版块下还有主题，不可删除")
	}

	count, err := s.repo.Count(ctx, sid)
	if err != nil {
		return err
	}
	if count <= 1 {
		return apperr.InvalidState("至少保留一个版块")
	}

	if err := s.repo.Delete(ctx, sid, fid); err != nil {
		return err
	}
	s.invalidate(ctx, sid, fid)
	return nil
}

func (s *CategoryService) requireAdmin(ctx context.Context, sid, uid int64) error {
	admin, err := s.perm.IsAdmin(ctx, sid, uid)
	if err != nil {
		return err
	}
	if !admin {
		return apperr.PermissionDenied("需要管理员权限")
	}
	return nil
}

func (s *CategoryService) invalidate(ctx context.Context, sid int64, fid int) {
	site := s.sites.Site(sid)
	site.Remove(ctx, cache.KindCategory, strconv.Itoa(fid))
	site.Remove(ctx, cache.KindCategory, "all")
}

func categoryDTO(c *model.Category) model.CategoryDTO {
	return model.CategoryDTO{
		Fid:       c.Fid,
		Name:      c.Name,
		Parent:    c.Parent,
		Order:     c.Order,
		Threads:   c.Threads,
		Posts:     c.Posts,
		Moderated: c.Moderated,
		Status:    c.Status,
	}
}
