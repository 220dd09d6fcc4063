package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"nest_go/internal/cache"
	"nest_go/internal/core/config"
	"nest_go/internal/core/logger"
	"nest_go/internal/core/snowflake"
	"nest_go/internal/model"
	"nest_go/internal/pkg/apperr"
	"nest_go/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// UserService 用户服务
// 登录态用 JWT（带站点 ID），账号状态变更会同步失效该用户的缓存，
// 下一次权限解析立刻看到降级结果。
type UserService struct {
	repo   repository.UserRepository
	perm   *PermService
	sites  *cache.Registry
	jwtCfg *config.JWTConfig
}

// NewUserService 创建用户服务
func NewUserService(repo repository.UserRepository, perm *PermService, sites *cache.Registry, jwtCfg *config.JWTConfig) *UserService {
	return &UserService{
		repo:   repo,
		perm:   perm,
		sites:  sites,
		jwtCfg: jwtCfg,
	}
}

// Login 用户登录
func (s *UserService) Login(ctx context.Context, sid int64, username, password string) (*model.LoginResponse, error) {
	user, err := s.repo.GetByUsername(ctx, sid, username)
	if err != nil {
		logger.Error("login: get user error", logger.String("error", err.Error()))
		return nil, errors.New("系统错误")
	}
	if user == nil {
		return nil, errors.New("用户名或密码错误")
	}

	// 验证密码
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, errors.New("用户名或密码错误")
	}

	// 检查状态（异常账号可登录查看自己的内容，权限层会降级）
	if user.Status == model.UserDisabled {
		return nil, errors.New("账号已被禁用")
	}

	// 更新最后访问时间
	go s.repo.UpdateLastvisit(context.Background(), sid, user.Uid, time.Now().Unix())

	// 生成Token
	token, err := generateJWT(sid, user.Uid, s.jwtCfg)
	if err != nil {
		logger.Error("login: generate token error", logger.String("error", err.Error()))
		return nil, errors.New("系统错误")
	}

	return &model.LoginResponse{
		Token: token,
		User:  *userDTO(user),
	}, nil
}

// Register 用户注册
func (s *UserService) Register(ctx context.Context, sid int64, req *model.RegisterRequest) (*model.UserDTO, error) {
	// 检查用户名
	exist, err := s.repo.GetByUsername(ctx, sid, req.Username)
	if err != nil {
		return nil, errors.New("系统错误")
	}
	if exist != nil {
		return nil, errors.New("用户名已被占用")
	}

	// 加密密码
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("register: hash password error", logger.String("error", err.Error()))
		return nil, errors.New("系统错误")
	}

	now := time.Now().Unix()
	user := &model.User{
		Uid:       snowflake.Generate(),
		SiteID:    sid,
		Username:  req.Username,
		Password:  string(hashedPassword),
		Email:     req.Email,
		Avatar:    fmt.Sprintf("https://api.dicebear.com/7.x/avataaars/svg?seed=%s", req.Username),
		Status:    model.UserNormal,
		Dateline:  now,
		Lastvisit: now,
	}

	if err := s.repo.Create(ctx, user); err != nil {
		logger.Error("register: create user error", logger.String("error", err.Error()))
		return nil, errors.New("系统错误")
	}

	return userDTO(user), nil
}

// Get 获取用户（缓存读穿，与权限解析共用同一份缓存）
func (s *UserService) Get(ctx context.Context, sid, uid int64) (*model.UserDTO, error) {
	user, err := s.perm.UserOf(ctx, sid, uid)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.NotFound("用户不存在")
	}
	return userDTO(user), nil
}

// SetStatus 变更账号状态
// 需要 user.edit.status 权限；变更立刻失效用户缓存，权限降级即时生效
func (s *UserService) SetStatus(ctx context.Context, sid, operatorUid, targetUid int64, status int) error {
	ok, err := s.perm.HasPermission(ctx, sid, operatorUid, 0, model.ActionUserStatusEdit)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.PermissionDenied("无权变更账号状态")
	}

	target, err := s.repo.GetByID(ctx, sid, targetUid)
	if err != nil {
		return err
	}
	if target == nil {
		return apperr.NotFound("用户不存在")
	}
	if target.Username == model.AdminName {
		return apperr.InvalidState("管理员账号不可变更状态")
	}

	if err := s.repo.UpdateStatus(ctx, sid, targetUid, status); err != nil {
		return err
	}

	site := s.sites.Site(sid)
	site.Remove(ctx, cache.KindUser, strconv.FormatInt(targetUid, 10))
	site.Remove(ctx, cache.KindUserGroup, strconv.FormatInt(targetUid, 10))
	return nil
}

// userDTO 模型转传输对象
func userDTO(u *model.User) *model.UserDTO {
	return &model.UserDTO{
		Uid:      u.Uid,
		Username: u.Username,
		Email:    u.Email,
		Avatar:   u.Avatar,
		Status:   u.Status,
		Dateline: u.Dateline,
	}
}

// generateJWT 生成JWT（claims 带站点 ID，跨站 token 不可互用）
func generateJWT(sid, uid int64, cfg *config.JWTConfig) (string, error) {
	claims := jwt.MapClaims{
		"sid": sid,
		"uid": uid,
		"exp": time.Now().Add(time.Duration(cfg.Expiry) * time.Second).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(cfg.Secret))
}
