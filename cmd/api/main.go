package main

import (
	"context"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"nest_go/internal/api/mgt"
	v1 "nest_go/internal/api/v1"
	"nest_go/internal/cache"
	"nest_go/internal/core/config"
	"nest_go/internal/core/database"
	"nest_go/internal/core/logger"
	"nest_go/internal/core/runtime"
	"nest_go/internal/core/snowflake"
	"nest_go/internal/middleware"
	"nest_go/internal/repository"
	"nest_go/internal/service"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

func main() {
	// 1. 加载配置 (Viper)
	if err := config.Init("."); err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}
	cfg := config.Get()

	// 2. 初始化 Logger
	if err := logger.Init(&cfg.Logging); err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting nest_go...")

	// 3. 初始化 MySQL
	if err := database.Init(&cfg.Database); err != nil {
		logger.Error("Failed to init database", logger.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	// 4. 初始化 Redis (L2 Cache)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.GetRedisAddr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	defer redisClient.Close()

	// 5. 初始化 Snowflake
	if err := snowflake.Init(&cfg.Snowflake); err != nil {
		logger.Error("Failed to init snowflake", logger.String("error", err.Error()))
		os.Exit(1)
	}

	// 6. 站点缓存注册表（每站点 L1 bigcache + 共享 L2 redis）
	sites := cache.NewRegistry(redisClient, &cfg.Cache)

	// 7. 初始化 Repository
	threadRepo := repository.NewThreadRepository(database.Get())
	postRepo := repository.NewPostRepository(database.Get())
	categoryRepo := repository.NewCategoryRepository(database.Get())
	tagRepo := repository.NewTagRepository(database.Get())
	bindRepo := repository.NewThreadTagBindRepository(database.Get())
	groupRepo := repository.NewGroupRepository(database.Get())
	userRepo := repository.NewUserRepository(database.Get())

	// 8. 初始化 Service
	permSvc := service.NewPermService(groupRepo, userRepo, sites)
	authzSvc := service.NewAuthzService(permSvc, tagRepo, bindRepo, sites)
	moderationSvc := service.NewModerationService(threadRepo, postRepo, categoryRepo,
		tagRepo, bindRepo, authzSvc, permSvc, sites, &cfg.Site)
	threadSvc := service.NewThreadService(threadRepo, postRepo, authzSvc, sites)
	tagSvc := service.NewTagService(tagRepo, bindRepo, threadRepo, authzSvc, permSvc, sites)
	groupSvc := service.NewGroupService(groupRepo, permSvc, sites)
	categorySvc := service.NewCategoryService(categoryRepo, permSvc, sites)
	userSvc := service.NewUserService(userRepo, permSvc, sites, &cfg.JWT)

	// 9. Runtime 预热（默认站点）
	rtConfig := &runtime.Config{
		SiteID:      cfg.Site.DefaultSiteID,
		CategorySvc: categorySvc,
		TagSvc:      tagSvc,
	}
	if err := runtime.Init(rtConfig); err != nil {
		logger.Error("Failed to init runtime", logger.String("error", err.Error()))
	}
	logger.Info("Runtime warmup: " + runtime.WarmUpLog())

	// 10. 初始化 Handler
	threadV1 := v1.NewThreadHandler(threadSvc, moderationSvc)
	tagV1 := v1.NewTagHandler(tagSvc)
	userV1 := v1.NewUserHandler(userSvc)
	categoryV1 := v1.NewCategoryHandler(categorySvc)

	threadMgt := mgt.NewThreadHandler(moderationSvc)
	tagMgt := mgt.NewTagHandler(tagSvc)
	groupMgt := mgt.NewGroupHandler(groupSvc)
	userMgt := mgt.NewUserHandler(userSvc)
	categoryMgt := mgt.NewCategoryHandler(categorySvc)
	cacheMgt := mgt.NewCacheHandler(permSvc, sites)

	// 11. 创建 IP 限制器
	rateLimiter := middleware.NewIPLimiter(cfg.Security.RateLimit, 60)

	// 12. 注册路由
	gin.SetMode(cfg.App.Mode)
	router := gin.New()

	// Middleware
	router.Use(middleware.RecoveryMiddleware())
	router.Use(middleware.LoggerMiddleware())
	router.Use(middleware.RateLimitMW(rateLimiter))
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.SiteMiddleware(&cfg.Site))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	// Health Check
	router.GET("/health", func(c *gin.Context) {
		if err := database.Ping(); err != nil {
			c.JSON(503, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(200, gin.H{
			"status":    "healthy",
			"runtime":   runtime.Get().Status(),
			"timestamp": time.Now().Unix(),
		})
	})

	// Health Check (详细版 - 用于负载均衡)
	router.GET("/healthz", func(c *gin.Context) {
		status := "ok"
		checks := make(map[string]string)

		if err := database.Ping(); err != nil {
			status = "error"
			checks["mysql"] = err.Error()
		} else {
			checks["mysql"] = "ok"
		}

		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			status = "error"
			checks["redis"] = err.Error()
		} else {
			checks["redis"] = "ok"
		}

		code := 200
		if status != "ok" {
			code = 503
		}
		c.JSON(code, gin.H{
			"status":    status,
			"checks":    checks,
			"timestamp": time.Now().Unix(),
		})
	})

	// Root path
	router.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"name":    "nest_go",
			"status":  "running",
			"version": "1.0.0",
			"runtime": runtime.WarmUpLog(),
		})
	})

	// Metrics
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public API (v1)
	// 登录态可选：匿名请求按游客组裁决
	v1Group := router.Group("/api/v1")
	v1Group.Use(middleware.OptionalJWTMW(&cfg.JWT))
	{
		v1Group.POST("/login", userV1.Login)
		v1Group.POST("/register", userV1.Register)
		v1Group.GET("/user/:uid", userV1.Get)

		v1Group.GET("/categories", categoryV1.Tree)
		v1Group.GET("/category/:fid", categoryV1.Get)

		v1Group.GET("/threads", threadV1.List)
		v1Group.GET("/thread/:tid", threadV1.Get)
		v1Group.GET("/thread/:tid/posts", threadV1.Posts)
		v1Group.GET("/post/:pid/replies", threadV1.Replies)

		v1Group.GET("/tags", tagV1.List)
		v1Group.GET("/tag/:tag_id", tagV1.Get)
		v1Group.GET("/tag/:tag_id/threads", tagV1.Threads)
	}

	// Public API (v1) - 需要登录
	v1Auth := router.Group("/api/v1")
	v1Auth.Use(middleware.JWTMW(&cfg.JWT))
	{
		v1Auth.GET("/me", userV1.Me)
		v1Auth.GET("/drafts", threadV1.Drafts)

		v1Auth.POST("/threads", threadV1.Create)
		v1Auth.POST("/thread/:tid/publish", threadV1.Publish)
		v1Auth.PUT("/thread/:tid", threadV1.Edit)
		v1Auth.DELETE("/thread/:tid", threadV1.Delete)

		v1Auth.POST("/thread/:tid/posts", threadV1.Reply)
		v1Auth.PUT("/post/:pid", threadV1.EditPost)
		v1Auth.DELETE("/post/:pid", threadV1.DeletePost)
		v1Auth.PUT("/post/:pid/sticky", threadV1.StickyPost)

		v1Auth.POST("/thread/:tid/tag/:tag_id", tagV1.Bind)
		v1Auth.DELETE("/thread/:tid/tag/:tag_id", tagV1.Unbind)
	}

	// Management API (mgt) - IP 白名单 + 强制登录
	mgtGroup := router.Group("/api/mgt")
	mgtGroup.Use(middleware.AdminWhitelistMW())
	mgtGroup.Use(middleware.JWTMW(&cfg.JWT))
	{
		mgtGroup.POST("/thread/:tid/approve", threadMgt.Approve)
		mgtGroup.POST("/thread/:tid/reject", threadMgt.Reject)
		mgtGroup.POST("/thread/:tid/restore", threadMgt.Restore)
		mgtGroup.PUT("/thread/:tid/sticky", threadMgt.Sticky)
		mgtGroup.PUT("/thread/:tid/essence", threadMgt.Essence)
		mgtGroup.POST("/post/:pid/restore", threadMgt.RestorePost)

		mgtGroup.POST("/tags", tagMgt.Create)
		mgtGroup.PUT("/tag/:tag_id", tagMgt.Update)
		mgtGroup.DELETE("/tag/:tag_id", tagMgt.Delete)

		mgtGroup.GET("/groups", groupMgt.List)
		mgtGroup.POST("/groups", groupMgt.Create)
		mgtGroup.PUT("/group/:gid", groupMgt.Rename)
		mgtGroup.DELETE("/group/:gid", groupMgt.Delete)
		mgtGroup.POST("/group/:gid/default", groupMgt.SetDefault)
		mgtGroup.GET("/group/:gid/permissions", groupMgt.Permissions)
		mgtGroup.POST("/group/:gid/permissions", groupMgt.Grant)
		mgtGroup.DELETE("/group/:gid/permissions", groupMgt.Revoke)
		mgtGroup.PUT("/group/:gid/permissions", groupMgt.ReplacePermissions)
		mgtGroup.POST("/group/:gid/users", groupMgt.MoveUser)

		mgtGroup.POST("/categories", categoryMgt.Create)
		mgtGroup.PUT("/category/:fid", categoryMgt.Update)
		mgtGroup.DELETE("/category/:fid", categoryMgt.Delete)

		mgtGroup.PUT("/user/:uid/status", userMgt.SetStatus)

		mgtGroup.POST("/cache/flush", cacheMgt.Flush)
	}

	// 13. 启动 HTTP Server
	srv := &http.Server{
		Addr:    cfg.App.GetServerAddr(),
		Handler: router,
	}

	go func() {
		logger.Info("Server starting", logger.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", logger.String("error", err.Error()))
		}
	}()

	// pprof Server (可选，用于性能分析)
	go func() {
		logger.Info("PProf server starting", logger.String("addr", "localhost:6060"))
		if err := http.ListenAndServe("localhost:6060", nil); err != nil && err != http.ErrServerClosed {
			logger.Error("PProf server error", logger.String("error", err.Error()))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", logger.String("error", err.Error()))
	}

	database.Close()
	redisClient.Close()
	logger.Sync()

	logger.Info("Server exited gracefully")
}
