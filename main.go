package main

import (
	"log"
	"time"

	"actify_engage/config"
	"actify_engage/handler"
	"actify_engage/middleware"
	"actify_engage/model"
	"actify_engage/service"
	"actify_engage/utils"

	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"
)

func init() {
	// 设置时区为 UTC（推荐服务端统一使用 UTC）
	time.Local = time.UTC
}

func main() {
	// 加载配置
	cfg := config.Load()

	// 初始化数据库
	if err := utils.InitDB(cfg.DatabaseURL); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer utils.CloseDB()

	// 自动迁移表结构
	if err := utils.GetDB().AutoMigrate(
		&model.User{},
		&model.UserFollow{},
		&model.GlobalChallenge{},
		&model.GlobalSubmission{},
		&model.SubmissionVote{},
		&model.SubmissionComment{},
	); err != nil {
		log.Fatalf("Failed to migrate database: %v", err)
	}

	// 初始化 Redis
	if err := utils.InitRedis(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer utils.CloseRedis()

	// 初始化认证中间件
	middleware.InitAuth(cfg.JWTSecret)

	// 创建 WebSocket Hub（跨 Pod 推送参与事件）
	hub := handler.NewHub(utils.GetRedis())
	hub.StartPubSub()
	defer hub.StopPubSub()

	// 创建服务
	challengeSvc := service.NewChallengeService(utils.GetDB(), utils.GetRedis(), cfg.ChallengeWindowHours, cfg.CycleCacheTTLSeconds)
	followSvc := service.NewFollowService(utils.GetDB())
	submissionSvc := service.NewSubmissionService(utils.GetDB())

	// 启动时兜底：保证始终有一期活跃挑战
	if err := challengeSvc.EnsureActiveChallenge(); err != nil {
		log.Fatalf("Failed to ensure active challenge: %v", err)
	}

	// 定时轮换挑战（cron 触发新一期）
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.ChallengeRotateCron, func() {
		if _, err := challengeSvc.RotateChallenge(); err != nil {
			log.Printf("[ERROR] Failed to rotate challenge: %v", err)
		}
	}); err != nil {
		log.Fatalf("Invalid challenge rotation schedule: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// 创建处理器
	challengeHandler := handler.NewChallengeHandler(challengeSvc, submissionSvc, hub)
	submissionHandler := handler.NewSubmissionHandler(submissionSvc, challengeSvc, hub)
	followHandler := handler.NewFollowHandler(followSvc, hub)

	// 创建 Gin 路由
	r := gin.Default()

	// 注册统一错误处理中间件
	r.Use(middleware.ErrorHandlerMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		utils.SuccessResponse(c, gin.H{"status": "ok"})
	})

	// WebSocket 连接（使用 token 认证，不需要 HTTP 中间件）
	r.GET("/ws", handler.HandleWebSocket(hub))

	// HTTP API 路由组（需要认证）
	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware())
	{
		// 挑战与闸门
		api.GET("/global-challenges/current", challengeHandler.GetCurrentChallenge)
		api.GET("/global-challenges/:id/status", challengeHandler.GetGateStatus) // 当前用户是否已投稿
		api.POST("/global-submissions", challengeHandler.CreateSubmission)       // 提交即解锁

		// 动态（先参与后查看）
		api.GET("/global-feed", challengeHandler.GetGlobalFeed)

		// 投稿互动
		api.POST("/global-submissions/:id/vote", submissionHandler.ToggleVote)
		api.POST("/global-submissions/:id/comment", submissionHandler.AddComment)
		api.GET("/global-submissions/:id/comments", submissionHandler.GetComments)

		// 用户关系
		api.GET("/users/search", followHandler.SearchUsers)
		api.GET("/users/:id/votes", submissionHandler.GetUserVotes)
		api.POST("/users/:id/follow", followHandler.Follow)
		api.POST("/users/:id/unfollow", followHandler.Unfollow)
		api.GET("/users/:id/followers", followHandler.GetFollowers)
		api.GET("/users/:id/following", followHandler.GetFollowing)
		api.GET("/users/:id/relation", followHandler.GetRelation)
	}

	// 启动服务
	log.Printf("🚀 actify_engage service starting on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
