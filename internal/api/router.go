package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wfunc/dig-game/internal/config"
	"github.com/wfunc/dig-game/internal/game"
	"github.com/wfunc/dig-game/internal/game/excavation"
	"github.com/wfunc/dig-game/internal/middleware"
	"github.com/wfunc/dig-game/internal/repository"
	"github.com/wfunc/dig-game/internal/utils"
	ws "github.com/wfunc/dig-game/internal/websocket"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Router API路由器
type Router struct {
	engine            *gin.Engine
	db                *gorm.DB
	excavationService *game.ExcavationService
	authHandler       *AuthHandler
	excavationHandler *ExcavationHandler
	wsHandler         *WebSocketHandler
	authMiddleware    *middleware.AuthMiddleware
	log               *zap.Logger
}

// NewRouter 创建路由器
func NewRouter(db *gorm.DB, cfg *config.Config, log *zap.Logger) *Router {
	// 创建Gin引擎
	engine := gin.New()

	// 全局中间件
	engine.Use(gin.Recovery())
	engine.Use(gin.Logger())

	// WebSocket推送层
	hub := ws.NewHub(log)
	go hub.Run()

	// 创建发掘服务
	excavationService := game.NewExcavationService(&game.ExcavationServiceConfig{
		DB:     db,
		Logger: log,
		Gameplay: excavation.GameplayConfig{
			QuestsEnabled:    cfg.Game.QuestsEnabled,
			TimeLimitEnabled: cfg.Game.TimeLimitEnabled,
			DefaultTool:      cfg.Game.DefaultTool,
		},
		Events: ws.NewEventPublisher(hub, log),
	})

	// JWT管理器与认证中间件
	jwtManager := utils.NewJWTManager(
		cfg.Security.JWT.Secret,
		time.Duration(cfg.Security.JWT.ExpireHours)*time.Hour,
		time.Duration(cfg.Security.JWT.RefreshHours)*time.Hour,
	)
	authMiddleware := middleware.NewAuthMiddleware(jwtManager)

	// 创建处理器
	userRepo := repository.NewUserRepository(db)
	authHandler := NewAuthHandler(userRepo, jwtManager, log)
	excavationHandler := NewExcavationHandler(excavationService, log)
	wsHandler := NewWebSocketHandler(hub, log)

	router := &Router{
		engine:            engine,
		db:                db,
		excavationService: excavationService,
		authHandler:       authHandler,
		excavationHandler: excavationHandler,
		wsHandler:         wsHandler,
		authMiddleware:    authMiddleware,
		log:               log,
	}

	// 设置路由
	router.setupRoutes()

	return router
}

// setupRoutes 设置路由
func (r *Router) setupRoutes() {
	// 健康检查
	r.engine.GET("/health", r.healthCheck)

	// API文档（swagger构建标签下启用UI）
	registerOpenAPIRoutes(r.engine)
	registerSwaggerRoutes(r.engine)

	// API v1路由组
	v1 := r.engine.Group("/api/v1")
	{
		// 认证相关路由（不需要认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", r.authHandler.Login)
			auth.POST("/refresh", r.authHandler.RefreshToken)

			// 需要认证的路由
			authRequired := auth.Group("")
			authRequired.Use(r.authMiddleware.RequireAuth())
			{
				authRequired.GET("/profile", r.authHandler.GetProfile)
			}
		}

		// 遗址与工具目录（需要认证）
		sites := v1.Group("/sites")
		sites.Use(r.authMiddleware.RequireAuth())
		{
			sites.GET("", r.excavationHandler.ListSites)
		}

		tools := v1.Group("/tools")
		tools.Use(r.authMiddleware.RequireAuth())
		{
			tools.GET("", r.excavationHandler.ListTools)
		}

		// 发掘会话路由（需要认证）
		sessions := v1.Group("/sessions")
		sessions.Use(r.authMiddleware.RequireAuth())
		{
			sessions.POST("", r.excavationHandler.StartSession)
			sessions.GET("", r.excavationHandler.ListSessions)
			sessions.GET("/:id", r.excavationHandler.GetSession)
			sessions.POST("/:id/actions", r.excavationHandler.ApplyAction)
			sessions.PUT("/:id/tool", r.excavationHandler.ChangeTool)
			sessions.POST("/:id/entries", r.excavationHandler.AddEntry)
			sessions.POST("/:id/complete", r.excavationHandler.CompleteSession)
			sessions.POST("/:id/abandon", r.excavationHandler.AbandonSession)
		}
	}

	// WebSocket路由（令牌通过Query参数传递）
	wsGroup := r.engine.Group("/ws")
	wsGroup.Use(r.authMiddleware.OptionalAuth())
	{
		wsGroup.GET("/game", r.wsHandler.GameWebSocket)
		wsGroup.GET("/online", r.wsHandler.GetOnlineCount)
	}

	// 静态文件服务
	r.engine.Static("/static", "./static")

	// 404处理
	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(404, gin.H{
			"code":    "NOT_FOUND",
			"message": "接口不存在",
		})
	})
}

// healthCheck 健康检查
func (r *Router) healthCheck(c *gin.Context) {
	// 检查数据库连接
	sqlDB, err := r.db.DB()
	if err != nil {
		c.JSON(500, gin.H{
			"status":  "unhealthy",
			"message": "数据库连接失败",
		})
		return
	}

	if err := sqlDB.Ping(); err != nil {
		c.JSON(500, gin.H{
			"status":  "unhealthy",
			"message": "数据库ping失败",
		})
		return
	}

	c.JSON(200, gin.H{
		"status":  "healthy",
		"message": "服务运行正常",
		"time":    time.Now().Format(time.RFC3339),
	})
}

// Run 运行服务器
func (r *Router) Run(addr string) error {
	r.log.Info("Starting API server", zap.String("address", addr))
	return r.engine.Run(addr)
}

// GetEngine 获取Gin引擎（用于测试）
func (r *Router) GetEngine() *gin.Engine {
	return r.engine
}

// Close 释放服务资源
func (r *Router) Close() {
	r.excavationService.Close()
}
