package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/wfunc/dig-game/internal/api"
	"github.com/wfunc/dig-game/internal/config"
	"github.com/wfunc/dig-game/internal/database"
	"github.com/wfunc/dig-game/internal/errors"
	"github.com/wfunc/dig-game/internal/logger"
	"go.uber.org/zap"
)

// 版本信息
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// Server 服务器实例
type Server struct {
	cfg    *config.Config
	logger *zap.Logger
	router *api.Router
	http   *http.Server
}

func main() {
	// 命令行参数
	var (
		configPath  = flag.String("config", "", "配置文件路径")
		showVersion = flag.Bool("version", false, "显示版本信息")
		showHelp    = flag.Bool("help", false, "显示帮助信息")
	)

	flag.Parse()

	// 显示版本信息
	if *showVersion {
		printVersion()
		os.Exit(0)
	}

	// 显示帮助信息
	if *showHelp {
		printHelp()
		os.Exit(0)
	}

	// 加载配置
	if err := config.Init(*configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}

	cfg := config.Get()

	// 初始化日志系统
	if err := logger.Init(&cfg.Log); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}

	// 打印启动信息
	printStartInfo(cfg)

	// 创建服务器实例
	server := NewServer(cfg)

	// 启动服务器
	if err := server.Start(); err != nil {
		logger.Fatal("服务器启动失败", zap.Error(err))
	}

	// 等待退出信号
	server.WaitForShutdown()

	// 优雅关闭
	if err := server.Shutdown(); err != nil {
		logger.Error("服务器关闭失败", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("服务器已安全关闭")
}

// NewServer 创建服务器实例
func NewServer(cfg *config.Config) *Server {
	return &Server{
		cfg:    cfg,
		logger: logger.GetLogger(),
	}
}

// Start 启动服务器
func (s *Server) Start() error {
	s.logger.Info("正在启动考古发掘教学服务器...",
		zap.String("version", Version),
		zap.String("mode", s.cfg.Server.Mode),
	)

	// 初始化数据库
	if err := s.initDatabase(); err != nil {
		return err
	}

	// 创建路由器（内部组装发掘服务与WebSocket推送）
	s.router = api.NewRouter(database.GetDB(), s.cfg, s.logger)

	addr := fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port)
	s.http = &http.Server{
		Addr:         addr,
		Handler:      s.router.GetEngine(),
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
	}

	// 启动HTTP服务
	go func() {
		if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Fatal("HTTP服务启动失败", zap.Error(err))
		}
	}()

	// 监听配置变化
	config.Watch(func(newCfg *config.Config) {
		s.logger.Info("配置已更新，正在重新加载...")
		s.cfg = newCfg
	})

	s.logger.Info("服务器启动成功", zap.String("http", addr))

	return nil
}

// initDatabase 初始化数据库
func (s *Server) initDatabase() error {
	s.logger.Info("初始化数据库...")

	// 初始化数据库连接
	if err := database.Init(&s.cfg.Database); err != nil {
		return errors.Wrap(err, errors.ErrDatabaseConnect, "初始化数据库连接失败")
	}

	// 自动迁移数据库
	if s.cfg.Database.AutoMigrate {
		s.logger.Info("执行数据库自动迁移...")
		if err := database.AutoMigrate(); err != nil {
			return errors.Wrap(err, errors.ErrDatabaseConnect, "数据库迁移失败")
		}
	}

	// 检查数据库连接
	if !database.IsConnected() {
		return errors.New(errors.ErrDatabaseConnect, "数据库连接检查失败")
	}

	s.logger.Info("数据库初始化完成")
	return nil
}

// WaitForShutdown 等待关闭信号
func (s *Server) WaitForShutdown() {
	sigCh := make(chan os.Signal, 1)

	// 监听系统信号
	signal.Notify(sigCh,
		syscall.SIGINT,  // Ctrl+C
		syscall.SIGTERM, // kill命令
		syscall.SIGQUIT, // Ctrl+\
	)

	sig := <-sigCh
	s.logger.Info("收到退出信号", zap.String("signal", sig.String()))
}

// Shutdown 优雅关闭服务器
func (s *Server) Shutdown() error {
	s.logger.Info("正在优雅关闭服务器...")

	// 创建超时上下文
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Server.ShutdownTimeout)
	defer cancel()

	// 停止接收新请求并等待在途请求完成
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP服务关闭超时", zap.Error(err))
	}

	// 释放会话缓存等服务资源
	s.router.Close()

	// 关闭数据库连接
	if err := database.Close(); err != nil {
		s.logger.Error("关闭数据库失败", zap.Error(err))
	}

	// 同步日志
	if err := logger.Sync(); err != nil {
		fmt.Printf("同步日志失败: %v\n", err)
	}

	return nil
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("考古发掘教学服务器\n")
	fmt.Printf("版本: %s\n", Version)
	fmt.Printf("构建时间: %s\n", BuildTime)
	fmt.Printf("Git提交: %s\n", GitCommit)
	fmt.Printf("Go版本: %s\n", runtime.Version())
	fmt.Printf("操作系统: %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("考古发掘教学服务器")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  dig-game-server [选项]")
	fmt.Println()
	fmt.Println("选项:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("环境变量:")
	fmt.Println("  DIG_GAME_SERVER_MODE   运行模式 (development/production/test)")
	fmt.Println("  DIG_GAME_DATABASE_DSN  数据库连接串")
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  dig-game-server -config=/path/to/config.yaml")
	fmt.Println("  dig-game-server -version")
}

// printStartInfo 打印启动信息
func printStartInfo(cfg *config.Config) {
	banner := `
╔═══════════════════════════════════════════════════════════════╗
║                                                               ║
║     ____  _          ____                                     ║
║    |  _ \(_) __ _   / ___| __ _ _ __ ___   ___                ║
║    | | | | |/ _` + "`" + ` | | |  _ / _` + "`" + ` | '_ ` + "`" + ` _ \ / _ \               ║
║    | |_| | | (_| | | |_| | (_| | | | | | |  __/               ║
║    |____/|_|\__, |  \____|\__,_|_| |_| |_|\___|               ║
║             |___/                                             ║
║                                                               ║
║                   考古发掘教学后端服务器                      ║
║                                                               ║
╚═══════════════════════════════════════════════════════════════╝
`
	fmt.Println(banner)
	fmt.Printf("版本: %s | 模式: %s | PID: %d\n", Version, cfg.Server.Mode, os.Getpid())
	fmt.Println("═══════════════════════════════════════════════════════════════")
}
