package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"course-eval/backend/config"
	"course-eval/backend/internal/api/handler"
	"course-eval/backend/internal/api/middleware"
	"course-eval/backend/internal/api/router"
	"course-eval/backend/internal/repository"
	"course-eval/backend/internal/service"
	"course-eval/backend/pkg/ai"
	"course-eval/backend/pkg/database"
	"course-eval/backend/pkg/jwt"
	applogger "course-eval/backend/pkg/logger"
	"course-eval/backend/pkg/metrics"
	"course-eval/backend/pkg/redis"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（默认查找 ./config/config.yaml）")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.Bool("ai_enabled", cfg.AI.Enabled),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, cfg.Log.Level, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	logger.Info("数据库连接成功")

	// 3.1 执行数据库迁移（唯一索引在迁移中创建）
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：连接失败时降级运行，不中断启动）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，Token 黑名单与限流将不可用，摘要生成仅在本实例内去重", zap.Error(err))
		rdb = nil
	}

	// 5. 基础组件
	jwtMgr := jwt.NewManager(&cfg.Auth)
	aiClient := ai.NewClient(&cfg.AI, logger)
	m := metrics.NewMetrics(prometheus.DefaultRegisterer)

	// 接口变量只在 Redis 可用时赋值，避免持有带类型的 nil
	svcDeps := service.Deps{JWT: jwtMgr, Generator: aiClient, Metrics: m}
	routeDeps := router.Deps{JWT: jwtMgr, Metrics: m, Gatherer: prometheus.DefaultGatherer}
	if rdb != nil {
		svcDeps.Blacklist = rdb
		svcDeps.Locker = rdb
		routeDeps.Blacklist = middleware.TokenBlacklist(rdb)
		routeDeps.Limiter = middleware.RateLimiter(rdb)
	}

	// 6. 依赖注入: Repository → Service → Handler
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, svcDeps, logger)

	if err := handler.RegisterValidators(); err != nil {
		logger.Fatal("注册参数校验规则失败", zap.Error(err))
	}
	h := handler.NewHandler(svc)

	// 7. 初始化路由
	engine := router.Setup(cfg, h, routeDeps, logger)

	// 8. 启动时检查课程摘要（后台执行，不阻塞服务启动）
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	if cfg.Summary.SweepOnStartup {
		go func() {
			if _, err := svc.Sweep.Run(sweepCtx); err != nil {
				logger.Warn("启动摘要检查未完成", zap.Error(err))
			}
		}()
	}

	// 9. 启动 HTTP 服务器（优雅关闭）
	// 写超时需覆盖管理员同步触发的摘要生成
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.Summary.GenerateTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 10. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	// 已提交的课程摘要不受影响，未处理的课程留待下次启动
	stopSweep()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 关闭数据库连接
	if err := sqlDB.Close(); err != nil {
		logger.Warn("关闭数据库连接失败", zap.Error(err))
	}

	// 关闭 Redis 连接
	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("服务器已关闭")
}
