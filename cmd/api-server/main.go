// Package main API 服务入口
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bookforge-api/internal/application/budget"
	"bookforge-api/internal/application/stage"
	"bookforge-api/internal/config"
	"bookforge-api/internal/infrastructure/llm"
	"bookforge-api/internal/infrastructure/persistence/postgres"
	"bookforge-api/internal/infrastructure/persistence/redis"
	"bookforge-api/internal/infrastructure/storage"
	"bookforge-api/internal/interfaces/http/handler"
	"bookforge-api/internal/interfaces/http/router"
	"bookforge-api/pkg/logger"
	"bookforge-api/pkg/tracer"

	"github.com/joho/godotenv"
)

// Version 版本信息，构建时注入
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// 加载 .env 文件（如果存在）
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger.Init(
		cfg.Observability.Logging.Level,
		cfg.Observability.Logging.Format,
	)

	ctx := context.Background()
	log := logger.FromContext(ctx)
	log.Info("starting api-server",
		"version", Version,
		"build_time", BuildTime,
		"env", cfg.App.Env,
	)

	// 初始化追踪
	shutdownTracer, err := tracer.Init(ctx, tracer.Config{
		ServiceName: cfg.App.Name,
		Endpoint:    cfg.Observability.Tracing.Endpoint,
		SampleRate:  cfg.Observability.Tracing.SampleRate,
		Enabled:     cfg.Observability.Tracing.Enabled,
	})
	if err != nil {
		logger.Fatal(ctx, "failed to init tracer", err)
	}
	defer func() {
		if err := shutdownTracer(ctx); err != nil {
			log.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// 持久化层
	pgClient, err := postgres.NewClient(&cfg.Database.Postgres)
	if err != nil {
		logger.Fatal(ctx, "failed to connect postgres", err)
	}
	defer func() { _ = pgClient.Close() }()

	redisClient, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		logger.Fatal(ctx, "failed to connect redis", err)
	}
	defer func() { _ = redisClient.Close() }()

	cache := redis.NewCache(redisClient)
	rateLimiter := redis.NewRateLimiter(redisClient)

	txManager := postgres.NewTxManager(pgClient)
	userRepo := postgres.NewUserRepository(pgClient)
	projectRepo := postgres.NewProjectRepository(pgClient)
	conceptRepo := postgres.NewConceptRepository(pgClient)
	chapterRepo := postgres.NewChapterRepository(pgClient)
	coverRepo := postgres.NewCoverRepository(pgClient)

	// 生成与存储
	einoFactory := llm.NewEinoFactory(cfg)
	generator := llm.NewGenerator(einoFactory, cfg)
	imageClient := llm.NewImageClient(cfg)

	uploader, err := storage.NewGCSUploader(ctx, &cfg.Storage.GCS)
	if err != nil {
		logger.Fatal(ctx, "failed to init object storage", err)
	}
	defer func() { _ = uploader.Close() }()

	// 应用层
	guard := budget.NewGuard(userRepo, cache)
	stageService := stage.NewService(
		projectRepo, conceptRepo, chapterRepo, coverRepo,
		guard, txManager,
		generator, imageClient, uploader,
	)

	// HTTP 层
	handlers := router.Handlers{
		Health:     handler.NewHealthHandler(pgClient, redisClient),
		Auth:       handler.NewAuthHandler(cfg.Security.JWT, userRepo),
		User:       handler.NewUserHandler(userRepo, cache),
		Project:    handler.NewProjectHandler(projectRepo, userRepo, txManager),
		Chapter:    handler.NewChapterHandler(chapterRepo, projectRepo),
		Concept:    handler.NewConceptHandler(conceptRepo, projectRepo),
		Cover:      handler.NewCoverHandler(coverRepo, projectRepo),
		Generation: handler.NewGenerationHandler(stageService),
	}

	r := router.New(cfg, handlers, rateLimiter)

	// 创建 HTTP 服务器
	addr := fmt.Sprintf("%s:%d", cfg.Server.HTTP.Host, cfg.Server.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r.Engine(),
		ReadTimeout:  cfg.Server.HTTP.ReadTimeout,
		WriteTimeout: cfg.Server.HTTP.WriteTimeout,
		IdleTimeout:  cfg.Server.HTTP.IdleTimeout,
	}

	// 启动服务器
	go func() {
		log.Info("http server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("http server error", "error", err)
			os.Exit(1)
		}
	}()

	// 等待中断信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// 优雅关闭
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", "error", err)
	}

	log.Info("server exited")
}
