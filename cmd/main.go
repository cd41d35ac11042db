package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/fyerfyer/doc-insight-system/api"
	"github.com/fyerfyer/doc-insight-system/api/handler"
	"github.com/fyerfyer/doc-insight-system/api/middleware"
	appconfig "github.com/fyerfyer/doc-insight-system/config"
	"github.com/fyerfyer/doc-insight-system/internal/analyzer"
	"github.com/fyerfyer/doc-insight-system/internal/cache"
	"github.com/fyerfyer/doc-insight-system/internal/database"
	"github.com/fyerfyer/doc-insight-system/internal/services"
	"github.com/fyerfyer/doc-insight-system/pkg/storage"
	"github.com/fyerfyer/doc-insight-system/pkg/taskqueue"
)

// 命令行选项
type options struct {
	ConfigFile string // 配置文件路径
	BatchMode  bool   // 批量模式：处理完根目录下的所有集合后退出
	RootDir    string // 批量模式的集合根目录
	Mode       string // Gin运行模式 (debug/release)
}

func main() {
	opts := parseFlags()

	// 加载.env文件（如果存在）
	_ = godotenv.Load()

	cfg, err := appconfig.Load(opts.ConfigFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg.Log)

	if opts.BatchMode {
		runBatch(opts, cfg, logger)
		return
	}

	runServer(opts, cfg, logger)
}

// runBatch 对根目录下的所有集合执行一次性批量分析
// 批量模式不依赖数据库和任务队列
func runBatch(opts options, cfg *appconfig.Config, logger *logrus.Logger) {
	rootDir := opts.RootDir
	if rootDir == "" {
		rootDir = cfg.Batch.RootDir
	}

	logger.WithFields(logrus.Fields{
		"root_dir":    rootDir,
		"concurrency": cfg.Batch.Concurrency,
	}).Info("Starting batch analysis")

	service := services.NewAnalysisService(buildServiceOptions(cfg, logger)...)

	runner := services.NewBatchRunner(service, cfg.Batch.Concurrency, logger)
	result, err := runner.Run(context.Background(), rootDir)
	if err != nil {
		logger.Fatalf("Batch analysis failed: %v", err)
	}

	logger.WithFields(logrus.Fields{
		"total":     result.Total,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
	}).Info("Batch analysis finished")

	for _, errMsg := range result.Errors {
		logger.Warnf("Collection failed: %s", errMsg)
	}

	if result.Failed > 0 {
		os.Exit(1)
	}
}

// runServer 以HTTP服务方式运行
func runServer(opts options, cfg *appconfig.Config, logger *logrus.Logger) {
	gin.SetMode(opts.Mode)
	logger.Info("Starting Document Insight System...")

	// 初始化数据库
	if err := setupDatabase(cfg, logger); err != nil {
		logger.Fatalf("Failed to initialize database: %v", err)
	}

	serviceOptions := buildServiceOptions(cfg, logger)

	// 初始化任务队列（如果启用）
	var queue taskqueue.Queue
	var worker taskqueue.Worker
	if cfg.Queue.Enable {
		var err error
		queue, err = setupTaskQueue(cfg, logger)
		if err != nil {
			logger.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer queue.Close()

		serviceOptions = append(serviceOptions, services.WithTaskQueue(queue))
		logger.Info("Task queue initialized successfully")
	}

	analysisService := services.NewAnalysisService(serviceOptions...)
	if err := analysisService.Init(); err != nil {
		logger.Fatalf("Failed to initialize analysis service: %v", err)
	}

	// 启动后台工作者处理入队的分析任务
	if queue != nil {
		redisQueue, ok := queue.(*taskqueue.RedisQueue)
		if !ok {
			logger.Fatalf("Unsupported queue type for worker: %s", cfg.Queue.Type)
		}

		worker = taskqueue.NewRedisWorker(redisQueue, nil)
		worker.RegisterHandler(taskqueue.TaskCollectionAnalyze,
			taskqueue.NewAnalyzeHandler(analysisService, queue, logger))

		if err := worker.Start(); err != nil {
			logger.Fatalf("Failed to start task worker: %v", err)
		}
		logger.Info("Analysis task worker started")
	}

	// 初始化API处理器和路由
	analysisHandler := handler.NewAnalysisHandler(analysisService)
	router := api.SetupRouter(analysisHandler)

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Infof("Server is running on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// 等待终止信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	if worker != nil {
		worker.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatalf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited")
}

// parseFlags 解析命令行参数
func parseFlags() options {
	opts := options{}

	flag.StringVar(&opts.ConfigFile, "config", "", "Path to config file")
	flag.BoolVar(&opts.BatchMode, "batch", false, "Run batch analysis over a collections directory and exit")
	flag.StringVar(&opts.RootDir, "dir", "", "Collections root directory for batch mode")
	flag.StringVar(&opts.Mode, "mode", "debug", "Run mode (debug/release)")

	flag.Parse()
	return opts
}

// buildServiceOptions 根据配置组装分析服务的选项
func buildServiceOptions(cfg *appconfig.Config, logger *logrus.Logger) []services.AnalysisOption {
	serviceOptions := []services.AnalysisOption{
		services.WithAnalyzerConfig(buildAnalyzerConfig(cfg.Analyzer)),
		services.WithLogger(logger),
	}

	// 结果归档存储
	store, err := setupStorage(cfg)
	if err != nil {
		logger.Warnf("Failed to initialize archive storage, results will not be archived: %v", err)
	} else {
		serviceOptions = append(serviceOptions, services.WithStorage(store))
	}

	// 文本块缓存
	if cfg.Cache.Enable {
		blockCache, err := setupBlockCache(cfg)
		if err != nil {
			logger.Warnf("Failed to initialize cache, extraction results will not be cached: %v", err)
		} else {
			serviceOptions = append(serviceOptions, services.WithBlockCache(blockCache))
		}
	}

	return serviceOptions
}

// buildAnalyzerConfig 将应用配置转换为分析管线配置
func buildAnalyzerConfig(cfg appconfig.AnalyzerConfig) analyzer.Config {
	analyzerCfg := analyzer.DefaultConfig()
	if cfg.MaxSections > 0 {
		analyzerCfg.MaxSections = cfg.MaxSections
	}
	if cfg.MaxSubsections > 0 {
		analyzerCfg.MaxSubsections = cfg.MaxSubsections
	}
	if cfg.VocabularySize > 0 {
		analyzerCfg.VocabularySize = cfg.VocabularySize
	}
	if cfg.MinContentLength > 0 {
		analyzerCfg.MinContentLength = cfg.MinContentLength
	}
	if cfg.MinSentenceLength > 0 {
		analyzerCfg.MinSentenceLength = cfg.MinSentenceLength
	}
	return analyzerCfg
}

// setupLogger 设置日志系统
// 配置了日志文件时使用lumberjack滚动日志
func setupLogger(cfg appconfig.LogConfig) *logrus.Logger {
	logger := middleware.GetLogger()

	switch cfg.Level {
	case "debug":
		logger.SetLevel(logrus.DebugLevel)
	case "info":
		logger.SetLevel(logrus.InfoLevel)
	case "warn":
		logger.SetLevel(logrus.WarnLevel)
	case "error":
		logger.SetLevel(logrus.ErrorLevel)
	default:
		logger.SetLevel(logrus.InfoLevel)
	}

	if cfg.File != "" {
		rotator := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSize,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAge,
			Compress:   true,
		}
		logger.SetOutput(io.MultiWriter(os.Stdout, rotator))
	}

	return logger
}

// setupStorage 设置结果归档存储
func setupStorage(cfg *appconfig.Config) (storage.Storage, error) {
	if cfg.Storage.Type == "minio" {
		return storage.NewMinioStorage(storage.MinioConfig{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			UseSSL:    cfg.Storage.UseSSL,
			Bucket:    cfg.Storage.Bucket,
		})
	}

	if err := os.MkdirAll(cfg.Storage.Path, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %v", err)
	}
	return storage.NewLocalStorage(storage.LocalConfig{
		Path: cfg.Storage.Path,
	})
}

// setupBlockCache 设置文本块缓存
func setupBlockCache(cfg *appconfig.Config) (*cache.BlockCache, error) {
	ttl := time.Duration(cfg.Cache.TTL) * time.Second
	if ttl <= 0 {
		ttl = time.Hour
	}

	cacheConfig := cache.Config{
		Type:            cfg.Cache.Type,
		DefaultTTL:      ttl,
		CleanupInterval: 10 * time.Minute,
	}
	if cfg.Cache.Type == "redis" {
		cacheConfig.RedisAddr = cfg.Cache.Address
		cacheConfig.RedisPassword = cfg.Cache.Password
		cacheConfig.RedisDB = cfg.Cache.DB
	}

	cacheService, err := cache.NewCache(cacheConfig)
	if err != nil {
		return nil, err
	}
	return cache.NewBlockCache(cacheService, ttl), nil
}

// setupDatabase 设置数据库
func setupDatabase(cfg *appconfig.Config, logger *logrus.Logger) error {
	if cfg.Database.Type == "sqlite" {
		if err := os.MkdirAll(filepath.Dir(cfg.Database.DSN), 0755); err != nil {
			return fmt.Errorf("failed to create database directory: %v", err)
		}
	}

	dbConfig := database.DefaultConfig()
	dbConfig.Type = cfg.Database.Type
	dbConfig.DSN = cfg.Database.DSN
	return database.Setup(dbConfig, logger)
}

// setupTaskQueue 设置任务队列
func setupTaskQueue(cfg *appconfig.Config, logger *logrus.Logger) (taskqueue.Queue, error) {
	queueConfig := taskqueue.DefaultConfig()
	queueConfig.RedisAddr = cfg.Queue.RedisAddr
	queueConfig.RedisPassword = cfg.Queue.RedisPassword
	queueConfig.RedisDB = cfg.Queue.RedisDB
	if cfg.Queue.Concurrency > 0 {
		queueConfig.Concurrency = cfg.Queue.Concurrency
	}
	if cfg.Queue.RetryLimit > 0 {
		queueConfig.RetryLimit = cfg.Queue.RetryLimit
	}
	if cfg.Queue.RetryDelay > 0 {
		queueConfig.RetryDelay = time.Duration(cfg.Queue.RetryDelay) * time.Second
	}

	logger.WithFields(logrus.Fields{
		"type":        cfg.Queue.Type,
		"redis_addr":  cfg.Queue.RedisAddr,
		"concurrency": queueConfig.Concurrency,
		"retry_limit": queueConfig.RetryLimit,
	}).Info("Setting up task queue")

	return taskqueue.NewQueue(cfg.Queue.Type, queueConfig)
}
