package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"ingredient-engine/internal/api"
	"ingredient-engine/internal/api/handlers/health"
	"ingredient-engine/internal/core/llm"
	"ingredient-engine/internal/core/macros"
	"ingredient-engine/internal/core/normalize"
	"ingredient-engine/internal/core/shopping"
	"ingredient-engine/internal/infrastructure/config"
	"ingredient-engine/internal/infrastructure/database"
	"ingredient-engine/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// statsStore 可回報統計的正規化儲存
type statsStore interface {
	normalize.Store
	health.StatsProvider
}

func main() {
	// 載入設定（.env 可選）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("database_driver", cfg.Database.Driver),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
		zap.Bool("normalizer_enabled", cfg.Normalizer.Enabled),
		zap.String("normalizer_model", cfg.Normalizer.Model),
	)

	readyDeps := make(map[string]health.Pinger)

	// 購物清單與正規化儲存
	var (
		itemStore shopping.Store
		nameStore statsStore
		db        *gorm.DB
	)
	if cfg.Database.Driver == "memory" {
		itemStore = shopping.NewMemoryStore()
		nameStore = normalize.NewMemoryStore()
	} else {
		db, err = database.Open(cfg.Database)
		if err != nil {
			common.LogFatal("Failed to open database", zap.Error(err))
		}
		defer func() {
			if err := database.Close(db); err != nil {
				common.LogError("Failed to close database", zap.Error(err))
			}
		}()

		sqlDB, err := db.DB()
		if err != nil {
			common.LogFatal("Failed to get database handle", zap.Error(err))
		}
		readyDeps["database"] = sqlDB

		itemStore = database.NewShoppingRepo(db)
		nameStore = database.NewNormalizationRepo(db)
	}

	// Redis 開啟時改用共享的正規化快取
	if cfg.Redis.Enabled {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err := client.Ping(ctx).Err()
		cancel()
		if err != nil {
			common.LogFatal("Failed to connect to redis",
				zap.String("addr", cfg.Redis.Addr),
				zap.Error(err),
			)
		}

		redisStore := normalize.NewRedisStore(client, cfg.Redis.KeyPrefix)
		defer redisStore.Close()

		nameStore = redisStore
		readyDeps["redis"] = health.PingFunc(func(ctx context.Context) error {
			return client.Ping(ctx).Err()
		})
	}

	nameCache := normalize.NewCache(nameStore, normalize.WithComputeTimeout(cfg.Normalizer.Timeout))

	// 外部模型；未開啟時保持 nil 介面
	var (
		normalizer normalize.Normalizer
		estimator  macros.Estimator
	)
	if cfg.Normalizer.Enabled {
		client := llm.NewClient(cfg.Normalizer)
		normalizer = client
		estimator = client
	}

	reconciler := shopping.NewReconciler(itemStore,
		shopping.WithMaxRetries(cfg.Reconcile.MaxRetries),
		shopping.WithRetryBackoff(cfg.Reconcile.RetryBackoff),
	)
	shoppingService := shopping.NewService(itemStore, reconciler, nameCache, normalizer)
	shoppingService.SetNormalizeConcurrency(cfg.Normalizer.Concurrency)

	// 設置路由
	router, err := api.SetupRouter(cfg, api.Services{
		Shopping:   shoppingService,
		Macros:     macros.NewService(estimator),
		Cache:      nameCache,
		Normalizer: normalizer,
		CacheStats: nameStore,
		ReadyDeps:  readyDeps,
	})
	if err != nil {
		common.LogError("Failed to setup router", zap.Error(err))
		os.Exit(1)
	}

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Bool("debug", cfg.App.Debug),
			zap.Int("port", cfg.Server.Port),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			common.LogError("Failed to start server",
				zap.Error(err),
			)
			os.Exit(1)
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	// 設置關閉超時
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown",
			zap.Error(err),
		)
		return
	}

	common.LogInfo("Server exited")
}
