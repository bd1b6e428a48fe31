package api

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"ingredient-engine/internal/api/handlers/health"
	ingredientHandler "ingredient-engine/internal/api/handlers/ingredient"
	macrosHandler "ingredient-engine/internal/api/handlers/macros"
	shoppingHandler "ingredient-engine/internal/api/handlers/shopping"
	"ingredient-engine/internal/api/middleware"
	"ingredient-engine/internal/core/macros"
	"ingredient-engine/internal/core/normalize"
	"ingredient-engine/internal/core/shopping"
	"ingredient-engine/internal/infrastructure/config"
	"ingredient-engine/internal/pkg/common"
)

// Services 路由所需的服務
type Services struct {
	Shopping   *shopping.Service
	Macros     *macros.Service
	Cache      *normalize.Cache
	Normalizer normalize.Normalizer
	CacheStats health.StatsProvider
	ReadyDeps  map[string]health.Pinger
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, svc Services) (*gin.Engine, error) {
	if svc.Shopping == nil {
		return nil, fmt.Errorf("shopping service is required")
	}
	if svc.Macros == nil {
		svc.Macros = macros.NewService(nil)
	}

	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New()) // 自動生成請求 ID
	router.Use(middleware.Logger())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(cfg.MaxBodyBytes))
	router.Use(middleware.Timeout(cfg.Server.RequestTimeout))

	// 健康檢查路由
	healthHandler := health.NewHandler(cfg, svc.CacheStats, svc.ReadyDeps)
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	// API 路由組
	v1 := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		v1.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}

	limit := cfg.Normalizer.Concurrency
	ingredients := ingredientHandler.NewHandler(svc.Cache, svc.Normalizer, limit)
	ingredientGroup := v1.Group("/ingredients")
	{
		ingredientGroup.POST("/parse", ingredients.HandleParse)
		ingredientGroup.POST("/format", ingredients.HandleFormat)
	}
	v1.POST("/normalize", ingredients.HandleNormalize)

	shoppingList := shoppingHandler.NewHandler(svc.Shopping)
	shoppingGroup := v1.Group("/shopping")
	{
		shoppingGroup.GET("", shoppingList.HandleList)
		shoppingGroup.POST("/items", middleware.Deduplication(cfg.DedupWindow), shoppingList.HandleAddItems)
		shoppingGroup.PATCH("/items/:id", shoppingList.HandleUpdateItem)
		shoppingGroup.DELETE("/items/:id", shoppingList.HandleDeleteItem)
		shoppingGroup.DELETE("/done", shoppingList.HandleClearDone)
		shoppingGroup.GET("/category", shoppingList.HandleSuggestCategory)
	}

	macroHandler := macrosHandler.NewHandler(svc.Macros)
	macroGroup := v1.Group("/macros")
	{
		macroGroup.POST("/aggregate", macroHandler.HandleAggregate)
		macroGroup.POST("/estimate", macroHandler.HandleEstimate)
	}

	router.NoRoute(func(c *gin.Context) {
		common.WriteError(c, common.ErrNotFound)
	})

	common.LogInfo("Router setup completed successfully",
		zap.Bool("normalizer_enabled", svc.Normalizer != nil),
		zap.Bool("macros_enabled", svc.Macros.Enabled()),
		zap.Duration("request_timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.MaxBodyBytes),
	)

	return router, nil
}
