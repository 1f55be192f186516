package api

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"recipe-ingestor/internal/api/handlers"
	"recipe-ingestor/internal/api/handlers/health"
	recipeHandler "recipe-ingestor/internal/api/handlers/recipe"
	"recipe-ingestor/internal/api/middleware"
	"recipe-ingestor/internal/core/cuisine"
	"recipe-ingestor/internal/core/ingredient"
	"recipe-ingestor/internal/core/macro"
	"recipe-ingestor/internal/core/pipeline"
	"recipe-ingestor/internal/infrastructure/config"
	"recipe-ingestor/internal/pkg/common"
)

// Services 路由使用的服務；除 Processor 與 Parser 外皆可為 nil
type Services struct {
	Parser    *ingredient.Parser
	Processor *pipeline.Processor
	Queue     *pipeline.Queue
	Hosts     recipeHandler.HostChecker
	Lookup    recipeHandler.RecipeLookup
	Cuisine   *cuisine.Manager
	Macros    *macro.Manager
	// DBPing 非 nil 時列入就緒檢查
	DBPing func(ctx context.Context) error
}

// SetupRouter 設置路由；ctx 結束時停止去重表清理
func SetupRouter(ctx context.Context, cfg *config.Config, svc Services) (*gin.Engine, error) {
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
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID", "Retry-After"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	if cfg.Server.RequestTimeout > 0 {
		router.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	}

	// 健康檢查路由不受限流與去重影響
	healthHandler := health.NewHandler(cfg.App.Version, svc.Queue)
	if svc.Cuisine != nil {
		healthHandler.AddProviders("cuisine", svc.Cuisine)
	}
	if svc.Macros != nil {
		healthHandler.AddProviders("macros", svc.Macros)
	}
	if svc.DBPing != nil {
		healthHandler.AddCheck("database", svc.DBPing)
	}
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	dedup := middleware.NewDeduplicator(cfg.DedupWindow)
	dedup.StartCleanup(ctx, time.Minute)
	api.Use(dedup.Middleware())

	ingredientH := recipeHandler.NewIngredientHandler(svc.Parser)
	recipeH := recipeHandler.NewHandler(svc.Processor, svc.Queue, svc.Hosts, svc.Lookup)
	enrichH := handlers.NewEnrichmentHandler(svc.Cuisine, svc.Macros)
	{
		api.POST("/ingredients/parse", ingredientH.HandleParse)

		recipeGroup := api.Group("/recipes")
		{
			recipeGroup.GET("", recipeH.HandleGet)
			recipeGroup.POST("/normalize", recipeH.HandleNormalize)
			recipeGroup.POST("/ingest", recipeH.HandleIngest)
			recipeGroup.GET("/queue", recipeH.HandleQueueStatus)
		}

		api.POST("/cuisine/classify", enrichH.ClassifyCuisine)

		macroGroup := api.Group("/macros")
		{
			macroGroup.POST("/ingredient", enrichH.AnalyzeIngredient)
			macroGroup.POST("/recipe", enrichH.AnalyzeRecipe)
			macroGroup.GET("/search", enrichH.SearchFoods)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.Bool("queue_enabled", svc.Queue != nil),
		zap.Bool("storage_enabled", svc.Lookup != nil),
		zap.Bool("cuisine_enabled", svc.Cuisine != nil),
		zap.Bool("macros_enabled", svc.Macros != nil),
		zap.Duration("timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router, nil
}
