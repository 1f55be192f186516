// Package app 依設定組裝各服務，供 cmd 使用
package app

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"recipe-ingestor/internal/api"
	"recipe-ingestor/internal/core/cache"
	"recipe-ingestor/internal/core/cuisine"
	"recipe-ingestor/internal/core/cuisine/huggingface"
	"recipe-ingestor/internal/core/cuisine/openrouter"
	"recipe-ingestor/internal/core/ingredient"
	"recipe-ingestor/internal/core/macro"
	"recipe-ingestor/internal/core/macro/apininjas"
	"recipe-ingestor/internal/core/macro/usda"
	"recipe-ingestor/internal/core/pipeline"
	"recipe-ingestor/internal/core/recipe"
	"recipe-ingestor/internal/core/scraper"
	"recipe-ingestor/internal/infrastructure/config"
	"recipe-ingestor/internal/infrastructure/postgres"
	"recipe-ingestor/internal/pkg/common"
)

// App 組裝完成的服務
type App struct {
	Fetcher   *scraper.Fetcher
	Scraper   *scraper.Scraper
	Parser    *ingredient.Parser
	Processor *pipeline.Processor
	Cuisine   *cuisine.Manager
	Macros    *macro.Manager
	Repo      *postgres.RecipeRepo

	cache cache.Store
	pool  *pgxpool.Pool
}

// Options 組裝選項
type Options struct {
	// Strict 覆寫 cfg.Scraper.Strict
	Strict *bool
	// NoStore 不連線資料庫，處理結果為 PREVIEW
	NoStore bool
}

// New 建立所有服務；資料庫網址為空時不啟用儲存
func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	a := &App{}

	store, err := cache.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cache: %w", err)
	}
	a.cache = store

	strict := cfg.Scraper.Strict
	if opts.Strict != nil {
		strict = *opts.Strict
	}
	a.Parser = ingredient.NewParser(ingredient.Config{Strict: strict})
	a.Fetcher = scraper.NewFetcher(cfg.Scraper)
	a.Scraper = scraper.New(a.Fetcher)
	a.Cuisine = newCuisineManager(cfg, store)
	a.Macros = newMacroManager(cfg, store)

	popts := pipeline.Options{
		Scraper:    pipeline.FromScraper(a.Scraper),
		Normalizer: recipe.NewNormalizer(a.Parser),
		Cuisine:    a.Cuisine,
		Macros:     a.Macros,
	}

	if cfg.Database.URL != "" && !opts.NoStore {
		if cfg.Database.MigrateOnStart {
			if err := postgres.Migrate(ctx, cfg.Database.URL); err != nil {
				a.Close()
				return nil, err
			}
		}
		pool, err := postgres.NewPool(ctx, cfg.Database)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.pool = pool
		a.Repo = postgres.NewRecipeRepo(pool)
		popts.Store = a.Repo
	} else {
		common.LogWarn("未設定資料庫，處理結果不會儲存")
	}

	a.Processor = pipeline.NewProcessor(popts)

	common.LogInfo("Services initialized",
		zap.Bool("strict", strict),
		zap.Bool("cache_enabled", store != nil),
		zap.Bool("storage_enabled", a.Repo != nil),
		zap.Bool("openrouter_enabled", cfg.OpenRouter.Enabled),
		zap.Bool("usda_enabled", cfg.USDA.Enabled),
	)
	return a, nil
}

// Services 轉為路由所需的服務
func (a *App) Services(queue *pipeline.Queue) api.Services {
	svc := api.Services{
		Parser:    a.Parser,
		Processor: a.Processor,
		Queue:     queue,
		Hosts:     a.Scraper,
		Cuisine:   a.Cuisine,
		Macros:    a.Macros,
	}
	if a.Repo != nil {
		svc.Lookup = a.Repo
	}
	if a.pool != nil {
		svc.DBPing = a.pool.Ping
	}
	return svc
}

// Close 釋放資料庫與緩存連線
func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			common.LogWarn("關閉快取失敗", zap.Error(err))
		}
	}
}

// newCuisineManager Hugging Face 為主，OpenRouter 啟用時作為備援
func newCuisineManager(cfg *config.Config, store cache.Store) *cuisine.Manager {
	primary := cuisine.NewCachedClassifier(huggingface.NewClient(cfg.HuggingFace), store, cfg.Cache.TTL)
	var fallbacks []cuisine.Classifier
	if cfg.OpenRouter.Enabled {
		fallbacks = append(fallbacks, cuisine.NewCachedClassifier(openrouter.NewClient(cfg.OpenRouter), store, cfg.Cache.TTL))
	}
	return cuisine.NewManager(primary, fallbacks...)
}

// newMacroManager API Ninjas 為主，USDA 啟用時作為備援
func newMacroManager(cfg *config.Config, store cache.Store) *macro.Manager {
	primary := macro.NewCachedAnalyzer(apininjas.NewClient(cfg.APINinjas), store, cfg.Cache.TTL)
	var fallbacks []macro.Analyzer
	if cfg.USDA.Enabled {
		fallbacks = append(fallbacks, macro.NewCachedAnalyzer(usda.NewClient(cfg.USDA), store, cfg.Cache.TTL))
	}
	return macro.NewManager(primary, fallbacks...)
}
