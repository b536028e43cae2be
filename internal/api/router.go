package api

import (
	"context"
	"time"

	"recipe-matcher/internal/api/handlers/health"
	"recipe-matcher/internal/api/handlers/ingredient"
	"recipe-matcher/internal/api/handlers/recipe"
	"recipe-matcher/internal/api/handlers/user"
	"recipe-matcher/internal/api/middleware"
	"recipe-matcher/internal/core/cache"
	"recipe-matcher/internal/core/catalog"
	"recipe-matcher/internal/core/fdc"
	"recipe-matcher/internal/core/matching"
	"recipe-matcher/internal/core/nutrition"
	"recipe-matcher/internal/infrastructure/config"
	"recipe-matcher/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SetupRouter 設置路由；cacheStore 為 nil 時營養摘要不快取
func SetupRouter(cfg *config.Config, store catalog.Store, cacheStore cache.Store) *gin.Engine {
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
	router.Use(requestid.New())
	router.Use(middleware.Recovery())
	router.Use(middleware.Logger())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"Content-Length", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	if cfg.Server.MaxBodyBytes > 0 {
		router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))
	}
	router.Use(middleware.RateLimit(cfg.RateLimit))
	if cfg.Server.RequestTimeout > 0 {
		router.Use(requestTimeout(cfg.Server.RequestTimeout))
	}

	// 初始化服務
	matcher := matching.NewService(store, cfg.Matching)
	nutritionSvc := nutrition.NewService(store, cacheStore)

	var importer *fdc.Importer
	if cfg.FDC.Enabled {
		importer = fdc.NewImporter(fdc.NewClient(cfg.FDC), store, store, nutritionSvc)
	}

	healthHandler := health.NewHandler(cfg, store, cacheStore)
	recipeHandler := recipe.NewHandler(store, store, matcher, nutritionSvc)
	ingredientHandler := ingredient.NewHandler(store, importer)
	userHandler := user.NewHandler(store, matcher)

	common.LogInfo("Services initialized",
		zap.Bool("cache_enabled", cacheStore != nil),
		zap.Bool("fdc_enabled", importer != nil),
		zap.Int("default_limit", cfg.Matching.DefaultLimit),
		zap.Int("default_max_missing", cfg.Matching.DefaultMaxMissing),
	)

	// 健康檢查路由
	router.GET("/health", healthHandler.HealthCheck)
	router.GET("/ready", healthHandler.ReadinessCheck)
	router.GET("/live", healthHandler.LivenessCheck)

	optionalAuth := middleware.Auth(cfg.Auth.JWTSecret, false)
	requiredAuth := middleware.Auth(cfg.Auth.JWTSecret, true)
	dedup := middleware.Deduplication(cfg.DedupWindow)

	api := router.Group("/api/v1")
	{
		recipes := api.Group("/recipes")
		{
			recipes.GET("", recipeHandler.HandleList)
			recipes.POST("", requiredAuth, dedup, recipeHandler.HandleCreate)
			recipes.GET("/mine", requiredAuth, recipeHandler.HandleMine)
			recipes.GET("/user/:user_id", recipeHandler.HandleByUser)
			recipes.GET("/:id", recipeHandler.HandleDetail)
			recipes.PUT("/:id", requiredAuth, recipeHandler.HandleUpdate)
			recipes.PATCH("/:id", requiredAuth, recipeHandler.HandleUpdate)
			recipes.DELETE("/:id", requiredAuth, recipeHandler.HandleDelete)
			recipes.GET("/:id/nutrition", optionalAuth, recipeHandler.HandleNutrition)

			recipes.POST("/match", optionalAuth, recipeHandler.HandleMatch)
			recipes.GET("/match/pantry", requiredAuth, recipeHandler.HandlePantryMatch)
			recipes.POST("/match/complete", optionalAuth, recipeHandler.HandleComplete)
			recipes.POST("/match/almost", optionalAuth, recipeHandler.HandleAlmost)
		}

		ingredients := api.Group("/ingredients")
		{
			ingredients.GET("", ingredientHandler.HandleList)
			ingredients.GET("/categories", ingredientHandler.HandleCategories)
			ingredients.GET("/:id", ingredientHandler.HandleDetail)
		}

		nutritionGroup := api.Group("/nutrition/ingredients")
		{
			nutritionGroup.GET("", ingredientHandler.HandleNutritionList)
			nutritionGroup.GET("/:id", ingredientHandler.HandleNutritionDetail)
			nutritionGroup.POST("/:id/import", requiredAuth, ingredientHandler.HandleNutritionImport)
		}

		pantry := api.Group("/pantry", requiredAuth, dedup)
		{
			pantry.GET("", userHandler.HandlePantryList)
			pantry.POST("", userHandler.HandlePantryAdd)
			pantry.DELETE("", userHandler.HandlePantryClear)
			pantry.POST("/add-multiple", userHandler.HandlePantryAddMultiple)
			pantry.GET("/ingredient-ids", userHandler.HandlePantryIngredientIDs)
			pantry.GET("/check/:ingredient_id", userHandler.HandlePantryCheck)
			pantry.PUT("/:ingredient_id", userHandler.HandlePantryUpdate)
			pantry.PATCH("/:ingredient_id", userHandler.HandlePantryUpdate)
			pantry.DELETE("/:ingredient_id", userHandler.HandlePantryRemove)
		}

		favorites := api.Group("/favorites", requiredAuth, dedup)
		{
			favorites.GET("", userHandler.HandleFavoriteList)
			favorites.POST("", userHandler.HandleFavoriteAdd)
			favorites.DELETE("", userHandler.HandleFavoriteClear)
			favorites.POST("/toggle", userHandler.HandleFavoriteToggle)
			favorites.GET("/check/:recipe_id", userHandler.HandleFavoriteCheck)
			favorites.GET("/recipe-ids", userHandler.HandleFavoriteRecipeIDs)
			favorites.GET("/with-pantry-match", userHandler.HandleFavoritesWithPantry)
			favorites.DELETE("/:recipe_id", userHandler.HandleFavoriteRemove)
		}
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.Duration("timeout", cfg.Server.RequestTimeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router
}

// requestTimeout 為每個請求的 context 設定逾時，讓資料庫查詢能隨之取消
func requestTimeout(timeout time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", common.RequestID(c)),
				zap.Duration("timeout", timeout),
			)
			common.WriteError(c, common.ErrGatewayTimeout.WithMessage("Request timeout"))
		}
	}
}
