package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"recipe-matcher/internal/api"
	"recipe-matcher/internal/core/cache"
	"recipe-matcher/internal/core/catalog"
	"recipe-matcher/internal/infrastructure/config"
	"recipe-matcher/internal/infrastructure/repository"
	"recipe-matcher/internal/pkg/common"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 載入 .env
	if err := godotenv.Load(); err != nil {
		fmt.Println("Warning: .env file not found")
	}

	// 載入設定
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
		zap.String("db_driver", cfg.Database.Driver),
		zap.Bool("cache_enabled", cfg.Cache.Enabled),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.Bool("fdc_enabled", cfg.FDC.Enabled),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	store, err := openStore(ctx, cfg)
	cancel()
	if err != nil {
		common.LogFatal("Failed to open store", zap.Error(err))
	}
	defer store.Close()

	// 初始化快取；停用時維持 nil 介面
	var cacheStore cache.Store
	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	cs, err := cache.New(ctx, cfg.Cache)
	cancel()
	if err != nil {
		common.LogFatal("Failed to initialize cache", zap.Error(err))
	}
	if cs != nil {
		cacheStore = cs
		defer cacheStore.Close()
	}

	router := api.SetupRouter(cfg, store, cacheStore)

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
	ctx, cancel = context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		common.LogError("Server forced to shutdown",
			zap.Error(err),
		)
		os.Exit(1)
	}

	common.LogInfo("Server exited")
}

// openStore 依 database.driver 建立資料存取層；設定了 seed_file 時一併匯入
func openStore(ctx context.Context, cfg *config.Config) (catalog.Store, error) {
	switch cfg.Database.Driver {
	case "memory":
		mem := catalog.NewMemory()
		if err := catalog.LoadSeedFile(ctx, cfg.Database.SeedFile, mem); err != nil {
			return nil, err
		}
		common.LogInfo("記憶體資料已載入", zap.String("seed_file", cfg.Database.SeedFile))
		return mem, nil
	default:
		db, err := repository.Open(ctx, cfg.Database, cfg.App.Debug)
		if err != nil {
			return nil, err
		}
		if cfg.Database.SeedFile != "" {
			if err := catalog.LoadSeedFile(ctx, cfg.Database.SeedFile, db); err != nil {
				_ = db.Close()
				return nil, err
			}
			common.LogInfo("種子資料已匯入", zap.String("seed_file", cfg.Database.SeedFile))
		}
		return db, nil
	}
}
