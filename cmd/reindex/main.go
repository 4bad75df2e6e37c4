package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-product-picker/config"
	catRepoPkg "github.com/fekuna/omnipos-product-picker/internal/catalog/repository"
	catUCPkg "github.com/fekuna/omnipos-product-picker/internal/catalog/usecase"
	"github.com/fekuna/omnipos-product-picker/internal/pkg/logger"
	"github.com/fekuna/omnipos-product-picker/internal/pkg/postgres"
	"github.com/fekuna/omnipos-product-picker/internal/pkg/search"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

// reindex copies the Postgres catalog into the Elasticsearch product index.
func main() {
	pageSize := flag.Int("page-size", 100, "products read per query")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.LoadEnv()

	appLogger := logger.NewZapLogger(&logger.ZapLoggerConfig{
		IsDevelopment:     cfg.Server.AppEnv == "development",
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	})
	defer appLogger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()

	esClient, err := search.NewClient(&search.Config{
		Addresses: cfg.Elastic.Addresses,
		Username:  cfg.Elastic.Username,
		Password:  cfg.Elastic.Password,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to Elasticsearch", zap.Error(err))
	}

	index := catRepoPkg.NewElasticRepository(esClient, cfg.Catalog.ElasticIndex, appLogger)
	index.EnsureIndex(ctx)

	started := time.Now()
	n, err := catUCPkg.Reindex(ctx, catRepoPkg.NewPGRepository(db), index, *pageSize, appLogger)
	if err != nil {
		appLogger.Fatal("Reindex failed", zap.Int("indexed", n), zap.Error(err))
	}
	appLogger.Info("Reindex finished", zap.Int("indexed", n), zap.Duration("took", time.Since(started)))
}
