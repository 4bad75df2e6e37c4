package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-product-picker/config"
	"github.com/fekuna/omnipos-product-picker/internal/catalog"
	catListenerPkg "github.com/fekuna/omnipos-product-picker/internal/catalog/listener"
	catRepoPkg "github.com/fekuna/omnipos-product-picker/internal/catalog/repository"
	catUCPkg "github.com/fekuna/omnipos-product-picker/internal/catalog/usecase"
	"github.com/fekuna/omnipos-product-picker/internal/editor"
	editorH "github.com/fekuna/omnipos-product-picker/internal/editor/handler"
	editorPub "github.com/fekuna/omnipos-product-picker/internal/editor/publisher"
	editorUCPkg "github.com/fekuna/omnipos-product-picker/internal/editor/usecase"
	"github.com/fekuna/omnipos-product-picker/internal/picker"
	"github.com/fekuna/omnipos-product-picker/internal/pkg/broker"
	"github.com/fekuna/omnipos-product-picker/internal/pkg/cache"
	"github.com/fekuna/omnipos-product-picker/internal/pkg/logger"
	"github.com/fekuna/omnipos-product-picker/internal/pkg/postgres"
	"github.com/fekuna/omnipos-product-picker/internal/pkg/search"
	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg := config.LoadEnv()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}

	if cfg.Server.AppEnv == "development" {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Initialize Catalog Repositories
	var db *sqlx.DB
	var esClient *search.Client
	openRepository := func(backend string) catalog.Repository {
		switch backend {
		case "http":
			appLogger.Info("Using remote catalog", zap.String("url", cfg.Catalog.BaseURL))
			return catRepoPkg.NewHTTPRepository(cfg.Catalog.BaseURL, cfg.Catalog.APIKey, cfg.Catalog.Timeout)
		case "postgres":
			if db == nil {
				var err error
				db, err = postgres.NewPostgres(&postgres.Config{
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
				appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))
			}
			return catRepoPkg.NewPGRepository(db)
		case "elastic":
			if esClient == nil {
				var err error
				esClient, err = search.NewClient(&search.Config{
					Addresses: cfg.Elastic.Addresses,
					Username:  cfg.Elastic.Username,
					Password:  cfg.Elastic.Password,
				})
				if err != nil {
					appLogger.Fatal("Could not connect to Elasticsearch", zap.Error(err))
				}
				appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
			}
			repo := catRepoPkg.NewElasticRepository(esClient, cfg.Catalog.ElasticIndex, appLogger)
			repo.EnsureIndex(ctx)
			return repo
		default:
			appLogger.Fatal("Unknown catalog backend", zap.String("backend", backend))
			return nil
		}
	}

	var catOpts []catUCPkg.Option
	primary := openRepository(cfg.Catalog.Backend)
	if cfg.Catalog.Fallback != "" && cfg.Catalog.Fallback != cfg.Catalog.Backend {
		catOpts = append(catOpts, catUCPkg.WithFallback(openRepository(cfg.Catalog.Fallback)))
	}
	if db != nil {
		defer db.Close()
	}

	// 4. Initialize Redis
	var redisClient *cache.RedisClient
	if cfg.Catalog.CacheEnabled {
		var err error
		redisClient, err = cache.NewRedisClient(&cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Redis (catalog results will not be cached)", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
			appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
			catOpts = append(catOpts, catUCPkg.WithCache(redisClient, cfg.Catalog.CacheTTL))
		}
	}

	// 5. Initialize Kafka
	var pub editor.Publisher = editorPub.NewNopPublisher(appLogger)
	if len(cfg.Kafka.Brokers) > 0 {
		producer := broker.NewProducer(&broker.Config{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.Topic,
		})
		pub = editorPub.NewKafkaPublisher(producer, appLogger)
		appLogger.Info("Connected to Kafka Producer", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.Topic))

		if redisClient != nil {
			consumer := broker.NewConsumer(&broker.Config{
				Brokers: cfg.Kafka.Brokers,
				Topic:   cfg.Kafka.CatalogTopic,
				GroupID: cfg.Kafka.GroupID,
			})
			defer consumer.Close()
			appLogger.Info("Connected to Kafka Consumer", zap.String("topic", cfg.Kafka.CatalogTopic))

			// Start Listener
			catListener := catListenerPkg.NewCatalogListener(consumer, redisClient, appLogger)
			go catListener.Start(ctx)
		}
	}
	defer pub.Close()

	// 6. Initialize UseCases
	catUC := catUCPkg.NewCatalogUseCase(primary, appLogger, catOpts...)
	editorUC := editorUCPkg.NewEditorUseCase(ctx, catUC, pub, picker.Options{
		PageSize: cfg.Picker.PageSize,
		Debounce: cfg.Picker.Debounce,
	}, appLogger)

	// 7. Initialize Handlers
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	editorH.NewEditorHandler(editorUC, appLogger).RegisterRoutes(app)

	// 8. Start HTTP Server
	port := cfg.Server.HTTPPort
	if !strings.HasPrefix(port, ":") {
		port = ":" + port
	}

	appLogger.Info("Starting HTTP server", zap.String("port", port))

	// Graceful Shutdown
	go func() {
		if err := app.Listen(port); err != nil {
			appLogger.Fatal("failed to serve", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	cancel()
	if err := app.ShutdownWithTimeout(cfg.Server.ShutdownTimeout); err != nil {
		appLogger.Error("server shutdown failed", zap.Error(err))
	}
	appLogger.Info("Server stopped")
}
