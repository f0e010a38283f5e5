package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/xxxsen/common/logger"
	"github.com/xxxsen/common/logutil"
	"github.com/xxxsen/common/webapi"
	"go.uber.org/zap"

	"github.com/xxxsen/docchat/internal/ai"
	"github.com/xxxsen/docchat/internal/config"
	"github.com/xxxsen/docchat/internal/db"
	"github.com/xxxsen/docchat/internal/embedcache"
	"github.com/xxxsen/docchat/internal/filestore"
	"github.com/xxxsen/docchat/internal/handler"
	"github.com/xxxsen/docchat/internal/job"
	"github.com/xxxsen/docchat/internal/middleware"
	"github.com/xxxsen/docchat/internal/repo"
	"github.com/xxxsen/docchat/internal/schedule"
	"github.com/xxxsen/docchat/internal/service"
)

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "docchat",
		Short: "docchat backend server",
	}

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run docchat server",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configPath == "" {
				return fmt.Errorf("--config is required")
			}
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			logger.Init(
				cfg.LogConfig.File,
				cfg.LogConfig.Level,
				int(cfg.LogConfig.FileCount),
				int(cfg.LogConfig.FileSize),
				int(cfg.LogConfig.KeepDays),
				cfg.LogConfig.Console,
			)
			logutil.GetLogger(context.Background()).Info("config loaded", zap.String("config", configPath))

			conn, err := db.Open(cfg.Database)
			if err != nil {
				return fmt.Errorf("open db: %w", err)
			}
			if err := db.ApplyMigrations(conn); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			if err := db.CheckVectorDimension(conn, cfg.AI.EmbedDimension); err != nil {
				return err
			}
			return runServer(cfg, conn)
		},
	}

	runCmd.Flags().StringVar(&configPath, "config", "", "path to config.json")
	rootCmd.AddCommand(runCmd)

	if err := rootCmd.Execute(); err != nil {
		logutil.GetLogger(context.Background()).Fatal("startup error", zap.Error(err))
	}
}

func runServer(cfg *config.Config, conn *sql.DB) error {
	logutil.GetLogger(context.Background()).Info(
		"starting server",
		zap.Int("port", cfg.Port),
		zap.String("ai_provider", cfg.AI.Provider),
		zap.String("embed_provider", cfg.AI.EmbedProvider),
		zap.Int("embed_dimension", cfg.AI.EmbedDimension),
	)

	userRepo := repo.NewUserRepo(conn)
	chunkRepo := repo.NewChunkRepo(conn)
	historyRepo := repo.NewHistoryRepo(conn)
	cacheRepo := repo.NewEmbeddingCacheRepo(conn)

	// The embedder is built once here and shared by every request.
	embedder, err := buildEmbedder(cfg, cacheRepo)
	if err != nil {
		return fmt.Errorf("init embedder: %w", err)
	}
	genProvider, err := ai.NewProvider(cfg.AI.Provider, cfg.AI.Data)
	if err != nil {
		return fmt.Errorf("init ai provider: %w", err)
	}
	generator := ai.NewGenerator(genProvider, cfg.AI.Model)

	files, err := filestore.New(cfg.FileStore)
	if err != nil {
		return fmt.Errorf("init file store: %w", err)
	}

	authService := service.NewAuthService(
		userRepo,
		[]byte(cfg.JWTSecret),
		time.Hour*time.Duration(cfg.JWTTTLHours),
		!cfg.Properties.DisableUserRegister,
	)
	documentService := service.NewDocumentService(chunkRepo, embedder, files, cfg.Retrieval.ChunkMaxWords, cfg.AI.EmbedDimension)
	chatService := service.NewChatService(
		chunkRepo,
		historyRepo,
		embedder,
		generator,
		cfg.Retrieval.TopK,
		time.Duration(cfg.AI.TimeoutSeconds)*time.Second,
	)

	deps := handler.RouterDeps{
		Auth:            handler.NewAuthHandler(authService),
		Documents:       handler.NewDocumentHandler(documentService),
		Chat:            handler.NewChatHandler(chatService),
		JWTSecret:       []byte(cfg.JWTSecret),
		RateLimitWindow: time.Duration(cfg.RateLimitSeconds) * time.Second,
	}

	engine, err := webapi.NewEngine(
		"/api/v1",
		fmt.Sprintf("0.0.0.0:%d", cfg.Port),
		webapi.WithRegister(func(group *gin.RouterGroup) {
			handler.RegisterRoutes(group, deps)
		}),
		webapi.WithExtraMiddlewares(
			middleware.CORS(cfg.CORSAllowlist),
			gzip.Gzip(gzip.DefaultCompression),
		),
	)
	if err != nil {
		return fmt.Errorf("init web engine: %w", err)
	}
	logutil.GetLogger(context.Background()).Info("http server listening", zap.String("addr", fmt.Sprintf("0.0.0.0:%d", cfg.Port)))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	scheduler := schedule.NewCronScheduler()
	if cfg.EmbedCache.EnableDB {
		cleanup := job.NewEmbeddingCacheCleanupJob(cacheRepo, cfg.EmbedCache.DBKeepDays)
		if err := scheduler.AddJob(cleanup, cfg.EmbedCache.CleanSpec); err != nil {
			return err
		}
	}
	scheduler.Start(ctx)
	defer scheduler.Stop()

	go func() {
		if err := engine.Run(); err != nil && err != http.ErrServerClosed {
			logutil.GetLogger(context.Background()).Error("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logutil.GetLogger(context.Background()).Info("server stopping...")
	return nil
}

func buildEmbedder(cfg *config.Config, cacheRepo *repo.EmbeddingCacheRepo) (ai.IEmbedder, error) {
	embedData := cfg.AI.EmbedData
	if embedData == nil {
		if cfg.AI.EmbedProvider == "local" {
			embedData = map[string]interface{}{"dimension": cfg.AI.EmbedDimension}
		} else {
			embedData = cfg.AI.Data
		}
	}
	provider, err := ai.NewEmbedProvider(cfg.AI.EmbedProvider, embedData)
	if err != nil {
		return nil, err
	}
	embedder := ai.NewEmbedder(provider, cfg.AI.EmbedModel)
	if cfg.EmbedCache.EnableDB {
		embedder = embedcache.WrapDB(embedder, cacheRepo)
	}
	embedder = embedcache.WrapLRU(
		embedder,
		cfg.EmbedCache.LRUSize,
		time.Duration(cfg.EmbedCache.LRUTTLHours)*time.Hour,
	)
	return embedder, nil
}
