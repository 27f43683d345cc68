package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/shophub/shophub/internal/api"
	"github.com/shophub/shophub/internal/api/shop"
	"github.com/shophub/shophub/internal/catalog"
	"github.com/shophub/shophub/internal/config"
	"github.com/shophub/shophub/internal/repository"
	"github.com/shophub/shophub/internal/retrieval"
	"github.com/shophub/shophub/internal/service"
)

var (
	configPath = flag.String("config", "", "Path to config file")
)

// retrievalStack is the optional vector search backend. Fields stay nil interfaces when
// retrieval is unavailable.
type retrievalStack struct {
	retriever service.Retriever
	indexer   service.Indexer
	documents service.DocumentCounter
	indexFn   func(ctx context.Context) (int, error)
	close     func()
}

func main() {
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Initialize logger
	logger, err := newLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	if !cfg.Log.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	// Conversation log
	db, err := repository.NewDB(cfg.Database.Path)
	if err != nil {
		logger.Fatal("Failed to initialize database", zap.Error(err))
	}
	defer db.Close()
	conversations := repository.NewConversationRepository(db)

	// Cart store and catalog cache
	startCtx, cancelStart := context.WithTimeout(context.Background(), 10*time.Second)
	redisClient, err := repository.NewRedis(startCtx, cfg.Redis)
	cancelStart()
	if err != nil {
		logger.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer redisClient.Close()

	cartRepo := repository.NewCartRepository(redisClient, cfg.Cart.TTL, cfg.Cart.MaxRetries, logger)
	products := catalog.NewService(
		catalog.NewHTTPFetcher(cfg.Catalog.URL, nil),
		redisClient,
		cfg.Catalog.CacheTTL,
		cfg.Catalog.Timeout,
		logger,
	)

	// Retrieval is optional; chat falls back to fixed replies without it
	rs, err := newRetrievalStack(cfg, products, logger)
	if err != nil {
		logger.Warn("Failed to initialize retrieval, running without it", zap.Error(err))
		rs = &retrievalStack{close: func() {}}
	}
	defer rs.close()

	if rs.indexFn != nil && cfg.Retrieval.IndexOnStartup {
		go func() {
			n, err := rs.indexFn(context.Background())
			if err != nil {
				logger.Warn("Startup indexing failed", zap.Error(err))
				return
			}
			logger.Info("Startup indexing finished", zap.Int("documents", n))
		}()
	}

	// Initialize services
	cartService := service.NewCartService(cartRepo, products, logger)
	checkoutService := service.NewCheckoutService(cartService, cfg.Checkout, logger)
	chatService := service.NewChatService(cartService, checkoutService, products, service.ChatServiceOptions{
		Retriever:     rs.retriever,
		Conversations: conversations,
		TopK:          cfg.Retrieval.TopK,
		Logger:        logger,
	})
	adminService := service.NewAdminService(conversations, products, rs.indexer, rs.documents, logger)

	// Setup router
	router := api.SetupRouter(
		shop.NewHandler(chatService, cartService, checkoutService, products),
		adminService,
		api.RouterConfig{
			APIKey:       cfg.Admin.APIKey,
			AllowOrigins: cfg.Server.AllowOrigins,
			Logger:       logger,
		},
	)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Address(),
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Info("Starting ShopHub server",
			zap.String("address", cfg.Address()),
			zap.String("catalog_url", cfg.Catalog.URL),
			zap.Bool("retrieval", rs.retriever != nil),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Info("Server exited")
}

func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	if cfg.Development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newRetrievalStack(cfg *config.Config, products retrieval.ProductLister, logger *zap.Logger) (*retrievalStack, error) {
	store, err := retrieval.NewQdrantStore(
		cfg.Retrieval.QdrantHost,
		cfg.Retrieval.QdrantPort,
		cfg.Retrieval.QdrantAPIKey,
		cfg.Retrieval.Collection,
	)
	if err != nil {
		return nil, err
	}

	embedder := retrieval.NewOpenAIEmbedder(cfg.LLM.BaseURL, cfg.LLM.APIKey, cfg.LLM.EmbeddingModel)
	retriever := retrieval.NewRetriever(embedder, store, cfg.Retrieval.Timeout, logger)
	indexer := retrieval.NewIndexer(embedder, store, products, cfg.Retrieval.Dimensions, cfg.Retrieval.IndexWorkers, logger)

	return &retrievalStack{
		retriever: retriever,
		indexer:   indexer,
		documents: retriever,
		indexFn: func(ctx context.Context) (int, error) {
			return indexer.Index(ctx, false)
		},
		close: func() {
			if err := store.Close(); err != nil {
				logger.Warn("Failed to close qdrant client", zap.Error(err))
			}
		},
	}, nil
}
