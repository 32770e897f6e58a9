package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/qs3c/revastra_server/config"
	"github.com/qs3c/revastra_server/internal/api"
	"github.com/qs3c/revastra_server/internal/api/handler"
	"github.com/qs3c/revastra_server/internal/database"
	"github.com/qs3c/revastra_server/internal/pkg/cron"
	"github.com/qs3c/revastra_server/internal/pkg/logger"
	"github.com/qs3c/revastra_server/internal/pkg/oauth"
	"github.com/qs3c/revastra_server/internal/pkg/payment"
	"github.com/qs3c/revastra_server/internal/pkg/pubsub"
	"github.com/qs3c/revastra_server/internal/pkg/queue"
	"github.com/qs3c/revastra_server/internal/pkg/storage"
	"github.com/qs3c/revastra_server/internal/pkg/ws"
	"github.com/qs3c/revastra_server/internal/repository"
	"github.com/qs3c/revastra_server/internal/service"
)

func main() {
	_ = godotenv.Load()

	// 加载配置
	cfg, err := config.Load(config.PathFromEnv())
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 初始化数据库
	db, err := database.NewMySQL(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect database")
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate database")
	}
	log.Info().Msg("database connected")

	// 初始化 Redis
	rdb, err := database.NewRedis(&cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect redis")
	}
	defer rdb.Close()
	log.Info().Msg("redis connected")

	buckets, err := storage.New(ctx, &cfg.Storage)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to init object storage")
	}

	// 队列、事件、WebSocket
	jobs := queue.NewQueue(rdb, cfg.Queue.EmailQueue)
	publisher := pubsub.NewPublisher(rdb)
	hub := ws.NewHub(log)

	// 其它实例发布的聊天事件也要推给本机连接
	go func() {
		err := pubsub.NewSubscriber(rdb).Subscribe(ctx, hub.HandleChatEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("chat event subscriber stopped")
		}
	}()

	// 初始化 Repository
	userRepo := repository.NewUserRepository(db)
	roleRepo := repository.NewRoleRepository(db)
	usageRepo := repository.NewUsageRepository(db)
	passRepo := repository.NewPassRepository(db)
	listingRepo := repository.NewListingRepository(db)
	convRepo := repository.NewConversationRepository(db)
	msgRepo := repository.NewMessageRepository(db)
	reviewRepo := repository.NewReviewRepository(db)
	wishlistRepo := repository.NewWishlistRepository(db)
	verifyRepo := repository.NewVerificationRepository(db)

	// 初始化 Service
	google := oauth.NewGoogleOAuth(cfg.OAuth.Google.ClientID, cfg.OAuth.Google.ClientSecret, cfg.OAuth.Google.RedirectURI)
	uploadService := service.NewUploadService(buckets, &cfg.Upload)
	passService := service.NewPassService(db, passRepo, listingRepo, payment.NewVerifier(cfg.Payment.KeySecret), &cfg.Pass)
	usageService := service.NewUsageService(usageRepo, passService)
	sessionService := service.NewSessionService(userRepo, roleRepo, usageRepo, passService)
	authService := service.NewAuthService(userRepo, jobs, google, cfg, log)
	userService := service.NewUserService(userRepo, reviewRepo, listingRepo, passService, uploadService)
	listingService := service.NewListingService(db, listingRepo, usageRepo, wishlistRepo, passService, uploadService, &cfg.Listing)
	chatService := service.NewChatService(db, convRepo, msgRepo, usageRepo, userRepo, listingRepo,
		passService, uploadService, publisher, hub, jobs, log)
	reviewService := service.NewReviewService(db, reviewRepo, listingRepo)
	wishlistService := service.NewWishlistService(wishlistRepo, listingRepo)
	verificationService := service.NewVerificationService(verifyRepo, userRepo)
	adminService := service.NewAdminService(db, userRepo, roleRepo, listingRepo, verifyRepo, passRepo, msgRepo)

	sqlDB, err := db.DB()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to get sql.DB")
	}

	// 初始化 Handler
	handlers := &api.Handlers{
		Auth:         handler.NewAuthHandler(authService, oauth.NewStateStore(rdb)),
		User:         handler.NewUserHandler(userService, reviewService),
		Pass:         handler.NewPassHandler(passService, usageService),
		Listing:      handler.NewListingHandler(listingService),
		Chat:         handler.NewChatHandler(chatService),
		Review:       handler.NewReviewHandler(reviewService),
		Wishlist:     handler.NewWishlistHandler(wishlistService),
		Verification: handler.NewVerificationHandler(verificationService),
		Admin:        handler.NewAdminHandler(adminService),
		Upload:       handler.NewUploadHandler(uploadService),
		WebSocket:    handler.NewWebSocketHandler(hub, chatService, cfg.JWT.Secret, cfg.CORS.AllowedOrigins, log),
		Health:       handler.NewHealthHandler(sqlDB),
	}
	engine := api.NewRouter(handlers, sessionService, usageService, cfg, log).Setup()

	// 通行证过期巡检
	cronService := cron.NewService(passService, time.Hour, log)
	cronService.Start()
	defer cronService.Stop()

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	log.Info().Msg("server stopped")
}
