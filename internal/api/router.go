package api

import (
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/qs3c/revastra_server/config"
	"github.com/qs3c/revastra_server/internal/api/handler"
	"github.com/qs3c/revastra_server/internal/api/middleware"
	"github.com/qs3c/revastra_server/internal/service"
)

// Handlers 所有 HTTP 处理器
type Handlers struct {
	Auth         *handler.AuthHandler
	User         *handler.UserHandler
	Pass         *handler.PassHandler
	Listing      *handler.ListingHandler
	Chat         *handler.ChatHandler
	Review       *handler.ReviewHandler
	Wishlist     *handler.WishlistHandler
	Verification *handler.VerificationHandler
	Admin        *handler.AdminHandler
	Upload       *handler.UploadHandler
	WebSocket    *handler.WebSocketHandler
	Health       *handler.HealthHandler
}

type Router struct {
	handlers *Handlers
	sessions middleware.SessionLoader
	quota    middleware.QuotaChecker
	cfg      *config.Config
	log      zerolog.Logger
}

func NewRouter(
	handlers *Handlers,
	sessions middleware.SessionLoader,
	quota middleware.QuotaChecker,
	cfg *config.Config,
	log zerolog.Logger,
) *Router {
	return &Router{
		handlers: handlers,
		sessions: sessions,
		quota:    quota,
		cfg:      cfg,
		log:      log,
	}
}

func (r *Router) Setup() *gin.Engine {
	if r.cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	handler.RegisterValidators()

	h := r.handlers
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(r.log))
	engine.Use(middleware.CORS(r.cfg.CORS))

	engine.GET("/healthz", h.Health.Healthz)

	api := engine.Group("/api/v1")
	{
		// WebSocket
		api.GET("/ws", h.WebSocket.Handle)

		// 公开接口 - 认证
		auth := api.Group("/auth")
		{
			auth.POST("/register", h.Auth.Register)
			auth.POST("/login", h.Auth.Login)
			auth.POST("/verify-email", h.Auth.VerifyEmail)
			auth.POST("/resend-verification", h.Auth.ResendVerification)
			auth.GET("/google", h.Auth.GoogleAuth)
			auth.GET("/google/callback", h.Auth.GoogleCallback)
		}

		// 公开接口 - 通行证目录
		api.GET("/passes", h.Pass.Catalogue)

		// 公开接口（可选认证）- 浏览商品、卖家主页
		public := api.Group("")
		public.Use(middleware.OptionalAuth(r.cfg.JWT.Secret), middleware.Session(r.sessions))
		{
			public.GET("/listings", h.Listing.Browse)
			public.GET("/listings/:id", h.Listing.Get)
			public.GET("/sellers/:id", h.User.GetSeller)
			public.GET("/sellers/:id/reviews", h.User.ListSellerReviews)
			public.GET("/sellers/:id/rating", h.Review.Summary)
		}

		// 需要认证的接口
		authenticated := api.Group("")
		authenticated.Use(middleware.Auth(r.cfg.JWT.Secret), middleware.Session(r.sessions))
		{
			authenticated.GET("/me/session", h.User.GetSession)

			// 用户
			user := authenticated.Group("/user")
			{
				user.GET("/profile", h.User.GetProfile)
				user.PUT("/profile", h.User.UpdateProfile)
				user.POST("/avatar", h.User.UploadAvatar)
				user.GET("/usage", h.Pass.Usage)
				user.GET("/listings", h.Listing.ListMine)
			}

			// 通行证
			passes := authenticated.Group("/passes")
			{
				passes.GET("/current", h.Pass.Current)
				passes.GET("/can-purchase", h.Pass.CheckPurchase)
				passes.POST("/orders", h.Pass.CreateOrder)
				passes.POST("/purchase", h.Pass.Purchase)
				passes.GET("/history", h.Pass.History)
			}

			// 商品
			listings := authenticated.Group("/listings")
			{
				listings.POST("", middleware.RequireQuota(r.quota, service.UsageListing), h.Listing.Create)
				listings.POST("/images", h.Listing.UploadImage)
				listings.PUT("/:id", h.Listing.Update)
				listings.PUT("/:id/status", h.Listing.UpdateStatus)
				listings.DELETE("/:id", h.Listing.Delete)
			}

			// 聊天
			conversations := authenticated.Group("/conversations")
			{
				conversations.POST("", h.Chat.StartConversation)
				conversations.GET("", h.Chat.ListConversations)
				conversations.GET("/unread-count", h.Chat.UnreadCount)
				conversations.GET("/:id/messages", h.Chat.ListMessages)
				conversations.POST("/:id/messages", h.Chat.SendMessage)
				conversations.POST("/:id/read", h.Chat.MarkRead)
			}

			// 评价、收藏、认证、上传
			authenticated.POST("/reviews", h.Review.Create)

			authenticated.GET("/wishlist", h.Wishlist.List)
			authenticated.POST("/wishlist/:id", h.Wishlist.Add)
			authenticated.DELETE("/wishlist/:id", h.Wishlist.Remove)

			authenticated.GET("/verification", h.Verification.Status)
			authenticated.POST("/verification", h.Verification.Apply)

			authenticated.POST("/uploads", h.Upload.Upload)

			// 后台
			admin := authenticated.Group("/admin")
			admin.Use(middleware.RequireAdmin())
			{
				admin.GET("/stats", h.Admin.Stats)
				admin.GET("/listings/pending", h.Admin.PendingListings)
				admin.POST("/listings/:id/approve", h.Admin.ApproveListing)
				admin.POST("/listings/:id/reject", h.Admin.RejectListing)
				admin.GET("/verifications", h.Admin.Verifications)
				admin.POST("/verifications/:id/decide", h.Admin.DecideVerification)
			}
		}
	}

	return engine
}
