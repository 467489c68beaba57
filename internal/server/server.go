package server

import (
	"context"
	"log"
	"strings"
	"time"

	"chattr.app/backend/internal/config"
	"chattr.app/backend/internal/middleware"
	"chattr.app/backend/pkg/validator"

	commentHttp "chattr.app/backend/internal/modules/comment/delivery/http"
	commentRepo "chattr.app/backend/internal/modules/comment/repository"
	commentService "chattr.app/backend/internal/modules/comment/service"

	messageHttp "chattr.app/backend/internal/modules/message/delivery/http"
	messageRepo "chattr.app/backend/internal/modules/message/repository"
	messageService "chattr.app/backend/internal/modules/message/service"

	notiHttp "chattr.app/backend/internal/modules/notification/delivery/http"
	notifRepo "chattr.app/backend/internal/modules/notification/repository"
	notifService "chattr.app/backend/internal/modules/notification/service"

	postHttp "chattr.app/backend/internal/modules/post/delivery/http"
	postRepo "chattr.app/backend/internal/modules/post/repository"
	postService "chattr.app/backend/internal/modules/post/service"

	reactionHttp "chattr.app/backend/internal/modules/reaction/delivery/http"
	reactionRepo "chattr.app/backend/internal/modules/reaction/repository"
	reactionService "chattr.app/backend/internal/modules/reaction/service"

	realtimeHttp "chattr.app/backend/internal/modules/realtime/delivery/http"
	realtime "chattr.app/backend/internal/modules/realtime/service"

	searchService "chattr.app/backend/internal/modules/search/service"

	shareHttp "chattr.app/backend/internal/modules/share/delivery/http"
	shareService "chattr.app/backend/internal/modules/share/service"

	userHttp "chattr.app/backend/internal/modules/user/delivery/http"
	userRepo "chattr.app/backend/internal/modules/user/repository"
	userService "chattr.app/backend/internal/modules/user/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/meilisearch/meilisearch-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const websocketPath = "/api/broadcasting/ws"

type Server struct {
	engine      *gin.Engine
	db          *gorm.DB
	redisClient *redis.Client
}

// NewServer wires every module. redisClient may be nil, in which case realtime events,
// session revocation and rate limits are disabled.
func NewServer(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) *Server {
	validator.RegisterJSONTagNames()

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	broadcaster := realtime.NewRedisBroadcaster(redisClient)
	subscriber := realtime.NewRedisSubscriber(redisClient)

	// Initialize Meilisearch
	var meiliSvc searchService.UserSearchService
	if cfg.MeiliSearchHost != "" {
		meiliHost := cfg.MeiliSearchHost
		if !strings.HasPrefix(meiliHost, "http") {
			meiliHost = "http://" + meiliHost + ":7700"
		}
		meiliClient := meilisearch.New(meiliHost, meilisearch.WithAPIKey(cfg.MeiliMasterKey))
		meiliSvc = searchService.NewMeiliSearchService(meiliClient)
	}

	userRepo := userRepo.NewUserRepository(db)
	sessions := userService.NewRedisSessionStore(redisClient)

	authSvc := userService.NewAuthService(userRepo, sessions, meiliSvc, cfg.JWTSecret, cfg.JWTTTL)
	authHandler := userHttp.NewAuthHandler(authSvc)

	userSvc := userService.NewUserService(userRepo, meiliSvc)
	userHandler := userHttp.NewUserHandler(userSvc)
	if meiliSvc != nil {
		go func() {
			if err := userSvc.SyncSearchIndex(context.Background()); err != nil {
				log.Printf("Failed to sync user search index: %v", err)
			}
		}()
	}

	// Notification Module
	notificationRepository := notifRepo.NewNotificationRepository(db)
	notificationSvc := notifService.NewNotificationService(notificationRepository, broadcaster)
	notificationHandler := notiHttp.NewNotificationHandler(notificationSvc)

	postRepo := postRepo.NewPostRepository(db)
	postSvc := postService.NewPostService(postRepo, redisClient, cfg.RateLimitPost)
	postHandler := postHttp.NewPostHandler(postSvc)

	commentSvc := commentService.NewCommentService(commentRepo.NewCommentRepository(db), postRepo, notificationSvc, broadcaster)
	commentHandler := commentHttp.NewCommentHandler(commentSvc)

	reactionSvc := reactionService.NewReactionService(reactionRepo.NewReactionRepository(db), postRepo, userRepo, notificationSvc, broadcaster)
	reactionHandler := reactionHttp.NewReactionHandler(reactionSvc)

	shareSvc := shareService.NewShareService(postRepo, userRepo, notificationSvc)
	shareHandler := shareHttp.NewShareHandler(shareSvc)

	messageSvc := messageService.NewMessageService(messageRepo.NewMessageRepository(db), userRepo, broadcaster, redisClient, cfg.RateLimitMessage)
	messageHandler := messageHttp.NewMessageHandler(messageSvc)

	broadcastHandler := realtimeHttp.NewBroadcastHandler(subscriber, authSvc, cfg.AllowedOrigins)

	router := gin.New()

	setupCORS(router, cfg.AllowedOrigins)

	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{websocketPath},
	}))
	router.Use(middleware.SocketID())

	authMiddleware := middleware.NewAuthMiddleware(authSvc)

	api := router.Group("/api")

	// Public routes (no auth required)
	auth := api.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	// Protected routes (apply auth middleware explicitly)
	protected := api.Group("")
	protected.Use(authMiddleware.RequireAuth())
	{
		protected.GET("/auth/me", authHandler.Me)
		protected.POST("/auth/logout", authHandler.Logout)

		protected.GET("/users", userHandler.ListUsers)

		// Post routes
		protected.GET("/posts", postHandler.GetAllPosts)
		protected.POST("/posts", postHandler.CreatePost)
		protected.GET("/posts/:postId", postHandler.GetPostByID)
		protected.DELETE("/posts/:postId", postHandler.DeletePost)

		// Comment routes
		protected.POST("/comments/:postId", commentHandler.CreateComment)
		protected.GET("/comments/:postId", commentHandler.GetComments)
		protected.DELETE("/comments/:commentId", commentHandler.DeleteComment)

		// Reaction routes
		protected.POST("/reactions/:postId", reactionHandler.ReactToPost)
		protected.GET("/reactions/:postId", reactionHandler.GetReactions)
		protected.DELETE("/reactions/:reactionId", reactionHandler.RemoveReaction)

		protected.POST("/shares/:postId", shareHandler.SharePost)

		// Message routes
		protected.GET("/messages", messageHandler.GetChatrooms)
		protected.POST("/messages", messageHandler.SendMessage)
		protected.POST("/messages/create-chatroom", messageHandler.CreateChatroom)
		protected.GET("/messages/:chatroomId", messageHandler.GetConversation)
		protected.PATCH("/messages/:chatroomId/mark-read", messageHandler.MarkAsRead)

		// Notification routes
		protected.GET("/notifications", notificationHandler.GetNotifications)
		protected.GET("/notifications/unread-count", notificationHandler.UnreadCount)
		protected.PATCH("/notifications/read/:id", notificationHandler.MarkAsRead)
		protected.PATCH("/notifications/read-all", notificationHandler.MarkAllAsRead)

		// Broadcasting routes
		protected.GET("/broadcasting/ws", broadcastHandler.Connect)
		protected.POST("/broadcasting/auth", broadcastHandler.Authorize)
	}

	return &Server{
		engine:      router,
		db:          db,
		redisClient: redisClient,
	}
}

func (s *Server) Handler() *gin.Engine {
	return s.engine
}

func (s *Server) Run(addr string) error {
	return s.engine.Run(addr)
}

func setupCORS(router *gin.Engine, origins []string) {
	if len(origins) == 0 {
		origins = []string{"http://localhost:3000"}
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Socket-ID"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
}
