// Package server contains HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"log"
	"time"

	"epsylon/internal/config"
	"epsylon/internal/database"
	"epsylon/internal/middleware"
	"epsylon/internal/models"
	"epsylon/internal/moderation"
	"epsylon/internal/notifications"
	"epsylon/internal/observability"
	"epsylon/internal/repository"
	"epsylon/internal/service"
	"epsylon/internal/storage"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	shutdownCtx    context.Context
	shutdownFn     context.CancelFunc

	userRepo         repository.UserRepository
	postRepo         repository.PostRepository
	commentRepo      repository.CommentRepository
	relationshipRepo repository.RelationshipRepository
	messageRepo      repository.MessageRepository
	chatRoomRepo     repository.ChatRoomRepository
	notificationRepo repository.NotificationRepository
	flagRepo         repository.FlagRepository

	notifier   *notifications.Notifier
	classifier moderation.Classifier
	avatars    storage.AvatarStore

	userService         *service.UserService
	postService         *service.PostService
	commentService      *service.CommentService
	relationshipService *service.RelationshipService
	messageService      *service.MessageService
	chatRoomService     *service.ChatRoomService
	notificationService *service.NotificationService
	moderationService   *service.ModerationService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, err
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient = redis.NewClient(&redis.Options{Addr: cfg.RedisURL})
	}

	var avatars storage.AvatarStore
	if cfg.StorageEndpoint != "" {
		avatars, err = storage.NewAvatarStore(context.Background(), storage.Config{
			Endpoint:  cfg.StorageEndpoint,
			AccessKey: cfg.StorageAccessKey,
			SecretKey: cfg.StorageSecretKey,
			Bucket:    cfg.StorageBucket,
			UseSSL:    cfg.StorageUseSSL,
			PublicURL: cfg.StoragePublicURL,
		})
		if err != nil {
			return nil, err
		}
	}

	return NewServerWithDeps(cfg, db, redisClient, avatars)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis itself.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, avatars storage.AvatarStore) (*Server, error) {
	middleware.InitMiddleware(cfg)

	server := &Server{
		config:           cfg,
		db:               db,
		redis:            redisClient,
		promMiddleware:   observability.InitMetrics("epsylon-api"),
		userRepo:         repository.NewUserRepository(db),
		postRepo:         repository.NewPostRepository(db),
		commentRepo:      repository.NewCommentRepository(db),
		relationshipRepo: repository.NewRelationshipRepository(db),
		messageRepo:      repository.NewMessageRepository(db),
		chatRoomRepo:     repository.NewChatRoomRepository(db),
		notificationRepo: repository.NewNotificationRepository(db),
		flagRepo:         repository.NewFlagRepository(db),
		avatars:          avatars,
	}

	server.notifier = notifications.NewNotifier(server.notificationRepo, redisClient)
	server.classifier = moderation.NewClassifier(moderation.Config{
		URL:      cfg.ModerationURL,
		APIKey:   cfg.ModerationAPIKey,
		Model:    cfg.ModerationModel,
		Timeout:  cfg.ModerationTimeout,
		Disabled: cfg.ModerationDisabled,
	})

	server.userService = service.NewUserService(server.userRepo, avatars, cfg.OwnerOpenID)
	server.postService = service.NewPostService(
		server.postRepo, server.userRepo, server.classifier, server.notifier, server.userService.IsAdmin)
	server.commentService = service.NewCommentService(
		server.commentRepo, server.postRepo, server.userRepo, server.classifier, server.notifier, server.userService.IsAdmin)
	server.relationshipService = service.NewRelationshipService(
		server.relationshipRepo, server.userRepo, server.notifier)
	server.messageService = service.NewMessageService(
		server.messageRepo, server.userRepo, server.classifier, server.notifier)
	server.chatRoomService = service.NewChatRoomService(
		server.chatRoomRepo, server.userRepo, server.classifier)
	server.notificationService = service.NewNotificationService(server.notificationRepo)
	server.moderationService = service.NewModerationService(
		server.flagRepo, server.postRepo, server.commentRepo, server.messageRepo,
		server.userRepo, server.userService.IsModerator)

	return server, nil
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Context Middleware to propagate Request ID and User ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS middleware should run before middlewares that can short-circuit
	// (e.g. limiter) so browser clients still receive CORS headers on error
	// responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000,http://127.0.0.1:5173"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400,
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "epsYlon Backend Metrics Dashboard",
	}))

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/session", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "session"), s.CreateSession)
	auth.Get("/me", middleware.OptionalAuth, s.GetMe)
	auth.Post("/logout", s.Logout)

	// Public user routes
	publicUsers := api.Group("/users")
	publicUsers.Get("/search", middleware.RateLimit(
		s.redis, 10, time.Minute, "user_search"), s.SearchUsers)
	publicUsers.Get("/:username/profile", s.GetUserByUsername)
	publicUsers.Get("/:id/posts", s.GetUserPosts)
	publicUsers.Get("/:id/followers", s.GetFollowers)
	publicUsers.Get("/:id/following", s.GetFollowing)

	// Public post routes (browse/search)
	publicPosts := api.Group("/posts")
	publicPosts.Get("/search", middleware.RateLimit(
		s.redis, 10, time.Minute, "post_search"), s.SearchPosts)
	// Literal routes must come before the generic /:id route.
	publicPosts.Get("/feed", middleware.AuthRequired, s.GetFeed)
	publicPosts.Get("/:id/comments", s.GetComments)
	publicPosts.Get("/:id", s.GetPost)

	// Protected routes
	protected := api.Group("", middleware.AuthRequired)

	// User routes
	users := protected.Group("/users")
	users.Put("/me", s.UpdateMe)
	users.Post("/me/avatar", middleware.RateLimit(
		s.redis, 5, 10*time.Minute, "avatar_upload"), s.UploadAvatar)
	users.Get("/me/liked", s.GetLikedPosts)
	users.Get("/me/preferences", s.GetPreferences)
	users.Put("/me/preferences", s.UpdatePreferences)
	users.Get("/:id/follow", s.GetFollowStatus)
	users.Post("/:id/follow", s.FollowUser)
	users.Delete("/:id/follow", s.UnfollowUser)

	// Protected post routes
	posts := protected.Group("/posts")
	posts.Post("/", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "create_post"), s.CreatePost)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	posts.Post("/:id/like", s.LikePost)
	posts.Delete("/:id/like", s.UnlikePost)
	posts.Get("/:id/liked", s.GetLikeStatus)
	posts.Post("/:id/comments", middleware.RateLimit(
		s.redis, 15, time.Minute, "create_comment"), s.CreateComment)
	posts.Put("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	// Comment routes
	comments := protected.Group("/comments")
	comments.Post("/:id/like", s.LikeComment)
	comments.Delete("/:id/like", s.UnlikeComment)
	comments.Put("/:id", s.UpdateComment)
	comments.Delete("/:id", s.DeleteComment)

	// Direct message routes
	messages := protected.Group("/messages")
	messages.Post("/", middleware.RateLimit(
		s.redis, 30, time.Minute, "send_message"), s.SendMessage)
	messages.Get("/", s.GetConversations)
	messages.Get("/unread", s.GetUnreadMessageCount)
	messages.Get("/:userId", s.GetConversation)
	messages.Post("/:userId/read", s.MarkThreadRead)
	messages.Delete("/:id", s.DeleteMessage)

	// Chat room routes
	chatrooms := protected.Group("/chatrooms")
	chatrooms.Post("/", s.CreateChatRoom)
	chatrooms.Get("/", s.GetChatRooms)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	chatrooms.Get("/:id/members", s.GetChatRoomMembers)
	chatrooms.Post("/:id/members", s.AddChatRoomMember)
	chatrooms.Delete("/:id/members/:userId", s.RemoveChatRoomMember)
	chatrooms.Get("/:id/messages", s.GetChatRoomMessages)
	chatrooms.Post("/:id/messages", middleware.RateLimit(
		s.redis, 30, time.Minute, "room_message"), s.SendChatRoomMessage)
	chatrooms.Get("/:id", s.GetChatRoom)

	// Notification routes
	notifs := protected.Group("/notifications")
	notifs.Get("/", s.GetNotifications)
	notifs.Get("/unread", s.GetUnreadNotificationCount)
	notifs.Post("/read-all", s.MarkAllNotificationsRead)
	notifs.Post("/:id/read", s.MarkNotificationRead)

	// Moderation routes
	modGroup := protected.Group("/moderation")
	modGroup.Post("/flags", middleware.RateLimit(
		s.redis, 10, time.Minute, "flag_content"), s.FlagContent)
	modGroup.Get("/flags", s.GetPendingFlags)
	modGroup.Post("/flags/:id/resolve", s.ResolveFlag)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start starts the server
func (s *Server) Start() error {
	ctx, cancel := context.WithCancel(context.Background())
	s.shutdownCtx = ctx
	s.shutdownFn = cancel

	app := fiber.New(fiber.Config{
		AppName: "epsYlon API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			log.Printf("Error: %v", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)

	log.Printf("Server starting on port %s...", s.config.Port)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.shutdownFn != nil {
		s.shutdownFn()
	}

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
