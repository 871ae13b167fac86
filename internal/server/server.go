// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/miro-4231/BackendSN/internal/cache"
	"github.com/miro-4231/BackendSN/internal/config"
	"github.com/miro-4231/BackendSN/internal/database"
	"github.com/miro-4231/BackendSN/internal/embedding"
	"github.com/miro-4231/BackendSN/internal/middleware"
	"github.com/miro-4231/BackendSN/internal/repository"
	"github.com/miro-4231/BackendSN/internal/service"

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

// hotPageTTL is how long cached hot-feed pages stay fresh.
const hotPageTTL = 30 * time.Second

// The HTTP metrics collectors register with the default Prometheus registry,
// which rejects duplicates, so they are created once per process no matter
// how many servers tests construct.
var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

func initProm() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = middleware.InitMetrics("backendsn-api")
	})
	return prom
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	promMiddleware *fiberprometheus.FiberPrometheus

	userRepo    repository.UserRepository
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	tokenRepo   repository.TokenRepository

	embedder *embedding.Client
	pages    *cache.PageCache

	userService     *service.UserService
	tokenService    *service.TokenService
	postService     *service.PostService
	commentService  *service.CommentService
	voteService     *service.VoteService
	interestService *service.InterestService
	feedService     *service.FeedService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	cache.InitRedis(cfg.RedisURL)
	redisClient := cache.GetClient()

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis itself.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: initProm(),
		userRepo:       repository.NewUserRepository(db),
		postRepo:       repository.NewPostRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
		tokenRepo:      repository.NewTokenRepository(db),
		embedder:       embedding.NewClient(cfg.EmbeddingURL),
		pages:          cache.NewPageCache(redisClient, hotPageTTL),
	}

	server.userService = service.NewUserService(server.userRepo)
	server.tokenService = service.NewTokenService(server.tokenRepo, server.userRepo, service.TokenConfig{
		Secret:     cfg.JWTSecret,
		AccessTTL:  time.Duration(cfg.AccessTokenTTLMin) * time.Minute,
		RefreshTTL: time.Duration(cfg.RefreshTokenTTLDays) * 24 * time.Hour,
	})
	server.postService = service.NewPostService(server.postRepo, server.embedder)
	server.commentService = service.NewCommentService(server.commentRepo, server.postRepo)
	server.interestService = service.NewInterestService(server.userRepo)
	server.voteService = service.NewVoteService(db, server.interestService)
	server.feedService = service.NewFeedService(server.postRepo, server.userRepo, server.embedder, server.pages)

	return server, nil
}

// TokenService exposes the session lifecycle for bootstrap code that runs
// the sweeper.
func (s *Server) TokenService() *service.TokenService {
	return s.tokenService
}

// AuthRequired returns the authentication middleware bound to this server's
// token service.
func (s *Server) AuthRequired() fiber.Handler {
	return middleware.AuthRequired(s.tokenService)
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Context middleware to propagate request ID and user ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured logging (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// Distributed tracing
	app.Use(middleware.TracingMiddleware())

	// CORS runs before middlewares that can short-circuit (e.g. limiter)
	// so browser clients still receive CORS headers on error responses.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
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
		// Never rate-limit preflight requests.
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
		Title: "BackendSN Metrics Dashboard",
	}))

	// Auth routes
	auth := api.Group("/auth")
	auth.Post("/register", middleware.RateLimit(
		s.redis, 3, 10*time.Minute, "register"), s.Register)
	auth.Post("/login", middleware.RateLimit(
		s.redis, 10, 5*time.Minute, "login"), s.Login)
	auth.Post("/refresh", s.Refresh)
	auth.Post("/logout", s.Logout)
	auth.Get("/me", s.AuthRequired(), s.Me)

	// Public post routes (browse)
	publicPosts := api.Group("/posts")
	publicPosts.Get("/", s.GetPosts)
	// Define specific /:id/:resource routes BEFORE generic /:id route
	publicPosts.Get("/latest", s.GetLatestPost)
	publicPosts.Get("/:id/comments", s.GetComments)
	publicPosts.Get("/:id/similar", s.GetSimilarPosts)
	publicPosts.Get("/:id", s.GetPost)

	// Feed routes
	feed := api.Group("/feed")
	feed.Get("/hot", s.HotFeed)
	feed.Get("/search", middleware.RateLimit(
		s.redis, 10, time.Minute, "search"), s.SearchFeed)
	feed.Get("/personalized", s.AuthRequired(), s.PersonalizedFeed)

	// Protected routes
	protected := api.Group("", s.AuthRequired())

	// Post and comment mutations
	posts := protected.Group("/posts")
	posts.Post("/", middleware.RateLimit(
		s.redis, 5, 5*time.Minute, "create_post"), s.CreatePost)
	posts.Post("/:id/comments", middleware.RateLimit(
		s.redis, 10, time.Minute, "create_comment"), s.CreateComment)
	posts.Put("/:id/comments/:commentId", s.UpdateComment)
	posts.Delete("/:id/comments/:commentId", s.DeleteComment)
	posts.Put("/:id", s.UpdatePost)
	posts.Delete("/:id", s.DeletePost)

	// Vote routes
	votes := protected.Group("/votes")
	votes.Post("/:kind/:id", s.CastVote)
	votes.Delete("/:kind/:id", s.RetractVote)
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

	// Redis only backs caching and rate limits; its absence degrades but
	// does not fail readiness.
	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
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
