package handler

import (
	"bank-card-service/internal/adapter/http/middleware"
	redisStore "bank-card-service/internal/adapter/storage/redis"
	"bank-card-service/internal/core/ports"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// RouterDeps holds all dependencies needed to set up routes.
type RouterDeps struct {
	AuthSvc        ports.AuthService
	TransferSvc    ports.TransferService
	BlockSvc       ports.BlockService
	CardSvc        ports.CardService
	UserSvc        ports.UserService
	TokenSvc       ports.TokenService
	RateLimitStore *redisStore.RateLimitStore // nil = rate limiting disabled
	HealthCheckers []ports.HealthChecker
	Logger         zerolog.Logger
}

// SetupRouter initialises the Gin engine with all routes and middleware.
func SetupRouter(deps RouterDeps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery(deps.Logger))
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.MaxBodySize(1 << 20)) // 1 MB request body limit

	// Health check (deep: verifies PostgreSQL + Redis)
	r.GET("/health", HealthCheck(deps.HealthCheckers...))

	// Rate limit rules
	rules := middleware.DefaultRateLimitRules()

	// Helper: return rate limiter middleware if store is available, else noop.
	rl := func(group string) gin.HandlerFunc {
		if deps.RateLimitStore == nil {
			return func(c *gin.Context) { c.Next() }
		}
		rule, ok := rules[group]
		if !ok {
			return func(c *gin.Context) { c.Next() }
		}
		return middleware.RateLimiter(deps.RateLimitStore, group, rule, deps.Logger)
	}

	// API v1 routes
	v1 := r.Group("/api/v1")

	// --- Public routes (no auth) ---
	authHandler := NewAuthHandler(deps.AuthSvc)
	auth := v1.Group("/auth")
	{
		auth.POST("/sign-in", rl("auth_sign_in"), authHandler.SignIn)
		auth.POST("/refresh", rl("auth_refresh"), authHandler.Refresh)
	}

	jwtAuth := middleware.JWTAuth(deps.TokenSvc, deps.Logger)
	adminOnly := middleware.RequireAdmin()

	// --- Cardholder routes (JWT) ---
	userCardHandler := NewUserCardHandler(deps.UserSvc, deps.TransferSvc, deps.BlockSvc)
	userCards := v1.Group("/user_cards", jwtAuth)
	{
		userCards.GET("", rl("user_cards"), userCardHandler.List)
		userCards.GET("/:id", rl("user_cards"), userCardHandler.Get)
		userCards.POST("/transfer", rl("transfer"), userCardHandler.Transfer)
		userCards.POST("/block", rl("blocks"), userCardHandler.RequestBlock)

		// Block-request administration
		userCards.GET("/block-requests", adminOnly, rl("admin"), userCardHandler.ListBlockRequests)
		userCards.POST("/block-requests", adminOnly, rl("admin"), userCardHandler.ApproveBlock)
	}

	// --- Admin routes (JWT + ADMIN role) ---
	cardHandler := NewCardHandler(deps.CardSvc)
	cards := v1.Group("/cards", jwtAuth, adminOnly)
	{
		cards.GET("", rl("admin"), cardHandler.List)
		cards.POST("", rl("admin"), cardHandler.Create)
		cards.PATCH("/:id", rl("admin"), cardHandler.Update)
		cards.DELETE("/:id", rl("admin"), cardHandler.Delete)
	}

	userHandler := NewUserHandler(deps.UserSvc)
	users := v1.Group("/users", jwtAuth, adminOnly)
	{
		users.GET("", rl("admin"), userHandler.List)
		users.POST("", rl("admin"), userHandler.Create)
		users.PATCH("/:id", rl("admin"), userHandler.Update)
		users.DELETE("/:id", rl("admin"), userHandler.Delete)
	}

	return r
}
