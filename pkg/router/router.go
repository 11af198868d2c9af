package router

import (
	"strings"
	"time"

	channelapi "chatlog/backend/channel/api"
	channelrepo "chatlog/backend/channel/repository"
	channelservice "chatlog/backend/channel/service"
	"chatlog/backend/feed"
	feedapi "chatlog/backend/feed/api"
	"chatlog/backend/feed/ws"
	messagerepo "chatlog/backend/message/repository"
	messageservice "chatlog/backend/message/service"
	"chatlog/backend/pkg/config"
	"chatlog/backend/pkg/errors"
	"chatlog/backend/pkg/logger"
	"chatlog/backend/pkg/middleware"
	"chatlog/backend/pkg/observability"
	"chatlog/backend/pkg/slackclient"
	"chatlog/backend/render"
	userrepo "chatlog/backend/user/repository"
	"chatlog/backend/webhook"
	webhookapi "chatlog/backend/webhook/api"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// Track server start time for uptime calculations
var startTime = time.Now()

// Deps are the externally-constructed dependencies the router wires
// together. Cache may be nil when Redis is unavailable.
type Deps struct {
	DB     *gorm.DB
	Slack  slackclient.API
	Cache  feed.Cache
	Logger *logger.Logger
}

// Router is the main router for the application
type Router struct {
	Engine *gin.Engine
	Logger *logger.Logger
	Config *config.Config
	Hub    *ws.Hub

	Publisher *feed.Publisher
	Messages  *messageservice.MessageService
	Channels  *channelservice.ChannelService
}

// New assembles repositories, services, and handlers around the given
// dependencies and returns a ready-to-serve router.
func New(deps Deps) *Router {
	logger.SetGlobal(deps.Logger)

	cfg := config.Get()

	// Configure Gin mode based on environment
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.SetTrustedProxies(cfg.Security.TrustedProxies)

	// Use the logger middleware first to capture all requests
	engine.Use(logger.Middleware(deps.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())
	engine.Use(middleware.RequestIDMiddleware())
	engine.Use(middleware.BodySizeLimit(cfg.Security.MaxBodySize))

	rateLimiter := middleware.NewRateLimiter(deps.Logger, middleware.RateLimiterOptions{
		Limit:          rate.Limit(cfg.Security.RateLimit),
		Burst:          cfg.Security.RateLimitBurst,
		ExpiryDuration: time.Hour,
		KeyFunc:        func(c *gin.Context) string { return c.ClientIP() },
		// Slack redelivers on any non-2xx; a 429 on its endpoints
		// would only amplify the load it is meant to shed.
		Skip: func(c *gin.Context) bool {
			return strings.HasPrefix(c.Request.URL.Path, "/slack/")
		},
	})
	engine.Use(rateLimiter.Middleware())

	// Repositories
	channels := channelrepo.NewGormChannelRepository(deps.DB)
	users := userrepo.NewGormUserRepository(deps.DB)
	messages := messagerepo.NewGormMessageRepository(deps.DB)

	// Feed pipeline
	hub := ws.NewHub(deps.Logger)
	go hub.Run()

	publisher := feed.NewPublisher(channels, messages, deps.Cache, hub, feed.Options{
		Dir:      cfg.Feed.Dir,
		Callback: cfg.Feed.Callback,
		CacheTTL: cfg.Feed.CacheTTL,
		Timeout:  cfg.Feed.PublishTimeout,
	}, deps.Logger)

	// Services
	renderer := render.New(users)
	messageSvc := messageservice.NewMessageService(messages, users, renderer, publisher, deps.Slack, deps.Logger)
	channelSvc := channelservice.NewChannelService(channels, publisher, deps.Slack, deps.Logger)

	// Handlers
	auth := webhook.NewAuthenticator(cfg.Slack.VerificationToken)
	eventHandler := webhookapi.NewEventHandler(auth, channels, messageSvc)
	commandHandler := channelapi.NewCommandHandler(auth, channelSvc)
	feedHandler := feedapi.NewFeedHandler(publisher, channels, deps.Cache)

	r := &Router{
		Engine:    engine,
		Logger:    deps.Logger,
		Config:    cfg,
		Hub:       hub,
		Publisher: publisher,
		Messages:  messageSvc,
		Channels:  channelSvc,
	}

	webhookapi.RegisterEventRoutes(engine, eventHandler)
	channelapi.RegisterCommandRoutes(engine, commandHandler)
	feedapi.RegisterFeedRoutes(engine, feedHandler, hub, cfg.Feed.Dir)

	engine.GET("/health", r.healthCheckHandler(deps.DB))
	engine.GET("/metrics", gin.WrapH(observability.MetricsHandler()))

	return r
}

// healthCheckHandler returns a simple health check handler
func (r *Router) healthCheckHandler(db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "ok"
		dbStatus := "ok"
		if err := config.Ping(db); err != nil {
			status = "degraded"
			dbStatus = err.Error()
		}

		c.JSON(200, gin.H{
			"status":   status,
			"database": dbStatus,
			"env":      r.Config.Server.Env,
			"uptime":   time.Since(startTime).String(),
			"time":     time.Now().Format(time.RFC3339),
		})
	}
}
