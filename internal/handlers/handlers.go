package handlers

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"gittogether/api/internal/config"
	"gittogether/api/internal/metrics"
	"gittogether/api/internal/middleware"
	"gittogether/api/internal/realtime"
	"gittogether/api/internal/service"
	"gittogether/api/internal/validation"
)

// PhotoSigner turns a stored image key into a URL clients can fetch.
type PhotoSigner interface {
	PresignGet(ctx context.Context, key string) (string, error)
}

// Enqueuer hands background work to the worker.
type Enqueuer interface {
	Enqueue(ctx context.Context, taskType string, payload any) (string, error)
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Deps are the collaborators of the HTTP surface. Photos, Tasks and the
// health checks are optional.
type Deps struct {
	Auth     *service.AuthService
	Requests *service.RequestService
	Chats    *service.ChatService
	Realtime *realtime.Handler
	Photos   PhotoSigner
	Tasks    Enqueuer
	Health   map[string]HealthCheck
}

type HandlerSet struct {
	log      zerolog.Logger
	cfg      *config.AppConfig
	auth     *service.AuthService
	requests *service.RequestService
	chats    *service.ChatService
	realtime *realtime.Handler
	photos   PhotoSigner
	tasks    Enqueuer
	health   map[string]HealthCheck
}

func NewHandlerSet(log zerolog.Logger, cfg *config.AppConfig, deps Deps) HandlerSet {
	validation.Engine()
	return HandlerSet{
		log:      log,
		cfg:      cfg,
		auth:     deps.Auth,
		requests: deps.Requests,
		chats:    deps.Chats,
		realtime: deps.Realtime,
		photos:   deps.Photos,
		tasks:    deps.Tasks,
		health:   deps.Health,
	}
}

func (h HandlerSet) Register(router gin.IRouter) {
	router.GET("/healthz", h.Health)
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	limited := middleware.RateLimit(h.cfg.RateLimit.AuthPerSec, h.cfg.RateLimit.AuthBurst, h.log)

	router.POST("/signup", limited, h.Signup)
	router.POST("/login", limited, h.Login)
	router.GET("/logout", h.Logout)

	if h.realtime != nil {
		router.GET("/ws", h.realtime.Serve)
	}

	protected := router.Group("")
	protected.Use(middleware.Auth(h.auth, h.log))
	{
		protected.GET("/profile/view", h.ViewProfile)

		protected.POST("/request/send/:status/:toUserId", h.SendRequest)
		protected.POST("/request/review/:status/:requestId", h.ReviewRequest)

		protected.GET("/user/requests/received", h.ReceivedRequests)
		protected.GET("/user/connections", h.Connections)
		protected.GET("/user/feed", h.Feed)

		protected.GET("/chat/:targetUserId", h.Chat)

		protected.POST("/contact-us", limited, h.ContactUs)
	}
}
