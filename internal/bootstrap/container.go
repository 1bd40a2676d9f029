package bootstrap

import (
	"context"
	"log"

	"ai-chat-session-be/internal/config"
	"ai-chat-session-be/internal/controller"
	"ai-chat-session-be/internal/handler"
	"ai-chat-session-be/internal/pkg/logger"
	"ai-chat-session-be/internal/pkg/serverutils"
	"ai-chat-session-be/internal/repository/memory"
	"ai-chat-session-be/internal/repository/unitofwork"
	"ai-chat-session-be/internal/service"
	"ai-chat-session-be/internal/websocket"
	"ai-chat-session-be/pkg/events"
	"ai-chat-session-be/pkg/identity"
	"ai-chat-session-be/pkg/llm/factory"
	"ai-chat-session-be/pkg/metering/admission"
	"ai-chat-session-be/pkg/metering/lock"
	"ai-chat-session-be/pkg/metering/proxy"
	"ai-chat-session-be/pkg/metering/quota"
	"ai-chat-session-be/pkg/metering/usage"

	pktNats "ai-chat-session-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController         controller.IAuthController
	PlanController         controller.IPlanController
	SessionController      controller.ISessionController
	ChatController         controller.IChatController
	ConversationController controller.IConversationController

	JwtMiddleware fiber.Handler
	Logger        logger.ILogger

	// Background Services (Exposed for main.go to run)
	ConsumerService   service.IConsumerService
	EventAuditService *service.EventAuditService

	// WebSockets
	UsageStreamHandler *handler.UsageStreamHandler
	WebSocketHub       *websocket.Hub

	natsPub *pktNats.Publisher
	natsSub *pktNats.Subscriber
	pubSub  *gochannel.GoChannel
	rdb     *redis.Client
}

// NewContainer wires the application. db may be nil when STORE_DRIVER=memory.
func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())

	var uowFactory unitofwork.RepositoryFactory
	if cfg.Database.Driver == "memory" || db == nil {
		log.Println("[WARN] Using in-memory store, data is lost on restart")
		uowFactory = memory.NewStore()
	} else {
		uowFactory = unitofwork.NewRepositoryFactory(db)
	}

	verifier := identity.NewVerifier(cfg.Auth.JwtSecret, cfg.Auth.TokenTTL)

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS
	natsPub, err := pktNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
	}

	// Redis
	rdb := newRedisClient(cfg.App.RedisURL)

	usageLogger := logger.NewIsolatedLogger(cfg.App.UsageLogFilePath)
	wsHub := websocket.NewHub(rdb, usageLogger)

	// 3. Metering
	locker := newLocker(cfg, rdb)
	resolver := quota.NewResolver(cfg.Metering.QuotaCacheTTL, sysLogger)
	gate := admission.NewGate(resolver, sysLogger)
	reconciler := usage.NewReconciler(sysLogger)

	llmProvider, err := factory.NewLLMProvider(cfg.Ai.LLMProvider, "", cfg.Ai.BaseURL, cfg.Ai.APIKey)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.BaseURL)
	completionProxy := proxy.New(llmProvider, cfg.Ai.RequestTimeout, sysLogger,
		proxy.WithMaxOutputTokens(cfg.Ai.MaxOutputTokens),
	)

	// 4. Services
	sessionEvents := events.NewSessionEvents(natsPub, sysLogger)

	publisherService := service.NewPublisherService(cfg.Metering.RetryTopic, pubSub)
	consumerService := service.NewConsumerService(
		pubSub,
		publisherService,
		cfg.Metering.RetryTopic,
		uowFactory,
		reconciler,
		cfg.Metering.RetryMaxAttempts,
		cfg.Metering.RetryBackoff,
		sysLogger,
	)

	authService := service.NewAuthService(uowFactory, verifier, sysLogger)
	planService := service.NewPlanService(uowFactory)
	sessionService := service.NewSessionService(uowFactory, resolver, sessionEvents, sysLogger)
	conversationService := service.NewConversationService(uowFactory, sysLogger)
	chatService := service.NewChatService(service.ChatServiceDeps{
		UowFactory:    uowFactory,
		Locker:        locker,
		Gate:          gate,
		Proxy:         completionProxy,
		Reconciler:    reconciler,
		Conversations: conversationService,
		Retry:         publisherService,
		Events:        sessionEvents,
		Notifier:      wsHub,
		Logger:        sysLogger,
	})

	var auditService *service.EventAuditService
	if natsSub != nil {
		auditService = service.NewEventAuditService(natsSub, usageLogger)
	}

	// 5. Controllers
	return &Container{
		AuthController:         controller.NewAuthController(authService),
		PlanController:         controller.NewPlanController(planService),
		SessionController:      controller.NewSessionController(sessionService),
		ChatController:         controller.NewChatController(chatService),
		ConversationController: controller.NewConversationController(conversationService),

		JwtMiddleware: serverutils.JwtMiddleware(verifier),
		Logger:        sysLogger,

		ConsumerService:   consumerService,
		EventAuditService: auditService,

		UsageStreamHandler: handler.NewUsageStreamHandler(wsHub, verifier, usageLogger),
		WebSocketHub:       wsHub,

		natsPub: natsPub,
		natsSub: natsSub,
		pubSub:  pubSub,
		rdb:     rdb,
	}
}

// Close releases the broker connections. Safe to call once on shutdown.
func (c *Container) Close() {
	c.natsSub.Close()
	c.natsPub.Close()
	if err := c.pubSub.Close(); err != nil {
		log.Printf("[WARN] Failed to close event bus: %v", err)
	}
	if c.rdb != nil {
		_ = c.rdb.Close()
	}
	_ = c.Logger.Sync()
}

// newRedisClient returns nil when redis is unreachable; the hub then serves
// local connections only.
func newRedisClient(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: url,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
		_ = rdb.Close()
		return nil
	}
	return rdb
}

func newLocker(cfg *config.Config, rdb *redis.Client) lock.Locker {
	switch cfg.Metering.LockBackend {
	case "redis":
		if rdb == nil {
			log.Fatal("[FATAL] SESSION_LOCK_BACKEND=redis but Redis is unreachable")
		}
		return lock.NewRedis(rdb, cfg.Metering.LockTTL)
	case "none":
		log.Println("[WARN] Session lock disabled, concurrent turns may overshoot the budget")
		return lock.NewNoop()
	default:
		return lock.NewMemory()
	}
}
