package bootstrap

import (
	"context"
	"log"

	"ai-tutoring-sync/internal/config"
	"ai-tutoring-sync/internal/controller"
	"ai-tutoring-sync/internal/handler"
	"ai-tutoring-sync/internal/pkg/logger"
	"ai-tutoring-sync/internal/repository/memory"
	"ai-tutoring-sync/internal/service"
	"ai-tutoring-sync/internal/websocket"

	pktNats "ai-tutoring-sync/pkg/nats"

	"github.com/redis/go-redis/v9"
)

type Container struct {
	// Controllers
	SessionController controller.ISessionController

	// WebSockets
	OrchestrationHandler *handler.OrchestrationHandler
	WebSocketHub         *websocket.Hub

	// Background services (exposed for main.go / shutdown)
	Engine service.IOrchestrationEngine
	Bridge *service.BridgeService

	NatsPublisher  *pktNats.Publisher
	NatsSubscriber *pktNats.Subscriber
}

func NewContainer(cfg *config.Config) *Container {
	// 1. Core facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")
	sessionRepo := memory.NewSessionRepository(cfg.Engine.SessionTTL)

	// 2. Infrastructure — all optional, the simulator runs standalone without
	// NATS or Redis.
	var natsPub *pktNats.Publisher
	var natsSub *pktNats.Subscriber
	if cfg.App.NatsURL != "" {
		var err error
		natsPub, err = pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
			natsPub = nil
		}
		natsSub, err = pktNats.NewSubscriber(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Subscriber: %v", err)
			natsSub = nil
		}
	}

	var rdb *redis.Client
	if cfg.App.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.App.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{Addr: cfg.App.RedisURL}
		}
		rdb = redis.NewClient(opt)
		if _, err := rdb.Ping(context.Background()).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
	}

	// 3. WebSocket hub
	wsLogger := logger.NewIsolatedLogger("logs/orchestration.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 4. Services
	engine := service.NewOrchestrationEngine(
		wsHub,
		sessionRepo,
		natsPub,
		sysLogger,
		cfg.Engine.Tick,
		cfg.Engine.ConfusionDecay,
	)
	sessionService := service.NewSessionService(sessionRepo, engine, natsPub, sysLogger, cfg.Security.JwtSecret)

	var bridge *service.BridgeService
	if natsSub != nil {
		bridge = service.NewBridgeService(natsSub, wsHub, sysLogger)
		go bridge.Start()
	}

	return &Container{
		SessionController:    controller.NewSessionController(sessionService),
		OrchestrationHandler: handler.NewOrchestrationHandler(wsHub, wsLogger),
		WebSocketHub:         wsHub,
		Engine:               engine,
		Bridge:               bridge,
		NatsPublisher:        natsPub,
		NatsSubscriber:       natsSub,
	}
}

// Shutdown stops running sessions and closes external connections.
func (c *Container) Shutdown() {
	c.Engine.StopAll()
	if c.NatsPublisher != nil {
		c.NatsPublisher.Close()
	}
	if c.NatsSubscriber != nil {
		c.NatsSubscriber.Close()
	}
}
