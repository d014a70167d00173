package bootstrap

import (
	"context"
	"log"

	"ai-fitness-be/internal/config"
	"ai-fitness-be/internal/controller"
	"ai-fitness-be/internal/handler"
	"ai-fitness-be/internal/pkg/logger"
	"ai-fitness-be/internal/repository"
	"ai-fitness-be/internal/repository/memory"
	"ai-fitness-be/internal/repository/redisrepo"
	"ai-fitness-be/internal/service"
	"ai-fitness-be/internal/websocket"
	"ai-fitness-be/pkg/workout"

	pktNats "ai-fitness-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
)

// WorkoutEventsTopic is the in-process topic workout events travel on.
const WorkoutEventsTopic = "workout.events"

type Container struct {
	// Controllers
	WorkoutController controller.IWorkoutController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets
	WorkoutHandler *handler.WorkoutHandler
	WebSocketHub   *websocket.Hub

	Logger logger.ILogger

	closers []func()
}

func NewContainer(ctx context.Context, cfg *config.Config) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.IsProduction())
	wsLogger := logger.NewIsolatedLogger(cfg.App.WsLogFilePath)
	c := &Container{Logger: sysLogger}

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)
	c.closers = append(c.closers, func() { pubSub.Close() })

	// 3. Infrastructure. Each piece is optional; nil sinks are skipped.
	var forwarder service.EventForwarder
	if cfg.Infra.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(cfg.Infra.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			forwarder = natsPub
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	var summaries repository.SummaryRepository
	if cfg.Infra.RedisURL != "" {
		opt, err := redis.ParseURL(cfg.Infra.RedisURL)
		if err != nil {
			log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
			opt = &redis.Options{
				Addr: cfg.Infra.RedisURL,
			}
		}
		rdb := redis.NewClient(opt)
		if _, err := rdb.Ping(ctx).Result(); err != nil {
			log.Printf("[WARN] Failed to connect to Redis: %v", err)
		}
		summaries = redisrepo.NewSummaryRepository(rdb, cfg.Workout.SummaryTTL)
		c.closers = append(c.closers, func() { rdb.Close() })
	}

	// 4. Services
	// The registry's expiry hook needs the service, which needs the registry.
	var workoutService service.IWorkoutService
	sessionRepo := memory.NewSessionRepository(cfg.Workout.SessionTTL, func(s *workout.Session) {
		workoutService.ExpireSession(s)
	})

	eventPublisher := service.NewEventPublisher(pubSub, WorkoutEventsTopic, sysLogger)
	workoutService = service.NewWorkoutService(sessionRepo, summaries, eventPublisher, sysLogger)
	c.ConsumerService = service.NewConsumerService(pubSub, WorkoutEventsTopic, forwarder, summaries, sysLogger)

	// 5. WebSocket Hub
	wsHub := websocket.NewHub(wsLogger)
	go wsHub.Run(ctx)

	c.WebSocketHub = wsHub
	c.WorkoutHandler = handler.NewWorkoutHandler(workoutService, wsHub, cfg.App.JwtSecret, wsLogger)
	c.WorkoutController = controller.NewWorkoutController(workoutService, wsHub, cfg.Workout)

	c.closers = append(c.closers, func() {
		sysLogger.Sync()
		wsLogger.Sync()
	})
	return c
}

// Close releases infrastructure connections in reverse order of creation.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
