package bootstrap

import (
	"context"
	"log"
	"os"

	"ai-eventplanner-be/internal/config"
	"ai-eventplanner-be/internal/constant"
	"ai-eventplanner-be/internal/controller"
	"ai-eventplanner-be/internal/handler"
	"ai-eventplanner-be/internal/pkg/logger"
	"ai-eventplanner-be/internal/repository/implementation"
	"ai-eventplanner-be/internal/repository/unitofwork"
	"ai-eventplanner-be/internal/service"
	"ai-eventplanner-be/internal/websocket"
	"ai-eventplanner-be/pkg/llm/factory"
	"ai-eventplanner-be/pkg/planner"
	"ai-eventplanner-be/pkg/planner/pipeline"
	"ai-eventplanner-be/pkg/planner/progress"
	"ai-eventplanner-be/pkg/planner/stream"
	"ai-eventplanner-be/pkg/planner/toolcall"

	pktNats "ai-eventplanner-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	PlannerController controller.IPlannerController

	// Background Services (Exposed for main.go to run)
	ConsumerService service.IConsumerService

	// WebSockets & Alerts
	AlertHandler *handler.AlertHandler
	WebSocketHub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// The GORM repository doubles as the session store the orchestrator and
	// the stream publisher rendezvous on.
	var sessionStore planner.SessionStore = implementation.NewProcessingSessionRepository(db)

	// 2. Event Bus (in-process)
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 3. AI Pipeline
	llmProvider, err := factory.NewLLMProvider(
		cfg.Ai.LLMProvider,
		cfg.Ai.LLMModel,
		cfg.Ai.OllamaBaseURL,
		cfg.Keys.HuggingFace,
	)
	if err != nil {
		log.Fatalf("[FATAL] Failed to initialize LLM Provider: %v", err)
	}
	log.Printf("[INFO] Using LLM Provider: %s (%s)", cfg.Ai.LLMProvider, cfg.Ai.LLMModel)

	invoker := toolcall.NewLLMInvoker(llmProvider, log.New(os.Stdout, "[toolcall] ", log.LstdFlags))

	// 3.5 Infrastructure
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
	opt, err := redis.ParseURL(cfg.App.RedisURL)
	if err != nil {
		log.Printf("[WARN] Failed to parse Redis URL: %v. Using direct Addr", err)
		opt = &redis.Options{
			Addr: cfg.App.RedisURL,
		}
	}
	rdb := redis.NewClient(opt)
	if _, err := rdb.Ping(context.Background()).Result(); err != nil {
		log.Printf("[WARN] Failed to connect to Redis: %v", err)
	}

	// WebSocket Hub
	wsLogger := logger.NewIsolatedLogger("logs/alerts.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 4. Planner Core
	reporter := progress.NewStoreReporter(sessionStore, pubSub, sysLogger)

	var eventPub pipeline.EventPublisher
	if natsPub != nil {
		eventPub = natsPub
	}

	orchestrator := pipeline.NewOrchestrator(
		sessionStore,
		invoker,
		reporter,
		eventPub,
		pubSub,
		sysLogger,
		pipeline.Config{
			StepRetries:  cfg.Planner.StepRetries,
			RetryBackoff: cfg.Planner.RetryBackoff(),
		},
	)

	streamer := stream.NewPublisher(sessionStore, pubSub, sysLogger, stream.Config{
		PollInterval: cfg.Stream.PollInterval(),
		MaxAttempts:  cfg.Stream.MaxAttempts,
	})

	plannerService := service.NewPlannerService(
		sessionStore,
		uowFactory,
		orchestrator,
		cfg.Planner.Deadline(),
		cfg.Ai.LLMModel,
		cfg.Ai.LLMProvider,
	)

	consumerService := service.NewConsumerService(
		pubSub,
		constant.TopicPlannerCompleted,
		uowFactory,
	)

	// 5. Alert fan-out (NATS -> websocket)
	alertService := service.NewAlertService(natsSub, wsHub, wsLogger)
	if natsSub != nil {
		go alertService.Start()
	}
	alertHandler := handler.NewAlertHandler(wsHub, wsLogger)

	return &Container{
		PlannerController: controller.NewPlannerController(plannerService, streamer, sysLogger),
		ConsumerService:   consumerService,
		AlertHandler:      alertHandler,
		WebSocketHub:      wsHub,
	}
}
