package bootstrap

import (
	"context"
	"log"

	"insightslm-be/internal/config"
	"insightslm-be/internal/controller"
	"insightslm-be/internal/handler"
	"insightslm-be/internal/pkg/logger"
	"insightslm-be/internal/repository/unitofwork"
	"insightslm-be/internal/service"
	"insightslm-be/internal/websocket"
	"insightslm-be/pkg/backend"
	"insightslm-be/pkg/chat/syncstore"

	pkgNats "insightslm-be/pkg/nats"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Container struct {
	// Controllers
	AuthController      controller.IAuthController
	NotebookController  controller.INotebookController
	ChatController      controller.IChatController
	NoteController      controller.INoteController
	BookController      controller.IBookController
	FunctionsController controller.IFunctionsController

	// Background Services (Exposed for main.go to run)
	PushService service.IPushService
	SyncStore   *syncstore.Store

	// WebSockets
	PushHandler  *handler.PushHandler
	WebSocketHub *websocket.Hub
}

func NewContainer(db *gorm.DB, cfg *config.Config) *Container {
	// 1. Core Facades
	uowFactory := unitofwork.NewRepositoryFactory(db)
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	// 2. Event Bus
	watermillLogger := watermill.NewStdLogger(false, false)
	pubSub := gochannel.NewGoChannel(
		gochannel.Config{},
		watermillLogger,
	)

	// 2.5 Infrastructure
	// NATS relays row changes across instances. The app still works
	// single-instance without it.
	natsPub, err := pkgNats.NewPublisher(cfg.App.NatsURL)
	if err != nil {
		log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
	}
	natsSub, err := pkgNats.NewSubscriber(cfg.App.NatsURL)
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
	wsLogger := logger.NewIsolatedLogger("logs/push.log")
	wsHub := websocket.NewHub(rdb, wsLogger)
	go wsHub.Run()

	// 3. Services
	publisherService := service.NewPublisherService(pubSub, cfg.Events.RowChangeTopic)

	backendClient := backend.NewClient(cfg.Backend.BaseURL, cfg.Backend.APIKey)
	functionsService := service.NewFunctionsService(uowFactory, backendClient, publisherService, sysLogger)

	// Sync store: reads through the adapters, mutates through the
	// functions service, merges push inserts from the row-change topic.
	syncStore := syncstore.NewStore(
		service.NewNotebookSource(uowFactory),
		service.NewMessageSource(uowFactory),
		functionsService,
		pubSub,
		cfg.Events.RowChangeTopic,
		sysLogger,
	)

	authService := service.NewAuthService(uowFactory)
	notebookService := service.NewNotebookService(uowFactory, syncStore, publisherService, sysLogger)
	chatService := service.NewChatService(uowFactory, syncStore, publisherService, sysLogger)
	noteService := service.NewNoteService(uowFactory)
	bookService := service.NewBookService(uowFactory)

	pushService := service.NewPushService(pubSub, cfg.Events.RowChangeTopic, wsHub, natsPub, natsSub, wsLogger)

	// Handler
	pushHandler := handler.NewPushHandler(wsHub, wsLogger)

	// 4. Controllers
	return &Container{
		PushHandler:  pushHandler,
		WebSocketHub: wsHub,

		AuthController:      controller.NewAuthController(authService),
		NotebookController:  controller.NewNotebookController(notebookService),
		ChatController:      controller.NewChatController(chatService),
		NoteController:      controller.NewNoteController(noteService),
		BookController:      controller.NewBookController(bookService),
		FunctionsController: controller.NewFunctionsController(functionsService),

		PushService: pushService,
		SyncStore:   syncStore,
	}
}
