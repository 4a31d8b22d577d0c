package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/glushul/SmartGuysSmartGirls/internal/config"
	"github.com/glushul/SmartGuysSmartGirls/internal/domain/repository"
	"github.com/glushul/SmartGuysSmartGirls/internal/handler"
	"github.com/glushul/SmartGuysSmartGirls/internal/middleware"
	"github.com/glushul/SmartGuysSmartGirls/internal/pkg/logger"
	"github.com/glushul/SmartGuysSmartGirls/internal/pkg/metrics"
	pgRepo "github.com/glushul/SmartGuysSmartGirls/internal/repository/postgres"
	redisRepo "github.com/glushul/SmartGuysSmartGirls/internal/repository/redis"
	"github.com/glushul/SmartGuysSmartGirls/internal/service"
	"github.com/glushul/SmartGuysSmartGirls/internal/service/gamemanager"
	"github.com/glushul/SmartGuysSmartGirls/internal/telegram"
	ws "github.com/glushul/SmartGuysSmartGirls/internal/websocket"
	"github.com/glushul/SmartGuysSmartGirls/pkg/auth"
	"github.com/glushul/SmartGuysSmartGirls/pkg/database"
)

func main() {
	log := logger.New("smartguys-bot", "")

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Infof("[Main] Загрузка конфигурации из %s", configPath)

	cfg, err := config.Load(configPath, log)
	if err != nil {
		log.WithError(err).Fatal("[Main] Failed to load config")
	}
	log.Logger.SetLevel(logger.ParseLevel(cfg.Log.Level))

	if cfg.IsDebug() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL и миграции
	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString(), database.PoolConfig{
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
		Debug:        cfg.IsDebug(),
	})
	if err != nil {
		log.WithError(err).Fatal("[Main] Failed to connect to database")
	}
	if err := database.MigrateDB(db, cfg.Database.MigrationsURL, log); err != nil {
		log.WithError(err).Fatal("[Main] Failed to migrate database")
	}

	// Redis необязателен: без него нет дедупликации обновлений, кеша каталога и лимита на вход
	var redisClient redis.UniversalClient
	var cacheRepo repository.CacheRepository
	if len(cfg.Redis.Addrs) > 0 || cfg.Redis.Addr != "" {
		redisClient, err = database.NewUniversalRedisClient(ctx, cfg.Redis, 5*time.Second)
		if err != nil {
			log.WithError(err).Fatal("[Main] Failed to connect to Redis")
		}
		cache, err := redisRepo.NewCacheRepo(redisClient, cfg.Redis.KeyPrefix)
		if err != nil {
			log.WithError(err).Fatal("[Main] Failed to initialize CacheRepo")
		}
		cacheRepo = cache
		log.Info("[Main] Successfully connected to Redis")
	} else {
		log.Warn("[Main] Redis не настроен, работа без кеша")
	}

	// Репозитории
	gameRepo := pgRepo.NewGameRepo(db)
	participantRepo := pgRepo.NewParticipantRepo(db)
	userRepo := pgRepo.NewUserRepo(db)
	chatRepo := pgRepo.NewChatRepo(db)
	var questionRepo repository.QuestionRepository = pgRepo.NewQuestionRepo(db)
	if cacheRepo != nil {
		questionRepo = redisRepo.NewCachedQuestionRepo(questionRepo, cacheRepo, cfg.Redis.CatalogTTL, log)
	}

	// Метрики
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.New(registry)

	// Telegram и живая лента
	tgClient := telegram.NewClient(cfg.Telegram.APIURL, cfg.Telegram.Token,
		time.Duration(cfg.Telegram.PollTimeout+10)*time.Second)
	feedHub := ws.NewHub(appMetrics.FeedClients, log)
	messenger := ws.NewFeedMessenger(telegram.NewMessenger(tgClient), feedHub)

	// Менеджер игр
	gameConfig := gamemanager.DefaultConfig()
	gameConfig.DefaultAnswerTime = cfg.Game.DefaultAnswerTime
	gameConfig.MaxAnswerTime = cfg.Game.MaxAnswerTime
	gameConfig.Shards = cfg.Dispatcher.Shards
	if cfg.Dispatcher.QueueSize > 0 {
		gameConfig.QueueSize = cfg.Dispatcher.QueueSize
	}
	gameConfig.BotName = cfg.Telegram.BotName

	gameManager := gamemanager.NewManager(gameConfig, &gamemanager.Dependencies{
		GameRepo:        gameRepo,
		ParticipantRepo: participantRepo,
		UserRepo:        userRepo,
		QuestionRepo:    questionRepo,
		ChatRepo:        chatRepo,
		Messenger:       messenger,
		Random:          gamemanager.NewRandom(uint64(time.Now().UnixNano())),
		Metrics:         appMetrics,
		Logger:          log,
	})
	if err := gameManager.Start(ctx); err != nil {
		log.WithError(err).Fatal("[Main] Failed to start game manager")
	}

	pollerConfig := telegram.DefaultPollerConfig()
	pollerConfig.BotID = cfg.Telegram.BotID
	pollerConfig.BotName = cfg.Telegram.BotName
	pollerConfig.Timeout = cfg.Telegram.PollTimeout
	if cfg.Telegram.PollLimit > 0 {
		pollerConfig.Limit = cfg.Telegram.PollLimit
	}
	pollerConfig.DedupeTTL = cfg.Redis.UpdateDedupeTTL
	poller := telegram.NewPoller(tgClient, gameManager, chatRepo, cacheRepo, pollerConfig, appMetrics, log)

	pollerDone := make(chan struct{})
	go func() {
		defer close(pollerDone)
		if err := poller.Run(ctx); err != nil {
			log.WithError(err).Error("[Main] Poller stopped with error")
			cancel()
		}
	}()

	// Админский API
	httpServer := newHTTPServer(cfg, db, redisClient, registry, appMetrics, feedHub, log, handlerServices{
		games:     service.NewGameService(gameRepo, participantRepo, userRepo, log),
		users:     service.NewUserService(userRepo, log),
		questions: service.NewQuestionService(questionRepo, log),
	})
	go func() {
		log.Infof("[Main] Starting server on port %s", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("[Main] Failed to start server")
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	log.Info("[Main] Shutting down...")

	// Сначала перестаем принимать обновления, затем останавливаем движок
	cancel()
	<-pollerDone
	gameManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("[Main] Server forced to shutdown")
	}
	feedHub.Close()

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.WithError(err).Warn("[Main] Error closing Redis client")
		}
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	log.Info("[Main] Exited properly")
}

type handlerServices struct {
	games     *service.GameService
	users     *service.UserService
	questions *service.QuestionService
}

func newHTTPServer(
	cfg *config.Config,
	db *gorm.DB,
	redisClient redis.UniversalClient,
	registry *prometheus.Registry,
	appMetrics *metrics.Metrics,
	feedHub *ws.Hub,
	log *logrus.Entry,
	services handlerServices,
) *http.Server {
	jwtService, err := auth.NewJWTService(cfg.Admin.JWTSecret, time.Duration(cfg.Admin.TokenTTLHours)*time.Hour)
	if err != nil {
		log.WithError(err).Fatal("[Main] Failed to initialize JWTService")
	}
	if cfg.Admin.Username == "" || cfg.Admin.PasswordHash == "" {
		log.Warn("[Main] Учетные данные администратора не заданы, вход в админку недоступен")
	}
	authService := service.NewAuthService(cfg.Admin.Username, cfg.Admin.PasswordHash, jwtService, log)

	checks := map[string]handler.HealthCheck{
		"postgres": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}

	routerConfig := handler.RouterConfig{
		Release:     !cfg.IsDebug(),
		CORSOrigins: cfg.Server.CORSOrigins,
		Auth:        middleware.NewAuthMiddleware(jwtService),
		LoginLimit:  middleware.LoginRateLimitConfig(cfg.Redis.KeyPrefix),
		Metrics:     appMetrics,
		Gatherer:    registry,
		Log:         log,
	}
	if redisClient != nil {
		routerConfig.RateLimiter = middleware.NewRateLimiter(redisClient, log)
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	router := handler.NewRouter(routerConfig, handler.Handlers{
		Auth:      handler.NewAuthHandler(authService, log),
		Games:     handler.NewGameHandler(services.games, log),
		Users:     handler.NewUserHandler(services.users, log),
		Questions: handler.NewQuestionHandler(services.questions, log),
		WS:        handler.NewWSHandler(feedHub, cfg.Server.CORSOrigins, log),
		Health:    handler.NewHealthHandler(checks),
	})

	// Тайм-ауты защищают от slow client attacks
	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}
}
