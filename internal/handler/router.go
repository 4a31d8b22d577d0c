package handler

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/glushul/SmartGuysSmartGirls/internal/middleware"
	"github.com/glushul/SmartGuysSmartGirls/internal/pkg/metrics"
)

// Handlers собирает обработчики админского API
type Handlers struct {
	Auth      *AuthHandler
	Games     *GameHandler
	Users     *UserHandler
	Questions *QuestionHandler
	WS        *WSHandler
	Health    *HealthHandler
}

// RouterConfig содержит зависимости маршрутизатора
type RouterConfig struct {
	Release     bool
	CORSOrigins []string
	Auth        *middleware.AuthMiddleware
	// RateLimiter может быть nil: тогда вход не ограничивается
	RateLimiter *middleware.RateLimiter
	LoginLimit  middleware.RateLimitConfig
	Metrics     *metrics.Metrics
	Gatherer    prometheus.Gatherer
	Log         *logrus.Entry
}

// NewRouter настраивает маршруты админского API
func NewRouter(cfg RouterConfig, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if !cfg.Release {
		router.Use(gin.Logger())
	}

	// В production не доверяем прокси-заголовкам, в разработке доверяем localhost
	trusted := []string{"127.0.0.1", "::1"}
	if cfg.Release {
		trusted = nil
	}
	if err := router.SetTrustedProxies(trusted); err != nil {
		cfg.Log.WithError(err).Warn("[Router] Не удалось настроить доверенные прокси")
	}

	if len(cfg.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.GinMiddleware())
	}

	router.GET("/health", h.Health.Health)
	if cfg.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{})))
	}

	api := router.Group("/api")
	{
		login := []gin.HandlerFunc{h.Auth.Login}
		if cfg.RateLimiter != nil {
			login = append([]gin.HandlerFunc{cfg.RateLimiter.Limit(cfg.LoginLimit)}, login...)
		}
		api.POST("/auth/login", login...)

		authed := api.Group("")
		authed.Use(cfg.Auth.RequireAuth())
		{
			authed.GET("/games", h.Games.ListGames)
			authed.GET("/games/:id/participants",
				middleware.ExtractUintParam("id", ContextKeyGameID), h.Games.ListParticipants)

			authed.GET("/leaderboard", h.Users.GetLeaderboard)
			authed.GET("/leaderboard/export", h.Users.ExportLeaderboard)

			authed.GET("/themes", h.Questions.ListThemes)
			authed.POST("/themes", h.Questions.CreateTheme)
			authed.POST("/questions", h.Questions.CreateQuestions)
		}
	}

	router.GET("/ws/games/:chat_id", cfg.Auth.RequireAuthOrQuery(),
		middleware.ExtractChatIDParam("chat_id", ContextKeyChatID), h.WS.HandleFeed)

	return router
}
