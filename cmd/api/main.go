package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/api"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/api/handler"
	apimiddleware "github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/api/middleware"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/application"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/config"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/infrastructure/postgres"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/infrastructure/queue"
	redisinfra "github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/infrastructure/redis"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/pkg/logger"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/pkg/metrics"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/qrcode"
	"github.com/nishantr19/Event-Management-and-Ticket-Booking-Platform-Backend/internal/worker"
)

func main() {
	cfg := config.Load()

	// ロガー初期化
	logger.Set(logger.NewLogger(cfg.Server.Env))
	defer func() { _ = logger.Sync() }()

	// メトリクス初期化
	m := metrics.Init()

	// PostgreSQL接続
	db, err := postgres.NewConnection(&cfg.Database)
	if err != nil {
		logger.Fatal("データベース接続に失敗しました", zap.Error(err))
	}
	defer db.Close()

	// マイグレーション実行
	if err := postgres.RunMigrations(db.DB, "migrations"); err != nil {
		logger.Fatal("マイグレーションに失敗しました", zap.Error(err))
	}

	// Redis接続（失敗してもキャッシュなしで起動する）
	var cache application.AvailabilityCache
	redisClient := redisinfra.NewClient(&cfg.Redis)
	if err := redisinfra.Ping(context.Background(), redisClient); err != nil {
		logger.Warn("Redis接続に失敗したためキャッシュなしで起動します", zap.Error(err))
	} else {
		cache = redisinfra.NewAvailabilityCache(redisClient)
		defer redisClient.Close()
	}

	// RabbitMQ接続（URL未設定なら無効）
	var publisher application.BookingEventPublisher
	if cfg.Queue.Enabled() {
		pub, err := queue.NewPublisher(cfg.Queue.AMQPURL)
		if err != nil {
			logger.Warn("RabbitMQ接続に失敗したためイベント配信なしで起動します", zap.Error(err))
		} else {
			publisher = pub
			defer pub.Close()
		}
	}

	// リポジトリ
	txManager := postgres.NewTxManager(db)
	eventRepo := postgres.NewEventRepository(db, cfg.Booking.LockTimeout)
	bookingRepo := postgres.NewBookingRepository(db)
	userRepo := postgres.NewUserRepository(db)

	// サービス
	authService := application.NewAuthService(userRepo, cfg.JWT)
	eventService := application.NewEventService(txManager, eventRepo, cache)
	bookingService := application.NewBookingService(
		txManager, bookingRepo, eventRepo, userRepo,
		qrcode.NewGenerator(), cache, publisher,
		cfg.Booking.MaxReferenceRetries,
	)

	// 初期管理者アカウント
	if err := authService.EnsureAdminUser(context.Background(), cfg.Admin); err != nil {
		logger.Error("初期管理者アカウントの作成に失敗しました", zap.Error(err))
	}

	// QRコード補完ワーカー
	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()
	backfillWorker := worker.NewQRBackfillWorker(bookingService, cfg.Booking.QRBackfillInterval)
	go backfillWorker.Start(workerCtx)

	// Echoセットアップ
	e := echo.New()
	e.HideBanner = true
	e.Validator = api.NewValidator()
	e.HTTPErrorHandler = api.CustomHTTPErrorHandler
	e.Server.ReadTimeout = cfg.Server.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.WriteTimeout

	apimiddleware.SetupMiddleware(e)
	e.Use(apimiddleware.PrometheusMiddleware(m))

	// ハンドラー
	authHandler := handler.NewAuthHandler(authService)
	eventHandler := handler.NewEventHandler(eventService)
	bookingHandler := handler.NewBookingHandler(bookingService)
	healthHandler := handler.NewHealthHandler()

	jwtAuth := apimiddleware.JWTAuth([]byte(cfg.JWT.Secret))
	requireAdmin := apimiddleware.RequireAdmin()

	// ルーティング
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()), apimiddleware.MetricsBasicAuth())

	v1 := e.Group("/api/v1")
	v1.GET("/health", healthHandler.Check)

	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.GET("/me", authHandler.Me, jwtAuth)

	events := v1.Group("/events")
	events.GET("", eventHandler.List)
	events.GET("/upcoming", eventHandler.ListUpcoming)
	events.GET("/available", eventHandler.ListAvailable)
	events.GET("/search", eventHandler.Search)
	events.GET("/category/:category", eventHandler.ListByCategory)
	events.GET("/city/:city", eventHandler.ListByCity)
	events.GET("/:id", eventHandler.GetByID)
	events.GET("/:id/availability", eventHandler.GetAvailability)
	events.POST("", eventHandler.Create, jwtAuth, requireAdmin)
	events.PUT("/:id", eventHandler.Update, jwtAuth, requireAdmin)
	events.DELETE("/:id", eventHandler.Delete, jwtAuth, requireAdmin)

	bookings := v1.Group("/bookings", jwtAuth)
	bookings.POST("", bookingHandler.Create)
	bookings.GET("/my", bookingHandler.ListMine)
	bookings.GET("/:id", bookingHandler.GetByID)
	bookings.GET("/:id/qr", bookingHandler.GetQR)
	bookings.GET("/reference/:reference", bookingHandler.GetByReference)
	bookings.PUT("/:id/cancel", bookingHandler.Cancel)

	// サーバー起動
	go func() {
		addr := ":" + cfg.Server.Port
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal("サーバー起動エラー", zap.Error(err))
		}
	}()

	// シグナル待機
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("サーバーをシャットダウンしています...")

	// ワーカー停止
	workerCancel()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		logger.Fatal("サーバーシャットダウンエラー", zap.Error(err))
	}

	logger.Info("サーバーが正常にシャットダウンしました")
}
