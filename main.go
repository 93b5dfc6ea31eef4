package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"parkease/internal/ai"
	"parkease/internal/api"
	"parkease/internal/api/handler"
	"parkease/internal/api/middleware"
	"parkease/internal/config"
	"parkease/internal/domain"
	"parkease/internal/logging"
	"parkease/internal/metrics"
	"parkease/internal/nlp"
	"parkease/internal/notify"
	"parkease/internal/repository/postgresql"
	"parkease/internal/service"

	"github.com/rs/zerolog/log"
)

func main() {
	// 1. Load Configuration
	cfg := config.Load()
	logging.Setup(cfg.LogLevel, cfg.LogFormat)
	log.Info().Msg("Cấu hình đã được tải.")

	metrics.Register()

	// 2. Setup Database Connection
	db, err := postgresql.NewDB(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Không thể kết nối database")
	}
	defer db.Close()
	log.Info().Msg("Đã kết nối database thành công!")

	// 3. Initialize Repositories
	userRepo := postgresql.NewPgUserRepository(db)
	parkingLotRepo := postgresql.NewPgParkingLotRepository(db)
	parkingSpotRepo := postgresql.NewPgParkingSpotRepository(db)
	bookingRepo := postgresql.NewPgBookingRepository(db)

	// 4. Khởi tạo Notifier: Redis nếu có địa chỉ, không thì no-op.
	var notifier notify.Notifier = notify.Noop{}
	var redisNotifier *notify.RedisNotifier
	if cfg.RedisAddr != "" {
		redisClient := notify.NewRedisClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		redisNotifier = notify.NewRedisNotifier(redisClient, cfg.EventsChannel)
		notifier = redisNotifier
		log.Info().Str("addr", cfg.RedisAddr).Str("channel", cfg.EventsChannel).Msg("Đã kết nối Redis notifier")
	} else {
		log.Warn().Msg("REDIS_ADDR chưa được cấu hình. Thông báo real-time sẽ không phát ra ngoài process.")
	}

	// 5. Khởi tạo AI Predictor: best-effort, thiếu URL thì no-op.
	var predictor ai.Predictor = ai.Noop{}
	if cfg.AIServiceURL != "" {
		predictor = ai.NewHTTPPredictor(cfg.AIServiceURL, cfg.AITimeout)
		log.Info().Str("url", cfg.AIServiceURL).Msg("Đã cấu hình AI predictor")
	} else {
		log.Warn().Msg("AI_SERVICE_URL chưa được cấu hình. Tính năng dự đoán sẽ tắt.")
	}

	// init websocket manager
	webSocketManager := handler.NewWebSocketManager()
	go webSocketManager.Start()
	log.Info().Msg("WebSocket Manager đã được khởi động.")

	// 6. Initialize Services
	authService := service.NewAuthService(userRepo, cfg.JWTSecret, cfg.JWTExpirationHours)
	if err := authService.EnsureDemoAccounts(context.Background(), cfg.DemoPassword); err != nil {
		log.Fatal().Err(err).Msg("Không seed được tài khoản demo")
	}
	parkingService := service.NewParkingService(parkingLotRepo, parkingSpotRepo, bookingRepo, predictor)
	bookingService := service.NewBookingService(bookingRepo, parkingSpotRepo, parkingLotRepo, notifier)
	searchService := service.NewSearchService(parkingLotRepo, nlp.NewMatcher(cfg.SearchMinScore))

	// 7. Initialize Auth Middleware
	authMiddleware := middleware.NewAuthMiddleware(authService)

	// 8. Bridge Redis events vào websocket broadcast. Chạy trong process
	// nào cũng nhận được event từ mọi instance khác.
	subscribeCtx, cancelSubscribe := context.WithCancel(context.Background())
	defer cancelSubscribe()
	if redisNotifier != nil {
		go func() {
			err := redisNotifier.Subscribe(subscribeCtx, func(event domain.SpotStatusEvent) {
				webSocketManager.BroadcastSpotEvent(event)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				log.Error().Err(err).Msg("Redis subscriber đã dừng vì lỗi")
			}
		}()
	}

	// 9. Setup HTTP Router
	router := api.SetupRouter(authService, parkingService, bookingService, searchService, authMiddleware, webSocketManager)

	// 10. Start HTTP Server
	srv := &http.Server{
		Addr:    ":" + cfg.ServerPort,
		Handler: router,
	}

	go func() {
		log.Info().Str("port", cfg.ServerPort).Msg("Server đang chạy")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Lỗi ListenAndServe()")
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Đang tắt server...")

	cancelSubscribe()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server buộc phải tắt")
	}

	log.Info().Msg("Server đã tắt.")
}
