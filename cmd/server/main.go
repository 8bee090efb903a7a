package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"fxtrado/internal/api"
	"fxtrado/internal/config"
	"fxtrado/internal/engine"
	"fxtrado/internal/feed"
	"fxtrado/internal/repository"
	"fxtrado/internal/service"
	"fxtrado/internal/websocket"
	"fxtrado/pkg/utils"
)

func main() {
	// .env опционален: в контейнере конфигурация приходит из окружения
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("Failed to load .env file: %v", err)
	}

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логирования
	logger, err := utils.InitLogger(utils.LogConfig{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer logger.Sync()

	// Инициализация базы данных
	db, err := initDatabase(cfg)
	if err != nil {
		logger.Fatalw("failed to connect to database",
			"error", err, "dsn", cfg.Database.DSNWithoutPassword())
	}
	defer db.Close()

	logger.Infow("connected to database", "dsn", cfg.Database.DSNWithoutPassword())

	// Инициализация репозиториев
	tickRepo := repository.NewTickRepository(db)
	candleRepo := repository.NewCandleRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	walletRepo := repository.NewWalletRepository(db)
	sequenceRepo := repository.NewSequenceRepository(db)

	// Общий сигнал остановки периодических задач
	shutdown := make(chan struct{})

	// Справочник ценовых групп: первый снапшот строится до старта
	// остальных задач, чтобы движки не работали с пустым справочником
	directory := engine.NewGroupDirectory(groupRepo, cfg.Engine.DirectoryRefresh, logger)
	if err := directory.Refresh(); err != nil {
		logger.Warnw("initial pricing group refresh failed, starting with empty directory", "error", err)
	}
	go directory.Run(shutdown)

	// Движок свечей
	candleEngine := engine.NewCandleEngine(tickRepo, candleRepo, directory, cfg.Engine.CandleUpdate, logger)
	go candleEngine.Run(shutdown)

	// Mark-to-market и ликвидации
	marginEngine := engine.NewMarginEngine(db, orderRepo, walletRepo, tickRepo, directory, logger)
	go marginEngine.Run(cfg.Engine.MarginCycle, shutdown)

	// Поллер котировок: без BaseURL/APIKey запускается только ядро
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Feed.BaseURL != "" && cfg.Feed.APIKey != "" {
		pairs, err := feed.ParsePairs(cfg.Feed.Symbols)
		if err != nil {
			logger.Fatalw("failed to parse FEED_SYMBOLS", "error", err, "symbols", cfg.Feed.Symbols)
		}
		client := feed.NewClient(cfg.Feed.BaseURL, cfg.Feed.APIKey, cfg.Feed.HTTPTimeout)
		poller := feed.NewPoller(client, tickRepo, pairs, cfg.Feed.RatePerSec, cfg.Feed.PollInterval, logger)
		go poller.Run(ctx)
		logger.Infow("quote poller started",
			"pairs", len(pairs), "interval", cfg.Feed.PollInterval.String())
	} else {
		logger.Warnw("FEED_BASE_URL or FEED_API_KEY not set, quote poller disabled")
	}

	// WebSocket hub и рассыльщик котировок
	hub := websocket.NewHub()
	go hub.Run()

	broadcaster := websocket.NewBroadcaster(hub, tickRepo, candleRepo, directory, cfg.Engine.BroadcastInterval, logger)
	go broadcaster.Run(shutdown)

	// Торговый сервис
	orderService := service.NewOrderService(db, orderRepo, walletRepo, tickRepo, sequenceRepo, directory, logger)

	// Настройка зависимостей для API
	deps := &api.Dependencies{
		OrderService: orderService,
		Candles:      candleRepo,
		Ticks:        tickRepo,
		Wallets:      walletRepo,
		Hub:          hub,
	}

	// Настройка HTTP роутера
	router := api.SetupRoutes(deps)

	// HTTP сервер
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Запуск сервера в отдельной горутине
	go func() {
		logger.Infow("starting server", "addr", server.Addr)
		if cfg.Server.UseHTTPS {
			if err := server.ListenAndServeTLS(cfg.Server.CertFile, cfg.Server.KeyFile); err != nil && err != http.ErrServerClosed {
				logger.Fatalw("server failed", "error", err)
			}
		} else {
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Fatalw("server failed", "error", err)
			}
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infow("shutting down server")

	// Останавливаем поллер и периодические задачи, затем hub
	cancel()
	close(shutdown)
	hub.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Fatalw("server forced to shutdown", "error", err)
	}

	logger.Infow("server exited")
}

// initDatabase создает подключение к базе данных.
// Пинг повторяется с экспоненциальной задержкой: при старте в
// docker-compose база может подниматься дольше приложения.
func initDatabase(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open(cfg.Database.Driver, cfg.Database.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Настройка пула соединений
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	// Проверка подключения с повторами
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 500 * time.Millisecond
	bo.MaxInterval = 5 * time.Second
	bo.MaxElapsedTime = 30 * time.Second

	ping := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return db.PingContext(ctx)
	}

	notify := func(err error, delay time.Duration) {
		log.Printf("Database not ready, retrying in %s: %v", delay, err)
	}

	if err := backoff.RetryNotify(ping, bo, notify); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}
