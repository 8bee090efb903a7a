package api

import (
	"net/http"
	"net/http/pprof"

	"fxtrado/internal/api/handlers"
	"fxtrado/internal/api/middleware"
	"fxtrado/internal/repository"
	"fxtrado/internal/service"
	"fxtrado/internal/websocket"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies содержит все зависимости для API handlers
type Dependencies struct {
	OrderService *service.OrderService
	Candles      *repository.CandleRepository
	Ticks        *repository.TickRepository
	Wallets      *repository.WalletRepository
	Hub          *websocket.Hub
}

// SetupRoutes настраивает все HTTP маршруты приложения
//
// Назначение:
// Центральное место для определения всех API endpoints.
// Регистрирует handlers для каждого маршрута.
// Применяет middleware к группам маршрутов.
// Организует версионирование API (v1).
//
// Структура маршрутов:
//
// /api/v1/
//
//	├── /orders/
//	│   ├── POST / - открыть позицию
//	│   ├── GET / - позиции счета (?account_id=, ?limit=)
//	│   ├── GET /{order_id} - получить позицию
//	│   └── POST /{order_id}/close - закрыть позицию
//	├── /candles/
//	│   └── GET / - свечи (?symbol=, ?group=, ?limit= или ?from=/?to=)
//	├── /ticks/
//	│   └── GET /latest - последние котировки (?symbols=)
//	└── /wallets/
//	    └── GET /{account_id} - кошелек счета
//
// /ws/
//
//	└── /stream - WebSocket для real-time котировок и свечей
//
// Служебные:
//
//	├── /healthz - health check
//	├── /metrics - Prometheus метрики
//	└── /debug/pprof/* - профилирование (закрыто DebugAuth)
//
// Middleware применяется в следующем порядке:
// 1. Recovery (для всех маршрутов)
// 2. Logging (для всех маршрутов)
// 3. CORS (для всех маршрутов)
// 4. Auth (только для /api/v1)
func SetupRoutes(deps *Dependencies) *mux.Router {
	router := mux.NewRouter()

	// Глобальные middleware (применяются ко всем маршрутам)
	router.Use(middleware.Recovery)
	router.Use(middleware.Logging)
	router.Use(middleware.CORS)

	// Создание handlers с внедрением зависимостей
	var orderHandler *handlers.OrderHandler
	if deps != nil && deps.OrderService != nil {
		orderHandler = handlers.NewOrderHandler(deps.OrderService)
	}

	var candleHandler *handlers.CandleHandler
	if deps != nil && deps.Candles != nil {
		candleHandler = handlers.NewCandleHandler(deps.Candles)
	}

	var tickHandler *handlers.TickHandler
	if deps != nil && deps.Ticks != nil {
		tickHandler = handlers.NewTickHandler(deps.Ticks)
	}

	var walletHandler *handlers.WalletHandler
	if deps != nil && deps.Wallets != nil {
		walletHandler = handlers.NewWalletHandler(deps.Wallets)
	}

	// API v1 routes
	api := router.PathPrefix("/api/v1").Subrouter()
	api.Use(middleware.Auth)

	// Order routes
	if orderHandler != nil {
		api.HandleFunc("/orders", orderHandler.OpenOrder).Methods("POST")
		api.HandleFunc("/orders", orderHandler.ListOrders).Methods("GET")
		api.HandleFunc("/orders/{order_id}", orderHandler.GetOrder).Methods("GET")
		api.HandleFunc("/orders/{order_id}/close", orderHandler.CloseOrder).Methods("POST")
	}

	// Candle routes
	if candleHandler != nil {
		api.HandleFunc("/candles", candleHandler.GetCandles).Methods("GET")
	}

	// Tick routes
	if tickHandler != nil {
		api.HandleFunc("/ticks/latest", tickHandler.GetLatest).Methods("GET")
	}

	// Wallet routes
	if walletHandler != nil {
		api.HandleFunc("/wallets/{account_id}", walletHandler.GetWallet).Methods("GET")
	}

	// WebSocket route
	if deps != nil && deps.Hub != nil {
		hub := deps.Hub
		router.HandleFunc("/ws/stream", func(w http.ResponseWriter, r *http.Request) {
			websocket.ServeWS(hub, w, r)
		})
	}

	// Health check endpoint
	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")

	// Prometheus метрики
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Debug endpoints (pprof), закрыты Basic auth
	debug := router.PathPrefix("/debug").Subrouter()
	debug.Use(middleware.DebugAuth)
	debug.HandleFunc("/pprof/", pprof.Index)
	debug.HandleFunc("/pprof/cmdline", pprof.Cmdline)
	debug.HandleFunc("/pprof/profile", pprof.Profile)
	debug.HandleFunc("/pprof/symbol", pprof.Symbol)
	debug.HandleFunc("/pprof/trace", pprof.Trace)
	debug.PathPrefix("/pprof/").Handler(http.DefaultServeMux)

	return router
}
