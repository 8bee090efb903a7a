package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ============================================================
// Prometheus метрики торгового ядра
// ============================================================
//
// Использование:
// - Grafana дашборды для визуализации
// - Alertmanager для уведомлений о проблемах
// - Анализ производительности в production

// ============ Справочник групп ============

// DirectorySymbols - количество символов в опубликованном снапшоте
var DirectorySymbols = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "fxtrado",
		Subsystem: "directory",
		Name:      "symbols",
		Help:      "Number of symbols in the published pricing group snapshot",
	},
)

// DirectoryRefreshErrors - неудачные обновления справочника
var DirectoryRefreshErrors = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "fxtrado",
		Subsystem: "directory",
		Name:      "refresh_errors_total",
		Help:      "Number of failed pricing group snapshot refreshes",
	},
)

// ============ Свечи ============

// CandlesOpened - открытые минутные бакеты
var CandlesOpened = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fxtrado",
		Subsystem: "candle",
		Name:      "buckets_opened_total",
		Help:      "Number of minute buckets opened",
	},
	[]string{"result"}, // inserted, duplicate, error
)

// CandleUpdateLatency - время одного цикла обновления свечей
var CandleUpdateLatency = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "fxtrado",
		Subsystem: "candle",
		Name:      "update_latency_ms",
		Help:      "Time to run one candle update cycle in milliseconds",
		Buckets:   []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
	},
)

// CandleUpdateErrors - неудачные циклы обновления свечей
var CandleUpdateErrors = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "fxtrado",
		Subsystem: "candle",
		Name:      "update_errors_total",
		Help:      "Number of failed candle update cycles",
	},
)

// ============ Переоценка и риск ============

// MarginCycleLatency - время одного цикла переоценки
var MarginCycleLatency = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: "fxtrado",
		Subsystem: "margin",
		Name:      "cycle_latency_ms",
		Help:      "Time to run one mark-to-market cycle in milliseconds",
		Buckets:   []float64{5, 10, 25, 50, 100, 250, 500, 1000, 5000},
	},
)

// MarginCycleErrors - неудачные циклы переоценки
var MarginCycleErrors = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "fxtrado",
		Subsystem: "margin",
		Name:      "cycle_errors_total",
		Help:      "Number of failed mark-to-market cycles",
	},
)

// OpenPositions - текущее количество открытых позиций
var OpenPositions = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "fxtrado",
		Subsystem: "margin",
		Name:      "open_positions",
		Help:      "Current number of open positions",
	},
)

// LiquidationsTotal - принудительные ликвидации по результату
var LiquidationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fxtrado",
		Subsystem: "margin",
		Name:      "liquidations_total",
		Help:      "Number of forced liquidations",
	},
	[]string{"result"}, // success, failed
)

// ============ Ордера ============

// OrdersTotal - количество ордеров по операции и результату
var OrdersTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fxtrado",
		Subsystem: "orders",
		Name:      "total",
		Help:      "Total number of order operations",
	},
	[]string{"operation", "result"}, // operation: open, close; result: success, failed
)

// ============ Фид котировок ============

// FeedTicksTotal - полученные тики по символам
var FeedTicksTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "fxtrado",
		Subsystem: "feed",
		Name:      "ticks_total",
		Help:      "Number of ticks received from the upstream feed",
	},
	[]string{"symbol"},
)

// FeedPollErrors - неудачные опросы фида
var FeedPollErrors = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "fxtrado",
		Subsystem: "feed",
		Name:      "poll_errors_total",
		Help:      "Number of failed feed poll requests",
	},
)

// ============ WebSocket ============

// WebsocketClients - текущее количество подключенных клиентов
var WebsocketClients = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: "fxtrado",
		Subsystem: "websocket",
		Name:      "clients",
		Help:      "Current number of connected websocket clients",
	},
)

// WebsocketDropped - сообщения, отброшенные из-за переполнения буфера клиента
var WebsocketDropped = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: "fxtrado",
		Subsystem: "websocket",
		Name:      "dropped_messages_total",
		Help:      "Number of messages dropped due to slow websocket clients",
	},
)

// ============ Вспомогательные функции ============

// RecordCandleOpen записывает результат открытия бакета
func RecordCandleOpen(inserted bool) {
	if inserted {
		CandlesOpened.WithLabelValues("inserted").Inc()
	} else {
		CandlesOpened.WithLabelValues("duplicate").Inc()
	}
}

// RecordLiquidation записывает результат принудительной ликвидации
func RecordLiquidation(success bool) {
	result := "failed"
	if success {
		result = "success"
	}
	LiquidationsTotal.WithLabelValues(result).Inc()
}

// RecordOrder записывает результат операции с ордером
func RecordOrder(operation string, err error) {
	result := "success"
	if err != nil {
		result = "failed"
	}
	OrdersTotal.WithLabelValues(operation, result).Inc()
}
