package service

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"fxtrado/internal/engine"
	"fxtrado/internal/models"
	"fxtrado/internal/repository"
)

// Ошибки шлюза ордеров
var (
	ErrOrderSymbolEmpty   = errors.New("symbol cannot be empty")
	ErrOrderInvalidSide   = errors.New("side must be buy or sell")
	ErrOrderInvalidVolume = errors.New("volume must be positive")
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderAlreadyClosed = errors.New("order already closed")
	ErrNoMarketPrice      = errors.New("no market price for symbol")
)

// OpenOrderRequest - запрос на открытие позиции
type OpenOrderRequest struct {
	AccountID int     `json:"account_id"`
	Symbol    string  `json:"symbol"`
	GroupName string  `json:"group_name"`
	Side      string  `json:"side"`
	Volume    float64 `json:"volume"`
}

// OrderService - шлюз ордеров.
//
// Отвечает за:
// - Открытие позиций по текущей групповой цене (ask для buy, bid для sell)
// - Выделение человекочитаемого номера ордера в той же транзакции,
//   что и вставка: номер без ордера или ордер без номера невозможны
// - Обычное закрытие с зачислением реализованного профита на кошелёк
//
// Закрытие безопасно гоняется с принудительной ликвидацией: проигравший
// получает ErrOrderAlreadyClosed и откатывается.
type OrderService struct {
	db        *sql.DB
	orders    *repository.OrderRepository
	wallets   *repository.WalletRepository
	ticks     *repository.TickRepository
	sequences *repository.SequenceRepository
	directory engine.SnapshotProvider
	log       *zap.SugaredLogger
}

// NewOrderService создает новый экземпляр OrderService.
func NewOrderService(
	db *sql.DB,
	orders *repository.OrderRepository,
	wallets *repository.WalletRepository,
	ticks *repository.TickRepository,
	sequences *repository.SequenceRepository,
	directory engine.SnapshotProvider,
	log *zap.SugaredLogger,
) *OrderService {
	return &OrderService{
		db:        db,
		orders:    orders,
		wallets:   wallets,
		ticks:     ticks,
		sequences: sequences,
		directory: directory,
		log:       log,
	}
}

// Open открывает позицию по текущей групповой цене.
//
// Цена открытия: скорректированный ask для buy, скорректированный bid
// для sell. Номер ордера выделяется аллокатором в той же транзакции,
// что и вставка; ошибка выделения роняет открытие целиком.
//
// Возвращает:
// - *models.Order: открытая позиция с заполненными id и order_id
// - error: ошибки валидации, ErrNoMarketPrice если по символу нет котировок
func (s *OrderService) Open(req OpenOrderRequest) (*models.Order, error) {
	order, err := s.open(req)
	engine.RecordOrder("open", err)
	return order, err
}

func (s *OrderService) open(req OpenOrderRequest) (*models.Order, error) {
	symbol := strings.ToUpper(strings.TrimSpace(req.Symbol))
	if symbol == "" {
		return nil, ErrOrderSymbolEmpty
	}
	if req.Side != models.OrderSideBuy && req.Side != models.OrderSideSell {
		return nil, ErrOrderInvalidSide
	}
	if req.Volume <= 0 {
		return nil, ErrOrderInvalidVolume
	}

	tick, err := s.ticks.Latest(symbol)
	if err != nil {
		if errors.Is(err, repository.ErrTickNotFound) {
			return nil, ErrNoMarketPrice
		}
		return nil, err
	}

	spread, _ := s.directory.Snapshot().Lookup(symbol, req.GroupName)
	adjBid := engine.AdjustPrice(tick.Bid, spread, tick.Digits)
	adjAsk := engine.AdjustPrice(tick.Ask, spread, tick.Digits)

	openPrice := adjAsk
	if req.Side == models.OrderSideSell {
		openPrice = adjBid
	}

	order := &models.Order{
		AccountID: req.AccountID,
		Symbol:    symbol,
		GroupName: req.GroupName,
		Side:      req.Side,
		OpenPrice: openPrice,
		Volume:    req.Volume,
		Status:    models.OrderStatusOpen,
		MarketBid: adjBid,
		MarketAsk: adjAsk,
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin open: %w", err)
	}

	orderID, err := s.sequences.AllocateTx(tx, models.SequenceOrderOpened)
	if err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("allocate order id: %w", err)
	}
	order.OrderID = orderID

	if err := s.orders.CreateTx(tx, order); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("insert order: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit open: %w", err)
	}

	s.log.Infow("order opened",
		"order_id", order.OrderID,
		"account_id", order.AccountID,
		"symbol", order.Symbol,
		"side", order.Side,
		"open_price", order.OpenPrice,
		"volume", order.Volume,
	)
	return order, nil
}

// Close закрывает позицию обычным способом.
//
// Цена закрытия: скорректированный bid для buy, скорректированный ask
// для sell. Реализованный профит зачисляется на кошелёк аккаунта в той
// же транзакции, что и закрытие.
//
// Возвращает:
// - *models.Order: закрытая позиция с заполненными close_price,
//   closed_profit, close_time
// - error: ErrOrderNotFound, ErrOrderAlreadyClosed (в т.ч. проигранная
//   гонка с ликвидацией), ErrNoMarketPrice
func (s *OrderService) Close(orderID string) (*models.Order, error) {
	order, err := s.close(orderID)
	engine.RecordOrder("close", err)
	return order, err
}

func (s *OrderService) close(orderID string) (*models.Order, error) {
	order, err := s.orders.GetByOrderID(orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.Status == models.OrderStatusClosed {
		return nil, ErrOrderAlreadyClosed
	}

	tick, err := s.ticks.Latest(order.Symbol)
	if err != nil {
		if errors.Is(err, repository.ErrTickNotFound) {
			return nil, ErrNoMarketPrice
		}
		return nil, err
	}

	spread, _ := s.directory.Snapshot().Lookup(order.Symbol, order.GroupName)
	adjBid := engine.AdjustPrice(tick.Bid, spread, tick.Digits)
	adjAsk := engine.AdjustPrice(tick.Ask, spread, tick.Digits)

	closePrice := adjBid
	if order.Side == models.OrderSideSell {
		closePrice = adjAsk
	}
	profit := engine.FloatingProfit(order.Side, order.OpenPrice, adjBid, adjAsk, order.Volume, tick.Digits)
	closeTime := time.Now().UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin close: %w", err)
	}

	if err := s.orders.Close(tx, order.ID, closePrice, profit, closeTime); err != nil {
		tx.Rollback()
		if errors.Is(err, repository.ErrOrderNotFound) {
			// Позицию успела закрыть ликвидация
			return nil, ErrOrderAlreadyClosed
		}
		return nil, fmt.Errorf("close order: %w", err)
	}

	if err := s.wallets.CreditTx(tx, order.AccountID, profit); err != nil {
		tx.Rollback()
		return nil, fmt.Errorf("credit wallet: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit close: %w", err)
	}

	order.Status = models.OrderStatusClosed
	order.ClosePrice = &closePrice
	order.ClosedProfit = &profit
	order.CloseTime = &closeTime

	s.log.Infow("order closed",
		"order_id", order.OrderID,
		"account_id", order.AccountID,
		"close_price", closePrice,
		"profit", profit,
	)
	return order, nil
}

// GetByAccount возвращает последние ордера аккаунта (новые сверху)
func (s *OrderService) GetByAccount(accountID, limit int) ([]*models.Order, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return s.orders.GetByAccount(accountID, limit)
}

// Get возвращает ордер по человекочитаемому номеру
func (s *OrderService) Get(orderID string) (*models.Order, error) {
	order, err := s.orders.GetByOrderID(orderID)
	if errors.Is(err, repository.ErrOrderNotFound) {
		return nil, ErrOrderNotFound
	}
	return order, err
}
