package handlers

import (
	"errors"
	"time"

	"fxtrado/internal/models"
	"fxtrado/internal/repository"
	"fxtrado/internal/service"
)

// ErrMockDatabase - имитация ошибки хранилища
var ErrMockDatabase = errors.New("database unavailable")

// ============ Мок шлюза ордеров ============

type mockOrderGateway struct {
	orders map[string]*models.Order
	err    error
}

func newMockOrderGateway() *mockOrderGateway {
	return &mockOrderGateway{orders: make(map[string]*models.Order)}
}

func (m *mockOrderGateway) Open(req service.OpenOrderRequest) (*models.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	if req.Symbol == "" {
		return nil, service.ErrOrderSymbolEmpty
	}
	if req.Side != models.OrderSideBuy && req.Side != models.OrderSideSell {
		return nil, service.ErrOrderInvalidSide
	}
	if req.Volume <= 0 {
		return nil, service.ErrOrderInvalidVolume
	}

	order := &models.Order{
		ID:        len(m.orders) + 1,
		OrderID:   "0000042",
		AccountID: req.AccountID,
		Symbol:    req.Symbol,
		GroupName: req.GroupName,
		Side:      req.Side,
		OpenPrice: 1.08030,
		Volume:    req.Volume,
		Status:    models.OrderStatusOpen,
		OpenTime:  time.Now().UTC(),
	}
	m.orders[order.OrderID] = order
	return order, nil
}

func (m *mockOrderGateway) Close(orderID string) (*models.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	order, ok := m.orders[orderID]
	if !ok {
		return nil, service.ErrOrderNotFound
	}
	if order.Status == models.OrderStatusClosed {
		return nil, service.ErrOrderAlreadyClosed
	}
	order.Status = models.OrderStatusClosed
	return order, nil
}

func (m *mockOrderGateway) Get(orderID string) (*models.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	order, ok := m.orders[orderID]
	if !ok {
		return nil, service.ErrOrderNotFound
	}
	return order, nil
}

func (m *mockOrderGateway) GetByAccount(accountID, limit int) ([]*models.Order, error) {
	if m.err != nil {
		return nil, m.err
	}
	var result []*models.Order
	for _, order := range m.orders {
		if order.AccountID == accountID {
			result = append(result, order)
		}
	}
	return result, nil
}

// ============ Мок читателя свечей ============

type mockCandleReader struct {
	candles []*models.Candle
	err     error
}

func (m *mockCandleReader) GetRecent(symbol, groupName string, limit int) ([]*models.Candle, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.candles, nil
}

func (m *mockCandleReader) GetRange(symbol, groupName string, from, to time.Time) ([]*models.Candle, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.candles, nil
}

// ============ Мок читателя тиков ============

type mockTickReader struct {
	ticks map[string]*models.Tick
	err   error
}

func (m *mockTickReader) LatestBySymbols(symbols []string) (map[string]*models.Tick, error) {
	if m.err != nil {
		return nil, m.err
	}
	result := make(map[string]*models.Tick)
	for _, s := range symbols {
		if tick, ok := m.ticks[s]; ok {
			result[s] = tick
		}
	}
	return result, nil
}

// ============ Мок читателя кошельков ============

type mockWalletReader struct {
	wallets map[int]*models.Wallet
	err     error
}

func (m *mockWalletReader) GetByAccount(accountID int) (*models.Wallet, error) {
	if m.err != nil {
		return nil, m.err
	}
	wallet, ok := m.wallets[accountID]
	if !ok {
		return nil, repository.ErrWalletNotFound
	}
	return wallet, nil
}
