package models

import "time"

// Order представляет торговую позицию клиента.
// Позиция открывается шлюзом ордеров и закрывается либо обычным способом,
// либо принудительно движком ликвидации (remark = "margin-call").
type Order struct {
	ID           int        `json:"id" db:"id"`
	OrderID      string     `json:"order_id" db:"order_id"` // человекочитаемый номер из Sequence Allocator
	AccountID    int        `json:"account_id" db:"account_id"`
	Symbol       string     `json:"symbol" db:"symbol"`
	GroupName    string     `json:"group_name" db:"group_name"`
	Side         string     `json:"side" db:"side"` // buy, sell
	OpenPrice    float64    `json:"open_price" db:"open_price"`
	Volume       float64    `json:"volume" db:"volume"`
	Status       string     `json:"status" db:"status"` // open, closed
	Profit       float64    `json:"profit" db:"profit"` // плавающий P/L, обновляется маржин-циклом
	MarketBid    float64    `json:"market_bid" db:"market_bid"`
	MarketAsk    float64    `json:"market_ask" db:"market_ask"`
	ClosePrice   *float64   `json:"close_price,omitempty" db:"close_price"`
	CloseTime    *time.Time `json:"close_time,omitempty" db:"close_time"`
	ClosedProfit *float64   `json:"closed_profit,omitempty" db:"closed_profit"`
	Remark       string     `json:"remark,omitempty" db:"remark"`
	OpenTime     time.Time  `json:"open_time" db:"open_time"`
}

// Статусы позиции. Оба перехода терминальны: повторное открытие невозможно.
const (
	OrderStatusOpen   = "open"
	OrderStatusClosed = "closed"
)

// Стороны позиции
const (
	OrderSideBuy  = "buy"
	OrderSideSell = "sell"
)

// RemarkMarginCall - пометка принудительно закрытой позиции
const RemarkMarginCall = "margin-call"

// ProfitUpdate - результат переоценки одной позиции маржин-циклом.
// Применяется батчем, семантика идентична построчным UPDATE.
type ProfitUpdate struct {
	ID        int
	Profit    float64
	MarketBid float64
	MarketAsk float64
}
