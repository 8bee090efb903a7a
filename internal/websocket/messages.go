package websocket

import (
	"time"

	"fxtrado/internal/models"
)

// Типизированные сообщения: без map[string]interface{} и рефлексии
// на горячем пути рассылки.

// GroupQuote - скорректированная котировка одной ценовой группы
type GroupQuote struct {
	GroupName string  `json:"group_name"`
	Bid       float64 `json:"bid"`
	Ask       float64 `json:"ask"`
}

// QuoteMessage - сообщение с котировкой символа.
// Quotes содержит скорректированные цены каждой активной группы.
type QuoteMessage struct {
	Type   string       `json:"type"` // "quote"
	Symbol string       `json:"symbol"`
	Bid    float64      `json:"bid"` // сырой bid
	Ask    float64      `json:"ask"` // сырой ask
	Date   time.Time    `json:"date"`
	Quotes []GroupQuote `json:"quotes"`
}

// CandleMessage - сообщение со свечой текущего минутного бакета
type CandleMessage struct {
	Type   string         `json:"type"` // "candle"
	Candle *models.Candle `json:"candle"`
}

// NewQuoteMessage создает сообщение котировки
func NewQuoteMessage(symbol string, bid, ask float64, date time.Time, quotes []GroupQuote) *QuoteMessage {
	return &QuoteMessage{
		Type:   "quote",
		Symbol: symbol,
		Bid:    bid,
		Ask:    ask,
		Date:   date,
		Quotes: quotes,
	}
}

// NewCandleMessage создает сообщение свечи
func NewCandleMessage(candle *models.Candle) *CandleMessage {
	return &CandleMessage{
		Type:   "candle",
		Candle: candle,
	}
}
