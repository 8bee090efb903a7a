package models

import "time"

// Candle представляет минутную OHLC свечу для пары (символ, группа).
// Уникальный ключ: (symbol, group_name, bucket_start).
//
// Инварианты:
// - low <= open, close, high <= high на протяжении всей жизни бакета
// - high монотонно не убывает, low монотонно не возрастает внутри бакета
type Candle struct {
	Symbol          string    `json:"symbol" db:"symbol"`
	GroupName       string    `json:"group_name" db:"group_name"`
	BucketStart     time.Time `json:"bucket_start" db:"bucket_start"` // начало минуты, секунды = 0
	Open            float64   `json:"open" db:"open"`
	High            float64   `json:"high" db:"high"`
	Low             float64   `json:"low" db:"low"`
	Close           float64   `json:"close" db:"close"`
	LocalInsertTime time.Time `json:"local_insert_time" db:"local_insert_time"`
}

// CandleUpdate - дельта для слияния с существующей свечой.
// High/Low сливаются через GREATEST/LEAST, Close перезаписывается.
type CandleUpdate struct {
	Symbol      string
	GroupName   string
	BucketStart time.Time
	High        float64
	Low         float64
	Close       float64
}
