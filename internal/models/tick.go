package models

import "time"

// Tick представляет одну котировку из лент поставщиков цен.
// Записи в таблице ticks append-only: ядро только читает поток,
// запись ведёт фид котировок.
type Tick struct {
	ID     int64     `json:"id" db:"id"`
	Symbol string    `json:"symbol" db:"symbol"`
	Bid    float64   `json:"bid" db:"bid"`
	Ask    float64   `json:"ask" db:"ask"`
	Digits int       `json:"digits" db:"digits"` // точность цены (знаков после запятой)
	Date   time.Time `json:"date" db:"date"`
	Remark string    `json:"remark,omitempty" db:"remark"` // источник котировки
}
