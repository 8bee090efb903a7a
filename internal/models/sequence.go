package models

// Sequence представляет счётчик человекочитаемых идентификаторов.
// Жизненный цикл: read-modify-write под эксклюзивной блокировкой строки
// в рамках транзакции потребителя.
type Sequence struct {
	Type       string `json:"type" db:"type"`
	LastNumber int64  `json:"last_number" db:"last_number"`
	DigitWidth int    `json:"digit_width" db:"digit_width"`
}

// Типы счётчиков
const (
	SequenceOrderOpened = "order_opened"
)
