package models

// PricingGroup представляет канал дистрибуции цен с собственной
// спредовой надбавкой. Один символ может принадлежать нескольким группам.
type PricingGroup struct {
	ID        int     `json:"id" db:"id"`
	Symbol    string  `json:"symbol" db:"symbol"`
	GroupName string  `json:"group_name" db:"group_name"`
	Spread    float64 `json:"spread" db:"spread"` // в единицах точности цены
	Status    string  `json:"status" db:"status"`
}

// Статусы группы
const (
	GroupStatusActive   = "active"
	GroupStatusInactive = "inactive"
)

// GroupSpread - элемент снапшота справочника групп: имя группы и её спред
// для конкретного символа.
type GroupSpread struct {
	GroupName string
	Spread    float64
}
