package models

// Wallet представляет кошелёк аккаунта.
// Инвариант balance >= 0 обеспечивается только через ликвидацию:
// плавающий убыток нереализован и баланс не трогает.
type Wallet struct {
	AccountID int     `json:"account_id" db:"account_id"`
	Balance   float64 `json:"balance" db:"balance"`
}
