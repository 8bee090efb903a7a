package engine

import (
	"math"

	"fxtrado/internal/models"
)

// pricing.go - чистая арифметика групповых цен
//
// Все функции чистые и тотальные: без состояния, без побочных эффектов.
// Точность цены (digits) поддерживается от 0 как минимум до 5 через общую
// формулу степени десяти; исторические частные случаи (5, 3, 2, 1)
// совпадают с ней по значениям.

// SpreadFactor переводит спред группы из единиц точности цены в ценовые
// единицы: spread / 10^digits.
//
// Примеры: SpreadFactor(20, 5) = 0.0002, SpreadFactor(20, 3) = 0.02
func SpreadFactor(spread float64, digits int) float64 {
	return spread / math.Pow(10, float64(digits))
}

// AdjustPrice применяет спредовую надбавку группы к сырой цене
// и округляет результат до digits знаков.
func AdjustPrice(raw, spread float64, digits int) float64 {
	return RoundTo(raw+SpreadFactor(spread, digits), digits)
}

// Multiplier возвращает множитель пересчёта пипсов в валюту профита.
// Таблица исторических значений; для прочих точностей - 10^digits.
func Multiplier(digits int) float64 {
	switch digits {
	case 5:
		return 100000
	case 3:
		return 1000
	case 2:
		return 100
	case 1:
		return 10
	default:
		return math.Pow(10, float64(digits))
	}
}

// RoundTo округляет значение до digits знаков после запятой
func RoundTo(value float64, digits int) float64 {
	pow := math.Pow(10, float64(digits))
	return math.Round(value*pow) / pow
}

// FloatingProfit вычисляет плавающий P/L позиции.
//
// pipDifference для buy: adjustedBid - openPrice, для sell:
// openPrice - adjustedAsk. Результат округляется до 2 знаков.
func FloatingProfit(side string, openPrice, adjustedBid, adjustedAsk, volume float64, digits int) float64 {
	var pip float64
	if side == models.OrderSideBuy {
		pip = adjustedBid - openPrice
	} else {
		pip = openPrice - adjustedAsk
	}
	return RoundTo(pip*volume*Multiplier(digits), 2)
}
