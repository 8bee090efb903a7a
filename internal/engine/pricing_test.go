package engine

import (
	"math"
	"testing"

	"fxtrado/internal/models"
)

// ============================================================
// Тесты ценовой арифметики
// ============================================================

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestSpreadFactor(t *testing.T) {
	tests := []struct {
		name     string
		spread   float64
		digits   int
		expected float64
	}{
		{"5 знаков (EURUSD)", 20, 5, 0.0002},
		{"3 знака (USDJPY)", 20, 3, 0.02},
		{"2 знака", 20, 2, 0.2},
		{"1 знак", 20, 1, 2},
		{"0 знаков", 20, 0, 20},
		{"4 знака через общую формулу", 20, 4, 0.002},
		{"нулевой спред", 0, 5, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SpreadFactor(tt.spread, tt.digits); !almostEqual(got, tt.expected) {
				t.Errorf("SpreadFactor(%v, %d) = %v, ожидали %v", tt.spread, tt.digits, got, tt.expected)
			}
		})
	}
}

func TestMultiplier(t *testing.T) {
	tests := []struct {
		digits   int
		expected float64
	}{
		{5, 100000},
		{3, 1000},
		{2, 100},
		{1, 10},
		{4, 10000}, // вне таблицы - общая формула 10^digits
		{0, 1},
		{6, 1000000},
	}

	for _, tt := range tests {
		if got := Multiplier(tt.digits); !almostEqual(got, tt.expected) {
			t.Errorf("Multiplier(%d) = %v, ожидали %v", tt.digits, got, tt.expected)
		}
	}
}

func TestAdjustPrice(t *testing.T) {
	tests := []struct {
		name     string
		raw      float64
		spread   float64
		digits   int
		expected float64
	}{
		{"EURUSD со спредом 20", 1.08123, 20, 5, 1.08143},
		{"USDJPY со спредом 15", 151.123, 15, 3, 151.138},
		{"нулевой спред - только округление", 1.081234, 0, 5, 1.08123},
		{"округление вверх", 1.081235, 0, 5, 1.08124},
		{"0 знаков", 1850.4, 2, 0, 1852},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AdjustPrice(tt.raw, tt.spread, tt.digits); !almostEqual(got, tt.expected) {
				t.Errorf("AdjustPrice(%v, %v, %d) = %v, ожидали %v", tt.raw, tt.spread, tt.digits, got, tt.expected)
			}
		})
	}
}

func TestFloatingProfit(t *testing.T) {
	tests := []struct {
		name      string
		side      string
		openPrice float64
		adjBid    float64
		adjAsk    float64
		volume    float64
		digits    int
		expected  float64
	}{
		{
			name: "buy в плюсе",
			side: models.OrderSideBuy,
			// (1.08200 - 1.08100) * 0.5 * 100000 = 50
			openPrice: 1.08100, adjBid: 1.08200, adjAsk: 1.08220,
			volume: 0.5, digits: 5,
			expected: 50,
		},
		{
			name: "buy в минусе",
			side: models.OrderSideBuy,
			// (1.08000 - 1.08120) * 1.0 * 100000 = -120
			openPrice: 1.08120, adjBid: 1.08000, adjAsk: 1.08020,
			volume: 1.0, digits: 5,
			expected: -120,
		},
		{
			name: "sell считается по ask",
			side: models.OrderSideSell,
			// (151.200 - 151.150) * 1.0 * 1000 = 50
			openPrice: 151.200, adjBid: 151.100, adjAsk: 151.150,
			volume: 1.0, digits: 3,
			expected: 50,
		},
		{
			name: "округление до 2 знаков",
			side: models.OrderSideBuy,
			openPrice: 1.08100, adjBid: 1.081234, adjAsk: 1.08130,
			volume: 0.01, digits: 5,
			// (0.000234) * 0.01 * 100000 = 0.234 -> 0.23
			expected: 0.23,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FloatingProfit(tt.side, tt.openPrice, tt.adjBid, tt.adjAsk, tt.volume, tt.digits)
			if !almostEqual(got, tt.expected) {
				t.Errorf("FloatingProfit = %v, ожидали %v", got, tt.expected)
			}
		})
	}
}

func TestRoundTo(t *testing.T) {
	tests := []struct {
		value    float64
		digits   int
		expected float64
	}{
		{1.081234, 5, 1.08123},
		{1.081235, 5, 1.08124},
		{-60.005, 2, -60.0}, // math.Round: half away from zero, -60.005 в float64 чуть меньше половины
		{151.1234, 3, 151.123},
		{7.0, 0, 7.0},
	}

	for _, tt := range tests {
		if got := RoundTo(tt.value, tt.digits); !almostEqual(got, tt.expected) {
			t.Errorf("RoundTo(%v, %d) = %v, ожидали %v", tt.value, tt.digits, got, tt.expected)
		}
	}
}
