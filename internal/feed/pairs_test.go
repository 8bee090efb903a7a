package feed

import "testing"

func TestParsePairs(t *testing.T) {
	pairs, err := ParsePairs("EUR/USD:5, usd/jpy:3 ,GBP/USD:5")
	if err != nil {
		t.Fatalf("ошибка разбора: %v", err)
	}

	if len(pairs) != 3 {
		t.Fatalf("ожидали 3 пары, получили %d", len(pairs))
	}

	if pairs[0].Base != "EUR" || pairs[0].Quote != "USD" || pairs[0].Digits != 5 {
		t.Errorf("неожиданная первая пара: %+v", pairs[0])
	}
	if pairs[1].Symbol() != "USDJPY" {
		t.Errorf("ожидали нормализацию регистра, получили %s", pairs[1].Symbol())
	}
	if pairs[1].Digits != 3 {
		t.Errorf("ожидали digits 3, получили %d", pairs[1].Digits)
	}
}

func TestParsePairsInvalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"пустая строка", ""},
		{"без digits", "EUR/USD"},
		{"без quote", "EUR/:5"},
		{"без слэша", "EURUSD:5"},
		{"нечисловой digits", "EUR/USD:x"},
		{"отрицательный digits", "EUR/USD:-1"},
		{"digits в конце отсутствует", "EUR/USD:"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParsePairs(tt.input); err == nil {
				t.Errorf("ожидали ошибку для %q", tt.input)
			}
		})
	}
}
