package feed

import (
	"fmt"
	"strconv"
	"strings"
)

// Pair - валютная пара, опрашиваемая поллером.
// В хранилище пара попадает как слитный символ (EUR/USD -> EURUSD);
// base и quote нужны апстриму отдельными параметрами.
type Pair struct {
	Base   string
	Quote  string
	Digits int
}

// Symbol возвращает символ пары в формате хранилища
func (p Pair) Symbol() string {
	return p.Base + p.Quote
}

// ParsePairs разбирает список пар из конфигурации.
// Формат: "EUR/USD:5,USD/JPY:3" (base/quote:digits).
func ParsePairs(s string) ([]Pair, error) {
	var pairs []Pair

	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}

		slash := strings.Index(item, "/")
		colon := strings.LastIndex(item, ":")
		if slash <= 0 || colon <= slash+1 || colon == len(item)-1 {
			return nil, fmt.Errorf("invalid pair %q, want base/quote:digits", item)
		}

		digits, err := strconv.Atoi(item[colon+1:])
		if err != nil || digits < 0 {
			return nil, fmt.Errorf("invalid digits in pair %q", item)
		}

		pairs = append(pairs, Pair{
			Base:   strings.ToUpper(item[:slash]),
			Quote:  strings.ToUpper(item[slash+1 : colon]),
			Digits: digits,
		})
	}

	if len(pairs) == 0 {
		return nil, fmt.Errorf("no pairs configured")
	}
	return pairs, nil
}
