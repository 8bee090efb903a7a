package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client - HTTP клиент апстримного API котировок (OANDA-style rates API).
// Безопасен для конкурентного использования: состояние только в
// connection pool стандартного транспорта.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient создает клиент апстрима
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// spotResponse - тело ответа GET /v2/rates/spot.json.
// Апстрим отдает числа строками.
type spotResponse struct {
	Quotes []struct {
		Bid string `json:"bid"`
		Ask string `json:"ask"`
	} `json:"quotes"`
}

// SpotRate возвращает текущие bid/ask для пары base/quote
func (c *Client) SpotRate(ctx context.Context, base, quote string) (bid, ask float64, err error) {
	u := fmt.Sprintf("%s/v2/rates/spot.json?%s", c.baseURL, url.Values{
		"base":  {base},
		"quote": {quote},
	}.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, 0, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Тело не читаем целиком: для диагностики достаточно статуса
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1024))
		return 0, 0, fmt.Errorf("upstream returned status %d for %s/%s", resp.StatusCode, base, quote)
	}

	var body spotResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return 0, 0, fmt.Errorf("decode spot response: %w", err)
	}
	if len(body.Quotes) == 0 {
		return 0, 0, fmt.Errorf("no quotes for %s/%s", base, quote)
	}

	q := body.Quotes[0]
	bid, err = strconv.ParseFloat(q.Bid, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse bid %q: %w", q.Bid, err)
	}
	ask, err = strconv.ParseFloat(q.Ask, 64)
	if err != nil {
		return 0, 0, fmt.Errorf("parse ask %q: %w", q.Ask, err)
	}

	return bid, ask, nil
}
