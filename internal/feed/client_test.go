package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClientSpotRate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/rates/spot.json" {
			t.Errorf("неожиданный путь: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("неожиданный заголовок Authorization: %q", got)
		}
		if r.URL.Query().Get("base") != "EUR" || r.URL.Query().Get("quote") != "USD" {
			t.Errorf("неожиданные параметры: %s", r.URL.RawQuery)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"quotes":[{"bid":"1.08123","ask":"1.08133"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second)

	bid, ask, err := client.SpotRate(context.Background(), "EUR", "USD")
	if err != nil {
		t.Fatalf("ошибка запроса: %v", err)
	}
	if bid != 1.08123 {
		t.Errorf("ожидали bid 1.08123, получили %v", bid)
	}
	if ask != 1.08133 {
		t.Errorf("ожидали ask 1.08133, получили %v", ask)
	}
}

func TestClientSpotRateUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second)

	if _, _, err := client.SpotRate(context.Background(), "EUR", "USD"); err == nil {
		t.Fatal("ожидали ошибку при статусе 429")
	}
}

func TestClientSpotRateEmptyQuotes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"quotes":[]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, "test-key", time.Second)

	if _, _, err := client.SpotRate(context.Background(), "EUR", "USD"); err == nil {
		t.Fatal("ожидали ошибку при пустом ответе")
	}
}
