package handlers

import (
	"net/http"
	"strconv"
	"time"

	"fxtrado/internal/models"
)

// CandleReader - доступ к минутным свечам
type CandleReader interface {
	GetRecent(symbol, groupName string, limit int) ([]*models.Candle, error)
	GetRange(symbol, groupName string, from, to time.Time) ([]*models.Candle, error)
}

// CandleHandler отвечает за выдачу минутных свечей
//
// Функции:
// - Последние свечи пары (символ, группа) (GET /api/v1/candles)
// - Свечи за интервал при указании from/to (RFC3339)
type CandleHandler struct {
	candles CandleReader
}

// NewCandleHandler создает новый CandleHandler
func NewCandleHandler(candles CandleReader) *CandleHandler {
	return &CandleHandler{candles: candles}
}

// GetCandles возвращает свечи пары (символ, группа)
// GET /api/v1/candles?symbol=EURUSD&group=standard&limit=100
// GET /api/v1/candles?symbol=EURUSD&group=standard&from=...&to=...
func (h *CandleHandler) GetCandles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	symbol := q.Get("symbol")
	groupName := q.Get("group")
	if symbol == "" || groupName == "" {
		writeError(w, http.StatusBadRequest, "symbol and group are required")
		return
	}

	var (
		candles []*models.Candle
		err     error
	)

	if fromStr := q.Get("from"); fromStr != "" {
		from, perr := time.Parse(time.RFC3339, fromStr)
		if perr != nil {
			writeError(w, http.StatusBadRequest, "from must be RFC3339")
			return
		}
		to := time.Now().UTC()
		if toStr := q.Get("to"); toStr != "" {
			to, perr = time.Parse(time.RFC3339, toStr)
			if perr != nil {
				writeError(w, http.StatusBadRequest, "to must be RFC3339")
				return
			}
		}
		candles, err = h.candles.GetRange(symbol, groupName, from, to)
	} else {
		limit, _ := strconv.Atoi(q.Get("limit"))
		if limit <= 0 || limit > 1440 {
			limit = 100
		}
		candles, err = h.candles.GetRecent(symbol, groupName, limit)
	}

	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load candles")
		return
	}
	if candles == nil {
		candles = []*models.Candle{}
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Data: candles})
}
