package handlers

import (
	"net/http"
	"strings"

	"fxtrado/internal/models"
)

// TickReader - доступ к последним котировкам
type TickReader interface {
	LatestBySymbols(symbols []string) (map[string]*models.Tick, error)
}

// TickHandler отвечает за выдачу текущих котировок
type TickHandler struct {
	ticks TickReader
}

// NewTickHandler создает новый TickHandler
func NewTickHandler(ticks TickReader) *TickHandler {
	return &TickHandler{ticks: ticks}
}

// GetLatest возвращает последний тик каждого запрошенного символа.
// Символы без котировок в ответе отсутствуют.
// GET /api/v1/ticks/latest?symbols=EURUSD,USDJPY
func (h *TickHandler) GetLatest(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("symbols")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "symbols is required")
		return
	}

	var symbols []string
	for _, s := range strings.Split(raw, ",") {
		s = strings.ToUpper(strings.TrimSpace(s))
		if s != "" {
			symbols = append(symbols, s)
		}
	}
	if len(symbols) == 0 {
		writeError(w, http.StatusBadRequest, "symbols is required")
		return
	}

	latest, err := h.ticks.LatestBySymbols(symbols)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load ticks")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Data: latest})
}
