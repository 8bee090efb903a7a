package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"fxtrado/internal/models"
	"fxtrado/internal/service"
)

// OrderGateway - операции шлюза ордеров, нужные API
type OrderGateway interface {
	Open(req service.OpenOrderRequest) (*models.Order, error)
	Close(orderID string) (*models.Order, error)
	Get(orderID string) (*models.Order, error)
	GetByAccount(accountID, limit int) ([]*models.Order, error)
}

// OrderHandler отвечает за операции с торговыми позициями
//
// Функции:
// - Открытие позиции (POST /api/v1/orders)
// - Закрытие позиции (POST /api/v1/orders/{order_id}/close)
// - Получение позиции (GET /api/v1/orders/{order_id})
// - Список позиций аккаунта (GET /api/v1/orders?account_id=N)
type OrderHandler struct {
	gateway OrderGateway
}

// NewOrderHandler создает новый OrderHandler
func NewOrderHandler(gateway OrderGateway) *OrderHandler {
	return &OrderHandler{gateway: gateway}
}

// OpenOrder открывает позицию по текущей групповой цене
// POST /api/v1/orders
func (h *OrderHandler) OpenOrder(w http.ResponseWriter, r *http.Request) {
	var req service.OpenOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.gateway.Open(req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderSymbolEmpty),
			errors.Is(err, service.ErrOrderInvalidSide),
			errors.Is(err, service.ErrOrderInvalidVolume):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrNoMarketPrice):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to open order")
		}
		return
	}

	writeJSON(w, http.StatusCreated, SuccessResponse{Data: order})
}

// CloseOrder закрывает позицию обычным способом
// POST /api/v1/orders/{order_id}/close
func (h *OrderHandler) CloseOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["order_id"]

	order, err := h.gateway.Close(orderID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			writeError(w, http.StatusNotFound, err.Error())
		case errors.Is(err, service.ErrOrderAlreadyClosed):
			writeError(w, http.StatusConflict, err.Error())
		case errors.Is(err, service.ErrNoMarketPrice):
			writeError(w, http.StatusConflict, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, "failed to close order")
		}
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Data: order})
}

// GetOrder возвращает позицию по номеру
// GET /api/v1/orders/{order_id}
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID := mux.Vars(r)["order_id"]

	order, err := h.gateway.Get(orderID)
	if err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			writeError(w, http.StatusNotFound, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load order")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Data: order})
}

// ListOrders возвращает последние позиции аккаунта
// GET /api/v1/orders?account_id=N&limit=M
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.Atoi(r.URL.Query().Get("account_id"))
	if err != nil || accountID <= 0 {
		writeError(w, http.StatusBadRequest, "account_id is required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	orders, err := h.gateway.GetByAccount(accountID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load orders")
		return
	}
	if orders == nil {
		orders = []*models.Order{}
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Data: orders})
}
