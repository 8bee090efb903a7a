package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"fxtrado/internal/models"
	"fxtrado/internal/repository"
)

// WalletReader - доступ к кошелькам
type WalletReader interface {
	GetByAccount(accountID int) (*models.Wallet, error)
}

// WalletHandler отвечает за выдачу балансов кошельков
type WalletHandler struct {
	wallets WalletReader
}

// NewWalletHandler создает новый WalletHandler
func NewWalletHandler(wallets WalletReader) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

// GetWallet возвращает кошелёк аккаунта
// GET /api/v1/wallets/{account_id}
func (h *WalletHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.Atoi(mux.Vars(r)["account_id"])
	if err != nil || accountID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid account_id")
		return
	}

	wallet, err := h.wallets.GetByAccount(accountID)
	if err != nil {
		if errors.Is(err, repository.ErrWalletNotFound) {
			writeError(w, http.StatusNotFound, "wallet not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to load wallet")
		return
	}

	writeJSON(w, http.StatusOK, SuccessResponse{Data: wallet})
}
