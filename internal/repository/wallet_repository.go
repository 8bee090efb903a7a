package repository

import (
	"database/sql"
	"errors"

	"fxtrado/internal/models"
)

// Ошибки репозитория кошельков
var (
	ErrWalletNotFound = errors.New("wallet not found")
)

// WalletRepository - работа с таблицей wallets
type WalletRepository struct {
	db *sql.DB
}

// NewWalletRepository создает новый экземпляр репозитория
func NewWalletRepository(db *sql.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// GetByAccount возвращает кошелёк аккаунта
func (r *WalletRepository) GetByAccount(accountID int) (*models.Wallet, error) {
	query := `
		SELECT account_id, balance
		FROM wallets
		WHERE account_id = $1`

	wallet := &models.Wallet{}
	err := r.db.QueryRow(query, accountID).Scan(&wallet.AccountID, &wallet.Balance)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWalletNotFound
		}
		return nil, err
	}

	return wallet, nil
}

// GetByAccounts возвращает кошельки перечисленных аккаунтов.
// Аккаунты без кошелька в результате отсутствуют.
func (r *WalletRepository) GetByAccounts(accountIDs []int) (map[int]*models.Wallet, error) {
	if len(accountIDs) == 0 {
		return map[int]*models.Wallet{}, nil
	}

	query := `
		SELECT account_id, balance
		FROM wallets
		WHERE account_id = ANY($1)`

	rows, err := r.db.Query(query, intArray(accountIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[int]*models.Wallet, len(accountIDs))
	for rows.Next() {
		wallet := &models.Wallet{}
		if err := rows.Scan(&wallet.AccountID, &wallet.Balance); err != nil {
			return nil, err
		}
		result[wallet.AccountID] = wallet
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// ResetBalanceTx обнуляет баланс аккаунта в рамках транзакции ликвидации.
// Вызывается ТОЛЬКО вместе с CloseAllOpenTx в одной транзакции:
// частичный сброс без закрытия позиций недопустим.
func (r *WalletRepository) ResetBalanceTx(tx *sql.Tx, accountID int) error {
	query := `UPDATE wallets SET balance = 0 WHERE account_id = $1`

	result, err := tx.Exec(query, accountID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrWalletNotFound
	}

	return nil
}

// CreditTx изменяет баланс аккаунта на amount (может быть отрицательным)
// в рамках транзакции обычного закрытия позиции.
func (r *WalletRepository) CreditTx(tx *sql.Tx, accountID int, amount float64) error {
	query := `UPDATE wallets SET balance = balance + $1 WHERE account_id = $2`

	result, err := tx.Exec(query, amount, accountID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrWalletNotFound
	}

	return nil
}
