package repository

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

// ============================================================
// WalletRepository Tests
// ============================================================

func TestWalletRepositoryGetByAccount(t *testing.T) {
	tests := []struct {
		name        string
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError error
		balance     float64
	}{
		{
			name: "success",
			mockSetup: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"account_id", "balance"}).AddRow(7, 100.0)
				mock.ExpectQuery(`SELECT account_id, balance FROM wallets WHERE account_id = \$1`).
					WithArgs(7).
					WillReturnRows(rows)
			},
			balance: 100.0,
		},
		{
			name: "not found",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT account_id, balance FROM wallets`).
					WithArgs(7).
					WillReturnRows(sqlmock.NewRows([]string{"account_id", "balance"}))
			},
			expectError: ErrWalletNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			tt.mockSetup(mock)

			repo := NewWalletRepository(db)
			wallet, err := repo.GetByAccount(7)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Errorf("ожидали ошибку %v, получили %v", tt.expectError, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("неожиданная ошибка: %v", err)
			}
			if wallet.Balance != tt.balance {
				t.Errorf("Balance: ожидали %v, получили %v", tt.balance, wallet.Balance)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("невыполненные ожидания: %v", err)
			}
		})
	}
}

func TestWalletRepositoryGetByAccounts(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	rows := sqlmock.NewRows([]string{"account_id", "balance"}).
		AddRow(7, 100.0).
		AddRow(8, 200.0)
	mock.ExpectQuery(`SELECT account_id, balance FROM wallets WHERE account_id = ANY\(\$1\)`).
		WillReturnRows(rows)

	repo := NewWalletRepository(db)
	wallets, err := repo.GetByAccounts([]int{7, 8, 9})
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if len(wallets) != 2 {
		t.Fatalf("ожидали 2 кошелька, получили %d", len(wallets))
	}
	// Аккаунт без кошелька отсутствует в результате
	if _, ok := wallets[9]; ok {
		t.Error("аккаунт без кошелька не должен присутствовать в результате")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("невыполненные ожидания: %v", err)
	}
}

func TestWalletRepositoryResetBalanceTx(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE wallets SET balance = 0 WHERE account_id = \$1`).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	repo := NewWalletRepository(db)
	if err := repo.ResetBalanceTx(tx, 7); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if err := tx.Commit(); err != nil {
		t.Fatalf("commit failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("невыполненные ожидания: %v", err)
	}
}

func TestWalletRepositoryResetBalanceTx_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE wallets SET balance = 0`).
		WithArgs(99).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("begin failed: %v", err)
	}

	repo := NewWalletRepository(db)
	err = repo.ResetBalanceTx(tx, 99)
	if !errors.Is(err, ErrWalletNotFound) {
		t.Errorf("ожидали ErrWalletNotFound, получили %v", err)
	}
	tx.Rollback()

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("невыполненные ожидания: %v", err)
	}
}
