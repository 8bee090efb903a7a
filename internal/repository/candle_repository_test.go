package repository

import (
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"fxtrado/internal/models"
)

// ============================================================
// CandleRepository Tests
// ============================================================

var testBucket = time.Date(2024, 1, 15, 14, 30, 0, 0, time.UTC)

func testCandle() *models.Candle {
	return &models.Candle{
		Symbol:          "EUR/USD",
		GroupName:       "vip",
		BucketStart:     testBucket,
		Open:            1.0812,
		High:            1.0812,
		Low:             1.0812,
		Close:           1.0814,
		LocalInsertTime: testBucket.Add(time.Second),
	}
}

func TestCandleRepositoryOpenBucket(t *testing.T) {
	tests := []struct {
		name         string
		rowsAffected int64
		inserted     bool
	}{
		{
			name:         "new bucket inserted",
			rowsAffected: 1,
			inserted:     true,
		},
		{
			// Повторное открытие того же бакета: ON CONFLICT DO NOTHING,
			// существующие значения не перезаписываются
			name:         "duplicate open is a no-op",
			rowsAffected: 0,
			inserted:     false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("failed to create mock: %v", err)
			}
			defer db.Close()

			c := testCandle()
			mock.ExpectExec(`INSERT INTO history_charts .+ ON CONFLICT \(symbol, group_name, bucket_start\) DO NOTHING`).
				WithArgs(c.Symbol, c.GroupName, c.BucketStart, c.Open, c.High, c.Low, c.Close, c.LocalInsertTime).
				WillReturnResult(sqlmock.NewResult(0, tt.rowsAffected))

			repo := NewCandleRepository(db)
			inserted, err := repo.OpenBucket(c)
			if err != nil {
				t.Fatalf("неожиданная ошибка: %v", err)
			}
			if inserted != tt.inserted {
				t.Errorf("inserted: ожидали %v, получили %v", tt.inserted, inserted)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("невыполненные ожидания: %v", err)
			}
		})
	}
}

func TestCandleRepositoryMergeBuckets(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	updates := []models.CandleUpdate{
		{Symbol: "EUR/USD", GroupName: "vip", BucketStart: testBucket, High: 1.0820, Low: 1.0805, Close: 1.0815},
		{Symbol: "EUR/USD", GroupName: "standard", BucketStart: testBucket, High: 1.0825, Low: 1.0810, Close: 1.0820},
	}

	// Слияние через GREATEST/LEAST: high не убывает, low не возрастает
	mock.ExpectExec(`UPDATE history_charts AS h SET high = GREATEST\(h\.high, v\.high\), low = LEAST\(h\.low, v\.low\), close = v\.close FROM \(VALUES .+\) AS v`).
		WithArgs(
			"EUR/USD", "vip", testBucket, 1.0820, 1.0805, 1.0815,
			"EUR/USD", "standard", testBucket, 1.0825, 1.0810, 1.0820,
		).
		WillReturnResult(sqlmock.NewResult(0, 2))

	repo := NewCandleRepository(db)
	if err := repo.MergeBuckets(updates); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("невыполненные ожидания: %v", err)
	}
}

func TestCandleRepositoryMergeBuckets_Empty(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	repo := NewCandleRepository(db)

	// Пустой батч не должен ходить в БД
	if err := repo.MergeBuckets(nil); err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("невыполненные ожидания: %v", err)
	}
}

func TestCandleRepositoryGetBucket(t *testing.T) {
	tests := []struct {
		name        string
		mockSetup   func(mock sqlmock.Sqlmock)
		expectError error
	}{
		{
			name: "success",
			mockSetup: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"symbol", "group_name", "bucket_start", "open", "high", "low", "close", "local_insert_time"}).
					AddRow("EUR/USD", "vip", testBucket, 1.0812, 1.0820, 1.0805, 1.0815, testBucket.Add(time.Second))
				mock.ExpectQuery(`SELECT .+ FROM history_charts WHERE symbol = \$1 AND group_name = \$2 AND bucket_start = \$3`).
					WithArgs("EUR/USD", "vip", testBucket).
					WillReturnRows(rows)
			},
		},
		{
			name: "not found",
			mockSetup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .+ FROM history_charts`).
					WithArgs("EUR/USD", "vip", testBucket).
					WillReturnRows(sqlmock.NewRows([]string{"symbol", "group_name", "bucket_start", "open", "high", "low", "close", "local_insert_time"}))
			},
			expectError: ErrCandleNotFound,
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

			repo := NewCandleRepository(db)
			c, err := repo.GetBucket("EUR/USD", "vip", testBucket)

			if tt.expectError != nil {
				if !errors.Is(err, tt.expectError) {
					t.Errorf("ожидали ошибку %v, получили %v", tt.expectError, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("неожиданная ошибка: %v", err)
			}

			// Инвариант OHLC: low <= open, close <= high
			if c.Low > c.Open || c.Low > c.Close || c.High < c.Open || c.High < c.Close {
				t.Errorf("нарушен инвариант OHLC: o=%v h=%v l=%v c=%v", c.Open, c.High, c.Low, c.Close)
			}

			if err := mock.ExpectationsWereMet(); err != nil {
				t.Errorf("невыполненные ожидания: %v", err)
			}
		})
	}
}

func TestCandleRepositoryGetRange(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create mock: %v", err)
	}
	defer db.Close()

	from := testBucket.Add(-10 * time.Minute)
	rows := sqlmock.NewRows([]string{"symbol", "group_name", "bucket_start", "open", "high", "low", "close", "local_insert_time"}).
		AddRow("EUR/USD", "vip", testBucket.Add(-2*time.Minute), 1.0800, 1.0810, 1.0795, 1.0805, testBucket).
		AddRow("EUR/USD", "vip", testBucket.Add(-time.Minute), 1.0805, 1.0815, 1.0800, 1.0812, testBucket)
	mock.ExpectQuery(`SELECT .+ FROM history_charts WHERE symbol = \$1 AND group_name = \$2 AND bucket_start >= \$3 AND bucket_start <= \$4 ORDER BY bucket_start ASC`).
		WithArgs("EUR/USD", "vip", from, testBucket).
		WillReturnRows(rows)

	repo := NewCandleRepository(db)
	candles, err := repo.GetRange("EUR/USD", "vip", from, testBucket)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if len(candles) != 2 {
		t.Fatalf("ожидали 2 свечи, получили %d", len(candles))
	}
	if !candles[0].BucketStart.Before(candles[1].BucketStart) {
		t.Error("свечи должны быть отсортированы по возрастанию bucket_start")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("невыполненные ожидания: %v", err)
	}
}
