package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fxtrado/internal/models"
)

// Ошибки репозитория свечей
var (
	ErrCandleNotFound = errors.New("candle not found")
)

// CandleRepository - работа с таблицей history_charts.
// Строки свечей принадлежат исключительно агрегатору: никакой другой
// компонент их не пишет.
type CandleRepository struct {
	db *sql.DB
}

// NewCandleRepository создает новый экземпляр репозитория
func NewCandleRepository(db *sql.DB) *CandleRepository {
	return &CandleRepository{db: db}
}

// OpenBucket создает строку свечи для нового минутного бакета.
//
// Идемпотентно: если строка для ключа (symbol, group_name, bucket_start)
// уже существует, новая не создается и существующие значения не
// перезаписываются (ON CONFLICT DO NOTHING). Повторный вызов bucket-open
// задачи для того же бакета безопасен.
//
// Возвращает true если строка была вставлена.
func (r *CandleRepository) OpenBucket(c *models.Candle) (bool, error) {
	query := `
		INSERT INTO history_charts (symbol, group_name, bucket_start, open, high, low, close, local_insert_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (symbol, group_name, bucket_start) DO NOTHING`

	result, err := r.db.Exec(
		query,
		c.Symbol,
		c.GroupName,
		c.BucketStart,
		c.Open,
		c.High,
		c.Low,
		c.Close,
		c.LocalInsertTime,
	)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

// MergeBuckets применяет батч дельт к существующим свечам.
//
// Семантика per-row идентична одиночным UPDATE:
//   - high = GREATEST(high, v.high)  (монотонно не убывает)
//   - low  = LEAST(low, v.low)       (монотонно не возрастает)
//   - close перезаписывается
//
// Слияние коммутативно и идемпотентно: повторное применение того же
// или перекрывающегося диапазона тиков безопасно, поэтому перекрытие
// медленного цикла со следующим тиком таймера не требует блокировок.
// Строки, для которых бакет еще не открыт, молча пропускаются.
func (r *CandleRepository) MergeBuckets(updates []models.CandleUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	// Батч через VALUES: одна команда вместо N round-trip'ов.
	// Это оптимизация производительности, не корректности.
	values := make([]string, 0, len(updates))
	args := make([]interface{}, 0, len(updates)*6)
	for i, u := range updates {
		base := i * 6
		values = append(values, fmt.Sprintf("($%d::text, $%d::text, $%d::timestamptz, $%d::double precision, $%d::double precision, $%d::double precision)",
			base+1, base+2, base+3, base+4, base+5, base+6))
		args = append(args, u.Symbol, u.GroupName, u.BucketStart, u.High, u.Low, u.Close)
	}

	query := fmt.Sprintf(`
		UPDATE history_charts AS h
		SET high = GREATEST(h.high, v.high),
		    low = LEAST(h.low, v.low),
		    close = v.close
		FROM (VALUES %s) AS v(symbol, group_name, bucket_start, high, low, close)
		WHERE h.symbol = v.symbol
		  AND h.group_name = v.group_name
		  AND h.bucket_start = v.bucket_start`,
		strings.Join(values, ", "))

	_, err := r.db.Exec(query, args...)
	return err
}

// GetBucket возвращает свечу для конкретного бакета
func (r *CandleRepository) GetBucket(symbol, groupName string, bucketStart time.Time) (*models.Candle, error) {
	query := `
		SELECT symbol, group_name, bucket_start, open, high, low, close, local_insert_time
		FROM history_charts
		WHERE symbol = $1 AND group_name = $2 AND bucket_start = $3`

	c := &models.Candle{}
	err := r.db.QueryRow(query, symbol, groupName, bucketStart).Scan(
		&c.Symbol,
		&c.GroupName,
		&c.BucketStart,
		&c.Open,
		&c.High,
		&c.Low,
		&c.Close,
		&c.LocalInsertTime,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCandleNotFound
		}
		return nil, err
	}

	return c, nil
}

// GetRange возвращает свечи пары (символ, группа) за период,
// по возрастанию bucket_start
func (r *CandleRepository) GetRange(symbol, groupName string, from, to time.Time) ([]*models.Candle, error) {
	query := `
		SELECT symbol, group_name, bucket_start, open, high, low, close, local_insert_time
		FROM history_charts
		WHERE symbol = $1 AND group_name = $2 AND bucket_start >= $3 AND bucket_start <= $4
		ORDER BY bucket_start ASC`

	rows, err := r.db.Query(query, symbol, groupName, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candles []*models.Candle
	for rows.Next() {
		c := &models.Candle{}
		err := rows.Scan(
			&c.Symbol,
			&c.GroupName,
			&c.BucketStart,
			&c.Open,
			&c.High,
			&c.Low,
			&c.Close,
			&c.LocalInsertTime,
		)
		if err != nil {
			return nil, err
		}
		candles = append(candles, c)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return candles, nil
}

// GetRecent возвращает последние N свечей пары (символ, группа),
// по убыванию bucket_start
func (r *CandleRepository) GetRecent(symbol, groupName string, limit int) ([]*models.Candle, error) {
	query := `
		SELECT symbol, group_name, bucket_start, open, high, low, close, local_insert_time
		FROM history_charts
		WHERE symbol = $1 AND group_name = $2
		ORDER BY bucket_start DESC
		LIMIT $3`

	rows, err := r.db.Query(query, symbol, groupName, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candles []*models.Candle
	for rows.Next() {
		c := &models.Candle{}
		err := rows.Scan(
			&c.Symbol,
			&c.GroupName,
			&c.BucketStart,
			&c.Open,
			&c.High,
			&c.Low,
			&c.Close,
			&c.LocalInsertTime,
		)
		if err != nil {
			return nil, err
		}
		candles = append(candles, c)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return candles, nil
}

// DeleteOlderThan удаляет свечи старше указанной даты
func (r *CandleRepository) DeleteOlderThan(timestamp time.Time) (int64, error) {
	query := `DELETE FROM history_charts WHERE bucket_start < $1`

	result, err := r.db.Exec(query, timestamp)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
