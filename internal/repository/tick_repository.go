package repository

import (
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"fxtrado/internal/models"
)

// Ошибки репозитория тиков
var (
	ErrTickNotFound = errors.New("tick not found")
)

// TickRepository - чтение потока котировок из таблицы ticks.
// Поток append-only: ядро читает, пишет только фид котировок (Insert).
type TickRepository struct {
	db *sql.DB
}

// NewTickRepository создает новый экземпляр репозитория
func NewTickRepository(db *sql.DB) *TickRepository {
	return &TickRepository{db: db}
}

// Insert добавляет тик в поток. Используется только фидом котировок.
func (r *TickRepository) Insert(tick *models.Tick) error {
	query := `
		INSERT INTO ticks (symbol, bid, ask, digits, date, remark)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id`

	return r.db.QueryRow(
		query,
		tick.Symbol,
		tick.Bid,
		tick.Ask,
		tick.Digits,
		tick.Date,
		tick.Remark,
	).Scan(&tick.ID)
}

// Latest возвращает последний тик для символа.
// "Последний" = максимальный date; при равных date побеждает больший id
// (порядок вставки в поток).
func (r *TickRepository) Latest(symbol string) (*models.Tick, error) {
	query := `
		SELECT id, symbol, bid, ask, digits, date, remark
		FROM ticks
		WHERE symbol = $1
		ORDER BY date DESC, id DESC
		LIMIT 1`

	tick := &models.Tick{}
	err := r.db.QueryRow(query, symbol).Scan(
		&tick.ID,
		&tick.Symbol,
		&tick.Bid,
		&tick.Ask,
		&tick.Digits,
		&tick.Date,
		&tick.Remark,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTickNotFound
		}
		return nil, err
	}

	return tick, nil
}

// LatestBySymbols возвращает последний тик каждого из указанных символов.
// Символы без тиков в результате отсутствуют: значения не фабрикуются.
func (r *TickRepository) LatestBySymbols(symbols []string) (map[string]*models.Tick, error) {
	if len(symbols) == 0 {
		return map[string]*models.Tick{}, nil
	}

	query := `
		SELECT DISTINCT ON (symbol) id, symbol, bid, ask, digits, date, remark
		FROM ticks
		WHERE symbol = ANY($1)
		ORDER BY symbol, date DESC, id DESC`

	rows, err := r.db.Query(query, pq.Array(symbols))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]*models.Tick, len(symbols))
	for rows.Next() {
		tick := &models.Tick{}
		err := rows.Scan(
			&tick.ID,
			&tick.Symbol,
			&tick.Bid,
			&tick.Ask,
			&tick.Digits,
			&tick.Date,
			&tick.Remark,
		)
		if err != nil {
			return nil, err
		}
		result[tick.Symbol] = tick
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

// Since возвращает все тики начиная с указанного момента (включительно),
// в порядке вставки в поток. Используется update-задачей свечей для
// пересчёта high/low/close текущего бакета.
func (r *TickRepository) Since(from time.Time) ([]*models.Tick, error) {
	query := `
		SELECT id, symbol, bid, ask, digits, date, remark
		FROM ticks
		WHERE date >= $1
		ORDER BY date ASC, id ASC`

	rows, err := r.db.Query(query, from)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ticks []*models.Tick
	for rows.Next() {
		tick := &models.Tick{}
		err := rows.Scan(
			&tick.ID,
			&tick.Symbol,
			&tick.Bid,
			&tick.Ask,
			&tick.Digits,
			&tick.Date,
			&tick.Remark,
		)
		if err != nil {
			return nil, err
		}
		ticks = append(ticks, tick)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return ticks, nil
}

// DeleteOlderThan удаляет тики старше указанной даты.
// Используется задачей обслуживания для очистки потока.
func (r *TickRepository) DeleteOlderThan(timestamp time.Time) (int64, error) {
	query := `DELETE FROM ticks WHERE date < $1`

	result, err := r.db.Exec(query, timestamp)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
