package repository

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fxtrado/internal/models"
)

// Ошибки репозитория ордеров
var (
	ErrOrderNotFound = errors.New("order not found")
)

// OrderRepository - работа с таблицей orders.
// Строки принадлежат совместно шлюзу ордеров (создание, обычное закрытие)
// и движку ликвидации (принудительное закрытие). Гонку выигрывает
// ликвидация: она коммитит обе записи одной транзакцией.
type OrderRepository struct {
	db *sql.DB
}

// NewOrderRepository создает новый экземпляр репозитория
func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

const orderColumns = `id, order_id, account_id, symbol, group_name, side, open_price, volume,
		status, profit, market_bid, market_ask, close_price, close_time, closed_profit, remark, open_time`

func scanOrder(s interface{ Scan(...interface{}) error }) (*models.Order, error) {
	order := &models.Order{}
	err := s.Scan(
		&order.ID,
		&order.OrderID,
		&order.AccountID,
		&order.Symbol,
		&order.GroupName,
		&order.Side,
		&order.OpenPrice,
		&order.Volume,
		&order.Status,
		&order.Profit,
		&order.MarketBid,
		&order.MarketAsk,
		&order.ClosePrice,
		&order.CloseTime,
		&order.ClosedProfit,
		&order.Remark,
		&order.OpenTime,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// CreateTx создает запись об ордере в рамках транзакции вызывающего.
// Та же транзакция должна выдать order_id через SequenceRepository.AllocateTx:
// выделение номера и вставка - одна атомарная единица.
func (r *OrderRepository) CreateTx(tx *sql.Tx, order *models.Order) error {
	query := `
		INSERT INTO orders (order_id, account_id, symbol, group_name, side, open_price, volume,
			status, profit, market_bid, market_ask, remark, open_time)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`

	order.OpenTime = time.Now().UTC()

	return tx.QueryRow(
		query,
		order.OrderID,
		order.AccountID,
		order.Symbol,
		order.GroupName,
		order.Side,
		order.OpenPrice,
		order.Volume,
		order.Status,
		order.Profit,
		order.MarketBid,
		order.MarketAsk,
		order.Remark,
		order.OpenTime,
	).Scan(&order.ID)
}

// GetByOrderID возвращает ордер по человекочитаемому номеру
func (r *OrderRepository) GetByOrderID(orderID string) (*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE order_id = $1`

	order, err := scanOrder(r.db.QueryRow(query, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}

	return order, nil
}

// GetOpen возвращает все открытые позиции
func (r *OrderRepository) GetOpen() ([]*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE status = $1
		ORDER BY account_id, id`

	return r.queryOrders(query, models.OrderStatusOpen)
}

// GetByAccount возвращает последние N ордеров аккаунта
func (r *OrderRepository) GetByAccount(accountID int, limit int) ([]*models.Order, error) {
	query := `
		SELECT ` + orderColumns + `
		FROM orders
		WHERE account_id = $1
		ORDER BY open_time DESC
		LIMIT $2`

	return r.queryOrders(query, accountID, limit)
}

func (r *OrderRepository) queryOrders(query string, args ...interface{}) ([]*models.Order, error) {
	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return orders, nil
}

// UpdateProfits применяет батч результатов переоценки маржин-цикла.
//
// Обновляет profit, market_bid, market_ask для каждой позиции батча.
// Семантика per-row идентична одиночным UPDATE; батч через VALUES - чисто
// оптимизация количества round-trip'ов. Позиции, закрывшиеся между
// выборкой и записью, молча пропускаются (WHERE по id ничего не находит).
func (r *OrderRepository) UpdateProfits(updates []models.ProfitUpdate) error {
	if len(updates) == 0 {
		return nil
	}

	values := make([]string, 0, len(updates))
	args := make([]interface{}, 0, len(updates)*4)
	for i, u := range updates {
		base := i * 4
		values = append(values, fmt.Sprintf("($%d::int, $%d::double precision, $%d::double precision, $%d::double precision)",
			base+1, base+2, base+3, base+4))
		args = append(args, u.ID, u.Profit, u.MarketBid, u.MarketAsk)
	}

	query := fmt.Sprintf(`
		UPDATE orders AS o
		SET profit = v.profit,
		    market_bid = v.market_bid,
		    market_ask = v.market_ask
		FROM (VALUES %s) AS v(id, profit, market_bid, market_ask)
		WHERE o.id = v.id AND o.status = '%s'`,
		strings.Join(values, ", "), models.OrderStatusOpen)

	_, err := r.db.Exec(query, args...)
	return err
}

// Close закрывает позицию обычным способом (шлюз ордеров).
// Возвращает ErrOrderNotFound если позиция уже закрыта: гонку с
// ликвидацией выигрывает тот, кто закоммитил первым.
func (r *OrderRepository) Close(tx *sql.Tx, id int, closePrice, closedProfit float64, closeTime time.Time) error {
	query := `
		UPDATE orders
		SET status = $1, close_price = $2, closed_profit = $3, close_time = $4
		WHERE id = $5 AND status = $6`

	result, err := tx.Exec(query, models.OrderStatusClosed, closePrice, closedProfit, closeTime, id, models.OrderStatusOpen)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

// CloseAllOpenTx принудительно закрывает все открытые позиции аккаунта
// в рамках транзакции ликвидации.
//
// Каждая позиция получает remark = "margin-call", closed_profit равный
// суммарному отрицательному профиту аккаунта и единое close_time.
// Возвращает число закрытых позиций.
func (r *OrderRepository) CloseAllOpenTx(tx *sql.Tx, accountID int, closedProfit float64, closeTime time.Time) (int64, error) {
	query := `
		UPDATE orders
		SET status = $1, remark = $2, closed_profit = $3, close_time = $4
		WHERE account_id = $5 AND status = $6`

	result, err := tx.Exec(
		query,
		models.OrderStatusClosed,
		models.RemarkMarginCall,
		closedProfit,
		closeTime,
		accountID,
		models.OrderStatusOpen,
	)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// CountOpen возвращает количество открытых позиций
func (r *OrderRepository) CountOpen() (int, error) {
	query := `SELECT COUNT(*) FROM orders WHERE status = $1`

	var count int
	err := r.db.QueryRow(query, models.OrderStatusOpen).Scan(&count)
	if err != nil {
		return 0, err
	}

	return count, nil
}
