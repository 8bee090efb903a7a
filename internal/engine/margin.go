package engine

import (
	"database/sql"
	"fmt"
	"math"
	"sort"
	"time"

	"go.uber.org/zap"

	"fxtrado/internal/models"
	"fxtrado/internal/repository"
)

// MarginEngine - движок переоценки и принудительной ликвидации.
//
// Каждый цикл пересчитывает плавающий P/L всех открытых позиций по
// последним котировкам, пишет результаты одним батчем и проверяет
// каждый аккаунт: если суммарный отрицательный P/L по модулю превышает
// баланс кошелька, все открытые позиции аккаунта закрываются, а баланс
// обнуляется в одной транзакции. Любая ошибка транзакции приводит к
// полному откату; повторная попытка - на следующем цикле.
type MarginEngine struct {
	db        *sql.DB
	orders    *repository.OrderRepository
	wallets   *repository.WalletRepository
	ticks     TickSource
	directory SnapshotProvider
	log       *zap.SugaredLogger
}

// NewMarginEngine создает движок переоценки
func NewMarginEngine(db *sql.DB, orders *repository.OrderRepository, wallets *repository.WalletRepository, ticks TickSource, directory SnapshotProvider, log *zap.SugaredLogger) *MarginEngine {
	return &MarginEngine{
		db:        db,
		orders:    orders,
		wallets:   wallets,
		ticks:     ticks,
		directory: directory,
		log:       log,
	}
}

// Run выполняет циклы переоценки с заданным интервалом до закрытия shutdown.
// Ошибка цикла логируется и не останавливает движок: состояние каждого
// цикла выводится заново из хранилища котировок.
func (e *MarginEngine) Run(interval time.Duration, shutdown <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-shutdown:
			return
		case <-ticker.C:
			if err := e.RunCycle(); err != nil {
				MarginCycleErrors.Inc()
				e.log.Errorw("mark-to-market cycle failed", "error", err)
			}
		}
	}
}

// RunCycle выполняет один цикл переоценки: пересчет P/L, батч-запись
// и проверка аккаунтов на принудительную ликвидацию.
func (e *MarginEngine) RunCycle() error {
	start := time.Now()

	orders, err := e.orders.GetOpen()
	if err != nil {
		return fmt.Errorf("load open orders: %w", err)
	}
	OpenPositions.Set(float64(len(orders)))
	if len(orders) == 0 {
		return nil
	}

	latest, err := e.ticks.LatestBySymbols(orderSymbols(orders))
	if err != nil {
		return fmt.Errorf("load latest ticks: %w", err)
	}

	updates, negativeByAccount := e.revalue(orders, latest)

	if len(updates) > 0 {
		if err := e.orders.UpdateProfits(updates); err != nil {
			return fmt.Errorf("persist profits: %w", err)
		}
	}

	if err := e.checkLiquidations(negativeByAccount); err != nil {
		return err
	}

	MarginCycleLatency.Observe(float64(time.Since(start).Milliseconds()))
	return nil
}

// revalue пересчитывает плавающий P/L позиций по последним котировкам.
// Позиция без котировки пропускается: её профит не обновляется и никогда
// не обнуляется, а в сумму по аккаунту входит последнее сохраненное
// значение. Возвращает батч обновлений и сумму отрицательных профитов
// по каждому аккаунту.
func (e *MarginEngine) revalue(orders []*models.Order, latest map[string]*models.Tick) ([]models.ProfitUpdate, map[int]float64) {
	snap := e.directory.Snapshot()

	updates := make([]models.ProfitUpdate, 0, len(orders))
	negative := make(map[int]float64)

	for _, order := range orders {
		tick, ok := latest[order.Symbol]
		if !ok {
			if order.Profit < 0 {
				negative[order.AccountID] += order.Profit
			}
			continue
		}

		spread, _ := snap.Lookup(order.Symbol, order.GroupName)
		adjBid := AdjustPrice(tick.Bid, spread, tick.Digits)
		adjAsk := AdjustPrice(tick.Ask, spread, tick.Digits)

		profit := FloatingProfit(order.Side, order.OpenPrice, adjBid, adjAsk, order.Volume, tick.Digits)
		updates = append(updates, models.ProfitUpdate{
			ID:        order.ID,
			Profit:    profit,
			MarketBid: adjBid,
			MarketAsk: adjAsk,
		})

		if profit < 0 {
			negative[order.AccountID] += profit
		}
	}

	return updates, negative
}

// checkLiquidations сравнивает суммарный отрицательный P/L каждого
// аккаунта с балансом кошелька и запускает ликвидацию при превышении.
// Аккаунты обрабатываются в детерминированном порядке; неудачная
// ликвидация одного аккаунта не мешает остальным.
func (e *MarginEngine) checkLiquidations(negative map[int]float64) error {
	if len(negative) == 0 {
		return nil
	}

	accountIDs := make([]int, 0, len(negative))
	for id := range negative {
		accountIDs = append(accountIDs, id)
	}
	sort.Ints(accountIDs)

	wallets, err := e.wallets.GetByAccounts(accountIDs)
	if err != nil {
		return fmt.Errorf("load wallets: %w", err)
	}

	for _, accountID := range accountIDs {
		wallet, ok := wallets[accountID]
		if !ok {
			e.log.Warnw("no wallet for account with negative exposure", "account_id", accountID)
			continue
		}

		totalNegative := negative[accountID]
		if math.Abs(totalNegative) <= wallet.Balance {
			continue
		}

		if err := e.Liquidate(accountID, totalNegative); err != nil {
			RecordLiquidation(false)
			e.log.Errorw("forced liquidation failed",
				"error", err, "account_id", accountID, "total_negative", totalNegative)
			continue
		}
		RecordLiquidation(true)
		e.log.Warnw("account liquidated",
			"account_id", accountID,
			"total_negative", totalNegative,
			"balance", wallet.Balance,
		)
	}
	return nil
}

// Liquidate принудительно закрывает все открытые позиции аккаунта и
// обнуляет баланс кошелька в одной транзакции. Позиции получают
// remark "margin-call" и общий closed_profit, равный сумме
// отрицательных профитов аккаунта.
func (e *MarginEngine) Liquidate(accountID int, totalNegative float64) error {
	tx, err := e.db.Begin()
	if err != nil {
		return fmt.Errorf("begin liquidation: %w", err)
	}

	closed, err := e.orders.CloseAllOpenTx(tx, accountID, totalNegative, time.Now().UTC())
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("close positions: %w", err)
	}
	if closed == 0 {
		// Позиции успели закрыться параллельно - обнулять баланс нечем.
		// Аккаунт переоценится на следующем цикле.
		tx.Rollback()
		e.log.Infow("liquidation skipped, no open positions", "account_id", accountID)
		return nil
	}

	if err := e.wallets.ResetBalanceTx(tx, accountID); err != nil {
		tx.Rollback()
		return fmt.Errorf("reset balance: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit liquidation: %w", err)
	}

	e.log.Infow("liquidation committed", "account_id", accountID, "positions_closed", closed)
	return nil
}

// orderSymbols возвращает уникальные символы открытых позиций
func orderSymbols(orders []*models.Order) []string {
	seen := make(map[string]struct{}, len(orders))
	symbols := make([]string, 0, len(orders))
	for _, order := range orders {
		if _, ok := seen[order.Symbol]; ok {
			continue
		}
		seen[order.Symbol] = struct{}{}
		symbols = append(symbols, order.Symbol)
	}
	return symbols
}
