package engine

import (
	"math"
	"time"

	"go.uber.org/zap"

	"fxtrado/internal/models"
	"fxtrado/pkg/utils"
)

// TickSource - источник последних котировок по символам
type TickSource interface {
	LatestBySymbols(symbols []string) (map[string]*models.Tick, error)
}

// BucketTickSource дополнительно отдает все котировки с начала бакета;
// нужен update-задаче, чтобы диапазон high/low покрывал каждую
// котировку минуты, а не только последнюю.
type BucketTickSource interface {
	TickSource
	Since(from time.Time) ([]*models.Tick, error)
}

// CandleStore - хранилище минутных свечей
type CandleStore interface {
	OpenBucket(candle *models.Candle) (bool, error)
	MergeBuckets(updates []models.CandleUpdate) error
}

// SnapshotProvider - доступ к опубликованному снапшоту ценовых групп
type SnapshotProvider interface {
	Snapshot() *Snapshot
}

// CandleEngine - движок минутных свечей.
//
// На границе каждой минуты открывает бакет для каждой пары
// (символ, группа) из снапшота справочника и запускает горутину
// обновления, которая до конца минуты подтягивает high/low/close
// по последним котировкам. Вставка бакета идемпотентна: повторное
// открытие той же пары (символ, группа, минута) не трогает цену
// открытия.
type CandleEngine struct {
	ticks          BucketTickSource
	candles        CandleStore
	directory      SnapshotProvider
	updateInterval time.Duration
	log            *zap.SugaredLogger
}

// NewCandleEngine создает движок свечей
func NewCandleEngine(ticks BucketTickSource, candles CandleStore, directory SnapshotProvider, updateInterval time.Duration, log *zap.SugaredLogger) *CandleEngine {
	return &CandleEngine{
		ticks:          ticks,
		candles:        candles,
		directory:      directory,
		updateInterval: updateInterval,
		log:            log,
	}
}

// Run запускает цикл открытия бакетов до закрытия shutdown.
// Просыпается на границе каждой минуты; обновление внутри минуты
// выполняет отдельная горутина, живущая до конца своего бакета.
func (e *CandleEngine) Run(shutdown <-chan struct{}) {
	for {
		now := time.Now().UTC()
		next := utils.BucketEnd(now)

		select {
		case <-shutdown:
			return
		case <-time.After(next.Sub(now)):
		}

		bucket := utils.BucketStart(time.Now().UTC())
		e.OpenBuckets(bucket)
		go e.runBucketUpdater(bucket, shutdown)
	}
}

// OpenBuckets открывает минутный бакет для каждой пары (символ, группа)
// снапшота, по которой есть хотя бы одна котировка. Цена открытия -
// скорректированный bid последней котировки, high/low стартуют с нее же;
// начальный close - скорректированный ask, до первого обновления внутри
// минуты. Символы без котировок пропускаются.
func (e *CandleEngine) OpenBuckets(bucket time.Time) {
	snap := e.directory.Snapshot()
	symbols := snap.Symbols()
	if len(symbols) == 0 {
		return
	}

	latest, err := e.ticks.LatestBySymbols(symbols)
	if err != nil {
		CandleUpdateErrors.Inc()
		e.log.Errorw("failed to load latest ticks for bucket open", "error", err, "bucket", bucket)
		return
	}

	opened := 0
	for _, symbol := range symbols {
		tick, ok := latest[symbol]
		if !ok {
			continue
		}
		for _, group := range snap.Groups(symbol) {
			openPrice := AdjustPrice(tick.Bid, group.Spread, tick.Digits)
			tempClose := AdjustPrice(tick.Ask, group.Spread, tick.Digits)
			inserted, err := e.candles.OpenBucket(&models.Candle{
				Symbol:          symbol,
				GroupName:       group.GroupName,
				BucketStart:     bucket,
				Open:            openPrice,
				High:            openPrice,
				Low:             openPrice,
				Close:           tempClose,
				LocalInsertTime: time.Now().UTC(),
			})
			if err != nil {
				CandlesOpened.WithLabelValues("error").Inc()
				e.log.Errorw("failed to open candle bucket",
					"error", err, "symbol", symbol, "group", group.GroupName, "bucket", bucket)
				continue
			}
			RecordCandleOpen(inserted)
			if inserted {
				opened++
			}
		}
	}

	e.log.Debugw("candle buckets opened", "bucket", bucket, "opened", opened)
}

// runBucketUpdater периодически обновляет свечи одного бакета и
// завершается, как только минута бакета истекла. Перезапуск для
// следующей минуты делает цикл открытия.
func (e *CandleEngine) runBucketUpdater(bucket time.Time, shutdown <-chan struct{}) {
	ticker := time.NewTicker(e.updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-shutdown:
			return
		case <-ticker.C:
			if !utils.SameBucket(time.Now().UTC(), bucket) {
				return
			}
			e.UpdateBuckets(bucket)
		}
	}
}

// bucketStats - сырой диапазон котировок символа с начала бакета
type bucketStats struct {
	high   float64
	low    float64
	latest *models.Tick
}

// UpdateBuckets сливает котировки, наблюдавшиеся с начала бакета, в его
// свечи. Сырой диапазон символа - max(bid, ask) / min(bid, ask) по всем
// котировкам минуты, close - bid последней котировки; все три значения
// корректируются спредом группы. Расширение диапазона (GREATEST/LEAST)
// делает хранилище, поэтому запоздавшее обновление не может сузить уже
// накопленный диапазон.
func (e *CandleEngine) UpdateBuckets(bucket time.Time) {
	start := time.Now()

	snap := e.directory.Snapshot()
	symbols := snap.Symbols()
	if len(symbols) == 0 {
		return
	}

	ticks, err := e.ticks.Since(bucket)
	if err != nil {
		CandleUpdateErrors.Inc()
		e.log.Errorw("failed to load ticks for bucket update", "error", err, "bucket", bucket)
		return
	}

	// Котировки отсортированы по (date, id): последняя в слайсе и есть
	// актуальная для символа
	agg := make(map[string]*bucketStats, len(symbols))
	for _, tick := range ticks {
		hi := math.Max(tick.Bid, tick.Ask)
		lo := math.Min(tick.Bid, tick.Ask)
		s, ok := agg[tick.Symbol]
		if !ok {
			agg[tick.Symbol] = &bucketStats{high: hi, low: lo, latest: tick}
			continue
		}
		s.high = math.Max(s.high, hi)
		s.low = math.Min(s.low, lo)
		s.latest = tick
	}

	updates := make([]models.CandleUpdate, 0, len(symbols))
	for _, symbol := range symbols {
		s, ok := agg[symbol]
		if !ok {
			continue
		}
		digits := s.latest.Digits
		for _, group := range snap.Groups(symbol) {
			updates = append(updates, models.CandleUpdate{
				Symbol:      symbol,
				GroupName:   group.GroupName,
				BucketStart: bucket,
				High:        AdjustPrice(s.high, group.Spread, digits),
				Low:         AdjustPrice(s.low, group.Spread, digits),
				Close:       AdjustPrice(s.latest.Bid, group.Spread, digits),
			})
		}
	}
	if len(updates) == 0 {
		return
	}

	if err := e.candles.MergeBuckets(updates); err != nil {
		CandleUpdateErrors.Inc()
		e.log.Errorw("failed to merge candle updates", "error", err, "bucket", bucket, "updates", len(updates))
		return
	}

	CandleUpdateLatency.Observe(float64(time.Since(start).Milliseconds()))
}
