package websocket

import (
	"errors"
	"time"

	"go.uber.org/zap"

	"fxtrado/internal/engine"
	"fxtrado/internal/models"
	"fxtrado/internal/repository"
	"fxtrado/pkg/utils"
)

// BucketReader - доступ к свече конкретного минутного бакета
type BucketReader interface {
	GetBucket(symbol, groupName string, bucketStart time.Time) (*models.Candle, error)
}

// Broadcaster периодически рассылает клиентам hub'a котировки со
// скорректированными групповыми ценами и свечи текущего бакета.
//
// Чисто читающий потребитель: хранилища не модифицирует, ошибки
// логирует и ждет следующего тика.
type Broadcaster struct {
	hub       *Hub
	ticks     engine.TickSource
	candles   BucketReader
	directory engine.SnapshotProvider
	interval  time.Duration
	log       *zap.SugaredLogger
}

// NewBroadcaster создает рассыльщик
func NewBroadcaster(hub *Hub, ticks engine.TickSource, candles BucketReader, directory engine.SnapshotProvider, interval time.Duration, log *zap.SugaredLogger) *Broadcaster {
	return &Broadcaster{
		hub:       hub,
		ticks:     ticks,
		candles:   candles,
		directory: directory,
		interval:  interval,
		log:       log,
	}
}

// Run рассылает обновления с заданным интервалом до закрытия shutdown
func (b *Broadcaster) Run(shutdown <-chan struct{}) {
	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-shutdown:
			return
		case <-ticker.C:
			b.BroadcastOnce()
		}
	}
}

// BroadcastOnce выполняет один проход рассылки
func (b *Broadcaster) BroadcastOnce() {
	if b.hub.ClientCount() == 0 {
		return
	}

	snap := b.directory.Snapshot()
	symbols := snap.Symbols()
	if len(symbols) == 0 {
		return
	}

	latest, err := b.ticks.LatestBySymbols(symbols)
	if err != nil {
		b.log.Errorw("failed to load ticks for broadcast", "error", err)
		return
	}

	bucket := utils.BucketStart(time.Now().UTC())

	for _, symbol := range symbols {
		tick, ok := latest[symbol]
		if !ok {
			continue
		}

		groups := snap.Groups(symbol)
		quotes := make([]GroupQuote, 0, len(groups))
		for _, group := range groups {
			quotes = append(quotes, GroupQuote{
				GroupName: group.GroupName,
				Bid:       engine.AdjustPrice(tick.Bid, group.Spread, tick.Digits),
				Ask:       engine.AdjustPrice(tick.Ask, group.Spread, tick.Digits),
			})

			candle, err := b.candles.GetBucket(symbol, group.GroupName, bucket)
			if err != nil {
				if !errors.Is(err, repository.ErrCandleNotFound) {
					b.log.Errorw("failed to load bucket for broadcast",
						"error", err, "symbol", symbol, "group", group.GroupName)
				}
				continue
			}
			b.hub.BroadcastCandle(NewCandleMessage(candle))
		}

		b.hub.BroadcastQuote(NewQuoteMessage(symbol, tick.Bid, tick.Ask, tick.Date, quotes))
	}
}
