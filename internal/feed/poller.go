package feed

import (
	"context"
	"time"

	"go.uber.org/zap"

	"fxtrado/internal/engine"
	"fxtrado/internal/models"
	"fxtrado/pkg/ratelimit"
	"fxtrado/pkg/retry"
)

// remarkSource - пометка источника в строках ticks
const remarkSource = "OANDA"

// RateSource - источник спотовых котировок
type RateSource interface {
	SpotRate(ctx context.Context, base, quote string) (bid, ask float64, err error)
}

// TickWriter - приёмник полученных тиков
type TickWriter interface {
	Insert(tick *models.Tick) error
}

// Poller опрашивает апстрим по списку пар и пишет тики в хранилище.
//
// Транзиентные ошибки HTTP ретраятся с экспоненциальной задержкой;
// ошибка по одной паре не мешает остальным. Частота запросов к
// апстриму ограничена token bucket лимитером.
type Poller struct {
	source   RateSource
	ticks    TickWriter
	pairs    []Pair
	limiter  *ratelimit.RateLimiter
	retryCfg retry.Config
	interval time.Duration
	log      *zap.SugaredLogger
}

// NewPoller создает поллер котировок
func NewPoller(source RateSource, ticks TickWriter, pairs []Pair, ratePerSec int, interval time.Duration, log *zap.SugaredLogger) *Poller {
	retryCfg := retry.DefaultConfig()
	retryCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		log.Warnw("feed request retry", "attempt", attempt, "delay", delay.String(), "error", err)
	}

	return &Poller{
		source:   source,
		ticks:    ticks,
		pairs:    pairs,
		limiter:  ratelimit.NewRateLimiter(float64(ratePerSec), float64(ratePerSec)*2),
		retryCfg: retryCfg,
		interval: interval,
		log:      log,
	}
}

// Run опрашивает апстрим с заданным интервалом до отмены контекста
func (p *Poller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.PollOnce(ctx)
		}
	}
}

// PollOnce выполняет один проход по всем парам
func (p *Poller) PollOnce(ctx context.Context) {
	for _, pair := range p.pairs {
		if err := p.pollPair(ctx, pair); err != nil {
			if ctx.Err() != nil {
				return
			}
			engine.FeedPollErrors.Inc()
			p.log.Errorw("feed poll failed", "symbol", pair.Symbol(), "error", err)
		}
	}
}

func (p *Poller) pollPair(ctx context.Context, pair Pair) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	var bid, ask float64
	err := retry.Do(ctx, func() error {
		var err error
		bid, ask, err = p.source.SpotRate(ctx, pair.Base, pair.Quote)
		return err
	}, p.retryCfg)
	if err != nil {
		return err
	}

	tick := &models.Tick{
		Symbol: pair.Symbol(),
		Bid:    bid,
		Ask:    ask,
		Digits: pair.Digits,
		Date:   time.Now().UTC(),
		Remark: remarkSource,
	}
	if err := p.ticks.Insert(tick); err != nil {
		return err
	}

	engine.FeedTicksTotal.WithLabelValues(pair.Symbol()).Inc()
	return nil
}
