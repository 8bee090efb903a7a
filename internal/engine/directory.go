package engine

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"fxtrado/internal/models"
)

// GroupSource - источник активных записей ценовых групп
type GroupSource interface {
	GetActive() ([]*models.PricingGroup, error)
}

// Snapshot - иммутабельный срез справочника групп: symbol -> группы со
// спредами. После публикации не мутируется; читатели никогда не видят
// частично построенную карту.
type Snapshot struct {
	groups  map[string][]models.GroupSpread
	takenAt time.Time
}

// Lookup возвращает спред для пары (символ, группа).
// Отсутствующая запись дает спред 0: позиция переоценивается по сырой цене.
func (s *Snapshot) Lookup(symbol, groupName string) (float64, bool) {
	for _, g := range s.groups[symbol] {
		if g.GroupName == groupName {
			return g.Spread, true
		}
	}
	return 0, false
}

// Groups возвращает группы символа
func (s *Snapshot) Groups(symbol string) []models.GroupSpread {
	return s.groups[symbol]
}

// Symbols возвращает все символы снапшота
func (s *Snapshot) Symbols() []string {
	symbols := make([]string, 0, len(s.groups))
	for symbol := range s.groups {
		symbols = append(symbols, symbol)
	}
	return symbols
}

// TakenAt возвращает момент построения снапшота
func (s *Snapshot) TakenAt() time.Time {
	return s.takenAt
}

// Len возвращает количество символов в снапшоте
func (s *Snapshot) Len() int {
	return len(s.groups)
}

// GroupDirectory - справочник ценовых групп.
//
// Периодически перечитывает активные группы и атомарно подменяет
// опубликованный снапшот (atomic.Pointer, без блокировок на чтении).
// При ошибке обновления прежний снапшот остается опубликованным
// (stale-but-available), ошибка логируется и не пробрасывается.
// Ни один компонент не ждет более свежего снапшота.
type GroupDirectory struct {
	source   GroupSource
	interval time.Duration
	log      *zap.SugaredLogger

	snapshot atomic.Pointer[Snapshot]
}

// NewGroupDirectory создает справочник с пустым начальным снапшотом
func NewGroupDirectory(source GroupSource, interval time.Duration, log *zap.SugaredLogger) *GroupDirectory {
	d := &GroupDirectory{
		source:   source,
		interval: interval,
		log:      log,
	}
	d.snapshot.Store(&Snapshot{
		groups:  map[string][]models.GroupSpread{},
		takenAt: time.Time{},
	})
	return d
}

// Snapshot возвращает текущий опубликованный снапшот. Никогда не nil.
func (d *GroupDirectory) Snapshot() *Snapshot {
	return d.snapshot.Load()
}

// Refresh перечитывает активные группы и публикует новый снапшот.
// Карта строится целиком до публикации.
func (d *GroupDirectory) Refresh() error {
	groups, err := d.source.GetActive()
	if err != nil {
		return err
	}

	m := make(map[string][]models.GroupSpread, len(groups))
	for _, g := range groups {
		m[g.Symbol] = append(m[g.Symbol], models.GroupSpread{
			GroupName: g.GroupName,
			Spread:    g.Spread,
		})
	}

	d.snapshot.Store(&Snapshot{
		groups:  m,
		takenAt: time.Now().UTC(),
	})

	DirectorySymbols.Set(float64(len(m)))
	return nil
}

// Run выполняет периодическое обновление до закрытия shutdown.
// Первое обновление происходит сразу, не дожидаясь первого тика таймера.
func (d *GroupDirectory) Run(shutdown <-chan struct{}) {
	if err := d.Refresh(); err != nil {
		DirectoryRefreshErrors.Inc()
		d.log.Errorw("initial pricing group refresh failed", "error", err)
	}

	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-shutdown:
			return
		case <-ticker.C:
			if err := d.Refresh(); err != nil {
				// Прежний снапшот остается опубликованным
				DirectoryRefreshErrors.Inc()
				d.log.Errorw("pricing group refresh failed, keeping stale snapshot",
					"error", err,
					"snapshot_age", time.Since(d.Snapshot().TakenAt()).String(),
				)
			}
		}
	}
}
