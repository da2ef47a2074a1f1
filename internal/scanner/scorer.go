package scanner

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/alejandrodnm/polyclob/internal/cache"
	"github.com/alejandrodnm/polyclob/internal/domain"
	"github.com/alejandrodnm/polyclob/internal/ports"
)

const (
	// DefaultCacheTTL es cuánto vive un resultado antes de recalcularse.
	DefaultCacheTTL = 30 * time.Second

	defaultTopLimit = 10
)

// Scorer filtra y puntúa mercados para encontrar oportunidades en vivo.
// Los resultados se cachean por criterio; dentro del TTL no se vuelve a consultar
// al proveedor aunque los datos hayan cambiado.
type Scorer struct {
	markets ports.MarketProvider
	cache   *cache.TTL[string, []domain.LiveEvent]
	now     func() time.Time
}

// NewScorer crea un Scorer. ttl <= 0 usa DefaultCacheTTL.
func NewScorer(markets ports.MarketProvider, ttl time.Duration) *Scorer {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Scorer{
		markets: markets,
		cache:   cache.New[string, []domain.LiveEvent](ttl),
		now:     time.Now,
	}
}

// WithClock reemplaza el reloj usado para horas al cierre y para el cache.
func (s *Scorer) WithClock(now func() time.Time) *Scorer {
	s.now = now
	s.cache.WithClock(now)
	return s
}

// FindLiveEvents devuelve los mercados que pasan criteria, ordenados por betting score.
func (s *Scorer) FindLiveEvents(ctx context.Context, criteria domain.LiveEventCriteria) ([]domain.LiveEvent, error) {
	key := cacheKey(criteria)
	if cached, ok := s.cache.Get(key); ok {
		slog.Debug("live events cache hit", "key", key, "events", len(cached))
		return clone(cached), nil
	}

	markets, err := s.markets.FetchMarkets(ctx)
	if err != nil {
		return nil, fmt.Errorf("scanner.FindLiveEvents: fetch markets: %w", err)
	}

	events := ScoreMarkets(markets, criteria, s.now())
	s.cache.Set(key, events)

	slog.Debug("live events scored", "markets", len(markets), "events", len(events))
	return clone(events), nil
}

// FindLiveSports: criterios más laxos en volumen y liquidez, horizonte de 12h, solo deportes.
func (s *Scorer) FindLiveSports(ctx context.Context) ([]domain.LiveEvent, error) {
	events, err := s.FindLiveEvents(ctx, domain.LiveEventCriteria{
		MinVolume:         5000,
		MinLiquidity:      500,
		MaxSpread:         0.05,
		EndingWithinHours: 12,
		ExcludeResolved:   true,
	})
	if err != nil {
		return nil, err
	}
	return keep(events, func(e domain.LiveEvent) bool {
		return e.Category == domain.CategorySports
	}), nil
}

// FindBreakingNews: mercados grandes de noticias o política que están en vivo.
func (s *Scorer) FindBreakingNews(ctx context.Context) ([]domain.LiveEvent, error) {
	events, err := s.FindLiveEvents(ctx, domain.LiveEventCriteria{
		MinVolume:         20000,
		MinLiquidity:      1000,
		MaxSpread:         0.05,
		EndingWithinHours: 48,
		ExcludeResolved:   true,
	})
	if err != nil {
		return nil, err
	}
	return keep(events, func(e domain.LiveEvent) bool {
		return e.IsLive && (e.Category == domain.CategoryNews || e.Category == domain.CategoryPolitics)
	}), nil
}

// FindTopLiveEvents devuelve hasta limit eventos en vivo con los criterios por defecto.
// limit <= 0 usa 10.
func (s *Scorer) FindTopLiveEvents(ctx context.Context, limit int) ([]domain.LiveEvent, error) {
	if limit <= 0 {
		limit = defaultTopLimit
	}
	events, err := s.FindLiveEvents(ctx, domain.DefaultLiveEventCriteria())
	if err != nil {
		return nil, err
	}
	live := keep(events, func(e domain.LiveEvent) bool { return e.IsLive })
	if len(live) > limit {
		live = live[:limit]
	}
	return live, nil
}

// ScoreMarkets aplica el pipeline completo sobre markets: filtros en orden
// (resuelto → volumen → liquidez → spread → horas), métricas derivadas y
// orden estable descendente por betting score.
func ScoreMarkets(markets []domain.Market, criteria domain.LiveEventCriteria, now time.Time) []domain.LiveEvent {
	events := make([]domain.LiveEvent, 0, len(markets))
	for _, m := range markets {
		if criteria.ExcludeResolved && m.Resolved() {
			continue
		}
		if m.Volume < criteria.MinVolume {
			continue
		}
		if m.Liquidity < criteria.MinLiquidity {
			continue
		}
		spread := domain.BinarySpread(m)
		if spread > criteria.MaxSpread {
			continue
		}
		hours := m.HoursToClose(now)
		if hours > criteria.EndingWithinHours {
			continue
		}

		text := marketText(m)
		events = append(events, domain.LiveEvent{
			Market:         m,
			Spread:         spread,
			HoursToClose:   hours,
			IsLive:         IsLive(text, hours, m.Volume, spread),
			Category:       Categorize(text),
			BettingScore:   domain.BettingScore(m.Volume, m.Liquidity, spread, hours),
			HasLiveUpdates: m.Volume > 10000,
		})
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].BettingScore > events[j].BettingScore
	})
	return events
}

// cacheKey concatena los criterios en orden fijo. FormatFloat acepta ±Inf y NaN.
func cacheKey(c domain.LiveEventCriteria) string {
	return strings.Join([]string{
		strconv.FormatFloat(c.MinVolume, 'g', -1, 64),
		strconv.FormatFloat(c.MinLiquidity, 'g', -1, 64),
		strconv.FormatFloat(c.MaxSpread, 'g', -1, 64),
		strconv.FormatFloat(c.EndingWithinHours, 'g', -1, 64),
		strconv.FormatBool(c.ExcludeResolved),
	}, "|")
}

func keep(events []domain.LiveEvent, pred func(domain.LiveEvent) bool) []domain.LiveEvent {
	out := make([]domain.LiveEvent, 0, len(events))
	for _, e := range events {
		if pred(e) {
			out = append(out, e)
		}
	}
	return out
}

// clone evita que el caller modifique el slice guardado en cache.
func clone(events []domain.LiveEvent) []domain.LiveEvent {
	out := make([]domain.LiveEvent, len(events))
	copy(out, events)
	return out
}
