package scanner_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/polyclob/internal/domain"
	"github.com/alejandrodnm/polyclob/internal/scanner"
)

// --- mocks ---

type mockMarketProvider struct {
	mu      sync.Mutex
	markets []domain.Market
	err     error
	calls   int
}

func (m *mockMarketProvider) FetchMarkets(_ context.Context) ([]domain.Market, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.markets, m.err
}

func (m *mockMarketProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// --- helpers ---

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type clock struct{ t time.Time }

func (c *clock) Now() time.Time { return c.t }

// makeMarket arma un mercado binario activo que pasa los criterios por defecto.
func makeMarket(id, question string, volume, liquidity, yes, no, hours float64) domain.Market {
	m := domain.Market{
		ID:        id,
		Question:  question,
		Volume:    volume,
		Liquidity: liquidity,
		Active:    true,
		Outcomes: []domain.Outcome{
			{Name: domain.OutcomeYes, TokenID: id + "-yes", Price: yes},
			{Name: domain.OutcomeNo, TokenID: id + "-no", Price: no},
		},
	}
	if !math.IsInf(hours, 1) {
		m.EndDate = now.Add(time.Duration(hours * float64(time.Hour)))
	}
	return m
}

func ids(events []domain.LiveEvent) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = e.Market.ID
	}
	return out
}

func permissive() domain.LiveEventCriteria {
	return domain.LiveEventCriteria{MaxSpread: 1, EndingWithinHours: 1000, ExcludeResolved: true}
}

// --- ScoreMarkets ---

func TestScoreMarkets_PerfectScore(t *testing.T) {
	m := makeMarket("m1", "Who wins?", 150000, 20000, 0.5, 0.5, 0.5)

	events := scanner.ScoreMarkets([]domain.Market{m}, domain.DefaultLiveEventCriteria(), now)

	require.Len(t, events, 1)
	ev := events[0]
	assert.Equal(t, 100.0, ev.BettingScore)
	assert.InDelta(t, 0.0, ev.Spread, 1e-9)
	assert.InDelta(t, 0.5, ev.HoursToClose, 1e-9)
	assert.True(t, ev.IsLive)
	assert.True(t, ev.HasLiveUpdates)
}

func TestScoreMarkets_LiveDetection(t *testing.T) {
	quiet := makeMarket("quiet", "Will the bill pass by June?", 1000, 100, 0.45, 0.45, 25)
	closing := makeMarket("closing", "Will the bill pass by June?", 1000, 100, 0.45, 0.45, 1.5)

	events := scanner.ScoreMarkets([]domain.Market{quiet, closing}, permissive(), now)
	require.Len(t, events, 2)

	byID := map[string]domain.LiveEvent{}
	for _, e := range events {
		byID[e.Market.ID] = e
	}
	assert.False(t, byID["quiet"].IsLive)
	assert.InDelta(t, 0.1, byID["quiet"].Spread, 1e-9)
	assert.True(t, byID["closing"].IsLive, "closing within 2h is live regardless of the rest")
	assert.False(t, byID["quiet"].HasLiveUpdates)
}

func TestScoreMarkets_PipelineCutoffs(t *testing.T) {
	base := func(id string) domain.Market { return makeMarket(id, "q", 20000, 2000, 0.5, 0.49, 10) }

	resolved := base("resolved")
	resolved.Closed = true
	inactive := base("inactive")
	inactive.Active = false
	lowVol := base("low-vol")
	lowVol.Volume = 9999
	lowLiq := base("low-liq")
	lowLiq.Liquidity = 999
	wide := makeMarket("wide", "q", 20000, 2000, 0.6, 0.5, 10)
	far := makeMarket("far", "q", 20000, 2000, 0.5, 0.49, 30)
	noEnd := makeMarket("no-end", "q", 20000, 2000, 0.5, 0.49, math.Inf(1))
	ok := base("ok")

	markets := []domain.Market{resolved, inactive, lowVol, lowLiq, wide, far, noEnd, ok}
	events := scanner.ScoreMarkets(markets, domain.DefaultLiveEventCriteria(), now)

	assert.Equal(t, []string{"ok"}, ids(events))
}

func TestScoreMarkets_IncludeResolvedWhenAsked(t *testing.T) {
	m := makeMarket("closed", "q", 20000, 2000, 0.5, 0.5, 10)
	m.Closed = true

	c := domain.DefaultLiveEventCriteria()
	c.ExcludeResolved = false

	assert.Len(t, scanner.ScoreMarkets([]domain.Market{m}, c, now), 1)
}

// Outcomes con otras etiquetas no cuentan como binarios: spread 1, y maxSpread los descarta.
func TestScoreMarkets_NonBinaryLabelsAreFilteredByDefault(t *testing.T) {
	m := makeMarket("mixed-case", "q", 20000, 2000, 0.5, 0.5, 10)
	m.Outcomes[0].Name = "Yes"
	m.Outcomes[1].Name = "No"

	assert.Empty(t, scanner.ScoreMarkets([]domain.Market{m}, domain.DefaultLiveEventCriteria(), now))

	events := scanner.ScoreMarkets([]domain.Market{m}, permissive(), now)
	require.Len(t, events, 1)
	assert.Equal(t, 1.0, events[0].Spread)
}

func TestScoreMarkets_StableDescendingOrder(t *testing.T) {
	a := makeMarket("a", "q", 20000, 2000, 0.5, 0.5, 10) // 15+10+25+5
	b := makeMarket("b", "q", 150000, 20000, 0.5, 0.5, 10)
	c := makeMarket("c", "q", 20000, 2000, 0.5, 0.5, 10) // mismo score que a
	d := makeMarket("d", "q", 20000, 2000, 0.5, 0.5, 10)

	events := scanner.ScoreMarkets([]domain.Market{a, b, c, d}, domain.DefaultLiveEventCriteria(), now)

	assert.Equal(t, []string{"b", "a", "c", "d"}, ids(events))
	assert.Equal(t, 55.0, events[1].BettingScore)
}

func TestScoreMarkets_Category(t *testing.T) {
	m := makeMarket("m", "Lakers vs Celtics: who wins game 7?", 20000, 2000, 0.5, 0.5, 10)
	events := scanner.ScoreMarkets([]domain.Market{m}, domain.DefaultLiveEventCriteria(), now)
	require.Len(t, events, 1)
	assert.Equal(t, domain.CategorySports, events[0].Category)
}

// --- Categorize / IsLive ---

func TestCategorize(t *testing.T) {
	tests := []struct {
		text string
		want string
	}{
		{"will the chiefs win the super bowl?", domain.CategorySports},
		{"will trump attend the super bowl?", domain.CategorySports}, // sports se evalúa antes
		{"who wins the 2028 presidential election?", domain.CategoryPolitics},
		{"will the ceo resign after the report?", domain.CategoryNews},
		{"will bitcoin close above 100k?", domain.CategoryCrypto},
		{"will the fed cut interest rates in march?", domain.CategoryFinance},
		{"will it snow in paris on christmas?", domain.CategoryOther},
	}
	for _, tc := range tests {
		t.Run(tc.text, func(t *testing.T) {
			assert.Equal(t, tc.want, scanner.Categorize(tc.text))
		})
	}
}

func TestIsLive(t *testing.T) {
	assert.True(t, scanner.IsLive("anything", 1.99, 0, 1))
	assert.False(t, scanner.IsLive("anything", 2, 0, 1))
	assert.True(t, scanner.IsLive("who scores tonight?", 30, 0, 1))
	assert.True(t, scanner.IsLive("winner in this hour", 30, 0, 1))
	assert.False(t, scanner.IsLive("a well known result", 30, 0, 1), "keywords match whole words")
	assert.True(t, scanner.IsLive("q", 30, 50001, 0.019))
	assert.False(t, scanner.IsLive("q", 30, 50000, 0.019))
	assert.False(t, scanner.IsLive("q", 30, 60000, 0.02))
	assert.False(t, scanner.IsLive("q", math.Inf(1), 0, 1))
}

// --- Scorer + cache ---

func newScorer(mp *mockMarketProvider) (*scanner.Scorer, *clock) {
	clk := &clock{t: now}
	return scanner.NewScorer(mp, 30*time.Second).WithClock(clk.Now), clk
}

func TestScorer_CachesByCriteria(t *testing.T) {
	mp := &mockMarketProvider{markets: []domain.Market{makeMarket("m", "q", 20000, 2000, 0.5, 0.5, 10)}}
	s, clk := newScorer(mp)
	ctx := context.Background()

	first, err := s.FindLiveEvents(ctx, domain.DefaultLiveEventCriteria())
	require.NoError(t, err)
	require.Len(t, first, 1)

	// los datos cambian, pero dentro del TTL se devuelve el resultado cacheado
	mp.markets = nil
	clk.t = clk.t.Add(29 * time.Second)
	second, err := s.FindLiveEvents(ctx, domain.DefaultLiveEventCriteria())
	require.NoError(t, err)
	assert.Len(t, second, 1)
	assert.Equal(t, 1, mp.callCount())

	// criterio distinto → otra clave
	_, err = s.FindLiveEvents(ctx, permissive())
	require.NoError(t, err)
	assert.Equal(t, 2, mp.callCount())

	clk.t = clk.t.Add(2 * time.Second)
	third, err := s.FindLiveEvents(ctx, domain.DefaultLiveEventCriteria())
	require.NoError(t, err)
	assert.Empty(t, third)
	assert.Equal(t, 3, mp.callCount())
}

func TestScorer_UnboundedHorizon(t *testing.T) {
	mp := &mockMarketProvider{markets: []domain.Market{
		makeMarket("soon", "q", 20000, 2000, 0.5, 0.5, 10),
		makeMarket("open", "q", 20000, 2000, 0.5, 0.5, math.Inf(1)),
	}}
	s, _ := newScorer(mp)

	criteria := domain.DefaultLiveEventCriteria()
	criteria.EndingWithinHours = math.Inf(1)

	events, err := s.FindLiveEvents(context.Background(), criteria)
	require.NoError(t, err)
	assert.Contains(t, ids(events), "soon")

	// la segunda llamada sale del cache
	_, err = s.FindLiveEvents(context.Background(), criteria)
	require.NoError(t, err)
	assert.Equal(t, 1, mp.callCount())

	criteria.MaxSpread = math.NaN()
	_, err = s.FindLiveEvents(context.Background(), criteria)
	require.NoError(t, err)
}

func TestScorer_CachedSliceIsNotShared(t *testing.T) {
	mp := &mockMarketProvider{markets: []domain.Market{makeMarket("m", "q", 20000, 2000, 0.5, 0.5, 10)}}
	s, _ := newScorer(mp)

	first, err := s.FindLiveEvents(context.Background(), domain.DefaultLiveEventCriteria())
	require.NoError(t, err)
	first[0].BettingScore = -1

	second, err := s.FindLiveEvents(context.Background(), domain.DefaultLiveEventCriteria())
	require.NoError(t, err)
	assert.Equal(t, 55.0, second[0].BettingScore)
}

func TestScorer_ProviderError(t *testing.T) {
	mp := &mockMarketProvider{err: errors.New("API down")}
	s, _ := newScorer(mp)

	_, err := s.FindLiveEvents(context.Background(), domain.DefaultLiveEventCriteria())
	assert.ErrorContains(t, err, "API down")

	// los errores no se cachean
	_, _ = s.FindLiveEvents(context.Background(), domain.DefaultLiveEventCriteria())
	assert.Equal(t, 2, mp.callCount())
}

func TestScorer_FindLiveSports(t *testing.T) {
	mp := &mockMarketProvider{markets: []domain.Market{
		makeMarket("nba", "Lakers vs Celtics tonight", 6000, 600, 0.5, 0.5, 5),
		makeMarket("vote", "Will the senate vote pass?", 6000, 600, 0.5, 0.5, 5),
		makeMarket("late", "NFL playoffs winner", 6000, 600, 0.5, 0.5, 13),
	}}
	s, _ := newScorer(mp)

	events, err := s.FindLiveSports(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"nba"}, ids(events))
}

func TestScorer_FindBreakingNews(t *testing.T) {
	mp := &mockMarketProvider{markets: []domain.Market{
		makeMarket("live-politics", "Senate vote happening today", 25000, 1500, 0.5, 0.5, 40),
		makeMarket("slow-politics", "Senate vote by December", 25000, 1500, 0.5, 0.5, 40),
		makeMarket("live-sports", "NBA finals game today", 25000, 1500, 0.5, 0.5, 40),
		makeMarket("live-news", "Will the minister resign? Breaking", 25000, 1500, 0.5, 0.5, 1),
		makeMarket("small", "Senate vote happening today", 15000, 1500, 0.5, 0.5, 40),
	}}
	s, _ := newScorer(mp)

	events, err := s.FindBreakingNews(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"live-news", "live-politics"}, ids(events))
}

func TestScorer_FindTopLiveEvents(t *testing.T) {
	var markets []domain.Market
	for i := 0; i < 15; i++ {
		markets = append(markets, makeMarket(string(rune('a'+i)), "q", 20000, 2000, 0.5, 0.5, 1))
	}
	markets = append(markets, makeMarket("not-live", "q", 20000, 2000, 0.5, 0.5, 20))
	mp := &mockMarketProvider{markets: markets}
	s, _ := newScorer(mp)

	top, err := s.FindTopLiveEvents(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, top, 10)

	top3, err := s.FindTopLiveEvents(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, ids(top3))
	assert.Equal(t, 1, mp.callCount(), "presets share the cached default result")
}
