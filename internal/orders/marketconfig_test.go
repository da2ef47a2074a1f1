package orders_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alejandrodnm/polyclob/internal/domain"
	"github.com/alejandrodnm/polyclob/internal/orders"
)

type stubFetcher struct {
	cfg   domain.MarketConfig
	err   error
	calls int
}

func (s *stubFetcher) FetchMarketConfig(_ context.Context, _ string) (domain.MarketConfig, error) {
	s.calls++
	return s.cfg, s.err
}

func TestMarketConfigCache_ReadThrough(t *testing.T) {
	f := &stubFetcher{cfg: domain.MarketConfig{TickSize: 0.001, MinSize: 5}}
	c := orders.NewMarketConfigCache(f)

	for range 3 {
		assert.Equal(t, domain.MarketConfig{TickSize: 0.001, MinSize: 5}, c.Get(context.Background(), "tok"))
	}
	assert.Equal(t, 1, f.calls)
}

func TestMarketConfigCache_FailureCachesDefault(t *testing.T) {
	f := &stubFetcher{err: errors.New("boom")}
	c := orders.NewMarketConfigCache(f)

	assert.Equal(t, domain.DefaultMarketConfig, c.Get(context.Background(), "tok"))
	assert.Equal(t, domain.DefaultMarketConfig, c.Get(context.Background(), "tok"))
	assert.Equal(t, 1, f.calls)
}

func TestMarketConfigCache_ZeroFieldsDefaulted(t *testing.T) {
	f := &stubFetcher{cfg: domain.MarketConfig{TickSize: 0.0001}}
	c := orders.NewMarketConfigCache(f)

	got := c.Get(context.Background(), "tok")
	assert.Equal(t, 0.0001, got.TickSize)
	assert.Equal(t, domain.DefaultMarketConfig.MinSize, got.MinSize)
}

func TestMarketConfigCache_PutSeeds(t *testing.T) {
	f := &stubFetcher{}
	c := orders.NewMarketConfigCache(f)

	c.Put("tok", domain.MarketConfig{TickSize: 0.1, MinSize: 15})
	assert.Equal(t, domain.MarketConfig{TickSize: 0.1, MinSize: 15}, c.Get(context.Background(), "tok"))
	assert.Zero(t, f.calls)
}
