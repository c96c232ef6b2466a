package pricing

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"classbourse/config"
	"classbourse/internal/externalApi"
	"classbourse/internal/model"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeMarketApi struct {
	quotes  map[string]model.Quote
	errs    map[string]error
	candles map[string][]model.Candle

	mu    sync.Mutex
	calls []string
}

func (f *fakeMarketApi) GetQuote(_ context.Context, symbol string) (model.Quote, error) {
	f.mu.Lock()
	f.calls = append(f.calls, symbol)
	f.mu.Unlock()

	if err, ok := f.errs[symbol]; ok {
		return model.Quote{}, err
	}
	quote, ok := f.quotes[symbol]
	if !ok {
		return model.Quote{}, externalApi.ErrNotFound
	}
	return quote, nil
}

func (f *fakeMarketApi) GetDailyCloses(_ context.Context, symbol, _ string) ([]model.Candle, error) {
	if err, ok := f.errs[symbol]; ok {
		return nil, err
	}
	return f.candles[symbol], nil
}

type fakeCache struct {
	mu     sync.Mutex
	quotes map[string]model.Quote
	stored chan model.Quote
}

func newFakeCache() *fakeCache {
	return &fakeCache{quotes: make(map[string]model.Quote), stored: make(chan model.Quote, 16)}
}

func (f *fakeCache) GetQuote(_ context.Context, symbol string) (model.Quote, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	quote, ok := f.quotes[symbol]
	if !ok {
		return model.Quote{}, errors.New("cache miss")
	}
	return quote, nil
}

func (f *fakeCache) SetQuote(_ context.Context, quote model.Quote) error {
	f.mu.Lock()
	f.quotes[quote.Symbol] = quote
	f.mu.Unlock()
	f.stored <- quote
	return nil
}

func (f *fakeCache) SetQuotes(_ context.Context, quotes []model.Quote) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, quote := range quotes {
		f.quotes[quote.Symbol] = quote
	}
	return nil
}

func testCfg() *config.Config {
	return &config.Config{
		Ledger: config.Ledger{
			QuoteCurrency:  "ILS",
			FxPairSymbol:   "ILS=X",
			FallbackFxRate: d("3.6"),
		},
	}
}

func TestQuote_CacheHitSkipsApi(t *testing.T) {
	api := &fakeMarketApi{}
	cache := newFakeCache()
	cache.quotes["AAPL"] = model.Quote{Symbol: "AAPL", Currency: "USD", Price: d("230")}

	adapter := New(testCfg(), api, cache)

	quote, err := adapter.Quote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !quote.Price.Equal(d("230")) {
		t.Errorf("price = %s, want 230", quote.Price)
	}
	if len(api.calls) != 0 {
		t.Errorf("api called on cache hit: %v", api.calls)
	}
}

func TestQuote_CacheMissFallsBackToApiAndWritesThrough(t *testing.T) {
	api := &fakeMarketApi{quotes: map[string]model.Quote{
		"AAPL": {Symbol: "AAPL", Currency: "USD", Price: d("230")},
	}}
	cache := newFakeCache()

	adapter := New(testCfg(), api, cache)

	quote, err := adapter.Quote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !quote.Price.Equal(d("230")) {
		t.Errorf("price = %s, want 230", quote.Price)
	}

	select {
	case stored := <-cache.stored:
		if stored.Symbol != "AAPL" {
			t.Errorf("cached symbol = %s, want AAPL", stored.Symbol)
		}
	case <-time.After(time.Second):
		t.Errorf("quote was not written through to the cache")
	}
}

func TestQuote_UnknownSymbol(t *testing.T) {
	adapter := New(testCfg(), &fakeMarketApi{}, newFakeCache())

	_, err := adapter.Quote(context.Background(), "NOPE")
	if !errors.Is(err, ErrUnknownSymbol) {
		t.Fatalf("err = %v, want ErrUnknownSymbol", err)
	}
}

func TestQuote_ApiFailurePassedThrough(t *testing.T) {
	apiErr := errors.New("upstream 500")
	api := &fakeMarketApi{errs: map[string]error{"AAPL": apiErr}}

	adapter := New(testCfg(), api, newFakeCache())

	_, err := adapter.Quote(context.Background(), "AAPL")
	if !errors.Is(err, apiErr) {
		t.Fatalf("err = %v, want the api error", err)
	}
}

func TestFxRate(t *testing.T) {
	tests := []struct {
		name string
		api  *fakeMarketApi
		want string
	}{
		{
			name: "live rate",
			api: &fakeMarketApi{quotes: map[string]model.Quote{
				"ILS=X": {Symbol: "ILS=X", Currency: "ILS", Price: d("3.72")},
			}},
			want: "3.72",
		},
		{
			name: "lookup failure falls back",
			api:  &fakeMarketApi{errs: map[string]error{"ILS=X": errors.New("upstream down")}},
			want: "3.6",
		},
		{
			name: "zero rate falls back",
			api: &fakeMarketApi{quotes: map[string]model.Quote{
				"ILS=X": {Symbol: "ILS=X", Currency: "ILS", Price: decimal.Zero},
			}},
			want: "3.6",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adapter := New(testCfg(), tt.api, newFakeCache())
			if got := adapter.FxRate(context.Background()); !got.Equal(d(tt.want)) {
				t.Errorf("FxRate() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestWarmCache_SkipsFailedSymbols(t *testing.T) {
	api := &fakeMarketApi{
		quotes: map[string]model.Quote{
			"AAPL": {Symbol: "AAPL", Currency: "USD", Price: d("230")},
			"TEVA": {Symbol: "TEVA", Currency: "USD", Price: d("17")},
		},
		errs: map[string]error{"BAD": errors.New("upstream down")},
	}
	cache := newFakeCache()

	adapter := New(testCfg(), api, cache)

	if err := adapter.WarmCache(context.Background(), []string{"AAPL", "BAD", "TEVA"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(cache.quotes) != 2 {
		t.Errorf("cached %d quotes, want 2: %v", len(cache.quotes), cache.quotes)
	}
	if _, ok := cache.quotes["BAD"]; ok {
		t.Errorf("failed symbol ended up in the cache")
	}
}

func TestHistoricalWindow(t *testing.T) {
	day := func(i int) time.Time { return time.Date(2026, time.March, i, 0, 0, 0, 0, time.UTC) }

	candles := make([]model.Candle, 0, 10)
	for i := 1; i <= 10; i++ {
		candles = append(candles, model.Candle{Date: day(i), Close: decimal.NewFromInt(int64(100 + i))})
	}

	api := &fakeMarketApi{
		candles: map[string][]model.Candle{"AAPL": candles},
		errs:    map[string]error{"BAD": errors.New("upstream down")},
	}

	adapter := New(testCfg(), api, newFakeCache())

	got := adapter.HistoricalWindow(context.Background(), "AAPL", 3)
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if !got[0].Date.Equal(day(8)) || !got[2].Date.Equal(day(10)) {
		t.Errorf("window not trimmed to the most recent days: %v", got)
	}

	if got := adapter.HistoricalWindow(context.Background(), "AAPL", 30); len(got) != 10 {
		t.Errorf("short series: len = %d, want all 10", len(got))
	}

	if got := adapter.HistoricalWindow(context.Background(), "BAD", 3); got != nil {
		t.Errorf("failure should degrade to nil, got %v", got)
	}
}
