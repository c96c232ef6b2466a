package pricing

import (
	"context"
	"errors"
	"log/slog"

	"classbourse/config"
	"classbourse/internal/externalApi"
	"classbourse/internal/model"
	"classbourse/utils"
	"github.com/shopspring/decimal"
)

type MarketApi interface {
	GetQuote(ctx context.Context, symbol string) (model.Quote, error)
	GetDailyCloses(ctx context.Context, symbol, rng string) ([]model.Candle, error)
}

type Cache interface {
	GetQuote(ctx context.Context, symbol string) (model.Quote, error)
	SetQuote(ctx context.Context, quote model.Quote) error
	SetQuotes(ctx context.Context, quotes []model.Quote) error
}

var ErrUnknownSymbol = errors.New("error unknown symbol")

// Adapter is the single entry point for market prices. A quote failure
// is fatal to the requesting trade, but an FX failure only degrades to
// the configured fallback rate: trading must not halt because the
// currency pair lookup is down.
type Adapter struct {
	api   MarketApi
	cache Cache
	cfg   *config.Config
}

func New(cfg *config.Config, api MarketApi, cache Cache) *Adapter {
	return &Adapter{api: api, cache: cache, cfg: cfg}
}

// Quote returns the latest price for symbol in its source currency.
// Returns ErrUnknownSymbol when the provider does not know the symbol;
// any other failure is returned as-is and means "price unavailable".
func (a *Adapter) Quote(ctx context.Context, symbol string) (model.Quote, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "pricing.Adapter.Quote"

	quote, err := a.cache.GetQuote(ctx, symbol)
	if err == nil {
		return quote, nil
	}

	quote, err = a.api.GetQuote(ctx, symbol)
	if err != nil {
		if errors.Is(err, externalApi.ErrNotFound) {
			slog.Warn("symbol not found in market api", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
			return model.Quote{}, ErrUnknownSymbol
		}
		slog.Error("can't get quote from market api", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol), slog.String("err", err.Error()))
		return model.Quote{}, err
	}

	go a.cache.SetQuote(context.WithoutCancel(ctx), quote)

	return quote, nil
}

// FxRate returns the source→quote currency conversion rate. Never fails:
// on any lookup problem the configured fallback rate is used.
func (a *Adapter) FxRate(ctx context.Context) decimal.Decimal {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "pricing.Adapter.FxRate"

	quote, err := a.Quote(ctx, a.cfg.Ledger.FxPairSymbol)
	if err != nil || quote.Price.IsZero() {
		slog.Warn(
			"fx rate unavailable, using fallback",
			slog.String("rqID", rqID),
			slog.String("op", op),
			slog.String("pair", a.cfg.Ledger.FxPairSymbol),
			slog.String("fallback", a.cfg.Ledger.FallbackFxRate.String()),
		)
		return a.cfg.Ledger.FallbackFxRate
	}

	return quote.Price
}

// WarmCache fetches fresh quotes from the provider for all symbols and
// caches them in one batch. Symbols the provider rejects are skipped.
func (a *Adapter) WarmCache(ctx context.Context, symbols []string) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "pricing.Adapter.WarmCache"

	quotes := make([]model.Quote, 0, len(symbols))
	for _, symbol := range symbols {
		quote, err := a.api.GetQuote(ctx, symbol)
		if err != nil {
			slog.Warn("skipping symbol while warming cache", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol), slog.String("err", err.Error()))
			continue
		}
		quotes = append(quotes, quote)
	}

	if len(quotes) == 0 {
		return nil
	}

	return a.cache.SetQuotes(ctx, quotes)
}

// HistoricalWindow returns up to the last days daily closes for symbol,
// oldest first. Degrades to an empty slice on any failure; performance
// figures are optional enrichment, not trade input.
func (a *Adapter) HistoricalWindow(ctx context.Context, symbol string, days int) []model.Candle {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "pricing.Adapter.HistoricalWindow"

	rng := "1mo"
	switch {
	case days <= 5:
		rng = "5d"
	case days > 22:
		rng = "3mo"
	}

	candles, err := a.api.GetDailyCloses(ctx, symbol, rng)
	if err != nil {
		slog.Warn("can't get daily closes", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol), slog.String("err", err.Error()))
		return nil
	}

	if len(candles) > days {
		candles = candles[len(candles)-days:]
	}

	return candles
}
