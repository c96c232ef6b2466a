package ledgerService

import (
	"context"
	"log/slog"
	"sort"

	"classbourse/internal/model"
	"classbourse/internal/service"
	"classbourse/utils"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Valuation computes the current equity view from live prices. A failed
// price lookup excludes that position from the sums and flags it in the
// view instead of failing the whole valuation.
func (s *LedgerService) Valuation(ctx context.Context, username string) (model.ValuationSnapshot, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "LedgerService.Valuation"

	slog.Debug("Valuation start", slog.String("rqID", rqID), slog.String("op", op), slog.String("username", username))
	defer func() {
		slog.Debug("Valuation finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("username", username))
	}()

	cash, positions, err := s.positionsSnapshot(username)
	if err != nil {
		return model.ValuationSnapshot{}, err
	}

	snapshot := model.ValuationSnapshot{
		Username:  username,
		Cash:      cash,
		Positions: make([]model.PositionView, 0, len(positions)),
	}

	fx := s.pricer.FxRate(ctx)
	yesterdayStocksValue := decimal.Zero

	for _, held := range positions {
		view := model.PositionView{
			Symbol:  held.symbol,
			Shares:  held.pos.Shares,
			AvgCost: held.pos.AvgCost,
		}

		quote, err := s.pricer.Quote(ctx, held.symbol)
		if err != nil {
			// value temporarily unknown, keep the rest of the portfolio usable
			slog.Warn("price lookup failed, excluding position from equity", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", held.symbol), slog.String("err", err.Error()))
			snapshot.Positions = append(snapshot.Positions, view)
			continue
		}

		qty := decimal.NewFromInt(int64(held.pos.Shares))
		price := s.convert(quote.Price, quote.Currency, fx)

		view.Priced = true
		view.Price = price
		view.Value = price.Mul(qty)

		cost := held.pos.AvgCost.Mul(qty)
		view.Gain = view.Value.Sub(cost)
		if cost.IsPositive() {
			view.GainPct = view.Gain.Div(cost).Mul(hundred).Round(2)
		}

		snapshot.StocksValue = snapshot.StocksValue.Add(view.Value)
		snapshot.Positions = append(snapshot.Positions, view)

		prevClose := s.previousClose(ctx, held.symbol, quote.Currency, price, fx)
		yesterdayStocksValue = yesterdayStocksValue.Add(prevClose.Mul(qty))
	}

	snapshot.Equity = snapshot.Cash.Add(snapshot.StocksValue)

	initial := s.cfg.Ledger.InitialBalance
	snapshot.ProfitLoss = snapshot.Equity.Sub(initial)
	if initial.IsPositive() {
		snapshot.ProfitLossPct = snapshot.ProfitLoss.Div(initial).Mul(hundred).Round(2)
	}

	yesterdayEquity := snapshot.Cash.Add(yesterdayStocksValue)
	snapshot.DailyChange = snapshot.Equity.Sub(yesterdayEquity)
	if yesterdayEquity.IsPositive() {
		snapshot.DailyChangePct = snapshot.DailyChange.Div(yesterdayEquity).Mul(hundred).Round(2)
	}

	return snapshot, nil
}

type heldPosition struct {
	symbol string
	pos    model.Position
}

// positionsSnapshot copies one portfolio's state under lock so pricing
// calls run without blocking trades.
func (s *LedgerService) positionsSnapshot(username string) (decimal.Decimal, []heldPosition, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	portfolio, ok := s.portfolios[username]
	if !ok {
		return decimal.Zero, nil, service.ErrUserUnprovisioned
	}

	positions := make([]heldPosition, 0, len(portfolio.Positions))
	for symbol, pos := range portfolio.Positions {
		positions = append(positions, heldPosition{symbol: symbol, pos: pos})
	}
	sort.Slice(positions, func(i, j int) bool { return positions[i].symbol < positions[j].symbol })

	return portfolio.Cash, positions, nil
}

func (s *LedgerService) convert(price decimal.Decimal, currency string, fx decimal.Decimal) decimal.Decimal {
	if currency == s.cfg.Ledger.QuoteCurrency {
		return price.Round(2)
	}
	return price.Mul(fx).Round(2)
}

// previousClose returns yesterday's close in the quote currency,
// falling back to today's price when a 2-point series is unavailable.
func (s *LedgerService) previousClose(ctx context.Context, symbol, currency string, todayPrice, fx decimal.Decimal) decimal.Decimal {
	candles := s.pricer.HistoricalWindow(ctx, symbol, 2)
	if len(candles) < 2 {
		return todayPrice
	}
	return s.convert(candles[len(candles)-2].Close, currency, fx)
}

// PerformanceWindow reports percent price changes for one symbol over
// the standard windows. A window is omitted when the close series is
// too short; partial results are normal, not errors.
func (s *LedgerService) PerformanceWindow(ctx context.Context, symbol string) model.PerformanceWindow {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "LedgerService.PerformanceWindow"

	slog.Debug("PerformanceWindow start", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
	defer func() {
		slog.Debug("PerformanceWindow finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol))
	}()

	perf := model.PerformanceWindow{Symbol: symbol}

	candles := s.pricer.HistoricalWindow(ctx, symbol, 30)
	if len(candles) == 0 {
		return perf
	}

	last := candles[len(candles)-1].Close

	if len(candles) >= 2 {
		perf.Daily = pctChange(candles[len(candles)-2].Close, last)
	}
	if len(candles) >= 5 {
		perf.Weekly = pctChange(candles[len(candles)-5].Close, last)
	}
	if len(candles) >= 20 {
		perf.Monthly = pctChange(candles[len(candles)-20].Close, last)
	}

	return perf
}

func pctChange(from, to decimal.Decimal) decimal.NullDecimal {
	if from.IsZero() {
		return decimal.NullDecimal{}
	}
	change := to.Sub(from).Div(from).Mul(hundred).Round(2)
	return decimal.NullDecimal{Decimal: change, Valid: true}
}
