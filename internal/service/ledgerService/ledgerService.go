package ledgerService

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"classbourse/config"
	"classbourse/data/repository/sheetRepo"
	"classbourse/internal/commission"
	"classbourse/internal/model"
	"classbourse/internal/pricing"
	"classbourse/internal/service"
	"classbourse/utils"
	"github.com/shopspring/decimal"
)

type Pricer interface {
	Quote(ctx context.Context, symbol string) (model.Quote, error)
	FxRate(ctx context.Context) decimal.Decimal
	HistoricalWindow(ctx context.Context, symbol string, days int) []model.Candle
	WarmCache(ctx context.Context, symbols []string) error
}

type Repository interface {
	LoadPortfolios(ctx context.Context) (map[string]*model.Portfolio, error)
	SavePortfolios(ctx context.Context, portfolios map[string]*model.Portfolio) error
}

type ReportGenerator interface {
	Generate(ctx context.Context, snapshot model.ValuationSnapshot, history []model.Transaction) (fileBytes []byte, fileExtension string, err error)
}

// LedgerService turns buy/sell requests plus live market prices into
// consistent portfolio state. The portfolio map is the only shared
// mutable resource in the process; mu serializes every mutation and
// every save, so trades against one backend are strictly ordered.
// Saves rewrite the whole store table from the current snapshot.
type LedgerService struct {
	cfg        *config.Config
	repo       Repository
	pricer     Pricer
	commission commission.Policy
	reportGen  ReportGenerator

	mu         sync.Mutex
	portfolios map[string]*model.Portfolio
}

func New(cfg *config.Config, repo Repository, pricer Pricer, reportGen ReportGenerator) *LedgerService {
	return &LedgerService{
		cfg:        cfg,
		repo:       repo,
		pricer:     pricer,
		commission: commission.NewPolicy(cfg.Ledger.CommissionRate, cfg.Ledger.MinCommission),
		reportGen:  reportGen,
		portfolios: make(map[string]*model.Portfolio),
	}
}

// LoadPortfolios reads the store and provisions a default portfolio for
// every configured user missing from it. Called once at startup.
func (s *LedgerService) LoadPortfolios(ctx context.Context) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "LedgerService.LoadPortfolios"

	slog.Debug("LoadPortfolios start", slog.String("rqID", rqID), slog.String("op", op))
	defer func() {
		slog.Debug("LoadPortfolios finished", slog.String("rqID", rqID), slog.String("op", op))
	}()

	portfolios, err := s.repo.LoadPortfolios(ctx)
	if err != nil {
		slog.Error("got error from repo.LoadPortfolios", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return service.ErrStoreUnavailable
	}

	added := sheetRepo.ProvisionMissing(portfolios, s.cfg.Users, func(username string) *model.Portfolio {
		return model.NewPortfolio(username, s.cfg.Ledger.InitialBalance)
	})

	s.mu.Lock()
	s.portfolios = portfolios
	s.mu.Unlock()

	if added {
		if err := s.repo.SavePortfolios(ctx, portfolios); err != nil {
			slog.Error("can't persist provisioned portfolios", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
			return service.ErrStoreUnavailable
		}
	}

	return nil
}

// RefreshPortfolios replaces the in-memory set with the store contents.
// Local unsaved state is discarded, matching the manual refresh action.
func (s *LedgerService) RefreshPortfolios(ctx context.Context) error {
	return s.LoadPortfolios(ctx)
}

func (s *LedgerService) HasUser(username string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.portfolios[username]
	return ok
}

// Buy executes a market buy: quote, convert, fee, apply, persist. Any
// failure before Apply leaves the portfolio untouched. A persistence
// failure is reported as ErrStoreUnavailable together with the
// confirmation: the in-memory trade is kept, durability is best-effort.
func (s *LedgerService) Buy(ctx context.Context, username, symbol string, shares int) (model.TradeConfirmation, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "LedgerService.Buy"

	slog.Debug("Buy start", slog.String("rqID", rqID), slog.String("op", op), slog.String("username", username), slog.String("symbol", symbol), slog.Int("shares", shares))
	defer func() {
		slog.Debug("Buy finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("username", username), slog.String("symbol", symbol))
	}()

	return s.trade(ctx, model.ActionBuy, username, symbol, shares)
}

// Sell is symmetric to Buy using the position's sell path.
func (s *LedgerService) Sell(ctx context.Context, username, symbol string, shares int) (model.TradeConfirmation, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "LedgerService.Sell"

	slog.Debug("Sell start", slog.String("rqID", rqID), slog.String("op", op), slog.String("username", username), slog.String("symbol", symbol), slog.Int("shares", shares))
	defer func() {
		slog.Debug("Sell finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("username", username), slog.String("symbol", symbol))
	}()

	return s.trade(ctx, model.ActionSell, username, symbol, shares)
}

func (s *LedgerService) trade(ctx context.Context, action, username, symbol string, shares int) (model.TradeConfirmation, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "LedgerService.trade"

	// the UI validates quantity too, but never trust it
	if shares <= 0 {
		return model.TradeConfirmation{}, model.ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	portfolio, ok := s.portfolios[username]
	if !ok {
		return model.TradeConfirmation{}, service.ErrUserUnprovisioned
	}

	quote, err := s.pricer.Quote(ctx, symbol)
	if err != nil {
		if errors.Is(err, pricing.ErrUnknownSymbol) {
			return model.TradeConfirmation{}, service.ErrUnknownSymbol
		}
		slog.Error("got error from pricer.Quote", slog.String("rqID", rqID), slog.String("op", op), slog.String("symbol", symbol), slog.String("err", err.Error()))
		return model.TradeConfirmation{}, service.ErrPriceUnavailable
	}

	unitPrice := s.toQuoteCurrency(ctx, quote)
	notional := unitPrice.Mul(decimal.NewFromInt(int64(shares)))
	fee := s.commission.Fee(notional)

	var tx model.Transaction
	if action == model.ActionBuy {
		tx, err = portfolio.ApplyBuy(symbol, shares, unitPrice, fee, time.Now())
	} else {
		tx, err = portfolio.ApplySell(symbol, shares, unitPrice, fee, time.Now())
	}
	if err != nil {
		return model.TradeConfirmation{}, err
	}

	conf := model.TradeConfirmation{
		Action:          tx.Action,
		Symbol:          tx.Symbol,
		Shares:          tx.Shares,
		UnitPriceSource: quote.Price,
		SourceCurrency:  quote.Currency,
		UnitPrice:       tx.UnitPrice,
		Commission:      tx.Commission,
		Total:           tx.Total,
		CashAfter:       portfolio.Cash,
	}

	if err := s.repo.SavePortfolios(ctx, s.portfolios); err != nil {
		slog.Error("trade applied but not persisted", slog.String("rqID", rqID), slog.String("op", op), slog.String("username", username), slog.String("err", err.Error()))
		return conf, service.ErrStoreUnavailable
	}

	return conf, nil
}

// toQuoteCurrency converts a raw market price into the ledger's quote
// currency, rounded to 2 decimal places. Unconverted prices never reach
// a portfolio.
func (s *LedgerService) toQuoteCurrency(ctx context.Context, quote model.Quote) decimal.Decimal {
	if quote.Currency == s.cfg.Ledger.QuoteCurrency {
		return quote.Price.Round(2)
	}
	return quote.Price.Mul(s.pricer.FxRate(ctx)).Round(2)
}

// History returns the most recent transactions, newest first, capped at
// the configured page size.
func (s *LedgerService) History(ctx context.Context, username string) ([]model.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	portfolio, ok := s.portfolios[username]
	if !ok {
		return nil, service.ErrUserUnprovisioned
	}

	return portfolio.RecentHistory(s.cfg.Ledger.HistoryPageSize), nil
}

// Reset reinitializes one user's portfolio to defaults and persists the
// whole table. Used by the teacher at the start of a new round.
func (s *LedgerService) Reset(ctx context.Context, username string) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "LedgerService.Reset"

	slog.Debug("Reset start", slog.String("rqID", rqID), slog.String("op", op), slog.String("username", username))
	defer func() {
		slog.Debug("Reset finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("username", username))
	}()

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.portfolios[username]; !ok {
		return service.ErrUserUnprovisioned
	}

	s.portfolios[username] = model.NewPortfolio(username, s.cfg.Ledger.InitialBalance)

	if err := s.repo.SavePortfolios(ctx, s.portfolios); err != nil {
		slog.Error("reset applied but not persisted", slog.String("rqID", rqID), slog.String("op", op), slog.String("username", username), slog.String("err", err.Error()))
		return service.ErrStoreUnavailable
	}

	return nil
}

// WarmQuoteCache refreshes cached quotes for every held symbol plus the
// FX pair. Runs as a scheduler job.
func (s *LedgerService) WarmQuoteCache(ctx context.Context) error {
	ctx = utils.CtxWithNewRqID(ctx)
	op := "LedgerService.WarmQuoteCache"

	symbols := s.heldSymbols()
	symbols = append(symbols, s.cfg.Ledger.FxPairSymbol)

	slog.Debug("WarmQuoteCache start", slog.String("op", op), slog.Int("symbols", len(symbols)))

	return s.pricer.WarmCache(ctx, symbols)
}

func (s *LedgerService) heldSymbols() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	seen := make(map[string]struct{})
	for _, portfolio := range s.portfolios {
		for symbol := range portfolio.Positions {
			seen[symbol] = struct{}{}
		}
	}

	symbols := make([]string, 0, len(seen))
	for symbol := range seen {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}

// BuildReport renders the user's current valuation and full history
// into an xlsx workbook.
func (s *LedgerService) BuildReport(ctx context.Context, username string) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "LedgerService.BuildReport"

	slog.Debug("BuildReport start", slog.String("rqID", rqID), slog.String("op", op), slog.String("username", username))
	defer func() {
		slog.Debug("BuildReport finished", slog.String("rqID", rqID), slog.String("op", op), slog.String("username", username))
	}()

	snapshot, err := s.Valuation(ctx, username)
	if err != nil {
		return nil, "", err
	}

	s.mu.Lock()
	portfolio, ok := s.portfolios[username]
	var history []model.Transaction
	if ok {
		history = make([]model.Transaction, len(portfolio.History))
		copy(history, portfolio.History)
	}
	s.mu.Unlock()

	if !ok {
		return nil, "", service.ErrUserUnprovisioned
	}

	return s.reportGen.Generate(ctx, snapshot, history)
}
