package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ActionBuy  = "buy"
	ActionSell = "sell"
)

// Position is a held lot of a single symbol. AvgCost is the
// volume-weighted acquisition cost per share in the quote currency;
// it is recomputed on buys and untouched by sells.
type Position struct {
	Shares  int
	AvgCost decimal.Decimal
}

// Transaction is an immutable history entry. UnitPrice, Commission and
// Total are always in the quote currency.
type Transaction struct {
	Date       time.Time
	Action     string
	Symbol     string
	Shares     int
	UnitPrice  decimal.Decimal
	Commission decimal.Decimal
	Total      decimal.Decimal
}

// Portfolio is one user's ledger state. Cash never goes negative:
// ApplyBuy and ApplySell validate before mutating, so a failed trade
// leaves the portfolio untouched.
type Portfolio struct {
	Username  string
	Cash      decimal.Decimal
	Positions map[string]Position
	History   []Transaction
}

func NewPortfolio(username string, initialBalance decimal.Decimal) *Portfolio {
	return &Portfolio{
		Username:  username,
		Cash:      initialBalance,
		Positions: make(map[string]Position),
		History:   make([]Transaction, 0),
	}
}

// ApplyBuy debits shares×unitPrice+fee and updates the position with a
// volume-weighted average cost. unitPrice and fee must already be in the
// quote currency.
func (p *Portfolio) ApplyBuy(symbol string, shares int, unitPrice, fee decimal.Decimal, at time.Time) (Transaction, error) {
	if shares <= 0 {
		return Transaction{}, ErrInvalidQuantity
	}

	qty := decimal.NewFromInt(int64(shares))
	total := unitPrice.Mul(qty).Add(fee)

	if p.Cash.LessThan(total) {
		return Transaction{}, ErrInsufficientFunds
	}

	p.Cash = p.Cash.Sub(total)

	pos, ok := p.Positions[symbol]
	if ok {
		oldQty := decimal.NewFromInt(int64(pos.Shares))
		newQty := decimal.NewFromInt(int64(pos.Shares + shares))
		pos.AvgCost = oldQty.Mul(pos.AvgCost).Add(qty.Mul(unitPrice)).Div(newQty)
		pos.Shares += shares
	} else {
		pos = Position{Shares: shares, AvgCost: unitPrice}
	}
	p.Positions[symbol] = pos

	tx := Transaction{
		Date:       at,
		Action:     ActionBuy,
		Symbol:     symbol,
		Shares:     shares,
		UnitPrice:  unitPrice,
		Commission: fee,
		Total:      total,
	}
	p.History = append(p.History, tx)

	return tx, nil
}

// ApplySell credits shares×unitPrice−fee and decrements the position,
// removing it entirely at zero shares. The average cost of the remaining
// shares is unaffected.
func (p *Portfolio) ApplySell(symbol string, shares int, unitPrice, fee decimal.Decimal, at time.Time) (Transaction, error) {
	if shares <= 0 {
		return Transaction{}, ErrInvalidQuantity
	}

	pos, ok := p.Positions[symbol]
	if !ok {
		return Transaction{}, ErrNoSuchPosition
	}

	if shares > pos.Shares {
		return Transaction{}, ErrInsufficientShares
	}

	qty := decimal.NewFromInt(int64(shares))
	total := unitPrice.Mul(qty).Sub(fee)

	// proceeds can go negative when the fee exceeds the notional
	if p.Cash.Add(total).IsNegative() {
		return Transaction{}, ErrInsufficientFunds
	}

	p.Cash = p.Cash.Add(total)

	pos.Shares -= shares
	if pos.Shares == 0 {
		delete(p.Positions, symbol)
	} else {
		p.Positions[symbol] = pos
	}

	tx := Transaction{
		Date:       at,
		Action:     ActionSell,
		Symbol:     symbol,
		Shares:     shares,
		UnitPrice:  unitPrice,
		Commission: fee,
		Total:      total,
	}
	p.History = append(p.History, tx)

	return tx, nil
}

// RecentHistory returns up to limit transactions, newest first.
func (p *Portfolio) RecentHistory(limit int) []Transaction {
	if limit <= 0 || len(p.History) == 0 {
		return nil
	}

	start := len(p.History) - limit
	if start < 0 {
		start = 0
	}

	recent := make([]Transaction, 0, len(p.History)-start)
	for i := len(p.History) - 1; i >= start; i-- {
		recent = append(recent, p.History[i])
	}
	return recent
}
