package model

import "github.com/shopspring/decimal"

// TradeConfirmation is the payload returned to the caller after a
// committed trade. UnitPriceSource is the raw market price; UnitPrice,
// Commission, Total and CashAfter are in the quote currency.
type TradeConfirmation struct {
	Action          string
	Symbol          string
	Shares          int
	UnitPriceSource decimal.Decimal
	SourceCurrency  string
	UnitPrice       decimal.Decimal
	Commission      decimal.Decimal
	Total           decimal.Decimal
	CashAfter       decimal.Decimal
}

// PositionView is a position enriched with live pricing. Priced is false
// when the price lookup failed; such positions contribute nothing to the
// equity sum.
type PositionView struct {
	Symbol  string
	Shares  int
	AvgCost decimal.Decimal
	Price   decimal.Decimal
	Value   decimal.Decimal
	Gain    decimal.Decimal
	GainPct decimal.Decimal
	Priced  bool
}

// ValuationSnapshot is recomputed from live prices on every view, never
// persisted.
type ValuationSnapshot struct {
	Username       string
	Cash           decimal.Decimal
	StocksValue    decimal.Decimal
	Equity         decimal.Decimal
	ProfitLoss     decimal.Decimal
	ProfitLossPct  decimal.Decimal
	DailyChange    decimal.Decimal
	DailyChangePct decimal.Decimal
	Positions      []PositionView
}

// PerformanceWindow holds percent changes over standard windows. Each
// value is valid only when the close series had enough points.
type PerformanceWindow struct {
	Symbol  string
	Daily   decimal.NullDecimal
	Weekly  decimal.NullDecimal
	Monthly decimal.NullDecimal
}
