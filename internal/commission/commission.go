package commission

import "github.com/shopspring/decimal"

// Policy maps a notional trade amount to a fee: Rate of the notional,
// but never less than Min. Both in the quote currency.
type Policy struct {
	Rate decimal.Decimal
	Min  decimal.Decimal
}

func NewPolicy(rate, min decimal.Decimal) Policy {
	return Policy{Rate: rate, Min: min}
}

// Fee is pure and total; the result is rounded to 2 decimal places.
func (p Policy) Fee(notional decimal.Decimal) decimal.Decimal {
	fee := notional.Mul(p.Rate).Round(2)
	if fee.LessThan(p.Min) {
		return p.Min
	}
	return fee
}
