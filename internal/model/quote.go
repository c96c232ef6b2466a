package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Quote is the latest known price of an instrument in its source
// currency. Prices must be converted to the quote currency before they
// reach a Portfolio.
type Quote struct {
	Symbol   string          `json:"symbol"`
	Currency string          `json:"currency"`
	Price    decimal.Decimal `json:"price"`
}

// Candle is one point of a daily close series, source currency.
type Candle struct {
	Date  time.Time
	Close decimal.Decimal
}
