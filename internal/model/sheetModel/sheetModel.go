package sheetModel

import "github.com/shopspring/decimal"

// Header is the first row of the portfolios sheet. Every save rewrites
// the whole table: header plus one row per user.
var Header = []string{"username", "cash", "stocks", "history"}

// Row is one user's serialized ledger state. Stocks and History are JSON
// documents stored as cell text.
type Row struct {
	Username string
	Cash     string
	Stocks   string
	History  string
}

type Position struct {
	Shares   int             `json:"shares"`
	AvgPrice decimal.Decimal `json:"avg_price"`
}

type Transaction struct {
	Date       string          `json:"date"`
	Action     string          `json:"action"`
	Symbol     string          `json:"symbol"`
	Shares     int             `json:"shares"`
	Price      decimal.Decimal `json:"price"`
	Commission decimal.Decimal `json:"commission"`
	Total      decimal.Decimal `json:"total"`
}
