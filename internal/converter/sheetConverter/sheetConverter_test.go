package sheetConverter

import (
	"testing"
	"time"

	"classbourse/internal/model"
	"classbourse/internal/model/sheetModel"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestPortfolioRowRoundTrip(t *testing.T) {
	date := time.Date(2026, time.February, 10, 9, 30, 0, 0, time.UTC)

	original := &model.Portfolio{
		Username: "yossi",
		Cash:     d("9795.5"),
		Positions: map[string]model.Position{
			"AAPL": {Shares: 2, AvgCost: d("360.75")},
			"TEVA": {Shares: 10, AvgCost: d("55")},
		},
		History: []model.Transaction{
			{Date: date, Action: model.ActionBuy, Symbol: "AAPL", Shares: 2, UnitPrice: d("360.75"), Commission: d("5"), Total: d("726.5")},
		},
	}

	row, err := PortfolioToRow(original)
	if err != nil {
		t.Fatalf("PortfolioToRow failed: %v", err)
	}

	restored := RowToPortfolio(row)

	if restored.Username != original.Username {
		t.Errorf("username = %s, want %s", restored.Username, original.Username)
	}
	if !restored.Cash.Equal(original.Cash) {
		t.Errorf("cash = %s, want %s", restored.Cash, original.Cash)
	}
	if len(restored.Positions) != 2 {
		t.Fatalf("positions count = %d, want 2", len(restored.Positions))
	}
	for symbol, want := range original.Positions {
		got := restored.Positions[symbol]
		if got.Shares != want.Shares || !got.AvgCost.Equal(want.AvgCost) {
			t.Errorf("position %s = %+v, want %+v", symbol, got, want)
		}
	}
	if len(restored.History) != 1 {
		t.Fatalf("history count = %d, want 1", len(restored.History))
	}
	tx := restored.History[0]
	if !tx.Date.Equal(date) || tx.Action != model.ActionBuy || tx.Symbol != "AAPL" ||
		tx.Shares != 2 || !tx.UnitPrice.Equal(d("360.75")) || !tx.Commission.Equal(d("5")) || !tx.Total.Equal(d("726.5")) {
		t.Errorf("restored transaction = %+v", tx)
	}
}

func TestRowToPortfolio_MalformedCellsDegradeIndependently(t *testing.T) {
	tests := []struct {
		name string
		row  sheetModel.Row
	}{
		{name: "garbage cash", row: sheetModel.Row{Username: "u", Cash: "lots", Stocks: "{}", History: "[]"}},
		{name: "negative cash", row: sheetModel.Row{Username: "u", Cash: "-50", Stocks: "{}", History: "[]"}},
		{name: "empty cash", row: sheetModel.Row{Username: "u", Cash: "", Stocks: "{}", History: "[]"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := RowToPortfolio(tt.row)
			if !p.Cash.Equal(decimal.Zero) {
				t.Errorf("cash = %s, want 0", p.Cash)
			}
			if p.Username != "u" {
				t.Errorf("username = %s, want u", p.Username)
			}
		})
	}
}

func TestRowToPortfolio_MalformedStocksAndHistory(t *testing.T) {
	row := sheetModel.Row{
		Username: "u",
		Cash:     "100",
		Stocks:   `{"AAPL": broken`,
		History:  `[{"date": broken`,
	}

	p := RowToPortfolio(row)

	if !p.Cash.Equal(d("100")) {
		t.Errorf("cash = %s, want 100", p.Cash)
	}
	if len(p.Positions) != 0 {
		t.Errorf("positions = %v, want empty", p.Positions)
	}
	if len(p.History) != 0 {
		t.Errorf("history = %v, want empty", p.History)
	}
}

func TestRowToPortfolio_DropsNonPositivePositions(t *testing.T) {
	row := sheetModel.Row{
		Username: "u",
		Cash:     "100",
		Stocks:   `{"AAPL":{"shares":2,"avg_price":"10"},"GHST":{"shares":0,"avg_price":"5"},"NEGV":{"shares":-1,"avg_price":"5"}}`,
	}

	p := RowToPortfolio(row)

	if len(p.Positions) != 1 {
		t.Fatalf("positions = %v, want only AAPL", p.Positions)
	}
	if pos := p.Positions["AAPL"]; pos.Shares != 2 || !pos.AvgCost.Equal(d("10")) {
		t.Errorf("AAPL position = %+v", pos)
	}
}

func TestRowToPortfolio_MalformedDateKeepsTransaction(t *testing.T) {
	row := sheetModel.Row{
		Username: "u",
		Cash:     "100",
		History:  `[{"date":"yesterday-ish","action":"buy","symbol":"AAPL","shares":1,"price":"10","commission":"5","total":"15"}]`,
	}

	p := RowToPortfolio(row)

	if len(p.History) != 1 {
		t.Fatalf("history count = %d, want 1", len(p.History))
	}
	tx := p.History[0]
	if !tx.Date.IsZero() {
		t.Errorf("date = %v, want zero time", tx.Date)
	}
	if tx.Symbol != "AAPL" || !tx.Total.Equal(d("15")) {
		t.Errorf("transaction = %+v", tx)
	}
}
