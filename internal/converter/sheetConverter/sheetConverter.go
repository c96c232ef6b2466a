package sheetConverter

import (
	"encoding/json"
	"log/slog"
	"time"

	"classbourse/internal/model"
	"classbourse/internal/model/sheetModel"
	"github.com/shopspring/decimal"
)

// RowToPortfolio decodes one sheet row into a portfolio. The sheet has
// no schema enforcement, so every field degrades independently: a
// malformed cash cell becomes zero, malformed stocks/history cells
// become empty collections. The row as a whole is never discarded.
func RowToPortfolio(row sheetModel.Row) *model.Portfolio {
	cash, err := decimal.NewFromString(row.Cash)
	if err != nil || cash.IsNegative() {
		slog.Warn("malformed cash cell, defaulting to zero", slog.String("username", row.Username), slog.String("cash", row.Cash))
		cash = decimal.Zero
	}

	portfolio := &model.Portfolio{
		Username:  row.Username,
		Cash:      cash,
		Positions: make(map[string]model.Position),
		History:   make([]model.Transaction, 0),
	}

	if row.Stocks != "" {
		stocks := map[string]sheetModel.Position{}
		if err := json.Unmarshal([]byte(row.Stocks), &stocks); err != nil {
			slog.Warn("malformed stocks cell, defaulting to empty", slog.String("username", row.Username), slog.String("err", err.Error()))
		} else {
			for symbol, pos := range stocks {
				if pos.Shares <= 0 {
					continue
				}
				portfolio.Positions[symbol] = model.Position{Shares: pos.Shares, AvgCost: pos.AvgPrice}
			}
		}
	}

	if row.History != "" {
		history := []sheetModel.Transaction{}
		if err := json.Unmarshal([]byte(row.History), &history); err != nil {
			slog.Warn("malformed history cell, defaulting to empty", slog.String("username", row.Username), slog.String("err", err.Error()))
		} else {
			for _, tx := range history {
				portfolio.History = append(portfolio.History, transactionToModel(tx))
			}
		}
	}

	return portfolio
}

// PortfolioToRow serializes a portfolio back into the sheet schema.
func PortfolioToRow(portfolio *model.Portfolio) (sheetModel.Row, error) {
	stocks := make(map[string]sheetModel.Position, len(portfolio.Positions))
	for symbol, pos := range portfolio.Positions {
		stocks[symbol] = sheetModel.Position{Shares: pos.Shares, AvgPrice: pos.AvgCost}
	}

	stocksJson, err := json.Marshal(stocks)
	if err != nil {
		return sheetModel.Row{}, err
	}

	history := make([]sheetModel.Transaction, 0, len(portfolio.History))
	for _, tx := range portfolio.History {
		history = append(history, transactionToSheet(tx))
	}

	historyJson, err := json.Marshal(history)
	if err != nil {
		return sheetModel.Row{}, err
	}

	return sheetModel.Row{
		Username: portfolio.Username,
		Cash:     portfolio.Cash.String(),
		Stocks:   string(stocksJson),
		History:  string(historyJson),
	}, nil
}

func transactionToModel(tx sheetModel.Transaction) model.Transaction {
	date, err := time.Parse(time.RFC3339, tx.Date)
	if err != nil {
		// keep the entry, the trade itself is still valid
		slog.Warn("malformed transaction date", slog.String("date", tx.Date))
		date = time.Time{}
	}

	return model.Transaction{
		Date:       date,
		Action:     tx.Action,
		Symbol:     tx.Symbol,
		Shares:     tx.Shares,
		UnitPrice:  tx.Price,
		Commission: tx.Commission,
		Total:      tx.Total,
	}
}

func transactionToSheet(tx model.Transaction) sheetModel.Transaction {
	return sheetModel.Transaction{
		Date:       tx.Date.Format(time.RFC3339),
		Action:     tx.Action,
		Symbol:     tx.Symbol,
		Shares:     tx.Shares,
		Price:      tx.UnitPrice,
		Commission: tx.Commission,
		Total:      tx.Total,
	}
}
