package telebotConverter

import (
	"fmt"
	"strings"

	"classbourse/internal/model"
)

// Telegram message rendering. Quote-currency amounts are shown with ₪,
// raw market prices with their source currency code.

func TradeConfirmationResponse(conf model.TradeConfirmation) string {
	verb := "Bought"
	if conf.Action == model.ActionSell {
		verb = "Sold"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s %d × %s @ %s %s (%s ₪)\n", verb, conf.Shares, conf.Symbol, conf.UnitPriceSource.StringFixed(2), conf.SourceCurrency, conf.UnitPrice.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("Commission: %s ₪\n", conf.Commission.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("Total: %s ₪\n", conf.Total.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("Cash left: %s ₪", conf.CashAfter.StringFixed(2)))
	return sb.String()
}

func ValuationResponse(snapshot model.ValuationSnapshot) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("📊 Portfolio of %s\n\n", snapshot.Username))
	sb.WriteString(fmt.Sprintf("💵 Cash: %s ₪\n", snapshot.Cash.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("📈 Stocks value: %s ₪\n", snapshot.StocksValue.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("💼 Total equity: %s ₪\n", snapshot.Equity.StringFixed(2)))
	sb.WriteString(fmt.Sprintf("🏁 P&L: %s ₪ (%s%%)\n", signed(snapshot.ProfitLoss.StringFixed(2)), signed(snapshot.ProfitLossPct.StringFixed(2))))
	sb.WriteString(fmt.Sprintf("📅 Today: %s ₪ (%s%%)\n", signed(snapshot.DailyChange.StringFixed(2)), signed(snapshot.DailyChangePct.StringFixed(2))))

	if len(snapshot.Positions) == 0 {
		sb.WriteString("\nNo positions yet. Try /buy")
		return sb.String()
	}

	sb.WriteString("\n📋 Positions:\n")
	for _, pos := range snapshot.Positions {
		if !pos.Priced {
			sb.WriteString(fmt.Sprintf("• %s: %d shares, price unavailable\n", pos.Symbol, pos.Shares))
			continue
		}
		sb.WriteString(fmt.Sprintf(
			"• %s: %d × %s ₪ = %s ₪ (%s ₪ / %s%%)\n",
			pos.Symbol,
			pos.Shares,
			pos.Price.StringFixed(2),
			pos.Value.StringFixed(2),
			signed(pos.Gain.StringFixed(2)),
			signed(pos.GainPct.StringFixed(2)),
		))
	}

	return sb.String()
}

func HistoryResponse(history []model.Transaction) string {
	if len(history) == 0 {
		return "No trades yet"
	}

	var sb strings.Builder
	sb.WriteString("📜 Recent trades (newest first):\n\n")
	for _, tx := range history {
		emoji := "🛒"
		if tx.Action == model.ActionSell {
			emoji = "💸"
		}
		sb.WriteString(fmt.Sprintf(
			"%s %s %s: %d × %s ₪, fee %s ₪, total %s ₪ (%s)\n",
			emoji,
			tx.Action,
			tx.Symbol,
			tx.Shares,
			tx.UnitPrice.StringFixed(2),
			tx.Commission.StringFixed(2),
			tx.Total.StringFixed(2),
			tx.Date.Format("02/01/2006 15:04"),
		))
	}
	return sb.String()
}

func PerformanceResponse(perf model.PerformanceWindow) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("📈 %s performance:\n", perf.Symbol))

	rendered := false
	if perf.Daily.Valid {
		sb.WriteString(fmt.Sprintf("• daily: %s%%\n", signed(perf.Daily.Decimal.StringFixed(2))))
		rendered = true
	}
	if perf.Weekly.Valid {
		sb.WriteString(fmt.Sprintf("• weekly: %s%%\n", signed(perf.Weekly.Decimal.StringFixed(2))))
		rendered = true
	}
	if perf.Monthly.Valid {
		sb.WriteString(fmt.Sprintf("• monthly: %s%%\n", signed(perf.Monthly.Decimal.StringFixed(2))))
		rendered = true
	}

	if !rendered {
		sb.WriteString("not enough price history")
	}

	return sb.String()
}

func signed(s string) string {
	if strings.HasPrefix(s, "-") {
		return s
	}
	return "+" + s
}
