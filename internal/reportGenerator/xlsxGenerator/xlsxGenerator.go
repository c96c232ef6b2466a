package xlsxGenerator

import (
	"context"
	"fmt"
	"log/slog"

	"classbourse/internal/model"
	"classbourse/utils"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Portfolio"

type XLSXGenerator struct{}

func New() *XLSXGenerator {
	return &XLSXGenerator{}
}

// Generate renders a valuation snapshot plus the full transaction
// history into a single-sheet workbook.
func (g *XLSXGenerator) Generate(ctx context.Context, snapshot model.ValuationSnapshot, history []model.Transaction) (fileBytes []byte, fileExtension string, err error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "XLSXGenerator.Generate"

	slog.Debug("Generate start", slog.String("rqID", rqID), slog.String("op", op), slog.String("username", snapshot.Username))

	f := excelize.NewFile()
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("got error while closing file", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		}
	}()

	if err := f.SetSheetName("Sheet1", sheetName); err != nil {
		return nil, "", err
	}

	if err := g.fillSummary(f, snapshot); err != nil {
		slog.Error("got error while filling summary", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	positionsEnd, err := g.fillPositions(f, snapshot)
	if err != nil {
		slog.Error("got error while filling positions", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	if err := g.fillHistory(f, history, positionsEnd+2); err != nil {
		slog.Error("got error while filling history", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		slog.Error("got error while saving file to bytes buffer", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, "", err
	}

	slog.Debug("Generate completed", slog.String("rqID", rqID), slog.String("op", op))

	return buf.Bytes(), ".xlsx", nil
}

func (g *XLSXGenerator) headerStyle(f *excelize.File, color string) (int, error) {
	return f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{
			Horizontal: "center",
			Vertical:   "center",
		},
		Font: &excelize.Font{
			Bold: true,
			Size: 11,
		},
		Fill: excelize.Fill{
			Type:    "pattern",
			Pattern: 1,
			Color:   []string{color},
		},
	})
}

func (g *XLSXGenerator) sectionHeader(f *excelize.File, fromCell, toCell, title, color string) error {
	if err := f.MergeCell(sheetName, fromCell, toCell); err != nil {
		return err
	}

	f.SetCellValue(sheetName, fromCell, title)

	styleID, err := g.headerStyle(f, color)
	if err != nil {
		return err
	}

	return f.SetCellStyle(sheetName, fromCell, fromCell, styleID)
}

func (g *XLSXGenerator) fillSummary(f *excelize.File, snapshot model.ValuationSnapshot) error {
	if err := g.sectionHeader(f, "A1", "B1", "Summary: "+snapshot.Username, "#cfe2f3"); err != nil {
		return err
	}

	_ = f.SetCellStr(sheetName, "A2", "cash")
	_ = f.SetCellStr(sheetName, "A3", "stocks value")
	_ = f.SetCellStr(sheetName, "A4", "total equity")
	_ = f.SetCellStr(sheetName, "A5", "profit/loss")
	_ = f.SetCellStr(sheetName, "A6", "profit/loss %")
	_ = f.SetCellStr(sheetName, "A7", "daily change")

	_ = f.SetCellValue(sheetName, "B2", snapshot.Cash.InexactFloat64())
	_ = f.SetCellValue(sheetName, "B3", snapshot.StocksValue.InexactFloat64())
	_ = f.SetCellValue(sheetName, "B4", snapshot.Equity.InexactFloat64())
	_ = f.SetCellValue(sheetName, "B5", snapshot.ProfitLoss.InexactFloat64())
	_ = f.SetCellValue(sheetName, "B6", snapshot.ProfitLossPct.InexactFloat64())
	_ = f.SetCellValue(sheetName, "B7", snapshot.DailyChange.InexactFloat64())

	return nil
}

func (g *XLSXGenerator) fillPositions(f *excelize.File, snapshot model.ValuationSnapshot) (lastRow int, err error) {
	const headerRow = 9

	if err := g.sectionHeader(f, fmt.Sprintf("A%d", headerRow), fmt.Sprintf("G%d", headerRow), "Positions", "#d9ead3"); err != nil {
		return 0, err
	}

	_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", headerRow+1), "symbol")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("B%d", headerRow+1), "shares")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("C%d", headerRow+1), "avg cost")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("D%d", headerRow+1), "price")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("E%d", headerRow+1), "value")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("F%d", headerRow+1), "gain")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("G%d", headerRow+1), "gain %")

	row := headerRow + 1
	for _, pos := range snapshot.Positions {
		row++
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", row), pos.Symbol)
		_ = f.SetCellInt(sheetName, fmt.Sprintf("B%d", row), int(pos.Shares))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), pos.AvgCost.InexactFloat64())

		if !pos.Priced {
			_ = f.SetCellStr(sheetName, fmt.Sprintf("D%d", row), "n/a")
			continue
		}

		_ = f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), pos.Price.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), pos.Value.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), pos.Gain.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), pos.GainPct.InexactFloat64())
	}

	return row, nil
}

func (g *XLSXGenerator) fillHistory(f *excelize.File, history []model.Transaction, headerRow int) error {
	if err := g.sectionHeader(f, fmt.Sprintf("A%d", headerRow), fmt.Sprintf("G%d", headerRow), "Transaction history", "#f9cb9c"); err != nil {
		return err
	}

	_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", headerRow+1), "date")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("B%d", headerRow+1), "action")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("C%d", headerRow+1), "symbol")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("D%d", headerRow+1), "shares")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("E%d", headerRow+1), "unit price")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("F%d", headerRow+1), "commission")
	_ = f.SetCellStr(sheetName, fmt.Sprintf("G%d", headerRow+1), "total")

	row := headerRow + 1
	for _, tx := range history {
		row++
		_ = f.SetCellStr(sheetName, fmt.Sprintf("A%d", row), tx.Date.Format("2006-01-02 15:04"))
		_ = f.SetCellStr(sheetName, fmt.Sprintf("B%d", row), tx.Action)
		_ = f.SetCellStr(sheetName, fmt.Sprintf("C%d", row), tx.Symbol)
		_ = f.SetCellInt(sheetName, fmt.Sprintf("D%d", row), int(tx.Shares))
		_ = f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), tx.UnitPrice.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("F%d", row), tx.Commission.InexactFloat64())
		_ = f.SetCellValue(sheetName, fmt.Sprintf("G%d", row), tx.Total.InexactFloat64())
	}

	return nil
}
