package sheetsApi

import (
	"context"
	"fmt"
	"log/slog"

	"classbourse/config"
	"classbourse/utils"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// SheetsApi wraps the shared portfolios spreadsheet. The sheet has no
// incremental update API worth using here: the ledger always rewrites
// the whole table, so only ReadAll and ReplaceAll are exposed.
type SheetsApi struct {
	srv *sheets.Service
	cfg *config.Config
}

func New(ctx context.Context, cfg *config.Config) *SheetsApi {
	srv, err := sheets.NewService(ctx, option.WithCredentialsFile(cfg.Sheets.CredentialsFile))
	if err != nil {
		slog.Error("failed on sheets.NewService")
		panic(err)
	}
	return &SheetsApi{srv: srv, cfg: cfg}
}

// ReadAll returns every row of the sheet, header included, as strings.
func (a *SheetsApi) ReadAll(ctx context.Context) ([][]string, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "SheetsApi.ReadAll"

	slog.Debug("ReadAll start", slog.String("rqID", rqID), slog.String("op", op))

	valueRange, err := a.srv.Spreadsheets.Values.
		Get(a.cfg.Sheets.SpreadsheetID, a.cfg.Sheets.SheetName).
		Context(ctx).
		Do()
	if err != nil {
		slog.Error("failed on reading sheet values", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	rows := make([][]string, 0, len(valueRange.Values))
	for _, rawRow := range valueRange.Values {
		row := make([]string, 0, len(rawRow))
		for _, cell := range rawRow {
			row = append(row, fmt.Sprint(cell))
		}
		rows = append(rows, row)
	}

	slog.Debug("ReadAll completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("rows", len(rows)))

	return rows, nil
}

// ReplaceAll clears the sheet and writes rows from A1. The caller is
// expected to pass the header as the first row.
func (a *SheetsApi) ReplaceAll(ctx context.Context, rows [][]any) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "SheetsApi.ReplaceAll"

	slog.Debug("ReplaceAll start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("rows", len(rows)))

	_, err := a.srv.Spreadsheets.Values.
		Clear(a.cfg.Sheets.SpreadsheetID, a.cfg.Sheets.SheetName, &sheets.ClearValuesRequest{}).
		Context(ctx).
		Do()
	if err != nil {
		slog.Error("failed on clearing sheet", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	valueRange := &sheets.ValueRange{Values: rows}

	_, err = a.srv.Spreadsheets.Values.
		Update(a.cfg.Sheets.SpreadsheetID, a.cfg.Sheets.SheetName+"!A1", valueRange).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		slog.Error("failed on writing sheet values", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	slog.Debug("ReplaceAll completed", slog.String("rqID", rqID), slog.String("op", op))

	return nil
}
