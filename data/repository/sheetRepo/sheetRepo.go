package sheetRepo

import (
	"context"
	"log/slog"
	"sort"

	"classbourse/internal/converter/sheetConverter"
	"classbourse/internal/model"
	"classbourse/internal/model/sheetModel"
	"classbourse/utils"
)

// Store is the durable flat-table contract: read everything, replace
// everything. There are no transactions and no partial updates, so a
// save from one process can clobber a concurrent save from another.
// That window is a known limitation of the shared-sheet design; it is
// acceptable for a single backend process serving classroom sessions.
type Store interface {
	ReadAll(ctx context.Context) ([][]string, error)
	ReplaceAll(ctx context.Context, rows [][]any) error
}

// SheetRepo maps the in-memory portfolio set to and from sheet rows.
type SheetRepo struct {
	store Store
}

func New(store Store) *SheetRepo {
	return &SheetRepo{store: store}
}

// LoadPortfolios reads the whole table. Each row is parsed defensively:
// malformed cells degrade to per-field defaults instead of dropping the
// row or failing the load.
func (r *SheetRepo) LoadPortfolios(ctx context.Context) (map[string]*model.Portfolio, error) {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "SheetRepo.LoadPortfolios"

	slog.Debug("LoadPortfolios start", slog.String("rqID", rqID), slog.String("op", op))

	rows, err := r.store.ReadAll(ctx)
	if err != nil {
		slog.Error("got error from store.ReadAll", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return nil, err
	}

	portfolios := make(map[string]*model.Portfolio)
	for i, row := range rows {
		if i == 0 {
			continue // header
		}

		if len(row) == 0 || row[0] == "" {
			slog.Warn("skipping row without username", slog.String("rqID", rqID), slog.String("op", op), slog.Int("rowIndex", i))
			continue
		}

		sheetRow := sheetModel.Row{Username: row[0]}
		if len(row) > 1 {
			sheetRow.Cash = row[1]
		}
		if len(row) > 2 {
			sheetRow.Stocks = row[2]
		}
		if len(row) > 3 {
			sheetRow.History = row[3]
		}

		portfolios[sheetRow.Username] = sheetConverter.RowToPortfolio(sheetRow)
	}

	slog.Debug("LoadPortfolios completed", slog.String("rqID", rqID), slog.String("op", op), slog.Int("portfolios", len(portfolios)))

	return portfolios, nil
}

// SavePortfolios rewrites the entire table from the given snapshot.
// Rows are written in username order so consecutive saves produce a
// stable sheet layout.
func (r *SheetRepo) SavePortfolios(ctx context.Context, portfolios map[string]*model.Portfolio) error {
	rqID := utils.GetRequestIDFromCtx(ctx)
	op := "SheetRepo.SavePortfolios"

	slog.Debug("SavePortfolios start", slog.String("rqID", rqID), slog.String("op", op), slog.Int("portfolios", len(portfolios)))

	usernames := make([]string, 0, len(portfolios))
	for username := range portfolios {
		usernames = append(usernames, username)
	}
	sort.Strings(usernames)

	rows := make([][]any, 0, len(portfolios)+1)

	header := make([]any, 0, len(sheetModel.Header))
	for _, h := range sheetModel.Header {
		header = append(header, h)
	}
	rows = append(rows, header)

	for _, username := range usernames {
		row, err := sheetConverter.PortfolioToRow(portfolios[username])
		if err != nil {
			slog.Error("can't serialize portfolio", slog.String("rqID", rqID), slog.String("op", op), slog.String("username", username), slog.String("err", err.Error()))
			return err
		}
		rows = append(rows, []any{row.Username, row.Cash, row.Stocks, row.History})
	}

	err := r.store.ReplaceAll(ctx, rows)
	if err != nil {
		slog.Error("got error from store.ReplaceAll", slog.String("rqID", rqID), slog.String("op", op), slog.String("err", err.Error()))
		return err
	}

	slog.Debug("SavePortfolios completed", slog.String("rqID", rqID), slog.String("op", op))

	return nil
}

// ProvisionMissing creates a fresh default portfolio for every known
// user absent from the loaded set. Returns true when anything was added.
func ProvisionMissing(portfolios map[string]*model.Portfolio, knownUsers []string, newPortfolio func(username string) *model.Portfolio) bool {
	added := false
	for _, username := range knownUsers {
		if _, ok := portfolios[username]; !ok {
			portfolios[username] = newPortfolio(username)
			added = true
		}
	}
	return added
}
