package sheetRepo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"classbourse/internal/model"
	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

type fakeStore struct {
	rows     [][]string
	readErr  error
	written  [][]any
	writeErr error
}

func (f *fakeStore) ReadAll(_ context.Context) ([][]string, error) {
	if f.readErr != nil {
		return nil, f.readErr
	}
	return f.rows, nil
}

func (f *fakeStore) ReplaceAll(_ context.Context, rows [][]any) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = rows
	return nil
}

func TestLoadPortfolios(t *testing.T) {
	store := &fakeStore{rows: [][]string{
		{"username", "cash", "stocks", "history"},
		{"alice", "9795", `{"AAPL":{"shares":2,"avg_price":"100"}}`, "[]"},
		{"bob", "10000"}, // short row padded with defaults
		{"", "5000"},     // no username, skipped
		{},
	}}

	repo := New(store)

	portfolios, err := repo.LoadPortfolios(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(portfolios) != 2 {
		t.Fatalf("loaded %d portfolios, want 2", len(portfolios))
	}

	alice := portfolios["alice"]
	if !alice.Cash.Equal(d("9795")) {
		t.Errorf("alice cash = %s, want 9795", alice.Cash)
	}
	if pos := alice.Positions["AAPL"]; pos.Shares != 2 || !pos.AvgCost.Equal(d("100")) {
		t.Errorf("alice AAPL position = %+v", pos)
	}

	bob := portfolios["bob"]
	if !bob.Cash.Equal(d("10000")) || len(bob.Positions) != 0 || len(bob.History) != 0 {
		t.Errorf("bob portfolio = %+v, want cash only", bob)
	}
}

func TestLoadPortfolios_StoreFailure(t *testing.T) {
	readErr := errors.New("quota exceeded")
	repo := New(&fakeStore{readErr: readErr})

	if _, err := repo.LoadPortfolios(context.Background()); !errors.Is(err, readErr) {
		t.Fatalf("err = %v, want the store error", err)
	}
}

func TestSavePortfolios_HeaderFirstThenSortedRows(t *testing.T) {
	store := &fakeStore{}
	repo := New(store)

	portfolios := map[string]*model.Portfolio{
		"zoe":   model.NewPortfolio("zoe", d("10000")),
		"alice": model.NewPortfolio("alice", d("10000")),
		"bob":   model.NewPortfolio("bob", d("10000")),
	}

	if err := repo.SavePortfolios(context.Background(), portfolios); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(store.written) != 4 {
		t.Fatalf("wrote %d rows, want header + 3", len(store.written))
	}
	if fmt.Sprint(store.written[0][0]) != "username" {
		t.Errorf("first row = %v, want the header", store.written[0])
	}

	wantOrder := []string{"alice", "bob", "zoe"}
	for i, username := range wantOrder {
		if got := fmt.Sprint(store.written[i+1][0]); got != username {
			t.Errorf("row %d username = %s, want %s", i+1, got, username)
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	store := &fakeStore{}
	repo := New(store)

	original := model.NewPortfolio("alice", d("10000"))
	if _, err := original.ApplyBuy("AAPL", 2, d("360"), d("5"), time.Now().UTC().Truncate(time.Second)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := repo.SavePortfolios(context.Background(), map[string]*model.Portfolio{"alice": original}); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	// feed the written rows back through the read path
	store.rows = make([][]string, 0, len(store.written))
	for _, row := range store.written {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			cells = append(cells, fmt.Sprint(cell))
		}
		store.rows = append(store.rows, cells)
	}

	restored, err := repo.LoadPortfolios(context.Background())
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	alice := restored["alice"]
	if alice == nil {
		t.Fatalf("alice missing after round trip")
	}
	if !alice.Cash.Equal(original.Cash) {
		t.Errorf("cash = %s, want %s", alice.Cash, original.Cash)
	}
	if pos := alice.Positions["AAPL"]; pos.Shares != 2 || !pos.AvgCost.Equal(d("360")) {
		t.Errorf("position = %+v", pos)
	}
	if len(alice.History) != 1 {
		t.Errorf("history count = %d, want 1", len(alice.History))
	}
}

func TestProvisionMissing(t *testing.T) {
	portfolios := map[string]*model.Portfolio{
		"alice": model.NewPortfolio("alice", d("10000")),
	}

	factory := func(username string) *model.Portfolio {
		return model.NewPortfolio(username, d("10000"))
	}

	added := ProvisionMissing(portfolios, []string{"alice", "bob"}, factory)

	if !added {
		t.Errorf("added = false, want true")
	}
	if len(portfolios) != 2 {
		t.Fatalf("portfolios count = %d, want 2", len(portfolios))
	}
	if portfolios["bob"] == nil || !portfolios["bob"].Cash.Equal(d("10000")) {
		t.Errorf("bob not provisioned with the starting balance")
	}

	if ProvisionMissing(portfolios, []string{"alice", "bob"}, factory) {
		t.Errorf("second run should add nothing")
	}
}
