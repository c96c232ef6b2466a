package telegram

import (
	"errors"
	"testing"

	"classbourse/internal/model"
	"classbourse/internal/service"
)

func TestParseOrder(t *testing.T) {
	tests := []struct {
		name       string
		text       string
		wantSymbol string
		wantShares int
		wantErr    bool
	}{
		{name: "plain order", text: "AAPL 2", wantSymbol: "AAPL", wantShares: 2},
		{name: "lowercase symbol is normalized", text: "teva.ta 10", wantSymbol: "TEVA.TA", wantShares: 10},
		{name: "extra whitespace", text: "  AAPL   3  ", wantSymbol: "AAPL", wantShares: 3},
		{name: "missing quantity", text: "AAPL", wantErr: true},
		{name: "too many fields", text: "AAPL 2 now", wantErr: true},
		{name: "non numeric quantity", text: "AAPL two", wantErr: true},
		{name: "zero quantity", text: "AAPL 0", wantErr: true},
		{name: "negative quantity", text: "AAPL -2", wantErr: true},
		{name: "empty input", text: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			symbol, shares, err := parseOrder(tt.text)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("parseOrder(%q) expected an error", tt.text)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseOrder(%q) failed: %v", tt.text, err)
			}
			if symbol != tt.wantSymbol || shares != tt.wantShares {
				t.Errorf("parseOrder(%q) = %s %d, want %s %d", tt.text, symbol, shares, tt.wantSymbol, tt.wantShares)
			}
		})
	}
}

func TestRejectionMessage_CoversEveryTradeError(t *testing.T) {
	known := []error{
		service.ErrUnknownSymbol,
		service.ErrPriceUnavailable,
		service.ErrUserUnprovisioned,
		model.ErrInvalidQuantity,
		model.ErrInsufficientFunds,
		model.ErrNoSuchPosition,
		model.ErrInsufficientShares,
	}

	for _, err := range known {
		if msg := rejectionMessage(err); msg == internalErrMsg {
			t.Errorf("%v should map to a user-facing reason, got the generic message", err)
		}
	}

	if msg := rejectionMessage(errors.New("boom")); msg != internalErrMsg {
		t.Errorf("unexpected error should map to the generic message, got %q", msg)
	}
}
