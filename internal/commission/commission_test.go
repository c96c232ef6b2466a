package commission

import (
	"testing"

	"github.com/shopspring/decimal"
)

func d(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestFee(t *testing.T) {
	policy := NewPolicy(d("0.001"), d("5"))

	tests := []struct {
		name     string
		notional string
		want     string
	}{
		{name: "small order hits the minimum", notional: "200", want: "5"},
		{name: "zero notional hits the minimum", notional: "0", want: "5"},
		{name: "boundary notional equals the minimum", notional: "5000", want: "5"},
		{name: "large order pays proportional fee", notional: "10000", want: "10"},
		{name: "proportional fee rounded to cents", notional: "7777.77", want: "7.78"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := policy.Fee(d(tt.notional))
			if !got.Equal(d(tt.want)) {
				t.Errorf("Fee(%s) = %s, want %s", tt.notional, got, tt.want)
			}
		})
	}
}

func TestFee_ZeroMinimum(t *testing.T) {
	policy := NewPolicy(d("0.002"), decimal.Zero)

	if got := policy.Fee(d("100")); !got.Equal(d("0.2")) {
		t.Errorf("Fee(100) = %s, want 0.2", got)
	}
}
