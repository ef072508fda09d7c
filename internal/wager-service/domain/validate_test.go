package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestCheckAmount(t *testing.T) {
	tests := []struct {
		in      string
		wantErr bool
	}{
		{"10", false},
		{"0.01", false},
		{"12.50", false},
		{"1.500", false}, // zeros à direita não mudam o valor
		{"0", true},
		{"-1", true},
		{"0.004", true},
		{"0.005", true},
		{"12.345", true},
	}
	for _, tt := range tests {
		err := CheckAmount(decimal.RequireFromString(tt.in))
		if tt.wantErr != (err != nil) {
			t.Errorf("CheckAmount(%s) = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if err != nil && !errors.Is(err, ErrInvalidAmount) {
			t.Errorf("CheckAmount(%s) = %v, want ErrInvalidAmount", tt.in, err)
		}
	}
}

func TestOddsScale(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"binding", (&GameBinding{GameType: GameJodi, Odds: decimal.RequireFromString("90.125")}).Validate()},
		{"binding double", (&GameBinding{GameType: GameHurf, Odds: decimal.NewFromInt(9), DoubleMatchOdds: ptr(decimal.RequireFromString("80.001"))}).Validate()},
		{"match", Match{TeamA: "India", TeamB: "Australia", OddsTeamA: decimal.RequireFromString("2.1234"), OddsTeamB: decimal.NewFromInt(2)}.Validate()},
		{"zero", CheckOdds(decimal.Zero)},
	}
	for _, tt := range tests {
		if !errors.Is(tt.err, ErrInvalidRequest) {
			t.Errorf("%s: expected ErrInvalidRequest, got %v", tt.name, tt.err)
		}
	}

	if err := (Match{TeamA: "India", TeamB: "Australia", OddsTeamA: decimal.RequireFromString("2.12"), OddsTeamB: decimal.RequireFromString("1.9")}).Validate(); err != nil {
		t.Errorf("two places must be accepted: %v", err)
	}
}

func ptr(d decimal.Decimal) *decimal.Decimal { return &d }
