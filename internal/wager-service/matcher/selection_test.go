package matcher

import (
	"errors"
	"testing"

	"github.com/radieske/wager-settlement-platform/internal/wager-service/domain"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		gameType domain.GameType
		raw      string
		want     string
		wantErr  error
	}{
		{name: "jodi", gameType: domain.GameJodi, raw: " 07 ", want: "07"},
		{name: "jodi three digits", gameType: domain.GameJodi, raw: "100", wantErr: domain.ErrInvalidSelection},
		{name: "jodi letters", gameType: domain.GameJodi, raw: "ab", wantErr: domain.ErrInvalidSelection},
		{name: "odd uppercase", gameType: domain.GameOddEven, raw: "ODD", want: "odd"},
		{name: "odd-even garbage", gameType: domain.GameOddEven, raw: "prime", wantErr: domain.ErrInvalidSelection},
		{name: "hurf canonical order", gameType: domain.GameHurf, raw: "right:7,left:5", want: "left:5,right:7"},
		{name: "hurf short prefixes", gameType: domain.GameHurf, raw: "L:3", want: "left:3"},
		{name: "hurf repeated side", gameType: domain.GameHurf, raw: "left:3,left:4", wantErr: domain.ErrInvalidSelection},
		{name: "hurf three parts", gameType: domain.GameHurf, raw: "left:3,right:4,left:5", wantErr: domain.ErrInvalidSelection},
		{name: "hurf bad digit", gameType: domain.GameHurf, raw: "left:33", wantErr: domain.ErrInvalidSelection},
		{name: "cross sorted", gameType: domain.GameCross, raw: "3, 1,2", want: "1,2,3"},
		{name: "cross one digit", gameType: domain.GameCross, raw: "1", wantErr: domain.ErrInvalidSelection},
		{name: "cross six digits", gameType: domain.GameCross, raw: "1,2,3,4,5,6", wantErr: domain.ErrInvalidSelection},
		{name: "cross duplicate", gameType: domain.GameCross, raw: "1,1,2", wantErr: domain.ErrInvalidSelection},
		{name: "team", gameType: domain.GameTeamMatch, raw: "teamB", want: "teamB"},
		{name: "team lowercase", gameType: domain.GameTeamMatch, raw: "teamb", wantErr: domain.ErrInvalidSelection},
		{name: "coin", gameType: domain.GameCoinToss, raw: "Heads", want: "heads"},
		{name: "unknown game", gameType: domain.GameType("roulette"), raw: "red", wantErr: domain.ErrUnknownGameType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.gameType, tt.raw)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestValidateResult(t *testing.T) {
	if err := ValidateResult(domain.TargetMarket, "09"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateResult(domain.TargetMarket, "9"); !errors.Is(err, domain.ErrInvalidResult) {
		t.Errorf("expected ErrInvalidResult, got %v", err)
	}
	if err := ValidateResult(domain.TargetMatch, "teamA"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateResult(domain.TargetMatch, "57"); !errors.Is(err, domain.ErrInvalidResult) {
		t.Errorf("expected ErrInvalidResult, got %v", err)
	}
}
