package placement

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/wager-settlement-platform/internal/wager-service/domain"
	"github.com/radieske/wager-settlement-platform/internal/wager-service/matcher"
	"github.com/radieske/wager-settlement-platform/internal/wager-service/publisher"
	"github.com/radieske/wager-settlement-platform/internal/wager-service/repo"
	"github.com/radieske/wager-settlement-platform/pkg/contracts/events"
)

type recorder struct {
	publisher.Nop
	mu      sync.Mutex
	placed  []events.WagerPlaced
	settled []events.WagerSettled
}

func (r *recorder) PublishWagerPlaced(_ context.Context, e events.WagerPlaced) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.placed = append(r.placed, e)
	return nil
}

func (r *recorder) PublishWagerSettled(_ context.Context, e events.WagerSettled) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.settled = append(r.settled, e)
	return nil
}

type fixture struct {
	svc     *Service
	store   *repo.Memory
	pub     *recorder
	account domain.Account
	market  domain.Market
	match   domain.Match
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func newFixture(t *testing.T) fixture {
	t.Helper()
	ctx := context.Background()
	store := repo.NewMemory()
	pub := &recorder{}

	acc, err := store.CreateAccount(ctx, "ana", false, dec("100"))
	if err != nil {
		t.Fatalf("account: %v", err)
	}
	mk, _ := store.CreateMarket(ctx, domain.Market{Name: "Kalyan", OpenTime: "10:00", CloseTime: "12:00", IsOpen: true})
	double := dec("80")
	for _, b := range []domain.GameBinding{
		{MarketID: mk.ID, GameType: domain.GameJodi, Odds: dec("90")},
		{MarketID: mk.ID, GameType: domain.GameOddEven, Odds: dec("1.8")},
		{MarketID: mk.ID, GameType: domain.GameHurf, Odds: dec("9"), DoubleMatchOdds: &double},
	} {
		if _, err := store.BindGameType(ctx, b); err != nil {
			t.Fatalf("bind: %v", err)
		}
	}
	mt, _ := store.CreateMatch(ctx, domain.Match{TeamA: "India", TeamB: "Australia", OddsTeamA: dec("1.9"), OddsTeamB: dec("2.1"), IsOpen: true})

	return fixture{
		svc:     New(store, pub, matcher.DefaultTable(), zap.NewNop()),
		store:   store,
		pub:     pub,
		account: acc,
		market:  mk,
		match:   mt,
	}
}

func TestPlaceCapturesMultiplier(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	r, err := f.svc.Place(ctx, Request{AccountID: f.account.ID, MarketID: f.market.ID, GameType: "hurf", Stake: dec("10"), Selection: "right:7, left:5"})
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	w := r.Wager
	if w.Selection != "left:5,right:7" {
		t.Errorf("selection must be canonical, got %q", w.Selection)
	}
	if !w.Multiplier.Equal(dec("9")) || w.DoubleMultiplier == nil || !w.DoubleMultiplier.Equal(dec("80")) {
		t.Errorf("unexpected multipliers %s / %v", w.Multiplier, w.DoubleMultiplier)
	}
	if !r.NewBalance.Equal(dec("90")) {
		t.Errorf("expected balance 90, got %s", r.NewBalance)
	}
	if len(f.pub.placed) != 1 || f.pub.placed[0].WagerID != w.ID {
		t.Errorf("expected one WagerPlaced event, got %+v", f.pub.placed)
	}

	r, err = f.svc.Place(ctx, Request{AccountID: f.account.ID, MatchID: f.match.ID, GameType: "team-match", Stake: dec("10"), Selection: "teamB"})
	if err != nil {
		t.Fatalf("place team: %v", err)
	}
	if !r.Wager.Multiplier.Equal(dec("2.1")) || r.Wager.Target != domain.MatchTarget(f.match.ID) {
		t.Errorf("unexpected team wager %+v", r.Wager)
	}
}

func TestPlaceRejectionsLeaveStateUnchanged(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	closed, _ := f.store.CreateMarket(ctx, domain.Market{Name: "Closed", IsOpen: false})
	_, _ = f.store.BindGameType(ctx, domain.GameBinding{MarketID: closed.ID, GameType: domain.GameJodi, Odds: dec("90")})

	cases := []struct {
		name string
		req  Request
		want error
	}{
		{"zero stake", Request{MarketID: f.market.ID, GameType: "jodi", Stake: decimal.Zero, Selection: "42"}, domain.ErrInvalidRequest},
		{"fractional cents", Request{MarketID: f.market.ID, GameType: "jodi", Stake: dec("1.005"), Selection: "42"}, domain.ErrInvalidRequest},
		{"two targets", Request{MarketID: f.market.ID, MatchID: f.match.ID, GameType: "jodi", Stake: dec("1"), Selection: "42"}, domain.ErrInvalidRequest},
		{"no target", Request{GameType: "jodi", Stake: dec("1"), Selection: "42"}, domain.ErrInvalidRequest},
		{"unknown game", Request{MarketID: f.market.ID, GameType: "roulette", Stake: dec("1"), Selection: "42"}, domain.ErrUnknownGameType},
		{"team game on market", Request{MarketID: f.market.ID, GameType: "team-match", Stake: dec("1"), Selection: "teamA"}, domain.ErrUnknownGameType},
		{"bad selection", Request{MarketID: f.market.ID, GameType: "jodi", Stake: dec("1"), Selection: "4"}, domain.ErrInvalidSelection},
		{"missing market", Request{MarketID: "nope", GameType: "jodi", Stake: dec("1"), Selection: "42"}, domain.ErrMarketNotFound},
		{"missing match", Request{MatchID: "nope", GameType: "team-match", Stake: dec("1"), Selection: "teamA"}, domain.ErrMatchNotFound},
		{"game not offered", Request{MarketID: f.market.ID, GameType: "cross", Stake: dec("1"), Selection: "1,2"}, domain.ErrUnknownGameType},
		{"closed market", Request{MarketID: closed.ID, GameType: "jodi", Stake: dec("1"), Selection: "42"}, domain.ErrMarketClosed},
		{"insufficient funds", Request{MarketID: f.market.ID, GameType: "jodi", Stake: dec("100.01"), Selection: "42"}, domain.ErrInsufficientFunds},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.req.AccountID = f.account.ID
			if _, err := f.svc.Place(ctx, tc.req); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
			bal, _ := f.store.Balance(ctx, f.account.ID)
			if !bal.Equal(dec("100")) {
				t.Errorf("balance changed: %s", bal)
			}
			ws, _ := f.store.ListWagersByAccount(ctx, f.account.ID)
			if len(ws) != 0 {
				t.Errorf("no wager may be stored, got %d", len(ws))
			}
		})
	}
	if len(f.pub.placed) != 0 {
		t.Errorf("rejections must not publish, got %d events", len(f.pub.placed))
	}
}

func TestPlayCoinToss(t *testing.T) {
	ctx := context.Background()

	t.Run("win pays twice the stake", func(t *testing.T) {
		f := newFixture(t)
		f.svc.Flip = func() bool { return true }
		res, err := f.svc.PlayCoinToss(ctx, f.account.ID, dec("10"), "Heads")
		if err != nil {
			t.Fatalf("coin toss: %v", err)
		}
		if res.Outcome != "heads" || res.Wager.Status != domain.StatusWon {
			t.Fatalf("unexpected result %+v", res)
		}
		if !res.NewBalance.Equal(dec("110")) {
			t.Errorf("expected balance 110, got %s", res.NewBalance)
		}
		if len(f.pub.settled) != 1 || f.pub.settled[0].Status != "won" {
			t.Errorf("expected one won WagerSettled event, got %+v", f.pub.settled)
		}
	})

	t.Run("loss keeps the debit", func(t *testing.T) {
		f := newFixture(t)
		f.svc.Flip = func() bool { return true }
		res, err := f.svc.PlayCoinToss(ctx, f.account.ID, dec("10"), "tails")
		if err != nil {
			t.Fatalf("coin toss: %v", err)
		}
		if res.Wager.Status != domain.StatusLost || res.Wager.WinAmount != nil {
			t.Fatalf("unexpected wager %+v", res.Wager)
		}
		if !res.NewBalance.Equal(dec("90")) {
			t.Errorf("expected balance 90, got %s", res.NewBalance)
		}
	})

	t.Run("invalid call", func(t *testing.T) {
		f := newFixture(t)
		if _, err := f.svc.PlayCoinToss(ctx, f.account.ID, dec("10"), "edge"); !errors.Is(err, domain.ErrInvalidSelection) {
			t.Errorf("expected ErrInvalidSelection, got %v", err)
		}
		if _, err := f.svc.PlayCoinToss(ctx, f.account.ID, dec("1000"), "heads"); !errors.Is(err, domain.ErrInsufficientFunds) {
			t.Errorf("expected ErrInsufficientFunds, got %v", err)
		}
	})
}

func TestReason(t *testing.T) {
	if got := Reason(errors.Join(errors.New("x"), domain.ErrMarketClosed)); got != "market_closed" {
		t.Errorf("unexpected reason %q", got)
	}
	if got := Reason(errors.New("boom")); got != "internal" {
		t.Errorf("unexpected reason %q", got)
	}
}

func TestTossOutcome(t *testing.T) {
	tests := []struct {
		selection string
		status    domain.Status
		want      string
	}{
		{"heads", domain.StatusWon, "heads"},
		{"heads", domain.StatusLost, "tails"},
		{"tails", domain.StatusWon, "tails"},
		{"tails", domain.StatusLost, "heads"},
	}
	for _, tt := range tests {
		if got := tossOutcome(domain.Wager{Selection: tt.selection, Status: tt.status}); got != tt.want {
			t.Errorf("tossOutcome(%s, %s) = %s, want %s", tt.selection, tt.status, got, tt.want)
		}
	}
}
