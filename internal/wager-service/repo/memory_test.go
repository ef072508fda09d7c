package repo

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/wager-settlement-platform/internal/wager-service/domain"
)

func seedMarket(t *testing.T, m *Memory) domain.Market {
	t.Helper()
	ctx := context.Background()
	mk, err := m.CreateMarket(ctx, domain.Market{Name: "Kalyan", OpenTime: "10:00", CloseTime: "12:00", IsOpen: true})
	if err != nil {
		t.Fatalf("create market: %v", err)
	}
	if _, err := m.BindGameType(ctx, domain.GameBinding{MarketID: mk.ID, GameType: domain.GameJodi, Odds: decimal.NewFromInt(90)}); err != nil {
		t.Fatalf("bind: %v", err)
	}
	return mk
}

func TestMemoryPlaceWagerIsAtomic(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	mk := seedMarket(t, m)
	acc, _ := m.CreateAccount(ctx, "ana", false, decimal.NewFromInt(15))

	w := domain.Wager{ID: "w1", AccountID: acc.ID, Target: domain.MarketTarget(mk.ID), GameType: domain.GameJodi,
		Stake: decimal.NewFromInt(10), Selection: "42", CreatedAt: time.Now()}
	got, bal, err := m.PlaceWager(ctx, w, bindingQuote)
	if err != nil {
		t.Fatalf("place: %v", err)
	}
	if !bal.Equal(decimal.NewFromInt(5)) || !got.Multiplier.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("unexpected balance %s / wager %+v", bal, got)
	}

	// saldo insuficiente: nada gravado
	w.ID = "w2"
	if _, _, err := m.PlaceWager(ctx, w, bindingQuote); !errors.Is(err, domain.ErrInsufficientFunds) {
		t.Fatalf("expected ErrInsufficientFunds, got %v", err)
	}
	if _, err := m.GetWager(ctx, "w2"); !errors.Is(err, domain.ErrWagerNotFound) {
		t.Errorf("rejected wager must not be stored, got %v", err)
	}

	// falha no quote: saldo intacto
	w.ID = "w3"
	w.Stake = decimal.NewFromInt(1)
	boom := errors.New("quote failed")
	if _, _, err := m.PlaceWager(ctx, w, func(Snapshot) (decimal.Decimal, *decimal.Decimal, error) {
		return decimal.Zero, nil, boom
	}); !errors.Is(err, boom) {
		t.Fatalf("expected quote error, got %v", err)
	}
	if b, _ := m.Balance(ctx, acc.ID); !b.Equal(decimal.NewFromInt(5)) {
		t.Errorf("balance changed on failed placement: %s", b)
	}

	_, _ = m.DeclareMarket(ctx, mk.ID, "42")
	w.ID = "w4"
	if _, _, err := m.PlaceWager(ctx, w, bindingQuote); !errors.Is(err, domain.ErrMarketClosed) {
		t.Errorf("expected ErrMarketClosed after declare, got %v", err)
	}
}

func TestMemorySettleWagerConcurrentRetries(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	mk := seedMarket(t, m)
	acc, _ := m.CreateAccount(ctx, "ana", false, decimal.NewFromInt(100))

	w := domain.Wager{ID: "w1", AccountID: acc.ID, Target: domain.MarketTarget(mk.ID), GameType: domain.GameJodi,
		Stake: decimal.NewFromInt(10), Selection: "42", CreatedAt: time.Now()}
	if _, _, err := m.PlaceWager(ctx, w, bindingQuote); err != nil {
		t.Fatalf("place: %v", err)
	}

	res := domain.Resolution{Result: "42", Won: true, WinAmount: decimal.NewFromInt(900), SettledAt: time.Now()}
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		applied int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := m.SettleWager(ctx, "w1", res)
			if err != nil {
				t.Errorf("settle: %v", err)
				return
			}
			if ok {
				mu.Lock()
				applied++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if applied != 1 {
		t.Fatalf("expected exactly one applied settlement, got %d", applied)
	}
	bal, _ := m.Balance(ctx, acc.ID)
	if !bal.Equal(decimal.NewFromInt(990)) {
		t.Errorf("expected balance 990, got %s", bal)
	}
}

func TestMemoryPendingDeclaredTargets(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	mk := seedMarket(t, m)
	acc, _ := m.CreateAccount(ctx, "ana", false, decimal.NewFromInt(100))

	w := domain.Wager{ID: "w1", AccountID: acc.ID, Target: domain.MarketTarget(mk.ID), GameType: domain.GameJodi,
		Stake: decimal.NewFromInt(10), Selection: "42", CreatedAt: time.Now()}
	_, _, _ = m.PlaceWager(ctx, w, bindingQuote)

	if ts, _ := m.PendingDeclaredTargets(ctx); len(ts) != 0 {
		t.Fatalf("open market must not be listed, got %v", ts)
	}
	_, _ = m.DeclareMarket(ctx, mk.ID, "11")
	ts, _ := m.PendingDeclaredTargets(ctx)
	if len(ts) != 1 || ts[0] != domain.MarketTarget(mk.ID) {
		t.Fatalf("expected declared market with pending wager, got %v", ts)
	}

	// coin toss pending não tem declaração: o alvo instantâneo é sempre listado
	toss := domain.Wager{ID: "w2", AccountID: acc.ID, Target: domain.InstantTarget(), GameType: domain.GameCoinToss,
		Stake: decimal.NewFromInt(10), Selection: "heads", CreatedAt: time.Now()}
	coinQuote := func(Snapshot) (decimal.Decimal, *decimal.Decimal, error) { return decimal.NewFromInt(2), nil, nil }
	if _, _, err := m.PlaceWager(ctx, toss, coinQuote); err != nil {
		t.Fatalf("place coin toss: %v", err)
	}
	ts, _ = m.PendingDeclaredTargets(ctx)
	if len(ts) != 2 || ts[1] != domain.InstantTarget() {
		t.Fatalf("expected instant target after the market, got %v", ts)
	}
}
