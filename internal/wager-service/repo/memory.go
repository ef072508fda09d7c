package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/radieske/wager-settlement-platform/internal/wager-service/domain"
	"github.com/radieske/wager-settlement-platform/internal/wager-service/ledger"
	"github.com/radieske/wager-settlement-platform/internal/wager-service/registry"
	"github.com/radieske/wager-settlement-platform/internal/wager-service/wagers"
)

// Memory compõe ledger, registry e store de apostas em memória. A ordem de
// locks é sempre alvo -> conta -> store.
type Memory struct {
	book     *ledger.Book
	registry *registry.Registry
	wagers   *wagers.Store
}

func NewMemory() *Memory {
	return &Memory{
		book:     ledger.NewBook(),
		registry: registry.New(),
		wagers:   wagers.New(),
	}
}

var _ Store = (*Memory)(nil)

var errAlreadySettled = errors.New("already settled")

func (m *Memory) CreateAccount(ctx context.Context, username string, isAdmin bool, opening decimal.Decimal) (domain.Account, error) {
	return m.book.Open(ctx, username, isAdmin, opening)
}

func (m *Memory) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	return m.book.Get(ctx, id)
}

func (m *Memory) Balance(ctx context.Context, id string) (decimal.Decimal, error) {
	return m.book.Balance(ctx, id)
}

func (m *Memory) Deposit(ctx context.Context, id string, amount decimal.Decimal, ref string) (decimal.Decimal, error) {
	return m.book.Deposit(ctx, id, amount, ref)
}

func (m *Memory) LedgerEntries(ctx context.Context, accountID string) ([]domain.LedgerEntry, error) {
	if _, err := m.book.Get(ctx, accountID); err != nil {
		return nil, err
	}
	return m.book.Entries(ctx, accountID), nil
}

func (m *Memory) CreateMarket(ctx context.Context, mk domain.Market) (domain.Market, error) {
	return m.registry.CreateMarket(ctx, mk)
}

func (m *Memory) BindGameType(ctx context.Context, b domain.GameBinding) (domain.GameBinding, error) {
	return m.registry.BindGameType(ctx, b)
}

func (m *Memory) GetMarket(ctx context.Context, id string) (domain.Market, error) {
	return m.registry.GetMarket(ctx, id)
}

func (m *Memory) ListMarkets(ctx context.Context) ([]domain.Market, error) {
	return m.registry.ListMarkets(ctx), nil
}

func (m *Memory) Bindings(ctx context.Context, marketID string) ([]domain.GameBinding, error) {
	return m.registry.Bindings(ctx, marketID)
}

func (m *Memory) Binding(ctx context.Context, marketID string, gt domain.GameType) (domain.GameBinding, error) {
	return m.registry.Binding(ctx, marketID, gt)
}

func (m *Memory) SetMarketOpen(ctx context.Context, id string, open bool) (domain.Market, error) {
	return m.registry.SetMarketOpen(ctx, id, open)
}

func (m *Memory) DeclareMarket(ctx context.Context, id, result string) (domain.Market, error) {
	return m.registry.DeclareMarket(ctx, id, result)
}

func (m *Memory) CreateMatch(ctx context.Context, mt domain.Match) (domain.Match, error) {
	return m.registry.CreateMatch(ctx, mt)
}

func (m *Memory) GetMatch(ctx context.Context, id string) (domain.Match, error) {
	return m.registry.GetMatch(ctx, id)
}

func (m *Memory) ListMatches(ctx context.Context) ([]domain.Match, error) {
	return m.registry.ListMatches(ctx), nil
}

func (m *Memory) UpdateMatchOdds(ctx context.Context, id string, oddsA, oddsB decimal.Decimal) (domain.Match, error) {
	return m.registry.UpdateMatchOdds(ctx, id, oddsA, oddsB)
}

func (m *Memory) SetMatchOpen(ctx context.Context, id string, open bool) (domain.Match, error) {
	return m.registry.SetMatchOpen(ctx, id, open)
}

func (m *Memory) DeclareMatch(ctx context.Context, id, result string) (domain.Match, error) {
	return m.registry.DeclareMatch(ctx, id, result)
}

func (m *Memory) PlaceWager(ctx context.Context, w domain.Wager, quote Quoter) (domain.Wager, decimal.Decimal, error) {
	var balance decimal.Decimal
	unit := func(snap Snapshot) error {
		base, double, err := quote(snap)
		if err != nil {
			return err
		}
		w.Multiplier = base
		w.DoubleMultiplier = double
		w.Status = domain.StatusPending
		balance, err = m.book.DebitWith(ctx, w.AccountID, w.Stake, "wager:"+w.ID, func() error {
			return m.wagers.Create(ctx, w)
		})
		return err
	}

	var err error
	switch w.Target.Kind {
	case domain.TargetMarket:
		err = m.registry.WithMarketOpen(ctx, w.Target.ID, w.GameType, func(mk domain.Market, b domain.GameBinding) error {
			return unit(Snapshot{Market: &mk, Binding: &b})
		})
	case domain.TargetMatch:
		err = m.registry.WithMatchOpen(ctx, w.Target.ID, func(mt domain.Match) error {
			return unit(Snapshot{Match: &mt})
		})
	case domain.TargetInstant:
		err = unit(Snapshot{})
	default:
		err = fmt.Errorf("%w: unknown target kind %q", domain.ErrInvalidRequest, w.Target.Kind)
	}
	if err != nil {
		return domain.Wager{}, decimal.Zero, err
	}
	return w, balance, nil
}

func (m *Memory) SettleWager(ctx context.Context, id string, r domain.Resolution) (domain.Wager, bool, error) {
	w, err := m.wagers.Get(ctx, id)
	if err != nil {
		return domain.Wager{}, false, err
	}
	if w.Settled() {
		return w, false, nil
	}

	var (
		out     domain.Wager
		applied bool
	)
	update := func() error {
		var err error
		out, applied, err = m.wagers.UpdateStatus(ctx, id, r)
		if err != nil {
			return err
		}
		if !applied {
			return errAlreadySettled
		}
		return nil
	}

	if r.Won && r.WinAmount.IsPositive() {
		_, err = m.book.CreditWith(ctx, w.AccountID, r.WinAmount, "settle:"+id, update)
	} else {
		// perdida: sem movimento, mas sob o lock da conta para serializar com
		// créditos concorrentes da mesma aposta
		err = m.book.Locked(ctx, w.AccountID, func(decimal.Decimal) error { return update() })
	}
	switch {
	case errors.Is(err, errAlreadySettled):
		return out, false, nil
	case err != nil:
		return domain.Wager{}, false, fmt.Errorf("%w: wager %s: %v", domain.ErrSettlementCredit, id, err)
	}
	return out, true, nil
}

func (m *Memory) GetWager(ctx context.Context, id string) (domain.Wager, error) {
	return m.wagers.Get(ctx, id)
}

func (m *Memory) ListWagersByAccount(ctx context.Context, accountID string) ([]domain.Wager, error) {
	if _, err := m.book.Get(ctx, accountID); err != nil {
		return nil, err
	}
	return m.wagers.ListByAccount(ctx, accountID), nil
}

func (m *Memory) PendingWagers(ctx context.Context, target domain.Target) ([]domain.Wager, error) {
	return m.wagers.ListPending(ctx, target), nil
}

func (m *Memory) PendingDeclaredTargets(ctx context.Context) ([]domain.Target, error) {
	var out []domain.Target
	for _, t := range m.wagers.PendingTargets(ctx) {
		switch t.Kind {
		case domain.TargetMarket:
			if mk, err := m.registry.GetMarket(ctx, t.ID); err == nil && mk.Declared() {
				out = append(out, t)
			}
		case domain.TargetMatch:
			if mt, err := m.registry.GetMatch(ctx, t.ID); err == nil && mt.Declared() {
				out = append(out, t)
			}
		case domain.TargetInstant:
			out = append(out, t)
		}
	}
	return out, nil
}
