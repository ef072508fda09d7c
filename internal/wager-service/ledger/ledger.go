package ledger

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/radieske/wager-settlement-platform/internal/wager-service/domain"
)

// Ledger é o contrato de movimentação de saldo. Débito e crédito da mesma
// conta são linearizados; o saldo nunca fica negativo.
type Ledger interface {
	Debit(ctx context.Context, accountID string, amount decimal.Decimal, ref string) (decimal.Decimal, error)
	Credit(ctx context.Context, accountID string, amount decimal.Decimal, ref string) (decimal.Decimal, error)
	Balance(ctx context.Context, accountID string) (decimal.Decimal, error)
}

type account struct {
	mu  sync.Mutex
	acc domain.Account
}

// Book é o ledger em memória: um mutex por conta, trilha de lançamentos
// append-only.
type Book struct {
	mu       sync.RWMutex
	accounts map[string]*account

	entriesMu sync.Mutex
	entries   []domain.LedgerEntry

	now func() time.Time
}

func NewBook() *Book {
	return &Book{
		accounts: make(map[string]*account),
		now:      time.Now,
	}
}

var _ Ledger = (*Book)(nil)

// Open cria uma conta com saldo zero e, se opening > 0, um depósito inicial.
func (b *Book) Open(ctx context.Context, username string, isAdmin bool, opening decimal.Decimal) (domain.Account, error) {
	if err := checkOpening(opening); err != nil {
		return domain.Account{}, err
	}
	a := &account{acc: domain.Account{
		ID:        uuid.NewString(),
		Username:  username,
		Balance:   decimal.Zero,
		IsAdmin:   isAdmin,
		CreatedAt: b.now().UTC(),
	}}
	b.mu.Lock()
	b.accounts[a.acc.ID] = a
	b.mu.Unlock()

	if opening.IsPositive() {
		if _, err := b.Deposit(ctx, a.acc.ID, opening, "opening"); err != nil {
			return domain.Account{}, err
		}
	}
	return b.Get(ctx, a.acc.ID)
}

func (b *Book) Get(_ context.Context, accountID string) (domain.Account, error) {
	a, err := b.lookup(accountID)
	if err != nil {
		return domain.Account{}, err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.acc, nil
}

func (b *Book) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	acc, err := b.Get(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return acc.Balance, nil
}

func (b *Book) Debit(ctx context.Context, accountID string, amount decimal.Decimal, ref string) (decimal.Decimal, error) {
	return b.DebitWith(ctx, accountID, amount, ref, nil)
}

func (b *Book) Credit(ctx context.Context, accountID string, amount decimal.Decimal, ref string) (decimal.Decimal, error) {
	return b.CreditWith(ctx, accountID, amount, ref, nil)
}

func (b *Book) Deposit(ctx context.Context, accountID string, amount decimal.Decimal, ref string) (decimal.Decimal, error) {
	return b.apply(ctx, accountID, domain.EntryDeposit, amount, ref, nil)
}

// DebitWith debita e executa commit dentro da mesma seção crítica da conta.
// O débito só é aplicado se commit retornar nil; assim débito e efeito
// acoplado (ex.: gravar a aposta) acontecem juntos ou não acontecem.
func (b *Book) DebitWith(ctx context.Context, accountID string, amount decimal.Decimal, ref string, commit func() error) (decimal.Decimal, error) {
	return b.apply(ctx, accountID, domain.EntryDebit, amount, ref, commit)
}

// CreditWith é o análogo de DebitWith para créditos.
func (b *Book) CreditWith(ctx context.Context, accountID string, amount decimal.Decimal, ref string, commit func() error) (decimal.Decimal, error) {
	return b.apply(ctx, accountID, domain.EntryCredit, amount, ref, commit)
}

// Locked executa fn com o lock da conta, sem movimentar saldo. Usado quando a
// unidade de trabalho decide depois se há crédito (ex.: aposta perdida).
func (b *Book) Locked(_ context.Context, accountID string, fn func(balance decimal.Decimal) error) error {
	a, err := b.lookup(accountID)
	if err != nil {
		return err
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return fn(a.acc.Balance)
}

// Entries devolve os lançamentos da conta, mais recentes primeiro.
func (b *Book) Entries(_ context.Context, accountID string) []domain.LedgerEntry {
	b.entriesMu.Lock()
	defer b.entriesMu.Unlock()
	var out []domain.LedgerEntry
	for _, e := range b.entries {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (b *Book) apply(ctx context.Context, accountID string, kind domain.EntryKind, amount decimal.Decimal, ref string, commit func() error) (decimal.Decimal, error) {
	if err := ctx.Err(); err != nil {
		return decimal.Zero, err
	}
	if err := domain.CheckAmount(amount); err != nil {
		return decimal.Zero, err
	}

	a, err := b.lookup(accountID)
	if err != nil {
		return decimal.Zero, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	next := a.acc.Balance.Add(amount)
	if kind == domain.EntryDebit {
		next = a.acc.Balance.Sub(amount)
		if next.IsNegative() {
			return a.acc.Balance, fmt.Errorf("%w: balance %s, amount %s", domain.ErrInsufficientFunds, a.acc.Balance, amount)
		}
	}

	if commit != nil {
		if err := commit(); err != nil {
			return a.acc.Balance, err
		}
	}

	a.acc.Balance = next
	b.record(domain.LedgerEntry{
		ID:           uuid.NewString(),
		AccountID:    accountID,
		Kind:         kind,
		Amount:       amount,
		BalanceAfter: next,
		Reference:    ref,
		CreatedAt:    b.now().UTC(),
	})
	return next, nil
}

func (b *Book) record(e domain.LedgerEntry) {
	b.entriesMu.Lock()
	b.entries = append(b.entries, e)
	b.entriesMu.Unlock()
}

func (b *Book) lookup(accountID string) (*account, error) {
	b.mu.RLock()
	a, ok := b.accounts[accountID]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, accountID)
	}
	return a, nil
}

// checkOpening aceita zero; valores positivos seguem as regras de depósito.
func checkOpening(opening decimal.Decimal) error {
	if opening.IsZero() {
		return nil
	}
	return domain.CheckAmount(opening)
}
