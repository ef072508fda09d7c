package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// MoneyPlaces é a escala usada para todo valor monetário (NUMERIC(14,2) no banco).
const MoneyPlaces = 2

// RoundMoney normaliza um valor para a escala monetária.
func RoundMoney(d decimal.Decimal) decimal.Decimal { return d.Round(MoneyPlaces) }

// CheckAmount exige valor positivo já na escala monetária. Valores com mais
// casas são rejeitados, nunca arredondados.
func CheckAmount(d decimal.Decimal) error {
	if !d.IsPositive() {
		return fmt.Errorf("%w: %s must be positive", ErrInvalidAmount, d)
	}
	if !d.Equal(RoundMoney(d)) {
		return fmt.Errorf("%w: %s has more than %d decimal places", ErrInvalidAmount, d, MoneyPlaces)
	}
	return nil
}

type Account struct {
	ID        string          `json:"id"`
	Username  string          `json:"username"`
	Balance   decimal.Decimal `json:"balance"`
	IsAdmin   bool            `json:"isAdmin"`
	CreatedAt time.Time       `json:"createdAt"`
}

type EntryKind string

const (
	EntryDebit   EntryKind = "DEBIT"
	EntryCredit  EntryKind = "CREDIT"
	EntryDeposit EntryKind = "DEPOSIT"
)

// LedgerEntry é a trilha de auditoria de cada movimentação aplicada a um saldo.
type LedgerEntry struct {
	ID           string          `json:"id"`
	AccountID    string          `json:"accountId"`
	Kind         EntryKind       `json:"kind"`
	Amount       decimal.Decimal `json:"amount"`
	BalanceAfter decimal.Decimal `json:"balanceAfter"`
	Reference    string          `json:"reference"`
	CreatedAt    time.Time       `json:"createdAt"`
}

type Market struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	OpenTime  string     `json:"openTime"`  // HH:MM
	CloseTime string     `json:"closeTime"` // HH:MM
	IsOpen    bool       `json:"isOpen"`
	Result    *string    `json:"result,omitempty"`
	ResultAt  *time.Time `json:"resultAt,omitempty"`
}

func (m Market) Declared() bool { return m.Result != nil }

// GameBinding é a configuração de odds de um tipo de jogo dentro de um mercado.
type GameBinding struct {
	MarketID        string           `json:"marketId"`
	GameType        GameType         `json:"gameType"`
	Odds            decimal.Decimal  `json:"odds"`
	DoubleMatchOdds *decimal.Decimal `json:"doubleMatchOdds,omitempty"` // só hurf
}

const (
	TeamA = "teamA"
	TeamB = "teamB"
)

type Match struct {
	ID        string          `json:"id"`
	TeamA     string          `json:"teamA"`
	TeamB     string          `json:"teamB"`
	OddsTeamA decimal.Decimal `json:"oddsTeamA"`
	OddsTeamB decimal.Decimal `json:"oddsTeamB"`
	IsOpen    bool            `json:"isOpen"`
	Result    *string         `json:"result,omitempty"`
	ResultAt  *time.Time      `json:"resultAt,omitempty"`
}

func (m Match) Declared() bool { return m.Result != nil }

type TargetKind string

const (
	TargetMarket  TargetKind = "market"
	TargetMatch   TargetKind = "match"
	TargetInstant TargetKind = "instant" // coin toss, sem mercado
)

// Target identifica o contexto de uma aposta: mercado, partida ou jogo instantâneo.
type Target struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id"`
}

func MarketTarget(id string) Target { return Target{Kind: TargetMarket, ID: id} }
func MatchTarget(id string) Target { return Target{Kind: TargetMatch, ID: id} }
func InstantTarget() Target { return Target{Kind: TargetInstant} }

func (t Target) String() string { return string(t.Kind) + ":" + t.ID }

type Status string

const (
	StatusPending Status = "pending"
	StatusWon     Status = "won"
	StatusLost    Status = "lost"
)

type Wager struct {
	ID        string          `json:"id"`
	AccountID string          `json:"accountId"`
	Target    Target          `json:"target"`
	GameType  GameType        `json:"gameType"`
	Stake     decimal.Decimal `json:"stake"`
	Selection string          `json:"selection"`

	// Multiplicadores capturados na colocação; nunca recalculados.
	Multiplier       decimal.Decimal  `json:"multiplier"`
	DoubleMultiplier *decimal.Decimal `json:"doubleMultiplier,omitempty"`

	Status    Status           `json:"status"`
	Result    *string          `json:"result,omitempty"`
	WinAmount *decimal.Decimal `json:"winAmount,omitempty"`
	CreatedAt time.Time        `json:"createdAt"`
	SettledAt *time.Time       `json:"settledAt,omitempty"`
}

func (w Wager) Settled() bool { return w.Status != StatusPending }

// Resolution é o desfecho a aplicar numa aposta pending.
type Resolution struct {
	Result    string
	Won       bool
	WinAmount decimal.Decimal
	SettledAt time.Time
}

// Apply devolve uma cópia da aposta com a resolução aplicada.
func (w Wager) Apply(r Resolution) Wager {
	res := r.Result
	at := r.SettledAt
	w.Result = &res
	w.SettledAt = &at
	if r.Won {
		amt := r.WinAmount
		w.Status = StatusWon
		w.WinAmount = &amt
	} else {
		w.Status = StatusLost
		w.WinAmount = nil
	}
	return w
}
