package repo

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/radieske/wager-settlement-platform/internal/wager-service/domain"
)

// Snapshot é o estado do alvo lido dentro da unidade de colocação, com o
// alvo garantidamente aberto.
type Snapshot struct {
	Market  *domain.Market
	Binding *domain.GameBinding
	Match   *domain.Match
}

// Quoter calcula os multiplicadores a capturar na aposta a partir do snapshot.
type Quoter func(Snapshot) (base decimal.Decimal, double *decimal.Decimal, err error)

// Store é a unidade de trabalho do núcleo. PlaceWager e SettleWager são
// atômicos: débito+inserção e crédito+atualização de status acontecem juntos
// ou não acontecem.
type Store interface {
	CreateAccount(ctx context.Context, username string, isAdmin bool, opening decimal.Decimal) (domain.Account, error)
	GetAccount(ctx context.Context, id string) (domain.Account, error)
	Balance(ctx context.Context, id string) (decimal.Decimal, error)
	Deposit(ctx context.Context, id string, amount decimal.Decimal, ref string) (decimal.Decimal, error)
	LedgerEntries(ctx context.Context, accountID string) ([]domain.LedgerEntry, error)

	CreateMarket(ctx context.Context, m domain.Market) (domain.Market, error)
	BindGameType(ctx context.Context, b domain.GameBinding) (domain.GameBinding, error)
	GetMarket(ctx context.Context, id string) (domain.Market, error)
	ListMarkets(ctx context.Context) ([]domain.Market, error)
	Bindings(ctx context.Context, marketID string) ([]domain.GameBinding, error)
	Binding(ctx context.Context, marketID string, gt domain.GameType) (domain.GameBinding, error)
	SetMarketOpen(ctx context.Context, id string, open bool) (domain.Market, error)
	DeclareMarket(ctx context.Context, id, result string) (domain.Market, error)

	CreateMatch(ctx context.Context, m domain.Match) (domain.Match, error)
	GetMatch(ctx context.Context, id string) (domain.Match, error)
	ListMatches(ctx context.Context) ([]domain.Match, error)
	UpdateMatchOdds(ctx context.Context, id string, oddsA, oddsB decimal.Decimal) (domain.Match, error)
	SetMatchOpen(ctx context.Context, id string, open bool) (domain.Match, error)
	DeclareMatch(ctx context.Context, id, result string) (domain.Match, error)

	// PlaceWager verifica o alvo aberto, captura os multiplicadores via quote,
	// debita o stake e insere a aposta numa única unidade. Devolve a aposta
	// gravada e o novo saldo.
	PlaceWager(ctx context.Context, w domain.Wager, quote Quoter) (domain.Wager, decimal.Decimal, error)
	// SettleWager aplica a resolução se a aposta estiver pending, creditando o
	// prêmio na mesma unidade. applied=false quando já estava liquidada.
	SettleWager(ctx context.Context, id string, r domain.Resolution) (w domain.Wager, applied bool, err error)
	GetWager(ctx context.Context, id string) (domain.Wager, error)
	ListWagersByAccount(ctx context.Context, accountID string) ([]domain.Wager, error)
	PendingWagers(ctx context.Context, target domain.Target) ([]domain.Wager, error)
	// PendingDeclaredTargets lista alvos já declarados que ainda têm apostas
	// pending, mais o alvo instantâneo se houver coin toss pending.
	PendingDeclaredTargets(ctx context.Context) ([]domain.Target, error)
}
