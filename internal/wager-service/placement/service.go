package placement

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/wager-settlement-platform/internal/wager-service/domain"
	"github.com/radieske/wager-settlement-platform/internal/wager-service/matcher"
	"github.com/radieske/wager-settlement-platform/internal/wager-service/publisher"
	"github.com/radieske/wager-settlement-platform/internal/wager-service/repo"
	"github.com/radieske/wager-settlement-platform/pkg/contracts/events"
)

// Request é o pedido de aposta. Exatamente um entre MarketID e MatchID.
type Request struct {
	AccountID string
	MarketID  string
	MatchID   string
	GameType  string
	Stake     decimal.Decimal
	Selection string
}

type Receipt struct {
	Wager      domain.Wager
	NewBalance decimal.Decimal
}

type CoinTossResult struct {
	Wager      domain.Wager
	Outcome    string // "heads" | "tails"
	NewBalance decimal.Decimal
}

// Service valida, cota e grava apostas. A gravação em si (alvo aberto, débito,
// inserção) é uma única unidade do Store.
type Service struct {
	Store     repo.Store
	Publisher events.Publisher
	Table     matcher.Table
	Log       *zap.Logger

	Now  func() time.Time
	Flip func() bool // moeda do coin toss; true = heads

	OnPlaced       func(gameType string) // métricas
	OnRejected     func(reason string)
	OnPublishError func(stage string)
}

func New(store repo.Store, pub events.Publisher, table matcher.Table, log *zap.Logger) *Service {
	return &Service{
		Store:     store,
		Publisher: pub,
		Table:     table,
		Log:       log,
		Now:       time.Now,
		Flip:      func() bool { return rand.Intn(2) == 0 },
	}
}

// Place valida o pedido na ordem: stake e alvo, tipo de jogo, seleção,
// existência do alvo, configuração do jogo no mercado; depois grava.
func (s *Service) Place(ctx context.Context, req Request) (Receipt, error) {
	w, err := s.build(ctx, req)
	if err != nil {
		s.rejected(err)
		return Receipt{}, err
	}

	placed, bal, err := s.Store.PlaceWager(ctx, w, s.quoter(w))
	if err != nil {
		s.rejected(err)
		return Receipt{}, err
	}

	s.Log.Info("wager placed",
		zap.String("wagerId", placed.ID),
		zap.String("accountId", placed.AccountID),
		zap.String("target", placed.Target.String()),
		zap.String("gameType", string(placed.GameType)),
		zap.String("stake", placed.Stake.String()),
		zap.String("multiplier", placed.Multiplier.String()),
	)
	if s.OnPlaced != nil {
		s.OnPlaced(string(placed.GameType))
	}
	s.publishPlaced(ctx, placed, bal)
	return Receipt{Wager: placed, NewBalance: bal}, nil
}

// PlayCoinToss debita, sorteia e liquida na hora. Se a liquidação falhar a
// aposta fica pending e o erro é devolvido.
func (s *Service) PlayCoinToss(ctx context.Context, accountID string, stake decimal.Decimal, selection string) (CoinTossResult, error) {
	if err := checkStake(accountID, stake); err != nil {
		s.rejected(err)
		return CoinTossResult{}, err
	}
	sel, err := matcher.Parse(domain.GameCoinToss, selection)
	if err != nil {
		s.rejected(err)
		return CoinTossResult{}, err
	}

	w := domain.Wager{
		ID:        uuid.NewString(),
		AccountID: accountID,
		Target:    domain.InstantTarget(),
		GameType:  domain.GameCoinToss,
		Stake:     stake,
		Selection: sel,
		Status:    domain.StatusPending,
		CreatedAt: s.Now().UTC(),
	}
	placed, bal, err := s.Store.PlaceWager(ctx, w, s.quoter(w))
	if err != nil {
		s.rejected(err)
		return CoinTossResult{}, err
	}
	if s.OnPlaced != nil {
		s.OnPlaced(string(placed.GameType))
	}
	s.publishPlaced(ctx, placed, bal)

	outcome := "tails"
	if s.Flip() {
		outcome = "heads"
	}
	res, err := matcher.Resolve(placed, outcome)
	if err != nil {
		return CoinTossResult{Wager: placed, Outcome: outcome, NewBalance: bal}, err
	}
	res.SettledAt = s.Now().UTC()

	settled, applied, err := s.Store.SettleWager(ctx, placed.ID, res)
	if err != nil {
		s.Log.Error("coin toss settlement failed", zap.String("wagerId", placed.ID), zap.Error(err))
		return CoinTossResult{Wager: placed, Outcome: outcome, NewBalance: bal}, err
	}
	if !applied {
		// o reconciliador chegou antes; vale o sorteio gravado
		outcome = tossOutcome(settled)
	}
	if bal, err = s.Store.Balance(ctx, accountID); err != nil {
		return CoinTossResult{}, err
	}

	s.Log.Info("coin toss settled",
		zap.String("wagerId", settled.ID),
		zap.String("outcome", outcome),
		zap.String("status", string(settled.Status)),
	)
	if err := s.Publisher.PublishWagerSettled(ctx, publisher.WagerSettled(settled)); err != nil {
		s.publishFailed("wager_settled", settled.ID, err)
	}
	return CoinTossResult{Wager: settled, Outcome: outcome, NewBalance: bal}, nil
}

func (s *Service) build(ctx context.Context, req Request) (domain.Wager, error) {
	if err := checkStake(req.AccountID, req.Stake); err != nil {
		return domain.Wager{}, err
	}
	hasMarket, hasMatch := req.MarketID != "", req.MatchID != ""
	if hasMarket == hasMatch {
		return domain.Wager{}, fmt.Errorf("%w: exactly one of marketId or matchId is required", domain.ErrInvalidRequest)
	}

	gt, err := domain.ParseGameType(req.GameType)
	if err != nil {
		return domain.Wager{}, err
	}
	if hasMarket && !gt.IsDraw() {
		return domain.Wager{}, fmt.Errorf("%w: %s is not played on a market", domain.ErrUnknownGameType, gt)
	}
	if hasMatch && gt != domain.GameTeamMatch {
		return domain.Wager{}, fmt.Errorf("%w: %s is not played on a match", domain.ErrUnknownGameType, gt)
	}

	sel, err := matcher.Parse(gt, req.Selection)
	if err != nil {
		return domain.Wager{}, err
	}

	var target domain.Target
	if hasMarket {
		if _, err := s.Store.GetMarket(ctx, req.MarketID); err != nil {
			return domain.Wager{}, err
		}
		if _, err := s.Store.Binding(ctx, req.MarketID, gt); err != nil {
			return domain.Wager{}, err
		}
		target = domain.MarketTarget(req.MarketID)
	} else {
		if _, err := s.Store.GetMatch(ctx, req.MatchID); err != nil {
			return domain.Wager{}, err
		}
		target = domain.MatchTarget(req.MatchID)
	}

	return domain.Wager{
		ID:        uuid.NewString(),
		AccountID: req.AccountID,
		Target:    target,
		GameType:  gt,
		Stake:     req.Stake,
		Selection: sel,
		Status:    domain.StatusPending,
		CreatedAt: s.Now().UTC(),
	}, nil
}

// quoter captura os multiplicadores a partir do estado lido dentro da unidade.
func (s *Service) quoter(w domain.Wager) repo.Quoter {
	return func(snap repo.Snapshot) (decimal.Decimal, *decimal.Decimal, error) {
		var (
			o   matcher.Odds
			err error
		)
		switch {
		case snap.Binding != nil:
			o, err = matcher.QuoteDraw(w.GameType, w.Selection, *snap.Binding, s.Table)
		case snap.Match != nil:
			o, err = matcher.QuoteMatch(w.Selection, *snap.Match)
		default:
			o = matcher.QuoteCoinToss(s.Table)
		}
		return o.Base, o.Double, err
	}
}

func checkStake(accountID string, stake decimal.Decimal) error {
	if accountID == "" {
		return fmt.Errorf("%w: accountId is required", domain.ErrInvalidRequest)
	}
	if !stake.IsPositive() {
		return fmt.Errorf("%w: stake must be positive", domain.ErrInvalidRequest)
	}
	if !stake.Equal(domain.RoundMoney(stake)) {
		return fmt.Errorf("%w: stake has more than %d decimal places", domain.ErrInvalidRequest, domain.MoneyPlaces)
	}
	return nil
}

func (s *Service) publishPlaced(ctx context.Context, w domain.Wager, bal decimal.Decimal) {
	if err := s.Publisher.PublishWagerPlaced(ctx, publisher.WagerPlaced(w, bal)); err != nil {
		s.publishFailed("wager_placed", w.ID, err)
	}
}

func (s *Service) publishFailed(stage, wagerID string, err error) {
	s.Log.Warn("publish failed", zap.String("stage", stage), zap.String("wagerId", wagerID), zap.Error(err))
	if s.OnPublishError != nil {
		s.OnPublishError(stage)
	}
}

func (s *Service) rejected(err error) {
	s.Log.Debug("wager rejected", zap.Error(err))
	if s.OnRejected != nil {
		s.OnRejected(Reason(err))
	}
}

// tossOutcome deduz a face sorteada de um coin toss já liquidado.
func tossOutcome(w domain.Wager) string {
	if w.Status == domain.StatusWon {
		return w.Selection
	}
	if w.Selection == "heads" {
		return "tails"
	}
	return "heads"
}
