package settlement

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/radieske/wager-settlement-platform/internal/wager-service/domain"
	"github.com/radieske/wager-settlement-platform/internal/wager-service/matcher"
	"github.com/radieske/wager-settlement-platform/internal/wager-service/publisher"
	"github.com/radieske/wager-settlement-platform/internal/wager-service/repo"
	"github.com/radieske/wager-settlement-platform/pkg/contracts/events"
)

const (
	DefaultWorkers = 8

	// DefaultInstantGrace é a idade mínima de um coin toss pending para o
	// reconciliador sortear de novo; abaixo disso a jogada ainda pode estar em curso.
	DefaultInstantGrace = time.Minute
)

// Report resume um lote de liquidação. Market ou Match trazem o alvo como
// ficou gravado na declaração.
type Report struct {
	Target       domain.Target   `json:"target"`
	Result       string          `json:"result,omitempty"`
	DeclaredAt   time.Time       `json:"declaredAt"`
	SettledCount int             `json:"settledCount"`
	Won          int             `json:"won"`
	Lost         int             `json:"lost"`
	Failed       int             `json:"failed"`
	TotalPaid    decimal.Decimal `json:"totalPaid"`

	Market *domain.Market `json:"market,omitempty"`
	Match  *domain.Match  `json:"match,omitempty"`
}

// Engine declara resultados e liquida as apostas pending do alvo. Cada aposta
// é uma unidade independente (matcher -> crédito -> status) executada pelo
// Store; o lote roda em paralelo com limite de workers.
type Engine struct {
	Store     repo.Store
	Publisher events.Publisher
	Log       *zap.Logger
	Workers   int
	Now       func() time.Time

	Flip         func() bool // moeda do coin toss; true = heads
	InstantGrace time.Duration

	OnSettled      func(status string, payout decimal.Decimal) // métricas
	OnFailed       func()
	OnPublishError func(stage string)
	OnBatch        func(kind string, took time.Duration)
}

func New(store repo.Store, pub events.Publisher, log *zap.Logger, workers int) *Engine {
	if workers <= 0 {
		workers = DefaultWorkers
	}
	return &Engine{
		Store:        store,
		Publisher:    pub,
		Log:          log,
		Workers:      workers,
		Now:          time.Now,
		Flip:         func() bool { return rand.Intn(2) == 0 },
		InstantGrace: DefaultInstantGrace,
	}
}

// DeclareMarketResult grava o resultado do mercado e liquida as apostas.
// Rejeições (resultado inválido, mercado inexistente ou já declarado) não
// alteram nada.
func (e *Engine) DeclareMarketResult(ctx context.Context, marketID, result string) (Report, error) {
	if err := matcher.ValidateResult(domain.TargetMarket, result); err != nil {
		return Report{}, err
	}
	m, err := e.Store.DeclareMarket(ctx, marketID, result)
	if err != nil {
		return Report{}, err
	}
	e.Log.Info("market declared", zap.String("marketId", m.ID), zap.String("result", result))
	rep, err := e.settle(ctx, domain.MarketTarget(m.ID), result, declaredAt(m.ResultAt))
	rep.Market = &m
	return rep, err
}

func (e *Engine) DeclareMatchResult(ctx context.Context, matchID, result string) (Report, error) {
	if err := matcher.ValidateResult(domain.TargetMatch, result); err != nil {
		return Report{}, err
	}
	m, err := e.Store.DeclareMatch(ctx, matchID, result)
	if err != nil {
		return Report{}, err
	}
	e.Log.Info("match declared", zap.String("matchId", m.ID), zap.String("result", result))
	rep, err := e.settle(ctx, domain.MatchTarget(m.ID), result, declaredAt(m.ResultAt))
	rep.Match = &m
	return rep, err
}

// Resettle reexecuta a liquidação de um alvo já declarado com o resultado
// gravado. Apostas já liquidadas são ignoradas. Para o alvo instantâneo, os
// coin tosses pending além da carência são sorteados de novo.
func (e *Engine) Resettle(ctx context.Context, target domain.Target) (Report, error) {
	switch target.Kind {
	case domain.TargetMarket:
		m, err := e.Store.GetMarket(ctx, target.ID)
		if err != nil {
			return Report{}, err
		}
		if !m.Declared() {
			return Report{}, fmt.Errorf("%w: market %s has no result", domain.ErrInvalidRequest, m.ID)
		}
		rep, err := e.settle(ctx, target, *m.Result, declaredAt(m.ResultAt))
		rep.Market = &m
		return rep, err
	case domain.TargetMatch:
		m, err := e.Store.GetMatch(ctx, target.ID)
		if err != nil {
			return Report{}, err
		}
		if !m.Declared() {
			return Report{}, fmt.Errorf("%w: match %s has no result", domain.ErrInvalidRequest, m.ID)
		}
		rep, err := e.settle(ctx, target, *m.Result, declaredAt(m.ResultAt))
		rep.Match = &m
		return rep, err
	case domain.TargetInstant:
		return e.settleInstant(ctx)
	}
	return Report{}, fmt.Errorf("%w: cannot resettle %s", domain.ErrInvalidRequest, target)
}

func (e *Engine) settle(ctx context.Context, target domain.Target, result string, at time.Time) (Report, error) {
	start := time.Now()
	rep := Report{Target: target, Result: result, DeclaredAt: at, TotalPaid: decimal.Zero}

	pending, err := e.Store.PendingWagers(ctx, target)
	if err != nil {
		e.Log.Error("list pending wagers failed", zap.String("target", target.String()), zap.Error(err))
		return rep, err
	}

	e.runBatch(ctx, &rep, pending, func(domain.Wager) string { return result })

	e.Log.Info("settlement batch done",
		zap.String("target", target.String()),
		zap.String("result", result),
		zap.Int("pending", len(pending)),
		zap.Int("settled", rep.SettledCount),
		zap.Int("won", rep.Won),
		zap.Int("lost", rep.Lost),
		zap.Int("failed", rep.Failed),
		zap.String("totalPaid", rep.TotalPaid.String()),
	)
	if e.OnBatch != nil {
		e.OnBatch(string(target.Kind), time.Since(start))
	}

	if err := e.Publisher.PublishTargetResult(ctx, events.TargetResult{
		TargetKind: string(target.Kind),
		TargetID:   target.ID,
		Result:     result,
		DeclaredAt: at,
		Settled:    rep.SettledCount,
		Won:        rep.Won,
		Lost:       rep.Lost,
		Failed:     rep.Failed,
		TotalPaid:  rep.TotalPaid,
		Ts:         e.Now().UTC(),
	}); err != nil {
		e.publishFailed("target_result", target.String(), err)
	}
	return rep, nil
}

// settleInstant sorteia de novo os coin tosses cuja liquidação imediata
// falhou. O sorteio perdido nunca chegou ao jogador, então um novo é justo.
// Não há resultado de alvo a publicar.
func (e *Engine) settleInstant(ctx context.Context) (Report, error) {
	start := time.Now()
	target := domain.InstantTarget()
	rep := Report{Target: target, TotalPaid: decimal.Zero}

	pending, err := e.Store.PendingWagers(ctx, target)
	if err != nil {
		e.Log.Error("list pending wagers failed", zap.String("target", target.String()), zap.Error(err))
		return rep, err
	}
	cutoff := e.Now().Add(-e.InstantGrace)
	var stale []domain.Wager
	for _, w := range pending {
		if w.CreatedAt.Before(cutoff) {
			stale = append(stale, w)
		}
	}

	e.runBatch(ctx, &rep, stale, func(domain.Wager) string {
		if e.Flip() {
			return "heads"
		}
		return "tails"
	})

	e.Log.Info("instant wagers reflipped",
		zap.Int("pending", len(pending)),
		zap.Int("stale", len(stale)),
		zap.Int("settled", rep.SettledCount),
		zap.Int("failed", rep.Failed),
		zap.String("totalPaid", rep.TotalPaid.String()),
	)
	if e.OnBatch != nil {
		e.OnBatch(string(target.Kind), time.Since(start))
	}
	return rep, nil
}

// runBatch liquida as apostas em paralelo e acumula o resultado em rep.
func (e *Engine) runBatch(ctx context.Context, rep *Report, pending []domain.Wager, resultFor func(domain.Wager) string) {
	var (
		mu sync.Mutex
		g  errgroup.Group
	)
	g.SetLimit(e.Workers)
	for _, w := range pending {
		w := w
		g.Go(func() error {
			out, applied, err := e.settleOne(ctx, w, resultFor(w))

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				rep.Failed++
			case !applied:
				// liquidada por outra execução
			case out.Status == domain.StatusWon:
				rep.SettledCount++
				rep.Won++
				if out.WinAmount != nil {
					rep.TotalPaid = rep.TotalPaid.Add(*out.WinAmount)
				}
			default:
				rep.SettledCount++
				rep.Lost++
			}
			return nil
		})
	}
	_ = g.Wait()
}

// settleOne é a unidade de uma aposta. Uma falha deixa a aposta pending.
func (e *Engine) settleOne(ctx context.Context, w domain.Wager, result string) (domain.Wager, bool, error) {
	res, err := matcher.Resolve(w, result)
	if err != nil {
		e.failed(w, err)
		return domain.Wager{}, false, err
	}
	res.SettledAt = e.Now().UTC()

	out, applied, err := e.Store.SettleWager(ctx, w.ID, res)
	if err != nil {
		e.failed(w, err)
		return domain.Wager{}, false, err
	}
	if !applied {
		return out, false, nil
	}

	payout := decimal.Zero
	if out.WinAmount != nil {
		payout = *out.WinAmount
	}
	if e.OnSettled != nil {
		e.OnSettled(string(out.Status), payout)
	}
	if err := e.Publisher.PublishWagerSettled(ctx, publisher.WagerSettled(out)); err != nil {
		e.publishFailed("wager_settled", out.ID, err)
	}
	return out, true, nil
}

func (e *Engine) failed(w domain.Wager, err error) {
	e.Log.Error("settlement unit failed",
		zap.String("wagerId", w.ID),
		zap.String("accountId", w.AccountID),
		zap.String("target", w.Target.String()),
		zap.Error(err),
	)
	if e.OnFailed != nil {
		e.OnFailed()
	}
}

func (e *Engine) publishFailed(stage, key string, err error) {
	e.Log.Warn("publish failed", zap.String("stage", stage), zap.String("key", key), zap.Error(err))
	if e.OnPublishError != nil {
		e.OnPublishError(stage)
	}
}

func declaredAt(t *time.Time) time.Time {
	if t == nil {
		return time.Time{}
	}
	return *t
}
