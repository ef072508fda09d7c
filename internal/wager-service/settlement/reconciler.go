package settlement

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// DefaultReconcileSpec roda a cada minuto (formato com segundos).
const DefaultReconcileSpec = "0 * * * * *"

// Reconciler reliquida periodicamente alvos declarados que ainda têm apostas
// pending (colocações na janela da declaração, unidades que falharam).
type Reconciler struct {
	engine *Engine
	log    *zap.Logger
	cron   *cron.Cron

	OnRun func(targets int) // métricas
}

func NewReconciler(engine *Engine, spec string, log *zap.Logger) (*Reconciler, error) {
	if spec == "" {
		spec = DefaultReconcileSpec
	}
	r := &Reconciler{engine: engine, log: log}
	cl := cronLogger{l: log.Sugar()}
	r.cron = cron.New(
		cron.WithSeconds(),
		cron.WithLogger(cl),
		cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
	)
	if _, err := r.cron.AddFunc(spec, func() { _, _ = r.RunOnce(context.Background()) }); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Reconciler) Start() { r.cron.Start() }

// Stop para o agendador; o contexto devolvido termina quando o job em curso acaba.
func (r *Reconciler) Stop() context.Context { return r.cron.Stop() }

// RunOnce reliquida todos os alvos pendentes e devolve quantos foram visitados.
func (r *Reconciler) RunOnce(ctx context.Context) (int, error) {
	targets, err := r.engine.Store.PendingDeclaredTargets(ctx)
	if err != nil {
		r.log.Error("reconcile: list targets failed", zap.Error(err))
		return 0, err
	}
	for _, t := range targets {
		rep, err := r.engine.Resettle(ctx, t)
		if err != nil {
			r.log.Error("reconcile: resettle failed", zap.String("target", t.String()), zap.Error(err))
			continue
		}
		r.log.Info("reconcile: target resettled",
			zap.String("target", t.String()),
			zap.Int("settled", rep.SettledCount),
			zap.Int("failed", rep.Failed),
		)
	}
	if r.OnRun != nil {
		r.OnRun(len(targets))
	}
	return len(targets), nil
}

// cronLogger adapta o zap ao cron.Logger.
type cronLogger struct{ l *zap.SugaredLogger }

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debugw(msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Errorw(msg, append(keysAndValues, "error", err)...)
}
