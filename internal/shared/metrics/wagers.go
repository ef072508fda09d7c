package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// Wagers reúne os coletores do wager-service. Os componentes do núcleo só
// conhecem callbacks; Bind* faz a ponte.
type Wagers struct {
	Placed        *prometheus.CounterVec
	Rejected      *prometheus.CounterVec
	Settled       *prometheus.CounterVec
	Payouts       prometheus.Counter
	Failures      prometheus.Counter
	PublishErrors *prometheus.CounterVec
	BatchDuration *prometheus.HistogramVec
	Reconciled    prometheus.Counter
}

func NewWagers(reg prometheus.Registerer) *Wagers {
	m := &Wagers{
		Placed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wagers_placed_total", Help: "apostas gravadas por tipo de jogo",
		}, []string{"game_type"}),
		Rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wagers_rejected_total", Help: "apostas rejeitadas por motivo",
		}, []string{"reason"}),
		Settled: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wagers_settled_total", Help: "apostas liquidadas por status",
		}, []string{"status"}),
		Payouts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wagers_payout_amount_total", Help: "soma dos prêmios creditados",
		}),
		Failures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "settlement_failures_total", Help: "unidades de liquidação que falharam e ficaram pending",
		}),
		PublishErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "events_publish_errors_total", Help: "falhas de publicação por estágio",
		}, []string{"stage"}),
		BatchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "settlement_batch_duration_seconds",
			Help:    "duração de um lote de liquidação",
			Buckets: prometheus.DefBuckets,
		}, []string{"kind"}),
		Reconciled: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reconciler_targets_total", Help: "alvos reprocessados pelo reconciliador",
		}),
	}
	reg.MustRegister(m.Placed, m.Rejected, m.Settled, m.Payouts, m.Failures, m.PublishErrors, m.BatchDuration, m.Reconciled)
	return m
}

func (m *Wagers) ObservePlaced(gameType string) { m.Placed.WithLabelValues(gameType).Inc() }
func (m *Wagers) ObserveRejected(reason string) { m.Rejected.WithLabelValues(reason).Inc() }
func (m *Wagers) ObserveFailure()               { m.Failures.Inc() }
func (m *Wagers) ObservePublishError(stage string) {
	m.PublishErrors.WithLabelValues(stage).Inc()
}

func (m *Wagers) ObserveSettled(status string, payout decimal.Decimal) {
	m.Settled.WithLabelValues(status).Inc()
	if payout.IsPositive() {
		f, _ := payout.Float64()
		m.Payouts.Add(f)
	}
}

func (m *Wagers) ObserveBatch(kind string, took time.Duration) {
	m.BatchDuration.WithLabelValues(kind).Observe(took.Seconds())
}

func (m *Wagers) ObserveReconciled(n int) { m.Reconciled.Add(float64(n)) }

// Notifier são os coletores do settlement-notifier.
type Notifier struct {
	Connections prometheus.Gauge
	Delivered   *prometheus.CounterVec
	Consumed    *prometheus.CounterVec
	Errors      *prometheus.CounterVec
}

func NewNotifier(reg prometheus.Registerer) *Notifier {
	m := &Notifier{
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "notifier_ws_connections", Help: "conexões WebSocket ativas",
		}),
		Delivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifier_messages_delivered_total", Help: "mensagens entregues por tipo de evento",
		}, []string{"type"}),
		Consumed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifier_kafka_messages_consumed_total", Help: "mensagens consumidas por tópico",
		}, []string{"topic"}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifier_errors_total", Help: "erros por estágio",
		}, []string{"stage"}),
	}
	reg.MustRegister(m.Connections, m.Delivered, m.Consumed, m.Errors)
	return m
}

func (m *Notifier) ObserveDelivered(eventType string, n int) {
	m.Delivered.WithLabelValues(eventType).Add(float64(n))
}

func (m *Notifier) ObserveConsumed(topic string) { m.Consumed.WithLabelValues(topic).Inc() }
func (m *Notifier) ObserveError(stage string)    { m.Errors.WithLabelValues(stage).Inc() }
