package registry

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

// round serializa colocação (RLock) e declaração (Lock) de um mesmo alvo.
// Alvos diferentes nunca disputam o mesmo lock.
type marketEntry struct {
	round    sync.RWMutex
	market   domain.Market
	bindings map[domain.GameType]domain.GameBinding
}

type matchEntry struct {
	round sync.RWMutex
	match domain.Match
}

// Registry mantém mercados e partidas em memória.
type Registry struct {
	mu      sync.RWMutex // protege os mapas e os dados das entradas
	markets map[string]*marketEntry
	matches map[string]*matchEntry
	now     func() time.Time
}

func New() *Registry {
	return &Registry{
		markets: make(map[string]*marketEntry),
		matches: make(map[string]*matchEntry),
		now:     time.Now,
	}
}

// ---------- mercados ----------

func (r *Registry) CreateMarket(_ context.Context, m domain.Market) (domain.Market, error) {
	if err := m.Validate(); err != nil {
		return domain.Market{}, err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.Result, m.ResultAt = nil, nil

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.markets[m.ID]; ok {
		return domain.Market{}, fmt.Errorf("%w: market %s already exists", domain.ErrInvalidRequest, m.ID)
	}
	r.markets[m.ID] = &marketEntry{market: m, bindings: make(map[domain.GameType]domain.GameBinding)}
	return m, nil
}

// BindGameType cria ou atualiza as odds de um tipo de jogo no mercado. Apostas
// já colocadas mantêm o multiplicador capturado.
func (r *Registry) BindGameType(_ context.Context, b domain.GameBinding) (domain.GameBinding, error) {
	if err := b.Validate(); err != nil {
		return domain.GameBinding{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.markets[b.MarketID]
	if !ok {
		return domain.GameBinding{}, fmt.Errorf("%w: %s", domain.ErrMarketNotFound, b.MarketID)
	}
	e.bindings[b.GameType] = b
	return b, nil
}

func (r *Registry) GetMarket(_ context.Context, id string) (domain.Market, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.markets[id]
	if !ok {
		return domain.Market{}, fmt.Errorf("%w: %s", domain.ErrMarketNotFound, id)
	}
	return e.market, nil
}

func (r *Registry) ListMarkets(_ context.Context) []domain.Market {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Market, 0, len(r.markets))
	for _, e := range r.markets {
		out = append(out, e.market)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OpenTime != out[j].OpenTime {
			return out[i].OpenTime < out[j].OpenTime
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (r *Registry) Bindings(_ context.Context, marketID string) ([]domain.GameBinding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.markets[marketID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrMarketNotFound, marketID)
	}
	out := make([]domain.GameBinding, 0, len(e.bindings))
	for _, b := range e.bindings {
		out = append(out, b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].GameType < out[j].GameType })
	return out, nil
}

func (r *Registry) Binding(_ context.Context, marketID string, gt domain.GameType) (domain.GameBinding, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.markets[marketID]
	if !ok {
		return domain.GameBinding{}, fmt.Errorf("%w: %s", domain.ErrMarketNotFound, marketID)
	}
	b, ok := e.bindings[gt]
	if !ok {
		return domain.GameBinding{}, fmt.Errorf("%w: %s not offered on market %s", domain.ErrUnknownGameType, gt, marketID)
	}
	return b, nil
}

// SetMarketOpen abre ou fecha o mercado. Reabrir um mercado declarado é rejeitado.
func (r *Registry) SetMarketOpen(_ context.Context, id string, open bool) (domain.Market, error) {
	e, err := r.marketEntry(id)
	if err != nil {
		return domain.Market{}, err
	}
	e.round.Lock()
	defer e.round.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if open && e.market.Declared() {
		return e.market, fmt.Errorf("%w: market %s", domain.ErrAlreadyDeclared, id)
	}
	e.market.IsOpen = open
	return e.market, nil
}

// DeclareMarket grava o resultado e fecha o mercado. Espera colocações em
// andamento no mesmo mercado terminarem.
func (r *Registry) DeclareMarket(_ context.Context, id, result string) (domain.Market, error) {
	e, err := r.marketEntry(id)
	if err != nil {
		return domain.Market{}, err
	}
	e.round.Lock()
	defer e.round.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if e.market.Declared() {
		return e.market, fmt.Errorf("%w: market %s", domain.ErrAlreadyDeclared, id)
	}
	at := r.now().UTC()
	res := result
	e.market.Result = &res
	e.market.ResultAt = &at
	e.market.IsOpen = false
	return e.market, nil
}

// WithMarketOpen executa fn enquanto o mercado está garantidamente aberto: a
// declaração do mesmo mercado espera fn retornar.
func (r *Registry) WithMarketOpen(_ context.Context, id string, gt domain.GameType, fn func(domain.Market, domain.GameBinding) error) error {
	e, err := r.marketEntry(id)
	if err != nil {
		return err
	}
	e.round.RLock()
	defer e.round.RUnlock()

	r.mu.RLock()
	m := e.market
	b, bound := e.bindings[gt]
	r.mu.RUnlock()

	if !m.IsOpen {
		return fmt.Errorf("%w: %s", domain.ErrMarketClosed, id)
	}
	if !bound {
		return fmt.Errorf("%w: %s not offered on market %s", domain.ErrUnknownGameType, gt, id)
	}
	return fn(m, b)
}

// DeclaredMarkets lista os mercados com resultado.
func (r *Registry) DeclaredMarkets(_ context.Context) []domain.Market {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Market
	for _, e := range r.markets {
		if e.market.Declared() {
			out = append(out, e.market)
		}
	}
	return out
}

func (r *Registry) marketEntry(id string) (*marketEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.markets[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrMarketNotFound, id)
	}
	return e, nil
}

// ---------- partidas ----------

func (r *Registry) CreateMatch(_ context.Context, m domain.Match) (domain.Match, error) {
	if err := m.Validate(); err != nil {
		return domain.Match{}, err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.Result, m.ResultAt = nil, nil

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.matches[m.ID]; ok {
		return domain.Match{}, fmt.Errorf("%w: match %s already exists", domain.ErrInvalidRequest, m.ID)
	}
	r.matches[m.ID] = &matchEntry{match: m}
	return m, nil
}

func (r *Registry) GetMatch(_ context.Context, id string) (domain.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.matches[id]
	if !ok {
		return domain.Match{}, fmt.Errorf("%w: %s", domain.ErrMatchNotFound, id)
	}
	return e.match, nil
}

func (r *Registry) ListMatches(_ context.Context) []domain.Match {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Match, 0, len(r.matches))
	for _, e := range r.matches {
		out = append(out, e.match)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TeamA != out[j].TeamA {
			return out[i].TeamA < out[j].TeamA
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// UpdateMatchOdds altera as odds correntes; multiplicadores já capturados não mudam.
func (r *Registry) UpdateMatchOdds(_ context.Context, id string, oddsA, oddsB decimal.Decimal) (domain.Match, error) {
	if err := domain.CheckOdds(oddsA); err != nil {
		return domain.Match{}, err
	}
	if err := domain.CheckOdds(oddsB); err != nil {
		return domain.Match{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.matches[id]
	if !ok {
		return domain.Match{}, fmt.Errorf("%w: %s", domain.ErrMatchNotFound, id)
	}
	if e.match.Declared() {
		return e.match, fmt.Errorf("%w: match %s", domain.ErrAlreadyDeclared, id)
	}
	e.match.OddsTeamA = oddsA
	e.match.OddsTeamB = oddsB
	return e.match, nil
}

func (r *Registry) SetMatchOpen(_ context.Context, id string, open bool) (domain.Match, error) {
	e, err := r.matchEntry(id)
	if err != nil {
		return domain.Match{}, err
	}
	e.round.Lock()
	defer e.round.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if open && e.match.Declared() {
		return e.match, fmt.Errorf("%w: match %s", domain.ErrAlreadyDeclared, id)
	}
	e.match.IsOpen = open
	return e.match, nil
}

func (r *Registry) DeclareMatch(_ context.Context, id, result string) (domain.Match, error) {
	e, err := r.matchEntry(id)
	if err != nil {
		return domain.Match{}, err
	}
	e.round.Lock()
	defer e.round.Unlock()

	r.mu.Lock()
	defer r.mu.Unlock()
	if e.match.Declared() {
		return e.match, fmt.Errorf("%w: match %s", domain.ErrAlreadyDeclared, id)
	}
	at := r.now().UTC()
	res := result
	e.match.Result = &res
	e.match.ResultAt = &at
	e.match.IsOpen = false
	return e.match, nil
}

// WithMatchOpen é o análogo de WithMarketOpen; fn recebe as odds correntes.
func (r *Registry) WithMatchOpen(_ context.Context, id string, fn func(domain.Match) error) error {
	e, err := r.matchEntry(id)
	if err != nil {
		return err
	}
	e.round.RLock()
	defer e.round.RUnlock()

	r.mu.RLock()
	m := e.match
	r.mu.RUnlock()

	if !m.IsOpen {
		return fmt.Errorf("%w: match %s", domain.ErrMarketClosed, id)
	}
	return fn(m)
}

func (r *Registry) DeclaredMatches(_ context.Context) []domain.Match {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []domain.Match
	for _, e := range r.matches {
		if e.match.Declared() {
			out = append(out, e.match)
		}
	}
	return out
}

func (r *Registry) matchEntry(id string) (*matchEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.matches[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrMatchNotFound, id)
	}
	return e, nil
}
