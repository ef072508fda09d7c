package wagers

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/radieske/wager-settlement-platform/internal/wager-service/domain"
)

// Store guarda as apostas em memória. Apostas nunca são removidas; a única
// transição permitida é pending -> won|lost, uma vez.
type Store struct {
	mu    sync.RWMutex
	byID  map[string]*domain.Wager
	order []string // ordem de inserção
}

func New() *Store {
	return &Store{byID: make(map[string]*domain.Wager)}
}

// Create insere a aposta. Deve ser chamado dentro da seção crítica do débito.
func (s *Store) Create(_ context.Context, w domain.Wager) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[w.ID]; ok {
		return fmt.Errorf("wager %s already exists", w.ID)
	}
	cp := w
	s.byID[w.ID] = &cp
	s.order = append(s.order, w.ID)
	return nil
}

// UpdateStatus aplica a resolução se a aposta ainda estiver pending. Caso
// contrário devolve o registro atual inalterado com applied=false.
func (s *Store) UpdateStatus(_ context.Context, id string, r domain.Resolution) (domain.Wager, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	w, ok := s.byID[id]
	if !ok {
		return domain.Wager{}, false, fmt.Errorf("%w: %s", domain.ErrWagerNotFound, id)
	}
	if w.Settled() {
		return *w, false, nil
	}
	*w = w.Apply(r)
	return *w, true, nil
}

func (s *Store) Get(_ context.Context, id string) (domain.Wager, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.byID[id]
	if !ok {
		return domain.Wager{}, fmt.Errorf("%w: %s", domain.ErrWagerNotFound, id)
	}
	return *w, nil
}

// ListByAccount devolve o histórico da conta, mais recentes primeiro.
func (s *Store) ListByAccount(_ context.Context, accountID string) []domain.Wager {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Wager
	for i := len(s.order) - 1; i >= 0; i-- {
		w := s.byID[s.order[i]]
		if w.AccountID == accountID {
			out = append(out, *w)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

// ListPending devolve as apostas pending do alvo na ordem de colocação.
func (s *Store) ListPending(_ context.Context, target domain.Target) []domain.Wager {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.Wager
	for _, id := range s.order {
		w := s.byID[id]
		if w.Status == domain.StatusPending && w.Target == target {
			out = append(out, *w)
		}
	}
	return out
}

// PendingTargets lista os alvos distintos que ainda têm apostas pending.
func (s *Store) PendingTargets(_ context.Context) []domain.Target {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[domain.Target]struct{})
	var out []domain.Target
	for _, id := range s.order {
		w := s.byID[id]
		if w.Status != domain.StatusPending {
			continue
		}
		if _, ok := seen[w.Target]; ok {
			continue
		}
		seen[w.Target] = struct{}{}
		out = append(out, w.Target)
	}
	return out
}
