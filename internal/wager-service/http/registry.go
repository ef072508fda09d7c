package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/radieske/wager-settlement-platform/internal/wager-service/domain"
	"github.com/radieske/wager-settlement-platform/internal/wager-service/dto"
)

func (s *Server) listMarkets(w http.ResponseWriter, r *http.Request) {
	ms, err := s.store.ListMarkets(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(ms))
}

func (s *Server) getMarket(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.GetMarket(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) listBindings(w http.ResponseWriter, r *http.Request) {
	bs, err := s.store.Bindings(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(bs))
}

func (s *Server) listMatches(w http.ResponseWriter, r *http.Request) {
	ms, err := s.store.ListMatches(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(ms))
}

func (s *Server) getMatch(w http.ResponseWriter, r *http.Request) {
	m, err := s.store.GetMatch(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// createMarket cria o mercado e configura os jogos. Sem gameTypes no corpo,
// todos os jogos de sorteio são oferecidos com as odds padrão.
func (s *Server) createMarket(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMarketRequest
	if !s.decode(w, r, &req) {
		return
	}
	reqs := req.GameTypes
	if len(reqs) == 0 {
		for _, gt := range domain.DrawGameTypes {
			reqs = append(reqs, dto.BindGameTypeRequest{GameType: string(gt)})
		}
	}
	// valida os bindings antes de criar o mercado
	bindings := make([]domain.GameBinding, 0, len(reqs))
	for _, br := range reqs {
		b, err := s.bindingFrom("", br)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		bindings = append(bindings, b)
	}

	m, err := s.store.CreateMarket(r.Context(), domain.Market{
		ID:        req.ID,
		Name:      req.Name,
		OpenTime:  req.OpenTime,
		CloseTime: req.CloseTime,
		IsOpen:    req.IsOpen,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	for _, b := range bindings {
		b.MarketID = m.ID
		if _, err := s.store.BindGameType(r.Context(), b); err != nil {
			s.writeError(w, r, err)
			return
		}
	}
	s.log.Info("market created", zap.String("marketId", m.ID), zap.Int("gameTypes", len(bindings)))
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) bindGameType(w http.ResponseWriter, r *http.Request) {
	var req dto.BindGameTypeRequest
	if !s.decode(w, r, &req) {
		return
	}
	b, err := s.bindingFrom(chi.URLParam(r, "id"), req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	out, err := s.store.BindGameType(r.Context(), b)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// bindingFrom completa as odds omitidas com a tabela de pagamentos.
func (s *Server) bindingFrom(marketID string, req dto.BindGameTypeRequest) (domain.GameBinding, error) {
	b, err := s.placement.Table.DefaultBinding(marketID, domain.GameType(req.GameType))
	if err != nil {
		return domain.GameBinding{}, err
	}
	if req.Odds != "" {
		if b.Odds, err = parseOdds(req.Odds); err != nil {
			return domain.GameBinding{}, err
		}
	}
	if req.DoubleMatchOdds != "" {
		d, err := parseOdds(req.DoubleMatchOdds)
		if err != nil {
			return domain.GameBinding{}, err
		}
		b.DoubleMatchOdds = &d
	}
	return b, nil
}

func (s *Server) setMarketOpen(w http.ResponseWriter, r *http.Request) {
	var req dto.SetOpenRequest
	if !s.decode(w, r, &req) {
		return
	}
	m, err := s.store.SetMarketOpen(r.Context(), chi.URLParam(r, "id"), *req.Open)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) createMatch(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateMatchRequest
	if !s.decode(w, r, &req) {
		return
	}
	a, err := parseOdds(req.OddsTeamA)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := parseOdds(req.OddsTeamB)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := s.store.CreateMatch(r.Context(), domain.Match{
		ID:        req.ID,
		TeamA:     req.TeamA,
		TeamB:     req.TeamB,
		OddsTeamA: a,
		OddsTeamB: b,
		IsOpen:    req.IsOpen,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (s *Server) updateMatchOdds(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateOddsRequest
	if !s.decode(w, r, &req) {
		return
	}
	a, err := parseOdds(req.OddsTeamA)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	b, err := parseOdds(req.OddsTeamB)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	m, err := s.store.UpdateMatchOdds(r.Context(), chi.URLParam(r, "id"), a, b)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (s *Server) setMatchOpen(w http.ResponseWriter, r *http.Request) {
	var req dto.SetOpenRequest
	if !s.decode(w, r, &req) {
		return
	}
	m, err := s.store.SetMatchOpen(r.Context(), chi.URLParam(r, "id"), *req.Open)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func parseOdds(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, domainErr("odds must be a positive decimal, got " + s)
	}
	if err := domain.CheckOdds(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}
