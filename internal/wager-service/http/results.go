package httpapi

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/radieske/wager-settlement-platform/internal/wager-service/domain"
	"github.com/radieske/wager-settlement-platform/internal/wager-service/dto"
)

func (s *Server) declareMarket(w http.ResponseWriter, r *http.Request) {
	var req dto.DeclareResultRequest
	if !s.decode(w, r, &req) {
		return
	}
	rep, err := s.settlement.DeclareMarketResult(r.Context(), chi.URLParam(r, "id"), req.Result)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func (s *Server) declareMatch(w http.ResponseWriter, r *http.Request) {
	var req dto.DeclareResultRequest
	if !s.decode(w, r, &req) {
		return
	}
	rep, err := s.settlement.DeclareMatchResult(r.Context(), chi.URLParam(r, "id"), req.Result)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

// resettle: POST /admin/{markets|matches}/{id}/resettle
func (s *Server) resettle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	var target domain.Target
	switch chi.URLParam(r, "kind") {
	case "markets":
		target = domain.MarketTarget(id)
	case "matches":
		target = domain.MatchTarget(id)
	default:
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "not_found"})
		return
	}
	rep, err := s.settlement.Resettle(r.Context(), target)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rep)
}

func domainErr(msg string) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidRequest, msg)
}
