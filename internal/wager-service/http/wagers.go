package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/radieske/wager-settlement-platform/internal/wager-service/dto"
	"github.com/radieske/wager-settlement-platform/internal/wager-service/placement"
)

func (s *Server) placeWager(w http.ResponseWriter, r *http.Request) {
	var req dto.PlaceWagerRequest
	if !s.decode(w, r, &req) {
		return
	}
	stake, err := decimal.NewFromString(req.Stake)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "validation_failed", Message: "stake: " + err.Error()})
		return
	}

	rc, err := s.placement.Place(r.Context(), placement.Request{
		AccountID: req.AccountID,
		MarketID:  req.MarketID,
		MatchID:   req.MatchID,
		GameType:  req.GameType,
		Stake:     stake,
		Selection: req.Selection,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PlaceWagerResponse{
		WagerID:          rc.Wager.ID,
		Status:           string(rc.Wager.Status),
		Selection:        rc.Wager.Selection,
		Multiplier:       rc.Wager.Multiplier,
		DoubleMultiplier: rc.Wager.DoubleMultiplier,
		NewBalance:       rc.NewBalance,
	})
}

func (s *Server) coinToss(w http.ResponseWriter, r *http.Request) {
	var req dto.CoinTossRequest
	if !s.decode(w, r, &req) {
		return
	}
	stake, err := decimal.NewFromString(req.Stake)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "validation_failed", Message: "stake: " + err.Error()})
		return
	}

	res, err := s.placement.PlayCoinToss(r.Context(), req.AccountID, stake, req.Selection)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.CoinTossResponse{
		WagerID:    res.Wager.ID,
		Outcome:    res.Outcome,
		Status:     string(res.Wager.Status),
		WinAmount:  res.Wager.WinAmount,
		NewBalance: res.NewBalance,
	})
}

func (s *Server) getWager(w http.ResponseWriter, r *http.Request) {
	wg, err := s.store.GetWager(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wg)
}

func (s *Server) listAccountWagers(w http.ResponseWriter, r *http.Request) {
	ws, err := s.store.ListWagersByAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(ws))
}

// nonNil garante "[]" em vez de "null" nas listagens.
func nonNil[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}
