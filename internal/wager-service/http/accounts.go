package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/radieske/wager-settlement-platform/internal/wager-service/dto"
)

func (s *Server) getBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	bal, err := s.store.Balance(r.Context(), id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.BalanceResponse{AccountID: id, Balance: bal})
}

func (s *Server) listLedger(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.LedgerEntries(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(entries))
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateAccountRequest
	if !s.decode(w, r, &req) {
		return
	}
	opening := decimal.Zero
	if req.OpeningBalance != "" {
		var err error
		if opening, err = decimal.NewFromString(req.OpeningBalance); err != nil {
			writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "validation_failed", Message: "openingBalance: " + err.Error()})
			return
		}
	}

	acc, err := s.store.CreateAccount(r.Context(), req.Username, req.IsAdmin, opening)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, acc)
}

func (s *Server) deposit(w http.ResponseWriter, r *http.Request) {
	var req dto.DepositRequest
	if !s.decode(w, r, &req) {
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "validation_failed", Message: "amount: " + err.Error()})
		return
	}
	ref := req.Reference
	if ref == "" {
		ref = "deposit:" + uuid.NewString()
	}

	id := chi.URLParam(r, "id")
	bal, err := s.store.Deposit(r.Context(), id, amount, ref)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dto.BalanceResponse{AccountID: id, Balance: bal})
}
