package httpapi

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/radieske/wager-settlement-platform/internal/wager-service/domain"
	"github.com/radieske/wager-settlement-platform/internal/wager-service/dto"
	"github.com/radieske/wager-settlement-platform/internal/wager-service/placement"
	"github.com/radieske/wager-settlement-platform/internal/wager-service/repo"
	"github.com/radieske/wager-settlement-platform/internal/wager-service/settlement"
)

// AdminTokenHeader carrega o token de operador. Autenticação real está fora
// do escopo; o token só separa as rotas administrativas.
const AdminTokenHeader = "X-Admin-Token"

// Server expõe colocação, consulta de saldo e histórico, registry e
// declaração de resultados.
type Server struct {
	log        *zap.Logger
	store      repo.Store
	placement  *placement.Service
	settlement *settlement.Engine
	adminToken string
	validate   *validator.Validate
}

func NewServer(log *zap.Logger, store repo.Store, p *placement.Service, e *settlement.Engine, adminToken string) *Server {
	return &Server{
		log:        log,
		store:      store,
		placement:  p,
		settlement: e,
		adminToken: adminToken,
		validate:   validator.New(),
	}
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Post("/wagers", s.placeWager)
	r.Get("/wagers/{id}", s.getWager)
	r.Post("/coin-toss", s.coinToss)

	r.Get("/accounts/{id}/balance", s.getBalance)
	r.Get("/accounts/{id}/wagers", s.listAccountWagers)
	r.Get("/accounts/{id}/ledger", s.listLedger)

	r.Get("/markets", s.listMarkets)
	r.Get("/markets/{id}", s.getMarket)
	r.Get("/markets/{id}/game-types", s.listBindings)
	r.Get("/matches", s.listMatches)
	r.Get("/matches/{id}", s.getMatch)

	// rotas que movimentam saldo sem aposta também exigem o token de operador
	r.Group(func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Post("/accounts", s.createAccount)
		r.Post("/accounts/{id}/deposit", s.deposit)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.requireAdmin)
		r.Post("/markets", s.createMarket)
		r.Post("/markets/{id}/game-types", s.bindGameType)
		r.Post("/markets/{id}/open", s.setMarketOpen)
		r.Post("/markets/{id}/result", s.declareMarket)
		r.Post("/matches", s.createMatch)
		r.Put("/matches/{id}/odds", s.updateMatchOdds)
		r.Post("/matches/{id}/open", s.setMatchOpen)
		r.Post("/matches/{id}/result", s.declareMatch)
		r.Post("/{kind}/{id}/resettle", s.resettle)
	})
	return r
}

func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(AdminTokenHeader)
		if s.adminToken == "" || subtle.ConstantTimeCompare([]byte(got), []byte(s.adminToken)) != 1 {
			writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Error: "unauthorized", Message: "missing or invalid admin token"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// decode lê o corpo JSON e aplica as tags de validação. Em caso de erro já
// escreve a resposta 400.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "bad_json", Message: err.Error()})
		return false
	}
	if err := s.validate.Struct(v); err != nil {
		writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "validation_failed", Message: err.Error()})
		return false
	}
	return true
}

// writeJSON serializa a resposta em JSON e define o status HTTP
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError traduz a taxonomia de erros do domínio em status HTTP.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("requestId", middleware.GetReqID(r.Context())),
			zap.Error(err),
		)
		writeJSON(w, status, dto.ErrorResponse{Error: code})
		return
	}
	writeJSON(w, status, dto.ErrorResponse{Error: code, Message: err.Error()})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return http.StatusConflict, "insufficient_funds"
	case errors.Is(err, domain.ErrMarketClosed):
		return http.StatusConflict, "market_closed"
	case errors.Is(err, domain.ErrAlreadyDeclared):
		return http.StatusConflict, "already_declared"
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrMarketNotFound),
		errors.Is(err, domain.ErrMatchNotFound),
		errors.Is(err, domain.ErrWagerNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrUnknownGameType):
		return http.StatusUnprocessableEntity, "unknown_game_type"
	case errors.Is(err, domain.ErrInvalidSelection):
		return http.StatusUnprocessableEntity, "invalid_selection"
	case errors.Is(err, domain.ErrInvalidResult):
		return http.StatusUnprocessableEntity, "invalid_result"
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusUnprocessableEntity, "invalid_request"
	}
	return http.StatusInternalServerError, "internal"
}
