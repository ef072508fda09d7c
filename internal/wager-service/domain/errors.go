package domain

import "errors"

// Taxonomia de erros do núcleo de apostas. Detalhes são anexados com
// fmt.Errorf("%w: ...") e verificados com errors.Is na borda HTTP.
var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrMarketClosed      = errors.New("market closed")
	ErrAlreadyDeclared   = errors.New("result already declared")
	ErrUnknownGameType   = errors.New("unknown game type")
	ErrInvalidSelection  = errors.New("invalid selection")
	ErrInvalidResult     = errors.New("invalid result")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidRequest    = errors.New("invalid request")

	ErrAccountNotFound = errors.New("account not found")
	ErrMarketNotFound  = errors.New("market not found")
	ErrMatchNotFound   = errors.New("match not found")
	ErrWagerNotFound   = errors.New("wager not found")

	// ErrSettlementCredit marca a falha de uma unidade de liquidação; a aposta
	// continua pending e pode ser liquidada de novo.
	ErrSettlementCredit = errors.New("settlement credit failure")
)
