package placement

import (
	"errors"

	"github.com/radieske/wager-settlement-platform/internal/wager-service/domain"
)

// Reason reduz um erro de colocação a um rótulo estável (métricas, respostas).
func Reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, domain.ErrMarketClosed):
		return "market_closed"
	case errors.Is(err, domain.ErrUnknownGameType):
		return "unknown_game_type"
	case errors.Is(err, domain.ErrInvalidSelection):
		return "invalid_selection"
	case errors.Is(err, domain.ErrInvalidRequest), errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_request"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, domain.ErrMarketNotFound):
		return "market_not_found"
	case errors.Is(err, domain.ErrMatchNotFound):
		return "match_not_found"
	}
	return "internal"
}
