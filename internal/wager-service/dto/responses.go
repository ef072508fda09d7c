package dto

import "github.com/shopspring/decimal"

type PlaceWagerResponse struct {
	WagerID          string           `json:"wagerId"`
	Status           string           `json:"status"` // pending
	Selection        string           `json:"selection"`
	Multiplier       decimal.Decimal  `json:"multiplier"`
	DoubleMultiplier *decimal.Decimal `json:"doubleMultiplier,omitempty"`
	NewBalance       decimal.Decimal  `json:"newBalance"`
}

type CoinTossResponse struct {
	WagerID    string           `json:"wagerId"`
	Outcome    string           `json:"outcome"`
	Status     string           `json:"status"` // won | lost
	WinAmount  *decimal.Decimal `json:"winAmount,omitempty"`
	NewBalance decimal.Decimal  `json:"newBalance"`
}

type BalanceResponse struct {
	AccountID string          `json:"accountId"`
	Balance   decimal.Decimal `json:"balance"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
