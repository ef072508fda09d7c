package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Evento publicado no tópico "wager_placed" após débito + inserção.
type WagerPlaced struct {
	WagerID          string           `json:"wagerId"`
	AccountID        string           `json:"accountId"`
	TargetKind       string           `json:"targetKind"` // "market" | "match" | "instant"
	TargetID         string           `json:"targetId,omitempty"`
	GameType         string           `json:"gameType"`
	Selection        string           `json:"selection"`
	Stake            decimal.Decimal  `json:"stake"`
	Multiplier       decimal.Decimal  `json:"multiplier"`
	DoubleMultiplier *decimal.Decimal `json:"doubleMultiplier,omitempty"`
	NewBalance       decimal.Decimal  `json:"newBalance"`
	Ts               time.Time        `json:"ts"`
}

// Evento publicado no tópico "wager_settled", um por aposta liquidada.
type WagerSettled struct {
	WagerID    string          `json:"wagerId"`
	AccountID  string          `json:"accountId"`
	TargetKind string          `json:"targetKind"`
	TargetID   string          `json:"targetId,omitempty"`
	GameType   string          `json:"gameType"`
	Selection  string          `json:"selection"`
	Result     string          `json:"result"`
	Status     string          `json:"status"` // "won" | "lost"
	Stake      decimal.Decimal `json:"stake"`
	WinAmount  decimal.Decimal `json:"winAmount"`
	Ts         time.Time       `json:"ts"`
}

// Evento publicado no tópico "target_result" ao fim de cada lote de liquidação.
type TargetResult struct {
	TargetKind string          `json:"targetKind"`
	TargetID   string          `json:"targetId"`
	Result     string          `json:"result"`
	DeclaredAt time.Time       `json:"declaredAt"`
	Settled    int             `json:"settled"`
	Won        int             `json:"won"`
	Lost       int             `json:"lost"`
	Failed     int             `json:"failed"`
	TotalPaid  decimal.Decimal `json:"totalPaid"`
	Ts         time.Time       `json:"ts"`
}

// Publisher é a capacidade de emissão injetada no núcleo. Falhas são
// reportadas, nunca desfazem o que já foi gravado.
type Publisher interface {
	PublishWagerPlaced(ctx context.Context, e WagerPlaced) error
	PublishWagerSettled(ctx context.Context, e WagerSettled) error
	PublishTargetResult(ctx context.Context, e TargetResult) error
}
