package publisher

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/radieske/wager-settlement-platform/internal/wager-service/domain"
	"github.com/radieske/wager-settlement-platform/pkg/contracts/events"
)

func WagerPlaced(w domain.Wager, newBalance decimal.Decimal) events.WagerPlaced {
	return events.WagerPlaced{
		WagerID:          w.ID,
		AccountID:        w.AccountID,
		TargetKind:       string(w.Target.Kind),
		TargetID:         w.Target.ID,
		GameType:         string(w.GameType),
		Selection:        w.Selection,
		Stake:            w.Stake,
		Multiplier:       w.Multiplier,
		DoubleMultiplier: w.DoubleMultiplier,
		NewBalance:       newBalance,
		Ts:               time.Now().UTC(),
	}
}

func WagerSettled(w domain.Wager) events.WagerSettled {
	e := events.WagerSettled{
		WagerID:    w.ID,
		AccountID:  w.AccountID,
		TargetKind: string(w.Target.Kind),
		TargetID:   w.Target.ID,
		GameType:   string(w.GameType),
		Selection:  w.Selection,
		Status:     string(w.Status),
		Stake:      w.Stake,
		WinAmount:  decimal.Zero,
		Ts:         time.Now().UTC(),
	}
	if w.Result != nil {
		e.Result = *w.Result
	}
	if w.WinAmount != nil {
		e.WinAmount = *w.WinAmount
	}
	return e
}
