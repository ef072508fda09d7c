package publisher

import (
	"context"
	"errors"

	"github.com/radieske/wager-settlement-platform/pkg/contracts/events"
)

// Multi repassa cada evento a todos os publishers, sem interromper no
// primeiro erro. Os erros são combinados com errors.Join.
type Multi []events.Publisher

func (m Multi) PublishWagerPlaced(ctx context.Context, e events.WagerPlaced) error {
	var errs []error
	for _, p := range m {
		errs = append(errs, p.PublishWagerPlaced(ctx, e))
	}
	return errors.Join(errs...)
}

func (m Multi) PublishWagerSettled(ctx context.Context, e events.WagerSettled) error {
	var errs []error
	for _, p := range m {
		errs = append(errs, p.PublishWagerSettled(ctx, e))
	}
	return errors.Join(errs...)
}

func (m Multi) PublishTargetResult(ctx context.Context, e events.TargetResult) error {
	var errs []error
	for _, p := range m {
		errs = append(errs, p.PublishTargetResult(ctx, e))
	}
	return errors.Join(errs...)
}

// Nop descarta os eventos.
type Nop struct{}

func (Nop) PublishWagerPlaced(context.Context, events.WagerPlaced) error { return nil }
func (Nop) PublishWagerSettled(context.Context, events.WagerSettled) error { return nil }
func (Nop) PublishTargetResult(context.Context, events.TargetResult) error { return nil }

var (
	_ events.Publisher = (*Kafka)(nil)
	_ events.Publisher = (*Redis)(nil)
	_ events.Publisher = Multi(nil)
	_ events.Publisher = Nop{}
)
