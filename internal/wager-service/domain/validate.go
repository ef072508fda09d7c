package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// OddsPlaces é a escala das odds e dos multiplicadores capturados
// (NUMERIC(10,2) no banco).
const OddsPlaces = 2

// CheckOdds exige odds positivas na escala gravada, para que o multiplicador
// capturado seja exatamente o persistido e pago.
func CheckOdds(d decimal.Decimal) error {
	if !d.IsPositive() {
		return fmt.Errorf("%w: odds must be positive, got %s", ErrInvalidRequest, d)
	}
	if !d.Equal(d.Round(OddsPlaces)) {
		return fmt.Errorf("%w: odds %s has more than %d decimal places", ErrInvalidRequest, d, OddsPlaces)
	}
	return nil
}

func (m Market) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("%w: market name is required", ErrInvalidRequest)
	}
	return nil
}

// Validate normaliza e verifica a configuração de odds. Odds duplas só
// existem para hurf.
func (b *GameBinding) Validate() error {
	if !b.GameType.IsDraw() {
		return fmt.Errorf("%w: %s cannot be bound to a market", ErrUnknownGameType, b.GameType)
	}
	if err := CheckOdds(b.Odds); err != nil {
		return err
	}
	if b.DoubleMatchOdds != nil {
		if err := CheckOdds(*b.DoubleMatchOdds); err != nil {
			return err
		}
	}
	if b.GameType != GameHurf {
		b.DoubleMatchOdds = nil
	}
	return nil
}

func (m Match) Validate() error {
	if m.TeamA == "" || m.TeamB == "" {
		return fmt.Errorf("%w: both teams are required", ErrInvalidRequest)
	}
	if err := CheckOdds(m.OddsTeamA); err != nil {
		return err
	}
	return CheckOdds(m.OddsTeamB)
}
