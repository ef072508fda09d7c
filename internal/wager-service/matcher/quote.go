package matcher

import (
	"fmt"

	"github.com/radieske/wager-settlement-platform/internal/wager-service/domain"
)

// QuoteDraw calcula os multiplicadores a capturar numa aposta de sorteio.
// A seleção deve estar canônica.
func QuoteDraw(gt domain.GameType, selection string, b domain.GameBinding, t Table) (Odds, error) {
	if b.GameType != gt {
		return Odds{}, fmt.Errorf("%w: binding is %s, wager is %s", domain.ErrUnknownGameType, b.GameType, gt)
	}
	switch gt {
	case domain.GameJodi, domain.GameOddEven:
		return Odds{Base: b.Odds}, nil
	case domain.GameHurf:
		p, err := ParseHurf(selection)
		if err != nil {
			return Odds{}, err
		}
		o := Odds{Base: b.Odds}
		if p.Both() && b.DoubleMatchOdds != nil {
			dbl := *b.DoubleMatchOdds
			o.Double = &dbl
		}
		return o, nil
	case domain.GameCross:
		d, err := ParseCross(selection)
		if err != nil {
			return Odds{}, err
		}
		rate, err := t.CrossRate(len(d))
		if err != nil {
			return Odds{}, err
		}
		return Odds{Base: rate}, nil
	}
	return Odds{}, fmt.Errorf("%w: %q is not a draw game", domain.ErrUnknownGameType, gt)
}

// QuoteMatch captura as odds do time escolhido.
func QuoteMatch(selection string, m domain.Match) (Odds, error) {
	switch selection {
	case domain.TeamA:
		return Odds{Base: m.OddsTeamA}, nil
	case domain.TeamB:
		return Odds{Base: m.OddsTeamB}, nil
	}
	return Odds{}, fmt.Errorf("%w: %q", domain.ErrInvalidSelection, selection)
}

func QuoteCoinToss(t Table) Odds { return Odds{Base: t.CoinToss} }
