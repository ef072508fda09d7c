package matcher

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/radieske/wager-settlement-platform/internal/wager-service/domain"
)

// Odds são os multiplicadores capturados na colocação da aposta.
// Double só existe em hurf com as duas posições apostadas.
type Odds struct {
	Base   decimal.Decimal
	Double *decimal.Decimal
}

// Decision é o veredito do matcher para uma aposta.
type Decision struct {
	Won        bool
	Multiplier decimal.Decimal
}

// Evaluate decide se a seleção ganha contra o resultado declarado. É pura e
// determinística; a seleção deve estar na forma canônica de Parse.
func Evaluate(gt domain.GameType, selection, result string, odds Odds) (Decision, error) {
	lost := Decision{}
	if gt.IsDraw() {
		if err := ValidateResult(domain.TargetMarket, result); err != nil {
			return lost, err
		}
	}

	switch gt {
	case domain.GameJodi:
		return decide(selection == result, odds.Base), nil

	case domain.GameOddEven:
		n, err := strconv.Atoi(result)
		if err != nil {
			return lost, fmt.Errorf("%w: %q", domain.ErrInvalidResult, result)
		}
		odd := n%2 == 1
		return decide((selection == "odd") == odd, odds.Base), nil

	case domain.GameHurf:
		p, err := ParseHurf(selection)
		if err != nil {
			return lost, err
		}
		left := p.Left != nil && result[0] == *p.Left
		right := p.Right != nil && result[1] == *p.Right
		if p.Both() && left && right && odds.Double != nil {
			return Decision{Won: true, Multiplier: *odds.Double}, nil
		}
		// uma posição certa paga a taxa base, mesmo com as duas apostadas
		return decide(left || right, odds.Base), nil

	case domain.GameCross:
		digits, err := ParseCross(selection)
		if err != nil {
			return lost, err
		}
		return decide(crossHit(digits, result), odds.Base), nil

	case domain.GameTeamMatch:
		if err := ValidateResult(domain.TargetMatch, result); err != nil {
			return lost, err
		}
		return decide(selection == result, odds.Base), nil

	case domain.GameCoinToss:
		if err := ValidateResult(domain.TargetInstant, result); err != nil {
			return lost, err
		}
		return decide(selection == result, odds.Base), nil
	}
	return lost, fmt.Errorf("%w: %q", domain.ErrUnknownGameType, gt)
}

// EvaluateWager aplica Evaluate com os multiplicadores gravados na aposta.
func EvaluateWager(w domain.Wager, result string) (Decision, error) {
	return Evaluate(w.GameType, w.Selection, result, Odds{Base: w.Multiplier, Double: w.DoubleMultiplier})
}

// Resolve transforma a decisão numa resolução pronta para ser aplicada.
func Resolve(w domain.Wager, result string) (domain.Resolution, error) {
	d, err := EvaluateWager(w, result)
	if err != nil {
		return domain.Resolution{}, err
	}
	r := domain.Resolution{Result: result, Won: d.Won}
	if d.Won {
		r.WinAmount = Payout(w.Stake, d.Multiplier)
	}
	return r, nil
}

// Payout calcula stake * multiplicador na escala monetária.
func Payout(stake, multiplier decimal.Decimal) decimal.Decimal {
	return domain.RoundMoney(stake.Mul(multiplier))
}

// crossHit: o resultado é um par ordenado de dois dígitos distintos da seleção.
func crossHit(digits []byte, result string) bool {
	if result[0] == result[1] {
		return false
	}
	var a, b bool
	for _, d := range digits {
		a = a || d == result[0]
		b = b || d == result[1]
	}
	return a && b
}

func decide(won bool, m decimal.Decimal) Decision {
	if !won {
		return Decision{}
	}
	return Decision{Won: true, Multiplier: m}
}
