package domain

import "fmt"

type GameType string

const (
	GameJodi      GameType = "jodi"
	GameOddEven   GameType = "odd-even"
	GameHurf      GameType = "hurf"
	GameCross     GameType = "cross"
	GameTeamMatch GameType = "team-match"
	GameCoinToss  GameType = "coin-toss"
)

// DrawGameTypes são as variantes do sorteio de 2 dígitos, configuradas por mercado.
var DrawGameTypes = []GameType{GameJodi, GameOddEven, GameHurf, GameCross}

func ParseGameType(s string) (GameType, error) {
	switch gt := GameType(s); gt {
	case GameJodi, GameOddEven, GameHurf, GameCross, GameTeamMatch, GameCoinToss:
		return gt, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownGameType, s)
}

// IsDraw indica se o tipo de jogo pertence a um mercado de sorteio.
func (g GameType) IsDraw() bool {
	switch g {
	case GameJodi, GameOddEven, GameHurf, GameCross:
		return true
	}
	return false
}
