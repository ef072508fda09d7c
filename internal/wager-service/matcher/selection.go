package matcher

import (
	"fmt"
	"sort"
	"strings"

	"github.com/radieske/wager-settlement-platform/internal/wager-service/domain"
)

const (
	crossMinDigits = 2
	crossMaxDigits = 5
)

// HurfPick guarda os dígitos escolhidos por posição; nil = posição não apostada.
type HurfPick struct {
	Left  *byte
	Right *byte
}

func (p HurfPick) Both() bool { return p.Left != nil && p.Right != nil }

func (p HurfPick) String() string {
	var parts []string
	if p.Left != nil {
		parts = append(parts, "left:"+string(*p.Left))
	}
	if p.Right != nil {
		parts = append(parts, "right:"+string(*p.Right))
	}
	return strings.Join(parts, ",")
}

// Parse valida a gramática da seleção para o tipo de jogo e devolve a forma
// canônica que é gravada na aposta.
func Parse(gt domain.GameType, raw string) (string, error) {
	s := strings.TrimSpace(raw)
	switch gt {
	case domain.GameJodi:
		if !isTwoDigits(s) {
			return "", invalid(gt, raw, "expected two digits 00-99")
		}
		return s, nil
	case domain.GameOddEven:
		switch strings.ToLower(s) {
		case "odd":
			return "odd", nil
		case "even":
			return "even", nil
		}
		return "", invalid(gt, raw, "expected odd or even")
	case domain.GameHurf:
		p, err := ParseHurf(s)
		if err != nil {
			return "", err
		}
		return p.String(), nil
	case domain.GameCross:
		d, err := ParseCross(s)
		if err != nil {
			return "", err
		}
		return joinDigits(d), nil
	case domain.GameTeamMatch:
		if s == domain.TeamA || s == domain.TeamB {
			return s, nil
		}
		return "", invalid(gt, raw, "expected teamA or teamB")
	case domain.GameCoinToss:
		switch strings.ToLower(s) {
		case "heads":
			return "heads", nil
		case "tails":
			return "tails", nil
		}
		return "", invalid(gt, raw, "expected heads or tails")
	}
	return "", fmt.Errorf("%w: %q", domain.ErrUnknownGameType, gt)
}

// ParseHurf aceita "left:<d>", "right:<d>" ou os dois separados por vírgula.
// Os prefixos curtos "l:"/"r:" também são aceitos.
func ParseHurf(s string) (HurfPick, error) {
	var p HurfPick
	parts := strings.Split(s, ",")
	if len(parts) == 0 || len(parts) > 2 {
		return p, invalid(domain.GameHurf, s, "expected one or two positions")
	}
	for _, part := range parts {
		pos, digit, ok := strings.Cut(strings.TrimSpace(part), ":")
		if !ok || len(digit) != 1 || !isDigit(digit[0]) {
			return p, invalid(domain.GameHurf, s, "expected left:<d> and/or right:<d>")
		}
		d := digit[0]
		switch strings.ToLower(pos) {
		case "left", "l":
			if p.Left != nil {
				return p, invalid(domain.GameHurf, s, "left position repeated")
			}
			p.Left = &d
		case "right", "r":
			if p.Right != nil {
				return p, invalid(domain.GameHurf, s, "right position repeated")
			}
			p.Right = &d
		default:
			return p, invalid(domain.GameHurf, s, "unknown position "+pos)
		}
	}
	return p, nil
}

// ParseCross devolve os dígitos únicos, ordenados, de uma seleção cross.
func ParseCross(s string) ([]byte, error) {
	parts := strings.Split(s, ",")
	if len(parts) < crossMinDigits || len(parts) > crossMaxDigits {
		return nil, invalid(domain.GameCross, s, fmt.Sprintf("expected %d-%d digits", crossMinDigits, crossMaxDigits))
	}
	seen := make(map[byte]bool, len(parts))
	out := make([]byte, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if len(part) != 1 || !isDigit(part[0]) {
			return nil, invalid(domain.GameCross, s, "each entry must be a single digit")
		}
		if seen[part[0]] {
			return nil, invalid(domain.GameCross, s, "digits must be unique")
		}
		seen[part[0]] = true
		out = append(out, part[0])
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// ValidateResult confere o formato do resultado declarado para o tipo de alvo.
func ValidateResult(kind domain.TargetKind, result string) error {
	switch kind {
	case domain.TargetMarket:
		if isTwoDigits(result) {
			return nil
		}
		return fmt.Errorf("%w: market result must be two digits, got %q", domain.ErrInvalidResult, result)
	case domain.TargetMatch:
		if result == domain.TeamA || result == domain.TeamB {
			return nil
		}
		return fmt.Errorf("%w: match result must be teamA or teamB, got %q", domain.ErrInvalidResult, result)
	case domain.TargetInstant:
		if result == "heads" || result == "tails" {
			return nil
		}
		return fmt.Errorf("%w: coin result must be heads or tails, got %q", domain.ErrInvalidResult, result)
	}
	return fmt.Errorf("%w: unknown target kind %q", domain.ErrInvalidResult, kind)
}

func invalid(gt domain.GameType, raw, why string) error {
	return fmt.Errorf("%w: %s %q: %s", domain.ErrInvalidSelection, gt, raw, why)
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func isTwoDigits(s string) bool { return len(s) == 2 && isDigit(s[0]) && isDigit(s[1]) }

func joinDigits(d []byte) string {
	parts := make([]string, len(d))
	for i, b := range d {
		parts[i] = string(b)
	}
	return strings.Join(parts, ",")
}
