package matcher

import (
	"fmt"
	"os"
	"sort"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/radieske/wager-settlement-platform/internal/wager-service/domain"
)

// CrossTier define a taxa paga para seleções cross com pelo menos Digits dígitos.
type CrossTier struct {
	Digits int
	Odds   decimal.Decimal
}

// BindingDefault são as odds usadas quando um mercado é criado sem odds explícitas.
type BindingDefault struct {
	Odds            decimal.Decimal
	DoubleMatchOdds *decimal.Decimal
}

// Table é a configuração de pagamentos que não pertence a um mercado específico.
type Table struct {
	CrossTiers      []CrossTier
	CoinToss        decimal.Decimal
	BindingDefaults map[domain.GameType]BindingDefault
}

// DefaultTable reproduz as taxas históricas da plataforma.
func DefaultTable() Table {
	hurfDouble := decimal.NewFromInt(80)
	return Table{
		CrossTiers: []CrossTier{
			{Digits: 2, Odds: decimal.NewFromInt(45)},
			{Digits: 3, Odds: decimal.NewFromInt(15)},
			{Digits: 4, Odds: decimal.RequireFromString("7.5")},
		},
		CoinToss: decimal.NewFromInt(2),
		BindingDefaults: map[domain.GameType]BindingDefault{
			domain.GameJodi:    {Odds: decimal.NewFromInt(90)},
			domain.GameOddEven: {Odds: decimal.RequireFromString("1.8")},
			domain.GameHurf:    {Odds: decimal.NewFromInt(9), DoubleMatchOdds: &hurfDouble},
			domain.GameCross:   {Odds: decimal.NewFromInt(15)},
		},
	}
}

// CrossRate devolve a taxa do maior tier cujo mínimo de dígitos cabe em n.
func (t Table) CrossRate(n int) (decimal.Decimal, error) {
	if n < crossMinDigits || n > crossMaxDigits {
		return decimal.Zero, fmt.Errorf("%w: cross with %d digits", domain.ErrInvalidSelection, n)
	}
	var (
		rate  decimal.Decimal
		found bool
	)
	for _, tier := range t.CrossTiers {
		if tier.Digits <= n {
			rate, found = tier.Odds, true
		}
	}
	if !found {
		return decimal.Zero, fmt.Errorf("%w: no cross tier for %d digits", domain.ErrInvalidSelection, n)
	}
	return rate, nil
}

type yamlTable struct {
	Cross []struct {
		Digits int    `yaml:"digits"`
		Odds   string `yaml:"odds"`
	} `yaml:"cross"`
	CoinToss string `yaml:"coinToss"`
	Defaults map[string]struct {
		Odds            string `yaml:"odds"`
		DoubleMatchOdds string `yaml:"doubleMatchOdds"`
	} `yaml:"defaults"`
}

// LoadTable lê a tabela de pagamentos de um arquivo YAML. Caminho vazio devolve
// DefaultTable; chaves ausentes no arquivo mantêm o valor padrão.
//
//	cross:
//	  - {digits: 2, odds: "45"}
//	coinToss: "2"
//	defaults:
//	  hurf: {odds: "9", doubleMatchOdds: "80"}
func LoadTable(path string) (Table, error) {
	t := DefaultTable()
	if path == "" {
		return t, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return t, fmt.Errorf("read payout table: %w", err)
	}
	return ParseTable(b)
}

func ParseTable(b []byte) (Table, error) {
	t := DefaultTable()
	var raw yamlTable
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return t, fmt.Errorf("parse payout table: %w", err)
	}

	if len(raw.Cross) > 0 {
		tiers := make([]CrossTier, 0, len(raw.Cross))
		for _, c := range raw.Cross {
			odds, err := positive(c.Odds)
			if err != nil {
				return t, fmt.Errorf("cross tier %d: %w", c.Digits, err)
			}
			if c.Digits < crossMinDigits || c.Digits > crossMaxDigits {
				return t, fmt.Errorf("cross tier digits %d out of range", c.Digits)
			}
			tiers = append(tiers, CrossTier{Digits: c.Digits, Odds: odds})
		}
		sort.Slice(tiers, func(i, j int) bool { return tiers[i].Digits < tiers[j].Digits })
		t.CrossTiers = tiers
	}

	if raw.CoinToss != "" {
		odds, err := positive(raw.CoinToss)
		if err != nil {
			return t, fmt.Errorf("coinToss: %w", err)
		}
		t.CoinToss = odds
	}

	for name, d := range raw.Defaults {
		gt, err := domain.ParseGameType(name)
		if err != nil || !gt.IsDraw() {
			return t, fmt.Errorf("defaults: %w", domain.ErrUnknownGameType)
		}
		odds, err := positive(d.Odds)
		if err != nil {
			return t, fmt.Errorf("defaults %s: %w", name, err)
		}
		bd := BindingDefault{Odds: odds}
		if d.DoubleMatchOdds != "" {
			dbl, err := positive(d.DoubleMatchOdds)
			if err != nil {
				return t, fmt.Errorf("defaults %s double: %w", name, err)
			}
			bd.DoubleMatchOdds = &dbl
		}
		t.BindingDefaults[gt] = bd
	}
	return t, nil
}

func positive(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, err
	}
	if err := domain.CheckOdds(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// DefaultBinding monta a configuração padrão de um jogo de sorteio para o mercado.
func (t Table) DefaultBinding(marketID string, gt domain.GameType) (domain.GameBinding, error) {
	d, ok := t.BindingDefaults[gt]
	if !ok || !gt.IsDraw() {
		return domain.GameBinding{}, fmt.Errorf("%w: no default odds for %q", domain.ErrUnknownGameType, gt)
	}
	b := domain.GameBinding{MarketID: marketID, GameType: gt, Odds: d.Odds}
	if d.DoubleMatchOdds != nil {
		dbl := *d.DoubleMatchOdds
		b.DoubleMatchOdds = &dbl
	}
	return b, nil
}
