package dto

// Valores monetários e odds trafegam como string decimal ("10.50") para não
// passar por float.

type PlaceWagerRequest struct {
	AccountID string `json:"accountId" validate:"required"`
	MarketID  string `json:"marketId,omitempty"`
	MatchID   string `json:"matchId,omitempty"`
	GameType  string `json:"gameType" validate:"required"`
	Stake     string `json:"stake" validate:"required,numeric"`
	Selection string `json:"selection" validate:"required"`
}

type CoinTossRequest struct {
	AccountID string `json:"accountId" validate:"required"`
	Stake     string `json:"stake" validate:"required,numeric"`
	Selection string `json:"selection" validate:"required,oneof=heads tails Heads Tails HEADS TAILS"`
}

type CreateAccountRequest struct {
	Username       string `json:"username" validate:"required,min=3,max=32"`
	IsAdmin        bool   `json:"isAdmin"`
	OpeningBalance string `json:"openingBalance,omitempty" validate:"omitempty,numeric"`
}

type DepositRequest struct {
	Amount    string `json:"amount" validate:"required,numeric"`
	Reference string `json:"reference,omitempty" validate:"max=64"`
}

type BindGameTypeRequest struct {
	GameType        string `json:"gameType" validate:"required,oneof=jodi odd-even hurf cross"`
	Odds            string `json:"odds,omitempty" validate:"omitempty,numeric"`            // vazio = padrão da tabela
	DoubleMatchOdds string `json:"doubleMatchOdds,omitempty" validate:"omitempty,numeric"` // só hurf
}

type CreateMarketRequest struct {
	ID        string `json:"id,omitempty"`
	Name      string `json:"name" validate:"required,max=64"`
	OpenTime  string `json:"openTime,omitempty" validate:"omitempty,datetime=15:04"`
	CloseTime string `json:"closeTime,omitempty" validate:"omitempty,datetime=15:04"`
	IsOpen    bool   `json:"isOpen"`
	// Sem bindings, o mercado oferece todos os jogos de sorteio com as odds padrão.
	GameTypes []BindGameTypeRequest `json:"gameTypes,omitempty" validate:"dive"`
}

type SetOpenRequest struct {
	Open *bool `json:"open" validate:"required"`
}

type CreateMatchRequest struct {
	ID        string `json:"id,omitempty"`
	TeamA     string `json:"teamA" validate:"required,max=64"`
	TeamB     string `json:"teamB" validate:"required,max=64,nefield=TeamA"`
	OddsTeamA string `json:"oddsTeamA" validate:"required,numeric"`
	OddsTeamB string `json:"oddsTeamB" validate:"required,numeric"`
	IsOpen    bool   `json:"isOpen"`
}

type UpdateOddsRequest struct {
	OddsTeamA string `json:"oddsTeamA" validate:"required,numeric"`
	OddsTeamB string `json:"oddsTeamB" validate:"required,numeric"`
}

type DeclareResultRequest struct {
	Result string `json:"result" validate:"required"`
}
