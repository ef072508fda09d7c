package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/radieske/wager-settlement-platform/internal/wager-service/domain"
)

// Postgres implementa o Store em banco. Cada unidade é uma transação com lock
// pessimista na linha da conta (FOR UPDATE) e lock compartilhado na linha do
// alvo (FOR SHARE), que a declaração precisa esperar.
type Postgres struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgres(db *sql.DB) *Postgres { return &Postgres{db: db, now: time.Now} }

var _ Store = (*Postgres)(nil)

const (
	pqUniqueViolation     = "23505"
	pqForeignKeyViolation = "23503"
)

type rowScanner interface {
	Scan(dest ...any) error
}

func pqCode(err error) pq.ErrorCode {
	var pe *pq.Error
	if errors.As(err, &pe) {
		return pe.Code
	}
	return ""
}

// ---------- contas ----------

const accountCols = `id, username, balance, is_admin, created_at`

func scanAccount(r rowScanner) (domain.Account, error) {
	var a domain.Account
	err := r.Scan(&a.ID, &a.Username, &a.Balance, &a.IsAdmin, &a.CreatedAt)
	return a, err
}

// CreateAccount cria a conta e, se houver, registra o depósito inicial na mesma transação
func (p *Postgres) CreateAccount(ctx context.Context, username string, isAdmin bool, opening decimal.Decimal) (domain.Account, error) {
	if !opening.IsZero() {
		if err := domain.CheckAmount(opening); err != nil {
			return domain.Account{}, err
		}
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Account{}, err
	}
	defer tx.Rollback()

	a := domain.Account{
		ID:        uuid.NewString(),
		Username:  username,
		Balance:   decimal.Zero,
		IsAdmin:   isAdmin,
		CreatedAt: p.now().UTC(),
	}
	if _, err = tx.ExecContext(ctx,
		`INSERT INTO accounts(id, username, balance, is_admin, created_at) VALUES($1,$2,0,$3,$4)`,
		a.ID, a.Username, a.IsAdmin, a.CreatedAt); err != nil {
		if pqCode(err) == pqUniqueViolation {
			return domain.Account{}, fmt.Errorf("%w: username %q already taken", domain.ErrInvalidRequest, username)
		}
		return domain.Account{}, err
	}

	if opening.IsPositive() {
		if a.Balance, err = p.applyTx(ctx, tx, a.ID, domain.EntryDeposit, opening, "opening"); err != nil {
			return domain.Account{}, err
		}
	}

	if err = tx.Commit(); err != nil {
		return domain.Account{}, err
	}
	return a, nil
}

func (p *Postgres) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	a, err := scanAccount(p.db.QueryRowContext(ctx, `SELECT `+accountCols+` FROM accounts WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Account{}, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
	}
	return a, err
}

func (p *Postgres) Balance(ctx context.Context, id string) (decimal.Decimal, error) {
	var bal decimal.Decimal
	err := p.db.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id=$1`, id).Scan(&bal)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, id)
	}
	return bal, err
}

// Deposit incrementa o saldo e registra no ledger com lock pessimista na conta
func (p *Postgres) Deposit(ctx context.Context, id string, amount decimal.Decimal, ref string) (decimal.Decimal, error) {
	if err := domain.CheckAmount(amount); err != nil {
		return decimal.Zero, err
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return decimal.Zero, err
	}
	defer tx.Rollback()

	bal, err := p.applyTx(ctx, tx, id, domain.EntryDeposit, amount, ref)
	if err != nil {
		return decimal.Zero, err
	}
	if err = tx.Commit(); err != nil {
		return decimal.Zero, err
	}
	return bal, nil
}

func (p *Postgres) LedgerEntries(ctx context.Context, accountID string) ([]domain.LedgerEntry, error) {
	if _, err := p.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, account_id, kind, amount, balance_after, reference, created_at
		FROM ledger_entries WHERE account_id=$1 ORDER BY created_at DESC`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LedgerEntry
	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Kind, &e.Amount, &e.BalanceAfter, &e.Reference, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// applyTx movimenta o saldo dentro de tx. A linha da conta fica travada até o
// fim da transação; o saldo nunca fica negativo.
func (p *Postgres) applyTx(ctx context.Context, tx *sql.Tx, accountID string, kind domain.EntryKind, amount decimal.Decimal, ref string) (decimal.Decimal, error) {
	if err := domain.CheckAmount(amount); err != nil {
		return decimal.Zero, err
	}

	var bal decimal.Decimal
	err := tx.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id=$1 FOR UPDATE`, accountID).Scan(&bal)
	if errors.Is(err, sql.ErrNoRows) {
		return decimal.Zero, fmt.Errorf("%w: %s", domain.ErrAccountNotFound, accountID)
	}
	if err != nil {
		return decimal.Zero, err
	}

	next := bal.Add(amount)
	if kind == domain.EntryDebit {
		next = bal.Sub(amount)
		if next.IsNegative() {
			return bal, fmt.Errorf("%w: balance %s, amount %s", domain.ErrInsufficientFunds, bal, amount)
		}
	}

	if _, err = tx.ExecContext(ctx, `UPDATE accounts SET balance=$1 WHERE id=$2`, next, accountID); err != nil {
		return decimal.Zero, err
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO ledger_entries(id, account_id, kind, amount, balance_after, reference, created_at)
		VALUES($1,$2,$3,$4,$5,$6,$7)`,
		uuid.NewString(), accountID, string(kind), amount, next, ref, p.now().UTC()); err != nil {
		return decimal.Zero, err
	}
	return next, nil
}

// ---------- mercados ----------

const marketCols = `id, name, open_time, close_time, is_open, result, result_at`

func scanMarket(r rowScanner) (domain.Market, error) {
	var (
		m        domain.Market
		result   sql.NullString
		resultAt sql.NullTime
	)
	if err := r.Scan(&m.ID, &m.Name, &m.OpenTime, &m.CloseTime, &m.IsOpen, &result, &resultAt); err != nil {
		return domain.Market{}, err
	}
	if result.Valid {
		m.Result = &result.String
	}
	if resultAt.Valid {
		t := resultAt.Time.UTC()
		m.ResultAt = &t
	}
	return m, nil
}

func (p *Postgres) CreateMarket(ctx context.Context, m domain.Market) (domain.Market, error) {
	if err := m.Validate(); err != nil {
		return domain.Market{}, err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.Result, m.ResultAt = nil, nil
	if _, err := p.db.ExecContext(ctx,
		`INSERT INTO markets(id, name, open_time, close_time, is_open) VALUES($1,$2,$3,$4,$5)`,
		m.ID, m.Name, m.OpenTime, m.CloseTime, m.IsOpen); err != nil {
		if pqCode(err) == pqUniqueViolation {
			return domain.Market{}, fmt.Errorf("%w: market %s already exists", domain.ErrInvalidRequest, m.ID)
		}
		return domain.Market{}, err
	}
	return m, nil
}

func (p *Postgres) BindGameType(ctx context.Context, b domain.GameBinding) (domain.GameBinding, error) {
	if err := b.Validate(); err != nil {
		return domain.GameBinding{}, err
	}
	var double any
	if b.DoubleMatchOdds != nil {
		double = *b.DoubleMatchOdds
	}
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO game_bindings(market_id, game_type, odds, double_match_odds) VALUES($1,$2,$3,$4)
		ON CONFLICT (market_id, game_type) DO UPDATE SET odds=EXCLUDED.odds, double_match_odds=EXCLUDED.double_match_odds`,
		b.MarketID, string(b.GameType), b.Odds, double)
	if pqCode(err) == pqForeignKeyViolation {
		return domain.GameBinding{}, fmt.Errorf("%w: %s", domain.ErrMarketNotFound, b.MarketID)
	}
	if err != nil {
		return domain.GameBinding{}, err
	}
	return b, nil
}

func (p *Postgres) GetMarket(ctx context.Context, id string) (domain.Market, error) {
	return p.getMarket(ctx, p.db, id, "")
}

// getMarket lê o mercado com o sufixo de lock informado (FOR SHARE/FOR UPDATE).
func (p *Postgres) getMarket(ctx context.Context, q querier, id, lock string) (domain.Market, error) {
	m, err := scanMarket(q.QueryRowContext(ctx, `SELECT `+marketCols+` FROM markets WHERE id=$1 `+lock, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Market{}, fmt.Errorf("%w: %s", domain.ErrMarketNotFound, id)
	}
	return m, err
}

func (p *Postgres) ListMarkets(ctx context.Context) ([]domain.Market, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+marketCols+` FROM markets ORDER BY open_time, name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Market
	for rows.Next() {
		m, err := scanMarket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

const bindingCols = `market_id, game_type, odds, double_match_odds`

func scanBinding(r rowScanner) (domain.GameBinding, error) {
	var (
		b      domain.GameBinding
		gt     string
		double decimal.NullDecimal
	)
	if err := r.Scan(&b.MarketID, &gt, &b.Odds, &double); err != nil {
		return domain.GameBinding{}, err
	}
	b.GameType = domain.GameType(gt)
	if double.Valid {
		d := double.Decimal
		b.DoubleMatchOdds = &d
	}
	return b, nil
}

func (p *Postgres) Bindings(ctx context.Context, marketID string) ([]domain.GameBinding, error) {
	if _, err := p.GetMarket(ctx, marketID); err != nil {
		return nil, err
	}
	rows, err := p.db.QueryContext(ctx, `SELECT `+bindingCols+` FROM game_bindings WHERE market_id=$1 ORDER BY game_type`, marketID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.GameBinding
	for rows.Next() {
		b, err := scanBinding(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (p *Postgres) Binding(ctx context.Context, marketID string, gt domain.GameType) (domain.GameBinding, error) {
	if _, err := p.GetMarket(ctx, marketID); err != nil {
		return domain.GameBinding{}, err
	}
	return p.binding(ctx, p.db, marketID, gt)
}

func (p *Postgres) binding(ctx context.Context, q querier, marketID string, gt domain.GameType) (domain.GameBinding, error) {
	b, err := scanBinding(q.QueryRowContext(ctx,
		`SELECT `+bindingCols+` FROM game_bindings WHERE market_id=$1 AND game_type=$2`, marketID, string(gt)))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.GameBinding{}, fmt.Errorf("%w: %s not offered on market %s", domain.ErrUnknownGameType, gt, marketID)
	}
	return b, err
}

// SetMarketOpen abre/fecha o mercado; reabrir um mercado declarado é rejeitado
func (p *Postgres) SetMarketOpen(ctx context.Context, id string, open bool) (domain.Market, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Market{}, err
	}
	defer tx.Rollback()

	m, err := p.getMarket(ctx, tx, id, "FOR UPDATE")
	if err != nil {
		return domain.Market{}, err
	}
	if open && m.Declared() {
		return m, fmt.Errorf("%w: market %s", domain.ErrAlreadyDeclared, id)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE markets SET is_open=$1 WHERE id=$2`, open, id); err != nil {
		return domain.Market{}, err
	}
	if err = tx.Commit(); err != nil {
		return domain.Market{}, err
	}
	m.IsOpen = open
	return m, nil
}

// DeclareMarket grava o resultado uma única vez: o UPDATE só pega a linha
// enquanto result IS NULL, e espera colocações em curso (FOR SHARE).
func (p *Postgres) DeclareMarket(ctx context.Context, id, result string) (domain.Market, error) {
	m, err := scanMarket(p.db.QueryRowContext(ctx, `
		UPDATE markets SET result=$2, result_at=$3, is_open=FALSE
		WHERE id=$1 AND result IS NULL
		RETURNING `+marketCols, id, result, p.now().UTC()))
	if errors.Is(err, sql.ErrNoRows) {
		existing, gerr := p.GetMarket(ctx, id)
		if gerr != nil {
			return domain.Market{}, gerr
		}
		return existing, fmt.Errorf("%w: market %s", domain.ErrAlreadyDeclared, id)
	}
	return m, err
}

// ---------- partidas ----------

const matchCols = `id, team_a, team_b, odds_team_a, odds_team_b, is_open, result, result_at`

func scanMatch(r rowScanner) (domain.Match, error) {
	var (
		m        domain.Match
		result   sql.NullString
		resultAt sql.NullTime
	)
	if err := r.Scan(&m.ID, &m.TeamA, &m.TeamB, &m.OddsTeamA, &m.OddsTeamB, &m.IsOpen, &result, &resultAt); err != nil {
		return domain.Match{}, err
	}
	if result.Valid {
		m.Result = &result.String
	}
	if resultAt.Valid {
		t := resultAt.Time.UTC()
		m.ResultAt = &t
	}
	return m, nil
}

func (p *Postgres) CreateMatch(ctx context.Context, m domain.Match) (domain.Match, error) {
	if err := m.Validate(); err != nil {
		return domain.Match{}, err
	}
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	m.Result, m.ResultAt = nil, nil
	if _, err := p.db.ExecContext(ctx,
		`INSERT INTO matches(id, team_a, team_b, odds_team_a, odds_team_b, is_open) VALUES($1,$2,$3,$4,$5,$6)`,
		m.ID, m.TeamA, m.TeamB, m.OddsTeamA, m.OddsTeamB, m.IsOpen); err != nil {
		if pqCode(err) == pqUniqueViolation {
			return domain.Match{}, fmt.Errorf("%w: match %s already exists", domain.ErrInvalidRequest, m.ID)
		}
		return domain.Match{}, err
	}
	return m, nil
}

func (p *Postgres) GetMatch(ctx context.Context, id string) (domain.Match, error) {
	return p.getMatch(ctx, p.db, id, "")
}

func (p *Postgres) getMatch(ctx context.Context, q querier, id, lock string) (domain.Match, error) {
	m, err := scanMatch(q.QueryRowContext(ctx, `SELECT `+matchCols+` FROM matches WHERE id=$1 `+lock, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Match{}, fmt.Errorf("%w: %s", domain.ErrMatchNotFound, id)
	}
	return m, err
}

func (p *Postgres) ListMatches(ctx context.Context) ([]domain.Match, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT `+matchCols+` FROM matches ORDER BY team_a, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// UpdateMatchOdds altera as odds correntes; apostas já colocadas guardam o multiplicador capturado
func (p *Postgres) UpdateMatchOdds(ctx context.Context, id string, oddsA, oddsB decimal.Decimal) (domain.Match, error) {
	if err := domain.CheckOdds(oddsA); err != nil {
		return domain.Match{}, err
	}
	if err := domain.CheckOdds(oddsB); err != nil {
		return domain.Match{}, err
	}
	m, err := scanMatch(p.db.QueryRowContext(ctx, `
		UPDATE matches SET odds_team_a=$2, odds_team_b=$3
		WHERE id=$1 AND result IS NULL
		RETURNING `+matchCols, id, oddsA, oddsB))
	if errors.Is(err, sql.ErrNoRows) {
		existing, gerr := p.GetMatch(ctx, id)
		if gerr != nil {
			return domain.Match{}, gerr
		}
		return existing, fmt.Errorf("%w: match %s", domain.ErrAlreadyDeclared, id)
	}
	return m, err
}

func (p *Postgres) SetMatchOpen(ctx context.Context, id string, open bool) (domain.Match, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Match{}, err
	}
	defer tx.Rollback()

	m, err := p.getMatch(ctx, tx, id, "FOR UPDATE")
	if err != nil {
		return domain.Match{}, err
	}
	if open && m.Declared() {
		return m, fmt.Errorf("%w: match %s", domain.ErrAlreadyDeclared, id)
	}
	if _, err = tx.ExecContext(ctx, `UPDATE matches SET is_open=$1 WHERE id=$2`, open, id); err != nil {
		return domain.Match{}, err
	}
	if err = tx.Commit(); err != nil {
		return domain.Match{}, err
	}
	m.IsOpen = open
	return m, nil
}

func (p *Postgres) DeclareMatch(ctx context.Context, id, result string) (domain.Match, error) {
	m, err := scanMatch(p.db.QueryRowContext(ctx, `
		UPDATE matches SET result=$2, result_at=$3, is_open=FALSE
		WHERE id=$1 AND result IS NULL
		RETURNING `+matchCols, id, result, p.now().UTC()))
	if errors.Is(err, sql.ErrNoRows) {
		existing, gerr := p.GetMatch(ctx, id)
		if gerr != nil {
			return domain.Match{}, gerr
		}
		return existing, fmt.Errorf("%w: match %s", domain.ErrAlreadyDeclared, id)
	}
	return m, err
}

// ---------- apostas ----------

const wagerCols = `id, account_id, target_kind, target_id, game_type, stake, selection, multiplier,
	double_multiplier, status, result, win_amount, created_at, settled_at`

func scanWager(r rowScanner) (domain.Wager, error) {
	var (
		w                 domain.Wager
		kind, gt, status  string
		double, winAmount decimal.NullDecimal
		result            sql.NullString
		settledAt         sql.NullTime
	)
	if err := r.Scan(&w.ID, &w.AccountID, &kind, &w.Target.ID, &gt, &w.Stake, &w.Selection, &w.Multiplier,
		&double, &status, &result, &winAmount, &w.CreatedAt, &settledAt); err != nil {
		return domain.Wager{}, err
	}
	w.Target.Kind = domain.TargetKind(kind)
	w.GameType = domain.GameType(gt)
	w.Status = domain.Status(status)
	if double.Valid {
		d := double.Decimal
		w.DoubleMultiplier = &d
	}
	if result.Valid {
		w.Result = &result.String
	}
	if winAmount.Valid {
		d := winAmount.Decimal
		w.WinAmount = &d
	}
	if settledAt.Valid {
		t := settledAt.Time.UTC()
		w.SettledAt = &t
	}
	return w, nil
}

// PlaceWager executa verificação do alvo, débito e inserção numa única transação
func (p *Postgres) PlaceWager(ctx context.Context, w domain.Wager, quote Quoter) (domain.Wager, decimal.Decimal, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Wager{}, decimal.Zero, err
	}
	defer tx.Rollback()

	var snap Snapshot
	switch w.Target.Kind {
	case domain.TargetMarket:
		m, err := p.getMarket(ctx, tx, w.Target.ID, "FOR SHARE")
		if err != nil {
			return domain.Wager{}, decimal.Zero, err
		}
		if !m.IsOpen {
			return domain.Wager{}, decimal.Zero, fmt.Errorf("%w: %s", domain.ErrMarketClosed, m.ID)
		}
		b, err := p.binding(ctx, tx, m.ID, w.GameType)
		if err != nil {
			return domain.Wager{}, decimal.Zero, err
		}
		snap = Snapshot{Market: &m, Binding: &b}
	case domain.TargetMatch:
		m, err := p.getMatch(ctx, tx, w.Target.ID, "FOR SHARE")
		if err != nil {
			return domain.Wager{}, decimal.Zero, err
		}
		if !m.IsOpen {
			return domain.Wager{}, decimal.Zero, fmt.Errorf("%w: match %s", domain.ErrMarketClosed, m.ID)
		}
		snap = Snapshot{Match: &m}
	case domain.TargetInstant:
	default:
		return domain.Wager{}, decimal.Zero, fmt.Errorf("%w: unknown target kind %q", domain.ErrInvalidRequest, w.Target.Kind)
	}

	base, double, err := quote(snap)
	if err != nil {
		return domain.Wager{}, decimal.Zero, err
	}
	w.Multiplier = base
	w.DoubleMultiplier = double
	w.Status = domain.StatusPending

	balance, err := p.applyTx(ctx, tx, w.AccountID, domain.EntryDebit, w.Stake, "wager:"+w.ID)
	if err != nil {
		return domain.Wager{}, decimal.Zero, err
	}

	var doubleArg any
	if double != nil {
		doubleArg = *double
	}
	if _, err = tx.ExecContext(ctx, `
		INSERT INTO wagers(id, account_id, target_kind, target_id, game_type, stake, selection, multiplier, double_multiplier, status, created_at)
		VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,'pending',$10)`,
		w.ID, w.AccountID, string(w.Target.Kind), w.Target.ID, string(w.GameType), w.Stake, w.Selection,
		w.Multiplier, doubleArg, w.CreatedAt); err != nil {
		return domain.Wager{}, decimal.Zero, err
	}

	if err = tx.Commit(); err != nil {
		return domain.Wager{}, decimal.Zero, err
	}
	return w, balance, nil
}

// SettleWager aplica a resolução uma única vez: o UPDATE guardado por
// status='pending' é o portão; crédito e status são commitados juntos.
func (p *Postgres) SettleWager(ctx context.Context, id string, r domain.Resolution) (domain.Wager, bool, error) {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Wager{}, false, err
	}
	defer tx.Rollback()

	w, err := p.getWager(ctx, tx, id)
	if err != nil {
		return domain.Wager{}, false, err
	}
	if w.Settled() {
		return w, false, nil
	}

	status := domain.StatusLost
	var win any
	if r.Won {
		status = domain.StatusWon
		win = r.WinAmount
	}
	res, err := tx.ExecContext(ctx, `
		UPDATE wagers SET status=$2, result=$3, win_amount=$4, settled_at=$5
		WHERE id=$1 AND status='pending'`,
		id, string(status), r.Result, win, r.SettledAt)
	if err != nil {
		return domain.Wager{}, false, fmt.Errorf("%w: wager %s: %v", domain.ErrSettlementCredit, id, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// outra unidade liquidou primeiro
		current, err := p.getWager(ctx, tx, id)
		if err != nil {
			return domain.Wager{}, false, err
		}
		return current, false, nil
	}

	if r.Won && r.WinAmount.IsPositive() {
		if _, err = p.applyTx(ctx, tx, w.AccountID, domain.EntryCredit, r.WinAmount, "settle:"+id); err != nil {
			return domain.Wager{}, false, fmt.Errorf("%w: wager %s: %v", domain.ErrSettlementCredit, id, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return domain.Wager{}, false, fmt.Errorf("%w: wager %s: %v", domain.ErrSettlementCredit, id, err)
	}
	return w.Apply(r), true, nil
}

func (p *Postgres) GetWager(ctx context.Context, id string) (domain.Wager, error) {
	return p.getWager(ctx, p.db, id)
}

func (p *Postgres) getWager(ctx context.Context, q querier, id string) (domain.Wager, error) {
	w, err := scanWager(q.QueryRowContext(ctx, `SELECT `+wagerCols+` FROM wagers WHERE id=$1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Wager{}, fmt.Errorf("%w: %s", domain.ErrWagerNotFound, id)
	}
	return w, err
}

func (p *Postgres) ListWagersByAccount(ctx context.Context, accountID string) ([]domain.Wager, error) {
	if _, err := p.GetAccount(ctx, accountID); err != nil {
		return nil, err
	}
	return p.queryWagers(ctx, `SELECT `+wagerCols+` FROM wagers WHERE account_id=$1 ORDER BY created_at DESC`, accountID)
}

func (p *Postgres) PendingWagers(ctx context.Context, target domain.Target) ([]domain.Wager, error) {
	return p.queryWagers(ctx, `
		SELECT `+wagerCols+` FROM wagers
		WHERE target_kind=$1 AND target_id=$2 AND status='pending'
		ORDER BY created_at`, string(target.Kind), target.ID)
}

func (p *Postgres) PendingDeclaredTargets(ctx context.Context) ([]domain.Target, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT DISTINCT w.target_kind, w.target_id
		FROM wagers w
		LEFT JOIN markets m ON w.target_kind='market' AND m.id=w.target_id
		LEFT JOIN matches x ON w.target_kind='match' AND x.id=w.target_id
		WHERE w.status='pending'
		  AND (w.target_kind='instant' OR m.result IS NOT NULL OR x.result IS NOT NULL)`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Target
	for rows.Next() {
		var kind, id string
		if err := rows.Scan(&kind, &id); err != nil {
			return nil, err
		}
		out = append(out, domain.Target{Kind: domain.TargetKind(kind), ID: id})
	}
	return out, rows.Err()
}

func (p *Postgres) queryWagers(ctx context.Context, query string, args ...any) ([]domain.Wager, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Wager
	for rows.Next() {
		w, err := scanWager(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

// querier é satisfeito por *sql.DB e *sql.Tx.
type querier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
