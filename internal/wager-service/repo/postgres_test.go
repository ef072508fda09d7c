package repo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"

	"github.com/radieske/wager-settlement-platform/internal/wager-service/domain"
)

var (
	marketColNames  = []string{"id", "name", "open_time", "close_time", "is_open", "result", "result_at"}
	bindingColNames = []string{"market_id", "game_type", "odds", "double_match_odds"}
	wagerColNames   = []string{"id", "account_id", "target_kind", "target_id", "game_type", "stake", "selection",
		"multiplier", "double_multiplier", "status", "result", "win_amount", "created_at", "settled_at"}
)

func newMockStore(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock DB: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	p := NewPostgres(db)
	p.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return p, mock
}

func jodiWager() domain.Wager {
	return domain.Wager{
		ID:        "w1",
		AccountID: "a1",
		Target:    domain.MarketTarget("m1"),
		GameType:  domain.GameJodi,
		Stake:     decimal.NewFromInt(10),
		Selection: "42",
		CreatedAt: time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC),
	}
}

func bindingQuote(s Snapshot) (decimal.Decimal, *decimal.Decimal, error) {
	return s.Binding.Odds, nil, nil
}

func TestPostgresPlaceWager(t *testing.T) {
	ctx := context.Background()

	t.Run("debits and inserts in one transaction", func(t *testing.T) {
		p, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`FROM markets WHERE id=$1 FOR SHARE`)).
			WithArgs("m1").
			WillReturnRows(sqlmock.NewRows(marketColNames).AddRow("m1", "Kalyan", "10:00", "12:00", true, nil, nil))
		mock.ExpectQuery(regexp.QuoteMeta(`FROM game_bindings WHERE market_id=$1 AND game_type=$2`)).
			WithArgs("m1", "jodi").
			WillReturnRows(sqlmock.NewRows(bindingColNames).AddRow("m1", "jodi", "90.00", nil))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT balance FROM accounts WHERE id=$1 FOR UPDATE`)).
			WithArgs("a1").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("100.00"))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE accounts SET balance=$1 WHERE id=$2`)).
			WithArgs(sqlmock.AnyArg(), "a1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO ledger_entries`)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO wagers`)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		w, bal, err := p.PlaceWager(ctx, jodiWager(), bindingQuote)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if !bal.Equal(decimal.NewFromInt(90)) {
			t.Errorf("Expected balance 90, got %s", bal)
		}
		if !w.Multiplier.Equal(decimal.NewFromInt(90)) || w.Status != domain.StatusPending {
			t.Errorf("Unexpected wager %+v", w)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unmet expectations: %v", err)
		}
	})

	t.Run("insufficient funds rolls back", func(t *testing.T) {
		p, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`FROM markets WHERE id=$1 FOR SHARE`)).
			WithArgs("m1").
			WillReturnRows(sqlmock.NewRows(marketColNames).AddRow("m1", "Kalyan", "10:00", "12:00", true, nil, nil))
		mock.ExpectQuery(regexp.QuoteMeta(`FROM game_bindings WHERE market_id=$1 AND game_type=$2`)).
			WithArgs("m1", "jodi").
			WillReturnRows(sqlmock.NewRows(bindingColNames).AddRow("m1", "jodi", "90.00", nil))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT balance FROM accounts WHERE id=$1 FOR UPDATE`)).
			WithArgs("a1").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("5.00"))
		mock.ExpectRollback()

		_, _, err := p.PlaceWager(ctx, jodiWager(), bindingQuote)
		if !errors.Is(err, domain.ErrInsufficientFunds) {
			t.Fatalf("Expected ErrInsufficientFunds, got %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unmet expectations: %v", err)
		}
	})

	t.Run("closed market is rejected before the debit", func(t *testing.T) {
		p, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`FROM markets WHERE id=$1 FOR SHARE`)).
			WithArgs("m1").
			WillReturnRows(sqlmock.NewRows(marketColNames).AddRow("m1", "Kalyan", "10:00", "12:00", false, nil, nil))
		mock.ExpectRollback()

		_, _, err := p.PlaceWager(ctx, jodiWager(), bindingQuote)
		if !errors.Is(err, domain.ErrMarketClosed) {
			t.Fatalf("Expected ErrMarketClosed, got %v", err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unmet expectations: %v", err)
		}
	})
}

func TestPostgresSettleWager(t *testing.T) {
	ctx := context.Background()
	placed := time.Date(2024, 5, 1, 11, 0, 0, 0, time.UTC)
	win := domain.Resolution{Result: "42", Won: true, WinAmount: decimal.NewFromInt(900), SettledAt: placed.Add(time.Hour)}

	t.Run("credits winner with the status update", func(t *testing.T) {
		p, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`FROM wagers WHERE id=$1`)).
			WithArgs("w1").
			WillReturnRows(sqlmock.NewRows(wagerColNames).AddRow(
				"w1", "a1", "market", "m1", "jodi", "10.00", "42", "90.00", nil, "pending", nil, nil, placed, nil))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE wagers SET status=$2`)).
			WithArgs("w1", "won", "42", sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT balance FROM accounts WHERE id=$1 FOR UPDATE`)).
			WithArgs("a1").
			WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow("0.00"))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE accounts SET balance=$1 WHERE id=$2`)).
			WithArgs(sqlmock.AnyArg(), "a1").
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO ledger_entries`)).
			WillReturnResult(sqlmock.NewResult(1, 1))
		mock.ExpectCommit()

		w, applied, err := p.SettleWager(ctx, "w1", win)
		if err != nil || !applied {
			t.Fatalf("Expected applied settlement, applied=%v err=%v", applied, err)
		}
		if w.Status != domain.StatusWon || !w.WinAmount.Equal(decimal.NewFromInt(900)) {
			t.Errorf("Unexpected wager %+v", w)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unmet expectations: %v", err)
		}
	})

	t.Run("lost race is a no-op", func(t *testing.T) {
		p, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`FROM wagers WHERE id=$1`)).
			WithArgs("w1").
			WillReturnRows(sqlmock.NewRows(wagerColNames).AddRow(
				"w1", "a1", "market", "m1", "jodi", "10.00", "42", "90.00", nil, "pending", nil, nil, placed, nil))
		mock.ExpectExec(regexp.QuoteMeta(`UPDATE wagers SET status=$2`)).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(regexp.QuoteMeta(`FROM wagers WHERE id=$1`)).
			WithArgs("w1").
			WillReturnRows(sqlmock.NewRows(wagerColNames).AddRow(
				"w1", "a1", "market", "m1", "jodi", "10.00", "42", "90.00", nil, "won", "42", "900.00", placed, placed.Add(time.Hour)))
		mock.ExpectRollback()

		w, applied, err := p.SettleWager(ctx, "w1", win)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if applied {
			t.Error("Expected applied=false")
		}
		if w.Status != domain.StatusWon {
			t.Errorf("Expected the stored record, got %+v", w)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unmet expectations: %v", err)
		}
	})

	t.Run("already settled skips the update", func(t *testing.T) {
		p, mock := newMockStore(t)
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`FROM wagers WHERE id=$1`)).
			WithArgs("w1").
			WillReturnRows(sqlmock.NewRows(wagerColNames).AddRow(
				"w1", "a1", "market", "m1", "jodi", "10.00", "42", "90.00", nil, "lost", "13", nil, placed, placed.Add(time.Hour)))
		mock.ExpectRollback()

		_, applied, err := p.SettleWager(ctx, "w1", win)
		if err != nil || applied {
			t.Fatalf("Expected no-op, applied=%v err=%v", applied, err)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unmet expectations: %v", err)
		}
	})
}

func TestPostgresDeclareMarket(t *testing.T) {
	ctx := context.Background()
	declaredAt := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	t.Run("first declaration wins", func(t *testing.T) {
		p, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta(`UPDATE markets SET result=$2, result_at=$3, is_open=FALSE`)).
			WithArgs("m1", "47", declaredAt).
			WillReturnRows(sqlmock.NewRows(marketColNames).AddRow("m1", "Kalyan", "10:00", "12:00", false, "47", declaredAt))

		m, err := p.DeclareMarket(ctx, "m1", "47")
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		if m.Result == nil || *m.Result != "47" || m.IsOpen {
			t.Errorf("Unexpected market %+v", m)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unmet expectations: %v", err)
		}
	})

	t.Run("second declaration is rejected", func(t *testing.T) {
		p, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta(`UPDATE markets SET result=$2, result_at=$3, is_open=FALSE`)).
			WillReturnRows(sqlmock.NewRows(marketColNames))
		mock.ExpectQuery(regexp.QuoteMeta(`FROM markets WHERE id=$1`)).
			WithArgs("m1").
			WillReturnRows(sqlmock.NewRows(marketColNames).AddRow("m1", "Kalyan", "10:00", "12:00", false, "47", declaredAt))

		m, err := p.DeclareMarket(ctx, "m1", "12")
		if !errors.Is(err, domain.ErrAlreadyDeclared) {
			t.Fatalf("Expected ErrAlreadyDeclared, got %v", err)
		}
		if *m.Result != "47" {
			t.Errorf("Expected stored result 47, got %s", *m.Result)
		}
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("Unmet expectations: %v", err)
		}
	})

	t.Run("unknown market", func(t *testing.T) {
		p, mock := newMockStore(t)
		mock.ExpectQuery(regexp.QuoteMeta(`UPDATE markets SET result=$2`)).
			WillReturnRows(sqlmock.NewRows(marketColNames))
		mock.ExpectQuery(regexp.QuoteMeta(`FROM markets WHERE id=$1`)).
			WithArgs("nope").
			WillReturnRows(sqlmock.NewRows(marketColNames))

		if _, err := p.DeclareMarket(ctx, "nope", "12"); !errors.Is(err, domain.ErrMarketNotFound) {
			t.Fatalf("Expected ErrMarketNotFound, got %v", err)
		}
	})
}

func TestPostgresDepositUnknownAccount(t *testing.T) {
	p, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT balance FROM accounts WHERE id=$1 FOR UPDATE`)).
		WithArgs("ghost").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}))
	mock.ExpectRollback()

	if _, err := p.Deposit(context.Background(), "ghost", decimal.NewFromInt(5), "topup"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("Expected ErrAccountNotFound, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestPostgresRejectsSubCentAmounts(t *testing.T) {
	p, mock := newMockStore(t)
	ctx := context.Background()

	for _, amt := range []string{"0.004", "0.005"} {
		if _, err := p.Deposit(ctx, "a1", decimal.RequireFromString(amt), "topup"); !errors.Is(err, domain.ErrInvalidAmount) {
			t.Errorf("Deposit(%s): expected ErrInvalidAmount, got %v", amt, err)
		}
	}
	if _, err := p.CreateAccount(ctx, "ana", false, decimal.RequireFromString("0.005")); !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("CreateAccount: expected ErrInvalidAmount, got %v", err)
	}
	// nada chega ao banco
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestPostgresRejectsOddsBeyondColumnScale(t *testing.T) {
	p, mock := newMockStore(t)
	ctx := context.Background()
	wide := decimal.RequireFromString("2.1234")

	if _, err := p.CreateMatch(ctx, domain.Match{TeamA: "India", TeamB: "Australia", OddsTeamA: wide, OddsTeamB: decimal.NewFromInt(2)}); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("CreateMatch: expected ErrInvalidRequest, got %v", err)
	}
	if _, err := p.UpdateMatchOdds(ctx, "t1", decimal.NewFromInt(2), wide); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("UpdateMatchOdds: expected ErrInvalidRequest, got %v", err)
	}
	if _, err := p.BindGameType(ctx, domain.GameBinding{MarketID: "m1", GameType: domain.GameJodi, Odds: decimal.RequireFromString("90.125")}); !errors.Is(err, domain.ErrInvalidRequest) {
		t.Errorf("BindGameType: expected ErrInvalidRequest, got %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}

func TestPostgresPendingDeclaredTargetsIncludesInstant(t *testing.T) {
	p, mock := newMockStore(t)

	mock.ExpectQuery(`(?s)SELECT DISTINCT w.target_kind, w.target_id\s+FROM wagers w.+w.target_kind='instant'`).
		WillReturnRows(sqlmock.NewRows([]string{"target_kind", "target_id"}).
			AddRow("market", "m1").
			AddRow("instant", ""))

	ts, err := p.PendingDeclaredTargets(context.Background())
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(ts) != 2 || ts[0] != domain.MarketTarget("m1") || ts[1] != domain.InstantTarget() {
		t.Fatalf("Unexpected targets: %v", ts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("Unmet expectations: %v", err)
	}
}
