package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"homeledger/internal/models"
)

func TestAccountStoreUpdateBalanceStale(t *testing.T) {
	store := NewAccountStore(stubDB{})
	tx := stubExecer{
		execFn: func(_ context.Context, _ string, _ ...any) (sql.Result, error) {
			return stubResult{rows: 0}, nil
		},
	}

	err := store.UpdateBalance(context.Background(), tx, "acc-1", 100, 200)
	if !errors.Is(err, ErrStaleWrite) {
		t.Fatalf("expected ErrStaleWrite, got %v", err)
	}
}

func TestAccountStoreUpdateBalanceConditionalOnOldValue(t *testing.T) {
	var gotQuery string
	var gotArgs []any
	store := NewAccountStore(stubDB{})
	tx := stubExecer{
		execFn: func(_ context.Context, query string, args ...any) (sql.Result, error) {
			gotQuery = query
			gotArgs = args
			return stubResult{rows: 1}, nil
		},
	}

	if err := store.UpdateBalance(context.Background(), tx, "acc-1", 100, 250); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(gotQuery, "balance = $3") {
		t.Fatalf("update is not conditional on the previous balance: %s", gotQuery)
	}
	if len(gotArgs) != 3 || gotArgs[0] != int64(250) || gotArgs[1] != "acc-1" || gotArgs[2] != int64(100) {
		t.Fatalf("unexpected args: %#v", gotArgs)
	}
}

func TestAccountStoreGetForUpdateLocksRow(t *testing.T) {
	store := NewAccountStore(stubDB{})
	tx := stubGetter{
		getFn: func(_ context.Context, dest any, query string, _ ...any) error {
			if !strings.Contains(query, "FOR UPDATE") {
				t.Fatalf("query does not lock the row: %s", query)
			}
			*dest.(*models.Account) = models.Account{ID: "acc-1", Balance: 500}
			return nil
		},
	}

	account, err := store.GetForUpdate(context.Background(), tx, "acc-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Balance != 500 {
		t.Fatalf("unexpected account: %#v", account)
	}
}

func TestAccountStoreGetByIDExcludesDeleted(t *testing.T) {
	store := NewAccountStore(stubDB{
		getFn: func(_ context.Context, _ any, query string, _ ...any) error {
			if !strings.Contains(query, "NOT is_deleted") {
				t.Fatalf("query does not filter deleted rows: %s", query)
			}
			return sql.ErrNoRows
		},
	})

	_, err := store.GetByID(context.Background(), "gone")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestAccountStoreUpdateNeverTouchesBalance(t *testing.T) {
	store := NewAccountStore(stubDB{})
	tx := stubExecer{
		execFn: func(_ context.Context, query string, _ ...any) (sql.Result, error) {
			if strings.Contains(query, "balance") {
				t.Fatalf("account update must not write the balance: %s", query)
			}
			return stubResult{rows: 1}, nil
		},
	}

	err := store.Update(context.Background(), tx, models.Account{ID: "acc-1", Name: "wallet", Kind: models.KindCash})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAccountStoreSoftDeleteMissingRow(t *testing.T) {
	store := NewAccountStore(stubDB{})
	tx := stubExecer{
		execFn: func(_ context.Context, _ string, _ ...any) (sql.Result, error) {
			return stubResult{rows: 0}, nil
		},
	}

	err := store.SoftDelete(context.Background(), tx, "acc-1", "user-1")
	if !errors.Is(err, sql.ErrNoRows) {
		t.Fatalf("expected sql.ErrNoRows, got %v", err)
	}
}

func TestAccountStoreNameTaken(t *testing.T) {
	store := NewAccountStore(stubDB{
		getFn: func(_ context.Context, dest any, query string, args ...any) error {
			if !strings.Contains(query, "lower(name) = lower($2)") {
				t.Fatalf("name comparison is not case insensitive: %s", query)
			}
			if args[2] != "self-id" {
				t.Fatalf("self exclusion not passed: %#v", args)
			}
			*dest.(*bool) = true
			return nil
		},
	})

	taken, err := store.NameTaken(context.Background(), "user-1", "Wallet", "self-id")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !taken {
		t.Fatalf("expected name to be reported taken")
	}
}

func TestAccountStoreSelfCheckIgnoresDeletedTransactions(t *testing.T) {
	store := NewAccountStore(stubDB{
		selectFn: func(_ context.Context, dest any, query string, _ ...any) error {
			if !strings.Contains(query, "FILTER (WHERE NOT t.is_deleted)") {
				t.Fatalf("self check counts deleted transactions: %s", query)
			}
			*dest.(*[]BalanceCheckRow) = []BalanceCheckRow{
				{ID: "acc-1", StoredBalance: 100, CalculatedBalance: 100, Difference: 0},
			}
			return nil
		},
	})

	rows, err := store.SelfCheck(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rows) != 1 || rows[0].Difference != 0 {
		t.Fatalf("unexpected rows: %#v", rows)
	}
}
