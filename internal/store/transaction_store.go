package store

import (
	"context"
	"database/sql"
	"time"

	"homeledger/internal/models"
)

type TransactionStore struct {
	db DB
}

func NewTransactionStore(db DB) *TransactionStore {
	return &TransactionStore{db: db}
}

// Create inserts a transaction row. The id is assigned by the caller;
// a duplicate id fails on the primary key.
func (s *TransactionStore) Create(ctx context.Context, tx Execer, transaction models.Transaction) error {
	query := `
		INSERT INTO transactions (id, account_id, amount, date, plan_date, description, is_approved, is_repeated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := tx.ExecContext(ctx, query,
		transaction.ID, transaction.AccountID, transaction.Amount, transaction.Date,
		transaction.PlanDate, transaction.Description, transaction.IsApproved, transaction.IsRepeated,
	)
	return err
}

func (s *TransactionStore) GetByID(ctx context.Context, transactionID string) (models.Transaction, error) {
	var row models.Transaction
	err := s.db.GetContext(ctx, &row, `
		SELECT id, account_id, amount, date, plan_date, description, is_approved, is_repeated, is_deleted, created_at
		FROM transactions
		WHERE id = $1 AND NOT is_deleted
	`, transactionID)
	if err != nil {
		return models.Transaction{}, err
	}
	return row, nil
}

// GetForUpdate locks the transaction row inside the enclosing database
// transaction. Mutations lock the transaction before its account so
// lock ordering stays consistent across operations.
func (s *TransactionStore) GetForUpdate(ctx context.Context, tx Getter, transactionID string) (models.Transaction, error) {
	var row models.Transaction
	err := tx.GetContext(ctx, &row, `
		SELECT id, account_id, amount, date, plan_date, description, is_approved, is_repeated, is_deleted, created_at
		FROM transactions
		WHERE id = $1 AND NOT is_deleted
		FOR UPDATE
	`, transactionID)
	if err != nil {
		return models.Transaction{}, err
	}
	return row, nil
}

func (s *TransactionStore) ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]models.Transaction, error) {
	var rows []models.Transaction
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, account_id, amount, date, plan_date, description, is_approved, is_repeated, is_deleted, created_at
		FROM transactions
		WHERE account_id = $1 AND NOT is_deleted
		ORDER BY date DESC, created_at DESC
		LIMIT $2 OFFSET $3
	`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Update amends amount, date and description only. The owning account
// never changes, so the account id is part of the predicate.
func (s *TransactionStore) Update(ctx context.Context, tx Execer, transaction models.Transaction) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET amount = $1, date = $2, plan_date = $3, description = $4, updated_at = NOW()
		WHERE id = $5 AND account_id = $6 AND NOT is_deleted
	`, transaction.Amount, transaction.Date, transaction.PlanDate, transaction.Description,
		transaction.ID, transaction.AccountID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *TransactionStore) SoftDelete(ctx context.Context, tx Execer, transactionID string) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE transactions
		SET is_deleted = TRUE, updated_at = NOW()
		WHERE id = $1 AND NOT is_deleted
	`, transactionID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// PeriodTotalRow is one account's turnover inside a reporting period,
// in the account's native currency.
type PeriodTotalRow struct {
	AccountID  string `db:"account_id"`
	Name       string `db:"name"`
	CurrencyID string `db:"currency_id"`
	Total      int64  `db:"total"`
}

// PeriodTotals groups a user's live transactions dated inside [from, to]
// by owning account. Accounts without transactions in the period are
// omitted.
func (s *TransactionStore) PeriodTotals(ctx context.Context, userID string, from, to time.Time) ([]PeriodTotalRow, error) {
	var rows []PeriodTotalRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT a.id AS account_id, a.name, a.currency_id, COALESCE(SUM(t.amount), 0) AS total
		FROM transactions t
		JOIN accounts a ON a.id = t.account_id
		WHERE a.user_id = $1
		  AND NOT a.is_deleted AND NOT t.is_deleted
		  AND t.date >= $2 AND t.date <= $3
		GROUP BY a.id, a.name, a.currency_id
		ORDER BY a.name
	`, userID, from, to)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// SumByAccount totals live transaction amounts for reconciliation.
func (s *TransactionStore) SumByAccount(ctx context.Context, accountID string) (int64, error) {
	var sum int64
	err := s.db.GetContext(ctx, &sum, `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE account_id = $1 AND NOT is_deleted
	`, accountID)
	return sum, err
}
