package store

import (
	"context"
	"database/sql"
	"errors"

	"homeledger/internal/models"
)

// ErrStaleWrite reports a conditional update that matched no row,
// meaning the account changed or vanished since it was read.
var ErrStaleWrite = errors.New("stale account write")

type AccountStore struct {
	db DB
}

func NewAccountStore(db DB) *AccountStore {
	return &AccountStore{db: db}
}

// BalanceCheckRow pairs an account's stored balance with the sum of its
// live transactions. Difference must be zero for a consistent ledger.
type BalanceCheckRow struct {
	ID                string `db:"id"`
	Name              string `db:"name"`
	CurrencyID        string `db:"currency_id"`
	StoredBalance     int64  `db:"stored_balance"`
	CalculatedBalance int64  `db:"calculated_balance"`
	Difference        int64  `db:"difference"`
}

func (s *AccountStore) Create(ctx context.Context, tx Execer, account models.Account) error {
	query := `
		INSERT INTO accounts (id, user_id, name, kind, currency_id, balance, overdraft_limit, credit_limit, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := tx.ExecContext(ctx, query,
		account.ID, account.UserID, account.Name, account.Kind, account.CurrencyID,
		account.Balance, account.OverdraftLimit, account.CreditLimit, account.IsActive,
	)
	return err
}

func (s *AccountStore) GetByID(ctx context.Context, accountID string) (models.Account, error) {
	var row models.Account
	err := s.db.GetContext(ctx, &row, `
		SELECT id, user_id, name, kind, currency_id, balance, overdraft_limit, credit_limit, is_active, is_deleted, created_at
		FROM accounts
		WHERE id = $1 AND NOT is_deleted
	`, accountID)
	if err != nil {
		return models.Account{}, err
	}
	return row, nil
}

// GetForUpdate locks the account row for the rest of the enclosing
// transaction. Every balance mutation reads through here.
func (s *AccountStore) GetForUpdate(ctx context.Context, tx Getter, accountID string) (models.Account, error) {
	var row models.Account
	err := tx.GetContext(ctx, &row, `
		SELECT id, user_id, name, kind, currency_id, balance, overdraft_limit, credit_limit, is_active, is_deleted, created_at
		FROM accounts
		WHERE id = $1 AND NOT is_deleted
		FOR UPDATE
	`, accountID)
	if err != nil {
		return models.Account{}, err
	}
	return row, nil
}

func (s *AccountStore) ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Account, error) {
	var rows []models.Account
	err := s.db.SelectContext(ctx, &rows, `
		SELECT id, user_id, name, kind, currency_id, balance, overdraft_limit, credit_limit, is_active, is_deleted, created_at
		FROM accounts
		WHERE user_id = $1 AND NOT is_deleted
		ORDER BY name
		LIMIT $2 OFFSET $3
	`, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateBalance writes the new balance conditioned on the previous one.
// Combined with FOR UPDATE this should never miss; a zero row count
// means a lost update and surfaces as ErrStaleWrite.
func (s *AccountStore) UpdateBalance(ctx context.Context, tx Execer, accountID string, oldBalance, newBalance int64) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET balance = $1, updated_at = NOW()
		WHERE id = $2 AND balance = $3 AND NOT is_deleted
	`, newBalance, accountID, oldBalance)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrStaleWrite
	}
	return nil
}

func (s *AccountStore) Update(ctx context.Context, tx Execer, account models.Account) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET name = $1, kind = $2, currency_id = $3, overdraft_limit = $4, credit_limit = $5, is_active = $6, updated_at = NOW()
		WHERE id = $7 AND NOT is_deleted
	`, account.Name, account.Kind, account.CurrencyID, account.OverdraftLimit, account.CreditLimit, account.IsActive, account.ID)
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

func (s *AccountStore) SoftDelete(ctx context.Context, tx Execer, accountID, userID string) error {
	res, err := tx.ExecContext(ctx, `
		UPDATE accounts
		SET is_deleted = TRUE, updated_at = NOW()
		WHERE id = $1 AND user_id = $2 AND NOT is_deleted
	`, accountID, userID)
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

// NameTaken reports whether the user already has a live account with
// this name, excluding selfID when updating.
func (s *AccountStore) NameTaken(ctx context.Context, userID, name, selfID string) (bool, error) {
	var exists bool
	err := s.db.GetContext(ctx, &exists, `
		SELECT EXISTS(
			SELECT 1 FROM accounts
			WHERE user_id = $1 AND lower(name) = lower($2) AND id <> $3 AND NOT is_deleted
		)
	`, userID, name, selfID)
	return exists, err
}

// SelfCheck recomputes every live account balance from its transaction
// history for reconciliation.
func (s *AccountStore) SelfCheck(ctx context.Context, userID string) ([]BalanceCheckRow, error) {
	var rows []BalanceCheckRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT a.id,
		       a.name,
		       a.currency_id,
		       a.balance AS stored_balance,
		       COALESCE(SUM(t.amount) FILTER (WHERE NOT t.is_deleted), 0) AS calculated_balance,
		       (a.balance - COALESCE(SUM(t.amount) FILTER (WHERE NOT t.is_deleted), 0)) AS difference
		FROM accounts a
		LEFT JOIN transactions t ON t.account_id = a.id
		WHERE a.user_id = $1 AND NOT a.is_deleted
		GROUP BY a.id, a.name, a.currency_id, a.balance
		ORDER BY a.name
	`, userID)
	if err != nil {
		return nil, err
	}
	return rows, nil
}
