package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"homeledger/internal/db"
	"homeledger/internal/events"
	"homeledger/internal/models"
	"homeledger/internal/money"
	"homeledger/internal/store"
	"homeledger/internal/websocket"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type AccountStore interface {
	GetByID(ctx context.Context, accountID string) (models.Account, error)
	GetForUpdate(ctx context.Context, tx store.Getter, accountID string) (models.Account, error)
	UpdateBalance(ctx context.Context, tx store.Execer, accountID string, oldBalance, newBalance int64) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]models.Account, error)
}

type TransactionStore interface {
	GetByID(ctx context.Context, transactionID string) (models.Transaction, error)
	GetForUpdate(ctx context.Context, tx store.Getter, transactionID string) (models.Transaction, error)
	ListByAccount(ctx context.Context, accountID string, limit, offset int) ([]models.Transaction, error)
}

type TransactionProcessor interface {
	Add(ctx context.Context, tx store.Execer, transaction models.Transaction, account models.Account) error
	Remove(ctx context.Context, tx store.Execer, transaction models.Transaction, account models.Account) error
	Update(ctx context.Context, tx store.Execer, existing, updated models.Transaction, account models.Account) error
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type BalanceHub interface {
	BroadcastBalance(userID string, update websocket.BalanceUpdate)
}

// LedgerService is the transactional boundary for transaction writes.
// Every mutation locks the owning account row, validates through the
// processor, and persists the transaction and the new balance in one
// database transaction. After a successful create, update or delete the
// stored balance equals the sum of the account's live transactions.
type LedgerService struct {
	txRunner     db.TxRunner
	accounts     AccountStore
	transactions TransactionStore
	processor    TransactionProcessor
	audit        AuditStore
	hub          BalanceHub
	publisher    events.Publisher
	logger       *logrus.Logger
	timeout      time.Duration
}

func NewLedgerService(
	txRunner db.TxRunner,
	accounts AccountStore,
	transactions TransactionStore,
	processor TransactionProcessor,
	audit AuditStore,
	hub BalanceHub,
	publisher events.Publisher,
	logger *logrus.Logger,
	timeout time.Duration,
) *LedgerService {
	return &LedgerService{
		txRunner:     txRunner,
		accounts:     accounts,
		transactions: transactions,
		processor:    processor,
		audit:        audit,
		hub:          hub,
		publisher:    publisher,
		logger:       logger,
		timeout:      timeout,
	}
}

func (s *LedgerService) CreateTransaction(ctx context.Context, userID string, transaction models.Transaction) (models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if transaction.ID == "" {
		transaction.ID = uuid.NewString()
	}
	var account models.Account
	err := s.withConflictRetry(ctx, func(tx *sqlx.Tx) error {
		var err error
		account, err = s.accounts.GetForUpdate(ctx, tx, transaction.AccountID)
		if err != nil {
			return notFoundOr(err)
		}
		if account.UserID != userID {
			return ErrAccessDenied
		}
		if err := s.processor.Add(ctx, tx, transaction, account); err != nil {
			return err
		}
		newBalance := account.Balance + transaction.Amount
		if err := s.accounts.UpdateBalance(ctx, tx, account.ID, account.Balance, newBalance); err != nil {
			return err
		}
		account.Balance = newBalance
		return s.auditLog(ctx, tx, userID, "transaction.create", transaction.ID, transaction.Amount)
	})
	if err != nil {
		return models.Transaction{}, err
	}
	s.afterMutation(ctx, userID, account, transaction, events.TypeCompleted)
	return transaction, nil
}

func (s *LedgerService) UpdateTransaction(ctx context.Context, userID string, updated models.Transaction) (models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var account models.Account
	err := s.withConflictRetry(ctx, func(tx *sqlx.Tx) error {
		existing, err := s.transactions.GetForUpdate(ctx, tx, updated.ID)
		if err != nil {
			return notFoundOr(err)
		}
		if updated.AccountID != "" && updated.AccountID != existing.AccountID {
			return ErrImmutableAccountID
		}
		updated.AccountID = existing.AccountID

		account, err = s.accounts.GetForUpdate(ctx, tx, existing.AccountID)
		if err != nil {
			return notFoundOr(err)
		}
		if account.UserID != userID {
			return ErrAccessDenied
		}
		if err := s.processor.Update(ctx, tx, existing, updated, account); err != nil {
			return err
		}
		if diff := existing.Amount - updated.Amount; diff != 0 {
			newBalance := account.Balance + diff
			if err := s.accounts.UpdateBalance(ctx, tx, account.ID, account.Balance, newBalance); err != nil {
				return err
			}
			account.Balance = newBalance
		}
		return s.auditLog(ctx, tx, userID, "transaction.update", updated.ID, updated.Amount)
	})
	if err != nil {
		return models.Transaction{}, err
	}
	s.afterMutation(ctx, userID, account, updated, events.TypeAmended)
	return updated, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var account models.Account
	var existing models.Transaction
	err := s.withConflictRetry(ctx, func(tx *sqlx.Tx) error {
		var err error
		existing, err = s.transactions.GetForUpdate(ctx, tx, transactionID)
		if err != nil {
			return notFoundOr(err)
		}
		account, err = s.accounts.GetForUpdate(ctx, tx, existing.AccountID)
		if err != nil {
			return notFoundOr(err)
		}
		if account.UserID != userID {
			return ErrAccessDenied
		}
		if err := s.processor.Remove(ctx, tx, existing, account); err != nil {
			return err
		}
		newBalance := account.Balance - existing.Amount
		if err := s.accounts.UpdateBalance(ctx, tx, account.ID, account.Balance, newBalance); err != nil {
			return err
		}
		account.Balance = newBalance
		return s.auditLog(ctx, tx, userID, "transaction.delete", existing.ID, existing.Amount)
	})
	if err != nil {
		return err
	}
	s.afterMutation(ctx, userID, account, existing, events.TypeReversed)
	return nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, userID, transactionID string) (models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	transaction, err := s.transactions.GetByID(ctx, transactionID)
	if err != nil {
		return models.Transaction{}, notFoundOr(err)
	}
	account, err := s.accounts.GetByID(ctx, transaction.AccountID)
	if err != nil {
		return models.Transaction{}, notFoundOr(err)
	}
	if account.UserID != userID {
		return models.Transaction{}, ErrAccessDenied
	}
	return transaction, nil
}

func (s *LedgerService) ListTransactions(ctx context.Context, userID, accountID string, limit, offset int) ([]models.Transaction, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if account.UserID != userID {
		return nil, ErrAccessDenied
	}
	return s.transactions.ListByAccount(ctx, accountID, limit, offset)
}

// withConflictRetry reruns the whole unit once on a conflict so the
// retry validates against a fresh account read. A second conflict is
// surfaced to the caller.
func (s *LedgerService) withConflictRetry(ctx context.Context, fn func(*sqlx.Tx) error) error {
	err := s.runUnit(ctx, fn)
	if errors.Is(err, ErrConcurrencyConflict) {
		s.logger.WithError(err).Warn("ledger write conflict, retrying once")
		err = s.runUnit(ctx, fn)
	}
	return err
}

func (s *LedgerService) runUnit(ctx context.Context, fn func(*sqlx.Tx) error) error {
	err := s.txRunner.WithTx(ctx, fn)
	if errors.Is(err, store.ErrStaleWrite) || errors.Is(err, db.ErrRetryLimit) {
		return ErrConcurrencyConflict
	}
	return err
}

func (s *LedgerService) auditLog(ctx context.Context, tx store.Execer, userID, action, transactionID string, amountMinor int64) error {
	data, _ := json.Marshal(map[string]string{
		"amount": money.FormatMinor(amountMinor),
	})
	return s.audit.Log(ctx, tx, userID, action, "transaction", transactionID, string(data))
}

// afterMutation runs outside the database transaction; failures here
// are logged, never surfaced, because the ledger write already
// committed.
func (s *LedgerService) afterMutation(ctx context.Context, userID string, account models.Account, transaction models.Transaction, eventType string) {
	s.hub.BroadcastBalance(userID, websocket.BalanceUpdate{
		AccountID:  account.ID,
		Balance:    money.FormatMinor(account.Balance),
		CurrencyID: account.CurrencyID,
	})
	err := s.publisher.Publish(ctx, events.TransactionEvent{
		Type:          eventType,
		TransactionID: transaction.ID,
		AccountID:     account.ID,
		UserID:        userID,
		AmountMinor:   transaction.Amount,
		CurrencyID:    account.CurrencyID,
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		s.logger.WithError(err).WithField("transaction_id", transaction.ID).Warn("failed to publish ledger event")
	}
}

func notFoundOr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return ErrEntityNotFound
	}
	return err
}
