package services

import (
	"context"
	"encoding/json"
	"time"

	"homeledger/internal/db"
	"homeledger/internal/models"
	"homeledger/internal/store"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

type AccountWriteStore interface {
	AccountStore
	Create(ctx context.Context, tx store.Execer, account models.Account) error
	Update(ctx context.Context, tx store.Execer, account models.Account) error
	SoftDelete(ctx context.Context, tx store.Execer, accountID, userID string) error
	NameTaken(ctx context.Context, userID, name, selfID string) (bool, error)
	SelfCheck(ctx context.Context, userID string) ([]store.BalanceCheckRow, error)
}

// AccountService owns account lifecycle. Deletes are always soft;
// balances change only through the ledger service.
type AccountService struct {
	txRunner db.TxRunner
	accounts AccountWriteStore
	audit    AuditStore
	logger   *logrus.Logger
	timeout  time.Duration
}

func NewAccountService(txRunner db.TxRunner, accounts AccountWriteStore, audit AuditStore, logger *logrus.Logger, timeout time.Duration) *AccountService {
	return &AccountService{
		txRunner: txRunner,
		accounts: accounts,
		audit:    audit,
		logger:   logger,
		timeout:  timeout,
	}
}

func (s *AccountService) CreateAccount(ctx context.Context, userID string, account models.Account) (models.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if !account.Kind.Valid() {
		return models.Account{}, ErrInvalidAccountKind
	}
	taken, err := s.accounts.NameTaken(ctx, userID, account.Name, "")
	if err != nil {
		return models.Account{}, err
	}
	if taken {
		return models.Account{}, ErrEntityAlreadyExists
	}

	account.ID = uuid.NewString()
	account.UserID = userID
	account.IsActive = true
	account.IsDeleted = false
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.accounts.Create(ctx, tx, account); err != nil {
			return err
		}
		return s.auditAccount(ctx, tx, userID, "account.create", account)
	})
	if err != nil {
		return models.Account{}, err
	}
	return account, nil
}

func (s *AccountService) GetAccount(ctx context.Context, userID, accountID string) (models.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return models.Account{}, notFoundOr(err)
	}
	if account.UserID != userID {
		return models.Account{}, ErrAccessDenied
	}
	return account, nil
}

func (s *AccountService) ListAccounts(ctx context.Context, userID string, limit, offset int) ([]models.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.accounts.ListByUser(ctx, userID, limit, offset)
}

// UpdateAccount amends name, kind, currency, limits and the active
// flag. The balance is deliberately untouchable here, otherwise a
// direct edit could break the balance/history invariant.
func (s *AccountService) UpdateAccount(ctx context.Context, userID string, account models.Account) (models.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if !account.Kind.Valid() {
		return models.Account{}, ErrInvalidAccountKind
	}
	existing, err := s.accounts.GetByID(ctx, account.ID)
	if err != nil {
		return models.Account{}, notFoundOr(err)
	}
	if existing.UserID != userID {
		return models.Account{}, ErrAccessDenied
	}
	taken, err := s.accounts.NameTaken(ctx, userID, account.Name, account.ID)
	if err != nil {
		return models.Account{}, err
	}
	if taken {
		return models.Account{}, ErrEntityAlreadyExists
	}

	account.UserID = userID
	account.Balance = existing.Balance
	err = s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.accounts.Update(ctx, tx, account); err != nil {
			return notFoundOr(err)
		}
		return s.auditAccount(ctx, tx, userID, "account.update", account)
	})
	if err != nil {
		return models.Account{}, err
	}
	return account, nil
}

func (s *AccountService) DeleteAccount(ctx context.Context, userID, accountID string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	return s.txRunner.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.accounts.SoftDelete(ctx, tx, accountID, userID); err != nil {
			return notFoundOr(err)
		}
		return s.audit.Log(ctx, tx, userID, "account.delete", "account", accountID, "{}")
	})
}

// SelfCheck recomputes stored balances from transaction history. Any
// nonzero difference means the ledger invariant was violated.
func (s *AccountService) SelfCheck(ctx context.Context, userID string) ([]store.BalanceCheckRow, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.accounts.SelfCheck(ctx, userID)
}

func (s *AccountService) auditAccount(ctx context.Context, tx store.Execer, userID, action string, account models.Account) error {
	data, _ := json.Marshal(map[string]string{
		"name": account.Name,
		"kind": string(account.Kind),
	})
	return s.audit.Log(ctx, tx, userID, action, "account", account.ID, string(data))
}
