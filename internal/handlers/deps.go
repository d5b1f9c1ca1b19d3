package handlers

import (
	"context"
	"time"

	"homeledger/internal/models"
	"homeledger/internal/services"
	"homeledger/internal/store"
)

type UserStore interface {
	Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error
	GetByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, userID string) (models.User, error)
}

type AuditStore interface {
	Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

type AccountService interface {
	CreateAccount(ctx context.Context, userID string, account models.Account) (models.Account, error)
	GetAccount(ctx context.Context, userID, accountID string) (models.Account, error)
	ListAccounts(ctx context.Context, userID string, limit, offset int) ([]models.Account, error)
	UpdateAccount(ctx context.Context, userID string, account models.Account) (models.Account, error)
	DeleteAccount(ctx context.Context, userID, accountID string) error
	SelfCheck(ctx context.Context, userID string) ([]store.BalanceCheckRow, error)
}

type LedgerService interface {
	CreateTransaction(ctx context.Context, userID string, transaction models.Transaction) (models.Transaction, error)
	GetTransaction(ctx context.Context, userID, transactionID string) (models.Transaction, error)
	ListTransactions(ctx context.Context, userID, accountID string, limit, offset int) ([]models.Transaction, error)
	UpdateTransaction(ctx context.Context, userID string, transaction models.Transaction) (models.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, transactionID string) error
}

type BalanceService interface {
	TotalBalance(ctx context.Context, userID string) (int64, error)
}

type ReportService interface {
	PeriodStatistics(ctx context.Context, userID string, from, to time.Time) (services.StatisticsReport, error)
}
