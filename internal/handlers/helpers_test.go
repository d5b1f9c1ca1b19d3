package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"homeledger/internal/auth"
	"homeledger/internal/config"
	"homeledger/internal/models"
	"homeledger/internal/services"
	"homeledger/internal/store"
	"homeledger/internal/websocket"

	"github.com/jmoiron/sqlx"
)

type fakeTxRunner struct {
	withTxFn func(ctx context.Context, fn func(*sqlx.Tx) error) error
}

func (f fakeTxRunner) WithTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	if f.withTxFn != nil {
		return f.withTxFn(ctx, fn)
	}
	return fn(nil)
}

type stubUserStore struct {
	createFn     func(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error
	getByEmailFn func(ctx context.Context, email string) (models.User, error)
	getByIDFn    func(ctx context.Context, userID string) (models.User, error)
}

func (s stubUserStore) Create(ctx context.Context, tx store.Execer, id, username, email, passwordHash string) error {
	if s.createFn == nil {
		return nil
	}
	return s.createFn(ctx, tx, id, username, email, passwordHash)
}

func (s stubUserStore) GetByEmail(ctx context.Context, email string) (models.User, error) {
	if s.getByEmailFn == nil {
		return models.User{}, nil
	}
	return s.getByEmailFn(ctx, email)
}

func (s stubUserStore) GetByID(ctx context.Context, userID string) (models.User, error) {
	if s.getByIDFn == nil {
		return models.User{}, nil
	}
	return s.getByIDFn(ctx, userID)
}

type stubAuditStore struct {
	logFn func(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error
}

func (s stubAuditStore) Log(ctx context.Context, tx store.Execer, actorID, action, entityType, entityID, data string) error {
	if s.logFn == nil {
		return nil
	}
	return s.logFn(ctx, tx, actorID, action, entityType, entityID, data)
}

type stubAccountService struct {
	createFn    func(ctx context.Context, userID string, account models.Account) (models.Account, error)
	getFn       func(ctx context.Context, userID, accountID string) (models.Account, error)
	listFn      func(ctx context.Context, userID string, limit, offset int) ([]models.Account, error)
	updateFn    func(ctx context.Context, userID string, account models.Account) (models.Account, error)
	deleteFn    func(ctx context.Context, userID, accountID string) error
	selfCheckFn func(ctx context.Context, userID string) ([]store.BalanceCheckRow, error)
}

func (s stubAccountService) CreateAccount(ctx context.Context, userID string, account models.Account) (models.Account, error) {
	if s.createFn == nil {
		return account, nil
	}
	return s.createFn(ctx, userID, account)
}

func (s stubAccountService) GetAccount(ctx context.Context, userID, accountID string) (models.Account, error) {
	if s.getFn == nil {
		return models.Account{}, nil
	}
	return s.getFn(ctx, userID, accountID)
}

func (s stubAccountService) ListAccounts(ctx context.Context, userID string, limit, offset int) ([]models.Account, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, userID, limit, offset)
}

func (s stubAccountService) UpdateAccount(ctx context.Context, userID string, account models.Account) (models.Account, error) {
	if s.updateFn == nil {
		return account, nil
	}
	return s.updateFn(ctx, userID, account)
}

func (s stubAccountService) DeleteAccount(ctx context.Context, userID, accountID string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, userID, accountID)
}

func (s stubAccountService) SelfCheck(ctx context.Context, userID string) ([]store.BalanceCheckRow, error) {
	if s.selfCheckFn == nil {
		return nil, nil
	}
	return s.selfCheckFn(ctx, userID)
}

type stubLedgerService struct {
	createFn func(ctx context.Context, userID string, transaction models.Transaction) (models.Transaction, error)
	getFn    func(ctx context.Context, userID, transactionID string) (models.Transaction, error)
	listFn   func(ctx context.Context, userID, accountID string, limit, offset int) ([]models.Transaction, error)
	updateFn func(ctx context.Context, userID string, transaction models.Transaction) (models.Transaction, error)
	deleteFn func(ctx context.Context, userID, transactionID string) error
}

func (s stubLedgerService) CreateTransaction(ctx context.Context, userID string, transaction models.Transaction) (models.Transaction, error) {
	if s.createFn == nil {
		return transaction, nil
	}
	return s.createFn(ctx, userID, transaction)
}

func (s stubLedgerService) GetTransaction(ctx context.Context, userID, transactionID string) (models.Transaction, error) {
	if s.getFn == nil {
		return models.Transaction{}, nil
	}
	return s.getFn(ctx, userID, transactionID)
}

func (s stubLedgerService) ListTransactions(ctx context.Context, userID, accountID string, limit, offset int) ([]models.Transaction, error) {
	if s.listFn == nil {
		return nil, nil
	}
	return s.listFn(ctx, userID, accountID, limit, offset)
}

func (s stubLedgerService) UpdateTransaction(ctx context.Context, userID string, transaction models.Transaction) (models.Transaction, error) {
	if s.updateFn == nil {
		return transaction, nil
	}
	return s.updateFn(ctx, userID, transaction)
}

func (s stubLedgerService) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	if s.deleteFn == nil {
		return nil
	}
	return s.deleteFn(ctx, userID, transactionID)
}

type stubBalanceService struct {
	totalFn func(ctx context.Context, userID string) (int64, error)
}

func (s stubBalanceService) TotalBalance(ctx context.Context, userID string) (int64, error) {
	if s.totalFn == nil {
		return 0, nil
	}
	return s.totalFn(ctx, userID)
}

type stubReportService struct {
	statisticsFn func(ctx context.Context, userID string, from, to time.Time) (services.StatisticsReport, error)
}

func (s stubReportService) PeriodStatistics(ctx context.Context, userID string, from, to time.Time) (services.StatisticsReport, error) {
	if s.statisticsFn == nil {
		return services.StatisticsReport{From: from, To: to}, nil
	}
	return s.statisticsFn(ctx, userID, from, to)
}

func newTestHandler(users UserStore, audit AuditStore, accounts AccountService, ledger LedgerService, balances BalanceService) *Handler {
	return newTestHandlerWithReports(users, audit, accounts, ledger, balances, stubReportService{})
}

func newTestHandlerWithReports(users UserStore, audit AuditStore, accounts AccountService, ledger LedgerService, balances BalanceService, reports ReportService) *Handler {
	cfg := config.Config{
		JWTSecret:         "secret",
		TokenTTL:          time.Minute,
		AllowedOrigins:    "*",
		ReportingCurrency: "RUB",
	}
	return New(fakeTxRunner{}, cfg, users, audit, accounts, ledger, balances, reports, websocket.NewHub())
}

func bearerToken(t *testing.T, userID string) string {
	t.Helper()
	token, err := auth.MakeToken("secret", userID, time.Minute)
	if err != nil {
		t.Fatalf("failed to generate token: %v", err)
	}
	return token
}

func serve(handler *Handler, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	handler.Routes().ServeHTTP(rr, req)
	return rr
}
