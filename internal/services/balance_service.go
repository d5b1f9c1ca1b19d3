package services

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	maxConcurrentConversions = 8
	aggregationPageSize      = 500
)

type Converter interface {
	Convert(ctx context.Context, amountMinor int64, currencyID string) (int64, error)
	Refresh(ctx context.Context) error
}

// BalanceService sums a user's active account balances in the reporting
// currency. Whole passes are serialized through a single gate so the
// daily rate refresh happens once per pass instead of being stampeded
// by concurrent requests.
type BalanceService struct {
	accounts  AccountStore
	converter Converter
	logger    *logrus.Logger
	timeout   time.Duration

	gate sync.Mutex
}

func NewBalanceService(accounts AccountStore, converter Converter, logger *logrus.Logger, timeout time.Duration) *BalanceService {
	return &BalanceService{
		accounts:  accounts,
		converter: converter,
		logger:    logger,
		timeout:   timeout,
	}
}

// TotalBalance reports the reporting-currency sum over the user's
// active accounts. Conversions fan out with bounded parallelism; only
// the accumulation is serialized.
func (s *BalanceService) TotalBalance(ctx context.Context, userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.gate.Lock()
	defer s.gate.Unlock()

	if err := s.converter.Refresh(ctx); err != nil {
		// A stale cache still converts; an empty one fails below.
		s.logger.WithError(err).Warn("rate refresh failed before aggregation")
	}

	accounts, err := s.accounts.ListByUser(ctx, userID, aggregationPageSize, 0)
	if err != nil {
		return 0, err
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		total    int64
		firstErr error
	)
	sem := make(chan struct{}, maxConcurrentConversions)
	for _, account := range accounts {
		if !account.IsActive {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(balance int64, currencyID string) {
			defer wg.Done()
			defer func() { <-sem }()
			converted, err := s.converter.Convert(ctx, balance, currencyID)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if firstErr == nil {
					firstErr = err
				}
				return
			}
			total += converted
		}(account.Balance, account.CurrencyID)
	}
	wg.Wait()

	if firstErr != nil {
		return 0, firstErr
	}
	return total, nil
}
