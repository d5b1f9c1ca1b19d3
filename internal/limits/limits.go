// Package limits holds the per-account-kind spending rules. A strategy
// is a pure check over a proposed balance delta; persistence never
// happens before the check passes.
package limits

import (
	"errors"
	"fmt"

	"homeledger/internal/models"
)

// ErrInvalidTransaction marks a business rejection. It is never
// retried; the wrapped reason is safe to show to the caller.
var ErrInvalidTransaction = errors.New("invalid transaction")

// ErrNoStrategy means an account kind reached the ledger without a
// registered rule. That is a deployment bug, not user error.
var ErrNoStrategy = errors.New("no limit strategy registered")

// Strategy decides whether applying delta (signed minor units) to the
// account is admissible.
type Strategy interface {
	Kind() models.AccountKind
	Validate(delta int64, account models.Account) error
}

type cashStrategy struct{}

func (cashStrategy) Kind() models.AccountKind { return models.KindCash }

// Cash never goes negative.
func (cashStrategy) Validate(delta int64, account models.Account) error {
	if account.Balance+delta < 0 {
		return fmt.Errorf("%w: insufficient funds", ErrInvalidTransaction)
	}
	return nil
}

type debitCardStrategy struct{}

func (debitCardStrategy) Kind() models.AccountKind { return models.KindDebitCard }

// A shortfall strictly below the overdraft limit is allowed; hitting
// the limit is not. A missing limit behaves like a limit of zero.
func (debitCardStrategy) Validate(delta int64, account models.Account) error {
	newBalance := account.Balance + delta
	if newBalance >= 0 {
		return nil
	}
	var limit int64
	if account.OverdraftLimit != nil {
		limit = *account.OverdraftLimit
	}
	if -newBalance >= limit {
		return fmt.Errorf("%w: overdraft limit exceeded", ErrInvalidTransaction)
	}
	return nil
}

type creditCardStrategy struct{}

func (creditCardStrategy) Kind() models.AccountKind { return models.KindCreditCard }

func (creditCardStrategy) Validate(delta int64, account models.Account) error {
	newBalance := account.Balance + delta
	if newBalance >= 0 {
		return nil
	}
	var limit int64
	if account.CreditLimit != nil {
		limit = *account.CreditLimit
	}
	if -newBalance >= limit {
		return fmt.Errorf("%w: credit limit exceeded", ErrInvalidTransaction)
	}
	return nil
}

// Selector maps account kinds to strategies. Built once at startup;
// kinds without a strategy fail resolution instead of passing silently.
type Selector struct {
	strategies map[models.AccountKind]Strategy
}

func NewSelector(strategies ...Strategy) (*Selector, error) {
	byKind := make(map[models.AccountKind]Strategy, len(strategies))
	for _, strategy := range strategies {
		kind := strategy.Kind()
		if _, dup := byKind[kind]; dup {
			return nil, fmt.Errorf("duplicate limit strategy for kind %q", kind)
		}
		byKind[kind] = strategy
	}
	return &Selector{strategies: byKind}, nil
}

// DefaultSelector registers the strategies the base product ships with.
// Saving accounts, debts, loans and "other" deliberately have none, so
// adding transactions to them fails loudly until a rule exists.
func DefaultSelector() *Selector {
	selector, err := NewSelector(cashStrategy{}, debitCardStrategy{}, creditCardStrategy{})
	if err != nil {
		panic(err)
	}
	return selector
}

func (s *Selector) Resolve(kind models.AccountKind) (Strategy, error) {
	strategy, ok := s.strategies[kind]
	if !ok {
		return nil, fmt.Errorf("%w for kind %q", ErrNoStrategy, kind)
	}
	return strategy, nil
}
