// Package processor applies transaction mutations against an account
// after the account-kind limit rule admits them. Nothing is written
// before validation passes; rejections propagate unchanged.
package processor

import (
	"context"

	"homeledger/internal/limits"
	"homeledger/internal/models"
	"homeledger/internal/store"
)

type TransactionStore interface {
	Create(ctx context.Context, tx store.Execer, transaction models.Transaction) error
	Update(ctx context.Context, tx store.Execer, transaction models.Transaction) error
	SoftDelete(ctx context.Context, tx store.Execer, transactionID string) error
}

type Processor struct {
	selector     *limits.Selector
	transactions TransactionStore
}

func New(selector *limits.Selector, transactions TransactionStore) *Processor {
	return &Processor{selector: selector, transactions: transactions}
}

// Add validates the transaction's full amount as the balance delta and
// persists the row on success.
func (p *Processor) Add(ctx context.Context, tx store.Execer, transaction models.Transaction, account models.Account) error {
	strategy, err := p.selector.Resolve(account.Kind)
	if err != nil {
		return err
	}
	if err := strategy.Validate(transaction.Amount, account); err != nil {
		return err
	}
	return p.transactions.Create(ctx, tx, transaction)
}

// Remove reverses the transaction, so the check runs with the negated
// amount: undoing a debit only raises the balance, but undoing a credit
// lowers it and can fail the limit.
func (p *Processor) Remove(ctx context.Context, tx store.Execer, transaction models.Transaction, account models.Account) error {
	strategy, err := p.selector.Resolve(account.Kind)
	if err != nil {
		return err
	}
	if err := strategy.Validate(-transaction.Amount, account); err != nil {
		return err
	}
	return p.transactions.SoftDelete(ctx, tx, transaction.ID)
}

// Update skips validation entirely when the amount is unchanged; an
// amended amount is checked as the difference against the current
// account state.
func (p *Processor) Update(ctx context.Context, tx store.Execer, existing, updated models.Transaction, account models.Account) error {
	if existing.Amount != updated.Amount {
		strategy, err := p.selector.Resolve(account.Kind)
		if err != nil {
			return err
		}
		if err := strategy.Validate(existing.Amount-updated.Amount, account); err != nil {
			return err
		}
	}
	return p.transactions.Update(ctx, tx, updated)
}
