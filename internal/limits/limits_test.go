package limits

import (
	"errors"
	"testing"

	"homeledger/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64Ptr(v int64) *int64 { return &v }

func TestCashBoundary(t *testing.T) {
	selector := DefaultSelector()
	strategy, err := selector.Resolve(models.KindCash)
	require.NoError(t, err)

	account := models.Account{Kind: models.KindCash, Balance: 10000}

	assert.NoError(t, strategy.Validate(-10000, account), "spending the full balance is allowed")
	err = strategy.Validate(-10001, account)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransaction))
}

func TestDebitCardBoundary(t *testing.T) {
	strategy, err := DefaultSelector().Resolve(models.KindDebitCard)
	require.NoError(t, err)

	account := models.Account{
		Kind:           models.KindDebitCard,
		Balance:        0,
		OverdraftLimit: int64Ptr(5000),
	}

	assert.NoError(t, strategy.Validate(-4999, account), "shortfall below the limit is permitted")
	err = strategy.Validate(-5000, account)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidTransaction), "shortfall meeting the limit is rejected")
}

func TestDebitCardWithoutLimitActsLikeCash(t *testing.T) {
	strategy, err := DefaultSelector().Resolve(models.KindDebitCard)
	require.NoError(t, err)

	account := models.Account{Kind: models.KindDebitCard, Balance: 100}
	assert.NoError(t, strategy.Validate(-100, account))
	assert.Error(t, strategy.Validate(-101, account))
}

func TestCreditCardBoundary(t *testing.T) {
	strategy, err := DefaultSelector().Resolve(models.KindCreditCard)
	require.NoError(t, err)

	account := models.Account{
		Kind:        models.KindCreditCard,
		Balance:     -2000,
		CreditLimit: int64Ptr(10000),
	}

	assert.NoError(t, strategy.Validate(-7999, account))
	assert.Error(t, strategy.Validate(-8000, account))
	assert.NoError(t, strategy.Validate(5000, account), "credits are always admissible")
}

func TestResolveUnknownKind(t *testing.T) {
	selector := DefaultSelector()
	for _, kind := range []models.AccountKind{
		models.KindSavingAccount,
		models.KindTakenDebt,
		models.KindIssuedLoan,
		models.KindOther,
	} {
		_, err := selector.Resolve(kind)
		require.Error(t, err, "kind %s must not silently bypass validation", kind)
		assert.True(t, errors.Is(err, ErrNoStrategy))
	}
}

func TestNewSelectorRejectsDuplicates(t *testing.T) {
	_, err := NewSelector(cashStrategy{}, cashStrategy{})
	require.Error(t, err)
}
