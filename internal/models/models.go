package models

import "time"

// AccountKind selects the spending-limit rule applied to an account.
type AccountKind string

const (
	KindCash          AccountKind = "cash"
	KindDebitCard     AccountKind = "debit_card"
	KindCreditCard    AccountKind = "credit_card"
	KindSavingAccount AccountKind = "saving_account"
	KindTakenDebt     AccountKind = "taken_debt"
	KindIssuedLoan    AccountKind = "issued_loan"
	KindOther         AccountKind = "other"
)

func (k AccountKind) Valid() bool {
	switch k {
	case KindCash, KindDebitCard, KindCreditCard, KindSavingAccount, KindTakenDebt, KindIssuedLoan, KindOther:
		return true
	}
	return false
}

type User struct {
	ID           string    `db:"id" json:"id"`
	Username     string    `db:"username" json:"username"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// Account balances and limits are int64 minor units. OverdraftLimit is
// honored only for debit cards, CreditLimit only for credit cards.
type Account struct {
	ID             string      `db:"id" json:"id"`
	UserID         string      `db:"user_id" json:"user_id"`
	Name           string      `db:"name" json:"name"`
	Kind           AccountKind `db:"kind" json:"kind"`
	CurrencyID     string      `db:"currency_id" json:"currency_id"`
	Balance        int64       `db:"balance" json:"balance"`
	OverdraftLimit *int64      `db:"overdraft_limit" json:"overdraft_limit,omitempty"`
	CreditLimit    *int64      `db:"credit_limit" json:"credit_limit,omitempty"`
	IsActive       bool        `db:"is_active" json:"is_active"`
	IsDeleted      bool        `db:"is_deleted" json:"-"`
	CreatedAt      time.Time   `db:"created_at" json:"created_at"`
}

// Transaction amount is signed: positive credits the account, negative
// debits it. AccountID never changes after creation.
type Transaction struct {
	ID          string     `db:"id" json:"id"`
	AccountID   string     `db:"account_id" json:"account_id"`
	Amount      int64      `db:"amount" json:"amount"`
	Date        time.Time  `db:"date" json:"date"`
	PlanDate    *time.Time `db:"plan_date" json:"plan_date,omitempty"`
	Description *string    `db:"description" json:"description,omitempty"`
	IsApproved  *bool      `db:"is_approved" json:"is_approved,omitempty"`
	IsRepeated  *bool      `db:"is_repeated" json:"is_repeated,omitempty"`
	IsDeleted   bool       `db:"is_deleted" json:"-"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
}
