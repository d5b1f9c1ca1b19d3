package handlers

import (
	"errors"
	"time"

	"homeledger/internal/models"
	"homeledger/internal/money"
	"homeledger/internal/validator"
)

// Wire amounts are decimal strings ("-12.30"), storage is int64 minor
// units. Parsing happens once at the boundary.

type accountPayload struct {
	Name           string  `json:"name"`
	Kind           string  `json:"kind"`
	CurrencyID     string  `json:"currency_id"`
	OverdraftLimit *string `json:"overdraft_limit"`
	CreditLimit    *string `json:"credit_limit"`
	IsActive       *bool   `json:"is_active"`
}

func (p accountPayload) toModel() (models.Account, error) {
	if err := validator.ValidateAccountName(p.Name); err != nil {
		return models.Account{}, err
	}
	if p.CurrencyID == "" {
		return models.Account{}, errors.New("currency_id is required")
	}
	account := models.Account{
		Name:       p.Name,
		Kind:       models.AccountKind(p.Kind),
		CurrencyID: p.CurrencyID,
		IsActive:   true,
	}
	if p.IsActive != nil {
		account.IsActive = *p.IsActive
	}
	var err error
	if account.OverdraftLimit, err = parseOptionalMoney(p.OverdraftLimit); err != nil {
		return models.Account{}, errors.New("invalid overdraft_limit")
	}
	if account.CreditLimit, err = parseOptionalMoney(p.CreditLimit); err != nil {
		return models.Account{}, errors.New("invalid credit_limit")
	}
	return account, nil
}

type transactionPayload struct {
	AccountID   string  `json:"account_id"`
	Amount      string  `json:"amount"`
	Date        *string `json:"date"`
	PlanDate    *string `json:"plan_date"`
	Description *string `json:"description"`
	IsApproved  *bool   `json:"is_approved"`
	IsRepeated  *bool   `json:"is_repeated"`
}

func (p transactionPayload) toModel() (models.Transaction, error) {
	amount, err := money.ParseMinor(p.Amount)
	if err != nil {
		return models.Transaction{}, err
	}
	if err := validator.ValidateAmount(amount); err != nil {
		return models.Transaction{}, err
	}
	if err := validator.ValidateDescription(p.Description); err != nil {
		return models.Transaction{}, err
	}
	transaction := models.Transaction{
		AccountID:   p.AccountID,
		Amount:      amount,
		Date:        time.Now(),
		Description: p.Description,
		IsApproved:  p.IsApproved,
		IsRepeated:  p.IsRepeated,
	}
	if p.Date != nil {
		date, err := time.Parse(time.RFC3339, *p.Date)
		if err != nil {
			return models.Transaction{}, errors.New("invalid date")
		}
		if err := validator.ValidateDate(date); err != nil {
			return models.Transaction{}, err
		}
		transaction.Date = date
	}
	if p.PlanDate != nil {
		planDate, err := time.Parse(time.RFC3339, *p.PlanDate)
		if err != nil {
			return models.Transaction{}, errors.New("invalid plan_date")
		}
		transaction.PlanDate = &planDate
	}
	return transaction, nil
}

func parseOptionalMoney(raw *string) (*int64, error) {
	if raw == nil {
		return nil, nil
	}
	value, err := money.ParseMinor(*raw)
	if err != nil {
		return nil, err
	}
	if value < 0 {
		return nil, errors.New("limit cannot be negative")
	}
	return &value, nil
}

func accountResponse(account models.Account) map[string]any {
	response := map[string]any{
		"id":          account.ID,
		"name":        account.Name,
		"kind":        account.Kind,
		"currency_id": account.CurrencyID,
		"balance":     money.FormatMinor(account.Balance),
		"is_active":   account.IsActive,
		"created_at":  account.CreatedAt,
	}
	if account.OverdraftLimit != nil {
		response["overdraft_limit"] = money.FormatMinor(*account.OverdraftLimit)
	}
	if account.CreditLimit != nil {
		response["credit_limit"] = money.FormatMinor(*account.CreditLimit)
	}
	return response
}

func transactionResponse(transaction models.Transaction) map[string]any {
	response := map[string]any{
		"id":         transaction.ID,
		"account_id": transaction.AccountID,
		"amount":     money.FormatMinor(transaction.Amount),
		"date":       transaction.Date,
		"created_at": transaction.CreatedAt,
	}
	if transaction.PlanDate != nil {
		response["plan_date"] = transaction.PlanDate
	}
	if transaction.Description != nil {
		response["description"] = *transaction.Description
	}
	if transaction.IsApproved != nil {
		response["is_approved"] = *transaction.IsApproved
	}
	if transaction.IsRepeated != nil {
		response["is_repeated"] = *transaction.IsRepeated
	}
	return response
}
