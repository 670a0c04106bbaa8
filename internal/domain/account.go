package domain

import (
	"time"
)

// AccountType classifies an account for reporting sign conventions.
type AccountType string

const (
	AccountTypeAsset     AccountType = "asset"
	AccountTypeLiability AccountType = "liability"
	AccountTypeEquity    AccountType = "equity"
	AccountTypeIncome    AccountType = "income"
	AccountTypeExpense   AccountType = "expense"
)

// Valid reports whether the account type is one of the five ledger types.
func (t AccountType) Valid() bool {
	switch t {
	case AccountTypeAsset, AccountTypeLiability, AccountTypeEquity, AccountTypeIncome, AccountTypeExpense:
		return true
	}

	return false
}

// IsTemporary reports whether balances of this type are zeroed into retained
// earnings at period close.
func (t AccountType) IsTemporary() bool {
	return t == AccountTypeIncome || t == AccountTypeExpense
}

// Account is a tenant-scoped ledger account. Code is unique per tenant.
type Account struct {
	ID           string
	TenantID     string
	Code         string
	Name         string
	Type         AccountType
	Currency     string
	IsSystem     bool
	IsDeprecated bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidatePostable checks whether the account may receive new entries.
func (a *Account) ValidatePostable() error {
	if a.IsDeprecated {
		return ErrDeprecatedAccount
	}

	return nil
}

// Well-known system account codes used by the consolidation and
// reclassification flows.
const (
	CodeRetainedEarnings = "3200"
	CodeCurrentEarnings  = "3210"
	CodeReclassClearing  = "9800"
	CodeReclassOffset    = "9810"
)
