package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// PeriodCloseIdempotencyKey builds the explicit idempotency key carried by the
// closing posting group of a crop cycle.
func PeriodCloseIdempotencyKey(cropCycleID string) string {
	return fmt.Sprintf("period_close:%s", cropCycleID)
}

// SourceTypePeriodClose is the source type of the consolidation group.
const SourceTypePeriodClose = "PERIOD_CLOSE"

// PeriodCloseRun records one consolidation of a crop cycle into retained
// earnings. At most one run exists per (tenant, crop cycle).
type PeriodCloseRun struct {
	ID             string
	TenantID       string
	CropCycleID    string
	FromDate       time.Time
	ToDate         time.Time
	TotalIncome    decimal.Decimal
	TotalExpense   decimal.Decimal
	NetProfit      decimal.Decimal
	PostingGroupID string
	ClosedBy       string
	CreatedAt      time.Time
}

// AccountActivity is the per-account aggregate the consolidator and the
// reporting aggregator read: total debit and credit movement of one account
// over a window, with reversed groups already excluded.
type AccountActivity struct {
	AccountID   string
	AccountCode string
	AccountName string
	AccountType AccountType
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
}

// Net returns the signed activity under the reporting sign conventions:
// income, liability and equity are positive when credit exceeds debit; expense
// and asset when debit exceeds credit.
func (a AccountActivity) Net() decimal.Decimal {
	switch a.AccountType {
	case AccountTypeIncome, AccountTypeLiability, AccountTypeEquity:
		return a.TotalCredit.Sub(a.TotalDebit)
	default:
		return a.TotalDebit.Sub(a.TotalCredit)
	}
}

// Material reports whether the net activity clears the suppression threshold.
func (a AccountActivity) Material() bool {
	return a.Net().Abs().GreaterThanOrEqual(MaterialityThreshold)
}
