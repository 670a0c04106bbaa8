package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrialBalanceRow is one account line of a trial balance.
type TrialBalanceRow struct {
	AccountID   string          `json:"account_id"`
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	AccountType AccountType     `json:"account_type"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// TrialBalanceReport lists per-account debit and credit totals with the grand
// totals, which must themselves balance.
type TrialBalanceReport struct {
	AsOf        time.Time         `json:"as_of"`
	Rows        []TrialBalanceRow `json:"rows"`
	TotalDebit  decimal.Decimal   `json:"total_debit"`
	TotalCredit decimal.Decimal   `json:"total_credit"`
}

// GeneralLedgerLine is one entry of a general ledger drill-down with its
// running balance.
type GeneralLedgerLine struct {
	EntryID        string          `json:"entry_id"`
	PostingGroupID string          `json:"posting_group_id"`
	PostingDate    time.Time       `json:"posting_date"`
	SourceType     string          `json:"source_type"`
	Debit          decimal.Decimal `json:"debit"`
	Credit         decimal.Decimal `json:"credit"`
	RunningBalance decimal.Decimal `json:"running_balance"`
}

// GeneralLedgerReport is the drill-down for one account over a date range,
// seeded by the opening balance of all activity strictly before the range.
type GeneralLedgerReport struct {
	AccountID      string              `json:"account_id"`
	AccountCode    string              `json:"account_code"`
	From           time.Time           `json:"from"`
	To             time.Time           `json:"to"`
	OpeningBalance decimal.Decimal     `json:"opening_balance"`
	Lines          []GeneralLedgerLine `json:"lines"`
	ClosingBalance decimal.Decimal     `json:"closing_balance"`
}

// ReportLine is an account with its net amount under the reporting sign
// conventions.
type ReportLine struct {
	AccountID   string          `json:"account_id"`
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	Net         decimal.Decimal `json:"net"`
}

// ProfitAndLossReport nets income against expense over a window.
type ProfitAndLossReport struct {
	From         time.Time       `json:"from"`
	To           time.Time       `json:"to"`
	Income       []ReportLine    `json:"income"`
	Expenses     []ReportLine    `json:"expenses"`
	TotalIncome  decimal.Decimal `json:"total_income"`
	TotalExpense decimal.Decimal `json:"total_expense"`
	NetProfit    decimal.Decimal `json:"net_profit"`
}

// BalanceSheetReport states assets against liabilities and equity as of a
// date. NetProfitToDate bridges open periods: fiscal income minus expense not
// yet rolled into retained earnings, shown as a synthetic equity line so that
// Assets = Liabilities + Equity holds within the balance tolerance.
type BalanceSheetReport struct {
	AsOf             time.Time       `json:"as_of"`
	Assets           []ReportLine    `json:"assets"`
	Liabilities      []ReportLine    `json:"liabilities"`
	Equity           []ReportLine    `json:"equity"`
	TotalAssets      decimal.Decimal `json:"total_assets"`
	TotalLiabilities decimal.Decimal `json:"total_liabilities"`
	TotalEquity      decimal.Decimal `json:"total_equity"`
	NetProfitToDate  decimal.Decimal `json:"net_profit_to_date"`
}

// SettlementRegisterRow is one allocation line of a project's settlement
// register.
type SettlementRegisterRow struct {
	PostingGroupID string          `json:"posting_group_id"`
	PostingDate    time.Time       `json:"posting_date"`
	SourceType     string          `json:"source_type"`
	PartyID        *string         `json:"party_id,omitempty"`
	AllocationType string          `json:"allocation_type"`
	Scope          *string         `json:"scope,omitempty"`
	Amount         decimal.Decimal `json:"amount"`
}

// SettlementSummary is the frozen payload of a settlement pack.
type SettlementSummary struct {
	ProjectID       string                  `json:"project_id"`
	RegisterVersion int                     `json:"register_version"`
	AsOf            time.Time               `json:"as_of"`
	Register        []SettlementRegisterRow `json:"register"`
	TrialBalance    *TrialBalanceReport     `json:"trial_balance"`
	ProfitAndLoss   *ProfitAndLossReport    `json:"profit_and_loss"`
	BalanceSheet    *BalanceSheetReport     `json:"balance_sheet"`
}
