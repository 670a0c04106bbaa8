package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"

	"github.com/pirnawaz/agroledger/internal/domain"
)

// SettlementDocument is the rendered deliverable for a final pack. Rendering
// reads only the frozen SummaryJSON, so the same pack always yields the same
// bytes and the same document hash.
type SettlementDocument struct {
	PackID       string
	Content      []byte
	DocumentHash string
	SnapshotHash string
}

// ExportDocument renders the settlement document for a FINAL pack.
func (uc *SettlementUseCase) ExportDocument(ctx context.Context, tenantID, packID string) (*SettlementDocument, error) {
	pack, err := uc.settlementRepo.GetByID(ctx, tenantID, packID)
	if err != nil {
		return nil, err
	}

	if pack.Status != domain.PackStatusFinal {
		return nil, domain.ErrPackState
	}

	var summary domain.SettlementSummary
	if err := json.Unmarshal(pack.SummaryJSON, &summary); err != nil {
		return nil, fmt.Errorf("corrupt settlement summary for pack %s: %w", pack.ID, err)
	}

	content := renderSettlementDocument(pack, &summary)

	snapshotHash := ""
	if pack.SnapshotHash != nil {
		snapshotHash = *pack.SnapshotHash
	}

	return &SettlementDocument{
		PackID:       pack.ID,
		Content:      content,
		DocumentHash: domain.SnapshotHash(content),
		SnapshotHash: snapshotHash,
	}, nil
}

func renderSettlementDocument(pack *domain.SettlementPack, summary *domain.SettlementSummary) []byte {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "SETTLEMENT PACK %s\n", pack.ID)
	fmt.Fprintf(&buf, "Project: %s  Register version: %d\n", summary.ProjectID, summary.RegisterVersion)
	fmt.Fprintf(&buf, "As of: %s\n\n", summary.AsOf.Format("2006-01-02"))

	buf.WriteString("SETTLEMENT REGISTER\n")
	for _, row := range summary.Register {
		scope := ""
		if row.Scope != nil {
			scope = *row.Scope
		}
		fmt.Fprintf(&buf, "  %s %-16s %-14s %-10s %12s\n",
			row.PostingDate.Format("2006-01-02"), row.SourceType, row.AllocationType, scope, row.Amount.StringFixed(2))
	}

	if tb := summary.TrialBalance; tb != nil {
		buf.WriteString("\nTRIAL BALANCE\n")
		for _, row := range tb.Rows {
			fmt.Fprintf(&buf, "  %-8s %-32s %12s %12s\n",
				row.AccountCode, row.AccountName, row.Debit.StringFixed(2), row.Credit.StringFixed(2))
		}
		fmt.Fprintf(&buf, "  %-41s %12s %12s\n", "TOTAL", tb.TotalDebit.StringFixed(2), tb.TotalCredit.StringFixed(2))
	}

	if pl := summary.ProfitAndLoss; pl != nil {
		buf.WriteString("\nPROFIT AND LOSS\n")
		for _, line := range pl.Income {
			fmt.Fprintf(&buf, "  income   %-8s %-32s %12s\n", line.AccountCode, line.AccountName, line.Net.StringFixed(2))
		}
		for _, line := range pl.Expenses {
			fmt.Fprintf(&buf, "  expense  %-8s %-32s %12s\n", line.AccountCode, line.AccountName, line.Net.StringFixed(2))
		}
		fmt.Fprintf(&buf, "  NET PROFIT %51s\n", pl.NetProfit.StringFixed(2))
	}

	if bs := summary.BalanceSheet; bs != nil {
		buf.WriteString("\nBALANCE SHEET\n")
		fmt.Fprintf(&buf, "  Total assets       %12s\n", bs.TotalAssets.StringFixed(2))
		fmt.Fprintf(&buf, "  Total liabilities  %12s\n", bs.TotalLiabilities.StringFixed(2))
		fmt.Fprintf(&buf, "  Total equity       %12s\n", bs.TotalEquity.StringFixed(2))
	}

	return buf.Bytes()
}
