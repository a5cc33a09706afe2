package recon

import (
	"strings"

	"github.com/meridianfin/brs/internal/config"
	"github.com/shopspring/decimal"
)

// Summary row descriptions, in render order.
const (
	SummaryBank           = "Bank"
	SummaryAccountNo      = "A/C No."
	SummaryBookBalance    = "Book Balance-BB"
	SummaryDebitInSystem  = "Debit in System - Not in Bank Statement"
	SummaryCreditInSystem = "Credit in System - Not in Bank Statement"
	SummaryDebitInBank    = "Debit in Bank Statement - Not in system"
	SummaryCreditInBank   = "Credit in Bank Statement - Not in system"
	SummaryComputed       = "Balance as per Bank (Computed)"
	SummaryStatement      = "Balance as per Bank Statement"
	SummaryDifference     = "Difference"
)

// SummaryRow is one key/value line of the balance summary. Text rows carry
// the bank label and account number; the rest are amounts.
type SummaryRow struct {
	Description string
	Text        string
	Amount      decimal.NullDecimal
}

func amountRow(desc string, d decimal.Decimal) SummaryRow {
	return SummaryRow{Description: desc, Amount: decimal.NullDecimal{Decimal: d, Valid: true}}
}

// BuildSummary computes the ten-row balance summary. The four category
// sums select exceptions by case-insensitive substring on the remark, the
// computed bank balance is the book balance plus all four sums (the signs
// live in the amounts), and the difference is computed minus the
// statement closing balance. A clean reconciliation has difference zero;
// a non-zero difference is reported data, not an error.
func BuildSummary(profile config.AccountProfile, bookBalance, closing decimal.Decimal, exceptions []Exception) []SummaryRow {
	debitInSystem := sumByRemark(exceptions, "debit in system")
	creditInSystem := sumByRemark(exceptions, "credit in system")
	debitInBank := sumByRemark(exceptions, "debit in bank")
	creditInBank := sumByRemark(exceptions, "credit in bank")

	computed := bookBalance.
		Add(debitInSystem).
		Add(creditInSystem).
		Add(debitInBank).
		Add(creditInBank)

	return []SummaryRow{
		{Description: SummaryBank, Text: profile.BankLabel},
		{Description: SummaryAccountNo, Text: profile.AccountNumber},
		amountRow(SummaryBookBalance, bookBalance),
		amountRow(SummaryDebitInSystem, debitInSystem),
		amountRow(SummaryCreditInSystem, creditInSystem),
		amountRow(SummaryDebitInBank, debitInBank),
		amountRow(SummaryCreditInBank, creditInBank),
		amountRow(SummaryComputed, computed),
		amountRow(SummaryStatement, closing),
		amountRow(SummaryDifference, computed.Sub(closing)),
	}
}

func sumByRemark(exceptions []Exception, needle string) decimal.Decimal {
	total := decimal.Zero
	needle = strings.ToLower(needle)
	for _, ex := range exceptions {
		if strings.Contains(strings.ToLower(ex.Remark), needle) {
			total = total.Add(ex.Amount)
		}
	}
	return total
}
