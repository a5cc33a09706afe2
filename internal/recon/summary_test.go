package recon

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestBuildSummary_Shape(t *testing.T) {
	p := mustProfile(t, "86033")

	rows := BuildSummary(p, decimal.RequireFromString("1000"), decimal.RequireFromString("1000"), nil)
	if len(rows) != 10 {
		t.Fatalf("summary must have 10 rows, got %d", len(rows))
	}
	if rows[0].Text != p.BankLabel {
		t.Errorf("bank row = %q", rows[0].Text)
	}
	if rows[1].Text != p.AccountNumber {
		t.Errorf("account row = %q", rows[1].Text)
	}
	wantOrder := []string{
		SummaryBank, SummaryAccountNo, SummaryBookBalance,
		SummaryDebitInSystem, SummaryCreditInSystem,
		SummaryDebitInBank, SummaryCreditInBank,
		SummaryComputed, SummaryStatement, SummaryDifference,
	}
	for i, want := range wantOrder {
		if rows[i].Description != want {
			t.Errorf("row %d description = %q, want %q", i, rows[i].Description, want)
		}
	}
}

func TestBuildSummary_CategorySums(t *testing.T) {
	p := mustProfile(t, "86033")

	exceptions := []Exception{
		{Amount: decimal.RequireFromString("-300"), Remark: RemarkDebitInBank},
		{Amount: decimal.RequireFromString("-200"), Remark: RemarkDebitInBank},
		{Amount: decimal.RequireFromString("150"), Remark: RemarkCreditInBank},
		{Amount: decimal.RequireFromString("-75"), Remark: RemarkDebitInSystem},
		{Amount: decimal.RequireFromString("60"), Remark: RemarkCreditInSystem},
	}

	rows := BuildSummary(p, decimal.RequireFromString("5000"), decimal.Zero, exceptions)

	get := func(desc string) decimal.Decimal {
		for _, r := range rows {
			if r.Description == desc {
				return r.Amount.Decimal
			}
		}
		t.Fatalf("summary row %q missing", desc)
		return decimal.Zero
	}

	if got := get(SummaryDebitInBank).StringFixed(2); got != "-500.00" {
		t.Errorf("debit-in-bank sum = %s", got)
	}
	if got := get(SummaryCreditInBank).StringFixed(2); got != "150.00" {
		t.Errorf("credit-in-bank sum = %s", got)
	}
	if got := get(SummaryDebitInSystem).StringFixed(2); got != "-75.00" {
		t.Errorf("debit-in-system sum = %s", got)
	}
	if got := get(SummaryCreditInSystem).StringFixed(2); got != "60.00" {
		t.Errorf("credit-in-system sum = %s", got)
	}

	// Subtotal identity: the four category rows sum to the total of all
	// exception amounts.
	catTotal := get(SummaryDebitInBank).
		Add(get(SummaryCreditInBank)).
		Add(get(SummaryDebitInSystem)).
		Add(get(SummaryCreditInSystem))
	exTotal := decimal.Zero
	for _, ex := range exceptions {
		exTotal = exTotal.Add(ex.Amount)
	}
	if !catTotal.Equal(exTotal) {
		t.Errorf("category sums %s != exception total %s", catTotal, exTotal)
	}

	// Computed = book + category sums, difference = computed - closing.
	if got := get(SummaryComputed).StringFixed(2); got != "4635.00" {
		t.Errorf("computed = %s", got)
	}
	if got := get(SummaryDifference).StringFixed(2); got != "4635.00" {
		t.Errorf("difference = %s", got)
	}
}

func TestBuildSummary_CleanRun(t *testing.T) {
	p := mustProfile(t, "669")

	book := decimal.RequireFromString("12345.67")
	rows := BuildSummary(p, book, book, nil)
	if got := rows[len(rows)-1].Amount.Decimal; !got.IsZero() {
		t.Errorf("clean run difference = %s, want 0", got)
	}
}
