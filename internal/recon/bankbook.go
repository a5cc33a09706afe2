package recon

import (
	"time"

	"github.com/meridianfin/brs/internal/loader"
	"github.com/shopspring/decimal"
)

// BookFromTable converts a loaded bank book extract to typed entries.
func BookFromTable(table *loader.Table) []BookEntry {
	var entries []BookEntry
	for _, rec := range table.Rows {
		e := BookEntry{
			Particulars: rec.Get("Particulars"),
			VchType:     rec.Get("Vch Type"),
		}
		if t, ok := ParseDayFirst(rec.Get("Date")); ok {
			e.Date = t
		}
		if d, ok := ParseAmount(rec.Get("Debit")); ok {
			e.Debit = &d
		}
		if c, ok := ParseAmount(rec.Get("Credit")); ok {
			e.Credit = &c
		}
		entries = append(entries, e)
	}
	return entries
}

// SyntheticReceipts builds the day's collection and reversal book rows
// from the GL subtotals. The GL debit side carries the day's collections,
// so its subtotal lands in the book's Debit column as Receipt_Collection;
// the credit subtotal reverses out as Receipt_Reversal. They are dated
// T-1 because the book records the day being reconciled, not the day the
// run executes.
func SyntheticReceipts(glCredits, glDebits decimal.Decimal, bookDate time.Time) []BookEntry {
	var entries []BookEntry
	if !glDebits.IsZero() {
		d := glDebits
		entries = append(entries, BookEntry{
			Date:        bookDate,
			Particulars: "Receipt_Collection",
			VchType:     "Receipt",
			Debit:       &d,
		})
	}
	if !glCredits.IsZero() {
		c := glCredits
		entries = append(entries, BookEntry{
			Date:        bookDate,
			Particulars: "Receipt_Reversal",
			VchType:     "Payment",
			Credit:      &c,
		})
	}
	return entries
}

// BookFromTreasury reshapes contra statement lines into book rows. A
// credit on the statement is money into the account, a debit on the book
// side, and vice versa.
func BookFromTreasury(lines []StatementLine) []BookEntry {
	var entries []BookEntry
	for _, line := range lines {
		e := BookEntry{
			Date:        line.ValueDate,
			Particulars: line.Particulars,
		}
		e.VchType = "Contra"
		amount := line.Amount.Abs()
		if line.Amount.IsNegative() {
			e.Credit = &amount
		} else {
			e.Debit = &amount
		}
		entries = append(entries, e)
	}
	return entries
}

// Roll computes the cumulative net balance over the book entries in
// order. The recurrence is
//
//	NetBalance[i] = NetBalance[i-1] + Debit[i] - Credit[i]
//
// with absent amounts contributing zero and the roll seeded at row 0.
// The final row's net balance is the book balance for the day.
func Roll(entries []BookEntry) []BookEntry {
	running := decimal.Zero
	for i := range entries {
		if entries[i].Debit != nil {
			running = running.Add(*entries[i].Debit)
		}
		if entries[i].Credit != nil {
			running = running.Sub(*entries[i].Credit)
		}
		entries[i].NetBalance = running
	}
	return entries
}

// BookBalance returns the final rolled balance, zero for an empty book.
func BookBalance(entries []BookEntry) decimal.Decimal {
	if len(entries) == 0 {
		return decimal.Zero
	}
	return entries[len(entries)-1].NetBalance
}
