// Package recon implements the daily bank reconciliation for a single
// account: classifying statement lines, matching them against system
// ledgers, rolling the bank book balance, aging open exceptions and
// computing the balance summary. The engine is account-agnostic; all
// account-specific behaviour comes from the AccountProfile.
package recon

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Exception remarks. These exact strings flow into the rendered BRS and
// the summary's category sums, which select on them by substring, so they
// are fixed vocabulary.
const (
	RemarkDebitInBank    = "Debit in Bank Statement - Not in system"
	RemarkCreditInBank   = "Credit in Bank Statement - Not in system"
	RemarkDebitInSystem  = "Debit in system - Not in Bank Statement"
	RemarkCreditInSystem = "Credit in system - Not in Bank Statement"
)

// PendingFromOperation is the standing additional remark stamped on every
// open exception until operations clears it manually.
const PendingFromOperation = "Pending from operation"

// Category classifies a statement line. Rules apply in order; the first
// match wins and re-applying the rules to an already classified line
// yields the same category.
type Category string

const (
	CategoryContra  Category = "Contra"
	CategoryCash    Category = "Cash"
	CategoryCheque  Category = "Cheque"
	CategoryBBPS    Category = "BBPS"
	CategoryGeneric Category = "Generic"
)

// StatementLine is one retained bank statement row after classification.
// Amount is signed: debits are negative, credits positive.
type StatementLine struct {
	Particulars string
	ValueDate   time.Time
	Amount      decimal.Decimal
	DRCR        string
	Category    Category
	// Reference is the token used for composite-key matching, extracted
	// per the account's reference scheme and the line's category.
	Reference string
	// System marks where the line settles; contra lines carry "Treasury".
	System string
}

// Exception is one open BRS line: a transaction seen on one side only.
type Exception struct {
	Particulars string
	// RawDate preserves the source cell; Date is nil when it would not
	// parse, which places the row in the Unparseable Date aging bucket.
	RawDate string
	Date    *time.Time
	Amount  decimal.Decimal
	Remark  string
	// AdditionalRemarks carries the operations follow-up marker.
	AdditionalRemarks string
	Reference         string
	AgingDays         int
	AgingBucket       string
}

// BookEntry is one bank book line. Debit and Credit are nil when the cell
// is empty; NetBalance is filled by Roll.
type BookEntry struct {
	Date        time.Time
	Particulars string
	VchType     string
	Debit       *decimal.Decimal
	Credit      *decimal.Decimal
	NetBalance  decimal.Decimal
}

// Key is the composite matching key: a scale-normalized absolute amount
// paired with the trimmed reference. Matching is key equality only, so
// rows sharing a key on both sides all clear together.
type Key struct {
	Amount    string
	Reference string
}

// NewKey builds a Key from an amount and a reference token.
func NewKey(amount decimal.Decimal, reference string) Key {
	return Key{
		Amount:    amount.Abs().StringFixed(2),
		Reference: strings.TrimSpace(reference),
	}
}

// ParseAmount reads a spreadsheet money cell: commas stripped, blank means
// absent.
func ParseAmount(s string) (decimal.Decimal, bool) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" || s == "-" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, false
	}
	return d, true
}

// dayFirstLayouts are tried in order. The bank files are day-first
// throughout; ISO shows up in system extracts.
var dayFirstLayouts = []string{
	"02-01-2006",
	"02/01/2006",
	"2-1-2006",
	"2/1/2006",
	"02-01-06",
	"02/01/06",
	"02-Jan-2006",
	"02-Jan-06",
	"2006-01-02",
}

// ParseDayFirst parses a date cell with day-first preference. The second
// return is false when no layout matches.
func ParseDayFirst(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	// Timestamps carry a time-of-day suffix the layouts do not expect.
	if i := strings.IndexByte(s, ' '); i > 0 {
		s = s[:i]
	}
	for _, layout := range dayFirstLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// DayOf normalizes a time to UTC midnight of its calendar date in its own
// location. Truncating by 24h would round to the UTC day instead, which
// shifts the processing date for hosts east of Greenwich.
func DayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
