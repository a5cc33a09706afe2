package recon

import (
	"context"
	"strings"

	"github.com/meridianfin/brs/internal/config"
	"github.com/meridianfin/brs/internal/loader"
	"github.com/meridianfin/brs/internal/logger"
	"github.com/shopspring/decimal"
)

// ChannelOutcome records what one side-channel pass matched, for the run
// log and the sanity totals.
type ChannelOutcome struct {
	Channel      string
	Keys         int
	Matched      int
	MatchedTotal decimal.Decimal
}

// Matcher clears pending bank-side exceptions against system-side ledgers
// by composite key equality. Matching is deliberately key-only: every row
// on either side bearing a matched key clears, so duplicated keys clear
// many-to-many rather than pairwise.
type Matcher struct {
	profile config.AccountProfile
}

// NewMatcher creates a matcher for the account profile.
func NewMatcher(profile config.AccountProfile) *Matcher {
	return &Matcher{profile: profile}
}

// GLRow is one general-ledger staging row relevant to the account.
type GLRow struct {
	Date   string
	Debit  *decimal.Decimal
	Credit *decimal.Decimal
	Key    Key
	// Loan and internal remark fields carried through to exceptions.
	LoanNumber      string
	InternalRemarks string
	Particulars     string
}

// FilterGL reduces a GL staging extract to this account's control code and
// converts rows to typed form.
func (m *Matcher) FilterGL(table *loader.Table) []GLRow {
	var rows []GLRow
	for _, rec := range table.Rows {
		if rec.Get("Accounting Code") != m.profile.GLCode {
			continue
		}
		row := GLRow{
			Date:            rec.Get("Accounting Date"),
			LoanNumber:      rec.Get("Additional Field 1"),
			InternalRemarks: rec.Get("Additional Field 5"),
			Particulars:     rec.Get("Additional Field 3"),
		}
		if d, ok := ParseAmount(rec.Get("Debit Amount")); ok && !d.IsZero() {
			row.Debit = &d
		}
		if cr, ok := ParseAmount(rec.Get("Credit Amount")); ok && !cr.IsZero() {
			row.Credit = &cr
		}

		amount := decimal.Zero
		if row.Debit != nil {
			amount = *row.Debit
		} else if row.Credit != nil {
			amount = *row.Credit
		}
		row.Key = NewKey(amount, rec.Get(m.profile.GLKeyField))
		rows = append(rows, row)
	}
	return rows
}

// MatchGL clears pending exceptions against the GL both ways: bank rows
// whose key appears in the GL clear, and GL rows whose key appears on the
// bank side clear. The GL remainder comes back as system-side exceptions.
func (m *Matcher) MatchGL(ctx context.Context, pending []Exception, gl []GLRow) (remaining, systemSide []Exception, outcome ChannelOutcome) {
	log := logger.FromContext(ctx)

	glKeys := make(map[Key]int, len(gl))
	for _, row := range gl {
		glKeys[row.Key]++
	}
	bankKeys := make(map[Key]int, len(pending))
	for _, ex := range pending {
		bankKeys[exceptionKey(ex)]++
	}

	outcome = ChannelOutcome{Channel: "gl", Keys: len(glKeys)}
	for _, ex := range pending {
		if k := exceptionKey(ex); k.Reference != "" && glKeys[k] > 0 {
			outcome.Matched++
			outcome.MatchedTotal = outcome.MatchedTotal.Add(ex.Amount.Abs())
			continue
		}
		remaining = append(remaining, ex)
	}

	for _, row := range gl {
		if row.Key.Reference != "" && bankKeys[row.Key] > 0 {
			continue
		}
		systemSide = append(systemSide, glException(row))
	}

	log.Info().
		Int("gl_rows", len(gl)).
		Int("bank_matched", outcome.Matched).
		Int("system_open", len(systemSide)).
		Str("matched_total", outcome.MatchedTotal.StringFixed(2)).
		Msg("GL matching complete")
	return remaining, systemSide, outcome
}

// glException converts an unmatched GL row to a system-side exception.
// System amounts are signed opposite to their ledger side: a system debit
// the bank has not seen is money the book shows gone, so it carries
// through negative.
func glException(row GLRow) Exception {
	ex := Exception{
		Particulars:       row.Particulars,
		RawDate:           row.Date,
		Reference:         row.Key.Reference,
		AdditionalRemarks: PendingFromOperation,
	}
	if t, ok := ParseDayFirst(row.Date); ok {
		ex.Date = &t
	}
	if row.Debit != nil {
		ex.Amount = row.Debit.Neg()
		ex.Remark = RemarkDebitInSystem
	} else if row.Credit != nil {
		ex.Amount = *row.Credit
		ex.Remark = RemarkCreditInSystem
	}
	return ex
}

// MatchChannel clears pending exceptions against one side-channel ledger
// (BBPS, cash, UPI). Channel ledgers are settlement confirmations, so the
// pass is one-way: the channel remainder is not an exception.
func (m *Matcher) MatchChannel(ctx context.Context, pending []Exception, spec config.ChannelSpec, table *loader.Table) (remaining []Exception, outcome ChannelOutcome) {
	log := logger.FromContext(ctx)

	keys := make(map[Key]int, len(table.Rows))
	channelTotal := decimal.Zero
	for _, rec := range table.Rows {
		amount, ok := ParseAmount(rec.Get(spec.AmountColumn))
		if !ok {
			continue
		}
		ref := strings.TrimSpace(rec.Get(spec.ReferenceColumn))
		if ref == "" {
			continue
		}
		keys[NewKey(amount, ref)]++
		channelTotal = channelTotal.Add(amount.Abs())
	}

	outcome = ChannelOutcome{Channel: spec.Name, Keys: len(keys)}
	for _, ex := range pending {
		if k := exceptionKey(ex); k.Reference != "" && keys[k] > 0 {
			outcome.Matched++
			outcome.MatchedTotal = outcome.MatchedTotal.Add(ex.Amount.Abs())
			continue
		}
		remaining = append(remaining, ex)
	}

	// Totals drifting apart is data quality to investigate, not a failure.
	if !outcome.MatchedTotal.Equal(channelTotal) {
		log.Warn().
			Str("channel", spec.Name).
			Str("channel_total", channelTotal.StringFixed(2)).
			Str("matched_total", outcome.MatchedTotal.StringFixed(2)).
			Msg("Channel total differs from matched total")
	}
	log.Info().
		Str("channel", spec.Name).
		Int("matched", outcome.Matched).
		Int("remaining", len(remaining)).
		Msg("Channel matching complete")
	return remaining, outcome
}

func exceptionKey(ex Exception) Key {
	return NewKey(ex.Amount, ex.Reference)
}
