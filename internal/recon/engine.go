package recon

import (
	"context"
	"fmt"
	"time"

	"github.com/meridianfin/brs/internal/config"
	"github.com/meridianfin/brs/internal/loader"
	"github.com/meridianfin/brs/internal/logger"
	"github.com/shopspring/decimal"
)

// Inputs are the loaded tables for one account's run. Only the statement
// is mandatory; a nil prior BRS means an empty carryover and the rest
// depend on the account profile.
type Inputs struct {
	Statement *loader.Table
	PriorBRS  *loader.Table
	BankBook  *loader.Table
	// Channels holds the side-channel ledgers keyed by the profile's
	// file key ("gl", "bbps", "cash", "upi").
	Channels map[string]*loader.Table
}

// Result is a completed reconciliation for one account and date.
type Result struct {
	Account        string
	ProcessingDate time.Time

	// Exceptions are the day's open BRS lines, aged.
	Exceptions []Exception
	// Treasury holds the contra lines routed out of the BRS.
	Treasury []StatementLine
	// Book is the rolled bank book; empty for accounts without one.
	Book        []BookEntry
	BookBalance decimal.Decimal
	Closing     decimal.Decimal
	Summary     []SummaryRow
	Channels    []ChannelOutcome
	Difference  decimal.Decimal
}

// Engine runs the reconciliation for one account. It is stateless between
// runs; the processing date is an explicit parameter of Run.
type Engine struct {
	profile    config.AccountProfile
	classifier *Classifier
	matcher    *Matcher
}

// NewEngine creates an engine for the account profile.
func NewEngine(profile config.AccountProfile) *Engine {
	return &Engine{
		profile:    profile,
		classifier: NewClassifier(profile),
		matcher:    NewMatcher(profile),
	}
}

// Run reconciles one processing date: classify the statement, carry the
// prior BRS forward, clear both against the system ledgers, age what is
// left, roll the bank book and compute the summary.
func (e *Engine) Run(ctx context.Context, in Inputs, processing time.Time) (*Result, error) {
	if in.Statement == nil {
		return nil, fmt.Errorf("recon: account %s: statement input is required", e.profile.ID)
	}
	log := logger.FromContext(ctx)

	classified := e.classifier.Classify(ctx, in.Statement, processing)

	carryover := e.carryoverExceptions(in.PriorBRS)
	fresh := e.bankExceptions(classified.Lines)

	if e.profile.ChequeNumberColumn != "" {
		carryover, fresh = clearPresentedCheques(ctx, carryover, fresh)
	}

	pending := append(carryover, fresh...)

	var systemSide []Exception
	var outcomes []ChannelOutcome
	var glCredits, glDebits decimal.Decimal

	for _, spec := range e.profile.Channels {
		table := in.Channels[spec.FileKey]
		if table == nil {
			log.Warn().
				Str("channel", spec.Name).
				Str("file_key", spec.FileKey).
				Msg("Channel ledger not supplied, skipping")
			continue
		}
		if spec.Name == "gl" {
			gl := e.matcher.FilterGL(table)
			for _, row := range gl {
				if row.Credit != nil {
					glCredits = glCredits.Add(*row.Credit)
				}
				if row.Debit != nil {
					glDebits = glDebits.Add(*row.Debit)
				}
			}
			var sys []Exception
			var outcome ChannelOutcome
			pending, sys, outcome = e.matcher.MatchGL(ctx, pending, gl)
			systemSide = append(systemSide, sys...)
			outcomes = append(outcomes, outcome)
			continue
		}
		var outcome ChannelOutcome
		pending, outcome = e.matcher.MatchChannel(ctx, pending, spec, table)
		outcomes = append(outcomes, outcome)
	}

	exceptions := ApplyAging(append(pending, systemSide...), processing)

	result := &Result{
		Account:        e.profile.ID,
		ProcessingDate: processing,
		Exceptions:     exceptions,
		Treasury:       classified.Treasury,
		Closing:        classified.Closing,
		Channels:       outcomes,
	}

	if e.profile.HasBankBook {
		var book []BookEntry
		if in.BankBook != nil {
			book = BookFromTable(in.BankBook)
		}
		book = append(book, SyntheticReceipts(glCredits, glDebits, processing)...)
		book = append(book, BookFromTreasury(classified.Treasury)...)
		result.Book = Roll(book)
		result.BookBalance = BookBalance(result.Book)
	}

	result.Summary = BuildSummary(e.profile, result.BookBalance, result.Closing, exceptions)
	result.Difference = result.Summary[len(result.Summary)-1].Amount.Decimal

	log.Info().
		Int("exceptions", len(exceptions)).
		Str("book_balance", result.BookBalance.StringFixed(2)).
		Str("closing", result.Closing.StringFixed(2)).
		Str("difference", result.Difference.StringFixed(2)).
		Msg("Reconciliation complete")
	return result, nil
}

// bankExceptions turns the day's unexplained statement lines into fresh
// bank-side exceptions, remark chosen by sign.
func (e *Engine) bankExceptions(lines []StatementLine) []Exception {
	var out []Exception
	for _, line := range lines {
		ex := Exception{
			Particulars:       line.Particulars,
			RawDate:           line.ValueDate.Format("02-01-2006"),
			Amount:            line.Amount,
			Reference:         line.Reference,
			AdditionalRemarks: PendingFromOperation,
		}
		d := line.ValueDate
		ex.Date = &d
		if line.Amount.IsNegative() {
			ex.Remark = RemarkDebitInBank
		} else {
			ex.Remark = RemarkCreditInBank
		}
		out = append(out, ex)
	}
	return out
}

// carryoverExceptions reads the prior day's open BRS lines. A remark
// column is used when present; otherwise the remark is inferred from the
// amount's sign, which is only ever needed for hand-edited sheets.
func (e *Engine) carryoverExceptions(prior *loader.Table) []Exception {
	if prior == nil {
		return nil
	}
	var out []Exception
	for _, rec := range prior.Rows {
		ex := Exception{
			Particulars:       rec.Get("Particulars"),
			RawDate:           rec.Get("Date"),
			Reference:         rec.Get("Reference"),
			AdditionalRemarks: rec.Get("Additional Remarks"),
		}
		amount, ok := ParseAmount(rec.Get("Amount"))
		if !ok {
			continue
		}
		ex.Amount = amount
		if t, parsed := ParseDayFirst(ex.RawDate); parsed {
			ex.Date = &t
		}
		ex.Remark = rec.Get("Remarks")
		if ex.Remark == "" {
			if amount.IsNegative() {
				ex.Remark = RemarkDebitInBank
			} else {
				ex.Remark = RemarkCreditInBank
			}
		}
		if ex.Reference == "" {
			ex.Reference = ExtractReference(e.profile.RefScheme, ex.Particulars)
		}
		out = append(out, ex)
	}
	return out
}

// clearPresentedCheques removes carryover cheque exceptions whose key
// reappears in today's statement, together with the presenting statement
// line. Cheques issued earlier clear when the bank finally pays them.
func clearPresentedCheques(ctx context.Context, carryover, fresh []Exception) (remainingCarry, remainingFresh []Exception) {
	log := logger.FromContext(ctx)

	freshKeys := make(map[Key]int, len(fresh))
	for _, ex := range fresh {
		freshKeys[exceptionKey(ex)]++
	}

	carryKeys := make(map[Key]int, len(carryover))
	cleared := 0
	for _, ex := range carryover {
		k := exceptionKey(ex)
		if k.Reference != "" && freshKeys[k] > 0 {
			carryKeys[k]++
			cleared++
			continue
		}
		remainingCarry = append(remainingCarry, ex)
	}
	for _, ex := range fresh {
		if k := exceptionKey(ex); k.Reference != "" && carryKeys[k] > 0 {
			continue
		}
		remainingFresh = append(remainingFresh, ex)
	}

	if cleared > 0 {
		log.Info().Int("cleared", cleared).Msg("Presented cheques cleared from carryover")
	}
	return remainingCarry, remainingFresh
}
