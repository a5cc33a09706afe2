package recon

import (
	"context"
	"strings"
	"time"

	"github.com/meridianfin/brs/internal/config"
	"github.com/meridianfin/brs/internal/loader"
	"github.com/meridianfin/brs/internal/logger"
	"github.com/shopspring/decimal"
)

// Classified is the classifier output: the retained signed lines, the
// contra lines routed to treasury, and the statement closing balance.
type Classified struct {
	Lines    []StatementLine
	Treasury []StatementLine
	// Closing is the statement closing balance, taken from the balance
	// column of the last retained row when the column is present.
	Closing decimal.Decimal
}

// Classifier turns the raw transaction summary into classified, signed
// statement lines for one account.
type Classifier struct {
	profile config.AccountProfile
}

// NewClassifier creates a classifier for the account profile.
func NewClassifier(profile config.AccountProfile) *Classifier {
	return &Classifier{profile: profile}
}

// Classify filters the statement to the processing date, normalizes and
// signs amounts (debits negative), applies the ordered category rules and
// splits contra lines out to the treasury set.
func (c *Classifier) Classify(ctx context.Context, stmt *loader.Table, processing time.Time) Classified {
	log := logger.FromContext(ctx)

	var out Classified
	day := DayOf(processing)

	for _, rec := range stmt.Rows {
		valueDate, ok := ParseDayFirst(rec.Get("Value Date"))
		if !ok || !valueDate.Equal(day) {
			continue
		}

		amount, ok := ParseAmount(rec.Get("Amount(INR)"))
		if !ok {
			log.Warn().
				Str("particulars", rec.Get("Transaction Particulars")).
				Str("amount", rec.Get("Amount(INR)")).
				Msg("Statement row with unreadable amount skipped")
			continue
		}

		drcr := strings.ToUpper(rec.Get("DR|CR"))
		if strings.HasPrefix(drcr, "DR") {
			amount = amount.Neg()
		}

		line := StatementLine{
			Particulars: rec.Get("Transaction Particulars"),
			ValueDate:   valueDate,
			Amount:      amount,
			DRCR:        drcr,
		}
		line.Category = c.Categorize(line.Particulars, rec.Get(c.profile.ChequeNumberColumn))
		line.Reference = c.reference(line, rec)

		if balance, ok := ParseAmount(rec.Get("Balance(INR)")); ok {
			out.Closing = balance
		}

		if line.Category == CategoryContra {
			line.System = "Treasury"
			out.Treasury = append(out.Treasury, line)
			continue
		}
		out.Lines = append(out.Lines, line)
	}

	log.Info().
		Int("retained", len(out.Lines)).
		Int("treasury", len(out.Treasury)).
		Msg("Statement classified")
	return out
}

// Categorize applies the ordered category rules to a particulars string.
// The rules are pure functions of their inputs, so categorizing an
// already categorized line again returns the same result.
func (c *Classifier) Categorize(particulars, chequeNo string) Category {
	for _, suffix := range c.profile.ContraSuffixes {
		if strings.HasSuffix(strings.TrimSpace(particulars), suffix) {
			return CategoryContra
		}
	}
	for _, phrase := range c.profile.CashPhrases {
		if strings.Contains(particulars, phrase) {
			return CategoryCash
		}
	}
	if c.profile.ChequeNumberColumn != "" && strings.TrimSpace(chequeNo) != "" {
		return CategoryCheque
	}
	if c.profile.BBPSPrefix != "" && strings.HasPrefix(particulars, c.profile.BBPSPrefix) {
		return CategoryBBPS
	}
	return CategoryGeneric
}

// reference derives the matching reference for a line.
func (c *Classifier) reference(line StatementLine, rec loader.Record) string {
	switch line.Category {
	case CategoryCheque:
		return chequeReference(rec.Get(c.profile.ChequeNumberColumn))
	case CategoryBBPS:
		// BBPS particulars carry the client code as the second segment.
		parts := strings.Split(line.Particulars, "/")
		if len(parts) > 1 {
			return strings.TrimSpace(parts[1])
		}
		return ""
	default:
		return ExtractReference(c.profile.RefScheme, line.Particulars)
	}
}

// chequeReference keeps the last six digits of the cheque number, which is
// how the system ledger records it.
func chequeReference(chequeNo string) string {
	chequeNo = strings.TrimSpace(chequeNo)
	if len(chequeNo) > 6 {
		return chequeNo[len(chequeNo)-6:]
	}
	return chequeNo
}

// ExtractReference pulls the bank reference out of a particulars string
// under the given scheme. Unrecognized shapes yield an empty reference,
// which never matches.
func ExtractReference(scheme config.RefScheme, particulars string) string {
	switch scheme {
	case config.RefSchemeSlash:
		parts := strings.Split(particulars, "/")
		switch {
		case strings.HasPrefix(particulars, "IMPS") && len(parts) > 2:
			return strings.TrimSpace(parts[2])
		case strings.HasPrefix(particulars, "UPI") && len(parts) > 3:
			return strings.TrimSpace(parts[3])
		case (strings.HasPrefix(particulars, "NEFT") || strings.HasPrefix(particulars, "RTGS")) && len(parts) > 1:
			return strings.TrimSpace(parts[1])
		}
		return ""
	case config.RefSchemeDelimited:
		for _, marker := range []string{"NEFT/", "IFT/", "UTID/", "CB00/"} {
			if i := strings.Index(particulars, marker); i >= 0 {
				rest := particulars[i+len(marker):]
				if j := strings.IndexByte(rest, '/'); j >= 0 {
					rest = rest[:j]
				}
				return strings.TrimSpace(rest)
			}
		}
		return ""
	default:
		return ""
	}
}
