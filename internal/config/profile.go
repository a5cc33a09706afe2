package config

import "fmt"

// RefScheme names the rule used to pull a bank reference out of the
// statement particulars when building composite matching keys.
type RefScheme string

const (
	// RefSchemeNone disables reference extraction for the account.
	RefSchemeNone RefScheme = ""
	// RefSchemeSlash splits particulars on "/": IMPS rows key on the third
	// segment, NEFT and RTGS rows on the second.
	RefSchemeSlash RefScheme = "slash"
	// RefSchemeDelimited keys on the first slash-delimited segment following
	// a NEFT, IFT, UTID or CB00 marker.
	RefSchemeDelimited RefScheme = "delimited"
)

// FileSpec describes one expected input workbook for an account.
type FileSpec struct {
	// Anchor is the cell value that marks the header row.
	Anchor string
	// Sheet is the sheet to read. Empty means the loader's default
	// resolution: named sheet first, last sheet as fallback.
	Sheet string
	// DateSheet selects the sheet named after a processing-relative date
	// (T-2 for prior BRS files) instead of a fixed name.
	DateSheet bool
	// Columns are the required columns. Loading fails hard when any is
	// missing from the promoted header row.
	Columns []string
}

// ChannelSpec describes one side-channel consulted by the matcher, in
// matching order. Matching is by composite key equality only.
type ChannelSpec struct {
	// Name identifies the channel ("gl", "bbps", "upi", "cash", "cheque").
	Name string
	// FileKey names the Files entry that carries the channel ledger.
	FileKey string
	// AmountColumn and ReferenceColumn form the channel-side composite key
	// for one-way channels. GL channels ignore them: the GL key is always
	// the debit-or-credit amount paired with the profile's GLKeyField.
	AmountColumn    string
	ReferenceColumn string
}

// AccountProfile carries everything account-specific the reconciliation
// engine needs. The engine itself is account-agnostic; adding a seventh
// account is a matter of adding a profile here.
type AccountProfile struct {
	ID            string
	AccountNumber string
	BankLabel     string

	// ContraSuffixes mark internal fund transfers: statement particulars
	// ending in one of these move to the treasury set instead of the BRS.
	ContraSuffixes []string
	// CashPhrases mark cash deposit rows in the statement particulars.
	CashPhrases []string
	// BBPSPrefix marks BBPS settlement rows when non-empty.
	BBPSPrefix string
	// ChequeNumberColumn, when set, flags statement rows carrying a cheque
	// number; the last six digits become the cheque matching reference.
	ChequeNumberColumn string

	RefScheme RefScheme

	// GLCode filters the GL staging extract to this account's control code.
	GLCode string
	// GLKeyField is the GL additional field paired with the amount for the
	// GL composite key.
	GLKeyField string

	// HasBankBook enables the bank-book balance roll for the account.
	HasBankBook bool

	Channels []ChannelSpec
	Files    map[string]FileSpec
}

// statement and prior-BRS shapes are shared across all six accounts.
var (
	statementSpec = FileSpec{
		Anchor: "Transaction Particulars",
		Sheet:  "Sheet0",
		Columns: []string{
			"Transaction Particulars", "Value Date", "Amount(INR)", "DR|CR",
		},
	}
	priorBRSSpec = FileSpec{
		Anchor:    "Date",
		DateSheet: true,
		Columns:   []string{"Particulars", "Date", "Amount"},
	}
	bankBookSpec = FileSpec{
		Anchor:  "Particulars",
		Columns: []string{"Date", "Particulars", "Vch Type", "Debit", "Credit"},
	}
)

func glSpec(extra ...string) FileSpec {
	cols := []string{
		"Accounting Code", "Accounting Date", "Debit Amount", "Credit Amount",
		"Additional Field 1", "Additional Field 2", "Additional Field 3",
		"Additional Field 4", "Additional Field 5",
	}
	return FileSpec{Anchor: "Accounting Code", Columns: append(cols, extra...)}
}

// profiles holds the six reconciled accounts.
var profiles = map[string]AccountProfile{
	"607": {
		ID:             "607",
		AccountNumber:  "91802007908607",
		BankLabel:      "AXIS BANK – RETAIL COLLECTION A/C",
		ContraSuffixes: []string{"607-", "6033-", "8524-"},
		CashPhrases:    []string{"AXIS FINANCE LTD CASH FUND", "Chq FUND"},
		RefScheme:      RefSchemeSlash,
		GLCode:         "221211",
		GLKeyField:     "Additional Field 2",
		HasBankBook:    true,
		Channels: []ChannelSpec{
			{Name: "gl", FileKey: "gl"},
			{Name: "gl", FileKey: "gl2"},
		},
		Files: map[string]FileSpec{
			"statement": statementSpec,
			"brs":       priorBRSSpec,
			"bankbook":  bankBookSpec,
			"gl":        glSpec(),
			"gl2":       glSpec("Transaction Date"),
		},
	},
	"669": {
		ID:            "669",
		AccountNumber: "918020103490669",
		BankLabel:     "Axis Bank Fee Collection A/C",
		RefScheme:     RefSchemeSlash,
		GLCode:        "221224",
		GLKeyField:    "Additional Field 5",
		HasBankBook:   true,
		Channels: []ChannelSpec{
			{Name: "gl", FileKey: "gl"},
		},
		Files: map[string]FileSpec{
			"statement": statementSpec,
			"brs":       priorBRSSpec,
			"gl":        glSpec(),
		},
	},
	"7687": {
		ID:            "7687",
		AccountNumber: "919020012447687",
		BankLabel:     "Axis Bank LAS Collection A/c",
		RefScheme:     RefSchemeNone,
		Files: map[string]FileSpec{
			"statement": statementSpec,
			"brs":       priorBRSSpec,
		},
	},
	"8350": {
		ID:                 "8350",
		AccountNumber:      "918020079118350",
		BankLabel:          "RETAIL DISBURSEMENT A/C",
		ChequeNumberColumn: "CHQNO",
		RefScheme:          RefSchemeDelimited,
		GLCode:             "221223",
		GLKeyField:         "Additional Field 5",
		HasBankBook:        true,
		Channels: []ChannelSpec{
			{Name: "gl", FileKey: "gl"},
		},
		Files: map[string]FileSpec{
			"statement": func() FileSpec {
				s := statementSpec
				s.Columns = append(append([]string{}, s.Columns...), "CHQNO")
				return s
			}(),
			"brs": priorBRSSpec,
			"gl":  glSpec(),
		},
	},
	"9197": {
		ID:            "9197",
		AccountNumber: "919020036409197",
		BankLabel:     "Axis Bank LAS Fee Collection A/c",
		RefScheme:     RefSchemeNone,
		Files: map[string]FileSpec{
			"statement": statementSpec,
			"brs":       priorBRSSpec,
		},
	},
	"86033": {
		ID:             "86033",
		AccountNumber:  "918020079086033",
		BankLabel:      "RETAIL COLLECTION A/C",
		ContraSuffixes: []string{"607-"},
		CashPhrases:    []string{"AXIS FINANCE LTD CASH FUND", "Chq FUND"},
		BBPSPrefix:     "BBPS",
		RefScheme:      RefSchemeSlash,
		GLCode:         "221222",
		GLKeyField:     "Additional Field 2",
		HasBankBook:    true,
		Channels: []ChannelSpec{
			{Name: "gl", FileKey: "gl"},
			{Name: "bbps", FileKey: "bbps", AmountColumn: "TXNAMOUNT", ReferenceColumn: "CLIENT_CODE"},
			{Name: "cash", FileKey: "cash", AmountColumn: "TOTL_AMNT", ReferenceColumn: "LOAN_ACCOUNT_NUMBER"},
			{Name: "upi", FileKey: "upi", AmountColumn: "DEBIT_AMOUNT", ReferenceColumn: "ACCOUNT_CUST_NAME"},
		},
		Files: map[string]FileSpec{
			"statement": statementSpec,
			"brs":       priorBRSSpec,
			"bankbook":  bankBookSpec,
			"gl":        glSpec(),
			"bbps": {
				Anchor:  "TXNREFERENCEID",
				Columns: []string{"TXNREFERENCEID", "TXNDATE", "TXNAMOUNT", "CLIENT_CODE"},
			},
			"cash": {
				Anchor:  "LOAN_ACCOUNT_NUMBER",
				Columns: []string{"LOAN_ACCOUNT_NUMBER", "TOTL_AMNT", "CUSTOMER_NAME"},
			},
			"upi": {
				Anchor:  "RRN",
				Columns: []string{"DEBIT_AMOUNT", "ACCOUNT_CUST_NAME", "RRN"},
			},
		},
	},
}

// Profiles returns the built-in account profiles keyed by short account ID.
func Profiles() map[string]AccountProfile {
	return profiles
}

// ProfileFor looks up the profile for a short account ID.
func ProfileFor(id string) (AccountProfile, error) {
	p, ok := profiles[id]
	if !ok {
		return AccountProfile{}, fmt.Errorf("config: unknown account %q", id)
	}
	return p, nil
}

// AccountIDs returns the short IDs of all configured accounts in a stable order.
func AccountIDs() []string {
	return []string{"607", "669", "7687", "8350", "9197", "86033"}
}
