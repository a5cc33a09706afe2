package loader

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

const statementCSV = `Axis Bank Export,,,
Generated On: 01-04-2025,,,
Transaction Particulars,Value Date,Amount(INR),DR|CR
NEFT/AXISCN0123456/RAMESH,31-03-2025,1000.00,CR
IMPS/P2A/506912345678/SURESH,31-03-2025,250.50,DR
,,,
Report Footer,,,
`

func TestRead_AnchorPromotionAndFooterDrop(t *testing.T) {
	opts := Options{
		Anchor:   "Transaction Particulars",
		Required: []string{"Transaction Particulars", "Value Date", "Amount(INR)", "DR|CR"},
	}

	table, err := Read(context.Background(), strings.NewReader(statementCSV), "stmt.csv", opts)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}

	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 data rows, got %d", len(table.Rows))
	}
	if got := table.Rows[0].Get("Transaction Particulars"); got != "NEFT/AXISCN0123456/RAMESH" {
		t.Errorf("first particulars = %q", got)
	}
	if got := table.Rows[1].Get("Amount(INR)"); got != "250.50" {
		t.Errorf("second amount = %q", got)
	}
}

func TestRead_MissingAnchor(t *testing.T) {
	opts := Options{Anchor: "Transaction Particulars"}
	_, err := Read(context.Background(), strings.NewReader("a,b\n1,2\n"), "stmt.csv", opts)
	if err == nil || !strings.Contains(err.Error(), "header anchor") {
		t.Fatalf("expected anchor error, got %v", err)
	}
}

func TestRead_MissingRequiredColumn(t *testing.T) {
	opts := Options{
		Anchor:   "Transaction Particulars",
		Required: []string{"Transaction Particulars", "CHQNO"},
	}

	_, err := Read(context.Background(), strings.NewReader(statementCSV), "stmt.csv", opts)

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %v", err)
	}
	if len(verr.Missing) != 1 || verr.Missing[0] != "CHQNO" {
		t.Errorf("missing = %v, want [CHQNO]", verr.Missing)
	}
}

func TestRead_UnsupportedExtension(t *testing.T) {
	_, err := Read(context.Background(), strings.NewReader(""), "stmt.pdf", Options{Anchor: "Date"})

	var ferr *FormatError
	if !errors.As(err, &ferr) {
		t.Fatalf("expected *FormatError, got %v", err)
	}
	if ferr.Ext != ".pdf" {
		t.Errorf("ext = %q, want .pdf", ferr.Ext)
	}
}

func TestRead_SheetFallbackToLast(t *testing.T) {
	f := excelize.NewFile()
	if _, err := f.NewSheet("Export"); err != nil {
		t.Fatalf("NewSheet: %v", err)
	}
	cells := [][]string{
		{"Generated On: 01-04-2025", ""},
		{"Particulars", "Amount"},
		{"UPI Payment", "10"},
	}
	for i, row := range cells {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Export", cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer: %v", err)
	}

	// The bank renamed the sheet; the loader should fall back to the
	// last sheet instead of failing.
	table, err := Read(context.Background(), buf, "stmt.xlsx", Options{
		Anchor: "Particulars",
		Sheet:  "Statement",
	})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if table.Sheet != "Export" {
		t.Errorf("sheet = %q, want Export", table.Sheet)
	}
	if len(table.Rows) != 1 || table.Rows[0].Get("Amount") != "10" {
		t.Errorf("rows = %v", table.Rows)
	}
}

func TestRead_AnchorColumnRequiredPerRow(t *testing.T) {
	// Rows with an empty anchor cell are footer noise, not data.
	csv := "Particulars,Date,Amount\nUPI Payment,01-04-2025,10\n,02-04-2025,20\nCash,03-04-2025,30\n"
	table, err := Read(context.Background(), strings.NewReader(csv), "brs.csv", Options{Anchor: "Particulars"})
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(table.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(table.Rows))
	}
}
