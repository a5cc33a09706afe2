package recon

import (
	"context"
	"testing"

	"github.com/meridianfin/brs/internal/config"
	"github.com/meridianfin/brs/internal/loader"
	"github.com/shopspring/decimal"
)

func TestNewKey_Normalization(t *testing.T) {
	a := NewKey(decimal.RequireFromString("150"), "REF1")
	b := NewKey(decimal.RequireFromString("150.00"), " REF1 ")
	if a != b {
		t.Errorf("keys should normalize equal: %+v vs %+v", a, b)
	}

	// Sign is matching noise; the remark already records the side.
	c := NewKey(decimal.RequireFromString("-150"), "REF1")
	if a != c {
		t.Errorf("signed amounts should key identically: %+v vs %+v", a, c)
	}
}

func TestNewKey_OneCentApart(t *testing.T) {
	a := NewKey(decimal.RequireFromString("100.00"), "REF1")
	b := NewKey(decimal.RequireFromString("100.01"), "REF1")
	if a == b {
		t.Error("amounts one cent apart must not share a key")
	}
}

func glTable(rows ...loader.Record) *loader.Table {
	return &loader.Table{
		File: "gl.xlsx",
		Columns: []string{
			"Accounting Code", "Accounting Date", "Debit Amount", "Credit Amount",
			"Additional Field 1", "Additional Field 2", "Additional Field 3",
			"Additional Field 5",
		},
		Rows: rows,
	}
}

func TestFilterGL_CodeFilter(t *testing.T) {
	m := NewMatcher(mustProfile(t, "86033"))

	table := glTable(
		loader.Record{"Accounting Code": "221222", "Credit Amount": "500", "Additional Field 2": "REF1"},
		loader.Record{"Accounting Code": "999999", "Credit Amount": "500", "Additional Field 2": "REF2"},
	)

	rows := m.FilterGL(table)
	if len(rows) != 1 {
		t.Fatalf("expected 1 row after code filter, got %d", len(rows))
	}
	if rows[0].Key != NewKey(decimal.RequireFromString("500"), "REF1") {
		t.Errorf("key = %+v", rows[0].Key)
	}
}

func TestMatchGL_TwoWay(t *testing.T) {
	m := NewMatcher(mustProfile(t, "86033"))
	ctx := context.Background()

	pending := []Exception{
		{Particulars: "NEFT/REF1/A", Amount: decimal.RequireFromString("500"), Reference: "REF1", Remark: RemarkCreditInBank},
		{Particulars: "NEFT/REF9/B", Amount: decimal.RequireFromString("42"), Reference: "REF9", Remark: RemarkCreditInBank},
	}
	gl := m.FilterGL(glTable(
		loader.Record{"Accounting Code": "221222", "Credit Amount": "500", "Additional Field 2": "REF1"},
		loader.Record{"Accounting Code": "221222", "Debit Amount": "77", "Additional Field 2": "REF7", "Additional Field 3": "REVERSAL X", "Accounting Date": "30-03-2025"},
	))

	remaining, systemSide, outcome := m.MatchGL(ctx, pending, gl)

	if len(remaining) != 1 || remaining[0].Reference != "REF9" {
		t.Fatalf("remaining = %+v", remaining)
	}
	if outcome.Matched != 1 {
		t.Errorf("matched = %d", outcome.Matched)
	}
	if len(systemSide) != 1 {
		t.Fatalf("system side = %+v", systemSide)
	}
	sys := systemSide[0]
	if sys.Remark != RemarkDebitInSystem {
		t.Errorf("system remark = %q", sys.Remark)
	}
	if got := sys.Amount.StringFixed(2); got != "-77.00" {
		t.Errorf("system debit should carry negative: %s", got)
	}
}

func TestMatchGL_ManyToMany(t *testing.T) {
	// Duplicate keys on both sides all clear together. This mirrors how
	// operations actually treats repeated identical receipts.
	m := NewMatcher(mustProfile(t, "86033"))

	pending := []Exception{
		{Amount: decimal.RequireFromString("100"), Reference: "DUP"},
		{Amount: decimal.RequireFromString("100"), Reference: "DUP"},
	}
	gl := m.FilterGL(glTable(
		loader.Record{"Accounting Code": "221222", "Credit Amount": "100", "Additional Field 2": "DUP"},
	))

	remaining, systemSide, outcome := m.MatchGL(context.Background(), pending, gl)
	if len(remaining) != 0 {
		t.Errorf("both duplicate bank rows should clear, remaining = %+v", remaining)
	}
	if len(systemSide) != 0 {
		t.Errorf("the single GL row should clear, systemSide = %+v", systemSide)
	}
	if outcome.Matched != 2 {
		t.Errorf("matched = %d, want 2", outcome.Matched)
	}
}

func TestMatchGL_EmptyReferenceNeverMatches(t *testing.T) {
	m := NewMatcher(mustProfile(t, "86033"))

	pending := []Exception{{Amount: decimal.RequireFromString("100"), Reference: ""}}
	gl := m.FilterGL(glTable(
		loader.Record{"Accounting Code": "221222", "Credit Amount": "100", "Additional Field 2": ""},
	))

	remaining, systemSide, _ := m.MatchGL(context.Background(), pending, gl)
	if len(remaining) != 1 {
		t.Errorf("blank-reference bank row must stay open")
	}
	if len(systemSide) != 1 {
		t.Errorf("blank-reference GL row must stay open")
	}
}

func TestMatchChannel_OneWay(t *testing.T) {
	m := NewMatcher(mustProfile(t, "86033"))
	spec := config.ChannelSpec{Name: "bbps", FileKey: "bbps", AmountColumn: "TXNAMOUNT", ReferenceColumn: "CLIENT_CODE"}

	pending := []Exception{
		{Particulars: "BBPS/CL0042/SETTLE", Amount: decimal.RequireFromString("900"), Reference: "CL0042"},
		{Particulars: "BBPS/CL0099/SETTLE", Amount: decimal.RequireFromString("450"), Reference: "CL0099"},
	}
	table := &loader.Table{
		File:    "bbps.xlsx",
		Columns: []string{"TXNREFERENCEID", "TXNAMOUNT", "CLIENT_CODE"},
		Rows: []loader.Record{
			{"TXNREFERENCEID": "T1", "TXNAMOUNT": "900", "CLIENT_CODE": "CL0042"},
		},
	}

	remaining, outcome := m.MatchChannel(context.Background(), pending, spec, table)
	if len(remaining) != 1 || remaining[0].Reference != "CL0099" {
		t.Fatalf("remaining = %+v", remaining)
	}
	if outcome.Matched != 1 || outcome.MatchedTotal.StringFixed(2) != "900.00" {
		t.Errorf("outcome = %+v", outcome)
	}
}
