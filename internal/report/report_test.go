package report

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/meridianfin/brs/internal/config"
	"github.com/meridianfin/brs/internal/recon"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testResult(t *testing.T) (*recon.Result, config.AccountProfile) {
	t.Helper()
	profile, err := config.ProfileFor("86033")
	require.NoError(t, err)

	processing := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	book := decimal.RequireFromString("1000")
	exceptions := []recon.Exception{{
		Particulars:       "NEFT/AXISCN0123456/RAMESH",
		RawDate:           "31-03-2025",
		Date:              &processing,
		Amount:            decimal.RequireFromString("-1000"),
		Remark:            recon.RemarkDebitInBank,
		AdditionalRemarks: recon.PendingFromOperation,
		AgingBucket:       recon.Bucket0To30,
	}}

	return &recon.Result{
		Account:        profile.ID,
		ProcessingDate: processing,
		Exceptions:     exceptions,
		Book: recon.Roll([]recon.BookEntry{
			{Date: processing, Particulars: "Opening", VchType: "Receipt", Debit: &book},
		}),
		BookBalance: book,
		Closing:     decimal.Zero,
		Summary:     recon.BuildSummary(profile, book, decimal.Zero, exceptions),
	}, profile
}

func sheetIndex(t *testing.T, f *excelize.File, name string) int {
	t.Helper()
	idx, err := f.GetSheetIndex(name)
	require.NoError(t, err)
	return idx
}

func TestSheetName(t *testing.T) {
	d := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "31.03.25", SheetName(d))
}

func TestRender_NewWorkbook(t *testing.T) {
	result, profile := testResult(t)
	path := filepath.Join(t.TempDir(), "BRS_86033.xlsx")

	require.NoError(t, Render(context.Background(), path, profile, result))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	sheet := SheetName(result.ProcessingDate)
	require.GreaterOrEqual(t, sheetIndex(t, f, sheet), 0)

	title, err := f.GetCellValue(sheet, "B1")
	require.NoError(t, err)
	assert.Equal(t, companyTitle, title)

	bank, err := f.GetCellValue(sheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, recon.SummaryBank, bank)
	label, err := f.GetCellValue(sheet, "C2")
	require.NoError(t, err)
	assert.Equal(t, profile.BankLabel, label)

	// Exception header sits below the ten summary rows, row 14.
	head, err := f.GetCellValue(sheet, "B14")
	require.NoError(t, err)
	assert.Equal(t, "Particulars", head)
	remark, err := f.GetCellValue(sheet, "E15")
	require.NoError(t, err)
	assert.Equal(t, recon.RemarkDebitInBank, remark)

	// The rolled book lands on a companion sheet.
	require.GreaterOrEqual(t, sheetIndex(t, f, sheet+" Book"), 0)
}

func TestRender_AppendsToExistingWorkbook(t *testing.T) {
	result, profile := testResult(t)
	path := filepath.Join(t.TempDir(), "BRS_86033.xlsx")

	require.NoError(t, Render(context.Background(), path, profile, result))

	next := *result
	next.ProcessingDate = result.ProcessingDate.AddDate(0, 0, 1)
	require.NoError(t, Render(context.Background(), path, profile, &next))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	assert.GreaterOrEqual(t, sheetIndex(t, f, "31.03.25"), 0)
	assert.GreaterOrEqual(t, sheetIndex(t, f, "01.04.25"), 0)
}

func TestRender_RerunReplacesSheet(t *testing.T) {
	result, profile := testResult(t)
	path := filepath.Join(t.TempDir(), "BRS_86033.xlsx")

	require.NoError(t, Render(context.Background(), path, profile, result))
	require.NoError(t, Render(context.Background(), path, profile, result))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	count := 0
	for _, name := range f.GetSheetList() {
		if name == SheetName(result.ProcessingDate) {
			count++
		}
	}
	assert.Equal(t, 1, count)
}
