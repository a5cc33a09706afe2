// Package report renders a completed reconciliation into the per-account
// BRS workbook. Each day appends one sheet named after the reconciled
// date, so the workbook accumulates the account's reconciliation history.
package report

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/meridianfin/brs/internal/config"
	"github.com/meridianfin/brs/internal/logger"
	"github.com/meridianfin/brs/internal/recon"
	"github.com/xuri/excelize/v2"
)

const companyTitle = "Meridian Finance Limited"

// SheetName returns the sheet name for a reconciled date, dd.mm.yy.
func SheetName(processing time.Time) string {
	return processing.Format("02.01.06")
}

// Render writes the summary and exception table for the run into the
// workbook at path, creating the file when it does not exist yet and
// appending a date-named sheet when it does. Accounts with a bank book
// also get the rolled book on a companion sheet.
func Render(ctx context.Context, path string, profile config.AccountProfile, result *recon.Result) error {
	log := logger.FromContext(ctx)

	var f *excelize.File
	if _, err := os.Stat(path); err == nil {
		f, err = excelize.OpenFile(path)
		if err != nil {
			return fmt.Errorf("report: open %s: %w", path, err)
		}
	} else {
		f = excelize.NewFile()
	}
	defer f.Close()

	sheet := SheetName(result.ProcessingDate)
	if idx, err := f.GetSheetIndex(sheet); err == nil && idx >= 0 {
		// Re-runs for the same date replace the sheet rather than piling
		// duplicate ones into the workbook.
		if err := f.DeleteSheet(sheet); err != nil {
			return fmt.Errorf("report: delete sheet %s: %w", sheet, err)
		}
	}
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("report: new sheet %s: %w", sheet, err)
	}
	// Drop excelize's default sheet on freshly created workbooks.
	if idx, err := f.GetSheetIndex("Sheet1"); err == nil && idx >= 0 && sheet != "Sheet1" && len(f.GetSheetList()) > 1 {
		if err := f.DeleteSheet("Sheet1"); err != nil {
			return fmt.Errorf("report: delete default sheet: %w", err)
		}
	}

	styles, err := newStyles(f)
	if err != nil {
		return err
	}

	if err := writeSummary(f, sheet, styles, result.Summary); err != nil {
		return err
	}
	if err := writeExceptions(f, sheet, styles, result.Exceptions, len(result.Summary)); err != nil {
		return err
	}
	if len(result.Book) > 0 {
		if err := writeBook(f, sheet+" Book", styles, result.Book); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("report: save %s: %w", path, err)
	}

	log.Info().
		Str("path", path).
		Str("sheet", sheet).
		Int("exceptions", len(result.Exceptions)).
		Msg("BRS workbook written")
	return nil
}

func writeSummary(f *excelize.File, sheet string, st styles, summary []recon.SummaryRow) error {
	if err := f.SetCellValue(sheet, "B1", companyTitle); err != nil {
		return fmt.Errorf("report: title cell: %w", err)
	}
	if err := f.SetCellStyle(sheet, "B1", "B1", st.header); err != nil {
		return fmt.Errorf("report: title style: %w", err)
	}

	for i, row := range summary {
		r := i + 2
		keyCell := fmt.Sprintf("B%d", r)
		valCell := fmt.Sprintf("C%d", r)
		if err := f.SetCellValue(sheet, keyCell, row.Description); err != nil {
			return fmt.Errorf("report: summary key %s: %w", keyCell, err)
		}
		if row.Amount.Valid {
			v, _ := row.Amount.Decimal.Round(2).Float64()
			if err := f.SetCellValue(sheet, valCell, v); err != nil {
				return fmt.Errorf("report: summary value %s: %w", valCell, err)
			}
		} else if err := f.SetCellValue(sheet, valCell, row.Text); err != nil {
			return fmt.Errorf("report: summary value %s: %w", valCell, err)
		}
		if err := f.SetCellStyle(sheet, keyCell, keyCell, st.header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, valCell, valCell, st.value); err != nil {
			return err
		}
	}

	if err := f.SetColWidth(sheet, "B", "B", 50); err != nil {
		return err
	}
	return f.SetColWidth(sheet, "C", "C", 40)
}

var exceptionHeader = []string{
	"Particulars", "Date", "Amount", "Remarks",
	"Additional Remarks", "Aging", "Aging Bucket", "Reference",
}

func writeExceptions(f *excelize.File, sheet string, st styles, exceptions []recon.Exception, summaryLen int) error {
	// Two blank rows separate the summary block from the exception table.
	headerRow := summaryLen + 4

	for i, h := range exceptionHeader {
		cell, _ := excelize.CoordinatesToCellName(i+2, headerRow)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("report: exception header: %w", err)
		}
		if err := f.SetCellStyle(sheet, cell, cell, st.header); err != nil {
			return err
		}
	}

	for i, ex := range exceptions {
		r := headerRow + 1 + i
		amount, _ := ex.Amount.Round(2).Float64()
		date := ex.RawDate
		if ex.Date != nil {
			date = ex.Date.Format("02-01-2006")
		}
		values := []interface{}{
			ex.Particulars, date, amount, ex.Remark,
			ex.AdditionalRemarks, ex.AgingDays, ex.AgingBucket, ex.Reference,
		}
		for j, v := range values {
			cell, _ := excelize.CoordinatesToCellName(j+2, r)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("report: exception row %d: %w", i, err)
			}
			if err := f.SetCellStyle(sheet, cell, cell, st.body); err != nil {
				return err
			}
		}
	}
	return nil
}

var bookHeader = []string{"Date", "Particulars", "Vch Type", "Debit", "Credit", "Net Balance"}

func writeBook(f *excelize.File, sheet string, st styles, book []recon.BookEntry) error {
	if idx, err := f.GetSheetIndex(sheet); err == nil && idx >= 0 {
		if err := f.DeleteSheet(sheet); err != nil {
			return fmt.Errorf("report: delete book sheet: %w", err)
		}
	}
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("report: new book sheet: %w", err)
	}

	for i, h := range bookHeader {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, st.header); err != nil {
			return err
		}
	}

	for i, e := range book {
		r := i + 2
		values := []interface{}{
			e.Date.Format("02-01-2006"), e.Particulars, e.VchType,
			optFloat(e.Debit), optFloat(e.Credit), roundFloat(e.NetBalance.Round(2)),
		}
		for j, v := range values {
			if v == nil {
				continue
			}
			cell, _ := excelize.CoordinatesToCellName(j+1, r)
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return nil
}
