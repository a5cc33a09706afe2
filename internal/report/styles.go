package report

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

// headerFill is the house magenta used on summary keys and table headers.
const headerFill = "BA0465"

type styles struct {
	header int
	value  int
	body   int
}

func newStyles(f *excelize.File) (styles, error) {
	thin := []excelize.Border{
		{Type: "left", Style: 1, Color: "000000"},
		{Type: "right", Style: 1, Color: "000000"},
		{Type: "top", Style: 1, Color: "000000"},
		{Type: "bottom", Style: 1, Color: "000000"},
	}

	header, err := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{headerFill}},
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thin,
	})
	if err != nil {
		return styles{}, fmt.Errorf("report: header style: %w", err)
	}

	value, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thin,
	})
	if err != nil {
		return styles{}, fmt.Errorf("report: value style: %w", err)
	}

	body, err := f.NewStyle(&excelize.Style{
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thin,
	})
	if err != nil {
		return styles{}, fmt.Errorf("report: body style: %w", err)
	}

	return styles{header: header, value: value, body: body}, nil
}

func optFloat(d *decimal.Decimal) interface{} {
	if d == nil {
		return nil
	}
	return roundFloat(d.Round(2))
}

func roundFloat(d decimal.Decimal) float64 {
	v, _ := d.Float64()
	return v
}
