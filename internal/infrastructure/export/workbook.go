package export

import (
	"fmt"
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/rcarvalho-pb/payment_notifier-go/internal/domain/payment"
)

const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	headers = []string{"Fecha", "Nombre", "Email", "Tipo de pago", "Monto"}
	widths  = map[string]float64{"A": 22, "B": 25, "C": 30, "D": 20, "E": 15}
)

func Title(period payment.Period, value string) string {
	switch period {
	case payment.PeriodDay:
		return "Ventas del dia " + value
	case payment.PeriodMonth:
		return "Ventas del mes " + value
	}
	return "Ventas del año " + value
}

func SheetName(value string) string {
	return "Ventas " + value
}

func FileName(period payment.Period, value string) string {
	return fmt.Sprintf("ventas_%s_%s.xlsx", period, value)
}

// Workbook adapts the package functions to the application's writer port.
type Workbook struct{}

func (Workbook) Write(w io.Writer, period payment.Period, value string, records []payment.Record) error {
	return WriteWorkbook(w, period, value, records)
}

func (Workbook) FileName(period payment.Period, value string) string {
	return FileName(period, value)
}

// WriteWorkbook renders records as a sales sheet: title in row 1, header in
// row 3, one row per record and a closing TOTAL row.
func WriteWorkbook(w io.Writer, period payment.Period, value string, records []payment.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(value)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	st, err := newStyles(f)
	if err != nil {
		return err
	}

	if err := f.MergeCell(sheet, "A1", "E1"); err != nil {
		return err
	}
	if err := setCell(f, sheet, 1, 1, Title(period, value), st.title); err != nil {
		return err
	}

	for i, h := range headers {
		if err := setCell(f, sheet, i+1, 3, h, st.header); err != nil {
			return err
		}
	}

	total := decimal.Zero
	row := 4
	for _, r := range records {
		total = total.Add(r.Amount)
		values := []any{
			dateCell(r.DateCreated),
			r.PayerName,
			r.PayerEmail,
			r.Type.Label(),
			r.Amount.InexactFloat64(),
		}
		for col, v := range values {
			style := st.cell
			if col == 4 {
				style = st.amount
			}
			if err := setCell(f, sheet, col+1, row, v, style); err != nil {
				return err
			}
		}
		row++
	}

	if err := writeTotal(f, sheet, row, total, st); err != nil {
		return err
	}

	for col, width := range widths {
		if err := f.SetColWidth(sheet, col, col, width); err != nil {
			return err
		}
	}

	return f.Write(w)
}

func writeTotal(f *excelize.File, sheet string, row int, total decimal.Decimal, st styles) error {
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(4, row)
	if err := f.MergeCell(sheet, first, last); err != nil {
		return err
	}
	for col := 2; col <= 4; col++ {
		if err := setCell(f, sheet, col, row, nil, st.totalLabel); err != nil {
			return err
		}
	}
	if err := setCell(f, sheet, 1, row, "TOTAL", st.totalLabel); err != nil {
		return err
	}
	return setCell(f, sheet, 5, row, total.InexactFloat64(), st.totalAmount)
}

func setCell(f *excelize.File, sheet string, col, row int, v any, style int) error {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return err
	}
	if v != nil {
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return f.SetCellStyle(sheet, cell, cell, style)
}

func dateCell(s string) string {
	if s == "" {
		return "-"
	}
	if len(s) > 19 {
		return s[:19]
	}
	return s
}

type styles struct {
	title, header, cell, amount, totalLabel, totalAmount int
}

func newStyles(f *excelize.File) (styles, error) {
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}
	amountFmt := "#,##0.00"
	totalFill := excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"D4EDDA"}}

	defs := []*excelize.Style{
		{
			Font:      &excelize.Font{Bold: true, Size: 14},
			Alignment: &excelize.Alignment{Horizontal: "center"},
		},
		{
			Font:      &excelize.Font{Bold: true, Size: 11, Color: "FFFFFF"},
			Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"343A40"}},
			Alignment: &excelize.Alignment{Horizontal: "center"},
			Border:    border,
		},
		{Border: border},
		{
			Border:       border,
			CustomNumFmt: &amountFmt,
			Alignment:    &excelize.Alignment{Horizontal: "right"},
		},
		{
			Font:      &excelize.Font{Bold: true, Size: 12},
			Fill:      totalFill,
			Alignment: &excelize.Alignment{Horizontal: "right"},
			Border:    border,
		},
		{
			Font:         &excelize.Font{Bold: true, Size: 12},
			Fill:         totalFill,
			Alignment:    &excelize.Alignment{Horizontal: "right"},
			Border:       border,
			CustomNumFmt: &amountFmt,
		},
	}

	ids := make([]int, len(defs))
	for i, d := range defs {
		id, err := f.NewStyle(d)
		if err != nil {
			return styles{}, err
		}
		ids[i] = id
	}
	return styles{ids[0], ids[1], ids[2], ids[3], ids[4], ids[5]}, nil
}
