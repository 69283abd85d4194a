// Package export writes the ledger of one farmer to an XLSX workbook.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"khetbook/internal/core"
	"khetbook/internal/crop"
	"khetbook/internal/ledger"
	"khetbook/internal/sheets"
	"khetbook/internal/summary"
)

const (
	SheetSummary  = "Summary"
	SheetExpenses = "Expenses"
	SheetIncomes  = "Incomes"
	SheetCrops    = "Crops"

	unassigned = "Unassigned"
)

// Ledger is everything a workbook is built from.
type Ledger struct {
	Crops    []crop.Record
	Expenses []ledger.Record
	Incomes  []ledger.Record
}

var recordHeader = []any{"Date", "Category", "Crop", "Total", "Note", "Details"}

// WriteXLSX renders l as a workbook with a summary sheet, one sheet per
// record kind and the crop list.
func WriteXLSX(w io.Writer, l Ledger) error {
	f, err := Build(l)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Build returns the workbook in memory. The caller closes it.
func Build(l Ledger) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetSummary); err != nil {
		f.Close()
		return nil, err
	}
	for _, name := range []string{SheetExpenses, SheetIncomes, SheetCrops} {
		if _, err := f.NewSheet(name); err != nil {
			f.Close()
			return nil, fmt.Errorf("add sheet %s: %w", name, err)
		}
	}

	b := &builder{f: f, names: cropNames(l.Crops)}
	if err := b.styles(); err != nil {
		f.Close()
		return nil, err
	}
	b.summary(summary.Compute(l.Crops, l.Expenses, l.Incomes))
	b.records(SheetExpenses, l.Expenses)
	b.records(SheetIncomes, l.Incomes)
	b.crops(l.Crops)
	if b.err != nil {
		f.Close()
		return nil, b.err
	}
	return f, nil
}

func cropNames(crops []crop.Record) map[string]string {
	out := make(map[string]string, len(crops))
	for _, c := range crops {
		out[c.ID] = c.DisplayName()
	}
	return out
}

// builder keeps the first error so the sheet writers read top to bottom.
type builder struct {
	f      *excelize.File
	names  map[string]string
	bold   int
	amount int
	err    error
}

func (b *builder) styles() error {
	var err error
	if b.bold, err = b.f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return fmt.Errorf("bold style: %w", err)
	}
	if b.amount, err = b.f.NewStyle(&excelize.Style{NumFmt: 4}); err != nil {
		return fmt.Errorf("amount style: %w", err)
	}
	return nil
}

func (b *builder) row(sheet string, n int, values []any) {
	if b.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, n)
	if err != nil {
		b.err = err
		return
	}
	if err := b.f.SetSheetRow(sheet, cell, &values); err != nil {
		b.err = fmt.Errorf("%s row %d: %w", sheet, n, err)
	}
}

func (b *builder) header(sheet string, n int, values []any) {
	b.row(sheet, n, values)
	if b.err == nil {
		b.err = b.f.SetRowStyle(sheet, n, n, b.bold)
	}
}

// amountColumn formats rows first..last of column col as amounts.
func (b *builder) amountColumn(sheet, col string, first, last int) {
	if b.err != nil || last < first {
		return
	}
	b.err = b.f.SetCellStyle(sheet, fmt.Sprintf("%s%d", col, first), fmt.Sprintf("%s%d", col, last), b.amount)
}

func (b *builder) cropName(id string) string {
	if name, ok := b.names[id]; ok && id != "" {
		return name
	}
	return unassigned
}

func rupees(m core.Money) float64 {
	return m.Decimal().InexactFloat64()
}

func (b *builder) summary(o summary.Overview) {
	b.header(SheetSummary, 1, []any{"", "Amount"})
	b.row(SheetSummary, 2, []any{"Total expense", rupees(o.Expense)})
	b.row(SheetSummary, 3, []any{"Total income", rupees(o.Income)})
	b.row(SheetSummary, 4, []any{"Net", rupees(o.Net)})
	b.amountColumn(SheetSummary, "B", 2, 4)

	n := 6
	b.header(SheetSummary, n, []any{"Crop", "Status", "Expense", "Income", "Net"})
	first := n + 1
	for _, c := range o.Crops {
		n++
		b.row(SheetSummary, n, []any{c.Name, string(c.Status), rupees(c.Expense), rupees(c.Income), rupees(c.Net)})
	}
	if u := o.Unassigned; !u.Expense.IsZero() || !u.Income.IsZero() {
		n++
		b.row(SheetSummary, n, []any{unassigned, "", rupees(u.Expense), rupees(u.Income), rupees(u.Net)})
	}
	for _, col := range []string{"C", "D", "E"} {
		b.amountColumn(SheetSummary, col, first, n)
	}
	if b.err == nil {
		b.err = b.f.SetColWidth(SheetSummary, "A", "A", 28)
	}
}

func (b *builder) records(sheet string, records []ledger.Record) {
	b.header(sheet, 1, recordHeader)
	for i, r := range records {
		b.row(sheet, i+2, []any{
			r.Date.String(),
			r.Category.Label(),
			b.cropName(r.CropID),
			rupees(r.Total),
			r.Note,
			sheets.Details(r),
		})
	}
	b.amountColumn(sheet, "D", 2, len(records)+1)
	if b.err == nil {
		b.err = b.f.SetColWidth(sheet, "C", "C", 24)
	}
	if b.err == nil {
		b.err = b.f.SetColWidth(sheet, "F", "F", 60)
	}
}

func (b *builder) crops(crops []crop.Record) {
	b.header(SheetCrops, 1, []any{"Crop", "Season", "Year", "Area", "Unit", "Status", "Notes"})
	for i, c := range crops {
		b.row(SheetCrops, i+2, []any{
			c.DisplayName(),
			string(c.Season),
			c.Year,
			c.Area.Value,
			string(c.Area.Unit),
			string(c.Status),
			c.Notes,
		})
	}
}
