// Package sheets mirrors the ledger into a spreadsheet, one row per record.
package sheets

import (
	"context"
	"strings"

	"khetbook/internal/core"
	"khetbook/internal/ledger"
)

// Ports for outbound adapters.
type (
	// LedgerWriter inserts the row of a record or replaces it when a row
	// with the same record id exists.
	LedgerWriter interface {
		UpsertRecord(ctx context.Context, accountID string, r ledger.Record) error
	}

	// LedgerDeleter removes the row of a record. Missing rows are not an
	// error.
	LedgerDeleter interface {
		DeleteRecord(ctx context.Context, recordID string) error
	}

	Ledger interface {
		LedgerWriter
		LedgerDeleter
	}
)

// Header is the column layout written by every adapter.
var Header = []any{"Record ID", "Account", "Kind", "Date", "Category", "Crop", "Total", "Note", "Details"}

// Row renders a record in Header order. Amounts are plain numbers so the
// sheet can sum them.
func Row(accountID string, r ledger.Record) []any {
	return []any{
		r.ID,
		accountID,
		string(r.Kind),
		r.Date.String(),
		r.Category.Label(),
		r.CropID,
		r.Total.Decimal().InexactFloat64(),
		r.Note,
		Details(r),
	}
}

// Details summarises the payload as "Label: value" pairs in schema order.
func Details(r ledger.Record) string {
	s, ok := ledger.SchemaFor(r.Category)
	if !ok || r.Details == nil {
		return ""
	}
	mode := ledger.Text(r.Details, s.ModeField)
	var parts []string
	for _, f := range s.FieldsFor(mode) {
		var v string
		if f.Kind.Numeric() {
			d, ok := ledger.Number(r.Details, f.Name)
			if !ok {
				continue
			}
			v = d.String()
			if f.Kind == ledger.KindAmount {
				if m, err := core.MoneyFromDecimal(d); err == nil {
					v = m.String()
				}
			}
		} else {
			v = ledger.Text(r.Details, f.Name)
		}
		if v == "" {
			continue
		}
		parts = append(parts, f.Label+": "+v)
	}
	return strings.Join(parts, "; ")
}
