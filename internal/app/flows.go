package app

import (
	"context"
	"io"

	"golang.org/x/sync/errgroup"

	"khetbook/internal/core"
	"khetbook/internal/crop"
	"khetbook/internal/export"
	"khetbook/internal/ledger"
	"khetbook/internal/summary"
)

// Every mutating flow returns the list re-fetched after the change, which
// replaces whatever the caller showed before.

func (s *Session) Crops(ctx context.Context) ([]crop.Record, error) {
	return s.api.ListCrops(ctx)
}

// AddCrop checks the draft locally before sending it.
func (s *Session) AddCrop(ctx context.Context, d crop.Draft) ([]crop.Record, error) {
	if _, err := crop.New(d, s.now()); err != nil {
		return nil, err
	}
	if _, err := s.api.CreateCrop(ctx, d); err != nil {
		return nil, err
	}
	return s.api.ListCrops(ctx)
}

func (s *Session) SetCropStatus(ctx context.Context, id string, status crop.Status) ([]crop.Record, error) {
	if _, err := crop.ParseStatus(string(status)); err != nil {
		return nil, err
	}
	if _, err := s.api.SetCropStatus(ctx, id, status); err != nil {
		return nil, err
	}
	return s.api.ListCrops(ctx)
}

// AdvanceCrop moves c one step along active, harvested, closed.
func (s *Session) AdvanceCrop(ctx context.Context, c crop.Record) ([]crop.Record, error) {
	return s.SetCropStatus(ctx, c.ID, crop.Next(c.Status))
}

func (s *Session) DeleteCrop(ctx context.Context, id string) ([]crop.Record, error) {
	if err := s.api.DeleteCrop(ctx, id); err != nil {
		return nil, err
	}
	return s.api.ListCrops(ctx)
}

func (s *Session) Records(ctx context.Context, kind ledger.Kind, cropID string) ([]ledger.Record, error) {
	return s.api.ListRecords(ctx, kind, cropID)
}

// Entry is a ledger record as entered on a form.
type Entry struct {
	Kind   ledger.Kind
	CropID string
	Draft  ledger.Draft
	Note   string
	// Date defaults to today.
	Date core.Date
}

func (e Entry) build() (ledger.Record, error) {
	date := e.Date
	if date.IsZero() {
		date = core.Today()
	}
	return ledger.Build(e.Kind, e.CropID, e.Draft, e.Note, date)
}

// AddRecord validates and derives the entry locally; a *ledger.ValidationError
// is returned without any network call.
func (s *Session) AddRecord(ctx context.Context, e Entry) ([]ledger.Record, error) {
	r, err := e.build()
	if err != nil {
		return nil, err
	}
	if _, err := s.api.CreateRecord(ctx, r); err != nil {
		return nil, err
	}
	return s.api.ListRecords(ctx, e.Kind, "")
}

// UpdateRecord replaces the record id with the entry.
func (s *Session) UpdateRecord(ctx context.Context, id string, e Entry) ([]ledger.Record, error) {
	r, err := e.build()
	if err != nil {
		return nil, err
	}
	r.ID = id
	if _, err := s.api.UpdateRecord(ctx, r); err != nil {
		return nil, err
	}
	return s.api.ListRecords(ctx, e.Kind, "")
}

func (s *Session) DeleteRecord(ctx context.Context, kind ledger.Kind, id string) ([]ledger.Record, error) {
	if err := s.api.DeleteRecord(ctx, kind, id); err != nil {
		return nil, err
	}
	return s.api.ListRecords(ctx, kind, "")
}

// fetchAll loads crops, expenses and incomes concurrently. Any failure
// fails the whole fetch.
func (s *Session) fetchAll(ctx context.Context) (export.Ledger, error) {
	var l export.Ledger
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		l.Crops, err = s.api.ListCrops(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		l.Expenses, err = s.api.ListRecords(gctx, ledger.KindExpense, "")
		return err
	})
	g.Go(func() error {
		var err error
		l.Incomes, err = s.api.ListRecords(gctx, ledger.KindIncome, "")
		return err
	})
	if err := g.Wait(); err != nil {
		return export.Ledger{}, err
	}
	return l, nil
}

// Dashboard computes the overview of every crop and record.
func (s *Session) Dashboard(ctx context.Context) (summary.Overview, error) {
	l, err := s.fetchAll(ctx)
	if err != nil {
		return summary.Overview{}, err
	}
	return summary.Compute(l.Crops, l.Expenses, l.Incomes), nil
}

// Export writes the whole ledger as an XLSX workbook.
func (s *Session) Export(ctx context.Context, w io.Writer) error {
	l, err := s.fetchAll(ctx)
	if err != nil {
		return err
	}
	return export.WriteXLSX(w, l)
}
