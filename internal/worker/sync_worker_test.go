package worker

import (
	"context"
	"errors"
	"testing"

	"khetbook/internal/amqp"
	"khetbook/internal/core"
	"khetbook/internal/ledger"
	"khetbook/internal/sheets/memory"
)

func seedRecord(t *testing.T) ledger.Record {
	t.Helper()
	r, err := ledger.Build(ledger.KindExpense, "crop-1", ledger.NewDraft("seed", map[string]string{
		"seedName":   "Ajeet 155",
		"quantityKg": "4",
		"totalCost":  "3200",
	}), "", core.NewDate(2024, 6, 15))
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	r.ID = "rec-1"
	return r
}

func TestHandleEvent(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	w := NewSyncWorker(store, nil)
	r := seedRecord(t)

	created := amqp.NewLedgerEvent(amqp.ActionCreated, "acc-1", r)
	if err := w.HandleEvent(ctx, created); err != nil {
		t.Fatalf("created: %v", err)
	}
	// Redelivery must not duplicate the row.
	if err := w.HandleEvent(ctx, created); err != nil {
		t.Fatalf("redelivered: %v", err)
	}
	if rows := store.Rows(); len(rows) != 2 {
		t.Fatalf("expected one data row, got %d rows", len(rows)-1)
	}

	r.Note = "corrected"
	if err := w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.ActionUpdated, "acc-1", r)); err != nil {
		t.Fatalf("updated: %v", err)
	}
	if got := store.Rows()[1][7]; got != "corrected" {
		t.Fatalf("note after update = %v", got)
	}

	if err := w.HandleEvent(ctx, amqp.NewLedgerEvent(amqp.ActionDeleted, "acc-1", r)); err != nil {
		t.Fatalf("deleted: %v", err)
	}
	if rows := store.Rows(); len(rows) != 1 {
		t.Fatalf("expected only the header after delete, got %d rows", len(rows))
	}
}

type failingSheets struct{ memory.Store }

func (f *failingSheets) UpsertRecord(context.Context, string, ledger.Record) error {
	return errors.New("quota exceeded")
}

func TestHandleEventPropagatesSheetErrors(t *testing.T) {
	w := NewSyncWorker(&failingSheets{}, nil)
	err := w.HandleEvent(context.Background(), amqp.NewLedgerEvent(amqp.ActionCreated, "acc-1", seedRecord(t)))
	if err == nil {
		t.Fatal("expected error so the message is requeued")
	}
}

func TestHandleEventRejectsUnknownAction(t *testing.T) {
	w := NewSyncWorker(memory.New(), nil)
	if err := w.HandleEvent(context.Background(), &amqp.LedgerEvent{Action: "archived", RecordID: "x"}); err == nil {
		t.Fatal("expected error")
	}
}
