// Package worker applies ledger events to the spreadsheet mirror.
package worker

import (
	"context"
	"fmt"

	"khetbook/internal/amqp"
	"khetbook/internal/log"
	"khetbook/internal/sheets"
)

// SyncWorker keeps one sheet row per ledger record in step with the events
// published by the server.
type SyncWorker struct {
	sheets sheets.Ledger
	logger *log.Logger
}

func NewSyncWorker(s sheets.Ledger, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &SyncWorker{sheets: s, logger: logger.WithComponent(log.ComponentWorker)}
}

// HandleEvent applies one event. Created and updated events upsert the row,
// deleted events clear it. Handling is idempotent so a redelivered message
// leaves the sheet unchanged.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	w.logger.InfoContext(ctx, "Processing ledger event",
		log.FieldMessageID, ev.ID,
		log.FieldRecordID, ev.RecordID,
		"action", ev.Action)

	switch ev.Action {
	case amqp.ActionCreated, amqp.ActionUpdated:
		if err := w.sheets.UpsertRecord(ctx, ev.AccountID, *ev.Record); err != nil {
			return fmt.Errorf("sync record %s: %w", ev.RecordID, err)
		}
	case amqp.ActionDeleted:
		if err := w.sheets.DeleteRecord(ctx, ev.RecordID); err != nil {
			return fmt.Errorf("delete record %s: %w", ev.RecordID, err)
		}
	default:
		return fmt.Errorf("unknown action %q", ev.Action)
	}

	w.logger.InfoContext(ctx, "Ledger event applied",
		log.FieldRecordID, ev.RecordID, "action", ev.Action)
	return nil
}
