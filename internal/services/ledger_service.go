package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"khetbook/internal/amqp"
	"khetbook/internal/core"
	"khetbook/internal/ledger"
	"khetbook/internal/log"
	"khetbook/internal/repository"
)

// LedgerService stores expenses and incomes and publishes change events.
type LedgerService struct {
	records   repository.LedgerStore
	crops     repository.CropStore
	publisher Publisher
	logger    *log.Logger
	now       func() time.Time
}

func NewLedgerService(records repository.LedgerStore, crops repository.CropStore, publisher Publisher, logger *log.Logger) *LedgerService {
	if logger == nil {
		logger = log.Discard()
	}
	return &LedgerService{
		records:   records,
		crops:     crops,
		publisher: publisher,
		logger:    logger.WithComponent(log.ComponentLedger),
		now:       time.Now,
	}
}

func (s *LedgerService) List(ctx context.Context, accountID string, kind ledger.Kind, cropID string) ([]ledger.Record, error) {
	out, err := s.records.ListRecords(ctx, accountID, repository.RecordFilter{Kind: kind, CropID: cropID})
	if err != nil {
		return nil, fmt.Errorf("list %s records: %w", kind, err)
	}
	return out, nil
}

func (s *LedgerService) Get(ctx context.Context, accountID string, kind ledger.Kind, id string) (ledger.Record, error) {
	return s.records.GetRecord(ctx, accountID, kind, id)
}

// Create validates r as a record of kind, derives its total and stores it
// under a new id. Client-sent ids, totals and timestamps are ignored.
func (s *LedgerService) Create(ctx context.Context, accountID string, kind ledger.Kind, r ledger.Record) (ledger.Record, error) {
	r.Kind = kind
	if err := s.prepare(ctx, accountID, &r); err != nil {
		return ledger.Record{}, err
	}
	r.ID = uuid.NewString()
	r.CreatedAt = s.now().UTC()

	if err := s.records.CreateRecord(ctx, accountID, r); err != nil {
		return ledger.Record{}, fmt.Errorf("save %s: %w", kind, err)
	}
	s.logger.InfoContext(ctx, "Ledger record created",
		log.FieldAccountID, accountID,
		log.FieldRecordID, r.ID,
		log.FieldRecordKind, r.Kind,
		log.FieldCategory, r.Category,
		log.FieldTotalCents, r.Total.Cents)
	s.publish(ctx, amqp.ActionCreated, accountID, r)
	return r, nil
}

// Update replaces the record id of kind. Its creation time is preserved.
func (s *LedgerService) Update(ctx context.Context, accountID string, kind ledger.Kind, id string, r ledger.Record) (ledger.Record, error) {
	existing, err := s.records.GetRecord(ctx, accountID, kind, id)
	if err != nil {
		return ledger.Record{}, err
	}
	r.Kind = kind
	if err := s.prepare(ctx, accountID, &r); err != nil {
		return ledger.Record{}, err
	}
	r.ID = existing.ID
	r.CreatedAt = existing.CreatedAt

	if err := s.records.UpdateRecord(ctx, accountID, r); err != nil {
		return ledger.Record{}, fmt.Errorf("update %s: %w", kind, err)
	}
	s.logger.InfoContext(ctx, "Ledger record updated",
		log.FieldAccountID, accountID, log.FieldRecordID, r.ID, log.FieldTotalCents, r.Total.Cents)
	s.publish(ctx, amqp.ActionUpdated, accountID, r)
	return r, nil
}

func (s *LedgerService) Delete(ctx context.Context, accountID string, kind ledger.Kind, id string) error {
	existing, err := s.records.GetRecord(ctx, accountID, kind, id)
	if err != nil {
		return err
	}
	if err := s.records.DeleteRecord(ctx, accountID, kind, id); err != nil {
		return fmt.Errorf("delete %s: %w", kind, err)
	}
	s.logger.InfoContext(ctx, "Ledger record deleted", log.FieldAccountID, accountID, log.FieldRecordID, id)
	s.publish(ctx, amqp.ActionDeleted, accountID, existing)
	return nil
}

func (s *LedgerService) prepare(ctx context.Context, accountID string, r *ledger.Record) error {
	if err := r.Normalize(); err != nil {
		return err
	}
	if r.Date.IsZero() {
		r.Date = core.Today()
	}
	if r.CropID == "" {
		return nil
	}
	if _, err := s.crops.GetCrop(ctx, accountID, r.CropID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownCrop, r.CropID)
		}
		return fmt.Errorf("check crop: %w", err)
	}
	return nil
}

// publish never fails the request: the record is already stored.
func (s *LedgerService) publish(ctx context.Context, action amqp.Action, accountID string, r ledger.Record) {
	if s.publisher == nil {
		return
	}
	ev := amqp.NewLedgerEvent(action, accountID, r)
	if err := s.publisher.PublishLedgerEvent(ctx, ev); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish ledger event",
			log.FieldRecordID, r.ID, "action", action, log.FieldError, err)
	}
}
