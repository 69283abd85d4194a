package amqp

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"

	"khetbook/internal/ledger"
)

// Action is what happened to a ledger record.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// LedgerEvent announces a change to a ledger record. Created and updated
// events carry the full record so consumers never read the server's store.
type LedgerEvent struct {
	ID        string         `json:"id"`
	Action    Action         `json:"action"`
	AccountID string         `json:"accountId"`
	Kind      ledger.Kind    `json:"kind"`
	RecordID  string         `json:"recordId"`
	Record    *ledger.Record `json:"record,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

func NewLedgerEvent(action Action, accountID string, r ledger.Record) *LedgerEvent {
	ev := &LedgerEvent{
		ID:        uuid.NewString(),
		Action:    action,
		AccountID: accountID,
		Kind:      r.Kind,
		RecordID:  r.ID,
		Timestamp: time.Now().UTC(),
	}
	if action != ActionDeleted {
		rec := r
		ev.Record = &rec
	}
	return ev
}

func (m *LedgerEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// LedgerEventFromJSON decodes and sanity-checks an event body.
func LedgerEventFromJSON(data []byte) (*LedgerEvent, error) {
	var msg LedgerEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Action {
	case ActionCreated, ActionUpdated:
		if msg.Record == nil {
			return nil, errors.New("ledger event without record")
		}
	case ActionDeleted:
	default:
		return nil, errors.New("ledger event with unknown action")
	}
	if msg.RecordID == "" {
		return nil, errors.New("ledger event without record id")
	}
	return &msg, nil
}
