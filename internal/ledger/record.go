package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"khetbook/internal/core"
)

var ErrPayloadMismatch = errors.New("payload does not match category")

// Record is a persisted expense or income: the shared envelope plus one
// typed payload.
type Record struct {
	ID        string
	Kind      Kind
	CropID    string
	Category  Category
	Note      string
	Date      core.Date
	CreatedAt time.Time
	Total     core.Money
	Details   Payload
}

// Build validates a draft and turns it into a record with its derived
// total. ID and CreatedAt are left for the store to assign.
func Build(kind Kind, cropID string, d Draft, note string, date core.Date) (Record, error) {
	if err := ValidateFor(kind, cropID, d); err != nil {
		return Record{}, err
	}
	p, err := Decode(d)
	if err != nil {
		return Record{}, err
	}
	r := Record{
		Kind:     kind,
		CropID:   cropID,
		Category: p.Category(),
		Note:     note,
		Date:     date,
		Details:  p,
	}
	r.Total, _ = ComputeTotal(p)
	return r, nil
}

// Normalize re-validates a record that arrived from outside (an API body or
// a database row), drops fields that do not apply to its mode and
// re-derives the total. Stored totals are never trusted.
func (r *Record) Normalize() error {
	if r.Details == nil {
		return &ValidationError{Kind: ErrorUnknownCategory, Category: r.Category}
	}
	if r.Details.Category() != r.Category {
		return fmt.Errorf("%w: %s carries %s payload", ErrPayloadMismatch, r.Category, r.Details.Category())
	}
	d := Encode(r.Details)
	if err := ValidateFor(r.Kind, r.CropID, d); err != nil {
		return err
	}
	p, err := Decode(d)
	if err != nil {
		return err
	}
	r.Details = p
	r.Total, _ = ComputeTotal(p)
	return nil
}

// UnitRate is the per-unit rate of the record, when its category defines one.
func (r Record) UnitRate() (core.Money, bool) {
	if r.Details == nil {
		return core.Money{}, false
	}
	return ComputeUnitRate(r.Details)
}

type recordJSON struct {
	ID        string          `json:"id,omitempty"`
	Kind      Kind            `json:"kind"`
	CropID    string          `json:"cropId,omitempty"`
	Category  Category        `json:"category"`
	Note      string          `json:"note,omitempty"`
	Date      core.Date       `json:"date"`
	CreatedAt *time.Time      `json:"createdAt,omitempty"`
	Total     core.Money      `json:"total"`
	Details   json.RawMessage `json:"details"`
}

func (r Record) MarshalJSON() ([]byte, error) {
	if r.Details == nil {
		return nil, fmt.Errorf("record %s has no details", r.ID)
	}
	details, err := json.Marshal(r.Details)
	if err != nil {
		return nil, err
	}
	out := recordJSON{
		ID:       r.ID,
		Kind:     r.Kind,
		CropID:   r.CropID,
		Category: r.Category,
		Note:     r.Note,
		Date:     r.Date,
		Total:    r.Total,
		Details:  details,
	}
	if !r.CreatedAt.IsZero() {
		t := r.CreatedAt
		out.CreatedAt = &t
	}
	return json.Marshal(out)
}

// UnmarshalJSON instantiates the payload type registered for the category.
// Details with fields foreign to that type are rejected.
func (r *Record) UnmarshalJSON(data []byte) error {
	var in recordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	cat, ok := ParseCategory(string(in.Category))
	if !ok {
		return &ValidationError{Kind: ErrorUnknownCategory, Category: in.Category}
	}
	if len(in.Details) == 0 || string(in.Details) == "null" {
		return fmt.Errorf("%w: %s record without details", ErrPayloadMismatch, cat)
	}
	p, err := DecodePayload(cat, in.Details)
	if err != nil {
		return err
	}
	*r = Record{
		ID:       in.ID,
		Kind:     in.Kind,
		CropID:   in.CropID,
		Category: cat,
		Note:     in.Note,
		Date:     in.Date,
		Total:    in.Total,
		Details:  p,
	}
	if in.CreatedAt != nil {
		r.CreatedAt = *in.CreatedAt
	}
	return nil
}

// DecodePayload decodes a JSON payload into the type registered for cat.
func DecodePayload(cat Category, data []byte) (Payload, error) {
	s, ok := registry[cat]
	if !ok {
		return nil, &ValidationError{Kind: ErrorUnknownCategory, Category: cat}
	}
	p := s.newPayload()
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(p); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrPayloadMismatch, err)
	}
	return p, nil
}
