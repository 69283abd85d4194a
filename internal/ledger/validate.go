package ledger

import (
	"errors"
	"fmt"
	"slices"

	"khetbook/internal/core"
)

var (
	ErrUnknownCategory = errors.New("unknown category")
	ErrMissingField    = errors.New("missing field")
	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidChoice   = errors.New("invalid choice")
)

// ErrorKind classifies a validation failure.
type ErrorKind int

const (
	ErrorUnknownCategory ErrorKind = iota
	ErrorMissingField
	ErrorInvalidAmount
	ErrorInvalidChoice
)

func (k ErrorKind) sentinel() error {
	switch k {
	case ErrorUnknownCategory:
		return ErrUnknownCategory
	case ErrorMissingField:
		return ErrMissingField
	case ErrorInvalidAmount:
		return ErrInvalidAmount
	case ErrorInvalidChoice:
		return ErrInvalidChoice
	}
	return nil
}

// ValidationError is the first problem found in a draft.
type ValidationError struct {
	Kind     ErrorKind
	Category Category
	Field    Field
}

func (e *ValidationError) Error() string {
	if e.Kind == ErrorUnknownCategory {
		return fmt.Sprintf("%v: %q", ErrUnknownCategory, e.Category)
	}
	return fmt.Sprintf("%v: %s.%s", e.Kind.sentinel(), e.Category, e.Field)
}

// Is lets callers match with errors.Is(err, ledger.ErrMissingField).
func (e *ValidationError) Is(target error) bool {
	return target == e.Kind.sentinel()
}

// Message is the sentence shown to the farmer.
func (e *ValidationError) Message() string {
	label := string(e.Field)
	if s, ok := registry[e.Category]; ok {
		if spec, ok := s.Spec(e.Field); ok {
			label = spec.Label
		}
	}
	if e.Field == FieldCropID {
		label = "Crop"
	}
	switch e.Kind {
	case ErrorUnknownCategory:
		return "Please choose a category"
	case ErrorMissingField:
		return "Please enter " + label
	case ErrorInvalidAmount:
		return "Please enter a valid number for " + label
	case ErrorInvalidChoice:
		return "Please choose " + label
	}
	return e.Error()
}

// Validate checks a draft against its category schema and returns the first
// failure as a *ValidationError, or nil. Checks run in a fixed order: the
// category, then the mode selection, then presence of required fields in
// declared order, then every numeric field, then the derived total. Numbers
// and totals above core.MaxAmount are invalid amounts.
func Validate(d Draft) error {
	cat, ok := ParseCategory(string(d.Category))
	if !ok {
		return &ValidationError{Kind: ErrorUnknownCategory, Category: d.Category}
	}
	s := registry[cat]
	fail := func(kind ErrorKind, f Field) error {
		return &ValidationError{Kind: kind, Category: cat, Field: f}
	}

	for _, spec := range s.Fields {
		if spec.Required && d.Value(spec.Name) == "" {
			return fail(ErrorMissingField, spec.Name)
		}
		if spec.Kind == KindChoice && d.Value(spec.Name) != "" && !slices.Contains(spec.Choices, d.Value(spec.Name)) {
			return fail(ErrorInvalidChoice, spec.Name)
		}
	}

	fields, _, ok := s.resolve(d.Value(s.ModeField))
	if !ok {
		return fail(ErrorInvalidChoice, s.ModeField)
	}

	for _, spec := range fields {
		if spec.Required && d.Value(spec.Name) == "" {
			return fail(ErrorMissingField, spec.Name)
		}
	}

	for _, spec := range fields {
		if !spec.Kind.Numeric() {
			continue
		}
		raw := d.Value(spec.Name)
		if raw == "" {
			continue
		}
		n, err := core.ParseNumber(raw)
		if err != nil {
			return fail(ErrorInvalidAmount, spec.Name)
		}
		if spec.Required && !n.IsPositive() {
			return fail(ErrorInvalidAmount, spec.Name)
		}
		if n.GreaterThan(core.MaxAmount) {
			return fail(ErrorInvalidAmount, spec.Name)
		}
	}

	// An oversized total is reported against the rule's last field.
	rule := s.TotalFor(d.Value(s.ModeField))
	if v, ok := ruleValue(rule, draftValues(d)); ok {
		if _, err := core.MoneyFromDecimal(v); err != nil {
			return fail(ErrorInvalidAmount, rule.Fields[len(rule.Fields)-1])
		}
	}
	return nil
}

// ValidateFor additionally checks that the category belongs to kind and,
// for expenses, that a crop is attached.
func ValidateFor(kind Kind, cropID string, d Draft) error {
	if err := Validate(d); err != nil {
		return err
	}
	cat, _ := ParseCategory(string(d.Category))
	if registry[cat].Kind != kind {
		return &ValidationError{Kind: ErrorUnknownCategory, Category: d.Category}
	}
	if kind == KindExpense && cropID == "" {
		return &ValidationError{Kind: ErrorMissingField, Category: cat, Field: FieldCropID}
	}
	return nil
}
