package ledger

import (
	"strings"

	"github.com/shopspring/decimal"

	"khetbook/internal/core"
)

// Field is the wire name of a payload field.
type Field string

const (
	FieldSeedName        Field = "seedName"
	FieldQuantityKg      Field = "quantityKg"
	FieldTotalCost       Field = "totalCost"
	FieldSupplier        Field = "supplier"
	FieldProductName     Field = "productName"
	FieldNumberOfBags    Field = "numberOfBags"
	FieldQuantityLitres  Field = "quantityLitres"
	FieldMode            Field = "mode"
	FieldTask            Field = "task"
	FieldNumberOfPeople  Field = "numberOfPeople"
	FieldDays            Field = "days"
	FieldDailyRate       Field = "dailyRate"
	FieldReason          Field = "reason"
	FieldContractAmount  Field = "contractAmount"
	FieldMachineType     Field = "machineType"
	FieldHours           Field = "hours"
	FieldRatePerHour     Field = "ratePerHour"
	FieldBuyerName       Field = "buyerName"
	FieldQuantityQuintal Field = "quantityQuintal"
	FieldRatePerQuintal  Field = "ratePerQuintal"
	FieldSchemeName      Field = "schemeName"
	FieldAmount          Field = "amount"
	FieldItemRented      Field = "itemRented"
	FieldDuration        Field = "duration"
	FieldRatePerUnit     Field = "ratePerUnit"
	FieldSource          Field = "source"

	// FieldCropID belongs to the envelope; it only shows up in validation
	// errors for expenses filed without a crop.
	FieldCropID Field = "cropId"
)

// Labour modes.
const (
	LabourDaily    = "daily"
	LabourContract = "contract"
)

// Payload is the category-specific part of a record. The set of
// implementations is closed: one struct per category, all in this file.
// Numbers are held as exact decimals and marshal as JSON strings; plain JSON
// numbers are accepted when decoding.
type Payload interface {
	Category() Category
	bindings() []binding
}

// binding ties a wire field to the struct member holding it. Exactly one
// of the pointers is set.
type binding struct {
	field Field
	text  *string
	num   *decimal.Decimal
	opt   **decimal.Decimal
}

type SeedPayload struct {
	SeedName   string          `json:"seedName"`
	QuantityKg decimal.Decimal `json:"quantityKg"`
	TotalCost  decimal.Decimal `json:"totalCost"`
	Supplier   string          `json:"supplier,omitempty"`
}

func (*SeedPayload) Category() Category { return Seed }

func (p *SeedPayload) bindings() []binding {
	return []binding{
		{field: FieldSeedName, text: &p.SeedName},
		{field: FieldQuantityKg, num: &p.QuantityKg},
		{field: FieldTotalCost, num: &p.TotalCost},
		{field: FieldSupplier, text: &p.Supplier},
	}
}

type FertilizerPayload struct {
	ProductName  string           `json:"productName"`
	NumberOfBags *decimal.Decimal `json:"numberOfBags,omitempty"`
	TotalCost    decimal.Decimal  `json:"totalCost"`
}

func (*FertilizerPayload) Category() Category { return Fertilizer }

func (p *FertilizerPayload) bindings() []binding {
	return []binding{
		{field: FieldProductName, text: &p.ProductName},
		{field: FieldNumberOfBags, opt: &p.NumberOfBags},
		{field: FieldTotalCost, num: &p.TotalCost},
	}
}

type PesticidePayload struct {
	ProductName    string           `json:"productName"`
	QuantityLitres *decimal.Decimal `json:"quantityLitres,omitempty"`
	TotalCost      decimal.Decimal  `json:"totalCost"`
}

func (*PesticidePayload) Category() Category { return Pesticide }

func (p *PesticidePayload) bindings() []binding {
	return []binding{
		{field: FieldProductName, text: &p.ProductName},
		{field: FieldQuantityLitres, opt: &p.QuantityLitres},
		{field: FieldTotalCost, num: &p.TotalCost},
	}
}

// LabourPayload carries either the daily-wage fields or the contract
// fields, selected by Mode. Fields of the other mode stay nil/empty.
type LabourPayload struct {
	Mode           string           `json:"mode"`
	Task           string           `json:"task,omitempty"`
	NumberOfPeople *decimal.Decimal `json:"numberOfPeople,omitempty"`
	Days           *decimal.Decimal `json:"days,omitempty"`
	DailyRate      *decimal.Decimal `json:"dailyRate,omitempty"`
	Reason         string           `json:"reason,omitempty"`
	ContractAmount *decimal.Decimal `json:"contractAmount,omitempty"`
}

func (*LabourPayload) Category() Category { return Labour }

func (p *LabourPayload) bindings() []binding {
	return []binding{
		{field: FieldMode, text: &p.Mode},
		{field: FieldTask, text: &p.Task},
		{field: FieldNumberOfPeople, opt: &p.NumberOfPeople},
		{field: FieldDays, opt: &p.Days},
		{field: FieldDailyRate, opt: &p.DailyRate},
		{field: FieldReason, text: &p.Reason},
		{field: FieldContractAmount, opt: &p.ContractAmount},
	}
}

type MachineryPayload struct {
	MachineType string          `json:"machineType"`
	Hours       decimal.Decimal `json:"hours"`
	RatePerHour decimal.Decimal `json:"ratePerHour"`
}

func (*MachineryPayload) Category() Category { return Machinery }

func (p *MachineryPayload) bindings() []binding {
	return []binding{
		{field: FieldMachineType, text: &p.MachineType},
		{field: FieldHours, num: &p.Hours},
		{field: FieldRatePerHour, num: &p.RatePerHour},
	}
}

type CropSalePayload struct {
	BuyerName       string          `json:"buyerName,omitempty"`
	QuantityQuintal decimal.Decimal `json:"quantityQuintal"`
	RatePerQuintal  decimal.Decimal `json:"ratePerQuintal"`
}

func (*CropSalePayload) Category() Category { return CropSale }

func (p *CropSalePayload) bindings() []binding {
	return []binding{
		{field: FieldBuyerName, text: &p.BuyerName},
		{field: FieldQuantityQuintal, num: &p.QuantityQuintal},
		{field: FieldRatePerQuintal, num: &p.RatePerQuintal},
	}
}

type SubsidyPayload struct {
	SchemeName string          `json:"schemeName"`
	Amount     decimal.Decimal `json:"amount"`
}

func (*SubsidyPayload) Category() Category { return Subsidy }

func (p *SubsidyPayload) bindings() []binding {
	return []binding{
		{field: FieldSchemeName, text: &p.SchemeName},
		{field: FieldAmount, num: &p.Amount},
	}
}

type RentalIncomePayload struct {
	ItemRented  string          `json:"itemRented"`
	Duration    decimal.Decimal `json:"duration"`
	RatePerUnit decimal.Decimal `json:"ratePerUnit"`
}

func (*RentalIncomePayload) Category() Category { return RentalIncome }

func (p *RentalIncomePayload) bindings() []binding {
	return []binding{
		{field: FieldItemRented, text: &p.ItemRented},
		{field: FieldDuration, num: &p.Duration},
		{field: FieldRatePerUnit, num: &p.RatePerUnit},
	}
}

type OtherIncomePayload struct {
	Source string          `json:"source"`
	Amount decimal.Decimal `json:"amount"`
}

func (*OtherIncomePayload) Category() Category { return OtherIncome }

func (p *OtherIncomePayload) bindings() []binding {
	return []binding{
		{field: FieldSource, text: &p.Source},
		{field: FieldAmount, num: &p.Amount},
	}
}

func findBinding(p Payload, f Field) (binding, bool) {
	for _, b := range p.bindings() {
		if b.field == f {
			return b, true
		}
	}
	return binding{}, false
}

// Text returns the string value of a text field, or "" when the payload
// has no such field.
func Text(p Payload, f Field) string {
	b, ok := findBinding(p, f)
	if !ok || b.text == nil {
		return ""
	}
	return *b.text
}

// Number returns the value of a numeric field. A required number holding
// zero or an optional number left nil counts as absent.
func Number(p Payload, f Field) (decimal.Decimal, bool) {
	b, ok := findBinding(p, f)
	if !ok {
		return decimal.Zero, false
	}
	switch {
	case b.num != nil && !b.num.IsZero():
		return *b.num, true
	case b.opt != nil && *b.opt != nil:
		return **b.opt, true
	}
	return decimal.Zero, false
}

// Encode flattens a payload into form-style strings keyed by wire name.
// Absent values are left out. The category is carried on the Draft.
func Encode(p Payload) Draft {
	d := Draft{Category: p.Category(), Fields: map[Field]string{}}
	for _, b := range p.bindings() {
		switch {
		case b.text != nil:
			if *b.text != "" {
				d.Fields[b.field] = *b.text
			}
		case b.num != nil:
			if !b.num.IsZero() {
				d.Fields[b.field] = b.num.String()
			}
		case b.opt != nil:
			if *b.opt != nil {
				d.Fields[b.field] = (*b.opt).String()
			}
		}
	}
	return d
}

// Decode builds the typed payload for a draft. Only the fields that apply
// to the draft's category (and labour mode) are copied, so a contract
// labour payload never carries daily-wage values. Decode assumes the draft
// has passed Validate; it still reports unparsable numbers.
func Decode(d Draft) (Payload, error) {
	cat, ok := ParseCategory(string(d.Category))
	if !ok {
		return nil, &ValidationError{Kind: ErrorUnknownCategory, Category: d.Category}
	}
	s := registry[cat]
	p := s.newPayload()
	specs, _, ok := s.resolve(d.Value(s.ModeField))
	if !ok {
		specs = s.Fields
	}
	for _, spec := range specs {
		b, found := findBinding(p, spec.Name)
		if !found {
			continue
		}
		raw := d.Value(spec.Name)
		switch {
		case b.text != nil:
			*b.text = raw
		case b.num != nil, b.opt != nil:
			if raw == "" {
				continue
			}
			n, err := core.ParseNumber(raw)
			if err != nil {
				return nil, &ValidationError{Kind: ErrorInvalidAmount, Category: cat, Field: spec.Name}
			}
			if b.num != nil {
				*b.num = n
			} else {
				*b.opt = &n
			}
		}
	}
	return p, nil
}

// Draft is the unvalidated, form-shaped input for a record: a category tag
// and raw strings keyed by field name.
type Draft struct {
	Category Category
	Fields   map[Field]string
}

// NewDraft builds a draft from loosely keyed input such as CLI flags.
func NewDraft(category string, values map[string]string) Draft {
	d := Draft{Category: Category(category), Fields: make(map[Field]string, len(values))}
	if c, ok := ParseCategory(category); ok {
		d.Category = c
	}
	for k, v := range values {
		d.Fields[Field(k)] = v
	}
	return d
}

// Value returns the trimmed raw value of f.
func (d Draft) Value(f Field) string {
	if f == "" {
		return ""
	}
	return strings.TrimSpace(d.Fields[f])
}
