package ledger

// FieldKind says how a field's raw value is interpreted.
type FieldKind int

const (
	KindText FieldKind = iota
	KindQuantity
	KindAmount
	KindChoice
)

// Numeric reports whether values of this kind must parse as numbers.
func (k FieldKind) Numeric() bool { return k == KindQuantity || k == KindAmount }

// FieldSpec describes one payload field.
type FieldSpec struct {
	Name     Field
	Label    string
	Kind     FieldKind
	Required bool
	Choices  []string
}

// RuleKind selects how a record's total is derived.
type RuleKind int

const (
	RuleNone RuleKind = iota
	RuleDirect
	RuleProduct
)

// TotalRule derives the record total from named fields.
type TotalRule struct {
	Kind   RuleKind
	Fields []Field
}

func direct(f Field) TotalRule { return TotalRule{Kind: RuleDirect, Fields: []Field{f}} }

func product(fs ...Field) TotalRule { return TotalRule{Kind: RuleProduct, Fields: fs} }

// RateRule derives a per-unit rate: Amount / Quantity.
type RateRule struct {
	Amount   Field
	Quantity Field
}

// Variant is the field set and total rule selected by a mode value.
type Variant struct {
	Label  string
	Fields []FieldSpec
	Total  TotalRule
}

// Schema is the registry entry of one category.
type Schema struct {
	Category Category
	Kind     Kind
	Label    string
	// Fields are the fields every record of the category carries, in the
	// order they are validated and shown.
	Fields []FieldSpec
	Total  TotalRule
	// UnitRate is nil for categories without a meaningful per-unit rate.
	UnitRate *RateRule
	// ModeField, when set, names a choice field in Fields whose value picks
	// one of Modes. The variant's fields follow Fields and its rule replaces
	// Total.
	ModeField  Field
	Modes      map[string]Variant
	ModeOrder  []string
	newPayload func() Payload
}

// NewPayload returns an empty payload of the category's concrete type.
func (s Schema) NewPayload() Payload { return s.newPayload() }

// resolve returns the effective fields and total rule for mode. ok is false
// when the category is mode-driven and mode is not one of its variants.
func (s Schema) resolve(mode string) ([]FieldSpec, TotalRule, bool) {
	if s.ModeField == "" {
		return s.Fields, s.Total, true
	}
	v, ok := s.Modes[mode]
	if !ok {
		return s.Fields, TotalRule{Kind: RuleNone}, false
	}
	out := make([]FieldSpec, 0, len(s.Fields)+len(v.Fields))
	out = append(out, s.Fields...)
	out = append(out, v.Fields...)
	return out, v.Total, true
}

// FieldsFor returns the fields that apply for the given mode value. For
// categories without modes the mode is ignored.
func (s Schema) FieldsFor(mode string) []FieldSpec {
	fields, _, _ := s.resolve(mode)
	return fields
}

// RequiredFields lists the names of the required fields for mode.
func (s Schema) RequiredFields(mode string) []Field {
	var out []Field
	for _, f := range s.FieldsFor(mode) {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// TotalFor returns the total rule for mode.
func (s Schema) TotalFor(mode string) TotalRule {
	_, rule, _ := s.resolve(mode)
	return rule
}

// Spec looks up a field by name across the base fields and every variant.
func (s Schema) Spec(f Field) (FieldSpec, bool) {
	for _, spec := range s.Fields {
		if spec.Name == f {
			return spec, true
		}
	}
	for _, m := range s.ModeOrder {
		for _, spec := range s.Modes[m].Fields {
			if spec.Name == f {
				return spec, true
			}
		}
	}
	return FieldSpec{}, false
}

// SchemaFor returns the registry entry for c.
func SchemaFor(c Category) (Schema, bool) {
	s, ok := registry[c]
	return s, ok
}

func text(name Field, label string, required bool) FieldSpec {
	return FieldSpec{Name: name, Label: label, Kind: KindText, Required: required}
}

func quantity(name Field, label string, required bool) FieldSpec {
	return FieldSpec{Name: name, Label: label, Kind: KindQuantity, Required: required}
}

func amount(name Field, label string) FieldSpec {
	return FieldSpec{Name: name, Label: label, Kind: KindAmount, Required: true}
}

var registry = map[Category]Schema{
	Seed: {
		Category: Seed,
		Kind:     KindExpense,
		Label:    "Seed",
		Fields: []FieldSpec{
			text(FieldSeedName, "Seed name", true),
			quantity(FieldQuantityKg, "Quantity (kg)", true),
			amount(FieldTotalCost, "Total cost"),
			text(FieldSupplier, "Supplier", false),
		},
		Total:      direct(FieldTotalCost),
		UnitRate:   &RateRule{Amount: FieldTotalCost, Quantity: FieldQuantityKg},
		newPayload: func() Payload { return &SeedPayload{} },
	},
	Fertilizer: {
		Category: Fertilizer,
		Kind:     KindExpense,
		Label:    "Fertilizer",
		Fields: []FieldSpec{
			text(FieldProductName, "Product name", true),
			quantity(FieldNumberOfBags, "Number of bags", false),
			amount(FieldTotalCost, "Total cost"),
		},
		Total:      direct(FieldTotalCost),
		newPayload: func() Payload { return &FertilizerPayload{} },
	},
	Pesticide: {
		Category: Pesticide,
		Kind:     KindExpense,
		Label:    "Pesticide",
		Fields: []FieldSpec{
			text(FieldProductName, "Product name", true),
			quantity(FieldQuantityLitres, "Quantity (litres)", false),
			amount(FieldTotalCost, "Total cost"),
		},
		Total:      direct(FieldTotalCost),
		newPayload: func() Payload { return &PesticidePayload{} },
	},
	Labour: {
		Category: Labour,
		Kind:     KindExpense,
		Label:    "Labour",
		Fields: []FieldSpec{
			{Name: FieldMode, Label: "Payment type", Kind: KindChoice, Required: true, Choices: []string{LabourDaily, LabourContract}},
		},
		ModeField: FieldMode,
		ModeOrder: []string{LabourDaily, LabourContract},
		Modes: map[string]Variant{
			LabourDaily: {
				Label: "Daily wage",
				Fields: []FieldSpec{
					text(FieldTask, "Task", true),
					quantity(FieldNumberOfPeople, "Number of people", true),
					quantity(FieldDays, "Days", true),
					amount(FieldDailyRate, "Daily rate"),
				},
				Total: product(FieldNumberOfPeople, FieldDays, FieldDailyRate),
			},
			LabourContract: {
				Label: "Contract",
				Fields: []FieldSpec{
					text(FieldReason, "Reason", true),
					amount(FieldContractAmount, "Contract amount"),
				},
				Total: direct(FieldContractAmount),
			},
		},
		newPayload: func() Payload { return &LabourPayload{} },
	},
	Machinery: {
		Category: Machinery,
		Kind:     KindExpense,
		Label:    "Machinery",
		Fields: []FieldSpec{
			text(FieldMachineType, "Machine type", true),
			quantity(FieldHours, "Hours", true),
			amount(FieldRatePerHour, "Rate per hour"),
		},
		Total:      product(FieldHours, FieldRatePerHour),
		newPayload: func() Payload { return &MachineryPayload{} },
	},
	CropSale: {
		Category: CropSale,
		Kind:     KindIncome,
		Label:    "Crop sale",
		Fields: []FieldSpec{
			text(FieldBuyerName, "Buyer name", false),
			quantity(FieldQuantityQuintal, "Quantity (quintal)", true),
			amount(FieldRatePerQuintal, "Rate per quintal"),
		},
		Total:      product(FieldQuantityQuintal, FieldRatePerQuintal),
		newPayload: func() Payload { return &CropSalePayload{} },
	},
	Subsidy: {
		Category: Subsidy,
		Kind:     KindIncome,
		Label:    "Subsidy",
		Fields: []FieldSpec{
			text(FieldSchemeName, "Scheme name", true),
			amount(FieldAmount, "Amount"),
		},
		Total:      direct(FieldAmount),
		newPayload: func() Payload { return &SubsidyPayload{} },
	},
	RentalIncome: {
		Category: RentalIncome,
		Kind:     KindIncome,
		Label:    "Rental income",
		Fields: []FieldSpec{
			text(FieldItemRented, "Item rented", true),
			quantity(FieldDuration, "Duration", true),
			amount(FieldRatePerUnit, "Rate per unit"),
		},
		Total:      product(FieldDuration, FieldRatePerUnit),
		newPayload: func() Payload { return &RentalIncomePayload{} },
	},
	OtherIncome: {
		Category: OtherIncome,
		Kind:     KindIncome,
		Label:    "Other",
		Fields: []FieldSpec{
			text(FieldSource, "Source", true),
			amount(FieldAmount, "Amount"),
		},
		Total:      direct(FieldAmount),
		newPayload: func() Payload { return &OtherIncomePayload{} },
	},
}
