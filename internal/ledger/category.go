// Package ledger models farm expense and income records.
//
// A record is a common envelope plus exactly one category-specific payload.
// Everything that differs between categories (fields, labels, how the total
// is derived, which payload type to instantiate) lives in the schema
// registry in schema.go; the validator, the derivation engine and the JSON
// codec only consult that table.
package ledger

import "strings"

// Category is the discriminant of a ledger record.
type Category string

const (
	Seed       Category = "seed"
	Fertilizer Category = "fertilizer"
	Pesticide  Category = "pesticide"
	Labour     Category = "labour"
	Machinery  Category = "machinery"

	CropSale     Category = "crop_sale"
	Subsidy      Category = "subsidy"
	RentalIncome Category = "rental_income"
	OtherIncome  Category = "other"
)

// Kind separates the expense and income tag sets.
type Kind string

const (
	KindExpense Kind = "expense"
	KindIncome  Kind = "income"
)

func (k Kind) Valid() bool { return k == KindExpense || k == KindIncome }

// ExpenseCategories returns the expense tags in display order.
func ExpenseCategories() []Category {
	return []Category{Seed, Fertilizer, Pesticide, Labour, Machinery}
}

// IncomeCategories returns the income tags in display order.
func IncomeCategories() []Category {
	return []Category{CropSale, Subsidy, RentalIncome, OtherIncome}
}

// Categories returns the tags of the given kind.
func Categories(k Kind) []Category {
	if k == KindIncome {
		return IncomeCategories()
	}
	return ExpenseCategories()
}

// Kind reports whether c is an expense or an income category. Unknown tags
// report false.
func (c Category) Kind() (Kind, bool) {
	s, ok := registry[c]
	if !ok {
		return "", false
	}
	return s.Kind, true
}

// Label is the English display name of the category.
func (c Category) Label() string {
	if s, ok := registry[c]; ok {
		return s.Label
	}
	return string(c)
}

// ParseCategory maps user or wire input ("Fertilizer", "CropSale",
// "crop-sale", "rental income") to a known tag.
func ParseCategory(s string) (Category, bool) {
	want := normalizeTag(s)
	if want == "" {
		return "", false
	}
	for c := range registry {
		if normalizeTag(string(c)) == want {
			return c, true
		}
	}
	return "", false
}

func normalizeTag(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case '_', '-', ' ':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}
