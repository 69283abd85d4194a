// Package summary derives totals from crops and ledger records.
package summary

import (
	"sort"

	"khetbook/internal/core"
	"khetbook/internal/crop"
	"khetbook/internal/ledger"
)

// CategoryAmount represents an amount aggregated by category.
type CategoryAmount struct {
	Category ledger.Category `json:"category"`
	Label    string          `json:"label"`
	Amount   core.Money      `json:"amount"`
}

// CropTotals are the totals of the records filed against one crop.
type CropTotals struct {
	CropID  string      `json:"cropId"`
	Name    string      `json:"name"`
	Status  crop.Status `json:"status"`
	Expense core.Money  `json:"expense"`
	Income  core.Money  `json:"income"`
	Net     core.Money  `json:"net"`
}

// Overview is everything the dashboard shows.
type Overview struct {
	Expense           core.Money       `json:"expense"`
	Income            core.Money       `json:"income"`
	Net               core.Money       `json:"net"`
	ExpenseByCategory []CategoryAmount `json:"expenseByCategory"`
	IncomeByCategory  []CategoryAmount `json:"incomeByCategory"`
	Crops             []CropTotals     `json:"crops"`
	// Unassigned holds income not tied to any crop and records whose crop
	// no longer exists.
	Unassigned CropTotals `json:"unassigned"`
}

// Compute builds the overview. Crops keep the order they were given in;
// categories follow the registry's display order and omit zero rows.
func Compute(crops []crop.Record, expenses, incomes []ledger.Record) Overview {
	var o Overview
	byCrop := make(map[string]*CropTotals, len(crops))
	o.Crops = make([]CropTotals, len(crops))
	for i, c := range crops {
		o.Crops[i] = CropTotals{CropID: c.ID, Name: c.DisplayName(), Status: c.Status}
		byCrop[c.ID] = &o.Crops[i]
	}

	target := func(cropID string) *CropTotals {
		if t, ok := byCrop[cropID]; ok && cropID != "" {
			return t
		}
		return &o.Unassigned
	}

	expenseCats := map[ledger.Category]core.Money{}
	for _, r := range expenses {
		o.Expense = o.Expense.Add(r.Total)
		expenseCats[r.Category] = expenseCats[r.Category].Add(r.Total)
		t := target(r.CropID)
		t.Expense = t.Expense.Add(r.Total)
	}
	incomeCats := map[ledger.Category]core.Money{}
	for _, r := range incomes {
		o.Income = o.Income.Add(r.Total)
		incomeCats[r.Category] = incomeCats[r.Category].Add(r.Total)
		t := target(r.CropID)
		t.Income = t.Income.Add(r.Total)
	}

	o.Net = o.Income.Sub(o.Expense)
	for i := range o.Crops {
		o.Crops[i].Net = o.Crops[i].Income.Sub(o.Crops[i].Expense)
	}
	o.Unassigned.Net = o.Unassigned.Income.Sub(o.Unassigned.Expense)

	o.ExpenseByCategory = ordered(ledger.ExpenseCategories(), expenseCats)
	o.IncomeByCategory = ordered(ledger.IncomeCategories(), incomeCats)
	return o
}

func ordered(order []ledger.Category, totals map[ledger.Category]core.Money) []CategoryAmount {
	out := make([]CategoryAmount, 0, len(totals))
	for _, c := range order {
		if m, ok := totals[c]; ok && !m.IsZero() {
			out = append(out, CategoryAmount{Category: c, Label: c.Label(), Amount: m})
		}
	}
	return out
}

// TopCrops returns up to n crops by net result, best first.
func TopCrops(o Overview, n int) []CropTotals {
	out := append([]CropTotals(nil), o.Crops...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Net.Cents > out[j].Net.Cents })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
