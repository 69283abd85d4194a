package summary

import (
	"testing"

	"khetbook/internal/core"
	"khetbook/internal/crop"
	"khetbook/internal/ledger"
)

func rec(kind ledger.Kind, cat ledger.Category, cropID string, rupees int64) ledger.Record {
	return ledger.Record{Kind: kind, Category: cat, CropID: cropID, Total: core.Money{Cents: rupees * 100}}
}

func TestCompute(t *testing.T) {
	crops := []crop.Record{
		{ID: "c1", Name: "Cotton", Status: crop.Active},
		{ID: "c2", Name: "Onion", Batch: "Plot 2", Status: crop.Harvested},
	}
	expenses := []ledger.Record{
		rec(ledger.KindExpense, ledger.Seed, "c1", 250),
		rec(ledger.KindExpense, ledger.Labour, "c1", 1800),
		rec(ledger.KindExpense, ledger.Fertilizer, "c2", 1200),
		rec(ledger.KindExpense, ledger.Seed, "gone", 100),
	}
	incomes := []ledger.Record{
		rec(ledger.KindIncome, ledger.CropSale, "c2", 5000),
		rec(ledger.KindIncome, ledger.Subsidy, "", 2000),
	}

	o := Compute(crops, expenses, incomes)

	if o.Expense.Cents != 335000 || o.Income.Cents != 700000 || o.Net.Cents != 365000 {
		t.Fatalf("totals = %s / %s / %s", o.Expense, o.Income, o.Net)
	}
	if o.Crops[0].Expense.Cents != 205000 || o.Crops[0].Net.Cents != -205000 {
		t.Fatalf("cotton = %+v", o.Crops[0])
	}
	if o.Crops[1].Net.Cents != 380000 || o.Crops[1].Name != "Onion 🧅 (Plot 2)" {
		t.Fatalf("onion = %+v", o.Crops[1])
	}
	if o.Unassigned.Expense.Cents != 10000 || o.Unassigned.Income.Cents != 200000 {
		t.Fatalf("unassigned = %+v", o.Unassigned)
	}

	wantCats := []ledger.Category{ledger.Seed, ledger.Fertilizer, ledger.Labour}
	if len(o.ExpenseByCategory) != len(wantCats) {
		t.Fatalf("expense categories = %+v", o.ExpenseByCategory)
	}
	for i, c := range wantCats {
		if o.ExpenseByCategory[i].Category != c {
			t.Fatalf("expense category %d = %s, want %s", i, o.ExpenseByCategory[i].Category, c)
		}
	}
	if o.ExpenseByCategory[0].Amount.Cents != 35000 {
		t.Fatalf("seed total = %s", o.ExpenseByCategory[0].Amount)
	}
}

func TestTopCrops(t *testing.T) {
	o := Overview{Crops: []CropTotals{
		{CropID: "a", Net: core.Money{Cents: -5}},
		{CropID: "b", Net: core.Money{Cents: 50}},
		{CropID: "c", Net: core.Money{Cents: 10}},
	}}
	top := TopCrops(o, 2)
	if len(top) != 2 || top[0].CropID != "b" || top[1].CropID != "c" {
		t.Fatalf("TopCrops = %+v", top)
	}
	if o.Crops[0].CropID != "a" {
		t.Fatal("TopCrops must not reorder the overview")
	}
}

func TestComputeEmpty(t *testing.T) {
	o := Compute(nil, nil, nil)
	if !o.Net.IsZero() || len(o.Crops) != 0 || o.ExpenseByCategory == nil {
		t.Fatalf("empty overview = %+v", o)
	}
}
