// Package repotest holds the behaviour every repository.Store must share.
// Backend packages call Run from their own tests.
package repotest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"khetbook/internal/core"
	"khetbook/internal/crop"
	"khetbook/internal/ledger"
	"khetbook/internal/profile"
	"khetbook/internal/repository"
)

var base = time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC)

// Run exercises a fresh store returned by open.
func Run(t *testing.T, open func(t *testing.T) repository.Store) {
	t.Run("accounts", func(t *testing.T) { testAccounts(t, open(t)) })
	t.Run("otp", func(t *testing.T) { testOTP(t, open(t)) })
	t.Run("crops", func(t *testing.T) { testCrops(t, open(t)) })
	t.Run("records", func(t *testing.T) { testRecords(t, open(t)) })
	t.Run("profiles", func(t *testing.T) { testProfiles(t, open(t)) })
}

func testAccounts(t *testing.T, s repository.Store) {
	ctx := context.Background()
	a, err := s.EnsureAccount(ctx, "+919800000001", "acc-1", base)
	if err != nil {
		t.Fatalf("EnsureAccount: %v", err)
	}
	again, err := s.EnsureAccount(ctx, "+919800000001", "acc-2", base.Add(time.Hour))
	if err != nil {
		t.Fatalf("EnsureAccount again: %v", err)
	}
	if again.ID != a.ID || a.ID != "acc-1" {
		t.Fatalf("second EnsureAccount = %+v, want existing %+v", again, a)
	}
}

func testOTP(t *testing.T, s repository.Store) {
	ctx := context.Background()
	if _, err := s.GetOTP(ctx, "+91"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("GetOTP(missing) = %v", err)
	}
	code := repository.OTPCode{Phone: "+91", Hash: []byte("hash-1"), ExpiresAt: base.Add(5 * time.Minute), CreatedAt: base}
	if err := s.SaveOTP(ctx, code); err != nil {
		t.Fatalf("SaveOTP: %v", err)
	}
	code.Hash = []byte("hash-2")
	if err := s.SaveOTP(ctx, code); err != nil {
		t.Fatalf("SaveOTP replace: %v", err)
	}
	if err := s.IncrementOTPAttempts(ctx, "+91"); err != nil {
		t.Fatalf("IncrementOTPAttempts: %v", err)
	}
	got, err := s.GetOTP(ctx, "+91")
	if err != nil {
		t.Fatalf("GetOTP: %v", err)
	}
	if string(got.Hash) != "hash-2" || got.Attempts != 1 || !got.ExpiresAt.Equal(code.ExpiresAt) {
		t.Fatalf("GetOTP = %+v", got)
	}
	if err := s.DeleteOTP(ctx, "+91"); err != nil {
		t.Fatalf("DeleteOTP: %v", err)
	}
	if _, err := s.GetOTP(ctx, "+91"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("GetOTP after delete = %v", err)
	}
}

func testCrops(t *testing.T, s repository.Store) {
	ctx := context.Background()
	older := crop.Record{ID: "c1", AccountID: "a", Season: crop.Kharif, Year: 2024, Name: "Cotton", Emoji: "🌱", Batch: "A",
		Area: crop.Area{Value: 2, Unit: crop.Acre}, Status: crop.Active, CreatedAt: base}
	newer := older
	newer.ID, newer.Name, newer.Batch, newer.CreatedAt = "c2", "Onion", "", base.Add(time.Hour)
	other := older
	other.ID, other.AccountID = "c3", "b"

	for _, c := range []crop.Record{older, newer, other} {
		if err := s.CreateCrop(ctx, c); err != nil {
			t.Fatalf("CreateCrop(%s): %v", c.ID, err)
		}
	}

	list, err := s.ListCrops(ctx, "a")
	if err != nil {
		t.Fatalf("ListCrops: %v", err)
	}
	if len(list) != 2 || list[0].ID != "c2" || list[1].ID != "c1" {
		t.Fatalf("ListCrops = %+v, want c2, c1", list)
	}
	if list[1].Batch != "A" || list[1].Area != older.Area || list[1].Emoji != "🌱" {
		t.Fatalf("crop fields lost: %+v", list[1])
	}

	if err := s.UpdateCropStatus(ctx, "a", "c1", crop.Closed); err != nil {
		t.Fatalf("UpdateCropStatus: %v", err)
	}
	got, err := s.GetCrop(ctx, "a", "c1")
	if err != nil || got.Status != crop.Closed {
		t.Fatalf("GetCrop = %+v, %v", got, err)
	}
	if _, err := s.GetCrop(ctx, "b", "c1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("crop visible across accounts: %v", err)
	}
	if err := s.UpdateCropStatus(ctx, "b", "c1", crop.Active); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("cross-account status update = %v", err)
	}

	if err := s.DeleteCrop(ctx, "a", "c1"); err != nil {
		t.Fatalf("DeleteCrop: %v", err)
	}
	if err := s.DeleteCrop(ctx, "a", "c1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("second DeleteCrop = %v", err)
	}
}

func mustBuild(t *testing.T, kind ledger.Kind, cropID string, d ledger.Draft, date core.Date) ledger.Record {
	t.Helper()
	r, err := ledger.Build(kind, cropID, d, "", date)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	return r
}

func testRecords(t *testing.T, s repository.Store) {
	ctx := context.Background()
	seed := mustBuild(t, ledger.KindExpense, "c1", ledger.NewDraft("seed", map[string]string{
		"seedName": "Bt cotton", "quantityKg": "10", "totalCost": "250",
	}), core.NewDate(2024, 6, 10))
	seed.ID, seed.CreatedAt, seed.Note = "e1", base, "bought in town"

	labour := mustBuild(t, ledger.KindExpense, "c2", ledger.NewDraft("labour", map[string]string{
		"mode": "daily", "task": "Weeding", "numberOfPeople": "3", "days": "2", "dailyRate": "300",
	}), core.NewDate(2024, 6, 12))
	labour.ID, labour.CreatedAt = "e2", base

	sale := mustBuild(t, ledger.KindIncome, "", ledger.NewDraft("crop_sale", map[string]string{
		"quantityQuintal": "12", "ratePerQuintal": "6500",
	}), core.NewDate(2024, 11, 3))
	sale.ID, sale.CreatedAt = "i1", base

	for _, r := range []ledger.Record{seed, labour, sale} {
		if err := s.CreateRecord(ctx, "a", r); err != nil {
			t.Fatalf("CreateRecord(%s): %v", r.ID, err)
		}
	}
	if err := s.CreateRecord(ctx, "a", seed); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("duplicate CreateRecord = %v", err)
	}

	expenses, err := s.ListRecords(ctx, "a", repository.RecordFilter{Kind: ledger.KindExpense})
	if err != nil {
		t.Fatalf("ListRecords: %v", err)
	}
	if len(expenses) != 2 || expenses[0].ID != "e2" {
		t.Fatalf("expenses = %+v, want e2 first", expenses)
	}
	filtered, err := s.ListRecords(ctx, "a", repository.RecordFilter{Kind: ledger.KindExpense, CropID: "c1"})
	if err != nil || len(filtered) != 1 || filtered[0].ID != "e1" {
		t.Fatalf("crop filter = %+v, %v", filtered, err)
	}

	got, err := s.GetRecord(ctx, "a", ledger.KindExpense, "e1")
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	p, ok := got.Details.(*ledger.SeedPayload)
	if !ok || !p.QuantityKg.Equal(decimal.NewFromInt(10)) || got.Total.String() != "250.00" || got.Note != "bought in town" {
		t.Fatalf("GetRecord = %+v (%T)", got, got.Details)
	}
	if got.Date.String() != "2024-06-10" {
		t.Fatalf("date = %s", got.Date)
	}
	if _, err := s.GetRecord(ctx, "a", ledger.KindIncome, "e1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("kind must be part of the key: %v", err)
	}

	sale.Note = "second picking"
	if err := s.UpdateRecord(ctx, "a", sale); err != nil {
		t.Fatalf("UpdateRecord: %v", err)
	}
	got, err = s.GetRecord(ctx, "a", ledger.KindIncome, "i1")
	if err != nil || got.Note != "second picking" || got.Total.String() != "78000.00" {
		t.Fatalf("updated income = %+v, %v", got, err)
	}
	missing := sale
	missing.ID = "nope"
	if err := s.UpdateRecord(ctx, "a", missing); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("UpdateRecord(missing) = %v", err)
	}

	if err := s.DeleteRecord(ctx, "a", ledger.KindExpense, "e1"); err != nil {
		t.Fatalf("DeleteRecord: %v", err)
	}
	if err := s.DeleteRecord(ctx, "b", ledger.KindExpense, "e2"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("cross-account delete = %v", err)
	}
	rest, _ := s.ListRecords(ctx, "a", repository.RecordFilter{})
	if len(rest) != 2 {
		t.Fatalf("remaining = %d, want 2", len(rest))
	}
}

func testProfiles(t *testing.T, s repository.Store) {
	ctx := context.Background()
	if _, err := s.GetProfile(ctx, "a"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("GetProfile(missing) = %v", err)
	}
	p := profile.FarmerProfile{
		Payload: profile.Payload{
			Name:        "Sunita Pawar",
			Location:    profile.Location{District: "pune", Taluka: "baramati", Village: "malegaon"},
			TotalLand:   profile.Land{Value: 3.5, Unit: profile.Acre},
			WaterSource: profile.Borewell,
			LabourType:  profile.Mixed,
			HasTractor:  true,
		},
		AccountID: "a",
		CreatedAt: base,
		UpdatedAt: base,
	}
	if err := s.UpdateProfile(ctx, p); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("UpdateProfile before create = %v", err)
	}
	if err := s.CreateProfile(ctx, p); err != nil {
		t.Fatalf("CreateProfile: %v", err)
	}
	if err := s.CreateProfile(ctx, p); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("second CreateProfile = %v", err)
	}

	p.Payload.AnalyticsConsent = true
	p.UpdatedAt = base.Add(time.Hour)
	p.CreatedAt = base.Add(48 * time.Hour)
	if err := s.UpdateProfile(ctx, p); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	got, err := s.GetProfile(ctx, "a")
	if err != nil {
		t.Fatalf("GetProfile: %v", err)
	}
	if got.Payload != p.Payload || !got.AnalyticsConsent {
		t.Fatalf("profile = %+v", got)
	}
	if !got.CreatedAt.Equal(base) {
		t.Fatalf("update must not move createdAt: %v", got.CreatedAt)
	}
}
