package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"khetbook/internal/amqp"
	"khetbook/internal/core"
	"khetbook/internal/crop"
	"khetbook/internal/ledger"
	"khetbook/internal/location"
	"khetbook/internal/profile"
	"khetbook/internal/repository"
	"khetbook/internal/repository/memory"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, ev *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *recordingPublisher) actions() []amqp.Action {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]amqp.Action, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Action
	}
	return out
}

func cottonDraft() crop.Draft {
	return crop.Draft{Season: "kharif", Year: 2024, Name: "cotton", Batch: "A", AreaValue: 2, AreaUnit: "acre"}
}

func fertilizer(t *testing.T, cropID, cost string) ledger.Record {
	t.Helper()
	p, err := ledger.Decode(ledger.NewDraft("fertilizer", map[string]string{
		"productName": "Urea",
		"totalCost":   cost,
	}))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	return ledger.Record{Category: ledger.Fertilizer, CropID: cropID, Details: p, Date: core.NewDate(2024, 7, 10)}
}

func TestCropService(t *testing.T) {
	ctx := context.Background()
	svc := NewCropService(memory.New(), nil)

	c, err := svc.Create(ctx, "acc-1", cottonDraft())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if c.ID == "" || c.Status != crop.Active || c.Name != "Cotton" || c.AccountID != "acc-1" {
		t.Fatalf("unexpected crop: %+v", c)
	}

	t.Run("invalid draft", func(t *testing.T) {
		d := cottonDraft()
		d.Season = "monsoon"
		_, err := svc.Create(ctx, "acc-1", d)
		if !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("error = %v, want ErrInvalidInput", err)
		}
	})

	t.Run("any transition is allowed", func(t *testing.T) {
		for _, target := range []crop.Status{crop.Closed, crop.Active, crop.Harvested} {
			got, err := svc.SetStatus(ctx, "acc-1", c.ID, target)
			if err != nil || got.Status != target {
				t.Fatalf("SetStatus(%s) = %v, %v", target, got.Status, err)
			}
		}
	})

	t.Run("unknown status", func(t *testing.T) {
		if _, err := svc.SetStatus(ctx, "acc-1", c.ID, crop.Status("sold")); !errors.Is(err, crop.ErrInvalidStatus) {
			t.Fatalf("error = %v, want ErrInvalidStatus", err)
		}
	})

	t.Run("other accounts cannot see the crop", func(t *testing.T) {
		if _, err := svc.SetStatus(ctx, "acc-2", c.ID, crop.Closed); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("error = %v, want ErrNotFound", err)
		}
		list, _ := svc.List(ctx, "acc-2")
		if len(list) != 0 {
			t.Fatalf("acc-2 sees %d crops", len(list))
		}
	})

	if err := svc.Delete(ctx, "acc-1", c.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if list, _ := svc.List(ctx, "acc-1"); len(list) != 0 {
		t.Fatalf("crop still listed after delete: %+v", list)
	}
}

func TestLedgerService(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &recordingPublisher{}
	crops := NewCropService(store, nil)
	svc := NewLedgerService(store, store, pub, nil)

	c, err := crops.Create(ctx, "acc-1", cottonDraft())
	if err != nil {
		t.Fatal(err)
	}

	in := fertilizer(t, c.ID, "1200")
	in.ID = "client-chosen"
	in.Total = core.Money{Cents: 1}
	created, err := svc.Create(ctx, "acc-1", ledger.KindExpense, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID == "" || created.ID == "client-chosen" {
		t.Errorf("server must assign the id, got %q", created.ID)
	}
	if created.Total.Cents != 120000 {
		t.Errorf("total = %v, want re-derived 1200.00", created.Total)
	}
	if created.CreatedAt.IsZero() {
		t.Error("createdAt should be set")
	}

	t.Run("expense without crop", func(t *testing.T) {
		_, err := svc.Create(ctx, "acc-1", ledger.KindExpense, fertilizer(t, "", "100"))
		if !errors.Is(err, ledger.ErrMissingField) {
			t.Fatalf("error = %v, want ErrMissingField", err)
		}
	})

	t.Run("crop of another account", func(t *testing.T) {
		_, err := svc.Create(ctx, "acc-2", ledger.KindExpense, fertilizer(t, c.ID, "100"))
		if !errors.Is(err, ErrUnknownCrop) {
			t.Fatalf("error = %v, want ErrUnknownCrop", err)
		}
	})

	t.Run("expense category filed as income", func(t *testing.T) {
		_, err := svc.Create(ctx, "acc-1", ledger.KindIncome, fertilizer(t, c.ID, "100"))
		if !errors.Is(err, ledger.ErrUnknownCategory) {
			t.Fatalf("error = %v, want ErrUnknownCategory", err)
		}
	})

	t.Run("missing date defaults to today", func(t *testing.T) {
		r := fertilizer(t, c.ID, "50")
		r.Date = core.Date{}
		got, err := svc.Create(ctx, "acc-1", ledger.KindExpense, r)
		if err != nil {
			t.Fatal(err)
		}
		if got.Date.String() != core.Today().String() {
			t.Fatalf("date = %s", got.Date)
		}
		if err := svc.Delete(ctx, "acc-1", ledger.KindExpense, got.ID); err != nil {
			t.Fatal(err)
		}
	})

	upd := fertilizer(t, c.ID, "1500")
	updated, err := svc.Update(ctx, "acc-1", ledger.KindExpense, created.ID, upd)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Total.Cents != 150000 || !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Fatalf("unexpected update result: %+v", updated)
	}

	list, err := svc.List(ctx, "acc-1", ledger.KindExpense, c.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("List = %d records, %v", len(list), err)
	}

	if err := svc.Delete(ctx, "acc-1", ledger.KindExpense, created.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := svc.Delete(ctx, "acc-1", ledger.KindExpense, created.ID); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("second Delete = %v, want ErrNotFound", err)
	}

	want := []amqp.Action{amqp.ActionCreated, amqp.ActionCreated, amqp.ActionDeleted, amqp.ActionUpdated, amqp.ActionDeleted}
	got := pub.actions()
	if len(got) != len(want) {
		t.Fatalf("published %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("published %v, want %v", got, want)
		}
	}
}

func TestLedgerServiceSurvivesPublishFailure(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := NewLedgerService(store, store, pub, nil)

	p, err := ledger.Decode(ledger.NewDraft("subsidy", map[string]string{"schemeName": "PM-KISAN", "amount": "2000"}))
	if err != nil {
		t.Fatal(err)
	}
	r, err := svc.Create(ctx, "acc-1", ledger.KindIncome, ledger.Record{Category: ledger.Subsidy, Details: p})
	if err != nil {
		t.Fatalf("Create should succeed even when publishing fails: %v", err)
	}
	if _, err := svc.Get(ctx, "acc-1", ledger.KindIncome, r.ID); err != nil {
		t.Fatalf("record should be stored: %v", err)
	}
}

func TestLedgerServiceWithoutPublisher(t *testing.T) {
	store := memory.New()
	svc := NewLedgerService(store, store, nil, nil)
	p, _ := ledger.Decode(ledger.NewDraft("other", map[string]string{"source": "Scrap", "amount": "300"}))
	if _, err := svc.Create(context.Background(), "acc-1", ledger.KindIncome, ledger.Record{Category: ledger.OtherIncome, Details: p}); err != nil {
		t.Fatalf("Create: %v", err)
	}
}

func validProfile() profile.Payload {
	return profile.Payload{
		Name:        "Sunita Pawar",
		Location:    profile.Location{District: "pune", Taluka: "baramati", Village: "malegaon"},
		TotalLand:   profile.Land{Value: 4.5, Unit: profile.Acre},
		WaterSource: profile.Borewell,
		LabourType:  profile.Family,
		HasTractor:  true,
	}
}

func TestProfileService(t *testing.T) {
	ctx := context.Background()
	svc := NewProfileService(memory.New(), location.MustLoad("en"), nil)

	if _, err := svc.Get(ctx, "acc-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Get before create = %v, want ErrNotFound", err)
	}

	created, err := svc.Create(ctx, "acc-1", validProfile())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.Create(ctx, "acc-1", validProfile()); !errors.Is(err, repository.ErrConflict) {
		t.Fatalf("second Create = %v, want ErrConflict", err)
	}

	svc.now = func() time.Time { return created.CreatedAt.Add(time.Hour) }
	p := validProfile()
	p.LabourType = profile.Mixed
	updated, err := svc.Update(ctx, "acc-1", p)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) || !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Fatalf("timestamps: created %v/%v updated %v/%v", created.CreatedAt, created.UpdatedAt, updated.CreatedAt, updated.UpdatedAt)
	}

	if _, err := svc.Update(ctx, "acc-9", validProfile()); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("Update without profile = %v, want ErrNotFound", err)
	}
}

func TestProfileServiceRejectsBadInput(t *testing.T) {
	svc := NewProfileService(memory.New(), location.MustLoad("en"), nil)
	tests := []struct {
		name   string
		mutate func(*profile.Payload)
	}{
		{"blank name", func(p *profile.Payload) { p.Name = "" }},
		{"village under wrong taluka", func(p *profile.Payload) { p.Location.Village = "wagholi" }},
		{"label instead of key", func(p *profile.Payload) { p.Location.District = "Pune" }},
		{"unknown water source", func(p *profile.Payload) { p.WaterSource = "tanker" }},
		{"zero land", func(p *profile.Payload) { p.TotalLand.Value = 0 }},
		{"missing village", func(p *profile.Payload) { p.Location.Village = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.mutate(&p)
			if _, err := svc.Create(context.Background(), "acc-1", p); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("error = %v, want ErrInvalidInput", err)
			}
		})
	}
}
