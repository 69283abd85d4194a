package profile

import (
	"errors"
	"testing"

	"khetbook/internal/location"
)

func sample() FarmerProfile {
	return FarmerProfile{
		Payload: Payload{
			Name:        "Sunita Pawar",
			Location:    Location{District: "pune", Taluka: "baramati", Village: "malegaon"},
			TotalLand:   Land{Value: 3.5, Unit: Acre},
			WaterSource: Borewell,
			LabourType:  Mixed,
			HasTractor:  true,
		},
		AccountID: "acc-1",
	}
}

func TestToDisplay(t *testing.T) {
	cases := []struct {
		lang string
		want Display
	}{
		{"en", Display{Name: "Sunita Pawar", RegionLabel: "Pune", SubRegionLabel: "Baramati", SettlementLabel: "Malegaon", LandLabel: "3.5 acre", WaterLabel: "Borewell", LabourLabel: "Mixed", HasTractor: true}},
		{"mr", Display{Name: "Sunita Pawar", RegionLabel: "पुणे", SubRegionLabel: "बारामती", SettlementLabel: "माळेगाव", LandLabel: "3.5 acre", WaterLabel: "बोअरवेल", LabourLabel: "दोन्ही", HasTractor: true}},
	}
	for _, tc := range cases {
		t.Run(tc.lang, func(t *testing.T) {
			m := NewMapper(location.MustLoad(tc.lang))
			if got := m.ToDisplay(sample()); got != tc.want {
				t.Fatalf("ToDisplay = %+v\nwant %+v", got, tc.want)
			}
		})
	}
}

func TestToDisplayFallsBackToKeys(t *testing.T) {
	p := sample()
	p.Location.Village = "ghostvillage"
	p.WaterSource = "pond"
	d := NewMapper(location.MustLoad("en")).ToDisplay(p)
	if d.SettlementLabel != "ghostvillage" || d.WaterLabel != "pond" {
		t.Fatalf("expected key fallback, got %+v", d)
	}
}

func TestToStorageEmitsKeys(t *testing.T) {
	m := NewMapper(location.MustLoad("en"))
	got, err := m.ToStorage(Draft{
		Name:        " Sunita Pawar ",
		District:    "पुणे",
		Taluka:      "Baramati",
		Village:     "malegaon",
		LandValue:   "3,5",
		LandUnit:    "Acre",
		WaterSource: "Rain-fed",
		LabourType:  "कुटुंब",
	})
	if err != nil {
		t.Fatalf("ToStorage: %v", err)
	}
	want := Location{District: "pune", Taluka: "baramati", Village: "malegaon"}
	if got.Location != want {
		t.Fatalf("location = %+v, want %+v", got.Location, want)
	}
	if got.WaterSource != Rainfed || got.LabourType != Family {
		t.Fatalf("tags = %s/%s", got.WaterSource, got.LabourType)
	}
	if got.TotalLand != (Land{Value: 3.5, Unit: Acre}) || got.Name != "Sunita Pawar" {
		t.Fatalf("payload = %+v", got)
	}
}

func TestToStorageRejectsUnknownValues(t *testing.T) {
	base := Draft{Name: "x", District: "pune", Taluka: "haveli", Village: "wagholi", LandValue: "1", LandUnit: "acre", WaterSource: "well", LabourType: "hired"}
	cases := map[string]func(*Draft){
		"village under other taluka": func(d *Draft) { d.Village = "malegaon" },
		"unknown district":           func(d *Draft) { d.District = "Mumbai" },
		"unknown water source":       func(d *Draft) { d.WaterSource = "tanker" },
		"unknown labour type":        func(d *Draft) { d.LabourType = "robots" },
		"bad land unit":              func(d *Draft) { d.LandUnit = "hectare" },
		"bad land value":             func(d *Draft) { d.LandValue = "lots" },
		"NaN land value":             func(d *Draft) { d.LandValue = "NaN" },
		"infinite land value":        func(d *Draft) { d.LandValue = "Inf" },
		"exponent land value":        func(d *Draft) { d.LandValue = "1e400" },
		"zero land value":            func(d *Draft) { d.LandValue = "0" },
		"oversized land value":       func(d *Draft) { d.LandValue = "1000001" },
	}
	m := NewMapper(location.MustLoad("en"))
	if _, err := m.ToStorage(base); err != nil {
		t.Fatalf("base draft should map: %v", err)
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			d := base
			mutate(&d)
			if _, err := m.ToStorage(d); !errors.Is(err, ErrUnknownValue) {
				t.Fatalf("expected ErrUnknownValue, got %v", err)
			}
		})
	}
}

func TestDraftRoundTrip(t *testing.T) {
	m := NewMapper(location.MustLoad("mr"))
	p := sample().Payload
	back, err := m.ToStorage(m.ToDraft(p))
	if err != nil {
		t.Fatalf("ToStorage: %v", err)
	}
	if back != p {
		t.Fatalf("round trip = %+v, want %+v", back, p)
	}
}
