package profile

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"khetbook/internal/core"
	"khetbook/internal/location"
)

var ErrUnknownValue = errors.New("unknown value")

// maxLand bounds the holding size in either unit.
var maxLand = decimal.NewFromInt(1_000_000)

type label struct {
	en, mr string
}

var waterLabels = map[WaterSource]label{
	Well:     {"Well", "विहीर"},
	Borewell: {"Borewell", "बोअरवेल"},
	Canal:    {"Canal", "कालवा"},
	River:    {"River", "नदी"},
	Rainfed:  {"Rain-fed", "पावसावर अवलंबून"},
}

var labourLabels = map[LabourType]label{
	Family: {"Family", "कुटुंब"},
	Hired:  {"Hired", "मजूर"},
	Mixed:  {"Mixed", "दोन्ही"},
}

// WaterSources and LabourTypes list the tags in display order.
func WaterSources() []WaterSource { return []WaterSource{Well, Borewell, Canal, River, Rainfed} }
func LabourTypes() []LabourType   { return []LabourType{Family, Hired, Mixed} }

// Display is a profile rendered for reading: every tag replaced by its label.
type Display struct {
	Name            string `json:"name"`
	RegionLabel     string `json:"regionLabel"`
	SubRegionLabel  string `json:"subRegionLabel"`
	SettlementLabel string `json:"settlementLabel"`
	LandLabel       string `json:"landLabel"`
	WaterLabel      string `json:"waterLabel"`
	LabourLabel     string `json:"labourLabel"`
	HasTractor      bool   `json:"hasTractor"`
}

// Draft is profile input as typed by a user: location, water source and
// labour type may be keys or labels in any supported language.
type Draft struct {
	Name             string
	District         string
	Taluka           string
	Village          string
	LandValue        string
	LandUnit         string
	WaterSource      string
	LabourType       string
	HasTractor       bool
	AnalyticsConsent bool
}

// Mapper converts between stored profiles and their display form in the
// hierarchy's language.
type Mapper struct {
	h *location.Hierarchy
}

func NewMapper(h *location.Hierarchy) *Mapper {
	return &Mapper{h: h}
}

func (m *Mapper) pick(l label) string {
	if m.h.Language() == "mr" && l.mr != "" {
		return l.mr
	}
	return l.en
}

// WaterLabel returns the display label of a water source, or the tag itself
// when it is unknown.
func (m *Mapper) WaterLabel(w WaterSource) string {
	if l, ok := waterLabels[w]; ok {
		return m.pick(l)
	}
	return string(w)
}

// LabourLabel returns the display label of a labour type, or the tag itself.
func (m *Mapper) LabourLabel(t LabourType) string {
	if l, ok := labourLabels[t]; ok {
		return m.pick(l)
	}
	return string(t)
}

// ToDisplay never fails: unresolvable keys are shown as-is.
func (m *Mapper) ToDisplay(p FarmerProfile) Display {
	path := p.Location.Path()
	return Display{
		Name:            p.Name,
		RegionLabel:     m.h.ResolveLabel(location.KindRegion, path),
		SubRegionLabel:  m.h.ResolveLabel(location.KindSubRegion, path),
		SettlementLabel: m.h.ResolveLabel(location.KindSettlement, path),
		LandLabel:       strconv.FormatFloat(p.TotalLand.Value, 'f', -1, 64) + " " + string(p.TotalLand.Unit),
		WaterLabel:      m.WaterLabel(p.WaterSource),
		LabourLabel:     m.LabourLabel(p.LabourType),
		HasTractor:      p.HasTractor,
	}
}

// ToStorage resolves every label in d to its stable key. A value that
// matches neither a key nor a label is an error; it is never stored as-is.
func (m *Mapper) ToStorage(d Draft) (Payload, error) {
	var (
		p   Payload
		ok  bool
		err error
	)
	p.Name = strings.TrimSpace(d.Name)

	path := location.Path{}
	if path.Region, ok = m.h.FindKey(location.KindRegion, path, d.District); !ok {
		return Payload{}, fmt.Errorf("%w: district %q", ErrUnknownValue, d.District)
	}
	if path.SubRegion, ok = m.h.FindKey(location.KindSubRegion, path, d.Taluka); !ok {
		return Payload{}, fmt.Errorf("%w: taluka %q", ErrUnknownValue, d.Taluka)
	}
	if path.Settlement, ok = m.h.FindKey(location.KindSettlement, path, d.Village); !ok {
		return Payload{}, fmt.Errorf("%w: village %q", ErrUnknownValue, d.Village)
	}
	p.Location = Location{District: path.Region, Taluka: path.SubRegion, Village: path.Settlement}

	if p.WaterSource, err = findTag(waterLabels, WaterSources(), d.WaterSource, "water source"); err != nil {
		return Payload{}, err
	}
	if p.LabourType, err = findTag(labourLabels, LabourTypes(), d.LabourType, "labour type"); err != nil {
		return Payload{}, err
	}

	switch u := LandUnit(strings.ToLower(strings.TrimSpace(d.LandUnit))); u {
	case Acre, Bigha:
		p.TotalLand.Unit = u
	default:
		return Payload{}, fmt.Errorf("%w: land unit %q", ErrUnknownValue, d.LandUnit)
	}
	v, err := core.ParseNumber(d.LandValue)
	if err != nil || !v.IsPositive() || v.GreaterThan(maxLand) {
		return Payload{}, fmt.Errorf("%w: land %q", ErrUnknownValue, d.LandValue)
	}
	p.TotalLand.Value = v.InexactFloat64()

	p.HasTractor = d.HasTractor
	p.AnalyticsConsent = d.AnalyticsConsent
	return p, nil
}

// ToDraft is the inverse of ToStorage for edit forms: keys are kept so that
// re-saving an untouched draft is lossless.
func (m *Mapper) ToDraft(p Payload) Draft {
	return Draft{
		Name:             p.Name,
		District:         p.Location.District,
		Taluka:           p.Location.Taluka,
		Village:          p.Location.Village,
		LandValue:        strconv.FormatFloat(p.TotalLand.Value, 'f', -1, 64),
		LandUnit:         string(p.TotalLand.Unit),
		WaterSource:      string(p.WaterSource),
		LabourType:       string(p.LabourType),
		HasTractor:       p.HasTractor,
		AnalyticsConsent: p.AnalyticsConsent,
	}
}

func findTag[T ~string](labels map[T]label, order []T, value, what string) (T, error) {
	v := strings.TrimSpace(value)
	for _, t := range order {
		if string(t) == strings.ToLower(v) {
			return t, nil
		}
	}
	for _, t := range order {
		l := labels[t]
		if strings.EqualFold(l.en, v) || l.mr == v {
			return t, nil
		}
	}
	var zero T
	return zero, fmt.Errorf("%w: %s %q", ErrUnknownValue, what, value)
}
