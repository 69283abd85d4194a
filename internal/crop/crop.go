// Package crop models a single tracked planting and its status.
package crop

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Season string

const (
	Kharif Season = "kharif"
	Rabi   Season = "rabi"
	Zaid   Season = "zaid"
)

func Seasons() []Season { return []Season{Kharif, Rabi, Zaid} }

type Status string

const (
	Active    Status = "active"
	Harvested Status = "harvested"
	Closed    Status = "closed"
)

func Statuses() []Status { return []Status{Active, Harvested, Closed} }

type AreaUnit string

const (
	Acre   AreaUnit = "acre"
	Bigha  AreaUnit = "bigha"
	Guntha AreaUnit = "guntha"
)

var (
	ErrInvalidStatus = errors.New("invalid crop status")
	ErrInvalidSeason = errors.New("invalid season")
	ErrInvalidUnit   = errors.New("invalid area unit")
)

func ParseSeason(s string) (Season, error) {
	switch v := Season(strings.ToLower(strings.TrimSpace(s))); v {
	case Kharif, Rabi, Zaid:
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidSeason, s)
}

func ParseStatus(s string) (Status, error) {
	switch v := Status(strings.ToLower(strings.TrimSpace(s))); v {
	case Active, Harvested, Closed:
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

func ParseAreaUnit(s string) (AreaUnit, error) {
	switch v := AreaUnit(strings.ToLower(strings.TrimSpace(s))); v {
	case Acre, Bigha, Guntha:
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidUnit, s)
}

// SetStatus returns target as the crop's new status. Every pair of current
// and target statuses is allowed, including staying put and going back
// from closed to active; only a target outside the enum is rejected.
func SetStatus(current, target Status) (Status, error) {
	if _, err := ParseStatus(string(target)); err != nil {
		return current, err
	}
	return target, nil
}

// Next is the quick "cycle" action: active → harvested → closed → active.
func Next(s Status) Status {
	switch s {
	case Active:
		return Harvested
	case Harvested:
		return Closed
	default:
		return Active
	}
}

type Area struct {
	Value float64  `json:"value"`
	Unit  AreaUnit `json:"unit"`
}

// Record is one planting of a crop in a season.
type Record struct {
	ID         string    `json:"id"`
	AccountID  string    `json:"-"`
	Season     Season    `json:"season"`
	Year       int       `json:"year"`
	Name       string    `json:"name"`
	Emoji      string    `json:"emoji,omitempty"`
	SubVariety string    `json:"subVariety,omitempty"`
	Batch      string    `json:"batch,omitempty"`
	Area       Area      `json:"area"`
	Status     Status    `json:"status"`
	Notes      string    `json:"notes,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// DisplayName renders e.g. "Cotton 🌱 (Batch A)".
func (r Record) DisplayName() string {
	var b strings.Builder
	b.WriteString(r.Name)
	if r.SubVariety != "" {
		b.WriteString(" - ")
		b.WriteString(r.SubVariety)
	}
	emoji := r.Emoji
	if emoji == "" {
		if k, ok := Lookup(r.Name); ok {
			emoji = k.Emoji
		}
	}
	if emoji != "" {
		b.WriteString(" ")
		b.WriteString(emoji)
	}
	if r.Batch != "" {
		fmt.Fprintf(&b, " (%s)", r.Batch)
	}
	return b.String()
}

// Known is an entry of the suggested crop list.
type Known struct {
	Name  string
	Emoji string
}

var known = []Known{
	{"Cotton", "🌱"},
	{"Soybean", "🫘"},
	{"Wheat", "🌾"},
	{"Rice", "🍚"},
	{"Jowar", "🌾"},
	{"Bajra", "🌾"},
	{"Maize", "🌽"},
	{"Tur", "🫛"},
	{"Gram", "🫛"},
	{"Sugarcane", "🎋"},
	{"Onion", "🧅"},
	{"Tomato", "🍅"},
	{"Grapes", "🍇"},
	{"Pomegranate", "🍎"},
	{"Groundnut", "🥜"},
}

// KnownCrops returns the suggested crop list. Free-text names are allowed too.
func KnownCrops() []Known {
	out := make([]Known, len(known))
	copy(out, known)
	return out
}

// Lookup finds a known crop by name, case-insensitively.
func Lookup(name string) (Known, bool) {
	name = strings.TrimSpace(name)
	for _, k := range known {
		if strings.EqualFold(k.Name, name) {
			return k, true
		}
	}
	return Known{}, false
}

// Draft is the input for a new planting.
type Draft struct {
	Season     string  `json:"season" validate:"required,oneof=kharif rabi zaid"`
	Year       int     `json:"year" validate:"required,gte=2000,lte=2100"`
	Name       string  `json:"name" validate:"required,max=60"`
	SubVariety string  `json:"subVariety,omitempty" validate:"max=60"`
	Batch      string  `json:"batch,omitempty" validate:"max=40"`
	AreaValue  float64 `json:"areaValue" validate:"gt=0"`
	AreaUnit   string  `json:"areaUnit" validate:"required,oneof=acre bigha guntha"`
	Notes      string  `json:"notes,omitempty" validate:"max=500"`
}

// New builds an active crop record from a draft. Field constraints are
// enforced by the caller's struct validation; New only normalises.
func New(d Draft, now time.Time) (Record, error) {
	season, err := ParseSeason(d.Season)
	if err != nil {
		return Record{}, err
	}
	unit, err := ParseAreaUnit(d.AreaUnit)
	if err != nil {
		return Record{}, err
	}
	r := Record{
		Season:     season,
		Year:       d.Year,
		Name:       strings.TrimSpace(d.Name),
		SubVariety: strings.TrimSpace(d.SubVariety),
		Batch:      strings.TrimSpace(d.Batch),
		Area:       Area{Value: d.AreaValue, Unit: unit},
		Status:     Active,
		Notes:      strings.TrimSpace(d.Notes),
		CreatedAt:  now.UTC(),
	}
	if k, ok := Lookup(r.Name); ok {
		r.Name = k.Name
		r.Emoji = k.Emoji
	}
	return r, nil
}
