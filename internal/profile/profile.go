// Package profile holds the farmer profile and the mapping between its
// stored keys and display labels.
package profile

import (
	"time"

	"khetbook/internal/location"
)

type WaterSource string

const (
	Well     WaterSource = "well"
	Borewell WaterSource = "borewell"
	Canal    WaterSource = "canal"
	River    WaterSource = "river"
	Rainfed  WaterSource = "rainfed"
)

type LabourType string

const (
	Family LabourType = "family"
	Hired  LabourType = "hired"
	Mixed  LabourType = "mixed"
)

type LandUnit string

const (
	Acre  LandUnit = "acre"
	Bigha LandUnit = "bigha"
)

// Location is the farmer's village as stable keys.
type Location struct {
	District string `json:"district" validate:"required"`
	Taluka   string `json:"taluka" validate:"required"`
	Village  string `json:"village" validate:"required"`
}

// Path converts the location into a hierarchy query path.
func (l Location) Path() location.Path {
	return location.Path{Region: l.District, SubRegion: l.Taluka, Settlement: l.Village}
}

type Land struct {
	Value float64  `json:"value" validate:"gt=0"`
	Unit  LandUnit `json:"unit" validate:"required,oneof=acre bigha"`
}

// Payload is the locale-independent, persistable part of a profile. Every
// tag field holds a key, never a label.
type Payload struct {
	Name             string      `json:"name" validate:"required,max=80"`
	Location         Location    `json:"location"`
	TotalLand        Land        `json:"totalLand"`
	WaterSource      WaterSource `json:"waterSource" validate:"required,oneof=well borewell canal river rainfed"`
	LabourType       LabourType  `json:"labourType" validate:"required,oneof=family hired mixed"`
	HasTractor       bool        `json:"hasTractor"`
	AnalyticsConsent bool        `json:"analyticsConsent"`
}

// FarmerProfile is the stored profile of one account.
type FarmerProfile struct {
	Payload
	AccountID string    `json:"accountId"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
