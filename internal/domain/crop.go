package domain

import (
	"math"
	"time"
)

// CropStage is the lifecycle stage of a crop batch.
type CropStage string

const (
	StageGrowing   CropStage = "growing"
	StageHarvested CropStage = "harvested"
)

// StorageMethod is how a harvested batch is stored. Each method carries a
// fixed vulnerability multiplier applied to the weather risk score.
type StorageMethod string

const (
	StorageSilo      StorageMethod = "silo"
	StorageTinShed   StorageMethod = "tin_shed"
	StorageJuteBag   StorageMethod = "jute_bag"
	StorageOpenSpace StorageMethod = "open_space"
)

// VulnerabilityMultiplier returns the storage method's risk multiplier.
// Unknown or empty methods behave like a silo (no amplification).
func (m StorageMethod) VulnerabilityMultiplier() float64 {
	switch m {
	case StorageTinShed:
		return 1.1
	case StorageJuteBag:
		return 1.2
	case StorageOpenSpace:
		return 1.5
	default:
		return 1.0
	}
}

// Farmer is the directory record the orchestrator evaluates.
type Farmer struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Phone     string  `json:"phone"`
	Village   string  `json:"village,omitempty"`
	District  string  `json:"district,omitempty"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// CropBatch is one planted or stored lot belonging to a farmer.
type CropBatch struct {
	ID              string        `json:"id"`
	FarmerID        string        `json:"farmer_id"`
	CropType        string        `json:"crop_type"`
	Stage           CropStage     `json:"stage"`
	ExpectedHarvest *time.Time    `json:"expected_harvest,omitempty"`
	StorageMethod   StorageMethod `json:"storage_method,omitempty"`
	StorageLocation string        `json:"storage_location,omitempty"`
	QuantityKG      float64       `json:"quantity_kg,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

// CropContext is the slice of crop state the scoring engine consumes.
// DaysToHarvest is nil when the harvest date is unset or already invalid;
// otherwise it is clamped to ≥ 0.
type CropContext struct {
	CropType        string
	Stage           CropStage
	DaysToHarvest   *int
	StorageMethod   StorageMethod
	StorageLocation string
}

// Context derives the scoring context for the batch. Days-until-harvest is
// computed against the package clock so tests can freeze time.
func (b CropBatch) Context() CropContext {
	c := CropContext{
		CropType:        b.CropType,
		Stage:           b.Stage,
		StorageMethod:   b.StorageMethod,
		StorageLocation: b.StorageLocation,
	}
	if b.Stage == StageGrowing && b.ExpectedHarvest != nil {
		days := int(math.Ceil(b.ExpectedHarvest.Sub(clock.Now()).Hours() / 24))
		if days < 0 {
			days = 0
		}
		c.DaysToHarvest = &days
	}
	return c
}
