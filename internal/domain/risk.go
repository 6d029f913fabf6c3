package domain

import (
	"fmt"
	"math"
)

// RiskLevel is the coarse bucket derived from a risk score.
type RiskLevel string

const (
	RiskLow      RiskLevel = "Low"
	RiskMedium   RiskLevel = "Medium"
	RiskHigh     RiskLevel = "High"
	RiskCritical RiskLevel = "Critical"
)

// Bengali returns the level name in the advisory script.
func (l RiskLevel) Bengali() string {
	switch l {
	case RiskMedium:
		return "মাঝারি"
	case RiskHigh:
		return "উচ্চ"
	case RiskCritical:
		return "জরুরি"
	default:
		return "কম"
	}
}

// LevelForScore maps a clamped score to its level:
// Low < 40 ≤ Medium < 60 ≤ High < 80 ≤ Critical.
func LevelForScore(score int) RiskLevel {
	switch {
	case score >= 80:
		return RiskCritical
	case score >= 60:
		return RiskHigh
	case score >= 40:
		return RiskMedium
	default:
		return RiskLow
	}
}

// Risk factor type labels.
const (
	FactorHumidity      = "humidity"
	FactorTemperature   = "temperature"
	FactorRainfall      = "rainfall"
	FactorWind          = "wind"
	FactorHarvestTiming = "harvest_timing"
)

// RiskFactor is one contributing threat, with severity expressed 0–100
// relative to that factor's own maximum contribution.
type RiskFactor struct {
	Type        string `json:"type"`
	Severity    int    `json:"severity"`
	Description string `json:"description"`
}

// RiskAssessment is the scoring engine's output. Computed fresh on every
// evaluation and never persisted; only the derived advisory is.
type RiskAssessment struct {
	Score         int          `json:"score"`
	Level         RiskLevel    `json:"level"`
	Factors       []RiskFactor `json:"factors"`
	PrimaryThreat RiskFactor   `json:"primary_threat"`
}

// factorScale defines one weather factor's stepped contribution. Thresholds
// are strict (value must exceed them) and checked highest first.
type factorScale struct {
	name       string
	unit       string
	thresholds [4]float64 // critical, high, medium, low
	points     [4]float64
}

// The four weather factor scales, in evaluation order. The order also breaks
// primary-threat severity ties: first encountered wins.
var factorScales = []factorScale{
	{FactorHumidity, "%", [4]float64{90, 80, 70, 60}, [4]float64{35, 25, 15, 8}},
	{FactorTemperature, "°C", [4]float64{42, 38, 35, 30}, [4]float64{30, 20, 12, 7}},
	{FactorRainfall, "mm", [4]float64{150, 100, 50, 20}, [4]float64{25, 18, 10, 5}},
	{FactorWind, "m/s", [4]float64{20, 15, 10, 5}, [4]float64{10, 7, 4, 0}},
}

// contribution returns the points for the first threshold the value exceeds.
func (f factorScale) contribution(value float64) float64 {
	for i, threshold := range f.thresholds {
		if value > threshold {
			return f.points[i]
		}
	}
	return 0
}

// maxPoints is the factor's largest possible contribution.
func (f factorScale) maxPoints() float64 { return f.points[0] }

// ScoreRisk maps a weather snapshot and crop context to a risk assessment.
// Pure and deterministic: identical inputs always produce identical score,
// level, factor list, and primary threat.
func ScoreRisk(w WeatherSnapshot, c CropContext) RiskAssessment {
	values := map[string]float64{
		FactorHumidity:    w.Humidity,
		FactorTemperature: w.Temperature,
		FactorRainfall:    w.Rainfall,
		FactorWind:        w.WindSpeed,
	}

	total := 0.0
	factors := make([]RiskFactor, 0, len(factorScales)+1)
	for _, scale := range factorScales {
		value := values[scale.name]
		points := scale.contribution(value)
		total += points
		if points <= 0 {
			continue
		}
		factors = append(factors, RiskFactor{
			Type:        scale.name,
			Severity:    int(math.Round(points / scale.maxPoints() * 100)),
			Description: fmt.Sprintf("%s at %.1f%s", scale.name, value, scale.unit),
		})
	}

	if c.Stage == StageHarvested && c.StorageMethod != "" {
		total *= c.StorageMethod.VulnerabilityMultiplier()
	}

	if c.Stage == StageGrowing && c.DaysToHarvest != nil && *c.DaysToHarvest <= 7 {
		factors = append(factors, RiskFactor{
			Type:        FactorHarvestTiming,
			Severity:    50,
			Description: fmt.Sprintf("harvest expected in %d days", *c.DaysToHarvest),
		})
	}

	score := int(math.Round(math.Min(math.Max(total, 0), 100)))

	return RiskAssessment{
		Score:         score,
		Level:         LevelForScore(score),
		Factors:       factors,
		PrimaryThreat: primaryThreat(factors),
	}
}

// primaryThreat picks the factor with the highest severity, ties broken by
// first-encountered order. Zero value when no factor contributed.
func primaryThreat(factors []RiskFactor) RiskFactor {
	var primary RiskFactor
	for _, f := range factors {
		if f.Severity > primary.Severity {
			primary = f
		}
	}
	return primary
}
