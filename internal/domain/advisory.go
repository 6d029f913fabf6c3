package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// AdvisorySource identifies what produced an advisory. The weather engine
// only ever emits SourceWeather; the other values are reserved for the manual
// CRUD surface and the vision-AI scanner, which live outside this service.
type AdvisorySource string

const (
	AdvisorySourceWeather AdvisorySource = "weather"
	AdvisorySourceManual  AdvisorySource = "manual"
	AdvisorySourceScan    AdvisorySource = "scan"
)

// AdvisoryScope is the explicit delivery scope tag. Farmer-scoped advisories
// carry a FarmerID; broadcasts do not.
type AdvisoryScope string

const (
	ScopeFarmer    AdvisoryScope = "farmer"
	ScopeBroadcast AdvisoryScope = "broadcast"
)

// Advisory is the persisted, farmer-facing message produced from a risk
// assessment. Immutable once created; read by the UI and the SMS channel.
type Advisory struct {
	ID              string         `json:"id"`
	Scope           AdvisoryScope  `json:"scope"`
	FarmerID        string         `json:"farmer_id,omitempty"`
	CropBatchID     string         `json:"crop_batch_id,omitempty"`
	Source          AdvisorySource `json:"source"`
	Severity        RiskLevel      `json:"severity"`
	Title           string         `json:"title"`
	Message         string         `json:"message"`
	Actions         []string       `json:"actions"`
	Temperature     float64        `json:"temperature"`
	Humidity        float64        `json:"humidity"`
	Rainfall        float64        `json:"rainfall"`
	WindSpeed       float64        `json:"wind_speed"`
	StorageLocation string         `json:"storage_location,omitempty"`
	CreatedAt       time.Time      `json:"created_at"`
}

// FormatAdvisoryTitle composes the short advisory headline.
func FormatAdvisoryTitle(c CropContext, level RiskLevel) string {
	crop := c.CropType
	if crop == "" {
		crop = "ফসল"
	}
	return fmt.Sprintf("%s — %s ঝুঁকি সতর্কতা", crop, level.Bengali())
}

// FormatAdvisoryMessage composes the narrative advisory text. The message
// always embeds the numeric weather values the scoring engine consumed so the
// text is auditable against the score that triggered it. It never touches the
// action list.
func FormatAdvisoryMessage(c CropContext, w WeatherSnapshot, a RiskAssessment, district string) string {
	var b strings.Builder

	crop := c.CropType
	if crop == "" {
		crop = "ফসল"
	}

	place := district
	if place == "" {
		place = "আপনার এলাকায়"
	} else {
		place += " এলাকায়"
	}

	fmt.Fprintf(&b, "%s আপনার %s ফসলের জন্য %s ঝুঁকি (স্কোর %d)।", place, crop, a.Level.Bengali(), a.Score)
	fmt.Fprintf(&b, " বর্তমান আবহাওয়া: তাপমাত্রা %.1f°সে, আর্দ্রতা %.0f%%, বৃষ্টিপাত %.1f মিমি, বাতাস %.1f মি/সে।",
		w.Temperature, w.Humidity, w.Rainfall, w.WindSpeed)

	if a.PrimaryThreat.Type != "" {
		fmt.Fprintf(&b, " প্রধান হুমকি: %s।", threatBengali(a.PrimaryThreat.Type))
	}

	if c.Stage == StageGrowing && c.DaysToHarvest != nil && *c.DaysToHarvest <= 7 {
		fmt.Fprintf(&b, " আপনার ফসল কাটার সময় %d দিনের মধ্যে।", *c.DaysToHarvest)
	}

	if c.Stage == StageHarvested && c.StorageLocation != "" {
		fmt.Fprintf(&b, " সংরক্ষণের স্থান: %s।", c.StorageLocation)
	}

	return b.String()
}

func threatBengali(factorType string) string {
	switch factorType {
	case FactorHumidity:
		return "অতিরিক্ত আর্দ্রতা"
	case FactorTemperature:
		return "তীব্র তাপমাত্রা"
	case FactorRainfall:
		return "ভারী বৃষ্টিপাত"
	case FactorWind:
		return "ঝড়ো বাতাস"
	case FactorHarvestTiming:
		return "আসন্ন ফসল কাটার সময়"
	default:
		return "আবহাওয়া"
	}
}

// ContainsBengali reports whether s contains at least one character from the
// Bengali Unicode block. Every generated advisory message and action string
// must satisfy this.
func ContainsBengali(s string) bool {
	for _, r := range s {
		if unicode.Is(unicode.Bengali, r) {
			return true
		}
	}
	return false
}
