package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateActions_Bounds(t *testing.T) {
	weathers := []WeatherSnapshot{
		{},
		{Temperature: 36, Humidity: 85, Rainfall: 25, WindSpeed: 12},
		{Temperature: 43, Humidity: 95, Rainfall: 160, WindSpeed: 25},
	}
	crops := []CropContext{
		{Stage: StageGrowing},
		{Stage: StageGrowing, DaysToHarvest: intPtr(3)},
		{Stage: StageHarvested, StorageMethod: StorageSilo},
		{Stage: StageHarvested, StorageMethod: StorageOpenSpace},
		{Stage: StageHarvested, StorageMethod: StorageJuteBag},
	}
	levels := []RiskLevel{RiskLow, RiskMedium, RiskHigh, RiskCritical}

	for _, w := range weathers {
		for _, c := range crops {
			for _, level := range levels {
				actions := GenerateActions(c, w, level)

				assert.GreaterOrEqual(t, len(actions), 2)
				assert.LessOrEqual(t, len(actions), 5)

				seen := make(map[string]bool)
				for _, a := range actions {
					assert.False(t, seen[a], "duplicate action %q", a)
					seen[a] = true
					assert.True(t, ContainsBengali(a), "action %q must be in Bengali", a)
				}
			}
		}
	}
}

func TestGenerateActions_CriticalAlwaysFirst(t *testing.T) {
	w := WeatherSnapshot{Temperature: 43, Humidity: 95, Rainfall: 160, WindSpeed: 25}
	c := CropContext{Stage: StageHarvested, StorageMethod: StorageOpenSpace}

	actions := GenerateActions(c, w, RiskCritical)

	require.NotEmpty(t, actions)
	assert.Equal(t, "জরুরি: ফসল রক্ষায় এখনই ব্যবস্থা নিন", actions[0])
	assert.Len(t, actions, 5, "superset of matching rules is truncated to the top 5")
}

func TestGenerateActions_FallbackWhenNothingMatches(t *testing.T) {
	// Calm weather, no stage rules fire: both generic monitoring items fill in.
	actions := GenerateActions(CropContext{Stage: StageGrowing}, WeatherSnapshot{}, RiskLow)

	require.Len(t, actions, 2)
	for _, a := range actions {
		assert.True(t, ContainsBengali(a))
	}
}

func TestGenerateActions_SingleMatchPadded(t *testing.T) {
	// Only the rainfall-over-open-storage rule fires; one generic item is appended.
	w := WeatherSnapshot{Rainfall: 25}
	c := CropContext{Stage: StageHarvested, StorageMethod: StorageOpenSpace}

	actions := GenerateActions(c, w, RiskLow)

	require.Len(t, actions, 2)
	assert.Equal(t, "খোলা জায়গায় রাখা ফসল এখনই ঢেকে দিন বা নিরাপদ স্থানে সরিয়ে নিন", actions[0])
}

func TestGenerateActions_PriorityOrdering(t *testing.T) {
	// Open storage in rain outranks the mold warning which outranks ventilation.
	w := WeatherSnapshot{Temperature: 32, Humidity: 85, Rainfall: 30}
	c := CropContext{Stage: StageHarvested, StorageMethod: StorageOpenSpace}

	actions := GenerateActions(c, w, RiskMedium)

	require.GreaterOrEqual(t, len(actions), 3)
	assert.Equal(t, "খোলা জায়গায় রাখা ফসল এখনই ঢেকে দিন বা নিরাপদ স্থানে সরিয়ে নিন", actions[0])
	assert.Equal(t, "ছাতা পড়া ও পচনের ঝুঁকি বেশি, সংরক্ষিত ফসল পরীক্ষা করুন", actions[1])
	assert.Equal(t, "গুদামে বাতাস চলাচলের ব্যবস্থা বাড়ান", actions[2])
}

func TestGenerateActions_GrowingDrainageEscalation(t *testing.T) {
	heavy := GenerateActions(CropContext{Stage: StageGrowing}, WeatherSnapshot{Rainfall: 60}, RiskMedium)
	assert.Equal(t, "জমিতে পানি জমতে দেবেন না, নিষ্কাশনের নালা পরিষ্কার করুন", heavy[0])

	moderate := GenerateActions(CropContext{Stage: StageGrowing}, WeatherSnapshot{Rainfall: 30}, RiskLow)
	assert.Equal(t, "নিষ্কাশন ব্যবস্থা পরীক্ষা করে রাখুন", moderate[0])
}
