package domain

import (
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCropBatchContext(t *testing.T) {
	now := time.Date(2025, 11, 10, 8, 0, 0, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(now))
	t.Cleanup(func() { SetClock(nil) })

	t.Run("growing with harvest date", func(t *testing.T) {
		harvest := now.Add(5 * 24 * time.Hour)
		b := CropBatch{CropType: "ধান", Stage: StageGrowing, ExpectedHarvest: &harvest}

		c := b.Context()

		require.NotNil(t, c.DaysToHarvest)
		assert.Equal(t, 5, *c.DaysToHarvest)
	})

	t.Run("past harvest date clamps to zero", func(t *testing.T) {
		harvest := now.Add(-3 * 24 * time.Hour)
		b := CropBatch{Stage: StageGrowing, ExpectedHarvest: &harvest}

		c := b.Context()

		require.NotNil(t, c.DaysToHarvest)
		assert.Equal(t, 0, *c.DaysToHarvest)
	})

	t.Run("growing without harvest date", func(t *testing.T) {
		b := CropBatch{Stage: StageGrowing}
		assert.Nil(t, b.Context().DaysToHarvest)
	})

	t.Run("harvested ignores harvest date", func(t *testing.T) {
		harvest := now.Add(24 * time.Hour)
		b := CropBatch{Stage: StageHarvested, ExpectedHarvest: &harvest, StorageMethod: StorageJuteBag, StorageLocation: "বাড়ির গুদাম"}

		c := b.Context()

		assert.Nil(t, c.DaysToHarvest)
		assert.Equal(t, StorageJuteBag, c.StorageMethod)
		assert.Equal(t, "বাড়ির গুদাম", c.StorageLocation)
	})
}

func TestStorageVulnerabilityMultiplier(t *testing.T) {
	assert.Equal(t, 1.0, StorageSilo.VulnerabilityMultiplier())
	assert.Equal(t, 1.1, StorageTinShed.VulnerabilityMultiplier())
	assert.Equal(t, 1.2, StorageJuteBag.VulnerabilityMultiplier())
	assert.Equal(t, 1.5, StorageOpenSpace.VulnerabilityMultiplier())
	assert.Equal(t, 1.0, StorageMethod("").VulnerabilityMultiplier())
	assert.Equal(t, 1.0, StorageMethod("basement").VulnerabilityMultiplier())
}
