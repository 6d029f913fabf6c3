package alerts

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/krishisheba/advisory-service/internal/domain"
)

func TestEngine_GenerateForAllFarmers(t *testing.T) {
	f := newFixture(t)
	for i := range 25 {
		id := fmt.Sprintf("farmer-%02d", i)
		batch := growingBatch("batch-" + id)
		batch.FarmerID = id
		f.addFarmer(id, batch)
	}

	result, err := f.engine.GenerateForAllFarmers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 25, result.Farmers)
	assert.Equal(t, 25, result.Advisories)
	assert.Zero(t, result.Failures)
	assert.Len(t, f.advisories.stored, 25)
}

func TestEngine_BatchToleratesFailingFarmers(t *testing.T) {
	f := newFixture(t)
	for i := range 12 {
		id := fmt.Sprintf("farmer-%02d", i)
		batch := growingBatch("batch-" + id)
		batch.FarmerID = id
		f.addFarmer(id, batch)
	}
	// A directory row whose farmer record has vanished fails its own
	// evaluation but nobody else's.
	f.farmers.farmers["farmer-03"] = domain.Farmer{ID: "ghost"}
	delete(f.crops.batches, "farmer-03")
	f.crops.batches["ghost"] = nil

	result, err := f.engine.GenerateForAllFarmers(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12, result.Farmers)
	assert.Equal(t, 11, result.Advisories)
	assert.Equal(t, 1, result.Failures)
	assert.Len(t, f.advisories.stored, 11)
}

func TestEngine_BatchEmptyDirectory(t *testing.T) {
	f := newFixture(t)

	result, err := f.engine.GenerateForAllFarmers(context.Background())
	require.NoError(t, err)
	assert.Zero(t, result.Farmers)
	assert.Zero(t, result.Advisories)
}
