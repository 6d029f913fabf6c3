package main

import (
	"context"
	"fmt"
	"time"

	"github.com/krishisheba/advisory-service/internal/domain"
)

// seedDemoData loads a handful of farmers and crop batches so a fresh
// instance has something to evaluate. Used for local development and demos.
func seedDemoData(ctx context.Context, store datastore, now time.Time) error {
	harvestSoon := now.Add(5 * 24 * time.Hour)
	harvestLater := now.Add(45 * 24 * time.Hour)

	farmers := []domain.Farmer{
		{ID: "demo-farmer-1", Name: "করিম মিয়া", Phone: "+8801712000001", Village: "শ্রীপুর", District: "গাজীপুর", Latitude: 24.10, Longitude: 90.42},
		{ID: "demo-farmer-2", Name: "রহিমা বেগম", Phone: "+8801712000002", Village: "পবা", District: "রাজশাহী", Latitude: 24.37, Longitude: 88.60},
		{ID: "demo-farmer-3", Name: "আব্দুল হক", Phone: "+8801712000003", Village: "সদর", District: "খুলনা", Latitude: 22.82, Longitude: 89.55},
	}

	batches := []domain.CropBatch{
		{ID: "demo-batch-1", FarmerID: "demo-farmer-1", CropType: "ধান", Stage: domain.StageGrowing, ExpectedHarvest: &harvestSoon, CreatedAt: now},
		{ID: "demo-batch-2", FarmerID: "demo-farmer-1", CropType: "পাট", Stage: domain.StageGrowing, ExpectedHarvest: &harvestLater, CreatedAt: now},
		{ID: "demo-batch-3", FarmerID: "demo-farmer-2", CropType: "গম", Stage: domain.StageHarvested, StorageMethod: domain.StorageJuteBag, StorageLocation: "বাড়ির গুদাম", QuantityKG: 800, CreatedAt: now},
		{ID: "demo-batch-4", FarmerID: "demo-farmer-3", CropType: "আলু", Stage: domain.StageHarvested, StorageMethod: domain.StorageOpenSpace, StorageLocation: "উঠান", QuantityKG: 1200, CreatedAt: now},
	}

	for _, f := range farmers {
		if err := store.SaveFarmer(ctx, f); err != nil {
			return fmt.Errorf("seeding farmer %s: %w", f.ID, err)
		}
	}
	for _, b := range batches {
		if err := store.SaveCropBatch(ctx, b); err != nil {
			return fmt.Errorf("seeding crop batch %s: %w", b.ID, err)
		}
	}
	return nil
}
