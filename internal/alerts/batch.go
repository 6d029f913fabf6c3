package alerts

import (
	"context"
	"sync"
)

// BatchResult summarizes one full run over the farmer directory.
type BatchResult struct {
	Farmers    int // farmers evaluated
	Advisories int // advisories persisted
	Failures   int // farmers whose evaluation errored
}

// GenerateForAllFarmers evaluates every registered farmer in concurrent
// groups. A failing farmer never stops the run; the result counts failures
// alongside successes.
func (e *Engine) GenerateForAllFarmers(ctx context.Context) (BatchResult, error) {
	start := e.clock.Now()
	defer func() {
		e.metrics.BatchDuration.Observe(e.clock.Since(start).Seconds())
	}()

	farmers, err := e.deps.Farmers.ListFarmers(ctx)
	if err != nil {
		return BatchResult{}, err
	}

	result := BatchResult{Farmers: len(farmers)}
	for group := 0; group < len(farmers); group += e.groupSize {
		end := min(group+e.groupSize, len(farmers))
		chunk := farmers[group:end]

		counts := make([]int, len(chunk))
		errs := make([]error, len(chunk))

		var wg sync.WaitGroup
		for i, farmer := range chunk {
			wg.Add(1)
			go func() {
				defer wg.Done()
				advisories, err := e.GenerateForFarmer(ctx, farmer.ID)
				counts[i] = len(advisories)
				errs[i] = err
			}()
		}
		wg.Wait()

		for i := range chunk {
			if errs[i] != nil {
				e.logger.Error("farmer evaluation failed in batch",
					"farmer_id", chunk[i].ID,
					"error", errs[i])
				result.Failures++
				continue
			}
			result.Advisories += counts[i]
		}
	}

	e.logger.Info("advisory batch finished",
		"farmers", result.Farmers,
		"advisories", result.Advisories,
		"failures", result.Failures,
		"duration", e.clock.Since(start))
	return result, nil
}
